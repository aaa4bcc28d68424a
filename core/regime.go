package core

// Regime names which meshing pipeline owns the surface at the current
// altitude.
type Regime uint8

const (
	// RegimeQuadtree renders patch meshes only.
	RegimeQuadtree Regime = iota
	// RegimeTransition blends patch and volumetric meshes.
	RegimeTransition
	// RegimeVolumetric renders marching-cubes chunks only.
	RegimeVolumetric
)

func (r Regime) String() string {
	switch r {
	case RegimeQuadtree:
		return "quadtree"
	case RegimeTransition:
		return "transition"
	case RegimeVolumetric:
		return "volumetric"
	}
	return "?"
}

// RegimeConfig sets the altitude band of the transition regime and how
// fast the blend factor may move per second.
type RegimeConfig struct {
	// HighAltitude is the ceiling: above it the planet is pure quadtree.
	HighAltitude float64 `yaml:"highAltitude"`
	// LowAltitude is the floor: below it the planet is pure volumetric.
	LowAltitude float64 `yaml:"lowAltitude"`
	// BlendSlewRate caps blend factor movement in units per second so a
	// fast-descending camera never pops between regimes.
	BlendSlewRate float64 `yaml:"blendSlewRate"`
}

// DefaultRegimeConfig mirrors the renderer's 500 m / 1 km band.
func DefaultRegimeConfig() RegimeConfig {
	return RegimeConfig{
		HighAltitude:  1000,
		LowAltitude:   500,
		BlendSlewRate: 4,
	}
}

// RegimeManager tracks the active regime and the smoothed blend factor.
type RegimeManager struct {
	cfg   RegimeConfig
	blend float64
}

// NewRegimeManager starts in the pure-quadtree regime.
func NewRegimeManager(cfg RegimeConfig) *RegimeManager {
	return &RegimeManager{cfg: cfg}
}

// targetBlend is 0 above the high altitude, 1 below the low altitude and
// linear in between.
func (m *RegimeManager) targetBlend(altitude float64) float64 {
	switch {
	case altitude >= m.cfg.HighAltitude:
		return 0
	case altitude <= m.cfg.LowAltitude:
		return 1
	default:
		return 1 - (altitude-m.cfg.LowAltitude)/(m.cfg.HighAltitude-m.cfg.LowAltitude)
	}
}

// Update advances the blend factor toward the altitude's target, limited
// by the slew rate, and returns the regime it lands in.
func (m *RegimeManager) Update(altitude, dt float64) (Regime, float64) {
	target := m.targetBlend(altitude)
	maxStep := m.cfg.BlendSlewRate * dt
	delta := target - m.blend
	if delta > maxStep {
		delta = maxStep
	} else if delta < -maxStep {
		delta = -maxStep
	}
	m.blend += delta

	switch {
	case m.blend <= 0:
		m.blend = 0
		return RegimeQuadtree, 0
	case m.blend >= 1:
		m.blend = 1
		return RegimeVolumetric, 1
	default:
		return RegimeTransition, m.blend
	}
}

// Blend returns the current blend factor without advancing it.
func (m *RegimeManager) Blend() float64 { return m.blend }
