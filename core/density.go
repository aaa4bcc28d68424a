package core

import (
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
)

// TerrainParams tune the three noise bands that build the terrain height.
// Scales are spatial frequencies in 1/meters, amplitudes in meters.
type TerrainParams struct {
	ContinentScale     float64 `yaml:"continentScale"`
	ContinentAmplitude float64 `yaml:"continentAmplitude"`
	MountainScale      float64 `yaml:"mountainScale"`
	MountainAmplitude  float64 `yaml:"mountainAmplitude"`
	DetailScale        float64 `yaml:"detailScale"`
	DetailAmplitude    float64 `yaml:"detailAmplitude"`
	OceanDepth         float64 `yaml:"oceanDepth"`
	SeaLevel           float64 `yaml:"seaLevel"`
}

// DefaultTerrainParams returns Earth-ish band settings.
func DefaultTerrainParams() TerrainParams {
	return TerrainParams{
		ContinentScale:     0.00005,
		ContinentAmplitude: 1000.0,
		MountainScale:      0.0002,
		MountainAmplitude:  500.0,
		DetailScale:        0.0008,
		DetailAmplitude:    50.0,
		OceanDepth:         -4000.0,
		SeaLevel:           0.0,
	}
}

// farFieldDistance is how far from the nominal surface the density query
// skips terrain evaluation and returns the plain sphere distance.
const farFieldDistance = 10000.0

// DensityField is the signed-distance description of the planet volume:
// negative inside, positive outside, zero on the terrain surface. It is
// immutable after construction and safe for concurrent use.
type DensityField struct {
	radius float64
	seed   int64
	params TerrainParams
	perm   [512]uint8
}

// NewDensityField builds a field for a planet of the given radius, with
// the noise permutation table shuffled by seed.
func NewDensityField(radius float64, seed int64) *DensityField {
	return NewDensityFieldWith(radius, seed, DefaultTerrainParams())
}

// NewDensityFieldWith builds a field with explicit terrain parameters.
func NewDensityFieldWith(radius float64, seed int64, params TerrainParams) *DensityField {
	f := &DensityField{radius: radius, seed: seed, params: params}
	p := make([]uint8, 256)
	for i := range p {
		p[i] = uint8(i)
	}
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(p), func(i, j int) { p[i], p[j] = p[j], p[i] })
	for i := 0; i < 256; i++ {
		f.perm[i] = p[i]
		f.perm[256+i] = p[i]
	}
	return f
}

// Radius returns the nominal planet radius in meters.
func (f *DensityField) Radius() float64 { return f.radius }

// Seed returns the noise seed.
func (f *DensityField) Seed() int64 { return f.seed }

// Params returns the terrain band parameters.
func (f *DensityField) Params() TerrainParams { return f.params }

// Gradient vectors for simplex noise, the twelve edge midpoints of a cube.
var grad3 = [12]mgl64.Vec3{
	{1, 1, 0}, {-1, 1, 0}, {1, -1, 0}, {-1, -1, 0},
	{1, 0, 1}, {-1, 0, 1}, {1, 0, -1}, {-1, 0, -1},
	{0, 1, 1}, {0, -1, 1}, {0, 1, -1}, {0, -1, -1},
}

const (
	skewF3   = 1.0 / 3.0
	unskewG3 = 1.0 / 6.0
)

// noise3 evaluates seeded 3D simplex noise, roughly in [-1, 1].
func (f *DensityField) noise3(x, y, z float64) float64 {
	s := (x + y + z) * skewF3
	i := int(math.Floor(x + s))
	j := int(math.Floor(y + s))
	k := int(math.Floor(z + s))

	t := float64(i+j+k) * unskewG3
	ox := x - (float64(i) - t)
	oy := y - (float64(j) - t)
	oz := z - (float64(k) - t)

	// Rank the offsets to pick the traversal order through the simplex.
	var i1, j1, k1 int // second corner offset
	var i2, j2, k2 int // third corner offset
	if ox >= oy {
		switch {
		case oy >= oz:
			i1, j1, k1 = 1, 0, 0
			i2, j2, k2 = 1, 1, 0
		case ox >= oz:
			i1, j1, k1 = 1, 0, 0
			i2, j2, k2 = 1, 0, 1
		default:
			i1, j1, k1 = 0, 0, 1
			i2, j2, k2 = 1, 0, 1
		}
	} else {
		switch {
		case oy < oz:
			i1, j1, k1 = 0, 0, 1
			i2, j2, k2 = 0, 1, 1
		case ox < oz:
			i1, j1, k1 = 0, 1, 0
			i2, j2, k2 = 0, 1, 1
		default:
			i1, j1, k1 = 0, 1, 0
			i2, j2, k2 = 1, 1, 0
		}
	}

	x1 := ox - float64(i1) + unskewG3
	y1 := oy - float64(j1) + unskewG3
	z1 := oz - float64(k1) + unskewG3
	x2 := ox - float64(i2) + 2*unskewG3
	y2 := oy - float64(j2) + 2*unskewG3
	z2 := oz - float64(k2) + 2*unskewG3
	x3 := ox - 1 + 3*unskewG3
	y3 := oy - 1 + 3*unskewG3
	z3 := oz - 1 + 3*unskewG3

	ii := i & 255
	jj := j & 255
	kk := k & 255
	gi0 := int(f.perm[ii+int(f.perm[jj+int(f.perm[kk])])]) % 12
	gi1 := int(f.perm[ii+i1+int(f.perm[jj+j1+int(f.perm[kk+k1])])]) % 12
	gi2 := int(f.perm[ii+i2+int(f.perm[jj+j2+int(f.perm[kk+k2])])]) % 12
	gi3 := int(f.perm[ii+1+int(f.perm[jj+1+int(f.perm[kk+1])])]) % 12

	var n0, n1, n2, n3 float64
	if t0 := 0.6 - ox*ox - oy*oy - oz*oz; t0 > 0 {
		t0 *= t0
		n0 = t0 * t0 * (grad3[gi0][0]*ox + grad3[gi0][1]*oy + grad3[gi0][2]*oz)
	}
	if t1 := 0.6 - x1*x1 - y1*y1 - z1*z1; t1 > 0 {
		t1 *= t1
		n1 = t1 * t1 * (grad3[gi1][0]*x1 + grad3[gi1][1]*y1 + grad3[gi1][2]*z1)
	}
	if t2 := 0.6 - x2*x2 - y2*y2 - z2*z2; t2 > 0 {
		t2 *= t2
		n2 = t2 * t2 * (grad3[gi2][0]*x2 + grad3[gi2][1]*y2 + grad3[gi2][2]*z2)
	}
	if t3 := 0.6 - x3*x3 - y3*y3 - z3*z3; t3 > 0 {
		t3 *= t3
		n3 = t3 * t3 * (grad3[gi3][0]*x3 + grad3[gi3][1]*y3 + grad3[gi3][2]*z3)
	}

	return 32 * (n0 + n1 + n2 + n3)
}

// fbm sums octaves of noise3, normalized so the result stays within
// ±amplitude regardless of octave count.
func (f *DensityField) fbm(p mgl64.Vec3, octaves int, frequency, amplitude, lacunarity, gain float64) float64 {
	value := 0.0
	maxValue := 0.0
	amp := amplitude
	freq := frequency
	for i := 0; i < octaves; i++ {
		value += f.noise3(p[0]*freq, p[1]*freq, p[2]*freq) * amp
		maxValue += amp
		amp *= gain
		freq *= lacunarity
	}
	return value / maxValue * amplitude
}

// TerrainHeight returns the terrain elevation in meters above the nominal
// sphere at the given unit surface normal. Octave counts are fixed: the
// surface does not change shape with viewing distance.
func (f *DensityField) TerrainHeight(sphereNormal mgl64.Vec3) float64 {
	p := sphereNormal.Mul(f.radius)
	tp := &f.params

	continent := f.fbm(p, 4, tp.ContinentScale, 1, 2.1, 0.45) * tp.ContinentAmplitude
	mountains := f.fbm(p, 3, tp.MountainScale, 1, 2.3, 0.4) * tp.MountainAmplitude
	mountains *= smoothstep(-200, 500, continent)
	details := f.fbm(p, 2, tp.DetailScale, 1, 2.0, 0.5) * tp.DetailAmplitude

	height := continent + mountains*0.7 + details*0.3
	if height < tp.SeaLevel {
		// Push submerged terrain down toward the ocean floor.
		depth := (tp.SeaLevel - height) / tp.ContinentAmplitude
		height = tp.SeaLevel + tp.OceanDepth*depth
	}
	return height
}

// Density returns the signed distance to the terrain surface: negative
// inside the planet, positive outside. Far from the surface the terrain
// evaluation is skipped and the sphere distance is returned.
func (f *DensityField) Density(worldPos mgl64.Vec3) float64 {
	radius := worldPos.Len()
	if math.Abs(radius-f.radius) > farFieldDistance {
		return radius - f.radius
	}
	normal := worldPos.Mul(1 / radius)
	return radius - (f.radius + f.TerrainHeight(normal))
}

// Gradient estimates the density gradient by central differences and
// normalizes it. Useful as a surface normal for volumetric meshes.
func (f *DensityField) Gradient(worldPos mgl64.Vec3, epsilon float64) mgl64.Vec3 {
	dx := f.Density(worldPos.Add(mgl64.Vec3{epsilon, 0, 0})) - f.Density(worldPos.Sub(mgl64.Vec3{epsilon, 0, 0}))
	dy := f.Density(worldPos.Add(mgl64.Vec3{0, epsilon, 0})) - f.Density(worldPos.Sub(mgl64.Vec3{0, epsilon, 0}))
	dz := f.Density(worldPos.Add(mgl64.Vec3{0, 0, epsilon})) - f.Density(worldPos.Sub(mgl64.Vec3{0, 0, epsilon}))
	g := mgl64.Vec3{dx, dy, dz}
	if l := g.Len(); l > 0 {
		return g.Mul(1 / l)
	}
	return worldPos.Normalize()
}

// SurfaceMaterial classifies terrain by its elevation, the rule shared by
// the patch surface and the volumetric classifier.
func (f *DensityField) SurfaceMaterial(height float64) Material {
	switch {
	case height < f.params.SeaLevel-100:
		return MaterialSediment
	case height < f.params.SeaLevel:
		return MaterialWater
	case height > 2000:
		return MaterialIce
	default:
		return MaterialRock
	}
}

// MaterialAt classifies the volume at a world position.
func (f *DensityField) MaterialAt(worldPos mgl64.Vec3) Material {
	if f.Density(worldPos) > 0 {
		return MaterialAir
	}
	return f.SurfaceMaterial(f.TerrainHeight(worldPos.Normalize()))
}

func smoothstep(edge0, edge1, x float64) float64 {
	t := (x - edge0) / (edge1 - edge0)
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return t * t * (3 - 2*t)
}
