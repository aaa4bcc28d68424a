package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// LODConfig tunes screen-space-error LOD selection.
type LODConfig struct {
	// PixelError is the subdivision threshold in pixels.
	PixelError float64 `yaml:"pixelError"`
	// MergeHysteresis scales PixelError down for the merge decision so
	// patches do not flicker between levels at the boundary.
	MergeHysteresis float64 `yaml:"mergeHysteresis"`
	// MorphRegion is the fraction of the error range over which vertices
	// morph between levels.
	MorphRegion float64 `yaml:"morphRegion"`
	// MorphSpeed is the rate at which the morph factor chases its target,
	// in units per second.
	MorphSpeed float64 `yaml:"morphSpeed"`

	ScreenHeight int     `yaml:"screenHeight"`
	FOVDegrees   float64 `yaml:"fovDegrees"`

	FrustumCulling  bool `yaml:"frustumCulling"`
	BackfaceCulling bool `yaml:"backfaceCulling"`

	// AltitudeFloor applies the altitude-based threshold floor on top of
	// PixelError, relaxing detail when the camera is far away.
	AltitudeFloor bool `yaml:"altitudeFloor"`
}

// DefaultLODConfig mirrors the renderer defaults.
func DefaultLODConfig() LODConfig {
	return LODConfig{
		PixelError:      2.0,
		MergeHysteresis: 0.5,
		MorphRegion:     0.3,
		MorphSpeed:      2.0,
		ScreenHeight:    720,
		FOVDegrees:      60,
		FrustumCulling:  true,
		BackfaceCulling: true,
		AltitudeFloor:   true,
	}
}

// ScreenSpaceError estimates the pixel error of rendering a patch of the
// given cube-space size at its world center from viewPos. The geometric
// error heuristic is a tenth of the patch's world extent; it is projected
// with a small-angle approximation and clamped to [0.1, 10000] pixels.
func ScreenSpaceError(center mgl64.Vec3, patchSize float64, viewPos mgl64.Vec3, planetRadius float64, cfg *LODConfig) float64 {
	distance := viewPos.Sub(center).Len()
	if distance < 1 {
		distance = 1
	}
	geometricError := patchSize * planetRadius * 0.1
	angularSize := geometricError / distance
	pixelsPerRadian := float64(cfg.ScreenHeight) / (cfg.FOVDegrees * math.Pi / 180)
	pixelError := angularSize * pixelsPerRadian
	if pixelError > 10000 {
		pixelError = 10000
	}
	if pixelError < 0.1 {
		pixelError = 0.1
	}
	return pixelError
}

// AltitudeThreshold returns the error threshold floor for a camera at the
// given altitude: far away the tolerance is generous, near the surface it
// tightens stepwise.
func AltitudeThreshold(altitude, planetRadius float64) float64 {
	ratio := altitude / planetRadius
	switch {
	case ratio > 10:
		return 25
	case ratio > 5:
		return 15
	case ratio > 2:
		return 10
	case ratio > 1:
		return 7
	case ratio > 0.5:
		return 5
	case ratio > 0.15:
		return 4
	case ratio > 0.01:
		return 2.5
	case ratio > 0.001:
		return 1.5
	case ratio > 0.00001:
		return 1
	default:
		return 0.5
	}
}

// backfaceCullThreshold picks how aggressively patches facing away from
// the camera are dropped; close to the surface the horizon is nearer so
// the test must be conservative.
func backfaceCullThreshold(altitude, planetRadius float64) float64 {
	ratio := altitude / planetRadius
	switch {
	case ratio < 0.01:
		return -0.3
	case ratio < 0.1:
		return -0.2
	default:
		return -0.1
	}
}

// ActionKind distinguishes deferred tree edits.
type ActionKind uint8

const (
	ActionSubdivide ActionKind = iota
	ActionMerge
)

// Action is one deferred tree edit recorded by the read-only LOD pass.
type Action struct {
	Node NodeID
	Kind ActionKind
	// CrossFace marks actions that may touch more than one face arena
	// and therefore must be applied serially.
	CrossFace bool
}

// LODPass runs the read-only traversal: it refreshes error, visibility and
// morph state on every node and returns the deferred subdivide/merge
// actions plus the visible leaves in deterministic order.
func (t *Quadtree) LODPass(view *View, field *DensityField, cfg *LODConfig, dt float64) (actions []Action, visible []NodeID) {
	threshold := cfg.PixelError
	if cfg.AltitudeFloor {
		if floor := AltitudeThreshold(view.Altitude, field.Radius()); floor > threshold {
			threshold = floor
		}
	}
	mergeThreshold := threshold * cfg.MergeHysteresis
	cullDot := backfaceCullThreshold(view.Altitude, field.Radius())

	t.Walk(func(id NodeID) {
		n := t.Node(id)
		center := CubeToSphere(n.Patch.Center(), field.Radius())
		n.Error = ScreenSpaceError(center, n.Patch.Size(), view.Position, field.Radius(), cfg)

		n.Visible = true
		if cfg.BackfaceCulling {
			toCamera := view.Position.Normalize()
			if center.Normalize().Dot(toCamera) < cullDot {
				n.Visible = false
			}
		}
		if n.Visible && cfg.FrustumCulling {
			radius := CubeToSphere(n.Patch.Corners()[0], field.Radius()).Sub(center).Len()
			if !view.Frustum.IntersectsSphere(center, radius) {
				n.Visible = false
			}
		}

		if n.IsLeaf() {
			updateMorphTarget(n, threshold, cfg.MorphRegion)
			advanceMorph(n, cfg.MorphSpeed, dt)
			if n.Visible && n.Error > threshold && n.Patch.Level < t.MaxLevel {
				actions = append(actions, Action{
					Node:      id,
					Kind:      ActionSubdivide,
					CrossFace: t.TouchesFaceBoundary(id),
				})
			}
			if n.Visible {
				t.UpdateNeighborLevels(id)
				visible = append(visible, id)
			}
			return
		}

		// Internal node: collapse when every child is a quiet leaf.
		if n.Patch.Level >= t.MinLevel {
			allQuiet := true
			for i := 0; i < 4; i++ {
				c := t.Node(t.Child(id, i))
				if !c.IsLeaf() || c.Error > mergeThreshold {
					allQuiet = false
					break
				}
			}
			if allQuiet {
				if ok, _ := t.CanMerge(id, false); ok {
					actions = append(actions, Action{
						Node:      id,
						Kind:      ActionMerge,
						CrossFace: t.TouchesFaceBoundary(id),
					})
				}
			}
		}
	})
	return actions, visible
}

// updateMorphTarget maps the normalized error into the morph target via a
// smoothstep over the morph region: 0 below it (full detail), 1 above the
// threshold (parent shape).
func updateMorphTarget(n *Node, threshold, morphRegion float64) {
	normalized := n.Error / threshold
	switch {
	case normalized < 1-morphRegion:
		n.MorphTarget = 0
	case normalized > 1:
		n.MorphTarget = 1
	default:
		u := (normalized - (1 - morphRegion)) / morphRegion
		n.MorphTarget = u * u * (3 - 2*u)
	}
}

// advanceMorph moves the morph factor toward its target at a fixed rate.
func advanceMorph(n *Node, speed, dt float64) {
	delta := n.MorphTarget - n.Morph
	if math.Abs(delta) <= 0.001 {
		n.Morph = n.MorphTarget
		return
	}
	step := delta * speed * dt
	if math.Abs(step) > math.Abs(delta) {
		step = delta
	}
	n.Morph += step
}
