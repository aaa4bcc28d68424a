package core

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestScreenSpaceErrorFallsWithDistance(t *testing.T) {
	cfg := DefaultLODConfig()
	center := mgl64.Vec3{6371000, 0, 0}
	prev := math.Inf(1)
	for _, alt := range []float64{1000, 10000, 100000, 1000000} {
		view := mgl64.Vec3{6371000 + alt, 0, 0}
		err := ScreenSpaceError(center, 0.5, view, 6371000, &cfg)
		if err >= prev {
			t.Errorf("error did not fall with distance: %g at altitude %g (prev %g)", err, alt, prev)
		}
		prev = err
	}
}

func TestScreenSpaceErrorClamps(t *testing.T) {
	cfg := DefaultLODConfig()
	center := mgl64.Vec3{6371000, 0, 0}
	near := ScreenSpaceError(center, 2, mgl64.Vec3{6371001, 0, 0}, 6371000, &cfg)
	if near != 10000 {
		t.Errorf("near clamp: got %g, want 10000", near)
	}
	far := ScreenSpaceError(center, 1e-9, mgl64.Vec3{1e9, 0, 0}, 6371000, &cfg)
	if far != 0.1 {
		t.Errorf("far clamp: got %g, want 0.1", far)
	}
}

func TestAltitudeThresholdSteps(t *testing.T) {
	const r = 6371000.0
	cases := []struct {
		altitude float64
		want     float64
	}{
		{r * 20, 25},
		{r * 6, 15},
		{r * 3, 10},
		{r * 1.5, 7},
		{r * 0.7, 5},
		{r * 0.2, 4},
		{r * 0.05, 2.5},
		{r * 0.005, 1.5},
		{r * 0.0001, 1},
		{10, 0.5},
	}
	for _, c := range cases {
		if got := AltitudeThreshold(c.altitude, r); got != c.want {
			t.Errorf("AltitudeThreshold(%g) = %g, want %g", c.altitude, got, c.want)
		}
	}
}

func TestMorphTargetSmoothstep(t *testing.T) {
	n := &Node{}
	n.Error = 0.5
	updateMorphTarget(n, 1, 0.3)
	if n.MorphTarget != 0 {
		t.Errorf("low error morph target = %g, want 0", n.MorphTarget)
	}
	n.Error = 1.5
	updateMorphTarget(n, 1, 0.3)
	if n.MorphTarget != 1 {
		t.Errorf("high error morph target = %g, want 1", n.MorphTarget)
	}
	n.Error = 0.85 // middle of the morph region [0.7, 1]
	updateMorphTarget(n, 1, 0.3)
	if n.MorphTarget <= 0 || n.MorphTarget >= 1 {
		t.Errorf("mid-region morph target = %g, want in (0,1)", n.MorphTarget)
	}
}

func TestAdvanceMorphRateLimited(t *testing.T) {
	n := &Node{Morph: 0, MorphTarget: 1}
	advanceMorph(n, 2, 0.1)
	if n.Morph <= 0 || n.Morph > 0.21 {
		t.Errorf("morph after one step = %g, want about 0.2", n.Morph)
	}
	n.Morph = 0.9995
	advanceMorph(n, 2, 0.1)
	if n.Morph != 1 {
		t.Errorf("morph did not snap to target: %g", n.Morph)
	}
}

func TestLODPassSubdividesNearCamera(t *testing.T) {
	field := NewDensityField(6371000, 42)
	tr := NewQuadtree(1, 20)
	cfg := DefaultLODConfig()

	cam := NewOrbitalCamera(field.Radius(), 50000, 0, 0)
	view := cam.Snapshot(field.Radius())
	actions, visible := tr.LODPass(view, field, &cfg, 1.0/60)

	subdivides := 0
	for _, a := range actions {
		if a.Kind != ActionSubdivide {
			continue
		}
		subdivides++
		n := tr.Node(a.Node)
		if !n.IsLeaf() {
			t.Error("subdivide action targets an internal node")
		}
		if !n.Visible {
			t.Error("subdivide action targets an invisible node")
		}
	}
	if subdivides == 0 {
		t.Fatal("camera at 50 km produced no subdivide actions")
	}
	if len(visible) == 0 {
		t.Fatal("no visible leaves")
	}

	// The far side of the planet must be culled.
	culled := 0
	tr.Leaves(func(id NodeID) {
		if !tr.Node(id).Visible {
			culled++
		}
	})
	if culled == 0 {
		t.Error("no leaves culled with the camera near the surface")
	}
}

func TestLODPassMergesWhenCameraLeaves(t *testing.T) {
	field := NewDensityField(6371000, 42)
	tr := NewQuadtree(1, 20)
	cfg := DefaultLODConfig()
	cfg.FrustumCulling = false
	cfg.BackfaceCulling = false

	// Refine a corner, then look from very far away.
	id := tr.Child(tr.Root(FacePosX), ChildBL)
	for i := 0; i < 3; i++ {
		if _, err := tr.SubdivideBalanced(id); err != nil {
			t.Fatal(err)
		}
		id = tr.Child(id, ChildTR)
	}

	cam := NewOrbitalCamera(field.Radius(), field.Radius()*50, 0, 0)
	view := cam.Snapshot(field.Radius())
	actions, _ := tr.LODPass(view, field, &cfg, 1.0/60)

	merges := 0
	for _, a := range actions {
		if a.Kind == ActionMerge {
			merges++
		}
	}
	if merges == 0 {
		t.Fatal("distant camera produced no merge actions")
	}
}
