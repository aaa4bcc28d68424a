package sim

import (
	"math"
	"testing"

	"planetsim/config"
	"planetsim/core"
)

// testConfig shrinks the planet and the meshing grids so a full descent
// runs in test time.
func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Planet.RadiusMeters = 1000
	cfg.Planet.Seed = 5
	cfg.Planet.MaxLevel = 8
	cfg.Terrain = core.TerrainParams{
		ContinentScale:     0.002,
		ContinentAmplitude: 20,
		MountainScale:      0.008,
		MountainAmplitude:  8,
		DetailScale:        0.02,
		DetailAmplitude:    3,
		OceanDepth:         -30,
		SeaLevel:           0,
	}
	cfg.Patch.GridResolution = 9
	cfg.Volume.ChunkDim = 8
	cfg.Volume.VoxelSize = 2
	cfg.Volume.ViewDistance = 1
	cfg.Volume.MaxChunksPerUpdate = 64
	cfg.Sim.Workers = 2
	cfg.Sim.FrameBudgetMs = 1000
	cfg.Sim.MaxPatchesPerFrame = 0
	return cfg
}

// descentAltitude ramps exponentially from start to end over n steps.
func descentAltitude(start, end float64, step, n int) float64 {
	t := float64(step) / float64(n)
	return start * math.Exp(math.Log(end/start)*t)
}

func TestSimulatorDescent(t *testing.T) {
	sim, err := New(testConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}

	const dt = 1.0 / 60
	regimes := map[core.Regime]bool{}
	sawPatches, sawChunks := false, false

	var frame *Frame
	for i := 0; i < 130; i++ {
		alt := descentAltitude(2000, 80, i, 90)
		if i >= 90 {
			alt = 80
		}
		sim.Camera.SetOrbit(sim.Field.Radius(), alt, 30, float64(i)*0.2)
		frame = sim.Step(dt)

		if err := sim.Tree.CheckBalance(); err != nil {
			t.Fatalf("frame %d: balance broken: %v", i, err)
		}
		if frame.Stats.Leaves == 0 {
			t.Fatalf("frame %d: no leaves", i)
		}
		if frame.Stats.VisibleLeaves == 0 {
			t.Fatalf("frame %d: nothing visible", i)
		}
		regimes[frame.Regime] = true
		if len(frame.Patches) > 0 {
			sawPatches = true
		}
		if len(frame.Chunks) > 0 {
			sawChunks = true
		}
	}

	if !regimes[core.RegimeQuadtree] || !regimes[core.RegimeTransition] || !regimes[core.RegimeVolumetric] {
		t.Errorf("descent missed a regime: %v", regimes)
	}
	if !sawPatches {
		t.Error("no frame carried patch geometry")
	}
	if !sawChunks {
		t.Error("no frame carried chunk geometry")
	}
	if frame.Regime != core.RegimeVolumetric {
		t.Errorf("final regime %v at 80 m, want volumetric", frame.Regime)
	}
	if len(frame.Patches) != 0 {
		t.Error("volumetric frame still carries patches")
	}
	if sim.Chunks().Len() == 0 {
		t.Error("no live chunks in the volumetric regime")
	}
	if frame.Index != sim.FrameIndex() {
		t.Errorf("frame index %d, simulator at %d", frame.Index, sim.FrameIndex())
	}
}

func TestSimulatorClimbClearsChunks(t *testing.T) {
	sim, err := New(testConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	const dt = 1.0 / 60

	sim.Camera.SetOrbit(sim.Field.Radius(), 80, 0, 0)
	for i := 0; i < 40; i++ {
		sim.Step(dt)
	}
	if sim.Chunks().Len() == 0 {
		t.Fatal("no chunks after holding at 80 m")
	}

	sim.Camera.SetOrbit(sim.Field.Radius(), 5000, 0, 0)
	retired := 0
	var frame *Frame
	for i := 0; i < 40; i++ {
		frame = sim.Step(dt)
		retired += frame.Stats.ChunksRetired
	}
	if frame.Regime != core.RegimeQuadtree {
		t.Fatalf("regime %v after climbing to 5 km", frame.Regime)
	}
	if sim.Chunks().Len() != 0 {
		t.Error("chunks survived the return to the quadtree regime")
	}
	if retired == 0 {
		t.Error("no chunk retirement reported during the climb")
	}
	if len(frame.Chunks) != 0 {
		t.Error("quadtree frame still carries chunks")
	}
}

// Two simulators fed the same camera path must agree on the tree and on
// every visible patch, bit for bit.
func TestSimulatorDeterministic(t *testing.T) {
	a, err := New(testConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	b, err := New(testConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}

	const dt = 1.0 / 60
	for i := 0; i < 50; i++ {
		alt := descentAltitude(2000, 300, i, 50)
		a.Camera.SetOrbit(a.Field.Radius(), alt, 30, float64(i)*0.2)
		b.Camera.SetOrbit(b.Field.Radius(), alt, 30, float64(i)*0.2)
		fa := a.Step(dt)
		fb := b.Step(dt)

		if fa.Stats.Leaves != fb.Stats.Leaves ||
			fa.Stats.VisibleLeaves != fb.Stats.VisibleLeaves ||
			fa.Stats.TreeNodes != fb.Stats.TreeNodes ||
			fa.Stats.Subdivides != fb.Stats.Subdivides ||
			fa.Stats.Merges != fb.Stats.Merges {
			t.Fatalf("frame %d: tree stats diverge: %+v vs %+v", i, fa.Stats, fb.Stats)
		}
		if fa.Regime != fb.Regime || fa.Blend != fb.Blend {
			t.Fatalf("frame %d: regime diverges", i)
		}
		if len(fa.Patches) != len(fb.Patches) {
			t.Fatalf("frame %d: %d vs %d patches", i, len(fa.Patches), len(fb.Patches))
		}
		for p := range fa.Patches {
			pa, pb := &fa.Patches[p], &fb.Patches[p]
			if pa.Face != pb.Face || pa.Level != pb.Level || pa.Morph != pb.Morph {
				t.Fatalf("frame %d patch %d: headers diverge", i, p)
			}
			if len(pa.Positions) != len(pb.Positions) || len(pa.Indices) != len(pb.Indices) {
				t.Fatalf("frame %d patch %d: sizes diverge", i, p)
			}
			for j := range pa.Positions {
				if pa.Positions[j] != pb.Positions[j] {
					t.Fatalf("frame %d patch %d: position %d diverges", i, p, j)
				}
			}
			for j := range pa.Indices {
				if pa.Indices[j] != pb.Indices[j] {
					t.Fatalf("frame %d patch %d: index %d diverges", i, p, j)
				}
			}
		}
	}
}

func TestSimulatorFirstFrame(t *testing.T) {
	sim, err := New(testConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	frame := sim.Step(1.0 / 60)
	if frame.Stats.Frame != 1 || sim.FrameIndex() != 1 {
		t.Errorf("frame counter = %d / %d, want 1", frame.Stats.Frame, sim.FrameIndex())
	}
	if frame.Stats.PatchesMeshed == 0 {
		t.Error("first frame meshed no patches")
	}
	if frame.Stats.TreeNodes != sim.Tree.Len() {
		t.Errorf("TreeNodes = %d, tree has %d", frame.Stats.TreeNodes, sim.Tree.Len())
	}
	if frame.Stats.TotalMs <= 0 {
		t.Error("no frame time recorded")
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Planet.RadiusMeters = -1
	if _, err := New(cfg, nil); err == nil {
		t.Fatal("negative radius accepted")
	}
}
