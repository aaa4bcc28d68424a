package core

import "testing"

func TestRegimeWalk(t *testing.T) {
	m := NewRegimeManager(DefaultRegimeConfig())

	r, blend := m.Update(5000, 1)
	if r != RegimeQuadtree || blend != 0 {
		t.Fatalf("high altitude: got (%v, %g), want (quadtree, 0)", r, blend)
	}

	// Step well into the band; the slew rate lets the blend reach its
	// target within one generous step.
	r, blend = m.Update(750, 1)
	if r != RegimeTransition {
		t.Fatalf("mid band: got %v, want transition", r)
	}
	if blend <= 0 || blend >= 1 {
		t.Fatalf("mid band blend = %g, want in (0,1)", blend)
	}

	r, blend = m.Update(100, 1)
	if r != RegimeVolumetric || blend != 1 {
		t.Fatalf("low altitude: got (%v, %g), want (volumetric, 1)", r, blend)
	}

	// Climbing back out reverses the walk.
	r, _ = m.Update(5000, 1)
	if r != RegimeQuadtree {
		t.Fatalf("after climb: got %v, want quadtree", r)
	}
}

func TestRegimeBlendSlewLimited(t *testing.T) {
	cfg := DefaultRegimeConfig()
	cfg.BlendSlewRate = 0.5
	m := NewRegimeManager(cfg)

	// Teleporting below the band cannot snap the blend to 1.
	r, blend := m.Update(0, 0.1)
	if blend > 0.05+1e-12 {
		t.Fatalf("blend jumped to %g with slew 0.5 and dt 0.1", blend)
	}
	if r != RegimeTransition {
		t.Fatalf("got %v during slew, want transition", r)
	}

	// Repeated steps converge.
	for i := 0; i < 100; i++ {
		r, blend = m.Update(0, 0.1)
	}
	if r != RegimeVolumetric || blend != 1 {
		t.Fatalf("blend failed to converge: (%v, %g)", r, blend)
	}
}

func TestRegimeTargetLinearInBand(t *testing.T) {
	m := NewRegimeManager(RegimeConfig{HighAltitude: 1000, LowAltitude: 500, BlendSlewRate: 1000})
	_, blend := m.Update(750, 1)
	if diff := blend - 0.5; diff > 1e-12 || diff < -1e-12 {
		t.Errorf("blend at band midpoint = %g, want 0.5", blend)
	}
}
