package core

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestDensityDeterministic(t *testing.T) {
	a := NewDensityField(6371000, 7)
	b := NewDensityField(6371000, 7)
	c := NewDensityField(6371000, 8)

	dirs := []mgl64.Vec3{
		{1, 0, 0}, {0, 1, 0}, {0.5, 0.5, 0.70710678}, {-0.3, 0.9, -0.3},
	}
	differ := false
	for _, d := range dirs {
		n := d.Normalize()
		ha, hb, hc := a.TerrainHeight(n), b.TerrainHeight(n), c.TerrainHeight(n)
		if ha != hb {
			t.Errorf("same seed, different heights at %v: %g vs %g", n, ha, hb)
		}
		if ha != hc {
			differ = true
		}
	}
	if !differ {
		t.Error("different seeds produced identical terrain at every sample")
	}
}

func TestDensitySigns(t *testing.T) {
	f := NewDensityField(6371000, 7)
	up := mgl64.Vec3{0.2, 0.9, 0.38}.Normalize()

	deep := f.Density(up.Mul(6000000))
	if deep >= 0 {
		t.Errorf("deep interior density = %g, want negative", deep)
	}
	high := f.Density(up.Mul(6500000))
	if high <= 0 {
		t.Errorf("high exterior density = %g, want positive", high)
	}
}

func TestDensityFarField(t *testing.T) {
	f := NewDensityField(6371000, 7)
	p := mgl64.Vec3{7000000, 0, 0}
	if got, want := f.Density(p), p.Len()-6371000; got != want {
		t.Errorf("far field density = %g, want plain sphere distance %g", got, want)
	}
}

func TestDensityZeroNearSurface(t *testing.T) {
	f := NewDensityField(6371000, 7)
	dir := mgl64.Vec3{0.6, 0.48, 0.64}.Normalize()
	h := f.TerrainHeight(dir)
	d := f.Density(dir.Mul(6371000 + h))
	if math.Abs(d) > 1e-6 {
		t.Errorf("density at the terrain surface = %g, want ~0", d)
	}
}

func TestTerrainHeightBounded(t *testing.T) {
	f := NewDensityField(6371000, 7)
	p := f.Params()
	limit := p.ContinentAmplitude + p.MountainAmplitude + p.DetailAmplitude
	for lat := -80.0; lat <= 80.0; lat += 16 {
		for lon := 0.0; lon < 360.0; lon += 16 {
			la, lo := mgl64.DegToRad(lat), mgl64.DegToRad(lon)
			dir := mgl64.Vec3{
				math.Cos(la) * math.Cos(lo),
				math.Sin(la),
				math.Cos(la) * math.Sin(lo),
			}
			h := f.TerrainHeight(dir)
			if !isFinite(h) {
				t.Fatalf("non-finite height at %v", dir)
			}
			if h > limit {
				t.Errorf("height %g above land ceiling %g", h, limit)
			}
			if h < -p.ContinentAmplitude+p.OceanDepth {
				t.Errorf("height %g below ocean floor", h)
			}
		}
	}
}

func TestOceanDeepening(t *testing.T) {
	f := NewDensityField(6371000, 7)
	p := f.Params()
	// Scan for submerged terrain; the default params always have oceans.
	found := false
	for lon := 0.0; lon < 360.0; lon += 4 {
		lo := mgl64.DegToRad(lon)
		dir := mgl64.Vec3{math.Cos(lo), 0, math.Sin(lo)}
		h := f.TerrainHeight(dir)
		if h < p.SeaLevel {
			found = true
			if h > p.SeaLevel {
				t.Errorf("submerged height %g above sea level", h)
			}
		}
	}
	if !found {
		t.Skip("no ocean found along the equator for this seed")
	}
}

func TestMaterialClassification(t *testing.T) {
	f := NewDensityField(6371000, 7)
	cases := []struct {
		height float64
		want   Material
	}{
		{-500, MaterialSediment},
		{-50, MaterialWater},
		{500, MaterialRock},
		{3000, MaterialIce},
	}
	for _, c := range cases {
		if got := f.SurfaceMaterial(c.height); got != c.want {
			t.Errorf("SurfaceMaterial(%g) = %v, want %v", c.height, got, c.want)
		}
	}

	up := mgl64.Vec3{0, 1, 0}
	if got := f.MaterialAt(up.Mul(6400000)); got != MaterialAir {
		t.Errorf("material far above surface = %v, want air", got)
	}
	if got := f.MaterialAt(up.Mul(6000000)); got == MaterialAir {
		t.Error("material deep inside planet is air")
	}
}

func TestGradientNormalized(t *testing.T) {
	f := NewDensityField(6371000, 7)
	dir := mgl64.Vec3{0.7, 0.1, -0.70427267}.Normalize()
	g := f.Gradient(dir.Mul(6371000), 1)
	if math.Abs(g.Len()-1) > 1e-9 {
		t.Errorf("gradient length = %g, want 1", g.Len())
	}
	// Near the surface of a mostly-spherical planet the gradient points
	// roughly outward.
	if g.Dot(dir) < 0.2 {
		t.Errorf("gradient %v not roughly radial at %v", g, dir)
	}
}
