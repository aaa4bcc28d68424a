package core

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestOrbitalCameraAltitude(t *testing.T) {
	const r = 6371000.0
	cam := NewOrbitalCamera(r, 10000, 45, 120)
	if got := cam.Altitude(r); math.Abs(got-10000) > 1e-6 {
		t.Errorf("altitude = %g, want 10000", got)
	}
	if cam.Target != (mgl64.Vec3{}) {
		t.Errorf("orbital camera target = %v, want planet center", cam.Target)
	}
}

func TestOrbitalCameraPoleSafe(t *testing.T) {
	const r = 6371000.0
	cam := NewOrbitalCamera(r, 1000, 90, 30)
	view := cam.ViewMatrix()
	for i := 0; i < 16; i++ {
		if math.IsNaN(view[i]) {
			t.Fatalf("view matrix has NaN at the pole: %v", view)
		}
	}
	if math.Abs(cam.Up.Len()-1) > 1e-12 {
		t.Errorf("pole up vector not unit: %v", cam.Up)
	}
}

func TestSnapshotFrustum(t *testing.T) {
	const r = 6371000.0
	cam := NewOrbitalCamera(r, 100000, 0, 0)
	view := cam.Snapshot(r)

	// A point straight ahead, between camera and planet, is visible.
	ahead := cam.Position.Add(cam.Target.Sub(cam.Position).Normalize().Mul(50000))
	if !view.Frustum.ContainsPoint(ahead) {
		t.Error("point straight ahead not in frustum")
	}
	// A point behind the camera is not.
	behind := cam.Position.Add(cam.Position.Sub(cam.Target).Normalize().Mul(50000))
	if view.Frustum.ContainsPoint(behind) {
		t.Error("point behind camera in frustum")
	}
	// The sphere test accepts spheres poking into the frustum from beyond
	// a plane.
	if !view.Frustum.IntersectsSphere(behind, 100000) {
		t.Error("large sphere overlapping frustum rejected")
	}
	if view.Frustum.IntersectsSphere(behind, 10) {
		t.Error("small sphere behind camera accepted")
	}
}

func TestViewAltitudeMatchesCamera(t *testing.T) {
	const r = 6371000.0
	cam := NewOrbitalCamera(r, 777, -30, 200)
	view := cam.Snapshot(r)
	if math.Abs(view.Altitude-777) > 1e-6 {
		t.Errorf("snapshot altitude = %g, want 777", view.Altitude)
	}
}
