package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// CameraMode selects how the camera is driven.
type CameraMode uint8

const (
	CameraOrbital CameraMode = iota
	CameraFreeFly
	CameraFirstPerson
)

func (m CameraMode) String() string {
	switch m {
	case CameraOrbital:
		return "orbital"
	case CameraFreeFly:
		return "freefly"
	case CameraFirstPerson:
		return "firstperson"
	}
	return "?"
}

// Camera is the viewer pose plus projection parameters. Planet-scale
// positions need doubles; the float32 conversion happens only after the
// camera-relative translation in the payload.
type Camera struct {
	Mode     CameraMode
	Position mgl64.Vec3
	Target   mgl64.Vec3
	Up       mgl64.Vec3

	FOVDegrees float64
	Aspect     float64
	Near, Far  float64
}

// NewOrbitalCamera places a camera above the surface looking at the
// planet center.
func NewOrbitalCamera(planetRadius, altitude, latDeg, lonDeg float64) *Camera {
	c := &Camera{
		Mode:       CameraOrbital,
		Up:         mgl64.Vec3{0, 1, 0},
		FOVDegrees: 60,
		Aspect:     16.0 / 9.0,
		Near:       1,
		Far:        planetRadius * 10,
	}
	c.SetOrbit(planetRadius, altitude, latDeg, lonDeg)
	return c
}

// SetOrbit positions the camera at a latitude/longitude (degrees) and
// altitude above the nominal sphere, looking at the planet center.
func (c *Camera) SetOrbit(planetRadius, altitude, latDeg, lonDeg float64) {
	lat := mgl64.DegToRad(latDeg)
	lon := mgl64.DegToRad(lonDeg)
	dir := mgl64.Vec3{
		math.Cos(lat) * math.Cos(lon),
		math.Sin(lat),
		math.Cos(lat) * math.Sin(lon),
	}
	c.Position = dir.Mul(planetRadius + altitude)
	c.Target = mgl64.Vec3{0, 0, 0}
	// Near the poles the world up degenerates; use the longitude tangent.
	if math.Abs(dir.Y()) > 0.99 {
		c.Up = mgl64.Vec3{-math.Sin(lon), 0, math.Cos(lon)}
	} else {
		c.Up = mgl64.Vec3{0, 1, 0}
	}
}

// Altitude returns the camera height above the nominal sphere.
func (c *Camera) Altitude(planetRadius float64) float64 {
	return c.Position.Len() - planetRadius
}

// ViewMatrix returns the world-to-camera transform.
func (c *Camera) ViewMatrix() mgl64.Mat4 {
	return mgl64.LookAtV(c.Position, c.Target, c.Up)
}

// ProjMatrix returns the perspective projection.
func (c *Camera) ProjMatrix() mgl64.Mat4 {
	return mgl64.Perspective(mgl64.DegToRad(c.FOVDegrees), c.Aspect, c.Near, c.Far)
}

// View is the per-frame camera snapshot the LOD pass consumes.
type View struct {
	Position mgl64.Vec3
	Altitude float64
	ViewProj mgl64.Mat4
	Frustum  Frustum
}

// Snapshot captures the camera state for one frame.
func (c *Camera) Snapshot(planetRadius float64) *View {
	vp := c.ProjMatrix().Mul4(c.ViewMatrix())
	return &View{
		Position: c.Position,
		Altitude: c.Altitude(planetRadius),
		ViewProj: vp,
		Frustum:  FrustumFromMatrix(vp),
	}
}
