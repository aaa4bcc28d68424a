package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Face identifies one of the six cube faces.
type Face uint8

const (
	FacePosX Face = iota
	FaceNegX
	FacePosY
	FaceNegY
	FacePosZ
	FaceNegZ
	FaceCount = 6
)

func (f Face) String() string {
	switch f {
	case FacePosX:
		return "+X"
	case FaceNegX:
		return "-X"
	case FacePosY:
		return "+Y"
	case FaceNegY:
		return "-Y"
	case FacePosZ:
		return "+Z"
	case FaceNegZ:
		return "-Z"
	}
	return "?"
}

const (
	// BoundaryEpsilon is the UV snapping tolerance at face boundaries.
	BoundaryEpsilon = 1e-12
	// CubeSnapEpsilon is the tolerance for snapping cube components to ±1.
	CubeSnapEpsilon = 1e-8
)

// snapUV clamps a UV coordinate onto an exact face boundary when it is
// within BoundaryEpsilon of one. Without this, patches on opposite sides
// of a face seam disagree in the last few mantissa bits and the shared
// edge vertices fail to merge.
func snapUV(t float64) float64 {
	if t < BoundaryEpsilon {
		return 0
	}
	if t > 1-BoundaryEpsilon {
		return 1
	}
	return t
}

// SnapCube snaps cube-space components sitting near a face plane onto
// exactly ±1 so that vertex keys agree across faces.
func SnapCube(c mgl64.Vec3) mgl64.Vec3 {
	for i := 0; i < 3; i++ {
		if math.Abs(c[i]-1) < CubeSnapEpsilon {
			c[i] = 1
		} else if math.Abs(c[i]+1) < CubeSnapEpsilon {
			c[i] = -1
		}
	}
	return c
}

// UVToUnitCube maps face-local UV in [0,1]² onto the unit cube surface.
// The orientation of each face is fixed: u and v always advance along the
// same world axes for a given face, so neighbouring faces sample identical
// cube positions along their shared edge.
func UVToUnitCube(face Face, u, v float64) mgl64.Vec3 {
	u = snapUV(u)
	v = snapUV(v)
	x := 2*u - 1
	y := 2*v - 1

	var c mgl64.Vec3
	switch face {
	case FacePosX:
		c = mgl64.Vec3{1, x, y}
	case FaceNegX:
		c = mgl64.Vec3{-1, -x, y}
	case FacePosY:
		c = mgl64.Vec3{x, 1, y}
	case FaceNegY:
		c = mgl64.Vec3{x, -1, -y}
	case FacePosZ:
		c = mgl64.Vec3{x, y, 1}
	case FaceNegZ:
		c = mgl64.Vec3{x, y, -1}
	}
	return SnapCube(c)
}

// CubeToSphere projects a cube-surface position onto a sphere of the given
// radius. Plain normalization: for a point shared by two or three faces the
// input vector is bitwise identical regardless of which face produced it,
// so the output is too.
func CubeToSphere(c mgl64.Vec3, radius float64) mgl64.Vec3 {
	return c.Normalize().Mul(radius)
}

// FaceUVToSphere composes UVToUnitCube and CubeToSphere.
func FaceUVToSphere(face Face, u, v, radius float64) mgl64.Vec3 {
	return CubeToSphere(UVToUnitCube(face, u, v), radius)
}

// SphereToCube projects a direction back onto the unit cube surface by
// dividing through the dominant axis.
func SphereToCube(dir mgl64.Vec3) mgl64.Vec3 {
	ax := math.Abs(dir.X())
	ay := math.Abs(dir.Y())
	az := math.Abs(dir.Z())
	switch {
	case ax >= ay && ax >= az:
		return dir.Mul(1 / ax)
	case ay >= ax && ay >= az:
		return dir.Mul(1 / ay)
	default:
		return dir.Mul(1 / az)
	}
}

// FaceOf returns the cube face whose plane the direction projects onto.
// Ties on edges and corners resolve in axis order X, Y, Z, matching
// SphereToCube.
func FaceOf(dir mgl64.Vec3) Face {
	ax := math.Abs(dir.X())
	ay := math.Abs(dir.Y())
	az := math.Abs(dir.Z())
	switch {
	case ax >= ay && ax >= az:
		if dir.X() >= 0 {
			return FacePosX
		}
		return FaceNegX
	case ay >= ax && ay >= az:
		if dir.Y() >= 0 {
			return FacePosY
		}
		return FaceNegY
	default:
		if dir.Z() >= 0 {
			return FacePosZ
		}
		return FaceNegZ
	}
}

// FaceNormal returns the outward normal of a cube face.
func FaceNormal(face Face) mgl64.Vec3 {
	switch face {
	case FacePosX:
		return mgl64.Vec3{1, 0, 0}
	case FaceNegX:
		return mgl64.Vec3{-1, 0, 0}
	case FacePosY:
		return mgl64.Vec3{0, 1, 0}
	case FaceNegY:
		return mgl64.Vec3{0, -1, 0}
	case FacePosZ:
		return mgl64.Vec3{0, 0, 1}
	default:
		return mgl64.Vec3{0, 0, -1}
	}
}

// FaceBasis returns the world-axis directions that face-local u and v
// advance along.
func FaceBasis(face Face) (uDir, vDir mgl64.Vec3) {
	switch face {
	case FacePosX:
		return mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, 0, 1}
	case FaceNegX:
		return mgl64.Vec3{0, -1, 0}, mgl64.Vec3{0, 0, 1}
	case FacePosY:
		return mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 0, 1}
	case FaceNegY:
		return mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 0, -1}
	case FacePosZ:
		return mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 1, 0}
	default:
		return mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 1, 0}
	}
}

// CubeFaceUV inverts UVToUnitCube: it resolves a cube-surface position to
// its dominant face and the UV coordinates within it. Edge and corner
// positions resolve to the face FaceOf picks.
func CubeFaceUV(c mgl64.Vec3) (Face, float64, float64) {
	c = SnapCube(c)
	face := FaceOf(c)
	var u, v float64
	switch face {
	case FacePosX:
		u, v = (c.Y()+1)/2, (c.Z()+1)/2
	case FaceNegX:
		u, v = (1-c.Y())/2, (c.Z()+1)/2
	case FacePosY:
		u, v = (c.X()+1)/2, (c.Z()+1)/2
	case FaceNegY:
		u, v = (c.X()+1)/2, (1-c.Z())/2
	default: // both Z faces share the same in-plane basis
		u, v = (c.X()+1)/2, (c.Y()+1)/2
	}
	return face, snapUV(u), snapUV(v)
}

// QuantizeScale is the number of quantization steps per cube unit used to
// build vertex identity keys. One cube unit spans planetRadius world units,
// so 1e6 steps keeps neighbouring grid vertices many steps apart at every
// level the tree can reach.
const QuantizeScale = 1e6

// VertexKey is the canonical identity of a vertex: its snapped cube-space
// position quantized onto a fixed grid. The face that generated the vertex
// is deliberately not part of the key, so the same cube position reached
// through two different faces collapses to one identity.
type VertexKey struct {
	X, Y, Z int64
}

// MakeVertexKey quantizes a snapped cube position into a VertexKey.
func MakeVertexKey(c mgl64.Vec3) VertexKey {
	c = SnapCube(c)
	return VertexKey{
		X: int64(math.Round(c.X() * QuantizeScale)),
		Y: int64(math.Round(c.Y() * QuantizeScale)),
		Z: int64(math.Round(c.Z() * QuantizeScale)),
	}
}
