package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Patch is an axis-aligned rectangle on one cube face. Bounds are stored in
// cube space, so exactly one axis is fixed at ±1 and the other two span the
// rectangle. UV* hold the same rectangle in face-local coordinates; both
// views are kept because meshing works in local UV while vertex identity
// and bounds checks work in cube space.
type Patch struct {
	Face  Face
	Level int

	MinBounds mgl64.Vec3
	MaxBounds mgl64.Vec3

	U0, V0, U1, V1 float64
}

// NewPatch builds a patch from a face-local UV rectangle.
func NewPatch(face Face, level int, u0, v0, u1, v1 float64) Patch {
	a := UVToUnitCube(face, u0, v0)
	b := UVToUnitCube(face, u1, v1)
	p := Patch{
		Face: face, Level: level,
		U0: u0, V0: v0, U1: u1, V1: v1,
	}
	for i := 0; i < 3; i++ {
		p.MinBounds[i] = math.Min(a[i], b[i])
		p.MaxBounds[i] = math.Max(a[i], b[i])
	}
	return p
}

// RootPatches returns the six full-face patches at level 0.
func RootPatches() [FaceCount]Patch {
	var roots [FaceCount]Patch
	for f := 0; f < FaceCount; f++ {
		roots[f] = NewPatch(Face(f), 0, 0, 0, 1, 1)
	}
	return roots
}

// Child quadrant indices in canonical subdivision order.
const (
	ChildBL = 0
	ChildBR = 1
	ChildTR = 2
	ChildTL = 3
)

// Subdivide splits the patch into four children at the UV midpoint,
// in BL, BR, TR, TL order.
func (p Patch) Subdivide() [4]Patch {
	mu := (p.U0 + p.U1) / 2
	mv := (p.V0 + p.V1) / 2
	l := p.Level + 1
	return [4]Patch{
		ChildBL: NewPatch(p.Face, l, p.U0, p.V0, mu, mv),
		ChildBR: NewPatch(p.Face, l, mu, p.V0, p.U1, mv),
		ChildTR: NewPatch(p.Face, l, mu, mv, p.U1, p.V1),
		ChildTL: NewPatch(p.Face, l, p.U0, mv, mu, p.V1),
	}
}

// LocalUV maps patch-local coordinates in [0,1]² to face-local UV.
func (p Patch) LocalUV(s, t float64) (u, v float64) {
	return p.U0 + s*(p.U1-p.U0), p.V0 + t*(p.V1-p.V0)
}

// CubeAt returns the snapped cube-space position at patch-local (s,t).
func (p Patch) CubeAt(s, t float64) mgl64.Vec3 {
	u, v := p.LocalUV(s, t)
	return UVToUnitCube(p.Face, u, v)
}

// Center returns the cube-space centre of the patch.
func (p Patch) Center() mgl64.Vec3 {
	return p.CubeAt(0.5, 0.5)
}

// Corners returns the cube-space corners in BL, BR, TR, TL order.
func (p Patch) Corners() [4]mgl64.Vec3 {
	return [4]mgl64.Vec3{
		p.CubeAt(0, 0),
		p.CubeAt(1, 0),
		p.CubeAt(1, 1),
		p.CubeAt(0, 1),
	}
}

// Size returns the patch edge length in cube units. A full face spans 2.
func (p Patch) Size() float64 {
	return 2 * (p.U1 - p.U0)
}

// UVToCube builds the affine transform taking patch-local (u, v, 0, 1) to
// cube space. The linear part has the U and V extents on the rows of the
// face's two varying axes (signed by the face orientation) and the face
// normal on the third; the translation is the patch corner at (0,0).
func (p Patch) UVToCube() mgl64.Mat4 {
	uDir, vDir := FaceBasis(p.Face)
	du := p.U1 - p.U0
	dv := p.V1 - p.V0
	origin := p.CubeAt(0, 0)
	n := FaceNormal(p.Face)

	colU := uDir.Mul(2 * du)
	colV := vDir.Mul(2 * dv)
	return mgl64.Mat4FromCols(
		mgl64.Vec4{colU.X(), colU.Y(), colU.Z(), 0},
		mgl64.Vec4{colV.X(), colV.Y(), colV.Z(), 0},
		mgl64.Vec4{n.X(), n.Y(), n.Z(), 0},
		mgl64.Vec4{origin.X(), origin.Y(), origin.Z(), 1},
	)
}

// Validate checks the patch invariant: finite bounds, exactly one axis
// fixed at ±1, positive extent on the two varying axes, and a transform
// whose U and V columns are non-degenerate. A violation is reported as a
// DegeneratePatchError rather than silently producing a collapsed mesh.
func (p Patch) Validate() error {
	for i := 0; i < 3; i++ {
		if !isFinite(p.MinBounds[i]) || !isFinite(p.MaxBounds[i]) {
			return &DegeneratePatchError{Patch: p, Reason: "non-finite bounds"}
		}
	}

	fixed := -1
	for i := 0; i < 3; i++ {
		if p.MinBounds[i] == p.MaxBounds[i] {
			if fixed >= 0 {
				return &DegeneratePatchError{Patch: p, Reason: "more than one fixed axis"}
			}
			fixed = i
		}
	}
	if fixed < 0 {
		return &DegeneratePatchError{Patch: p, Reason: "no fixed axis"}
	}
	if math.Abs(p.MinBounds[fixed]) != 1 {
		return &DegeneratePatchError{Patch: p, Reason: "fixed axis not on a face plane"}
	}
	for i := 0; i < 3; i++ {
		if i != fixed && p.MaxBounds[i]-p.MinBounds[i] <= 0 {
			return &DegeneratePatchError{Patch: p, Reason: "zero extent on varying axis"}
		}
	}
	if p.U1 <= p.U0 || p.V1 <= p.V0 {
		return &DegeneratePatchError{Patch: p, Reason: "empty UV rectangle"}
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
