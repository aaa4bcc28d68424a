package core

import "github.com/go-gl/mathgl/mgl64"

// Frustum holds the six clip planes of a view-projection matrix, each as
// (a, b, c, d) with the normal pointing inward.
type Frustum [6]mgl64.Vec4

// FrustumFromMatrix extracts the clip planes from a combined
// view-projection matrix (Gribb/Hartmann).
func FrustumFromMatrix(vp mgl64.Mat4) Frustum {
	row := func(i int) mgl64.Vec4 {
		return mgl64.Vec4{vp.At(i, 0), vp.At(i, 1), vp.At(i, 2), vp.At(i, 3)}
	}
	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)

	var f Frustum
	f[0] = r3.Add(r0) // left
	f[1] = r3.Sub(r0) // right
	f[2] = r3.Add(r1) // bottom
	f[3] = r3.Sub(r1) // top
	f[4] = r3.Add(r2) // near
	f[5] = r3.Sub(r2) // far
	for i := range f {
		n := f[i].Vec3().Len()
		if n > 0 {
			f[i] = f[i].Mul(1 / n)
		}
	}
	return f
}

// IntersectsSphere reports whether a sphere is at least partly inside the
// frustum.
func (f *Frustum) IntersectsSphere(center mgl64.Vec3, radius float64) bool {
	for i := range f {
		dist := f[i].Vec3().Dot(center) + f[i].W()
		if dist < -radius {
			return false
		}
	}
	return true
}

// ContainsPoint reports whether a point is inside the frustum.
func (f *Frustum) ContainsPoint(p mgl64.Vec3) bool {
	return f.IntersectsSphere(p, 0)
}
