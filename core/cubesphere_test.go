package core

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

// edgePoint parameterizes a face edge in its increasing-UV direction.
func edgePoint(f Face, e Edge, t float64) mgl64.Vec3 {
	switch e {
	case EdgeTop:
		return UVToUnitCube(f, t, 1)
	case EdgeBottom:
		return UVToUnitCube(f, t, 0)
	case EdgeLeft:
		return UVToUnitCube(f, 0, t)
	default:
		return UVToUnitCube(f, 1, t)
	}
}

func TestUVCubeRoundTrip(t *testing.T) {
	for f := Face(0); f < FaceCount; f++ {
		for _, uv := range [][2]float64{{0.5, 0.5}, {0.25, 0.75}, {0.001, 0.999}, {0.125, 0.625}} {
			cube := UVToUnitCube(f, uv[0], uv[1])
			face, u, v := CubeFaceUV(cube)
			if face != f {
				t.Fatalf("%v (%g,%g): resolved to face %v", f, uv[0], uv[1], face)
			}
			if math.Abs(u-uv[0]) > 1e-12 || math.Abs(v-uv[1]) > 1e-12 {
				t.Errorf("%v (%g,%g): round trip gave (%g,%g)", f, uv[0], uv[1], u, v)
			}
		}
	}
}

func TestUVSnapsToBoundary(t *testing.T) {
	cube := UVToUnitCube(FacePosZ, 1-1e-13, 0.5)
	want := UVToUnitCube(FacePosZ, 1, 0.5)
	if cube != want {
		t.Errorf("uv within epsilon of 1 did not snap: got %v want %v", cube, want)
	}
}

func TestSnapCube(t *testing.T) {
	c := SnapCube(mgl64.Vec3{1 - 1e-9, 0.25, -1 + 1e-9})
	if c.X() != 1 || c.Z() != -1 {
		t.Errorf("components within snap epsilon not snapped: %v", c)
	}
	if c.Y() != 0.25 {
		t.Errorf("interior component changed: %v", c)
	}
	c = SnapCube(mgl64.Vec3{1 - 1e-6, 0, 0})
	if c.X() == 1 {
		t.Errorf("component outside snap epsilon was snapped")
	}
}

// Shared edges must produce byte-identical sphere positions and equal
// vertex keys from both faces, or patch borders crack.
func TestSharedEdgeIdentity(t *testing.T) {
	const samples = 17
	for f := Face(0); f < FaceCount; f++ {
		for e := Edge(0); e < EdgeCount; e++ {
			link := FaceNeighbor(f, e)
			for i := 0; i < samples; i++ {
				s := float64(i) / (samples - 1)
				tt := s
				if link.Reversed {
					tt = 1 - s
				}
				a := edgePoint(f, e, s)
				b := edgePoint(link.Face, link.Edge, tt)
				if MakeVertexKey(a) != MakeVertexKey(b) {
					t.Fatalf("%v.%v t=%g: key mismatch with %v.%v (rev=%v): %v vs %v",
						f, e, s, link.Face, link.Edge, link.Reversed, a, b)
				}
				sa := CubeToSphere(SnapCube(a), 6371000)
				sb := CubeToSphere(SnapCube(b), 6371000)
				if sa != sb {
					t.Fatalf("%v.%v t=%g: sphere positions differ: %v vs %v", f, e, s, sa, sb)
				}
			}
		}
	}
}

func TestCornersSharedByThreeFaces(t *testing.T) {
	seen := map[VertexKey]map[Face]bool{}
	for f := Face(0); f < FaceCount; f++ {
		for _, uv := range [][2]float64{{0, 0}, {1, 0}, {0, 1}, {1, 1}} {
			k := MakeVertexKey(UVToUnitCube(f, uv[0], uv[1]))
			if seen[k] == nil {
				seen[k] = map[Face]bool{}
			}
			seen[k][f] = true
		}
	}
	if len(seen) != 8 {
		t.Fatalf("got %d distinct corner keys, want 8", len(seen))
	}
	for k, faces := range seen {
		if len(faces) != 3 {
			t.Errorf("corner %v shared by %d faces, want 3", k, len(faces))
		}
	}
}

// Every direction must land on exactly the face whose axis dominates, and
// the six faces together must cover the sphere.
func TestFaceOfCoverage(t *testing.T) {
	counts := map[Face]int{}
	for lat := -80.0; lat <= 80.0; lat += 8 {
		for lon := 0.0; lon < 360.0; lon += 8 {
			la, lo := mgl64.DegToRad(lat), mgl64.DegToRad(lon)
			dir := mgl64.Vec3{
				math.Cos(la) * math.Cos(lo),
				math.Sin(la),
				math.Cos(la) * math.Sin(lo),
			}
			f := FaceOf(dir)
			counts[f]++
			cube := SphereToCube(dir)
			face, u, v := CubeFaceUV(cube)
			if face != f {
				t.Fatalf("FaceOf and CubeFaceUV disagree for %v", dir)
			}
			if u < 0 || u > 1 || v < 0 || v > 1 {
				t.Fatalf("uv out of range for %v: (%g,%g)", dir, u, v)
			}
			back := FaceUVToSphere(face, u, v, 1)
			if back.Sub(dir).Len() > 1e-9 {
				t.Fatalf("sphere round trip drifted: %v -> %v", dir, back)
			}
		}
	}
	for f := Face(0); f < FaceCount; f++ {
		if counts[f] == 0 {
			t.Errorf("face %v never selected", f)
		}
	}
}

func TestVertexKeyIgnoresProducingFace(t *testing.T) {
	// The +X/+Z shared edge reached through either face's parameterization.
	a := UVToUnitCube(FacePosX, 0.375, 1)
	link := FaceNeighbor(FacePosX, EdgeTop)
	tt := 0.375
	if link.Reversed {
		tt = 1 - tt
	}
	b := edgePoint(link.Face, link.Edge, tt)
	if MakeVertexKey(a) != MakeVertexKey(b) {
		t.Errorf("same cube position keyed differently: %v vs %v", a, b)
	}
}
