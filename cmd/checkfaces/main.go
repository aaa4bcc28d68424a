// checkfaces is a diagnostic for the cube-sphere mapping: it verifies
// that the six face parameterizations agree along shared edges and
// corners, that UV round-trips are stable, and that the face adjacency
// table matches the geometry. Run it after touching the mapping tables.
package main

import (
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl64"

	"planetsim/core"
)

const radius = 6371000.0

func main() {
	failures := 0

	fmt.Println("=== Cube-Sphere Face Checks ===")
	fmt.Println()

	fmt.Println("Check 1: UV -> cube -> UV round trip")
	for f := core.Face(0); f < core.FaceCount; f++ {
		worst := 0.0
		for _, uv := range [][2]float64{{0, 0}, {1, 0}, {0, 1}, {1, 1}, {0.5, 0.5}, {0.25, 0.75}} {
			cube := core.UVToUnitCube(f, uv[0], uv[1])
			face := core.FaceOf(cube)
			if face != f {
				// Edges and corners legitimately resolve to another face;
				// only interior points must round-trip.
				if uv[0] > 0 && uv[0] < 1 && uv[1] > 0 && uv[1] < 1 {
					fmt.Printf("  FAIL %v (%.2f,%.2f): resolved to %v\n", f, uv[0], uv[1], face)
					failures++
				}
				continue
			}
			_, u, v := core.CubeFaceUV(core.SphereToCube(core.CubeToSphere(cube, radius).Normalize()))
			if d := maxAbs(u-uv[0], v-uv[1]); d > worst {
				worst = d
			}
		}
		fmt.Printf("  %v: worst uv error %.2e\n", f, worst)
		if worst > 1e-9 {
			failures++
		}
	}
	fmt.Println()

	fmt.Println("Check 2: shared edges produce identical vertices")
	const samples = 9
	for f := core.Face(0); f < core.FaceCount; f++ {
		for e := core.Edge(0); e < core.EdgeCount; e++ {
			link := core.FaceNeighbor(f, e)
			mismatches := 0
			for i := 0; i < samples; i++ {
				t := float64(i) / (samples - 1)
				a := edgePoint(f, e, t)
				s := t
				if link.Reversed {
					s = 1 - t
				}
				b := edgePoint(link.Face, link.Edge, s)
				if core.MakeVertexKey(a) != core.MakeVertexKey(b) {
					mismatches++
				}
			}
			status := "ok"
			if mismatches > 0 {
				status = fmt.Sprintf("FAIL (%d/%d mismatched)", mismatches, samples)
				failures++
			}
			fmt.Printf("  %v.%v <-> %v.%v reversed=%v: %s\n", f, e, link.Face, link.Edge, link.Reversed, status)
		}
	}
	fmt.Println()

	fmt.Println("Check 3: cube corners shared by three faces")
	corners := map[[3]int64]map[core.Face]bool{}
	for f := core.Face(0); f < core.FaceCount; f++ {
		for _, uv := range [][2]float64{{0, 0}, {1, 0}, {0, 1}, {1, 1}} {
			k := core.MakeVertexKey(core.UVToUnitCube(f, uv[0], uv[1]))
			kk := [3]int64{k.X, k.Y, k.Z}
			if corners[kk] == nil {
				corners[kk] = map[core.Face]bool{}
			}
			corners[kk][f] = true
		}
	}
	fmt.Printf("  distinct corner keys: %d (want 8)\n", len(corners))
	if len(corners) != 8 {
		failures++
	}
	for kk, faces := range corners {
		if len(faces) != 3 {
			fmt.Printf("  FAIL corner %v shared by %d faces, want 3\n", kk, len(faces))
			failures++
		}
	}
	fmt.Println()

	if failures > 0 {
		fmt.Printf("%d check(s) FAILED\n", failures)
		os.Exit(1)
	}
	fmt.Println("All checks passed")
}

// edgePoint parameterizes a face edge: t runs along the edge in its
// face's increasing-UV direction.
func edgePoint(f core.Face, e core.Edge, t float64) mgl64.Vec3 {
	var u, v float64
	switch e {
	case core.EdgeTop:
		u, v = t, 1
	case core.EdgeBottom:
		u, v = t, 0
	case core.EdgeLeft:
		u, v = 0, t
	default:
		u, v = 1, t
	}
	return core.UVToUnitCube(f, u, v)
}

func maxAbs(a, b float64) float64 {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	if a > b {
		return a
	}
	return b
}
