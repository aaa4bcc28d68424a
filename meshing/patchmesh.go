package meshing

import (
	"math"
	"sync/atomic"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"planetsim/core"
)

// PatchConfig tunes the patch mesh generator.
type PatchConfig struct {
	// GridResolution is the vertex count per patch side (power of two
	// plus one so child grids nest into parent grids).
	GridResolution int  `yaml:"gridResolution"`
	EnableSkirts   bool `yaml:"enableSkirts"`
	// SkirtDepth is how far below the surface the skirt ring drops, in
	// meters.
	SkirtDepth        float64 `yaml:"skirtDepth"`
	EnableVertexCache bool    `yaml:"enableVertexCache"`
}

// DefaultPatchConfig matches the renderer defaults: 65x65 grids with
// 500 m skirts.
func DefaultPatchConfig() PatchConfig {
	return PatchConfig{
		GridResolution:    65,
		EnableSkirts:      true,
		SkirtDepth:        500,
		EnableVertexCache: true,
	}
}

// Vertex is one patch mesh vertex. Position and MorphTarget stay in world
// space doubles; the camera-relative float32 conversion happens at frame
// assembly.
type Vertex struct {
	Position    mgl64.Vec3
	MorphTarget mgl64.Vec3
	Normal      [3]float32
	Height      float32
	Material    core.Material
	Face        core.Face
}

// PatchMesh is the generated geometry of one quadtree leaf.
type PatchMesh struct {
	Face  core.Face
	Level int
	Morph float64

	Vertices []Vertex
	Indices  []uint32

	// GridVertexCount counts the surface vertices (grid plus stitching
	// extras); skirt vertices follow from SkirtVertexStart.
	GridVertexCount  int
	SkirtVertexStart int
	// SurfaceIndexCount is the length of the surface triangle prefix of
	// Indices; skirt triangles follow.
	SurfaceIndexCount int
}

// PatchGenerator turns quadtree leaves into meshes. Safe for concurrent
// use: all mutable state lives in the sharded cache and atomic counters.
type PatchGenerator struct {
	cfg   PatchConfig
	field *core.DensityField
	cache *VertexCache
	log   *zap.Logger

	badHeights  atomic.Uint64
	zeroCubePos atomic.Uint64
}

// NewPatchGenerator wires a generator to a density field and shared
// vertex cache. cache may be nil when caching is disabled.
func NewPatchGenerator(cfg PatchConfig, field *core.DensityField, cache *VertexCache, log *zap.Logger) *PatchGenerator {
	if log == nil {
		log = zap.NewNop()
	}
	return &PatchGenerator{cfg: cfg, field: field, cache: cache, log: log}
}

// Generate builds the mesh for a patch. neighborLevels holds the adjacent
// leaf level per edge (EdgeTop..EdgeLeft order); edges with finer
// neighbors get stitching vertices at the neighbor's granularity so the
// shared boundary is free of T-junctions.
func (g *PatchGenerator) Generate(patch core.Patch, neighborLevels [4]int, morph float64) (*PatchMesh, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	res := g.cfg.GridResolution
	var mult [4]int
	for e := 0; e < 4; e++ {
		mult[e] = 1
		if neighborLevels[e] > patch.Level {
			mult[e] = 1 << (neighborLevels[e] - patch.Level)
		}
	}

	transform := patch.UVToCube()
	center := patch.Center()

	gridCount := res * res
	extraCount := (res - 1) * (mult[core.EdgeTop] - 1 + mult[core.EdgeRight] - 1 +
		mult[core.EdgeBottom] - 1 + mult[core.EdgeLeft] - 1)
	skirtCount := 0
	if g.cfg.EnableSkirts {
		skirtCount = res * 4
	}

	mesh := &PatchMesh{
		Face:             patch.Face,
		Level:            patch.Level,
		Morph:            morph,
		Vertices:         make([]Vertex, 0, gridCount+extraCount+skirtCount),
		GridVertexCount:  gridCount + extraCount,
		SkirtVertexStart: gridCount + extraCount,
	}

	cubeAt := func(u, v float64) mgl64.Vec3 {
		c := transform.Mul4x1(mgl64.Vec4{u, v, 0, 1}).Vec3()
		if c.X() == 0 && c.Y() == 0 && c.Z() == 0 {
			if g.zeroCubePos.Add(1) <= 5 {
				g.log.Warn("patch transform produced zero cube position",
					zap.String("face", patch.Face.String()),
					zap.Int("level", patch.Level),
					zap.Float64("u", u), zap.Float64("v", v))
			}
			c = center
		}
		return core.SnapCube(c)
	}

	// Main grid, row-major.
	for y := 0; y < res; y++ {
		for x := 0; x < res; x++ {
			u := float64(x) / float64(res-1)
			v := float64(y) / float64(res-1)
			mesh.Vertices = append(mesh.Vertices, g.surfaceVertex(cubeAt(u, v), patch.Face))
		}
	}

	// Stitching vertices per edge, between consecutive grid vertices, at
	// the finer neighbor's granularity. Block order: top, right, bottom,
	// left.
	emitExtras := func(e core.Edge) {
		m := mult[e]
		if m <= 1 {
			return
		}
		for i := 0; i < res-1; i++ {
			for sub := 1; sub < m; sub++ {
				f := (float64(i) + float64(sub)/float64(m)) / float64(res-1)
				var u, v float64
				switch e {
				case core.EdgeTop:
					u, v = f, 1
				case core.EdgeRight:
					u, v = 1, f
				case core.EdgeBottom:
					u, v = f, 0
				default:
					u, v = 0, f
				}
				mesh.Vertices = append(mesh.Vertices, g.surfaceVertex(cubeAt(u, v), patch.Face))
			}
		}
	}
	emitExtras(core.EdgeTop)
	emitExtras(core.EdgeRight)
	emitExtras(core.EdgeBottom)
	emitExtras(core.EdgeLeft)

	g.fillMorphTargets(mesh, res)

	if g.cfg.EnableSkirts {
		g.emitSkirtVertices(mesh, patch, transform, res)
	}

	g.buildIndices(mesh, res, mult)
	g.accumulateNormals(mesh)

	return mesh, nil
}

// surfaceVertex produces (or fetches from the cache) the displaced world
// vertex for a snapped cube position.
func (g *PatchGenerator) surfaceVertex(cube mgl64.Vec3, face core.Face) Vertex {
	key := core.MakeVertexKey(cube)
	if g.cfg.EnableVertexCache && g.cache != nil {
		if cv, ok := g.cache.Get(key); ok {
			return Vertex{
				Position:    cv.Position,
				MorphTarget: cv.Position,
				Height:      cv.Height,
				Material:    cv.Material,
				Face:        face,
			}
		}
	}

	cv := g.computeVertex(cube, 0)
	if g.cfg.EnableVertexCache && g.cache != nil {
		g.cache.Put(key, cv)
	}
	return Vertex{
		Position:    cv.Position,
		MorphTarget: cv.Position,
		Height:      cv.Height,
		Material:    cv.Material,
		Face:        face,
	}
}

// computeVertex displaces a cube position onto the terrain surface,
// dropped by depthOffset for skirts.
func (g *PatchGenerator) computeVertex(cube mgl64.Vec3, depthOffset float64) CachedVertex {
	normal := cube.Normalize()
	height := g.field.TerrainHeight(normal)
	if math.IsNaN(height) || math.IsInf(height, 0) || math.Abs(height) > 100000 {
		if g.badHeights.Add(1) <= 5 {
			g.log.Warn("terrain height out of range, falling back to sea level",
				zap.Float64("height", height),
				zap.Float64("nx", normal.X()), zap.Float64("ny", normal.Y()), zap.Float64("nz", normal.Z()))
		}
		height = 0
	}
	radius := g.field.Radius() + height - depthOffset
	return CachedVertex{
		Position: normal.Mul(radius),
		Height:   float32(height),
		Material: g.field.SurfaceMaterial(height),
	}
}

// fillMorphTargets points each odd grid vertex at the position it has on
// the parent-level grid: the midpoint of its even neighbors. Even
// vertices exist in the parent grid and keep their own position.
func (g *PatchGenerator) fillMorphTargets(mesh *PatchMesh, res int) {
	idx := func(x, y int) int { return y*res + x }
	for y := 0; y < res; y++ {
		for x := 0; x < res; x++ {
			oddX := x%2 == 1
			oddY := y%2 == 1
			if !oddX && !oddY {
				continue
			}
			var a, b int
			switch {
			case oddX && !oddY:
				a, b = idx(x-1, y), idx(x+1, y)
			case !oddX && oddY:
				a, b = idx(x, y-1), idx(x, y+1)
			default:
				a, b = idx(x-1, y-1), idx(x+1, y+1)
			}
			mid := mesh.Vertices[a].Position.Add(mesh.Vertices[b].Position).Mul(0.5)
			mesh.Vertices[idx(x, y)].MorphTarget = mid
		}
	}
}

// emitSkirtVertices adds four rings just outside the patch, dropped below
// the surface. Ring order: top, bottom, left, right.
func (g *PatchGenerator) emitSkirtVertices(mesh *PatchMesh, patch core.Patch, transform mgl64.Mat4, res int) {
	const skirtOffset = 0.05
	ring := func(edge core.Edge) {
		for i := 0; i < res; i++ {
			f := float64(i) / float64(res-1)
			var u, v float64
			switch edge {
			case core.EdgeTop:
				u, v = f, 1+skirtOffset
			case core.EdgeBottom:
				u, v = f, -skirtOffset
			case core.EdgeLeft:
				u, v = -skirtOffset, f
			default:
				u, v = 1+skirtOffset, f
			}
			cube := transform.Mul4x1(mgl64.Vec4{u, v, 0, 1}).Vec3()
			cv := g.computeVertex(cube, g.cfg.SkirtDepth)
			sn := cube.Normalize()
			mesh.Vertices = append(mesh.Vertices, Vertex{
				Position:    cv.Position,
				MorphTarget: cv.Position,
				Normal:      [3]float32{float32(sn.X()), float32(sn.Y()), float32(sn.Z())},
				Height:      cv.Height,
				Material:    cv.Material,
				Face:        patch.Face,
			})
		}
	}
	ring(core.EdgeTop)
	ring(core.EdgeBottom)
	ring(core.EdgeLeft)
	ring(core.EdgeRight)
}

// buildIndices triangulates the grid. Quads bordering a finer neighbor
// use the stitching vertices: the boundary chain runs at the neighbor's
// granularity and is fanned from an interior vertex, so both sides of the
// edge share the exact vertex set and no T-junctions remain.
func (g *PatchGenerator) buildIndices(mesh *PatchMesh, res int, mult [4]int) {
	idx := func(x, y int) uint32 { return uint32(y*res + x) }

	topStart := uint32(res * res)
	rightStart := topStart + uint32((res-1)*(mult[core.EdgeTop]-1))
	bottomStart := rightStart + uint32((res-1)*(mult[core.EdgeRight]-1))
	leftStart := bottomStart + uint32((res-1)*(mult[core.EdgeBottom]-1))

	// chain returns the boundary vertex run of one edge segment, endpoint
	// to endpoint, at the stitched granularity.
	chain := func(e core.Edge, seg int) []uint32 {
		m := mult[e]
		var start, end uint32
		var block uint32
		switch e {
		case core.EdgeTop:
			start, end, block = idx(seg, res-1), idx(seg+1, res-1), topStart
		case core.EdgeRight:
			start, end, block = idx(res-1, seg), idx(res-1, seg+1), rightStart
		case core.EdgeBottom:
			start, end, block = idx(seg, 0), idx(seg+1, 0), bottomStart
		default:
			start, end, block = idx(0, seg), idx(0, seg+1), leftStart
		}
		run := make([]uint32, 0, m+1)
		run = append(run, start)
		for sub := 1; sub < m; sub++ {
			run = append(run, block+uint32(seg*(m-1)+sub-1))
		}
		return append(run, end)
	}
	reverse := func(c []uint32) []uint32 {
		r := make([]uint32, len(c))
		for i := range c {
			r[i] = c[len(c)-1-i]
		}
		return r
	}
	tri := func(a, b, c uint32) {
		mesh.Indices = append(mesh.Indices, a, b, c)
	}
	fan := func(path []uint32, apex uint32) {
		for k := 0; k+1 < len(path); k++ {
			tri(path[k], path[k+1], apex)
		}
	}
	join := func(a, b []uint32) []uint32 {
		return append(append([]uint32{}, a...), b[1:]...)
	}

	stTop := mult[core.EdgeTop] > 1
	stRight := mult[core.EdgeRight] > 1
	stBottom := mult[core.EdgeBottom] > 1
	stLeft := mult[core.EdgeLeft] > 1

	for y := 0; y < res-1; y++ {
		for x := 0; x < res-1; x++ {
			bl := idx(x, y)
			br := idx(x+1, y)
			tl := idx(x, y+1)
			tr := idx(x+1, y+1)

			onTop := y == res-2 && stTop
			onBottom := y == 0 && stBottom
			onLeft := x == 0 && stLeft
			onRight := x == res-2 && stRight

			switch {
			case onBottom && onLeft:
				fan(join(reverse(chain(core.EdgeBottom, x)), chain(core.EdgeLeft, y)), tr)
			case onTop && onLeft:
				fan(join(chain(core.EdgeLeft, y), chain(core.EdgeTop, x)), br)
			case onTop && onRight:
				fan(join(chain(core.EdgeTop, x), reverse(chain(core.EdgeRight, y))), bl)
			case onBottom && onRight:
				fan(join(reverse(chain(core.EdgeRight, y)), reverse(chain(core.EdgeBottom, x))), tl)
			case onTop:
				fan(chain(core.EdgeTop, x), bl)
				tri(tr, br, bl)
			case onBottom:
				fan(reverse(chain(core.EdgeBottom, x)), tl)
				tri(tl, tr, br)
			case onLeft:
				fan(chain(core.EdgeLeft, y), br)
				tri(tl, tr, br)
			case onRight:
				fan(reverse(chain(core.EdgeRight, y)), bl)
				tri(bl, tl, tr)
			default:
				tri(bl, tl, br)
				tri(br, tl, tr)
			}
		}
	}
	mesh.SurfaceIndexCount = len(mesh.Indices)

	if g.cfg.EnableSkirts {
		skirt := uint32(mesh.SkirtVertexStart)
		topRing := skirt
		bottomRing := skirt + uint32(res)
		leftRing := skirt + uint32(2*res)
		rightRing := skirt + uint32(3*res)
		for i := 0; i < res-1; i++ {
			u := uint32(i)
			// top
			tri(idx(i, res-1), topRing+u, idx(i+1, res-1))
			tri(idx(i+1, res-1), topRing+u, topRing+u+1)
			// bottom
			tri(idx(i, 0), bottomRing+u, idx(i+1, 0))
			tri(idx(i+1, 0), bottomRing+u, bottomRing+u+1)
			// left
			tri(idx(0, i), leftRing+u, idx(0, i+1))
			tri(idx(0, i+1), leftRing+u, leftRing+u+1)
			// right
			tri(idx(res-1, i), rightRing+u, idx(res-1, i+1))
			tri(idx(res-1, i+1), rightRing+u, rightRing+u+1)
		}
	}
}

// accumulateNormals computes area-weighted vertex normals over the
// surface triangles. Skirt vertices keep their sphere normal.
func (g *PatchGenerator) accumulateNormals(mesh *PatchMesh) {
	acc := make([][3]float32, mesh.GridVertexCount)
	origin := mesh.Vertices[0].Position

	for i := 0; i+2 < mesh.SurfaceIndexCount; i += 3 {
		a := mesh.Indices[i]
		b := mesh.Indices[i+1]
		c := mesh.Indices[i+2]
		// Work relative to a mesh-local origin so float32 keeps enough
		// precision at planet scale.
		pa := mesh.Vertices[a].Position.Sub(origin)
		pb := mesh.Vertices[b].Position.Sub(origin)
		pc := mesh.Vertices[c].Position.Sub(origin)
		e1 := pb.Sub(pa)
		e2 := pc.Sub(pa)
		n := e1.Cross(e2) // length is twice the area: weights by size
		for _, vi := range [3]uint32{a, b, c} {
			if int(vi) < len(acc) {
				acc[vi][0] += float32(n.X())
				acc[vi][1] += float32(n.Y())
				acc[vi][2] += float32(n.Z())
			}
		}
	}

	for i := 0; i < mesh.GridVertexCount; i++ {
		n := acc[i]
		l := math32.Sqrt(n[0]*n[0] + n[1]*n[1] + n[2]*n[2])
		sn := mesh.Vertices[i].Position.Normalize()
		if l == 0 {
			mesh.Vertices[i].Normal = [3]float32{float32(sn.X()), float32(sn.Y()), float32(sn.Z())}
			continue
		}
		// The UV winding is face-local, so the accumulated normal can
		// point into the planet on half the faces; orient it outward.
		if float64(n[0])*sn.X()+float64(n[1])*sn.Y()+float64(n[2])*sn.Z() < 0 {
			l = -l
		}
		mesh.Vertices[i].Normal = [3]float32{n[0] / l, n[1] / l, n[2] / l}
	}
}
