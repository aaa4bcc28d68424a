package meshing

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"planetsim/core"
)

// VolumeConfig sizes the marching-cubes chunk grid.
type VolumeConfig struct {
	// ChunkDim is the number of voxels per chunk side.
	ChunkDim int `yaml:"chunkDim"`
	// VoxelSize is the voxel edge length in meters.
	VoxelSize float64 `yaml:"voxelSize"`
	// ViewDistance is the chunk spawn radius around the viewer, in chunks.
	ViewDistance int `yaml:"viewDistance"`
	// MaxChunksPerUpdate caps chunk generation work per frame.
	MaxChunksPerUpdate int `yaml:"maxChunksPerUpdate"`
}

// DefaultVolumeConfig returns 32 m chunks of one-meter voxels.
func DefaultVolumeConfig() VolumeConfig {
	return VolumeConfig{
		ChunkDim:           32,
		VoxelSize:          1.0,
		ViewDistance:       4,
		MaxChunksPerUpdate: 8,
	}
}

// ChunkCoord addresses a chunk on the global voxel-aligned chunk grid.
type ChunkCoord struct {
	X, Y, Z int
}

// VolumeVertex is one marching-cubes vertex: world position, gradient
// normal and the material classification with its display color.
type VolumeVertex struct {
	Position mgl64.Vec3
	Normal   [3]float32
	Color    [3]float32
	Material core.Material
}

// ChunkMesh is the triangulated surface inside one chunk. Vertices are
// deduplicated within the chunk; seam vertices repeat across neighboring
// chunks at bitwise-identical positions, so shared edges stay watertight.
type ChunkMesh struct {
	Coord    ChunkCoord
	Vertices []VolumeVertex
	Indices  []uint32
	// CellClasses tallies meshed cells by their triangulation class,
	// reported through frame stats.
	CellClasses [16]int
}

// Empty reports whether the chunk produced no triangles.
func (m *ChunkMesh) Empty() bool { return len(m.Indices) == 0 }

// densityEpsilon guards the edge interpolation against near-zero and
// near-equal corner densities.
const densityEpsilon = 1e-5

// volumeQuantize is the vertex dedup grid, a millimeter.
const volumeQuantize = 1000.0

// VolumeMesher extracts marching-cubes surfaces from a density field,
// one chunk at a time. Safe for concurrent use.
type VolumeMesher struct {
	cfg   VolumeConfig
	field *core.DensityField
	log   *zap.Logger
}

// NewVolumeMesher builds a mesher over the given field.
func NewVolumeMesher(cfg VolumeConfig, field *core.DensityField, log *zap.Logger) *VolumeMesher {
	if log == nil {
		log = zap.NewNop()
	}
	return &VolumeMesher{cfg: cfg, field: field, log: log}
}

// ChunkExtent returns the chunk edge length in meters.
func (vm *VolumeMesher) ChunkExtent() float64 {
	return float64(vm.cfg.ChunkDim) * vm.cfg.VoxelSize
}

// ChunkOrigin returns the world position of the chunk's minimum corner.
// Sample positions are derived from global voxel indices so the same
// corner evaluates bit-identically from every chunk that touches it.
func (vm *VolumeMesher) ChunkOrigin(c ChunkCoord) mgl64.Vec3 {
	return vm.samplePos(c.X*vm.cfg.ChunkDim, c.Y*vm.cfg.ChunkDim, c.Z*vm.cfg.ChunkDim)
}

// ChunkCoordAt returns the chunk containing a world position.
func (vm *VolumeMesher) ChunkCoordAt(p mgl64.Vec3) ChunkCoord {
	e := vm.ChunkExtent()
	return ChunkCoord{
		X: int(math.Floor(p[0] / e)),
		Y: int(math.Floor(p[1] / e)),
		Z: int(math.Floor(p[2] / e)),
	}
}

func (vm *VolumeMesher) samplePos(gx, gy, gz int) mgl64.Vec3 {
	h := vm.cfg.VoxelSize
	return mgl64.Vec3{float64(gx) * h, float64(gy) * h, float64(gz) * h}
}

// GenerateChunk samples the field over the chunk's corner grid and
// triangulates every surface-crossing cell.
func (vm *VolumeMesher) GenerateChunk(coord ChunkCoord) *ChunkMesh {
	dim := vm.cfg.ChunkDim
	n := dim + 1
	baseX := coord.X * dim
	baseY := coord.Y * dim
	baseZ := coord.Z * dim

	densities := make([]float64, n*n*n)
	positions := make([]mgl64.Vec3, n*n*n)
	anyNeg, anyPos := false, false
	idx := func(x, y, z int) int { return (z*n+y)*n + x }
	for z := 0; z < n; z++ {
		for y := 0; y < n; y++ {
			for x := 0; x < n; x++ {
				p := vm.samplePos(baseX+x, baseY+y, baseZ+z)
				d := vm.field.Density(p)
				i := idx(x, y, z)
				densities[i] = d
				positions[i] = p
				if d < 0 {
					anyNeg = true
				} else {
					anyPos = true
				}
			}
		}
	}

	mesh := &ChunkMesh{Coord: coord}
	if !anyNeg || !anyPos {
		return mesh
	}

	dedup := make(map[[3]int64]uint32)
	var cornerD [8]float64
	var cornerP [8]mgl64.Vec3
	for z := 0; z < dim; z++ {
		for y := 0; y < dim; y++ {
			for x := 0; x < dim; x++ {
				caseIndex := 0
				for i := 0; i < 8; i++ {
					o := cornerOffset[i]
					j := idx(x+o[0], y+o[1], z+o[2])
					cornerD[i] = densities[j]
					cornerP[i] = positions[j]
					if cornerD[i] < 0 {
						caseIndex |= 1 << i
					}
				}
				class := regularCellClass[caseIndex]
				if class == 0 {
					continue
				}
				mesh.CellClasses[class]++
				vm.meshCell(mesh, dedup, &cornerD, &cornerP)
			}
		}
	}
	return mesh
}

// meshCell triangulates one surface-crossing cell. Edge crossings are
// paired along cube faces into closed polygon loops; on an ambiguous face
// (diagonal solid corners) the pairing isolates each solid corner, a rule
// that depends only on the face's corner signs and therefore agrees
// between the two cells sharing the face. Each loop is wound so its
// normal points out of the solid, then fan-triangulated.
func (vm *VolumeMesher) meshCell(mesh *ChunkMesh, dedup map[[3]int64]uint32, d *[8]float64, p *[8]mgl64.Vec3) {
	var crossed [12]bool
	var verts [12]mgl64.Vec3
	for e := 0; e < 12; e++ {
		a, b := cellEdges[e][0], cellEdges[e][1]
		if (d[a] < 0) == (d[b] < 0) {
			continue
		}
		crossed[e] = true
		verts[e] = interpolateVertex(p[a], p[b], d[a], d[b])
	}

	// Two partner slots per crossing: one from each of its two faces.
	var links [12][2]int
	for e := range links {
		links[e] = [2]int{-1, -1}
	}
	addLink := func(a, b int) {
		for s := 0; s < 2; s++ {
			if links[a][s] < 0 {
				links[a][s] = b
				break
			}
		}
		for s := 0; s < 2; s++ {
			if links[b][s] < 0 {
				links[b][s] = a
				break
			}
		}
	}
	for f := range cellFaces {
		face := &cellFaces[f]
		var ce [4]int
		nc := 0
		for i := 0; i < 4; i++ {
			if crossed[face.edges[i]] {
				ce[nc] = i
				nc++
			}
		}
		switch nc {
		case 2:
			addLink(face.edges[ce[0]], face.edges[ce[1]])
		case 4:
			// Signs alternate around the cycle. Pair the crossings
			// flanking each solid corner.
			if d[face.corners[0]] < 0 {
				addLink(face.edges[3], face.edges[0])
				addLink(face.edges[1], face.edges[2])
			} else {
				addLink(face.edges[0], face.edges[1])
				addLink(face.edges[2], face.edges[3])
			}
		}
	}

	var visited [12]bool
	var loop [12]int
	for start := 0; start < 12; start++ {
		if !crossed[start] || visited[start] {
			continue
		}
		nl := 0
		prev := -1
		cur := start
		for {
			visited[cur] = true
			loop[nl] = cur
			nl++
			next := links[cur][0]
			if next == prev {
				next = links[cur][1]
			}
			prev, cur = cur, next
			if cur == start {
				break
			}
		}
		if nl < 3 {
			continue
		}
		vm.emitLoop(mesh, dedup, d, p, loop[:nl], verts[:])
	}
}

func (vm *VolumeMesher) emitLoop(mesh *ChunkMesh, dedup map[[3]int64]uint32, d *[8]float64, p *[8]mgl64.Vec3, loop []int, verts []mgl64.Vec3) {
	// Newell normal of the polygon.
	var normal mgl64.Vec3
	for i := range loop {
		a := verts[loop[i]]
		b := verts[loop[(i+1)%len(loop)]]
		normal[0] += (a[1] - b[1]) * (a[2] + b[2])
		normal[1] += (a[2] - b[2]) * (a[0] + b[0])
		normal[2] += (a[0] - b[0]) * (a[1] + b[1])
	}

	// Orient the loop so the normal points from solid toward air, using
	// the first crossing's edge direction as the reference.
	ca, cb := cellEdges[loop[0]][0], cellEdges[loop[0]][1]
	toAir := p[cb].Sub(p[ca])
	if d[ca] >= 0 {
		toAir = toAir.Mul(-1)
	}
	if normal.Dot(toAir) < 0 {
		for i, j := 0, len(loop)-1; i < j; i, j = i+1, j-1 {
			loop[i], loop[j] = loop[j], loop[i]
		}
	}

	var idx [12]uint32
	for i, e := range loop {
		idx[i] = vm.emitVertex(mesh, dedup, verts[e])
	}
	for i := 1; i+1 < len(loop); i++ {
		a, b, c := idx[0], idx[i], idx[i+1]
		if a == b || b == c || a == c {
			continue
		}
		mesh.Indices = append(mesh.Indices, a, b, c)
	}
}

func (vm *VolumeMesher) emitVertex(mesh *ChunkMesh, dedup map[[3]int64]uint32, pos mgl64.Vec3) uint32 {
	key := [3]int64{
		int64(math.Round(pos[0] * volumeQuantize)),
		int64(math.Round(pos[1] * volumeQuantize)),
		int64(math.Round(pos[2] * volumeQuantize)),
	}
	if i, ok := dedup[key]; ok {
		return i
	}
	g := vm.field.Gradient(pos, vm.cfg.VoxelSize*0.5)
	height := vm.field.TerrainHeight(pos.Normalize())
	mat := vm.field.SurfaceMaterial(height)
	color := mat.Color()
	i := uint32(len(mesh.Vertices))
	mesh.Vertices = append(mesh.Vertices, VolumeVertex{
		Position: pos,
		Normal:   [3]float32{float32(g[0]), float32(g[1]), float32(g[2])},
		Color:    color,
		Material: mat,
	})
	dedup[key] = i
	return i
}

// interpolateVertex places the surface crossing on an edge by linear
// interpolation of the endpoint densities, falling back to an endpoint
// when either density or their difference is too small to divide by.
func interpolateVertex(p1, p2 mgl64.Vec3, d1, d2 float64) mgl64.Vec3 {
	if math.Abs(d1) < densityEpsilon {
		return p1
	}
	if math.Abs(d2) < densityEpsilon {
		return p2
	}
	if math.Abs(d1-d2) < densityEpsilon {
		return p1
	}
	t := d1 / (d1 - d2)
	return p1.Add(p2.Sub(p1).Mul(t))
}
