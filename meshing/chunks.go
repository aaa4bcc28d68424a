package meshing

import (
	"sort"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"planetsim/core"
)

// ChunkManager keeps the set of live marching-cubes chunks matched to the
// viewer: a shell of chunks around the camera that actually intersect the
// terrain surface. Chunks outside the view frustum are skipped unless
// they sit right next to the viewer, so turning the camera never reveals
// a hole.
type ChunkManager struct {
	cfg    VolumeConfig
	mesher *VolumeMesher
	log    *zap.Logger

	chunks map[ChunkCoord]*ChunkMesh
}

// NewChunkManager builds an empty manager over the given field.
func NewChunkManager(cfg VolumeConfig, field *core.DensityField, log *zap.Logger) *ChunkManager {
	if log == nil {
		log = zap.NewNop()
	}
	return &ChunkManager{
		cfg:    cfg,
		mesher: NewVolumeMesher(cfg, field, log),
		log:    log,
	}
}

// Mesher exposes the underlying mesher.
func (cm *ChunkManager) Mesher() *VolumeMesher { return cm.mesher }

// chunkCenter returns the world-space center of a chunk.
func (cm *ChunkManager) chunkCenter(c ChunkCoord) mgl64.Vec3 {
	half := cm.mesher.ChunkExtent() * 0.5
	return cm.mesher.ChunkOrigin(c).Add(mgl64.Vec3{half, half, half})
}

// chunkRadius is the bounding-sphere radius of a chunk.
func (cm *ChunkManager) chunkRadius() float64 {
	e := cm.mesher.ChunkExtent()
	return e * 0.5 * 1.7320508075688772 // half diagonal
}

// nearSurface reports whether a chunk's bounding sphere can intersect the
// terrain surface. The density at the center is a signed distance bound.
func (cm *ChunkManager) nearSurface(c ChunkCoord) bool {
	d := cm.mesher.field.Density(cm.chunkCenter(c))
	margin := cm.chunkRadius() + cm.cfg.VoxelSize
	return d > -margin && d < margin
}

// anchor is the surface point beneath the viewer: the chunk shell centers
// there, not on the viewer, so chunks exist even while the camera is
// hundreds of meters up.
func (cm *ChunkManager) anchor(viewPos mgl64.Vec3) mgl64.Vec3 {
	f := cm.mesher.field
	dir := viewPos.Normalize()
	return dir.Mul(f.Radius() + f.TerrainHeight(dir))
}

// DesiredChunks lists, in deterministic order, the chunks the manager
// wants live for the given viewer: within ViewDistance chunks of the
// surface point beneath the viewer, crossing the surface, and either
// near that point or inside the frustum.
func (cm *ChunkManager) DesiredChunks(viewPos mgl64.Vec3, frustum *core.Frustum) []ChunkCoord {
	center := cm.mesher.ChunkCoordAt(cm.anchor(viewPos))
	r := cm.cfg.ViewDistance
	var out []ChunkCoord
	for dz := -r; dz <= r; dz++ {
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				c := ChunkCoord{center.X + dx, center.Y + dy, center.Z + dz}
				if !cm.nearSurface(c) {
					continue
				}
				adjacent := dx >= -1 && dx <= 1 && dy >= -1 && dy <= 1 && dz >= -1 && dz <= 1
				if !adjacent && frustum != nil &&
					!frustum.IntersectsSphere(cm.chunkCenter(c), cm.chunkRadius()) {
					continue
				}
				out = append(out, c)
			}
		}
	}
	return out
}

// UpdateStats reports what one Update pass did.
type UpdateStats struct {
	Spawned int
	Retired int
	Live    int
	Pending int
}

// Update retires chunks the viewer has left behind and generates missing
// desired chunks, at most MaxChunksPerUpdate per call. Generation runs on
// a goroutine per chunk; results are inserted in deterministic order.
func (cm *ChunkManager) Update(viewPos mgl64.Vec3, frustum *core.Frustum) UpdateStats {
	if cm.chunks == nil {
		cm.chunks = make(map[ChunkCoord]*ChunkMesh)
	}
	desired := cm.DesiredChunks(viewPos, frustum)
	want := make(map[ChunkCoord]bool, len(desired))
	for _, c := range desired {
		want[c] = true
	}

	var stats UpdateStats
	// Retire with one chunk of hysteresis so oscillation at the shell
	// boundary does not thrash regeneration.
	center := cm.mesher.ChunkCoordAt(cm.anchor(viewPos))
	keep := cm.cfg.ViewDistance + 1
	for c := range cm.chunks {
		dx, dy, dz := c.X-center.X, c.Y-center.Y, c.Z-center.Z
		if dx < -keep || dx > keep || dy < -keep || dy > keep || dz < -keep || dz > keep {
			delete(cm.chunks, c)
			stats.Retired++
		}
	}

	var missing []ChunkCoord
	for _, c := range desired {
		if _, ok := cm.chunks[c]; !ok {
			missing = append(missing, c)
		}
	}
	stats.Pending = len(missing)
	if len(missing) > cm.cfg.MaxChunksPerUpdate {
		missing = missing[:cm.cfg.MaxChunksPerUpdate]
	}

	meshes := make([]*ChunkMesh, len(missing))
	var wg sync.WaitGroup
	for i, c := range missing {
		wg.Add(1)
		go func(i int, c ChunkCoord) {
			defer wg.Done()
			meshes[i] = cm.mesher.GenerateChunk(c)
		}(i, c)
	}
	wg.Wait()
	for _, m := range meshes {
		cm.chunks[m.Coord] = m
		stats.Spawned++
	}
	stats.Pending -= stats.Spawned
	stats.Live = len(cm.chunks)
	return stats
}

// Meshes returns the live chunk meshes sorted by coordinate.
func (cm *ChunkManager) Meshes() []*ChunkMesh {
	out := make([]*ChunkMesh, 0, len(cm.chunks))
	for _, m := range cm.chunks {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Coord, out[j].Coord
		if a.Z != b.Z {
			return a.Z < b.Z
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})
	return out
}

// Len returns the number of live chunks.
func (cm *ChunkManager) Len() int { return len(cm.chunks) }

// TriangleCount sums triangles across live chunks.
func (cm *ChunkManager) TriangleCount() int {
	total := 0
	for _, m := range cm.chunks {
		total += len(m.Indices) / 3
	}
	return total
}

// Clear drops all live chunks, used when leaving the volumetric regime.
func (cm *ChunkManager) Clear() {
	cm.chunks = nil
}
