package meshing

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"planetsim/core"
)

func surfaceViewer(field *core.DensityField, dir mgl64.Vec3, altitude float64) mgl64.Vec3 {
	dir = dir.Normalize()
	return dir.Mul(field.Radius() + field.TerrainHeight(dir) + altitude)
}

func TestDesiredChunksHugSurface(t *testing.T) {
	field := smallPlanetField()
	cm := NewChunkManager(smallVolumeConfig(), field, nil)

	viewer := surfaceViewer(field, mgl64.Vec3{1, 0, 0}, 50)
	desired := cm.DesiredChunks(viewer, nil)
	if len(desired) == 0 {
		t.Fatal("no desired chunks for a viewer 50 m up")
	}

	seen := map[ChunkCoord]bool{}
	margin := cm.chunkRadius() + cm.cfg.VoxelSize
	for _, c := range desired {
		if seen[c] {
			t.Fatalf("chunk %v listed twice", c)
		}
		seen[c] = true
		d := field.Density(cm.chunkCenter(c))
		if d <= -margin || d >= margin {
			t.Errorf("chunk %v cannot touch the surface (density %g)", c, d)
		}
	}

	// Same viewer, same list, same order.
	again := cm.DesiredChunks(viewer, nil)
	if len(again) != len(desired) {
		t.Fatal("desired chunk list not deterministic")
	}
	for i := range desired {
		if desired[i] != again[i] {
			t.Fatalf("desired chunk order differs at %d", i)
		}
	}
}

func TestDesiredChunksKeepViewerNeighborhood(t *testing.T) {
	field := smallPlanetField()
	cm := NewChunkManager(smallVolumeConfig(), field, nil)

	viewer := surfaceViewer(field, mgl64.Vec3{0, 1, 0}, 10)
	anchorChunk := cm.mesher.ChunkCoordAt(cm.anchor(viewer))

	// A frustum looking straight up cannot drop the chunks adjacent to the
	// anchor point.
	cam := core.NewOrbitalCamera(field.Radius(), 10, 90, 0)
	view := cam.Snapshot(field.Radius())
	desired := cm.DesiredChunks(viewer, &view.Frustum)
	found := false
	for _, c := range desired {
		dx, dy, dz := c.X-anchorChunk.X, c.Y-anchorChunk.Y, c.Z-anchorChunk.Z
		if dx >= -1 && dx <= 1 && dy >= -1 && dy <= 1 && dz >= -1 && dz <= 1 {
			found = true
		}
	}
	if !found {
		t.Error("frustum culling removed every chunk next to the viewer")
	}
}

func TestChunkManagerUpdateSpawnsAndRetires(t *testing.T) {
	field := smallPlanetField()
	cm := NewChunkManager(smallVolumeConfig(), field, nil)

	viewer := surfaceViewer(field, mgl64.Vec3{1, 0, 0}, 20)
	stats := cm.Update(viewer, nil)
	if stats.Spawned == 0 || stats.Live != stats.Spawned {
		t.Fatalf("first update: %+v", stats)
	}
	if stats.Pending != 0 {
		t.Errorf("pending %d with an unbounded per-update budget", stats.Pending)
	}

	// A second update at the same spot is a no-op.
	stats = cm.Update(viewer, nil)
	if stats.Spawned != 0 || stats.Retired != 0 {
		t.Errorf("steady-state update did work: %+v", stats)
	}

	if cm.Len() == 0 || len(cm.Meshes()) != cm.Len() {
		t.Fatalf("Len %d, Meshes %d", cm.Len(), len(cm.Meshes()))
	}
	meshes := cm.Meshes()
	for i := 1; i < len(meshes); i++ {
		a, b := meshes[i-1].Coord, meshes[i].Coord
		if a.Z > b.Z || (a.Z == b.Z && a.Y > b.Y) || (a.Z == b.Z && a.Y == b.Y && a.X >= b.X) {
			t.Fatal("Meshes not sorted by coordinate")
		}
	}

	// Walking to the far side retires everything left behind.
	live := cm.Len()
	stats = cm.Update(surfaceViewer(field, mgl64.Vec3{-1, 0, 0}, 20), nil)
	if stats.Retired != live {
		t.Errorf("retired %d of %d chunks after teleporting away", stats.Retired, live)
	}

	cm.Clear()
	if cm.Len() != 0 || cm.TriangleCount() != 0 {
		t.Error("Clear left chunks behind")
	}
}

func TestChunkManagerBudget(t *testing.T) {
	field := smallPlanetField()
	cfg := smallVolumeConfig()
	cfg.MaxChunksPerUpdate = 2
	cm := NewChunkManager(cfg, field, nil)

	viewer := surfaceViewer(field, mgl64.Vec3{1, 0, 0}, 20)
	total := len(cm.DesiredChunks(viewer, nil))
	if total <= cfg.MaxChunksPerUpdate {
		t.Skipf("only %d desired chunks, budget test needs more", total)
	}

	stats := cm.Update(viewer, nil)
	if stats.Spawned != cfg.MaxChunksPerUpdate {
		t.Fatalf("spawned %d, want budget %d", stats.Spawned, cfg.MaxChunksPerUpdate)
	}
	if stats.Pending != total-cfg.MaxChunksPerUpdate {
		t.Errorf("pending %d, want %d", stats.Pending, total-cfg.MaxChunksPerUpdate)
	}

	// Repeated updates drain the backlog.
	for i := 0; i < total; i++ {
		stats = cm.Update(viewer, nil)
		if stats.Pending == 0 {
			break
		}
	}
	if stats.Pending != 0 {
		t.Errorf("backlog never drained: %+v", stats)
	}
	if cm.Len() != total {
		t.Errorf("live %d, want %d", cm.Len(), total)
	}
}
