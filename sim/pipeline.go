// Package sim runs the frame pipeline: camera and regime update, LOD
// selection, partitioned quadtree edits, patch and chunk meshing, and
// frame assembly.
package sim

import (
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"

	"planetsim/config"
	"planetsim/core"
	"planetsim/meshing"
)

// cachedPatch is a generated leaf mesh plus the inputs it was built from,
// so the pipeline can tell when a rebuild is due.
type cachedPatch struct {
	mesh      *meshing.PatchMesh
	neighbors [4]int
}

// Simulator owns the planet state and advances it one frame at a time.
// Not safe for concurrent Step calls; the internal meshing stages fan out
// to a worker pool on their own.
type Simulator struct {
	cfg *config.Config
	log *zap.Logger

	Field  *core.DensityField
	Tree   *core.Quadtree
	Camera *core.Camera

	regime   *core.RegimeManager
	cache    *meshing.VertexCache
	patchGen *meshing.PatchGenerator
	chunks   *meshing.ChunkManager

	// patch meshes keyed by node Seq, the identity that survives arena
	// slot recycling.
	meshes  map[uint64]cachedPatch
	workers int
	frame   uint64
}

// New builds a simulator from validated settings.
func New(cfg *config.Config, log *zap.Logger) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	field := core.NewDensityFieldWith(cfg.Planet.RadiusMeters, cfg.Planet.Seed, cfg.Terrain)

	var cache *meshing.VertexCache
	if cfg.Patch.EnableVertexCache {
		cache = meshing.NewVertexCache(cfg.Sim.VertexCacheSize)
	}
	workers := cfg.Sim.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	s := &Simulator{
		cfg:      cfg,
		log:      log,
		Field:    field,
		Tree:     core.NewQuadtree(cfg.Planet.MinLevel, cfg.Planet.MaxLevel),
		Camera:   core.NewOrbitalCamera(cfg.Planet.RadiusMeters, cfg.Planet.RadiusMeters*2, 30, 0),
		regime:   core.NewRegimeManager(cfg.Regime),
		cache:    cache,
		patchGen: meshing.NewPatchGenerator(cfg.Patch, field, cache, log.Named("patch")),
		chunks:   meshing.NewChunkManager(cfg.Volume, field, log.Named("chunks")),
		meshes:   make(map[uint64]cachedPatch),
		workers:  workers,
	}
	s.Camera.FOVDegrees = cfg.LOD.FOVDegrees
	log.Info("simulator ready",
		zap.Float64("radius", cfg.Planet.RadiusMeters),
		zap.Int64("seed", cfg.Planet.Seed),
		zap.Int("baseNodes", s.Tree.Len()),
		zap.Int("workers", workers))
	return s, nil
}

// Step advances the world by dt seconds and assembles the next frame.
func (s *Simulator) Step(dt float64) *Frame {
	start := time.Now()
	s.frame++
	var stats FrameStats
	stats.Frame = s.frame

	view := s.Camera.Snapshot(s.Field.Radius())
	regime, blend := s.regime.Update(view.Altitude, dt)
	stats.Regime = regime.String()
	stats.Blend = blend
	stats.Altitude = view.Altitude

	lodStart := time.Now()
	actions, _ := s.Tree.LODPass(view, s.Field, &s.cfg.LOD, dt)
	stats.LODMs = ms(time.Since(lodStart))

	editStart := time.Now()
	s.applyActions(actions, &stats)
	stats.EditMs = ms(time.Since(editStart))

	deadline := start.Add(time.Duration(s.cfg.Sim.FrameBudgetMs) * time.Millisecond)
	meshStart := time.Now()
	s.updatePatchMeshes(&stats, deadline)
	stats.MeshMs = ms(time.Since(meshStart))

	chunkStart := time.Now()
	if regime != core.RegimeQuadtree {
		cs := s.chunks.Update(view.Position, &view.Frustum)
		stats.ChunksSpawned = cs.Spawned
		stats.ChunksRetired = cs.Retired
		stats.ChunksLive = cs.Live
	} else if s.chunks.Len() > 0 {
		stats.ChunksRetired = s.chunks.Len()
		s.chunks.Clear()
	}
	stats.ChunkMs = ms(time.Since(chunkStart))
	stats.ChunkTriangles = s.chunks.TriangleCount()

	asmStart := time.Now()
	frame := s.assemble(view, regime, blend, &stats)
	stats.AssembleMs = ms(time.Since(asmStart))

	stats.TreeNodes = s.Tree.Len()
	if s.cache != nil {
		stats.CacheHits, stats.CacheMisses = s.cache.Stats()
	}
	stats.TotalMs = ms(time.Since(start))
	frame.Stats = stats

	if s.frame%120 == 0 {
		s.log.Info("frame",
			zap.Uint64("n", stats.Frame),
			zap.String("regime", stats.Regime),
			zap.Float64("altitude", stats.Altitude),
			zap.Int("leaves", stats.Leaves),
			zap.Int("visible", stats.VisibleLeaves),
			zap.Int("chunks", stats.ChunksLive),
			zap.Float64("totalMs", stats.TotalMs))
	}
	return frame
}

// applyActions commits the deferred tree edits. Interior actions are
// partitioned by face and applied by one goroutine per face, each editing
// only its own arena. Boundary actions and any cross-face balancing the
// face workers deferred run afterwards on this goroutine.
func (s *Simulator) applyActions(actions []core.Action, stats *FrameStats) {
	var interior [core.FaceCount][]core.Action
	var boundary []core.Action
	for _, a := range actions {
		if a.CrossFace {
			boundary = append(boundary, a)
		} else {
			interior[a.Node.Face] = append(interior[a.Node.Face], a)
		}
	}
	stats.CrossFaceEdits = len(boundary)

	var deferred [core.FaceCount][]core.NodeID
	var forced [core.FaceCount]int
	var counts [core.FaceCount][2]int
	var wg sync.WaitGroup
	for f := 0; f < core.FaceCount; f++ {
		if len(interior[f]) == 0 {
			continue
		}
		wg.Add(1)
		go func(f int) {
			defer wg.Done()
			for _, a := range interior[f] {
				if !s.Tree.Alive(a.Node) {
					continue
				}
				switch a.Kind {
				case core.ActionSubdivide:
					n, err := s.Tree.SubdivideLocal(a.Node, &deferred[f])
					if err != nil {
						s.log.Warn("subdivide rejected", zap.Error(err))
						continue
					}
					forced[f] += n
					counts[f][0]++
				case core.ActionMerge:
					// Recheck: a balance cascade in this face may have
					// deepened a child since the LOD pass.
					if ok, _ := s.Tree.CanMerge(a.Node, true); ok {
						s.Tree.Merge(a.Node)
						counts[f][1]++
					}
				}
			}
		}(f)
	}
	wg.Wait()
	for f := 0; f < core.FaceCount; f++ {
		stats.ForcedSubdivides += forced[f]
		stats.Subdivides += counts[f][0]
		stats.Merges += counts[f][1]
	}

	// Serial pass: boundary actions plus cross-face balance fixups the
	// face workers could not do themselves.
	for _, a := range boundary {
		if !s.Tree.Alive(a.Node) {
			continue
		}
		switch a.Kind {
		case core.ActionSubdivide:
			n, err := s.Tree.SubdivideBalanced(a.Node)
			if err != nil {
				s.log.Warn("subdivide rejected", zap.Error(err))
				continue
			}
			stats.ForcedSubdivides += n
			stats.Subdivides++
		case core.ActionMerge:
			if ok, _ := s.Tree.CanMerge(a.Node, false); ok {
				s.Tree.Merge(a.Node)
				stats.Merges++
			}
		}
	}
	for f := 0; f < core.FaceCount; f++ {
		for _, id := range deferred[f] {
			n, err := s.Tree.EnsureBalanced(id)
			if err != nil {
				s.log.Warn("balance fixup rejected", zap.Error(err))
				continue
			}
			stats.ForcedSubdivides += n
		}
	}
}

// patchJob is one leaf mesh build handed to the worker pool.
type patchJob struct {
	id        core.NodeID
	seq       uint64
	patch     core.Patch
	neighbors [4]int
	morph     float64
}

// updatePatchMeshes drops meshes of dead leaves and rebuilds leaves whose
// mesh is missing or whose neighbor levels changed since it was built.
// Visible leaves are served first; the per-frame cap and the frame budget
// bound the work, leftovers carry to the next frame.
func (s *Simulator) updatePatchMeshes(stats *FrameStats, deadline time.Time) {
	live := make(map[uint64]bool, len(s.meshes))
	var visJobs, hidJobs []patchJob
	s.Tree.Leaves(func(id core.NodeID) {
		n := s.Tree.Node(id)
		stats.Leaves++
		if n.Visible {
			stats.VisibleLeaves++
		}
		live[n.Seq] = true
		s.Tree.UpdateNeighborLevels(id)
		entry, ok := s.meshes[n.Seq]
		if ok && entry.neighbors == n.NeighborLevels {
			return
		}
		job := patchJob{id: id, seq: n.Seq, patch: n.Patch, neighbors: n.NeighborLevels, morph: n.Morph}
		if n.Visible {
			visJobs = append(visJobs, job)
		} else {
			hidJobs = append(hidJobs, job)
		}
	})
	for seq := range s.meshes {
		if !live[seq] {
			delete(s.meshes, seq)
		}
	}

	jobs := append(visJobs, hidJobs...)
	stats.PatchesPending = len(jobs)
	if max := s.cfg.Sim.MaxPatchesPerFrame; max > 0 && len(jobs) > max {
		jobs = jobs[:max]
	}
	if len(jobs) == 0 {
		return
	}

	results := make([]*meshing.PatchMesh, len(jobs))
	next := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < s.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range next {
				mesh, err := s.patchGen.Generate(jobs[i].patch, jobs[i].neighbors, jobs[i].morph)
				if err != nil {
					s.log.Warn("patch mesh rejected", zap.Error(err))
					continue
				}
				results[i] = mesh
			}
		}()
	}
	issued := 0
	for i := range jobs {
		// The deadline gates hidden work only; visible leaves always mesh
		// so what the camera sees does not depend on frame timing.
		if issued >= len(visJobs) && time.Now().After(deadline) {
			break
		}
		next <- i
		issued++
	}
	close(next)
	wg.Wait()

	for i := 0; i < issued; i++ {
		if results[i] == nil {
			continue
		}
		s.meshes[jobs[i].seq] = cachedPatch{mesh: results[i], neighbors: jobs[i].neighbors}
		stats.PatchesMeshed++
	}
	stats.PatchesPending -= stats.PatchesMeshed
}

// assemble collects visible leaves with ready meshes and live chunks into
// a renderer-facing frame, camera-relative, in deterministic leaf order.
func (s *Simulator) assemble(view *core.View, regime core.Regime, blend float64, stats *FrameStats) *Frame {
	frame := &Frame{
		Index:          s.frame,
		Regime:         regime,
		Blend:          blend,
		CameraPosition: view.Position,
		ViewProj:       view.ViewProj,
	}
	if regime != core.RegimeVolumetric {
		s.Tree.Leaves(func(id core.NodeID) {
			n := s.Tree.Node(id)
			if !n.Visible {
				return
			}
			entry, ok := s.meshes[n.Seq]
			if !ok {
				return
			}
			frame.Patches = append(frame.Patches, buildPatchDraw(entry.mesh, n.Morph, view.Position))
			stats.PatchTriangles += len(entry.mesh.Indices) / 3
		})
	}
	if regime != core.RegimeQuadtree {
		for _, m := range s.chunks.Meshes() {
			if m.Empty() {
				continue
			}
			frame.Chunks = append(frame.Chunks, buildChunkDraw(m, view.Position))
		}
	}
	return frame
}

// Chunks exposes the chunk manager, mainly for diagnostics.
func (s *Simulator) Chunks() *meshing.ChunkManager { return s.chunks }

// Frame returns the index of the last stepped frame.
func (s *Simulator) FrameIndex() uint64 { return s.frame }
