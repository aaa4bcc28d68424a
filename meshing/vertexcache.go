package meshing

import (
	"sync"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"

	"planetsim/core"
)

// CachedVertex holds the expensive-to-compute part of a patch vertex: the
// displaced world position, terrain height and material. Normals are not
// cached, they depend on the mesh the vertex lands in.
type CachedVertex struct {
	Position mgl64.Vec3
	Height   float32
	Material core.Material
}

const cacheShards = 16 // power of two

// VertexCache is a sharded concurrent map from vertex identity to the
// generated vertex data. Patch generators on different worker goroutines
// share it so a boundary vertex is computed once no matter how many
// patches and faces touch it. Each shard evicts oldest-first when full.
type VertexCache struct {
	shards [cacheShards]cacheShard
	hits   atomic.Uint64
	misses atomic.Uint64
}

type cacheShard struct {
	mu    sync.Mutex
	m     map[core.VertexKey]CachedVertex
	order []core.VertexKey
	cap   int
}

// NewVertexCache builds a cache bounded to roughly capacity entries.
func NewVertexCache(capacity int) *VertexCache {
	if capacity < cacheShards {
		capacity = cacheShards
	}
	c := &VertexCache{}
	per := capacity / cacheShards
	for i := range c.shards {
		c.shards[i] = cacheShard{
			m:   make(map[core.VertexKey]CachedVertex, per),
			cap: per,
		}
	}
	return c
}

func (c *VertexCache) shard(k core.VertexKey) *cacheShard {
	h := uint64(k.X)*73856093 ^ uint64(k.Y)*19349663 ^ uint64(k.Z)*83492791
	return &c.shards[h&(cacheShards-1)]
}

// Get looks a vertex up, counting the hit or miss.
func (c *VertexCache) Get(k core.VertexKey) (CachedVertex, bool) {
	s := c.shard(k)
	s.mu.Lock()
	v, ok := s.m[k]
	s.mu.Unlock()
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return v, ok
}

// Put stores a vertex, evicting the oldest entry of the shard when full.
func (c *VertexCache) Put(k core.VertexKey, v CachedVertex) {
	s := c.shard(k)
	s.mu.Lock()
	if _, exists := s.m[k]; !exists {
		if len(s.m) >= s.cap {
			oldest := s.order[0]
			s.order = s.order[1:]
			delete(s.m, oldest)
		}
		s.order = append(s.order, k)
	}
	s.m[k] = v
	s.mu.Unlock()
}

// Len returns the number of cached vertices.
func (c *VertexCache) Len() int {
	total := 0
	for i := range c.shards {
		s := &c.shards[i]
		s.mu.Lock()
		total += len(s.m)
		s.mu.Unlock()
	}
	return total
}

// Stats returns cumulative hit and miss counts.
func (c *VertexCache) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}
