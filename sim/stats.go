package sim

import "time"

// FrameStats is the per-frame health record, logged periodically and
// broadcast over the telemetry socket.
type FrameStats struct {
	Frame    uint64  `json:"frame"`
	Regime   string  `json:"regime"`
	Blend    float64 `json:"blend"`
	Altitude float64 `json:"altitude"`

	TreeNodes     int `json:"treeNodes"`
	Leaves        int `json:"leaves"`
	VisibleLeaves int `json:"visibleLeaves"`

	Subdivides       int `json:"subdivides"`
	Merges           int `json:"merges"`
	ForcedSubdivides int `json:"forcedSubdivides"`
	CrossFaceEdits   int `json:"crossFaceEdits"`

	PatchesMeshed  int `json:"patchesMeshed"`
	PatchesPending int `json:"patchesPending"`
	PatchTriangles int `json:"patchTriangles"`

	ChunksSpawned  int `json:"chunksSpawned"`
	ChunksRetired  int `json:"chunksRetired"`
	ChunksLive     int `json:"chunksLive"`
	ChunkTriangles int `json:"chunkTriangles"`

	CacheHits   uint64 `json:"cacheHits"`
	CacheMisses uint64 `json:"cacheMisses"`

	LODMs      float64 `json:"lodMs"`
	EditMs     float64 `json:"editMs"`
	MeshMs     float64 `json:"meshMs"`
	ChunkMs    float64 `json:"chunkMs"`
	AssembleMs float64 `json:"assembleMs"`
	TotalMs    float64 `json:"totalMs"`
}

func ms(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}
