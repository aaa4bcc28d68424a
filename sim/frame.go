package sim

import (
	"github.com/go-gl/mathgl/mgl64"

	"planetsim/core"
	"planetsim/meshing"
)

// PatchDraw is one quadtree patch flattened into camera-relative float32
// buffers. Positions and morph targets are interleaved xyz triples; the
// viewer blends position toward morph target by the patch morph factor.
type PatchDraw struct {
	Face  core.Face
	Level int
	Morph float32

	Positions    []float32
	MorphTargets []float32
	Normals      []float32
	Heights      []float32
	Materials    []uint8
	Indices      []uint32

	// SurfaceIndexCount is the prefix of Indices that excludes skirts,
	// for wireframe or debug rendering.
	SurfaceIndexCount int
}

// ChunkDraw is one marching-cubes chunk in camera-relative float32 form.
type ChunkDraw struct {
	Coord     meshing.ChunkCoord
	Positions []float32
	Normals   []float32
	Colors    []float32
	Indices   []uint32
}

// Frame is the assembled output of one pipeline step: everything a
// renderer needs, with no pointers back into the simulation.
type Frame struct {
	Index  uint64
	Regime core.Regime
	// Blend weights the volumetric layer against the patch layer in the
	// transition regime: 0 pure patches, 1 pure chunks.
	Blend float64

	CameraPosition mgl64.Vec3
	ViewProj       mgl64.Mat4

	Patches []PatchDraw
	Chunks  []ChunkDraw

	Stats FrameStats
}

// buildPatchDraw flattens a patch mesh relative to the camera position.
func buildPatchDraw(mesh *meshing.PatchMesh, morph float64, eye mgl64.Vec3) PatchDraw {
	n := len(mesh.Vertices)
	d := PatchDraw{
		Face:              mesh.Face,
		Level:             mesh.Level,
		Morph:             float32(morph),
		Positions:         make([]float32, 0, n*3),
		MorphTargets:      make([]float32, 0, n*3),
		Normals:           make([]float32, 0, n*3),
		Heights:           make([]float32, 0, n),
		Materials:         make([]uint8, 0, n),
		Indices:           mesh.Indices,
		SurfaceIndexCount: mesh.SurfaceIndexCount,
	}
	for i := range mesh.Vertices {
		v := &mesh.Vertices[i]
		p := v.Position.Sub(eye)
		m := v.MorphTarget.Sub(eye)
		d.Positions = append(d.Positions, float32(p[0]), float32(p[1]), float32(p[2]))
		d.MorphTargets = append(d.MorphTargets, float32(m[0]), float32(m[1]), float32(m[2]))
		d.Normals = append(d.Normals, v.Normal[0], v.Normal[1], v.Normal[2])
		d.Heights = append(d.Heights, v.Height)
		d.Materials = append(d.Materials, uint8(v.Material))
	}
	return d
}

// buildChunkDraw flattens a chunk mesh relative to the camera position.
func buildChunkDraw(mesh *meshing.ChunkMesh, eye mgl64.Vec3) ChunkDraw {
	n := len(mesh.Vertices)
	d := ChunkDraw{
		Coord:     mesh.Coord,
		Positions: make([]float32, 0, n*3),
		Normals:   make([]float32, 0, n*3),
		Colors:    make([]float32, 0, n*3),
		Indices:   mesh.Indices,
	}
	for i := range mesh.Vertices {
		v := &mesh.Vertices[i]
		p := v.Position.Sub(eye)
		d.Positions = append(d.Positions, float32(p[0]), float32(p[1]), float32(p[2]))
		d.Normals = append(d.Normals, v.Normal[0], v.Normal[1], v.Normal[2])
		d.Colors = append(d.Colors, v.Color[0], v.Color[1], v.Color[2])
	}
	return d
}
