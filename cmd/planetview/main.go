// planetview is an interactive viewer for the planet renderer. It steps
// the simulation pipeline every frame and draws the assembled patch and
// chunk meshes with raylib. Geometry arrives camera-relative, so the
// raylib camera sits at the origin and only rotates.
package main

import (
	"flag"
	"fmt"
	"math"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"
	"go.uber.org/zap"

	"planetsim/config"
	"planetsim/core"
	"planetsim/logger"
	"planetsim/sim"
)

const maxDrawTriangles = 200000

func main() {
	var (
		configPath = flag.String("config", "", "Config file path")
		width      = flag.Int("width", 1280, "Window width")
		height     = flag.Int("height", 720, "Window height")
		altitude   = flag.Float64("altitude", 2000000, "Start altitude in meters")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg.LOD.ScreenHeight = *height

	log := logger.New(cfg.Logging.Level, cfg.Logging.LogFile)
	defer log.Sync() //nolint:errcheck

	s, err := sim.New(cfg, log)
	if err != nil {
		log.Fatal("setup failed", zap.Error(err))
	}

	rl.InitWindow(int32(*width), int32(*height), "planetsim viewer")
	defer rl.CloseWindow()
	rl.SetTargetFPS(60)

	radius := s.Field.Radius()
	lat, lon := 30.0, 0.0
	alt := *altitude
	paused := false
	wireframe := false

	camera := rl.Camera3D{
		Position:   rl.NewVector3(0, 0, 0),
		Up:         rl.NewVector3(0, 1, 0),
		Fovy:       float32(cfg.LOD.FOVDegrees),
		Projection: rl.CameraPerspective,
	}

	var frame *sim.Frame
	for !rl.WindowShouldClose() {
		dt := float64(rl.GetFrameTime())
		if dt <= 0 {
			dt = 1.0 / 60.0
		}

		if rl.IsKeyPressed(rl.KeySpace) {
			paused = !paused
		}
		if rl.IsKeyPressed(rl.KeyTab) {
			wireframe = !wireframe
		}
		if rl.IsKeyDown(rl.KeyUp) {
			alt *= math.Pow(0.5, dt)
		}
		if rl.IsKeyDown(rl.KeyDown) {
			alt *= math.Pow(2.0, dt)
		}
		if rl.IsKeyDown(rl.KeyLeft) {
			lon -= 20 * dt * math.Min(alt/radius, 1)
		}
		if rl.IsKeyDown(rl.KeyRight) {
			lon += 20 * dt * math.Min(alt/radius, 1)
		}
		if rl.IsKeyDown(rl.KeyPageUp) {
			lat = math.Min(lat+10*dt, 89)
		}
		if rl.IsKeyDown(rl.KeyPageDown) {
			lat = math.Max(lat-10*dt, -89)
		}
		if alt < 50 {
			alt = 50
		}

		if !paused || frame == nil {
			s.Camera.SetOrbit(radius, alt, lat, lon)
			frame = s.Step(dt)
		}

		// The sim camera looks at the planet center; replicate that
		// orientation around the origin.
		toCenter := frame.CameraPosition.Mul(-1).Normalize()
		camera.Target = rl.NewVector3(float32(toCenter[0]), float32(toCenter[1]), float32(toCenter[2]))
		camera.Up = rl.NewVector3(float32(s.Camera.Up[0]), float32(s.Camera.Up[1]), float32(s.Camera.Up[2]))

		rl.BeginDrawing()
		rl.ClearBackground(rl.NewColor(5, 5, 15, 255))
		rl.BeginMode3D(camera)
		drawn := drawFrame(frame, wireframe)
		rl.EndMode3D()

		hud := fmt.Sprintf("alt %.0f m  regime %s  blend %.2f  leaves %d  visible %d  tris %d",
			frame.Stats.Altitude, frame.Stats.Regime, frame.Blend,
			frame.Stats.Leaves, frame.Stats.VisibleLeaves, drawn)
		rl.DrawText(hud, 10, 10, 18, rl.RayWhite)
		rl.DrawText("arrows: move  pgup/pgdn: latitude  space: pause  tab: wireframe", 10, 34, 14, rl.Gray)
		rl.DrawFPS(int32(*width)-100, 10)
		rl.EndDrawing()
	}
}

// lightDir is a fixed sun for cheap per-triangle shading.
var lightDir = [3]float32{0.5, 0.7, 0.5}

func drawFrame(frame *sim.Frame, wireframe bool) int {
	drawn := 0
	patchWeight := 1.0 - frame.Blend
	for pi := range frame.Patches {
		p := &frame.Patches[pi]
		if patchWeight <= 0 {
			break
		}
		count := len(p.Indices)
		if !wireframe {
			count = p.SurfaceIndexCount
		}
		for i := 0; i+2 < count && drawn < maxDrawTriangles; i += 3 {
			a := patchVertex(p, p.Indices[i])
			b := patchVertex(p, p.Indices[i+1])
			c := patchVertex(p, p.Indices[i+2])
			col := shade(materialColor(p, p.Indices[i]), p.Normals, p.Indices[i])
			if wireframe {
				rl.DrawLine3D(a, b, col)
				rl.DrawLine3D(b, c, col)
				rl.DrawLine3D(c, a, col)
			} else {
				rl.DrawTriangle3D(a, b, c, col)
			}
			drawn++
		}
	}
	for ci := range frame.Chunks {
		if frame.Blend <= 0 {
			break
		}
		ch := &frame.Chunks[ci]
		for i := 0; i+2 < len(ch.Indices) && drawn < maxDrawTriangles; i += 3 {
			a := chunkVertex(ch, ch.Indices[i])
			b := chunkVertex(ch, ch.Indices[i+1])
			c := chunkVertex(ch, ch.Indices[i+2])
			col := shade(chunkColor(ch, ch.Indices[i]), ch.Normals, ch.Indices[i])
			if wireframe {
				rl.DrawLine3D(a, b, col)
				rl.DrawLine3D(b, c, col)
				rl.DrawLine3D(c, a, col)
			} else {
				rl.DrawTriangle3D(a, b, c, col)
			}
			drawn++
		}
	}
	return drawn
}

// patchVertex blends a patch vertex toward its morph target by the patch
// morph factor, in camera-relative space.
func patchVertex(p *sim.PatchDraw, idx uint32) rl.Vector3 {
	i := int(idx) * 3
	m := p.Morph
	return rl.NewVector3(
		p.Positions[i]+(p.MorphTargets[i]-p.Positions[i])*m,
		p.Positions[i+1]+(p.MorphTargets[i+1]-p.Positions[i+1])*m,
		p.Positions[i+2]+(p.MorphTargets[i+2]-p.Positions[i+2])*m,
	)
}

func chunkVertex(c *sim.ChunkDraw, idx uint32) rl.Vector3 {
	i := int(idx) * 3
	return rl.NewVector3(c.Positions[i], c.Positions[i+1], c.Positions[i+2])
}

func materialColor(p *sim.PatchDraw, idx uint32) [3]float32 {
	return core.Material(p.Materials[idx]).Color()
}

func chunkColor(c *sim.ChunkDraw, idx uint32) [3]float32 {
	i := int(idx) * 3
	return [3]float32{c.Colors[i], c.Colors[i+1], c.Colors[i+2]}
}

func shade(rgb [3]float32, normals []float32, idx uint32) rl.Color {
	i := int(idx) * 3
	dot := normals[i]*lightDir[0] + normals[i+1]*lightDir[1] + normals[i+2]*lightDir[2]
	l := 0.35 + 0.65*maxf(dot, 0)
	return rl.NewColor(
		uint8(clampf(rgb[0]*l)*255),
		uint8(clampf(rgb[1]*l)*255),
		uint8(clampf(rgb[2]*l)*255),
		255,
	)
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func clampf(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
