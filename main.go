package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"planetsim/config"
	"planetsim/core"
	"planetsim/logger"
	"planetsim/sim"
)

func main() {
	var (
		configPath = flag.String("config", "", "Config file path (default: ./planetsim.yaml if present)")
		emitConfig = flag.String("emit-config", "", "Write the default config as YAML to this path and exit")
		frames     = flag.Int("frames", 600, "Number of frames to simulate")
		dt         = flag.Float64("dt", 1.0/60.0, "Fixed timestep in seconds")
		startAlt   = flag.Float64("start-altitude", 2000000, "Camera start altitude in meters")
		endAlt     = flag.Float64("end-altitude", 200, "Camera end altitude in meters")
		lat        = flag.Float64("lat", 30, "Camera latitude in degrees")
		lon        = flag.Float64("lon", 0, "Camera start longitude in degrees")
		orbitRate  = flag.Float64("orbit-rate", 0.5, "Camera longitude drift in degrees per second")
		statsPath  = flag.String("stats", "", "Write final run stats as JSON to this path")
		levelMap   = flag.String("level-map", "", "Write an equirectangular PPM of final leaf levels to this path")
		serveAddr  = flag.String("serve", "", "Serve telemetry on this address (overrides config)")
	)
	flag.Parse()

	if *emitConfig != "" {
		if err := config.Save(config.Default(), *emitConfig); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *serveAddr != "" {
		cfg.Server.Enabled = true
		cfg.Server.Addr = *serveAddr
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.LogFile)
	defer log.Sync() //nolint:errcheck

	s, err := sim.New(cfg, log)
	if err != nil {
		log.Fatal("setup failed", zap.Error(err))
	}

	var server *TelemetryServer
	if cfg.Server.Enabled {
		server = NewTelemetryServer(cfg.Server, log.Named("telemetry"))
		go server.ListenAndServe()
	}

	run := runDescent(s, server, runParams{
		frames:    *frames,
		dt:        *dt,
		startAlt:  *startAlt,
		endAlt:    *endAlt,
		lat:       *lat,
		lon:       *lon,
		orbitRate: *orbitRate,
	}, log)

	if err := s.Tree.CheckBalance(); err != nil {
		log.Error("tree left unbalanced", zap.Error(err))
	}

	if *statsPath != "" {
		data, err := json.MarshalIndent(run, "", "  ")
		if err == nil {
			err = os.WriteFile(*statsPath, data, 0o644)
		}
		if err != nil {
			log.Error("writing stats", zap.Error(err))
		}
	}
	if *levelMap != "" {
		if err := writeLevelMap(s, *levelMap, 1024, 512); err != nil {
			log.Error("writing level map", zap.Error(err))
		}
	}
	log.Info("run complete",
		zap.Int("frames", run.Frames),
		zap.Float64("avgFrameMs", run.AvgFrameMs),
		zap.Float64("maxFrameMs", run.MaxFrameMs),
		zap.Int("peakLeaves", run.PeakLeaves),
		zap.Int("patchesMeshed", run.PatchesMeshed),
		zap.Int("chunksSpawned", run.ChunksSpawned))
}

type runParams struct {
	frames    int
	dt        float64
	startAlt  float64
	endAlt    float64
	lat       float64
	lon       float64
	orbitRate float64
}

// RunStats aggregates a whole scripted run.
type RunStats struct {
	Frames        int            `json:"frames"`
	AvgFrameMs    float64        `json:"avgFrameMs"`
	MaxFrameMs    float64        `json:"maxFrameMs"`
	PeakLeaves    int            `json:"peakLeaves"`
	PeakVisible   int            `json:"peakVisible"`
	PatchesMeshed int            `json:"patchesMeshed"`
	ChunksSpawned int            `json:"chunksSpawned"`
	FinalRegime   string         `json:"finalRegime"`
	Final         sim.FrameStats `json:"finalFrame"`
}

// runDescent flies the camera down from orbit to the surface on a fixed
// timestep, stepping the pipeline each frame. The altitude follows an
// exponential ramp so every regime gets a proportionate share of frames.
func runDescent(s *sim.Simulator, server *TelemetryServer, p runParams, log *zap.Logger) RunStats {
	radius := s.Field.Radius()
	total := float64(p.frames) * p.dt
	logRatio := math.Log(p.endAlt / p.startAlt)

	var run RunStats
	var sumMs float64
	start := time.Now()
	for i := 0; i < p.frames; i++ {
		t := float64(i) * p.dt
		altitude := p.startAlt * math.Exp(logRatio*t/total)
		lon := p.lon + p.orbitRate*t
		s.Camera.SetOrbit(radius, altitude, p.lat, lon)

		frame := s.Step(p.dt)
		st := &frame.Stats

		sumMs += st.TotalMs
		if st.TotalMs > run.MaxFrameMs {
			run.MaxFrameMs = st.TotalMs
		}
		if st.Leaves > run.PeakLeaves {
			run.PeakLeaves = st.Leaves
		}
		if st.VisibleLeaves > run.PeakVisible {
			run.PeakVisible = st.VisibleLeaves
		}
		run.PatchesMeshed += st.PatchesMeshed
		run.ChunksSpawned += st.ChunksSpawned
		run.FinalRegime = st.Regime
		run.Final = *st

		if server != nil {
			server.Publish(frame)
		}
	}
	run.Frames = p.frames
	if p.frames > 0 {
		run.AvgFrameMs = sumMs / float64(p.frames)
	}
	log.Info("descent finished",
		zap.Duration("wall", time.Since(start)),
		zap.String("regime", run.FinalRegime))
	return run
}

// writeLevelMap renders the final quadtree refinement as an equirectangular
// grayscale PPM: one pixel per latitude/longitude sample, brighter where the
// tree is deeper. A cheap headless look at where the LOD budget went.
func writeLevelMap(s *sim.Simulator, path string, width, height int) error {
	levels := make([]int, width*height)
	maxLevel := 1
	for y := 0; y < height; y++ {
		lat := (0.5 - (float64(y)+0.5)/float64(height)) * math.Pi
		for x := 0; x < width; x++ {
			lon := ((float64(x)+0.5)/float64(width) - 0.5) * 2 * math.Pi
			dir := mgl64.Vec3{
				math.Cos(lat) * math.Cos(lon),
				math.Sin(lat),
				math.Cos(lat) * math.Sin(lon),
			}
			face, u, v := core.CubeFaceUV(core.SphereToCube(dir))
			level := s.Tree.Node(s.Tree.LeafAt(face, u, v)).Patch.Level
			levels[y*width+x] = level
			if level > maxLevel {
				maxLevel = level
			}
		}
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "P6\n%d %d\n255\n", width, height)
	for _, level := range levels {
		shade := byte(40 + 215*level/maxLevel)
		buf.Write([]byte{shade, shade, shade})
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
