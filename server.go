package main

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"planetsim/config"
	"planetsim/sim"
)

// StatsMessage is the telemetry wire format.
type StatsMessage struct {
	Type  string         `json:"type"`
	Stats sim.FrameStats `json:"stats"`
}

// MeshMessage describes the current frame's geometry, sent when a client
// asks for "meshes". Counts only; the raylib viewer consumes the full
// buffers in-process.
type MeshMessage struct {
	Type    string      `json:"type"`
	Frame   uint64      `json:"frame"`
	Regime  string      `json:"regime"`
	Blend   float64     `json:"blend"`
	Patches []PatchInfo `json:"patches"`
	Chunks  []ChunkInfo `json:"chunks"`
}

// PatchInfo is one visible patch in the mesh summary.
type PatchInfo struct {
	Face      string  `json:"face"`
	Level     int     `json:"level"`
	Morph     float32 `json:"morph"`
	Triangles int     `json:"triangles"`
}

// ChunkInfo is one live chunk in the mesh summary.
type ChunkInfo struct {
	X         int `json:"x"`
	Y         int `json:"y"`
	Z         int `json:"z"`
	Triangles int `json:"triangles"`
}

// TelemetryServer broadcasts frame stats to websocket clients at a fixed
// interval. Each connection gets its own write mutex so a slow client
// cannot corrupt another client's stream.
type TelemetryServer struct {
	cfg config.ServerConfig
	log *zap.Logger

	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*websocket.Conn]*sync.Mutex
	latest  *StatsMessage
	meshes  *MeshMessage
}

// NewTelemetryServer builds a server; ListenAndServe starts it.
func NewTelemetryServer(cfg config.ServerConfig, log *zap.Logger) *TelemetryServer {
	return &TelemetryServer{
		cfg: cfg,
		log: log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]*sync.Mutex),
	}
}

// Publish records the latest frame for broadcasting: stats are pushed on
// the ticker, the mesh summary is served on request.
func (s *TelemetryServer) Publish(frame *sim.Frame) {
	msg := &MeshMessage{
		Type:   "meshes",
		Frame:  frame.Index,
		Regime: frame.Regime.String(),
		Blend:  frame.Blend,
	}
	for i := range frame.Patches {
		p := &frame.Patches[i]
		msg.Patches = append(msg.Patches, PatchInfo{
			Face:      p.Face.String(),
			Level:     p.Level,
			Morph:     p.Morph,
			Triangles: len(p.Indices) / 3,
		})
	}
	for i := range frame.Chunks {
		c := &frame.Chunks[i]
		msg.Chunks = append(msg.Chunks, ChunkInfo{
			X: c.Coord.X, Y: c.Coord.Y, Z: c.Coord.Z,
			Triangles: len(c.Indices) / 3,
		})
	}

	s.mu.Lock()
	s.latest = &StatsMessage{Type: "stats", Stats: frame.Stats}
	s.meshes = msg
	s.mu.Unlock()
}

// ListenAndServe runs the HTTP endpoint and the broadcast ticker. Blocks.
func (s *TelemetryServer) ListenAndServe() {
	go s.broadcastLoop()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	s.log.Info("telemetry listening", zap.String("addr", s.cfg.Addr))
	if err := http.ListenAndServe(s.cfg.Addr, mux); err != nil {
		s.log.Error("telemetry server stopped", zap.Error(err))
	}
}

func (s *TelemetryServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	connMutex := &sync.Mutex{}
	s.mu.Lock()
	s.clients[conn] = connMutex
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
	}()
	s.log.Info("telemetry client connected", zap.String("remote", conn.RemoteAddr().String()))

	// Send the latest snapshot immediately.
	s.mu.RLock()
	latest := s.latest
	s.mu.RUnlock()
	if latest != nil {
		connMutex.Lock()
		_ = conn.WriteJSON(latest)
		connMutex.Unlock()
	}

	// Serve mesh summaries on request; any read error means the client
	// went away.
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if string(data) != "meshes" {
			continue
		}
		s.mu.RLock()
		meshes := s.meshes
		s.mu.RUnlock()
		if meshes == nil {
			continue
		}
		connMutex.Lock()
		err = conn.WriteJSON(meshes)
		connMutex.Unlock()
		if err != nil {
			return
		}
	}
}

func (s *TelemetryServer) broadcastLoop() {
	interval := time.Duration(s.cfg.UpdateIntervalMs) * time.Millisecond
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		s.mu.RLock()
		latest := s.latest
		var failed []*websocket.Conn
		for conn, mu := range s.clients {
			if latest == nil {
				continue
			}
			mu.Lock()
			err := conn.WriteJSON(latest)
			mu.Unlock()
			if err != nil {
				conn.Close()
				failed = append(failed, conn)
			}
		}
		s.mu.RUnlock()

		if len(failed) > 0 {
			s.mu.Lock()
			for _, conn := range failed {
				delete(s.clients, conn)
			}
			s.mu.Unlock()
		}
	}
}
