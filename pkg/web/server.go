// Package web provides a real-time viewer server for Kestrel devices:
// a small REST surface for mode and stream control plus websocket
// frame fan-out per device.
package web

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/kestrelsense/go-kestrel/internal/log"
	"github.com/kestrelsense/go-kestrel/pkg/hub"
	"github.com/kestrelsense/go-kestrel/pkg/sensor"
)

// Server is the viewer HTTP server.
type Server struct {
	app  *fiber.App
	mgr  *sensor.Manager
	port string

	mu   sync.RWMutex
	hubs map[string]*hub.Hub // keyed by device serial
}

// NewServer builds the server for all devices registered with mgr.
func NewServer(mgr *sensor.Manager, port string) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	app.Use(cors.New())

	s := &Server{
		app:  app,
		mgr:  mgr,
		port: port,
		hubs: make(map[string]*hub.Hub),
	}
	s.routes()
	return s
}

// Attach wires a device's frame stream into the server: a broadcast
// hub is started for it and a subscriber installed that copies each
// delivered frame off the live buffer and fans it out to websocket
// viewers.
func (s *Server) Attach(dev *sensor.Device) {
	h := hub.New(dev.Serial())
	go h.Run()

	s.mu.Lock()
	s.hubs[dev.Serial()] = h
	s.mu.Unlock()

	video := dev.Video()
	video.Subscribe("web:"+dev.Serial(), func(ev sensor.FrameEvent) {
		// The driver keeps writing into the live buffer; viewers get
		// a copy taken at delivery time.
		data := make([]byte, len(ev.Frame.Bytes()))
		copy(data, ev.Frame.Bytes())

		mode := ev.Frame.Mode()
		w, ht := mode.Resolution.Dims()
		meta := hub.FrameMeta{
			Serial:    ev.Serial,
			Seq:       ev.Seq,
			Mode:      mode.String(),
			Width:     w,
			Height:    ht,
			Timestamp: ev.Timestamp,
		}
		if err := h.BroadcastFrame(meta, data); err != nil {
			log.Warn("frame broadcast failed", "serial", ev.Serial, "err", err)
		}
	})
}

// App exposes the underlying fiber app, used by tests.
func (s *Server) App() *fiber.App { return s.app }

// Listen serves until Shutdown.
func (s *Server) Listen() error {
	log.Info("viewer listening", "port", s.port)
	return s.app.Listen(":" + s.port)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) hubFor(serial string) (*hub.Hub, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.hubs[serial]
	return h, ok
}

func (s *Server) routes() {
	api := s.app.Group("/api")
	api.Get("/devices", s.handleDevices)
	api.Get("/devices/:serial/modes", s.handleModes)
	api.Post("/devices/:serial/mode", s.handleSetMode)
	api.Post("/devices/:serial/start", s.handleStart)
	api.Post("/devices/:serial/stop", s.handleStop)
	api.Get("/devices/:serial/frame.png", s.handleSnapshot)

	s.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	s.app.Get("/ws/:serial", websocket.New(s.handleStream))
}

func (s *Server) handleStream(conn *websocket.Conn) {
	serial := conn.Params("serial")
	h, ok := s.hubFor(serial)
	if !ok {
		conn.Close()
		return
	}
	client := hub.NewClient(h, conn)
	client.Run() // blocks until the viewer disconnects
}
