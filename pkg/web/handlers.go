package web

import (
	"bytes"
	"errors"
	"image/png"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/kestrelsense/go-kestrel/pkg/driver"
	"github.com/kestrelsense/go-kestrel/pkg/sensor"
)

// DeviceInfo is the JSON shape of one device in list responses.
type DeviceInfo struct {
	Serial    string `json:"serial"`
	Mode      string `json:"mode"`
	Running   bool   `json:"running"`
	Delivered uint64 `json:"delivered"`
	Viewers   int    `json:"viewers"`
}

// ModeInfo is the JSON shape of one enumerated video mode.
type ModeInfo struct {
	Format     string `json:"format"`
	Resolution string `json:"resolution"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	FrameSize  int    `json:"frame_size"`
}

// ModeRequest selects a mode by format and resolution strings, as
// rendered in ModeInfo ("depth16", "640x480").
type ModeRequest struct {
	Format     string `json:"format"`
	Resolution string `json:"resolution"`
}

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Error string `json:"error"`
	// Code carries the driver status code when the failure came from
	// the native driver.
	Code int32 `json:"code,omitempty"`
}

func (s *Server) handleDevices(c *fiber.Ctx) error {
	devices := s.mgr.Devices()
	out := make([]DeviceInfo, 0, len(devices))
	for _, dev := range devices {
		stats := dev.Video().Stats()
		viewers := 0
		if h, ok := s.hubFor(dev.Serial()); ok {
			viewers = h.ClientCount()
		}
		out = append(out, DeviceInfo{
			Serial:    dev.Serial(),
			Mode:      stats.Mode,
			Running:   stats.Running,
			Delivered: stats.Delivered,
			Viewers:   viewers,
		})
	}
	return c.JSON(out)
}

func (s *Server) handleModes(c *fiber.Ctx) error {
	dev, ok := s.mgr.DeviceBySerial(c.Params("serial"))
	if !ok {
		return deviceNotFound(c)
	}
	modes := dev.Video().Modes()
	out := make([]ModeInfo, 0, len(modes))
	for _, m := range modes {
		w, h := m.Resolution.Dims()
		out = append(out, ModeInfo{
			Format:     m.Format.String(),
			Resolution: m.Resolution.String(),
			Width:      w,
			Height:     h,
			FrameSize:  m.FrameSize(),
		})
	}
	return c.JSON(out)
}

func (s *Server) handleSetMode(c *fiber.Ctx) error {
	dev, ok := s.mgr.DeviceBySerial(c.Params("serial"))
	if !ok {
		return deviceNotFound(c)
	}
	var req ModeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{Error: "malformed mode request"})
	}
	mode, ok := parseMode(req)
	if !ok {
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Error: "unknown format or resolution",
		})
	}
	if err := dev.Video().SetMode(mode); err != nil {
		return sensorError(c, err)
	}
	return c.JSON(fiber.Map{"mode": dev.Video().Mode().String()})
}

func (s *Server) handleStart(c *fiber.Ctx) error {
	dev, ok := s.mgr.DeviceBySerial(c.Params("serial"))
	if !ok {
		return deviceNotFound(c)
	}
	if err := dev.Video().Start(); err != nil {
		return sensorError(c, err)
	}
	return c.JSON(fiber.Map{"running": true})
}

func (s *Server) handleStop(c *fiber.Ctx) error {
	dev, ok := s.mgr.DeviceBySerial(c.Params("serial"))
	if !ok {
		return deviceNotFound(c)
	}
	if err := dev.Video().Stop(); err != nil {
		return sensorError(c, err)
	}
	return c.JSON(fiber.Map{"running": false})
}

// handleSnapshot encodes the live frame buffer as PNG. The driver may
// be mid-write, so a snapshot of a running stream can show a partially
// updated frame; that is inherent to live preview.
func (s *Server) handleSnapshot(c *fiber.Ctx) error {
	dev, ok := s.mgr.DeviceBySerial(c.Params("serial"))
	if !ok {
		return deviceNotFound(c)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, dev.Video().Buffer().Image()); err != nil {
		return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{Error: err.Error()})
	}
	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(buf.Bytes())
}

func deviceNotFound(c *fiber.Ctx) error {
	return c.Status(http.StatusNotFound).JSON(ErrorResponse{Error: "device not found"})
}

// sensorError maps adapter errors onto HTTP statuses: rejected
// configuration is the client's fault, driver status codes are a bad
// gateway with the code attached, closed devices are gone.
func sensorError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, sensor.ErrModeNotSupported):
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	case errors.Is(err, sensor.ErrClosed):
		return c.Status(http.StatusGone).JSON(ErrorResponse{Error: err.Error()})
	}
	if se, ok := driver.AsStatusError(err); ok {
		return c.Status(http.StatusBadGateway).JSON(ErrorResponse{
			Error: se.Error(),
			Code:  int32(se.Code),
		})
	}
	return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{Error: err.Error()})
}

// parseMode maps request strings back onto the semantic enums.
func parseMode(req ModeRequest) (sensor.VideoMode, bool) {
	var mode sensor.VideoMode
	switch req.Format {
	case sensor.FormatDepth16.String():
		mode.Format = sensor.FormatDepth16
	case sensor.FormatRGB888.String():
		mode.Format = sensor.FormatRGB888
	default:
		return sensor.VideoMode{}, false
	}
	for _, r := range []sensor.Resolution{
		sensor.ResolutionQVGA, sensor.ResolutionVGA, sensor.ResolutionSXGA,
	} {
		if r.String() == req.Resolution {
			mode.Resolution = r
			return mode, true
		}
	}
	return sensor.VideoMode{}, false
}
