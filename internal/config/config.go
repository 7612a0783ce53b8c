// Package config provides configuration helpers for go-kestrel commands.
package config

import (
	"os"
	"strconv"
)

// Default daemon configuration.
const (
	DefaultViewerPort = "8420"
	DefaultSimFPS     = 30
	DefaultSimDevices = 1
	DefaultRTPMTU     = 1200
)

// ViewerPort returns the viewer HTTP port from KESTREL_PORT.
// Falls back to DefaultViewerPort if not set.
func ViewerPort() string {
	if port := os.Getenv("KESTREL_PORT"); port != "" {
		return port
	}
	return DefaultViewerPort
}

// LogLevel returns the log level from KESTREL_LOG ("debug", "info",
// "warn", "error"). Empty means the logger's default.
func LogLevel() string {
	return os.Getenv("KESTREL_LOG")
}

// SimFPS returns the simulated frame rate from KESTREL_SIM_FPS.
// Falls back to DefaultSimFPS on missing or unparseable values.
func SimFPS() int {
	if v := os.Getenv("KESTREL_SIM_FPS"); v != "" {
		if fps, err := strconv.Atoi(v); err == nil && fps > 0 {
			return fps
		}
	}
	return DefaultSimFPS
}

// SimDevices returns how many simulated devices to open, from
// KESTREL_SIM_DEVICES. Falls back to DefaultSimDevices.
func SimDevices() int {
	if v := os.Getenv("KESTREL_SIM_DEVICES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return DefaultSimDevices
}

// RTPTarget returns the RTP export address from KESTREL_RTP_ADDR
// (host:port). Empty disables RTP export.
func RTPTarget() string {
	return os.Getenv("KESTREL_RTP_ADDR")
}
