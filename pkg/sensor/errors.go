package sensor

import (
	"errors"
)

// Sentinel errors for common error conditions.
var (
	// ErrModeNotSupported is returned when a requested mode is not in
	// the device's enumerated mode list. Detected before any driver
	// call; the active mode is left unchanged.
	ErrModeNotSupported = errors.New("sensor: video mode not supported by device")

	// ErrNoSupportedModes is returned at open when the driver's mode
	// table contains nothing this SDK can decode.
	ErrNoSupportedModes = errors.New("sensor: device advertises no supported video modes")

	// ErrUnknownDevice is returned when a frame callback references a
	// handle with no registered device. This is a lifecycle bug
	// (driver/registry desync), never silently dropped.
	ErrUnknownDevice = errors.New("sensor: frame callback for unregistered device handle")

	// ErrClosed is returned for operations on a closed device.
	ErrClosed = errors.New("sensor: device closed")

	// ErrAlreadyOpen is returned when opening a handle that is
	// already registered.
	ErrAlreadyOpen = errors.New("sensor: device handle already open")
)
