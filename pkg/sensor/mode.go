package sensor

import (
	"fmt"

	"github.com/kestrelsense/go-kestrel/pkg/driver"
)

// PixelFormat is the decoded pixel layout of a video stream.
type PixelFormat int

const (
	FormatUnknown PixelFormat = iota
	// FormatDepth16 is 16-bit little-endian depth in millimeters.
	FormatDepth16
	// FormatRGB888 is packed 24-bit RGB.
	FormatRGB888
)

// BytesPerPixel returns the storage size of one pixel, or 0 for
// unknown formats.
func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case FormatDepth16:
		return 2
	case FormatRGB888:
		return 3
	default:
		return 0
	}
}

// String implements fmt.Stringer.
func (f PixelFormat) String() string {
	switch f {
	case FormatDepth16:
		return "depth16"
	case FormatRGB888:
		return "rgb888"
	default:
		return "unknown"
	}
}

// Resolution is a supported output geometry.
type Resolution int

const (
	ResolutionUnknown Resolution = iota
	ResolutionQVGA               // 320x240
	ResolutionVGA                // 640x480
	ResolutionSXGA               // 1280x1024
)

// Dims returns the width and height in pixels, or zeros for unknown
// resolutions.
func (r Resolution) Dims() (width, height int) {
	switch r {
	case ResolutionQVGA:
		return 320, 240
	case ResolutionVGA:
		return 640, 480
	case ResolutionSXGA:
		return 1280, 1024
	default:
		return 0, 0
	}
}

// String implements fmt.Stringer.
func (r Resolution) String() string {
	w, h := r.Dims()
	if w == 0 {
		return "unknown"
	}
	return fmt.Sprintf("%dx%d", w, h)
}

// VideoMode is a semantic (pixel format, resolution) pair backed by a
// native mode token. Modes are enumerated once at stream construction
// and immutable thereafter.
type VideoMode struct {
	Format     PixelFormat
	Resolution Resolution

	// token is the native descriptor token committed to the driver.
	// Two modes with equal Format and Resolution are the same mode
	// regardless of token; see Equal.
	token uint32
}

// Equal reports whether two modes describe the same configuration.
// Comparison is by format and resolution, not token identity.
func (m VideoMode) Equal(o VideoMode) bool {
	return m.Format == o.Format && m.Resolution == o.Resolution
}

// FrameSize returns the byte size of one frame in this mode.
func (m VideoMode) FrameSize() int {
	w, h := m.Resolution.Dims()
	return w * h * m.Format.BytesPerPixel()
}

// String implements fmt.Stringer.
func (m VideoMode) String() string {
	return fmt.Sprintf("%s@%s", m.Format, m.Resolution)
}

// modeFromDescriptor converts a native mode descriptor to a semantic
// mode. Descriptors with format or resolution codes this SDK cannot
// decode are rejected and dropped from the enumerated list.
func modeFromDescriptor(d driver.ModeDescriptor) (VideoMode, bool) {
	var f PixelFormat
	switch d.Format {
	case driver.RawFormatDepth16:
		f = FormatDepth16
	case driver.RawFormatRGB888:
		f = FormatRGB888
	default:
		return VideoMode{}, false
	}

	var r Resolution
	switch d.Resolution {
	case driver.RawResolutionQVGA:
		r = ResolutionQVGA
	case driver.RawResolutionVGA:
		r = ResolutionVGA
	case driver.RawResolutionSXGA:
		r = ResolutionSXGA
	default:
		return VideoMode{}, false
	}

	return VideoMode{Format: f, Resolution: r, token: d.Token}, true
}
