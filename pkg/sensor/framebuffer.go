package sensor

import (
	"encoding/binary"
	"image"
	"image/color"
)

// FrameBuffer is the memory region the driver writes decoded frame
// bytes into, wrapped with the geometry of the mode it was built for.
//
// A buffer is either adapter-owned (allocated here, sized exactly for
// the mode) or caller-supplied (wrapped as-is; per the driver contract
// the size is the caller's responsibility and is not validated).
//
// The driver writes into the underlying bytes while the stream runs,
// so pixel reads race with delivery by design: read frame data from
// inside a frame handler, or after Stop.
type FrameBuffer struct {
	data  []byte
	mode  VideoMode
	owned bool
}

// newFrameBuffer builds the buffer for mode. A nil caller slice means
// adapter-managed allocation; a non-nil slice is wrapped directly.
func newFrameBuffer(mode VideoMode, caller []byte) *FrameBuffer {
	if caller != nil {
		return &FrameBuffer{data: caller, mode: mode}
	}
	return &FrameBuffer{data: make([]byte, mode.FrameSize()), mode: mode, owned: true}
}

// Bytes returns the underlying frame storage. The driver writes into
// this slice; treat it as read-only.
func (b *FrameBuffer) Bytes() []byte { return b.data }

// Mode returns the video mode this buffer was built for.
func (b *FrameBuffer) Mode() VideoMode { return b.mode }

// Owned reports whether the adapter allocated this buffer (true) or
// the caller supplied it (false).
func (b *FrameBuffer) Owned() bool { return b.owned }

// Depth16At returns the depth sample at (x, y) in millimeters.
// Valid only for FormatDepth16 buffers; out-of-range coordinates or
// short caller-supplied buffers return 0.
func (b *FrameBuffer) Depth16At(x, y int) uint16 {
	if b.mode.Format != FormatDepth16 {
		return 0
	}
	w, h := b.mode.Resolution.Dims()
	if x < 0 || y < 0 || x >= w || y >= h {
		return 0
	}
	off := (y*w + x) * 2
	if off+2 > len(b.data) {
		return 0
	}
	return binary.LittleEndian.Uint16(b.data[off:])
}

// RGBAt returns the color sample at (x, y).
// Valid only for FormatRGB888 buffers; out-of-range coordinates or
// short caller-supplied buffers return black.
func (b *FrameBuffer) RGBAt(x, y int) (r, g, bl uint8) {
	if b.mode.Format != FormatRGB888 {
		return 0, 0, 0
	}
	w, h := b.mode.Resolution.Dims()
	if x < 0 || y < 0 || x >= w || y >= h {
		return 0, 0, 0
	}
	off := (y*w + x) * 3
	if off+3 > len(b.data) {
		return 0, 0, 0
	}
	return b.data[off], b.data[off+1], b.data[off+2]
}

// Image converts the current buffer contents to an image for preview
// or snapshot encoding: Gray16 for depth, RGBA for color. The pixel
// data is copied, so the result is stable even while frames keep
// arriving.
func (b *FrameBuffer) Image() image.Image {
	w, h := b.mode.Resolution.Dims()
	switch b.mode.Format {
	case FormatDepth16:
		img := image.NewGray16(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				img.SetGray16(x, y, color.Gray16{Y: b.Depth16At(x, y)})
			}
		}
		return img
	case FormatRGB888:
		img := image.NewRGBA(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				r, g, bl := b.RGBAt(x, y)
				img.SetRGBA(x, y, color.RGBA{R: r, G: g, B: bl, A: 0xff})
			}
		}
		return img
	default:
		return image.NewGray(image.Rect(0, 0, 0, 0))
	}
}
