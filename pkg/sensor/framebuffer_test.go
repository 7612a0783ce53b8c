package sensor

import (
	"encoding/binary"
	"image"
	"testing"
)

func TestFrameBuffer_Depth16At(t *testing.T) {
	mode := VideoMode{Format: FormatDepth16, Resolution: ResolutionQVGA}
	buf := newFrameBuffer(mode, nil)

	// Write a known sample at (5, 3).
	w, _ := mode.Resolution.Dims()
	off := (3*w + 5) * 2
	binary.LittleEndian.PutUint16(buf.Bytes()[off:], 1234)

	if got := buf.Depth16At(5, 3); got != 1234 {
		t.Errorf("Depth16At(5,3): got %d, want 1234", got)
	}
	if got := buf.Depth16At(-1, 0); got != 0 {
		t.Errorf("out-of-range read: got %d, want 0", got)
	}
	if got := buf.Depth16At(w, 0); got != 0 {
		t.Errorf("out-of-range read: got %d, want 0", got)
	}
}

func TestFrameBuffer_RGBAt(t *testing.T) {
	mode := VideoMode{Format: FormatRGB888, Resolution: ResolutionQVGA}
	buf := newFrameBuffer(mode, nil)

	w, _ := mode.Resolution.Dims()
	off := (2*w + 7) * 3
	copy(buf.Bytes()[off:], []byte{10, 20, 30})

	r, g, b := buf.RGBAt(7, 2)
	if r != 10 || g != 20 || b != 30 {
		t.Errorf("RGBAt(7,2): got (%d,%d,%d), want (10,20,30)", r, g, b)
	}

	// Depth accessor on an RGB buffer is a format mismatch.
	if got := buf.Depth16At(7, 2); got != 0 {
		t.Errorf("Depth16At on RGB buffer: got %d, want 0", got)
	}
}

func TestFrameBuffer_ShortCallerBuffer(t *testing.T) {
	mode := VideoMode{Format: FormatDepth16, Resolution: ResolutionVGA}
	// Caller supplies a buffer smaller than the mode needs; reads past
	// its end return zero instead of panicking.
	buf := newFrameBuffer(mode, make([]byte, 16))

	if buf.Owned() {
		t.Error("caller buffer reported as owned")
	}
	if got := buf.Depth16At(639, 479); got != 0 {
		t.Errorf("read past short buffer: got %d, want 0", got)
	}
}

func TestFrameBuffer_Image(t *testing.T) {
	depth := newFrameBuffer(VideoMode{Format: FormatDepth16, Resolution: ResolutionQVGA}, nil)
	if _, ok := depth.Image().(*image.Gray16); !ok {
		t.Errorf("depth image: got %T, want *image.Gray16", depth.Image())
	}

	rgb := newFrameBuffer(VideoMode{Format: FormatRGB888, Resolution: ResolutionQVGA}, nil)
	img, ok := rgb.Image().(*image.RGBA)
	if !ok {
		t.Fatalf("rgb image: got %T, want *image.RGBA", rgb.Image())
	}
	if img.Bounds().Dx() != 320 || img.Bounds().Dy() != 240 {
		t.Errorf("image bounds: got %v", img.Bounds())
	}
}
