// Package driver defines the boundary to the native Kestrel camera
// driver: the flat entry-point surface the sensor layer calls into,
// plus simulated and mock implementations for development and tests.
//
// The real driver owns all USB transfer scheduling and frame decoding.
// This package only pins down the contract the sensor layer assumes:
// status codes are returned verbatim, the frame callback fires once
// per completed frame on a driver-owned goroutine, and registered
// frame buffers are written in place until replaced.
package driver

// Handle is an opaque token identifying one opened sensor unit.
// Handles are minted when a device is opened and become invalid at
// close; the driver never reuses a live handle.
type Handle uintptr

// Status is a numeric driver status code. Zero means success; any
// nonzero value is a driver-defined failure code and is surfaced to
// callers verbatim, never remapped.
type Status int32

// StatusOK is the success status code.
const StatusOK Status = 0

// FrameCallback is invoked by the driver once per completed frame.
//
// data is the memory region the frame was decoded into (the buffer
// most recently registered via SetFrameBuffer). timestamp is seconds
// since the stream epoch as reported by the hardware.
//
// The callback runs on a driver-owned goroutine, not on any goroutine
// the application controls. It may fire any time between registration
// and device close, including while a stop call is in flight.
type FrameCallback func(h Handle, data []byte, timestamp float64)

// ModeDescriptor is one entry of the driver's native mode table.
// Format and Resolution are raw wire codes (see the Raw* constants);
// Token is the native mode token passed back to SetVideoMode.
type ModeDescriptor struct {
	Token      uint32
	Format     uint16
	Resolution uint16
}

// Raw pixel format codes as reported in mode descriptors.
const (
	RawFormatDepth16 uint16 = 0x01 // 16-bit depth, millimeters
	RawFormatRGB888  uint16 = 0x02 // packed 24-bit RGB
	RawFormatYUV422  uint16 = 0x03 // not decoded by this SDK
)

// Raw resolution codes as reported in mode descriptors.
const (
	RawResolutionQVGA uint16 = 0x01 // 320x240
	RawResolutionVGA  uint16 = 0x02 // 640x480
	RawResolutionSXGA uint16 = 0x03 // 1280x1024
)

// Driver is the native entry-point surface consumed by the sensor
// layer. One method per native call; semantics follow the assumptions
// the sensor layer makes:
//
//   - SetFrameCallback: cb fires once per completed frame, any time
//     after registration until device close.
//   - StartVideo/StopVideo: zero on success, failure code otherwise.
//   - SetFrameBuffer: the driver writes subsequent frames to buf
//     until it is replaced. The caller keeps buf alive until then.
//   - SetVideoMode: zero means the mode takes effect before the next
//     frame; nonzero means the previous mode is still active.
//   - ModeCount: stable for the device's lifetime.
//   - ModeAt: valid for index in [0, ModeCount).
type Driver interface {
	SetFrameCallback(h Handle, cb FrameCallback)
	StartVideo(h Handle) Status
	StopVideo(h Handle) Status
	SetFrameBuffer(h Handle, buf []byte)
	SetVideoMode(h Handle, token uint32) Status
	ModeCount(h Handle) int
	ModeAt(index int) (ModeDescriptor, bool)
}

// Ensure the in-repo implementations satisfy the contract.
var (
	_ Driver = (*Sim)(nil)
	_ Driver = (*Mock)(nil)
)
