package driver

import (
	"sync"
)

// Mock implements Driver for testing.
// All methods can be customized via function fields; the zero-value
// behavior is a one-mode device that succeeds at everything.
type Mock struct {
	// SetFrameCallbackFunc is called when SetFrameCallback is invoked.
	// If nil, the callback is recorded and retrievable via Callback.
	SetFrameCallbackFunc func(h Handle, cb FrameCallback)

	// StartVideoFunc is called when StartVideo is invoked.
	// If nil, returns StatusOK.
	StartVideoFunc func(h Handle) Status

	// StopVideoFunc is called when StopVideo is invoked.
	// If nil, returns StatusOK.
	StopVideoFunc func(h Handle) Status

	// SetFrameBufferFunc is called when SetFrameBuffer is invoked.
	// If nil, the buffer is recorded and retrievable via Buffer.
	SetFrameBufferFunc func(h Handle, buf []byte)

	// SetVideoModeFunc is called when SetVideoMode is invoked.
	// If nil, returns StatusOK and records the token.
	SetVideoModeFunc func(h Handle, token uint32) Status

	// Modes is the mode table served by ModeCount/ModeAt.
	// If empty, a single Depth16/QVGA mode is served.
	Modes []ModeDescriptor

	// Tracking
	mu       sync.Mutex
	calls    []MockCall
	callback FrameCallback
	buffer   []byte
	token    uint32
}

// MockCall records a method invocation for verification.
type MockCall struct {
	Method string
	Handle Handle
	Token  uint32
}

var defaultMockModes = []ModeDescriptor{
	{Token: 0x10, Format: RawFormatDepth16, Resolution: RawResolutionQVGA},
}

func (m *Mock) record(method string, h Handle, token uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{Method: method, Handle: h, Token: token})
}

// Calls returns a copy of all recorded invocations.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns how many times the named method was invoked.
func (m *Mock) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Callback returns the most recently registered frame callback.
func (m *Mock) Callback() FrameCallback {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callback
}

// Buffer returns the most recently registered frame buffer.
func (m *Mock) Buffer() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.buffer
}

// Token returns the most recently committed mode token.
func (m *Mock) Token() uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// Fire invokes the registered callback as the driver would, from the
// calling goroutine. Tests use this to simulate frame delivery.
func (m *Mock) Fire(h Handle, data []byte, timestamp float64) {
	cb := m.Callback()
	if cb != nil {
		cb(h, data, timestamp)
	}
}

// SetFrameCallback implements Driver.
func (m *Mock) SetFrameCallback(h Handle, cb FrameCallback) {
	m.record("SetFrameCallback", h, 0)
	if m.SetFrameCallbackFunc != nil {
		m.SetFrameCallbackFunc(h, cb)
		return
	}
	m.mu.Lock()
	m.callback = cb
	m.mu.Unlock()
}

// StartVideo implements Driver.
func (m *Mock) StartVideo(h Handle) Status {
	m.record("StartVideo", h, 0)
	if m.StartVideoFunc != nil {
		return m.StartVideoFunc(h)
	}
	return StatusOK
}

// StopVideo implements Driver.
func (m *Mock) StopVideo(h Handle) Status {
	m.record("StopVideo", h, 0)
	if m.StopVideoFunc != nil {
		return m.StopVideoFunc(h)
	}
	return StatusOK
}

// SetFrameBuffer implements Driver.
func (m *Mock) SetFrameBuffer(h Handle, buf []byte) {
	m.record("SetFrameBuffer", h, 0)
	if m.SetFrameBufferFunc != nil {
		m.SetFrameBufferFunc(h, buf)
		return
	}
	m.mu.Lock()
	m.buffer = buf
	m.mu.Unlock()
}

// SetVideoMode implements Driver.
func (m *Mock) SetVideoMode(h Handle, token uint32) Status {
	m.record("SetVideoMode", h, token)
	if m.SetVideoModeFunc != nil {
		return m.SetVideoModeFunc(h, token)
	}
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	return StatusOK
}

// ModeCount implements Driver.
func (m *Mock) ModeCount(h Handle) int {
	if len(m.Modes) == 0 {
		return len(defaultMockModes)
	}
	return len(m.Modes)
}

// ModeAt implements Driver.
func (m *Mock) ModeAt(index int) (ModeDescriptor, bool) {
	modes := m.Modes
	if len(modes) == 0 {
		modes = defaultMockModes
	}
	if index < 0 || index >= len(modes) {
		return ModeDescriptor{}, false
	}
	return modes[index], true
}
