package sensor

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kestrelsense/go-kestrel/pkg/driver"
)

// Epoch is the fixed instant driver frame timestamps are measured
// from. The hardware reports seconds since this epoch; events carry
// the absolute time Epoch + timestamp.
var Epoch = time.Unix(0, 0).UTC()

// FrameEvent is one delivered frame notification. Events are built
// per callback and not retained by the adapter after dispatch.
type FrameEvent struct {
	// Timestamp is the absolute capture time (Epoch + the hardware's
	// seconds-since-epoch timestamp).
	Timestamp time.Time

	// Frame is the buffer that was committed for the stream at the
	// moment of delivery.
	Frame *FrameBuffer

	// Serial identifies the delivering device.
	Serial string

	// Seq is the per-stream delivery sequence number, starting at 1.
	Seq uint64
}

// FrameHandler consumes frame events. Handlers run synchronously on
// the driver's delivery goroutine: keep them fast, and hand the event
// off to a channel or hub for anything heavier.
type FrameHandler func(FrameEvent)

// StreamStats is a snapshot of stream state for monitoring.
type StreamStats struct {
	Delivered   uint64
	Running     bool
	Subscribers int
	Mode        string
}

// VideoStream is the managed-side mirror of one hardware video
// stream: current mode, frame buffer, running flag, and the
// subscriber list frame events are dispatched to.
//
// All state is guarded by one mutex. Configuration calls (SetMode,
// SetBuffer, Start, Stop) are expected from a single application
// goroutine; delivery arrives on the driver's goroutine and snapshots
// the committed buffer under the lock, so a concurrent mode or buffer
// swap can never hand an event a half-built wrapper. An event
// references whichever buffer was committed at the instant delivery
// took the lock.
type VideoStream struct {
	drv    driver.Driver
	handle driver.Handle
	serial string
	closed atomic.Bool

	mu        sync.RWMutex
	modes     []VideoMode
	mode      VideoMode
	caller    []byte // caller-supplied buffer; nil means adapter-managed
	buffer    *FrameBuffer
	running   bool
	seq       uint64
	delivered uint64
	subs      map[string]FrameHandler
}

// newVideoStream enumerates the driver's mode table, selects the
// first decodable mode as default, and registers the initial frame
// buffer. Descriptors the SDK cannot decode are dropped from the
// list; if nothing survives, the open fails with ErrNoSupportedModes.
func newVideoStream(drv driver.Driver, h driver.Handle, serial string) (*VideoStream, error) {
	count := drv.ModeCount(h)
	modes := make([]VideoMode, 0, count)
	for i := 0; i < count; i++ {
		desc, ok := drv.ModeAt(i)
		if !ok {
			continue
		}
		if m, ok := modeFromDescriptor(desc); ok {
			modes = append(modes, m)
		}
	}
	if len(modes) == 0 {
		return nil, ErrNoSupportedModes
	}

	s := &VideoStream{
		drv:    drv,
		handle: h,
		serial: serial,
		modes:  modes,
		mode:   modes[0],
		subs:   make(map[string]FrameHandler),
	}
	s.buffer = newFrameBuffer(s.mode, nil)
	drv.SetFrameBuffer(h, s.buffer.Bytes())
	return s, nil
}

// Modes returns the enumerated mode list, ordered as the driver
// reported it. The list is fixed for the stream's lifetime.
func (s *VideoStream) Modes() []VideoMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]VideoMode, len(s.modes))
	copy(out, s.modes)
	return out
}

// Mode returns the currently committed video mode.
func (s *VideoStream) Mode() VideoMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// SetMode switches the stream to the requested mode. The mode is
// validated against the enumerated list by format and resolution; a
// mode not in the list fails with ErrModeNotSupported before any
// driver call. A nonzero driver status surfaces as *driver.StatusError
// and leaves the committed mode unchanged. On success the mode is
// committed and the frame buffer rebuilt and re-registered for the
// new geometry.
func (s *VideoStream) SetMode(m VideoMode) error {
	if s.closed.Load() {
		return ErrClosed
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	target, ok := s.lookupLocked(m)
	if !ok {
		return fmt.Errorf("%w: %s", ErrModeNotSupported, m)
	}
	if st := s.drv.SetVideoMode(s.handle, target.token); st != driver.StatusOK {
		return st.Err(driver.OpSetMode)
	}
	s.mode = target
	s.rebuildBufferLocked()
	return nil
}

// Buffer returns the frame buffer currently registered with the
// driver.
func (s *VideoStream) Buffer() *FrameBuffer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buffer
}

// SetBuffer switches frame storage. A non-nil slice is caller-owned
// and handed to the driver directly; nil reverts to adapter-managed
// allocation sized for the current mode. Either way the wrapper is
// rebuilt and re-registered with the driver immediately, not deferred
// to the next Start.
//
// Caller-owned buffers must stay valid until replaced; their size is
// the caller's responsibility.
func (s *VideoStream) SetBuffer(buf []byte) error {
	if s.closed.Load() {
		return ErrClosed
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.caller = buf
	s.rebuildBufferLocked()
	return nil
}

// Start begins frame delivery. The frame buffer is rebuilt first to
// cover any mode or buffer change since the stream was last
// configured. A nonzero driver status surfaces as *driver.StatusError
// and leaves the running flag in its prior state.
func (s *VideoStream) Start() error {
	if s.closed.Load() {
		return ErrClosed
	}
	s.mu.Lock()
	s.rebuildBufferLocked()
	s.mu.Unlock()

	if st := s.drv.StartVideo(s.handle); st != driver.StatusOK {
		return st.Err(driver.OpStart)
	}

	s.mu.Lock()
	s.running = true
	s.mu.Unlock()
	return nil
}

// Stop halts frame delivery. A nonzero driver status surfaces as
// *driver.StatusError and leaves the running flag in its prior state.
// Stop does not fence callbacks already in flight: one event may
// still be delivered after Stop returns.
func (s *VideoStream) Stop() error {
	if s.closed.Load() {
		return ErrClosed
	}
	// The driver's stop may block until an in-flight callback
	// returns, and that callback takes the state lock; don't hold it
	// across the call.
	if st := s.drv.StopVideo(s.handle); st != driver.StatusOK {
		return st.Err(driver.OpStop)
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	return nil
}

// Running reports whether the stream is actively delivering frames.
func (s *VideoStream) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Subscribe registers a named frame handler. Re-subscribing an
// existing id replaces its handler.
func (s *VideoStream) Subscribe(id string, fn FrameHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[id] = fn
}

// Unsubscribe removes a named handler. Safe to call for ids that were
// never subscribed.
func (s *VideoStream) Unsubscribe(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}

// Stats returns a snapshot of stream state.
func (s *VideoStream) Stats() StreamStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return StreamStats{
		Delivered:   s.delivered,
		Running:     s.running,
		Subscribers: len(s.subs),
		Mode:        s.mode.String(),
	}
}

// lookupLocked finds the enumerated entry matching m by format and
// resolution, so callers can pass modes built by hand rather than
// taken from Modes().
func (s *VideoStream) lookupLocked(m VideoMode) (VideoMode, bool) {
	for _, candidate := range s.modes {
		if candidate.Equal(m) {
			return candidate, true
		}
	}
	return VideoMode{}, false
}

// rebuildBufferLocked builds the wrapper for the current mode and
// caller-buffer setting and re-registers it with the driver.
func (s *VideoStream) rebuildBufferLocked() {
	s.buffer = newFrameBuffer(s.mode, s.caller)
	s.drv.SetFrameBuffer(s.handle, s.buffer.Bytes())
}

// deliver runs on the driver's goroutine, once per completed frame.
// data aliases the registered buffer, so the event carries the
// committed wrapper rather than the raw slice. The buffer and handler
// snapshot is taken under the lock; handlers are invoked after it is
// released so a handler may reconfigure the stream without
// deadlocking.
func (s *VideoStream) deliver(data []byte, timestamp float64) {
	_ = data

	s.mu.Lock()
	s.seq++
	s.delivered++
	ev := FrameEvent{
		Timestamp: Epoch.Add(time.Duration(timestamp * float64(time.Second))),
		Frame:     s.buffer,
		Serial:    s.serial,
		Seq:       s.seq,
	}
	handlers := make([]FrameHandler, 0, len(s.subs))
	for _, fn := range s.subs {
		handlers = append(handlers, fn)
	}
	s.mu.Unlock()

	for _, fn := range handlers {
		fn(ev)
	}
}

// close marks the stream closed; subsequent configuration calls
// return ErrClosed. Called from Device.Close.
func (s *VideoStream) close() {
	s.closed.Store(true)
}
