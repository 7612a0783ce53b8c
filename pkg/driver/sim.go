package driver

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Names of the driver calls that return status codes. Used both for
// StatusError.Op and for failure injection on the simulated driver.
const (
	OpStart   = "start"
	OpStop    = "stop"
	OpSetMode = "set_mode"
)

// Status codes the simulated driver returns on failure. Real hardware
// reports its own codes; the SDK treats all of them opaquely.
const (
	StatusInvalidMode Status = 22
	StatusDeviceGone  Status = 19
)

// Default frame interval for the simulated driver (30 fps).
const defaultSimInterval = time.Second / 30

// Sim is an in-process simulated driver. It honors the full Driver
// contract: a fixed mode table, per-handle callback and buffer
// registration, and a ticker-driven generator goroutine that writes a
// synthetic pattern into the registered buffer and fires the frame
// callback with timestamps in seconds since stream start.
//
// Sim also exposes what the Driver interface deliberately leaves out:
// Open/CloseDevice for minting handles (device enumeration happens
// outside the flat call surface) and FailWith for injecting status
// codes in tests.
type Sim struct {
	mu       sync.Mutex
	modes    []ModeDescriptor
	devs     map[Handle]*simDevice
	next     Handle
	interval time.Duration
	failures map[string]Status
}

type simDevice struct {
	serial  string
	cb      FrameCallback
	buf     []byte
	mode    ModeDescriptor
	running bool
	stop    chan struct{}
	done    chan struct{}
}

// NewSim creates a simulated driver with the default Kestrel mode
// table. The YUV422 entry is deliberate: real hardware advertises it,
// and the sensor layer is expected to drop what it cannot decode.
func NewSim() *Sim {
	return &Sim{
		modes: []ModeDescriptor{
			{Token: 0x10, Format: RawFormatDepth16, Resolution: RawResolutionQVGA},
			{Token: 0x11, Format: RawFormatDepth16, Resolution: RawResolutionVGA},
			{Token: 0x20, Format: RawFormatRGB888, Resolution: RawResolutionQVGA},
			{Token: 0x21, Format: RawFormatRGB888, Resolution: RawResolutionVGA},
			{Token: 0x22, Format: RawFormatRGB888, Resolution: RawResolutionSXGA},
			{Token: 0x30, Format: RawFormatYUV422, Resolution: RawResolutionVGA},
		},
		devs:     make(map[Handle]*simDevice),
		next:     1,
		interval: defaultSimInterval,
		failures: make(map[string]Status),
	}
}

// SetInterval overrides the frame interval. Tests use short intervals;
// the default is 30 fps.
func (s *Sim) SetInterval(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interval = d
}

// FailWith makes the named op (OpStart, OpStop, OpSetMode) return the
// given status code until cleared with StatusOK.
func (s *Sim) FailWith(op string, code Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if code == StatusOK {
		delete(s.failures, op)
		return
	}
	s.failures[op] = code
}

// Open mints a handle for a new simulated device. The device starts
// with the first mode of the table and no buffer or callback.
func (s *Sim) Open() Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.next
	s.next++
	s.devs[h] = &simDevice{
		serial: uuid.NewString(),
		mode:   s.modes[0],
	}
	return h
}

// CloseDevice tears down a simulated device. Any running stream is
// halted first.
func (s *Sim) CloseDevice(h Handle) {
	s.mu.Lock()
	dev, ok := s.devs[h]
	if !ok {
		s.mu.Unlock()
		return
	}
	delete(s.devs, h)
	var done chan struct{}
	if dev.running {
		close(dev.stop)
		done = dev.done
	}
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Serial reports the simulated device's serial number.
func (s *Sim) Serial(h Handle) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dev, ok := s.devs[h]
	if !ok {
		return "", false
	}
	return dev.serial, true
}

// SetFrameCallback implements Driver.
func (s *Sim) SetFrameCallback(h Handle, cb FrameCallback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if dev, ok := s.devs[h]; ok {
		dev.cb = cb
	}
}

// SetFrameBuffer implements Driver. Subsequent frames are written
// into buf until it is replaced.
func (s *Sim) SetFrameBuffer(h Handle, buf []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if dev, ok := s.devs[h]; ok {
		dev.buf = buf
	}
}

// SetVideoMode implements Driver. Unknown tokens fail with
// StatusInvalidMode and leave the active mode unchanged.
func (s *Sim) SetVideoMode(h Handle, token uint32) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	if code, ok := s.failures[OpSetMode]; ok {
		return code
	}
	dev, ok := s.devs[h]
	if !ok {
		return StatusDeviceGone
	}
	for _, m := range s.modes {
		if m.Token == token {
			dev.mode = m
			return StatusOK
		}
	}
	return StatusInvalidMode
}

// ModeCount implements Driver.
func (s *Sim) ModeCount(h Handle) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.devs[h]; !ok {
		return 0
	}
	return len(s.modes)
}

// ModeAt implements Driver.
func (s *Sim) ModeAt(index int) (ModeDescriptor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.modes) {
		return ModeDescriptor{}, false
	}
	return s.modes[index], true
}

// StartVideo implements Driver. On success a generator goroutine
// begins writing frames into the registered buffer and firing the
// registered callback.
func (s *Sim) StartVideo(h Handle) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	if code, ok := s.failures[OpStart]; ok {
		return code
	}
	dev, ok := s.devs[h]
	if !ok {
		return StatusDeviceGone
	}
	if dev.running {
		return StatusOK
	}
	dev.running = true
	dev.stop = make(chan struct{})
	dev.done = make(chan struct{})
	go s.generate(h, dev.stop, dev.done, s.interval)
	return StatusOK
}

// StopVideo implements Driver. A frame already in flight on the
// generator goroutine may still be delivered after StopVideo returns.
func (s *Sim) StopVideo(h Handle) Status {
	s.mu.Lock()
	if code, ok := s.failures[OpStop]; ok {
		s.mu.Unlock()
		return code
	}
	dev, ok := s.devs[h]
	if !ok {
		s.mu.Unlock()
		return StatusDeviceGone
	}
	if !dev.running {
		s.mu.Unlock()
		return StatusOK
	}
	dev.running = false
	close(dev.stop)
	done := dev.done
	s.mu.Unlock()
	<-done
	return StatusOK
}

// generate is the simulated driver's event-processing goroutine:
// one per started stream, firing the frame callback once per tick.
func (s *Sim) generate(h Handle, stop, done chan struct{}, interval time.Duration) {
	defer close(done)
	start := time.Now()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	var seq uint64
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			dev, ok := s.devs[h]
			if !ok {
				s.mu.Unlock()
				return
			}
			buf := dev.buf
			cb := dev.cb
			s.mu.Unlock()

			if buf == nil || cb == nil {
				continue
			}
			seq++
			fillPattern(buf, seq)
			cb(h, buf, time.Since(start).Seconds())
		}
	}
}

// fillPattern writes a cheap frame-varying ramp so consumers can see
// motion and tests can tell frames apart.
func fillPattern(buf []byte, seq uint64) {
	base := byte(seq)
	for i := range buf {
		buf[i] = base + byte(i)
	}
}
