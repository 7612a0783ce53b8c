package sensor

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/kestrelsense/go-kestrel/internal/log"
	"github.com/kestrelsense/go-kestrel/pkg/driver"
)

// Manager owns the process-wide handle-to-device registry.
//
// The native driver identifies devices only by opaque handle, so every
// frame callback has to be resolved back to the logical device that
// owns it. That map lives here, with an explicit lifecycle: Open
// inserts, Close removes. Nothing in this package keeps ambient global
// state; callback resolution always goes through the manager the
// device was opened on.
type Manager struct {
	mu      sync.RWMutex
	devices map[driver.Handle]*Device

	// desyncs counts frame callbacks that arrived for handles with no
	// registered device. Always zero in a healthy process.
	desyncs atomic.Uint64
}

// NewManager creates an empty device registry.
func NewManager() *Manager {
	return &Manager{devices: make(map[driver.Handle]*Device)}
}

// Open registers handle h with the manager and builds its video
// stream: modes are enumerated from the driver, a default mode is
// selected, an initial frame buffer is allocated, and the frame
// callback is registered with the driver scoped to h.
func (m *Manager) Open(drv driver.Driver, h driver.Handle) (*Device, error) {
	d := &Device{
		serial: uuid.NewString(),
		handle: h,
		drv:    drv,
		mgr:    m,
	}

	video, err := newVideoStream(drv, h, d.serial)
	if err != nil {
		return nil, fmt.Errorf("open device %v: %w", h, err)
	}
	d.video = video

	m.mu.Lock()
	if _, exists := m.devices[h]; exists {
		m.mu.Unlock()
		return nil, fmt.Errorf("open device %v: %w", h, ErrAlreadyOpen)
	}
	m.devices[h] = d
	m.mu.Unlock()

	// Register after the device is resolvable, so a callback can
	// never race ahead of its own registry entry.
	drv.SetFrameCallback(h, m.route)

	log.Info("device opened",
		"serial", d.serial,
		"handle", uint64(h),
		"modes", len(video.Modes()),
		"default_mode", video.Mode().String(),
	)
	return d, nil
}

// Device returns the registered device for a handle.
func (m *Manager) Device(h driver.Handle) (*Device, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.devices[h]
	return d, ok
}

// DeviceBySerial returns the registered device with the given serial.
func (m *Manager) DeviceBySerial(serial string) (*Device, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.devices {
		if d.serial == serial {
			return d, true
		}
	}
	return nil, false
}

// Devices returns a snapshot of all registered devices.
func (m *Manager) Devices() []*Device {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Device, 0, len(m.devices))
	for _, d := range m.devices {
		out = append(out, d)
	}
	return out
}

// DesyncCount returns how many frame callbacks arrived for
// unregistered handles since the manager was created.
func (m *Manager) DesyncCount() uint64 {
	return m.desyncs.Load()
}

// route is the FrameCallback registered with the driver. It runs on
// the driver's goroutine.
func (m *Manager) route(h driver.Handle, data []byte, timestamp float64) {
	_ = m.dispatch(h, data, timestamp)
}

// dispatch resolves h and delivers the frame to its video stream.
// A callback for an unregistered handle means the driver and registry
// disagree about device lifecycle; it is flagged, counted, and
// returned as ErrUnknownDevice, never silently absorbed into a valid
// event.
func (m *Manager) dispatch(h driver.Handle, data []byte, timestamp float64) error {
	m.mu.RLock()
	d, ok := m.devices[h]
	m.mu.RUnlock()

	if !ok {
		m.desyncs.Add(1)
		log.Error("frame callback for unregistered device handle",
			"handle", uint64(h),
			"timestamp", timestamp,
		)
		return fmt.Errorf("dispatch frame for handle %v: %w", h, ErrUnknownDevice)
	}

	d.video.deliver(data, timestamp)
	return nil
}

// remove drops h from the registry. Called from Device.Close.
func (m *Manager) remove(h driver.Handle) {
	m.mu.Lock()
	delete(m.devices, h)
	m.mu.Unlock()
}
