package sensor

import (
	"sync"

	"github.com/kestrelsense/go-kestrel/internal/log"
	"github.com/kestrelsense/go-kestrel/pkg/driver"
)

// Device is one opened sensor unit: the native handle plus the
// managed-side mirror of its video stream.
type Device struct {
	serial string
	handle driver.Handle
	drv    driver.Driver
	mgr    *Manager
	video  *VideoStream

	mu     sync.Mutex
	closed bool
}

// Serial returns the device's SDK-assigned serial, stable for the
// device's open lifetime.
func (d *Device) Serial() string { return d.serial }

// Handle returns the native device handle.
func (d *Device) Handle() driver.Handle { return d.handle }

// Video returns the device's video stream adapter.
func (d *Device) Video() *VideoStream { return d.video }

// Close stops the video stream if running and removes the device from
// its manager's registry. Callbacks already in flight on the driver
// goroutine may still deliver one event while Close runs; after Close
// returns, further callbacks for this handle count as registry
// desyncs.
func (d *Device) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	d.closed = true
	d.mu.Unlock()

	var stopErr error
	if d.video.Running() {
		stopErr = d.video.Stop()
	}
	d.video.close()

	d.mgr.remove(d.handle)
	log.Info("device closed", "serial", d.serial, "handle", uint64(d.handle))
	return stopErr
}

// isClosed reports whether Close has been called.
func (d *Device) isClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}
