package driver

import (
	"sync"
	"testing"
	"time"
)

// frameRecorder collects callback invocations for verification.
type frameRecorder struct {
	mu     sync.Mutex
	frames int
	stamps []float64
	last   []byte
}

func (r *frameRecorder) callback(h Handle, data []byte, timestamp float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames++
	r.stamps = append(r.stamps, timestamp)
	r.last = append(r.last[:0], data...)
}

func (r *frameRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestSim_DeliversFrames(t *testing.T) {
	sim := NewSim()
	sim.SetInterval(time.Millisecond)
	h := sim.Open()
	defer sim.CloseDevice(h)

	rec := &frameRecorder{}
	buf := make([]byte, 64)
	sim.SetFrameCallback(h, rec.callback)
	sim.SetFrameBuffer(h, buf)

	if st := sim.StartVideo(h); st != StatusOK {
		t.Fatalf("StartVideo: got status %d", st)
	}
	waitFor(t, time.Second, func() bool { return rec.count() >= 3 })

	if st := sim.StopVideo(h); st != StatusOK {
		t.Fatalf("StopVideo: got status %d", st)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.last) != len(buf) {
		t.Errorf("delivered frame size: got %d, want %d", len(rec.last), len(buf))
	}
	for i := 1; i < len(rec.stamps); i++ {
		if rec.stamps[i] <= rec.stamps[i-1] {
			t.Errorf("timestamps not increasing: %v", rec.stamps)
			break
		}
	}
}

func TestSim_StopHaltsDelivery(t *testing.T) {
	sim := NewSim()
	sim.SetInterval(time.Millisecond)
	h := sim.Open()
	defer sim.CloseDevice(h)

	rec := &frameRecorder{}
	sim.SetFrameCallback(h, rec.callback)
	sim.SetFrameBuffer(h, make([]byte, 16))

	sim.StartVideo(h)
	waitFor(t, time.Second, func() bool { return rec.count() >= 1 })
	sim.StopVideo(h)

	// StopVideo waits for the generator goroutine, so the count is
	// final once it returns.
	n := rec.count()
	time.Sleep(10 * time.Millisecond)
	if got := rec.count(); got != n {
		t.Errorf("frames after stop: got %d, want %d", got, n)
	}
}

func TestSim_NoBufferNoFrames(t *testing.T) {
	sim := NewSim()
	sim.SetInterval(time.Millisecond)
	h := sim.Open()
	defer sim.CloseDevice(h)

	rec := &frameRecorder{}
	sim.SetFrameCallback(h, rec.callback)
	// No buffer registered: the driver has nowhere to write.

	sim.StartVideo(h)
	time.Sleep(20 * time.Millisecond)
	sim.StopVideo(h)

	if got := rec.count(); got != 0 {
		t.Errorf("frames without a buffer: got %d, want 0", got)
	}
}

func TestSim_FailureInjection(t *testing.T) {
	sim := NewSim()
	h := sim.Open()
	defer sim.CloseDevice(h)

	sim.FailWith(OpStart, 42)
	if st := sim.StartVideo(h); st != 42 {
		t.Errorf("injected start status: got %d, want 42", st)
	}

	sim.FailWith(OpStart, StatusOK) // clear
	if st := sim.StartVideo(h); st != StatusOK {
		t.Errorf("start after clearing injection: got %d", st)
	}
	sim.StopVideo(h)
}

func TestSim_SetVideoMode(t *testing.T) {
	sim := NewSim()
	h := sim.Open()
	defer sim.CloseDevice(h)

	desc, ok := sim.ModeAt(1)
	if !ok {
		t.Fatal("ModeAt(1) not available")
	}
	if st := sim.SetVideoMode(h, desc.Token); st != StatusOK {
		t.Errorf("SetVideoMode(%#x): got status %d", desc.Token, st)
	}
	if st := sim.SetVideoMode(h, 0xdead); st != StatusInvalidMode {
		t.Errorf("SetVideoMode(unknown): got status %d, want %d", st, StatusInvalidMode)
	}
}

func TestSim_ModeTableStable(t *testing.T) {
	sim := NewSim()
	h := sim.Open()
	defer sim.CloseDevice(h)

	n := sim.ModeCount(h)
	if n == 0 {
		t.Fatal("empty mode table")
	}
	for i := 0; i < n; i++ {
		if _, ok := sim.ModeAt(i); !ok {
			t.Errorf("ModeAt(%d) invalid with count %d", i, n)
		}
	}
	if _, ok := sim.ModeAt(n); ok {
		t.Errorf("ModeAt(%d) should be out of range", n)
	}
}

func TestSim_UnknownHandle(t *testing.T) {
	sim := NewSim()
	if st := sim.StartVideo(999); st != StatusDeviceGone {
		t.Errorf("StartVideo(unknown): got %d, want %d", st, StatusDeviceGone)
	}
	if sim.ModeCount(999) != 0 {
		t.Error("ModeCount(unknown) should be 0")
	}
}

func TestStatus_Err(t *testing.T) {
	if err := StatusOK.Err(OpStart); err != nil {
		t.Errorf("StatusOK.Err: got %v, want nil", err)
	}
	err := Status(5).Err(OpStop)
	se, ok := AsStatusError(err)
	if !ok {
		t.Fatalf("expected StatusError, got %T", err)
	}
	if se.Code != 5 || se.Op != OpStop {
		t.Errorf("StatusError: got op=%q code=%d", se.Op, se.Code)
	}
}
