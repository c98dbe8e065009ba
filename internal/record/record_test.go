package record

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeDevice serves a fixed script of chunks, then either fails with err,
// blocks until release is closed, or idles returning empty reads.
type fakeDevice struct {
	mu      sync.Mutex
	script  [][]byte
	next    int
	err     error
	release chan struct{}
	closed  int
}

func (d *fakeDevice) Read() ([]byte, error) {
	d.mu.Lock()
	if d.next < len(d.script) {
		c := d.script[d.next]
		d.next++
		d.mu.Unlock()
		return c, nil
	}
	err, release := d.err, d.release
	d.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if release != nil {
		<-release
		return []byte{0xFF, 0xFF}, nil
	}
	time.Sleep(time.Millisecond)
	return nil, nil
}

func (d *fakeDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed++
	return nil
}

func (d *fakeDevice) closeCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

type fakeOpener struct {
	mu    sync.Mutex
	opens int
	fail  error
	dev   func() *fakeDevice
}

func (o *fakeOpener) Open(Format) (Device, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.fail != nil {
		return nil, o.fail
	}
	o.opens++
	return o.dev(), nil
}

func (o *fakeOpener) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.opens
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met before deadline")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestStartIsIdempotentWhileRecording(t *testing.T) {
	dev := &fakeDevice{}
	op := &fakeOpener{dev: func() *fakeDevice { return dev }}
	r := New(op, Options{})

	for i := 0; i < 5; i++ {
		if err := r.Start(context.Background()); err != nil {
			t.Fatalf("start %d failed: %v", i, err)
		}
	}
	if op.count() != 1 {
		t.Fatalf("expected one device open, got %d", op.count())
	}
	if r.State() != StateRecording {
		t.Fatalf("expected recording, got %v", r.State())
	}

	if _, err := r.Stop(); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if dev.closeCount() != 1 {
		t.Fatalf("expected device closed once, got %d", dev.closeCount())
	}
}

func TestStopWhileIdleIsNoop(t *testing.T) {
	op := &fakeOpener{dev: func() *fakeDevice { return &fakeDevice{} }}
	r := New(op, Options{})

	res, err := r.Stop()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ID != "" || res.Frames != nil {
		t.Fatalf("expected empty result, got %+v", res)
	}
	if r.State() != StateIdle {
		t.Fatalf("expected idle, got %v", r.State())
	}
	if op.count() != 0 {
		t.Fatalf("stop opened a device")
	}
}

func TestStartOpenFailureStaysIdle(t *testing.T) {
	op := &fakeOpener{fail: errors.New("device busy"), dev: func() *fakeDevice { return &fakeDevice{} }}
	r := New(op, Options{})

	err := r.Start(context.Background())
	var de *DeviceError
	if !errors.As(err, &de) {
		t.Fatalf("expected DeviceError, got %T: %v", err, err)
	}
	if de.Op != "open" {
		t.Fatalf("expected op open, got %s", de.Op)
	}
	if r.State() != StateIdle {
		t.Fatalf("expected idle after failed start, got %v", r.State())
	}

	op.mu.Lock()
	op.fail = nil
	op.mu.Unlock()

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if r.State() != StateRecording {
		t.Fatalf("expected recording after retry, got %v", r.State())
	}
	_, _ = r.Stop()
}

func TestStopReturnsFramesInOrder(t *testing.T) {
	script := [][]byte{{1, 0}, {2, 0}, {3, 0}, {4, 0}}
	op := &fakeOpener{dev: func() *fakeDevice { return &fakeDevice{script: script} }}
	r := New(op, Options{})

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	waitFor(t, func() bool { return r.Buffered() == len(script) })

	res, err := r.Stop()
	if err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if len(res.Frames) != len(script) {
		t.Fatalf("expected %d frames, got %d", len(script), len(res.Frames))
	}
	for i := range script {
		if !bytes.Equal(res.Frames[i], script[i]) {
			t.Fatalf("frame %d mismatch: %v", i, res.Frames[i])
		}
	}
	if res.Format != DefaultFormat {
		t.Fatalf("unexpected format %+v", res.Format)
	}
	if res.TimedOut {
		t.Fatalf("unexpected timeout")
	}
	if r.State() != StateIdle {
		t.Fatalf("expected idle, got %v", r.State())
	}
}

func TestReadErrorInterruptsCapture(t *testing.T) {
	readErr := errors.New("device unplugged")
	op := &fakeOpener{dev: func() *fakeDevice {
		return &fakeDevice{script: [][]byte{{1, 0}, {2, 0}}, err: readErr}
	}}

	interrupted := make(chan error, 1)
	r := New(op, Options{OnInterrupt: func(id string, err error) { interrupted <- err }})

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	select {
	case err := <-interrupted:
		if !errors.Is(err, readErr) {
			t.Fatalf("unexpected interrupt error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("interrupt not signaled")
	}
	if r.State() != StateStopping {
		t.Fatalf("expected stopping after read failure, got %v", r.State())
	}

	// a start while stopping is ignored
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("start while stopping returned %v", err)
	}
	if op.count() != 1 {
		t.Fatalf("start while stopping opened a device")
	}

	res, err := r.Stop()
	var de *DeviceError
	if !errors.As(err, &de) || de.Op != "read" {
		t.Fatalf("expected read DeviceError, got %v", err)
	}
	if len(res.Frames) != 2 {
		t.Fatalf("expected frames captured before failure, got %d", len(res.Frames))
	}
	if r.State() != StateIdle {
		t.Fatalf("expected idle, got %v", r.State())
	}
}

func TestStopIsBoundedByGrace(t *testing.T) {
	release := make(chan struct{})
	dev := &fakeDevice{script: [][]byte{{1, 0}}, release: release}
	op := &fakeOpener{dev: func() *fakeDevice { return dev }}
	r := New(op, Options{StopGrace: 20 * time.Millisecond})

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	waitFor(t, func() bool { return r.Buffered() == 1 })

	start := time.Now()
	res, err := r.Stop()
	if err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if !res.TimedOut {
		t.Fatalf("expected timed out stop")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("stop took %v", elapsed)
	}
	if len(res.Frames) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(res.Frames))
	}
	if r.State() != StateIdle {
		t.Fatalf("expected idle, got %v", r.State())
	}

	// the stuck read now returns; its chunk must not reach the drained log
	close(release)
	waitFor(t, func() bool { return dev.closeCount() == 1 })
}

func TestStartAfterTimedOutStopWaitsForDevice(t *testing.T) {
	release := make(chan struct{})
	first := &fakeDevice{script: [][]byte{{1, 0}}, release: release}
	second := &fakeDevice{}
	devs := []*fakeDevice{first, second}
	op := &fakeOpener{}
	op.dev = func() *fakeDevice { return devs[op.opens-1] }
	r := New(op, Options{StopGrace: 20 * time.Millisecond})

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	waitFor(t, func() bool { return r.Buffered() == 1 })

	res, _ := r.Stop()
	if !res.TimedOut {
		t.Fatalf("expected timed out stop")
	}

	err := r.Start(context.Background())
	var de *DeviceError
	if !errors.As(err, &de) || de.Op != "open" || !errors.Is(err, ErrDeviceBusy) {
		t.Fatalf("expected busy DeviceError, got %v", err)
	}
	if op.count() != 1 {
		t.Fatalf("second device opened while the first is still held")
	}
	if r.State() != StateIdle {
		t.Fatalf("expected idle, got %v", r.State())
	}

	close(release)
	waitFor(t, func() bool { return first.closeCount() == 1 })
	waitFor(t, func() bool { return r.Start(context.Background()) == nil })
	if op.count() != 2 {
		t.Fatalf("expected two opens in total, got %d", op.count())
	}
	if r.State() != StateRecording {
		t.Fatalf("expected recording, got %v", r.State())
	}

	if _, err := r.Stop(); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if second.closeCount() != 1 {
		t.Fatalf("expected second device closed, got %d", second.closeCount())
	}
}

func TestCancelDiscardsFrames(t *testing.T) {
	op := &fakeOpener{dev: func() *fakeDevice { return &fakeDevice{script: [][]byte{{1, 0}}} }}
	r := New(op, Options{})

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	waitFor(t, func() bool { return r.Buffered() == 1 })

	res, err := r.Cancel()
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if !res.Canceled || res.Frames != nil {
		t.Fatalf("expected canceled result without frames, got %+v", res)
	}
	if r.State() != StateIdle {
		t.Fatalf("expected idle, got %v", r.State())
	}
}

func TestFormatDuration(t *testing.T) {
	if d := DefaultFormat.Duration(96000); d != 3*time.Second {
		t.Fatalf("expected 3s, got %v", d)
	}
	if n := DefaultFormat.ChunkBytes(); n != 2048 {
		t.Fatalf("expected 2048 byte chunks, got %d", n)
	}
}
