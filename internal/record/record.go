package record

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noneedrelax/VoiceStream/internal/metrics"
)

// State represents recorder state.
type State int

const (
	StateIdle State = iota
	StateRecording
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// ErrDeviceBusy is wrapped in an open DeviceError while a capture loop that
// missed its stop grace period still holds the device.
var ErrDeviceBusy = errors.New("previous capture still holds the device")

// DefaultStopGrace bounds how long Stop waits for the capture loop to exit.
const DefaultStopGrace = 2 * time.Second

// Result is returned when a recording is stopped or canceled.
type Result struct {
	ID       string
	Frames   [][]byte
	Format   Format
	Duration time.Duration // audio held by Frames
	Dropped  int           // chunks discarded after the stop signal
	ReadErr  error         // non-nil when the device failed mid-recording
	TimedOut bool          // the capture loop did not exit within the grace period
	Canceled bool
}

// Options configures a Recorder.
type Options struct {
	Format    Format
	StopGrace time.Duration
	// OnInterrupt is called from the capture goroutine when a device read
	// fails. The recorder is in StateStopping at that point.
	OnInterrupt func(id string, err error)
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
}

// Recorder owns the capture lifecycle. At most one capture is active at a
// time, and at most one device is open.
type Recorder struct {
	mu     sync.Mutex
	state  State
	cur    *capture
	// lingering is a capture whose loop did not exit within the grace
	// period; it keeps the device until its loop returns.
	lingering *capture
	opener    Opener
	opts      Options
	log       *slog.Logger
}

// capture is the state of a single recording, from Start until Stop/Cancel.
type capture struct {
	id      string
	dev     Device
	buf     *FrameBuffer
	cancel  context.CancelFunc
	done    chan struct{}
	started time.Time
	readErr error // written by the loop before done is closed
	late    int   // chunks read after the stop signal, written by the loop
}

// New creates a recorder that opens devices through opener.
func New(opener Opener, opts Options) *Recorder {
	if opts.Format == (Format{}) {
		opts.Format = DefaultFormat
	}
	if opts.StopGrace <= 0 {
		opts.StopGrace = DefaultStopGrace
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Recorder{opener: opener, opts: opts, state: StateIdle, log: log}
}

// State returns the current recorder state.
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Buffered returns the number of chunks captured by the active recording.
func (r *Recorder) Buffered() int {
	r.mu.Lock()
	c := r.cur
	r.mu.Unlock()
	if c == nil {
		return 0
	}
	return c.buf.Len()
}

// Start opens the device and begins capturing. It is a no-op unless the
// recorder is idle. If the device cannot be opened, or a timed-out capture
// still holds it, the recorder stays idle and a *DeviceError is returned.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateIdle {
		r.log.Debug("start ignored", slog.String("state", r.state.String()))
		return nil
	}
	if l := r.lingering; l != nil {
		select {
		case <-l.done:
			r.lingering = nil
		default:
			r.opts.Metrics.DeviceError("open")
			return &DeviceError{Op: "open", Err: fmt.Errorf("session %s: %w", l.id, ErrDeviceBusy)}
		}
	}

	dev, err := r.opener.Open(r.opts.Format)
	if err != nil {
		r.opts.Metrics.DeviceError("open")
		return &DeviceError{Op: "open", Err: err}
	}

	captureCtx, cancel := context.WithCancel(ctx)
	c := &capture{
		id:      strings.ReplaceAll(uuid.New().String(), "-", "")[:16],
		dev:     dev,
		buf:     NewFrameBuffer(),
		cancel:  cancel,
		done:    make(chan struct{}),
		started: time.Now(),
	}
	r.cur = c
	r.state = StateRecording
	r.opts.Metrics.CaptureStarted()

	r.log.Debug("recording started", slog.String("session", c.id))
	go r.loop(captureCtx, c)
	return nil
}

// Stop signals the capture loop, waits for it to exit and returns the frame
// log. Stop on an idle recorder is a no-op. The returned error is the
// device read failure, if one ended the capture early; Frames are still valid.
func (r *Recorder) Stop() (Result, error) {
	c := r.beginStop()
	if c == nil {
		return Result{}, nil
	}
	res := r.collect(c)
	r.log.Debug("recording stopped",
		slog.String("session", res.ID),
		slog.Int("chunks", len(res.Frames)),
		slog.Duration("audio", res.Duration),
		slog.Int("dropped", res.Dropped),
	)
	return res, res.ReadErr
}

// Cancel stops the active capture and discards its frames.
func (r *Recorder) Cancel() (Result, error) {
	c := r.beginStop()
	if c == nil {
		return Result{}, nil
	}
	res := r.collect(c)
	res.Frames = nil
	res.Duration = 0
	res.Canceled = true
	r.log.Debug("recording canceled", slog.String("session", res.ID))
	return res, nil
}

func (r *Recorder) beginStop() *capture {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateIdle || r.cur == nil {
		return nil
	}
	r.state = StateStopping
	return r.cur
}

// collect joins the capture loop, drains the frame log and returns the
// recorder to idle.
func (r *Recorder) collect(c *capture) Result {
	c.cancel()

	joined := true
	timer := time.NewTimer(r.opts.StopGrace)
	select {
	case <-c.done:
	case <-timer.C:
		joined = false
	}
	timer.Stop()

	frames := c.buf.Drain()
	res := Result{
		ID:       c.id,
		Frames:   frames,
		Format:   r.opts.Format,
		TimedOut: !joined,
	}
	size := 0
	for _, f := range frames {
		size += len(f)
	}
	res.Duration = r.opts.Format.Duration(size)
	if joined {
		res.ReadErr = c.readErr
		res.Dropped = c.late + c.buf.Dropped()
	} else {
		r.log.Warn("capture loop did not exit in time",
			slog.String("session", c.id),
			slog.Duration("grace", r.opts.StopGrace),
			slog.Duration("elapsed", time.Since(c.started)),
		)
	}

	r.mu.Lock()
	if r.cur == c {
		r.cur = nil
		r.state = StateIdle
	}
	if !joined {
		r.lingering = c
	}
	r.mu.Unlock()
	if !joined {
		go r.reap(c)
	}

	r.opts.Metrics.Recorded(res.Duration)
	return res
}

// reap waits for a capture loop that outlived Stop and releases its claim
// on the device.
func (r *Recorder) reap(c *capture) {
	<-c.done
	r.mu.Lock()
	if r.lingering == c {
		r.lingering = nil
	}
	r.mu.Unlock()

	attrs := []any{
		slog.String("session", c.id),
		slog.Int("dropped", c.late+c.buf.Dropped()),
		slog.Duration("elapsed", time.Since(c.started)),
	}
	if c.readErr != nil {
		attrs = append(attrs, slog.Any("error", c.readErr))
	}
	r.log.Warn("late capture loop exited", attrs...)
}

func (r *Recorder) loop(ctx context.Context, c *capture) {
	defer close(c.done)
	defer func() {
		if err := c.dev.Close(); err != nil {
			r.log.Warn("device close failed", slog.String("session", c.id), slog.Any("error", err))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		chunk, err := c.dev.Read()
		if ctx.Err() != nil {
			// stop signal arrived while reading; the chunk is not part of the log
			if err == nil && len(chunk) > 0 {
				c.late++
				r.opts.Metrics.ChunkDropped(1)
			}
			return
		}
		if err != nil {
			c.readErr = &DeviceError{Op: "read", Err: err}
			r.opts.Metrics.DeviceError("read")
			r.log.Warn("device read failed", slog.String("session", c.id), slog.Any("error", err))
			r.interrupted(c)
			return
		}
		if len(chunk) == 0 {
			continue
		}
		if !c.buf.Append(chunk) {
			r.opts.Metrics.ChunkDropped(1)
			return
		}
		r.opts.Metrics.ChunkCaptured()
	}
}

func (r *Recorder) interrupted(c *capture) {
	r.mu.Lock()
	active := r.cur == c && r.state == StateRecording
	if active {
		r.state = StateStopping
	}
	r.mu.Unlock()

	if active && r.opts.OnInterrupt != nil {
		r.opts.OnInterrupt(c.id, c.readErr)
	}
}
