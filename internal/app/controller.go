package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/noneedrelax/VoiceStream/internal/asr"
	"github.com/noneedrelax/VoiceStream/internal/audio/wav"
	"github.com/noneedrelax/VoiceStream/internal/metrics"
	"github.com/noneedrelax/VoiceStream/internal/record"
)

// Trigger is a user request coming from a hotkey or the tray menu.
type Trigger int

const (
	TriggerStart Trigger = iota + 1
	TriggerStop
	TriggerCancel
)

func (t Trigger) String() string {
	switch t {
	case TriggerStart:
		return "start"
	case TriggerStop:
		return "stop"
	case TriggerCancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// Recorder is the capture side of the controller.
type Recorder interface {
	Start(ctx context.Context) error
	Stop() (record.Result, error)
	Cancel() (record.Result, error)
	State() record.State
}

// Inserter places text at the cursor.
type Inserter interface {
	Insert(ctx context.Context, text string) error
}

// StatusObserver is told about every recording state change.
type StatusObserver interface {
	SetIdle()
	SetRecording()
}

// Reporter surfaces user-visible messages.
type Reporter interface {
	Info(message string)
	Error(message string, err error)
}

// Deps are the collaborators of a Controller.
type Deps struct {
	Recorder    Recorder
	Transcriber asr.Transcriber
	Inserter    Inserter
	Observer    StatusObserver
	Reporter    Reporter
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
}

// Controller serializes triggers. Triggers are queued without blocking the
// caller and processed one at a time by Run, so a transcription never
// overlaps an active recording.
type Controller struct {
	Deps
	log *slog.Logger
	q   *queue[Trigger]
}

// NewController returns a controller; Observer and Reporter may be nil.
func NewController(d Deps) *Controller {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Observer == nil {
		d.Observer = nopObserver{}
	}
	if d.Reporter == nil {
		d.Reporter = logReporter{d.Logger}
	}
	return &Controller{Deps: d, log: d.Logger, q: newQueue[Trigger]()}
}

// OnStartTrigger queues a start request.
func (c *Controller) OnStartTrigger() { c.q.Enqueue(TriggerStart) }

// OnStopTrigger queues a stop-and-transcribe request.
func (c *Controller) OnStopTrigger() { c.q.Enqueue(TriggerStop) }

// OnCancelTrigger queues a request to discard the current recording.
func (c *Controller) OnCancelTrigger() { c.q.Enqueue(TriggerCancel) }

// Interrupted is the recorder's interrupt hook. The capture already ended
// on a device error; a stop is queued so the audio captured so far is
// still transcribed.
func (c *Controller) Interrupted(id string, err error) {
	c.log.Warn("capture interrupted", slog.String("session", id), slog.Any("error", err))
	c.q.Enqueue(TriggerStop)
}

// Pending returns the number of queued triggers.
func (c *Controller) Pending() int { return c.q.Len() }

// Run processes queued triggers in arrival order until ctx is done. An
// active recording is discarded on shutdown.
func (c *Controller) Run(ctx context.Context) error {
	for {
		for ctx.Err() == nil {
			t, ok := c.q.Dequeue()
			if !ok {
				break
			}
			c.Handle(ctx, t)
		}

		select {
		case <-ctx.Done():
			if c.Recorder.State() != record.StateIdle {
				_, _ = c.Recorder.Cancel()
				c.Observer.SetIdle()
			}
			return ctx.Err()
		case <-c.q.Wait():
		}
	}
}

// Handle processes a single trigger synchronously. It never panics.
func (c *Controller) Handle(ctx context.Context, t Trigger) {
	defer func() {
		if r := recover(); r != nil {
			c.Reporter.Error("Internal error", fmt.Errorf("%s trigger panicked: %v", t, r))
			c.Observer.SetIdle()
		}
	}()

	c.log.Debug("trigger", slog.String("trigger", t.String()), slog.String("state", c.Recorder.State().String()))
	switch t {
	case TriggerStart:
		c.start(ctx)
	case TriggerStop:
		c.stop(ctx)
	case TriggerCancel:
		c.cancel()
	}
}

func (c *Controller) start(ctx context.Context) {
	if c.Recorder.State() != record.StateIdle {
		c.log.Debug("already recording; start ignored")
		return
	}
	if err := c.Recorder.Start(ctx); err != nil {
		c.Reporter.Error("Could not open the microphone", err)
		c.Observer.SetIdle()
		return
	}
	c.Observer.SetRecording()
	c.Reporter.Info("Recording started")
}

func (c *Controller) cancel() {
	if c.Recorder.State() == record.StateIdle {
		c.log.Debug("not recording; nothing to cancel")
		return
	}
	res, _ := c.Recorder.Cancel()
	c.Observer.SetIdle()
	c.log.Info("recording canceled", slog.String("session", res.ID))
}

func (c *Controller) stop(ctx context.Context) {
	if c.Recorder.State() == record.StateIdle {
		c.log.Debug("not recording; stop ignored")
		return
	}
	begin := time.Now()
	defer c.Observer.SetIdle()

	res, err := c.Recorder.Stop()
	if err != nil {
		c.Reporter.Error("Microphone stopped unexpectedly", err)
	}
	if res.TimedOut {
		c.log.Warn("capture did not stop within the grace period", slog.String("session", res.ID))
	}

	outcome := c.transcribeAndInsert(ctx, res)
	c.Metrics.PipelineDone(time.Since(begin))
	c.log.Info("dictation finished",
		slog.String("session", res.ID),
		slog.Duration("audio", res.Duration),
		slog.String("outcome", outcome),
		slog.Duration("elapsed", time.Since(begin)),
	)
}

// transcribeAndInsert runs encode, transcribe and insert for one recording
// and returns the outcome label.
func (c *Controller) transcribeAndInsert(ctx context.Context, res record.Result) string {
	f := res.Format
	enc, err := wav.Encode(res.Frames, f.SampleRate, f.Channels, f.SampleWidth)
	if err != nil {
		c.Metrics.Transcribed("empty")
		c.Reporter.Error("No audio was captured", err)
		return "empty"
	}

	text, err := c.Transcriber.Transcribe(ctx, enc)
	outcome := asr.Outcome(err)
	c.Metrics.Transcribed(outcome)
	if err != nil {
		c.Reporter.Error(transcriptionMessage(err), err)
		return outcome
	}

	text = strings.TrimSpace(text)
	if text == "" {
		c.Reporter.Info("Nothing was recognized")
		return "no_text"
	}

	if err := c.Inserter.Insert(ctx, text); err != nil {
		c.Metrics.Inserted("error")
		c.Reporter.Error("Could not paste the transcription", err)
		return "insert_failed"
	}
	c.Metrics.Inserted("ok")
	return outcome
}

func transcriptionMessage(err error) string {
	switch {
	case asr.IsAuth(err):
		if errors.Is(err, asr.ErrMissingToken) {
			return "No API key configured"
		}
		return "The API key was rejected"
	case asr.IsNetwork(err):
		return "Transcription service unreachable"
	default:
		return "Transcription failed"
	}
}

type nopObserver struct{}

func (nopObserver) SetIdle()      {}
func (nopObserver) SetRecording() {}

type logReporter struct{ log *slog.Logger }

func (r logReporter) Info(message string) { r.log.Info(message) }

func (r logReporter) Error(message string, err error) {
	r.log.Error(message, slog.Any("error", err))
}
