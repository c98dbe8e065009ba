package clipboard

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// DefaultDelay is the pause between writing the clipboard and pasting, so
// the target application sees the new contents.
const DefaultDelay = 100 * time.Millisecond

// Clipboard writes text to the system clipboard.
type Clipboard interface {
	WriteAll(text string) error
}

// Keyboard sends the platform paste shortcut to the focused window.
type Keyboard interface {
	PressPaste() error
}

// InsertionError reports a failed clipboard write or paste keystroke.
type InsertionError struct {
	Op  string // "clipboard" or "paste"
	Err error
}

func (e *InsertionError) Error() string {
	return fmt.Sprintf("text insertion failed at %s: %v", e.Op, e.Err)
}

func (e *InsertionError) Unwrap() error { return e.Err }

// Paster inserts text at the cursor by way of the clipboard. The previous
// clipboard contents are overwritten and not restored.
type Paster struct {
	clip  Clipboard
	keys  Keyboard
	delay time.Duration
	log   *slog.Logger
}

// New returns a Paster. A zero or negative delay selects DefaultDelay; the
// target window needs the pause to see the new clipboard contents.
func New(clip Clipboard, keys Keyboard, delay time.Duration, log *slog.Logger) *Paster {
	if delay <= 0 {
		delay = DefaultDelay
	}
	if log == nil {
		log = slog.Default()
	}
	return &Paster{clip: clip, keys: keys, delay: delay, log: log}
}

// Insert writes text to the clipboard, waits for the configured delay and
// sends the paste shortcut. Empty text is not inserted.
func (p *Paster) Insert(ctx context.Context, text string) error {
	if text == "" {
		p.log.Debug("nothing to insert")
		return nil
	}
	if err := p.clip.WriteAll(text); err != nil {
		return &InsertionError{Op: "clipboard", Err: err}
	}

	t := time.NewTimer(p.delay)
	select {
	case <-t.C:
	case <-ctx.Done():
		t.Stop()
		return &InsertionError{Op: "paste", Err: ctx.Err()}
	}

	if err := p.keys.PressPaste(); err != nil {
		return &InsertionError{Op: "paste", Err: err}
	}
	p.log.Debug("text inserted", slog.Int("chars", len([]rune(text))))
	return nil
}
