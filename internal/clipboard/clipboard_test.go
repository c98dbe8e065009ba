package clipboard

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeClipboard struct {
	text string
	err  error
}

func (c *fakeClipboard) WriteAll(text string) error {
	if c.err != nil {
		return c.err
	}
	c.text = text
	return nil
}

type fakeKeyboard struct {
	presses int
	at      time.Time
	err     error
}

func (k *fakeKeyboard) PressPaste() error {
	k.presses++
	k.at = time.Now()
	return k.err
}

func TestInsertWritesThenPastesAfterDelay(t *testing.T) {
	clip := &fakeClipboard{text: "previous"}
	keys := &fakeKeyboard{}
	p := New(clip, keys, 30*time.Millisecond, nil)

	start := time.Now()
	if err := p.Insert(context.Background(), "hello"); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if clip.text != "hello" {
		t.Fatalf("clipboard holds %q", clip.text)
	}
	if keys.presses != 1 {
		t.Fatalf("expected one paste, got %d", keys.presses)
	}
	if keys.at.Sub(start) < 30*time.Millisecond {
		t.Fatalf("paste sent before delay elapsed")
	}
}

func TestInsertEmptyTextIsSkipped(t *testing.T) {
	clip := &fakeClipboard{text: "keep"}
	keys := &fakeKeyboard{}
	if err := New(clip, keys, 0, nil).Insert(context.Background(), ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if clip.text != "keep" || keys.presses != 0 {
		t.Fatalf("empty text touched clipboard or keyboard")
	}
}

func TestInsertErrors(t *testing.T) {
	boom := errors.New("boom")

	err := New(&fakeClipboard{err: boom}, &fakeKeyboard{}, 0, nil).Insert(context.Background(), "x")
	var ie *InsertionError
	if !errors.As(err, &ie) || ie.Op != "clipboard" || !errors.Is(err, boom) {
		t.Fatalf("expected clipboard InsertionError, got %v", err)
	}

	err = New(&fakeClipboard{}, &fakeKeyboard{err: boom}, 0, nil).Insert(context.Background(), "x")
	if !errors.As(err, &ie) || ie.Op != "paste" {
		t.Fatalf("expected paste InsertionError, got %v", err)
	}
}

func TestInsertHonoursContext(t *testing.T) {
	keys := &fakeKeyboard{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := New(&fakeClipboard{}, keys, time.Second, nil).Insert(ctx, "x")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
	if keys.presses != 0 {
		t.Fatalf("paste sent after cancellation")
	}
}

func TestNonPositiveDelayUsesDefault(t *testing.T) {
	for _, d := range []time.Duration{0, -1} {
		p := New(&fakeClipboard{}, &fakeKeyboard{}, d, nil)
		if p.delay != DefaultDelay {
			t.Fatalf("delay %v: expected default delay, got %v", d, p.delay)
		}
	}
}

func TestZeroDelayStillWaitsBeforePaste(t *testing.T) {
	keys := &fakeKeyboard{}
	p := New(&fakeClipboard{}, keys, 0, nil)

	start := time.Now()
	if err := p.Insert(context.Background(), "hello"); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if keys.at.Sub(start) < DefaultDelay {
		t.Fatalf("paste sent %v after the clipboard write", keys.at.Sub(start))
	}
}
