package clipboard

import (
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"github.com/micmonay/keybd_event"
)

// SystemClipboard uses the OS clipboard.
type SystemClipboard struct{}

// WriteAll replaces the clipboard text.
func (SystemClipboard) WriteAll(text string) error { return clipboard.WriteAll(text) }

// SystemKeyboard synthesizes the paste shortcut (Cmd+V on macOS, Ctrl+V
// elsewhere) with keybd_event.
type SystemKeyboard struct {
	once sync.Once
	kb   keybd_event.KeyBonding
	err  error
}

// NewSystemKeyboard starts initializing the virtual keyboard in the
// background. On Linux the uinput device needs a moment before the desktop
// accepts events from it.
func NewSystemKeyboard() *SystemKeyboard {
	k := &SystemKeyboard{}
	go k.once.Do(k.init)
	return k
}

func (k *SystemKeyboard) init() {
	k.kb, k.err = keybd_event.NewKeyBonding()
	if k.err != nil {
		return
	}
	if runtime.GOOS == "linux" {
		time.Sleep(2 * time.Second)
	}
	if runtime.GOOS == "darwin" {
		k.kb.HasSuper(true)
	} else {
		k.kb.HasCTRL(true)
	}
	k.kb.SetKeys(keybd_event.VK_V)
}

// PressPaste sends the paste shortcut.
func (k *SystemKeyboard) PressPaste() error {
	k.once.Do(k.init)
	if k.err != nil {
		return k.err
	}
	return k.kb.Launching()
}

// NewSystem returns a Paster wired to the OS clipboard and keyboard.
func NewSystem(delay time.Duration, log *slog.Logger) *Paster {
	return New(SystemClipboard{}, NewSystemKeyboard(), delay, log)
}
