package tray

import (
	"log/slog"
	"sync"

	"github.com/getlantern/systray"
)

// Actions are invoked from the menu. They must not block.
type Actions struct {
	Start func()
	Stop  func()
	About func()
	Quit  func()
}

// Tray is the status icon and menu. It implements the controller's status
// observer: SetIdle and SetRecording may be called from any goroutine, also
// before the tray is ready, in which case the state is applied once it is.
type Tray struct {
	actions Actions
	icons   Icons
	log     *slog.Logger

	mu        sync.Mutex
	ready     bool
	recording bool
	mStart    *systray.MenuItem
	mStop     *systray.MenuItem
}

// New creates a tray; call Run to show it.
func New(actions Actions, log *slog.Logger) *Tray {
	if log == nil {
		log = slog.Default()
	}
	return &Tray{actions: actions, icons: NewIcons(), log: log}
}

// Run shows the tray and blocks until Quit. It must be called from the
// main goroutine.
func (t *Tray) Run(onExit func()) {
	systray.Run(t.onReady, func() {
		t.log.Debug("tray exited")
		if onExit != nil {
			onExit()
		}
	})
}

// Quit removes the tray icon and makes Run return.
func (t *Tray) Quit() { systray.Quit() }

func (t *Tray) onReady() {
	systray.SetTitle("VoiceStream")
	systray.SetTooltip("Dictation: idle")

	mStart := systray.AddMenuItem("Start recording", "Start capturing from the microphone")
	mStop := systray.AddMenuItem("Stop and transcribe", "Stop capturing and insert the transcription")
	systray.AddSeparator()
	mAbout := systray.AddMenuItem("About", "About VoiceStream")
	mQuit := systray.AddMenuItem("Quit", "Quit VoiceStream")

	t.mu.Lock()
	t.mStart, t.mStop = mStart, mStop
	t.ready = true
	recording := t.recording
	t.mu.Unlock()
	t.render(recording)

	go t.menuLoop(mStart, mStop, mAbout, mQuit)
	t.log.Debug("tray ready")
}

func (t *Tray) menuLoop(mStart, mStop, mAbout, mQuit *systray.MenuItem) {
	call := func(fn func()) {
		if fn != nil {
			fn()
		}
	}
	for {
		select {
		case <-mStart.ClickedCh:
			call(t.actions.Start)
		case <-mStop.ClickedCh:
			call(t.actions.Stop)
		case <-mAbout.ClickedCh:
			call(t.actions.About)
		case <-mQuit.ClickedCh:
			call(t.actions.Quit)
			return
		}
	}
}

// SetIdle shows the idle icon.
func (t *Tray) SetIdle() { t.set(false) }

// SetRecording shows the recording icon.
func (t *Tray) SetRecording() { t.set(true) }

func (t *Tray) set(recording bool) {
	t.mu.Lock()
	t.recording = recording
	ready := t.ready
	t.mu.Unlock()
	if ready {
		t.render(recording)
	}
}

func (t *Tray) render(recording bool) {
	t.mu.Lock()
	mStart, mStop := t.mStart, t.mStop
	t.mu.Unlock()

	if recording {
		systray.SetIcon(t.icons.Recording)
		systray.SetTooltip("Dictation: recording")
		mStart.Disable()
		mStop.Enable()
		return
	}
	systray.SetIcon(t.icons.Idle)
	systray.SetTooltip("Dictation: idle")
	mStart.Enable()
	mStop.Disable()
}
