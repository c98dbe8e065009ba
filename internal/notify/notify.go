package notify

import (
	"log/slog"

	"github.com/gen2brain/beeep"
)

// AppName is used as the notification title.
const AppName = "VoiceStream"

// AboutText is shown by the About menu item.
const AboutText = "VoiceStream\n\nHotkey dictation: press the start hotkey, speak, press the stop hotkey.\nDeveloped by Noneedrelax\nContact: noneedrelax@gmail.com"

// Notifier shows desktop notifications. Failures to display are logged and
// otherwise ignored.
type Notifier struct {
	enabled bool
	log     *slog.Logger
	notify  func(title, message, icon string) error
	alert   func(title, message, icon string) error
}

// New returns a Notifier. When enabled is false Info and Error only log.
func New(enabled bool, log *slog.Logger) *Notifier {
	if log == nil {
		log = slog.Default()
	}
	return &Notifier{enabled: enabled, log: log, notify: beeep.Notify, alert: beeep.Alert}
}

// Info shows a status message.
func (n *Notifier) Info(message string) {
	n.log.Info(message)
	n.show(n.notify, message)
}

// Error shows a failure. err is logged but only message is displayed.
func (n *Notifier) Error(message string, err error) {
	n.log.Error(message, slog.Any("error", err))
	n.show(n.notify, message)
}

// About shows the about dialog regardless of the notification setting.
func (n *Notifier) About() {
	if err := n.alert(AppName, AboutText, ""); err != nil {
		n.log.Warn("about dialog failed", slog.Any("error", err))
	}
}

func (n *Notifier) show(fn func(title, message, icon string) error, message string) {
	if !n.enabled {
		return
	}
	if err := fn(AppName, message, ""); err != nil {
		n.log.Warn("notification failed", slog.Any("error", err))
	}
}
