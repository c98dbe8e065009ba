package hotkey

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"golang.design/x/hotkey"
)

var namedKeys = map[string]hotkey.Key{
	"space":  hotkey.KeySpace,
	"enter":  hotkey.KeyReturn,
	"return": hotkey.KeyReturn,
	"esc":    hotkey.KeyEscape,
	"escape": hotkey.KeyEscape,
	"tab":    hotkey.KeyTab,
	"delete": hotkey.KeyDelete,
	"left":   hotkey.KeyLeft,
	"right":  hotkey.KeyRight,
	"up":     hotkey.KeyUp,
	"down":   hotkey.KeyDown,
}

var letterKeys = [26]hotkey.Key{
	hotkey.KeyA, hotkey.KeyB, hotkey.KeyC, hotkey.KeyD, hotkey.KeyE, hotkey.KeyF,
	hotkey.KeyG, hotkey.KeyH, hotkey.KeyI, hotkey.KeyJ, hotkey.KeyK, hotkey.KeyL,
	hotkey.KeyM, hotkey.KeyN, hotkey.KeyO, hotkey.KeyP, hotkey.KeyQ, hotkey.KeyR,
	hotkey.KeyS, hotkey.KeyT, hotkey.KeyU, hotkey.KeyV, hotkey.KeyW, hotkey.KeyX,
	hotkey.KeyY, hotkey.KeyZ,
}

var digitKeys = [10]hotkey.Key{
	hotkey.Key0, hotkey.Key1, hotkey.Key2, hotkey.Key3, hotkey.Key4,
	hotkey.Key5, hotkey.Key6, hotkey.Key7, hotkey.Key8, hotkey.Key9,
}

var functionKeys = [12]hotkey.Key{
	hotkey.KeyF1, hotkey.KeyF2, hotkey.KeyF3, hotkey.KeyF4, hotkey.KeyF5, hotkey.KeyF6,
	hotkey.KeyF7, hotkey.KeyF8, hotkey.KeyF9, hotkey.KeyF10, hotkey.KeyF11, hotkey.KeyF12,
}

// Parse accepts strings like "ctrl+shift+r", "alt+F1" or "esc" and returns
// the modifiers and key. Modifier names follow the platform: alt/option,
// ctrl/control, shift, super/win/cmd.
func Parse(s string) ([]hotkey.Modifier, hotkey.Key, error) {
	if strings.TrimSpace(s) == "" {
		return nil, 0, fmt.Errorf("empty key")
	}
	parts := strings.Split(s, "+")
	for i := range parts {
		parts[i] = strings.TrimSpace(strings.ToLower(parts[i]))
	}

	var mods []hotkey.Modifier
	for _, p := range parts[:len(parts)-1] {
		m, ok := modifiers[p]
		if !ok {
			return nil, 0, fmt.Errorf("unsupported modifier %q in %s", p, s)
		}
		mods = append(mods, m)
	}

	keyToken := parts[len(parts)-1]
	if len(keyToken) == 1 {
		ch := keyToken[0]
		if ch >= 'a' && ch <= 'z' {
			return mods, letterKeys[ch-'a'], nil
		}
		if ch >= '0' && ch <= '9' {
			return mods, digitKeys[ch-'0'], nil
		}
	}
	if k, ok := namedKeys[keyToken]; ok {
		return mods, k, nil
	}
	if strings.HasPrefix(keyToken, "f") {
		if n, err := strconv.Atoi(keyToken[1:]); err == nil && n >= 1 && n <= len(functionKeys) {
			return mods, functionKeys[n-1], nil
		}
	}
	return nil, 0, fmt.Errorf("unsupported key token: %s", s)
}

// Binding ties a key combination to an action.
type Binding struct {
	Name    string
	Spec    string
	Handler func()
}

// Listener holds registered global hotkeys.
type Listener struct {
	log  *slog.Logger
	keys []*hotkey.Hotkey
	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// Listen registers every binding and dispatches keydown events to its
// handler on a goroutine per binding. Bindings with an empty Spec are
// skipped. If any registration fails the ones already made are undone.
func Listen(bindings []Binding, log *slog.Logger) (*Listener, error) {
	if log == nil {
		log = slog.Default()
	}
	l := &Listener{log: log, stop: make(chan struct{})}

	type parsed struct {
		b    Binding
		mods []hotkey.Modifier
		key  hotkey.Key
	}
	var all []parsed
	for _, b := range bindings {
		if b.Spec == "" {
			continue
		}
		mods, key, err := Parse(b.Spec)
		if err != nil {
			return nil, fmt.Errorf("invalid %s hotkey '%s': %w", b.Name, b.Spec, err)
		}
		all = append(all, parsed{b, mods, key})
	}

	for _, p := range all {
		hk := hotkey.New(p.mods, p.key)
		if err := hk.Register(); err != nil {
			l.unregister()
			return nil, fmt.Errorf("register %s hotkey '%s': %w", p.b.Name, p.b.Spec, err)
		}
		l.keys = append(l.keys, hk)
		log.Debug("hotkey registered", slog.String("action", p.b.Name), slog.String("keys", p.b.Spec))

		l.wg.Add(1)
		go l.dispatch(hk, p.b)
	}
	return l, nil
}

func (l *Listener) dispatch(hk *hotkey.Hotkey, b Binding) {
	defer l.wg.Done()
	for {
		select {
		case <-l.stop:
			return
		case _, ok := <-hk.Keydown():
			if !ok {
				return
			}
			l.log.Debug("hotkey pressed", slog.String("action", b.Name))
			if b.Handler != nil {
				b.Handler()
			}
		}
	}
}

func (l *Listener) unregister() error {
	var errs []error
	for _, hk := range l.keys {
		if err := hk.Unregister(); err != nil {
			errs = append(errs, err)
		}
	}
	l.keys = nil
	return errors.Join(errs...)
}

// Close stops dispatching and unregisters all hotkeys.
func (l *Listener) Close() error {
	var err error
	l.once.Do(func() {
		close(l.stop)
		l.wg.Wait()
		err = l.unregister()
	})
	return err
}
