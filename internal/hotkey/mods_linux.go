package hotkey

import "golang.design/x/hotkey"

// On X11 Mod1 is conventionally Alt and Mod4 is Super.
var modifiers = map[string]hotkey.Modifier{
	"ctrl":    hotkey.ModCtrl,
	"control": hotkey.ModCtrl,
	"shift":   hotkey.ModShift,
	"alt":     hotkey.Mod1,
	"super":   hotkey.Mod4,
	"win":     hotkey.Mod4,
	"meta":    hotkey.Mod4,
}
