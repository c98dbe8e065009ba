package hotkey

import (
	"testing"

	"golang.design/x/hotkey"
)

func TestParse(t *testing.T) {
	mods, key, err := Parse("ctrl+shift+r")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if key != hotkey.KeyR {
		t.Fatalf("expected KeyR, got %v", key)
	}
	if len(mods) != 2 || mods[0] != hotkey.ModCtrl || mods[1] != hotkey.ModShift {
		t.Fatalf("unexpected modifiers %v", mods)
	}

	mods, key, err = Parse(" Alt + F1 ")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if key != hotkey.KeyF1 || len(mods) != 1 || mods[0] != modifiers["alt"] {
		t.Fatalf("unexpected parse of alt+F1: %v %v", mods, key)
	}

	mods, key, err = Parse("esc")
	if err != nil || key != hotkey.KeyEscape || len(mods) != 0 {
		t.Fatalf("unexpected parse of esc: %v %v %v", mods, key, err)
	}

	if _, key, _ = Parse("ctrl+7"); key != hotkey.Key7 {
		t.Fatalf("expected Key7, got %v", key)
	}
}

func TestParseRejects(t *testing.T) {
	for _, s := range []string{"", "  ", "hyper+x", "ctrl+", "ctrl+f13", "ctrl+pause"} {
		if _, _, err := Parse(s); err == nil {
			t.Fatalf("expected error for %q", s)
		}
	}
}

func TestListenRejectsInvalidSpecBeforeRegistering(t *testing.T) {
	_, err := Listen([]Binding{
		{Name: "start", Spec: "ctrl+nothing"},
	}, nil)
	if err == nil {
		t.Fatalf("expected error")
	}
}
