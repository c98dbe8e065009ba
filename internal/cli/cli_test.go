package cli

import (
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/noneedrelax/VoiceStream/internal/config"
	"github.com/noneedrelax/VoiceStream/internal/record"
)

func testDeps(env map[string]string, devices []record.InputDevice, devErr error) *Dependencies {
	return &Dependencies{
		Lookup: func(k string) (string, bool) {
			v, ok := env[k]
			return v, ok
		},
		Devices: func() ([]record.InputDevice, error) { return devices, devErr },
		Stderr:  io.Discard,
	}
}

func execute(t *testing.T, deps *Dependencies, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(deps)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, testDeps(nil, nil, nil), "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "voicestream ") {
		t.Fatalf("unexpected version output: %q", out)
	}
}

func TestInitConfigWritesDefaultsAndRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voicestream.yaml")

	if _, err := execute(t, testDeps(nil, nil, nil), "init-config", path); err != nil {
		t.Fatalf("init-config: %v", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load written config: %v", err)
	}
	if cfg != config.DefaultConfig() {
		t.Fatalf("written config differs from defaults: %+v", cfg)
	}

	if _, err := execute(t, testDeps(nil, nil, nil), "init-config", path); err == nil {
		t.Fatalf("expected an error when the file exists")
	}
	if _, err := execute(t, testDeps(nil, nil, nil), "init-config", "--force", path); err != nil {
		t.Fatalf("init-config --force: %v", err)
	}
}

func TestDoctorAllChecksPass(t *testing.T) {
	deps := testDeps(
		map[string]string{"OPENAI_API_KEY": "sk-test"},
		[]record.InputDevice{{Name: "Built-in"}, {Name: "USB Mic", Default: true}},
		nil,
	)
	out, err := execute(t, deps, "doctor")
	if err != nil {
		t.Fatalf("doctor: %v", err)
	}
	for _, want := range []string{
		"✅ Configuration: valid",
		"✅ API key: configured",
		"✅ Start hotkey: ctrl+shift+r",
		"✅ Cancel hotkey: disabled",
		"✅ Microphone: USB Mic",
		"All prerequisites met",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in output:\n%s", want, out)
		}
	}
}

func TestDoctorReportsProblems(t *testing.T) {
	deps := testDeps(nil, nil, errors.New("portaudio init failed"))
	missing := filepath.Join(t.TempDir(), "apikey.txt")
	out, err := execute(t, deps, "doctor",
		"--token-file", missing,
		"--start-key", "ctrl+shift+nope",
		"--backend", "http",
	)
	if err != nil {
		t.Fatalf("doctor: %v", err)
	}
	for _, want := range []string{
		"❌ Configuration: API_ENDPOINT is required",
		"❌ API key: not set",
		"❌ Endpoint",
		"❌ Start hotkey",
		"❌ Microphone: portaudio init failed",
		"Some prerequisites are missing",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in output:\n%s", want, out)
		}
	}
}

func TestDevicesMarksDefault(t *testing.T) {
	deps := testDeps(nil, []record.InputDevice{
		{Name: "Built-in", HostAPI: "ALSA", MaxInputChannels: 2, DefaultSampleRate: 44100},
		{Name: "USB Mic", HostAPI: "ALSA", MaxInputChannels: 1, DefaultSampleRate: 16000, Default: true},
	}, nil)
	out, err := execute(t, deps, "devices")
	if err != nil {
		t.Fatalf("devices: %v", err)
	}
	if !strings.Contains(out, "  Built-in (ALSA, 2 ch, 44100 Hz)") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if !strings.Contains(out, "* USB Mic (ALSA, 1 ch, 16000 Hz)") {
		t.Fatalf("default device not marked:\n%s", out)
	}
}

func TestTranscribeRequiresFile(t *testing.T) {
	if _, err := execute(t, testDeps(nil, nil, nil), "transcribe"); err == nil {
		t.Fatalf("expected an argument error")
	}
}

func TestLoggersRaiseDebugComponents(t *testing.T) {
	var buf bytes.Buffer
	deps := &Dependencies{Stderr: &buf}
	cfg := config.DefaultConfig()
	cfg.LogLevel = "warn"
	cfg.RECORD_DEBUG = true

	logs := deps.Loggers(cfg)
	logs("record").Debug("chunk read")
	logs("asr").Info("uploading")

	out := buf.String()
	if !strings.Contains(out, "component=record") || !strings.Contains(out, "chunk read") {
		t.Fatalf("record debug output missing: %q", out)
	}
	if strings.Contains(out, "uploading") {
		t.Fatalf("asr info should be filtered at warn level: %q", out)
	}
}
