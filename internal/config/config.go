package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Backend names accepted in BACKEND.
const (
	BackendOpenAI = "openai"
	BackendHTTP   = "http"
)

// Config holds configurable parameters.
type Config struct {
	Backend        string `json:"BACKEND" yaml:"BACKEND" toml:"BACKEND"`
	APIEndpoint    string `json:"API_ENDPOINT" yaml:"API_ENDPOINT" toml:"API_ENDPOINT"`
	Token          string `json:"TOKEN" yaml:"TOKEN" toml:"TOKEN"`
	TokenFile      string `json:"TOKEN_FILE" yaml:"TOKEN_FILE" toml:"TOKEN_FILE"`
	Model          string `json:"MODEL" yaml:"MODEL" toml:"MODEL"`
	Language       string `json:"LANGUAGE" yaml:"LANGUAGE" toml:"LANGUAGE"`
	Prompt         string `json:"PROMPT" yaml:"PROMPT" toml:"PROMPT"`
	TEXTPath       string `json:"TEXT_PATH" yaml:"TEXT_PATH" toml:"TEXT_PATH"`
	ExtraConfig    string `json:"ExtraConfig" yaml:"ExtraConfig" toml:"ExtraConfig"`
	RequestTimeout int    `json:"REQUEST_TIMEOUT" yaml:"REQUEST_TIMEOUT" toml:"REQUEST_TIMEOUT"`
	EnableHTTP2    bool   `json:"ENABLE_HTTP2" yaml:"ENABLE_HTTP2" toml:"ENABLE_HTTP2"`
	VerifySSL      bool   `json:"VERIFY_SSL" yaml:"VERIFY_SSL" toml:"VERIFY_SSL"`

	StartKey     string `json:"START_KEY" yaml:"START_KEY" toml:"START_KEY"`
	StopKey      string `json:"STOP_KEY" yaml:"STOP_KEY" toml:"STOP_KEY"`
	CancelKey    string `json:"CANCEL_KEY" yaml:"CANCEL_KEY" toml:"CANCEL_KEY"`
	PasteDelayMS int    `json:"PASTE_DELAY_MS" yaml:"PASTE_DELAY_MS" toml:"PASTE_DELAY_MS"`
	StopGraceMS  int    `json:"STOP_GRACE_MS" yaml:"STOP_GRACE_MS" toml:"STOP_GRACE_MS"`

	Notification bool   `json:"NOTIFICATION" yaml:"NOTIFICATION" toml:"NOTIFICATION"`
	Tray         bool   `json:"TRAY" yaml:"TRAY" toml:"TRAY"`
	MetricsAddr  string `json:"METRICS_ADDR" yaml:"METRICS_ADDR" toml:"METRICS_ADDR"`

	LogLevel     string `json:"LOG_LEVEL" yaml:"LOG_LEVEL" toml:"LOG_LEVEL"`
	RECORD_DEBUG bool   `json:"RECORD_DEBUG" yaml:"RECORD_DEBUG" toml:"RECORD_DEBUG"`
	UPLOAD_DEBUG bool   `json:"UPLOAD_DEBUG" yaml:"UPLOAD_DEBUG" toml:"UPLOAD_DEBUG"`
	HOTKEY_DEBUG bool   `json:"HOTKEY_DEBUG" yaml:"HOTKEY_DEBUG" toml:"HOTKEY_DEBUG"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Backend:        BackendOpenAI,
		APIEndpoint:    "",
		Token:          "",
		TokenFile:      "apikey.txt",
		Model:          "whisper-1",
		Language:       "",
		Prompt:         "",
		TEXTPath:       "text",
		ExtraConfig:    "",
		RequestTimeout: 30,
		EnableHTTP2:    true,
		VerifySSL:      true,
		StartKey:       "ctrl+shift+r",
		StopKey:        "ctrl+shift+q",
		CancelKey:      "",
		PasteDelayMS:   100,
		StopGraceMS:    2000,
		Notification:   true,
		Tray:           true,
		MetricsAddr:    "",
		LogLevel:       "info",
		RECORD_DEBUG:   false,
		UPLOAD_DEBUG:   false,
		HOTKEY_DEBUG:   false,
	}
}

// PasteDelay returns PASTE_DELAY_MS as a duration.
func (c Config) PasteDelay() time.Duration {
	return time.Duration(c.PasteDelayMS) * time.Millisecond
}

// StopGrace returns STOP_GRACE_MS as a duration.
func (c Config) StopGrace() time.Duration {
	return time.Duration(c.StopGraceMS) * time.Millisecond
}

// Timeout returns REQUEST_TIMEOUT as a duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// Load loads config from path if provided. The format follows the file
// extension: .json, .yaml/.yml or .toml.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json", "":
		dec := json.NewDecoder(bytes.NewReader(b))
		err = dec.Decode(&cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &cfg)
	case ".toml":
		_, err = toml.Decode(string(b), &cfg)
	default:
		return cfg, fmt.Errorf("unsupported config format %q", ext)
	}
	if err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// SaveDefault writes a default config to path, formatted by its extension.
func SaveDefault(path string) error {
	cfg := DefaultConfig()
	var (
		b   []byte
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json", "":
		b, err = json.MarshalIndent(cfg, "", "  ")
	case ".yaml", ".yml":
		b, err = yaml.Marshal(cfg)
	case ".toml":
		var buf bytes.Buffer
		err = toml.NewEncoder(&buf).Encode(cfg)
		b = buf.Bytes()
	default:
		return fmt.Errorf("unsupported config format %q", ext)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// LoadTokenFile fills Token from TokenFile when no token was configured.
// A missing file is not an error.
func LoadTokenFile(cfg *Config) error {
	if cfg.Token != "" || cfg.TokenFile == "" {
		return nil
	}
	b, err := os.ReadFile(cfg.TokenFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read token file: %w", err)
	}
	cfg.Token = strings.TrimSpace(string(b))
	return nil
}

// Validate verifies config fields and returns an error if any value is invalid.
func Validate(cfg *Config) error {
	switch strings.ToLower(cfg.Backend) {
	case BackendOpenAI:
	case BackendHTTP:
		if cfg.APIEndpoint == "" {
			return fmt.Errorf("API_ENDPOINT is required for the %s backend", BackendHTTP)
		}
	default:
		return fmt.Errorf("invalid BACKEND: %s (allowed: openai, http)", cfg.Backend)
	}
	if cfg.RequestTimeout <= 0 {
		return fmt.Errorf("invalid REQUEST_TIMEOUT: %d (must be > 0)", cfg.RequestTimeout)
	}
	if cfg.PasteDelayMS <= 0 {
		return fmt.Errorf("invalid PASTE_DELAY_MS: %d (must be > 0)", cfg.PasteDelayMS)
	}
	if cfg.StopGraceMS <= 0 {
		return fmt.Errorf("invalid STOP_GRACE_MS: %d (must be > 0)", cfg.StopGraceMS)
	}
	if strings.TrimSpace(cfg.StartKey) == "" || strings.TrimSpace(cfg.StopKey) == "" {
		return fmt.Errorf("START_KEY and STOP_KEY must be set")
	}
	if cfg.ExtraConfig != "" {
		var m map[string]interface{}
		if err := json.Unmarshal([]byte(cfg.ExtraConfig), &m); err != nil {
			return fmt.Errorf("invalid ExtraConfig JSON: %w", err)
		}
	}
	if _, err := ParseLevel(cfg.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps LOG_LEVEL to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return l, fmt.Errorf("invalid LOG_LEVEL: %s (allowed: debug, info, warn, error)", s)
	}
	return l, nil
}
