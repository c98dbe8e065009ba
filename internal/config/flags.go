package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// FlagValues holds parsed flags. Whether a flag was given is tracked by the
// flag set itself, so only explicitly set flags override the config.
type FlagValues struct {
	ConfigPath string

	Backend        string
	APIEndpoint    string
	Token          string
	TokenFile      string
	Model          string
	Language       string
	Prompt         string
	TEXTPath       string
	ExtraConfig    string
	RequestTimeout int
	EnableHTTP2    bool
	VerifySSL      bool

	StartKey     string
	StopKey      string
	CancelKey    string
	PasteDelayMS int
	StopGraceMS  int

	Notification bool
	Tray         bool
	MetricsAddr  string

	LogLevel     string
	RECORD_DEBUG bool
	UPLOAD_DEBUG bool
	HOTKEY_DEBUG bool
}

// boolFlag accepts yes/no and 1/0 in addition to true/false.
type boolFlag struct {
	target *bool
}

func (b *boolFlag) String() string {
	if b == nil || b.target == nil {
		return "false"
	}
	return fmt.Sprintf("%v", *b.target)
}

func (b *boolFlag) Set(v string) error {
	n, err := parseBoolExt(v)
	if err != nil {
		return err
	}
	*b.target = n
	return nil
}

func (b *boolFlag) Type() string { return "bool" }

func parseBoolExt(v string) (bool, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	switch v {
	case "1", "true", "yes", "y", "on":
		return true, nil
	case "0", "false", "no", "n", "off":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean: %s", v)
}

func boolVar(fs *pflag.FlagSet, p *bool, name string, def bool, usage string) {
	*p = def
	f := fs.VarPF(&boolFlag{p}, name, "", usage)
	f.NoOptDefVal = "true"
}

// BindFlags registers all config flags on fs and returns the value holder.
// Defaults shown in help are those of DefaultConfig.
func BindFlags(fs *pflag.FlagSet) *FlagValues {
	fv := &FlagValues{}
	d := DefaultConfig()

	fs.StringVarP(&fv.ConfigPath, "config", "c", "", "config file (.json, .yaml, .toml)")

	fs.StringVar(&fv.Backend, "backend", d.Backend, "transcription backend (openai, http)")
	fs.StringVar(&fv.APIEndpoint, "api-endpoint", d.APIEndpoint, "API endpoint URL (base URL for openai)")
	fs.StringVar(&fv.Token, "token", d.Token, "authorization token")
	fs.StringVar(&fv.TokenFile, "token-file", d.TokenFile, "file holding the token when none is configured")
	fs.StringVar(&fv.Model, "model", d.Model, "model")
	fs.StringVar(&fv.Language, "language", d.Language, "language")
	fs.StringVar(&fv.Prompt, "prompt", d.Prompt, "prompt")
	fs.StringVar(&fv.TEXTPath, "text-path", d.TEXTPath, "JSON path to extract text (http backend)")
	fs.StringVar(&fv.ExtraConfig, "extra-config", d.ExtraConfig, "extra JSON fields merged into the upload form")
	fs.IntVar(&fv.RequestTimeout, "request-timeout", d.RequestTimeout, "request timeout seconds")
	boolVar(fs, &fv.EnableHTTP2, "enable-http2", d.EnableHTTP2, "enable HTTP/2")
	boolVar(fs, &fv.VerifySSL, "verify-ssl", d.VerifySSL, "verify TLS certificates")

	fs.StringVar(&fv.StartKey, "start-key", d.StartKey, "start recording hotkey")
	fs.StringVar(&fv.StopKey, "stop-key", d.StopKey, "stop and transcribe hotkey")
	fs.StringVar(&fv.CancelKey, "cancel-key", d.CancelKey, "cancel recording hotkey (empty disables)")
	fs.IntVar(&fv.PasteDelayMS, "paste-delay-ms", d.PasteDelayMS, "delay between clipboard write and paste")
	fs.IntVar(&fv.StopGraceMS, "stop-grace-ms", d.StopGraceMS, "how long stop waits for the capture loop")

	boolVar(fs, &fv.Notification, "notification", d.Notification, "enable desktop notifications")
	boolVar(fs, &fv.Tray, "tray", d.Tray, "show the tray icon")
	fs.StringVar(&fv.MetricsAddr, "metrics-addr", d.MetricsAddr, "serve Prometheus metrics on this address")

	fs.StringVar(&fv.LogLevel, "log-level", d.LogLevel, "log level (debug, info, warn, error)")
	boolVar(fs, &fv.RECORD_DEBUG, "record-debug", d.RECORD_DEBUG, "enable record debug output")
	boolVar(fs, &fv.UPLOAD_DEBUG, "upload-debug", d.UPLOAD_DEBUG, "enable upload debug output")
	boolVar(fs, &fv.HOTKEY_DEBUG, "hotkey-debug", d.HOTKEY_DEBUG, "enable hotkey debug output")

	return fv
}

// ApplyFlags applies flags that were explicitly set on fs to cfg.
func ApplyFlags(cfg *Config, fs *pflag.FlagSet, fv *FlagValues) {
	set := func(name string) bool {
		f := fs.Lookup(name)
		return f != nil && f.Changed
	}

	if set("backend") {
		cfg.Backend = fv.Backend
	}
	if set("api-endpoint") {
		cfg.APIEndpoint = fv.APIEndpoint
	}
	if set("token") {
		cfg.Token = fv.Token
	}
	if set("token-file") {
		cfg.TokenFile = fv.TokenFile
	}
	if set("model") {
		cfg.Model = fv.Model
	}
	if set("language") {
		cfg.Language = fv.Language
	}
	if set("prompt") {
		cfg.Prompt = fv.Prompt
	}
	if set("text-path") {
		cfg.TEXTPath = fv.TEXTPath
	}
	if set("extra-config") {
		cfg.ExtraConfig = fv.ExtraConfig
	}
	if set("request-timeout") {
		cfg.RequestTimeout = fv.RequestTimeout
	}
	if set("enable-http2") {
		cfg.EnableHTTP2 = fv.EnableHTTP2
	}
	if set("verify-ssl") {
		cfg.VerifySSL = fv.VerifySSL
	}

	if set("start-key") {
		cfg.StartKey = fv.StartKey
	}
	if set("stop-key") {
		cfg.StopKey = fv.StopKey
	}
	if set("cancel-key") {
		cfg.CancelKey = fv.CancelKey
	}
	if set("paste-delay-ms") {
		cfg.PasteDelayMS = fv.PasteDelayMS
	}
	if set("stop-grace-ms") {
		cfg.StopGraceMS = fv.StopGraceMS
	}

	if set("notification") {
		cfg.Notification = fv.Notification
	}
	if set("tray") {
		cfg.Tray = fv.Tray
	}
	if set("metrics-addr") {
		cfg.MetricsAddr = fv.MetricsAddr
	}

	if set("log-level") {
		cfg.LogLevel = fv.LogLevel
	}
	if set("record-debug") {
		cfg.RECORD_DEBUG = fv.RECORD_DEBUG
	}
	if set("upload-debug") {
		cfg.UPLOAD_DEBUG = fv.UPLOAD_DEBUG
	}
	if set("hotkey-debug") {
		cfg.HOTKEY_DEBUG = fv.HOTKEY_DEBUG
	}
}

// Resolve builds the effective config: defaults, then the config file, then
// the environment, then explicitly set flags. The token file is read last and
// only when no token was given by any of those.
func Resolve(fs *pflag.FlagSet, fv *FlagValues, lookup func(string) (string, bool)) (Config, error) {
	cfg, err := Load(fv.ConfigPath)
	if err != nil {
		return cfg, err
	}
	if err := ApplyEnv(&cfg, lookup); err != nil {
		return cfg, err
	}
	ApplyFlags(&cfg, fs, fv)
	if err := LoadTokenFile(&cfg); err != nil {
		return cfg, err
	}
	return cfg, Validate(&cfg)
}
