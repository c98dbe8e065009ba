package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// EnvPrefix is prepended to every config key read from the environment.
const EnvPrefix = "VOICESTREAM_"

// LoadDotEnv loads variables from the given .env files into the process
// environment without overriding variables that are already set. Missing
// files are skipped.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

type envField struct {
	key   string
	apply func(cfg *Config, v string) error
}

func envString(key string, get func(*Config) *string) envField {
	return envField{key, func(cfg *Config, v string) error {
		*get(cfg) = v
		return nil
	}}
}

func envInt(key string, get func(*Config) *int) envField {
	return envField{key, func(cfg *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*get(cfg) = n
		return nil
	}}
}

func envBool(key string, get func(*Config) *bool) envField {
	return envField{key, func(cfg *Config, v string) error {
		b, err := parseBoolExt(v)
		if err != nil {
			return err
		}
		*get(cfg) = b
		return nil
	}}
}

var envFields = []envField{
	envString("BACKEND", func(c *Config) *string { return &c.Backend }),
	envString("API_ENDPOINT", func(c *Config) *string { return &c.APIEndpoint }),
	envString("TOKEN", func(c *Config) *string { return &c.Token }),
	envString("TOKEN_FILE", func(c *Config) *string { return &c.TokenFile }),
	envString("MODEL", func(c *Config) *string { return &c.Model }),
	envString("LANGUAGE", func(c *Config) *string { return &c.Language }),
	envString("PROMPT", func(c *Config) *string { return &c.Prompt }),
	envString("TEXT_PATH", func(c *Config) *string { return &c.TEXTPath }),
	envString("EXTRA_CONFIG", func(c *Config) *string { return &c.ExtraConfig }),
	envInt("REQUEST_TIMEOUT", func(c *Config) *int { return &c.RequestTimeout }),
	envBool("ENABLE_HTTP2", func(c *Config) *bool { return &c.EnableHTTP2 }),
	envBool("VERIFY_SSL", func(c *Config) *bool { return &c.VerifySSL }),
	envString("START_KEY", func(c *Config) *string { return &c.StartKey }),
	envString("STOP_KEY", func(c *Config) *string { return &c.StopKey }),
	envString("CANCEL_KEY", func(c *Config) *string { return &c.CancelKey }),
	envInt("PASTE_DELAY_MS", func(c *Config) *int { return &c.PasteDelayMS }),
	envInt("STOP_GRACE_MS", func(c *Config) *int { return &c.StopGraceMS }),
	envBool("NOTIFICATION", func(c *Config) *bool { return &c.Notification }),
	envBool("TRAY", func(c *Config) *bool { return &c.Tray }),
	envString("METRICS_ADDR", func(c *Config) *string { return &c.MetricsAddr }),
	envString("LOG_LEVEL", func(c *Config) *string { return &c.LogLevel }),
	envBool("RECORD_DEBUG", func(c *Config) *bool { return &c.RECORD_DEBUG }),
	envBool("UPLOAD_DEBUG", func(c *Config) *bool { return &c.UPLOAD_DEBUG }),
	envBool("HOTKEY_DEBUG", func(c *Config) *bool { return &c.HOTKEY_DEBUG }),
}

// ApplyEnv overrides cfg with VOICESTREAM_* variables. OPENAI_API_KEY is
// accepted as the token when VOICESTREAM_TOKEN is not set.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if v, ok := lookup("OPENAI_API_KEY"); ok && v != "" {
		cfg.Token = v
	}
	for _, f := range envFields {
		v, ok := lookup(EnvPrefix + f.key)
		if !ok {
			continue
		}
		if err := f.apply(cfg, v); err != nil {
			return fmt.Errorf("invalid %s%s: %w", EnvPrefix, f.key, err)
		}
	}
	return nil
}
