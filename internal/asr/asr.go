package asr

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/noneedrelax/VoiceStream/internal/audio/wav"
	"github.com/noneedrelax/VoiceStream/internal/config"
)

// Transcriber turns encoded audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio *wav.EncodedAudio) (string, error)
}

// Kind classifies a transcription failure.
type Kind int

const (
	KindAuth Kind = iota + 1
	KindNetwork
	KindService
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindNetwork:
		return "network"
	case KindService:
		return "service"
	default:
		return "unknown"
	}
}

// Error is returned by every Transcriber.
type Error struct {
	Kind       Kind
	StatusCode int    // HTTP status, 0 when no response was received
	Body       string // formatted response body, if any
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "transcription failed (%s)", e.Kind)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": status %d", e.StatusCode)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if e.Body != "" {
		fmt.Fprintf(&b, ": %s", e.Body)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

func kindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsAuth reports whether err is a missing or rejected credential.
func IsAuth(err error) bool { return kindOf(err) == KindAuth }

// IsNetwork reports whether err is a transport failure or timeout.
func IsNetwork(err error) bool { return kindOf(err) == KindNetwork }

// IsService reports whether err is a non-success or unusable response.
func IsService(err error) bool { return kindOf(err) == KindService }

// Outcome returns a short label for metrics and logs.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if k := kindOf(err); k != 0 {
		return k.String()
	}
	return "error"
}

// ErrMissingToken is wrapped in an auth Error when no credential is configured.
var ErrMissingToken = errors.New("no API token configured")

// statusError classifies a non-2xx response.
func statusError(code int, body []byte) *Error {
	kind := KindService
	if code == http.StatusUnauthorized || code == http.StatusForbidden {
		kind = KindAuth
	}
	return &Error{Kind: kind, StatusCode: code, Body: formatResponse(body)}
}

// New builds the transcriber selected by cfg.Backend.
func New(cfg config.Config, httpClient *http.Client, log *slog.Logger) (Transcriber, error) {
	if log == nil {
		log = slog.Default()
	}
	if httpClient == nil {
		httpClient = NewHTTPClient(cfg)
	}
	switch strings.ToLower(cfg.Backend) {
	case config.BackendHTTP:
		return NewHTTP(cfg, httpClient, log)
	case config.BackendOpenAI, "":
		return NewOpenAI(cfg, httpClient, log), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

func formatResponse(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	const maxText = 1000
	const maxBin = 256

	if utf8.Valid(b) {
		s := strings.TrimSpace(string(b))
		if len(s) > maxText {
			return fmt.Sprintf("%s... (truncated, total %d bytes)", s[:maxText], len(b))
		}
		return s
	}

	if len(b) > maxBin {
		return fmt.Sprintf("<binary %d bytes, prefix hex: %s...>", len(b), hex.EncodeToString(b[:maxBin]))
	}
	return fmt.Sprintf("<binary %d bytes, hex: %s>", len(b), hex.EncodeToString(b))
}
