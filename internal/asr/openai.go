package asr

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/noneedrelax/VoiceStream/internal/audio/wav"
	"github.com/noneedrelax/VoiceStream/internal/config"
)

// OpenAIClient transcribes through an OpenAI-compatible
// /audio/transcriptions endpoint.
type OpenAIClient struct {
	cfg    config.Config
	client *openai.Client
	log    *slog.Logger
}

// NewOpenAI creates the OpenAI backend. APIEndpoint, when set, replaces the
// default base URL.
func NewOpenAI(cfg config.Config, httpClient *http.Client, log *slog.Logger) *OpenAIClient {
	if log == nil {
		log = slog.Default()
	}
	oc := openai.DefaultConfig(cfg.Token)
	if cfg.APIEndpoint != "" {
		oc.BaseURL = strings.TrimRight(cfg.APIEndpoint, "/")
	}
	if httpClient != nil {
		oc.HTTPClient = httpClient
	}
	return &OpenAIClient{cfg: cfg, client: openai.NewClientWithConfig(oc), log: log}
}

// Transcribe sends one transcription request. It does not retry.
func (c *OpenAIClient) Transcribe(ctx context.Context, audio *wav.EncodedAudio) (string, error) {
	if c.cfg.Token == "" {
		return "", &Error{Kind: KindAuth, Err: ErrMissingToken}
	}

	model := c.cfg.Model
	if model == "" {
		model = openai.Whisper1
	}
	name := audio.Name
	if name == "" {
		name = wav.FileName
	}
	req := openai.AudioRequest{
		Model:    model,
		FilePath: name,
		Reader:   bytes.NewReader(audio.Data),
		Prompt:   c.cfg.Prompt,
		Language: c.cfg.Language,
		Format:   openai.AudioResponseFormatJSON,
	}

	c.log.Debug("uploading", slog.String("model", model), slog.Int("bytes", len(audio.Data)))
	start := time.Now()
	resp, err := c.client.CreateTranscription(ctx, req)
	c.log.Debug("request finished", slog.Duration("elapsed", time.Since(start)))
	if err != nil {
		return "", classifyOpenAI(err)
	}
	return resp.Text, nil
}

func classifyOpenAI(err error) *Error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		e := statusError(apiErr.HTTPStatusCode, nil)
		e.Err = err
		return e
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		e := statusError(reqErr.HTTPStatusCode, nil)
		e.Err = err
		return e
	}
	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) ||
		errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &Error{Kind: KindNetwork, Err: err}
	}
	// a response arrived but could not be decoded
	return &Error{Kind: KindService, Err: err}
}
