package asr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"sort"
	"time"

	"github.com/noneedrelax/VoiceStream/internal/audio/wav"
	"github.com/noneedrelax/VoiceStream/internal/config"
	"github.com/noneedrelax/VoiceStream/internal/jsonpath"
)

const userAgent = "voicestream/1.0"

// HTTPClient uploads audio as multipart form data to a generic
// speech-to-text endpoint and extracts the text from its JSON reply.
type HTTPClient struct {
	cfg        config.Config
	httpClient *http.Client
	extra      map[string]interface{}
	log        *slog.Logger
}

// NewHTTP creates an HTTP backend and parses ExtraConfig.
func NewHTTP(cfg config.Config, httpClient *http.Client, log *slog.Logger) (*HTTPClient, error) {
	if log == nil {
		log = slog.Default()
	}
	c := &HTTPClient{cfg: cfg, httpClient: httpClient, log: log}
	if c.httpClient == nil {
		c.httpClient = NewHTTPClient(cfg)
	}
	if cfg.ExtraConfig != "" {
		c.extra = make(map[string]interface{})
		if err := json.Unmarshal([]byte(cfg.ExtraConfig), &c.extra); err != nil {
			return nil, fmt.Errorf("invalid extra-config JSON: %w", err)
		}
	}
	return c, nil
}

// Transcribe performs a single upload. It does not retry.
func (c *HTTPClient) Transcribe(ctx context.Context, audio *wav.EncodedAudio) (string, error) {
	if c.cfg.Token == "" {
		return "", &Error{Kind: KindAuth, Err: ErrMissingToken}
	}
	if c.cfg.APIEndpoint == "" {
		return "", &Error{Kind: KindService, Err: fmt.Errorf("API endpoint is empty")}
	}

	body, contentType, err := c.form(audio)
	if err != nil {
		return "", &Error{Kind: KindService, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIEndpoint, body)
	if err != nil {
		return "", &Error{Kind: KindService, Err: fmt.Errorf("new request: %w", err)}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("User-Agent", userAgent)

	c.log.Debug("uploading", slog.String("endpoint", c.cfg.APIEndpoint), slog.Int("bytes", len(audio.Data)))
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.log.Debug("request finished", slog.Duration("elapsed", time.Since(start)))
	if err != nil {
		return "", &Error{Kind: KindNetwork, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Error{Kind: KindNetwork, StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", statusError(resp.StatusCode, respBody)
	}

	text, err := jsonpath.Text(respBody, c.cfg.TEXTPath)
	if err != nil {
		return "", &Error{Kind: KindService, StatusCode: resp.StatusCode, Body: formatResponse(respBody), Err: err}
	}
	c.log.Debug("response", slog.String("body", formatResponse(respBody)))
	return text, nil
}

// form builds the multipart body: the audio under "file" plus model,
// language, prompt and the ExtraConfig fields. Field order is sorted so the
// body is reproducible.
func (c *HTTPClient) form(audio *wav.EncodedAudio) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	name := audio.Name
	if name == "" {
		name = wav.FileName
	}
	part, err := writer.CreateFormFile("file", name)
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(audio.Data); err != nil {
		return nil, "", fmt.Errorf("write form file: %w", err)
	}

	fields := make(map[string]interface{})
	if c.cfg.Model != "" {
		fields["model"] = c.cfg.Model
	}
	if c.cfg.Language != "" {
		fields["language"] = c.cfg.Language
	}
	if c.cfg.Prompt != "" {
		fields["prompt"] = c.cfg.Prompt
	}
	for k, v := range c.extra {
		fields[k] = v
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := writer.WriteField(k, fieldValue(fields[k])); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", k, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return body, writer.FormDataContentType(), nil
}

func fieldValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case bool, float64, int:
		return fmt.Sprintf("%v", val)
	default:
		if b, err := json.Marshal(val); err == nil {
			return string(b)
		}
		return fmt.Sprintf("%v", val)
	}
}
