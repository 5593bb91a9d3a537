// Package deepgram provides a speech-to-text transcriber backed by the
// Deepgram pre-recorded audio API.
//
// Utterances are short (a spoken question), so the pre-recorded endpoint with
// a WAV body is simpler and no slower in practice than Deepgram's streaming
// websocket, and it needs no SDK: one POST per utterance via net/http.
package deepgram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/wiredbrain/axiom/pkg/audio"
	"github.com/wiredbrain/axiom/pkg/provider/stt"
)

// DefaultBaseURL is the Deepgram API endpoint for pre-recorded audio.
const DefaultBaseURL = "https://api.deepgram.com/v1/listen"

// DefaultModel is the Deepgram model used when none is configured.
const DefaultModel = "nova-2"

// Ensure Transcriber implements the stt.Transcriber interface.
var _ stt.Transcriber = (*Transcriber)(nil)

// Transcriber implements stt.Transcriber against the Deepgram API. Safe for
// concurrent use.
type Transcriber struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

type config struct {
	model   string
	baseURL string
	timeout time.Duration
}

// Option is a functional option for Transcriber.
type Option func(*config)

// WithModel selects the Deepgram model. Default: nova-2.
func WithModel(model string) Option {
	return func(c *config) {
		c.model = model
	}
}

// WithBaseURL overrides the API endpoint, for tests and proxies.
func WithBaseURL(u string) Option {
	return func(c *config) {
		c.baseURL = u
	}
}

// WithTimeout sets a per-request HTTP timeout. Default: 30s.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// New constructs a Deepgram Transcriber. apiKey must not be empty.
func New(apiKey string, opts ...Option) (*Transcriber, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("deepgram: apiKey must not be empty")
	}

	cfg := &config{model: DefaultModel, baseURL: DefaultBaseURL, timeout: 30 * time.Second}
	for _, o := range opts {
		o(cfg)
	}

	return &Transcriber{
		apiKey:     apiKey,
		model:      cfg.model,
		baseURL:    cfg.baseURL,
		httpClient: &http.Client{Timeout: cfg.timeout},
	}, nil
}

// response mirrors the slice of the Deepgram response shape we consume.
type response struct {
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string  `json:"transcript"`
				Confidence float64 `json:"confidence"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

// Transcribe implements stt.Transcriber.
func (t *Transcriber) Transcribe(ctx context.Context, samples []float32) (stt.Transcript, error) {
	if len(samples) == 0 {
		return stt.Transcript{}, nil
	}

	wav := audio.EncodeWAV(audio.EncodePCM16(samples), stt.SampleRate, 1)

	params := url.Values{}
	params.Set("model", t.model)
	params.Set("punctuate", "true")
	params.Set("smart_format", "true")
	params.Set("language", "en")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"?"+params.Encode(), bytes.NewReader(wav))
	if err != nil {
		return stt.Transcript{}, fmt.Errorf("deepgram: build request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+t.apiKey)
	req.Header.Set("Content-Type", "audio/wav")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return stt.Transcript{}, fmt.Errorf("deepgram: http: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return stt.Transcript{}, fmt.Errorf("deepgram: unexpected status %d: %s", resp.StatusCode, body)
	}

	var result response
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return stt.Transcript{}, fmt.Errorf("deepgram: decode response: %w", err)
	}

	if len(result.Results.Channels) == 0 || len(result.Results.Channels[0].Alternatives) == 0 {
		return stt.Transcript{}, nil
	}
	alt := result.Results.Channels[0].Alternatives[0]
	return stt.Transcript{Text: alt.Transcript, Confidence: alt.Confidence}, nil
}

// Ready implements stt.Transcriber.
func (t *Transcriber) Ready() bool {
	return true
}
