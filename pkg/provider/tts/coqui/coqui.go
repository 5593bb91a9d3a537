// Package coqui provides a text-to-speech synthesizer backed by a locally
// running Coqui TTS server.
//
// Two API modes are supported:
//
//   - APIModeStandard (default): the standard Coqui TTS server
//     (ghcr.io/coqui-ai/tts-cpu). Synthesis is a GET /api/tts with URL query
//     parameters.
//
//   - APIModeXTTS: the Coqui XTTS v2 API server. Synthesis is a POST
//     /tts_to_audio/ with a JSON body.
//
// Both return a WAV payload, which is decoded to raw PCM for the pipeline.
package coqui

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wiredbrain/axiom/pkg/audio"
	"github.com/wiredbrain/axiom/pkg/provider/tts"
)

const (
	defaultLanguage = "en"
	defaultTimeout  = 30 * time.Second

	xttsEndpoint     = "/tts_to_audio/"
	standardEndpoint = "/api/tts"
)

// APIMode selects which Coqui server API the synthesizer targets.
type APIMode string

const (
	// APIModeStandard targets the standard Coqui TTS server (/api/tts).
	APIModeStandard APIMode = "standard"

	// APIModeXTTS targets the Coqui XTTS v2 API server (/tts_to_audio/).
	APIModeXTTS APIMode = "xtts"
)

// Ensure Synthesizer implements the tts.Synthesizer interface.
var _ tts.Synthesizer = (*Synthesizer)(nil)

// Synthesizer implements tts.Synthesizer against a Coqui TTS server. Safe for
// concurrent use.
type Synthesizer struct {
	serverURL  string
	language   string
	speaker    string
	apiMode    APIMode
	httpClient *http.Client
}

// Option is a functional option for Synthesizer.
type Option func(*Synthesizer)

// WithLanguage sets the language code sent to the server. Default: "en".
func WithLanguage(lang string) Option {
	return func(s *Synthesizer) {
		s.language = lang
	}
}

// WithSpeaker selects the speaker voice. In XTTS mode this is the speaker
// WAV reference; in standard mode the speaker_id query parameter.
func WithSpeaker(speaker string) Option {
	return func(s *Synthesizer) {
		s.speaker = speaker
	}
}

// WithAPIMode sets the server API mode. Default: APIModeStandard.
func WithAPIMode(mode APIMode) Option {
	return func(s *Synthesizer) {
		s.apiMode = mode
	}
}

// WithTimeout sets the per-request HTTP timeout. Default: 30s.
func WithTimeout(d time.Duration) Option {
	return func(s *Synthesizer) {
		s.httpClient.Timeout = d
	}
}

// New creates a Synthesizer targeting the server at serverURL (e.g.
// "http://localhost:5002"). serverURL must not be empty.
func New(serverURL string, opts ...Option) (*Synthesizer, error) {
	if serverURL == "" {
		return nil, errors.New("coqui: serverURL must not be empty")
	}
	s := &Synthesizer{
		serverURL:  strings.TrimRight(serverURL, "/"),
		language:   defaultLanguage,
		apiMode:    APIModeStandard,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Synthesize implements tts.Synthesizer.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) (tts.Audio, error) {
	if strings.TrimSpace(text) == "" {
		return tts.Audio{}, nil
	}

	var wav []byte
	var err error
	if s.apiMode == APIModeXTTS {
		wav, err = s.fetchXTTS(ctx, text)
	} else {
		wav, err = s.fetchStandard(ctx, text)
	}
	if err != nil {
		return tts.Audio{}, err
	}

	pcm, rate, channels, err := audio.DecodeWAV(wav)
	if err != nil {
		return tts.Audio{}, fmt.Errorf("coqui: decode server response: %w", err)
	}
	return tts.Audio{PCM: audio.Downmix(pcm, channels), SampleRate: rate}, nil
}

// Ready implements tts.Synthesizer.
func (s *Synthesizer) Ready() bool {
	return true
}

type xttsRequest struct {
	Text       string `json:"text"`
	SpeakerWav string `json:"speaker_wav"`
	Language   string `json:"language"`
}

func (s *Synthesizer) fetchXTTS(ctx context.Context, text string) ([]byte, error) {
	data, err := json.Marshal(xttsRequest{Text: text, SpeakerWav: s.speaker, Language: s.language})
	if err != nil {
		return nil, fmt.Errorf("coqui: marshal tts request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.serverURL+xttsEndpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("coqui: create tts request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/wav")

	return s.do(req, xttsEndpoint)
}

func (s *Synthesizer) fetchStandard(ctx context.Context, text string) ([]byte, error) {
	params := url.Values{}
	params.Set("text", text)
	if s.speaker != "" {
		params.Set("speaker_id", s.speaker)
	}
	if s.language != "" {
		params.Set("language_id", s.language)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.serverURL+standardEndpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("coqui: create tts request: %w", err)
	}
	return s.do(req, standardEndpoint)
}

func (s *Synthesizer) do(req *http.Request, endpoint string) ([]byte, error) {
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("coqui: %s %s: %w", req.Method, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("coqui: %s %s returned status %d", req.Method, endpoint, resp.StatusCode)
	}
	wav, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("coqui: read WAV response: %w", err)
	}
	return wav, nil
}
