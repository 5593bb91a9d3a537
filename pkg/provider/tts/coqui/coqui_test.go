package coqui_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/wiredbrain/axiom/pkg/audio"
	"github.com/wiredbrain/axiom/pkg/provider/tts/coqui"
)

func wavClip() []byte {
	return audio.EncodeWAV(make([]byte, 320), 22050, 1)
}

func TestSynthesizeStandard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tts" || r.Method != http.MethodGet {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.URL.Query().Get("text"); got != "hello lab" {
			t.Errorf("text param: got %q", got)
		}
		w.Header().Set("Content-Type", "audio/wav")
		w.Write(wavClip())
	}))
	defer srv.Close()

	s, err := coqui.New(srv.URL)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	clip, err := s.Synthesize(context.Background(), "hello lab")
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if clip.SampleRate != 22050 {
		t.Errorf("sample rate: got %d", clip.SampleRate)
	}
	if len(clip.PCM) != 320 {
		t.Errorf("pcm length: got %d", len(clip.PCM))
	}
}

func TestSynthesizeXTTS(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tts_to_audio/" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req struct {
			Text       string `json:"text"`
			SpeakerWav string `json:"speaker_wav"`
			Language   string `json:"language"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if req.SpeakerWav != "lab-voice" || req.Language != "en" {
			t.Errorf("request body: %+v", req)
		}
		w.Write(wavClip())
	}))
	defer srv.Close()

	s, err := coqui.New(srv.URL, coqui.WithAPIMode(coqui.APIModeXTTS), coqui.WithSpeaker("lab-voice"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := s.Synthesize(context.Background(), "hello"); err != nil {
		t.Fatalf("synthesize: %v", err)
	}
}

func TestSynthesizeEmptyText(t *testing.T) {
	s, err := coqui.New("http://localhost:1")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	clip, err := s.Synthesize(context.Background(), "   ")
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if len(clip.PCM) != 0 {
		t.Errorf("expected empty clip, got %d bytes", len(clip.PCM))
	}
}

func TestSynthesizeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s, err := coqui.New(srv.URL)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := s.Synthesize(context.Background(), "hello"); err == nil {
		t.Error("expected error from failing server")
	}
}

func TestNewRequiresServerURL(t *testing.T) {
	if _, err := coqui.New(""); err == nil {
		t.Error("expected error for empty server URL")
	}
}
