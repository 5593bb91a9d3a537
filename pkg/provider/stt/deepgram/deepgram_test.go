package deepgram_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/wiredbrain/axiom/pkg/provider/stt/deepgram"
)

func transcriptServer(t *testing.T, transcript string, confidence float64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Token test-key" {
			t.Errorf("authorization header: got %q", got)
		}
		if got := r.Header.Get("Content-Type"); got != "audio/wav" {
			t.Errorf("content type: got %q", got)
		}
		if got := r.URL.Query().Get("model"); got != "nova-2" {
			t.Errorf("model param: got %q", got)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"results": map[string]any{
				"channels": []map[string]any{{
					"alternatives": []map[string]any{{
						"transcript": transcript,
						"confidence": confidence,
					}},
				}},
			},
		})
	}))
}

func TestTranscribe(t *testing.T) {
	srv := transcriptServer(t, "what equipment do you have", 0.97)
	defer srv.Close()

	tr, err := deepgram.New("test-key", deepgram.WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	got, err := tr.Transcribe(context.Background(), make([]float32, 1600))
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if got.Text != "what equipment do you have" {
		t.Errorf("text: got %q", got.Text)
	}
	if got.Confidence != 0.97 {
		t.Errorf("confidence: got %v", got.Confidence)
	}
}

func TestTranscribeEmptyUtterance(t *testing.T) {
	tr, err := deepgram.New("test-key", deepgram.WithBaseURL("http://localhost:1"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	// No samples means no request at all.
	got, err := tr.Transcribe(context.Background(), nil)
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if got.Text != "" {
		t.Errorf("text: got %q, want empty", got.Text)
	}
}

func TestTranscribeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	tr, err := deepgram.New("test-key", deepgram.WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	_, err = tr.Transcribe(context.Background(), make([]float32, 100))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Errorf("error should carry the status code: %v", err)
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := deepgram.New(""); err == nil {
		t.Error("expected error for empty API key")
	}
}
