package ollama_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/wiredbrain/axiom/pkg/provider/embeddings/ollama"
)

// embedServer serves /api/embed with one canned vector per input text.
func embedServer(t *testing.T, wantModel string, vector []float32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			http.Error(w, "not found", http.StatusNotFound)
			return
		}

		var req struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		if req.Model != wantModel {
			t.Errorf("model: got %q, want %q", req.Model, wantModel)
		}

		embeddings := make([][]float32, len(req.Input))
		for i := range embeddings {
			embeddings[i] = vector
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"model": req.Model, "embeddings": embeddings})
	}))
}

func TestEmbed(t *testing.T) {
	srv := embedServer(t, "nomic-embed-text", []float32{0.1, 0.2, 0.3})
	defer srv.Close()

	p, err := ollama.New(srv.URL, "nomic-embed-text")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	vec, err := p.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if len(vec) != 3 || vec[0] != 0.1 {
		t.Errorf("unexpected vector: %v", vec)
	}
}

func TestEmbedBatch(t *testing.T) {
	srv := embedServer(t, "all-minilm", []float32{1, 2})
	defer srv.Close()

	p, err := ollama.New(srv.URL, "all-minilm")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	vecs, err := p.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("embed batch: %v", err)
	}
	if len(vecs) != 3 {
		t.Fatalf("expected 3 vectors, got %d", len(vecs))
	}

	// Empty input short-circuits without a request.
	vecs, err = p.EmbedBatch(context.Background(), nil)
	if err != nil || vecs != nil {
		t.Errorf("empty batch: got %v, %v", vecs, err)
	}
}

func TestEmbedServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	p, err := ollama.New(srv.URL, "nomic-embed-text")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := p.Embed(context.Background(), "hello"); err == nil {
		t.Error("expected error from failing server")
	}
}

func TestKnownDimensionsSkipProbe(t *testing.T) {
	p, err := ollama.New("http://localhost:1", "nomic-embed-text")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	// No server is listening; a probe would fail, so the table must answer.
	if got := p.Dimensions(); got != 768 {
		t.Errorf("dimensions: got %d, want 768", got)
	}
}

func TestDimensionsProbeForUnknownModel(t *testing.T) {
	srv := embedServer(t, "custom-model", []float32{0, 0, 0, 0})
	defer srv.Close()

	p, err := ollama.New(srv.URL, "custom-model")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if got := p.Dimensions(); got != 4 {
		t.Errorf("probed dimensions: got %d, want 4", got)
	}
}

func TestWithDimensionsOverride(t *testing.T) {
	p, err := ollama.New("http://localhost:1", "custom-model", ollama.WithDimensions(256))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if got := p.Dimensions(); got != 256 {
		t.Errorf("dimensions: got %d, want 256", got)
	}
}

func TestNewRequiresModel(t *testing.T) {
	if _, err := ollama.New("", ""); err == nil {
		t.Error("expected error for empty model")
	}
}
