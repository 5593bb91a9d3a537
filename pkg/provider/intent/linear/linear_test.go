package linear

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	embmock "github.com/wiredbrain/axiom/pkg/provider/embeddings/mock"
	"github.com/wiredbrain/axiom/pkg/provider/intent"
)

func writeWeights(t *testing.T, w Weights) string {
	t.Helper()
	data, err := json.Marshal(w)
	if err != nil {
		t.Fatalf("marshal weights: %v", err)
	}
	path := filepath.Join(t.TempDir(), "intent_head.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write weights: %v", err)
	}
	return path
}

func TestMissingWeightsDegradesToUnknown(t *testing.T) {
	embedder := &embmock.Provider{Dims: 4}
	c := New(embedder, filepath.Join(t.TempDir(), "nope.json"), nil)

	if c.Ready() {
		t.Error("classifier without weights must not be ready")
	}
	p, err := c.Classify(context.Background(), "hello there")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if p.Intent != intent.IntentUnknown || p.Confidence != 0 {
		t.Errorf("got %+v, want unknown/0", p)
	}
	if len(embedder.EmbedCalls) != 0 {
		t.Error("degraded classifier must not call the embedder")
	}
}

func TestDimensionMismatchDisables(t *testing.T) {
	path := writeWeights(t, Weights{
		Labels: []string{intent.IntentGreeting},
		Rows:   [][]float64{{1, 2, 3}},
		Bias:   []float64{0},
	})
	c := New(&embmock.Provider{Dims: 4}, path, nil)
	if c.Ready() {
		t.Error("mismatched weights must disable the classifier")
	}
}

func TestClassifyPicksArgmax(t *testing.T) {
	// Two labels; the embedding [1, 0] aligns with the greeting row.
	path := writeWeights(t, Weights{
		Labels: []string{intent.IntentGreeting, intent.IntentEquipmentQuery},
		Rows:   [][]float64{{4, 0}, {0, 4}},
		Bias:   []float64{0, 0},
	})
	embedder := &embmock.Provider{
		Dims:      2,
		Embedding: []float32{1, 0},
	}
	c := New(embedder, path, nil)
	if !c.Ready() {
		t.Fatal("classifier should be ready")
	}

	p, err := c.Classify(context.Background(), "hello")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if p.Intent != intent.IntentGreeting {
		t.Errorf("intent: got %s", p.Intent)
	}
	// softmax([4, 0]) gives ~0.982 for the winner.
	if p.Confidence < 0.9 || p.Confidence > 1.0 {
		t.Errorf("confidence: got %v", p.Confidence)
	}
}

func TestInconsistentWeightsRejected(t *testing.T) {
	path := writeWeights(t, Weights{
		Labels: []string{"a", "b"},
		Rows:   [][]float64{{1}},
		Bias:   []float64{0, 0},
	})
	c := New(&embmock.Provider{Dims: 1}, path, nil)
	if c.Ready() {
		t.Error("inconsistent weights must disable the classifier")
	}
}
