// Package linear implements intent classification as a linear head over
// sentence embeddings.
//
// The head is trained offline (a logistic regression over the embedding
// model's output) and exported as a JSON weights file. At runtime the
// classifier embeds the utterance, computes one logit per label and softmaxes
// them into class probabilities. This keeps the hot path free of any ML
// runtime: inference is a matrix-vector product.
package linear

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/wiredbrain/axiom/pkg/provider/embeddings"
	"github.com/wiredbrain/axiom/pkg/provider/intent"
)

// Ensure Classifier implements the intent.Classifier interface.
var _ intent.Classifier = (*Classifier)(nil)

// Weights is the on-disk format of a trained head. Weights[i] is the weight
// row for Labels[i] and must match the embedding model's dimensionality.
type Weights struct {
	Labels []string    `json:"labels"`
	Rows   [][]float64 `json:"weights"`
	Bias   []float64   `json:"bias"`
}

// Classifier is a linear-head intent classifier. Safe for concurrent use
// after construction.
type Classifier struct {
	embedder embeddings.Provider
	weights  *Weights
	log      *slog.Logger
}

// New constructs a Classifier from a weights file. A missing or unreadable
// weights file degrades rather than fails: the classifier is constructed
// not-ready and labels everything IntentUnknown, matching the soft-failure
// contract of intent.Classifier.
func New(embedder embeddings.Provider, weightsPath string, log *slog.Logger) *Classifier {
	if log == nil {
		log = slog.Default()
	}
	c := &Classifier{embedder: embedder, log: log}

	w, err := loadWeights(weightsPath)
	if err != nil {
		log.Warn("intent classifier weights unavailable, all utterances will classify as unknown",
			"path", weightsPath, "error", err)
		return c
	}
	if dims := embedder.Dimensions(); len(w.Rows) > 0 && len(w.Rows[0]) != dims {
		log.Warn("intent classifier weights do not match embedding dimensions, disabling",
			"weightDims", len(w.Rows[0]), "embeddingDims", dims)
		return c
	}
	c.weights = w
	log.Info("intent classifier initialized", "labels", len(w.Labels))
	return c
}

func loadWeights(path string) (*Weights, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("intent linear: read weights: %w", err)
	}
	var w Weights
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("intent linear: parse weights %s: %w", path, err)
	}
	if len(w.Labels) == 0 || len(w.Rows) != len(w.Labels) || len(w.Bias) != len(w.Labels) {
		return nil, fmt.Errorf("intent linear: weights file %s is inconsistent: %d labels, %d rows, %d biases",
			path, len(w.Labels), len(w.Rows), len(w.Bias))
	}
	return &w, nil
}

// Classify implements intent.Classifier.
func (c *Classifier) Classify(ctx context.Context, text string) (intent.Prediction, error) {
	if c.weights == nil {
		return intent.Prediction{Intent: intent.IntentUnknown, Confidence: 0}, nil
	}

	embedding, err := c.embedder.Embed(ctx, text)
	if err != nil {
		return intent.Prediction{}, fmt.Errorf("intent linear: embed utterance: %w", err)
	}

	logits := make([]float64, len(c.weights.Labels))
	for i, row := range c.weights.Rows {
		sum := c.weights.Bias[i]
		for j, w := range row {
			if j >= len(embedding) {
				break
			}
			sum += w * float64(embedding[j])
		}
		logits[i] = sum
	}

	probs := softmax(logits)
	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}
	return intent.Prediction{Intent: c.weights.Labels[best], Confidence: probs[best]}, nil
}

// Ready implements intent.Classifier.
func (c *Classifier) Ready() bool {
	return c.weights != nil
}

func softmax(logits []float64) []float64 {
	maxLogit := math.Inf(-1)
	for _, l := range logits {
		if l > maxLogit {
			maxLogit = l
		}
	}
	var sum float64
	out := make([]float64, len(logits))
	for i, l := range logits {
		out[i] = math.Exp(l - maxLogit)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
