// Package mock provides a mock implementation of the intent.Classifier
// interface for testing.
package mock

import (
	"context"
	"strings"
	"sync"

	"github.com/wiredbrain/axiom/pkg/provider/intent"
)

// Ensure Classifier implements the intent.Classifier interface.
var _ intent.Classifier = (*Classifier)(nil)

// Classifier is a scriptable intent.Classifier. Predictions are looked up by
// lowercased utterance text; unmatched utterances fall back to Default.
type Classifier struct {
	mu sync.Mutex

	// ByText maps lowercased utterances to their prediction.
	ByText map[string]intent.Prediction

	// Default is returned when no ByText entry matches. A zero Default means
	// IntentUnknown with confidence 0.
	Default intent.Prediction

	// Err, if set, is returned by every Classify call.
	Err error

	// NotReady makes Ready report false.
	NotReady bool

	// Calls records every utterance passed to Classify.
	Calls []string
}

// Classify implements intent.Classifier.
func (c *Classifier) Classify(ctx context.Context, text string) (intent.Prediction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Calls = append(c.Calls, text)
	if c.Err != nil {
		return intent.Prediction{}, c.Err
	}
	if p, ok := c.ByText[strings.ToLower(text)]; ok {
		return p, nil
	}
	if c.Default.Intent == "" {
		return intent.Prediction{Intent: intent.IntentUnknown, Confidence: 0}, nil
	}
	return c.Default, nil
}

// Ready implements intent.Classifier.
func (c *Classifier) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.NotReady
}
