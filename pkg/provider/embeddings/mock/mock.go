// Package mock provides a mock implementation of the embeddings.Provider
// interface for testing.
package mock

import (
	"context"
	"sync"

	"github.com/wiredbrain/axiom/pkg/provider/embeddings"
)

// Ensure Provider implements the embeddings.Provider interface.
var _ embeddings.Provider = (*Provider)(nil)

// Provider is a scriptable embeddings.Provider. When ByText has no entry for
// an input, Embedding is returned; when that is nil too, a zero vector of
// length Dims is returned. This makes similarity tests deterministic without
// scripting every string.
type Provider struct {
	mu sync.Mutex

	// Dims is returned by Dimensions and sizes the default zero vector.
	Dims int

	// Model is returned by ModelID.
	Model string

	// Embedding is the default vector returned by Embed.
	Embedding []float32

	// ByText maps exact input strings to their vectors.
	ByText map[string][]float32

	// Err, if set, is returned by every Embed and EmbedBatch call.
	Err error

	// EmbedCalls records every text passed to Embed or EmbedBatch, in order.
	EmbedCalls []string
}

// Embed implements embeddings.Provider.
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.embedLocked(text)
}

// EmbedBatch implements embeddings.Provider.
func (p *Provider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := p.embedLocked(text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (p *Provider) embedLocked(text string) ([]float32, error) {
	p.EmbedCalls = append(p.EmbedCalls, text)
	if p.Err != nil {
		return nil, p.Err
	}
	if vec, ok := p.ByText[text]; ok {
		return vec, nil
	}
	if p.Embedding != nil {
		return p.Embedding, nil
	}
	return make([]float32, p.Dims), nil
}

// Dimensions implements embeddings.Provider.
func (p *Provider) Dimensions() int {
	return p.Dims
}

// ModelID implements embeddings.Provider.
func (p *Provider) ModelID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Model == "" {
		return "mock-embed"
	}
	return p.Model
}
