package resilience

import (
	"context"

	"github.com/wiredbrain/axiom/pkg/provider/llm"
)

// LLMFallback implements [llm.Generator] with automatic failover across
// multiple generation backends. Each backend has its own circuit breaker; when
// the primary fails or its breaker is open, the next healthy fallback is tried.
type LLMFallback struct {
	group *FallbackGroup[llm.Generator]
}

// Compile-time interface assertion.
var _ llm.Generator = (*LLMFallback)(nil)

// NewLLMFallback creates an [LLMFallback] with primary as the preferred backend.
func NewLLMFallback(primary llm.Generator, primaryName string, cfg FallbackConfig) *LLMFallback {
	return &LLMFallback{
		group: NewFallbackGroup(primary, primaryName, cfg),
	}
}

// AddFallback registers an additional generation backend as a fallback.
func (f *LLMFallback) AddFallback(name string, generator llm.Generator) {
	f.group.AddFallback(name, generator)
}

// Generate sends the request to the first healthy backend and returns its
// completion text. If the primary fails, subsequent fallbacks are tried.
func (f *LLMFallback) Generate(ctx context.Context, req llm.Request) (string, error) {
	return ExecuteWithResult(f.group, func(g llm.Generator) (string, error) {
		return g.Generate(ctx, req)
	})
}

// Ready reports whether any backend with a non-open breaker is ready.
func (f *LLMFallback) Ready() bool {
	return f.group.Ready(func(g llm.Generator) bool { return g.Ready() })
}
