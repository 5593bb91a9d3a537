package resilience

import (
	"context"

	"github.com/wiredbrain/axiom/pkg/provider/stt"
)

// STTFallback implements [stt.Transcriber] with automatic failover across
// multiple transcription backends. Each backend has its own circuit breaker.
type STTFallback struct {
	group *FallbackGroup[stt.Transcriber]
}

// Compile-time interface assertion.
var _ stt.Transcriber = (*STTFallback)(nil)

// NewSTTFallback creates an [STTFallback] with primary as the preferred backend.
func NewSTTFallback(primary stt.Transcriber, primaryName string, cfg FallbackConfig) *STTFallback {
	return &STTFallback{
		group: NewFallbackGroup(primary, primaryName, cfg),
	}
}

// AddFallback registers an additional transcription backend as a fallback.
func (f *STTFallback) AddFallback(name string, transcriber stt.Transcriber) {
	f.group.AddFallback(name, transcriber)
}

// Transcribe converts the utterance with the first healthy backend. If the
// primary fails, subsequent fallbacks are tried with the same samples.
func (f *STTFallback) Transcribe(ctx context.Context, samples []float32) (stt.Transcript, error) {
	return ExecuteWithResult(f.group, func(t stt.Transcriber) (stt.Transcript, error) {
		return t.Transcribe(ctx, samples)
	})
}

// Ready reports whether any backend with a non-open breaker is ready.
func (f *STTFallback) Ready() bool {
	return f.group.Ready(func(t stt.Transcriber) bool { return t.Ready() })
}
