package resilience

import (
	"context"
	"errors"
	"testing"

	"github.com/wiredbrain/axiom/pkg/provider/tts"
	ttsmock "github.com/wiredbrain/axiom/pkg/provider/tts/mock"
)

func TestTTSFallback_Synthesize_PrimarySuccess(t *testing.T) {
	primary := &ttsmock.Synthesizer{
		Clip: tts.Audio{PCM: []byte{1, 2, 3, 4}, SampleRate: 16000},
	}
	secondary := &ttsmock.Synthesizer{}

	fb := NewTTSFallback(primary, "primary", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3},
	})
	fb.AddFallback("secondary", secondary)

	clip, err := fb.Synthesize(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(clip.PCM) != 4 {
		t.Fatalf("len(PCM) = %d, want 4", len(clip.PCM))
	}
	if len(secondary.Calls) != 0 {
		t.Fatalf("secondary called %d times, want 0", len(secondary.Calls))
	}
}

func TestTTSFallback_Synthesize_Failover(t *testing.T) {
	primary := &ttsmock.Synthesizer{Err: errors.New("primary down")}
	secondary := &ttsmock.Synthesizer{
		Clip: tts.Audio{PCM: []byte{9, 9}, SampleRate: 22050},
	}

	fb := NewTTSFallback(primary, "primary", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3},
	})
	fb.AddFallback("secondary", secondary)

	clip, err := fb.Synthesize(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if clip.SampleRate != 22050 {
		t.Fatalf("SampleRate = %d, want 22050", clip.SampleRate)
	}
	if len(primary.Calls) != 1 {
		t.Fatalf("primary called %d times, want 1", len(primary.Calls))
	}
}

func TestTTSFallback_AllFail(t *testing.T) {
	primary := &ttsmock.Synthesizer{Err: errors.New("primary down")}
	secondary := &ttsmock.Synthesizer{Err: errors.New("secondary down")}

	fb := NewTTSFallback(primary, "primary", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3},
	})
	fb.AddFallback("secondary", secondary)

	_, err := fb.Synthesize(context.Background(), "hello")
	if !errors.Is(err, ErrAllFailed) {
		t.Fatalf("err = %v, want ErrAllFailed", err)
	}
}

func TestTTSFallback_Ready(t *testing.T) {
	primary := &ttsmock.Synthesizer{NotReady: true}

	fb := NewTTSFallback(primary, "primary", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3},
	})
	if fb.Ready() {
		t.Fatal("Ready() should be false with only a not-ready primary")
	}

	fb.AddFallback("secondary", &ttsmock.Synthesizer{})
	if !fb.Ready() {
		t.Fatal("Ready() should be true once a ready fallback is registered")
	}
}
