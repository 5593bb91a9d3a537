package resilience

import (
	"context"
	"errors"
	"testing"

	"github.com/wiredbrain/axiom/pkg/provider/llm"
	llmmock "github.com/wiredbrain/axiom/pkg/provider/llm/mock"
)

func TestLLMFallback_Generate_PrimarySuccess(t *testing.T) {
	primary := &llmmock.Generator{Response: "hello from primary"}
	secondary := &llmmock.Generator{Response: "hello from secondary"}

	fb := NewLLMFallback(primary, "primary", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3},
	})
	fb.AddFallback("secondary", secondary)

	text, err := fb.Generate(context.Background(), llm.Request{UserText: "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "hello from primary" {
		t.Fatalf("text = %q, want 'hello from primary'", text)
	}
	if len(primary.Calls) != 1 {
		t.Fatalf("primary called %d times, want 1", len(primary.Calls))
	}
	if len(secondary.Calls) != 0 {
		t.Fatalf("secondary called %d times, want 0", len(secondary.Calls))
	}
}

func TestLLMFallback_Generate_Failover(t *testing.T) {
	primary := &llmmock.Generator{Err: errors.New("primary down")}
	secondary := &llmmock.Generator{Response: "hello from secondary"}

	fb := NewLLMFallback(primary, "primary", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3},
	})
	fb.AddFallback("secondary", secondary)

	text, err := fb.Generate(context.Background(), llm.Request{UserText: "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "hello from secondary" {
		t.Fatalf("text = %q, want 'hello from secondary'", text)
	}
}

func TestLLMFallback_Generate_AllFail(t *testing.T) {
	primary := &llmmock.Generator{Err: errors.New("primary down")}
	secondary := &llmmock.Generator{Err: errors.New("secondary down")}

	fb := NewLLMFallback(primary, "primary", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3},
	})
	fb.AddFallback("secondary", secondary)

	_, err := fb.Generate(context.Background(), llm.Request{UserText: "hi"})
	if !errors.Is(err, ErrAllFailed) {
		t.Fatalf("err = %v, want ErrAllFailed", err)
	}
}

func TestLLMFallback_Ready(t *testing.T) {
	primary := &llmmock.Generator{NotReady: true}
	secondary := &llmmock.Generator{Response: "ok"}

	fb := NewLLMFallback(primary, "primary", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3},
	})
	if fb.Ready() {
		t.Fatal("Ready() should be false with only a not-ready primary")
	}

	fb.AddFallback("secondary", secondary)
	if !fb.Ready() {
		t.Fatal("Ready() should be true once a ready fallback is registered")
	}
}
