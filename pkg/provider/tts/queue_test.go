package tts_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/wiredbrain/axiom/pkg/provider/tts"
	"github.com/wiredbrain/axiom/pkg/provider/tts/mock"
)

func TestQueueDeliversInOrder(t *testing.T) {
	synth := &mock.Synthesizer{}

	var mu sync.Mutex
	var delivered []string
	q := tts.NewQueue(synth, func(text string, _ tts.Audio) {
		mu.Lock()
		delivered = append(delivered, text)
		mu.Unlock()
	}, nil)
	defer q.Close()

	q.Enqueue("first")
	q.Enqueue("second")
	q.Enqueue("third")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := q.Drain(ctx); err != nil {
		t.Fatalf("Drain: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	want := []string{"first", "second", "third"}
	if len(delivered) != len(want) {
		t.Fatalf("delivered %v, want %v", delivered, want)
	}
	for i := range want {
		if delivered[i] != want[i] {
			t.Errorf("delivered[%d] = %q, want %q", i, delivered[i], want[i])
		}
	}
	if q.Busy() {
		t.Error("Busy after Drain")
	}
}

func TestQueueDropsFailedSynthesis(t *testing.T) {
	synth := &mock.Synthesizer{Err: errors.New("voice server down")}

	var mu sync.Mutex
	var delivered int
	q := tts.NewQueue(synth, func(string, tts.Audio) {
		mu.Lock()
		delivered++
		mu.Unlock()
	}, nil)
	defer q.Close()

	q.Enqueue("hello")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := q.Drain(ctx); err != nil {
		t.Fatalf("Drain: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if delivered != 0 {
		t.Errorf("delivered %d clips, want 0", delivered)
	}
}

func TestQueueIgnoresEmptyText(t *testing.T) {
	q := tts.NewQueue(&mock.Synthesizer{}, func(string, tts.Audio) {
		t.Error("unexpected delivery")
	}, nil)
	defer q.Close()

	q.Enqueue("")
	if q.Busy() {
		t.Error("Busy after empty enqueue")
	}
}

func TestQueueDrainCanceled(t *testing.T) {
	block := make(chan struct{})
	synth := &mock.Synthesizer{Hook: func() { <-block }}

	q := tts.NewQueue(synth, func(string, tts.Audio) {}, nil)
	defer q.Close()
	defer close(block)

	q.Enqueue("slow one")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := q.Drain(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Drain = %v, want deadline exceeded", err)
	}
}
