// Package mock provides a mock implementation of the stt.Transcriber
// interface for testing.
package mock

import (
	"context"
	"sync"

	"github.com/wiredbrain/axiom/pkg/provider/stt"
)

// Ensure Transcriber implements the stt.Transcriber interface.
var _ stt.Transcriber = (*Transcriber)(nil)

// Transcriber is a scriptable stt.Transcriber. Results are consumed in
// order; once exhausted, the last result is returned indefinitely.
type Transcriber struct {
	mu sync.Mutex

	// Results is the sequence of transcripts Transcribe returns.
	Results []stt.Transcript

	// Err, if set, is returned by every Transcribe call.
	Err error

	// NotReady makes Ready report false.
	NotReady bool

	// Calls records the sample count of every Transcribe invocation.
	Calls []int

	next int
}

// Transcribe implements stt.Transcriber.
func (t *Transcriber) Transcribe(ctx context.Context, samples []float32) (stt.Transcript, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.Calls = append(t.Calls, len(samples))
	if t.Err != nil {
		return stt.Transcript{}, t.Err
	}
	if len(t.Results) == 0 {
		return stt.Transcript{}, nil
	}
	result := t.Results[min(t.next, len(t.Results)-1)]
	t.next++
	return result, nil
}

// Ready implements stt.Transcriber.
func (t *Transcriber) Ready() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.NotReady
}
