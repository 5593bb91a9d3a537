// Package mock provides a mock implementation of the vad.Detector interface
// for testing.
package mock

import (
	"sync"

	"github.com/wiredbrain/axiom/pkg/provider/vad"
)

// Ensure Detector implements the vad.Detector interface.
var _ vad.Detector = (*Detector)(nil)

// Detector is a scriptable vad.Detector. Scores are consumed in order; once
// exhausted, Infer returns the last score indefinitely.
type Detector struct {
	mu sync.Mutex

	// Scores is the sequence of probabilities Infer returns.
	Scores []float64

	// Err, if set, is returned by every Infer call.
	Err error

	// NotReady makes Ready report false.
	NotReady bool

	// InferCalls counts Infer invocations.
	InferCalls int

	// ResetCalls counts Reset invocations.
	ResetCalls int

	next int
}

// Infer implements vad.Detector.
func (d *Detector) Infer(samples []float32) (float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.InferCalls++
	if d.Err != nil {
		return 0, d.Err
	}
	if len(d.Scores) == 0 {
		return 0, nil
	}
	score := d.Scores[min(d.next, len(d.Scores)-1)]
	d.next++
	return score, nil
}

// Ready implements vad.Detector.
func (d *Detector) Ready() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return !d.NotReady
}

// Reset implements vad.Detector.
func (d *Detector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ResetCalls++
	d.next = 0
}
