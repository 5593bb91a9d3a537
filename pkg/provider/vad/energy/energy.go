// Package energy provides a voice activity detector based on frame energy
// with an adaptive noise floor.
//
// It is not a neural detector, but in a quiet lab with a close microphone the
// energy envelope separates speech from silence well, and it needs no model
// files or external runtime. The detector tracks a slowly adapting noise-floor
// estimate and maps the ratio of frame RMS to that floor onto a probability.
package energy

import (
	"fmt"
	"math"
	"sync"

	"github.com/wiredbrain/axiom/pkg/provider/vad"
)

// Ensure Detector implements the vad.Detector interface.
var _ vad.Detector = (*Detector)(nil)

const (
	// floorAdapt is the exponential moving average coefficient for the noise
	// floor while the frame looks like background.
	floorAdapt = 0.05

	// minFloor prevents the floor from collapsing to zero on digital silence,
	// which would make any nonzero frame score as certain speech.
	minFloor = 1e-4

	// speechRatio is the RMS-to-floor ratio mapped to probability 1.0.
	speechRatio = 8.0
)

// Detector scores frames by RMS energy relative to an adaptive noise floor.
type Detector struct {
	mu    sync.Mutex
	floor float64
}

// New constructs an energy Detector with a fresh noise-floor estimate.
func New() *Detector {
	return &Detector{floor: minFloor}
}

// Infer implements vad.Detector.
func (d *Detector) Infer(samples []float32) (float64, error) {
	if len(samples) != vad.FrameSamples {
		return 0, fmt.Errorf("energy vad: frame has %d samples, want %d", len(samples), vad.FrameSamples)
	}

	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	rms := math.Sqrt(sum / float64(len(samples)))

	d.mu.Lock()
	defer d.mu.Unlock()

	ratio := rms / d.floor

	// Adapt the floor only on frames that do not look like speech, so a long
	// utterance does not raise the floor underneath itself.
	if ratio < 2.0 {
		d.floor = (1-floorAdapt)*d.floor + floorAdapt*rms
		if d.floor < minFloor {
			d.floor = minFloor
		}
	}

	p := (ratio - 1.0) / (speechRatio - 1.0)
	if p < 0 {
		p = 0
	} else if p > 1 {
		p = 1
	}
	return p, nil
}

// Ready implements vad.Detector. The energy detector has no model to load and
// is always ready.
func (d *Detector) Ready() bool {
	return true
}

// Reset implements vad.Detector.
func (d *Detector) Reset() {
	d.mu.Lock()
	d.floor = minFloor
	d.mu.Unlock()
}
