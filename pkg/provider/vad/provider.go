// Package vad defines the Detector interface for voice activity detection
// backends.
//
// A detector scores a single fixed-size audio frame with a speech probability.
// It is deliberately stateless from the caller's perspective: segmenting a
// probability stream into utterances (hysteresis, minimum speech/silence runs)
// is the pipeline's job, not the detector's. This keeps backends trivial to
// swap: a neural model served over HTTP, an energy heuristic, or a scripted
// mock all satisfy the same contract.
//
// Infer is synchronous and returns immediately with a score, which keeps it
// usable in the low-latency stage that gates capture buffering.
//
// A Detector instance is bound to one audio stream and should not be shared
// across goroutines unless the implementation documents otherwise.
package vad

import "github.com/wiredbrain/axiom/pkg/audio"

// FrameSamples is the frame size every Detector must accept.
const FrameSamples = audio.FrameSamples

// Detector scores audio frames with a speech probability.
type Detector interface {
	// Infer returns the speech probability in [0, 1] for one frame of exactly
	// FrameSamples normalized samples. Implementations must return an error
	// rather than a guess when inference fails; the caller decides how to
	// degrade.
	//
	// Infer must not block beyond the inference itself.
	Infer(samples []float32) (float64, error)

	// Ready reports whether the backend is initialized and able to score
	// frames. Callers treat a not-ready detector as pass-through: every frame
	// is assumed to be speech so that audio capture never silently stalls.
	Ready() bool

	// Reset clears any internal smoothing state carried between frames. Use
	// it when the audio stream is interrupted so stale state from the
	// previous segment cannot leak into the next one.
	Reset()
}
