// Package stt defines the Transcriber interface for speech-to-text backends.
//
// The pipeline hands a transcriber one complete utterance at a time, already
// segmented by voice activity detection, as normalized mono samples at the
// pipeline rate. Streaming transcription is deliberately out of scope: the
// assistant answers short spoken questions, and utterance-at-once requests
// keep the backend contract small enough that a hosted API, a local model
// server or a test mock are interchangeable.
package stt

import (
	"context"

	"github.com/wiredbrain/axiom/pkg/audio"
)

// SampleRate is the rate of the samples handed to Transcribe.
const SampleRate = audio.SampleRate

// Transcript is the result of transcribing one utterance.
type Transcript struct {
	// Text is the raw transcription, before any normalization.
	Text string

	// Confidence is the backend's overall confidence in [0, 1], or 0 when
	// the backend does not report one.
	Confidence float64
}

// Transcriber converts one spoken utterance to text.
//
// Implementations must be safe for concurrent use; the pipeline may overlap
// transcription of utterances from different sessions.
type Transcriber interface {
	// Transcribe converts a complete utterance to text. samples is mono
	// float32 audio in [-1, 1] at SampleRate. An empty or unintelligible
	// utterance yields an empty Transcript.Text and a nil error; errors are
	// reserved for backend failures.
	Transcribe(ctx context.Context, samples []float32) (Transcript, error)

	// Ready reports whether the backend can accept utterances. The pipeline
	// surfaces a degraded status to clients when the transcriber is down
	// instead of failing the whole session.
	Ready() bool
}
