// Package tts defines the Synthesizer interface for text-to-speech backends.
//
// Responses are capped at two sentences, so synthesis is
// utterance-at-once: one call, one complete audio clip. Ordering and playback
// pacing are handled by the pipeline's speech queue, not by the backend.
//
// Implementations must be safe for concurrent use.
package tts

import "context"

// Audio is one synthesized clip.
type Audio struct {
	// PCM is little-endian 16-bit mono PCM.
	PCM []byte

	// SampleRate is the clip's sample rate in Hz.
	SampleRate int
}

// Synthesizer converts response text to speech.
type Synthesizer interface {
	// Synthesize renders text as one audio clip. Empty text returns an empty
	// Audio and a nil error.
	Synthesize(ctx context.Context, text string) (Audio, error)

	// Ready reports whether the backend can synthesize. When it cannot, the
	// pipeline still delivers answers as text events and tells the client
	// speech is unavailable.
	Ready() bool
}
