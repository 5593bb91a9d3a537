// Package mock provides a mock implementation of the tts.Synthesizer
// interface for testing.
package mock

import (
	"context"
	"sync"

	"github.com/wiredbrain/axiom/pkg/audio"
	"github.com/wiredbrain/axiom/pkg/provider/tts"
)

// Ensure Synthesizer implements the tts.Synthesizer interface.
var _ tts.Synthesizer = (*Synthesizer)(nil)

// Synthesizer is a scriptable tts.Synthesizer. By default every call returns
// a short silent clip at the pipeline sample rate.
type Synthesizer struct {
	mu sync.Mutex

	// Clip, if set, is returned by every Synthesize call.
	Clip tts.Audio

	// Err, if set, is returned by every Synthesize call.
	Err error

	// NotReady makes Ready report false.
	NotReady bool

	// Calls records every text passed to Synthesize.
	Calls []string

	// Hook, if set, runs inside every Synthesize call before the result is
	// produced. Useful for stalling synthesis in concurrency tests.
	Hook func()
}

// Synthesize implements tts.Synthesizer.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) (tts.Audio, error) {
	s.mu.Lock()
	hook := s.Hook
	s.Calls = append(s.Calls, text)
	s.mu.Unlock()

	if hook != nil {
		hook()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return tts.Audio{}, s.Err
	}
	if s.Clip.PCM != nil {
		return s.Clip, nil
	}
	return tts.Audio{PCM: make([]byte, 64), SampleRate: audio.SampleRate}, nil
}

// Ready implements tts.Synthesizer.
func (s *Synthesizer) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.NotReady
}
