package pipeline

import (
	"errors"
	"testing"

	"github.com/wiredbrain/axiom/pkg/audio"
	vadmock "github.com/wiredbrain/axiom/pkg/provider/vad/mock"
)

func frame() audio.Frame {
	return audio.Frame{Samples: make([]float32, audio.FrameSamples)}
}

// feed runs n frames through the segmenter and returns every non-None event.
func feed(s *Segmenter, n int) []SegmentEvent {
	var events []SegmentEvent
	for range n {
		if ev := s.Process(frame()); ev.Kind != SegmentNone {
			events = append(events, ev)
		}
	}
	return events
}

func TestSpeechStartRequiresThreeFrames(t *testing.T) {
	det := &vadmock.Detector{Scores: []float64{0.9, 0.9, 0.1}}
	s := NewSegmenter(det, 0, nil)

	// Two speech frames then silence: the run resets, no event.
	if events := feed(s, 3); len(events) != 0 {
		t.Fatalf("expected no events, got %v", events)
	}
	if s.Speaking() {
		t.Error("segmenter must not be speaking after a broken run")
	}
}

func TestThresholdScoreCountsAsSpeech(t *testing.T) {
	// Scores sitting exactly on the threshold open an utterance.
	det := &vadmock.Detector{Scores: []float64{0.5, 0.5, 0.5}}
	s := NewSegmenter(det, 0.5, nil)

	events := feed(s, 3)
	if len(events) != 1 || events[0].Kind != SegmentSpeechStart {
		t.Fatalf("expected speech start from threshold scores, got %v", events)
	}

	// Just below the threshold is silence.
	det2 := &vadmock.Detector{Scores: []float64{0.49, 0.49, 0.49}}
	s2 := NewSegmenter(det2, 0.5, nil)
	if events := feed(s2, 3); len(events) != 0 {
		t.Fatalf("expected no events below the threshold, got %v", events)
	}
}

func TestUtteranceLifecycle(t *testing.T) {
	scores := []float64{0.9, 0.9, 0.9, 0.9, 0.9} // 5 speech frames
	for range 10 {
		scores = append(scores, 0.1) // 10 silence frames
	}
	det := &vadmock.Detector{Scores: scores}
	s := NewSegmenter(det, 0, nil)

	events := feed(s, len(scores))
	if len(events) != 2 {
		t.Fatalf("expected start and end, got %d events", len(events))
	}
	if events[0].Kind != SegmentSpeechStart {
		t.Errorf("first event: got %v", events[0].Kind)
	}
	if events[1].Kind != SegmentSpeechEnd {
		t.Errorf("second event: got %v", events[1].Kind)
	}

	// All 15 frames belong to the utterance: the 3-frame run-up, 2 more
	// speech frames, and the 10 trailing silence frames.
	wantSamples := 15 * audio.FrameSamples
	if len(events[1].Utterance) != wantSamples {
		t.Errorf("utterance length: got %d, want %d", len(events[1].Utterance), wantSamples)
	}
}

func TestShortPauseDoesNotSplitUtterance(t *testing.T) {
	scores := []float64{0.9, 0.9, 0.9}
	for range 9 {
		scores = append(scores, 0.1) // 9 silence frames: below the off run
	}
	scores = append(scores, 0.9) // speech resumes
	det := &vadmock.Detector{Scores: scores}
	s := NewSegmenter(det, 0, nil)

	events := feed(s, len(scores))
	if len(events) != 1 || events[0].Kind != SegmentSpeechStart {
		t.Fatalf("expected only a start event, got %v", events)
	}
	if !s.Speaking() {
		t.Error("utterance must remain open across a short pause")
	}
}

func TestNotReadyDetectorFailsOpen(t *testing.T) {
	det := &vadmock.Detector{NotReady: true, Scores: []float64{0.0}}
	s := NewSegmenter(det, 0, nil)

	events := feed(s, 3)
	if len(events) != 1 || events[0].Kind != SegmentSpeechStart {
		t.Fatalf("expected speech start from fail-open detector, got %v", events)
	}
	if events[0].Probability != 1.0 {
		t.Errorf("fail-open probability: got %v, want 1.0", events[0].Probability)
	}
	if det.InferCalls != 0 {
		t.Errorf("not-ready detector must not be invoked, got %d calls", det.InferCalls)
	}
}

func TestInferErrorScoresSilence(t *testing.T) {
	det := &vadmock.Detector{Err: errors.New("model crashed")}
	s := NewSegmenter(det, 0, nil)

	if events := feed(s, 20); len(events) != 0 {
		t.Fatalf("erroring detector must never open an utterance, got %v", events)
	}
}

func TestInferErrorClosesOpenUtterance(t *testing.T) {
	det := &vadmock.Detector{Scores: []float64{0.9, 0.9, 0.9}}
	s := NewSegmenter(det, 0, nil)
	feed(s, 3)
	if !s.Speaking() {
		t.Fatal("setup: utterance should be open")
	}

	det.Err = errors.New("model crashed")
	events := feed(s, speechOffFrames)
	if len(events) != 1 || events[0].Kind != SegmentSpeechEnd {
		t.Fatalf("expected the error frames to close the utterance, got %v", events)
	}
}

func TestAbortDiscardsBufferedAudio(t *testing.T) {
	det := &vadmock.Detector{Scores: []float64{0.9}}
	s := NewSegmenter(det, 0, nil)
	feed(s, 5)
	s.Abort()

	if s.Speaking() {
		t.Error("abort must close the utterance")
	}
	if det.ResetCalls != 1 {
		t.Errorf("abort must reset the detector, got %d resets", det.ResetCalls)
	}

	// The next utterance starts clean.
	scores := []float64{0.9, 0.9, 0.9}
	for range 10 {
		scores = append(scores, 0.1)
	}
	det.Scores = scores
	det.Reset()
	events := feed(s, len(scores))
	if len(events) != 2 {
		t.Fatalf("expected a fresh start/end pair, got %v", events)
	}
	if got := len(events[1].Utterance); got != 13*audio.FrameSamples {
		t.Errorf("aborted audio leaked into new utterance: %d samples", got)
	}
}
