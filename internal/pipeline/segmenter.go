package pipeline

import (
	"log/slog"

	"github.com/wiredbrain/axiom/pkg/audio"
	"github.com/wiredbrain/axiom/pkg/provider/vad"
)

// Hysteresis constants for the utterance state machine. A single frame above
// the threshold is not speech and a single quiet frame is not the end of a
// sentence; runs of consecutive frames are required in both directions.
const (
	// speechOnFrames is the consecutive speech-frame run required to open an
	// utterance (~96 ms at the pipeline frame size).
	speechOnFrames = 3

	// speechOffFrames is the consecutive silence-frame run required to close
	// an utterance (~320 ms).
	speechOffFrames = 10

	// DefaultSpeechThreshold is the probability at or above which a frame
	// counts as speech when no threshold is configured.
	DefaultSpeechThreshold = 0.5
)

// SegmentKind classifies the outcome of feeding one frame to the Segmenter.
type SegmentKind int

const (
	// SegmentNone means the frame changed no state worth reporting.
	SegmentNone SegmentKind = iota

	// SegmentSpeechStart means an utterance just opened.
	SegmentSpeechStart

	// SegmentSpeechEnd means an utterance just closed; Event.Utterance holds
	// the complete buffered audio.
	SegmentSpeechEnd
)

// SegmentEvent is the per-frame result of the Segmenter.
type SegmentEvent struct {
	Kind SegmentKind

	// Probability is the detector's speech score for this frame.
	Probability float64

	// Utterance is the full captured segment, set only on SegmentSpeechEnd.
	// It includes the run-up frames that triggered the speech start, so the
	// first syllable is not clipped.
	Utterance []float32
}

// Segmenter turns a stream of per-frame speech probabilities into discrete
// utterances. It owns the hysteresis state machine and the capture buffer.
//
// Degradation is deliberately asymmetric. A detector that is not ready scores
// every frame as speech (probability 1.0) so that audio is never silently
// discarded while a model warms up; a detector that returns an error scores
// the frame as silence, since a broken backend must not hold an utterance
// open forever.
//
// Not safe for concurrent use; create one per audio stream.
type Segmenter struct {
	det       vad.Detector
	threshold float64
	log       *slog.Logger

	inSpeech   bool
	speechRun  int
	silenceRun int

	// pending holds candidate speech frames observed before the start run
	// completes; they are promoted into buf when the utterance opens.
	pending [][]float32
	buf     []float32

	warnedErr bool
}

// NewSegmenter constructs a Segmenter over the given detector. A threshold
// of 0 selects DefaultSpeechThreshold.
func NewSegmenter(det vad.Detector, threshold float64, log *slog.Logger) *Segmenter {
	if threshold <= 0 {
		threshold = DefaultSpeechThreshold
	}
	if log == nil {
		log = slog.Default()
	}
	return &Segmenter{det: det, threshold: threshold, log: log}
}

// Speaking reports whether an utterance is currently open.
func (s *Segmenter) Speaking() bool {
	return s.inSpeech
}

// Process feeds one frame through the detector and advances the state
// machine.
func (s *Segmenter) Process(frame audio.Frame) SegmentEvent {
	p := s.score(frame.Samples)

	// A score exactly at the threshold counts as speech.
	if p >= s.threshold {
		return s.onSpeechFrame(frame.Samples, p)
	}
	return s.onSilenceFrame(frame.Samples, p)
}

// Abort discards any open utterance and pending frames without emitting an
// event. Use it when the stream is torn down mid-sentence.
func (s *Segmenter) Abort() {
	s.inSpeech = false
	s.speechRun = 0
	s.silenceRun = 0
	s.pending = nil
	s.buf = nil
	s.det.Reset()
}

func (s *Segmenter) score(samples []float32) float64 {
	if !s.det.Ready() {
		// Fail open: pass every frame as speech rather than drop audio.
		return 1.0
	}
	p, err := s.det.Infer(samples)
	if err != nil {
		if !s.warnedErr {
			s.log.Warn("vad inference failing, treating frames as silence", "error", err)
			s.warnedErr = true
		}
		return 0.0
	}
	return p
}

func (s *Segmenter) onSpeechFrame(samples []float32, p float64) SegmentEvent {
	s.silenceRun = 0

	if s.inSpeech {
		s.buf = append(s.buf, samples...)
		return SegmentEvent{Kind: SegmentNone, Probability: p}
	}

	s.pending = append(s.pending, samples)
	s.speechRun++
	if s.speechRun < speechOnFrames {
		return SegmentEvent{Kind: SegmentNone, Probability: p}
	}

	// Utterance opens; promote the run-up frames into the capture buffer.
	s.inSpeech = true
	s.speechRun = 0
	for _, f := range s.pending {
		s.buf = append(s.buf, f...)
	}
	s.pending = nil
	return SegmentEvent{Kind: SegmentSpeechStart, Probability: p}
}

func (s *Segmenter) onSilenceFrame(samples []float32, p float64) SegmentEvent {
	s.speechRun = 0
	s.pending = nil

	if !s.inSpeech {
		return SegmentEvent{Kind: SegmentNone, Probability: p}
	}

	// Trailing silence is still part of the capture until the segment closes;
	// natural pauses inside a sentence belong to the utterance.
	s.buf = append(s.buf, samples...)
	s.silenceRun++
	if s.silenceRun < speechOffFrames {
		return SegmentEvent{Kind: SegmentNone, Probability: p}
	}

	utterance := s.buf
	s.inSpeech = false
	s.silenceRun = 0
	s.buf = nil
	return SegmentEvent{Kind: SegmentSpeechEnd, Probability: p, Utterance: utterance}
}
