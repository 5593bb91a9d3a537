package energy

import (
	"math"
	"testing"

	"github.com/wiredbrain/axiom/pkg/provider/vad"
)

func sine(amplitude float64) []float32 {
	samples := make([]float32, vad.FrameSamples)
	for i := range samples {
		samples[i] = float32(amplitude * math.Sin(2*math.Pi*220*float64(i)/16000))
	}
	return samples
}

func TestInferRejectsWrongFrameSize(t *testing.T) {
	d := New()
	if _, err := d.Infer(make([]float32, 100)); err == nil {
		t.Error("expected error for short frame")
	}
}

func TestSilenceScoresLow(t *testing.T) {
	d := New()
	// Near-silent frames with a little dither to settle the noise floor.
	for range 20 {
		p, err := d.Infer(sine(0.0005))
		if err != nil {
			t.Fatalf("infer: %v", err)
		}
		if p > 0.4 {
			t.Fatalf("silence scored %v", p)
		}
	}
}

func TestSpeechScoresHighAfterFloorSettles(t *testing.T) {
	d := New()
	for range 20 {
		if _, err := d.Infer(sine(0.0005)); err != nil {
			t.Fatalf("infer: %v", err)
		}
	}

	p, err := d.Infer(sine(0.3))
	if err != nil {
		t.Fatalf("infer: %v", err)
	}
	if p < 0.9 {
		t.Errorf("loud frame scored %v, want >= 0.9", p)
	}
}

func TestLongUtteranceDoesNotRaiseFloor(t *testing.T) {
	d := New()
	for range 20 {
		if _, err := d.Infer(sine(0.0005)); err != nil {
			t.Fatalf("infer: %v", err)
		}
	}

	// A few seconds of continuous speech must keep scoring as speech.
	for i := range 100 {
		p, err := d.Infer(sine(0.3))
		if err != nil {
			t.Fatalf("infer: %v", err)
		}
		if p < 0.9 {
			t.Fatalf("frame %d scored %v during sustained speech", i, p)
		}
	}
}

func TestResetClearsFloor(t *testing.T) {
	d := New()
	for range 20 {
		if _, err := d.Infer(sine(0.01)); err != nil {
			t.Fatalf("infer: %v", err)
		}
	}
	d.Reset()
	if !d.Ready() {
		t.Error("detector must stay ready after reset")
	}
}
