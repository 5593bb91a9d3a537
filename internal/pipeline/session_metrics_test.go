package pipeline

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/wiredbrain/axiom/internal/conversation"
	"github.com/wiredbrain/axiom/internal/observe"
	"github.com/wiredbrain/axiom/internal/orchestrator"
	"github.com/wiredbrain/axiom/internal/router"
	"github.com/wiredbrain/axiom/pkg/provider/intent"
	intentmock "github.com/wiredbrain/axiom/pkg/provider/intent/mock"
	llmmock "github.com/wiredbrain/axiom/pkg/provider/llm/mock"
	"github.com/wiredbrain/axiom/pkg/provider/stt"
	sttmock "github.com/wiredbrain/axiom/pkg/provider/stt/mock"
	ttsmock "github.com/wiredbrain/axiom/pkg/provider/tts/mock"
	vadmock "github.com/wiredbrain/axiom/pkg/provider/vad/mock"
)

// newMeteredEnv builds a session wired to a ManualReader-backed metrics
// instance so tests can inspect what the pipeline records.
func newMeteredEnv(t *testing.T, transcriptText string, prediction intent.Prediction) (*sessionEnv, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	metrics, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	env := &sessionEnv{
		sink:       &recordSink{},
		det:        &vadmock.Detector{},
		transcribe: &sttmock.Transcriber{Results: []stt.Transcript{{Text: transcriptText, Confidence: 0.95}}},
		classify:   &intentmock.Classifier{Default: prediction},
		synth:      &ttsmock.Synthesizer{},
	}
	orch := orchestrator.New(emptyRetriever{}, &llmmock.Generator{Response: "Generated answer. Anything else?"}, conversation.NewHistory(5))
	env.session = NewSession(Config{
		Sink:         env.sink,
		Segmenter:    NewSegmenter(env.det, 0, nil),
		Transcriber:  env.transcribe,
		Classifier:   env.classify,
		Router:       router.New(nil),
		Orchestrator: orch,
		Synthesizer:  env.synth,
		Metrics:      metrics,
	})
	t.Cleanup(env.session.Close)
	return env, reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func histogramCount(t *testing.T, rm metricdata.ResourceMetrics, name string) uint64 {
	t.Helper()
	found := findMetric(rm, name)
	if found == nil {
		t.Fatalf("metric %q not recorded", name)
	}
	hist, ok := found.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("metric %q is not a float64 histogram", name)
	}
	var total uint64
	for _, dp := range hist.DataPoints {
		total += dp.Count
	}
	return total
}

func TestSessionRecordsStageDurations(t *testing.T) {
	env, reader := newMeteredEnv(t, "hello there", intent.Prediction{Intent: intent.IntentGreeting, Confidence: 0.5})

	feedUtterance(env)
	waitForReady(t, env.sink)

	rm := collectMetrics(t, reader)
	for _, name := range []string{
		"axiom.stt.duration",
		"axiom.intent.duration",
		"axiom.tts.duration",
		"axiom.utterance.duration",
	} {
		if got := histogramCount(t, rm, name); got != 1 {
			t.Errorf("%s observations = %d, want 1", name, got)
		}
	}

	found := findMetric(rm, "axiom.utterances")
	if found == nil {
		t.Fatal("axiom.utterances not recorded")
	}
	sum, ok := found.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatal("axiom.utterances is not an int64 sum")
	}
	var answered int64
	for _, dp := range sum.DataPoints {
		if v, _ := dp.Attributes.Value(attribute.Key("outcome")); v.AsString() == "answered" {
			answered += dp.Value
		}
	}
	if answered != 1 {
		t.Errorf("answered utterances = %d, want 1", answered)
	}

	if findMetric(rm, "axiom.router.decisions") == nil {
		t.Error("axiom.router.decisions not recorded")
	}
}

func TestSessionRecordsFillerOutcome(t *testing.T) {
	env, reader := newMeteredEnv(t, "um", intent.Prediction{Intent: intent.IntentGreeting, Confidence: 0.9})

	feedUtterance(env)
	waitForReady(t, env.sink)

	rm := collectMetrics(t, reader)
	found := findMetric(rm, "axiom.utterances")
	if found == nil {
		t.Fatal("axiom.utterances not recorded")
	}
	sum := found.Data.(metricdata.Sum[int64])
	var filler int64
	for _, dp := range sum.DataPoints {
		if v, _ := dp.Attributes.Value(attribute.Key("outcome")); v.AsString() == "filler" {
			filler += dp.Value
		}
	}
	if filler != 1 {
		t.Errorf("filler utterances = %d, want 1", filler)
	}
}

func queuedTopicsValue(t *testing.T, rm metricdata.ResourceMetrics) int64 {
	t.Helper()
	found := findMetric(rm, "axiom.queued_topics")
	if found == nil {
		t.Fatal("axiom.queued_topics not recorded")
	}
	sum, ok := found.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatal("axiom.queued_topics is not an int64 sum")
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestSessionQueuedTopicsGauge(t *testing.T) {
	env, reader := newMeteredEnv(t,
		"Tell me about the Jetson and do we have a RealSense camera?",
		intent.Prediction{Intent: intent.IntentEquipmentQuery, Confidence: 0.9})

	feedUtterance(env)
	waitForReady(t, env.sink)

	if got := queuedTopicsValue(t, collectMetrics(t, reader)); got != 1 {
		t.Errorf("queued topics after compound question = %d, want 1", got)
	}

	// Teardown drains the queue and returns the gauge to zero.
	env.session.Close()
	if got := queuedTopicsValue(t, collectMetrics(t, reader)); got != 0 {
		t.Errorf("queued topics after close = %d, want 0", got)
	}
}
