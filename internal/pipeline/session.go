// Package pipeline contains the per-connection voice loop: VAD-gated
// utterance segmentation, the locked processing chain that turns an
// utterance into a spoken answer, and the event stream that keeps the client
// display in sync.
package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/wiredbrain/axiom/internal/detect"
	"github.com/wiredbrain/axiom/internal/observe"
	"github.com/wiredbrain/axiom/internal/orchestrator"
	"github.com/wiredbrain/axiom/internal/router"
	"github.com/wiredbrain/axiom/internal/transcript"
	"github.com/wiredbrain/axiom/pkg/audio"
	"github.com/wiredbrain/axiom/pkg/provider/intent"
	"github.com/wiredbrain/axiom/pkg/provider/stt"
	"github.com/wiredbrain/axiom/pkg/provider/tts"
)

// Session drives one client connection through the voice pipeline:
//
//	Idle -> Listening -> Accumulating -> Locked-Processing -> Idle
//
// Audio frames arriving while an utterance is being processed are dropped,
// not buffered: input captured while the assistant thinks or speaks is
// stale by the time it could be handled, and one pipeline run per session
// at a time keeps turn order intact.
type Session struct {
	sink         Sink
	segmenter    *Segmenter
	chunker      *audio.Chunker
	transcriber  stt.Transcriber
	classifier   intent.Classifier
	normalizer   *transcript.Normalizer
	keywords     *detect.KeywordMapper
	topics       *detect.TopicMapper
	router       *router.Router
	orchestrator *orchestrator.Orchestrator
	speech       *tts.Queue
	metrics      *observe.Metrics
	log          *slog.Logger

	processing atomic.Bool

	// pendingIntent labels the response currently flowing through the
	// speech queue. Written only inside the locked processing phase.
	pendingIntent atomic.Value
}

// Config carries the collaborators for one session. All fields except
// Keywords, Topics, Metrics and Logger are required.
type Config struct {
	Sink         Sink
	Segmenter    *Segmenter
	Transcriber  stt.Transcriber
	Classifier   intent.Classifier
	Normalizer   *transcript.Normalizer
	Keywords     *detect.KeywordMapper
	Topics       *detect.TopicMapper
	Router       *router.Router
	Orchestrator *orchestrator.Orchestrator
	Synthesizer  tts.Synthesizer

	// Metrics defaults to the process-wide instance.
	Metrics *observe.Metrics
	Logger  *slog.Logger
}

// NewSession wires a session. It owns a speech queue over the synthesizer;
// Close must be called to stop it.
func NewSession(cfg Config) *Session {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}
	s := &Session{
		sink:         cfg.Sink,
		segmenter:    cfg.Segmenter,
		chunker:      &audio.Chunker{},
		transcriber:  cfg.Transcriber,
		classifier:   cfg.Classifier,
		normalizer:   cfg.Normalizer,
		keywords:     cfg.Keywords,
		topics:       cfg.Topics,
		router:       cfg.Router,
		orchestrator: cfg.Orchestrator,
		metrics:      metrics,
		log:          log,
	}
	s.pendingIntent.Store("")
	synth := timedSynthesizer{inner: cfg.Synthesizer, metrics: metrics}
	s.speech = tts.NewQueue(synth, s.deliverSpeech, log)
	return s
}

// timedSynthesizer records synthesis latency around the wrapped backend.
type timedSynthesizer struct {
	inner   tts.Synthesizer
	metrics *observe.Metrics
}

func (t timedSynthesizer) Synthesize(ctx context.Context, text string) (tts.Audio, error) {
	start := time.Now()
	clip, err := t.inner.Synthesize(ctx, text)
	t.metrics.SynthesisDuration.Record(ctx, time.Since(start).Seconds())
	return clip, err
}

func (t timedSynthesizer) Ready() bool { return t.inner.Ready() }

// deliverSpeech runs on the speech queue's consumer: announce the speaking
// state, then ship the WAV payload right behind it so animation and audio
// start together.
func (s *Session) deliverSpeech(text string, clip tts.Audio) {
	ctx := context.Background()
	label, _ := s.pendingIntent.Load().(string)
	if err := s.sink.SendEvent(ctx, speakingState(text, label)); err != nil {
		s.log.Warn("speaking event send failed", slog.String("error", err.Error()))
		return
	}
	wav := audio.EncodeWAV(clip.PCM, clip.SampleRate, 1)
	if err := s.sink.SendAudio(ctx, wav); err != nil {
		s.log.Warn("audio send failed", slog.String("error", err.Error()))
	}
}

// HandleAudio consumes one binary chunk from the wire. Chunks of any size
// are re-framed internally; frames arriving during locked processing are
// discarded.
func (s *Session) HandleAudio(ctx context.Context, data []byte) {
	if s.processing.Load() {
		return
	}
	for _, frame := range s.chunker.Push(data) {
		ev := s.segmenter.Process(frame)
		switch ev.Kind {
		case SegmentSpeechStart:
			s.sendEvent(ctx, speechStartEvent())
		case SegmentSpeechEnd:
			s.sendEvent(ctx, speechEndEvent())
			if len(ev.Utterance) == 0 {
				continue
			}
			s.processing.Store(true)
			utterance := ev.Utterance
			// Any buffered partial chunk is zero-padded into a final frame
			// and folded into the capture rather than dropped.
			if tail, ok := s.chunker.Flush(); ok {
				utterance = append(utterance, tail.Samples...)
			}
			go func() {
				defer s.unlock(ctx)
				s.process(ctx, utterance)
			}()
			return
		}
	}
}

// HandleControl consumes one JSON control message from the client.
func (s *Session) HandleControl(ctx context.Context, raw []byte) {
	var msg struct {
		Event string `json:"event"`
	}
	if err := json.Unmarshal(raw, &msg); err != nil {
		s.log.Warn("malformed control message", slog.String("error", err.Error()))
		return
	}
	if msg.Event == "client_ready" {
		s.log.Info("client ready")
		s.sendEvent(ctx, idleState())
	}
}

func (s *Session) sendEvent(ctx context.Context, event any) {
	if err := s.sink.SendEvent(ctx, event); err != nil {
		s.log.Warn("event send failed", slog.String("error", err.Error()))
	}
}

func (s *Session) unlock(ctx context.Context) {
	s.processing.Store(false)
	s.sendEvent(ctx, readyEvent())
}

// process runs the locked phase for one utterance. Panics are contained
// here: whatever happens, the session returns to idle and the connection
// stays up.
func (s *Session) process(ctx context.Context, utterance []float32) {
	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("pipeline panic",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
			s.metrics.RecordUtterance(ctx, "error")
			s.sendEvent(ctx, StateEvent{State: "idle", Error: "internal pipeline failure"})
		}
	}()

	s.sendEvent(ctx, thinkingState())

	sttStart := time.Now()
	result, err := s.transcriber.Transcribe(ctx, utterance)
	s.metrics.TranscriptionDuration.Record(ctx, time.Since(sttStart).Seconds())
	if err != nil {
		s.log.Error("transcription failed", slog.String("error", err.Error()))
		s.metrics.RecordUtterance(ctx, "error")
		s.sendEvent(ctx, errorState(err))
		return
	}
	text := result.Text
	s.log.Info("transcript", slog.String("text", text))

	if text == "" || transcript.IsFillerOnly(text) {
		s.metrics.RecordUtterance(ctx, "filler")
		s.sendEvent(ctx, idleState())
		return
	}
	if transcript.IsHallucination(text) {
		s.log.Warn("hallucination discarded", slog.String("text", text))
		s.metrics.RecordUtterance(ctx, "hallucination")
		s.sendEvent(ctx, idleState())
		return
	}

	// Intent is classified on the raw transcript; normalization can erase
	// the phrasing cues the classifier was trained on.
	classifyStart := time.Now()
	prediction, err := s.classifier.Classify(ctx, text)
	s.metrics.ClassificationDuration.Record(ctx, time.Since(classifyStart).Seconds())
	if err != nil {
		s.log.Error("intent classification failed", slog.String("error", err.Error()))
		s.metrics.RecordUtterance(ctx, "error")
		s.sendEvent(ctx, errorState(err))
		return
	}
	s.log.Info("intent",
		slog.String("label", prediction.Intent),
		slog.Float64("confidence", prediction.Confidence))

	normalized := transcript.CleanQuery(text)
	if s.normalizer != nil {
		normalized = s.normalizer.Normalize(normalized)
	}

	if s.keywords != nil {
		if match, ok := s.keywords.Detect(normalized); ok {
			product, err := s.keywords.ProductName(match.CardIndex)
			if err != nil {
				product = ""
			}
			s.metrics.RecordCardTrigger(ctx, product)
			s.sendEvent(ctx, CardEvent{
				Event:       "trigger_card",
				CardIndex:   match.CardIndex,
				Keyword:     match.Keyword,
				ProductName: product,
			})
		}
	}
	if s.topics != nil {
		if model, ok := s.topics.Process(normalized); ok {
			s.sendEvent(ctx, ModelEvent{
				Event:     "load_3d_model",
				ModelPath: model.Path,
				ModelName: model.Name,
			})
		}
	}

	queuedBefore := s.router.QueuedTopics()
	decision := s.router.Route(prediction.Intent, prediction.Confidence, normalized)
	if delta := s.router.QueuedTopics() - queuedBefore; delta != 0 {
		s.metrics.QueuedTopics.Add(ctx, int64(delta))
	}
	s.metrics.RecordDecision(ctx, decision.Kind.String(), prediction.Intent)

	var response string
	switch decision.Kind {
	case router.KindSilent:
		s.metrics.RecordUtterance(ctx, "silent")
		s.sendEvent(ctx, idleState())
		return
	case router.KindCanned, router.KindTemplate:
		response = decision.Text
	case router.KindGenerate:
		genStart := time.Now()
		response = s.orchestrator.Answer(ctx, decision.Intent, decision.Query)
		s.metrics.GenerationDuration.Record(ctx, time.Since(genStart).Seconds())
		if decision.FollowUp != "" {
			response += " " + decision.FollowUp
		}
	}

	response = transcript.CorrectResponse(response)
	s.speak(ctx, prediction.Intent, response)

	s.metrics.UtteranceDuration.Record(ctx, time.Since(started).Seconds())
	s.metrics.RecordUtterance(ctx, "answered")
}

// speak enqueues the response and waits for the speech queue to finish, so
// ready_to_listen is not emitted while audio is still playing out.
func (s *Session) speak(ctx context.Context, intentLabel, response string) {
	s.pendingIntent.Store(intentLabel)
	s.speech.Enqueue(response)
	if err := s.speech.Drain(ctx); err != nil {
		s.log.Warn("speech drain interrupted", slog.String("error", err.Error()))
	}
}

// Close tears the session down: the open utterance is discarded, queued
// speech is dropped and the consumer stopped, and per-session detector and
// router state is reset.
func (s *Session) Close() {
	s.segmenter.Abort()
	s.chunker.Reset()
	if n := s.router.QueuedTopics(); n > 0 {
		s.metrics.QueuedTopics.Add(context.Background(), -int64(n))
	}
	s.router.Reset()
	if s.topics != nil {
		s.topics.Reset()
	}
	s.speech.Flush()
	s.speech.Close()
}
