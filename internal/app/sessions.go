package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wiredbrain/axiom/internal/conversation"
	"github.com/wiredbrain/axiom/internal/detect"
	"github.com/wiredbrain/axiom/internal/health"
	"github.com/wiredbrain/axiom/internal/orchestrator"
	"github.com/wiredbrain/axiom/internal/pipeline"
	"github.com/wiredbrain/axiom/internal/router"
	"github.com/wiredbrain/axiom/internal/server"
	"github.com/wiredbrain/axiom/pkg/provider/stt"
	"github.com/wiredbrain/axiom/pkg/provider/tts"
)

// defaultListenAddr is used when server.listen_addr is not configured.
const defaultListenAddr = ":8765"

// shutdownTimeout bounds graceful HTTP shutdown after the run context ends.
const shutdownTimeout = 10 * time.Second

// journalCloseTimeout bounds the session bookkeeping write at teardown.
const journalCloseTimeout = 5 * time.Second

// NewSession builds one voice session bound to the given sink. Conversation
// state (history, multi-query queue, topic tracking, segmenter hysteresis)
// is per-connection; the knowledge index, journal, and providers are shared.
func (a *App) NewSession(sink pipeline.Sink) (server.Session, error) {
	history := conversation.NewHistory(a.cfg.Pipeline.MaxHistory)

	orchOpts := []orchestrator.Option{
		orchestrator.WithJournal(a.journal),
		orchestrator.WithLogger(a.log),
	}
	if a.inventory != nil {
		orchOpts = append(orchOpts, orchestrator.WithInventory(a.inventory))
	}
	orch := orchestrator.New(a.retriever, a.providers.LLM, history, orchOpts...)

	transcriber := a.providers.STT
	if transcriber == nil {
		transcriber = silentTranscriber{}
	}
	synth := a.providers.TTS
	if synth == nil {
		synth = silentSynthesizer{}
	}

	det, err := a.providers.NewVAD()
	if err != nil {
		return nil, fmt.Errorf("app: create detector: %w", err)
	}

	sess := pipeline.NewSession(pipeline.Config{
		Sink:         sink,
		Segmenter:    pipeline.NewSegmenter(det, a.cfg.Pipeline.Threshold, a.log),
		Transcriber:  transcriber,
		Classifier:   a.classifier,
		Normalizer:   a.normalizer,
		Keywords:     a.keywords,
		Topics:       detect.NewTopicMapper(a.log),
		Router:       router.New(a.templates),
		Orchestrator: orch,
		Synthesizer:  synth,
		Metrics:      a.metrics,
		Logger:       a.log,
	})

	return &journaledSession{
		Session: sess,
		end: func() {
			ctx, cancel := context.WithTimeout(context.Background(), journalCloseTimeout)
			defer cancel()
			if err := a.journal.EndSession(ctx, history.SessionID()); err != nil {
				a.log.Warn("session bookkeeping failed",
					slog.String("session", history.SessionID()),
					slog.String("error", err.Error()))
			}
		},
	}, nil
}

// journaledSession finalises the interaction log's session row once the
// connection goes away.
type journaledSession struct {
	*pipeline.Session
	once sync.Once
	end  func()
}

func (s *journaledSession) Close() {
	s.Session.Close()
	s.once.Do(s.end)
}

// Health returns the readiness checkers for this deployment.
func (a *App) Health() *health.Handler {
	checkers := []health.Checker{
		health.Detector(a.vadProbe.Ready),
	}
	if a.pgJournal != nil {
		checkers = append(checkers, health.Database(a.pgJournal))
	}
	if a.memIndex != nil {
		checkers = append(checkers, health.Knowledge(a.memIndex.Len))
	}
	return health.New(checkers...)
}

// Run serves the websocket endpoint, health probes, and metrics until ctx is
// cancelled, then shuts the HTTP server down gracefully.
func (a *App) Run(ctx context.Context) error {
	srv := server.New(a.NewSession,
		server.WithHealth(a.Health()),
		server.WithMetrics(a.metrics),
		server.WithLogger(a.log),
		server.WithOriginPatterns(a.cfg.Server.AllowedOrigins),
	)

	addr := a.cfg.Server.ListenAddr
	if addr == "" {
		addr = defaultListenAddr
	}
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.log.Info("listening", "addr", addr)
		if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(sctx)
	})
	return g.Wait()
}

// silentTranscriber stands in when no STT provider is configured; every
// utterance transcribes as empty and is dropped by the pipeline.
type silentTranscriber struct{}

var _ stt.Transcriber = silentTranscriber{}

func (silentTranscriber) Transcribe(context.Context, []float32) (stt.Transcript, error) {
	return stt.Transcript{}, nil
}

// Ready reports false so the degraded slot stays visible to health checks.
func (silentTranscriber) Ready() bool { return false }

// silentSynthesizer stands in when no TTS provider is configured; the
// speech queue drops empty clips, so responses remain text-only events.
type silentSynthesizer struct{}

var _ tts.Synthesizer = silentSynthesizer{}

func (silentSynthesizer) Synthesize(context.Context, string) (tts.Audio, error) {
	return tts.Audio{}, nil
}

// Ready reports false so the degraded slot stays visible to health checks.
func (silentSynthesizer) Ready() bool { return false }
