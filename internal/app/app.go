// Package app wires all AXIOM subsystems into a running application.
//
// The App struct owns the full lifecycle: New creates and connects all
// subsystems, Run serves the websocket endpoint until the context is
// cancelled, and Shutdown tears everything down in order.
//
// For testing, inject doubles via functional options (WithRetriever,
// WithJournal, etc.). When an option is not provided, New creates real
// implementations from the config.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/wiredbrain/axiom/internal/config"
	"github.com/wiredbrain/axiom/internal/conversation"
	convpostgres "github.com/wiredbrain/axiom/internal/conversation/postgres"
	"github.com/wiredbrain/axiom/internal/detect"
	"github.com/wiredbrain/axiom/internal/observe"
	"github.com/wiredbrain/axiom/internal/retrieval"
	"github.com/wiredbrain/axiom/internal/retrieval/pgstore"
	"github.com/wiredbrain/axiom/internal/router"
	"github.com/wiredbrain/axiom/internal/transcript"
	"github.com/wiredbrain/axiom/internal/transcript/phonetic"
	"github.com/wiredbrain/axiom/pkg/provider/embeddings"
	"github.com/wiredbrain/axiom/pkg/provider/intent"
	"github.com/wiredbrain/axiom/pkg/provider/intent/linear"
	"github.com/wiredbrain/axiom/pkg/provider/llm"
	"github.com/wiredbrain/axiom/pkg/provider/stt"
	"github.com/wiredbrain/axiom/pkg/provider/tts"
	"github.com/wiredbrain/axiom/pkg/provider/vad"
	"github.com/wiredbrain/axiom/pkg/provider/vad/energy"
)

// Providers holds one interface value per provider slot. Nil means the
// provider is not configured; the affected pipeline stage degrades instead
// of failing. Populated by main.go via the config registry.
type Providers struct {
	LLM        llm.Generator
	STT        stt.Transcriber
	TTS        tts.Synthesizer
	Embeddings embeddings.Provider

	// NewVAD constructs one voice activity detector per session. Detectors
	// carry adaptive per-stream state (the energy detector tracks a noise
	// floor), so an instance must never be shared across connections.
	NewVAD func() (vad.Detector, error)
}

// App owns all subsystem lifetimes and builds one pipeline session per
// websocket connection.
type App struct {
	cfg       *config.Config
	providers *Providers
	log       *slog.Logger
	metrics   *observe.Metrics

	// Shared, read-only after New.
	inventory  *retrieval.Inventory
	templates  *router.TemplateStore
	normalizer *transcript.Normalizer
	keywords   *detect.KeywordMapper
	classifier intent.Classifier
	retriever  retrieval.Retriever
	journal    conversation.Log

	// memIndex is set when the retriever is the in-memory index; readiness
	// checks report its record count.
	memIndex *retrieval.MemIndex

	// pgJournal is set when the journal is Postgres-backed; readiness
	// checks ping it.
	pgJournal *convpostgres.InteractionLog

	// vadProbe is a dedicated detector instance for readiness checks, kept
	// out of the per-session pool so probing never disturbs live streams.
	vadProbe vad.Detector

	// closers are called in order during Shutdown.
	closers []func() error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithRetriever injects a retriever instead of creating one from config.
func WithRetriever(r retrieval.Retriever) Option {
	return func(a *App) { a.retriever = r }
}

// WithJournal injects an interaction log instead of creating one from config.
func WithJournal(j conversation.Log) Option {
	return func(a *App) { a.journal = j }
}

// WithClassifier injects an intent classifier instead of building the linear
// head from the configured weights file.
func WithClassifier(c intent.Classifier) Option {
	return func(a *App) { a.classifier = c }
}

// WithLogger sets the logger. Defaults to [slog.Default].
func WithLogger(log *slog.Logger) Option {
	return func(a *App) { a.log = log }
}

// WithMetrics injects a metrics instance. Defaults to [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// New creates an App by wiring all subsystems together. The providers struct
// comes from main.go (populated via the config registry). Use Option
// functions to inject test doubles for any subsystem.
//
// New performs all initialisation synchronously: data file loading, journal
// connection, and knowledge index seeding.
func New(ctx context.Context, cfg *config.Config, providers *Providers, opts ...Option) (*App, error) {
	if providers == nil {
		providers = &Providers{}
	}
	a := &App{
		cfg:       cfg,
		providers: providers,
	}
	for _, o := range opts {
		o(a)
	}
	if a.log == nil {
		a.log = slog.Default()
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}
	if a.providers.NewVAD == nil {
		a.providers.NewVAD = func() (vad.Detector, error) { return energy.New(), nil }
	}
	probe, err := a.providers.NewVAD()
	if err != nil {
		return nil, fmt.Errorf("app: init vad: %w", err)
	}
	a.vadProbe = probe

	if err := a.initData(); err != nil {
		return nil, fmt.Errorf("app: init data: %w", err)
	}
	if err := a.initJournal(ctx); err != nil {
		return nil, fmt.Errorf("app: init journal: %w", err)
	}
	if err := a.initRetrieval(ctx); err != nil {
		return nil, fmt.Errorf("app: init retrieval: %w", err)
	}
	a.initClassifier()

	return a, nil
}

// initData loads the JSON data files. Every file is optional: a missing path
// degrades the feature it feeds and is logged, not fatal. A present but
// malformed file is an error.
func (a *App) initData() error {
	if path := a.cfg.Data.Inventory; path != "" {
		inv, err := retrieval.LoadInventory(path)
		if err != nil {
			return fmt.Errorf("load inventory %q: %w", path, err)
		}
		a.inventory = inv
		a.keywords = detect.NewKeywordMapper(inv, a.cfg.Data.CarouselMapping, a.log)
		a.log.Info("inventory loaded", slog.Int("items", len(inv.Items)))
	}

	templates, err := router.LoadTemplates(a.cfg.Data.Templates)
	if err != nil {
		return fmt.Errorf("load templates %q: %w", a.cfg.Data.Templates, err)
	}
	a.templates = templates

	if path := a.cfg.Data.Vocabulary; path != "" {
		vocab, err := transcript.LoadVocabulary(path)
		if err != nil {
			return fmt.Errorf("load vocabulary %q: %w", path, err)
		}
		a.normalizer = transcript.NewNormalizer(vocab, phonetic.New())
		a.log.Info("vocabulary loaded", slog.Int("terms", len(vocab)))
	} else {
		a.normalizer = transcript.NewNormalizer(nil, phonetic.New())
	}

	return nil
}

// initJournal connects the durable interaction log, or falls back to the
// in-memory journal when no DSN is configured.
func (a *App) initJournal(ctx context.Context) error {
	if a.journal != nil {
		return nil
	}

	dsn := a.cfg.Memory.PostgresDSN
	if dsn == "" {
		a.journal = conversation.NewMemLog()
		return nil
	}

	jl, err := convpostgres.New(ctx, dsn)
	if err != nil {
		return err
	}
	a.journal = jl
	a.pgJournal = jl
	a.closers = append(a.closers, func() error {
		jl.Close()
		return nil
	})
	return nil
}

// initRetrieval builds the knowledge index and seeds it with every record
// the data files hold. With a DSN the index lives in pgvector and is shared
// across processes; otherwise it is in-memory and rebuilt at startup.
func (a *App) initRetrieval(ctx context.Context) error {
	if a.retriever == nil {
		if a.providers.Embeddings == nil {
			a.log.Warn("no embeddings provider; semantic retrieval disabled")
			a.retriever = noopRetriever{}
			return nil
		}

		if dsn := a.cfg.Memory.PostgresDSN; dsn != "" {
			store, err := pgstore.New(ctx, dsn, a.providers.Embeddings, a.cfg.Memory.MinSimilarity)
			if err != nil {
				return err
			}
			a.retriever = store
			a.closers = append(a.closers, func() error {
				store.Close()
				return nil
			})
		} else {
			idx := retrieval.NewMemIndex(a.providers.Embeddings, a.cfg.Memory.MinSimilarity)
			a.retriever = idx
			a.memIndex = idx
		}
	}

	indexer, ok := a.retriever.(interface {
		Index(ctx context.Context, records []retrieval.Record) error
	})
	if !ok {
		return nil
	}

	records, err := a.knowledgeRecords()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}
	if err := indexer.Index(ctx, records); err != nil {
		return err
	}
	a.log.Info("knowledge index seeded", slog.Int("records", len(records)))
	return nil
}

// knowledgeRecords collects every indexable record from the data files.
func (a *App) knowledgeRecords() ([]retrieval.Record, error) {
	var records []retrieval.Record

	if a.inventory != nil {
		for _, item := range a.inventory.Items {
			records = append(records, item)
		}
	}

	if path := a.cfg.Data.Projects; path != "" {
		projects, err := retrieval.LoadProjects(path)
		if err != nil {
			return nil, fmt.Errorf("load projects %q: %w", path, err)
		}
		for _, p := range projects {
			records = append(records, p)
		}
	}

	// The authority roster has built-in defaults, so this load succeeds
	// even without a file.
	authorities, err := retrieval.LoadAuthorities(a.cfg.Data.Authorities)
	if err != nil {
		return nil, fmt.Errorf("load authorities %q: %w", a.cfg.Data.Authorities, err)
	}
	for _, auth := range authorities {
		records = append(records, auth)
	}

	return records, nil
}

// initClassifier builds the linear intent head. Without an embeddings
// provider the classifier is constructed not-ready and labels everything
// unknown, which the router turns into a clarification prompt.
func (a *App) initClassifier() {
	if a.classifier != nil {
		return
	}
	if a.providers.Embeddings == nil {
		a.classifier = linear.New(nil, "", a.log)
		return
	}
	a.classifier = linear.New(a.providers.Embeddings, a.cfg.Data.IntentWeights, a.log)
}

// Shutdown tears down all subsystems in init order. It respects the context
// deadline: if ctx expires before all closers finish, remaining closers are
// skipped and the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		a.log.Info("shutting down", slog.Int("closers", len(a.closers)))

		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				a.log.Warn("shutdown deadline exceeded", slog.Int("remaining", len(a.closers)-i))
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				a.log.Warn("closer error", slog.Int("index", i), slog.String("error", err.Error()))
			}
		}

		a.log.Info("shutdown complete")
	})
	return shutdownErr
}

// noopRetriever stands in when no embeddings provider is configured; every
// query retrieves nothing and the orchestrator answers from the inventory
// pre-check and hardcoded facts alone.
type noopRetriever struct{}

func (noopRetriever) Retrieve(context.Context, retrieval.Category, string, int) ([]retrieval.Scored, error) {
	return nil, nil
}
