// Package anyllm provides a response generator backed by
// github.com/mozilla-ai/any-llm-go, a unified multi-provider interface that
// supports OpenAI, Anthropic, Gemini, Ollama, DeepSeek, Mistral, Groq, and
// local llama.cpp servers.
//
// The generator carries an optional fallback model. Local model servers lose
// models (a re-pull gone wrong, a pruned volume); when a completion fails
// because the configured model is missing, the generator swaps to the
// fallback model once for the lifetime of the process and retries the
// request. All other errors are returned unchanged, the single deliberate
// exception to the no-retry rule.
package anyllm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/mozilla-ai/any-llm-go/providers/anthropic"
	"github.com/mozilla-ai/any-llm-go/providers/deepseek"
	"github.com/mozilla-ai/any-llm-go/providers/gemini"
	"github.com/mozilla-ai/any-llm-go/providers/groq"
	"github.com/mozilla-ai/any-llm-go/providers/llamacpp"
	"github.com/mozilla-ai/any-llm-go/providers/llamafile"
	"github.com/mozilla-ai/any-llm-go/providers/mistral"
	"github.com/mozilla-ai/any-llm-go/providers/ollama"
	anyllmoai "github.com/mozilla-ai/any-llm-go/providers/openai"

	"github.com/wiredbrain/axiom/pkg/provider/llm"
)

// Ensure Generator implements the llm.Generator interface.
var _ llm.Generator = (*Generator)(nil)

// Generator implements llm.Generator by wrapping any-llm-go. Safe for
// concurrent use.
type Generator struct {
	backend       anyllmlib.Provider
	fallbackModel string
	log           *slog.Logger

	mu    sync.Mutex
	model string
	// swapped is set after the one permitted fallback switch.
	swapped bool
}

type config struct {
	fallbackModel string
	log           *slog.Logger
}

// Option is a functional option for Generator.
type Option func(*config)

// WithFallbackModel names the model the generator switches to, once, when
// the primary model is reported missing by the backend.
func WithFallbackModel(model string) Option {
	return func(c *config) {
		c.fallbackModel = model
	}
}

// WithLogger sets the logger used for the model-swap warning.
func WithLogger(log *slog.Logger) Option {
	return func(c *config) {
		c.log = log
	}
}

// New creates a Generator backed by the given provider name, one of:
// "openai", "anthropic", "gemini", "ollama", "deepseek", "mistral", "groq",
// "llamacpp", "llamafile". Backend credentials come from backendOpts or the
// provider's usual environment variables (OPENAI_API_KEY and friends).
func New(providerName, model string, opts []Option, backendOpts ...anyllmlib.Option) (*Generator, error) {
	if providerName == "" {
		return nil, fmt.Errorf("anyllm: providerName must not be empty")
	}
	if model == "" {
		return nil, fmt.Errorf("anyllm: model must not be empty")
	}

	backend, err := createBackend(providerName, backendOpts...)
	if err != nil {
		return nil, fmt.Errorf("anyllm: create %q backend: %w", providerName, err)
	}

	cfg := &config{log: slog.Default()}
	for _, o := range opts {
		o(cfg)
	}

	return &Generator{
		backend:       backend,
		model:         model,
		fallbackModel: cfg.fallbackModel,
		log:           cfg.log,
	}, nil
}

func createBackend(providerName string, opts ...anyllmlib.Option) (anyllmlib.Provider, error) {
	switch strings.ToLower(providerName) {
	case "openai":
		return anyllmoai.New(opts...)
	case "anthropic":
		return anthropic.New(opts...)
	case "gemini":
		return gemini.New(opts...)
	case "ollama":
		return ollama.New(opts...)
	case "deepseek":
		return deepseek.New(opts...)
	case "mistral":
		return mistral.New(opts...)
	case "groq":
		return groq.New(opts...)
	case "llamacpp":
		return llamacpp.New(opts...)
	case "llamafile":
		return llamafile.New(opts...)
	default:
		return nil, fmt.Errorf("unsupported provider %q; supported: openai, anthropic, gemini, ollama, deepseek, mistral, groq, llamacpp, llamafile", providerName)
	}
}

// Generate implements llm.Generator.
func (g *Generator) Generate(ctx context.Context, req llm.Request) (string, error) {
	text, err := g.complete(ctx, g.currentModel(), req)
	if err == nil {
		return text, nil
	}

	if model, ok := g.trySwap(err); ok {
		return g.complete(ctx, model, req)
	}
	return "", err
}

// Ready implements llm.Generator.
func (g *Generator) Ready() bool {
	return true
}

// Model returns the model currently in use, which changes at most once.
func (g *Generator) Model() string {
	return g.currentModel()
}

func (g *Generator) currentModel() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.model
}

// trySwap switches to the fallback model when err reports the primary model
// missing. It returns the model to retry with, and false when no swap
// happened (no fallback configured, already swapped, or an unrelated error).
func (g *Generator) trySwap(err error) (string, bool) {
	if g.fallbackModel == "" || !strings.Contains(strings.ToLower(err.Error()), "not found") {
		return "", false
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.swapped {
		return "", false
	}
	g.log.Warn("primary model missing, switching to fallback for the rest of the process",
		"primary", g.model, "fallback", g.fallbackModel, "error", err)
	g.model = g.fallbackModel
	g.swapped = true
	return g.model, true
}

func (g *Generator) complete(ctx context.Context, model string, req llm.Request) (string, error) {
	var messages []anyllmlib.Message
	if req.SystemPrompt != "" {
		messages = append(messages, anyllmlib.Message{
			Role:    anyllmlib.RoleSystem,
			Content: req.SystemPrompt,
		})
	}
	messages = append(messages, anyllmlib.Message{
		Role:    anyllmlib.RoleUser,
		Content: req.UserText,
	})

	params := anyllmlib.CompletionParams{
		Model:    model,
		Messages: messages,
	}
	if req.Temperature != 0 {
		t := req.Temperature
		params.Temperature = &t
	}
	if req.MaxTokens > 0 {
		mt := req.MaxTokens
		params.MaxTokens = &mt
	}

	resp, err := g.backend.Completion(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anyllm: completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("anyllm: empty choices in response")
	}
	return resp.Choices[0].Message.ContentString(), nil
}
