package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"llm":        {"ollama", "openai", "anthropic", "gemini", "mistral", "groq", "llamacpp", "llamafile", "deepseek"},
	"stt":        {"deepgram"},
	"tts":        {"coqui", "elevenlabs"},
	"embeddings": {"openai", "ollama"},
	"vad":        {"energy"},
}

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader] and
// [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	// Provider name validation warns for unknown provider names.
	validateProviderName("llm", cfg.Providers.LLM.Name)
	validateProviderName("stt", cfg.Providers.STT.Name)
	validateProviderName("tts", cfg.Providers.TTS.Name)
	validateProviderName("embeddings", cfg.Providers.Embeddings.Name)
	validateProviderName("vad", cfg.Providers.VAD.Name)

	// Provider availability warnings: the pipeline runs degraded without
	// these, it does not fail.
	if cfg.Providers.LLM.Name == "" {
		slog.Warn("no LLM provider configured; knowledge queries will fall back to templates and canned responses")
	}
	if cfg.Providers.STT.Name == "" {
		slog.Warn("no STT provider configured; utterances will transcribe as empty and be dropped")
	}
	if cfg.Providers.TTS.Name == "" {
		slog.Warn("no TTS provider configured; responses will be text-only events")
	}
	if cfg.Providers.Embeddings.Name == "" {
		slog.Warn("no embeddings provider configured; semantic retrieval and intent classification are disabled")
	}

	// Data files
	if cfg.Data.Inventory == "" {
		slog.Warn("data.inventory is empty; equipment queries will have no catalog to answer from")
	}

	// Memory
	if cfg.Memory.MinSimilarity < 0 || cfg.Memory.MinSimilarity >= 1 {
		errs = append(errs, fmt.Errorf("memory.min_similarity %.2f is out of range [0, 1)", cfg.Memory.MinSimilarity))
	}
	if cfg.Memory.PostgresDSN == "" {
		slog.Warn("memory.postgres_dsn is empty; the interaction log is in-memory only")
	}

	// Pipeline
	if cfg.Pipeline.Threshold < 0 || cfg.Pipeline.Threshold > 1 {
		errs = append(errs, fmt.Errorf("pipeline.threshold %.2f is out of range [0, 1]", cfg.Pipeline.Threshold))
	}
	if cfg.Pipeline.MaxHistory < 0 {
		errs = append(errs, fmt.Errorf("pipeline.max_history %d must not be negative", cfg.Pipeline.MaxHistory))
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name — may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
