// Package orchestrator produces the spoken answer for a knowledge query:
// hardcoded facts first, then retrieval, prompt assembly and generation,
// with every exchange recorded in the conversation window and the
// interaction log.
package orchestrator

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/wiredbrain/axiom/internal/conversation"
	"github.com/wiredbrain/axiom/internal/retrieval"
	"github.com/wiredbrain/axiom/pkg/provider/intent"
	"github.com/wiredbrain/axiom/pkg/provider/llm"
)

// FallbackResponse is spoken when generation fails outright. Better a
// graceful apology than dead air in front of a visitor.
const FallbackResponse = "I am having trouble right now. Can you try again?"

const (
	generationMaxTokens   = 80
	generationTemperature = 0.3
	contextTurns          = 4
)

// Orchestrator answers knowledge queries. It owns the conversation window
// for its session and appends every exchange to the interaction log.
type Orchestrator struct {
	retriever retrieval.Retriever
	inventory *retrieval.Inventory
	generator llm.Generator
	history   *conversation.History
	journal   conversation.Log
	log       *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithInventory enables the exact-match inventory pre-check for equipment
// queries.
func WithInventory(inv *retrieval.Inventory) Option {
	return func(o *Orchestrator) { o.inventory = inv }
}

// WithJournal persists every exchange to the given log.
func WithJournal(journal conversation.Log) Option {
	return func(o *Orchestrator) { o.journal = journal }
}

// WithLogger sets the structured logger.
func WithLogger(log *slog.Logger) Option {
	return func(o *Orchestrator) { o.log = log }
}

// New constructs an Orchestrator around a retriever, a generator and the
// session's conversation window.
func New(retriever retrieval.Retriever, generator llm.Generator, history *conversation.History, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		retriever: retriever,
		generator: generator,
		history:   history,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// History exposes the session's conversation window.
func (o *Orchestrator) History() *conversation.History { return o.history }

// Answer produces the response for one knowledge query. It never returns an
// error to the caller: generation failures degrade to [FallbackResponse] so
// the session always has something to say.
func (o *Orchestrator) Answer(ctx context.Context, intentLabel, text string) string {
	if response, ok := hardcodedAnswer(text); ok {
		o.record(ctx, conversation.Interaction{
			UserQuery:  text,
			Intent:     intentLabel,
			Response:   response,
			Confidence: 1.0,
			Metadata:   map[string]any{"hardcoded": true},
		})
		return response
	}

	if o.generator == nil {
		o.log.Warn("no generator configured", slog.String("intent", intentLabel))
		return FallbackResponse
	}

	records := o.retrieve(ctx, intentLabel, text)
	conversationContext := o.history.ContextString(contextTurns)
	prompt := buildPrompt(intentLabel, conversationContext, formatRecords(records))

	response, err := o.generator.Generate(ctx, llm.Request{
		SystemPrompt: prompt,
		UserText:     text,
		MaxTokens:    generationMaxTokens,
		Temperature:  generationTemperature,
	})
	if err != nil {
		o.log.Error("generation failed", slog.String("intent", intentLabel), slog.String("error", err.Error()))
		return FallbackResponse
	}
	response = strings.TrimSpace(response)

	o.record(ctx, conversation.Interaction{
		UserQuery:  text,
		Intent:     intentLabel,
		Response:   response,
		Confidence: 0.9,
		Metadata: map[string]any{
			"rag_results":              len(records),
			"had_conversation_context": conversationContext != "",
		},
	})
	return response
}

// retrieve gathers the data block for the prompt. Equipment queries check
// the inventory for exact name matches before falling back to semantic
// search; when someone names a product, the right record beats any
// embedding ranking.
func (o *Orchestrator) retrieve(ctx context.Context, intentLabel, text string) []retrieval.Record {
	category := retrieval.CategoryEquipment
	switch intentLabel {
	case intent.IntentProjectIdea:
		category = retrieval.CategoryProjects
	case intent.IntentPeopleQuery, intent.IntentLabInfo:
		category = retrieval.CategoryAuthorities
	default:
		if matches := o.inventoryMatches(text); len(matches) > 0 {
			return matches
		}
	}

	scored, err := o.retriever.Retrieve(ctx, category, text, retrieval.DefaultMaxResults)
	if err != nil {
		o.log.Warn("retrieval failed", slog.String("category", string(category)), slog.String("error", err.Error()))
		return nil
	}
	records := make([]retrieval.Record, len(scored))
	for i, s := range scored {
		records[i] = s.Record
	}
	return records
}

// inventoryMatches finds equipment whose name appears in the query or shares
// a word with it.
func (o *Orchestrator) inventoryMatches(text string) []retrieval.Record {
	if o.inventory == nil {
		return nil
	}
	textLower := strings.ToLower(text)
	words := strings.Fields(textLower)

	var out []retrieval.Record
	for _, item := range o.inventory.Items {
		nameLower := strings.ToLower(item.Name)
		categoryLower := strings.ToLower(item.Category)

		hit := strings.Contains(textLower, nameLower) ||
			(categoryLower != "" && strings.Contains(textLower, categoryLower))
		if !hit {
			for _, w := range words {
				if strings.Contains(nameLower, w) {
					hit = true
					break
				}
			}
		}
		if hit {
			out = append(out, item)
		}
	}
	return out
}

func (o *Orchestrator) record(ctx context.Context, in conversation.Interaction) {
	o.history.Add(in)
	if o.journal == nil {
		return
	}
	in.SessionID = o.history.SessionID()
	if in.Timestamp.IsZero() {
		in.Timestamp = time.Now()
	}
	if err := o.journal.Save(ctx, in); err != nil {
		o.log.Warn("interaction log save failed", slog.String("error", err.Error()))
	}
}
