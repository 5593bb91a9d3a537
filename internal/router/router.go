// Package router turns a classified transcript into a response decision:
// stay silent, answer from a canned line or template, or hand the query to
// the generation pipeline. It also manages the multi-question queue, so a
// user who asks two things at once gets them answered one at a time.
package router

import (
	"regexp"
	"strings"
	"sync"

	"github.com/wiredbrain/axiom/pkg/provider/intent"
)

// Kind is the routing outcome for one utterance.
type Kind int

const (
	// KindSilent acknowledges without speaking; the assistant just waits
	// for the next input.
	KindSilent Kind = iota
	// KindCanned answers with a fixed line, no generation.
	KindCanned
	// KindTemplate answers from the template database, no generation.
	KindTemplate
	// KindGenerate sends Query through retrieval and the language model.
	KindGenerate
)

// String returns the kind's wire-and-metrics name.
func (k Kind) String() string {
	switch k {
	case KindSilent:
		return "silent"
	case KindCanned:
		return "canned"
	case KindTemplate:
		return "template"
	case KindGenerate:
		return "generate"
	default:
		return "unknown"
	}
}

// Decision is the router's verdict for one classified utterance.
type Decision struct {
	Kind Kind

	// Text is the ready response for KindCanned and KindTemplate.
	Text string

	// Intent and Query drive generation for KindGenerate. Intent may
	// differ from the classified one: a dequeued follow-up topic is
	// always treated as an equipment query.
	Intent string
	Query  string

	// FollowUp, when non-empty, is appended to the generated response to
	// offer the next queued topic.
	FollowUp string
}

var cannedResponses = map[string]string{
	intent.IntentGreeting:     "Hi! I'm AXIOM, your Drobotics Lab assistant built by Shubham Dev. What brings you here today?",
	intent.IntentOutOfScope:   "That's outside our lab's scope. Want to know about our available equipment?",
	intent.IntentUnclearInput: "I didn't catch that. Could you ask about specific equipment or the lab?",
}

var conjunctionPattern = regexp.MustCompile(`\s+and\s+|\s+also\s+`)

var previewStopwords = map[string]struct{}{
	"about": {}, "is": {}, "the": {}, "what": {}, "who": {}, "how": {}, "tell": {}, "me": {},
}

// Router routes classified utterances. It keeps the queue of not-yet-answered
// sub-questions across turns.
//
// Safe for concurrent use, though a session routes one utterance at a time.
type Router struct {
	templates *TemplateStore

	mu    sync.Mutex
	queue []string
}

// New returns a Router. templates may be nil, which disables the template
// bypass entirely.
func New(templates *TemplateStore) *Router {
	return &Router{templates: templates}
}

// QueuedTopics returns how many sub-questions are waiting.
func (r *Router) QueuedTopics() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue)
}

// Reset drops any queued sub-questions, typically at session end.
func (r *Router) Reset() {
	r.mu.Lock()
	r.queue = nil
	r.mu.Unlock()
}

// Route decides how to answer one classified utterance.
func (r *Router) Route(intentLabel string, confidence float64, text string) Decision {
	// An acknowledgment either advances to the next queued topic or is
	// ghosted: no reply, just listen for what comes next.
	if intentLabel == intent.IntentAcknowledgment {
		if next, ok := r.popQueued(); ok {
			return Decision{Kind: KindGenerate, Intent: intent.IntentEquipmentQuery, Query: next}
		}
		// A confident acknowledgment with nothing queued gets a short
		// verbal nod from the template store rather than dead air; only
		// low-confidence acknowledgments are ghosted.
		if r.templates != nil && r.templates.ShouldUse(intentLabel, confidence, text) {
			if reply, ok := r.templates.Response(intentLabel, text); ok {
				return Decision{Kind: KindTemplate, Text: reply}
			}
		}
		return Decision{Kind: KindSilent}
	}

	if canned, ok := cannedResponses[intentLabel]; ok {
		if r.templates != nil && r.templates.ShouldUse(intentLabel, confidence, text) {
			if reply, ok := r.templates.Response(intentLabel, text); ok {
				return Decision{Kind: KindTemplate, Text: reply}
			}
		}
		return Decision{Kind: KindCanned, Text: canned}
	}

	if _, knowledge := intent.KnowledgeIntents[intentLabel]; knowledge {
		if r.templates != nil && r.templates.ShouldUse(intentLabel, confidence, text) {
			if reply, ok := r.templates.Response(intentLabel, text); ok {
				return Decision{Kind: KindTemplate, Text: reply}
			}
		}

		queries := SplitQueries(text)
		if len(queries) > 1 {
			r.mu.Lock()
			r.queue = append(r.queue, queries[1:]...)
			r.mu.Unlock()
			return Decision{
				Kind:     KindGenerate,
				Intent:   intentLabel,
				Query:    queries[0],
				FollowUp: "Should we discuss " + TopicPreview(queries[1]) + " next?",
			}
		}
		return Decision{Kind: KindGenerate, Intent: intentLabel, Query: text}
	}

	return Decision{Kind: KindCanned, Text: cannedResponses[intent.IntentUnclearInput]}
}

func (r *Router) popQueued() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.queue) == 0 {
		return "", false
	}
	next := r.queue[0]
	r.queue = r.queue[1:]
	return next, true
}

// SplitQueries breaks a compound question into its parts: "Tell me about
// Jetson and RealSense" becomes two queries. Fragments of five characters or
// less are noise and dropped. A text that does not split returns itself.
func SplitQueries(text string) []string {
	var parts []string
	for _, chunk := range splitAfterQuestionMarks(text) {
		parts = append(parts, conjunctionPattern.Split(chunk, -1)...)
	}

	var queries []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); len(p) > 5 {
			queries = append(queries, p)
		}
	}
	if len(queries) < 2 {
		return []string{text}
	}
	return queries
}

// splitAfterQuestionMarks cuts the text after each "?" that is followed by
// whitespace, keeping the "?" on the left part.
func splitAfterQuestionMarks(text string) []string {
	var out []string
	start := 0
	for i := 0; i < len(text)-1; i++ {
		if text[i] == '?' && (text[i+1] == ' ' || text[i+1] == '\t' || text[i+1] == '\n') {
			out = append(out, text[start:i+1])
			start = i + 1
		}
	}
	return append(out, text[start:])
}

// TopicPreview condenses a query into its first three meaningful words, for
// the "Should we discuss X next?" follow-up.
func TopicPreview(query string) string {
	var words []string
	for _, w := range strings.Fields(query) {
		if _, stop := previewStopwords[strings.ToLower(w)]; stop {
			continue
		}
		words = append(words, w)
		if len(words) == 3 {
			break
		}
	}
	return strings.Join(words, " ")
}
