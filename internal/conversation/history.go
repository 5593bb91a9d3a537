// Package conversation tracks what was recently said. A bounded in-memory
// window feeds context into prompt construction, and an interaction log
// persists every exchange for analytics and classifier retraining.
package conversation

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// DefaultMaxHistory is the number of interactions kept in the active window.
const DefaultMaxHistory = 5

// Interaction is one completed user/assistant exchange.
type Interaction struct {
	SessionID  string
	Timestamp  time.Time
	UserQuery  string
	Intent     string
	Confidence float64
	Response   string

	// Metadata carries per-exchange context such as retrieval hit counts
	// or whether the answer came from a hardcoded fact.
	Metadata map[string]any
}

// History is a FIFO window over the most recent interactions of one session.
// When the window is full the oldest interaction is dropped.
//
// Safe for concurrent use.
type History struct {
	mu        sync.Mutex
	max       int
	entries   []Interaction
	sessionID string
}

// NewHistory returns an empty window. A max of 0 or less selects
// [DefaultMaxHistory].
func NewHistory(max int) *History {
	if max <= 0 {
		max = DefaultMaxHistory
	}
	return &History{max: max, sessionID: newSessionID()}
}

func newSessionID() string {
	return fmt.Sprintf("session_%d", time.Now().Unix())
}

// SessionID returns the identifier of the current session.
func (h *History) SessionID() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sessionID
}

// Add records an interaction, evicting the oldest one when the window is
// full. The interaction's session and timestamp are filled in.
func (h *History) Add(in Interaction) {
	h.mu.Lock()
	defer h.mu.Unlock()

	in.SessionID = h.sessionID
	if in.Timestamp.IsZero() {
		in.Timestamp = time.Now()
	}
	h.entries = append(h.entries, in)
	if len(h.entries) > h.max {
		h.entries = h.entries[len(h.entries)-h.max:]
	}
}

// Recent returns up to count of the newest interactions, oldest first.
// A count of 0 or less returns the whole window.
func (h *History) Recent(count int) []Interaction {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := len(h.entries)
	if count > 0 && count < n {
		n = count
	}
	out := make([]Interaction, n)
	copy(out, h.entries[len(h.entries)-n:])
	return out
}

// Len returns the number of interactions currently in the window.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// ContextString renders up to count recent interactions as a numbered block
// for prompt injection. It returns "" when the window is empty.
func (h *History) ContextString(count int) string {
	recent := h.Recent(count)
	if len(recent) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("RECENT CONVERSATION CONTEXT:")
	for i, in := range recent {
		fmt.Fprintf(&b, "\n%d. User: %s", i+1, in.UserQuery)
		fmt.Fprintf(&b, "\n   AXIOM: %s", in.Response)
	}
	return b.String()
}

// Clear empties the window and mints a fresh session identifier.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = nil
	h.sessionID = newSessionID()
}
