package conversation

import (
	"context"
	"sync"
)

// Sample is one (query, intent) pair exported for classifier retraining.
type Sample struct {
	Query  string
	Intent string
}

// Stats summarizes the interaction log.
type Stats struct {
	Total         int64
	ByIntent      map[string]int64
	AvgConfidence float64
}

// Log persists interactions beyond the in-memory window.
type Log interface {
	// Save appends one interaction.
	Save(ctx context.Context, in Interaction) error

	// EndSession records the end of a session and rolls up its
	// interaction count and average confidence.
	EndSession(ctx context.Context, sessionID string) error

	// TrainingData exports recent high-confidence (query, intent) pairs,
	// newest first. An empty intent selects all intents.
	TrainingData(ctx context.Context, intent string, minConfidence float64, limit int) ([]Sample, error)

	// Stats returns aggregate counts over the whole log.
	Stats(ctx context.Context) (Stats, error)
}

// MemLog is an in-memory Log. It backs tests and deployments that run
// without a database.
type MemLog struct {
	mu      sync.Mutex
	entries []Interaction
}

var _ Log = (*MemLog)(nil)

// NewMemLog returns an empty in-memory log.
func NewMemLog() *MemLog { return &MemLog{} }

// Save implements Log.
func (l *MemLog) Save(_ context.Context, in Interaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, in)
	return nil
}

// EndSession implements Log. The in-memory log keeps no session rollups,
// so this is a no-op.
func (l *MemLog) EndSession(context.Context, string) error { return nil }

// TrainingData implements Log.
func (l *MemLog) TrainingData(_ context.Context, intent string, minConfidence float64, limit int) ([]Sample, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []Sample
	for i := len(l.entries) - 1; i >= 0 && len(out) < limit; i-- {
		in := l.entries[i]
		if in.Confidence < minConfidence {
			continue
		}
		if intent != "" && in.Intent != intent {
			continue
		}
		out = append(out, Sample{Query: in.UserQuery, Intent: in.Intent})
	}
	return out, nil
}

// Stats implements Log.
func (l *MemLog) Stats(context.Context) (Stats, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := Stats{
		Total:    int64(len(l.entries)),
		ByIntent: make(map[string]int64),
	}
	var confSum float64
	for _, in := range l.entries {
		s.ByIntent[in.Intent]++
		confSum += in.Confidence
	}
	if s.Total > 0 {
		s.AvgConfidence = confSum / float64(s.Total)
	}
	return s, nil
}
