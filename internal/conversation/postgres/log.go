// Package postgres provides the PostgreSQL-backed interaction log. Every
// exchange is stored durably so the intent classifier can be retrained on
// real lab traffic later.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wiredbrain/axiom/internal/conversation"
)

const ddl = `
CREATE TABLE IF NOT EXISTS interactions (
    id          BIGSERIAL    PRIMARY KEY,
    session_id  TEXT         NOT NULL,
    user_query  TEXT         NOT NULL,
    intent      TEXT         NOT NULL,
    confidence  REAL         NOT NULL DEFAULT 0,
    response    TEXT         NOT NULL,
    metadata    JSONB        NOT NULL DEFAULT '{}',
    timestamp   TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_interactions_intent
    ON interactions (intent);

CREATE INDEX IF NOT EXISTS idx_interactions_timestamp
    ON interactions (timestamp);

CREATE INDEX IF NOT EXISTS idx_interactions_session
    ON interactions (session_id);

CREATE TABLE IF NOT EXISTS sessions (
    session_id         TEXT         PRIMARY KEY,
    start_time         TIMESTAMPTZ  NOT NULL DEFAULT now(),
    end_time           TIMESTAMPTZ,
    interaction_count  INTEGER      NOT NULL DEFAULT 0,
    avg_confidence     REAL         NOT NULL DEFAULT 0
);
`

// InteractionLog is a [conversation.Log] backed by PostgreSQL. All methods
// are safe for concurrent use.
type InteractionLog struct {
	pool *pgxpool.Pool
}

var _ conversation.Log = (*InteractionLog)(nil)

// New connects to the database at dsn and ensures the interaction tables
// exist.
func New(ctx context.Context, dsn string) (*InteractionLog, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("interaction log: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("interaction log: ping: %w", err)
	}
	if _, err := pool.Exec(ctx, ddl); err != nil {
		pool.Close()
		return nil, fmt.Errorf("interaction log: apply schema: %w", err)
	}
	return &InteractionLog{pool: pool}, nil
}

// Save implements [conversation.Log].
func (l *InteractionLog) Save(ctx context.Context, in conversation.Interaction) error {
	metadata, err := json.Marshal(in.Metadata)
	if err != nil {
		return fmt.Errorf("interaction log: encode metadata: %w", err)
	}
	if in.Metadata == nil {
		metadata = []byte("{}")
	}

	const q = `
		INSERT INTO interactions
		    (session_id, user_query, intent, confidence, response, metadata, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = l.pool.Exec(ctx, q,
		in.SessionID, in.UserQuery, in.Intent, in.Confidence, in.Response, metadata, in.Timestamp)
	if err != nil {
		return fmt.Errorf("interaction log: save: %w", err)
	}
	return nil
}

// EndSession implements [conversation.Log]. It upserts the session row with
// the final interaction count and average confidence.
func (l *InteractionLog) EndSession(ctx context.Context, sessionID string) error {
	const q = `
		INSERT INTO sessions (session_id, end_time, interaction_count, avg_confidence)
		SELECT $1, now(), COUNT(*), COALESCE(AVG(confidence), 0)
		FROM   interactions
		WHERE  session_id = $1
		ON CONFLICT (session_id) DO UPDATE SET
		    end_time          = EXCLUDED.end_time,
		    interaction_count = EXCLUDED.interaction_count,
		    avg_confidence    = EXCLUDED.avg_confidence`

	if _, err := l.pool.Exec(ctx, q, sessionID); err != nil {
		return fmt.Errorf("interaction log: end session: %w", err)
	}
	return nil
}

// TrainingData implements [conversation.Log].
func (l *InteractionLog) TrainingData(ctx context.Context, intent string, minConfidence float64, limit int) ([]conversation.Sample, error) {
	args := []any{minConfidence}
	q := `
		SELECT user_query, intent
		FROM   interactions
		WHERE  confidence >= $1`
	if intent != "" {
		args = append(args, intent)
		q += fmt.Sprintf("\n\t\t  AND  intent = $%d", len(args))
	}
	args = append(args, limit)
	q += fmt.Sprintf("\n\t\tORDER  BY timestamp DESC\n\t\tLIMIT  $%d", len(args))

	rows, err := l.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("interaction log: training data: %w", err)
	}

	samples, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (conversation.Sample, error) {
		var s conversation.Sample
		err := row.Scan(&s.Query, &s.Intent)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("interaction log: scan rows: %w", err)
	}
	return samples, nil
}

// Stats implements [conversation.Log].
func (l *InteractionLog) Stats(ctx context.Context) (conversation.Stats, error) {
	var s conversation.Stats

	const totals = `
		SELECT COUNT(*), COALESCE(AVG(confidence), 0)
		FROM   interactions`
	if err := l.pool.QueryRow(ctx, totals).Scan(&s.Total, &s.AvgConfidence); err != nil {
		return conversation.Stats{}, fmt.Errorf("interaction log: totals: %w", err)
	}

	const byIntent = `
		SELECT intent, COUNT(*)
		FROM   interactions
		GROUP  BY intent`
	rows, err := l.pool.Query(ctx, byIntent)
	if err != nil {
		return conversation.Stats{}, fmt.Errorf("interaction log: intent counts: %w", err)
	}

	s.ByIntent = make(map[string]int64)
	type intentCount struct {
		intent string
		count  int64
	}
	counts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (intentCount, error) {
		var ic intentCount
		err := row.Scan(&ic.intent, &ic.count)
		return ic, err
	})
	if err != nil {
		return conversation.Stats{}, fmt.Errorf("interaction log: scan intent counts: %w", err)
	}
	for _, ic := range counts {
		s.ByIntent[ic.intent] = ic.count
	}
	return s, nil
}

// Ping probes the database connection. Used by readiness checks.
func (l *InteractionLog) Ping(ctx context.Context) error {
	return l.pool.Ping(ctx)
}

// Close releases the underlying connection pool.
func (l *InteractionLog) Close() {
	l.pool.Close()
}
