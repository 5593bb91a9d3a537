// Package pgstore provides a PostgreSQL-backed knowledge store for the
// retrieval layer, using pgvector for cosine nearest-neighbour search.
//
// It is the durable alternative to the in-memory index: documents are
// embedded once at load time and survive process restarts, so a large
// knowledge base does not need re-embedding on every boot.
package pgstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/wiredbrain/axiom/internal/retrieval"
	"github.com/wiredbrain/axiom/pkg/provider/embeddings"
)

// Store is a [retrieval.Retriever] backed by a PostgreSQL table with a
// pgvector HNSW index. All methods are safe for concurrent use.
type Store struct {
	pool     *pgxpool.Pool
	embedder embeddings.Provider
	minSim   float64
}

var _ retrieval.Retriever = (*Store)(nil)

// New establishes a connection pool to the PostgreSQL database at dsn,
// registers pgvector types on every connection, and runs [Migrate] to ensure
// the knowledge table and vector extension exist.
//
// The embedding dimension is taken from embedder.Dimensions() and baked into
// the vector column at schema creation time; switching embedding models after
// the first migration requires a manual schema change. A minSimilarity of 0
// selects [retrieval.DefaultMinSimilarity].
func New(ctx context.Context, dsn string, embedder embeddings.Provider, minSimilarity float64) (*Store, error) {
	if minSimilarity <= 0 {
		minSimilarity = retrieval.DefaultMinSimilarity
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pgstore: parse dsn: %w", err)
	}

	// Register pgvector types on every new connection so that vector columns
	// can be scanned into and inserted from pgvector.Vector values.
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pgstore: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgstore: ping: %w", err)
	}

	if err := Migrate(ctx, pool, embedder.Dimensions()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgstore: migrate: %w", err)
	}

	return &Store{pool: pool, embedder: embedder, minSim: minSimilarity}, nil
}

// ddlKnowledge returns the knowledge-table DDL with the embedding dimension
// substituted. The vector dimension is baked into the column type.
func ddlKnowledge(embeddingDimensions int) string {
	return fmt.Sprintf(`
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS knowledge (
    id         BIGSERIAL    PRIMARY KEY,
    category   TEXT         NOT NULL,
    label      TEXT         NOT NULL,
    document   TEXT         NOT NULL,
    embedding  vector(%d),
    UNIQUE (category, label)
);

CREATE INDEX IF NOT EXISTS idx_knowledge_category
    ON knowledge (category);

CREATE INDEX IF NOT EXISTS idx_knowledge_embedding
    ON knowledge USING hnsw (embedding vector_cosine_ops);
`, embeddingDimensions)
}

// Migrate creates the knowledge table, the pgvector extension and the HNSW
// index if they do not already exist. It is idempotent and safe to run on
// every startup.
func Migrate(ctx context.Context, pool *pgxpool.Pool, embeddingDimensions int) error {
	if _, err := pool.Exec(ctx, ddlKnowledge(embeddingDimensions)); err != nil {
		return fmt.Errorf("pgstore: apply schema: %w", err)
	}
	return nil
}

// Index embeds the supplied records in one batch and upserts them into the
// knowledge table. A record that already exists under the same category and
// label is completely replaced.
func (s *Store) Index(ctx context.Context, records []retrieval.Record) error {
	if len(records) == 0 {
		return nil
	}

	docs := make([]string, len(records))
	for i, r := range records {
		docs[i] = r.Document()
	}
	vectors, err := s.embedder.EmbedBatch(ctx, docs)
	if err != nil {
		return fmt.Errorf("pgstore: embed records: %w", err)
	}
	if len(vectors) != len(records) {
		return fmt.Errorf("pgstore: embedder returned %d vectors for %d records", len(vectors), len(records))
	}

	const q = `
		INSERT INTO knowledge (category, label, document, embedding)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (category, label) DO UPDATE SET
		    document  = EXCLUDED.document,
		    embedding = EXCLUDED.embedding`

	batch := &pgx.Batch{}
	for i, r := range records {
		batch.Queue(q, string(r.Kind()), r.Label(), docs[i], pgvector.NewVector(vectors[i]))
	}
	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("pgstore: upsert records: %w", err)
	}
	return nil
}

// storedRecord carries a row read back from the knowledge table. Unlike the
// typed records loaded from JSON it only knows its rendered document text.
type storedRecord struct {
	category retrieval.Category
	label    string
	document string
}

func (r *storedRecord) Kind() retrieval.Category { return r.category }
func (r *storedRecord) Label() string            { return r.label }
func (r *storedRecord) Document() string         { return r.document }

// Retrieve implements [retrieval.Retriever]. It embeds the query, runs a
// cosine nearest-neighbour search restricted to category, and returns up to
// k results at or above the similarity floor, most similar first.
func (s *Store) Retrieve(ctx context.Context, category retrieval.Category, query string, k int) ([]retrieval.Scored, error) {
	if k <= 0 {
		k = retrieval.DefaultMaxResults
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("pgstore: embed query: %w", err)
	}

	const q = `
		SELECT category, label, document,
		       embedding <=> $1 AS distance
		FROM   knowledge
		WHERE  category = $2
		ORDER  BY distance
		LIMIT  $3`

	rows, err := s.pool.Query(ctx, q, pgvector.NewVector(vec), string(category), k)
	if err != nil {
		return nil, fmt.Errorf("pgstore: search: %w", err)
	}

	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (retrieval.Scored, error) {
		var (
			rec      storedRecord
			distance float64
		)
		if err := row.Scan(&rec.category, &rec.label, &rec.document, &distance); err != nil {
			return retrieval.Scored{}, err
		}
		// pgvector's <=> operator yields cosine distance in [0, 2].
		return retrieval.Scored{Record: &rec, Similarity: 1 - distance}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("pgstore: scan rows: %w", err)
	}

	filtered := results[:0]
	for _, r := range results {
		if r.Similarity >= s.minSim {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

// Close releases all connections held by the underlying connection pool.
func (s *Store) Close() {
	s.pool.Close()
}
