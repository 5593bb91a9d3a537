package retrieval

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/wiredbrain/axiom/pkg/provider/embeddings"
)

// Ensure MemIndex implements the Retriever interface.
var _ Retriever = (*MemIndex)(nil)

// MemIndex is an in-memory semantic index. The knowledge base is small (tens
// of records per category), so embedding everything once at startup and
// scanning linearly per query is simpler than maintaining a vector database,
// and fast enough by orders of magnitude. Deployments that share one
// knowledge base across machines use the pgstore retriever instead.
type MemIndex struct {
	embedder      embeddings.Provider
	minSimilarity float64

	mu      sync.RWMutex
	entries map[Category][]indexEntry
}

type indexEntry struct {
	record Record
	vector []float32
}

// NewMemIndex constructs an empty index. A minSimilarity of 0 selects
// DefaultMinSimilarity.
func NewMemIndex(embedder embeddings.Provider, minSimilarity float64) *MemIndex {
	if minSimilarity <= 0 {
		minSimilarity = DefaultMinSimilarity
	}
	return &MemIndex{
		embedder:      embedder,
		minSimilarity: minSimilarity,
		entries:       make(map[Category][]indexEntry),
	}
}

// Index embeds and stores records, appending to whatever is already indexed
// for each category. One EmbedBatch call covers all records.
func (m *MemIndex) Index(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	docs := make([]string, len(records))
	for i, r := range records {
		docs[i] = r.Document()
	}
	vectors, err := m.embedder.EmbedBatch(ctx, docs)
	if err != nil {
		return fmt.Errorf("retrieval: index records: %w", err)
	}
	if len(vectors) != len(records) {
		return fmt.Errorf("retrieval: index records: got %d vectors for %d records", len(vectors), len(records))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range records {
		m.entries[r.Kind()] = append(m.entries[r.Kind()], indexEntry{record: r, vector: vectors[i]})
	}
	return nil
}

// Len reports the total number of indexed records across all categories.
func (m *MemIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, entries := range m.entries {
		n += len(entries)
	}
	return n
}

// Retrieve implements Retriever.
func (m *MemIndex) Retrieve(ctx context.Context, category Category, query string, k int) ([]Scored, error) {
	if k <= 0 {
		k = DefaultMaxResults
	}

	queryVec, err := m.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("retrieval: embed query: %w", err)
	}

	m.mu.RLock()
	entries := m.entries[category]
	scored := make([]Scored, 0, len(entries))
	for _, e := range entries {
		sim := cosine(queryVec, e.vector)
		if sim < m.minSimilarity {
			continue
		}
		scored = append(scored, Scored{Record: e.record, Similarity: sim})
	}
	m.mu.RUnlock()

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

func cosine(a, b []float32) float64 {
	n := min(len(a), len(b))
	var dot, normA, normB float64
	for i := range n {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
