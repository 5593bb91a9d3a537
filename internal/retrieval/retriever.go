package retrieval

import "context"

// DefaultMinSimilarity is the similarity floor below which results are
// discarded rather than shown to the language model. Low-scoring records do
// more harm than good: the model paraphrases them into confident nonsense.
const DefaultMinSimilarity = 0.2

// DefaultMaxResults caps how many records a query returns.
const DefaultMaxResults = 3

// Retriever answers semantic queries over the knowledge base.
//
// Implementations must be safe for concurrent use.
type Retriever interface {
	// Retrieve returns up to k records of the given category ranked by
	// similarity to query, best first. Records under the retriever's
	// similarity floor are omitted; an empty result with a nil error means
	// nothing relevant is known.
	Retrieve(ctx context.Context, category Category, query string, k int) ([]Scored, error)
}
