// Package embeddings defines the Provider interface for vector embedding
// backends.
//
// An embeddings provider maps text to dense float32 vectors. The pipeline
// uses these vectors twice: the intent classifier runs a linear head over
// them, and the knowledge retriever ranks equipment, project and people
// records by cosine similarity against the query vector.
//
// Implementations must be safe for concurrent use.
package embeddings

import "context"

// Provider is the abstraction over any text-embedding backend.
//
// All vectors returned by a single Provider instance share the same
// dimensionality (returned by Dimensions). Vectors from different Provider
// instances must not be mixed in one similarity computation unless both are
// known to use the same model and space; the retriever enforces this by
// embedding the index and the queries with one shared Provider.
type Provider interface {
	// Embed computes the embedding vector for a single text string. Returns a
	// float32 slice of length Dimensions() or an error if the request fails
	// or ctx is cancelled. Text is passed to the model verbatim.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch computes embedding vectors for a slice of texts in a single
	// provider call, which is typically far cheaper than calling Embed in a
	// loop. The returned slice has the same length as texts with the i-th
	// element corresponding to texts[i]. Partial results are not returned;
	// on error the entire slice is nil.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the fixed length of every vector produced by this
	// provider, constant for the lifetime of the instance.
	Dimensions() int

	// ModelID returns the provider-specific model identifier, for logging
	// and for detecting index/query model mismatches.
	ModelID() string
}
