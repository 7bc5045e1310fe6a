// Package vector stores embeddings produced by the embedding service so that
// they can be searched locally.
package vector

import "context"

// Document is a stored text with its embedding.
type Document struct {
	// ID is a unique identifier for the document.
	ID string

	// Text is the source text the embedding was computed from.
	Text string

	// Embedding is the vector representation of Text.
	Embedding []float32
}

// QueryResult is a search result with its similarity score.
type QueryResult struct {
	Document

	// Score represents the similarity score (higher = more similar).
	Score float32
}

// Driver handles storage and retrieval of embeddings.
type Driver interface {
	// Add stores documents with their embeddings. A document whose ID already
	// exists is replaced.
	Add(ctx context.Context, docs []Document) error

	// Query finds the topK most similar documents to the given embedding.
	Query(ctx context.Context, embedding []float32, topK int) ([]QueryResult, error)

	// Get retrieves documents by their IDs. Unknown IDs are skipped.
	Get(ctx context.Context, ids []string) ([]Document, error)

	// Delete removes documents by their IDs.
	Delete(ctx context.Context, ids []string) error

	// Close releases any resources held by the driver.
	Close() error
}
