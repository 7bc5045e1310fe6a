// Package embeddings defines the interfaces implemented by embedding service
// clients.
package embeddings

import (
	"context"

	"github.com/papercomputeco/antfly/pkg/vectorcodec"
)

// Embedder provides text embedding capabilities.
type Embedder interface {
	// Embed converts text into a vector embedding.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Close releases any resources held by the embedder.
	Close() error
}

// BatchEmbedder embeds many texts in one request. The returned matrix has
// one row per input, in input order.
type BatchEmbedder interface {
	Embedder

	EmbedBatch(ctx context.Context, texts []string) (vectorcodec.Matrix, error)
}
