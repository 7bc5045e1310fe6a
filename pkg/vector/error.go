package vector

import "errors"

var (
	// ErrNotFound is returned when a document is not found in the vector store.
	ErrNotFound = errors.New("document not found")

	// ErrEmbedding is returned when embedding generation fails.
	ErrEmbedding = errors.New("embedding failed")

	// ErrDimensions is returned when an embedding does not have the
	// dimensions the store was created with.
	ErrDimensions = errors.New("embedding has wrong dimensions")
)
