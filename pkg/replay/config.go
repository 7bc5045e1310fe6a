// Package replay serves recorded antfly responses over HTTP. Pointing the
// client at a replay server reproduces a stream byte for byte, optionally
// cut into small chunks with a delay between them, which is how chunking
// bugs are reproduced without a live deployment.
package replay

import "time"

// Config is the replay server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8090").
	ListenAddr string

	// TranscriptPath is a recorded SSE transcript or a JSON document.
	TranscriptPath string

	// ChunkSize splits the body into writes of at most this many bytes.
	// Zero writes the whole body at once.
	ChunkSize int

	// Delay is slept between chunks.
	Delay time.Duration

	// Status overrides the response status code. Defaults to 200.
	Status int
}
