// Package eventstream publishes the events of antfly streams to an external
// event stream backend, so other services can follow answers as they are
// generated.
package eventstream

import (
	"encoding/json"
	"time"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeStreamEvent is emitted for every event dispatched from an
	// antfly stream.
	EventTypeStreamEvent = "antfly.stream.event"
)

// StreamEvent is a transport-neutral payload for one dispatched SSE event.
type StreamEvent struct {
	SchemaVersion int             `json:"schema_version"`
	EventType     string          `json:"event_type"`
	EventID       string          `json:"event_id"`
	EmittedAt     time.Time       `json:"emitted_at"`
	Source        EventSource     `json:"source"`
	Sequence      int64           `json:"sequence"`
	Name          string          `json:"name"`
	Data          json.RawMessage `json:"data"`
}

// EventSource identifies the request a stream event belongs to.
type EventSource struct {
	// RequestID is the X-Request-ID sent with the originating request. It is
	// used as the partition key so events of one stream stay ordered.
	RequestID string `json:"request_id"`
	Endpoint  string `json:"endpoint"`
	Table     string `json:"table,omitempty"`
}
