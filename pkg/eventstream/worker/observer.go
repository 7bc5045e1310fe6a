package worker

import (
	"bytes"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/antfly/pkg/eventstream"
	"github.com/papercomputeco/antfly/pkg/stream"
)

// Observer enqueues every event it observes on a Pool. It implements
// stream.Observer, so attaching it with stream.WithObserver publishes a
// stream without touching its callbacks.
type Observer struct {
	pool   *Pool
	source eventstream.EventSource
	seq    atomic.Int64
	now    func() time.Time
}

// NewObserver returns an Observer that tags events with source.
func NewObserver(pool *Pool, source eventstream.EventSource) *Observer {
	return &Observer{
		pool:   pool,
		source: source,
		now:    time.Now,
	}
}

// Observe implements stream.Observer.
func (o *Observer) Observe(ev stream.Event) {
	o.pool.Enqueue(Job{Event: &eventstream.StreamEvent{
		SchemaVersion: eventstream.SchemaVersionV1,
		EventType:     eventstream.EventTypeStreamEvent,
		EventID:       uuid.NewString(),
		EmittedAt:     o.now().UTC(),
		Source:        o.source,
		Sequence:      o.seq.Add(1),
		Name:          string(ev.Name),
		Data:          bytes.Clone(ev.Data),
	}})
}

var _ stream.Observer = (*Observer)(nil)
