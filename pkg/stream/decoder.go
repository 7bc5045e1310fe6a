package stream

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/papercomputeco/antfly/pkg/sse"
)

// Decode runs the read loop over body until a terminal event, the end of the
// input, a read failure or cancellation of ctx. It blocks; Start runs it in
// the background.
//
// Return values:
//   - nil after a "done" event, at end of input, or when ctx was cancelled
//   - *ProtocolError after an "error" event (dispatched first)
//   - the read error for any other transport failure
//
// Decode does not close body.
func Decode(ctx context.Context, body io.Reader, d Dispatcher, opts ...Option) error {
	o := newOptions(opts)
	return decode(ctx, body, d, o)
}

func decode(ctx context.Context, body io.Reader, d Dispatcher, o *options) error {
	r := sse.NewTeeReader(body, o.recorder, sse.WithMaxLineSize(o.maxLineSize))

	for {
		raw, err := r.Next()
		if ctx.Err() != nil {
			o.logger.Debug("stream cancelled")
			return nil
		}
		if err != nil {
			o.logger.Error("error reading SSE stream", "error", err)
			return err
		}
		if raw == nil {
			o.logger.Debug("stream ended without done event")
			return nil
		}

		ev := Event{Name: EventName(raw.Type), Data: json.RawMessage(raw.Data)}

		if !json.Valid(ev.Data) {
			o.logger.Warn("skipping malformed SSE event",
				"event", raw.Type,
				"data", raw.Data,
			)
			continue
		}

		if err := d.Dispatch(ev); err != nil {
			var fde *FrameDecodeError
			if errors.As(err, &fde) {
				o.logger.Warn("skipping SSE event with unexpected payload",
					"event", raw.Type,
					"error", err,
				)
				continue
			}
			return err
		}

		for _, obs := range o.observers {
			obs.Observe(ev)
		}

		switch ev.Name {
		case EventDone:
			o.logger.Debug("stream done")
			return nil
		case EventError:
			perr := &ProtocolError{Message: ErrorMessage(ev.Data), Payload: ev.Data}
			o.logger.Error("server sent error event", "message", perr.Message)
			return perr
		default:
		}
	}
}
