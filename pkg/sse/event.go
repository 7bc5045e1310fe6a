// Package sse provides a minimal SSE (Server-Sent Events) line reader for
// consuming antfly streaming responses.
//
// The reader follows the framing the antfly servers actually emit rather than
// the full WHATWG event stream format: every "data: " line is yielded as its own event
// under the most recent "event: " name, and multi-line data fields are NOT
// joined. A blank line only resets the current event name.
//
// This package intentionally does NOT provide SSE writer or server
// capabilities.
//
// See the event stream format:
// https://html.spec.whatwg.org/multipage/server-sent-events.html
package sse

// Event is a single dispatchable unit: one "data: " line together with the
// event name that was current when it was read.
type Event struct {
	// Type is the name from the last "event: " line of the current frame.
	// Empty when the frame carried no event line.
	Type string

	// Data is the payload of the "data: " line with the prefix and
	// surrounding whitespace removed.
	Data string
}
