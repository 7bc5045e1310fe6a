// Package stream decodes antfly SSE response bodies and dispatches each event,
// in wire order, to a caller-supplied Dispatcher.
package stream

import "encoding/json"

// EventName is an SSE event name from the closed antfly vocabulary. Values
// outside the vocabulary are still representable so that dispatchers can
// ignore events added by newer servers.
type EventName string

const (
	EventClassification        EventName = "classification"
	EventReasoning             EventName = "reasoning"
	EventHitsStart             EventName = "hits_start"
	EventHit                   EventName = "hit"
	EventHitsEnd               EventName = "hits_end"
	EventAnswer                EventName = "answer"
	EventConfidence            EventName = "confidence"
	EventFollowUpQuestion      EventName = "followup_question"
	EventEval                  EventName = "eval"
	EventClarificationRequired EventName = "clarification_required"
	EventFilterApplied         EventName = "filter_applied"
	EventSearchExecuted        EventName = "search_executed"
	EventWebSearchExecuted     EventName = "websearch_executed"
	EventFetchExecuted         EventName = "fetch_executed"
	EventSummary               EventName = "summary"
	EventDone                  EventName = "done"
	EventError                 EventName = "error"
)

var knownEvents = map[EventName]struct{}{
	EventClassification:        {},
	EventReasoning:             {},
	EventHitsStart:             {},
	EventHit:                   {},
	EventHitsEnd:               {},
	EventAnswer:                {},
	EventConfidence:            {},
	EventFollowUpQuestion:      {},
	EventEval:                  {},
	EventClarificationRequired: {},
	EventFilterApplied:         {},
	EventSearchExecuted:        {},
	EventWebSearchExecuted:     {},
	EventFetchExecuted:         {},
	EventSummary:               {},
	EventDone:                  {},
	EventError:                 {},
}

// ParseEventName converts a raw SSE event name. The boolean reports whether
// the name belongs to the known vocabulary.
func ParseEventName(s string) (EventName, bool) {
	name := EventName(s)
	return name, name.Known()
}

// Known reports whether n is part of the closed vocabulary.
func (n EventName) Known() bool {
	_, ok := knownEvents[n]
	return ok
}

// Terminal reports whether dispatching n ends the stream.
func (n EventName) Terminal() bool {
	return n == EventDone || n == EventError
}

// Event is one decoded SSE data line.
type Event struct {
	Name EventName
	Data json.RawMessage
}

// Dispatcher receives decoded events. Implementations map each event to the
// matching callback and silently ignore names they have no callback for.
//
// Dispatch returns a *FrameDecodeError when the payload is valid JSON but
// cannot be reshaped into the callback's argument type; the decoder logs it
// and moves on. Any other error aborts the stream.
type Dispatcher interface {
	Dispatch(ev Event) error
}

// DispatcherFunc adapts a function to the Dispatcher interface.
type DispatcherFunc func(ev Event) error

// Dispatch calls f(ev).
func (f DispatcherFunc) Dispatch(ev Event) error {
	return f(ev)
}

// Observer is notified after every event that was dispatched without error.
// Observers run on the decode goroutine and must not block.
type Observer interface {
	Observe(ev Event)
}
