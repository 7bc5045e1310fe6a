package antfly

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/papercomputeco/antfly/pkg/stream"
)

// AnswerAgentCallbacks is the callback table for the answer agent stream.
// Every field is optional; events without a callback are dropped.
type AnswerAgentCallbacks struct {
	OnClassification   func(Classification)
	OnReasoning        func(chunk string)
	OnHitsStart        func(HitsStart)
	OnHit              func(Hit)
	OnHitsEnd          func(HitsEnd)
	OnAnswer           func(chunk string)
	OnConfidence       func(Confidence)
	OnFollowUpQuestion func(question string)
	OnEval             func(EvalResult)
	OnDone             func(*Done)
	OnError            func(message string)
}

// Dispatch implements stream.Dispatcher.
func (c *AnswerAgentCallbacks) Dispatch(ev stream.Event) error {
	if c == nil {
		return nil
	}

	switch ev.Name {
	case stream.EventClassification:
		return call(ev, c.OnClassification)
	case stream.EventReasoning:
		return call(ev, c.OnReasoning)
	case stream.EventHitsStart:
		return call(ev, c.OnHitsStart)
	case stream.EventHit:
		return call(ev, c.OnHit)
	case stream.EventHitsEnd:
		return call(ev, c.OnHitsEnd)
	case stream.EventAnswer:
		return call(ev, c.OnAnswer)
	case stream.EventConfidence:
		return call(ev, c.OnConfidence)
	case stream.EventFollowUpQuestion:
		return call(ev, c.OnFollowUpQuestion)
	case stream.EventEval:
		return call(ev, c.OnEval)
	case stream.EventDone:
		return callDone(ev, c.OnDone)
	case stream.EventError:
		return callError(ev, c.OnError)
	case stream.EventClarificationRequired, stream.EventFilterApplied,
		stream.EventSearchExecuted, stream.EventWebSearchExecuted,
		stream.EventFetchExecuted, stream.EventSummary:
		// Not part of the answer agent vocabulary.
		return nil
	default:
		return nil
	}
}

func (c *AnswerAgentCallbacks) streaming() bool {
	return c != nil && (c.OnClassification != nil || c.OnReasoning != nil ||
		c.OnHitsStart != nil || c.OnHit != nil || c.OnHitsEnd != nil ||
		c.OnAnswer != nil || c.OnConfidence != nil || c.OnFollowUpQuestion != nil ||
		c.OnEval != nil || c.OnDone != nil || c.OnError != nil)
}

// RAGCallbacks is the callback table for RAG streams.
type RAGCallbacks struct {
	OnHitsStart func(HitsStart)
	OnHit       func(Hit)
	OnHitsEnd   func(HitsEnd)
	OnAnswer    func(chunk string)
	OnSummary   func(chunk string)
	OnEval      func(EvalResult)
	OnDone      func(*Done)
	OnError     func(message string)
}

// Dispatch implements stream.Dispatcher.
func (c *RAGCallbacks) Dispatch(ev stream.Event) error {
	if c == nil {
		return nil
	}

	switch ev.Name {
	case stream.EventHitsStart:
		return call(ev, c.OnHitsStart)
	case stream.EventHit:
		return call(ev, c.OnHit)
	case stream.EventHitsEnd:
		return call(ev, c.OnHitsEnd)
	case stream.EventAnswer:
		return call(ev, c.OnAnswer)
	case stream.EventSummary:
		return call(ev, c.OnSummary)
	case stream.EventEval:
		return call(ev, c.OnEval)
	case stream.EventDone:
		return callDone(ev, c.OnDone)
	case stream.EventError:
		return callError(ev, c.OnError)
	case stream.EventClassification, stream.EventReasoning, stream.EventConfidence,
		stream.EventFollowUpQuestion, stream.EventClarificationRequired,
		stream.EventFilterApplied, stream.EventSearchExecuted,
		stream.EventWebSearchExecuted, stream.EventFetchExecuted:
		return nil
	default:
		return nil
	}
}

func (c *RAGCallbacks) streaming() bool {
	return c != nil && (c.OnHitsStart != nil || c.OnHit != nil || c.OnHitsEnd != nil ||
		c.OnAnswer != nil || c.OnSummary != nil || c.OnEval != nil ||
		c.OnDone != nil || c.OnError != nil)
}

// ChatAgentCallbacks is the callback table for the chat agent stream.
type ChatAgentCallbacks struct {
	OnClassification        func(Classification)
	OnClarificationRequired func(ClarificationRequest)
	OnFilterApplied         func(Filter)
	OnSearchExecuted        func(SearchExecuted)
	OnWebSearchExecuted     func(WebSearchExecuted)
	OnFetchExecuted         func(FetchExecuted)
	OnReasoning             func(chunk string)
	OnHitsStart             func(HitsStart)
	OnHit                   func(Hit)
	OnHitsEnd               func(HitsEnd)
	OnAnswer                func(chunk string)
	OnConfidence            func(Confidence)
	OnFollowUpQuestion      func(question string)
	OnDone                  func(*Done)
	OnError                 func(message string)
}

// Dispatch implements stream.Dispatcher.
func (c *ChatAgentCallbacks) Dispatch(ev stream.Event) error {
	if c == nil {
		return nil
	}

	switch ev.Name {
	case stream.EventClassification:
		return call(ev, c.OnClassification)
	case stream.EventClarificationRequired:
		return call(ev, c.OnClarificationRequired)
	case stream.EventFilterApplied:
		return call(ev, c.OnFilterApplied)
	case stream.EventSearchExecuted:
		return call(ev, c.OnSearchExecuted)
	case stream.EventWebSearchExecuted:
		return call(ev, c.OnWebSearchExecuted)
	case stream.EventFetchExecuted:
		return call(ev, c.OnFetchExecuted)
	case stream.EventReasoning:
		return call(ev, c.OnReasoning)
	case stream.EventHitsStart:
		return call(ev, c.OnHitsStart)
	case stream.EventHit:
		return call(ev, c.OnHit)
	case stream.EventHitsEnd:
		return call(ev, c.OnHitsEnd)
	case stream.EventAnswer:
		return call(ev, c.OnAnswer)
	case stream.EventConfidence:
		return call(ev, c.OnConfidence)
	case stream.EventFollowUpQuestion:
		return call(ev, c.OnFollowUpQuestion)
	case stream.EventDone:
		return callDone(ev, c.OnDone)
	case stream.EventError:
		return callError(ev, c.OnError)
	case stream.EventEval, stream.EventSummary:
		return nil
	default:
		return nil
	}
}

func (c *ChatAgentCallbacks) streaming() bool {
	return c != nil && (c.OnClassification != nil || c.OnClarificationRequired != nil ||
		c.OnFilterApplied != nil || c.OnSearchExecuted != nil ||
		c.OnWebSearchExecuted != nil || c.OnFetchExecuted != nil ||
		c.OnReasoning != nil || c.OnHitsStart != nil || c.OnHit != nil ||
		c.OnHitsEnd != nil || c.OnAnswer != nil || c.OnConfidence != nil ||
		c.OnFollowUpQuestion != nil || c.OnDone != nil || c.OnError != nil)
}

// call decodes the event payload into T and invokes fn. A nil fn drops the
// event without decoding it.
func call[T any](ev stream.Event, fn func(T)) error {
	if fn == nil {
		return nil
	}

	var v T
	if err := json.Unmarshal(ev.Data, &v); err != nil {
		return &stream.FrameDecodeError{
			Event: ev.Name,
			Data:  string(ev.Data),
			Err:   fmt.Errorf("expected %T: %w", v, err),
		}
	}

	fn(v)
	return nil
}

// callDone passes nil for an empty or null done payload.
func callDone(ev stream.Event, fn func(*Done)) error {
	if fn == nil {
		return nil
	}

	trimmed := bytes.TrimSpace(ev.Data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		fn(nil)
		return nil
	}

	var d Done
	if err := json.Unmarshal(trimmed, &d); err != nil {
		// A done marker with an unexpected shape still completes the stream.
		fn(nil)
		return nil
	}

	fn(&d)
	return nil
}

func callError(ev stream.Event, fn func(string)) error {
	if fn != nil {
		fn(stream.ErrorMessage(ev.Data))
	}
	return nil
}
