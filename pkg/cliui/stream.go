package cliui

import (
	"fmt"
	"io"
	"strings"

	"github.com/papercomputeco/antfly/pkg/antfly"
)

// StreamPrinter renders antfly stream events to a terminal. Answer text is
// written as it arrives unless markdown rendering is enabled, in which case
// it is buffered and rendered once by Flush.
//
// Callbacks are delivered from a single goroutine so StreamPrinter does no
// locking. Call Flush only after the stream has finished.
type StreamPrinter struct {
	w        io.Writer
	markdown bool

	answer   strings.Builder
	inAnswer bool
	hits     int
}

// NewStreamPrinter returns a StreamPrinter writing to w.
func NewStreamPrinter(w io.Writer, markdown bool) *StreamPrinter {
	return &StreamPrinter{w: w, markdown: markdown}
}

// Writer returns the writer p renders to.
func (p *StreamPrinter) Writer() io.Writer {
	return p.w
}

// AnswerAgentCallbacks wires p into an answer agent callback table.
func (p *StreamPrinter) AnswerAgentCallbacks() *antfly.AnswerAgentCallbacks {
	return &antfly.AnswerAgentCallbacks{
		OnClassification:   p.Classification,
		OnReasoning:        p.Reasoning,
		OnHitsStart:        p.HitsStart,
		OnHit:              p.Hit,
		OnHitsEnd:          p.HitsEnd,
		OnAnswer:           p.Answer,
		OnConfidence:       p.Confidence,
		OnFollowUpQuestion: p.FollowUp,
		OnEval:             p.Eval,
		OnError:            p.Error,
	}
}

// RAGCallbacks wires p into a RAG callback table.
func (p *StreamPrinter) RAGCallbacks() *antfly.RAGCallbacks {
	return &antfly.RAGCallbacks{
		OnHitsStart: p.HitsStart,
		OnHit:       p.Hit,
		OnHitsEnd:   p.HitsEnd,
		OnAnswer:    p.Answer,
		OnSummary:   p.Summary,
		OnEval:      p.Eval,
		OnError:     p.Error,
	}
}

// ChatAgentCallbacks wires p into a chat agent callback table.
func (p *StreamPrinter) ChatAgentCallbacks() *antfly.ChatAgentCallbacks {
	return &antfly.ChatAgentCallbacks{
		OnClassification:        p.Classification,
		OnClarificationRequired: p.Clarification,
		OnFilterApplied: func(f antfly.Filter) {
			p.note("filter", fmt.Sprintf("%s %s %v", f.Field, f.Operator, f.Value))
		},
		OnSearchExecuted: func(s antfly.SearchExecuted) {
			p.note("search", fmt.Sprintf("%q on %s (%d results)", s.Query, s.Table, s.ResultsCount))
		},
		OnWebSearchExecuted: func(s antfly.WebSearchExecuted) {
			p.note("web", fmt.Sprintf("%q (%d results)", s.Query, s.ResultsCount))
		},
		OnFetchExecuted: func(f antfly.FetchExecuted) {
			p.note("fetch", f.URL)
		},
		OnReasoning:        p.Reasoning,
		OnHitsStart:        p.HitsStart,
		OnHit:              p.Hit,
		OnHitsEnd:          p.HitsEnd,
		OnAnswer:           p.Answer,
		OnConfidence:       p.Confidence,
		OnFollowUpQuestion: p.FollowUp,
		OnError:            p.Error,
	}
}

// Classification prints the route the agent chose.
func (p *StreamPrinter) Classification(c antfly.Classification) {
	detail := c.RouteType
	if c.ImprovedQuery != "" {
		detail += ": " + c.ImprovedQuery
	}
	p.note("route", detail)
}

// Reasoning prints a dimmed reasoning chunk.
func (p *StreamPrinter) Reasoning(chunk string) {
	p.endAnswer()
	fmt.Fprint(p.w, DimStyle.Render(chunk))
}

// HitsStart resets the hit counter and prints any retrieval error.
func (p *StreamPrinter) HitsStart(h antfly.HitsStart) {
	p.hits = 0
	if h.Error != "" {
		p.note("hits", ErrorStyle.Render(h.Error))
	}
}

// Hit prints one numbered search hit.
func (p *StreamPrinter) Hit(h antfly.Hit) {
	p.endAnswer()
	p.hits++
	fmt.Fprintf(p.w, "  %s %s %s\n",
		StepStyle.Render(fmt.Sprintf("%2d.", p.hits)),
		ValueStyle.Render(h.ID),
		DimStyle.Render(fmt.Sprintf("(%.3f)", h.Score)),
	)
}

// HitsEnd prints how many hits were shown.
func (p *StreamPrinter) HitsEnd(antfly.HitsEnd) {
	p.note("hits", fmt.Sprintf("%d returned", p.hits))
}

// Answer records an answer chunk and, without markdown, prints it.
func (p *StreamPrinter) Answer(chunk string) {
	p.answer.WriteString(chunk)
	if p.markdown {
		return
	}
	if !p.inAnswer {
		fmt.Fprintln(p.w)
		p.inAnswer = true
	}
	fmt.Fprint(p.w, chunk)
}

// Summary renders a summary chunk like answer text.
func (p *StreamPrinter) Summary(chunk string) {
	p.Answer(chunk)
}

// Confidence prints the answer and context scores.
func (p *StreamPrinter) Confidence(c antfly.Confidence) {
	p.note("confidence", fmt.Sprintf("answer %.2f, context %.2f", c.AnswerConfidence, c.ContextRelevance))
}

// FollowUp prints a suggested follow-up question.
func (p *StreamPrinter) FollowUp(q string) {
	p.note("follow-up", q)
}

// Eval prints the evaluation summary, if any.
func (p *StreamPrinter) Eval(e antfly.EvalResult) {
	if e.Summary == nil {
		return
	}
	p.note("eval", fmt.Sprintf("%d/%d passed (avg %.2f)", e.Summary.Passed, e.Summary.Total, e.Summary.AverageScore))
}

// Clarification prints the agent's question and its options.
func (p *StreamPrinter) Clarification(c antfly.ClarificationRequest) {
	p.note("clarify", c.Question)
	for _, o := range c.Options {
		fmt.Fprintf(p.w, "    %s %s\n", DimStyle.Render("-"), o)
	}
}

// Error prints an error event message.
func (p *StreamPrinter) Error(msg string) {
	p.endAnswer()
	fmt.Fprintf(p.w, "  %s %s\n", FailMark, ErrorStyle.Render(msg))
}

// Text returns the answer text received so far.
func (p *StreamPrinter) Text() string {
	return p.answer.String()
}

// Flush finishes the output. With markdown enabled the buffered answer is
// rendered through glamour; a rendering failure falls back to plain text.
func (p *StreamPrinter) Flush() error {
	if !p.markdown {
		p.endAnswer()
		return nil
	}
	if p.answer.Len() == 0 {
		return nil
	}

	rendered, err := RenderMarkdown(p.answer.String())
	fmt.Fprint(p.w, rendered)
	if err != nil {
		fmt.Fprintln(p.w)
	}
	return err
}

// AnswerAgentResult prints a non-streaming answer agent response.
func (p *StreamPrinter) AnswerAgentResult(r *antfly.AnswerAgentResult) {
	if r.Classification != nil {
		p.Classification(*r.Classification)
	}
	p.printHits(r.Hits)
	p.Answer(r.Answer)
	if r.Confidence != nil {
		p.Confidence(*r.Confidence)
	}
	for _, q := range r.FollowUpQuestions {
		p.FollowUp(q)
	}
	if r.Eval != nil {
		p.Eval(*r.Eval)
	}
}

// RAGResult prints a non-streaming RAG response.
func (p *StreamPrinter) RAGResult(r *antfly.RAGResult) {
	p.printHits(r.Hits)
	if r.Summary != "" {
		p.Summary(r.Summary)
		return
	}
	p.Answer(r.Answer)
}

// ChatAgentResult prints a non-streaming chat agent response.
func (p *StreamPrinter) ChatAgentResult(r *antfly.ChatAgentResult) {
	if r.ClarificationRequired != nil {
		p.Clarification(*r.ClarificationRequired)
	}
	p.printHits(r.Hits)
	p.Answer(r.Answer)
	if r.Confidence != nil {
		p.Confidence(*r.Confidence)
	}
	for _, q := range r.FollowUpQuestions {
		p.FollowUp(q)
	}
}

func (p *StreamPrinter) printHits(hits []antfly.Hit) {
	if len(hits) == 0 {
		return
	}
	p.HitsStart(antfly.HitsStart{Total: len(hits)})
	for _, h := range hits {
		p.Hit(h)
	}
	p.HitsEnd(antfly.HitsEnd{Total: len(hits)})
}

func (p *StreamPrinter) note(label, msg string) {
	p.endAnswer()
	fmt.Fprintf(p.w, "  %s %s\n", KeyStyle.Render(label+":"), msg)
}

// endAnswer terminates a run of streamed answer text with a newline.
func (p *StreamPrinter) endAnswer() {
	if p.inAnswer {
		fmt.Fprintln(p.w)
		p.inAnswer = false
	}
}
