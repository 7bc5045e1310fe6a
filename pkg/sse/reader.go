package sse

import (
	"bufio"
	"bytes"
	"io"
	"strings"
)

const (
	eventPrefix = "event: "
	dataPrefix  = "data: "

	initialBufferSize = 64 * 1024

	// DefaultMaxLineSize bounds a single SSE line. Search hits can carry
	// whole documents, so this is well above bufio.MaxScanTokenSize.
	DefaultMaxLineSize = 8 * 1024 * 1024
)

// Option configures a Reader.
type Option func(*Reader)

// WithMaxLineSize overrides DefaultMaxLineSize. Lines longer than n bytes
// make Next return bufio.ErrTooLong.
func WithMaxLineSize(n int) Option {
	return func(r *Reader) {
		if n > 0 {
			r.maxLine = n
		}
	}
}

// Reader reads SSE events from a source io.Reader. When constructed with
// NewTeeReader every consumed line is also written verbatim to a destination
// io.Writer, which the CLI uses to record transcripts for later replay.
//
// ┌──────────────────┐
// │ source io.Reader │
// └──────────────────┘
// │
// ▼
// ┌──────────────────┐   ┌─────────────────────────────┐
// │  Reader.Next()   │──▶│ destination io.Writer (opt) │
// └──────────────────┘   └─────────────────────────────┘
// │
// ▼
// ┌──────────────────┐
// │      Event       │
// └──────────────────┘
type Reader struct {
	scanner *bufio.Scanner
	dest    io.Writer
	maxLine int

	// eventName is the event name tracker for the frame being read.
	eventName string
}

// NewReader returns a Reader that parses SSE events from src.
func NewReader(src io.Reader, opts ...Option) *Reader {
	return NewTeeReader(src, nil, opts...)
}

// NewTeeReader returns a Reader that parses SSE events from src and writes
// every complete line it consumes to dest. A nil dest disables the tee.
func NewTeeReader(src io.Reader, dest io.Writer, opts ...Option) *Reader {
	r := &Reader{
		dest:    dest,
		maxLine: DefaultMaxLineSize,
	}
	for _, opt := range opts {
		opt(r)
	}

	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 0, min(initialBufferSize, r.maxLine)), r.maxLine)
	scanner.Split(scanCompleteLines)
	r.scanner = scanner

	return r
}

// Next returns the next data event. It blocks until a complete "data: " line
// is available. Next returns nil, nil when the source is exhausted.
//
// Bytes are only converted to text once a full line has been buffered, so a
// multi-byte UTF-8 sequence split across two reads of the source is never
// corrupted.
func (r *Reader) Next() (*Event, error) {
	for r.scanner.Scan() {
		raw := r.scanner.Text()

		if r.dest != nil {
			// The split function strips the newline so we reinsert it here.
			if _, err := io.WriteString(r.dest, raw+"\n"); err != nil {
				return nil, err
			}
		}

		if ev := r.parseLine(raw); ev != nil {
			return ev, nil
		}
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}

	return nil, nil
}

// parseLine processes one complete line. It returns an Event for data lines
// and nil for everything else.
func (r *Reader) parseLine(line string) *Event {
	if strings.TrimSpace(line) == "" {
		// Frame boundary.
		r.eventName = ""
		return nil
	}

	switch {
	case strings.HasPrefix(line, eventPrefix):
		r.eventName = strings.TrimSpace(line[len(eventPrefix):])
	case strings.HasPrefix(line, dataPrefix):
		return &Event{
			Type: r.eventName,
			Data: strings.TrimSpace(line[len(dataPrefix):]),
		}
	default:
		// Comments, "id:", "retry:" and bare "data:" lines are ignored.
	}

	return nil
}

// scanCompleteLines is a bufio.SplitFunc that only yields newline-terminated
// lines. Unlike bufio.ScanLines, an unterminated tail at EOF is dropped: a
// partial line is never dispatched.
func scanCompleteLines(data []byte, atEOF bool) (int, []byte, error) {
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), nil, nil
	}
	return 0, nil, nil
}
