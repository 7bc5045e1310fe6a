package stream

import (
	"io"
	"log/slog"

	"github.com/papercomputeco/antfly/pkg/logger"
	"github.com/papercomputeco/antfly/pkg/sse"
)

// Option configures Decode and Start.
type Option func(*options)

type options struct {
	logger      *slog.Logger
	maxLineSize int
	recorder    io.Writer
	observers   []Observer
}

func newOptions(opts []Option) *options {
	o := &options{
		logger:      logger.Nop(),
		maxLineSize: sse.DefaultMaxLineSize,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets the logger used for frame warnings and stream lifecycle
// messages. Defaults to a no-op logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMaxLineSize bounds a single SSE line.
func WithMaxLineSize(n int) Option {
	return func(o *options) {
		o.maxLineSize = n
	}
}

// WithRecorder tees every consumed SSE line to w.
func WithRecorder(w io.Writer) Option {
	return func(o *options) {
		o.recorder = w
	}
}

// WithObserver registers an Observer. May be given more than once.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observers = append(o.observers, obs)
		}
	}
}
