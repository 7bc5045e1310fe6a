package stream

import (
	"context"
	"io"
	"sync"
)

// Handle controls a stream decoded in the background by Start.
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}

	mu  sync.Mutex
	err error
}

// Start decodes body on a new goroutine and returns immediately. Callbacks
// are invoked from that goroutine, one at a time, in wire order.
//
// The body is closed when the loop exits for any reason. Cancelling the
// returned Handle (or ctx) also closes the body right away so that a pending
// read aborts; the loop treats that as a silent shutdown.
func Start(ctx context.Context, body io.ReadCloser, d Dispatcher, opts ...Option) *Handle {
	o := newOptions(opts)
	ctx, cancel := context.WithCancel(ctx)

	h := &Handle{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	var closeOnce sync.Once
	closeBody := func() {
		closeOnce.Do(func() {
			if err := body.Close(); err != nil {
				o.logger.Debug("closing stream body", "error", err)
			}
		})
	}
	stop := context.AfterFunc(ctx, closeBody)

	go func() {
		defer close(h.done)
		defer cancel()
		defer closeBody()
		defer stop()

		err := decode(ctx, body, d, o)

		h.mu.Lock()
		h.err = err
		h.mu.Unlock()
	}()

	return h
}

// Cancel stops the stream. No callback starts after the in-flight read
// observes the cancellation. Cancel is idempotent and safe to call from any
// goroutine, including from inside a callback.
func (h *Handle) Cancel() {
	h.cancel()
}

// Done is closed once the decode loop has exited and the body is closed.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the stream finishes and returns its terminal error.
func (h *Handle) Wait() error {
	<-h.done
	return h.Err()
}

// Err returns the terminal error once Done is closed: nil for a "done"
// event, the end of input or cancellation; a *ProtocolError for an "error"
// event; or the transport read error. Before Done it returns nil.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}
