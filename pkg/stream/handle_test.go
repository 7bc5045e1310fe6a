package stream_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/antfly/pkg/stream"
)

// trackingBody wraps a reader and records Close calls.
type trackingBody struct {
	io.Reader
	closer io.Closer
	closed atomic.Bool
}

func (b *trackingBody) Close() error {
	b.closed.Store(true)
	if b.closer != nil {
		return b.closer.Close()
	}
	return nil
}

var _ = Describe("Start", func() {
	var (
		ctx context.Context
		rec *recorder
	)

	BeforeEach(func() {
		ctx = context.Background()
		rec = &recorder{}
	})

	It("returns before any data arrives", func() {
		pr, pw := io.Pipe()
		body := &trackingBody{Reader: pr, closer: pr}

		h := stream.Start(ctx, body, rec)
		Expect(h).NotTo(BeNil())
		Consistently(h.Done(), 50*time.Millisecond).ShouldNot(BeClosed())

		_, err := pw.Write([]byte(helloWorld))
		Expect(err).NotTo(HaveOccurred())

		Expect(h.Wait()).To(Succeed())
		Expect(rec.snapshot()).To(HaveLen(3))
		Expect(body.closed.Load()).To(BeTrue())
	})

	It("closes the body after natural end of stream", func() {
		body := &trackingBody{Reader: strings.NewReader("event: answer\ndata: \"a\"\n\n")}

		h := stream.Start(ctx, body, rec)
		Eventually(h.Done()).Should(BeClosed())
		Expect(h.Err()).NotTo(HaveOccurred())
		Expect(body.closed.Load()).To(BeTrue())
	})

	It("dispatches nothing when cancelled before the first event", func() {
		pr, pw := io.Pipe()
		body := &trackingBody{Reader: pr, closer: pr}

		var errorCalls atomic.Int32
		d := stream.DispatcherFunc(func(ev stream.Event) error {
			if ev.Name == stream.EventError {
				errorCalls.Add(1)
			}
			return rec.Dispatch(ev)
		})

		h := stream.Start(ctx, body, d)
		h.Cancel()

		Eventually(h.Done()).Should(BeClosed())
		Expect(h.Err()).NotTo(HaveOccurred())
		Expect(body.closed.Load()).To(BeTrue())

		// The writer side sees the closed pipe.
		_, err := pw.Write([]byte(helloWorld))
		Expect(err).To(HaveOccurred())

		Expect(rec.snapshot()).To(BeEmpty())
		Expect(errorCalls.Load()).To(BeZero())
	})

	It("stops when the parent context is cancelled", func() {
		pr, _ := io.Pipe()
		body := &trackingBody{Reader: pr, closer: pr}
		cctx, cancel := context.WithCancel(ctx)

		h := stream.Start(cctx, body, rec)
		cancel()

		Expect(h.Wait()).To(Succeed())
		Expect(body.closed.Load()).To(BeTrue())
	})

	It("can be cancelled from inside a callback", func() {
		pr, pw := io.Pipe()
		body := &trackingBody{Reader: pr, closer: pr}

		var h *stream.Handle
		started := make(chan struct{})
		var calls atomic.Int32
		d := stream.DispatcherFunc(func(stream.Event) error {
			<-started
			calls.Add(1)
			h.Cancel()
			return nil
		})

		h = stream.Start(ctx, body, d)
		close(started)
		go func() {
			_, _ = pw.Write([]byte("event: answer\ndata: \"a\"\n\nevent: answer\ndata: \"b\"\n\n"))
		}()

		Expect(h.Wait()).To(Succeed())
		Expect(calls.Load()).To(Equal(int32(1)))
	})

	It("is safe to cancel repeatedly and after completion", func() {
		h := stream.Start(ctx, &trackingBody{Reader: strings.NewReader(helloWorld)}, rec)
		Expect(h.Wait()).To(Succeed())

		Expect(func() {
			h.Cancel()
			h.Cancel()
		}).NotTo(Panic())
	})

	It("reports protocol errors through Err", func() {
		body := &trackingBody{Reader: strings.NewReader("event: error\ndata: \"bad request\"\n\n")}

		h := stream.Start(ctx, body, rec)
		err := h.Wait()

		var perr *stream.ProtocolError
		Expect(errors.As(err, &perr)).To(BeTrue())
		Expect(perr.Message).To(Equal("bad request"))
		Expect(h.Err()).To(Equal(err))
	})

	It("reports transport read errors through Err", func() {
		pr, pw := io.Pipe()
		body := &trackingBody{Reader: pr, closer: pr}

		h := stream.Start(ctx, body, rec)
		pw.CloseWithError(io.ErrUnexpectedEOF)

		Expect(h.Wait()).To(MatchError(io.ErrUnexpectedEOF))
	})
})
