package antfly

import (
	"log/slog"
	"net/http"

	"github.com/papercomputeco/antfly/pkg/stream"
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client. The client must not set a
// total Timeout shorter than the longest expected stream.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the client logger. It is also handed to every stream.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithStreamOptions appends options applied to every stream the client starts.
func WithStreamOptions(opts ...stream.Option) Option {
	return func(c *Client) {
		c.streamOpts = append(c.streamOpts, opts...)
	}
}

// WithHeader sets a header on every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.headers.Set(key, value)
	}
}

// WithObserverFactory builds an observer for every stream the client starts.
// The factory receives the request's identity so that observed events can be
// correlated with it; returning nil attaches nothing.
func WithObserverFactory(f func(RequestInfo) stream.Observer) Option {
	return func(c *Client) {
		if f != nil {
			c.observers = append(c.observers, f)
		}
	}
}
