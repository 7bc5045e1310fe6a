package antfly

import (
	"errors"
	"fmt"
)

// ErrNoBody is returned when a successful response carries no body to read.
var ErrNoBody = errors.New("response has no body")

// TransportError reports a request that failed before any streaming began:
// a non-2xx status or a missing body.
type TransportError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("antfly request failed (HTTP %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("antfly request failed (HTTP %d): %s", e.StatusCode, e.Body)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
