package stream

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FrameDecodeError reports a single data line whose payload could not be
// decoded. It never terminates a stream.
type FrameDecodeError struct {
	Event EventName
	Data  string
	Err   error
}

func (e *FrameDecodeError) Error() string {
	return fmt.Sprintf("decoding %q event payload: %v", e.Event, e.Err)
}

func (e *FrameDecodeError) Unwrap() error {
	return e.Err
}

// ProtocolError is raised when the server sends an explicit "error" event.
// It is terminal for the stream that produced it.
type ProtocolError struct {
	// Message is the human readable description extracted from the payload.
	Message string

	// Payload is the raw JSON of the error event.
	Payload json.RawMessage
}

func (e *ProtocolError) Error() string {
	return "stream error: " + e.Message
}

// ErrorMessage extracts a description from an "error" event payload. The
// servers send either a bare JSON string or an object with an "error" or
// "message" field; anything else is returned as raw JSON text.
func ErrorMessage(data json.RawMessage) string {
	var s string
	if err := json.Unmarshal(data, &s); err == nil && s != "" {
		return s
	}

	var obj struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		if obj.Error != "" {
			return obj.Error
		}
		if obj.Message != "" {
			return obj.Message
		}
	}

	msg := strings.TrimSpace(string(data))
	if msg == "" || msg == "null" || msg == `""` {
		return "unknown error"
	}
	return msg
}
