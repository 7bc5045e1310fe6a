package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"
)

// CLIConfig selects the log outputs of a CLI invocation.
type CLIConfig struct {
	Debug bool

	// Writer receives human-facing logs. Defaults to os.Stderr so that
	// command output on stdout stays clean.
	Writer io.Writer

	// File, when set, additionally receives every record as JSON.
	File string
}

// NewCLI builds the logger for a CLI command. Records on a terminal are
// rendered by charmbracelet/log; otherwise plain text is written. The
// returned close func releases the log file and is safe to call when no
// file was opened.
func NewCLI(c CLIConfig) (*slog.Logger, func() error, error) {
	w := c.Writer
	if w == nil {
		w = os.Stderr
	}

	console := New(
		WithDebug(c.Debug),
		WithPretty(isTerminal(w)),
		WithWriter(w),
	)

	if c.File == "" {
		return console, func() error { return nil }, nil
	}

	f, err := os.OpenFile(c.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	file := New(
		WithDebug(c.Debug),
		WithJSON(true),
		WithWriter(f),
	)

	return Multi(console, file), f.Close, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
