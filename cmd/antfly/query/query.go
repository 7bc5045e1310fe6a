// Package querycmder provides the answer, rag and chat commands, which send a
// query to antfly and render the streamed response in the terminal.
package querycmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/antfly/pkg/antfly"
	"github.com/papercomputeco/antfly/pkg/cliui"
	"github.com/papercomputeco/antfly/pkg/config"
	"github.com/papercomputeco/antfly/pkg/dotdir"
	"github.com/papercomputeco/antfly/pkg/eventstream"
	"github.com/papercomputeco/antfly/pkg/eventstream/kafka"
	"github.com/papercomputeco/antfly/pkg/eventstream/nop"
	"github.com/papercomputeco/antfly/pkg/eventstream/worker"
	"github.com/papercomputeco/antfly/pkg/logger"
	"github.com/papercomputeco/antfly/pkg/stream"
)

var errStreamFailed = errors.New("stream ended with an error event")

var flags = config.FlagSet{
	config.FlagBaseURL: {
		Name:        "base-url",
		Shorthand:   "u",
		ViperKey:    "client.base_url",
		Description: "antfly API base URL, including the /api/v1 prefix",
	},
	config.FlagTimeout: {
		Name:        "timeout",
		ViperKey:    "client.timeout",
		Description: "Time to wait for response headers",
	},
	config.FlagMaxLineBytes: {
		Name:        "max-line-bytes",
		ViperKey:    "stream.max_line_bytes",
		Description: "Longest accepted SSE line in bytes",
	},
	config.FlagEventStreamProv: {
		Name:        "eventstream-provider",
		ViperKey:    "eventstream.provider",
		Description: "Event stream used by --publish (nop, kafka)",
	},
	config.FlagEventStreamTopic: {
		Name:        "eventstream-topic",
		ViperKey:    "eventstream.topic",
		Description: "Kafka topic used by --publish",
	},
}

var flagKeys = []string{
	config.FlagBaseURL,
	config.FlagTimeout,
	config.FlagMaxLineBytes,
	config.FlagEventStreamProv,
	config.FlagEventStreamTopic,
}

// queryCommander holds the settings shared by answer, rag and chat.
type queryCommander struct {
	configDir string
	debug     bool
	logFile   string

	baseURL      string
	timeoutStr   string
	timeout      time.Duration
	maxLineBytes int

	record   string
	publish  bool
	noStream bool
	raw      bool

	eventStreamProvider string
	eventStreamTopic    string
	brokers             []string

	out io.Writer
}

func (c *queryCommander) addFlags(cmd *cobra.Command) {
	config.AddStringFlag(cmd, flags, config.FlagBaseURL, &c.baseURL)
	config.AddStringFlag(cmd, flags, config.FlagTimeout, &c.timeoutStr)
	config.AddIntFlag(cmd, flags, config.FlagMaxLineBytes, &c.maxLineBytes)
	config.AddStringFlag(cmd, flags, config.FlagEventStreamProv, &c.eventStreamProvider)
	config.AddStringFlag(cmd, flags, config.FlagEventStreamTopic, &c.eventStreamTopic)

	cmd.Flags().StringVar(&c.record, "record", "", "Write the raw SSE stream to a file (bare names go to .antfly/recordings/)")
	cmd.Flags().BoolVar(&c.publish, "publish", false, "Publish every stream event to the configured event stream")
	cmd.Flags().BoolVar(&c.noStream, "no-stream", false, "Ask for a single JSON response instead of a stream")
	cmd.Flags().BoolVar(&c.raw, "raw", false, "Print answer text as it arrives even on a terminal")
}

// load resolves configuration with flag > env > config file > default
// precedence. It runs in PreRunE.
func (c *queryCommander) load(cmd *cobra.Command) error {
	c.configDir, _ = cmd.Flags().GetString("config-dir")
	c.debug, _ = cmd.Flags().GetBool("debug")
	c.logFile, _ = cmd.Flags().GetString("log-file")

	v, err := config.InitViper(c.configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	config.BindRegisteredFlags(v, cmd, flags, flagKeys)

	c.baseURL = v.GetString("client.base_url")
	c.timeout = config.Timeout(v)
	c.maxLineBytes = v.GetInt("stream.max_line_bytes")
	c.eventStreamProvider = v.GetString("eventstream.provider")
	c.eventStreamTopic = v.GetString("eventstream.topic")
	c.brokers = config.Brokers(v)

	c.out = cmd.OutOrStdout()
	return nil
}

// printer returns a StreamPrinter for c.out. Answers are rendered as
// markdown only when writing to a terminal.
func (c *queryCommander) printer() *cliui.StreamPrinter {
	return cliui.NewStreamPrinter(c.out, !c.raw && isTerminal(c.out))
}

// session owns the client and the resources attached to its streams.
type session struct {
	client   *antfly.Client
	logger   *slog.Logger
	pool     *worker.Pool
	recorder io.Closer
	closeLog func() error
}

func (c *queryCommander) open() (*session, error) {
	log, closeLog, err := logger.NewCLI(logger.CLIConfig{Debug: c.debug, File: c.logFile})
	if err != nil {
		return nil, err
	}
	s := &session{logger: log, closeLog: closeLog}

	opts := []antfly.Option{antfly.WithLogger(log)}
	streamOpts := []stream.Option{stream.WithMaxLineSize(c.maxLineBytes)}

	if c.record != "" {
		path, err := dotdir.NewManager().RecordingPath(c.configDir, c.record)
		if err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("resolving recording path: %w", err)
		}
		f, err := os.Create(path)
		if err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("creating recording: %w", err)
		}
		s.recorder = f
		streamOpts = append(streamOpts, stream.WithRecorder(f))
		log.Info("recording stream", "path", path)
	}
	opts = append(opts, antfly.WithStreamOptions(streamOpts...))

	if c.publish {
		pub, err := c.newPublisher(log)
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		pool, err := worker.NewPool(&worker.Config{Publisher: pub, Logger: log})
		if err != nil {
			_ = pub.Close()
			_ = s.Close()
			return nil, fmt.Errorf("creating publisher pool: %w", err)
		}
		s.pool = pool
		opts = append(opts, antfly.WithObserverFactory(func(info antfly.RequestInfo) stream.Observer {
			return worker.NewObserver(pool, eventstream.EventSource{
				RequestID: info.ID,
				Endpoint:  info.Endpoint,
				Table:     info.Table,
			})
		}))
	}

	client, err := antfly.New(antfly.Config{BaseURL: c.baseURL, Timeout: c.timeout}, opts...)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	s.client = client

	return s, nil
}

func (c *queryCommander) newPublisher(log *slog.Logger) (eventstream.Publisher, error) {
	switch c.eventStreamProvider {
	case "", "nop":
		return nop.NewPublisher(), nil
	case "kafka":
		pub, err := kafka.NewPublisher(kafka.Config{
			Brokers: c.brokers,
			Topic:   c.eventStreamTopic,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("creating kafka publisher: %w", err)
		}
		return pub, nil
	default:
		return nil, fmt.Errorf("unsupported eventstream provider: %s", c.eventStreamProvider)
	}
}

// Close drains pending events, then closes the recording and the log file.
func (s *session) Close() error {
	var errs []error
	if s.pool != nil {
		errs = append(errs, s.pool.Close())
	}
	if s.recorder != nil {
		errs = append(errs, s.recorder.Close())
	}
	if s.closeLog != nil {
		errs = append(errs, s.closeLog())
	}
	return errors.Join(errs...)
}

// finish waits for h, if any, and flushes p. A stream cancelled with Ctrl-C
// ends without an error.
func finish(ctx context.Context, h *stream.Handle, p *cliui.StreamPrinter) error {
	var streamErr error
	if h != nil {
		streamErr = h.Wait()
	}
	flushErr := p.Flush()

	if streamErr != nil {
		var perr *stream.ProtocolError
		if errors.As(streamErr, &perr) {
			// The message itself was printed by the printer's OnError.
			return errStreamFailed
		}
		return streamErr
	}
	if ctx.Err() != nil {
		fmt.Fprintf(p.Writer(), "  %s\n", cliui.DimStyle.Render("cancelled"))
		return nil
	}
	if flushErr != nil {
		return fmt.Errorf("rendering answer: %w", flushErr)
	}
	return nil
}

// signalContext is cancelled on Ctrl-C or SIGTERM, which cancels any
// stream started with it.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
