// Package replaycmder provides the replay command, which serves a recorded
// antfly response so the client can be pointed at it.
package replaycmder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/antfly/pkg/cliui"
	"github.com/papercomputeco/antfly/pkg/config"
	"github.com/papercomputeco/antfly/pkg/logger"
	"github.com/papercomputeco/antfly/pkg/replay"
)

var flags = config.FlagSet{
	config.FlagReplayListen: {
		Name:        "listen",
		Shorthand:   "l",
		ViperKey:    "replay.listen",
		Description: "Address for the replay server to listen on",
	},
}

var flagKeys = []string{
	config.FlagReplayListen,
}

type replayCommander struct {
	transcript string
	listen     string
	chunkSize  int
	delay      time.Duration
	status     int

	debug   bool
	logFile string

	out    io.Writer
	logger *slog.Logger
}

const replayLongDesc string = `Serve a recorded antfly response.

Every POST, whatever its path, is answered with the contents of the file:
SSE transcripts (such as those written by --record) as text/event-stream and
.json files as application/json. Point a client at the server with
--base-url to reproduce a session without a live deployment.

Use --chunk-size and --delay to cut the stream into small writes with pauses
between them, which reproduces events split across network reads.

Examples:
  antfly replay .antfly/recordings/hello.sse
  antfly replay hello.sse --chunk-size 7 --delay 20ms
  antfly replay error.json --status 500 --listen :9000
  antfly answer "hello" --base-url http://localhost:8090/api/v1`

const replayShortDesc string = "Serve a recorded response"

func NewReplayCmd() *cobra.Command {
	cmder := &replayCommander{}

	cmd := &cobra.Command{
		Use:   "replay <file>",
		Short: replayShortDesc,
		Long:  replayLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			cmder.debug, _ = cmd.Flags().GetBool("debug")
			cmder.logFile, _ = cmd.Flags().GetString("log-file")

			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, flags, flagKeys)
			cmder.listen = v.GetString("replay.listen")
			cmder.out = cmd.OutOrStdout()
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.transcript = args[0]

			log, closeLog, err := logger.NewCLI(logger.CLIConfig{Debug: cmder.debug, File: cmder.logFile})
			if err != nil {
				return err
			}
			defer func() { _ = closeLog() }()
			cmder.logger = log

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			return cmder.run(ctx)
		},
	}

	config.AddStringFlag(cmd, flags, config.FlagReplayListen, &cmder.listen)
	cmd.Flags().IntVar(&cmder.chunkSize, "chunk-size", 0, "Write the body in chunks of this many bytes (0 writes it whole)")
	cmd.Flags().DurationVar(&cmder.delay, "delay", 0, "Pause between chunks")
	cmd.Flags().IntVar(&cmder.status, "status", 200, "HTTP status code to respond with")

	return cmd
}

func (c *replayCommander) run(ctx context.Context) error {
	ln, err := net.Listen("tcp", c.listen)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", c.listen, err)
	}
	return c.serve(ctx, ln)
}

// serve runs the replay server on ln until ctx is done.
func (c *replayCommander) serve(ctx context.Context, ln net.Listener) error {
	s, err := replay.NewServer(replay.Config{
		ListenAddr:     ln.Addr().String(),
		TranscriptPath: c.transcript,
		ChunkSize:      c.chunkSize,
		Delay:          c.delay,
		Status:         c.status,
	}, c.logger)
	if err != nil {
		_ = ln.Close()
		return fmt.Errorf("creating replay server: %w", err)
	}

	fmt.Fprintf(c.out, "\n  %s Replaying %s on %s\n",
		cliui.SuccessMark,
		cliui.ValueStyle.Render(c.transcript),
		cliui.KeyStyle.Render("http://"+ln.Addr().String()),
	)
	fmt.Fprintf(c.out, "  %s\n\n", cliui.DimStyle.Render("Press Ctrl+C to stop."))

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	c.logger.Info("shutting down replay server")
	if err := s.Shutdown(); err != nil {
		return fmt.Errorf("shutting down replay server: %w", err)
	}
	<-errCh

	return nil
}
