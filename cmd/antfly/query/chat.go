package querycmder

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/antfly/pkg/antfly"
	"github.com/papercomputeco/antfly/pkg/cliui"
)

var userPrompt = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true).Render("you> ")

type chatCommander struct {
	queryCommander
	target

	web bool
	in  io.Reader

	messages []antfly.ChatMessage
}

const chatLongDesc string = `Talk to the antfly chat agent.

With a message argument a single turn is sent and the command exits. Without
one an interactive session starts: type a message and press Enter, /exit or
Ctrl-D to quit. The conversation history is sent with every turn, and
Ctrl-C cancels only the turn that is streaming.

Examples:
  antfly chat "which tables mention billing?" --table docs
  antfly chat --table docs --table tickets
  antfly chat "latest go release?" --web`

const chatShortDesc string = "Talk to the chat agent"

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.in = cmd.InOrStdin()
			return cmder.load(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), strings.Join(args, " "))
		},
	}

	cmder.addFlags(cmd)
	cmder.addTargetFlags(cmd)
	cmd.Flags().BoolVar(&cmder.web, "web", false, "Allow the agent to search the web")

	return cmd
}

func (c *chatCommander) run(ctx context.Context, message string) error {
	s, err := c.open()
	if err != nil {
		return err
	}
	defer s.Close()

	if message != "" {
		return c.turn(ctx, s, message)
	}

	fmt.Fprintf(c.out, "\n  %s\n\n", cliui.DimStyle.Render("Type your message and press Enter. /exit or Ctrl+D to quit."))

	scanner := bufio.NewScanner(c.in)
	for {
		fmt.Fprint(c.out, userPrompt)
		if !scanner.Scan() {
			fmt.Fprintln(c.out)
			return scanner.Err()
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "/exit" {
			return nil
		}

		if err := c.turn(ctx, s, input); err != nil {
			fmt.Fprintf(c.out, "  %s %v\n", cliui.FailMark, err)
		}
		fmt.Fprintln(c.out)
	}
}

// turn sends one user message with the history so far. The history only
// grows when the turn succeeds.
func (c *chatCommander) turn(ctx context.Context, s *session, message string) error {
	ctx, cancel := signalContext(ctx)
	defer cancel()

	p := c.printer()

	var cb *antfly.ChatAgentCallbacks
	if !c.noStream {
		cb = p.ChatAgentCallbacks()
	}

	messages := append(c.messages[:len(c.messages):len(c.messages)],
		antfly.ChatMessage{Role: "user", Content: message})

	result, h, err := s.client.ChatAgent(ctx, antfly.ChatAgentRequest{
		Messages:  messages,
		Tables:    c.tables,
		Generator: c.generator(),
		EnableWeb: c.web,
	}, cb)
	if err != nil {
		return err
	}
	if result != nil {
		p.ChatAgentResult(result)
	}

	if err := finish(ctx, h, p); err != nil {
		return err
	}
	if ctx.Err() != nil {
		return nil
	}

	if result != nil && len(result.Messages) > 0 {
		c.messages = result.Messages
		return nil
	}
	c.messages = append(messages, antfly.ChatMessage{Role: "assistant", Content: p.Text()})
	return nil
}
