package querycmder

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/antfly/pkg/antfly"
)

type answerCommander struct {
	queryCommander
	target
}

const answerLongDesc string = `Ask the antfly answer agent a question.

The agent classifies the query, retrieves matching documents from the given
tables and writes an answer. Hits, reasoning, confidence and follow-up
questions are printed as they stream in. On a terminal the finished answer is
rendered as markdown; use --raw to print it as it arrives instead.

Press Ctrl-C to cancel a running stream.

Examples:
  antfly answer "how do I rotate keys?" --table docs
  antfly answer "what changed in v2?" --table docs --record v2.sse
  antfly answer "summarize the release notes" --no-stream
  antfly answer "hello" --publish --eventstream-provider kafka`

const answerShortDesc string = "Ask the answer agent a question"

func NewAnswerCmd() *cobra.Command {
	cmder := &answerCommander{}

	cmd := &cobra.Command{
		Use:   "answer <query>",
		Short: answerShortDesc,
		Long:  answerLongDesc,
		Args:  cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.load(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), strings.Join(args, " "))
		},
	}

	cmder.addFlags(cmd)
	cmder.addTargetFlags(cmd)

	return cmd
}

func (c *answerCommander) run(ctx context.Context, query string) error {
	s, err := c.open()
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := signalContext(ctx)
	defer cancel()

	p := c.printer()

	var cb *antfly.AnswerAgentCallbacks
	if !c.noStream {
		cb = p.AnswerAgentCallbacks()
	}

	result, h, err := s.client.AnswerAgent(ctx, antfly.AnswerAgentRequest{
		Query:     query,
		Queries:   c.queries(query),
		Generator: c.generator(),
	}, cb)
	if err != nil {
		return err
	}
	if result != nil {
		p.AnswerAgentResult(result)
	}

	return finish(ctx, h, p)
}
