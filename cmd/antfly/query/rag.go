package querycmder

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/antfly/pkg/antfly"
)

type ragCommander struct {
	queryCommander
	target

	prompt string
}

const ragLongDesc string = `Run retrieval augmented generation over one or more tables.

With a single --table the request goes to that table's RAG endpoint; with
several it goes to the multi-table endpoint. Hits are printed as they stream
in, followed by the generated answer or summary.

Examples:
  antfly rag "what is the refund policy?" --table docs
  antfly rag "compare the plans" --table docs --table pricing
  antfly rag "list open incidents" --table incidents --prompt "Answer as a bullet list"`

const ragShortDesc string = "Retrieval augmented generation over tables"

func NewRAGCmd() *cobra.Command {
	cmder := &ragCommander{}

	cmd := &cobra.Command{
		Use:   "rag <query>",
		Short: ragShortDesc,
		Long:  ragLongDesc,
		Args:  cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := cmder.load(cmd); err != nil {
				return err
			}
			if len(cmder.tables) == 0 {
				return errors.New("at least one --table is required")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), strings.Join(args, " "))
		},
	}

	cmder.addFlags(cmd)
	cmder.addTargetFlags(cmd)
	cmd.Flags().StringVar(&cmder.prompt, "prompt", "", "Extra instructions for the generator")

	return cmd
}

func (c *ragCommander) run(ctx context.Context, query string) error {
	s, err := c.open()
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := signalContext(ctx)
	defer cancel()

	p := c.printer()

	var cb *antfly.RAGCallbacks
	if !c.noStream {
		cb = p.RAGCallbacks()
	}

	var table string
	if len(c.tables) == 1 {
		table = c.tables[0]
	}

	result, h, err := s.client.RAG(ctx, table, antfly.RAGRequest{
		Queries:   c.queries(query),
		Generator: c.generator(),
		Prompt:    c.prompt,
	}, cb)
	if err != nil {
		return err
	}
	if result != nil {
		p.RAGResult(result)
	}

	return finish(ctx, h, p)
}
