package querycmder

import (
	"github.com/spf13/cobra"

	"github.com/papercomputeco/antfly/pkg/antfly"
)

// target selects the tables searched and the model that writes the answer.
type target struct {
	tables   []string
	limit    int
	provider string
	model    string
}

func (t *target) addTargetFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&t.tables, "table", "t", nil, "Table to search (repeatable)")
	cmd.Flags().IntVarP(&t.limit, "limit", "k", 10, "Maximum hits per table")
	cmd.Flags().StringVar(&t.provider, "provider", "", "Generator provider (server default when empty)")
	cmd.Flags().StringVarP(&t.model, "model", "m", "", "Generator model (server default when empty)")
}

// queries builds one semantic query per table.
func (t *target) queries(text string) []antfly.QueryRequest {
	qs := make([]antfly.QueryRequest, 0, len(t.tables))
	for _, table := range t.tables {
		qs = append(qs, antfly.QueryRequest{
			Table:          table,
			SemanticSearch: text,
			Limit:          t.limit,
		})
	}
	return qs
}

func (t *target) generator() *antfly.GeneratorConfig {
	if t.provider == "" && t.model == "" {
		return nil
	}
	return &antfly.GeneratorConfig{Provider: t.provider, Model: t.model}
}
