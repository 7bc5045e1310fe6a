// Package embeddingutils is the embeddings utility package
package embeddingutils

import (
	"fmt"
	"log/slog"

	"github.com/papercomputeco/antfly/pkg/embeddings"
	"github.com/papercomputeco/antfly/pkg/embeddings/termite"
)

type NewEmbedderOpts struct {
	ProviderType string
	TargetURL    string
	Model        string
	Logger       *slog.Logger
}

func NewEmbedder(o *NewEmbedderOpts) (embeddings.BatchEmbedder, error) {
	switch o.ProviderType {
	case "", "termite":
		return termite.NewEmbedder(termite.EmbedderConfig{
			BaseURL: o.TargetURL,
			Model:   o.Model,
		}, o.Logger)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", o.ProviderType)
	}
}
