// Package embedcmder provides the embed command, which turns text into
// vectors with the Termite embedding service.
package embedcmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/antfly/pkg/cliui"
	"github.com/papercomputeco/antfly/pkg/config"
	"github.com/papercomputeco/antfly/pkg/embeddings"
	embeddingutils "github.com/papercomputeco/antfly/pkg/embeddings/utils"
	"github.com/papercomputeco/antfly/pkg/logger"
	"github.com/papercomputeco/antfly/pkg/vector"
	vectorutils "github.com/papercomputeco/antfly/pkg/vector/utils"
	"github.com/papercomputeco/antfly/pkg/vectorcodec"
)

// previewValues is how many leading values of each vector are printed.
const previewValues = 4

var flags = config.FlagSet{
	config.FlagTermiteTarget: {
		Name:        "termite-target",
		ViperKey:    "termite.target",
		Description: "Termite embedding service URL",
	},
	config.FlagTermiteModel: {
		Name:        "termite-model",
		ViperKey:    "termite.model",
		Description: "Embedding model name",
	},
	config.FlagVectorStoreProv: {
		Name:        "vector-store-provider",
		ViperKey:    "vector_store.provider",
		Description: "Vector store used by --store (sqlite)",
	},
	config.FlagVectorStorePath: {
		Name:        "vector-store-path",
		ViperKey:    "vector_store.path",
		Description: "Vector store database, relative to the .antfly/ directory",
	},
	config.FlagVectorStoreDims: {
		Name:        "vector-store-dimensions",
		ViperKey:    "vector_store.dimensions",
		Description: "Embedding dimensions of the vector store",
	},
}

var flagKeys = []string{
	config.FlagTermiteTarget,
	config.FlagTermiteModel,
	config.FlagVectorStoreProv,
	config.FlagVectorStorePath,
	config.FlagVectorStoreDims,
}

type embedCommander struct {
	debug   bool
	logFile string

	termiteTarget string
	termiteModel  string

	vectorStoreProvider string
	vectorStorePath     string
	vectorStoreDims     uint

	outPath string
	store   bool

	out    io.Writer
	logger *slog.Logger

	newEmbedder     func(*embeddingutils.NewEmbedderOpts) (embeddings.BatchEmbedder, error)
	newVectorDriver func(*vectorutils.NewVectorDriverOpts) (vector.Driver, error)
}

const embedLongDesc string = `Embed text with the Termite embedding service.

Each argument is embedded as one vector and the resulting shape is printed.
Use --out to write the vectors to a file in the binary vector envelope
(little-endian count and dimension, then float32 values row by row), and
--store to add the texts with their embeddings to the local vector store.

Examples:
  antfly embed "hello world" "goodbye world"
  antfly embed "hello world" --out hello.vec
  antfly embed "how do I rotate keys?" --store
  antfly embed "hello" --termite-target http://localhost:11433 --termite-model BAAI/bge-small-en-v1.5`

const embedShortDesc string = "Embed text with Termite"

func NewEmbedCmd() *cobra.Command {
	cmder := &embedCommander{
		newEmbedder:     embeddingutils.NewEmbedder,
		newVectorDriver: vectorutils.NewVectorDriver,
	}

	cmd := &cobra.Command{
		Use:   "embed <text>...",
		Short: embedShortDesc,
		Long:  embedLongDesc,
		Args:  cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.load(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			log, closeLog, err := logger.NewCLI(logger.CLIConfig{Debug: cmder.debug, File: cmder.logFile})
			if err != nil {
				return err
			}
			defer func() { _ = closeLog() }()
			cmder.logger = log

			return cmder.run(cmd.Context(), args)
		},
	}

	config.AddStringFlag(cmd, flags, config.FlagTermiteTarget, &cmder.termiteTarget)
	config.AddStringFlag(cmd, flags, config.FlagTermiteModel, &cmder.termiteModel)
	config.AddStringFlag(cmd, flags, config.FlagVectorStoreProv, &cmder.vectorStoreProvider)
	config.AddStringFlag(cmd, flags, config.FlagVectorStorePath, &cmder.vectorStorePath)
	config.AddUintFlag(cmd, flags, config.FlagVectorStoreDims, &cmder.vectorStoreDims)

	cmd.Flags().StringVarP(&cmder.outPath, "out", "o", "", "Write the vectors to a file in the binary envelope format")
	cmd.Flags().BoolVar(&cmder.store, "store", false, "Add the texts and embeddings to the vector store")

	return cmd
}

func (c *embedCommander) load(cmd *cobra.Command) error {
	configDir, _ := cmd.Flags().GetString("config-dir")
	c.debug, _ = cmd.Flags().GetBool("debug")
	c.logFile, _ = cmd.Flags().GetString("log-file")

	v, err := config.InitViper(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	config.BindRegisteredFlags(v, cmd, flags, flagKeys)

	c.termiteTarget = v.GetString("termite.target")
	c.termiteModel = v.GetString("termite.model")
	c.vectorStoreProvider = v.GetString("vector_store.provider")
	c.vectorStorePath = config.ResolvePath(v, v.GetString("vector_store.path"))
	c.vectorStoreDims = v.GetUint("vector_store.dimensions")

	c.out = cmd.OutOrStdout()
	return nil
}

func (c *embedCommander) run(ctx context.Context, texts []string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	embedder, err := c.newEmbedder(&embeddingutils.NewEmbedderOpts{
		TargetURL: c.termiteTarget,
		Model:     c.termiteModel,
		Logger:    c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}
	defer embedder.Close()

	var m vectorcodec.Matrix
	err = cliui.Step(c.out, fmt.Sprintf("Embedding %d %s", len(texts), plural(len(texts), "text", "texts")), func() error {
		var err error
		m, err = embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return err
		}
		if m.Len() != len(texts) {
			return fmt.Errorf("embedder returned %d vectors for %d texts", m.Len(), len(texts))
		}
		return m.Validate()
	})
	if err != nil {
		return fmt.Errorf("embedding: %w", err)
	}

	fmt.Fprintf(c.out, "  %s %s\n", cliui.KeyStyle.Render("shape:"),
		cliui.ValueStyle.Render(fmt.Sprintf("%d x %d", m.Len(), m.Dim())))
	for i, row := range m {
		fmt.Fprintf(c.out, "    %s %s\n",
			cliui.DimStyle.Render(fmt.Sprintf("%2d.", i+1)),
			preview(row))
	}

	if c.outPath != "" {
		if err := cliui.Step(c.out, "Writing "+c.outPath, func() error {
			return writeEnvelope(c.outPath, m)
		}); err != nil {
			return err
		}
	}

	if c.store {
		if err := cliui.Step(c.out, "Storing in "+c.vectorStorePath, func() error {
			return c.storeDocuments(ctx, texts, m)
		}); err != nil {
			return err
		}
	}

	return nil
}

func (c *embedCommander) storeDocuments(ctx context.Context, texts []string, m vectorcodec.Matrix) error {
	if m.Dim() != int(c.vectorStoreDims) {
		return fmt.Errorf("%w: store has %d, model returned %d", vector.ErrDimensions, c.vectorStoreDims, m.Dim())
	}

	driver, err := c.newVectorDriver(&vectorutils.NewVectorDriverOpts{
		ProviderType: c.vectorStoreProvider,
		Path:         c.vectorStorePath,
		Dimensions:   c.vectorStoreDims,
		Logger:       c.logger,
	})
	if err != nil {
		return fmt.Errorf("opening vector store: %w", err)
	}
	defer driver.Close()

	docs := make([]vector.Document, len(texts))
	for i, text := range texts {
		docs[i] = vector.Document{
			ID:        uuid.NewString(),
			Text:      text,
			Embedding: m[i],
		}
	}

	return driver.Add(ctx, docs)
}

func writeEnvelope(path string, m vectorcodec.Matrix) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()

	return vectorcodec.NewEncoder(f).Encode(m)
}

func preview(row []float32) string {
	n := min(len(row), previewValues)
	parts := make([]string, n)
	for i := range n {
		parts[i] = fmt.Sprintf("%.4f", row[i])
	}
	s := strings.Join(parts, " ")
	if len(row) > n {
		s += " ..."
	}
	return "[" + s + "]"
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
