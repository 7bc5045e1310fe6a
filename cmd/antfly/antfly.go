// Package antflycmder
package antflycmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/papercomputeco/antfly/cmd/antfly/config"
	embedcmder "github.com/papercomputeco/antfly/cmd/antfly/embed"
	querycmder "github.com/papercomputeco/antfly/cmd/antfly/query"
	replaycmder "github.com/papercomputeco/antfly/cmd/antfly/replay"
	versioncmder "github.com/papercomputeco/antfly/cmd/version"
)

const antflyLongDesc string = `antfly is a command line client for antfly search.

Ask questions and stream the answers:
  antfly answer <query>       Run the answer agent
  antfly rag <query>          Retrieval augmented generation over tables
  antfly chat [message]       Talk to the chat agent

Work with embeddings and recordings:
  antfly embed <text>...      Embed text with Termite
  antfly replay <file>        Serve a recorded response

Settings are read from .antfly/config.toml (see "antfly config"), then
ANTFLY_* environment variables, then flags.`

const antflyShortDesc string = "antfly - search, RAG and agents from the terminal"

func NewAntflyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "antfly",
		Short:        antflyShortDesc,
		Long:         antflyLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .antfly/ configuration directory")
	cmd.PersistentFlags().String("log-file", "", "Also write JSON logs to this file")

	// Add subcommands
	cmd.AddCommand(querycmder.NewAnswerCmd())
	cmd.AddCommand(querycmder.NewRAGCmd())
	cmd.AddCommand(querycmder.NewChatCmd())
	cmd.AddCommand(embedcmder.NewEmbedCmd())
	cmd.AddCommand(replaycmder.NewReplayCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
