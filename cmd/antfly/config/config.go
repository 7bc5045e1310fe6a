// Package configcmder provides the config command for managing persistent
// antfly configuration stored in the .antfly/ directory.
package configcmder

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/antfly/pkg/cliui"
	"github.com/papercomputeco/antfly/pkg/config"
)

const configLongDesc string = `Manage persistent antfly configuration.

Configuration is stored as config.toml in the .antfly/ directory and provides
default values for command flags. Environment variables (ANTFLY_CLIENT_BASE_URL,
ANTFLY_EVENTSTREAM_BROKERS, ...) override the file, and CLI flags override both.

Keys use dotted notation matching the TOML section structure:
  client.base_url, client.timeout, stream.max_line_bytes,
  termite.target, termite.model,
  vector_store.provider, vector_store.path, vector_store.dimensions,
  eventstream.provider, eventstream.brokers, eventstream.topic,
  replay.listen

Use subcommands to get, set, or list configuration values:
  antfly config set <key> <value>    Set a configuration value
  antfly config get <key>            Get a configuration value
  antfly config list                 List all configuration values

Examples:
  antfly config set client.base_url http://search.internal:8080/api/v1
  antfly config set eventstream.brokers kafka-1:9092,kafka-2:9092
  antfly config get termite.model
  antfly config list`

const configShortDesc string = "Manage persistent antfly configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func checkKey(key string) error {
	if !config.IsValidConfigKey(key) {
		return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
			key, strings.Join(config.ValidConfigKeys(), ", "))
	}
	return nil
}

func printTarget(w io.Writer, cfger *config.Configer) {
	if target := cfger.GetTarget(); target != "" {
		fmt.Fprintf(w, "\n  %s %s\n\n",
			cliui.KeyStyle.Render("Config file:"),
			cliui.DimStyle.Render(target),
		)
		return
	}
	fmt.Fprintf(w, "\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
}
