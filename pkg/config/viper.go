package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/papercomputeco/antfly/pkg/dotdir"
)

// dirKey is the viper key holding the resolved .antfly/ directory.
const dirKey = "dir"

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the ANTFLY_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (ANTFLY_CLIENT_BASE_URL, ANTFLY_TERMITE_TARGET, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery via dotdir resolution.
	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
		v.Set(dirKey, target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables: ANTFLY_CLIENT_BASE_URL, ANTFLY_EVENTSTREAM_TOPIC, etc.
	v.SetEnvPrefix("ANTFLY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Client
	v.SetDefault("client.base_url", d.Client.BaseURL)
	v.SetDefault("client.timeout", d.Client.Timeout)

	// Stream
	v.SetDefault("stream.max_line_bytes", d.Stream.MaxLineBytes)

	// Termite
	v.SetDefault("termite.target", d.Termite.Target)
	v.SetDefault("termite.model", d.Termite.Model)

	// Vector store
	v.SetDefault("vector_store.provider", d.VectorStore.Provider)
	v.SetDefault("vector_store.path", d.VectorStore.Path)
	v.SetDefault("vector_store.dimensions", d.VectorStore.Dimensions)

	// Event stream
	v.SetDefault("eventstream.provider", d.EventStream.Provider)
	v.SetDefault("eventstream.brokers", d.EventStream.Brokers)
	v.SetDefault("eventstream.topic", d.EventStream.Topic)

	// Replay
	v.SetDefault("replay.listen", d.Replay.Listen)
}

// Brokers returns eventstream.brokers from v. Both TOML arrays and comma
// separated strings (as set through ANTFLY_EVENTSTREAM_BROKERS) are accepted.
func Brokers(v *viper.Viper) []string {
	return SplitList(strings.Join(v.GetStringSlice("eventstream.brokers"), ","))
}

// Timeout returns client.timeout from v, or zero when it is unset or invalid.
func Timeout(v *viper.Viper) time.Duration {
	d, err := time.ParseDuration(v.GetString("client.timeout"))
	if err != nil {
		return 0
	}
	return d
}

// ResolvePath resolves a path from the config relative to the .antfly/
// directory. Absolute paths and the special ":memory:" are returned as is.
func ResolvePath(v *viper.Viper, p string) string {
	dir := v.GetString(dirKey)
	if p == "" || p == ":memory:" || filepath.IsAbs(p) || dir == "" {
		return p
	}
	return filepath.Join(dir, p)
}
