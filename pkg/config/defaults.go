package config

const (
	defaultBaseURL = "http://localhost:8080/api/v1"
	defaultTimeout = "30s"

	// 8 MiB, matching sse.DefaultMaxLineSize.
	defaultMaxLineBytes = 8 * 1024 * 1024

	defaultTermiteTarget = "http://localhost:11433"
	defaultTermiteModel  = "BAAI/bge-small-en-v1.5"

	defaultVectorProvider   = "sqlite"
	defaultVectorPath       = "embeddings.db"
	defaultVectorDimensions = 384

	defaultEventStreamProvider = "nop"
	defaultEventStreamTopic    = "antfly.stream.events"

	defaultReplayListen = ":8090"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Client: ClientConfig{
			BaseURL: defaultBaseURL,
			Timeout: defaultTimeout,
		},
		Stream: StreamConfig{
			MaxLineBytes: defaultMaxLineBytes,
		},
		Termite: TermiteConfig{
			Target: defaultTermiteTarget,
			Model:  defaultTermiteModel,
		},
		VectorStore: VectorStoreConfig{
			Provider:   defaultVectorProvider,
			Path:       defaultVectorPath,
			Dimensions: defaultVectorDimensions,
		},
		EventStream: EventStreamConfig{
			Provider: defaultEventStreamProvider,
			Topic:    defaultEventStreamTopic,
		},
		Replay: ReplayConfig{
			Listen: defaultReplayListen,
		},
	}
}
