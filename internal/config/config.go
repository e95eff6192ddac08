// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Keep fields unexported where possible and use functional options.
// - Provide New(...Option) initializer to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

// Storage backend names accepted by StorageBackend.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// StorageBackend selects the record store: memory (guest sessions) or
	// sqlite (signed-in users). The backend is chosen here, once, and
	// injected into the service; the domain logic never inspects it.
	StorageBackend string `koanf:"storage_backend"`

	// SQLitePath is the database file used when StorageBackend is sqlite.
	SQLitePath string `koanf:"sqlite_path"`

	// QueueBasePosition is the first play-queue position.
	QueueBasePosition int `koanf:"queue_base_position"`

	// DedupeSize bounds the pick-request idempotency cache.
	DedupeSize int `koanf:"dedupe_size"`

	// NarrativeAPIURL, NarrativeAPIKey and NarrativeModel configure the
	// generative-language endpoint for journal recaps. An empty key
	// disables recap generation.
	NarrativeAPIURL string `koanf:"narrative_api_url"`
	NarrativeAPIKey string `koanf:"narrative_api_key"`
	NarrativeModel  string `koanf:"narrative_model"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		Addr:              ":9080",
		StorageBackend:    BackendMemory,
		SQLitePath:        "backlog.db",
		QueueBasePosition: 1,
		DedupeSize:        1024,
		NarrativeAPIURL:   "https://api.openai.com/v1",
		NarrativeModel:    "gpt-4o-mini",
	}
}
