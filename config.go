package auth

import (
	"time"

	"github.com/caarlos0/env/v11"
	goerrors "github.com/goliatone/go-errors"
)

// Config carries the tunable knobs of the package. All fields can be set
// from the environment with the STREAMAUTH_ prefix.
type Config struct {
	// ServerURL pins the auth origin. Empty means derive per request.
	ServerURL string `env:"SERVER_URL"`
	// Scheme is used when deriving origins from a network name.
	Scheme         string        `env:"SCHEME" envDefault:"https"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`
	// StoragePath points the bun-backed session store at a database file.
	// Empty selects the in-memory store.
	StoragePath        string        `env:"STORAGE_PATH"`
	PopupPollInterval  time.Duration `env:"POPUP_POLL_INTERVAL" envDefault:"100ms"`
	LegacyPollAttempts int           `env:"LEGACY_POLL_ATTEMPTS" envDefault:"15"`
	LegacyPollStep     time.Duration `env:"LEGACY_POLL_STEP" envDefault:"100ms"`
}

// DefaultConfig returns the built-in defaults without touching the
// environment.
func DefaultConfig() Config {
	return Config{
		Scheme:             defaultScheme,
		RequestTimeout:     defaultTimeout,
		PopupPollInterval:  100 * time.Millisecond,
		LegacyPollAttempts: 15,
		LegacyPollStep:     100 * time.Millisecond,
	}
}

// ConfigFromEnv parses Config from STREAMAUTH_-prefixed environment
// variables.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "STREAMAUTH_"}); err != nil {
		return Config{}, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid environment configuration")
	}
	return cfg, nil
}

// NewClientFromConfig builds a Client honoring cfg.
func NewClientFromConfig(cfg Config) *Client {
	client := NewClient()
	if cfg.RequestTimeout > 0 {
		client = client.WithTimeout(cfg.RequestTimeout)
	}
	if cfg.Scheme != "" {
		client = client.WithScheme(cfg.Scheme)
	}
	return client
}
