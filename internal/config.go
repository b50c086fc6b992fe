package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/docctx/internal/cache"
	"github.com/starford/docctx/internal/discovery"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Context ContextConfig     `yaml:"context"`
	Index   IndexConfig       `yaml:"index"`
	Auth    AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Context.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// ContextConfig controls how the documentation tree is found and loaded.
type ContextConfig struct {
	Marker    string        `yaml:"marker"`
	IndexName string        `yaml:"index_name"`
	Workers   int           `yaml:"workers"`
	Debounce  time.Duration `yaml:"debounce"`
}

// Validate validates the context configuration.
func (c *ContextConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Marker, validation.Required),
		validation.Field(&c.IndexName, validation.Required),
		validation.Field(&c.Workers, validation.Min(1), validation.Max(256)),
		validation.Field(&c.Debounce, validation.Min(time.Duration(0))),
	)
}

// CacheOptions returns the cache options implied by the configuration.
func (c *ContextConfig) CacheOptions() []cache.Option {
	return []cache.Option{
		cache.WithIndexName(c.IndexName),
		cache.WithWorkers(c.Workers),
	}
}

// IndexConfig holds the optional SQLite fingerprint memo. An empty path
// disables it.
//
// The memo trusts a matching size and modification time. An edit that keeps
// the size and lands within the filesystem's mtime granularity is not seen
// until the entry is refreshed; sync --force re-hashes everything.
type IndexConfig struct {
	Path string `yaml:"path"`
}

// Enabled reports whether the memo is configured.
func (c *IndexConfig) Enabled() bool {
	return c.Path != ""
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled".
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Context: ContextConfig{
			Marker:    discovery.Marker,
			IndexName: cache.DefaultIndexName,
			Workers:   cache.DefaultWorkers,
			Debounce:  200 * time.Millisecond,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
