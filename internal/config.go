package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"golang.org/x/text/language"

	"github.com/starford/filecat/internal/catalog"
	"github.com/starford/filecat/internal/extract"
	"github.com/starford/filecat/internal/search"
	"github.com/starford/filecat/internal/snapshot"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Catalog  CatalogConfig     `yaml:"catalog"`
	Snapshot SnapshotConfig    `yaml:"snapshot"`
	Extract  ExtractConfig     `yaml:"extract"`
	Search   SearchConfig      `yaml:"search"`
	Walk     WalkConfig        `yaml:"walk"`
	Auth     AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Catalog.Validate(); err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	if err := c.Snapshot.Validate(); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	if err := c.Extract.Validate(); err != nil {
		return fmt.Errorf("extract: %w", err)
	}
	if err := c.Search.Validate(); err != nil {
		return fmt.Errorf("search: %w", err)
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

// CatalogConfig tunes ingestion, retention and persistence.
type CatalogConfig struct {
	BatchSize    int           `yaml:"batch_size"`
	KeepScans    int           `yaml:"keep_scans"`
	FlushDelay   time.Duration `yaml:"flush_delay"`
	FlushRetries int           `yaml:"flush_retries"`
}

// Validate validates the catalog configuration.
func (c *CatalogConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BatchSize, validation.Required, validation.Min(1), validation.Max(1000)),
		validation.Field(&c.KeepScans, validation.Min(0)),
		validation.Field(&c.FlushDelay, validation.Min(time.Duration(0))),
		validation.Field(&c.FlushRetries, validation.Required, validation.Min(1)),
	)
}

// SnapshotConfig selects where the catalog is persisted.
type SnapshotConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

// Validate validates the snapshot configuration.
func (c *SnapshotConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Backend, validation.Required, validation.In(snapshot.BackendFile, snapshot.BackendSQLite)),
		validation.Field(&c.Path, validation.Required),
	)
}

// ExtractConfig bounds content extraction.
type ExtractConfig struct {
	MaxFileSize      int64 `yaml:"max_file_size"`
	MaxContentLength int   `yaml:"max_content_length"`
}

// Validate validates the extraction configuration.
func (c *ExtractConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MaxFileSize, validation.Required, validation.Min(int64(1))),
		validation.Field(&c.MaxContentLength, validation.Required, validation.Min(1)),
	)
}

// SearchConfig holds query defaults and the result cache settings.
type SearchConfig struct {
	DefaultLimit int           `yaml:"default_limit"`
	CacheSize    int           `yaml:"cache_size"`
	CacheTTL     time.Duration `yaml:"cache_ttl"`
	Locale       string        `yaml:"locale"`
}

// Validate validates the search configuration.
func (c *SearchConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.DefaultLimit, validation.Required, validation.Min(1)),
		validation.Field(&c.CacheSize, validation.Min(0)),
		validation.Field(&c.CacheTTL, validation.When(c.CacheSize > 0, validation.Required)),
		validation.Field(&c.Locale, validation.Required, validation.By(func(v any) error {
			if _, err := language.Parse(v.(string)); err != nil {
				return fmt.Errorf("unknown locale %q", v)
			}
			return nil
		})),
	)
}

// Tag returns the parsed collation locale.
func (c *SearchConfig) Tag() language.Tag {
	tag, err := language.Parse(c.Locale)
	if err != nil {
		return language.English
	}
	return tag
}

// WalkConfig controls the host-side directory walk.
type WalkConfig struct {
	SkipHidden bool `yaml:"skip_hidden"`
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
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
		Catalog: CatalogConfig{
			BatchSize:    catalog.DefaultBatchSize,
			FlushDelay:   catalog.DefaultFlushDelay,
			FlushRetries: catalog.DefaultFlushRetries,
		},
		Snapshot: SnapshotConfig{
			Backend: snapshot.BackendFile,
			Path:    "./data/catalog.json",
		},
		Extract: ExtractConfig{
			MaxFileSize:      extract.DefaultMaxFileSize,
			MaxContentLength: extract.DefaultMaxContentLength,
		},
		Search: SearchConfig{
			DefaultLimit: search.DefaultLimit,
			CacheSize:    catalog.DefaultCacheSize,
			CacheTTL:     catalog.DefaultCacheTTL,
			Locale:       "en",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
