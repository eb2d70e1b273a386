package internal

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/cast"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration. It is loaded once at
// startup and passed into constructors as an immutable value; no
// component reads ambient globals.
type Config struct {
	App        ApplicationConfig `yaml:"app"`
	Vault      VaultConfig       `yaml:"vault"`
	Cache      CacheConfig       `yaml:"cache"`
	Auth       AuthConfig        `yaml:"auth"`
	Jira       JiraConfig        `yaml:"jira"`
	Confluence ConfluenceConfig  `yaml:"confluence"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Vault.Validate(); err != nil {
		return err
	}
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Jira.Validate(); err != nil {
		return err
	}
	return c.Confluence.Validate()
}

// ApplyEnv overlays process environment variables onto the config. The
// environment wins over the file so containerised deployments can run
// without one.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("ANSUZ_VAULT_PATH"); v != "" {
		c.Vault.Path = v
	}
	if v := os.Getenv("ANSUZ_EXCLUDE_FOLDERS"); v != "" {
		c.Vault.ExcludeFolders = splitCSV(v)
	}
	if v, ok := os.LookupEnv("ANSUZ_CACHE_ENABLED"); ok {
		c.Cache.Enabled = cast.ToBool(v)
	}
	if v := os.Getenv("ANSUZ_CACHE_TTL_SECONDS"); v != "" {
		c.Cache.TTLSeconds = cast.ToInt(v)
	}
	if v := os.Getenv("ANSUZ_HTTP_PORT"); v != "" {
		c.App.HTTP.Enabled = true
		c.App.HTTP.Port = cast.ToInt(v)
	}
	if v := os.Getenv("ANSUZ_AUTH_TOKEN"); v != "" {
		c.Auth.Mode = AuthModeToken
		c.Auth.Token = v
	}
	if v := os.Getenv("JIRA_BASE_URL"); v != "" {
		c.Jira.BaseURL = v
	}
	if v := os.Getenv("JIRA_EMAIL"); v != "" {
		c.Jira.Email = v
	}
	if v := os.Getenv("JIRA_API_TOKEN"); v != "" {
		c.Jira.APIToken = v
	}
	if v := os.Getenv("CONFLUENCE_BASE_URL"); v != "" {
		c.Confluence.BaseURL = v
	}
	if v := os.Getenv("CONFLUENCE_EMAIL"); v != "" {
		c.Confluence.Email = v
	}
	if v := os.Getenv("CONFLUENCE_API_TOKEN"); v != "" {
		c.Confluence.APIToken = v
	}
}

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
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

// HTTPConfig holds the optional REST API configuration. The MCP stdio
// transport always runs; HTTP is a secondary mirror.
type HTTPConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Address returns the HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// VaultConfig holds the Markdown vault location and vault-wide folder
// exclusions.
type VaultConfig struct {
	Path           string   `yaml:"path"`
	ExcludeFolders []string `yaml:"exclude_folders"`
}

// Validate validates the vault configuration. The path is required: the
// process refuses to start without a vault.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// CacheConfig holds the optional query cache settings.
type CacheConfig struct {
	Enabled    bool `yaml:"enabled"`
	TTLSeconds int  `yaml:"ttl_seconds"`
}

// TTL returns the entry lifetime as a duration.
func (c *CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// Validate validates the cache configuration.
func (c *CacheConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.TTLSeconds, validation.Required, validation.Min(1)),
	)
}

// AuthConfig holds REST API authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication, suitable for local dev.
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

// JiraConfig holds Jira Cloud credentials. All three fields must be set
// together; when absent the Jira tools are simply not registered.
type JiraConfig struct {
	BaseURL  string `yaml:"base_url"`
	Email    string `yaml:"email"`
	APIToken string `yaml:"api_token"`
}

// Configured reports whether the Jira client should be constructed.
func (c *JiraConfig) Configured() bool {
	return c.BaseURL != ""
}

// Validate validates the Jira configuration.
func (c *JiraConfig) Validate() error {
	if !c.Configured() {
		return nil
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Email, validation.Required),
		validation.Field(&c.APIToken, validation.Required),
	)
}

// ConfluenceConfig holds Confluence Cloud credentials, same contract as
// JiraConfig.
type ConfluenceConfig struct {
	BaseURL  string `yaml:"base_url"`
	Email    string `yaml:"email"`
	APIToken string `yaml:"api_token"`
}

// Configured reports whether the Confluence client should be constructed.
func (c *ConfluenceConfig) Configured() bool {
	return c.BaseURL != ""
}

// Validate validates the Confluence configuration.
func (c *ConfluenceConfig) Validate() error {
	if !c.Configured() {
		return nil
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Email, validation.Required),
		validation.Field(&c.APIToken, validation.Required),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
// The vault path has no default: it must come from the config file or
// ANSUZ_VAULT_PATH.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Enabled: false,
				Port:    8080,
			},
		},
		Cache: CacheConfig{
			Enabled:    false,
			TTLSeconds: 60,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
