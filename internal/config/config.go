// ABOUTME: Configuration loading and parsing for synapse-relay
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete synapse-relay configuration
type Config struct {
	Telegram  TelegramConfig   `yaml:"telegram"`
	Providers []ProviderConfig `yaml:"providers"`
	Engine    EngineConfig     `yaml:"engine"`
	Snapshot  SnapshotConfig   `yaml:"snapshot"`
	WebAdmin  WebAdminConfig   `yaml:"webadmin"`
	Logging   LoggingConfig    `yaml:"logging"`
}

// TelegramConfig holds the bot credentials and the access allow-list
type TelegramConfig struct {
	Token string `yaml:"token"`
	// AllowedUsernames and AllowedUserIDs together form the allow-list.
	// An empty allow-list denies everyone.
	AllowedUsernames []string `yaml:"allowed_usernames"`
	AllowedUserIDs   []int64  `yaml:"allowed_user_ids"`
	// AdminUserID is the single privileged identity for /system and the
	// dev-mode prompt excerpt
	AdminUserID int64 `yaml:"admin_user_id"`

	PollTimeout    time.Duration `yaml:"-"`
	PollTimeoutRaw string        `yaml:"poll_timeout"`
}

// ProviderConfig describes one entry in the ordered provider chain
type ProviderConfig struct {
	// Kind selects the adapter: "openai" or "gemini"
	Kind    string `yaml:"kind"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`

	Timeout    time.Duration `yaml:"-"`
	TimeoutRaw string        `yaml:"timeout"`
}

// EngineConfig holds dialogue tuning
type EngineConfig struct {
	MaxTokens int `yaml:"max_tokens"`

	GenerateTimeout    time.Duration `yaml:"-"`
	GenerateTimeoutRaw string        `yaml:"generate_timeout"`
}

// SnapshotConfig selects the persistence backend
type SnapshotConfig struct {
	// Backend is "file" (JSON snapshot) or "sqlite"
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

// WebAdminConfig holds the operator HTTP facade configuration
type WebAdminConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Addr      string `yaml:"addr"`
	JWTSecret string `yaml:"jwt_secret"`
	// Operator restricts tokens to this subject. Required when the
	// facade is enabled.
	Operator string `yaml:"operator"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Parse duration fields
	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	// Match ${VAR_NAME} pattern
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("telegram.token is required")
	}

	for i, p := range c.Providers {
		switch p.Kind {
		case "openai", "gemini":
		default:
			return fmt.Errorf("providers[%d].kind must be \"openai\" or \"gemini\", got %q", i, p.Kind)
		}
		if p.APIKey == "" {
			return fmt.Errorf("providers[%d].api_key is required", i)
		}
		if p.Model == "" {
			return fmt.Errorf("providers[%d].model is required", i)
		}
	}

	switch c.Snapshot.Backend {
	case "", "file", "sqlite":
	default:
		return fmt.Errorf("snapshot.backend must be \"file\" or \"sqlite\", got %q", c.Snapshot.Backend)
	}
	if c.Snapshot.Path == "" {
		return fmt.Errorf("snapshot.path is required")
	}

	if c.WebAdmin.Enabled {
		if c.WebAdmin.Addr == "" {
			return fmt.Errorf("webadmin.addr is required when webadmin is enabled")
		}
		if c.WebAdmin.JWTSecret == "" {
			return fmt.Errorf("webadmin.jwt_secret is required when webadmin is enabled")
		}
		// Without a pinned subject any token the secret signs would pass.
		if c.WebAdmin.Operator == "" {
			return fmt.Errorf("webadmin.operator is required when webadmin is enabled")
		}
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Telegram.PollTimeoutRaw != "" {
		cfg.Telegram.PollTimeout, err = time.ParseDuration(cfg.Telegram.PollTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing poll_timeout %q: %w", cfg.Telegram.PollTimeoutRaw, err)
		}
	}

	if cfg.Engine.GenerateTimeoutRaw != "" {
		cfg.Engine.GenerateTimeout, err = time.ParseDuration(cfg.Engine.GenerateTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing generate_timeout %q: %w", cfg.Engine.GenerateTimeoutRaw, err)
		}
	}

	for i := range cfg.Providers {
		if cfg.Providers[i].TimeoutRaw == "" {
			continue
		}
		cfg.Providers[i].Timeout, err = time.ParseDuration(cfg.Providers[i].TimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing providers[%d].timeout %q: %w", i, cfg.Providers[i].TimeoutRaw, err)
		}
	}

	return nil
}
