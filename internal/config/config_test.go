// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML loading, env var expansion, duration parsing, and validation

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	configPath := writeConfig(t, `
telegram:
  token: "123456:test-token"
  allowed_usernames:
    - "alice"
    - "bob"
  allowed_user_ids:
    - 42
  admin_user_id: 999
  poll_timeout: "25s"

providers:
  - kind: "openai"
    api_key: "sk-test"
    model: "gpt-4o-mini"
    base_url: "https://api.openai.com/v1"
    timeout: "30s"
  - kind: "gemini"
    api_key: "gm-test"
    model: "gemini-2.0-flash"

engine:
  max_tokens: 600
  generate_timeout: "45s"

snapshot:
  backend: "file"
  path: "./state.json"

webadmin:
  enabled: true
  addr: "127.0.0.1:8081"
  jwt_secret: "secret"
  operator: "ops"

logging:
  level: "debug"
  format: "json"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// Verify telegram config
	if cfg.Telegram.Token != "123456:test-token" {
		t.Errorf("Telegram.Token = %q, want %q", cfg.Telegram.Token, "123456:test-token")
	}
	if len(cfg.Telegram.AllowedUsernames) != 2 {
		t.Errorf("Telegram.AllowedUsernames len = %d, want 2", len(cfg.Telegram.AllowedUsernames))
	}
	if len(cfg.Telegram.AllowedUserIDs) != 1 || cfg.Telegram.AllowedUserIDs[0] != 42 {
		t.Errorf("Telegram.AllowedUserIDs = %v, want [42]", cfg.Telegram.AllowedUserIDs)
	}
	if cfg.Telegram.AdminUserID != 999 {
		t.Errorf("Telegram.AdminUserID = %d, want 999", cfg.Telegram.AdminUserID)
	}
	if cfg.Telegram.PollTimeout != 25*time.Second {
		t.Errorf("Telegram.PollTimeout = %v, want %v", cfg.Telegram.PollTimeout, 25*time.Second)
	}

	// Verify provider chain order and duration parsing
	if len(cfg.Providers) != 2 {
		t.Fatalf("Providers len = %d, want 2", len(cfg.Providers))
	}
	if cfg.Providers[0].Kind != "openai" {
		t.Errorf("Providers[0].Kind = %q, want %q", cfg.Providers[0].Kind, "openai")
	}
	if cfg.Providers[0].Timeout != 30*time.Second {
		t.Errorf("Providers[0].Timeout = %v, want %v", cfg.Providers[0].Timeout, 30*time.Second)
	}
	if cfg.Providers[1].Kind != "gemini" {
		t.Errorf("Providers[1].Kind = %q, want %q", cfg.Providers[1].Kind, "gemini")
	}

	// Verify engine config
	if cfg.Engine.MaxTokens != 600 {
		t.Errorf("Engine.MaxTokens = %d, want 600", cfg.Engine.MaxTokens)
	}
	if cfg.Engine.GenerateTimeout != 45*time.Second {
		t.Errorf("Engine.GenerateTimeout = %v, want %v", cfg.Engine.GenerateTimeout, 45*time.Second)
	}

	// Verify snapshot config
	if cfg.Snapshot.Backend != "file" {
		t.Errorf("Snapshot.Backend = %q, want %q", cfg.Snapshot.Backend, "file")
	}
	if cfg.Snapshot.Path != "./state.json" {
		t.Errorf("Snapshot.Path = %q, want %q", cfg.Snapshot.Path, "./state.json")
	}

	// Verify webadmin config
	if !cfg.WebAdmin.Enabled {
		t.Error("WebAdmin.Enabled = false, want true")
	}
	if cfg.WebAdmin.Addr != "127.0.0.1:8081" {
		t.Errorf("WebAdmin.Addr = %q, want %q", cfg.WebAdmin.Addr, "127.0.0.1:8081")
	}
	if cfg.WebAdmin.Operator != "ops" {
		t.Errorf("WebAdmin.Operator = %q, want %q", cfg.WebAdmin.Operator, "ops")
	}

	// Verify logging config
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q, want %q", cfg.Logging.Format, "json")
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("TEST_BOT_TOKEN", "123:from-env")
	t.Setenv("TEST_API_KEY", "sk-from-env")

	configPath := writeConfig(t, `
telegram:
  token: "${TEST_BOT_TOKEN}"

providers:
  - kind: "openai"
    api_key: "${TEST_API_KEY}"
    model: "gpt-4o-mini"

snapshot:
  path: "./state.json"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Telegram.Token != "123:from-env" {
		t.Errorf("Telegram.Token = %q, want %q", cfg.Telegram.Token, "123:from-env")
	}
	if cfg.Providers[0].APIKey != "sk-from-env" {
		t.Errorf("Providers[0].APIKey = %q, want %q", cfg.Providers[0].APIKey, "sk-from-env")
	}
}

func TestLoad_UnsetEnvVarBecomesEmpty(t *testing.T) {
	configPath := writeConfig(t, `
telegram:
  token: "${DEFINITELY_NOT_SET_ANYWHERE}"

snapshot:
  path: "./state.json"
`)

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() expected validation error for empty token, got nil")
	}
	if !strings.Contains(err.Error(), "telegram.token") {
		t.Errorf("Load() error = %v, want mention of telegram.token", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, "telegram: [not: valid: yaml")
	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	configPath := writeConfig(t, `
telegram:
  token: "123:tok"
  poll_timeout: "soon"

snapshot:
  path: "./state.json"
`)
	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() expected error for invalid duration, got nil")
	}
	if !strings.Contains(err.Error(), "poll_timeout") {
		t.Errorf("Load() error = %v, want mention of poll_timeout", err)
	}
}

func TestValidate_ProviderKind(t *testing.T) {
	configPath := writeConfig(t, `
telegram:
  token: "123:tok"

providers:
  - kind: "anthropic"
    api_key: "k"
    model: "m"

snapshot:
  path: "./state.json"
`)
	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() expected error for unknown provider kind, got nil")
	}
	if !strings.Contains(err.Error(), "kind") {
		t.Errorf("Load() error = %v, want mention of kind", err)
	}
}

func TestValidate_ProviderRequiredFields(t *testing.T) {
	configPath := writeConfig(t, `
telegram:
  token: "123:tok"

providers:
  - kind: "openai"
    model: "gpt-4o-mini"

snapshot:
  path: "./state.json"
`)
	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() expected error for missing api_key, got nil")
	}
	if !strings.Contains(err.Error(), "api_key") {
		t.Errorf("Load() error = %v, want mention of api_key", err)
	}
}

func TestValidate_SnapshotBackend(t *testing.T) {
	configPath := writeConfig(t, `
telegram:
  token: "123:tok"

snapshot:
  backend: "postgres"
  path: "./state.json"
`)
	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() expected error for unknown snapshot backend, got nil")
	}
}

func TestValidate_SnapshotPathRequired(t *testing.T) {
	configPath := writeConfig(t, `
telegram:
  token: "123:tok"
`)
	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() expected error for missing snapshot.path, got nil")
	}
	if !strings.Contains(err.Error(), "snapshot.path") {
		t.Errorf("Load() error = %v, want mention of snapshot.path", err)
	}
}

func TestValidate_WebAdminRequiresSecret(t *testing.T) {
	configPath := writeConfig(t, `
telegram:
  token: "123:tok"

snapshot:
  path: "./state.json"

webadmin:
  enabled: true
  addr: "127.0.0.1:8081"
`)
	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() expected error for missing jwt_secret, got nil")
	}
	if !strings.Contains(err.Error(), "jwt_secret") {
		t.Errorf("Load() error = %v, want mention of jwt_secret", err)
	}
}

func TestValidate_WebAdminRequiresOperator(t *testing.T) {
	// Without a pinned subject the facade would accept any token the secret
	// signs, not the single privileged identity.
	configPath := writeConfig(t, `
telegram:
  token: "123:tok"

snapshot:
  path: "./state.json"

webadmin:
  enabled: true
  addr: "127.0.0.1:8081"
  jwt_secret: "secret"
`)
	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() expected error for missing operator, got nil")
	}
	if !strings.Contains(err.Error(), "webadmin.operator") {
		t.Errorf("Load() error = %v, want mention of webadmin.operator", err)
	}
}

func TestValidate_NoProvidersIsAllowed(t *testing.T) {
	// An empty chain is valid; the engine degrades to the local fallback.
	configPath := writeConfig(t, `
telegram:
  token: "123:tok"

snapshot:
  path: "./state.json"
`)
	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.Providers) != 0 {
		t.Errorf("Providers len = %d, want 0", len(cfg.Providers))
	}
}
