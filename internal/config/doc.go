// Package config handles configuration loading for synapse-relay.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation and sensible defaults.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	telegram:
//	  token: "${SYNAPSE_BOT_TOKEN}"
//
// Syntax: ${VAR_NAME}. Unset variables expand to the empty string, which
// then fails validation for required fields.
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	telegram:
//	  poll_timeout: "25s"
//	engine:
//	  generate_timeout: "45s"
//
// Supported units: ns, us, ms, s, m, h
//
// # Configuration Sections
//
// Telegram transport and access control:
//
//	telegram:
//	  token: "${SYNAPSE_BOT_TOKEN}"
//	  allowed_usernames: ["alice", "bob"]
//	  allowed_user_ids: [42]
//	  admin_user_id: 999
//	  poll_timeout: "25s"
//
// Provider chain, tried in listed order:
//
//	providers:
//	  - kind: "openai"
//	    api_key: "${OPENAI_API_KEY}"
//	    model: "gpt-4o-mini"
//	  - kind: "gemini"
//	    api_key: "${GEMINI_API_KEY}"
//	    model: "gemini-2.0-flash"
//
// Snapshot persistence:
//
//	snapshot:
//	  backend: "file"   # file, sqlite
//	  path: "/var/lib/synapse/state.json"
//
// Operator facade:
//
//	webadmin:
//	  enabled: true
//	  addr: "127.0.0.1:8081"
//	  jwt_secret: "${SYNAPSE_JWT_SECRET}"
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// # Validation
//
// Load() validates:
//
//   - Telegram token presence
//   - Provider kinds and required credentials
//   - Snapshot backend values and path presence
//   - Web admin address and secret when enabled
//   - Duration format validity
//
// # Usage
//
//	cfg, err := config.Load("/etc/synapse/relay.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
