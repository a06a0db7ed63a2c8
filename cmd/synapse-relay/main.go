// ABOUTME: Entry point for synapse-relay
// ABOUTME: Wires config, store, provider chain, engine, web admin, and the Telegram bridge

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/2389/synapse-relay/internal/access"
	"github.com/2389/synapse-relay/internal/auth"
	"github.com/2389/synapse-relay/internal/config"
	"github.com/2389/synapse-relay/internal/dedupe"
	"github.com/2389/synapse-relay/internal/engine"
	"github.com/2389/synapse-relay/internal/provider"
	"github.com/2389/synapse-relay/internal/store"
	"github.com/2389/synapse-relay/internal/telegram"
	"github.com/2389/synapse-relay/internal/webadmin"
)

const banner = `
 ___ _   _ _ __   __ _ _ __  ___  ___       _ __ ___| | __ _ _   _
/ __| | | | '_ \ / _' | '_ \/ __|/ _ \_____| '__/ _ \ |/ _' | | | |
\__ \ |_| | | | | (_| | |_) \__ \  __/_____| | |  __/ | (_| | |_| |
|___/\__, |_| |_|\__,_| .__/|___/\___|     |_|  \___|_|\__,_|\__, |
     |___/            |_|                                    |___/
`

// getConfigPath returns the path to the relay config file.
// Priority: -config flag > SYNAPSE_RELAY_CONFIG env var > ./relay.yaml
func getConfigPath(flagPath string) string {
	if flagPath != "" {
		return flagPath
	}
	if envPath := os.Getenv("SYNAPSE_RELAY_CONFIG"); envPath != "" {
		return envPath
	}
	return "relay.yaml"
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configFlag := flag.String("config", "", "path to config file")
	flag.Parse()

	// Print banner
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	configPath := getConfigPath(*configFlag)

	// Load config
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config from %s: %w", configPath, err)
	}

	// Setup logger
	logger := setupLogger(cfg.Logging.Level, cfg.Logging.Format)

	// Print startup info
	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Config:    %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("Snapshot:  %s (%s)\n", cfg.Snapshot.Path, snapshotBackend(cfg))
	green.Print("    ▶ ")
	fmt.Printf("Providers: %d configured\n", len(cfg.Providers))
	if cfg.WebAdmin.Enabled {
		green.Print("    ▶ ")
		fmt.Printf("Admin:     http://%s/admin\n", cfg.WebAdmin.Addr)
	}
	fmt.Println()

	// Setup graceful shutdown context first - all operations should respect it
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Open persistence and restore state
	persister, err := newPersister(cfg)
	if err != nil {
		return fmt.Errorf("opening snapshot backend: %w", err)
	}
	defer persister.Close()

	convStore := store.NewConversationStore(persister, logger)

	// Access gate
	gate := access.NewGate(cfg.Telegram.AllowedUsernames, cfg.Telegram.AllowedUserIDs)
	if gate.Empty() {
		logger.Warn("allow-list is empty, all messages will be denied")
	}

	// Provider chain
	chain, err := buildChain(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("building provider chain: %w", err)
	}

	// Engine
	eng := engine.New(gate, convStore, chain, engine.Config{
		MaxTokens:       cfg.Engine.MaxTokens,
		GenerateTimeout: cfg.Engine.GenerateTimeout,
		AdminUserID:     cfg.Telegram.AdminUserID,
	}, logger)

	// Web admin
	if cfg.WebAdmin.Enabled {
		admin := webadmin.New(convStore, webadmin.Config{
			Verifier: auth.NewJWTVerifier([]byte(cfg.WebAdmin.JWTSecret)),
			Operator: cfg.WebAdmin.Operator,
			Logger:   logger,
		})
		adminServer := &http.Server{
			Addr:    cfg.WebAdmin.Addr,
			Handler: admin.Routes(),
		}
		go func() {
			logger.Info("web admin listening", "addr", cfg.WebAdmin.Addr)
			if err := adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("web admin failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			_ = adminServer.Shutdown(shutdownCtx)
		}()
	}

	// Telegram bridge
	client := telegram.NewClient(cfg.Telegram.Token, logger)
	cache := dedupe.New(10*time.Minute, 10000)
	defer cache.Close()

	bridge := telegram.NewBridge(client, eng, cache, cfg.Telegram.PollTimeout, logger)

	logger.Info("synapse-relay starting")
	err = bridge.Run(ctx)

	// Final snapshot before exit
	if flushErr := convStore.Flush(); flushErr != nil {
		logger.Error("final snapshot save failed", "error", flushErr)
	}

	return err
}

// newPersister opens the configured snapshot backend.
func newPersister(cfg *config.Config) (store.Persister, error) {
	if snapshotBackend(cfg) == "sqlite" {
		return store.NewSQLitePersister(cfg.Snapshot.Path)
	}
	return store.NewFilePersister(cfg.Snapshot.Path)
}

func snapshotBackend(cfg *config.Config) string {
	if cfg.Snapshot.Backend == "" {
		return "file"
	}
	return cfg.Snapshot.Backend
}

// buildChain assembles the ordered provider chain from configuration.
func buildChain(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*provider.Chain, error) {
	var providers []provider.Provider
	for i, pc := range cfg.Providers {
		switch pc.Kind {
		case "openai":
			client, err := provider.NewOpenAIClient(provider.OpenAIConfig{
				APIKey:  pc.APIKey,
				Model:   pc.Model,
				BaseURL: pc.BaseURL,
				Timeout: pc.Timeout,
			})
			if err != nil {
				return nil, fmt.Errorf("providers[%d]: %w", i, err)
			}
			providers = append(providers, client)
		case "gemini":
			client, err := provider.NewGeminiClient(ctx, provider.GeminiConfig{
				APIKey: pc.APIKey,
				Model:  pc.Model,
			})
			if err != nil {
				return nil, fmt.Errorf("providers[%d]: %w", i, err)
			}
			providers = append(providers, client)
		}
	}
	return provider.NewChain(providers, logger), nil
}

func setupLogger(level, format string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
