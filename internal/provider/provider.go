// ABOUTME: Provider abstraction for language-model backends with ordered fallback
// ABOUTME: Failures surface as explicit errors; the deterministic fallback is the caller's choice

package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"
)

// ErrNoProviders is returned by a Chain constructed with no backends.
var ErrNoProviders = errors.New("no providers configured")

// ProviderError wraps a backend failure with the provider that produced it.
// Callers decide whether to retry, degrade, or surface it; the adapter never
// substitutes content on its own.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Provider generates reply text for a prompt. Implementations must respect
// the context deadline and must not panic on backend failures.
type Provider interface {
	// Generate returns the model's reply for the prompt. maxTokens bounds
	// the response size and must be positive.
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)

	// Name identifies the backend for logging and error attribution.
	Name() string
}

// Chain tries providers in order and returns the first successful reply.
// When every backend fails it returns the joined errors so the caller can
// observe each failure.
type Chain struct {
	providers []Provider
	logger    *slog.Logger
}

// NewChain creates a fallback chain over the given providers, tried in order.
func NewChain(providers []Provider, logger *slog.Logger) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{
		providers: providers,
		logger:    logger.With("component", "provider"),
	}
}

// Generate walks the chain until a provider succeeds. Each failure is logged
// and attributed; a context cancellation stops the walk immediately.
func (c *Chain) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if len(c.providers) == 0 {
		return "", ErrNoProviders
	}
	if maxTokens <= 0 {
		return "", fmt.Errorf("maxTokens must be positive, got %d", maxTokens)
	}

	var errs []error
	for _, p := range c.providers {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}

		text, err := p.Generate(ctx, prompt, maxTokens)
		if err != nil {
			c.logger.Warn("provider failed, trying next",
				"provider", p.Name(),
				"error", err)
			errs = append(errs, &ProviderError{Provider: p.Name(), Err: err})
			continue
		}
		if strings.TrimSpace(text) == "" {
			errs = append(errs, &ProviderError{Provider: p.Name(), Err: errors.New("empty response")})
			continue
		}
		return text, nil
	}

	return "", errors.Join(errs...)
}

// Name implements Provider so a Chain can itself sit inside another chain.
func (c *Chain) Name() string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return "chain(" + strings.Join(names, ",") + ")"
}

// fallbackEchoLimit bounds the echoed portion of the user's text.
const fallbackEchoLimit = 120

// FallbackReply builds the deterministic local reply used when every backend
// has failed: a truncated echo of the user's text. The exact wording is not
// load-bearing; it only has to be non-empty and derived from the input.
func FallbackReply(userText string) string {
	text := strings.TrimSpace(userText)
	if text == "" {
		return "I could not reach the language model. Please try again."
	}
	if utf8.RuneCountInString(text) > fallbackEchoLimit {
		runes := []rune(text)
		text = string(runes[:fallbackEchoLimit]) + "..."
	}
	return fmt.Sprintf("I could not reach the language model right now. You said: %q. Please try again later.", text)
}
