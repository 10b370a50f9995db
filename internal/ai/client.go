package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/edustack/content-engine/config"
	"github.com/edustack/content-engine/pkg/logger"
)

// Client is a minimal chat-completion interface. Implementations send
// one system+user exchange and return the assistant text.
type Client interface {
	Complete(ctx context.Context, system, user string, maxTokens int, temperature float64) (string, error)
}

// BackendError marks a failure of the completion backend itself.
// Analyzer and Generator absorb it into their deterministic fallbacks;
// it never fails the surrounding operation.
type BackendError struct {
	Provider string
	Err      error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("ai backend %s: %v", e.Provider, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

func NewBackendError(provider, format string, args ...any) *BackendError {
	return &BackendError{Provider: provider, Err: fmt.Errorf(format, args...)}
}

func IsBackendError(err error) bool {
	var be *BackendError
	return errors.As(err, &be)
}

// NewClient builds the configured completion client. A nil return with
// nil error means no backend is configured and callers should run in
// fallback-only mode.
func NewClient(ctx context.Context, cfg *config.AIConfig, log logger.Logger) (Client, error) {
	switch cfg.Provider {
	case config.AIProviderNone, "":
		return nil, nil
	case config.AIProviderOpenAI:
		if cfg.APIKey == "" {
			log.Warn("openai selected without AI_API_KEY, running fallback-only")
			return nil, nil
		}
		return NewOpenAIClient(cfg, log), nil
	case config.AIProviderGemini:
		if cfg.APIKey == "" {
			log.Warn("gemini selected without AI_API_KEY, running fallback-only")
			return nil, nil
		}
		return NewGeminiClient(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.Provider)
	}
}
