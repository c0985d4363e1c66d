package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fastdsl/core/internal/config"
	"github.com/fastdsl/core/internal/scheduler"
)

// ErrUnknownProvider is returned by New for an unrecognized provider name.
var ErrUnknownProvider = errors.New("unknown executor provider")

// Echo returns a deterministic executor that tags the prompt with the
// agent role instead of calling a model. It is the default backend when
// no API key is configured.
func Echo() scheduler.Executor {
	return func(_ context.Context, prompt, role string) (string, error) {
		if role == "" {
			role = "default"
		}
		return fmt.Sprintf("[LLM:%s] %s", role, prompt), nil
	}
}

// New builds the executor selected by cfg.Provider. An empty provider,
// or the "echo" provider, yields the echo backend.
func New(ctx context.Context, cfg config.LLMConfig, logger *slog.Logger) (scheduler.Executor, error) {
	switch cfg.Provider {
	case "", "echo":
		return Echo(), nil
	case "gemini":
		return NewGemini(ctx, cfg, logger)
	case "anthropic":
		return NewAnthropic(cfg, logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}

// systemPrompt renders the agent role as a system instruction for the
// real LLM backends.
func systemPrompt(role string) string {
	if role == "" {
		return ""
	}
	return fmt.Sprintf("You are the %s agent of a city management system. Answer concisely.", role)
}
