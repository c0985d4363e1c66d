package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/fastdsl/core/internal/config"
	"github.com/fastdsl/core/internal/scheduler"
)

const (
	defaultAnthropicModel     = "claude-sonnet-4-20250514"
	defaultAnthropicMaxTokens = 1024
)

// NewAnthropic builds an executor backed by the Anthropic Messages API.
func NewAnthropic(cfg config.LLMConfig, logger *slog.Logger) (scheduler.Executor, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("anthropic API key cannot be empty")
	}

	model := cfg.ModelName
	if model == "" {
		model = defaultAnthropicModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	client := anthropic.NewClient(option.WithAPIKey(cfg.APIKey))
	log := logger.With("component", "anthropic_executor", "model", model)

	return func(ctx context.Context, prompt, role string) (string, error) {
		params := anthropic.MessageNewParams{
			Model:     anthropic.Model(model),
			MaxTokens: int64(maxTokens),
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
			},
		}
		if system := systemPrompt(role); system != "" {
			params.System = []anthropic.TextBlockParam{{Text: system}}
		}

		resp, err := client.Messages.New(ctx, params)
		if err != nil {
			return "", fmt.Errorf("anthropic request failed: %w", err)
		}

		var sb strings.Builder
		for _, block := range resp.Content {
			if block.Type == "text" {
				sb.WriteString(block.Text)
			}
		}
		if sb.Len() == 0 {
			return "", errors.New("anthropic returned an empty response")
		}

		log.Debug("anthropic call completed", "role", role, "prompt_length", len(prompt))
		return sb.String(), nil
	}, nil
}
