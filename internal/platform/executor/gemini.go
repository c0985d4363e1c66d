package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"github.com/fastdsl/core/internal/config"
	"github.com/fastdsl/core/internal/scheduler"
)

const defaultGeminiModel = "gemini-2.0-flash"

// NewGemini builds an executor backed by Google's Gemini API.
func NewGemini(
	ctx context.Context,
	cfg config.LLMConfig,
	logger *slog.Logger,
) (scheduler.Executor, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini API key cannot be empty")
	}

	model := cfg.ModelName
	if model == "" {
		model = defaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	log := logger.With("component", "gemini_executor", "model", model)

	return func(ctx context.Context, prompt, role string) (string, error) {
		genCfg := &genai.GenerateContentConfig{}
		if system := systemPrompt(role); system != "" {
			genCfg.SystemInstruction = &genai.Content{
				Parts: []*genai.Part{{Text: system}},
			}
		}
		if cfg.MaxTokens > 0 {
			genCfg.MaxOutputTokens = int32(cfg.MaxTokens)
		}

		resp, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), genCfg)
		if err != nil {
			return "", fmt.Errorf("gemini request failed: %w", err)
		}

		text := resp.Text()
		if text == "" {
			return "", errors.New("gemini returned an empty response")
		}

		log.Debug("gemini call completed", "role", role, "prompt_length", len(prompt))
		return text, nil
	}, nil
}
