package llm

import (
	"context"
	"fmt"

	"groq-chatbot/internal/config"
)

// New creates the chat client for the provider named in the config.
func New(ctx context.Context, cfg *config.Config) (Client, error) {
	switch cfg.LLMProvider {
	case "groq":
		return NewGroqClient(cfg.GroqBaseURL, cfg.GroqAPIKey, cfg.GroqModel)
	case "gemini":
		return NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.LLMProvider)
	}
}
