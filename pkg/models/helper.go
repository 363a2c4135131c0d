package models

import (
	"context"
	"fmt"
	"strings"
)

// NewLLMProvider returns a concrete ChatModel.
func NewLLMProvider(ctx context.Context, provider string, settings Settings) (ChatModel, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "openai":
		return NewOpenAILLM(settings), nil
	case "gemini", "google", "":
		return NewGeminiLLM(ctx, settings)
	case "ollama":
		return NewOllamaLLM(settings)
	case "anthropic", "claude":
		return NewAnthropicLLM(settings), nil
	case "dummy":
		return NewDummyLLM(""), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
}

// KnownProvider reports whether NewLLMProvider understands provider.
func KnownProvider(provider string) bool {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "openai", "gemini", "google", "", "ollama", "anthropic", "claude", "dummy":
		return true
	}
	return false
}
