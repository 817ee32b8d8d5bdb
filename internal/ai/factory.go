package ai

import (
	"fmt"
	"log"
)

// Config holds AI provider configuration
type Config struct {
	Provider ProviderType

	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string

	GeminiAPIKey string
	GeminiModel  string

	OllamaBaseURL string
	OllamaModel   string
}

// NewPlanRequester creates a PlanRequester based on the config.
// Auto picks OpenAI when its key is set, then Gemini, and otherwise
// disables the model so that synthesis falls back to packing.
func NewPlanRequester(cfg Config) (PlanRequester, error) {
	switch cfg.Provider {
	case ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for OpenAI provider")
		}
		return NewOpenAIService(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL), nil

	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required for Gemini provider")
		}
		return NewGeminiService(cfg.GeminiAPIKey, cfg.GeminiModel), nil

	case ProviderOllama:
		return NewOllamaService(cfg.OllamaBaseURL, cfg.OllamaModel), nil

	case ProviderNone:
		return Disabled{}, nil

	default:
		if cfg.OpenAIAPIKey != "" {
			return NewOpenAIService(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL), nil
		}
		if cfg.GeminiAPIKey != "" {
			return NewGeminiService(cfg.GeminiAPIKey, cfg.GeminiModel), nil
		}
		log.Println("[AI] no provider credentials, plans will be packed locally")
		return Disabled{}, nil
	}
}
