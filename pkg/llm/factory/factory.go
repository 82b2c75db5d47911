package factory

import (
	"fmt"

	"docuchat-be/pkg/llm"
	"docuchat-be/pkg/llm/gemini"
	"docuchat-be/pkg/llm/ollama"
)

func NewLLMProvider(providerType, modelName, baseURL, geminiAPIKey string) (llm.LLMProvider, error) {
	switch providerType {
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	case "gemini":
		if geminiAPIKey == "" {
			return nil, fmt.Errorf("gemini provider requires an API key")
		}
		return gemini.NewGeminiProvider(geminiAPIKey, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
