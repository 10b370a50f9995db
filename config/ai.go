package config

import (
	"os"
	"sync"
)

const (
	AIProviderOpenAI = "openai"
	AIProviderGemini = "gemini"
	AIProviderNone   = "none"
)

var (
	aiOnce   sync.Once
	aiConfig *AIConfig
)

type AIConfig struct {
	Provider       string
	APIKey         string
	BaseURL        string
	Model          string
	TimeoutSeconds int
}

// GetAIConfig configures the completion backend used for analysis and
// study-material generation. With provider "none" every AI step runs
// its deterministic fallback instead.
func GetAIConfig() *AIConfig {
	aiOnce.Do(func() {
		loadEnv()
		aiConfig = &AIConfig{
			Provider:       getenv("AI_PROVIDER", AIProviderNone),
			APIKey:         os.Getenv("AI_API_KEY"),
			BaseURL:        getenv("AI_BASE_URL", "https://api.openai.com/v1"),
			Model:          getenv("AI_MODEL", "gpt-4o-mini"),
			TimeoutSeconds: getenvInt("AI_TIMEOUT_SECONDS", 30),
		}
	})
	return aiConfig
}
