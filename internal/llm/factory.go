package llm

import (
	"context"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"github.com/mediguide-lk/mediguide/internal/credentials"
)

// NewProvider creates a provider for the given type and default model.
// Supported provider types: "google", "openai", "ollama".
//
// Google uses GOOGLE_API_KEY or a stored key, then falls back to a stored
// OAuth token. OpenAI honours OPENAI_BASE_URL for compatible endpoints.
func NewProvider(ctx context.Context, providerType string, model string) (Provider, error) {
	switch providerType {
	case "google":
		if apiKey := credentials.APIKey("google"); apiKey != "" {
			return NewGoogleProvider(apiKey, model), nil
		}
		if credentials.HasGoogleOAuth() {
			client, err := credentials.GoogleClient(ctx)
			if err != nil {
				return nil, err
			}
			return NewGoogleProviderWithClient(client, model), nil
		}
		return nil, fmt.Errorf("GOOGLE_API_KEY environment variable is not set (or run 'mediguide auth google')")

	case "openai":
		apiKey := credentials.APIKey("openai")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
		}
		cfg := openai.DefaultConfig(apiKey)
		if base := os.Getenv("OPENAI_BASE_URL"); base != "" {
			cfg.BaseURL = base
		}
		return NewOpenAIProviderWithConfig(cfg, model), nil

	case "ollama":
		host := os.Getenv("OLLAMA_HOST")
		if host == "" {
			host = "http://localhost:11434"
		}
		return NewOllamaProvider(host, model), nil

	default:
		return nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}
}
