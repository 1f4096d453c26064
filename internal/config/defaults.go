package config

import (
	"path/filepath"
	"time"
)

// FileName is the default configuration file.
const FileName = ".mediguide.yml"

// modelPresets maps each provider to its default model per call family.
// An empty pharmacy model means the provider has no maps grounding.
var modelPresets = map[ProviderType]ModelsConfig{
	ProviderGoogle: {
		Structured: "gemini-3-pro-preview",
		Image:      "gemini-3-flash-preview",
		Pharmacy:   "gemini-2.5-flash",
	},
	ProviderOpenAI: {
		Structured: "gpt-4o",
		Image:      "gpt-4o-mini",
	},
	ProviderOllama: {
		Structured: "llama3.1",
		Image:      "llava",
	},
}

// embeddingPresets is the default embedding provider per LLM provider.
var embeddingPresets = map[ProviderType]ProviderType{
	ProviderGoogle: ProviderGoogle,
	ProviderOpenAI: ProviderOpenAI,
	ProviderOllama: ProviderOllama,
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:          ProviderGoogle,
		Models:            GetPreset(ProviderGoogle),
		Language:          "English",
		DataDir:           ".mediguide",
		RequestsPerMinute: 30,
		Temperature:       0.2,
		Server: ServerConfig{
			Port:     8080,
			TokenTTL: 7 * 24 * time.Hour,
		},
		Accounts: AccountsConfig{
			AdminEmail:    "admin@nmra.gov.lk",
			AdminPassword: "admin123",
			DemoUser:      true,
		},
		History: HistoryConfig{
			Enabled:           false,
			EmbeddingProvider: ProviderGoogle,
		},
	}
}

// GetPreset returns the model preset for provider. Unknown providers get
// the Google preset.
func GetPreset(provider ProviderType) ModelsConfig {
	if p, ok := modelPresets[provider]; ok {
		return p
	}
	return modelPresets[ProviderGoogle]
}

// DBPath is the sqlite file inside the data directory.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "mediguide.db")
}

// HistoryDir is where the history index is persisted.
func (c *Config) HistoryDir() string {
	if c.History.Dir != "" {
		return c.History.Dir
	}
	return filepath.Join(c.DataDir, "history")
}
