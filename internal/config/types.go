package config

import "time"

// ProviderType identifies an LLM provider.
type ProviderType string

const (
	ProviderGoogle ProviderType = "google"
	ProviderOpenAI ProviderType = "openai"
	ProviderOllama ProviderType = "ollama"
)

// Config is the top-level MediGuide configuration, corresponding to .mediguide.yml.
type Config struct {
	Provider          ProviderType        `yaml:"provider" koanf:"provider"`
	Models            ModelsConfig        `yaml:"models" koanf:"models"`
	Language          string              `yaml:"language" koanf:"language"`
	DataDir           string              `yaml:"data_dir" koanf:"data_dir"`
	RequestsPerMinute int                 `yaml:"requests_per_minute" koanf:"requests_per_minute"`
	Temperature       float64             `yaml:"temperature" koanf:"temperature"`
	Server            ServerConfig        `yaml:"server" koanf:"server"`
	Accounts          AccountsConfig      `yaml:"accounts" koanf:"accounts"`
	History           HistoryConfig       `yaml:"history" koanf:"history"`
	Notifications     NotificationsConfig `yaml:"notifications" koanf:"notifications"`
}

// ModelsConfig picks a model per call family.
type ModelsConfig struct {
	Structured string `yaml:"structured" koanf:"structured"`
	Image      string `yaml:"image" koanf:"image"`
	Pharmacy   string `yaml:"pharmacy" koanf:"pharmacy"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port      int           `yaml:"port" koanf:"port"`
	JWTSecret string        `yaml:"jwt_secret" koanf:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl" koanf:"token_ttl"`
}

// AccountsConfig holds the built-in admin and demo logins.
type AccountsConfig struct {
	AdminEmail    string `yaml:"admin_email" koanf:"admin_email"`
	AdminPassword string `yaml:"admin_password" koanf:"admin_password"`
	DemoUser      bool   `yaml:"demo_user" koanf:"demo_user"`
}

// HistoryConfig controls the semantic history index.
type HistoryConfig struct {
	Enabled           bool         `yaml:"enabled" koanf:"enabled"`
	EmbeddingProvider ProviderType `yaml:"embedding_provider" koanf:"embedding_provider"`
	EmbeddingModel    string       `yaml:"embedding_model" koanf:"embedding_model"`
	Dir               string       `yaml:"dir" koanf:"dir"`
}

// NotificationsConfig holds outbound notification settings.
type NotificationsConfig struct {
	WebhookURL string `yaml:"webhook_url" koanf:"webhook_url"`
}
