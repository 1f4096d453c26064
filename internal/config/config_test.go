package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Provider != ProviderGoogle {
		t.Errorf("expected default provider %q, got %q", ProviderGoogle, cfg.Provider)
	}
	if cfg.Models.Structured != "gemini-3-pro-preview" {
		t.Errorf("unexpected structured model %q", cfg.Models.Structured)
	}
	if cfg.Models.Pharmacy != "gemini-2.5-flash" {
		t.Errorf("unexpected pharmacy model %q", cfg.Models.Pharmacy)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Accounts.AdminEmail != "admin@nmra.gov.lk" {
		t.Errorf("unexpected admin email %q", cfg.Accounts.AdminEmail)
	}
	if cfg.DBPath() != filepath.Join(".mediguide", "mediguide.db") {
		t.Errorf("unexpected db path %q", cfg.DBPath())
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.mediguide.yml")

	original := DefaultConfig()
	original.Provider = ProviderOpenAI
	original.Models = GetPreset(ProviderOpenAI)
	original.Language = "Sinhala"
	original.Server.Port = 9090
	original.Server.TokenTTL = 24 * time.Hour
	original.History.Enabled = true
	original.Notifications.WebhookURL = "https://hooks.example.com/x"

	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Provider != original.Provider {
		t.Errorf("provider: got %q, want %q", loaded.Provider, original.Provider)
	}
	if loaded.Models != original.Models {
		t.Errorf("models: got %+v, want %+v", loaded.Models, original.Models)
	}
	if loaded.Language != "Sinhala" {
		t.Errorf("language: got %q", loaded.Language)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("port: got %d", loaded.Server.Port)
	}
	if loaded.Server.TokenTTL != 24*time.Hour {
		t.Errorf("token_ttl: got %v", loaded.Server.TokenTTL)
	}
	if !loaded.History.Enabled {
		t.Error("history.enabled lost in round trip")
	}
	if loaded.Notifications.WebhookURL != original.Notifications.WebhookURL {
		t.Errorf("webhook_url: got %q", loaded.Notifications.WebhookURL)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yml"))
	if err != nil {
		t.Fatalf("Load should not fail for missing file: %v", err)
	}
	if cfg.Provider != ProviderGoogle {
		t.Errorf("expected default provider, got %q", cfg.Provider)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yml")

	t.Setenv("MEDIGUIDE_PROVIDER", "openai")
	t.Setenv("MEDIGUIDE_SERVER__PORT", "9000")
	t.Setenv("MEDIGUIDE_DATA_DIR", "/var/lib/mediguide")

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Provider != ProviderOpenAI {
		t.Errorf("env override failed: got %q, want %q", loaded.Provider, ProviderOpenAI)
	}
	if loaded.Models.Structured != "gpt-4o" {
		t.Errorf("expected openai preset, got %+v", loaded.Models)
	}
	if loaded.Server.Port != 9000 {
		t.Errorf("nested override failed: port %d", loaded.Server.Port)
	}
	if loaded.DataDir != "/var/lib/mediguide" {
		t.Errorf("data_dir override failed: %q", loaded.DataDir)
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("MEDIGUIDE_TEST_DOTENV=from-file\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MEDIGUIDE_TEST_DOTENV", "")
	os.Unsetenv("MEDIGUIDE_TEST_DOTENV")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("MEDIGUIDE_TEST_DOTENV"); got != "from-file" {
		t.Errorf("expected value from .env, got %q", got)
	}

	if err := LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Errorf("missing .env should not be an error: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"empty provider", func(c *Config) { c.Provider = "" }, false},
		{"unknown provider", func(c *Config) { c.Provider = "anthropic" }, false},
		{"empty structured model", func(c *Config) { c.Models.Structured = "" }, false},
		{"sinhala code", func(c *Config) { c.Language = "si" }, true},
		{"unknown language", func(c *Config) { c.Language = "Tamil" }, false},
		{"empty data dir", func(c *Config) { c.DataDir = "" }, false},
		{"negative rpm", func(c *Config) { c.RequestsPerMinute = -1 }, false},
		{"temperature too high", func(c *Config) { c.Temperature = 3 }, false},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, false},
		{"negative ttl", func(c *Config) { c.Server.TokenTTL = -time.Second }, false},
		{"missing admin password", func(c *Config) { c.Accounts.AdminPassword = "" }, false},
		{"history with bad provider", func(c *Config) {
			c.History.Enabled = true
			c.History.EmbeddingProvider = "cohere"
		}, false},
		{"bad webhook", func(c *Config) { c.Notifications.WebhookURL = "ftp://x" }, false},
		{"good webhook", func(c *Config) { c.Notifications.WebhookURL = "http://localhost:9000/hook" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestGetPreset(t *testing.T) {
	if p := GetPreset(ProviderOllama); p.Image != "llava" {
		t.Errorf("expected llava image model, got %q", p.Image)
	}
	if p := GetPreset(ProviderOpenAI); p.Pharmacy != "" {
		t.Errorf("openai has no maps grounding, got pharmacy model %q", p.Pharmacy)
	}
	if p := GetPreset("unknown"); p.Structured != "gemini-3-pro-preview" {
		t.Errorf("expected fallback to google preset, got %q", p.Structured)
	}
}

func TestHistoryDir(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.HistoryDir() != filepath.Join(".mediguide", "history") {
		t.Errorf("unexpected default history dir %q", cfg.HistoryDir())
	}
	cfg.History.Dir = "/tmp/h"
	if cfg.HistoryDir() != "/tmp/h" {
		t.Errorf("explicit dir ignored: %q", cfg.HistoryDir())
	}
}

func TestAPIKeyEnvVar(t *testing.T) {
	tests := []struct {
		provider ProviderType
		want     string
	}{
		{ProviderOpenAI, "OPENAI_API_KEY"},
		{ProviderGoogle, "GOOGLE_API_KEY"},
		{ProviderOllama, ""},
	}
	for _, tt := range tests {
		if got := APIKeyEnvVar(tt.provider); got != tt.want {
			t.Errorf("APIKeyEnvVar(%q) = %q, want %q", tt.provider, got, tt.want)
		}
	}
}
