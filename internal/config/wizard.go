package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and saves the result
// to path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to MediGuide! Let's configure your assistant.")
	fmt.Println()

	cfg := DefaultConfig()

	providerPrompt := promptui.Select{
		Label: "Select AI provider",
		Items: []string{"google", "openai", "ollama"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	cfg.Provider = ProviderType(providerStr)
	cfg.Models = GetPreset(cfg.Provider)
	cfg.History.EmbeddingProvider = embeddingPresets[cfg.Provider]
	if cfg.Models.Pharmacy == "" {
		fmt.Printf("Note: %s has no maps grounding, pharmacy search will be unavailable.\n\n", cfg.Provider)
	}

	langPrompt := promptui.Select{
		Label: "Default answer language",
		Items: []string{"English", "Sinhala"},
	}
	_, cfg.Language, err = langPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("language selection: %w", err)
	}

	portPrompt := promptui.Prompt{
		Label:   "HTTP port for mediguide serve",
		Default: strconv.Itoa(cfg.Server.Port),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 || n > 65535 {
				return errors.New("enter a port between 1 and 65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Server.Port, _ = strconv.Atoi(portStr)

	historyPrompt := promptui.Prompt{
		Label:     "Keep a searchable history of answers",
		IsConfirm: true,
	}
	if _, err := historyPrompt.Run(); err == nil {
		cfg.History.Enabled = true
	} else if !errors.Is(err, promptui.ErrAbort) {
		return nil, fmt.Errorf("history: %w", err)
	}

	webhookPrompt := promptui.Prompt{
		Label:   "Notification webhook URL (leave blank to skip)",
		Default: "",
	}
	cfg.Notifications.WebhookURL, err = webhookPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("webhook: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if envVar := APIKeyEnvVar(cfg.Provider); envVar != "" && os.Getenv(envVar) == "" {
		fmt.Printf("\nNote: Set %s in your environment (or .env) before running mediguide.\n", envVar)
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}
