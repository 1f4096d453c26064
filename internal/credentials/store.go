package credentials

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DirEnv overrides the directory holding credentials.json.
const DirEnv = "MEDIGUIDE_HOME"

// GoogleCredentials stores a Gemini API key and/or OAuth2 tokens.
type GoogleCredentials struct {
	APIKey       string `json:"api_key,omitempty"`
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenExpiry  string `json:"token_expiry,omitempty"`
	ClientID     string `json:"client_id,omitempty"`
	ClientSecret string `json:"client_secret,omitempty"`
}

// APIKeyCredentials stores an API key for a provider.
type APIKeyCredentials struct {
	APIKey string `json:"api_key,omitempty"`
}

// Credentials holds stored credentials for all providers.
type Credentials struct {
	Google *GoogleCredentials `json:"google,omitempty"`
	OpenAI *APIKeyCredentials `json:"openai,omitempty"`
}

// Path returns the credentials file, ~/.mediguide/credentials.json unless
// MEDIGUIDE_HOME points elsewhere.
func Path() (string, error) {
	if dir := os.Getenv(DirEnv); dir != "" {
		return filepath.Join(dir, "credentials.json"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".mediguide", "credentials.json"), nil
}

// Load reads stored credentials. A missing file yields empty credentials.
func Load() (*Credentials, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Credentials{}, nil
		}
		return nil, fmt.Errorf("reading credentials: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("parsing credentials: %w", err)
	}
	return &creds, nil
}

// Save writes credentials with owner-only permissions.
func Save(creds *Credentials) error {
	path, err := Path()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating credentials directory: %w", err)
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling credentials: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}
	return nil
}

// Remove deletes the credentials file if present.
func Remove() error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing credentials: %w", err)
	}
	return nil
}

// APIKey returns the key for provider, preferring the environment
// (GOOGLE_API_KEY, OPENAI_API_KEY) over stored credentials.
func APIKey(provider string) string {
	switch provider {
	case "google":
		if key := os.Getenv("GOOGLE_API_KEY"); key != "" {
			return key
		}
	case "openai":
		if key := os.Getenv("OPENAI_API_KEY"); key != "" {
			return key
		}
	}

	creds, err := Load()
	if err != nil {
		return ""
	}

	switch provider {
	case "google":
		if creds.Google != nil {
			return creds.Google.APIKey
		}
	case "openai":
		if creds.OpenAI != nil {
			return creds.OpenAI.APIKey
		}
	}
	return ""
}

// HasGoogleOAuth reports whether a refreshable Google token is stored.
func HasGoogleOAuth() bool {
	creds, err := Load()
	if err != nil {
		return false
	}
	return creds.Google != nil && creds.Google.RefreshToken != ""
}
