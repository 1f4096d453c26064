package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/mediguide-lk/mediguide/internal/credentials"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage API credentials for AI providers",
	Long: `Store and manage API credentials for AI providers.

Credentials are stored in ~/.mediguide/credentials.json (or under
$MEDIGUIDE_HOME) and used when environment variables are not set.`,
}

var authGoogleAPIKey bool

var authGoogleCmd = &cobra.Command{
	Use:   "google",
	Short: "Authenticate with Google via OAuth2 or store a Gemini API key",
	Long: `Opens your browser for Google OAuth2 authorization, granting access
to the Generative Language API (Gemini). You need an OAuth2 Client ID and
Secret from https://console.cloud.google.com/apis/credentials.

With --api-key, stores a Gemini API key instead.`,
	RunE: runAuthGoogle,
}

var authOpenAICmd = &cobra.Command{
	Use:   "openai",
	Short: "Store OpenAI API key",
	Long: `Store your OpenAI API key for persistent use.

Get your API key at https://platform.openai.com/api-keys`,
	RunE: runAuthOpenAI,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which providers have credentials",
	RunE:  runAuthStatus,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout [provider]",
	Short: "Remove stored credentials",
	Long: `Remove stored credentials for a provider.

If no provider is specified, the credentials file is deleted.
Valid providers: google, openai`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAuthLogout,
}

func init() {
	authGoogleCmd.Flags().BoolVar(&authGoogleAPIKey, "api-key", false, "store a Gemini API key instead of running OAuth")
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authGoogleCmd)
	authCmd.AddCommand(authOpenAICmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authLogoutCmd)
}

// promptSecret asks for a non-empty value, masking input when secret is set.
func promptSecret(label string, secret bool) (string, error) {
	prompt := promptui.Prompt{
		Label: label,
		Validate: func(s string) error {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("%s is required", strings.ToLower(label))
			}
			return nil
		},
	}
	if secret {
		prompt.Mask = '*'
	}
	v, err := prompt.Run()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(v), nil
}

func runAuthGoogle(cmd *cobra.Command, args []string) error {
	creds, err := credentials.Load()
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}
	if creds.Google == nil {
		creds.Google = &credentials.GoogleCredentials{}
	}

	if authGoogleAPIKey {
		key, err := promptSecret("Gemini API key", true)
		if err != nil {
			return err
		}
		creds.Google.APIKey = key
		if err := credentials.Save(creds); err != nil {
			return fmt.Errorf("saving credentials: %w", err)
		}
		fmt.Println("Gemini API key stored.")
		return nil
	}

	clientID := os.Getenv("GOOGLE_CLIENT_ID")
	if clientID == "" {
		if clientID, err = promptSecret("Google OAuth2 Client ID", false); err != nil {
			return err
		}
	}
	clientSecret := os.Getenv("GOOGLE_CLIENT_SECRET")
	if clientSecret == "" {
		if clientSecret, err = promptSecret("Google OAuth2 Client Secret", true); err != nil {
			return err
		}
	}

	token, err := credentials.RunGoogleOAuth(cmd.Context(), clientID, clientSecret)
	if err != nil {
		return fmt.Errorf("OAuth flow failed: %w", err)
	}

	creds.Google.AccessToken = token.AccessToken
	creds.Google.RefreshToken = token.RefreshToken
	creds.Google.TokenExpiry = token.Expiry.Format(time.RFC3339)
	creds.Google.ClientID = clientID
	creds.Google.ClientSecret = clientSecret

	if err := credentials.Save(creds); err != nil {
		return fmt.Errorf("saving credentials: %w", err)
	}
	fmt.Println("Google credentials stored.")
	return nil
}

func runAuthOpenAI(cmd *cobra.Command, args []string) error {
	key, err := promptSecret("OpenAI API key", true)
	if err != nil {
		return err
	}

	creds, err := credentials.Load()
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}
	creds.OpenAI = &credentials.APIKeyCredentials{APIKey: key}

	if err := credentials.Save(creds); err != nil {
		return fmt.Errorf("saving credentials: %w", err)
	}
	fmt.Println("OpenAI credentials stored.")
	return nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	creds, err := credentials.Load()
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	path, _ := credentials.Path()
	fmt.Printf("Credentials file: %s\n\n", path)
	fmt.Println("Provider     Status")
	fmt.Println("--------     ------")

	switch {
	case os.Getenv("GOOGLE_API_KEY") != "":
		fmt.Println("google       configured (env var: API key)")
	case creds.Google != nil && creds.Google.APIKey != "":
		fmt.Println("google       configured (stored: API key)")
	case creds.Google != nil && creds.Google.RefreshToken != "":
		fmt.Println("google       configured (stored: OAuth2)")
	default:
		fmt.Println("google       not configured")
	}

	switch {
	case os.Getenv("OPENAI_API_KEY") != "":
		fmt.Println("openai       configured (env var)")
	case creds.OpenAI != nil && creds.OpenAI.APIKey != "":
		fmt.Println("openai       configured (stored)")
	default:
		fmt.Println("openai       not configured")
	}

	fmt.Println("ollama       available (local)")
	return nil
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		if err := credentials.Remove(); err != nil {
			return err
		}
		fmt.Println("All stored credentials removed.")
		return nil
	}

	creds, err := credentials.Load()
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}
	switch args[0] {
	case "google":
		creds.Google = nil
	case "openai":
		creds.OpenAI = nil
	default:
		return fmt.Errorf("unknown provider %q (valid: google, openai)", args[0])
	}
	if err := credentials.Save(creds); err != nil {
		return err
	}
	fmt.Printf("%s credentials removed.\n", args[0])
	return nil
}
