package credentials

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleScope = "https://www.googleapis.com/auth/generative-language"

// RunGoogleOAuth runs the browser consent flow against a loopback callback
// and returns the exchanged token.
func RunGoogleOAuth(ctx context.Context, clientID, clientSecret string) (*oauth2.Token, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("starting local server: %w", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	redirectURL := fmt.Sprintf("http://localhost:%d/callback", port)
	state := uuid.NewString()

	conf := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Scopes:       []string{googleScope},
		Endpoint:     google.Endpoint,
		RedirectURL:  redirectURL,
	}

	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			errCh <- fmt.Errorf("OAuth callback state mismatch")
			return
		}
		code := r.URL.Query().Get("code")
		if code == "" {
			errMsg := r.URL.Query().Get("error")
			if errMsg == "" {
				errMsg = "no authorization code received"
			}
			fmt.Fprintf(w, "<html><body><h2>Authorization failed</h2><p>%s</p><p>You can close this tab.</p></body></html>", errMsg)
			errCh <- fmt.Errorf("OAuth callback error: %s", errMsg)
			return
		}
		fmt.Fprint(w, "<html><body><h2>MediGuide is authorized.</h2><p>You can close this tab and return to the terminal.</p></body></html>")
		codeCh <- code
	})

	server := &http.Server{Handler: mux}

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("local server error: %w", err)
		}
	}()
	defer server.Close()

	authURL := conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	fmt.Fprintf(os.Stderr, "\nOpening browser for Google authorization...\n")
	fmt.Fprintf(os.Stderr, "If the browser doesn't open, visit this URL:\n%s\n\n", authURL)
	openBrowser(authURL)

	var code string
	select {
	case code = <-codeCh:
	case err := <-errCh:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(5 * time.Minute):
		return nil, fmt.Errorf("authorization timed out after 5 minutes")
	}

	token, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging authorization code: %w", err)
	}

	return token, nil
}

// GoogleClient returns an HTTP client that authenticates Gemini calls with
// the stored OAuth2 token, refreshing it as needed.
func GoogleClient(ctx context.Context) (*http.Client, error) {
	creds, err := Load()
	if err != nil {
		return nil, err
	}
	if creds.Google == nil || creds.Google.RefreshToken == "" {
		return nil, fmt.Errorf("no stored Google OAuth token; run 'mediguide auth google'")
	}
	src := &savingTokenSource{
		base: oauth2.ReuseTokenSource(storedToken(creds.Google), googleTokenSource(ctx, creds.Google)),
		last: creds.Google.AccessToken,
	}
	return oauth2.NewClient(ctx, src), nil
}

// savingTokenSource writes refreshed access tokens back to the credentials
// file so the next process starts with a valid token.
type savingTokenSource struct {
	base oauth2.TokenSource

	mu   sync.Mutex
	last string
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken == s.last {
		return tok, nil
	}
	s.last = tok.AccessToken
	if err := saveGoogleToken(tok); err != nil {
		log.Printf("credentials: keeping refreshed token in memory only: %v", err)
	}
	return tok, nil
}

func saveGoogleToken(tok *oauth2.Token) error {
	creds, err := Load()
	if err != nil {
		return err
	}
	if creds.Google == nil {
		creds.Google = &GoogleCredentials{}
	}
	creds.Google.AccessToken = tok.AccessToken
	if tok.RefreshToken != "" {
		creds.Google.RefreshToken = tok.RefreshToken
	}
	creds.Google.TokenExpiry = tok.Expiry.Format(time.RFC3339)
	return Save(creds)
}

func storedToken(creds *GoogleCredentials) *oauth2.Token {
	expiry, _ := time.Parse(time.RFC3339, creds.TokenExpiry)
	return &oauth2.Token{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		Expiry:       expiry,
		TokenType:    "Bearer",
	}
}

func googleTokenSource(ctx context.Context, creds *GoogleCredentials) oauth2.TokenSource {
	conf := &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Scopes:       []string{googleScope},
		Endpoint:     google.Endpoint,
	}
	return conf.TokenSource(ctx, storedToken(creds))
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		cmd = exec.Command("open", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	_ = cmd.Start()
}
