package gcal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

var requiredScopes = []string{
	"https://www.googleapis.com/auth/calendar",
}

// Google OAuth endpoints for the device authorization grant.
var googleEndpoint = oauth2.Endpoint{
	DeviceAuthURL: "https://oauth2.googleapis.com/device/code",
	TokenURL:      "https://oauth2.googleapis.com/token",
	AuthStyle:     oauth2.AuthStyleInParams,
}

// Credentials identify the OAuth client. Google requires the secret even
// for the device flow.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// TokenFilePath returns the path of the stored token below base.
func TokenFilePath(base string) string {
	return filepath.Join(base, "auth", "google_tokens.json")
}

// oauth2Config returns the oauth2.Config for the Google Calendar API.
func oauth2Config(creds Credentials) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Scopes:       requiredScopes,
		Endpoint:     googleEndpoint,
	}
}

// loadToken loads a previously saved token. A missing file yields nil, nil.
func loadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading token file: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("corrupt token file (delete %s to re-authenticate): %w", path, err)
	}
	return &tok, nil
}

// saveToken persists a token atomically.
func saveToken(path string, tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating auth directory: %w", err)
	}
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling token: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}
	tmpPath := tmp.Name()
	_, err = tmp.Write(data)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("writing token file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("saving token file: %w", err)
	}
	return nil
}

// Authenticate returns a token for the Calendar API. It uses the saved
// token at tokenPath, refreshes it when expired, or runs the device code
// flow, printing the sign-in instructions to out.
func Authenticate(ctx context.Context, creds Credentials, tokenPath string, out io.Writer, logger *zap.Logger) (*oauth2.Token, *oauth2.Config, error) {
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return nil, nil, ErrNoCredentials
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := oauth2Config(creds)

	tok, err := loadToken(tokenPath)
	if err != nil {
		logger.Warn("ignoring stored token", zap.Error(err))
		tok = nil
	}

	if tok != nil && tok.Valid() {
		return tok, cfg, nil
	}

	if tok != nil && tok.RefreshToken != "" {
		refreshed, err := cfg.TokenSource(ctx, tok).Token()
		if err == nil {
			if err := saveToken(tokenPath, refreshed); err != nil {
				logger.Warn("could not save refreshed token", zap.Error(err))
			}
			return refreshed, cfg, nil
		}
		logger.Info("token refresh failed, re-authenticating", zap.Error(err))
	}

	resp, err := cfg.DeviceAuth(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("device auth request failed: %w", err)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "To sign in, use a web browser to open the page:")
	fmt.Fprintf(out, "  %s\n", resp.VerificationURI)
	fmt.Fprintf(out, "Enter the code: %s\n", resp.UserCode)
	fmt.Fprintln(out)

	newTok, err := cfg.DeviceAccessToken(ctx, resp)
	if err != nil {
		return nil, nil, fmt.Errorf("device authentication failed: %w", err)
	}
	if err := saveToken(tokenPath, newTok); err != nil {
		logger.Warn("could not save token", zap.Error(err))
	}
	return newTok, cfg, nil
}
