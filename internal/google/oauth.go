package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"

	"github.com/teemow/applytrack/internal/fsutil"
	"github.com/teemow/applytrack/internal/jobs"
)

// Config holds the OAuth client registration and the token cache location.
type Config struct {
	ClientID     string
	ClientSecret string
	// TokenFile defaults to DefaultTokenFile().
	TokenFile string
	// RedirectURL defaults to the out-of-band URN, which makes Google show the
	// authorization code to the user.
	RedirectURL string
}

const oobRedirectURL = "urn:ietf:wg:oauth:2.0:oob"

func (c Config) tokenFile() string {
	if c.TokenFile != "" {
		return c.TokenFile
	}
	return DefaultTokenFile()
}

func (c Config) oauthConfig() *oauth2.Config {
	redirect := c.RedirectURL
	if redirect == "" {
		redirect = oobRedirectURL
	}
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  redirect,
		Scopes:       DefaultOAuthScopes,
	}
}

// DefaultTokenFile returns the default token cache path.
func DefaultTokenFile() string {
	return filepath.Join(userCacheDir(), "applytrack", "google.token")
}

// HasToken reports whether a cached token file exists.
func HasToken(cfg Config) bool {
	_, err := os.Stat(cfg.tokenFile())
	return err == nil
}

// AuthURL returns the URL the user visits to authorize applytrack.
func AuthURL(cfg Config) string {
	return cfg.oauthConfig().AuthCodeURL("state", oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// SaveToken exchanges an authorization code and caches the resulting token.
func SaveToken(ctx context.Context, cfg Config, authCode string) error {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return fmt.Errorf("google client id and secret are required")
	}
	t, err := cfg.oauthConfig().Exchange(ctx, authCode)
	if err != nil {
		return fmt.Errorf("failed to exchange auth code: %w", err)
	}

	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := fsutil.WriteFileAtomic(cfg.tokenFile(), data, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

func loadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var t oauth2.Token
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("invalid token format: %w", err)
	}
	if t.AccessToken == "" && t.RefreshToken == "" {
		return nil, fmt.Errorf("token file holds no credentials")
	}
	return &t, nil
}

// TokenSource returns a refreshing token source for the cached token.
// A missing, malformed or rejected token yields an error wrapping jobs.ErrAuth.
func TokenSource(ctx context.Context, cfg Config) (oauth2.TokenSource, error) {
	t, err := loadToken(cfg.tokenFile())
	if err != nil {
		return nil, fmt.Errorf("%w: no usable Google OAuth token at %s: %v", jobs.ErrAuth, cfg.tokenFile(), err)
	}

	ts := cfg.oauthConfig().TokenSource(ctx, t)
	if _, err := ts.Token(); err != nil {
		return nil, fmt.Errorf("%w: cached token is invalid: %v", jobs.ErrAuth, err)
	}
	return ts, nil
}

// HTTPClient returns an HTTP client that authenticates with the cached token.
// The client is pinned to HTTP/1.1 since some Google endpoints reset long
// lived HTTP/2 streams.
func HTTPClient(ctx context.Context, cfg Config) (*http.Client, error) {
	ts, err := TokenSource(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &http.Client{
		Transport: &oauth2.Transport{
			Source: ts,
			Base:   &http.Transport{ForceAttemptHTTP2: false, Proxy: http.ProxyFromEnvironment},
		},
	}, nil
}

// IsAuthError reports whether err came from rejected or unobtainable
// credentials: an HTTP 401 from a Google API, or a failed token refresh.
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, jobs.ErrAuth) {
		return true
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusUnauthorized {
		return true
	}
	var rerr *oauth2.RetrieveError
	return errors.As(err, &rerr)
}

func userCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return dir
	}
	if runtime.GOOS == "windows" {
		return os.TempDir()
	}
	return filepath.Join(os.Getenv("HOME"), ".cache")
}
