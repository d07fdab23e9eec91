package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"github.com/teemow/applytrack/internal/jobs"
)

func TestHasToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "google.token")
	cfg := Config{TokenFile: path}
	assert.False(t, HasToken(cfg))

	require.NoError(t, os.WriteFile(path, []byte(`{"access_token":"a"}`), 0o600))
	assert.True(t, HasToken(cfg))
}

func TestAuthURL(t *testing.T) {
	u := AuthURL(Config{ClientID: "client-123"})
	assert.Contains(t, u, "client_id=client-123")
	assert.Contains(t, u, "access_type=offline")
	assert.True(t, strings.Contains(u, "gmail.readonly"), "gmail scope requested")
	assert.True(t, strings.Contains(u, "spreadsheets"), "sheets scope requested")
}

func TestTokenSourceWithoutTokenIsAuthError(t *testing.T) {
	cfg := Config{TokenFile: filepath.Join(t.TempDir(), "missing.token")}
	_, err := TokenSource(context.Background(), cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, jobs.ErrAuth)
}

func TestTokenSourceMalformedToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "google.token")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))

	_, err := TokenSource(context.Background(), Config{TokenFile: path})
	assert.ErrorIs(t, err, jobs.ErrAuth)
}

func TestSaveTokenRequiresCredentials(t *testing.T) {
	err := SaveToken(context.Background(), Config{TokenFile: filepath.Join(t.TempDir(), "t")}, "code")
	assert.Error(t, err)
}

func TestIsAuthError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("boom"), false},
		{"sentinel", fmt.Errorf("wrap: %w", jobs.ErrAuth), true},
		{"401", &googleapi.Error{Code: http.StatusUnauthorized}, true},
		{"403", &googleapi.Error{Code: http.StatusForbidden}, false},
		{"refresh failure", fmt.Errorf("get: %w", &oauth2.RetrieveError{ErrorCode: "invalid_grant"}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAuthError(tt.err))
		})
	}
}
