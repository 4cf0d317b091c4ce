package googletasks_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"taskmirror/internal/backend/googletasks"
	"taskmirror/internal/config"
)

// writeOAuthClient writes an installed-app client whose token endpoint is tokenURL.
func writeOAuthClient(t *testing.T, cfg *config.Config, tokenURL string) {
	t.Helper()
	client := map[string]any{
		"installed": map[string]any{
			"client_id":     "client",
			"client_secret": "secret",
			"auth_uri":      "https://accounts.google.com/o/oauth2/auth",
			"token_uri":     tokenURL,
			"redirect_uris": []string{"http://localhost"},
		},
	}
	data, err := json.Marshal(client)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(cfg.OAuthClientPath(), data, 0600))
}

// tokenServer answers refresh requests with status and counts them.
func tokenServer(t *testing.T, status int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"fresh","token_type":"Bearer","expires_in":3600}`))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func newConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.New(t.TempDir())
	require.NoError(t, err)
	return cfg
}

func expiredToken(refresh string) *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  "stale",
		TokenType:    "Bearer",
		RefreshToken: refresh,
		Expiry:       time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestSaveToken_LoadTokenRoundTrip(t *testing.T) {
	cfg := newConfig(t)
	tok := expiredToken("refresh")

	require.NoError(t, googletasks.SaveToken(cfg.TokenPath(), tok))

	info, err := os.Stat(cfg.TokenPath())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	got, err := googletasks.LoadToken(cfg.TokenPath())
	require.NoError(t, err)
	assert.Equal(t, "refresh", got.RefreshToken)
	assert.True(t, got.Expiry.Equal(tok.Expiry))
}

func TestLoadToken_Errors(t *testing.T) {
	cfg := newConfig(t)

	_, err := googletasks.LoadToken(cfg.TokenPath())
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	require.NoError(t, os.WriteFile(cfg.TokenPath(), []byte("not json"), 0600))
	_, err = googletasks.LoadToken(cfg.TokenPath())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid token.json")
}

func TestOAuthConfig_Errors(t *testing.T) {
	cfg := newConfig(t)

	_, err := googletasks.OAuthConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read oauth_client.json")

	require.NoError(t, os.WriteFile(cfg.OAuthClientPath(), []byte(`{}`), 0600))
	_, err = googletasks.OAuthConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid oauth_client.json")
}

func TestOAuthConfig_UsesTasksScope(t *testing.T) {
	cfg := newConfig(t)
	writeOAuthClient(t, cfg, "http://127.0.0.1/token")

	oc, err := googletasks.OAuthConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{googletasks.TasksScope}, oc.Scopes)
	assert.Equal(t, "http://127.0.0.1/token", oc.Endpoint.TokenURL)
}

func TestTokenValid(t *testing.T) {
	tests := []struct {
		name      string
		refresh   string
		status    int
		want      bool
		wantCalls int32
	}{
		{"refreshes", "refresh", http.StatusOK, true, 1},
		{"revoked", "refresh", http.StatusBadRequest, false, 1},
		{"no refresh token", "", http.StatusOK, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, hits := tokenServer(t, tt.status)
			cfg := newConfig(t)
			writeOAuthClient(t, cfg, srv.URL)
			require.NoError(t, googletasks.SaveToken(cfg.TokenPath(), expiredToken(tt.refresh)))

			assert.Equal(t, tt.want, googletasks.TokenValid(t.Context(), cfg))
			assert.Equal(t, tt.wantCalls, hits.Load())
		})
	}
}

func TestTokenValid_MissingFiles(t *testing.T) {
	cfg := newConfig(t)
	assert.False(t, googletasks.TokenValid(t.Context(), cfg))

	require.NoError(t, googletasks.SaveToken(cfg.TokenPath(), expiredToken("refresh")))
	assert.False(t, googletasks.TokenValid(t.Context(), cfg), "no oauth client")
}
