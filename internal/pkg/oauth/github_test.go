package oauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/creatorhub_server/config"
)

func testConfig() *config.GithubOAuthConfig {
	return &config.GithubOAuthConfig{
		ClientID:     "test-client-id",
		ClientSecret: "test-secret",
		RedirectURI:  "http://example.com/callback",
	}
}

func TestGithubOAuth_AuthURL(t *testing.T) {
	g := NewGithubOAuth(testConfig())

	url := g.AuthURL("state-with-special-chars_123")

	assert.Contains(t, url, "github.com")
	assert.Contains(t, url, "client_id=test-client-id")
	assert.Contains(t, url, "state=state-with-special-chars_123")
	assert.Contains(t, url, "redirect_uri=")
}

func TestGithubOAuth_Enabled(t *testing.T) {
	assert.True(t, NewGithubOAuth(testConfig()).Enabled())
	assert.False(t, NewGithubOAuth(&config.GithubOAuthConfig{}).Enabled())

	_, err := NewGithubOAuth(&config.GithubOAuthConfig{}).FetchUser(context.Background(), "code")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestGithubUser_Helpers(t *testing.T) {
	u := &GithubUser{ID: 98765, Login: "jsonuser"}
	assert.Equal(t, "98765", u.IDString())
	assert.Equal(t, "jsonuser", u.DisplayName())

	u.Name = "JSON User"
	assert.Equal(t, "JSON User", u.DisplayName())
}

func TestGithubOAuth_UserFromClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/user":
			json.NewEncoder(w).Encode(GithubUser{ID: 555, Login: "mockuser", Name: "Mock User"})
		case "/user/emails":
			json.NewEncoder(w).Encode([]map[string]interface{}{
				{"email": "secondary@example.com", "primary": false, "verified": true},
				{"email": "primary@example.com", "primary": true, "verified": true},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	g := NewGithubOAuth(testConfig())
	g.apiBase = server.URL

	user, err := g.userFromClient(context.Background(), server.Client())
	require.NoError(t, err)
	assert.Equal(t, int64(555), user.ID)
	assert.Equal(t, "primary@example.com", user.Email)
}

func TestGithubOAuth_UserFromClient_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Bad credentials"}`))
	}))
	defer server.Close()

	g := NewGithubOAuth(testConfig())
	g.apiBase = server.URL

	_, err := g.userFromClient(context.Background(), server.Client())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
