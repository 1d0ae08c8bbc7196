package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"

	"github.com/qs3c/creatorhub_server/config"
)

const defaultAPIBase = "https://api.github.com"

var ErrNotConfigured = errors.New("github oauth is not configured")

type GithubUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
	Name      string `json:"name"`
}

// IDString 用于 profiles.github_id
func (u *GithubUser) IDString() string {
	return strconv.FormatInt(u.ID, 10)
}

// DisplayName 没有昵称时退回登录名
func (u *GithubUser) DisplayName() string {
	if strings.TrimSpace(u.Name) != "" {
		return u.Name
	}
	return u.Login
}

type GithubOAuth struct {
	config  *oauth2.Config
	apiBase string
}

func NewGithubOAuth(cfg *config.GithubOAuthConfig) *GithubOAuth {
	return &GithubOAuth{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		},
		apiBase: defaultAPIBase,
	}
}

// Enabled 是否配置了 client id
func (g *GithubOAuth) Enabled() bool {
	return g != nil && g.config.ClientID != ""
}

// AuthURL 获取 GitHub 授权 URL
func (g *GithubOAuth) AuthURL(state string) string {
	return g.config.AuthCodeURL(state)
}

// FetchUser 用授权码换取 token 并读取用户信息
func (g *GithubOAuth) FetchUser(ctx context.Context, code string) (*GithubUser, error) {
	if !g.Enabled() {
		return nil, ErrNotConfigured
	}

	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	return g.userFromClient(ctx, g.config.Client(ctx, token))
}

func (g *GithubOAuth) userFromClient(ctx context.Context, client *http.Client) (*GithubUser, error) {
	var user GithubUser
	if err := g.getJSON(ctx, client, "/user", &user); err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}

	// 公开邮箱为空时读取主邮箱
	if user.Email == "" {
		var emails []struct {
			Email    string `json:"email"`
			Primary  bool   `json:"primary"`
			Verified bool   `json:"verified"`
		}
		if err := g.getJSON(ctx, client, "/user/emails", &emails); err == nil {
			for _, e := range emails {
				if e.Primary && e.Verified {
					user.Email = e.Email
					break
				}
			}
		}
	}

	return &user, nil
}

func (g *GithubOAuth) getJSON(ctx context.Context, client *http.Client, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.apiBase+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("github api error %d: %s", resp.StatusCode, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
