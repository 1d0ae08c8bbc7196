package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/creatorhub_server/config"
	"github.com/qs3c/creatorhub_server/internal/model/dto"
	"github.com/qs3c/creatorhub_server/internal/pkg/response"
	"github.com/qs3c/creatorhub_server/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
	cfg         *config.Config
}

func NewAuthHandler(authService *service.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cfg:         cfg,
	}
}

// Register 注册
// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.authService.Register(&req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	h.setSession(c, resp.Token)
	response.Created(c, resp)
}

// Login 登录，同时写入会话 cookie
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.authService.Login(&req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	h.setSession(c, resp.Token)
	response.SuccessWithMessage(c, "登录成功", resp)
}

// Logout 清除会话 cookie
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	h.clearSession(c)
	response.SuccessWithMessage(c, "已退出登录", nil)
}

// GithubAuth 跳转到 GitHub 授权页
// GET /api/auth/github?next=/path&role=creator
func (h *AuthHandler) GithubAuth(c *gin.Context) {
	url, err := h.authService.GithubAuthURL(c.Request.Context(), safeNext(c.Query("next")), c.Query("role"))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.Redirect(http.StatusTemporaryRedirect, url)
}

// GithubCallback GitHub 回调
// GET /api/auth/github/callback?code=xxx&state=xxx
func (h *AuthHandler) GithubCallback(c *gin.Context) {
	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" {
		response.ParamError(c, "缺少 code 或 state")
		return
	}

	resp, next, err := h.authService.GithubCallback(c.Request.Context(), code, state)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	h.setSession(c, resp.Token)

	frontend := strings.TrimRight(h.cfg.OAuth.Github.FrontendURL, "/")
	if frontend == "" {
		response.Success(c, resp)
		return
	}
	c.Redirect(http.StatusFound, frontend+safeNext(next))
}

func (h *AuthHandler) setSession(c *gin.Context, token string) {
	name := h.cfg.JWT.CookieName
	if name == "" {
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, token, h.cfg.JWT.ExpireHours*3600, "/", h.cfg.JWT.CookieDomain, h.cfg.JWT.CookieSecure, true)
}

func (h *AuthHandler) clearSession(c *gin.Context) {
	name := h.cfg.JWT.CookieName
	if name == "" {
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, "", -1, "/", h.cfg.JWT.CookieDomain, h.cfg.JWT.CookieSecure, true)
}

// safeNext 只允许站内相对路径
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, "\\") {
		return "/"
	}
	return next
}
