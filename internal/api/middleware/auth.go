package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/creatorhub_server/internal/pkg/jwt"
	"github.com/qs3c/creatorhub_server/internal/pkg/response"
)

const (
	UserIDKey = "userID"
	RoleKey   = "role"
)

// tokenFromRequest 优先读 Authorization 头，其次读会话 cookie
func tokenFromRequest(c *gin.Context, cookieName string) (string, bool) {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader || tokenString == "" {
			return "", false
		}
		return tokenString, true
	}

	if cookieName != "" {
		if cookie, err := c.Cookie(cookieName); err == nil && cookie != "" {
			return cookie, true
		}
	}
	return "", false
}

// Auth JWT 认证中间件
func Auth(jwtSecret, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := tokenFromRequest(c, cookieName)
		if !ok {
			response.AuthError(c, "请提供认证信息")
			return
		}

		claims, err := jwt.ParseToken(tokenString, jwtSecret)
		if err != nil {
			response.AuthError(c, "认证失败或已过期")
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(RoleKey, claims.Role)
		c.Next()
	}
}

// OptionalAuth 可选认证中间件（不强制要求登录）
func OptionalAuth(jwtSecret, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString, ok := tokenFromRequest(c, cookieName); ok {
			if claims, err := jwt.ParseToken(tokenString, jwtSecret); err == nil {
				c.Set(UserIDKey, claims.UserID)
				c.Set(RoleKey, claims.Role)
			}
		}
		c.Next()
	}
}

// RequireRole 必须在 Auth 之后使用
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := GetRole(c)
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		response.PermissionError(c, "")
	}
}

// GetUserID 从上下文获取用户 ID
func GetUserID(c *gin.Context) (int64, bool) {
	userID, exists := c.Get(UserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := userID.(int64)
	return id, ok
}

// GetRole 令牌签发时的角色
func GetRole(c *gin.Context) string {
	return c.GetString(RoleKey)
}
