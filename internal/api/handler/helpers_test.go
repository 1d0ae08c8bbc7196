package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qs3c/creatorhub_server/config"
	"github.com/qs3c/creatorhub_server/internal/api/middleware"
	"github.com/qs3c/creatorhub_server/internal/pkg/response"
	"github.com/qs3c/creatorhub_server/internal/repository"
	"github.com/qs3c/creatorhub_server/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testContext struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			Secret:      "test-secret-key-for-handlers",
			ExpireHours: 24,
			CookieName:  "session",
		},
		Stripe: config.StripeConfig{
			Currency:           "usd",
			PlatformFeePercent: 20,
		},
		Upload: config.UploadConfig{
			MaxVideoSize:      1024,
			MaxAvatarSize:     512,
			AllowedExtensions: []string{".mp4"},
		},
	}
}

// mockAuth 跳过 JWT，直接注入身份
func mockAuth(userID int64, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, userID)
		c.Set(middleware.RoleKey, role)
		c.Next()
	}
}

func newNotificationService(db *gorm.DB) *service.NotificationService {
	return service.NewNotificationService(
		repository.NewNotificationRepository(db),
		repository.NewProfileRepository(db),
		nil, nil, "",
	)
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var resp response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// performRequest body 为 string 时按原文发送，便于构造非法 JSON
func performRequest(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewBuffer(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func dataMap(t *testing.T, resp response.Response) map[string]interface{} {
	t.Helper()
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok, "data is %T", resp.Data)
	return data
}
