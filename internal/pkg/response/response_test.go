package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) Response {
	var resp Response
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	return resp
}

func serve(handler gin.HandlerFunc, body string) *httptest.ResponseRecorder {
	router := gin.New()
	router.POST("/test", handler)

	req := httptest.NewRequest("POST", "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSuccess(t *testing.T) {
	w := serve(func(c *gin.Context) {
		Success(c, gin.H{"key": "value"})
	}, "")

	assert.Equal(t, http.StatusOK, w.Code)

	resp := parseResponse(t, w)
	assert.True(t, resp.Success)
	assert.Empty(t, resp.Error)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "value", data["key"])
}

func TestSuccess_NilDataOmitted(t *testing.T) {
	w := serve(func(c *gin.Context) {
		Success(c, nil)
	}, "")

	assert.JSONEq(t, `{"success":true}`, w.Body.String())
}

func TestCreated(t *testing.T) {
	w := serve(func(c *gin.Context) {
		Created(c, gin.H{"id": 1})
	}, "")

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, parseResponse(t, w).Success)
}

func TestSuccessPage(t *testing.T) {
	w := serve(func(c *gin.Context) {
		SuccessPage(c, 100, 1, 10, []string{"item1", "item2", "item3"})
	}, "")

	resp := parseResponse(t, w)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(100), data["total"])
	assert.Equal(t, float64(10), data["page_size"])

	items, ok := data["items"].([]interface{})
	require.True(t, ok)
	assert.Len(t, items, 3)
}

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name       string
		call       func(c *gin.Context)
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"auth", func(c *gin.Context) { AuthError(c, "") }, http.StatusUnauthorized, CodeUnauthorized, "认证失败"},
		{"permission", func(c *gin.Context) { PermissionError(c, "只有创作者可以接单") }, http.StatusForbidden, CodeForbidden, "只有创作者可以接单"},
		{"not found", func(c *gin.Context) { NotFoundError(c, "") }, http.StatusNotFound, CodeNotFound, "资源不存在"},
		{"transition", func(c *gin.Context) { TransitionError(c, "") }, http.StatusConflict, CodeInvalidTransition, "当前状态不允许该操作"},
		{"duplicate", func(c *gin.Context) { DuplicateError(c, "") }, http.StatusConflict, CodeConflict, "重复操作"},
		{"rate limited", func(c *gin.Context) { TooManyRequests(c, "") }, http.StatusTooManyRequests, CodeRateLimited, "请求过于频繁"},
		{"unavailable", func(c *gin.Context) { Unavailable(c, "支付未配置") }, http.StatusServiceUnavailable, CodeUnavailable, "支付未配置"},
		{"server", func(c *gin.Context) { ServerError(c, "") }, http.StatusInternalServerError, CodeServerError, "服务器内部错误"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(tt.call, "")
			assert.Equal(t, tt.wantStatus, w.Code)

			resp := parseResponse(t, w)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.wantCode, resp.Error)
			assert.Equal(t, tt.wantMsg, resp.Message)
			assert.Nil(t, resp.Data)
		})
	}
}

func TestParamError_HasErrorsList(t *testing.T) {
	w := serve(func(c *gin.Context) {
		ParamError(c, "无效的订单ID")
	}, "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := parseResponse(t, w)
	assert.Equal(t, []string{"无效的订单ID"}, resp.Errors)
}

type bindTarget struct {
	OrderID   int64  `json:"order_id" binding:"required"`
	Recipient string `json:"recipient" binding:"required,max=5"`
}

func TestValidationError(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		contains []string
	}{
		{"malformed json", `{"order_id": x}`, []string{"body: malformed JSON"}},
		{"truncated json", `{"order_id":`, []string{"body: malformed JSON"}},
		{"wrong type", `{"order_id":"x","recipient":"a"}`, []string{"order_id: expected int64"}},
		{"failed rules", `{"recipient":"too long name"}`, []string{"order_id: failed 'required'", "recipient: failed 'max'"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(func(c *gin.Context) {
				var req bindTarget
				if err := c.ShouldBindJSON(&req); err != nil {
					ValidationError(c, err)
					return
				}
				Success(c, nil)
			}, tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			resp := parseResponse(t, w)
			assert.Equal(t, CodeValidationError, resp.Error)
			require.NotEmpty(t, resp.Errors)

			joined := strings.Join(resp.Errors, "\n")
			for _, want := range tt.contains {
				assert.Contains(t, joined, want)
			}
		})
	}
}

func TestToSnake(t *testing.T) {
	assert.Equal(t, "order_id", toSnake("OrderID"))
	assert.Equal(t, "stripe_account_id", toSnake("StripeAccountID"))
	assert.Equal(t, "price_cents", toSnake("PriceCents"))
}

func TestValidationMessages_PlainError(t *testing.T) {
	assert.Equal(t, []string{"boom"}, ValidationMessages(errors.New("boom")))
	assert.NotEmpty(t, ValidationMessages(nil))
}
