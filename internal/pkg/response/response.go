package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// 错误码定义
const (
	CodeValidationError   = "validation_error"
	CodeUnauthorized      = "unauthorized"
	CodeForbidden         = "forbidden"
	CodeNotFound          = "not_found"
	CodeInvalidTransition = "invalid_transition"
	CodeConflict          = "conflict"
	CodeRateLimited       = "rate_limited"
	CodeUnavailable       = "service_unavailable"
	CodeServerError       = "internal_error"
)

// 错误码对应的默认消息
var codeMessages = map[string]string{
	CodeValidationError:   "参数错误",
	CodeUnauthorized:      "认证失败",
	CodeForbidden:         "权限不足",
	CodeNotFound:          "资源不存在",
	CodeInvalidTransition: "当前状态不允许该操作",
	CodeConflict:          "重复操作",
	CodeRateLimited:       "请求过于频繁",
	CodeUnavailable:       "服务暂不可用",
	CodeServerError:       "服务器内部错误",
}

// Response 统一响应结构
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
	Errors  []string    `json:"errors,omitempty"`
}

// PageData 分页数据结构
type PageData struct {
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
	Items    interface{} `json:"items"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

// SuccessWithMessage 带自定义消息的成功响应
func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Created 创建成功
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    data,
	})
}

// SuccessPage 分页成功响应
func SuccessPage(c *gin.Context, total int64, page, pageSize int, items interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: PageData{
			Total:    total,
			Page:     page,
			PageSize: pageSize,
			Items:    items,
		},
	})
}

// Error 错误响应
func Error(c *gin.Context, status int, code, message string) {
	if message == "" {
		message = codeMessages[code]
	}
	c.AbortWithStatusJSON(status, Response{
		Success: false,
		Error:   code,
		Message: message,
	})
}

// ParamError 参数错误
func ParamError(c *gin.Context, message string) {
	if message == "" {
		message = codeMessages[CodeValidationError]
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, Response{
		Success: false,
		Error:   CodeValidationError,
		Message: message,
		Errors:  []string{message},
	})
}

// ValidationError 绑定或校验失败，返回逐项错误
func ValidationError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, Response{
		Success: false,
		Error:   CodeValidationError,
		Message: codeMessages[CodeValidationError],
		Errors:  ValidationMessages(err),
	})
}

// ValidationMessages 把绑定错误展开成字符串列表
func ValidationMessages(err error) []string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			out = append(out, fmt.Sprintf("%s: failed '%s'", toSnake(fe.Field()), fe.Tag()))
		}
		return out
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return []string{fmt.Sprintf("body: malformed JSON at offset %d", syntaxErr.Offset)}
	}

	if errors.Is(err, io.ErrUnexpectedEOF) {
		return []string{"body: malformed JSON"}
	}
	if errors.Is(err, io.EOF) {
		return []string{"body: empty request body"}
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return []string{fmt.Sprintf("%s: expected %s", typeErr.Field, typeErr.Type.String())}
	}

	if err == nil {
		return []string{codeMessages[CodeValidationError]}
	}
	return []string{err.Error()}
}

// toSnake OrderID -> order_id
func toSnake(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (unicode.IsLower(runes[i-1]) ||
				(i+1 < len(runes) && unicode.IsLower(runes[i+1]) && unicode.IsUpper(runes[i-1]))) {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// AuthError 认证失败
func AuthError(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, CodeUnauthorized, message)
}

// PermissionError 权限不足
func PermissionError(c *gin.Context, message string) {
	Error(c, http.StatusForbidden, CodeForbidden, message)
}

// NotFoundError 资源不存在
func NotFoundError(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, CodeNotFound, message)
}

// TransitionError 状态流转冲突
func TransitionError(c *gin.Context, message string) {
	Error(c, http.StatusConflict, CodeInvalidTransition, message)
}

// DuplicateError 重复操作
func DuplicateError(c *gin.Context, message string) {
	Error(c, http.StatusConflict, CodeConflict, message)
}

// TooManyRequests 限流
func TooManyRequests(c *gin.Context, message string) {
	Error(c, http.StatusTooManyRequests, CodeRateLimited, message)
}

// Unavailable 依赖的外部服务未配置
func Unavailable(c *gin.Context, message string) {
	Error(c, http.StatusServiceUnavailable, CodeUnavailable, message)
}

// ServerError 服务器错误
func ServerError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, CodeServerError, message)
}
