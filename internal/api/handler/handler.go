package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/creatorhub_server/internal/api/middleware"
	"github.com/qs3c/creatorhub_server/internal/pkg/response"
	"github.com/qs3c/creatorhub_server/internal/service"
)

// currentUser 读取调用者身份，缺失时直接写 401
func currentUser(c *gin.Context) (int64, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return 0, false
	}
	return userID, true
}

// pathID 解析路径中的数字 ID
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		response.ParamError(c, "无效的ID")
		return 0, false
	}
	return id, true
}

// bindJSON 绑定失败时返回带 errors 列表的 400
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.ValidationError(c, err)
		return false
	}
	return true
}

func pagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}

// writeServiceError 把服务层错误映射为统一响应
func writeServiceError(c *gin.Context, err error) {
	msg := err.Error()

	switch {
	case errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrProfileNotFound),
		errors.Is(err, service.ErrCreatorNotFound),
		errors.Is(err, service.ErrTierNotFound),
		errors.Is(err, service.ErrSubscriptionNotFound),
		errors.Is(err, service.ErrNotificationNotFound),
		errors.Is(err, service.ErrWebhookNotFound):
		response.NotFoundError(c, msg)

	case errors.Is(err, service.ErrOrderForbidden),
		errors.Is(err, service.ErrNotCreator),
		errors.Is(err, service.ErrOnlyFansCanOrder),
		errors.Is(err, service.ErrCreatorOnlyField),
		errors.Is(err, service.ErrProfileSuspended):
		response.PermissionError(c, msg)

	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrSubscriptionInactive),
		errors.Is(err, service.ErrOrderNotPayable):
		response.TransitionError(c, msg)

	case errors.Is(err, service.ErrEmailExists),
		errors.Is(err, service.ErrUsernameExists),
		errors.Is(err, service.ErrAlreadySubscribed):
		response.DuplicateError(c, msg)

	case errors.Is(err, service.ErrVideoRequired),
		errors.Is(err, service.ErrInvalidVideo),
		errors.Is(err, service.ErrVideoTooLarge),
		errors.Is(err, service.ErrInvalidAvatar),
		errors.Is(err, service.ErrAvatarTooLarge),
		errors.Is(err, service.ErrSelfOrder),
		errors.Is(err, service.ErrCannotSubscribeSelf),
		errors.Is(err, service.ErrCreatorUnavailable),
		errors.Is(err, service.ErrCreatorNotPayable),
		errors.Is(err, service.ErrInvalidSignature),
		errors.Is(err, service.ErrInvalidOAuthState):
		response.ParamError(c, msg)

	case errors.Is(err, service.ErrInvalidCredentials):
		response.AuthError(c, msg)

	case errors.Is(err, service.ErrPaymentsUnavailable),
		errors.Is(err, service.ErrStorageUnavailable),
		errors.Is(err, service.ErrOAuthUnavailable):
		response.Unavailable(c, msg)

	default:
		middleware.Logger(c).WithError(err).
			WithField("path", c.FullPath()).
			Error("request failed")
		response.ServerError(c, "")
	}
}
