package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/creatorhub_server/internal/pkg/response"
	"github.com/qs3c/creatorhub_server/internal/service"
)

type NotificationHandler struct {
	notificationService *service.NotificationService
}

func NewNotificationHandler(notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
	}
}

// Poll 增量拉取通知
// GET /api/notifications?since=<RFC3339>&after_id=&limit=
func (h *NotificationHandler) Poll(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var since *time.Time
	if raw := c.Query("since"); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			response.ParamError(c, "since 必须是 RFC3339 时间")
			return
		}
		since = &t
	}

	var afterID int64
	if raw := c.Query("after_id"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 0 || since == nil {
			response.ParamError(c, "after_id 必须是非负整数且与 since 一起使用")
			return
		}
		afterID = n
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			response.ParamError(c, "limit 必须是正整数")
			return
		}
		limit = n
	}

	resp, err := h.notificationService.Poll(userID, since, afterID, limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.Success(c, resp)
}

// UnreadCount GET /api/notifications/unread-count
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	resp, err := h.notificationService.UnreadCount(userID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.Success(c, resp)
}

// MarkRead POST /api/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.notificationService.MarkRead(userID, id); err != nil {
		writeServiceError(c, err)
		return
	}

	response.SuccessWithMessage(c, "已读", nil)
}

// MarkAllRead POST /api/notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	resp, err := h.notificationService.MarkAllRead(userID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.Success(c, resp)
}
