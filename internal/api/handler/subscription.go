package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/creatorhub_server/internal/model"
	"github.com/qs3c/creatorhub_server/internal/model/dto"
	"github.com/qs3c/creatorhub_server/internal/pkg/response"
	"github.com/qs3c/creatorhub_server/internal/service"
)

type SubscriptionHandler struct {
	subscriptionService *service.SubscriptionService
}

func NewSubscriptionHandler(subscriptionService *service.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptionService: subscriptionService,
	}
}

// Checkout 创建订阅支付页
// POST /api/subscriptions/checkout
func (h *SubscriptionHandler) Checkout(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.CheckoutRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.subscriptionService.Checkout(userID, &req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.Created(c, resp)
}

// List GET /api/subscriptions?as=fan|creator
func (h *SubscriptionHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	as := c.DefaultQuery("as", model.RoleFan)
	if as != model.RoleFan && as != model.RoleCreator {
		response.ParamError(c, "as 只能是 fan 或 creator")
		return
	}
	page, pageSize := pagination(c)

	items, total, err := h.subscriptionService.List(userID, as, page, pageSize)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.SuccessPage(c, total, page, pageSize, items)
}

// Cancel POST /api/subscriptions/:id/cancel
func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	sub, err := h.subscriptionService.Cancel(userID, id)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.Success(c, sub)
}
