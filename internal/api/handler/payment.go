package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/creatorhub_server/internal/model"
	"github.com/qs3c/creatorhub_server/internal/model/dto"
	"github.com/qs3c/creatorhub_server/internal/pkg/response"
	"github.com/qs3c/creatorhub_server/internal/service"
)

// Stripe 单个事件不会超过 64KB
const maxWebhookBody = 64 << 10

type PaymentHandler struct {
	paymentService *service.PaymentService
	webhookService *service.WebhookService
	syncService    *service.SyncService
}

func NewPaymentHandler(paymentService *service.PaymentService, webhookService *service.WebhookService, syncService *service.SyncService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		webhookService: webhookService,
		syncService:    syncService,
	}
}

// CreateIntent 为订单创建支付
// POST /api/payments/intents
func (h *PaymentHandler) CreateIntent(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.CreateIntentRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.paymentService.CreateIntent(userID, &req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.Created(c, resp)
}

// Connect 创作者开通收款
// POST /api/payments/connect
func (h *PaymentHandler) Connect(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	resp, err := h.paymentService.Connect(userID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.Success(c, resp)
}

// LastSync 最近一次订阅对账，从未执行过时 data 为 null
// GET /api/payments/sync/last
func (h *PaymentHandler) LastSync(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}

	info, err := h.paymentService.LastSync(model.SyncSourceStripeSubscriptions)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Response{Success: true, Data: info})
}

// TriggerSync 管理员手动触发对账
// POST /api/admin/sync
func (h *PaymentHandler) TriggerSync(c *gin.Context) {
	log, err := h.syncService.Run(c.Request.Context())
	if log == nil {
		writeServiceError(c, err)
		return
	}

	info, lastErr := h.paymentService.LastSync(model.SyncSourceStripeSubscriptions)
	if lastErr != nil {
		writeServiceError(c, lastErr)
		return
	}
	if err != nil {
		response.SuccessWithMessage(c, "对账未完全成功", info)
		return
	}
	response.Success(c, info)
}

// StripeWebhook 接收 Stripe 事件
// POST /api/webhooks/stripe
func (h *PaymentHandler) StripeWebhook(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody)
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, http.StatusRequestEntityTooLarge, response.CodeValidationError, "请求体过大")
			return
		}
		response.ParamError(c, "读取请求体失败")
		return
	}

	duplicate, err := h.webhookService.Receive(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.Success(c, gin.H{"received": true, "duplicate": duplicate})
}
