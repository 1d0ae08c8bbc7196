package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/creatorhub_server/internal/api/middleware"
	"github.com/qs3c/creatorhub_server/internal/model"
	"github.com/qs3c/creatorhub_server/internal/model/dto"
	"github.com/qs3c/creatorhub_server/internal/pkg/response"
	"github.com/qs3c/creatorhub_server/internal/service"
)

type OrderHandler struct {
	orderService *service.OrderService
}

func NewOrderHandler(orderService *service.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

// Create 粉丝下单
// POST /api/orders
func (h *OrderHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.CreateOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.orderService.Create(userID, &req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.Created(c, order)
}

// List 订单列表
// GET /api/orders?as=fan|creator&status=
func (h *OrderHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	as := c.DefaultQuery("as", model.RoleFan)
	if as != model.RoleFan && as != model.RoleCreator {
		response.ParamError(c, "as 只能是 fan 或 creator")
		return
	}
	status := c.Query("status")
	if status != "" && !model.IsValidOrderStatus(status) {
		response.ParamError(c, "无效的订单状态")
		return
	}
	page, pageSize := pagination(c)

	items, total, err := h.orderService.List(userID, as, status, page, pageSize)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.SuccessPage(c, total, page, pageSize, items)
}

// Get 订单详情
// GET /api/orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	detail, err := h.orderService.Get(userID, middleware.GetRole(c), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.Success(c, detail)
}

// transition 无请求体的状态流转
func (h *OrderHandler) transition(c *gin.Context, fn func(userID, id int64) (*dto.OrderItem, error)) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	order, err := fn(userID, id)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.Success(c, order)
}

// Accept 创作者接单
// POST /api/orders/:id/accept
func (h *OrderHandler) Accept(c *gin.Context) {
	h.transition(c, h.orderService.Accept)
}

// Start 开始录制
// POST /api/orders/:id/start
func (h *OrderHandler) Start(c *gin.Context) {
	h.transition(c, h.orderService.Start)
}

// Complete 交付完成
// POST /api/orders/:id/complete
func (h *OrderHandler) Complete(c *gin.Context) {
	h.transition(c, h.orderService.Complete)
}

// UploadVideo 上传交付视频
// POST /api/orders/:id/video
func (h *OrderHandler) UploadVideo(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		response.ParamError(c, "请选择文件")
		return
	}

	src, err := file.Open()
	if err != nil {
		response.ServerError(c, "")
		return
	}
	defer src.Close()

	order, err := h.orderService.UploadVideo(c.Request.Context(), userID, id, file.Filename, file.Size, src)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.Success(c, order)
}

// Dispute 粉丝发起争议
// POST /api/orders/:id/dispute
func (h *OrderHandler) Dispute(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.DisputeRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.orderService.Dispute(userID, id, &req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.Success(c, order)
}

// Cancel 取消订单，请求体可省略
// POST /api/orders/:id/cancel
func (h *OrderHandler) Cancel(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.CancelRequest
	if c.Request.ContentLength != 0 {
		if !bindJSON(c, &req) {
			return
		}
	}

	order, err := h.orderService.Cancel(userID, id, &req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.Success(c, order)
}

// Resolve 管理员处理争议
// POST /api/admin/orders/:id/resolve
func (h *OrderHandler) Resolve(c *gin.Context) {
	adminID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.ResolveRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.orderService.Resolve(adminID, id, &req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.Success(c, order)
}

// AdminList 管理端订单列表
// GET /api/admin/orders?status=
func (h *OrderHandler) AdminList(c *gin.Context) {
	status := c.Query("status")
	if status != "" && !model.IsValidOrderStatus(status) {
		response.ParamError(c, "无效的订单状态")
		return
	}
	page, pageSize := pagination(c)

	items, total, err := h.orderService.AdminList(status, page, pageSize)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.SuccessPage(c, total, page, pageSize, items)
}
