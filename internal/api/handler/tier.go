package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/creatorhub_server/internal/api/middleware"
	"github.com/qs3c/creatorhub_server/internal/model/dto"
	"github.com/qs3c/creatorhub_server/internal/pkg/response"
	"github.com/qs3c/creatorhub_server/internal/service"
)

type TierHandler struct {
	tierService *service.TierService
}

func NewTierHandler(tierService *service.TierService) *TierHandler {
	return &TierHandler{
		tierService: tierService,
	}
}

// ListByCreator 创作者的订阅档位
// GET /api/creators/:id/tiers
func (h *TierHandler) ListByCreator(c *gin.Context) {
	creatorID, ok := pathID(c, "id")
	if !ok {
		return
	}
	viewerID, _ := middleware.GetUserID(c)

	items, err := h.tierService.ListByCreator(viewerID, creatorID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.Success(c, items)
}

// Create POST /api/tiers
func (h *TierHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.CreateTierRequest
	if !bindJSON(c, &req) {
		return
	}

	tier, err := h.tierService.Create(userID, &req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.Created(c, tier)
}

// Update PATCH /api/tiers/:id
func (h *TierHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateTierRequest
	if !bindJSON(c, &req) {
		return
	}

	tier, err := h.tierService.Update(userID, id, &req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.Success(c, tier)
}

// Delete 下架
// DELETE /api/tiers/:id
func (h *TierHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.tierService.Deactivate(userID, id); err != nil {
		writeServiceError(c, err)
		return
	}

	response.SuccessWithMessage(c, "已下架", nil)
}
