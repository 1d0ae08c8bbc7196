package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/creatorhub_server/internal/api/middleware"
	"github.com/qs3c/creatorhub_server/internal/model"
	"github.com/qs3c/creatorhub_server/internal/model/dto"
	"github.com/qs3c/creatorhub_server/internal/pkg/response"
	"github.com/qs3c/creatorhub_server/internal/service"
)

type ProfileHandler struct {
	profileService *service.ProfileService
}

func NewProfileHandler(profileService *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
	}
}

// GetMe 当前用户资料
// GET /api/profiles/me
func (h *ProfileHandler) GetMe(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	profile, err := h.profileService.GetMe(userID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.Success(c, profile)
}

// UpdateMe 更新当前用户资料
// PATCH /api/profiles/me
func (h *ProfileHandler) UpdateMe(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	profile, err := h.profileService.UpdateMe(userID, &req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.SuccessWithMessage(c, "更新成功", profile)
}

// UploadAvatar 上传头像
// POST /api/profiles/me/avatar
func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	userID, ok := currentUser(c)
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

	resp, err := h.profileService.UploadAvatar(c.Request.Context(), userID, file.Filename, file.Size, src)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.Success(c, resp)
}

// ListCreators 创作者列表
// GET /api/profiles/creators?q=
func (h *ProfileHandler) ListCreators(c *gin.Context) {
	page, pageSize := pagination(c)

	items, total, err := h.profileService.ListCreators(page, pageSize, strings.TrimSpace(c.Query("q")))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.SuccessPage(c, total, page, pageSize, items)
}

// GetPublic 公开主页
// GET /api/profiles/:handle
func (h *ProfileHandler) GetPublic(c *gin.Context) {
	profile, err := h.profileService.GetPublic(c.Param("handle"))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.Success(c, profile)
}

// AdminList 管理端用户列表
// GET /api/admin/profiles?role=
func (h *ProfileHandler) AdminList(c *gin.Context) {
	role := c.Query("role")
	if role != "" && !model.IsValidRole(role) {
		response.ParamError(c, "无效的角色")
		return
	}
	page, pageSize := pagination(c)

	items, total, err := h.profileService.AdminList(role, page, pageSize)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.SuccessPage(c, total, page, pageSize, items)
}

// AdminUpdate 管理员修改角色、停用状态等
// PATCH /api/admin/profiles/:id
func (h *ProfileHandler) AdminUpdate(c *gin.Context) {
	adminID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.AdminUpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	profile, err := h.profileService.AdminUpdate(adminID, id, &req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	middleware.Logger(c).WithField("profile_id", id).Info("profile updated by admin")
	response.Success(c, profile)
}
