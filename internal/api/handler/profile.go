package handler

import (
	"errors"
	"io"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/vivah_server/internal/api/middleware"
	"github.com/qs3c/vivah_server/internal/model/dto"
	"github.com/qs3c/vivah_server/internal/pkg/response"
	"github.com/qs3c/vivah_server/internal/service"
)

type ProfileHandler struct {
	profileService *service.ProfileService
	maxPhotoSize   int64
}

func NewProfileHandler(profileService *service.ProfileService, maxPhotoSize int64) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		maxPhotoSize:   maxPhotoSize,
	}
}

// GetMe 获取自己的资料
// GET /api/v1/me/profile
func (h *ProfileHandler) GetMe(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	profile, err := h.profileService.GetMe(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, profile)
}

// UpdateMe 更新自己的资料
// PUT /api/v1/me/profile
func (h *ProfileHandler) UpdateMe(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	profile, err := h.profileService.UpdateProfile(c.Request.Context(), userID, &req)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.SuccessWithMessage(c, "更新成功", profile)
}

// GetSettings 获取设置
// GET /api/v1/me/settings
func (h *ProfileHandler) GetSettings(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	settings, err := h.profileService.GetSettings(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, settings)
}

// UpdateSettings 更新设置
// PUT /api/v1/me/settings
func (h *ProfileHandler) UpdateSettings(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	settings, err := h.profileService.UpdateSettings(c.Request.Context(), userID, &req)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.SuccessWithMessage(c, "更新成功", settings)
}

// UploadPhoto 上传资料照片
// POST /api/v1/me/photo
func (h *ProfileHandler) UploadPhoto(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		response.ParamError(c, "请选择文件")
		return
	}

	if h.maxPhotoSize > 0 && file.Size > h.maxPhotoSize {
		response.ParamError(c, service.ErrPhotoTooLarge.Error())
		return
	}

	f, err := file.Open()
	if err != nil {
		response.ServerError(c, "文件读取失败")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		response.ServerError(c, "文件读取失败")
		return
	}

	url, err := h.profileService.UploadPhoto(c.Request.Context(), userID, data, filepath.Ext(file.Filename))
	if err != nil {
		h.fail(c, err)
		return
	}

	response.SuccessWithMessage(c, "上传成功", &dto.PhotoUploadResponse{PhotoURL: url})
}

// View 查看他人资料，当天第一次查看会通知对方
// GET /api/v1/profiles/:id
func (h *ProfileHandler) View(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	targetID, ok := parseID(c, "id")
	if !ok {
		response.ParamError(c, "无效的用户ID")
		return
	}

	card, err := h.profileService.ViewProfile(c.Request.Context(), userID, targetID)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, card)
}

// Discover 发现页
// GET /api/v1/discover
func (h *ProfileHandler) Discover(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.DiscoverRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	cards, total, err := h.profileService.Discover(c.Request.Context(), userID, &req)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.SuccessPage(c, total, req.Page, req.PageSize, cards)
}

func (h *ProfileHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFoundError(c, err.Error())
	case errors.Is(err, service.ErrInvalidBirthDate),
		errors.Is(err, service.ErrUnderage),
		errors.Is(err, service.ErrInvalidAgeRange),
		errors.Is(err, service.ErrPhotoTooLarge),
		errors.Is(err, service.ErrPhotoType):
		response.ParamError(c, err.Error())
	case errors.Is(err, service.ErrStorageUnavailable):
		response.ServerError(c, err.Error())
	default:
		response.ServerError(c, "")
	}
}
