package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/vivah_server/internal/api/middleware"
	"github.com/qs3c/vivah_server/internal/model/dto"
	"github.com/qs3c/vivah_server/internal/pkg/response"
	"github.com/qs3c/vivah_server/internal/service"
)

type SwipeHandler struct {
	swipeService *service.SwipeService
}

func NewSwipeHandler(swipeService *service.SwipeService) *SwipeHandler {
	return &SwipeHandler{
		swipeService: swipeService,
	}
}

// Swipe 喜欢/跳过/超级喜欢
// POST /api/v1/swipes
func (h *SwipeHandler) Swipe(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.SwipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.swipeService.Swipe(c.Request.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSelfInteraction):
			response.SelfActionError(c, err.Error())
		case errors.Is(err, service.ErrInvalidKind):
			response.ParamError(c, err.Error())
		case errors.Is(err, service.ErrUserNotFound):
			response.NotFoundError(c, err.Error())
		case errors.Is(err, service.ErrRecordFailed):
			// 写入失败，客户端停留在当前卡片
			response.ServerError(c, service.ErrRecordFailed.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	if resp.Matched {
		response.SuccessWithMessage(c, "匹配成功", resp)
		return
	}
	response.Success(c, resp)
}
