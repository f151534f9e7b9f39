package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/vivah_server/internal/api/middleware"
	"github.com/qs3c/vivah_server/internal/model/dto"
	"github.com/qs3c/vivah_server/internal/pkg/response"
	"github.com/qs3c/vivah_server/internal/service"
)

type MatchHandler struct {
	matchService *service.MatchService
}

func NewMatchHandler(matchService *service.MatchService) *MatchHandler {
	return &MatchHandler{
		matchService: matchService,
	}
}

// With 与某个用户是否互相匹配，以及匹配 ID
// GET /api/v1/matches/with/:user_id
func (h *MatchHandler) With(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	otherID, ok := parseID(c, "user_id")
	if !ok {
		response.ParamError(c, "无效的用户ID")
		return
	}

	res, err := h.matchService.Resolve(c.Request.Context(), userID, otherID)
	if err != nil {
		// 查询失败不能回答“未匹配”
		response.PendingError(c, "", nil)
		return
	}

	response.Success(c, &dto.MatchStatusResponse{
		Matched: res.Matched,
		MatchID: res.MatchID,
	})
}

// List 我的匹配列表
// GET /api/v1/matches
func (h *MatchHandler) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	page, pageSize := pageQuery(c)
	items, total, err := h.matchService.ListMatches(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.SuccessPage(c, total, page, pageSize, items)
}

// Unmatch 取消匹配
// DELETE /api/v1/matches/with/:user_id
func (h *MatchHandler) Unmatch(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	otherID, ok := parseID(c, "user_id")
	if !ok {
		response.ParamError(c, "无效的用户ID")
		return
	}

	if err := h.matchService.Unmatch(c.Request.Context(), userID, otherID); err != nil {
		switch {
		case errors.Is(err, service.ErrMatchNotFound):
			response.NotFoundError(c, err.Error())
		case errors.Is(err, service.ErrResolutionFailed):
			response.PendingError(c, "", nil)
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.SuccessWithMessage(c, "已取消匹配", nil)
}
