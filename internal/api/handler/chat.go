package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/vivah_server/internal/api/middleware"
	"github.com/qs3c/vivah_server/internal/model/dto"
	"github.com/qs3c/vivah_server/internal/pkg/response"
	"github.com/qs3c/vivah_server/internal/service"
)

type ChatHandler struct {
	gate        *service.GateService
	chatService *service.ChatService
}

func NewChatHandler(gate *service.GateService, chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{
		gate:        gate,
		chatService: chatService,
	}
}

// Access 打开会话前的权限检查
// GET /api/v1/chats/:user_id/access
func (h *ChatHandler) Access(c *gin.Context) {
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

	access := h.gate.AuthorizeChat(c.Request.Context(), userID, otherID)
	if access.State == service.ChatPending {
		response.PendingError(c, "", access.DTO())
		return
	}

	// 拒绝也是一个确定的结果，按成功返回，由 state 区分
	response.Success(c, access.DTO())
}

// Send 发送消息
// POST /api/v1/chats/:user_id/messages
func (h *ChatHandler) Send(c *gin.Context) {
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

	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	msg, err := h.chatService.Send(c.Request.Context(), userID, otherID, req.Content)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, msg)
}

// List 会话消息
// GET /api/v1/chats/:user_id/messages
func (h *ChatHandler) List(c *gin.Context) {
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

	page, pageSize := pageQuery(c)
	items, total, err := h.chatService.List(c.Request.Context(), userID, otherID, page, pageSize)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.SuccessPage(c, total, page, pageSize, items)
}

func (h *ChatHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrEmptyMessage):
		response.ParamError(c, err.Error())
	case errors.Is(err, service.ErrChatNotAllowed):
		response.MatchRequiredError(c, err.Error())
	case errors.Is(err, service.ErrChatPending):
		response.PendingError(c, err.Error(), nil)
	default:
		response.ServerError(c, "")
	}
}
