package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/qs3c/vivah_server/internal/api/middleware"
	"github.com/qs3c/vivah_server/internal/pkg/ws"
	"github.com/qs3c/vivah_server/internal/service"
)

const wsReadLimit = 4096

// HelloData 连接建立后的第一条消息，客户端据此校准未读数
type HelloData struct {
	UserID int64 `json:"user_id"`
	Unread int64 `json:"unread"`
	Stale  bool  `json:"stale,omitempty"`
}

type WebSocketHandler struct {
	hub           *ws.Hub
	notifications *service.NotificationService
	upgrader      websocket.Upgrader
}

func NewWebSocketHandler(hub *ws.Hub, notifications *service.NotificationService, allowedOrigins []string) *WebSocketHandler {
	return &WebSocketHandler{
		hub:           hub,
		notifications: notifications,
		upgrader: websocket.Upgrader{
			CheckOrigin:     checkOrigin(allowedOrigins),
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// Handle 订阅实时通知，认证由 QueryTokenAuth 完成
// GET /api/v1/ws?token=xxx
func (h *WebSocketHandler) Handle(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade connection: %v", err)
		return
	}
	conn.SetReadLimit(wsReadLimit)

	client := &ws.Client{
		UserID: userID,
		Conn:   conn,
	}
	h.hub.Register(client)

	hello := &HelloData{UserID: userID}
	if h.notifications != nil {
		if unread, err := h.notifications.UnreadCount(c.Request.Context(), userID); err == nil {
			hello.Unread = unread.Count
			hello.Stale = unread.Stale
		}
	}
	if err := client.Send(&ws.Message{Type: ws.TypeHello, Data: hello}); err != nil {
		log.Printf("Failed to send hello to user %d: %v", userID, err)
	}

	// 只读不处理，用于检测断开
	go func() {
		defer func() {
			h.hub.Unregister(client)
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// checkOrigin 非浏览器客户端不带 Origin，直接放行
func checkOrigin(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}
