package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/vivah_server/config"
	"github.com/qs3c/vivah_server/internal/api/handler"
	"github.com/qs3c/vivah_server/internal/api/middleware"
)

type Router struct {
	swipeHandler        *handler.SwipeHandler
	profileHandler      *handler.ProfileHandler
	matchHandler        *handler.MatchHandler
	chatHandler         *handler.ChatHandler
	notificationHandler *handler.NotificationHandler
	websocketHandler    *handler.WebSocketHandler
	cfg                 *config.Config
}

func NewRouter(
	swipeHandler *handler.SwipeHandler,
	profileHandler *handler.ProfileHandler,
	matchHandler *handler.MatchHandler,
	chatHandler *handler.ChatHandler,
	notificationHandler *handler.NotificationHandler,
	websocketHandler *handler.WebSocketHandler,
	cfg *config.Config,
) *Router {
	return &Router{
		swipeHandler:        swipeHandler,
		profileHandler:      profileHandler,
		matchHandler:        matchHandler,
		chatHandler:         chatHandler,
		notificationHandler: notificationHandler,
		websocketHandler:    websocketHandler,
		cfg:                 cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	if r.cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS(r.cfg.CORS))

	engine.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	api := engine.Group("/api/v1")
	{
		// WebSocket，令牌在查询参数中
		api.GET("/ws", middleware.QueryTokenAuth(r.cfg.JWT.Secret), r.websocketHandler.Handle)

		authenticated := api.Group("")
		authenticated.Use(middleware.Auth(r.cfg.JWT.Secret))
		{
			// 我的资料
			me := authenticated.Group("/me")
			{
				me.GET("/profile", r.profileHandler.GetMe)
				me.PUT("/profile", r.profileHandler.UpdateMe)
				me.GET("/settings", r.profileHandler.GetSettings)
				me.PUT("/settings", r.profileHandler.UpdateSettings)
				me.POST("/photo", r.profileHandler.UploadPhoto)
			}

			// 发现与浏览
			authenticated.GET("/discover", r.profileHandler.Discover)
			authenticated.GET("/profiles/:id", r.profileHandler.View)

			// 滑动
			authenticated.POST("/swipes", r.swipeHandler.Swipe)

			// 匹配
			matches := authenticated.Group("/matches")
			{
				matches.GET("", r.matchHandler.List)
				matches.GET("/with/:user_id", r.matchHandler.With)
				matches.DELETE("/with/:user_id", r.matchHandler.Unmatch)
			}

			// 聊天
			chats := authenticated.Group("/chats/:user_id")
			{
				chats.GET("/access", r.chatHandler.Access)
				chats.GET("/messages", r.chatHandler.List)
				chats.POST("/messages", r.chatHandler.Send)
			}

			// 通知
			notifications := authenticated.Group("/notifications")
			{
				notifications.GET("", r.notificationHandler.List)
				notifications.GET("/unread-count", r.notificationHandler.UnreadCount)
				notifications.POST("/read-all", r.notificationHandler.MarkAllRead)
				notifications.POST("/:id/read", r.notificationHandler.MarkRead)
			}
		}
	}

	return engine
}
