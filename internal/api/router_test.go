package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/vivah_server/config"
	"github.com/qs3c/vivah_server/internal/api/handler"
	"github.com/qs3c/vivah_server/internal/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// 认证失败时请求不会到达处理器，这里只检查路由与中间件
func setupRouter() *gin.Engine {
	cfg := &config.Config{
		JWT: config.JWTConfig{Secret: "router-secret"},
		CORS: config.CORSConfig{
			AllowedOrigins: []string{"http://localhost:3000"},
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE"},
		},
	}
	return NewRouter(
		&handler.SwipeHandler{},
		&handler.ProfileHandler{},
		&handler.MatchHandler{},
		&handler.ChatHandler{},
		&handler.NotificationHandler{},
		&handler.WebSocketHandler{},
		cfg,
	).Setup()
}

func TestRouter_Routes(t *testing.T) {
	engine := setupRouter()

	registered := make(map[string]bool)
	for _, r := range engine.Routes() {
		registered[r.Method+" "+r.Path] = true
	}

	for _, route := range []string{
		"POST /api/v1/swipes",
		"GET /api/v1/profiles/:id",
		"GET /api/v1/discover",
		"GET /api/v1/me/profile",
		"PUT /api/v1/me/profile",
		"GET /api/v1/me/settings",
		"PUT /api/v1/me/settings",
		"POST /api/v1/me/photo",
		"GET /api/v1/matches",
		"GET /api/v1/matches/with/:user_id",
		"DELETE /api/v1/matches/with/:user_id",
		"GET /api/v1/chats/:user_id/access",
		"GET /api/v1/chats/:user_id/messages",
		"POST /api/v1/chats/:user_id/messages",
		"GET /api/v1/notifications",
		"GET /api/v1/notifications/unread-count",
		"POST /api/v1/notifications/read-all",
		"POST /api/v1/notifications/:id/read",
		"GET /api/v1/ws",
		"GET /healthz",
	} {
		assert.True(t, registered[route], route)
	}
}

func TestRouter_RequiresAuth(t *testing.T) {
	engine := setupRouter()

	for _, target := range []string{"/api/v1/matches", "/api/v1/notifications/unread-count", "/api/v1/chats/2/access"} {
		req := httptest.NewRequest("GET", target, nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		var resp response.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, response.CodeAuthFailed, resp.Code, target)
	}
}

func TestRouter_WebSocketRequiresToken(t *testing.T) {
	engine := setupRouter()

	req := httptest.NewRequest("GET", "/api/v1/ws", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_HealthAndPreflight(t *testing.T) {
	engine := setupRouter()

	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest("OPTIONS", "/api/v1/swipes", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}
