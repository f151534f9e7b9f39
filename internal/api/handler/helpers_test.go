package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qs3c/vivah_server/config"
	"github.com/qs3c/vivah_server/internal/api/middleware"
	"github.com/qs3c/vivah_server/internal/pkg/queue"
	"github.com/qs3c/vivah_server/internal/pkg/response"
	"github.com/qs3c/vivah_server/internal/pkg/ws"
	"github.com/qs3c/vivah_server/internal/repository"
	"github.com/qs3c/vivah_server/internal/service"
	"github.com/qs3c/vivah_server/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// memoryStorage 内存照片存储
type memoryStorage struct {
	objects map[string][]byte
}

func (m *memoryStorage) UploadPhoto(userID int64, data []byte, ext string) (string, error) {
	if m.objects == nil {
		m.objects = make(map[string][]byte)
	}
	url := "https://cdn.test/photos/" + ext
	m.objects[url] = data
	return url, nil
}

func (m *memoryStorage) DeleteByURL(url string) error {
	delete(m.objects, url)
	return nil
}

// testContext 本地测试上下文
type testContext struct {
	DB  *gorm.DB
	Hub *ws.Hub

	NotificationRepo *repository.NotificationRepository

	Swipes        *SwipeHandler
	Profiles      *ProfileHandler
	Matches       *MatchHandler
	Chats         *ChatHandler
	Notifications *NotificationHandler
	WebSocket     *WebSocketHandler
}

func setupHandlers(t *testing.T) *testContext {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })
	rdb, _ := testutil.SetupTestRedis(t)

	cfg := &config.Config{
		Interaction: config.InteractionConfig{Timezone: "UTC"},
		Discovery:   config.DiscoveryConfig{DefaultPageSize: 20, MaxPageSize: 50},
		OSS:         config.OSSConfig{MaxPhotoSize: 1024},
	}

	hub := ws.NewHub()
	t.Cleanup(hub.CloseAll)

	userRepo := repository.NewUserRepository(db)
	interactionRepo := repository.NewInteractionRepository(db)
	matchRepo := repository.NewMatchRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	audit := service.NewAuditService(repository.NewAuditRepository(db))
	interactions := service.NewInteractionService(interactionRepo, cfg)
	notifications := service.NewNotificationService(notificationRepo, userRepo, hub, rdb, cfg)
	matches := service.NewMatchService(matchRepo, userRepo, audit)
	matchmaker := service.NewMatchmaker(interactionRepo, matchRepo, userRepo, notifications, audit)
	gate := service.NewGateService(matches)
	chat := service.NewChatService(messageRepo, userRepo, gate, notifications, audit)
	profiles := service.NewProfileService(userRepo, interactions, notifications, audit, &memoryStorage{}, cfg)
	swipes := service.NewSwipeService(interactions, matchmaker, matches, userRepo, queue.NewQueue(rdb, "test_match_jobs"))

	return &testContext{
		DB:               db,
		Hub:              hub,
		NotificationRepo: notificationRepo,
		Swipes:           NewSwipeHandler(swipes),
		Profiles:         NewProfileHandler(profiles, cfg.OSS.MaxPhotoSize),
		Matches:          NewMatchHandler(matches),
		Chats:            NewChatHandler(gate, chat),
		Notifications:    NewNotificationHandler(notifications),
		WebSocket:        NewWebSocketHandler(hub, notifications, nil),
	}
}

// breakDB 关闭底层连接，之后所有查询都会失败
func (tc *testContext) breakDB(t *testing.T) {
	t.Helper()
	sqlDB, err := tc.DB.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
}

// mockAuth 模拟认证中间件
func mockAuth(userID int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, userID)
		c.Next()
	}
}

func performRequest(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var resp response.Response
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	return resp
}

// dataMap 取出响应中的 data 对象
func dataMap(t *testing.T, resp response.Response) map[string]interface{} {
	t.Helper()
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok, "data is %T", resp.Data)
	return data
}

// pageItems 取出分页响应中的 items
func pageItems(t *testing.T, resp response.Response) []interface{} {
	t.Helper()
	items, ok := dataMap(t, resp)["items"].([]interface{})
	require.True(t, ok)
	return items
}
