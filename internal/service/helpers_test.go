package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qs3c/vivah_server/config"
	"github.com/qs3c/vivah_server/internal/model"
	"github.com/qs3c/vivah_server/internal/model/dto"
	"github.com/qs3c/vivah_server/internal/pkg/queue"
	"github.com/qs3c/vivah_server/internal/repository"
	"github.com/qs3c/vivah_server/internal/testutil"
)

// fakeNotifier 记录推送，err 不为空时模拟推送失败
type fakeNotifier struct {
	mu    sync.Mutex
	sent  map[int64][]*dto.NotificationItem
	err   error
	calls int
}

func (f *fakeNotifier) Notify(_ context.Context, recipientID int64, item *dto.NotificationItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return f.err
	}
	if f.sent == nil {
		f.sent = make(map[int64][]*dto.NotificationItem)
	}
	f.sent[recipientID] = append(f.sent[recipientID], item)
	return nil
}

func (f *fakeNotifier) count(recipientID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent[recipientID])
}

// fakeStorage 内存照片存储
type fakeStorage struct {
	uploaded []string
	deleted  []string
	err      error
}

func (f *fakeStorage) UploadPhoto(userID int64, data []byte, ext string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	url := "https://cdn.test/photos/" + ext
	f.uploaded = append(f.uploaded, url)
	return url, nil
}

func (f *fakeStorage) DeleteByURL(url string) error {
	f.deleted = append(f.deleted, url)
	return nil
}

type testEnv struct {
	db  *gorm.DB
	rdb *redis.Client
	cfg *config.Config

	notifier *fakeNotifier
	storage  *fakeStorage
	queue    *queue.Queue

	userRepo         *repository.UserRepository
	interactionRepo  *repository.InteractionRepository
	matchRepo        *repository.MatchRepository
	notificationRepo *repository.NotificationRepository
	messageRepo      *repository.MessageRepository
	auditRepo        *repository.AuditRepository

	audit         *AuditService
	interactions  *InteractionService
	notifications *NotificationService
	matches       *MatchService
	matchmaker    *Matchmaker
	gate          *GateService
	chat          *ChatService
	profiles      *ProfileService
	swipes        *SwipeService
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })
	rdb, _ := testutil.SetupTestRedis(t)

	cfg := &config.Config{
		Interaction: config.InteractionConfig{Timezone: "UTC"},
		Discovery:   config.DiscoveryConfig{DefaultPageSize: 20, MaxPageSize: 50},
		OSS:         config.OSSConfig{MaxPhotoSize: 1024},
	}

	env := &testEnv{
		db:       db,
		rdb:      rdb,
		cfg:      cfg,
		notifier: &fakeNotifier{},
		storage:  &fakeStorage{},
		queue:    queue.NewQueue(rdb, "test_match_jobs"),

		userRepo:         repository.NewUserRepository(db),
		interactionRepo:  repository.NewInteractionRepository(db),
		matchRepo:        repository.NewMatchRepository(db),
		notificationRepo: repository.NewNotificationRepository(db),
		messageRepo:      repository.NewMessageRepository(db),
		auditRepo:        repository.NewAuditRepository(db),
	}

	env.audit = NewAuditService(env.auditRepo)
	env.interactions = NewInteractionService(env.interactionRepo, cfg)
	env.notifications = NewNotificationService(env.notificationRepo, env.userRepo, env.notifier, rdb, cfg)
	env.matches = NewMatchService(env.matchRepo, env.userRepo, env.audit)
	env.matchmaker = NewMatchmaker(env.interactionRepo, env.matchRepo, env.userRepo, env.notifications, env.audit)
	env.gate = NewGateService(env.matches)
	env.chat = NewChatService(env.messageRepo, env.userRepo, env.gate, env.notifications, env.audit)
	env.profiles = NewProfileService(env.userRepo, env.interactions, env.notifications, env.audit, env.storage, cfg)
	env.swipes = NewSwipeService(env.interactions, env.matchmaker, env.matches, env.userRepo, env.queue)

	return env
}

// breakDB 关闭底层连接，之后所有查询都会失败
func (e *testEnv) breakDB(t *testing.T) {
	t.Helper()
	sqlDB, err := e.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
}

// like 通过服务记录一次喜欢
func (e *testEnv) like(t *testing.T, actorID, targetID int64) {
	t.Helper()
	_, err := e.interactions.Record(context.Background(), actorID, targetID, model.KindLike)
	require.NoError(t, err)
}

// notificationsOf 按类型统计用户的通知
func (e *testEnv) notificationsOf(t *testing.T, recipientID int64, notificationType string) int64 {
	t.Helper()
	n, err := e.notificationRepo.CountByType(context.Background(), recipientID, notificationType)
	require.NoError(t, err)
	return n
}

var errPushFailed = errors.New("push failed")
