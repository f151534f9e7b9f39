package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"github.com/qs3c/vivah_server/config"
	"github.com/qs3c/vivah_server/internal/model"
	"github.com/qs3c/vivah_server/internal/model/dto"
	"github.com/qs3c/vivah_server/internal/repository"
)

var (
	ErrNotificationNotFound = errors.New("通知不存在")
	ErrDeliveryInterrupted  = errors.New("实时推送中断")
	ErrInvalidPayload       = errors.New("无效的通知内容")
)

const unreadCacheKeyPrefix = "notify:unread:"

// Notifier 实时推送通道。pubsub.Publisher（多实例）和 ws.Hub（单实例）都实现了该接口
type Notifier interface {
	Notify(ctx context.Context, recipientID int64, item *dto.NotificationItem) error
}

type NotificationService struct {
	notificationRepo *repository.NotificationRepository
	userRepo         *repository.UserRepository
	notifier         Notifier
	rdb              *redis.Client
	cfg              *config.Config
	now              func() time.Time
}

// NewNotificationService notifier 和 rdb 可以为 nil，分别表示不做实时推送、不缓存未读数
func NewNotificationService(
	notificationRepo *repository.NotificationRepository,
	userRepo *repository.UserRepository,
	notifier Notifier,
	rdb *redis.Client,
	cfg *config.Config,
) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		notifier:         notifier,
		rdb:              rdb,
		cfg:              cfg,
		now:              time.Now,
	}
}

// Append 写入通知后尝试实时推送。推送失败不影响写入结果，列表接口始终是准确来源
func (s *NotificationService) Append(ctx context.Context, recipientID int64, payload NotificationPayload) (*dto.NotificationItem, error) {
	if payload == nil {
		return nil, ErrInvalidPayload
	}
	if err := payload.validate(); err != nil {
		return nil, err
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	n := &model.Notification{
		RecipientID: recipientID,
		Type:        payload.NotificationType(),
		Payload:     data,
		CreatedAt:   s.now(),
	}
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		return nil, err
	}

	item := toNotificationItem(n)

	if s.notifier != nil && s.wantsPush(ctx, recipientID, n.Type) {
		if err := s.notifier.Notify(ctx, recipientID, item); err != nil {
			log.Printf("%v: notification %d to user %d: %v", ErrDeliveryInterrupted, n.ID, recipientID, err)
		}
	}

	return item, nil
}

// List 按时间倒序分页获取通知
func (s *NotificationService) List(ctx context.Context, recipientID int64, page, pageSize int) ([]*dto.NotificationItem, int64, error) {
	page, pageSize = normalizePage(page, pageSize, 20, 100)

	items, total, err := s.notificationRepo.ListByRecipient(ctx, recipientID, page, pageSize)
	if err != nil {
		return nil, 0, err
	}

	result := make([]*dto.NotificationItem, len(items))
	for i, n := range items {
		result[i] = toNotificationItem(n)
	}
	return result, total, nil
}

// MarkRead 标记已读。已读的通知再次标记不报错，不属于自己的通知视为不存在
func (s *NotificationService) MarkRead(ctx context.Context, recipientID, id int64) error {
	updated, err := s.notificationRepo.MarkRead(ctx, recipientID, id, s.now())
	if err != nil {
		return err
	}
	if updated > 0 {
		return nil
	}

	if _, err := s.notificationRepo.GetByID(ctx, recipientID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		return err
	}
	return nil
}

// MarkAllRead 全部标记已读，返回本次变为已读的条数
func (s *NotificationService) MarkAllRead(ctx context.Context, recipientID int64) (int64, error) {
	updated, err := s.notificationRepo.MarkAllRead(ctx, recipientID, s.now())
	if err != nil {
		return 0, err
	}
	s.cacheUnread(ctx, recipientID, 0)
	return updated, nil
}

// UnreadCount 未读数。数据库读取失败时退回到最近一次缓存的值，并标记 Stale
func (s *NotificationService) UnreadCount(ctx context.Context, recipientID int64) (*dto.UnreadCountResponse, error) {
	count, err := s.notificationRepo.CountUnread(ctx, recipientID)
	if err == nil {
		s.cacheUnread(ctx, recipientID, count)
		return &dto.UnreadCountResponse{Count: count}, nil
	}

	if s.rdb != nil {
		cached, cacheErr := s.rdb.Get(ctx, unreadCacheKey(recipientID)).Int64()
		if cacheErr == nil {
			log.Printf("Unread count for user %d served from cache: %v", recipientID, err)
			return &dto.UnreadCountResponse{Count: cached, Stale: true}, nil
		}
	}
	return nil, err
}

func (s *NotificationService) cacheUnread(ctx context.Context, recipientID, count int64) {
	if s.rdb == nil {
		return
	}
	ttl := s.cfg.Notification.UnreadTTL()
	if err := s.rdb.Set(ctx, unreadCacheKey(recipientID), count, ttl).Err(); err != nil {
		log.Printf("Failed to cache unread count for user %d: %v", recipientID, err)
	}
}

// wantsPush 用户关闭某类提醒时只跳过实时推送，通知仍然入库
func (s *NotificationService) wantsPush(ctx context.Context, recipientID int64, notificationType string) bool {
	if s.userRepo == nil {
		return true
	}
	user, err := s.userRepo.GetByID(ctx, recipientID)
	if err != nil {
		return true
	}

	switch notificationType {
	case model.NotificationNewMatch:
		return user.NotifyMatches
	case model.NotificationNewMessage:
		return user.NotifyMessages
	case model.NotificationProfileView:
		return user.NotifyProfileViews
	}
	return true
}

func unreadCacheKey(recipientID int64) string {
	return unreadCacheKeyPrefix + strconv.FormatInt(recipientID, 10)
}

func toNotificationItem(n *model.Notification) *dto.NotificationItem {
	return &dto.NotificationItem{
		ID:        n.ID,
		Type:      n.Type,
		Payload:   json.RawMessage(n.Payload),
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
}

// normalizePage 规范分页参数
func normalizePage(page, pageSize, defaultSize, maxSize int) (int, int) {
	if defaultSize <= 0 {
		defaultSize = 20
	}
	if maxSize <= 0 {
		maxSize = 100
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultSize
	}
	if pageSize > maxSize {
		pageSize = maxSize
	}
	return page, pageSize
}
