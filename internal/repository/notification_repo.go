package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/vivah_server/internal/model"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

// GetByID 获取接收者自己的通知
func (r *NotificationRepository) GetByID(ctx context.Context, recipientID, id int64) (*model.Notification, error) {
	var n model.Notification
	err := r.db.WithContext(ctx).Where("id = ? AND recipient_id = ?", id, recipientID).First(&n).Error
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// ListByRecipient 按创建时间倒序列出通知，同一时间按插入顺序倒序
func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipientID int64, page, pageSize int) ([]*model.Notification, int64, error) {
	var total int64
	var items []*model.Notification

	query := r.db.WithContext(ctx).Model(&model.Notification{}).Where("recipient_id = ?", recipientID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("created_at DESC").Order("id DESC").Offset(offset).Limit(pageSize).Find(&items).Error
	return items, total, err
}

// MarkRead 标记单条已读，已读的通知不会被再次更新
func (r *NotificationRepository) MarkRead(ctx context.Context, recipientID, id int64, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("id = ? AND recipient_id = ? AND is_read = ?", id, recipientID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": at})
	return result.RowsAffected, result.Error
}

// MarkAllRead 标记全部已读
func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipientID int64, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": at})
	return result.RowsAffected, result.Error
}

func (r *NotificationRepository) CountUnread(ctx context.Context, recipientID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&count).Error
	return count, err
}

// CountByType 统计某类通知数量
func (r *NotificationRepository) CountByType(ctx context.Context, recipientID int64, notificationType string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("recipient_id = ? AND type = ?", recipientID, notificationType).
		Count(&count).Error
	return count, err
}

// CountReadBefore 统计 before 之前创建且已读的通知
func (r *NotificationRepository) CountReadBefore(ctx context.Context, before time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("is_read = ? AND created_at < ?", true, before).
		Count(&count).Error
	return count, err
}

// DeleteReadBefore 删除 before 之前创建且已读的通知，未读通知永远保留
func (r *NotificationRepository) DeleteReadBefore(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("is_read = ? AND created_at < ?", true, before).
		Delete(&model.Notification{})
	return result.RowsAffected, result.Error
}
