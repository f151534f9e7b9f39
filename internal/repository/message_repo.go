package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/vivah_server/internal/model"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(ctx context.Context, msg *model.Message) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

// ListByMatch 按时间倒序分页获取会话消息
func (r *MessageRepository) ListByMatch(ctx context.Context, matchID int64, page, pageSize int) ([]*model.Message, int64, error) {
	var total int64
	var messages []*model.Message

	query := r.db.WithContext(ctx).Model(&model.Message{}).Where("match_id = ?", matchID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("created_at DESC").Order("id DESC").Offset(offset).Limit(pageSize).Find(&messages).Error
	return messages, total, err
}

// MarkReadForRecipient 将会话中发给 recipient 的消息标记为已读
func (r *MessageRepository) MarkReadForRecipient(ctx context.Context, matchID, recipientID int64, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.Message{}).
		Where("match_id = ? AND recipient_id = ? AND read_at IS NULL", matchID, recipientID).
		Update("read_at", at).Error
}
