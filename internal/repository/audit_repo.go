package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/qs3c/vivah_server/internal/model"
)

type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Create(ctx context.Context, event *model.AuditEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// ListBySubject 获取某对象相关的审计记录
func (r *AuditRepository) ListBySubject(ctx context.Context, subjectID int64, action string) ([]*model.AuditEvent, error) {
	var events []*model.AuditEvent
	query := r.db.WithContext(ctx).Where("subject_id = ?", subjectID)
	if action != "" {
		query = query.Where("action = ?", action)
	}
	err := query.Order("id ASC").Find(&events).Error
	return events, err
}
