package service

import (
	"context"
	"log"

	"github.com/qs3c/vivah_server/internal/model"
	"github.com/qs3c/vivah_server/internal/repository"
)

type AuditService struct {
	auditRepo *repository.AuditRepository
}

func NewAuditService(auditRepo *repository.AuditRepository) *AuditService {
	return &AuditService{auditRepo: auditRepo}
}

// Log 写审计日志，失败只记录日志，不影响调用方
func (s *AuditService) Log(ctx context.Context, actorID int64, action string, subjectID int64, detail string) {
	if s == nil || s.auditRepo == nil {
		return
	}

	event := &model.AuditEvent{
		ActorID:   actorID,
		Action:    action,
		SubjectID: subjectID,
		Detail:    detail,
	}
	if err := s.auditRepo.Create(ctx, event); err != nil {
		log.Printf("Failed to write audit event %s (actor %d, subject %d): %v", action, actorID, subjectID, err)
	}
}

// List 查询某对象的审计记录
func (s *AuditService) List(ctx context.Context, subjectID int64, action string) ([]*model.AuditEvent, error) {
	return s.auditRepo.ListBySubject(ctx, subjectID, action)
}
