package model

import (
	"time"
)

const (
	AuditMatchFormed  = "match_formed"
	AuditMatchRevived = "match_revived"
	AuditUnmatch      = "unmatch"
	AuditChatDenied   = "chat_denied"
	AuditPhotoUpload  = "photo_upload"
)

// AuditEvent 审计日志
type AuditEvent struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	ActorID   int64     `gorm:"not null;index" json:"actor_id"`
	Action    string    `gorm:"size:30;not null;index" json:"action"`
	SubjectID int64     `gorm:"index" json:"subject_id"`
	Detail    string    `gorm:"size:500" json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}

func (AuditEvent) TableName() string {
	return "audit_events"
}
