package model

import (
	"time"

	"gorm.io/datatypes"
)

const (
	NotificationNewMatch    = "new_match"
	NotificationNewMessage  = "new_message"
	NotificationProfileView = "profile_view"
)

// Notification 用户通知。创建后只有已读标记可以从 false 变为 true
type Notification struct {
	ID          int64          `gorm:"primaryKey" json:"id"`
	RecipientID int64          `gorm:"not null;index:idx_notification_feed,priority:1" json:"recipient_id"`
	Type        string         `gorm:"size:20;not null" json:"type"`
	Payload     datatypes.JSON `json:"payload"`
	IsRead      bool           `gorm:"default:false;index" json:"is_read"`
	ReadAt      *time.Time     `json:"read_at,omitempty"`
	CreatedAt   time.Time      `gorm:"index:idx_notification_feed,priority:2" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
