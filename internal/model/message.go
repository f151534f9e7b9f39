package model

import (
	"time"
)

type Message struct {
	ID          int64      `gorm:"primaryKey" json:"id"`
	MatchID     int64      `gorm:"not null;index:idx_message_match,priority:1" json:"-"`
	SenderID    int64      `gorm:"not null" json:"sender_id"`
	RecipientID int64      `gorm:"not null;index" json:"recipient_id"`
	Content     string     `gorm:"type:text;not null" json:"content"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
	CreatedAt   time.Time  `gorm:"index:idx_message_match,priority:2" json:"created_at"`
}

func (Message) TableName() string {
	return "messages"
}
