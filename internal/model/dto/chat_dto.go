package dto

import "time"

// SendMessageRequest 发送消息请求
type SendMessageRequest struct {
	Content string `json:"content" binding:"required,min=1,max=2000"`
}

// MessageItem 消息
type MessageItem struct {
	ID          int64      `json:"id"`
	MatchID     string     `json:"match_id"`
	SenderID    int64      `json:"sender_id"`
	RecipientID int64      `json:"recipient_id"`
	Content     string     `json:"content"`
	CreatedAt   time.Time  `json:"created_at"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
}
