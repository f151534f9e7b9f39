package dto

import (
	"encoding/json"
	"time"
)

// NotificationItem 通知（列表与实时推送共用同一结构，客户端按 ID 去重）
type NotificationItem struct {
	ID        int64           `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	IsRead    bool            `json:"is_read"`
	CreatedAt time.Time       `json:"created_at"`
}

// UnreadCountResponse 未读数，Stale 表示数据库读取失败时返回的缓存值
type UnreadCountResponse struct {
	Count int64 `json:"count"`
	Stale bool  `json:"stale,omitempty"`
}

// MarkAllReadResponse 全部已读响应
type MarkAllReadResponse struct {
	Updated int64 `json:"updated"`
}
