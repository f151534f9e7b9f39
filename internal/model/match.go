package model

import (
	"time"
)

const (
	MatchStatusActive    = "active"
	MatchStatusUnmatched = "unmatched"
)

// Match 两个用户之间的双向关系，按 (较小ID, 较大ID) 规范化存储，每对用户只有一行
type Match struct {
	ID          int64      `gorm:"primaryKey" json:"-"`
	PublicID    string     `gorm:"size:36;uniqueIndex;not null" json:"id"`
	UserLowID   int64      `gorm:"not null;uniqueIndex:uniq_match_pair,priority:1" json:"user_low_id"`
	UserHighID  int64      `gorm:"not null;uniqueIndex:uniq_match_pair,priority:2;index" json:"user_high_id"`
	Status      string     `gorm:"size:20;not null;default:active;index" json:"status"`
	MatchedAt   time.Time  `json:"matched_at"`
	UnmatchedAt *time.Time `json:"unmatched_at,omitempty"`
	UnmatchedBy *int64     `json:"unmatched_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (Match) TableName() string {
	return "matches"
}

// IsActive 是否处于匹配状态
func (m *Match) IsActive() bool {
	return m.Status == MatchStatusActive
}

// Other 返回另一方的用户 ID
func (m *Match) Other(userID int64) int64 {
	if m.UserLowID == userID {
		return m.UserHighID
	}
	return m.UserLowID
}

// Involves 用户是否为匹配的一方
func (m *Match) Involves(userID int64) bool {
	return m.UserLowID == userID || m.UserHighID == userID
}

// CanonicalPair 将无序用户对规范化为 (low, high)
func CanonicalPair(a, b int64) (int64, int64) {
	if a > b {
		return b, a
	}
	return a, b
}
