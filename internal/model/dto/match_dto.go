package dto

// MatchStatusResponse 两人之间的匹配状态
type MatchStatusResponse struct {
	Matched bool   `json:"matched"`
	MatchID string `json:"match_id,omitempty"`
}

// MatchItem 匹配列表项
type MatchItem struct {
	MatchID   string       `json:"match_id"`
	MatchedAt string       `json:"matched_at"`
	User      *ProfileCard `json:"user"`
}

// ChatAccessResponse 聊天权限
type ChatAccessResponse struct {
	State   string `json:"state"` // allowed, denied, pending
	Allowed bool   `json:"allowed"`
	MatchID string `json:"match_id,omitempty"`
	Reason  string `json:"reason,omitempty"`
}
