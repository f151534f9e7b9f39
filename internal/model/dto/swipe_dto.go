package dto

// SwipeRequest 滑动请求
type SwipeRequest struct {
	TargetID int64  `json:"target_id" binding:"required"`
	Kind     string `json:"kind" binding:"required,oneof=like pass superlike"`
}

// SwipeResponse 滑动响应
type SwipeResponse struct {
	InteractionID int64  `json:"interaction_id"`
	Kind          string `json:"kind"`
	Matched       bool   `json:"matched"`
	MatchID       string `json:"match_id,omitempty"`
}
