package model

import (
	"time"
)

const (
	KindLike      = "like"
	KindPass      = "pass"
	KindSuperlike = "superlike"
	KindView      = "view"
)

// Interaction 用户对另一用户的单向动作，只追加不修改
type Interaction struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	ActorID   int64     `gorm:"not null;index:idx_interaction_pair;uniqueIndex:uniq_interaction_dedup,priority:1" json:"actor_id"`
	TargetID  int64     `gorm:"not null;index:idx_interaction_pair;index;uniqueIndex:uniq_interaction_dedup,priority:2" json:"target_id"`
	Kind      string    `gorm:"size:20;not null;index" json:"kind"` // like, pass, superlike, view
	DedupKey  *string   `gorm:"size:32;uniqueIndex:uniq_interaction_dedup,priority:3" json:"-"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (Interaction) TableName() string {
	return "interactions"
}

// IsLikeKind like 与 superlike 都算作“喜欢”
func IsLikeKind(kind string) bool {
	return kind == KindLike || kind == KindSuperlike
}

// IsValidKind 检查动作类型
func IsValidKind(kind string) bool {
	switch kind {
	case KindLike, KindPass, KindSuperlike, KindView:
		return true
	}
	return false
}
