package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/vivah_server/internal/model"
)

var userSeq int64

// TestUser 创建测试用户
func TestUser(t *testing.T, db *gorm.DB, opts ...func(*model.User)) *model.User {
	t.Helper()

	seq := atomic.AddInt64(&userSeq, 1)
	birth := time.Date(1995, time.June, 15, 0, 0, 0, 0, time.UTC)
	now := time.Now()
	user := &model.User{
		ExternalID:   fmt.Sprintf("ext_%d_%d", seq, time.Now().UnixNano()),
		DisplayName:  fmt.Sprintf("user_%d", seq),
		Gender:       "female",
		BirthDate:    &birth,
		Religion:     "hindu",
		City:         "Pune",
		LookingFor:   "male",
		PrefMinAge:   21,
		PrefMaxAge:   40,
		LastActiveAt: &now,
	}

	for _, opt := range opts {
		opt(user)
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return user
}

// WithName 设置昵称
func WithName(name string) func(*model.User) {
	return func(u *model.User) {
		u.DisplayName = name
	}
}

// WithGender 设置性别
func WithGender(gender string) func(*model.User) {
	return func(u *model.User) {
		u.Gender = gender
	}
}

// WithBirthDate 设置生日
func WithBirthDate(year int, month time.Month, day int) func(*model.User) {
	return func(u *model.User) {
		b := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
		u.BirthDate = &b
	}
}

// WithReligion 设置宗教
func WithReligion(religion string) func(*model.User) {
	return func(u *model.User) {
		u.Religion = religion
	}
}

// WithCity 设置城市
func WithCity(city string) func(*model.User) {
	return func(u *model.User) {
		u.City = city
	}
}

// WithHidden 设置为隐藏资料
func WithHidden() func(*model.User) {
	return func(u *model.User) {
		u.Hidden = true
	}
}

// TestInteraction 创建测试互动
func TestInteraction(t *testing.T, db *gorm.DB, actorID, targetID int64, kind string) *model.Interaction {
	t.Helper()

	interaction := &model.Interaction{
		ActorID:  actorID,
		TargetID: targetID,
		Kind:     kind,
	}

	if err := db.Create(interaction).Error; err != nil {
		t.Fatalf("Failed to create test interaction: %v", err)
	}

	return interaction
}

// TestMatch 创建测试匹配
func TestMatch(t *testing.T, db *gorm.DB, a, b int64, status string) *model.Match {
	t.Helper()

	low, high := model.CanonicalPair(a, b)
	match := &model.Match{
		PublicID:   fmt.Sprintf("match-%d-%d-%d", low, high, time.Now().UnixNano()),
		UserLowID:  low,
		UserHighID: high,
		Status:     status,
		MatchedAt:  time.Now(),
	}
	if status == model.MatchStatusUnmatched {
		now := time.Now()
		match.UnmatchedAt = &now
		match.UnmatchedBy = &a
	}

	if err := db.Create(match).Error; err != nil {
		t.Fatalf("Failed to create test match: %v", err)
	}

	return match
}

// TestNotification 创建测试通知
func TestNotification(t *testing.T, db *gorm.DB, recipientID int64, notificationType string, createdAt time.Time) *model.Notification {
	t.Helper()

	n := &model.Notification{
		RecipientID: recipientID,
		Type:        notificationType,
		Payload:     []byte(`{}`),
		CreatedAt:   createdAt,
	}

	if err := db.Create(n).Error; err != nil {
		t.Fatalf("Failed to create test notification: %v", err)
	}

	return n
}
