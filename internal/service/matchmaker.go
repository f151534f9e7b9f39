package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/qs3c/vivah_server/internal/model"
	"github.com/qs3c/vivah_server/internal/repository"
)

// Matchmaker 在两人互相喜欢时创建（或恢复）匹配，并给双方发送 new_match 通知。
// 同一对用户可能被滑动请求、重试队列和定时对账同时评估，
// 唯一索引和条件更新保证只有一个调用方真正完成状态切换并发送通知
type Matchmaker struct {
	interactionRepo *repository.InteractionRepository
	matchRepo       *repository.MatchRepository
	userRepo        *repository.UserRepository
	notifications   *NotificationService
	audit           *AuditService
	now             func() time.Time
}

func NewMatchmaker(
	interactionRepo *repository.InteractionRepository,
	matchRepo *repository.MatchRepository,
	userRepo *repository.UserRepository,
	notifications *NotificationService,
	audit *AuditService,
) *Matchmaker {
	return &Matchmaker{
		interactionRepo: interactionRepo,
		matchRepo:       matchRepo,
		userRepo:        userRepo,
		notifications:   notifications,
		audit:           audit,
		now:             time.Now,
	}
}

// Evaluate 评估一对用户。返回当前有效的匹配（没有则为 nil），
// formed 表示本次调用创建或恢复了匹配
func (m *Matchmaker) Evaluate(ctx context.Context, a, b int64) (match *model.Match, formed bool, err error) {
	if a == b {
		return nil, false, nil
	}

	mutual, err := m.likedEachOther(ctx, a, b, time.Time{})
	if err != nil || !mutual {
		return nil, false, err
	}

	existing, err := m.matchRepo.GetByPair(ctx, a, b)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return m.create(ctx, a, b)
	case err != nil:
		return nil, false, err
	case existing.IsActive():
		return existing, false, nil
	default:
		return m.revive(ctx, existing)
	}
}

// Reconcile 重新评估 since 之后出现的互相喜欢，补上丢失的匹配，返回新建数量
func (m *Matchmaker) Reconcile(ctx context.Context, since time.Time) (int, error) {
	pairs, err := m.interactionRepo.ListMutualLikePairsSince(ctx, since)
	if err != nil {
		return 0, err
	}

	formedCount := 0
	var errs []error
	for _, p := range pairs {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		_, formed, err := m.Evaluate(ctx, p.Low, p.High)
		if err != nil {
			errs = append(errs, fmt.Errorf("pair %d-%d: %w", p.Low, p.High, err))
			continue
		}
		if formed {
			formedCount++
		}
	}
	return formedCount, errors.Join(errs...)
}

func (m *Matchmaker) create(ctx context.Context, a, b int64) (*model.Match, bool, error) {
	low, high := model.CanonicalPair(a, b)
	match := &model.Match{
		PublicID:   uuid.NewString(),
		UserLowID:  low,
		UserHighID: high,
		Status:     model.MatchStatusActive,
		MatchedAt:  m.now(),
	}

	created, err := m.matchRepo.CreateIfAbsent(ctx, match)
	if err != nil {
		return nil, false, err
	}
	if !created {
		// 并发创建时读取胜出的那一行
		current, err := m.matchRepo.GetByPair(ctx, low, high)
		if err != nil {
			return nil, false, err
		}
		if !current.IsActive() {
			return nil, false, nil
		}
		return current, false, nil
	}

	m.announce(ctx, match, model.AuditMatchFormed)
	return match, true, nil
}

// revive 取消匹配后，双方都在取消之后重新喜欢对方才恢复
func (m *Matchmaker) revive(ctx context.Context, match *model.Match) (*model.Match, bool, error) {
	var since time.Time
	if match.UnmatchedAt != nil {
		since = *match.UnmatchedAt
	}

	mutual, err := m.likedEachOther(ctx, match.UserLowID, match.UserHighID, since)
	if err != nil || !mutual {
		return nil, false, err
	}

	revived, err := m.matchRepo.Reactivate(ctx, match.ID, m.now())
	if err != nil {
		return nil, false, err
	}

	current, err := m.matchRepo.GetByPair(ctx, match.UserLowID, match.UserHighID)
	if err != nil {
		return nil, false, err
	}
	if !current.IsActive() {
		return nil, false, nil
	}
	if revived {
		m.announce(ctx, current, model.AuditMatchRevived)
	}
	return current, revived, nil
}

func (m *Matchmaker) likedEachOther(ctx context.Context, a, b int64, since time.Time) (bool, error) {
	aLikes, err := m.interactionRepo.LikedSince(ctx, a, b, since)
	if err != nil || !aLikes {
		return false, err
	}
	return m.interactionRepo.LikedSince(ctx, b, a, since)
}

// announce 给双方发送 new_match 通知并记审计。匹配已经落库，通知失败只记录日志
func (m *Matchmaker) announce(ctx context.Context, match *model.Match, action string) {
	users, err := m.userRepo.GetByIDs(ctx, []int64{match.UserLowID, match.UserHighID})
	if err != nil {
		log.Printf("Match %s: failed to load users for notification: %v", match.PublicID, err)
		users = map[int64]*model.User{}
	}

	for _, recipient := range []int64{match.UserLowID, match.UserHighID} {
		other := match.Other(recipient)
		payload := &NewMatchPayload{MatchID: match.PublicID, UserID: other}
		if u, ok := users[other]; ok {
			payload.DisplayName = u.DisplayName
		}
		if _, err := m.notifications.Append(ctx, recipient, payload); err != nil {
			log.Printf("Match %s: failed to notify user %d: %v", match.PublicID, recipient, err)
		}
	}

	m.audit.Log(ctx, match.UserLowID, action, match.ID, fmt.Sprintf("pair=%d:%d match=%s", match.UserLowID, match.UserHighID, match.PublicID))
}
