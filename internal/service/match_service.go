package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/vivah_server/internal/model"
	"github.com/qs3c/vivah_server/internal/model/dto"
	"github.com/qs3c/vivah_server/internal/repository"
)

var (
	ErrResolutionFailed = errors.New("匹配状态查询失败")
	ErrMatchNotFound    = errors.New("匹配不存在")
)

// Resolution 两人之间的匹配判定。Matched 为 false 时 MatchID 为空，
// Match 可能是一条已取消的历史匹配
type Resolution struct {
	Matched bool
	MatchID string
	Match   *model.Match
}

type MatchService struct {
	matchRepo *repository.MatchRepository
	userRepo  *repository.UserRepository
	audit     *AuditService
	now       func() time.Time
}

func NewMatchService(
	matchRepo *repository.MatchRepository,
	userRepo *repository.UserRepository,
	audit *AuditService,
) *MatchService {
	return &MatchService{
		matchRepo: matchRepo,
		userRepo:  userRepo,
		audit:     audit,
		now:       time.Now,
	}
}

// Resolve 一次索引查询同时得到是否匹配和匹配 ID，与参数顺序无关。
// 查询失败返回 ErrResolutionFailed，调用方不能把它当作未匹配
func (s *MatchService) Resolve(ctx context.Context, a, b int64) (*Resolution, error) {
	if a == b || a <= 0 || b <= 0 {
		return &Resolution{}, nil
	}

	match, err := s.matchRepo.GetByPair(ctx, a, b)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &Resolution{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrResolutionFailed, err)
	}

	if !match.IsActive() {
		return &Resolution{Match: match}, nil
	}
	return &Resolution{Matched: true, MatchID: match.PublicID, Match: match}, nil
}

// IsMutualMatch 两人是否互相匹配
func (s *MatchService) IsMutualMatch(ctx context.Context, a, b int64) (bool, error) {
	res, err := s.Resolve(ctx, a, b)
	if err != nil {
		return false, err
	}
	return res.Matched, nil
}

// MatchIDFor 返回两人有效匹配的 ID，未匹配时 ok 为 false
func (s *MatchService) MatchIDFor(ctx context.Context, a, b int64) (string, bool, error) {
	res, err := s.Resolve(ctx, a, b)
	if err != nil {
		return "", false, err
	}
	return res.MatchID, res.Matched, nil
}

// Unmatch 取消匹配，重复取消不报错。历史消息保留，之后的聊天由 Gate 拦截
func (s *MatchService) Unmatch(ctx context.Context, actorID, otherID int64) error {
	res, err := s.Resolve(ctx, actorID, otherID)
	if err != nil {
		return err
	}
	if res.Match == nil {
		return ErrMatchNotFound
	}
	if !res.Matched {
		return nil
	}

	changed, err := s.matchRepo.Unmatch(ctx, res.Match.ID, actorID, s.now())
	if err != nil {
		return err
	}
	if changed {
		s.audit.Log(ctx, actorID, model.AuditUnmatch, res.Match.ID, fmt.Sprintf("other=%d", otherID))
	}
	return nil
}

// ListMatches 获取用户当前有效的匹配
func (s *MatchService) ListMatches(ctx context.Context, userID int64, page, pageSize int) ([]*dto.MatchItem, int64, error) {
	page, pageSize = normalizePage(page, pageSize, 20, 100)

	matches, total, err := s.matchRepo.ListActiveByUser(ctx, userID, page, pageSize)
	if err != nil {
		return nil, 0, err
	}

	otherIDs := make([]int64, len(matches))
	for i, m := range matches {
		otherIDs[i] = m.Other(userID)
	}
	users, err := s.userRepo.GetByIDs(ctx, otherIDs)
	if err != nil {
		return nil, 0, err
	}

	now := s.now()
	items := make([]*dto.MatchItem, 0, len(matches))
	for _, m := range matches {
		item := &dto.MatchItem{
			MatchID:   m.PublicID,
			MatchedAt: m.MatchedAt.Format(time.RFC3339),
		}
		if u, ok := users[m.Other(userID)]; ok {
			item.User = toProfileCard(u, now)
		}
		items = append(items, item)
	}
	return items, total, nil
}
