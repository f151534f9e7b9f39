package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/qs3c/vivah_server/config"
	"github.com/qs3c/vivah_server/internal/model"
	"github.com/qs3c/vivah_server/internal/repository"
)

var (
	ErrSelfInteraction = errors.New("不能对自己执行该操作")
	ErrInvalidKind     = errors.New("无效的互动类型")
	ErrRecordFailed    = errors.New("互动记录失败")
)

// InteractionService 记录用户之间的单向动作，不在这里判断是否互相喜欢
type InteractionService struct {
	interactionRepo *repository.InteractionRepository
	loc             *time.Location
	now             func() time.Time
}

func NewInteractionService(interactionRepo *repository.InteractionRepository, cfg *config.Config) *InteractionService {
	return &InteractionService{
		interactionRepo: interactionRepo,
		loc:             cfg.Interaction.Location(),
		now:             time.Now,
	}
}

// Record 记录一次互动。对自己的浏览静默忽略，返回 nil, nil
func (s *InteractionService) Record(ctx context.Context, actorID, targetID int64, kind string) (*model.Interaction, error) {
	if !model.IsValidKind(kind) {
		return nil, ErrInvalidKind
	}

	if actorID == targetID {
		if kind == model.KindView {
			return nil, nil
		}
		return nil, ErrSelfInteraction
	}

	if kind == model.KindView {
		interaction, _, err := s.RecordView(ctx, actorID, targetID)
		return interaction, err
	}

	interaction := &model.Interaction{
		ActorID:   actorID,
		TargetID:  targetID,
		Kind:      kind,
		CreatedAt: s.now(),
	}
	if err := s.interactionRepo.Create(ctx, interaction); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecordFailed, err)
	}
	return interaction, nil
}

// RecordView 记录浏览，同一自然日内重复浏览返回已有记录，created 为 false
func (s *InteractionService) RecordView(ctx context.Context, viewerID, targetID int64) (*model.Interaction, bool, error) {
	if viewerID == targetID {
		return nil, false, nil
	}

	now := s.now()
	key := ViewDedupKey(now, s.loc)
	interaction := &model.Interaction{
		ActorID:   viewerID,
		TargetID:  targetID,
		Kind:      model.KindView,
		DedupKey:  &key,
		CreatedAt: now,
	}

	created, err := s.interactionRepo.CreateIfAbsent(ctx, interaction)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrRecordFailed, err)
	}
	if created {
		return interaction, true, nil
	}

	existing, err := s.interactionRepo.GetByDedupKey(ctx, viewerID, targetID, key)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrRecordFailed, err)
	}
	return existing, false, nil
}

// HasLiked actor 是否已经喜欢过 target
func (s *InteractionService) HasLiked(ctx context.Context, actorID, targetID int64) (bool, error) {
	return s.interactionRepo.HasLiked(ctx, actorID, targetID)
}

// ViewDedupKey 浏览去重键，按配置时区的自然日划分
func ViewDedupKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return "view:" + t.In(loc).Format("2006-01-02")
}
