package service

import (
	"context"
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/vivah_server/internal/model"
	"github.com/qs3c/vivah_server/internal/model/dto"
	"github.com/qs3c/vivah_server/internal/pkg/queue"
	"github.com/qs3c/vivah_server/internal/repository"
)

// MatchJobQueue 匹配重试队列
type MatchJobQueue interface {
	Push(ctx context.Context, job *queue.MatchJob) error
}

// SwipeService 滑动：记录互动，第一次喜欢对方时立即评估是否互相喜欢
type SwipeService struct {
	interactions *InteractionService
	matchmaker   *Matchmaker
	matches      *MatchService
	userRepo     *repository.UserRepository
	retryQueue   MatchJobQueue
}

func NewSwipeService(
	interactions *InteractionService,
	matchmaker *Matchmaker,
	matches *MatchService,
	userRepo *repository.UserRepository,
	retryQueue MatchJobQueue,
) *SwipeService {
	return &SwipeService{
		interactions: interactions,
		matchmaker:   matchmaker,
		matches:      matches,
		userRepo:     userRepo,
		retryQueue:   retryQueue,
	}
}

// Swipe 记录一次滑动。写入失败时返回错误，客户端不应前进到下一张卡片
func (s *SwipeService) Swipe(ctx context.Context, actorID int64, req *dto.SwipeRequest) (*dto.SwipeResponse, error) {
	if req.Kind == model.KindView {
		return nil, ErrInvalidKind
	}
	if actorID == req.TargetID {
		return nil, ErrSelfInteraction
	}

	if _, err := s.userRepo.GetByID(ctx, req.TargetID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	likes := model.IsLikeKind(req.Kind)

	alreadyLiked := false
	if likes {
		liked, err := s.interactions.HasLiked(ctx, actorID, req.TargetID)
		if err != nil {
			log.Printf("Swipe %d -> %d: failed to check previous like: %v", actorID, req.TargetID, err)
		}
		alreadyLiked = liked
	}

	interaction, err := s.interactions.Record(ctx, actorID, req.TargetID, req.Kind)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.TouchLastActive(ctx, actorID, time.Now()); err != nil {
		log.Printf("Failed to update last active for user %d: %v", actorID, err)
	}

	resp := &dto.SwipeResponse{
		InteractionID: interaction.ID,
		Kind:          interaction.Kind,
	}
	if !likes {
		return resp, nil
	}

	// 已匹配时重复喜欢只回读状态；取消匹配后的重新喜欢仍需评估，由 Matchmaker 判断能否恢复
	if alreadyLiked {
		if res, err := s.matches.Resolve(ctx, actorID, req.TargetID); err == nil && res.Matched {
			resp.Matched = true
			resp.MatchID = res.MatchID
			return resp, nil
		}
	}

	match, _, err := s.matchmaker.Evaluate(ctx, actorID, req.TargetID)
	if err != nil {
		log.Printf("Swipe %d -> %d: match evaluation failed, queued for retry: %v", actorID, req.TargetID, err)
		s.enqueueRetry(ctx, actorID, req.TargetID)
		return resp, nil
	}
	if match != nil {
		resp.Matched = true
		resp.MatchID = match.PublicID
	}
	return resp, nil
}

func (s *SwipeService) enqueueRetry(ctx context.Context, actorID, targetID int64) {
	if s.retryQueue == nil {
		return
	}
	job := &queue.MatchJob{ActorID: actorID, TargetID: targetID, Attempt: 1}
	if err := s.retryQueue.Push(ctx, job); err != nil {
		log.Printf("Failed to enqueue match job %d -> %d: %v", actorID, targetID, err)
	}
}
