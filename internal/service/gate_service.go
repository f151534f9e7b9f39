package service

import (
	"context"
	"log"

	"github.com/qs3c/vivah_server/internal/model"
	"github.com/qs3c/vivah_server/internal/model/dto"
)

const (
	ChatAllowed = "allowed"
	ChatDenied  = "denied"
	ChatPending = "pending"

	ReasonMatchRequired    = "match_required"
	ReasonResolutionFailed = "resolution_failed"
)

// ChatAccess 聊天权限判定结果
type ChatAccess struct {
	State   string
	MatchID string
	Reason  string
	Match   *model.Match
}

func (a *ChatAccess) Allowed() bool {
	return a.State == ChatAllowed
}

// DTO 转为接口响应
func (a *ChatAccess) DTO() *dto.ChatAccessResponse {
	return &dto.ChatAccessResponse{
		State:   a.State,
		Allowed: a.Allowed(),
		MatchID: a.MatchID,
		Reason:  a.Reason,
	}
}

// GateService 聊天入口的权限检查，每次打开会话和每次发送都要重新判定
type GateService struct {
	matchService *MatchService
}

func NewGateService(matchService *MatchService) *GateService {
	return &GateService{matchService: matchService}
}

// AuthorizeChat 匹配则放行，未匹配则拒绝，无法判定时返回 pending 而不是拒绝
func (s *GateService) AuthorizeChat(ctx context.Context, viewerID, targetID int64) *ChatAccess {
	res, err := s.matchService.Resolve(ctx, viewerID, targetID)
	if err != nil {
		log.Printf("Chat gate %d -> %d pending: %v", viewerID, targetID, err)
		return &ChatAccess{State: ChatPending, Reason: ReasonResolutionFailed}
	}

	if !res.Matched {
		return &ChatAccess{State: ChatDenied, Reason: ReasonMatchRequired}
	}
	return &ChatAccess{State: ChatAllowed, MatchID: res.MatchID, Match: res.Match}
}
