package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/qs3c/vivah_server/internal/model"
	"github.com/qs3c/vivah_server/internal/model/dto"
	"github.com/qs3c/vivah_server/internal/repository"
)

var (
	ErrChatNotAllowed = errors.New("互相匹配后才能聊天")
	ErrChatPending    = errors.New("暂时无法确认匹配状态，请稍后重试")
	ErrEmptyMessage   = errors.New("消息内容不能为空")
)

const previewRunes = 80

type ChatService struct {
	messageRepo   *repository.MessageRepository
	userRepo      *repository.UserRepository
	gate          *GateService
	notifications *NotificationService
	audit         *AuditService
	now           func() time.Time
}

func NewChatService(
	messageRepo *repository.MessageRepository,
	userRepo *repository.UserRepository,
	gate *GateService,
	notifications *NotificationService,
	audit *AuditService,
) *ChatService {
	return &ChatService{
		messageRepo:   messageRepo,
		userRepo:      userRepo,
		gate:          gate,
		notifications: notifications,
		audit:         audit,
		now:           time.Now,
	}
}

// Send 发送消息，每次发送都重新经过 Gate 判定
func (s *ChatService) Send(ctx context.Context, senderID, recipientID int64, content string) (*dto.MessageItem, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}

	access, err := s.authorize(ctx, senderID, recipientID)
	if err != nil {
		if errors.Is(err, ErrChatNotAllowed) {
			s.audit.Log(ctx, senderID, model.AuditChatDenied, recipientID, access.Reason)
		}
		return nil, err
	}

	msg := &model.Message{
		MatchID:     access.Match.ID,
		SenderID:    senderID,
		RecipientID: recipientID,
		Content:     content,
		CreatedAt:   s.now(),
	}
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, err
	}

	payload := &NewMessagePayload{
		MatchID:   access.MatchID,
		MessageID: msg.ID,
		SenderID:  senderID,
		Preview:   preview(content, previewRunes),
	}
	if sender, err := s.userRepo.GetByID(ctx, senderID); err == nil {
		payload.SenderName = sender.DisplayName
	}
	if _, err := s.notifications.Append(ctx, recipientID, payload); err != nil {
		log.Printf("Message %d: failed to notify user %d: %v", msg.ID, recipientID, err)
	}

	return toMessageItem(msg, access.MatchID), nil
}

// List 获取会话消息（倒序），并把发给自己的消息标记为已读
func (s *ChatService) List(ctx context.Context, viewerID, otherID int64, page, pageSize int) ([]*dto.MessageItem, int64, error) {
	access, err := s.authorize(ctx, viewerID, otherID)
	if err != nil {
		return nil, 0, err
	}

	page, pageSize = normalizePage(page, pageSize, 30, 100)
	messages, total, err := s.messageRepo.ListByMatch(ctx, access.Match.ID, page, pageSize)
	if err != nil {
		return nil, 0, err
	}

	if err := s.messageRepo.MarkReadForRecipient(ctx, access.Match.ID, viewerID, s.now()); err != nil {
		log.Printf("Failed to mark messages read for user %d: %v", viewerID, err)
	}

	items := make([]*dto.MessageItem, len(messages))
	for i, m := range messages {
		items[i] = toMessageItem(m, access.MatchID)
	}
	return items, total, nil
}

func (s *ChatService) authorize(ctx context.Context, viewerID, otherID int64) (*ChatAccess, error) {
	access := s.gate.AuthorizeChat(ctx, viewerID, otherID)
	switch access.State {
	case ChatAllowed:
		return access, nil
	case ChatPending:
		return access, ErrChatPending
	default:
		return access, ErrChatNotAllowed
	}
}

func toMessageItem(m *model.Message, matchID string) *dto.MessageItem {
	return &dto.MessageItem{
		ID:          m.ID,
		MatchID:     matchID,
		SenderID:    m.SenderID,
		RecipientID: m.RecipientID,
		Content:     m.Content,
		CreatedAt:   m.CreatedAt,
		ReadAt:      m.ReadAt,
	}
}

// preview 截取前 n 个字符
func preview(content string, n int) string {
	if utf8.RuneCountInString(content) <= n {
		return content
	}
	runes := []rune(content)
	return string(runes[:n]) + "..."
}
