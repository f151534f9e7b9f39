package service

import (
	"encoding/json"
	"fmt"

	"github.com/qs3c/vivah_server/internal/model"
)

// NotificationPayload 通知内容，按类型区分的三种结构
type NotificationPayload interface {
	NotificationType() string
	validate() error
}

type NewMatchPayload struct {
	MatchID     string `json:"match_id"`
	UserID      int64  `json:"user_id"`
	DisplayName string `json:"display_name"`
}

type NewMessagePayload struct {
	MatchID    string `json:"match_id"`
	MessageID  int64  `json:"message_id"`
	SenderID   int64  `json:"sender_id"`
	SenderName string `json:"sender_name"`
	Preview    string `json:"preview"`
}

type ProfileViewPayload struct {
	ViewerID   int64  `json:"viewer_id"`
	ViewerName string `json:"viewer_name"`
}

func (*NewMatchPayload) NotificationType() string {
	return model.NotificationNewMatch
}

func (*NewMessagePayload) NotificationType() string {
	return model.NotificationNewMessage
}

func (*ProfileViewPayload) NotificationType() string {
	return model.NotificationProfileView
}

func (p *NewMatchPayload) validate() error {
	if p.MatchID == "" || p.UserID == 0 {
		return fmt.Errorf("%w: new_match requires match_id and user_id", ErrInvalidPayload)
	}
	return nil
}

func (p *NewMessagePayload) validate() error {
	if p.MatchID == "" || p.MessageID == 0 || p.SenderID == 0 {
		return fmt.Errorf("%w: new_message requires match_id, message_id and sender_id", ErrInvalidPayload)
	}
	return nil
}

func (p *ProfileViewPayload) validate() error {
	if p.ViewerID == 0 {
		return fmt.Errorf("%w: profile_view requires viewer_id", ErrInvalidPayload)
	}
	return nil
}

// DecodePayload 按通知类型解析 payload
func DecodePayload(notificationType string, raw []byte) (NotificationPayload, error) {
	var payload NotificationPayload
	switch notificationType {
	case model.NotificationNewMatch:
		payload = &NewMatchPayload{}
	case model.NotificationNewMessage:
		payload = &NewMessagePayload{}
	case model.NotificationProfileView:
		payload = &ProfileViewPayload{}
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidPayload, notificationType)
	}

	if err := json.Unmarshal(raw, payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return payload, nil
}
