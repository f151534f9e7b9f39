package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/go-redis/redis/v8"

	"github.com/qs3c/vivah_server/internal/model/dto"
)

const (
	DefaultChannel = "notifications"

	EventNotification = "notification"
)

// NotificationEvent 新通知写入后广播给所有 server 实例，由持有该用户连接的实例推送
type NotificationEvent struct {
	Type         string                `json:"type"`
	RecipientID  int64                 `json:"recipient_id"`
	Notification *dto.NotificationItem `json:"notification"`
}

// Publisher Redis 发布者
type Publisher struct {
	client  *redis.Client
	channel string
}

// NewPublisher 创建发布者
func NewPublisher(client *redis.Client, channel string) *Publisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Publisher{client: client, channel: channel}
}

// Notify 发布通知事件
func (p *Publisher) Notify(ctx context.Context, recipientID int64, item *dto.NotificationItem) error {
	event := &NotificationEvent{
		Type:         EventNotification,
		RecipientID:  recipientID,
		Notification: item,
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal notification event: %w", err)
	}

	return p.client.Publish(ctx, p.channel, data).Err()
}

// Subscriber Redis 订阅者
type Subscriber struct {
	client  *redis.Client
	channel string
}

// NewSubscriber 创建订阅者
func NewSubscriber(client *redis.Client, channel string) *Subscriber {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Subscriber{client: client, channel: channel}
}

// Subscribe 订阅通知事件，阻塞直到 ctx 取消或连接关闭
func (s *Subscriber) Subscribe(ctx context.Context, handler func(*NotificationEvent)) error {
	ps := s.client.Subscribe(ctx, s.channel)
	defer ps.Close()

	// 等待订阅确认，保证返回前已经在监听
	if _, err := ps.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe %s: %w", s.channel, err)
	}

	ch := ps.Channel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var event NotificationEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				continue // 忽略解析错误
			}
			if event.Notification == nil || event.RecipientID == 0 {
				continue
			}

			handler(&event)
		}
	}
}

// Sink 本实例的推送出口，ws.Hub 实现了该接口
type Sink interface {
	Notify(ctx context.Context, recipientID int64, item *dto.NotificationItem) error
}

// Relay 把 Redis 上的通知事件转发到本实例持有的连接，阻塞直到 ctx 取消
func Relay(ctx context.Context, sub *Subscriber, sink Sink) error {
	return sub.Subscribe(ctx, func(event *NotificationEvent) {
		if err := sink.Notify(ctx, event.RecipientID, event.Notification); err != nil {
			log.Printf("Relay notification %d to user %d failed: %v", event.Notification.ID, event.RecipientID, err)
		}
	})
}
