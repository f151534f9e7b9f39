package client

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/qs3c/vivah_server/internal/model/dto"
	"github.com/qs3c/vivah_server/internal/pkg/feed"
	"github.com/qs3c/vivah_server/internal/pkg/ws"
)

const (
	defaultPollInterval = 30 * time.Second
	defaultSyncPageSize = 50
)

// NotificationSource Client 实现了该接口
type NotificationSource interface {
	ListNotifications(ctx context.Context, page, pageSize int) ([]*dto.NotificationItem, int64, error)
	WebSocketURL() string
}

type hello struct {
	UserID int64 `json:"user_id"`
	Unread int64 `json:"unread"`
	Stale  bool  `json:"stale"`
}

type wsEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// FeedSync 把通知列表和实时推送合并进 feed.Feed。
// 列表是权威数据，推送只是加速；连接断开时退回到定时拉取，重连后先补拉一次
type FeedSync struct {
	source       NotificationSource
	feed         *feed.Feed
	dialer       *websocket.Dialer
	pollInterval time.Duration
	pageSize     int
	onUpdate     func()

	mu        sync.Mutex
	connected bool
	unread    int64
	stale     bool
}

type SyncOption func(*FeedSync)

// WithPollInterval 断线期间的拉取间隔
func WithPollInterval(d time.Duration) SyncOption {
	return func(s *FeedSync) {
		s.pollInterval = d
	}
}

// WithOnUpdate feed 有新内容时回调
func WithOnUpdate(fn func()) SyncOption {
	return func(s *FeedSync) {
		s.onUpdate = fn
	}
}

func NewFeedSync(source NotificationSource, f *feed.Feed, opts ...SyncOption) *FeedSync {
	s := &FeedSync{
		source:       source,
		feed:         f,
		dialer:       websocket.DefaultDialer,
		pollInterval: defaultPollInterval,
		pageSize:     defaultSyncPageSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Refresh 拉取第一页并合并，返回新增条数
func (s *FeedSync) Refresh(ctx context.Context) (int, error) {
	items, _, err := s.source.ListNotifications(ctx, 1, s.pageSize)
	if err != nil {
		return 0, err
	}
	added := s.feed.Merge(items...)
	if added > 0 {
		s.changed()
	}
	return added, nil
}

// Run 保持同步直到 ctx 取消
func (s *FeedSync) Run(ctx context.Context) error {
	for {
		if _, err := s.Refresh(ctx); err != nil && ctx.Err() == nil {
			log.Printf("Feed refresh failed: %v", err)
		}

		conn, _, err := s.dialer.DialContext(ctx, s.source.WebSocketURL(), nil)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("Realtime connect failed, polling every %s: %v", s.pollInterval, err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.pollInterval):
			}
			continue
		}

		s.setConnected(true)
		err = s.readLoop(ctx, conn)
		s.setConnected(false)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Printf("Realtime connection lost: %v", err)
	}
}

// Connected 实时连接是否在线
func (s *FeedSync) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// ServerUnread 最近一次握手时服务端给出的未读数
func (s *FeedSync) ServerUnread() (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread, s.stale
}

func (s *FeedSync) readLoop(ctx context.Context, conn *websocket.Conn) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()
	defer conn.Close()

	for {
		var env wsEnvelope
		if err := conn.ReadJSON(&env); err != nil {
			return err
		}
		if err := s.handle(ctx, &env); err != nil {
			log.Printf("Ignoring realtime message %q: %v", env.Type, err)
		}
	}
}

func (s *FeedSync) handle(ctx context.Context, env *wsEnvelope) error {
	switch env.Type {
	case ws.TypeNotification:
		var item dto.NotificationItem
		if err := json.Unmarshal(env.Data, &item); err != nil {
			return err
		}
		if item.ID == 0 {
			return errors.New("notification without id")
		}
		if s.feed.Merge(&item) > 0 {
			s.changed()
		}
	case ws.TypeHello:
		var h hello
		if err := json.Unmarshal(env.Data, &h); err != nil {
			return err
		}
		s.mu.Lock()
		s.unread = h.Unread
		s.stale = h.Stale
		s.mu.Unlock()

		// 握手完成后服务端已登记连接，补拉一次覆盖连接建立前写入的通知
		if _, err := s.Refresh(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s *FeedSync) setConnected(v bool) {
	s.mu.Lock()
	s.connected = v
	s.mu.Unlock()
}

func (s *FeedSync) changed() {
	if s.onUpdate != nil {
		s.onUpdate()
	}
}
