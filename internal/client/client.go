// Package client 服务端 REST 与 websocket 接口的 Go 客户端
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/qs3c/vivah_server/internal/model/dto"
	"github.com/qs3c/vivah_server/internal/pkg/response"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrPending      = errors.New("result pending")
)

// APIError 服务端返回的业务错误
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Code, e.Message)
}

// Is 让 errors.Is 可以按业务码判断
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Code == response.CodeAuthFailed
	case ErrPending:
		return e.Code == response.CodeResultPending
	}
	return false
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type page[T any] struct {
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Items    []T   `json:"items"`
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

type Option func(*Client)

// WithHTTPClient 替换默认的 http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New baseURL 形如 http://host:port，不含 /api/v1
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Swipe 记录一次滑动，失败时调用方不应前进到下一张卡片
func (c *Client) Swipe(ctx context.Context, targetID int64, kind string) (*dto.SwipeResponse, error) {
	var out dto.SwipeResponse
	req := &dto.SwipeRequest{TargetID: targetID, Kind: kind}
	if err := c.do(ctx, http.MethodPost, "/swipes", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MatchWith 与某个用户的匹配状态
func (c *Client) MatchWith(ctx context.Context, userID int64) (*dto.MatchStatusResponse, error) {
	var out dto.MatchStatusResponse
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/matches/with/%d", userID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ChatAccess 聊天权限。pending 时同时返回结果和 ErrPending
func (c *Client) ChatAccess(ctx context.Context, userID int64) (*dto.ChatAccessResponse, error) {
	var out dto.ChatAccessResponse
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/chats/%d/access", userID), nil, &out)
	if err != nil && !errors.Is(err, ErrPending) {
		return nil, err
	}
	return &out, err
}

// SendMessage 发送消息
func (c *Client) SendMessage(ctx context.Context, userID int64, content string) (*dto.MessageItem, error) {
	var out dto.MessageItem
	req := &dto.SendMessageRequest{Content: content}
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/chats/%d/messages", userID), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListNotifications 分页获取通知，新的在前
func (c *Client) ListNotifications(ctx context.Context, pageNum, pageSize int) ([]*dto.NotificationItem, int64, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(pageNum))
	q.Set("page_size", strconv.Itoa(pageSize))

	var out page[*dto.NotificationItem]
	if err := c.do(ctx, http.MethodGet, "/notifications?"+q.Encode(), nil, &out); err != nil {
		return nil, 0, err
	}
	return out.Items, out.Total, nil
}

// UnreadCount 未读数，Stale 为 true 时是服务端的缓存值
func (c *Client) UnreadCount(ctx context.Context) (*dto.UnreadCountResponse, error) {
	var out dto.UnreadCountResponse
	if err := c.do(ctx, http.MethodGet, "/notifications/unread-count", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MarkRead 单条标记已读
func (c *Client) MarkRead(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/notifications/%d/read", id), nil, nil)
}

// MarkAllRead 全部标记已读
func (c *Client) MarkAllRead(ctx context.Context) (int64, error) {
	var out dto.MarkAllReadResponse
	if err := c.do(ctx, http.MethodPost, "/notifications/read-all", nil, &out); err != nil {
		return 0, err
	}
	return out.Updated, nil
}

// WebSocketURL 实时通知地址
func (c *Client) WebSocketURL() string {
	u := c.baseURL
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + "/api/v1/ws?token=" + url.QueryEscape(c.token)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/api/v1"+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return &APIError{Code: response.CodeAuthFailed, Message: resp.Status}
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	// pending 也会带上数据
	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode data: %w", err)
		}
	}
	if env.Code != response.CodeSuccess {
		return &APIError{Code: env.Code, Message: env.Message}
	}
	return nil
}
