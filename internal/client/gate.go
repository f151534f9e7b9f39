package client

import (
	"context"
	"errors"
	"sync"

	"github.com/qs3c/vivah_server/internal/model/dto"
)

const (
	StateIdle    = "idle"
	StatePending = "pending"
	StateAllowed = "allowed"
	StateDenied  = "denied"
)

// ErrStale 结果返回时会话对象已经切换，结果被丢弃
var ErrStale = errors.New("subject changed, result discarded")

// AccessChecker Client 实现了该接口
type AccessChecker interface {
	ChatAccess(ctx context.Context, userID int64) (*dto.ChatAccessResponse, error)
}

// Decision Gate 当前对某个会话对象的判定
type Decision struct {
	Subject int64
	State   string
	MatchID string
	Reason  string
}

func (d Decision) Allowed() bool {
	return d.State == StateAllowed
}

// Gate 客户端聊天入口。检查进行中时状态为 pending，
// 返回时如果会话对象已经变了，结果不会覆盖当前状态
type Gate struct {
	checker  AccessChecker
	onChange func(Decision)

	mu      sync.Mutex
	gen     uint64
	current Decision
}

func NewGate(checker AccessChecker, onChange func(Decision)) *Gate {
	return &Gate{
		checker:  checker,
		onChange: onChange,
		current:  Decision{State: StateIdle},
	}
}

// Open 切换到 userID 并检查权限
func (g *Gate) Open(ctx context.Context, userID int64) (Decision, error) {
	g.mu.Lock()
	g.gen++
	gen := g.gen
	g.current = Decision{Subject: userID, State: StatePending}
	pending := g.current
	g.mu.Unlock()
	g.notify(pending)

	resp, err := g.checker.ChatAccess(ctx, userID)
	decision := toDecision(userID, resp, err)

	g.mu.Lock()
	if g.gen != gen {
		g.mu.Unlock()
		return decision, ErrStale
	}
	g.current = decision
	g.mu.Unlock()
	g.notify(decision)

	if err != nil && !errors.Is(err, ErrPending) {
		return decision, err
	}
	return decision, nil
}

// Recheck 重新检查当前会话对象，发送消息前调用
func (g *Gate) Recheck(ctx context.Context) (Decision, error) {
	g.mu.Lock()
	subject := g.current.Subject
	g.mu.Unlock()

	if subject == 0 {
		return Decision{State: StateIdle}, nil
	}
	return g.Open(ctx, subject)
}

// Close 离开会话，进行中的检查结果将被丢弃
func (g *Gate) Close() {
	g.mu.Lock()
	g.gen++
	g.current = Decision{State: StateIdle}
	idle := g.current
	g.mu.Unlock()
	g.notify(idle)
}

// Current 当前判定
func (g *Gate) Current() Decision {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current
}

func (g *Gate) notify(d Decision) {
	if g.onChange != nil {
		g.onChange(d)
	}
}

// toDecision 出错时保持 pending，不能显示成拒绝
func toDecision(userID int64, resp *dto.ChatAccessResponse, err error) Decision {
	if err != nil || resp == nil {
		d := Decision{Subject: userID, State: StatePending, Reason: "resolution_failed"}
		if resp != nil && resp.Reason != "" {
			d.Reason = resp.Reason
		}
		return d
	}

	d := Decision{Subject: userID, MatchID: resp.MatchID, Reason: resp.Reason}
	switch resp.State {
	case StateAllowed:
		d.State = StateAllowed
	case StateDenied:
		d.State = StateDenied
	default:
		d.State = StatePending
	}
	return d
}
