package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/qs3c/vivah_server/internal/model"
	"github.com/qs3c/vivah_server/internal/pkg/queue"
)

const (
	DefaultMaxAttempts = 5
	popTimeout         = 5 * time.Second
	retryBaseDelay     = 2 * time.Second
	retryMaxDelay      = time.Minute
	popErrorDelay      = time.Second
)

// Evaluator 匹配评估，service.Matchmaker 实现了该接口
type Evaluator interface {
	Evaluate(ctx context.Context, a, b int64) (*model.Match, bool, error)
}

// JobQueue 匹配任务队列
type JobQueue interface {
	Push(ctx context.Context, job *queue.MatchJob) error
	Pop(ctx context.Context, timeout time.Duration) (*queue.MatchJob, error)
}

// Processor 处理滑动时没能完成的匹配评估
type Processor struct {
	queue       JobQueue
	evaluator   Evaluator
	maxAttempts int
	baseDelay   time.Duration
	now         func() time.Time
}

// NewProcessor 创建任务处理器
func NewProcessor(q JobQueue, evaluator Evaluator, maxAttempts int) *Processor {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Processor{
		queue:       q,
		evaluator:   evaluator,
		maxAttempts: maxAttempts,
		baseDelay:   retryBaseDelay,
		now:         time.Now,
	}
}

// retryDelay 第 attempt 次失败后的等待时间，指数增长，上限 retryMaxDelay
func (p *Processor) retryDelay(attempt int) time.Duration {
	d := p.baseDelay
	for i := 1; i < attempt && d < retryMaxDelay; i++ {
		d *= 2
	}
	if d > retryMaxDelay {
		d = retryMaxDelay
	}
	return d
}

// Process 评估一个任务，失败且未超过重试次数时延后重新入队。
// 任务带有 NotBefore 时先等到该时间
func (p *Processor) Process(ctx context.Context, job *queue.MatchJob) error {
	if wait := job.NotBefore.Sub(p.now()); wait > 0 {
		if err := sleep(ctx, wait); err != nil {
			// 退出时把任务放回队列，下一个 worker 接着处理
			pushCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if pushErr := p.queue.Push(pushCtx, job); pushErr != nil {
				return fmt.Errorf("match job %d -> %d lost on shutdown: %v", job.ActorID, job.TargetID, pushErr)
			}
			return err
		}
	}

	match, formed, err := p.evaluator.Evaluate(ctx, job.ActorID, job.TargetID)
	if err != nil {
		if job.Attempt >= p.maxAttempts {
			return fmt.Errorf("match job %d -> %d dropped after %d attempts: %w", job.ActorID, job.TargetID, job.Attempt, err)
		}

		retry := &queue.MatchJob{
			ActorID:   job.ActorID,
			TargetID:  job.TargetID,
			Attempt:   job.Attempt + 1,
			NotBefore: p.now().Add(p.retryDelay(job.Attempt)),
		}
		if pushErr := p.queue.Push(ctx, retry); pushErr != nil {
			return fmt.Errorf("failed to requeue match job: %v (evaluate: %w)", pushErr, err)
		}
		return fmt.Errorf("match job %d -> %d requeued (attempt %d): %w", job.ActorID, job.TargetID, retry.Attempt, err)
	}

	if formed {
		log.Printf("Match job %d -> %d: match %s formed", job.ActorID, job.TargetID, match.PublicID)
	}
	return nil
}

// Run worker 循环，直到 ctx 取消
func (p *Processor) Run(ctx context.Context, workerID int) {
	for {
		select {
		case <-ctx.Done():
			log.Printf("Worker %d shutting down", workerID)
			return
		default:
		}

		job, err := p.queue.Pop(ctx, popTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("Worker %d: failed to pop job: %v", workerID, err)
			if sleep(ctx, popErrorDelay) != nil {
				return
			}
			continue
		}
		if job == nil {
			continue // 超时，继续等待
		}

		log.Printf("Worker %d: evaluating pair %d -> %d (attempt %d)", workerID, job.ActorID, job.TargetID, job.Attempt)
		if err := p.Process(ctx, job); err != nil {
			log.Printf("Worker %d: %v", workerID, err)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
