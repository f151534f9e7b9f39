package cron

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/qs3c/vivah_server/config"
)

// Reconciler 重新评估一段时间内的互相喜欢，service.Matchmaker 实现了该接口
type Reconciler interface {
	Reconcile(ctx context.Context, since time.Time) (int, error)
}

type Service struct {
	reconciler Reconciler
	interval   time.Duration
	lookback   time.Duration
	stopChan   chan struct{}
	stopOnce   sync.Once
	now        func() time.Time
}

func NewService(reconciler Reconciler, cfg *config.CronConfig) *Service {
	interval := time.Duration(cfg.ReconcileIntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	lookback := time.Duration(cfg.ReconcileLookbackHours) * time.Hour
	if lookback <= 0 {
		lookback = 48 * time.Hour
	}

	return &Service{
		reconciler: reconciler,
		interval:   interval,
		lookback:   lookback,
		stopChan:   make(chan struct{}),
		now:        time.Now,
	}
}

// Start 启动定时任务
func (s *Service) Start() {
	go s.runReconcile()
	log.Printf("Cron service started (match reconcile every %s, lookback %s)", s.interval, s.lookback)
}

// Stop 停止定时任务，可重复调用
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
		log.Println("Cron service stopped")
	})
}

// runReconcile 定时补偿丢失的匹配
func (s *Service) runReconcile() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), s.interval)
			if _, err := s.RunNow(ctx); err != nil {
				log.Printf("Match reconcile failed: %v", err)
			}
			cancel()
		}
	}
}

// RunNow 立即执行一次对账，返回新建匹配数
func (s *Service) RunNow(ctx context.Context) (int, error) {
	since := s.now().Add(-s.lookback)
	formed, err := s.reconciler.Reconcile(ctx, since)
	if formed > 0 {
		log.Printf("Match reconcile: %d matches formed since %s", formed, since.Format(time.RFC3339))
	}
	return formed, err
}
