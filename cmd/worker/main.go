package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/qs3c/vivah_server/config"
	"github.com/qs3c/vivah_server/internal/database"
	"github.com/qs3c/vivah_server/internal/pkg/pubsub"
	"github.com/qs3c/vivah_server/internal/pkg/queue"
	"github.com/qs3c/vivah_server/internal/repository"
	"github.com/qs3c/vivah_server/internal/service"
	"github.com/qs3c/vivah_server/internal/worker"
)

func main() {
	// 加载配置
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化数据库
	db, err := database.Open(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}
	log.Println("Database connected")

	// 初始化 Redis
	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect redis: %v", err)
	}
	log.Println("Redis connected")

	// 初始化 Queue 和 Pub/Sub，匹配通知经由 Redis 推送给在线的 server 实例
	matchQueue := queue.NewQueue(rdb, cfg.Queue.MatchQueue)
	publisher := pubsub.NewPublisher(rdb, cfg.Notification.Channel)

	// 初始化 Repository
	userRepo := repository.NewUserRepository(db)
	interactionRepo := repository.NewInteractionRepository(db)
	matchRepo := repository.NewMatchRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	auditService := service.NewAuditService(auditRepo)
	notificationService := service.NewNotificationService(notificationRepo, userRepo, publisher, rdb, cfg)
	matchmaker := service.NewMatchmaker(interactionRepo, matchRepo, userRepo, notificationService, auditService)

	// 创建任务处理器
	processor := worker.NewProcessor(matchQueue, matchmaker, worker.DefaultMaxAttempts)

	// 创建 context 用于优雅关闭
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 监听退出信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("Received shutdown signal")
		cancel()
	}()

	workers := cfg.Queue.MaxWorkers
	if workers <= 0 {
		workers = 1
	}
	log.Printf("Worker started, max workers: %d", workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			processor.Run(ctx, workerID)
		}(i)
	}

	wg.Wait()
	log.Println("Worker shutdown complete")
}
