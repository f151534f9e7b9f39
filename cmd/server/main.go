package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/qs3c/vivah_server/config"
	"github.com/qs3c/vivah_server/internal/api"
	"github.com/qs3c/vivah_server/internal/api/handler"
	"github.com/qs3c/vivah_server/internal/database"
	"github.com/qs3c/vivah_server/internal/pkg/cron"
	"github.com/qs3c/vivah_server/internal/pkg/oss"
	"github.com/qs3c/vivah_server/internal/pkg/pubsub"
	"github.com/qs3c/vivah_server/internal/pkg/queue"
	"github.com/qs3c/vivah_server/internal/pkg/ws"
	"github.com/qs3c/vivah_server/internal/repository"
	"github.com/qs3c/vivah_server/internal/service"
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
	log.Printf("Database connected (%s)", cfg.Database.Driver)

	// 初始化 Redis
	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect redis: %v", err)
	}
	log.Println("Redis connected")

	// 初始化 OSS（可选）
	var photoStorage service.PhotoStorage
	if cfg.OSS.Endpoint != "" && cfg.OSS.AccessKeyID != "" {
		ossClient, err := oss.NewClient(&cfg.OSS)
		if err != nil {
			log.Printf("Warning: Failed to init OSS client: %v", err)
		} else {
			photoStorage = ossClient
			log.Println("OSS client initialized")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 实时通道：通知先发布到 Redis，每个实例再转发给自己持有的连接
	wsHub := ws.NewHub()
	publisher := pubsub.NewPublisher(rdb, cfg.Notification.Channel)
	subscriber := pubsub.NewSubscriber(rdb, cfg.Notification.Channel)
	go func() {
		if err := pubsub.Relay(ctx, subscriber, wsHub); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Notification relay stopped: %v", err)
		}
	}()
	log.Println("WebSocket hub started")

	matchQueue := queue.NewQueue(rdb, cfg.Queue.MatchQueue)

	// 初始化 Repository
	userRepo := repository.NewUserRepository(db)
	interactionRepo := repository.NewInteractionRepository(db)
	matchRepo := repository.NewMatchRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	// 初始化 Service
	auditService := service.NewAuditService(auditRepo)
	interactionService := service.NewInteractionService(interactionRepo, cfg)
	notificationService := service.NewNotificationService(notificationRepo, userRepo, publisher, rdb, cfg)
	matchService := service.NewMatchService(matchRepo, userRepo, auditService)
	matchmaker := service.NewMatchmaker(interactionRepo, matchRepo, userRepo, notificationService, auditService)
	gateService := service.NewGateService(matchService)
	chatService := service.NewChatService(messageRepo, userRepo, gateService, notificationService, auditService)
	profileService := service.NewProfileService(userRepo, interactionService, notificationService, auditService, photoStorage, cfg)
	swipeService := service.NewSwipeService(interactionService, matchmaker, matchService, userRepo, matchQueue)

	// 定时补偿：漏掉的互相喜欢补建匹配
	cronService := cron.NewService(matchmaker, &cfg.Cron)
	cronService.Start()

	// 初始化 Handler
	swipeHandler := handler.NewSwipeHandler(swipeService)
	profileHandler := handler.NewProfileHandler(profileService, cfg.OSS.MaxPhotoSize)
	matchHandler := handler.NewMatchHandler(matchService)
	chatHandler := handler.NewChatHandler(gateService, chatService)
	notificationHandler := handler.NewNotificationHandler(notificationService)
	websocketHandler := handler.NewWebSocketHandler(wsHub, notificationService, cfg.CORS.AllowedOrigins)

	// 初始化 Router
	router := api.NewRouter(
		swipeHandler,
		profileHandler,
		matchHandler,
		chatHandler,
		notificationHandler,
		websocketHandler,
		cfg,
	)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router.Setup(),
	}

	go func() {
		log.Printf("Server starting on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// 监听退出信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Println("Received shutdown signal")

	cronService.Stop()
	cancel()
	wsHub.CloseAll()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	if err := rdb.Close(); err != nil {
		log.Printf("Redis close error: %v", err)
	}
	log.Println("Server shutdown complete")
}
