package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"github.com/qs3c/vivah_server/config"
	"github.com/qs3c/vivah_server/internal/database"
	"github.com/qs3c/vivah_server/internal/repository"
)

var (
	dryRun            = flag.Bool("dry-run", true, "Dry run mode, only count rows that would be deleted")
	notificationDays  = flag.Int("notification-days", 90, "Days to keep read notifications")
	viewDays          = flag.Int("view-days", 180, "Days to keep profile view records")
	cleanNotification = flag.Bool("clean-notifications", true, "Delete old read notifications")
	cleanViews        = flag.Bool("clean-views", true, "Delete old profile view records")
)

// pruner 一类可清理的数据
type pruner struct {
	name   string
	days   int
	count  func(ctx context.Context, before time.Time) (int64, error)
	delete func(ctx context.Context, before time.Time) (int64, error)
}

func main() {
	flag.Parse()

	log.Println("🧹 Starting cleanup task...")
	log.Printf("Mode: dry-run=%v", *dryRun)

	// 加载配置
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 连接数据库
	db, err := database.Open(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	notificationRepo := repository.NewNotificationRepository(db)
	interactionRepo := repository.NewInteractionRepository(db)

	var pruners []pruner
	if *cleanNotification {
		pruners = append(pruners, pruner{
			name:   "read notifications",
			days:   *notificationDays,
			count:  notificationRepo.CountReadBefore,
			delete: notificationRepo.DeleteReadBefore,
		})
	}
	if *cleanViews {
		pruners = append(pruners, pruner{
			name:   "profile views",
			days:   *viewDays,
			count:  interactionRepo.CountViewsBefore,
			delete: interactionRepo.DeleteViewsBefore,
		})
	}

	ctx := context.Background()
	var total int64
	for _, p := range pruners {
		n, err := run(ctx, p, time.Now(), *dryRun)
		if err != nil {
			log.Printf("  ❌ Failed to clean %s: %v", p.name, err)
			continue
		}
		total += n
	}

	// 输出统计
	log.Println(strings.Repeat("=", 60))
	log.Println("📊 Cleanup Summary")
	log.Println(strings.Repeat("=", 60))
	log.Printf("Rows affected: %d", total)
	if *dryRun {
		log.Println("⚠️  DRY RUN MODE - No rows were actually deleted")
		log.Println("   Run with -dry-run=false to actually delete rows")
	} else {
		log.Println("✅ Cleanup completed!")
	}
	log.Println(strings.Repeat("=", 60))
}

func run(ctx context.Context, p pruner, now time.Time, dryRun bool) (int64, error) {
	if p.days <= 0 {
		log.Printf("Skipping %s: retention must be positive", p.name)
		return 0, nil
	}

	before := now.Add(-time.Duration(p.days) * 24 * time.Hour)
	log.Printf("📦 Cleaning %s older than %d days (before %s)...", p.name, p.days, before.Format(time.RFC3339))

	if dryRun {
		n, err := p.count(ctx, before)
		if err == nil {
			log.Printf("  - %d %s would be deleted", n, p.name)
		}
		return n, err
	}

	n, err := p.delete(ctx, before)
	if err == nil {
		log.Printf("  - %d %s deleted", n, p.name)
	}
	return n, err
}
