package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/qs3c/vivah_server/config"
	"github.com/qs3c/vivah_server/internal/database"
	"github.com/qs3c/vivah_server/internal/pkg/pubsub"
	"github.com/qs3c/vivah_server/internal/repository"
	"github.com/qs3c/vivah_server/internal/service"
)

// reconciler service.Matchmaker 实现了该接口
type reconciler interface {
	Reconcile(ctx context.Context, since time.Time) (int, error)
}

// openReconciler 按配置连接数据库和 Redis，测试中可替换
var openReconciler = func(configPath string) (reconciler, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	db, err := database.Open(&cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		return nil, nil, err
	}

	userRepo := repository.NewUserRepository(db)
	audit := service.NewAuditService(repository.NewAuditRepository(db))
	publisher := pubsub.NewPublisher(rdb, cfg.Notification.Channel)
	notifications := service.NewNotificationService(repository.NewNotificationRepository(db), userRepo, publisher, rdb, cfg)
	matchmaker := service.NewMatchmaker(repository.NewInteractionRepository(db), repository.NewMatchRepository(db), userRepo, notifications, audit)

	closeFn := func() {
		rdb.Close()
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	return matchmaker, closeFn, nil
}

type reconcileResult struct {
	Since  time.Time `json:"since"`
	Formed int       `json:"formed"`
	Error  string    `json:"error,omitempty"`
}

func newReconcileCommand(opts *rootOptions) *cobra.Command {
	var lookback time.Duration

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Create matches for mutual likes that have none",
		Long: `Scan likes recorded within the look-back window and create (or revive)
matches for every pair that liked each other but has no active match.
Newly formed matches are announced to both users.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, closeFn, err := openReconciler(opts.ConfigPath)
			if err != nil {
				return err
			}
			defer closeFn()
			return runReconcile(cmd.Context(), r, time.Now().Add(-lookback), &printer{format: opts.Format, w: cmd.OutOrStdout()})
		},
	}

	cmd.Flags().DurationVar(&lookback, "since", 48*time.Hour, "look-back window")
	return cmd
}

func runReconcile(ctx context.Context, r reconciler, since time.Time, p *printer) error {
	formed, err := r.Reconcile(ctx, since)
	result := reconcileResult{Since: since, Formed: formed}
	if err != nil {
		result.Error = err.Error()
	}
	if perr := p.print(result, "reconciled since %s: %d match(es) formed", since.Format(time.RFC3339), formed); perr != nil {
		return perr
	}
	return err
}
