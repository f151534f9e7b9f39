package main

import (
	"context"
	"errors"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/qs3c/vivah_server/internal/client"
	"github.com/qs3c/vivah_server/internal/model/dto"
	"github.com/qs3c/vivah_server/internal/pkg/feed"
)

func newWatchCommand(opts *rootOptions) *cobra.Command {
	var (
		once  bool
		poll  time.Duration
		limit int
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow the notification feed of the token's user",
		Long: `Print notifications as they arrive. The list endpoint is fetched first and
after every (re)connect; while the realtime connection is down the list is
polled instead. Use --once to print the current page and exit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireToken(opts); err != nil {
				return err
			}
			c := client.New(opts.Server, opts.Token)
			p := &printer{format: opts.Format, w: cmd.OutOrStdout()}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, c, p, once, poll, limit)
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "fetch once and exit")
	cmd.Flags().DurationVar(&poll, "poll", 30*time.Second, "poll interval while disconnected")
	cmd.Flags().IntVar(&limit, "limit", 200, "max notifications kept in memory")
	return cmd
}

func runWatch(ctx context.Context, source client.NotificationSource, p *printer, once bool, poll time.Duration, limit int) error {
	f := feed.New(limit)
	w := &feedWriter{feed: f, printer: p, seen: make(map[int64]bool)}

	syncer := client.NewFeedSync(source, f, client.WithPollInterval(poll), client.WithOnUpdate(w.flush))
	if once {
		if _, err := syncer.Refresh(ctx); err != nil {
			return err
		}
		w.flush()
		return w.err
	}

	err := syncer.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// feedWriter 只输出还没打印过的通知，按时间从旧到新
type feedWriter struct {
	feed    *feed.Feed
	printer *printer

	mu   sync.Mutex
	seen map[int64]bool
	err  error
}

func (w *feedWriter) flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	items := w.feed.Items()
	for i := len(items) - 1; i >= 0; i-- {
		item := items[i]
		if w.seen[item.ID] {
			continue
		}
		w.seen[item.ID] = true
		if err := w.print(item); err != nil && w.err == nil {
			w.err = err
		}
	}
}

func (w *feedWriter) print(item dto.NotificationItem) error {
	mark := " "
	if !item.IsRead {
		mark = "*"
	}
	return w.printer.print(item, "%s %s #%d %s %s",
		mark, item.CreatedAt.Format(time.RFC3339), item.ID, item.Type, string(item.Payload))
}
