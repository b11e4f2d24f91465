package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/noah-isme/admin-console/internal/listsync"
	"github.com/noah-isme/admin-console/internal/repository"
	"github.com/noah-isme/admin-console/pkg/cache"
)

type liveOptions struct {
	redisAddr string
	channel   string
}

func newLiveCmd(app *App) *cobra.Command {
	opts := &liveOptions{}
	cmd := &cobra.Command{
		Use:   "live",
		Short: "Publish or follow the live user count",
	}
	cmd.PersistentFlags().StringVar(&opts.redisAddr, "redis-addr", "", "Redis address (default: REDIS_HOST:REDIS_PORT)")
	cmd.PersistentFlags().StringVar(&opts.channel, "channel", "", "Pub/sub channel (default: LIVE_COUNT_CHANNEL)")

	cmd.AddCommand(&cobra.Command{
		Use:   "publish <count|null>",
		Short: "Publish a live user count; null reverts screens to the paged total",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			count, err := parseCount(args[0])
			if err != nil {
				return err
			}
			repo, closeFn, err := liveRepository(cmd.Context(), app, opts)
			if err != nil {
				return err
			}
			defer closeFn()
			if err := repo.Publish(cmd.Context(), listsync.LiveCountUpdate{TotalUserCount: count}); err != nil {
				return err
			}
			return writeJSON(cmd, app, listsync.LiveCountUpdate{TotalUserCount: count})
		},
	})

	var limit int
	watch := &cobra.Command{
		Use:   "watch",
		Short: "Print live count updates as they arrive",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			repo, closeFn, err := liveRepository(ctx, app, opts)
			if err != nil {
				return err
			}
			defer closeFn()

			updates, err := repo.Subscribe(ctx)
			if err != nil {
				return err
			}
			seen := 0
			for update := range updates {
				if err := writeJSON(cmd, app, update); err != nil {
					return err
				}
				seen++
				if limit > 0 && seen >= limit {
					return nil
				}
			}
			return nil
		},
	}
	watch.Flags().IntVar(&limit, "limit", 0, "Stop after this many updates (0 = until interrupted)")
	cmd.AddCommand(watch)

	return cmd
}

func parseCount(raw string) (*int, error) {
	if strings.EqualFold(strings.TrimSpace(raw), "null") {
		return nil, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return nil, fmt.Errorf("count must be a non-negative integer or null, got %q", raw)
	}
	return &n, nil
}

func liveRepository(ctx context.Context, app *App, opts *liveOptions) (*repository.LiveCountRepository, func(), error) {
	if ctx == nil {
		ctx = context.Background()
	}
	channel := opts.channel
	if channel == "" && app.cfg != nil {
		channel = app.cfg.LiveCount.Channel
	}

	var client *redis.Client
	if opts.redisAddr != "" {
		client = redis.NewClient(&redis.Options{Addr: opts.redisAddr})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("redis %s: %w", opts.redisAddr, err)
		}
	} else {
		if app.cfg == nil {
			return nil, nil, fmt.Errorf("redis address is required")
		}
		c, err := cache.NewRedis(ctx, app.cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		client = c
	}
	repo := repository.NewLiveCountRepository(client, channel, app.logger)
	return repo, func() { _ = client.Close() }, nil
}
