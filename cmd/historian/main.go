// cmd/historian/main.go pops finished games from the Redis queue and persists them to PostgreSQL.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/rachel/internal/cache"
	"github.com/jason-s-yu/rachel/internal/config"
	"github.com/jason-s-yu/rachel/internal/database"
	"github.com/jason-s-yu/rachel/internal/historian"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := cfg.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Fatal("historian exited")
	}
	logger.Info("Historian shutdown complete.")
}

func run(ctx context.Context, cfg config.Config, logger *logrus.Logger) error {
	if cfg.RedisAddr == "" || cfg.DatabaseURL == "" {
		return fmt.Errorf("historian needs both REDIS_ADDR and DATABASE_URL")
	}

	rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		return err
	}
	defer rdb.Close()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	store := database.NewStore(pool)
	if err := store.Migrate(ctx); err != nil {
		return err
	}

	queue := cache.NewQueue(rdb, cfg.QueueName)
	svc := historian.New(queue, store, historian.Config{
		BatchSize:     cfg.HistorianBatchSize,
		FlushInterval: cfg.FlushInterval(),
	}, logger.WithField("queue", queue.Name()))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return svc.Run(ctx) })
	g.Go(func() error {
		reportBacklog(ctx, queue, svc, logger)
		return nil
	})
	return g.Wait()
}

// reportBacklog logs the queue depth once a minute.
func reportBacklog(ctx context.Context, queue *cache.Queue, svc *historian.Service, logger logrus.FieldLogger) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := queue.Len(ctx)
			if err != nil {
				logger.WithError(err).Warn("queue length unavailable")
				continue
			}
			logger.WithFields(logrus.Fields{
				"queued":  n,
				"pending": svc.Pending(),
				"saved":   svc.Saved(),
			}).Info("historian backlog")
		}
	}
}
