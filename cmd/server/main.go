// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/rachel/internal/auth"
	"github.com/jason-s-yu/rachel/internal/cache"
	"github.com/jason-s-yu/rachel/internal/config"
	"github.com/jason-s-yu/rachel/internal/database"
	"github.com/jason-s-yu/rachel/internal/handlers"
	"github.com/jason-s-yu/rachel/internal/session"
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
		logger.WithError(err).Fatal("server exited")
	}
}

func run(ctx context.Context, cfg config.Config, logger *logrus.Logger) error {
	issuer, err := auth.NewIssuer(cfg.TokenExpire)
	if err != nil {
		return err
	}

	historian, closeHistorian, err := connectHistorian(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeHistorian()

	mgr := session.NewManager(session.Deps{
		Logger:    logger,
		Historian: historian,
	}, cfg.Sessions())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handlers.NewServer(mgr, issuer, logger).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("Running on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		mgr.StopAll()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// connectHistorian prefers the Redis queue, falls back to writing Postgres directly, and runs
// without persistence when neither is configured.
func connectHistorian(ctx context.Context, cfg config.Config, logger *logrus.Logger) (session.Historian, func(), error) {
	switch {
	case cfg.RedisAddr != "":
		rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		logger.WithField("queue", cfg.QueueName).Info("finished games go to the historian queue")
		return cache.NewQueue(rdb, cfg.QueueName), func() { rdb.Close() }, nil

	case cfg.DatabaseURL != "":
		pool, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		store := database.NewStore(pool)
		if err := store.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		logger.Info("finished games are written to postgres directly")
		return store, pool.Close, nil
	}
	logger.Warn("no REDIS_ADDR or DATABASE_URL, finished games are not persisted")
	return nil, func() {}, nil
}
