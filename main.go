// analysis-worker consumes code-analysis jobs from a Redis channel, runs
// static analysis on each submitted snippet, and stores the resulting report
// in MongoDB. A small HTTP surface reports health and processing counters.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rce-engine/analysis-worker/internal/broker"
	"github.com/rce-engine/analysis-worker/internal/config"
	"github.com/rce-engine/analysis-worker/internal/health"
	"github.com/rce-engine/analysis-worker/internal/store"
	"github.com/rce-engine/analysis-worker/internal/worker"
)

var version = "dev"

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	if err := run(config.Load(), log); err != nil {
		log.Error("worker failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("starting",
		slog.String("service", cfg.ServiceName),
		slog.String("version", version))

	rdb, err := broker.Connect(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Warn("closing redis", slog.String("error", err.Error()))
		}
	}()
	log.Info("redis connected", slog.String("url", cfg.RedisURL))

	mc, err := store.Connect(ctx, cfg.MongoURL)
	if err != nil {
		return fmt.Errorf("mongodb: %w", err)
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mc.Disconnect(dctx); err != nil {
			log.Warn("disconnecting mongodb", slog.String("error", err.Error()))
		}
	}()
	log.Info("mongodb connected", slog.String("db", cfg.MongoDB))

	sub, err := broker.Subscribe(ctx, rdb, cfg.AnalysisQueue)
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	log.Info("subscribed", slog.String("channel", cfg.AnalysisQueue))

	submissions := store.NewSubmissionStore(mc, cfg.MongoDB)
	consumer := worker.New(sub, submissions, log, cfg.PollTimeout)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handlers := health.NewHandlers(cfg.ServiceName, version, consumer.Stats,
		func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		func(ctx context.Context) error { return mc.Ping(ctx, nil) },
	)
	health.RegisterRoutes(router, handlers)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}
	go func() {
		log.Info("health server listening", slog.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("health server failed", slog.String("error", err.Error()))
		}
	}()

	// Blocks until the shutdown signal cancels ctx. The consumer releases
	// its subscription on the way out.
	runErr := consumer.Run(ctx)

	sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Warn("shutting down health server", slog.String("error", err.Error()))
	}

	log.Info("shutdown complete")
	return runErr
}
