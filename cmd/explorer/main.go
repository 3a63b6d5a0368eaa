package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/NileDex/moveportfolio-sub000/internal/api"
	"github.com/NileDex/moveportfolio-sub000/internal/api/handler"
	"github.com/NileDex/moveportfolio-sub000/internal/cache"
	"github.com/NileDex/moveportfolio-sub000/internal/chain"
	"github.com/NileDex/moveportfolio-sub000/internal/config"
	"github.com/NileDex/moveportfolio-sub000/internal/export"
	"github.com/NileDex/moveportfolio-sub000/internal/indexer"
	"github.com/NileDex/moveportfolio-sub000/internal/listener"
	"github.com/NileDex/moveportfolio-sub000/internal/nft"
	"github.com/NileDex/moveportfolio-sub000/internal/price"
	"github.com/NileDex/moveportfolio-sub000/internal/wallet"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	// Setup logging
	setupLogging(cfg.LogLevel)

	slog.Info("starting movement explorer",
		"indexer", cfg.IndexerGraphQLURL,
		"fullnode", cfg.FullnodeURL,
		"ws_enabled", cfg.WSEnabled,
	)

	// Connect to Redis
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		slog.Error("failed to parse redis url", "err", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	// Shared TTL cache and remote clients
	ttlCache := cache.New()
	indexerClient := indexer.New(cfg.IndexerGraphQLURL, ttlCache)
	priceClient := price.New(cfg.PriceAPIURL, ttlCache)
	chainClient := chain.New(cfg.FullnodeURL)
	resolver := nft.NewResolver(cfg.IPFSGateways)
	pager := wallet.NewPager(chainClient)
	portfolio := wallet.NewPortfolioBuilder(indexerClient, priceClient)

	// Export pipeline
	jobs := export.NewJobStore()
	pub, err := export.NewPublisher(redisClient, cfg.ExportsTopic)
	if err != nil {
		slog.Error("failed to create export publisher", "err", err)
		os.Exit(1)
	}
	defer pub.Close()

	wrk, err := export.NewWorker(export.Config{
		RedisClient:   redisClient,
		History:       pager,
		Jobs:          jobs,
		Topic:         cfg.ExportsTopic,
		ConsumerGroup: cfg.ConsumerGroup,
		Concurrency:   cfg.WorkerConcurrency,
	})
	if err != nil {
		slog.Error("failed to create export worker", "err", err)
		os.Exit(1)
	}
	defer wrk.Close()

	// HTTP API
	zapLogger, err := zap.NewProduction()
	if err != nil {
		slog.Error("failed to create zap logger", "err", err)
		os.Exit(1)
	}
	defer zapLogger.Sync()

	h := &handler.Handler{
		Logger:    zapLogger,
		Indexer:   indexerClient,
		Price:     priceClient,
		Pager:     pager,
		Portfolio: portfolio,
		Resolver:  resolver,
		Jobs:      jobs,
		Publisher: pub,
		Redis:     redisClient,
	}

	srv, err := api.NewServer(h, zapLogger, cfg.HTTPAddr)
	if err != nil {
		slog.Error("failed to create api server", "err", err)
		os.Exit(1)
	}

	// Run all components
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Run(ctx)
	})

	g.Go(func() error {
		slog.Info("starting export worker")
		return wrk.Run(ctx)
	})

	if cfg.WSEnabled {
		lst := listener.New(listener.Config{
			URL:            cfg.WSURL,
			MaxRetries:     cfg.WSMaxRetries,
			ReconnectDelay: cfg.WSReconnectDelay,
		}, func(height uint64) {
			// A new head makes the fast-TTL lists stale immediately.
			ttlCache.Invalidate("txs:")
			ttlCache.Invalidate("blocks:")
		})
		g.Go(func() error {
			slog.Info("starting head listener", "url", cfg.WSURL)
			return lst.Run(ctx)
		})
	}

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		slog.Error("explorer error", "err", err)
		os.Exit(1)
	}

	slog.Info("shutdown complete")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
