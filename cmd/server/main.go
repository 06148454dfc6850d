package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"relaybot/backend/internal/config"
	"relaybot/backend/internal/fraud"
	"relaybot/backend/internal/health"
	"relaybot/backend/internal/logger"
	"relaybot/backend/internal/monitoring"
	"relaybot/backend/internal/service"
	"relaybot/backend/internal/storage"
	"relaybot/backend/internal/storage/memory"
	redisstore "relaybot/backend/internal/storage/redis"
	"relaybot/backend/internal/telegram"
	httptransport "relaybot/backend/internal/transport/http"
)

// main 启动消息中转机器人服务。
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting relay bot",
		zap.String("log_level", cfg.Log.Level),
		zap.Int64("owner_uid", cfg.Bot.OwnerUID),
	)

	// 初始化存储层
	var repo storage.Repository
	if cfg.Redis.Address != "" {
		repo, err = redisstore.New(&cfg.Redis, cfg.Relay.CorrelationTTL, log)
		if err != nil {
			log.Fatal("failed to initialize Redis storage", zap.Error(err))
		}
	} else {
		// 未配置 Redis 时退化为内存存储（仅限开发验证）
		repo = memory.NewStore(cfg.Relay.CorrelationTTL)
		log.Warn("using in-memory storage, state will not survive restarts")
	}
	defer func() { _ = repo.Close() }()

	// 初始化出站网关
	gateway, err := telegram.New(cfg.Bot.Token, log)
	if err != nil {
		log.Fatal("failed to initialize telegram client", zap.Error(err))
	}

	// 初始化监控与健康检查
	metrics := monitoring.NewMetrics(prometheus.DefaultRegisterer)
	healthChecker := health.NewChecker(repo)

	// 初始化业务层
	registry := service.NewRegistry(cfg.Bot.OwnerUID, repo)
	moderation := service.NewModerationService(repo)
	oracle := fraud.NewOracle(&cfg.Fraud, log)
	relay := service.NewRelayService(repo, moderation, registry, gateway, oracle, metrics, log)
	dispatcher := service.NewDispatcher(registry, moderation, relay, gateway, &cfg.Bot, metrics, log)

	router := httptransport.NewRouter(httptransport.RouterDependencies{
		Config:     cfg,
		Dispatcher: dispatcher,
		Webhooks:   gateway,
		Health:     healthChecker,
		Metrics:    metrics,
		Logger:     log,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("http server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Fatal("server exited with error", zap.Error(err))
	}
	log.Info("server stopped")
}
