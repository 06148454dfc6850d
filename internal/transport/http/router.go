package httptransport

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	tb "gopkg.in/telebot.v3"

	"relaybot/backend/internal/config"
	"relaybot/backend/internal/health"
	"relaybot/backend/internal/middleware"
	"relaybot/backend/internal/monitoring"
)

// UpdateHandler 消费入站 update 的核心入口
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, update tb.Update)
}

// WebhookManager 管理 Bot API 侧的 Webhook 注册
type WebhookManager interface {
	SetWebhook(ctx context.Context, url, secret string) error
	DeleteWebhook(ctx context.Context) error
}

// Handler 聚合所有 HTTP 处理逻辑。
type Handler struct {
	dispatcher    UpdateHandler
	webhooks      WebhookManager
	bot           *config.BotConfig
	updateTimeout time.Duration
	metrics       *monitoring.Metrics
	log           *zap.Logger
}

// RouterDependencies 路由器依赖项
type RouterDependencies struct {
	Config     *config.Config
	Dispatcher UpdateHandler
	Webhooks   WebhookManager
	Health     *health.Checker
	Metrics    *monitoring.Metrics
	Logger     *zap.Logger
}

// NewRouter 创建并返回 Gin 路由实例。
func NewRouter(deps RouterDependencies) *gin.Engine {
	router := gin.New()

	// 使用自定义中间件替代默认中间件
	router.Use(middleware.Recovery(deps.Logger))
	router.Use(middleware.RequestLogger(deps.Logger))
	router.Use(middleware.HTTPMetrics(deps.Metrics))

	handler := &Handler{
		dispatcher:    deps.Dispatcher,
		webhooks:      deps.Webhooks,
		bot:           &deps.Config.Bot,
		updateTimeout: deps.Config.Relay.UpdateTimeout,
		metrics:       deps.Metrics,
		log:           deps.Logger,
	}

	// Bot API 回调必须通过密钥头校验
	router.POST(deps.Config.Bot.WebhookPath,
		middleware.WebhookAuth(deps.Config.Bot.WebhookSecret),
		handler.handleWebhook,
	)

	router.GET("/registerWebhook", handler.registerWebhook)
	router.GET("/unRegisterWebhook", handler.unregisterWebhook)

	if deps.Health != nil {
		router.GET("/live", gin.WrapF(deps.Health.LiveEndpoint))
		router.GET("/ready", gin.WrapF(deps.Health.ReadyEndpoint))
	}
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.NoRoute(func(c *gin.Context) {
		c.String(404, "No handler for this request")
	})

	return router
}
