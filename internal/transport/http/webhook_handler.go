package httptransport

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	tb "gopkg.in/telebot.v3"
)

// handleWebhook 接收 Bot API 推送的 update。
// 立即确认收到，实际处理放进带超时的独立工作单元，
// 下游再慢也不会让平台重复投递同一条 update。
func (h *Handler) handleWebhook(c *gin.Context) {
	var update tb.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed update"})
		return
	}

	h.metrics.UpdatesReceived.Inc()

	traceID := uuid.NewString()
	log := h.log.With(
		zap.String("trace_id", traceID),
		zap.Int("update_id", update.ID),
	)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), h.updateTimeout)
		defer cancel()

		log.Debug("processing update")
		h.dispatcher.HandleUpdate(ctx, update)
	}()

	c.String(http.StatusOK, "Ok")
}

// registerWebhook 向 Bot API 注册本服务的回调地址。
func (h *Handler) registerWebhook(c *gin.Context) {
	base := h.bot.PublicURL
	if base == "" {
		base = "https://" + c.Request.Host
	}
	url := base + h.bot.WebhookPath

	if err := h.webhooks.SetWebhook(c.Request.Context(), url, h.bot.WebhookSecret); err != nil {
		h.log.Error("failed to register webhook", zap.String("url", url), zap.Error(err))
		c.String(http.StatusBadGateway, "failed to register webhook: %v", err)
		return
	}

	h.log.Info("webhook registered", zap.String("url", url))
	c.String(http.StatusOK, "Ok")
}

// unregisterWebhook 注销已注册的回调地址。
func (h *Handler) unregisterWebhook(c *gin.Context) {
	if err := h.webhooks.DeleteWebhook(c.Request.Context()); err != nil {
		h.log.Error("failed to unregister webhook", zap.Error(err))
		c.String(http.StatusBadGateway, "failed to unregister webhook: %v", err)
		return
	}
	c.String(http.StatusOK, "Ok")
}
