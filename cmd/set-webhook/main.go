package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"relaybot/backend/internal/config"
	"relaybot/backend/internal/logger"
	"relaybot/backend/internal/telegram"
)

// main 一次性地向 Bot API 注册或注销 Webhook。
// 与服务内的 /registerWebhook 端点等价，便于在部署脚本中使用。
func main() {
	remove := flag.Bool("delete", false, "注销已注册的 Webhook")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	client, err := telegram.New(cfg.Bot.Token, log)
	if err != nil {
		log.Fatal("failed to initialize telegram client", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if *remove {
		if err := client.DeleteWebhook(ctx); err != nil {
			log.Fatal("failed to unregister webhook", zap.Error(err))
		}
		log.Info("webhook unregistered")
		return
	}

	if cfg.Bot.PublicURL == "" {
		log.Fatal("bot.public_url is required to register a webhook")
	}
	url := cfg.Bot.PublicURL + cfg.Bot.WebhookPath

	if err := client.SetWebhook(ctx, url, cfg.Bot.WebhookSecret); err != nil {
		log.Fatal("failed to register webhook", zap.Error(err))
	}
	log.Info("webhook registered", zap.String("url", url))
}
