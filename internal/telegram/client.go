package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	tb "gopkg.in/telebot.v3"

	"relaybot/backend/internal/domain"
)

// Bot API 对机器人全局发送频率的上限约为 30 条/秒，
// 留出余量避免批量转发时触发 429。
const (
	sendRate  = 25
	sendBurst = 5
)

// Client 封装 Bot API 出站调用。
// 入站 update 不经过这里，由 HTTP 传输层直接接收。
type Client struct {
	bot     *tb.Bot
	limiter *rate.Limiter
	log     *zap.Logger
}

// New 创建 Bot API 客户端并验证令牌。
func New(token string, log *zap.Logger) (*Client, error) {
	bot, err := tb.NewBot(tb.Settings{
		Token:  token,
		Client: &http.Client{Timeout: 30 * time.Second},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	log.Info("telegram bot authorized",
		zap.Int64("bot_id", bot.Me.ID),
		zap.String("username", bot.Me.Username),
	)

	return &Client{
		bot:     bot,
		limiter: rate.NewLimiter(rate.Limit(sendRate), sendBurst),
		log:     log,
	}, nil
}

// SendText 发送纯文本消息。
func (c *Client) SendText(ctx context.Context, chat int64, text string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := c.bot.Send(tb.ChatID(chat), text)
	return err
}

// SendMarkdown 以 MarkdownV2 格式发送消息。
func (c *Client) SendMarkdown(ctx context.Context, chat int64, text string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := c.bot.Send(tb.ChatID(chat), text, tb.ModeMarkdownV2)
	return err
}

// Forward 将消息转发给目标会话，返回新产生的消息 ID。
func (c *Client) Forward(ctx context.Context, to, fromChat int64, messageID int) (int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	forwarded, err := c.bot.Forward(tb.ChatID(to), &tb.StoredMessage{
		MessageID: strconv.Itoa(messageID),
		ChatID:    fromChat,
	})
	if err != nil {
		return 0, err
	}
	return forwarded.ID, nil
}

// Copy 将消息以副本形式发送给目标会话，不携带来源信息。
func (c *Client) Copy(ctx context.Context, to, fromChat int64, messageID int) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := c.bot.Copy(tb.ChatID(to), &tb.StoredMessage{
		MessageID: strconv.Itoa(messageID),
		ChatID:    fromChat,
	})
	return err
}

// ChatProfile 查询会话的展示信息，失败通过 error 返回。
func (c *Client) ChatProfile(ctx context.Context, id int64) (*domain.ChatProfile, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	chat, err := c.bot.ChatByID(id)
	if err != nil {
		return nil, err
	}
	return &domain.ChatProfile{
		FirstName: chat.FirstName,
		LastName:  chat.LastName,
	}, nil
}

// SetWebhook 向 Bot API 注册 Webhook 地址与密钥。
func (c *Client) SetWebhook(ctx context.Context, url, secret string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := c.bot.Raw("setWebhook", map[string]string{
		"url":          url,
		"secret_token": secret,
	})
	return err
}

// DeleteWebhook 注销已注册的 Webhook。
func (c *Client) DeleteWebhook(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := c.bot.Raw("setWebhook", map[string]string{"url": ""})
	return err
}
