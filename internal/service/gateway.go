package service

import (
	"context"

	"relaybot/backend/internal/domain"
)

// Gateway 定义业务层消费的消息平台出站操作。
// 生产实现位于 internal/telegram，测试中以假实现替代。
type Gateway interface {
	// SendText 发送纯文本消息
	SendText(ctx context.Context, chat int64, text string) error
	// SendMarkdown 以 MarkdownV2 格式发送消息
	SendMarkdown(ctx context.Context, chat int64, text string) error
	// Forward 转发消息并返回新消息 ID
	Forward(ctx context.Context, to, fromChat int64, messageID int) (int, error)
	// Copy 以不带来源的副本形式发送消息
	Copy(ctx context.Context, to, fromChat int64, messageID int) error
	// ChatProfile 查询会话展示信息，失败以 error 表达
	ChatProfile(ctx context.Context, id int64) (*domain.ChatProfile, error)
}

// FraudChecker 定义欺诈名单查询操作。
type FraudChecker interface {
	IsFraud(ctx context.Context, id int64) (bool, error)
}
