package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	tb "gopkg.in/telebot.v3"

	"relaybot/backend/internal/monitoring"
	"relaybot/backend/internal/storage"
)

const (
	blockedNotice   = "Your are blocked"
	routeMissNotice = "找不到对应的访客会话，原消息可能不是本机器人转发或已过期"
	fraudAlertText  = "检测到骗子，UID: %d"
)

// RelayService 负责访客消息向全体操作员的扇出、回复路由的记录，
// 以及操作员回复向来源访客的回送。
type RelayService struct {
	routes     storage.RouteRepository
	moderation *ModerationService
	registry   *Registry
	gateway    Gateway
	fraud      FraudChecker
	metrics    *monitoring.Metrics
	log        *zap.Logger
}

// NewRelayService 创建消息转发服务。
func NewRelayService(
	routes storage.RouteRepository,
	moderation *ModerationService,
	registry *Registry,
	gateway Gateway,
	fraud FraudChecker,
	metrics *monitoring.Metrics,
	log *zap.Logger,
) *RelayService {
	return &RelayService{
		routes:     routes,
		moderation: moderation,
		registry:   registry,
		gateway:    gateway,
		fraud:      fraud,
		metrics:    metrics,
		log:        log,
	}
}

// RelayGuestMessage 处理一条访客消息。
// 被屏蔽的访客收到提示后流程结束；否则消息逐一转发给全体操作员，
// 成功的转发记录回复路由。单个操作员投递失败不影响其余操作员，
// 也不告知访客。扇出完成后做尽力而为的欺诈名单检查。
func (s *RelayService) RelayGuestMessage(ctx context.Context, msg *tb.Message) error {
	guest := msg.Chat.ID

	status, err := s.moderation.Status(ctx, guest)
	if err != nil {
		return fmt.Errorf("failed to load moderation state: %w", err)
	}
	if status.StateAt(time.Now()).Active() {
		s.metrics.GuestMessagesBlocked.Inc()
		return s.gateway.SendText(ctx, guest, blockedNotice)
	}

	operators, err := s.registry.Operators(ctx)
	if err != nil {
		return fmt.Errorf("failed to list operators: %w", err)
	}

	for _, operator := range operators {
		forwardedID, err := s.gateway.Forward(ctx, operator, guest, msg.ID)
		if err != nil {
			s.metrics.ForwardFailures.Inc()
			s.log.Warn("forward to operator failed",
				zap.Int64("operator", operator),
				zap.Int64("guest", guest),
				zap.Error(err),
			)
			continue
		}
		if err := s.routes.SaveRoute(ctx, operator, forwardedID, guest); err != nil {
			// 路由写失败只影响该操作员对这条消息的回复能力
			s.log.Warn("failed to save route",
				zap.Int64("operator", operator),
				zap.Int("message_id", forwardedID),
				zap.Error(err),
			)
		}
	}
	s.metrics.GuestMessagesRelayed.Inc()

	s.notifyIfFraud(ctx, guest)
	return nil
}

// ResolveReply 将操作员回复的消息 ID 解析回来源访客会话。
func (s *RelayService) ResolveReply(ctx context.Context, operator int64, repliedToID int) (int64, error) {
	return s.routes.Route(ctx, operator, repliedToID)
}

// RouteReply 把操作员的回复以副本形式发给来源访客，保持操作员匿名。
// 路由未命中时给操作员一条软提示，绝不发往不确定的目的地。
func (s *RelayService) RouteReply(ctx context.Context, msg *tb.Message) error {
	operator := msg.Chat.ID

	guest, err := s.ResolveReply(ctx, operator, msg.ReplyTo.ID)
	if errors.Is(err, storage.ErrRouteNotFound) {
		s.metrics.RouteMisses.Inc()
		return s.gateway.SendText(ctx, operator, routeMissNotice)
	}
	if err != nil {
		return fmt.Errorf("failed to resolve reply: %w", err)
	}

	if err := s.gateway.Copy(ctx, guest, operator, msg.ID); err != nil {
		return fmt.Errorf("failed to copy reply to guest: %w", err)
	}
	s.metrics.RepliesRouted.Inc()
	return nil
}

// notifyIfFraud 欺诈名单命中时通知全体操作员。
// 纯提示性质：拉取失败或未命中都不影响已完成的转发。
func (s *RelayService) notifyIfFraud(ctx context.Context, guest int64) {
	hit, err := s.fraud.IsFraud(ctx, guest)
	if err != nil {
		s.log.Warn("fraud list check failed", zap.Int64("guest", guest), zap.Error(err))
		return
	}
	if !hit {
		return
	}

	operators, err := s.registry.Operators(ctx)
	if err != nil {
		s.log.Warn("failed to list operators for fraud alert", zap.Error(err))
		return
	}
	for _, operator := range operators {
		if err := s.gateway.SendText(ctx, operator, fmt.Sprintf(fraudAlertText, guest)); err != nil {
			s.log.Warn("fraud alert delivery failed", zap.Int64("operator", operator), zap.Error(err))
		}
	}
	s.metrics.FraudAlerts.Inc()
}
