package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	tb "gopkg.in/telebot.v3"

	"relaybot/backend/internal/config"
	"relaybot/backend/internal/domain"
	"relaybot/backend/internal/monitoring"
	"relaybot/backend/internal/storage"
)

const (
	usageHelpText     = "使用方法：回复转发的消息并发送回复内容，或使用 /block、/unblock、/checkblock 等指令"
	ownerOnlyText     = "仅限 bot 所有者使用！"
	addAdminUsage     = "使用 /addadmin ID 添加管理员"
	delAdminUsage     = "使用 /deladmin ID 删除管理员"
	badAdminIDText    = "错误的 ID，"
	cannotBlockOpText = "不能屏蔽管理员"
)

// 到期时间按东八区展示，与历史行为保持一致
var displayZone = time.FixedZone("UTC+8", 8*60*60)

// Dispatcher 是入站 update 的无状态路由器：
// 解析操作员命令并调用对应组件，非操作员消息交给转发服务。
type Dispatcher struct {
	registry   *Registry
	moderation *ModerationService
	relay      *RelayService
	gateway    Gateway
	bot        *config.BotConfig
	metrics    *monitoring.Metrics
	log        *zap.Logger
}

// NewDispatcher 创建命令分发器。
func NewDispatcher(
	registry *Registry,
	moderation *ModerationService,
	relay *RelayService,
	gateway Gateway,
	bot *config.BotConfig,
	metrics *monitoring.Metrics,
	log *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		registry:   registry,
		moderation: moderation,
		relay:      relay,
		gateway:    gateway,
		bot:        bot,
		metrics:    metrics,
		log:        log,
	}
}

// HandleUpdate 处理一条入站 update，是整个核心的入口。
// 错误在此记录并计数，不向传输层传播。
func (d *Dispatcher) HandleUpdate(ctx context.Context, update tb.Update) {
	if update.Message == nil || update.Message.Chat == nil {
		return
	}

	if err := d.handleMessage(ctx, update.Message); err != nil {
		d.metrics.UpdatesFailed.Inc()
		d.log.Error("update processing failed",
			zap.Int("update_id", update.ID),
			zap.Int64("chat", update.Message.Chat.ID),
			zap.Error(err),
		)
	}
}

func (d *Dispatcher) handleMessage(ctx context.Context, msg *tb.Message) error {
	chat := msg.Chat.ID

	if msg.Text == "/start" {
		return d.handleStart(ctx, chat)
	}

	isOperator, err := d.registry.IsOperator(ctx, chat)
	if err != nil {
		return fmt.Errorf("failed to check operator membership: %w", err)
	}
	if !isOperator {
		return d.relay.RelayGuestMessage(ctx, msg)
	}

	switch {
	case strings.HasPrefix(msg.Text, "/addadmin"):
		d.metrics.OperatorCommands.WithLabelValues("addadmin").Inc()
		return d.handleAddAdmin(ctx, msg)
	case strings.HasPrefix(msg.Text, "/deladmin"):
		d.metrics.OperatorCommands.WithLabelValues("deladmin").Inc()
		return d.handleDelAdmin(ctx, msg)
	case msg.Text == "/listadmin":
		d.metrics.OperatorCommands.WithLabelValues("listadmin").Inc()
		return d.handleListAdmin(ctx, msg)
	}

	// 其余命令都以"回复某条转发消息"来指明目标访客
	if msg.ReplyTo == nil {
		return d.gateway.SendText(ctx, chat, usageHelpText)
	}

	switch {
	case strings.HasPrefix(msg.Text, "/block"):
		d.metrics.OperatorCommands.WithLabelValues("block").Inc()
		return d.handleBlock(ctx, msg)
	case msg.Text == "/unblock":
		d.metrics.OperatorCommands.WithLabelValues("unblock").Inc()
		return d.handleUnblock(ctx, msg)
	case msg.Text == "/checkblock":
		d.metrics.OperatorCommands.WithLabelValues("checkblock").Inc()
		return d.handleCheckBlock(ctx, msg)
	}

	return d.relay.RouteReply(ctx, msg)
}

func (d *Dispatcher) handleStart(ctx context.Context, chat int64) error {
	isOperator, err := d.registry.IsOperator(ctx, chat)
	if err != nil {
		return err
	}
	text := d.bot.StartMessage
	if isOperator {
		text = d.bot.AdminStartMsg
	}
	return d.gateway.SendMarkdown(ctx, chat, text)
}

// parseAdminArg 提取 /addadmin、/deladmin 的数字 ID 参数
func parseAdminArg(text string) (int64, bool) {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return 0, false
	}
	id, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// displayName 查询会话展示名，失败时退化为纯 ID
func (d *Dispatcher) displayName(ctx context.Context, id int64) string {
	profile, err := d.gateway.ChatProfile(ctx, id)
	if err != nil {
		d.log.Debug("chat profile lookup failed", zap.Int64("chat", id), zap.Error(err))
		return domain.DisplayName(id, nil)
	}
	return domain.DisplayName(id, profile)
}

func (d *Dispatcher) handleAddAdmin(ctx context.Context, msg *tb.Message) error {
	if !d.registry.IsOwner(msg.Chat.ID) {
		return d.gateway.SendText(ctx, msg.Chat.ID, ownerOnlyText)
	}

	if len(strings.Fields(msg.Text)) < 2 {
		return d.gateway.SendText(ctx, msg.Chat.ID, addAdminUsage)
	}
	id, ok := parseAdminArg(msg.Text)
	if !ok {
		return d.gateway.SendText(ctx, msg.Chat.ID, badAdminIDText+addAdminUsage)
	}

	if err := d.registry.AddDelegate(ctx, id); err != nil {
		return fmt.Errorf("failed to add delegate: %w", err)
	}
	return d.gateway.SendText(ctx, msg.Chat.ID,
		fmt.Sprintf("已添加管理员: %s", d.displayName(ctx, id)))
}

func (d *Dispatcher) handleDelAdmin(ctx context.Context, msg *tb.Message) error {
	if !d.registry.IsOwner(msg.Chat.ID) {
		return d.gateway.SendText(ctx, msg.Chat.ID, ownerOnlyText)
	}

	if len(strings.Fields(msg.Text)) < 2 {
		return d.gateway.SendText(ctx, msg.Chat.ID, delAdminUsage)
	}
	id, ok := parseAdminArg(msg.Text)
	if !ok {
		return d.gateway.SendText(ctx, msg.Chat.ID, badAdminIDText+delAdminUsage)
	}

	if err := d.registry.RemoveDelegate(ctx, id); err != nil {
		return fmt.Errorf("failed to remove delegate: %w", err)
	}
	return d.gateway.SendText(ctx, msg.Chat.ID,
		fmt.Sprintf("已删除管理员: %s", d.displayName(ctx, id)))
}

func (d *Dispatcher) handleListAdmin(ctx context.Context, msg *tb.Message) error {
	if !d.registry.IsOwner(msg.Chat.ID) {
		return d.gateway.SendText(ctx, msg.Chat.ID, ownerOnlyText)
	}

	operators, err := d.registry.Operators(ctx)
	if err != nil {
		return fmt.Errorf("failed to list operators: %w", err)
	}

	var b strings.Builder
	b.WriteString("管理员列表：")
	for _, operator := range operators {
		b.WriteString("\n - ")
		b.WriteString(d.displayName(ctx, operator))
	}
	return d.gateway.SendText(ctx, msg.Chat.ID, b.String())
}

// resolveTarget 通过被回复的转发消息解析目标访客。
// 未命中时发送软提示并返回 ok=false。
func (d *Dispatcher) resolveTarget(ctx context.Context, msg *tb.Message) (int64, bool, error) {
	guest, err := d.relay.ResolveReply(ctx, msg.Chat.ID, msg.ReplyTo.ID)
	if errors.Is(err, storage.ErrRouteNotFound) {
		d.metrics.RouteMisses.Inc()
		return 0, false, d.gateway.SendText(ctx, msg.Chat.ID, routeMissNotice)
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to resolve target guest: %w", err)
	}
	return guest, true, nil
}

func (d *Dispatcher) handleBlock(ctx context.Context, msg *tb.Message) error {
	guest, ok, err := d.resolveTarget(ctx, msg)
	if !ok {
		return err
	}

	targetIsOperator, err := d.registry.IsOperator(ctx, guest)
	if err != nil {
		return err
	}
	if targetIsOperator {
		return d.gateway.SendText(ctx, msg.Chat.ID, cannotBlockOpText)
	}

	seconds, reason := domain.ParseBlockArgs(msg.Text)
	if err := d.moderation.Block(ctx, guest, reason, seconds); err != nil {
		return fmt.Errorf("failed to block guest: %w", err)
	}
	return d.gateway.SendText(ctx, msg.Chat.ID, fmt.Sprintf("UID: %d 屏蔽成功", guest))
}

func (d *Dispatcher) handleUnblock(ctx context.Context, msg *tb.Message) error {
	guest, ok, err := d.resolveTarget(ctx, msg)
	if !ok {
		return err
	}

	if err := d.moderation.Unblock(ctx, guest); err != nil {
		return fmt.Errorf("failed to unblock guest: %w", err)
	}
	return d.gateway.SendText(ctx, msg.Chat.ID, fmt.Sprintf("UID: %d 解除屏蔽成功", guest))
}

func (d *Dispatcher) handleCheckBlock(ctx context.Context, msg *tb.Message) error {
	guest, ok, err := d.resolveTarget(ctx, msg)
	if !ok {
		return err
	}

	status, err := d.moderation.Status(ctx, guest)
	if err != nil {
		return fmt.Errorf("failed to load moderation state: %w", err)
	}

	return d.gateway.SendText(ctx, msg.Chat.ID, renderBlockReport(guest, status, time.Now()))
}

// renderBlockReport 渲染 /checkblock 的答复文本
func renderBlockReport(guest int64, status *domain.UserStatus, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "UID: %d ", guest)

	if !status.StateAt(now).Active() {
		b.WriteString("没有被屏蔽")
		return b.String()
	}

	b.WriteString("被屏蔽了")
	if status.Block.Reason != "" {
		fmt.Fprintf(&b, "\n - 原因: %s", status.Block.Reason)
	}
	if status.Block.Expire == 0 {
		b.WriteString("\n - 到期: 永久")
	} else {
		expiry := time.Unix(status.Block.Expire, 0).In(displayZone)
		fmt.Fprintf(&b, "\n - 到期: %s", expiry.Format("2006-01-02 15:04:05"))
	}
	return b.String()
}
