package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	tb "gopkg.in/telebot.v3"

	"relaybot/backend/internal/config"
	"relaybot/backend/internal/domain"
	"relaybot/backend/internal/monitoring"
	"relaybot/backend/internal/storage/memory"
)

// sentMessage 记录一次文本发送
type sentMessage struct {
	Chat     int64
	Text     string
	Markdown bool
}

// forwardCall 记录一次转发
type forwardCall struct {
	To        int64
	FromChat  int64
	MessageID int
	NewID     int
}

// copyCall 记录一次副本发送
type copyCall struct {
	To        int64
	FromChat  int64
	MessageID int
}

// fakeGateway 可编程的出站网关假实现
type fakeGateway struct {
	mu sync.Mutex

	Sent     []sentMessage
	Forwards []forwardCall
	Copies   []copyCall

	nextForwardID int
	failForwardTo map[int64]bool
	profiles      map[int64]*domain.ChatProfile
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		nextForwardID: 1000,
		failForwardTo: make(map[int64]bool),
		profiles:      make(map[int64]*domain.ChatProfile),
	}
}

func (g *fakeGateway) SendText(ctx context.Context, chat int64, text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Sent = append(g.Sent, sentMessage{Chat: chat, Text: text})
	return nil
}

func (g *fakeGateway) SendMarkdown(ctx context.Context, chat int64, text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Sent = append(g.Sent, sentMessage{Chat: chat, Text: text, Markdown: true})
	return nil
}

func (g *fakeGateway) Forward(ctx context.Context, to, fromChat int64, messageID int) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failForwardTo[to] {
		return 0, fmt.Errorf("forward to %d failed", to)
	}
	g.nextForwardID++
	g.Forwards = append(g.Forwards, forwardCall{
		To: to, FromChat: fromChat, MessageID: messageID, NewID: g.nextForwardID,
	})
	return g.nextForwardID, nil
}

func (g *fakeGateway) Copy(ctx context.Context, to, fromChat int64, messageID int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Copies = append(g.Copies, copyCall{To: to, FromChat: fromChat, MessageID: messageID})
	return nil
}

func (g *fakeGateway) ChatProfile(ctx context.Context, id int64) (*domain.ChatProfile, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if profile, ok := g.profiles[id]; ok {
		return profile, nil
	}
	return nil, fmt.Errorf("chat %d not found", id)
}

// sentTo 返回发给指定会话的全部文本
func (g *fakeGateway) sentTo(chat int64) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []string
	for _, m := range g.Sent {
		if m.Chat == chat {
			out = append(out, m.Text)
		}
	}
	return out
}

// forwardTo 返回发给指定操作员的转发记录
func (g *fakeGateway) forwardTo(operator int64) []forwardCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []forwardCall
	for _, f := range g.Forwards {
		if f.To == operator {
			out = append(out, f)
		}
	}
	return out
}

// fakeFraud 可编程的欺诈名单假实现
type fakeFraud struct {
	ids map[int64]bool
	err error
}

func (f *fakeFraud) IsFraud(ctx context.Context, id int64) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.ids[id], nil
}

// testEnv 聚合一套完整的被测组件
type testEnv struct {
	store      *memory.Store
	gateway    *fakeGateway
	fraud      *fakeFraud
	registry   *Registry
	moderation *ModerationService
	relay      *RelayService
	dispatcher *Dispatcher
}

const testOwner int64 = 10001

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memory.NewStore(0)
	gateway := newFakeGateway()
	fraud := &fakeFraud{ids: make(map[int64]bool)}
	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
	log := zap.NewNop()

	registry := NewRegistry(testOwner, store)
	moderation := NewModerationService(store)
	relay := NewRelayService(store, moderation, registry, gateway, fraud, metrics, log)
	dispatcher := NewDispatcher(registry, moderation, relay, gateway, &config.BotConfig{
		OwnerUID:      testOwner,
		StartMessage:  "guest welcome",
		AdminStartMsg: "admin welcome",
	}, metrics, log)

	return &testEnv{
		store:      store,
		gateway:    gateway,
		fraud:      fraud,
		registry:   registry,
		moderation: moderation,
		relay:      relay,
		dispatcher: dispatcher,
	}
}

// guestMessage 构造一条访客消息
func guestMessage(chat int64, id int, text string) *tb.Message {
	return &tb.Message{
		ID:   id,
		Text: text,
		Chat: &tb.Chat{ID: chat},
	}
}

// operatorReply 构造一条操作员对转发消息的回复
func operatorReply(operator int64, id int, text string, replyToID int) *tb.Message {
	return &tb.Message{
		ID:      id,
		Text:    text,
		Chat:    &tb.Chat{ID: operator},
		ReplyTo: &tb.Message{ID: replyToID, Chat: &tb.Chat{ID: operator}},
	}
}

func update(msg *tb.Message) tb.Update {
	return tb.Update{ID: 1, Message: msg}
}

// mustBlockState 读取访客当前状态
func (e *testEnv) mustBlockState(t *testing.T, guest int64) domain.BlockState {
	t.Helper()
	status, err := e.moderation.Status(context.Background(), guest)
	if err != nil {
		t.Fatalf("failed to load status: %v", err)
	}
	return status.StateAt(time.Now())
}
