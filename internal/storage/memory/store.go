package memory

import (
	"context"
	"sync"
	"time"

	"relaybot/backend/internal/domain"
	"relaybot/backend/internal/storage"
)

type routeKey struct {
	operator  int64
	messageID int
}

type routeEntry struct {
	guest     int64
	expiresAt time.Time // 零值表示不过期
}

// Store 使用内存保存名单、路由与屏蔽记录，主要用于开发验证与测试。
// 互斥锁在这里模拟外部存储的原子更新原语，业务代码自身不持锁。
type Store struct {
	mu        sync.RWMutex
	delegates []int64
	routes    map[routeKey]routeEntry
	statuses  map[int64]*domain.UserStatus

	routeTTL time.Duration
}

// NewStore 创建一个内存存储实例。routeTTL 为 0 时路由映射不过期。
func NewStore(routeTTL time.Duration) *Store {
	return &Store{
		routes:   make(map[routeKey]routeEntry),
		statuses: make(map[int64]*domain.UserStatus),
		routeTTL: routeTTL,
	}
}

// Delegates 返回委托管理员列表。
func (s *Store) Delegates(ctx context.Context) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]int64, len(s.delegates))
	copy(out, s.delegates)
	return out, nil
}

// UpdateDelegates 原子地变换委托管理员列表。
func (s *Store) UpdateDelegates(ctx context.Context, mutate func([]int64) []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := make([]int64, len(s.delegates))
	copy(current, s.delegates)
	s.delegates = mutate(current)
	return nil
}

// SaveRoute 记录转发消息到访客会话的映射。
func (s *Store) SaveRoute(ctx context.Context, operator int64, messageID int, guest int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := routeEntry{guest: guest}
	if s.routeTTL > 0 {
		entry.expiresAt = time.Now().Add(s.routeTTL)
	}
	s.routes[routeKey{operator: operator, messageID: messageID}] = entry
	return nil
}

// Route 解析访客会话，过期或不存在返回 ErrRouteNotFound。
func (s *Store) Route(ctx context.Context, operator int64, messageID int) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.routes[routeKey{operator: operator, messageID: messageID}]
	if !ok {
		return 0, storage.ErrRouteNotFound
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		return 0, storage.ErrRouteNotFound
	}
	return entry.guest, nil
}

// UserStatus 读取访客屏蔽记录。
func (s *Store) UserStatus(ctx context.Context, chat int64) (*domain.UserStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status, ok := s.statuses[chat]
	if !ok {
		return &domain.UserStatus{}, nil
	}
	clone := *status
	if status.Block != nil {
		block := *status.Block
		clone.Block = &block
	}
	return &clone, nil
}

// SaveUserStatus 覆盖写入访客屏蔽记录。
func (s *Store) SaveUserStatus(ctx context.Context, chat int64, status *domain.UserStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *status
	if status.Block != nil {
		block := *status.Block
		clone.Block = &block
	}
	s.statuses[chat] = &clone
	return nil
}

// Ping 内存存储永远可用。
func (s *Store) Ping(ctx context.Context) error { return nil }

// Close 关闭存储，内存实现无事可做。
func (s *Store) Close() error { return nil }
