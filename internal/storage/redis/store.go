package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"relaybot/backend/internal/config"
	"relaybot/backend/internal/domain"
	"relaybot/backend/internal/storage"
)

const (
	delegatesKey = "admin-list"

	// 委托名单 CAS 更新的最大重试次数
	maxUpdateRetries = 5
)

// Store 基于 Redis 的持久化实现，对应设计中的外部键值存储。
type Store struct {
	rdb      *goredis.Client
	log      *zap.Logger
	routeTTL time.Duration
}

// New 创建 Redis 存储并验证连接。routeTTL 为 0 时路由映射不过期。
func New(cfg *config.RedisConfig, routeTTL time.Duration, log *zap.Logger) (*Store, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Info("connected to Redis",
		zap.String("address", cfg.Address),
		zap.Int("db", cfg.DB),
	)

	return &Store{
		rdb:      rdb,
		log:      log,
		routeTTL: routeTTL,
	}, nil
}

func routeKey(operator int64, messageID int) string {
	return fmt.Sprintf("msg-map-%d-%d", operator, messageID)
}

func statusKey(chat int64) string {
	return fmt.Sprintf("user-status-%d", chat)
}

// Delegates 返回委托管理员列表。
func (s *Store) Delegates(ctx context.Context) ([]int64, error) {
	data, err := s.rdb.Get(ctx, delegatesKey).Result()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load delegate list: %w", err)
	}

	var list []int64
	if err := json.Unmarshal([]byte(data), &list); err != nil {
		return nil, fmt.Errorf("corrupt delegate list: %w", err)
	}
	return list, nil
}

// UpdateDelegates 通过 WATCH 乐观事务原子地变换委托列表。
// 并发修改导致事务失败时重读重试，而不是盲目覆盖。
func (s *Store) UpdateDelegates(ctx context.Context, mutate func([]int64) []int64) error {
	for i := 0; i < maxUpdateRetries; i++ {
		err := s.rdb.Watch(ctx, func(tx *goredis.Tx) error {
			var list []int64
			data, err := tx.Get(ctx, delegatesKey).Result()
			switch {
			case errors.Is(err, goredis.Nil):
				// 键不存在，从空列表开始
			case err != nil:
				return err
			default:
				if err := json.Unmarshal([]byte(data), &list); err != nil {
					return fmt.Errorf("corrupt delegate list: %w", err)
				}
			}

			next, err := json.Marshal(mutate(list))
			if err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
				pipe.Set(ctx, delegatesKey, next, 0)
				return nil
			})
			return err
		}, delegatesKey)

		if errors.Is(err, goredis.TxFailedErr) {
			s.log.Debug("delegate list changed concurrently, retrying", zap.Int("attempt", i+1))
			continue
		}
		return err
	}
	return fmt.Errorf("delegate list update failed after %d retries", maxUpdateRetries)
}

// SaveRoute 记录转发消息到访客会话的映射，带 TTL 以限制无限增长。
func (s *Store) SaveRoute(ctx context.Context, operator int64, messageID int, guest int64) error {
	return s.rdb.Set(ctx, routeKey(operator, messageID), guest, s.routeTTL).Err()
}

// Route 解析访客会话，未命中返回 ErrRouteNotFound。
func (s *Store) Route(ctx context.Context, operator int64, messageID int) (int64, error) {
	guest, err := s.rdb.Get(ctx, routeKey(operator, messageID)).Int64()
	if errors.Is(err, goredis.Nil) {
		return 0, storage.ErrRouteNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to resolve route: %w", err)
	}
	return guest, nil
}

// UserStatus 读取访客屏蔽记录，不存在时返回零值状态。
func (s *Store) UserStatus(ctx context.Context, chat int64) (*domain.UserStatus, error) {
	data, err := s.rdb.Get(ctx, statusKey(chat)).Result()
	if errors.Is(err, goredis.Nil) {
		return &domain.UserStatus{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user status: %w", err)
	}

	var status domain.UserStatus
	if err := json.Unmarshal([]byte(data), &status); err != nil {
		return nil, fmt.Errorf("corrupt user status: %w", err)
	}
	return &status, nil
}

// SaveUserStatus 覆盖写入访客屏蔽记录。
func (s *Store) SaveUserStatus(ctx context.Context, chat int64, status *domain.UserStatus) error {
	data, err := json.Marshal(status)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, statusKey(chat), data, 0).Err()
}

// Ping 测试 Redis 连接。
func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Close 关闭 Redis 连接。
func (s *Store) Close() error {
	if err := s.rdb.Close(); err != nil {
		s.log.Error("failed to close Redis connection", zap.Error(err))
		return err
	}
	return nil
}
