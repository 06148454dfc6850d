package storage

import (
	"context"
	"errors"

	"relaybot/backend/internal/domain"
)

var (
	// ErrRouteNotFound 回复路由缺失：被回复的消息不是本系统转发的
	ErrRouteNotFound = errors.New("route not found")
)

// DelegateRepository 定义委托管理员名单的存取操作。
// 名单整体序列化在单个键下，修改必须通过 UpdateDelegates 的
// 原子读改写完成，避免并发编辑互相覆盖。
type DelegateRepository interface {
	// Delegates 返回委托管理员列表，键不存在时返回空列表
	Delegates(ctx context.Context) ([]int64, error)
	// UpdateDelegates 原子地读取、变换并写回委托列表
	UpdateDelegates(ctx context.Context, mutate func([]int64) []int64) error
}

// RouteRepository 定义转发消息与来源访客会话的关联映射操作。
type RouteRepository interface {
	// SaveRoute 记录 (管理员, 转发消息ID) 到访客会话的映射，无条件覆盖
	SaveRoute(ctx context.Context, operator int64, messageID int, guest int64) error
	// Route 解析管理员回复对应的访客会话，未命中返回 ErrRouteNotFound
	Route(ctx context.Context, operator int64, messageID int) (int64, error)
}

// ModerationRepository 定义访客屏蔽记录的存取操作。
type ModerationRepository interface {
	// UserStatus 读取访客屏蔽记录，不存在时返回零值状态
	UserStatus(ctx context.Context, chat int64) (*domain.UserStatus, error)
	// SaveUserStatus 覆盖写入访客屏蔽记录
	SaveUserStatus(ctx context.Context, chat int64, status *domain.UserStatus) error
}

// Repository 聚合本服务依赖的全部持久化操作。
type Repository interface {
	DelegateRepository
	RouteRepository
	ModerationRepository

	Ping(ctx context.Context) error
	Close() error
}
