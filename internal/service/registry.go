package service

import (
	"context"

	"relaybot/backend/internal/storage"
)

// Registry 管理操作员名册：一名部署期配置的永久所有者，
// 加上运行期可增删的委托管理员。所有者隐式属于操作员集合，
// 无论委托名单内容如何。
type Registry struct {
	owner int64
	repo  storage.DelegateRepository
}

// NewRegistry 创建操作员名册服务。
func NewRegistry(owner int64, repo storage.DelegateRepository) *Registry {
	return &Registry{owner: owner, repo: repo}
}

// Owner 返回所有者 ID。
func (r *Registry) Owner() int64 { return r.owner }

// IsOwner 报告 id 是否为所有者。
func (r *Registry) IsOwner(id int64) bool { return id == r.owner }

// IsOperator 报告 id 是否为所有者或委托管理员。
func (r *Registry) IsOperator(ctx context.Context, id int64) (bool, error) {
	if id == r.owner {
		return true, nil
	}
	delegates, err := r.repo.Delegates(ctx)
	if err != nil {
		return false, err
	}
	for _, delegate := range delegates {
		if delegate == id {
			return true, nil
		}
	}
	return false, nil
}

// Operators 返回全部操作员，所有者排在首位。
func (r *Registry) Operators(ctx context.Context) ([]int64, error) {
	delegates, err := r.repo.Delegates(ctx)
	if err != nil {
		return nil, err
	}
	return append([]int64{r.owner}, delegates...), nil
}

// AddDelegate 追加委托管理员。不做去重，重复追加产生重复条目。
func (r *Registry) AddDelegate(ctx context.Context, id int64) error {
	return r.repo.UpdateDelegates(ctx, func(list []int64) []int64 {
		return append(list, id)
	})
}

// RemoveDelegate 移除委托管理员的所有同 ID 条目。
func (r *Registry) RemoveDelegate(ctx context.Context, id int64) error {
	return r.repo.UpdateDelegates(ctx, func(list []int64) []int64 {
		out := list[:0]
		for _, delegate := range list {
			if delegate != id {
				out = append(out, delegate)
			}
		}
		return out
	})
}
