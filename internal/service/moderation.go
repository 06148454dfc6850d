package service

import (
	"context"
	"time"

	"relaybot/backend/internal/domain"
	"relaybot/backend/internal/storage"
)

// ModerationService 维护访客的屏蔽状态机。
// 记录只增改不删除：解除屏蔽写入 blocked:false，
// 到期的限时屏蔽保留记录但不再生效。
type ModerationService struct {
	repo storage.ModerationRepository
}

// NewModerationService 创建屏蔽管理服务。
func NewModerationService(repo storage.ModerationRepository) *ModerationService {
	return &ModerationService{repo: repo}
}

// Block 屏蔽访客。seconds 大于 0 表示限时屏蔽，等于 0 表示永久。
func (s *ModerationService) Block(ctx context.Context, guest int64, reason string, seconds int64) error {
	block := &domain.BlockInfo{Reason: reason}
	if seconds > 0 {
		block.Expire = time.Now().Unix() + seconds
	}
	return s.repo.SaveUserStatus(ctx, guest, &domain.UserStatus{
		Blocked: true,
		Block:   block,
	})
}

// Unblock 无条件解除屏蔽，包括从未被屏蔽的访客。
func (s *ModerationService) Unblock(ctx context.Context, guest int64) error {
	return s.repo.SaveUserStatus(ctx, guest, &domain.UserStatus{Blocked: false})
}

// Status 读取访客当前的屏蔽记录。
func (s *ModerationService) Status(ctx context.Context, guest int64) (*domain.UserStatus, error) {
	return s.repo.UserStatus(ctx, guest)
}
