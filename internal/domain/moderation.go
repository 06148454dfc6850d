package domain

import "time"

// BlockState 访客的有效屏蔽状态
type BlockState int

const (
	// Unblocked 未被屏蔽（无记录或 blocked:false）
	Unblocked BlockState = iota
	// BlockedPermanent 永久屏蔽（expire == 0）
	BlockedPermanent
	// BlockedTimed 限时屏蔽（expire > now）
	BlockedTimed
	// BlockedLapsed 已过期的限时屏蔽，记录保留但不再生效
	BlockedLapsed
)

// String 返回状态的可读名称
func (s BlockState) String() string {
	switch s {
	case BlockedPermanent:
		return "blocked-permanent"
	case BlockedTimed:
		return "blocked-timed"
	case BlockedLapsed:
		return "blocked-lapsed"
	default:
		return "unblocked"
	}
}

// Active 报告该状态是否应当拦截访客消息
func (s BlockState) Active() bool {
	return s == BlockedPermanent || s == BlockedTimed
}

// BlockInfo 一次屏蔽操作的细节
type BlockInfo struct {
	Reason string `json:"reason"`
	// Expire 到期时间（Unix 秒），0 表示永久
	Expire int64 `json:"expire"`
}

// UserStatus 持久化的访客屏蔽记录。
// 缺少 Block 字段的记录无论 Blocked 为何值都不构成有效屏蔽。
type UserStatus struct {
	Blocked bool       `json:"blocked"`
	Block   *BlockInfo `json:"block,omitempty"`
}

// StateAt 计算给定时刻的有效屏蔽状态
func (u *UserStatus) StateAt(now time.Time) BlockState {
	if u == nil || !u.Blocked || u.Block == nil {
		return Unblocked
	}
	if u.Block.Expire == 0 {
		return BlockedPermanent
	}
	if u.Block.Expire > now.Unix() {
		return BlockedTimed
	}
	return BlockedLapsed
}
