package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUserStatusStateAt(t *testing.T) {
	now := time.Now()

	t.Run("空记录未屏蔽", func(t *testing.T) {
		var status *UserStatus
		assert.Equal(t, Unblocked, status.StateAt(now))
	})

	t.Run("blocked为false未屏蔽", func(t *testing.T) {
		status := &UserStatus{Blocked: false}
		assert.Equal(t, Unblocked, status.StateAt(now))
	})

	t.Run("缺少block细节不构成屏蔽", func(t *testing.T) {
		status := &UserStatus{Blocked: true}
		assert.Equal(t, Unblocked, status.StateAt(now))
	})

	t.Run("expire为0永久屏蔽", func(t *testing.T) {
		status := &UserStatus{Blocked: true, Block: &BlockInfo{Reason: "spam", Expire: 0}}
		assert.Equal(t, BlockedPermanent, status.StateAt(now))
		assert.True(t, status.StateAt(now).Active())
	})

	t.Run("限时屏蔽未到期", func(t *testing.T) {
		status := &UserStatus{Blocked: true, Block: &BlockInfo{Expire: now.Add(time.Hour).Unix()}}
		assert.Equal(t, BlockedTimed, status.StateAt(now))
		assert.True(t, status.StateAt(now).Active())
	})

	t.Run("到期后自动失效但记录保留", func(t *testing.T) {
		status := &UserStatus{Blocked: true, Block: &BlockInfo{Expire: now.Add(-time.Second).Unix()}}
		assert.Equal(t, BlockedLapsed, status.StateAt(now))
		assert.False(t, status.StateAt(now).Active())
	})
}
