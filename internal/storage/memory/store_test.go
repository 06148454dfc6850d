package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relaybot/backend/internal/domain"
	"relaybot/backend/internal/storage"
)

func TestDelegates(t *testing.T) {
	ctx := context.Background()
	store := NewStore(0)

	t.Run("初始列表为空", func(t *testing.T) {
		delegates, err := store.Delegates(ctx)
		require.NoError(t, err)
		assert.Empty(t, delegates)
	})

	t.Run("追加与过滤", func(t *testing.T) {
		err := store.UpdateDelegates(ctx, func(list []int64) []int64 {
			return append(list, 555)
		})
		require.NoError(t, err)

		delegates, err := store.Delegates(ctx)
		require.NoError(t, err)
		assert.Equal(t, []int64{555}, delegates)

		err = store.UpdateDelegates(ctx, func(list []int64) []int64 {
			out := list[:0]
			for _, id := range list {
				if id != 555 {
					out = append(out, id)
				}
			}
			return out
		})
		require.NoError(t, err)

		delegates, err = store.Delegates(ctx)
		require.NoError(t, err)
		assert.Empty(t, delegates)
	})
}

// 并发追加不会丢失更新：原子读改写保证成员一致。
func TestUpdateDelegatesConcurrent(t *testing.T) {
	ctx := context.Background()
	store := NewStore(0)

	const n = 100
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_ = store.UpdateDelegates(ctx, func(list []int64) []int64 {
				return append(list, id)
			})
		}(int64(i))
	}
	wg.Wait()

	delegates, err := store.Delegates(ctx)
	require.NoError(t, err)
	assert.Len(t, delegates, n)
}

func TestRoutes(t *testing.T) {
	ctx := context.Background()

	t.Run("保存后可解析", func(t *testing.T) {
		store := NewStore(0)
		require.NoError(t, store.SaveRoute(ctx, 100, 42, 9000))

		guest, err := store.Route(ctx, 100, 42)
		require.NoError(t, err)
		assert.Equal(t, int64(9000), guest)
	})

	t.Run("未记录的消息返回未命中", func(t *testing.T) {
		store := NewStore(0)
		_, err := store.Route(ctx, 100, 1)
		assert.ErrorIs(t, err, storage.ErrRouteNotFound)
	})

	t.Run("同键覆盖写入", func(t *testing.T) {
		store := NewStore(0)
		require.NoError(t, store.SaveRoute(ctx, 100, 42, 9000))
		require.NoError(t, store.SaveRoute(ctx, 100, 42, 9001))

		guest, err := store.Route(ctx, 100, 42)
		require.NoError(t, err)
		assert.Equal(t, int64(9001), guest)
	})

	t.Run("过期路由不可解析", func(t *testing.T) {
		store := NewStore(time.Millisecond)
		require.NoError(t, store.SaveRoute(ctx, 100, 42, 9000))

		time.Sleep(5 * time.Millisecond)
		_, err := store.Route(ctx, 100, 42)
		assert.ErrorIs(t, err, storage.ErrRouteNotFound)
	})
}

func TestUserStatus(t *testing.T) {
	ctx := context.Background()
	store := NewStore(0)

	t.Run("无记录返回零值状态", func(t *testing.T) {
		status, err := store.UserStatus(ctx, 42)
		require.NoError(t, err)
		assert.Equal(t, domain.Unblocked, status.StateAt(time.Now()))
	})

	t.Run("写入后读回", func(t *testing.T) {
		in := &domain.UserStatus{
			Blocked: true,
			Block:   &domain.BlockInfo{Reason: "spam", Expire: 0},
		}
		require.NoError(t, store.SaveUserStatus(ctx, 42, in))

		status, err := store.UserStatus(ctx, 42)
		require.NoError(t, err)
		assert.Equal(t, domain.BlockedPermanent, status.StateAt(time.Now()))
		assert.Equal(t, "spam", status.Block.Reason)
	})

	t.Run("读回的是副本", func(t *testing.T) {
		status, err := store.UserStatus(ctx, 42)
		require.NoError(t, err)
		status.Block.Reason = "changed"

		again, err := store.UserStatus(ctx, 42)
		require.NoError(t, err)
		assert.Equal(t, "spam", again.Block.Reason)
	})
}
