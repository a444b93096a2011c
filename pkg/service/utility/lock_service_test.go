package utility

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryKeyLockerSerializesSameKey(t *testing.T) {
	locker := NewMemoryKeyLocker()
	ctx := context.Background()

	var (
		inside  int32
		maxSeen int32
		wg      sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(ctx, "user:1")
			require.NoError(t, err)
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxSeen)
				if n <= m || atomic.CompareAndSwapInt32(&maxSeen, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxSeen)
}

func TestMemoryKeyLockerDifferentKeysDoNotBlock(t *testing.T) {
	locker := NewMemoryKeyLocker()
	ctx := context.Background()

	unlockA, err := locker.Lock(ctx, "user:1")
	require.NoError(t, err)
	defer unlockA()

	timeout, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	unlockB, err := locker.Lock(timeout, "user:2")
	require.NoError(t, err)
	unlockB()
}

func TestMemoryKeyLockerHonoursContext(t *testing.T) {
	locker := NewMemoryKeyLocker()
	unlock, err := locker.Lock(context.Background(), "user:1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctx, "user:1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// 重复释放是安全的
	unlock()
	unlock()
	unlock2, err := locker.Lock(context.Background(), "user:1")
	require.NoError(t, err)
	unlock2()
}

func TestMemoryKeyLockerReleasesIdleKeys(t *testing.T) {
	tests := []struct {
		name string
		run  func(t *testing.T, l *memoryKeyLocker)
	}{
		{
			name: "加锁后释放",
			run: func(t *testing.T, l *memoryKeyLocker) {
				for i := 0; i < 100; i++ {
					unlock, err := l.Lock(context.Background(), fmt.Sprintf("user:%d", i))
					require.NoError(t, err)
					unlock()
				}
			},
		},
		{
			name: "等待者超时退出",
			run: func(t *testing.T, l *memoryKeyLocker) {
				unlock, err := l.Lock(context.Background(), "user:1")
				require.NoError(t, err)
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
				defer cancel()
				_, err = l.Lock(ctx, "user:1")
				require.Error(t, err)
				assert.Equal(t, 1, l.size(), "持有者仍在，条目保留")
				unlock()
			},
		},
		{
			name: "并发争用同一个键",
			run: func(t *testing.T, l *memoryKeyLocker) {
				var wg sync.WaitGroup
				for i := 0; i < 16; i++ {
					wg.Add(1)
					go func() {
						defer wg.Done()
						unlock, err := l.Lock(context.Background(), "user:hot")
						if assert.NoError(t, err) {
							unlock()
						}
					}()
				}
				wg.Wait()
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewMemoryKeyLocker().(*memoryKeyLocker)
			tt.run(t, l)
			assert.Zero(t, l.size())
		})
	}
}

func TestNewKeyLockerWithFallback(t *testing.T) {
	_, ok := NewKeyLockerWithFallback(nil).(*memoryKeyLocker)
	assert.True(t, ok)
}
