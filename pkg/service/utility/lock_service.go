/*
 * @Description: 按键加锁，优先使用 Redis，不可用时降级到进程内锁
 * @Author: 安知鱼
 * @Date: 2026-03-06 01:41:43
 * @LastEditTime: 2026-03-20 10:13:11
 * @LastEditors: 安知鱼
 */
package utility

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// KeyLocker 提供了一个基于字符串键（例如，用户ID）的锁机制。
// 它能确保对同一个键的耗时操作（如归档用户）不会被并发执行。
type KeyLocker interface {
	// Lock 阻塞直到拿到锁或 ctx 结束，返回的 unlock 只能调用一次
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

const (
	lockKeyPrefix    = "anheyu:lock:"
	lockTTL          = 30 * time.Second
	lockPollInterval = 50 * time.Millisecond
)

// NewKeyLockerWithFallback 创建带有自动降级功能的锁服务
// 如果 redisClient 为 nil，自动降级到进程内锁
func NewKeyLockerWithFallback(redisClient *redis.Client) KeyLocker {
	if redisClient == nil {
		log.Println("🔄 使用进程内锁（Memory Locker）")
		return NewMemoryKeyLocker()
	}
	log.Println("✅ 使用 Redis 分布式锁")
	return NewRedisKeyLocker(redisClient)
}

// --- 进程内实现 ---

// memoryKeyLocker 每个键对应一个容量为 1 的通道，以支持 ctx 取消。
// refs 统计持有者与等待者，归零时删除条目
type memoryKeyLocker struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

// NewMemoryKeyLocker 创建一个新的进程内锁实例。
func NewMemoryKeyLocker() KeyLocker {
	return &memoryKeyLocker{
		locks: make(map[string]*keyLock),
	}
}

func (l *memoryKeyLocker) acquireRef(key string) *keyLock {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock, ok := l.locks[key]
	if !ok {
		lock = &keyLock{ch: make(chan struct{}, 1)}
		l.locks[key] = lock
	}
	lock.refs++
	return lock
}

func (l *memoryKeyLocker) releaseRef(key string, lock *keyLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock.refs--
	if lock.refs == 0 {
		delete(l.locks, key)
	}
}

func (l *memoryKeyLocker) Lock(ctx context.Context, key string) (func(), error) {
	lock := l.acquireRef(key)

	select {
	case lock.ch <- struct{}{}:
	case <-ctx.Done():
		l.releaseRef(key, lock)
		return nil, fmt.Errorf("等待锁 %s 超时: %w", key, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-lock.ch
			l.releaseRef(key, lock)
		})
	}, nil
}

// size 返回仍在使用的键数量
func (l *memoryKeyLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

// --- Redis 实现 ---

// unlockScript 只删除自己持有的锁
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type redisKeyLocker struct {
	client *redis.Client
}

// NewRedisKeyLocker 是 redisKeyLocker 的构造函数
func NewRedisKeyLocker(client *redis.Client) KeyLocker {
	return &redisKeyLocker{client: client}
}

func (l *redisKeyLocker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := lockKeyPrefix + key
	token := uuid.New().String()

	ticker := time.NewTicker(lockPollInterval)
	defer ticker.Stop()
	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, lockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("获取 Redis 锁 %s 失败: %w", key, err)
		}
		if ok {
			break
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil, fmt.Errorf("等待锁 %s 超时: %w", key, ctx.Err())
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// 请求 ctx 可能已结束，释放锁使用独立的 ctx
			releaseCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			if err := unlockScript.Run(releaseCtx, l.client, []string{redisKey}, token).Err(); err != nil {
				log.Printf("【锁】释放 Redis 锁 %s 失败，将在 %s 后自动过期: %v", key, lockTTL, err)
			}
		})
	}, nil
}
