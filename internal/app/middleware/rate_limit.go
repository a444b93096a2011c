/*
 * @Description: 频率限制中间件
 * @Author: 安知鱼
 * @Date: 2026-03-15 00:00:00
 * @LastEditTime: 2026-03-20 15:59:28
 * @LastEditors: 安知鱼
 */
package middleware

import (
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/anzhiyu-c/anheyu-archive/internal/pkg/auth"
	"github.com/anzhiyu-c/anheyu-archive/pkg/response"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// keyRateLimiter 为每个调用者（用户ID，未登录时为IP）维护一个令牌桶
type keyRateLimiter struct {
	limiters map[string]*limiterInfo
	mu       sync.Mutex
	// 每个调用者每分钟允许的请求数
	requestsPerMinute int
	// 突发请求数
	burst int
	// 超过该时间未访问的限流器会被清理
	idleTimeout time.Duration
	// 清理闲置限流器的时间间隔
	cleanupInterval time.Duration
}

// limiterInfo 存储限流器及其最后访问时间
type limiterInfo struct {
	limiter      *rate.Limiter
	lastAccessed time.Time
}

func newKeyRateLimiter(requestsPerMinute, burst int) *keyRateLimiter {
	return &keyRateLimiter{
		limiters:          make(map[string]*limiterInfo),
		requestsPerMinute: requestsPerMinute,
		burst:             burst,
		idleTimeout:       10 * time.Minute,
		cleanupInterval:   5 * time.Minute,
	}
}

func (l *keyRateLimiter) allow(key string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	info, exists := l.limiters[key]
	if !exists {
		info = &limiterInfo{
			limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.requestsPerMinute)), l.burst),
		}
		l.limiters[key] = info
	}
	info.lastAccessed = now
	return info.limiter.AllowN(now, 1)
}

// sweep 删除闲置超过 idleTimeout 的限流器，返回删除数量
func (l *keyRateLimiter) sweep(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for k, info := range l.limiters {
		if now.Sub(info.lastAccessed) > l.idleTimeout {
			delete(l.limiters, k)
			removed++
		}
	}
	return removed
}

// cleanupStaleEntries 定期清理闲置的限流器，随进程一同退出
func (l *keyRateLimiter) cleanupStaleEntries() {
	ticker := time.NewTicker(l.cleanupInterval)
	defer ticker.Stop()

	for now := range ticker.C {
		l.sweep(now)
	}
}

// callerKey 优先使用 JWTAuth 写入的用户ID
func callerKey(c *gin.Context) string {
	if actor, err := auth.ActorFromContext(c); err == nil {
		return fmt.Sprintf("user:%d", actor.UserID)
	}
	return "ip:" + getClientIP(c)
}

// getClientIP 获取客户端真实IP地址
func getClientIP(c *gin.Context) string {
	if ip := c.GetHeader("X-Real-IP"); ip != "" {
		return ip
	}
	if ip := c.GetHeader("X-Forwarded-For"); ip != "" {
		if host, _, err := net.SplitHostPort(ip); err == nil {
			return host
		}
		return ip
	}
	if host, _, err := net.SplitHostPort(c.Request.RemoteAddr); err == nil {
		return host
	}
	return c.Request.RemoteAddr
}

// ArchiveRateLimit 限制归档、恢复这类重操作的调用频率。
// requestsPerMinute <= 0 时不限流。
func ArchiveRateLimit(requestsPerMinute, burst int) gin.HandlerFunc {
	if requestsPerMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if burst <= 0 {
		burst = 1
	}
	limiter := newKeyRateLimiter(requestsPerMinute, burst)
	go limiter.cleanupStaleEntries()

	return func(c *gin.Context) {
		if !limiter.allow(callerKey(c), time.Now()) {
			response.Fail(c, http.StatusTooManyRequests, "操作过于频繁，请稍后再试")
			c.Abort()
			return
		}
		c.Next()
	}
}
