/*
 * @Description:
 * @Author: 安知鱼
 * @Date: 2026-03-02 11:30:55
 * @LastEditTime: 2026-03-07 14:22:55
 * @LastEditors: 安知鱼
 */
package database

import (
	"context"
	"log"
	"strconv"

	"github.com/anzhiyu-c/anheyu-archive/pkg/config"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient 返回 Redis 客户端或 nil（用于自动降级）。
// Redis 未配置或连接失败时返回 nil 而不是 error，归档锁会降级为进程内锁。
func NewRedisClient(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	redisAddr := cfg.GetString(config.KeyRedisAddr)
	redisPassword := cfg.GetString(config.KeyRedisPassword)

	if redisAddr == "" {
		log.Println("⚠️  Redis 地址未配置，归档锁将使用进程内锁")
		return nil, nil
	}

	redisDB := 10
	if s := cfg.GetString(config.KeyRedisDB); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			log.Printf("⚠️  无效的 Redis.DB 值 '%s': %v，归档锁将使用进程内锁", s, err)
			return nil, nil
		}
		redisDB = n
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       redisDB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("⚠️  连接 Redis (%s, DB %d) 失败: %v，归档锁将使用进程内锁", redisAddr, redisDB, err)
		rdb.Close()
		return nil, nil
	}

	log.Printf("✅ 成功连接到 Redis (%s, DB %d)", redisAddr, redisDB)
	return rdb, nil
}
