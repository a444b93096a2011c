/*
 * @Description: 启动引导：解析密钥并初始化公共ID编码器
 * @Author: 安知鱼
 * @Date: 2026-03-12 09:40:18
 * @LastEditTime: 2026-03-21 18:02:44
 * @LastEditors: 安知鱼
 */
// internal/app/bootstrap/bootstrap.go
package bootstrap

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log"

	"github.com/anzhiyu-c/anheyu-archive/pkg/config"
	"github.com/anzhiyu-c/anheyu-archive/pkg/idgen"
)

const jwtSecretLength = 32

type Bootstrapper struct {
	cfg *config.Config
}

func NewBootstrapper(cfg *config.Config) *Bootstrapper {
	return &Bootstrapper{cfg: cfg}
}

// Run 依次完成启动前的准备工作，返回最终使用的 JWT 密钥。
func (b *Bootstrapper) Run() (string, error) {
	log.Println("--- 开始执行启动引导程序 ---")

	secret, err := b.resolveJWTSecret()
	if err != nil {
		return "", err
	}
	if err := b.initPublicIDs(); err != nil {
		return "", err
	}

	log.Println("--- 启动引导程序执行完成 ---")
	return secret, nil
}

// resolveJWTSecret 未配置时生成临时密钥，重启后旧令牌全部失效。
func (b *Bootstrapper) resolveJWTSecret() (string, error) {
	if secret := b.cfg.GetString(config.KeyJWTSecret); secret != "" {
		return secret, nil
	}
	secret, err := generateRandomString(jwtSecretLength)
	if err != nil {
		return "", fmt.Errorf("生成 JWT 密钥失败: %w", err)
	}
	log.Printf("⚠️  未配置 %s，已生成临时密钥，重启后需要重新签发令牌", config.KeyJWTSecret)
	return secret, nil
}

// initPublicIDs 种子为空时使用默认字母表
func (b *Bootstrapper) initPublicIDs() error {
	seed := b.cfg.GetString(config.KeyIDSeed)
	if seed == "" {
		log.Println("📦 未配置 IDSeed，公共ID使用默认字母表")
		if err := idgen.InitSqidsEncoder(); err != nil {
			return fmt.Errorf("初始化公共ID编码器失败: %w", err)
		}
		return nil
	}
	if err := idgen.InitSqidsEncoderWithSeed(seed); err != nil {
		return fmt.Errorf("初始化公共ID编码器失败: %w", err)
	}
	log.Println("📦 已使用配置的 IDSeed 初始化公共ID编码器")
	return nil
}

func generateRandomString(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	// 使用 Base64 URL 编码，避免特殊字符问题
	return base64.URLEncoding.EncodeToString(bytes)[:length], nil
}
