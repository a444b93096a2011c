/*
 * @Description:
 * @Author: 安知鱼
 * @Date: 2026-03-16 00:21:55
 * @LastEditTime: 2026-03-22 12:19:06
 * @LastEditors: 安知鱼
 */
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/anzhiyu-c/anheyu-archive/cmd/server"
	"github.com/anzhiyu-c/anheyu-archive/internal/pkg/auth"
	"github.com/anzhiyu-c/anheyu-archive/internal/pkg/version"
	"github.com/anzhiyu-c/anheyu-archive/pkg/config"
	"github.com/anzhiyu-c/anheyu-archive/pkg/domain/model"
)

// @title           Anheyu Archive API
// @version         1.0
// @description     Anheyu 文章与用户归档服务接口文档

// @contact.name   安知鱼
// @contact.url    https://github.com/anzhiyu-c/anheyu-archive

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8091
// @BasePath  /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description 在请求头中添加 Bearer Token，格式为: Bearer {token}
func main() {
	// 解析命令行参数
	var (
		showVersion bool
		tokenUser   uint
		tokenRole   string
	)
	flag.BoolVar(&showVersion, "version", false, "打印版本号并退出")
	flag.UintVar(&tokenUser, "issue-token", 0, "使用配置的 JWT 密钥为指定用户ID签发令牌并退出")
	flag.StringVar(&tokenRole, "role", "user", "签发令牌时使用的角色 (admin/user)")
	flag.Parse()

	if showVersion {
		fmt.Println(version.GetVersionString())
		return
	}

	if tokenUser != 0 {
		if err := issueToken(tokenUser, tokenRole); err != nil {
			log.Fatalf("签发令牌失败: %v", err)
		}
		return
	}

	// 调用位于 cmd/server 包中的 NewApp 函数来构建整个应用
	app, cleanup, err := server.NewApp()
	if err != nil {
		if cleanup != nil {
			cleanup()
		}
		log.Fatalf("应用初始化失败: %v", err)
	}

	// 使用 defer 来确保 cleanup 函数在 main 退出时被调用
	defer cleanup()

	// 确保后台任务在程序退出时被停止
	defer app.Stop()

	app.PrintBanner()

	// 启动应用
	if err := app.Run(); err != nil {
		log.Printf("应用运行失败: %v", err)
	}
}

// issueToken 只用于运维调试，密钥必须显式配置
func issueToken(userID uint, role string) error {
	cfg, err := config.NewConfig()
	if err != nil {
		return err
	}
	secret := cfg.GetString(config.KeyJWTSecret)
	if secret == "" {
		return fmt.Errorf("未配置 %s", config.KeyJWTSecret)
	}
	r, err := model.ParseRole(role)
	if err != nil {
		return err
	}
	token, err := auth.GenerateToken(userID, r, []byte(secret))
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
