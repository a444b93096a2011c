/*
 * @Description:
 * @Author: 安知鱼
 * @Date: 2026-03-15 11:30:55
 * @LastEditTime: 2026-03-21 18:26:37
 * @LastEditors: 安知鱼
 */
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/anzhiyu-c/anheyu-archive/internal/app/middleware"
	archive_handler "github.com/anzhiyu-c/anheyu-archive/pkg/handler/archive"
	archived_user_handler "github.com/anzhiyu-c/anheyu-archive/pkg/handler/archived_user"
	user_handler "github.com/anzhiyu-c/anheyu-archive/pkg/handler/user"
)

// NoCacheMiddleware 全局反缓存中间件，确保所有API响应都不会被CDN缓存
func NoCacheMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-cache, no-store, must-revalidate, private, max-age=0")
		c.Header("Pragma", "no-cache")
		c.Header("Expires", "0")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Next()
	}
}

// Router 封装了应用的所有路由和其依赖的处理器。
type Router struct {
	archiveHandler      *archive_handler.Handler
	archivedUserHandler *archived_user_handler.Handler
	userHandler         *user_handler.UserHandler
	mw                  *middleware.Middleware

	// 归档、恢复接口的限流，每分钟次数
	archiveRateLimit int
}

// NewRouter 是 Router 的构造函数，通过依赖注入接收所有处理器。
func NewRouter(
	archiveHandler *archive_handler.Handler,
	archivedUserHandler *archived_user_handler.Handler,
	userHandler *user_handler.UserHandler,
	mw *middleware.Middleware,
	archiveRateLimit int,
) *Router {
	return &Router{
		archiveHandler:      archiveHandler,
		archivedUserHandler: archivedUserHandler,
		userHandler:         userHandler,
		mw:                  mw,
		archiveRateLimit:    archiveRateLimit,
	}
}

// Setup 将所有路由注册到 Gin 引擎。
func (r *Router) Setup(engine *gin.Engine) {
	apiGroup := engine.Group("/api")
	apiGroup.Use(NoCacheMiddleware())

	r.registerPostArchiveRoutes(apiGroup)
	r.registerArchivedPostRoutes(apiGroup)
	r.registerArchivedUserRoutes(apiGroup)
	r.registerUserRoutes(apiGroup)
}
