// internal/app/middleware/auth.go
package middleware

import (
	"log"
	"strings"

	"github.com/anzhiyu-c/anheyu-archive/internal/pkg/auth"
	"github.com/anzhiyu-c/anheyu-archive/pkg/constant"
	"github.com/anzhiyu-c/anheyu-archive/pkg/domain/model"
	"github.com/anzhiyu-c/anheyu-archive/pkg/response"

	"github.com/gin-gonic/gin"
)

type Middleware struct {
	jwtSecret []byte
}

func NewMiddleware(jwtSecret string) *Middleware {
	return &Middleware{jwtSecret: []byte(jwtSecret)}
}

// JWTAuth 是一个强制性的JWT认证中间件
func (m *Middleware) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.Request.Header.Get("Authorization")
		if authHeader == "" {
			response.Error(c, constant.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			log.Printf("[JWTAuth] Token格式不正确: %s %s", c.Request.Method, c.Request.URL.Path)
			response.Error(c, constant.ErrUnauthorized)
			c.Abort()
			return
		}

		claims, err := auth.ParseToken(parts[1], m.jwtSecret)
		if err != nil {
			log.Printf("[JWTAuth] JWT token解析失败: %v", err)
			response.Error(c, constant.ErrUnauthorized)
			c.Abort()
			return
		}

		c.Set(auth.ClaimsKey, claims)
		c.Next()
	}
}

// RequireCapability 要求调用者的角色拥有指定能力，必须放在 JWTAuth 之后
func (m *Middleware) RequireCapability(capability model.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := auth.ActorFromContext(c)
		if err != nil {
			log.Printf("[AdminAuth] 权限信息获取失败: %v", err)
			response.Error(c, constant.ErrForbidden)
			c.Abort()
			return
		}

		if !actor.Role.Can(capability) {
			log.Printf("[AdminAuth] 权限不足: 用户 %d 的角色 %s 无法执行 %s %s", actor.UserID, actor.Role, c.Request.Method, c.Request.URL.Path)
			response.Error(c, constant.ErrForbidden)
			c.Abort()
			return
		}

		c.Next()
	}
}

// AdminAuth 是归档管理接口的权限验证中间件
func (m *Middleware) AdminAuth() gin.HandlerFunc {
	return m.RequireCapability(model.CapabilityManageArchive)
}

// Recovery 捕获 Handler 中的 panic，按统一结构返回 500，不泄露 panic 内容
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Printf("[Recovery] %s %s 发生 panic: %v", c.Request.Method, c.Request.URL.Path, recovered)
		response.Error(c, constant.ErrInternalServer)
		c.Abort()
	})
}
