package router

import (
	"github.com/anzhiyu-c/anheyu-archive/internal/app/middleware"
	"github.com/anzhiyu-c/anheyu-archive/pkg/domain/model"

	"github.com/gin-gonic/gin"
)

// registerPostArchiveRoutes 作者归档自己的文章，权限在业务层按所有权判断
func (r *Router) registerPostArchiveRoutes(api *gin.RouterGroup) {
	posts := api.Group("/posts").Use(r.mw.JWTAuth(), middleware.ArchiveRateLimit(r.archiveRateLimit, 5))
	{
		// 归档文章: POST /api/posts/:id/archive
		posts.POST("/:id/archive", r.archiveHandler.ArchivePost)
	}
}

// registerArchivedPostRoutes 注册归档文章管理路由
func (r *Router) registerArchivedPostRoutes(api *gin.RouterGroup) {
	archivedPosts := api.Group("/admin/archived-posts").Use(r.mw.JWTAuth(), r.mw.AdminAuth())
	{
		archivedPosts.GET("", r.archiveHandler.ListArchivedPosts)
		archivedPosts.GET("/:id", r.archiveHandler.GetArchivedPost)
		archivedPosts.GET("/:id/comments", r.archiveHandler.ListArchivedComments)
		archivedPosts.POST("/:id/restore", middleware.ArchiveRateLimit(r.archiveRateLimit, 5), r.archiveHandler.RestoreArchivedPost)
		archivedPosts.DELETE("/:id", r.archiveHandler.DeleteArchivedPost)
	}
}

// registerArchivedUserRoutes 注册用户级归档路由
func (r *Router) registerArchivedUserRoutes(api *gin.RouterGroup) {
	limit := middleware.ArchiveRateLimit(r.archiveRateLimit, 5)

	admin := api.Group("/admin").Use(r.mw.JWTAuth(), r.mw.RequireCapability(model.CapabilityManageUsers))
	{
		// 归档用户: POST /api/admin/users/:id/archive
		admin.POST("/users/:id/archive", limit, r.archivedUserHandler.ArchiveUser)

		admin.GET("/archived-users", r.archivedUserHandler.ListArchivedUsers)
		admin.GET("/archived-users/:id", r.archivedUserHandler.GetArchivedUser)
		// 恢复用户: POST /api/admin/archived-users/:id/restore
		admin.POST("/archived-users/:id/restore", limit, r.archivedUserHandler.RestoreUser)
	}
}

// registerUserRoutes 注册用户启用、停用路由
func (r *Router) registerUserRoutes(api *gin.RouterGroup) {
	users := api.Group("/admin/users").Use(r.mw.JWTAuth(), r.mw.RequireCapability(model.CapabilityManageUsers))
	{
		users.POST("/:id/deactivate", r.userHandler.Deactivate)
		users.POST("/:id/activate", r.userHandler.Activate)
	}
}
