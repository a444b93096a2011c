package user

import (
	"context"
	"net/http"

	"github.com/anzhiyu-c/anheyu-archive/pkg/domain/model"
	"github.com/anzhiyu-c/anheyu-archive/pkg/idgen"
	"github.com/anzhiyu-c/anheyu-archive/pkg/response"
	user_service "github.com/anzhiyu-c/anheyu-archive/pkg/service/user"

	"github.com/gin-gonic/gin"
)

// UserHandler 封装了用户状态管理相关的控制器方法
type UserHandler struct {
	userSvc user_service.UserService
}

// NewUserHandler 是 UserHandler 的构造函数
func NewUserHandler(userSvc user_service.UserService) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

// Deactivate
// @Summary      停用用户
// @Tags         用户管理
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "用户公共ID"
// @Success      200 {object} response.Response{data=model.UserStatusResponse} "停用成功"
// @Failure      404 {object} response.Response "用户不存在"
// @Failure      409 {object} response.Response "用户已处于停用状态"
// @Router       /admin/users/{id}/deactivate [post]
func (h *UserHandler) Deactivate(c *gin.Context) {
	h.setActive(c, h.userSvc.Deactivate, "用户已停用")
}

// Activate
// @Summary      启用用户
// @Tags         用户管理
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "用户公共ID"
// @Success      200 {object} response.Response{data=model.UserStatusResponse} "启用成功"
// @Failure      404 {object} response.Response "用户不存在"
// @Failure      409 {object} response.Response "用户已处于启用状态"
// @Router       /admin/users/{id}/activate [post]
func (h *UserHandler) Activate(c *gin.Context) {
	h.setActive(c, h.userSvc.Activate, "用户已启用")
}

func (h *UserHandler) setActive(
	c *gin.Context,
	fn func(ctx context.Context, userID uint) (*model.UserStatusResult, error),
	message string,
) {
	userID, err := idgen.DecodeTyped(c.Param("id"), idgen.EntityTypeUser)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "无效的用户ID")
		return
	}

	result, err := fn(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, model.UserStatusResponse{
		Success:     true,
		UserID:      idgen.MustPublicID(result.UserID, idgen.EntityTypeUser),
		IsActive:    result.IsActive,
		SideEffects: result.SideEffects,
	}, message)
}
