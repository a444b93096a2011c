/*
 * @Description: 用户级归档相关接口
 * @Author: 安知鱼
 * @Date: 2026-03-14 16:41:09
 * @LastEditTime: 2026-03-21 18:10:55
 * @LastEditors: 安知鱼
 */
package archived_user

import (
	"context"
	"net/http"

	"github.com/anzhiyu-c/anheyu-archive/internal/pkg/auth"
	"github.com/anzhiyu-c/anheyu-archive/pkg/domain/model"
	"github.com/anzhiyu-c/anheyu-archive/pkg/idgen"
	"github.com/anzhiyu-c/anheyu-archive/pkg/response"

	"github.com/gin-gonic/gin"
)

// UserArchiveService 由 user_archive.Service 实现
type UserArchiveService interface {
	ArchiveUser(ctx context.Context, userID, archivedBy uint) (*model.ArchiveUserResult, error)
	RestoreUser(ctx context.Context, archivedUserID uint) (*model.RestoreUserResult, error)
	ListArchivedUsers(ctx context.Context, req *model.ListArchivedUsersRequest) (*model.ArchivedUserListResponse, error)
	GetArchivedUser(ctx context.Context, archivedUserID uint) (*model.ArchivedUserDetailResponse, error)
}

// Handler 封装了用户归档相关的 HTTP 处理器。
type Handler struct {
	svc UserArchiveService
}

func NewHandler(svc UserArchiveService) *Handler {
	return &Handler{svc: svc}
}

// ArchiveUser
// @Summary      归档用户
// @Description  把用户的全部数据打包为快照并删除用户，之后停用其在身份服务中的账号。身份服务的结果只出现在 sideEffects 中
// @Tags         用户归档
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "用户公共ID"
// @Success      200 {object} response.Response{data=model.ArchiveUserResponse} "归档成功"
// @Failure      404 {object} response.Response "用户不存在"
// @Failure      409 {object} response.Response "用户已被归档"
// @Failure      500 {object} response.Response "归档用户失败"
// @Router       /admin/users/{id}/archive [post]
func (h *Handler) ArchiveUser(c *gin.Context) {
	userID, err := idgen.DecodeTyped(c.Param("id"), idgen.EntityTypeUser)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "无效的用户ID")
		return
	}

	actor, err := auth.ActorFromContext(c)
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, "无法获取当前用户信息")
		return
	}

	result, err := h.svc.ArchiveUser(c.Request.Context(), userID, actor.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, model.ArchiveUserResponse{
		Success:     true,
		ArchivedID:  idgen.MustPublicID(result.ArchivedID, idgen.EntityTypeArchivedUser),
		SideEffects: result.SideEffects,
	}, "用户已归档")
}

// ListArchivedUsers
// @Summary      获取归档用户列表
// @Tags         用户归档
// @Security     BearerAuth
// @Produce      json
// @Param        limit query int false "每页数量"
// @Param        offset query int false "偏移量"
// @Param        search query string false "按邮箱、姓名搜索"
// @Success      200 {object} response.Response{data=model.ArchivedUserListResponse} "成功响应"
// @Router       /admin/archived-users [get]
func (h *Handler) ListArchivedUsers(c *gin.Context) {
	var req model.ListArchivedUsersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "请求参数无效: "+err.Error())
		return
	}
	req.Normalize()

	list, err := h.svc.ListArchivedUsers(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, list, "获取列表成功")
}

// GetArchivedUser
// @Summary      获取归档用户详情
// @Description  附带完整的快照内容
// @Tags         用户归档
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "归档用户公共ID"
// @Success      200 {object} response.Response{data=model.ArchivedUserDetailResponse} "成功响应"
// @Failure      404 {object} response.Response "归档用户不存在"
// @Router       /admin/archived-users/{id} [get]
func (h *Handler) GetArchivedUser(c *gin.Context) {
	id, err := idgen.DecodeTyped(c.Param("id"), idgen.EntityTypeArchivedUser)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "无效的归档用户ID")
		return
	}

	detail, err := h.svc.GetArchivedUser(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, detail, "获取成功")
}

// RestoreUser
// @Summary      恢复归档用户
// @Description  使用新的用户ID重建用户、文章与评论，无法重放的评论会被跳过并计数
// @Tags         用户归档
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "归档用户公共ID"
// @Success      200 {object} response.Response{data=model.RestoreUserResponse} "恢复成功"
// @Failure      404 {object} response.Response "归档用户不存在"
// @Failure      409 {object} response.Response "用户已存在"
// @Failure      500 {object} response.Response "恢复用户失败"
// @Router       /admin/archived-users/{id}/restore [post]
func (h *Handler) RestoreUser(c *gin.Context) {
	id, err := idgen.DecodeTyped(c.Param("id"), idgen.EntityTypeArchivedUser)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "无效的归档用户ID")
		return
	}

	result, err := h.svc.RestoreUser(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, model.RestoreUserResponse{
		Success:         true,
		RestoredUserID:  idgen.MustPublicID(result.RestoredUserID, idgen.EntityTypeUser),
		SkippedComments: result.SkippedComments,
		SideEffects:     result.SideEffects,
	}, "用户已恢复")
}
