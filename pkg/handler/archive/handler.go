/*
 * @Description: 文章归档相关接口
 * @Author: 安知鱼
 * @Date: 2026-03-14 15:20:44
 * @LastEditTime: 2026-03-21 18:03:12
 * @LastEditors: 安知鱼
 */
package archive

import (
	"context"
	"net/http"

	"github.com/anzhiyu-c/anheyu-archive/internal/pkg/auth"
	"github.com/anzhiyu-c/anheyu-archive/pkg/domain/model"
	"github.com/anzhiyu-c/anheyu-archive/pkg/idgen"
	"github.com/anzhiyu-c/anheyu-archive/pkg/response"

	"github.com/gin-gonic/gin"
)

// ArchiveService 是 Handler 依赖的文章归档业务，由 archive.Service 实现
type ArchiveService interface {
	ArchivePost(ctx context.Context, postID uint, actor model.Actor) (*model.ArchivedPostResponse, error)
	RestoreArchivedPost(ctx context.Context, archivedPostID uint) (*model.RestoreArchivedPostResponse, error)
	DeleteArchivedPost(ctx context.Context, archivedPostID uint) (*model.ArchivedPostResponse, error)
	ListArchivedPosts(ctx context.Context, req *model.ListArchivedPostsRequest) (*model.ArchivedPostListResponse, error)
	GetArchivedPost(ctx context.Context, archivedPostID uint) (*model.ArchivedPostResponse, error)
	ListArchivedComments(ctx context.Context, archivedPostID uint) ([]*model.ArchivedCommentResponse, error)
}

// Handler 封装了所有与文章归档相关的 HTTP 处理器。
type Handler struct {
	svc ArchiveService
}

// NewHandler 是 Handler 的构造函数。
func NewHandler(svc ArchiveService) *Handler {
	return &Handler{svc: svc}
}

// archivedPostID 从路径参数中解析归档文章ID，失败时已写入响应
func archivedPostID(c *gin.Context) (uint, bool) {
	id, err := idgen.DecodeTyped(c.Param("id"), idgen.EntityTypeArchivedPost)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "无效的归档文章ID")
		return 0, false
	}
	return id, true
}

// ArchivePost
// @Summary      归档文章
// @Description  作者可以归档自己的文章，管理员可以归档任意文章。文章、评论与标签关联会被整体移入归档表
// @Tags         文章归档
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "文章公共ID"
// @Success      200 {object} response.Response{data=model.ArchivedPostResponse} "归档成功"
// @Failure      400 {object} response.Response "文章ID无效"
// @Failure      403 {object} response.Response "无权归档该文章"
// @Failure      404 {object} response.Response "文章不存在"
// @Failure      500 {object} response.Response "归档失败"
// @Router       /posts/{id}/archive [post]
func (h *Handler) ArchivePost(c *gin.Context) {
	postID, err := idgen.DecodeTyped(c.Param("id"), idgen.EntityTypePost)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "无效的文章ID")
		return
	}

	actor, err := auth.ActorFromContext(c)
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, "无法获取当前用户信息")
		return
	}

	archived, err := h.svc.ArchivePost(c.Request.Context(), postID, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, archived, "文章已归档")
}

// ListArchivedPosts
// @Summary      获取归档文章列表
// @Description  支持搜索、排序、按评论数与标签过滤，total 与当前页使用相同的过滤条件
// @Tags         文章归档
// @Security     BearerAuth
// @Produce      json
// @Param        limit query int false "每页数量，默认10，最大100"
// @Param        offset query int false "偏移量"
// @Param        search query string false "按标题模糊搜索"
// @Param        sortBy query string false "排序字段: title | createdAt | commentsCount"
// @Param        sortOrder query string false "排序方向: asc | desc"
// @Param        commentsCountOperator query string false "评论数运算符: = != > >= < <= is_blank is_not_blank"
// @Param        commentsCountValue query int false "评论数比较值"
// @Param        tagIds query []string false "标签公共ID，可重复"
// @Success      200 {object} response.Response{data=model.ArchivedPostListResponse} "成功响应"
// @Failure      400 {object} response.Response "请求参数错误"
// @Failure      500 {object} response.Response "服务器内部错误"
// @Router       /admin/archived-posts [get]
func (h *Handler) ListArchivedPosts(c *gin.Context) {
	var req model.ListArchivedPostsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "请求参数无效: "+err.Error())
		return
	}

	list, err := h.svc.ListArchivedPosts(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, list, "获取列表成功")
}

// GetArchivedPost
// @Summary      获取归档文章详情
// @Tags         文章归档
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "归档文章公共ID"
// @Success      200 {object} response.Response{data=model.ArchivedPostResponse} "成功响应"
// @Failure      404 {object} response.Response "归档文章不存在"
// @Router       /admin/archived-posts/{id} [get]
func (h *Handler) GetArchivedPost(c *gin.Context) {
	id, ok := archivedPostID(c)
	if !ok {
		return
	}

	post, err := h.svc.GetArchivedPost(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, post, "获取成功")
}

// ListArchivedComments
// @Summary      获取归档文章的评论
// @Tags         文章归档
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "归档文章公共ID"
// @Success      200 {object} response.Response{data=[]model.ArchivedCommentResponse} "成功响应"
// @Failure      404 {object} response.Response "归档文章不存在"
// @Router       /admin/archived-posts/{id}/comments [get]
func (h *Handler) ListArchivedComments(c *gin.Context) {
	id, ok := archivedPostID(c)
	if !ok {
		return
	}

	comments, err := h.svc.ListArchivedComments(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, comments, "获取成功")
}

// RestoreArchivedPost
// @Summary      恢复归档文章
// @Description  使用原始ID重建文章及其评论、标签关联，然后删除归档
// @Tags         文章归档
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "归档文章公共ID"
// @Success      200 {object} response.Response{data=model.RestoreArchivedPostResponse} "恢复成功"
// @Failure      404 {object} response.Response "归档文章不存在"
// @Failure      500 {object} response.Response "恢复失败"
// @Router       /admin/archived-posts/{id}/restore [post]
func (h *Handler) RestoreArchivedPost(c *gin.Context) {
	id, ok := archivedPostID(c)
	if !ok {
		return
	}

	result, err := h.svc.RestoreArchivedPost(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result, "文章已恢复")
}

// DeleteArchivedPost
// @Summary      永久删除归档文章
// @Tags         文章归档
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "归档文章公共ID"
// @Success      200 {object} response.Response{data=model.ArchivedPostResponse} "删除前的归档内容"
// @Failure      404 {object} response.Response "归档文章不存在"
// @Router       /admin/archived-posts/{id} [delete]
func (h *Handler) DeleteArchivedPost(c *gin.Context) {
	id, ok := archivedPostID(c)
	if !ok {
		return
	}

	deleted, err := h.svc.DeleteArchivedPost(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, deleted, "删除成功")
}
