/*
 * @Description:
 * @Author: 安知鱼
 * @Date: 2026-03-02 17:58:48
 * @LastEditTime: 2026-03-16 21:44:26
 * @LastEditors: 安知鱼
 */
package repository

import (
	"context"

	"github.com/anzhiyu-c/anheyu-archive/pkg/domain/model"
)

// CommentRepository 定义了评论数据的持久化操作接口。
type CommentRepository interface {
	// ListByPostID 按创建时间升序返回文章下的全部评论，并填充作者信息
	ListByPostID(ctx context.Context, postID uint) ([]*model.Comment, error)

	// Create 创建一条评论，params.ID 非 0 时使用指定的 ID 插入
	Create(ctx context.Context, params *model.CreateCommentParams) (*model.Comment, error)

	// ListAllByUserID 返回用户发表的全部评论，不分页
	ListAllByUserID(ctx context.Context, userID uint) ([]*model.Comment, error)
}
