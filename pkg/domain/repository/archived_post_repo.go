/*
 * @Description: 归档文章仓储契约
 * @Author: 安知鱼
 * @Date: 2026-03-03 10:12:40
 * @LastEditTime: 2026-03-20 23:05:12
 * @LastEditors: 安知鱼
 */
package repository

import (
	"context"
	"time"

	"github.com/anzhiyu-c/anheyu-archive/pkg/domain/model"
)

// ArchivedPostRepository 负责在线文章与归档文章之间的搬迁，以及归档的查询。
// 所有写方法都必须在调用方的事务中执行。
type ArchivedPostRepository interface {
	// Archive 将文章连同其评论、标签关联搬入归档表并删除在线文章。
	// 文章不存在时返回 constant.ErrPostNotFound
	Archive(ctx context.Context, postID uint) (*model.ArchivedPost, error)

	// Restore 使用原始 ID 重建在线文章及其评论、标签关联，然后删除归档。
	// 返回恢复后的文章 ID，归档不存在时返回 constant.ErrNotFound
	Restore(ctx context.Context, archivedPostID uint) (uint, error)

	// Delete 永久删除归档文章，返回删除前的内容
	Delete(ctx context.Context, id uint) (*model.ArchivedPost, error)

	FindByID(ctx context.Context, id uint) (*model.ArchivedPost, error)

	// List 分页查询，Total 与当前页使用相同的过滤条件
	List(ctx context.Context, q *model.ArchivedPostQuery) (*PageResult[model.ArchivedPost], error)

	// ListComments 按创建时间升序返回归档文章的评论
	ListComments(ctx context.Context, archivedPostID uint) ([]*model.ArchivedComment, error)

	// ListByUserID 返回用户名下全部归档文章（含标签），用于生成用户快照
	ListByUserID(ctx context.Context, userID uint) ([]*model.ArchivedPost, error)

	// CreateFromSnapshot 直接写入一篇归档文章及其评论、标签关联
	CreateFromSnapshot(ctx context.Context, params *model.CreateArchivedPostParams) (*model.ArchivedPost, error)

	// ReassignCommentAuthor 把归档评论的作者从 oldUserID 改为 newUserID，返回修改数量。
	// archived_comments.user_id 没有外键，用户以新 ID 恢复后必须调用
	ReassignCommentAuthor(ctx context.Context, oldUserID, newUserID uint) (int, error)

	// DeleteArchivedBefore 删除归档时间早于 cutoff 的归档文章，返回删除数量
	DeleteArchivedBefore(ctx context.Context, cutoff time.Time) (int, error)
}
