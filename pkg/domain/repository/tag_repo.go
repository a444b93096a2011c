/*
 * @Description:
 * @Author: 安知鱼
 * @Date: 2026-03-02 17:08:31
 * @LastEditTime: 2026-03-12 19:37:33
 * @LastEditors: 安知鱼
 */
package repository

import (
	"context"

	"github.com/anzhiyu-c/anheyu-archive/pkg/domain/model"
)

// TagRepository 定义了标签数据操作的契约
type TagRepository interface {
	// FindByName 按名称查找标签，不存在时返回 constant.ErrNotFound
	FindByName(ctx context.Context, name string) (*model.Tag, error)

	// Create 创建标签，名称重复时返回 constant.ErrDuplicate
	Create(ctx context.Context, params *model.CreateTagParams) (*model.Tag, error)

	// EnsureByName 名称不存在时创建标签，返回库中的标签。
	// 并发创建同名标签不会报错，也不会中断所在事务
	EnsureByName(ctx context.Context, params *model.CreateTagParams) (*model.Tag, error)

	// AddToPost 关联文章与标签，已存在的关联会被忽略
	AddToPost(ctx context.Context, postID, tagID uint) error

	RemoveFromPost(ctx context.Context, postID, tagID uint) error

	// ListByPostID 返回文章的全部标签，按名称排序
	ListByPostID(ctx context.Context, postID uint) ([]*model.Tag, error)
}
