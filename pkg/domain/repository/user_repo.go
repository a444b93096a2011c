/*
 * @Description:
 * @Author: 安知鱼
 * @Date: 2026-03-02 16:07:24
 * @LastEditTime: 2026-03-16 20:58:50
 * @LastEditors: 安知鱼
 */
package repository

import (
	"context"

	"github.com/anzhiyu-c/anheyu-archive/pkg/domain/model"
)

// UserRepository 定义了用户数据操作的契约。
type UserRepository interface {
	// FindByID 根据用户ID查找用户，不存在时返回 constant.ErrNotFound
	FindByID(ctx context.Context, id uint) (*model.User, error)

	// FindByEmail 根据邮箱查找用户
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create 创建用户，ID 由数据库分配。邮箱重复时返回 constant.ErrDuplicate
	Create(ctx context.Context, params *model.CreateUserParams) (*model.User, error)

	// Delete 删除用户，其文章、评论等通过外键级联删除
	Delete(ctx context.Context, id uint) error

	// SetActive 修改用户的启用状态
	SetActive(ctx context.Context, id uint, active bool) error
}
