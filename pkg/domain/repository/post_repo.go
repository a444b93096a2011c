package repository

import (
	"context"

	"github.com/anzhiyu-c/anheyu-archive/pkg/domain/model"
)

// PostRepository 定义了文章数据操作的契约。
type PostRepository interface {
	FindByID(ctx context.Context, id uint) (*model.Post, error)

	// Create 创建文章。params.ID 非 0 时使用指定的 ID 插入
	Create(ctx context.Context, params *model.CreatePostParams) (*model.Post, error)

	Update(ctx context.Context, id uint, params *model.UpdatePostParams) (*model.Post, error)

	Delete(ctx context.Context, id uint) error

	// ListAllByUserID 返回用户的全部文章，不分页
	ListAllByUserID(ctx context.Context, userID uint) ([]*model.Post, error)
}
