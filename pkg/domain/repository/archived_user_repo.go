package repository

import (
	"context"

	"github.com/anzhiyu-c/anheyu-archive/pkg/domain/model"
)

// ArchivedUserRepository 持久化用户级归档快照。
type ArchivedUserRepository interface {
	// Create 只插入快照，不修改任何在线数据。
	// 同一 original_user_id 已存在时返回 constant.ErrUserAlreadyArchived
	Create(ctx context.Context, params *model.CreateArchivedUserParams) (*model.ArchivedUser, error)

	FindByID(ctx context.Context, id uint) (*model.ArchivedUser, error)

	// FindByOriginalUserID 不存在时返回 constant.ErrNotFound
	FindByOriginalUserID(ctx context.Context, originalUserID uint) (*model.ArchivedUser, error)

	// List 按归档时间倒序分页，search 匹配快照中的邮箱、名、姓
	List(ctx context.Context, limit, offset int, search string) (*PageResult[model.ArchivedUser], error)

	Delete(ctx context.Context, id uint) error
}
