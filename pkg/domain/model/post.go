package model

import "time"

// Post 是文章的核心领域模型。
type Post struct {
	ID          uint
	Title       string
	Description string
	UserID      uint
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   *time.Time
}

// CreatePostParams 创建文章所需参数。
// ID 为 0 时由仓储分配；时间为零值时使用当前时间。
type CreatePostParams struct {
	ID          uint
	Title       string
	Description string
	UserID      uint
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   *time.Time
}

// UpdatePostParams 更新文章，nil 字段保持不变。
type UpdatePostParams struct {
	Title       *string
	Description *string
}
