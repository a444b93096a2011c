package model

import "time"

// Comment 是评论的核心领域模型。
type Comment struct {
	ID        uint
	Text      string
	PostID    uint
	UserID    uint
	CreatedAt time.Time
	UpdatedAt time.Time

	// User 仅在需要作者信息的查询中填充
	User *UserSummary
}

// CreateCommentParams 创建评论所需参数。
// ID 为 0 时由仓储分配；时间为零值时使用当前时间。
type CreateCommentParams struct {
	ID        uint
	Text      string
	PostID    uint
	UserID    uint
	CreatedAt time.Time
	UpdatedAt time.Time
}
