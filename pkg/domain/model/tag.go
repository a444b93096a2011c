package model

import "time"

// Tag 是标签的核心领域模型。标签只会被引用，归档和恢复都不会复制或删除它。
type Tag struct {
	ID          uint
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateTagParams 创建标签所需参数
type CreateTagParams struct {
	Name        string
	Description string
}

// TagResponse 定义了标签的 API 响应结构
type TagResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}
