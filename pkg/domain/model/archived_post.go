/*
 * @Description: 归档文章领域模型与查询参数
 * @Author: 安知鱼
 * @Date: 2026-03-03 09:20:14
 * @LastEditTime: 2026-03-20 22:41:37
 * @LastEditors: 安知鱼
 */
package model

import (
	"fmt"
	"time"
)

// --- 核心领域对象 (Domain Object) ---

// ArchivedPost 是被归档的文章，OriginalID 指向归档前的文章 ID。
type ArchivedPost struct {
	ID          uint
	OriginalID  uint
	Title       string
	Description string
	UserID      uint
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ArchivedAt  time.Time

	User          *UserSummary
	Tags          []*Tag
	CommentsCount int
}

// ArchivedComment 是随文章一起归档的评论
type ArchivedComment struct {
	ID             uint
	OriginalID     uint
	Text           string
	ArchivedPostID uint
	UserID         uint
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CreateArchivedPostParams 用于从用户快照中重建一篇归档文章。
type CreateArchivedPostParams struct {
	OriginalID  uint
	Title       string
	Description string
	UserID      uint
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ArchivedAt  time.Time
	TagIDs      []uint
	Comments    []CreateArchivedCommentParams
}

// CreateArchivedCommentParams 归档评论的创建参数
type CreateArchivedCommentParams struct {
	OriginalID uint
	Text       string
	UserID     uint
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// --- 查询参数 ---

// CountOperator 是评论数过滤使用的比较运算符
type CountOperator string

const (
	CountEQ         CountOperator = "="
	CountNE         CountOperator = "!="
	CountGT         CountOperator = ">"
	CountGTE        CountOperator = ">="
	CountLT         CountOperator = "<"
	CountLTE        CountOperator = "<="
	CountIsBlank    CountOperator = "is_blank"
	CountIsNotBlank CountOperator = "is_not_blank"
)

// Valid 判断运算符是否受支持
func (o CountOperator) Valid() bool {
	switch o {
	case CountEQ, CountNE, CountGT, CountGTE, CountLT, CountLTE, CountIsBlank, CountIsNotBlank:
		return true
	}
	return false
}

// NeedsValue 判断运算符是否需要比较值
func (o CountOperator) NeedsValue() bool {
	return o != CountIsBlank && o != CountIsNotBlank
}

const (
	ArchivedPostSortTitle         = "title"
	ArchivedPostSortCreatedAt     = "createdAt" // 实际按归档时间排序
	ArchivedPostSortCommentsCount = "commentsCount"

	SortOrderAsc  = "asc"
	SortOrderDesc = "desc"

	DefaultArchiveListLimit = 10
	MaxArchiveListLimit     = 100
)

// ArchivedPostQuery 定义了归档文章列表的过滤、排序与分页
type ArchivedPostQuery struct {
	Limit                 int
	Offset                int
	Search                string
	SortBy                string
	SortOrder             string
	CommentsCountOperator CountOperator
	CommentsCountValue    *int
	TagIDs                []uint
}

// Normalize 填充默认值并校验参数
func (q *ArchivedPostQuery) Normalize() error {
	if q.Limit <= 0 {
		q.Limit = DefaultArchiveListLimit
	}
	if q.Limit > MaxArchiveListLimit {
		q.Limit = MaxArchiveListLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	switch q.SortBy {
	case "":
		q.SortBy = ArchivedPostSortCreatedAt
	case ArchivedPostSortTitle, ArchivedPostSortCreatedAt, ArchivedPostSortCommentsCount:
	default:
		return fmt.Errorf("不支持的排序字段: %s", q.SortBy)
	}
	switch q.SortOrder {
	case "":
		q.SortOrder = SortOrderAsc
	case SortOrderAsc, SortOrderDesc:
	default:
		return fmt.Errorf("不支持的排序方向: %s", q.SortOrder)
	}
	if q.CommentsCountOperator != "" {
		if !q.CommentsCountOperator.Valid() {
			return fmt.Errorf("不支持的评论数运算符: %s", q.CommentsCountOperator)
		}
		if q.CommentsCountOperator.NeedsValue() && q.CommentsCountValue == nil {
			return fmt.Errorf("评论数运算符 %s 需要提供比较值", q.CommentsCountOperator)
		}
	}
	return nil
}

// --- API 数据传输对象 (Data Transfer Objects) ---

// ListArchivedPostsRequest 是归档文章列表的查询参数
type ListArchivedPostsRequest struct {
	Limit                 int      `form:"limit"`
	Offset                int      `form:"offset"`
	Search                string   `form:"search"`
	SortBy                string   `form:"sortBy"`
	SortOrder             string   `form:"sortOrder"`
	CommentsCountOperator string   `form:"commentsCountOperator"`
	CommentsCountValue    *int     `form:"commentsCountValue"`
	TagIDs                []string `form:"tagIds"`
}

// ArchivedPostResponse 定义了归档文章的标准 API 响应结构
type ArchivedPostResponse struct {
	ID            string               `json:"id"`
	OriginalID    string               `json:"originalId"`
	Title         string               `json:"title"`
	Description   string               `json:"description"`
	User          *UserSummaryResponse `json:"user,omitempty"`
	Tags          []*TagResponse       `json:"tags"`
	CommentsCount int                  `json:"commentsCount"`
	CreatedAt     time.Time            `json:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt"`
	ArchivedAt    time.Time            `json:"archivedAt"`
}

// ArchivedCommentResponse 定义了归档评论的 API 响应结构
type ArchivedCommentResponse struct {
	ID         string    `json:"id"`
	OriginalID string    `json:"originalId"`
	Text       string    `json:"text"`
	UserID     string    `json:"userId"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// ArchivedPostListResponse 是分页列表响应
type ArchivedPostListResponse struct {
	Posts []*ArchivedPostResponse `json:"posts"`
	Total int64                   `json:"total"`
}

// RestoreArchivedPostResponse 是恢复归档文章的响应
type RestoreArchivedPostResponse struct {
	Success bool   `json:"success"`
	PostID  string `json:"postId"`
}
