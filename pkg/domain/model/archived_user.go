/*
 * @Description: 归档用户与版本化快照
 * @Author: 安知鱼
 * @Date: 2026-03-03 15:02:48
 * @LastEditTime: 2026-03-21 10:18:26
 * @LastEditors: 安知鱼
 */
package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/anzhiyu-c/anheyu-archive/pkg/constant"
)

// CurrentSnapshotVersion 是当前写入的快照结构版本。
// 修改快照结构时递增版本号，并在 DecodeUserSnapshot 中保留旧版本的解码分支。
const CurrentSnapshotVersion = 1

// --- 快照文档 ---

// UserSnapshot 是一个用户完整作品图的自包含副本。
type UserSnapshot struct {
	Version         int                     `json:"version"`
	User            SnapshotUser            `json:"userData"`
	Posts           []SnapshotPost          `json:"postsData"`
	CommentsOnPosts []SnapshotCommentOnPost `json:"commentsOnPostsData"`
	UserComments    []SnapshotComment       `json:"userCommentsData"`
	ArchivedPosts   []SnapshotArchivedPost  `json:"archivedPostsData"`
}

type SnapshotUser struct {
	ID         uint      `json:"id"`
	IdentityID string    `json:"identityId"`
	Email      string    `json:"email"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	Role       Role      `json:"role"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type SnapshotTag struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type SnapshotPost struct {
	ID          uint          `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
	DeletedAt   *time.Time    `json:"deletedAt,omitempty"`
	Tags        []SnapshotTag `json:"tags"`
}

// SnapshotCommentUser 记录评论作者身份，用于恢复时判断是否需要改写作者
type SnapshotCommentUser struct {
	ID        uint   `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// SnapshotCommentOnPost 是发表在该用户文章下的评论（作者可能是任何人）
type SnapshotCommentOnPost struct {
	ID        uint                `json:"id"`
	Text      string              `json:"text"`
	PostID    uint                `json:"postId"`
	CreatedAt time.Time           `json:"createdAt"`
	UpdatedAt time.Time           `json:"updatedAt"`
	User      SnapshotCommentUser `json:"user"`
}

// SnapshotComment 是该用户自己发表的评论（可能在任何人的文章下）
type SnapshotComment struct {
	ID        uint      `json:"id"`
	Text      string    `json:"text"`
	PostID    uint      `json:"postId"`
	UserID    uint      `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SnapshotArchivedPost 是该用户名下已被单独归档的文章
type SnapshotArchivedPost struct {
	OriginalID  uint                      `json:"originalId"`
	Title       string                    `json:"title"`
	Description string                    `json:"description"`
	CreatedAt   time.Time                 `json:"createdAt"`
	UpdatedAt   time.Time                 `json:"updatedAt"`
	ArchivedAt  time.Time                 `json:"archivedAt"`
	Tags        []SnapshotTag             `json:"tags"`
	Comments    []SnapshotArchivedComment `json:"comments"`
}

type SnapshotArchivedComment struct {
	OriginalID uint      `json:"originalId"`
	Text       string    `json:"text"`
	UserID     uint      `json:"userId"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// EncodeUserSnapshot 以当前版本序列化快照。
func EncodeUserSnapshot(s *UserSnapshot) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("快照不能为空")
	}
	s.Version = CurrentSnapshotVersion
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("序列化用户快照失败: %w", err)
	}
	return data, nil
}

// DecodeUserSnapshot 按版本号解码快照。
func DecodeUserSnapshot(version int, raw []byte) (*UserSnapshot, error) {
	switch version {
	case 1:
		var s UserSnapshot
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("解析用户快照失败: %w", err)
		}
		if s.Version != 0 && s.Version != version {
			return nil, fmt.Errorf("%w: 列版本 %d 与文档版本 %d 不一致", constant.ErrUnsupportedSnapshotVersion, version, s.Version)
		}
		s.Version = version
		return &s, nil
	default:
		return nil, fmt.Errorf("%w: %d", constant.ErrUnsupportedSnapshotVersion, version)
	}
}

// --- 核心领域对象 (Domain Object) ---

// ArchivedUser 是归档用户，快照中保存了恢复所需的全部数据。
type ArchivedUser struct {
	ID             uint
	OriginalUserID uint
	ArchivedAt     time.Time
	ArchivedBy     uint
	Snapshot       *UserSnapshot
}

// CreateArchivedUserParams 创建归档用户的参数
type CreateArchivedUserParams struct {
	OriginalUserID uint
	ArchivedBy     uint
	Snapshot       *UserSnapshot
}

// RestoredUserData 是快照拆解后交给编排逻辑重放的数据
type RestoredUserData struct {
	User            SnapshotUser
	Posts           []SnapshotPost
	CommentsOnPosts []SnapshotCommentOnPost
	UserComments    []SnapshotComment
	ArchivedPosts   []SnapshotArchivedPost
}

// RestoreUserData 是纯转换函数，不访问数据库。
func RestoreUserData(a *ArchivedUser) (*RestoredUserData, error) {
	if a == nil || a.Snapshot == nil {
		return nil, fmt.Errorf("归档用户缺少快照数据")
	}
	s := a.Snapshot
	return &RestoredUserData{
		User:            s.User,
		Posts:           s.Posts,
		CommentsOnPosts: s.CommentsOnPosts,
		UserComments:    s.UserComments,
		ArchivedPosts:   s.ArchivedPosts,
	}, nil
}

// --- 编排结果 ---

// ArchiveUserResult 是归档用户的结果，副作用结果与核心结果分开记录。
type ArchiveUserResult struct {
	ArchivedID  uint
	SideEffects []SideEffectOutcome
}

// RestoreUserResult 是恢复用户的结果
type RestoreUserResult struct {
	RestoredUserID  uint
	RestoredPosts   int
	SkippedComments int
	SideEffects     []SideEffectOutcome
}

// --- API 数据传输对象 (Data Transfer Objects) ---

// ListArchivedUsersRequest 是归档用户列表的查询参数
type ListArchivedUsersRequest struct {
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
	Search string `form:"search"`
}

// Normalize 与归档文章列表使用同一套分页上下限
func (r *ListArchivedUsersRequest) Normalize() {
	if r.Limit <= 0 {
		r.Limit = DefaultArchiveListLimit
	}
	if r.Limit > MaxArchiveListLimit {
		r.Limit = MaxArchiveListLimit
	}
	if r.Offset < 0 {
		r.Offset = 0
	}
}

// ArchivedUserResponse 定义了归档用户的 API 响应结构
type ArchivedUserResponse struct {
	ID             string    `json:"id"`
	OriginalUserID string    `json:"originalUserId"`
	ArchivedAt     time.Time `json:"archivedAt"`
	ArchivedBy     string    `json:"archivedBy"`
	Email          string    `json:"email"`
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	Role           Role      `json:"role"`
	PostsCount     int       `json:"postsCount"`
	CommentsCount  int       `json:"commentsCount"`
	SnapshotVer    int       `json:"snapshotVersion"`
}

// ArchivedUserDetailResponse 在列表项基础上附带完整快照
type ArchivedUserDetailResponse struct {
	ArchivedUserResponse
	Snapshot *UserSnapshot `json:"snapshot"`
}

// ArchivedUserListResponse 是分页列表响应
type ArchivedUserListResponse struct {
	Users []*ArchivedUserResponse `json:"users"`
	Total int64                   `json:"total"`
}

// ArchiveUserResponse 是归档用户接口的响应
type ArchiveUserResponse struct {
	Success     bool                `json:"success"`
	ArchivedID  string              `json:"archivedId"`
	SideEffects []SideEffectOutcome `json:"sideEffects"`
}

// RestoreUserResponse 是恢复用户接口的响应
type RestoreUserResponse struct {
	Success         bool                `json:"success"`
	RestoredUserID  string              `json:"restoredUserId"`
	SkippedComments int                 `json:"skippedComments"`
	SideEffects     []SideEffectOutcome `json:"sideEffects"`
}
