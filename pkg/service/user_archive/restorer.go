package user_archive

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/anzhiyu-c/anheyu-archive/pkg/constant"
	"github.com/anzhiyu-c/anheyu-archive/pkg/domain/model"
	"github.com/anzhiyu-c/anheyu-archive/pkg/domain/repository"
)

// restorer 在单个事务内按顺序重放快照，生命周期与事务相同。
type restorer struct {
	ctx   context.Context
	repos repository.Repositories
	data  *model.RestoredUserData

	idMap    *model.IDRemap  // 旧文章ID -> 新文章ID
	tagCache map[string]uint // 标签名 -> 标签ID

	userExists map[uint]bool
	postExists map[uint]bool

	newUserID uint
	skipped   int
}

func (r *restorer) run() error {
	// 4. 以新 ID 创建用户
	if err := r.createUser(); err != nil {
		return err
	}
	if err := r.reassignArchivedComments(); err != nil {
		return err
	}
	// 5. 重建文章并记录 ID 映射
	if err := r.restorePosts(); err != nil {
		return err
	}
	if err := r.restoreArchivedPosts(); err != nil {
		return err
	}
	// 6. 重放用户文章下的评论
	if err := r.replayCommentsOnPosts(); err != nil {
		return err
	}
	// 7. 重放用户在他人文章下的评论
	return r.replayUserComments()
}

func (r *restorer) createUser() error {
	u := r.data.User
	role := u.Role
	if !role.Valid() {
		log.Printf("【用户恢复】快照中的角色 %q 无法识别，按普通用户恢复", role)
		role = model.RoleUser
	}

	created, err := r.repos.User.Create(r.ctx, &model.CreateUserParams{
		IdentityID: u.IdentityID,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Role:       role,
	})
	if err != nil {
		if errors.Is(err, constant.ErrDuplicate) {
			return fmt.Errorf("%w: 邮箱 %s 已被占用", constant.ErrUserAlreadyExists, u.Email)
		}
		return fmt.Errorf("创建用户失败: %w", err)
	}
	r.newUserID = created.ID
	r.userExists = map[uint]bool{created.ID: true}
	r.postExists = make(map[uint]bool)
	return nil
}

// reassignArchivedComments 他人归档文章下该用户的评论不在快照中，改挂到新 ID
func (r *restorer) reassignArchivedComments() error {
	n, err := r.repos.ArchivedPost.ReassignCommentAuthor(r.ctx, r.data.User.ID, r.newUserID)
	if err != nil {
		return err
	}
	if n > 0 {
		log.Printf("【用户恢复】已将 %d 条归档评论的作者从 %d 迁移到 %d", n, r.data.User.ID, r.newUserID)
	}
	return nil
}

func (r *restorer) restorePosts() error {
	for _, p := range r.data.Posts {
		created, err := r.repos.Post.Create(r.ctx, &model.CreatePostParams{
			Title:       p.Title,
			Description: p.Description,
			UserID:      r.newUserID,
			CreatedAt:   p.CreatedAt,
			UpdatedAt:   p.UpdatedAt,
			DeletedAt:   p.DeletedAt,
		})
		if err != nil {
			return fmt.Errorf("重建文章 %d 失败: %w", p.ID, err)
		}
		r.idMap.Set(p.ID, created.ID)
		r.postExists[created.ID] = true

		for _, t := range p.Tags {
			tagID, err := r.resolveTag(t)
			if err != nil {
				return err
			}
			if err := r.repos.Tag.AddToPost(r.ctx, created.ID, tagID); err != nil {
				return fmt.Errorf("关联文章 %d 与标签 %s 失败: %w", created.ID, t.Name, err)
			}
		}
	}
	return nil
}

// restoreArchivedPosts 把快照中的归档文章重新写回归档表，保留其原始文章 ID
func (r *restorer) restoreArchivedPosts() error {
	for _, a := range r.data.ArchivedPosts {
		params := &model.CreateArchivedPostParams{
			OriginalID:  a.OriginalID,
			Title:       a.Title,
			Description: a.Description,
			UserID:      r.newUserID,
			CreatedAt:   a.CreatedAt,
			UpdatedAt:   a.UpdatedAt,
			ArchivedAt:  a.ArchivedAt,
		}
		for _, t := range a.Tags {
			tagID, err := r.resolveTag(t)
			if err != nil {
				return err
			}
			params.TagIDs = append(params.TagIDs, tagID)
		}
		for _, c := range a.Comments {
			userID := c.UserID
			if userID == r.data.User.ID {
				userID = r.newUserID
			}
			params.Comments = append(params.Comments, model.CreateArchivedCommentParams{
				OriginalID: c.OriginalID,
				Text:       c.Text,
				UserID:     userID,
				CreatedAt:  c.CreatedAt,
				UpdatedAt:  c.UpdatedAt,
			})
		}
		if _, err := r.repos.ArchivedPost.CreateFromSnapshot(r.ctx, params); err != nil {
			return fmt.Errorf("重建归档文章 %d 失败: %w", a.OriginalID, err)
		}
	}
	return nil
}

func (r *restorer) replayCommentsOnPosts() error {
	for _, c := range r.data.CommentsOnPosts {
		postID, ok := r.idMap.Lookup(c.PostID)
		if !ok {
			log.Printf("【用户恢复】警告: 评论 %d 所属的文章 %d 未能恢复，跳过", c.ID, c.PostID)
			r.skipped++
			continue
		}

		authorID := c.User.ID
		if authorID == r.data.User.ID {
			authorID = r.newUserID
		} else {
			exists, err := r.userAlive(authorID)
			if err != nil {
				return err
			}
			if !exists {
				log.Printf("【用户恢复】警告: 评论 %d 的作者 %d 已不存在，跳过", c.ID, authorID)
				r.skipped++
				continue
			}
		}

		if _, err := r.repos.Comment.Create(r.ctx, &model.CreateCommentParams{
			Text:      c.Text,
			PostID:    postID,
			UserID:    authorID,
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
		}); err != nil {
			return fmt.Errorf("重建评论 %d 失败: %w", c.ID, err)
		}
	}
	return nil
}

func (r *restorer) replayUserComments() error {
	for _, c := range r.data.UserComments {
		// 自己文章下的评论已在上一步重放
		if r.idMap.Contains(c.PostID) {
			continue
		}

		exists, err := r.postAlive(c.PostID)
		if err != nil {
			return err
		}
		if !exists {
			log.Printf("【用户恢复】警告: 评论 %d 所属的文章 %d 已不存在，跳过", c.ID, c.PostID)
			r.skipped++
			continue
		}

		if _, err := r.repos.Comment.Create(r.ctx, &model.CreateCommentParams{
			Text:      c.Text,
			PostID:    c.PostID,
			UserID:    r.newUserID,
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
		}); err != nil {
			return fmt.Errorf("重建评论 %d 失败: %w", c.ID, err)
		}
	}
	return nil
}

// resolveTag 按名称查找标签，不存在时才创建
func (r *restorer) resolveTag(t model.SnapshotTag) (uint, error) {
	if id, ok := r.tagCache[t.Name]; ok {
		return id, nil
	}

	tag, err := r.repos.Tag.FindByName(r.ctx, t.Name)
	if errors.Is(err, constant.ErrNotFound) {
		tag, err = r.repos.Tag.EnsureByName(r.ctx, &model.CreateTagParams{Name: t.Name, Description: t.Description})
	}
	if err != nil {
		return 0, fmt.Errorf("解析标签 %s 失败: %w", t.Name, err)
	}
	r.tagCache[t.Name] = tag.ID
	return tag.ID, nil
}

func (r *restorer) userAlive(id uint) (bool, error) {
	if ok, cached := r.userExists[id]; cached {
		return ok, nil
	}
	_, err := r.repos.User.FindByID(r.ctx, id)
	if err != nil && !errors.Is(err, constant.ErrNotFound) {
		return false, err
	}
	r.userExists[id] = err == nil
	return err == nil, nil
}

func (r *restorer) postAlive(id uint) (bool, error) {
	if ok, cached := r.postExists[id]; cached {
		return ok, nil
	}
	_, err := r.repos.Post.FindByID(r.ctx, id)
	if err != nil && !errors.Is(err, constant.ErrNotFound) {
		return false, err
	}
	r.postExists[id] = err == nil
	return err == nil, nil
}
