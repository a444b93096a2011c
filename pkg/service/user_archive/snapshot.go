package user_archive

import (
	"context"
	"fmt"

	"github.com/anzhiyu-c/anheyu-archive/pkg/domain/model"
	"github.com/anzhiyu-c/anheyu-archive/pkg/domain/repository"
)

// buildSnapshot 收集用户的全部文章、文章下的评论、用户自己的评论以及已单独归档的文章。
// 所有读取都不分页。
func buildSnapshot(ctx context.Context, repos repository.Repositories, user *model.User) (*model.UserSnapshot, error) {
	snapshot := &model.UserSnapshot{
		Version: model.CurrentSnapshotVersion,
		User: model.SnapshotUser{
			ID:         user.ID,
			IdentityID: user.IdentityID,
			Email:      user.Email,
			FirstName:  user.FirstName,
			LastName:   user.LastName,
			Role:       user.Role,
			CreatedAt:  user.CreatedAt,
			UpdatedAt:  user.UpdatedAt,
		},
		Posts:           []model.SnapshotPost{},
		CommentsOnPosts: []model.SnapshotCommentOnPost{},
		UserComments:    []model.SnapshotComment{},
		ArchivedPosts:   []model.SnapshotArchivedPost{},
	}

	posts, err := repos.Post.ListAllByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("获取用户文章失败: %w", err)
	}
	for _, p := range posts {
		tags, err := repos.Tag.ListByPostID(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("获取文章 %d 的标签失败: %w", p.ID, err)
		}
		snapshot.Posts = append(snapshot.Posts, model.SnapshotPost{
			ID:          p.ID,
			Title:       p.Title,
			Description: p.Description,
			CreatedAt:   p.CreatedAt,
			UpdatedAt:   p.UpdatedAt,
			DeletedAt:   p.DeletedAt,
			Tags:        toSnapshotTags(tags),
		})

		comments, err := repos.Comment.ListByPostID(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("获取文章 %d 的评论失败: %w", p.ID, err)
		}
		for _, c := range comments {
			author := model.SnapshotCommentUser{ID: c.UserID}
			if c.User != nil {
				author.FirstName = c.User.FirstName
				author.LastName = c.User.LastName
				author.Email = c.User.Email
			}
			snapshot.CommentsOnPosts = append(snapshot.CommentsOnPosts, model.SnapshotCommentOnPost{
				ID:        c.ID,
				Text:      c.Text,
				PostID:    p.ID,
				CreatedAt: c.CreatedAt,
				UpdatedAt: c.UpdatedAt,
				User:      author,
			})
		}
	}

	userComments, err := repos.Comment.ListAllByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("获取用户评论失败: %w", err)
	}
	for _, c := range userComments {
		snapshot.UserComments = append(snapshot.UserComments, model.SnapshotComment{
			ID:        c.ID,
			Text:      c.Text,
			PostID:    c.PostID,
			UserID:    c.UserID,
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
		})
	}

	// 归档文章通过外键挂在用户下，删除用户时会被级联删除，必须一并写入快照
	archivedPosts, err := repos.ArchivedPost.ListByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("获取用户归档文章失败: %w", err)
	}
	for _, a := range archivedPosts {
		comments, err := repos.ArchivedPost.ListComments(ctx, a.ID)
		if err != nil {
			return nil, fmt.Errorf("获取归档文章 %d 的评论失败: %w", a.ID, err)
		}
		sa := model.SnapshotArchivedPost{
			OriginalID:  a.OriginalID,
			Title:       a.Title,
			Description: a.Description,
			CreatedAt:   a.CreatedAt,
			UpdatedAt:   a.UpdatedAt,
			ArchivedAt:  a.ArchivedAt,
			Tags:        toSnapshotTags(a.Tags),
			Comments:    make([]model.SnapshotArchivedComment, 0, len(comments)),
		}
		for _, c := range comments {
			sa.Comments = append(sa.Comments, model.SnapshotArchivedComment{
				OriginalID: c.OriginalID,
				Text:       c.Text,
				UserID:     c.UserID,
				CreatedAt:  c.CreatedAt,
				UpdatedAt:  c.UpdatedAt,
			})
		}
		snapshot.ArchivedPosts = append(snapshot.ArchivedPosts, sa)
	}

	return snapshot, nil
}

func toSnapshotTags(tags []*model.Tag) []model.SnapshotTag {
	out := make([]model.SnapshotTag, 0, len(tags))
	for _, t := range tags {
		out = append(out, model.SnapshotTag{ID: t.ID, Name: t.Name, Description: t.Description})
	}
	return out
}
