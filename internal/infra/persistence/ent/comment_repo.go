/*
 * @Description:
 * @Author: 安知鱼
 * @Date: 2026-03-02 18:41:03
 * @LastEditTime: 2026-03-16 21:50:12
 * @LastEditors: 安知鱼
 */
package ent

import (
	"context"
	"fmt"

	"github.com/anzhiyu-c/anheyu-archive/pkg/constant"
	"github.com/anzhiyu-c/anheyu-archive/pkg/domain/model"
	"github.com/anzhiyu-c/anheyu-archive/pkg/domain/repository"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

type commentRepo struct {
	sqlRepo
}

// NewCommentRepo 是 commentRepo 的构造函数
func NewCommentRepo(conn dialect.ExecQuerier, dialectName string) repository.CommentRepository {
	return &commentRepo{sqlRepo{conn: conn, dialect: dialectName}}
}

// ListByPostID 连同作者信息一起返回，作者身份会写入用户快照
func (r *commentRepo) ListByPostID(ctx context.Context, postID uint) ([]*model.Comment, error) {
	b := r.builder()
	b.WriteString("SELECT c.id, c.text, c.post_id, c.user_id, c.created_at, c.updated_at, u.email, u.first_name, u.last_name").
		WriteString(" FROM comments c JOIN users u ON u.id = c.user_id").
		WriteString(" WHERE c.post_id = ").Arg(postID).
		WriteString(" ORDER BY c.created_at, c.id")
	query, args := b.Query()

	var comments []*model.Comment
	err := r.queryRows(ctx, query, args, func(rows *entsql.Rows) error {
		var (
			c                model.Comment
			author           model.UserSummary
			created, updated dbTime
		)
		if err := rows.Scan(&c.ID, &c.Text, &c.PostID, &c.UserID, &created, &updated,
			&author.Email, &author.FirstName, &author.LastName); err != nil {
			return err
		}
		author.ID = c.UserID
		c.User = &author
		c.CreatedAt = created.Time
		c.UpdatedAt = updated.Time
		comments = append(comments, &c)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("查询文章评论失败: %w", err)
	}
	return comments, nil
}

func (r *commentRepo) ListAllByUserID(ctx context.Context, userID uint) ([]*model.Comment, error) {
	query, args := r.sql().Select("id", "text", "post_id", "user_id", "created_at", "updated_at").
		From(r.sql().Table("comments")).
		Where(entsql.EQ("user_id", userID)).
		OrderBy("created_at", "id").
		Query()

	var comments []*model.Comment
	err := r.queryRows(ctx, query, args, func(rows *entsql.Rows) error {
		var (
			c                model.Comment
			created, updated dbTime
		)
		if err := rows.Scan(&c.ID, &c.Text, &c.PostID, &c.UserID, &created, &updated); err != nil {
			return err
		}
		c.CreatedAt = created.Time
		c.UpdatedAt = updated.Time
		comments = append(comments, &c)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("查询用户评论失败: %w", err)
	}
	return comments, nil
}

func (r *commentRepo) Create(ctx context.Context, params *model.CreateCommentParams) (*model.Comment, error) {
	now := nowUTC()
	c := &model.Comment{
		ID:        params.ID,
		Text:      params.Text,
		PostID:    params.PostID,
		UserID:    params.UserID,
		CreatedAt: params.CreatedAt,
		UpdatedAt: params.UpdatedAt,
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = now
	}

	columns := []string{"text", "post_id", "user_id", "created_at", "updated_at"}
	values := []any{c.Text, c.PostID, c.UserID, r.timeArg(c.CreatedAt), r.timeArg(c.UpdatedAt)}
	if params.ID != 0 {
		columns = append([]string{"id"}, columns...)
		values = append([]any{params.ID}, values...)
		query, args := r.sql().Insert("comments").Columns(columns...).Values(values...).Query()
		if _, err := r.exec(ctx, query, args); err != nil {
			if isUniqueViolation(err) {
				return nil, fmt.Errorf("%w: 评论 %d 已存在", constant.ErrConflict, params.ID)
			}
			return nil, fmt.Errorf("创建评论失败: %w", err)
		}
		return c, nil
	}

	id, err := r.insertID(ctx, r.sql().Insert("comments").Columns(columns...).Values(values...))
	if err != nil {
		return nil, fmt.Errorf("创建评论失败: %w", err)
	}
	c.ID = id
	return c, nil
}
