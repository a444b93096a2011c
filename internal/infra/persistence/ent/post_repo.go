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

var postColumns = []string{"id", "title", "description", "user_id", "created_at", "updated_at", "deleted_at"}

type postRepo struct {
	sqlRepo
}

// NewPostRepo 是 postRepo 的构造函数
func NewPostRepo(conn dialect.ExecQuerier, dialectName string) repository.PostRepository {
	return &postRepo{sqlRepo{conn: conn, dialect: dialectName}}
}

func scanPost(rows *entsql.Rows) (*model.Post, error) {
	var (
		p                         model.Post
		created, updated, deleted dbTime
	)
	if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.UserID, &created, &updated, &deleted); err != nil {
		return nil, fmt.Errorf("读取文章失败: %w", err)
	}
	p.CreatedAt = created.Time
	p.UpdatedAt = updated.Time
	p.DeletedAt = deleted.Ptr()
	return &p, nil
}

// selectPosts 查询文章，lock 为 true 时在支持的数据库上加行锁
func (r sqlRepo) selectPosts(ctx context.Context, p *entsql.Predicate, lock bool) ([]*model.Post, error) {
	sel := r.sql().Select(postColumns...).
		From(r.sql().Table("posts")).
		Where(p).
		OrderBy("created_at", "id")
	if lock && r.dialect != dialect.SQLite {
		sel.ForUpdate()
	}
	query, args := sel.Query()

	var posts []*model.Post
	err := r.queryRows(ctx, query, args, func(rows *entsql.Rows) error {
		post, err := scanPost(rows)
		if err != nil {
			return err
		}
		posts = append(posts, post)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *postRepo) FindByID(ctx context.Context, id uint) (*model.Post, error) {
	posts, err := r.selectPosts(ctx, entsql.EQ("id", id), false)
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, constant.ErrNotFound
	}
	return posts[0], nil
}

func (r *postRepo) Create(ctx context.Context, params *model.CreatePostParams) (*model.Post, error) {
	now := nowUTC()
	post := &model.Post{
		ID:          params.ID,
		Title:       params.Title,
		Description: params.Description,
		UserID:      params.UserID,
		CreatedAt:   params.CreatedAt,
		UpdatedAt:   params.UpdatedAt,
		DeletedAt:   params.DeletedAt,
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = now
	}
	if post.UpdatedAt.IsZero() {
		post.UpdatedAt = now
	}

	columns := []string{"title", "description", "user_id", "created_at", "updated_at", "deleted_at"}
	values := []any{post.Title, post.Description, post.UserID, r.timeArg(post.CreatedAt), r.timeArg(post.UpdatedAt), r.nullableTimeArg(post.DeletedAt)}
	if params.ID != 0 {
		columns = append([]string{"id"}, columns...)
		values = append([]any{params.ID}, values...)
		query, args := r.sql().Insert("posts").Columns(columns...).Values(values...).Query()
		if _, err := r.exec(ctx, query, args); err != nil {
			if isUniqueViolation(err) {
				return nil, fmt.Errorf("%w: 文章 %d 已存在", constant.ErrConflict, params.ID)
			}
			return nil, fmt.Errorf("创建文章失败: %w", err)
		}
		return post, nil
	}

	id, err := r.insertID(ctx, r.sql().Insert("posts").Columns(columns...).Values(values...))
	if err != nil {
		return nil, fmt.Errorf("创建文章失败: %w", err)
	}
	post.ID = id
	return post, nil
}

func (r *postRepo) Update(ctx context.Context, id uint, params *model.UpdatePostParams) (*model.Post, error) {
	ub := r.sql().Update("posts").Set("updated_at", r.timeArg(nowUTC()))
	if params.Title != nil {
		ub.Set("title", *params.Title)
	}
	if params.Description != nil {
		ub.Set("description", *params.Description)
	}
	query, args := ub.Where(entsql.EQ("id", id)).Query()
	n, err := r.exec(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("更新文章失败: %w", err)
	}
	if n == 0 {
		return nil, constant.ErrNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *postRepo) Delete(ctx context.Context, id uint) error {
	query, args := r.sql().Delete("posts").Where(entsql.EQ("id", id)).Query()
	n, err := r.exec(ctx, query, args)
	if err != nil {
		return fmt.Errorf("删除文章失败: %w", err)
	}
	if n == 0 {
		return constant.ErrNotFound
	}
	return nil
}

func (r *postRepo) ListAllByUserID(ctx context.Context, userID uint) ([]*model.Post, error) {
	posts, err := r.selectPosts(ctx, entsql.EQ("user_id", userID), false)
	if err != nil {
		return nil, fmt.Errorf("查询用户文章失败: %w", err)
	}
	return posts, nil
}
