/*
 * @Description: 归档文章仓储：在线文章与归档之间的搬迁及归档查询
 * @Author: 安知鱼
 * @Date: 2026-03-03 10:40:52
 * @LastEditTime: 2026-03-21 00:12:36
 * @LastEditors: 安知鱼
 */
package ent

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/anzhiyu-c/anheyu-archive/pkg/constant"
	"github.com/anzhiyu-c/anheyu-archive/pkg/domain/model"
	"github.com/anzhiyu-c/anheyu-archive/pkg/domain/repository"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

// 归档评论数，列表查询的过滤、排序都基于它
const archivedCommentsCountExpr = "(SELECT COUNT(*) FROM archived_comments ac WHERE ac.archived_post_id = ap.id)"

const archivedPostSelect = "SELECT ap.id, ap.original_id, ap.title, ap.description, ap.user_id, ap.created_at, ap.updated_at, ap.archived_at, " +
	"u.email, u.first_name, u.last_name, " + archivedCommentsCountExpr + " AS comments_count " +
	"FROM archived_posts ap JOIN users u ON u.id = ap.user_id"

type archivedPostRepo struct {
	sqlRepo
}

// NewArchivedPostRepo 是 archivedPostRepo 的构造函数
func NewArchivedPostRepo(conn dialect.ExecQuerier, dialectName string, opts ...Option) repository.ArchivedPostRepository {
	return &archivedPostRepo{newSQLRepo(conn, dialectName, opts...)}
}

// Archive 依次写入归档文章、标签关联、评论，最后删除在线文章。
// 在线文章的评论和标签关联由外键级联删除。
func (r *archivedPostRepo) Archive(ctx context.Context, postID uint) (*model.ArchivedPost, error) {
	posts, err := r.selectPosts(ctx, entsql.EQ("id", postID), true)
	if err != nil {
		return nil, fmt.Errorf("读取待归档文章失败: %w", err)
	}
	if len(posts) == 0 {
		return nil, constant.ErrPostNotFound
	}
	post := posts[0]

	users, err := r.userSummaries(ctx, []uint{post.UserID})
	if err != nil {
		return nil, err
	}
	tagsByPost, err := r.tagsByOwner(ctx, "post_tags", "post_id", []uint{post.ID})
	if err != nil {
		return nil, err
	}
	tags := tagsByPost[post.ID]
	comments, err := NewCommentRepo(r.conn, r.dialect).ListByPostID(ctx, post.ID)
	if err != nil {
		return nil, err
	}

	archivedAt := nowUTC()
	archivedID, err := r.insertID(ctx, r.sql().Insert("archived_posts").
		Columns("original_id", "title", "description", "user_id", "created_at", "updated_at", "archived_at").
		Values(post.ID, post.Title, post.Description, post.UserID,
			r.timeArg(post.CreatedAt), r.timeArg(post.UpdatedAt), r.timeArg(archivedAt)))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: 文章 %d 已存在归档", constant.ErrConflict, post.ID)
		}
		return nil, fmt.Errorf("写入归档文章失败: %w", err)
	}

	if len(tags) > 0 {
		rows := make([][]any, 0, len(tags))
		for _, t := range tags {
			rows = append(rows, []any{archivedID, t.ID})
		}
		if err := r.insertBatch(ctx, "archived_post_tags", []string{"archived_post_id", "tag_id"}, rows); err != nil {
			return nil, err
		}
	}

	if len(comments) > 0 {
		rows := make([][]any, 0, len(comments))
		for _, c := range comments {
			rows = append(rows, []any{c.ID, c.Text, archivedID, c.UserID, r.timeArg(c.CreatedAt), r.timeArg(c.UpdatedAt)})
		}
		if err := r.insertBatch(ctx, "archived_comments",
			[]string{"original_id", "text", "archived_post_id", "user_id", "created_at", "updated_at"}, rows); err != nil {
			return nil, err
		}
	}

	query, args := r.sql().Delete("posts").Where(entsql.EQ("id", post.ID)).Query()
	if _, err := r.exec(ctx, query, args); err != nil {
		return nil, fmt.Errorf("删除在线文章失败: %w", err)
	}

	return &model.ArchivedPost{
		ID:            archivedID,
		OriginalID:    post.ID,
		Title:         post.Title,
		Description:   post.Description,
		UserID:        post.UserID,
		CreatedAt:     post.CreatedAt,
		UpdatedAt:     post.UpdatedAt,
		ArchivedAt:    archivedAt,
		User:          users[post.UserID],
		Tags:          tags,
		CommentsCount: len(comments),
	}, nil
}

// Restore 用 original_id 重建文章，评论沿用各自的原始 ID。
// 作者已不存在的评论无法满足外键约束，会被跳过并记录日志。
func (r *archivedPostRepo) Restore(ctx context.Context, archivedPostID uint) (uint, error) {
	sel := r.sql().Select("id", "original_id", "title", "description", "user_id", "created_at", "updated_at").
		From(r.sql().Table("archived_posts")).
		Where(entsql.EQ("id", archivedPostID))
	if r.dialect != dialect.SQLite {
		sel.ForUpdate()
	}
	query, args := sel.Query()

	var (
		found            bool
		ap               model.ArchivedPost
		created, updated dbTime
	)
	err := r.queryRows(ctx, query, args, func(rows *entsql.Rows) error {
		found = true
		return rows.Scan(&ap.ID, &ap.OriginalID, &ap.Title, &ap.Description, &ap.UserID, &created, &updated)
	})
	if err != nil {
		return 0, fmt.Errorf("读取归档文章失败: %w", err)
	}
	if !found {
		return 0, constant.ErrNotFound
	}

	comments, err := r.ListComments(ctx, ap.ID)
	if err != nil {
		return 0, err
	}
	tagsByPost, err := r.tagsByOwner(ctx, "archived_post_tags", "archived_post_id", []uint{ap.ID})
	if err != nil {
		return 0, err
	}

	if _, err := NewPostRepo(r.conn, r.dialect).Create(ctx, &model.CreatePostParams{
		ID:          ap.OriginalID,
		Title:       ap.Title,
		Description: ap.Description,
		UserID:      ap.UserID,
		CreatedAt:   created.Time,
		UpdatedAt:   nowUTC(),
	}); err != nil {
		return 0, err
	}

	if len(comments) > 0 {
		authorIDs := make([]uint, 0, len(comments))
		for _, c := range comments {
			authorIDs = append(authorIDs, c.UserID)
		}
		authors, err := r.userSummaries(ctx, authorIDs)
		if err != nil {
			return 0, err
		}
		rows := make([][]any, 0, len(comments))
		for _, c := range comments {
			if _, ok := authors[c.UserID]; !ok {
				log.Printf("【归档】恢复文章 %d 时跳过评论 %d：作者 %d 已不存在", ap.OriginalID, c.OriginalID, c.UserID)
				continue
			}
			rows = append(rows, []any{c.OriginalID, c.Text, ap.OriginalID, c.UserID, r.timeArg(c.CreatedAt), r.timeArg(c.UpdatedAt)})
		}
		if err := r.insertBatch(ctx, "comments",
			[]string{"id", "text", "post_id", "user_id", "created_at", "updated_at"}, rows); err != nil {
			return 0, err
		}
	}

	if tags := tagsByPost[ap.ID]; len(tags) > 0 {
		rows := make([][]any, 0, len(tags))
		for _, t := range tags {
			rows = append(rows, []any{ap.OriginalID, t.ID})
		}
		if err := r.insertBatch(ctx, "post_tags", []string{"post_id", "tag_id"}, rows); err != nil {
			return 0, err
		}
	}

	query, args = r.sql().Delete("archived_posts").Where(entsql.EQ("id", ap.ID)).Query()
	if _, err := r.exec(ctx, query, args); err != nil {
		return 0, fmt.Errorf("删除归档文章失败: %w", err)
	}
	return ap.OriginalID, nil
}

func (r *archivedPostRepo) Delete(ctx context.Context, id uint) (*model.ArchivedPost, error) {
	ap, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	query, args := r.sql().Delete("archived_posts").Where(entsql.EQ("id", id)).Query()
	if _, err := r.exec(ctx, query, args); err != nil {
		return nil, fmt.Errorf("删除归档文章失败: %w", err)
	}
	return ap, nil
}

func (r *archivedPostRepo) FindByID(ctx context.Context, id uint) (*model.ArchivedPost, error) {
	b := r.builder()
	b.WriteString(archivedPostSelect).WriteString(" WHERE ap.id = ").Arg(id)
	posts, err := r.selectArchived(ctx, b)
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, constant.ErrNotFound
	}
	return posts[0], nil
}

func (r *archivedPostRepo) List(ctx context.Context, q *model.ArchivedPostQuery) (*repository.PageResult[model.ArchivedPost], error) {
	if err := q.Normalize(); err != nil {
		return nil, fmt.Errorf("%w: %v", constant.ErrBadRequest, err)
	}

	cb := r.builder()
	cb.WriteString("SELECT COUNT(*) FROM archived_posts ap JOIN users u ON u.id = ap.user_id")
	r.writeListFilter(cb, q)
	countQuery, countArgs := cb.Query()
	total, err := r.count(ctx, countQuery, countArgs)
	if err != nil {
		return nil, fmt.Errorf("统计归档文章失败: %w", err)
	}

	b := r.builder()
	b.WriteString(archivedPostSelect)
	r.writeListFilter(b, q)

	direction := "ASC"
	if q.SortOrder == model.SortOrderDesc {
		direction = "DESC"
	}
	orderColumn := "ap.archived_at"
	switch q.SortBy {
	case model.ArchivedPostSortTitle:
		orderColumn = "ap.title"
	case model.ArchivedPostSortCommentsCount:
		orderColumn = "comments_count"
	}
	b.WriteString(" ORDER BY " + orderColumn + " " + direction + ", ap.id " + direction)
	b.WriteString(" LIMIT ").Arg(q.Limit).WriteString(" OFFSET ").Arg(q.Offset)

	posts, err := r.selectArchived(ctx, b)
	if err != nil {
		return nil, err
	}
	return &repository.PageResult[model.ArchivedPost]{Items: posts, Total: total}, nil
}

// writeListFilter 写入列表与计数共用的 WHERE 子句，q 必须已经过 Normalize
func (r *archivedPostRepo) writeListFilter(b *entsql.Builder, q *model.ArchivedPostQuery) {
	b.WriteString(" WHERE 1 = 1")

	if search := strings.TrimSpace(q.Search); search != "" {
		if r.trigram {
			b.WriteString(" AND (similarity(ap.title, ").Arg(search).
				WriteString(") > 0.3 OR similarity(ap.description, ").Arg(search).
				WriteString(") > 0.3)")
		} else {
			like := "%" + strings.ToLower(search) + "%"
			b.WriteString(" AND (LOWER(ap.title) LIKE ").Arg(like).
				WriteString(" OR LOWER(ap.description) LIKE ").Arg(like).
				WriteString(")")
		}
	}

	switch q.CommentsCountOperator {
	case "":
	case model.CountIsBlank:
		b.WriteString(" AND " + archivedCommentsCountExpr + " = 0")
	case model.CountIsNotBlank:
		b.WriteString(" AND " + archivedCommentsCountExpr + " > 0")
	default:
		b.WriteString(" AND " + archivedCommentsCountExpr + " " + string(q.CommentsCountOperator) + " ").Arg(*q.CommentsCountValue)
	}

	if len(q.TagIDs) > 0 {
		b.WriteString(" AND EXISTS (SELECT 1 FROM archived_post_tags apt WHERE apt.archived_post_id = ap.id AND ")
		writeIn(b, "apt.tag_id", q.TagIDs)
		b.WriteString(")")
	}
}

// selectArchived 执行以 archivedPostSelect 开头的查询，并批量补齐标签
func (r *archivedPostRepo) selectArchived(ctx context.Context, b *entsql.Builder) ([]*model.ArchivedPost, error) {
	query, args := b.Query()
	var posts []*model.ArchivedPost
	err := r.queryRows(ctx, query, args, func(rows *entsql.Rows) error {
		var (
			ap                         model.ArchivedPost
			user                       model.UserSummary
			created, updated, archived dbTime
		)
		if err := rows.Scan(&ap.ID, &ap.OriginalID, &ap.Title, &ap.Description, &ap.UserID,
			&created, &updated, &archived,
			&user.Email, &user.FirstName, &user.LastName, &ap.CommentsCount); err != nil {
			return err
		}
		user.ID = ap.UserID
		ap.User = &user
		ap.CreatedAt = created.Time
		ap.UpdatedAt = updated.Time
		ap.ArchivedAt = archived.Time
		posts = append(posts, &ap)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("查询归档文章失败: %w", err)
	}
	if len(posts) == 0 {
		return posts, nil
	}

	ids := make([]uint, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	tags, err := r.tagsByOwner(ctx, "archived_post_tags", "archived_post_id", ids)
	if err != nil {
		return nil, err
	}
	for _, p := range posts {
		p.Tags = tags[p.ID]
	}
	return posts, nil
}

func (r *archivedPostRepo) ListComments(ctx context.Context, archivedPostID uint) ([]*model.ArchivedComment, error) {
	query, args := r.sql().Select("id", "original_id", "text", "archived_post_id", "user_id", "created_at", "updated_at").
		From(r.sql().Table("archived_comments")).
		Where(entsql.EQ("archived_post_id", archivedPostID)).
		OrderBy("created_at", "id").
		Query()

	var comments []*model.ArchivedComment
	err := r.queryRows(ctx, query, args, func(rows *entsql.Rows) error {
		var (
			c                model.ArchivedComment
			created, updated dbTime
		)
		if err := rows.Scan(&c.ID, &c.OriginalID, &c.Text, &c.ArchivedPostID, &c.UserID, &created, &updated); err != nil {
			return err
		}
		c.CreatedAt = created.Time
		c.UpdatedAt = updated.Time
		comments = append(comments, &c)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("查询归档评论失败: %w", err)
	}
	return comments, nil
}

func (r *archivedPostRepo) ListByUserID(ctx context.Context, userID uint) ([]*model.ArchivedPost, error) {
	b := r.builder()
	b.WriteString(archivedPostSelect).
		WriteString(" WHERE ap.user_id = ").Arg(userID).
		WriteString(" ORDER BY ap.archived_at, ap.id")
	return r.selectArchived(ctx, b)
}

func (r *archivedPostRepo) CreateFromSnapshot(ctx context.Context, params *model.CreateArchivedPostParams) (*model.ArchivedPost, error) {
	archivedAt := params.ArchivedAt
	if archivedAt.IsZero() {
		archivedAt = nowUTC()
	}
	id, err := r.insertID(ctx, r.sql().Insert("archived_posts").
		Columns("original_id", "title", "description", "user_id", "created_at", "updated_at", "archived_at").
		Values(params.OriginalID, params.Title, params.Description, params.UserID,
			r.timeArg(params.CreatedAt), r.timeArg(params.UpdatedAt), r.timeArg(archivedAt)))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: 文章 %d 已存在归档", constant.ErrConflict, params.OriginalID)
		}
		return nil, fmt.Errorf("写入归档文章失败: %w", err)
	}

	if len(params.TagIDs) > 0 {
		rows := make([][]any, 0, len(params.TagIDs))
		for _, tagID := range params.TagIDs {
			rows = append(rows, []any{id, tagID})
		}
		if err := r.insertBatch(ctx, "archived_post_tags", []string{"archived_post_id", "tag_id"}, rows); err != nil {
			return nil, err
		}
	}
	if len(params.Comments) > 0 {
		rows := make([][]any, 0, len(params.Comments))
		for _, c := range params.Comments {
			rows = append(rows, []any{c.OriginalID, c.Text, id, c.UserID, r.timeArg(c.CreatedAt), r.timeArg(c.UpdatedAt)})
		}
		if err := r.insertBatch(ctx, "archived_comments",
			[]string{"original_id", "text", "archived_post_id", "user_id", "created_at", "updated_at"}, rows); err != nil {
			return nil, err
		}
	}

	return &model.ArchivedPost{
		ID:            id,
		OriginalID:    params.OriginalID,
		Title:         params.Title,
		Description:   params.Description,
		UserID:        params.UserID,
		CreatedAt:     params.CreatedAt,
		UpdatedAt:     params.UpdatedAt,
		ArchivedAt:    archivedAt,
		CommentsCount: len(params.Comments),
	}, nil
}

func (r *archivedPostRepo) ReassignCommentAuthor(ctx context.Context, oldUserID, newUserID uint) (int, error) {
	query, args := r.sql().Update("archived_comments").
		Set("user_id", newUserID).
		Where(entsql.EQ("user_id", oldUserID)).
		Query()
	n, err := r.exec(ctx, query, args)
	if err != nil {
		return 0, fmt.Errorf("迁移归档评论作者失败: %w", err)
	}
	return int(n), nil
}

func (r *archivedPostRepo) DeleteArchivedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	query, args := r.sql().Delete("archived_posts").
		Where(entsql.LT("archived_at", r.timeArg(cutoff))).
		Query()
	n, err := r.exec(ctx, query, args)
	if err != nil {
		return 0, fmt.Errorf("清理过期归档文章失败: %w", err)
	}
	return int(n), nil
}
