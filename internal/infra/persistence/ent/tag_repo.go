/*
 * @Description:
 * @Author: 安知鱼
 * @Date: 2026-03-02 18:22:35
 * @LastEditTime: 2026-03-12 18:22:40
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

type tagRepo struct {
	sqlRepo
}

// NewTagRepo 是 tagRepo 的构造函数
func NewTagRepo(conn dialect.ExecQuerier, dialectName string) repository.TagRepository {
	return &tagRepo{sqlRepo{conn: conn, dialect: dialectName}}
}

func scanTag(rows *entsql.Rows, dest ...any) (*model.Tag, error) {
	var (
		t                model.Tag
		created, updated dbTime
	)
	dest = append(dest, &t.ID, &t.Name, &t.Description, &created, &updated)
	if err := rows.Scan(dest...); err != nil {
		return nil, fmt.Errorf("读取标签失败: %w", err)
	}
	t.CreatedAt = created.Time
	t.UpdatedAt = updated.Time
	return &t, nil
}

func (r *tagRepo) FindByName(ctx context.Context, name string) (*model.Tag, error) {
	query, args := r.sql().Select("id", "name", "description", "created_at", "updated_at").
		From(r.sql().Table("tags")).
		Where(entsql.EQ("name", name)).
		Limit(1).
		Query()

	var tag *model.Tag
	err := r.queryRows(ctx, query, args, func(rows *entsql.Rows) error {
		t, err := scanTag(rows)
		tag = t
		return err
	})
	if err != nil {
		return nil, err
	}
	if tag == nil {
		return nil, constant.ErrNotFound
	}
	return tag, nil
}

func (r *tagRepo) Create(ctx context.Context, params *model.CreateTagParams) (*model.Tag, error) {
	now := nowUTC()
	ib := r.sql().Insert("tags").
		Columns("name", "description", "created_at", "updated_at").
		Values(params.Name, params.Description, r.timeArg(now), r.timeArg(now))
	id, err := r.insertID(ctx, ib)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: 标签 %s 已存在", constant.ErrDuplicate, params.Name)
		}
		return nil, fmt.Errorf("创建标签失败: %w", err)
	}
	return &model.Tag{ID: id, Name: params.Name, Description: params.Description, CreatedAt: now, UpdatedAt: now}, nil
}

func (r *tagRepo) EnsureByName(ctx context.Context, params *model.CreateTagParams) (*model.Tag, error) {
	now := nowUTC()
	query, args := r.sql().Insert("tags").
		Columns("name", "description", "created_at", "updated_at").
		Values(params.Name, params.Description, r.timeArg(now), r.timeArg(now)).
		OnConflict(entsql.ConflictColumns("name"), entsql.DoNothing()).
		Query()
	if _, err := r.exec(ctx, query, args); err != nil {
		return nil, fmt.Errorf("创建标签 %s 失败: %w", params.Name, err)
	}
	return r.FindByName(ctx, params.Name)
}

func (r *tagRepo) AddToPost(ctx context.Context, postID, tagID uint) error {
	query, args := r.sql().Insert("post_tags").
		Columns("post_id", "tag_id").
		Values(postID, tagID).
		OnConflict(entsql.ConflictColumns("post_id", "tag_id"), entsql.DoNothing()).
		Query()
	if _, err := r.exec(ctx, query, args); err != nil {
		return fmt.Errorf("关联文章标签失败: %w", err)
	}
	return nil
}

func (r *tagRepo) RemoveFromPost(ctx context.Context, postID, tagID uint) error {
	query, args := r.sql().Delete("post_tags").
		Where(entsql.And(entsql.EQ("post_id", postID), entsql.EQ("tag_id", tagID))).
		Query()
	if _, err := r.exec(ctx, query, args); err != nil {
		return fmt.Errorf("移除文章标签失败: %w", err)
	}
	return nil
}

func (r *tagRepo) ListByPostID(ctx context.Context, postID uint) ([]*model.Tag, error) {
	tags, err := r.tagsByOwner(ctx, "post_tags", "post_id", []uint{postID})
	if err != nil {
		return nil, err
	}
	return tags[postID], nil
}

// tagsByOwner 通过关联表批量读取标签，按所属 ID 分组，组内按名称排序
func (r sqlRepo) tagsByOwner(ctx context.Context, joinTable, ownerColumn string, ownerIDs []uint) (map[uint][]*model.Tag, error) {
	result := make(map[uint][]*model.Tag, len(ownerIDs))
	if len(ownerIDs) == 0 {
		return result, nil
	}
	b := r.builder()
	b.WriteString("SELECT j." + ownerColumn + ", t.id, t.name, t.description, t.created_at, t.updated_at").
		WriteString(" FROM " + joinTable + " j JOIN tags t ON t.id = j.tag_id WHERE ")
	writeIn(b, "j."+ownerColumn, ownerIDs)
	b.WriteString(" ORDER BY t.name")
	query, args := b.Query()

	err := r.queryRows(ctx, query, args, func(rows *entsql.Rows) error {
		var ownerID uint
		t, err := scanTag(rows, &ownerID)
		if err != nil {
			return err
		}
		result[ownerID] = append(result[ownerID], t)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("查询标签失败: %w", err)
	}
	return result, nil
}
