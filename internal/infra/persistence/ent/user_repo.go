/*
 * @Description:
 * @Author: 安知鱼
 * @Date: 2026-03-02 18:20:31
 * @LastEditTime: 2026-03-16 21:02:17
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

var userColumns = []string{"id", "identity_id", "email", "first_name", "last_name", "role", "is_active", "created_at", "updated_at"}

type userRepo struct {
	sqlRepo
}

// NewUserRepo 是 userRepo 的构造函数，conn 可以是驱动也可以是事务
func NewUserRepo(conn dialect.ExecQuerier, dialectName string) repository.UserRepository {
	return &userRepo{sqlRepo{conn: conn, dialect: dialectName}}
}

func scanUser(rows *entsql.Rows) (*model.User, error) {
	var (
		u                model.User
		role             string
		created, updated dbTime
	)
	if err := rows.Scan(&u.ID, &u.IdentityID, &u.Email, &u.FirstName, &u.LastName, &role, &u.IsActive, &created, &updated); err != nil {
		return nil, fmt.Errorf("读取用户失败: %w", err)
	}
	u.Role = model.Role(role)
	u.CreatedAt = created.Time
	u.UpdatedAt = updated.Time
	return &u, nil
}

func (r *userRepo) findOne(ctx context.Context, p *entsql.Predicate) (*model.User, error) {
	query, args := r.sql().Select(userColumns...).
		From(r.sql().Table("users")).
		Where(p).
		Limit(1).
		Query()

	var user *model.User
	err := r.queryRows(ctx, query, args, func(rows *entsql.Rows) error {
		u, err := scanUser(rows)
		user = u
		return err
	})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, constant.ErrNotFound
	}
	return user, nil
}

func (r *userRepo) FindByID(ctx context.Context, id uint) (*model.User, error) {
	return r.findOne(ctx, entsql.EQ("id", id))
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, entsql.EQ("email", email))
}

func (r *userRepo) Create(ctx context.Context, params *model.CreateUserParams) (*model.User, error) {
	role := params.Role
	if role == "" {
		role = model.RoleUser
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: 未知的用户角色 %q", constant.ErrBadRequest, role)
	}

	now := nowUTC()
	ib := r.sql().Insert("users").
		Columns("identity_id", "email", "first_name", "last_name", "role", "is_active", "created_at", "updated_at").
		Values(params.IdentityID, params.Email, params.FirstName, params.LastName, string(role), true, r.timeArg(now), r.timeArg(now))

	id, err := r.insertID(ctx, ib)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: 邮箱 %s 已被使用", constant.ErrDuplicate, params.Email)
		}
		return nil, fmt.Errorf("创建用户失败: %w", err)
	}

	return &model.User{
		ID:         id,
		IdentityID: params.IdentityID,
		Email:      params.Email,
		FirstName:  params.FirstName,
		LastName:   params.LastName,
		Role:       role,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func (r *userRepo) Delete(ctx context.Context, id uint) error {
	query, args := r.sql().Delete("users").Where(entsql.EQ("id", id)).Query()
	n, err := r.exec(ctx, query, args)
	if err != nil {
		return fmt.Errorf("删除用户失败: %w", err)
	}
	if n == 0 {
		return constant.ErrNotFound
	}
	return nil
}

func (r *userRepo) SetActive(ctx context.Context, id uint, active bool) error {
	query, args := r.sql().Update("users").
		Set("is_active", active).
		Set("updated_at", r.timeArg(nowUTC())).
		Where(entsql.EQ("id", id)).
		Query()
	n, err := r.exec(ctx, query, args)
	if err != nil {
		return fmt.Errorf("更新用户状态失败: %w", err)
	}
	if n == 0 {
		return constant.ErrNotFound
	}
	return nil
}

// userSummaries 批量读取用户简要信息
func (r sqlRepo) userSummaries(ctx context.Context, ids []uint) (map[uint]*model.UserSummary, error) {
	result := make(map[uint]*model.UserSummary, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	b := r.builder()
	b.WriteString("SELECT id, email, first_name, last_name FROM users WHERE ")
	writeIn(b, "id", ids)
	query, args := b.Query()
	err := r.queryRows(ctx, query, args, func(rows *entsql.Rows) error {
		var s model.UserSummary
		if err := rows.Scan(&s.ID, &s.Email, &s.FirstName, &s.LastName); err != nil {
			return err
		}
		result[s.ID] = &s
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("读取用户信息失败: %w", err)
	}
	return result, nil
}
