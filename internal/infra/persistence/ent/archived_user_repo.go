package ent

import (
	"context"
	"fmt"
	"strings"

	"github.com/anzhiyu-c/anheyu-archive/pkg/constant"
	"github.com/anzhiyu-c/anheyu-archive/pkg/domain/model"
	"github.com/anzhiyu-c/anheyu-archive/pkg/domain/repository"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

var archivedUserColumns = []string{"id", "original_user_id", "archived_at", "archived_by", "snapshot_version", "snapshot"}

type archivedUserRepo struct {
	sqlRepo
}

// NewArchivedUserRepo 是 archivedUserRepo 的构造函数
func NewArchivedUserRepo(conn dialect.ExecQuerier, dialectName string, opts ...Option) repository.ArchivedUserRepository {
	return &archivedUserRepo{newSQLRepo(conn, dialectName, opts...)}
}

func scanArchivedUser(rows *entsql.Rows) (*model.ArchivedUser, error) {
	var (
		a        model.ArchivedUser
		archived dbTime
		version  int
		raw      []byte
	)
	if err := rows.Scan(&a.ID, &a.OriginalUserID, &archived, &a.ArchivedBy, &version, &raw); err != nil {
		return nil, fmt.Errorf("读取归档用户失败: %w", err)
	}
	snapshot, err := model.DecodeUserSnapshot(version, raw)
	if err != nil {
		return nil, fmt.Errorf("归档用户 %d 的快照无法解析: %w", a.ID, err)
	}
	a.ArchivedAt = archived.Time
	a.Snapshot = snapshot
	return &a, nil
}

func (r *archivedUserRepo) Create(ctx context.Context, params *model.CreateArchivedUserParams) (*model.ArchivedUser, error) {
	raw, err := model.EncodeUserSnapshot(params.Snapshot)
	if err != nil {
		return nil, err
	}

	now := nowUTC()
	id, err := r.insertID(ctx, r.sql().Insert("archived_users").
		Columns("original_user_id", "archived_at", "archived_by", "snapshot_version", "snapshot").
		Values(params.OriginalUserID, r.timeArg(now), params.ArchivedBy, params.Snapshot.Version, string(raw)))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, constant.ErrUserAlreadyArchived
		}
		return nil, fmt.Errorf("写入归档用户失败: %w", err)
	}

	return &model.ArchivedUser{
		ID:             id,
		OriginalUserID: params.OriginalUserID,
		ArchivedAt:     now,
		ArchivedBy:     params.ArchivedBy,
		Snapshot:       params.Snapshot,
	}, nil
}

func (r *archivedUserRepo) findOne(ctx context.Context, p *entsql.Predicate) (*model.ArchivedUser, error) {
	query, args := r.sql().Select(archivedUserColumns...).
		From(r.sql().Table("archived_users")).
		Where(p).
		Limit(1).
		Query()

	var archived *model.ArchivedUser
	err := r.queryRows(ctx, query, args, func(rows *entsql.Rows) error {
		a, err := scanArchivedUser(rows)
		archived = a
		return err
	})
	if err != nil {
		return nil, err
	}
	if archived == nil {
		return nil, constant.ErrNotFound
	}
	return archived, nil
}

func (r *archivedUserRepo) FindByID(ctx context.Context, id uint) (*model.ArchivedUser, error) {
	return r.findOne(ctx, entsql.EQ("id", id))
}

func (r *archivedUserRepo) FindByOriginalUserID(ctx context.Context, originalUserID uint) (*model.ArchivedUser, error) {
	return r.findOne(ctx, entsql.EQ("original_user_id", originalUserID))
}

func (r *archivedUserRepo) List(ctx context.Context, limit, offset int, search string) (*repository.PageResult[model.ArchivedUser], error) {
	if limit <= 0 {
		limit = model.DefaultArchiveListLimit
	}
	if limit > model.MaxArchiveListLimit {
		limit = model.MaxArchiveListLimit
	}
	if offset < 0 {
		offset = 0
	}

	cb := r.builder()
	cb.WriteString("SELECT COUNT(*) FROM archived_users")
	r.writeSearch(cb, search)
	countQuery, countArgs := cb.Query()
	total, err := r.count(ctx, countQuery, countArgs)
	if err != nil {
		return nil, fmt.Errorf("统计归档用户失败: %w", err)
	}

	b := r.builder()
	b.WriteString("SELECT " + strings.Join(archivedUserColumns, ", ") + " FROM archived_users")
	r.writeSearch(b, search)
	b.WriteString(" ORDER BY archived_at DESC, id DESC LIMIT ").Arg(limit).WriteString(" OFFSET ").Arg(offset)
	query, args := b.Query()

	var items []*model.ArchivedUser
	err = r.queryRows(ctx, query, args, func(rows *entsql.Rows) error {
		a, err := scanArchivedUser(rows)
		if err != nil {
			return err
		}
		items = append(items, a)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &repository.PageResult[model.ArchivedUser]{Items: items, Total: total}, nil
}

// writeSearch 在快照的 userData.email / firstName / lastName 上匹配
func (r *archivedUserRepo) writeSearch(b *entsql.Builder, search string) {
	search = strings.TrimSpace(search)
	if search == "" {
		return
	}
	fields := []string{"email", "firstName", "lastName"}
	b.WriteString(" WHERE (")
	for i, field := range fields {
		if i > 0 {
			b.WriteString(" OR ")
		}
		switch {
		case r.trigram:
			b.WriteString("similarity(snapshot->'userData'->>'" + field + "', ").Arg(search).WriteString(") > 0.3")
		case r.dialect == dialect.Postgres:
			b.WriteString("LOWER(snapshot->'userData'->>'" + field + "') LIKE ").
				Arg("%" + strings.ToLower(search) + "%")
		case r.dialect == dialect.MySQL:
			b.WriteString("LOWER(JSON_UNQUOTE(JSON_EXTRACT(snapshot, '$.userData." + field + "'))) LIKE ").
				Arg("%" + strings.ToLower(search) + "%")
		default:
			b.WriteString("LOWER(json_extract(snapshot, '$.userData." + field + "')) LIKE ").
				Arg("%" + strings.ToLower(search) + "%")
		}
	}
	b.WriteString(")")
}

func (r *archivedUserRepo) Delete(ctx context.Context, id uint) error {
	query, args := r.sql().Delete("archived_users").Where(entsql.EQ("id", id)).Query()
	n, err := r.exec(ctx, query, args)
	if err != nil {
		return fmt.Errorf("删除归档用户失败: %w", err)
	}
	if n == 0 {
		return constant.ErrNotFound
	}
	return nil
}
