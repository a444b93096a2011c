/*
 * @Description: 基于 ent dialect/sql 的仓储公共部分
 * @Author: 安知鱼
 * @Date: 2026-03-02 18:02:10
 * @LastEditTime: 2026-03-20 21:16:43
 * @LastEditors: 安知鱼
 */
package ent

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

// sqliteTimeLayout 定长格式，保证 SQLite 中按文本比较时与时间顺序一致
const sqliteTimeLayout = "2006-01-02 15:04:05.000000"

// insertBatchSize 控制批量插入每条语句的行数，避免超过驱动的参数个数上限
const insertBatchSize = 500

// sqlRepo 持有当前连接（*entsql.Driver 或 dialect.Tx）和方言。
type sqlRepo struct {
	conn    dialect.ExecQuerier
	dialect string
	// trigram 为 true 时 Postgres 搜索使用 similarity()，否则退化为 LIKE
	trigram bool
}

// Option 调整仓储的可选行为
type Option func(*sqlRepo)

// WithTrigram 声明数据库已安装 pg_trgm，仅对 Postgres 生效
func WithTrigram(enabled bool) Option {
	return func(r *sqlRepo) {
		r.trigram = enabled && r.dialect == dialect.Postgres
	}
}

func newSQLRepo(conn dialect.ExecQuerier, dialectName string, opts ...Option) sqlRepo {
	r := sqlRepo{conn: conn, dialect: dialectName}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

func (r sqlRepo) sql() *entsql.DialectBuilder {
	return entsql.Dialect(r.dialect)
}

// builder 返回一个按当前方言生成占位符的原始语句构造器
func (r sqlRepo) builder() *entsql.Builder {
	b := &entsql.Builder{}
	b.SetDialect(r.dialect)
	return b
}

// timeArg 统一写入数据库的时间参数
func (r sqlRepo) timeArg(t time.Time) any {
	t = t.UTC()
	if r.dialect == dialect.SQLite {
		return t.Format(sqliteTimeLayout)
	}
	return t
}

func (r sqlRepo) nullableTimeArg(t *time.Time) any {
	if t == nil {
		return nil
	}
	return r.timeArg(*t)
}

func (r sqlRepo) exec(ctx context.Context, query string, args []any) (int64, error) {
	var res sql.Result
	if err := r.conn.Exec(ctx, query, args, &res); err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// queryRows 执行查询并对每一行调用 scan
func (r sqlRepo) queryRows(ctx context.Context, query string, args []any, scan func(rows *entsql.Rows) error) error {
	rows := &entsql.Rows{}
	if err := r.conn.Query(ctx, query, args, rows); err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (r sqlRepo) count(ctx context.Context, query string, args []any) (int64, error) {
	var total int64
	err := r.queryRows(ctx, query, args, func(rows *entsql.Rows) error {
		return rows.Scan(&total)
	})
	return total, err
}

// insertID 执行插入并返回自增 ID。MySQL 不支持 RETURNING，改用 LastInsertId。
func (r sqlRepo) insertID(ctx context.Context, ib *entsql.InsertBuilder) (uint, error) {
	if r.dialect == dialect.MySQL {
		query, args := ib.Query()
		var res sql.Result
		if err := r.conn.Exec(ctx, query, args, &res); err != nil {
			return 0, err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return 0, err
		}
		return uint(id), nil
	}

	query, args := ib.Returning("id").Query()
	var id uint
	err := r.queryRows(ctx, query, args, func(rows *entsql.Rows) error {
		return rows.Scan(&id)
	})
	if err != nil {
		return 0, err
	}
	if id == 0 {
		return 0, fmt.Errorf("插入后未返回 ID")
	}
	return id, nil
}

// insertBatch 分批插入多行，rows 中每个元素是一行的值
func (r sqlRepo) insertBatch(ctx context.Context, table string, columns []string, rows [][]any) error {
	for start := 0; start < len(rows); start += insertBatchSize {
		end := min(start+insertBatchSize, len(rows))
		ib := r.sql().Insert(table).Columns(columns...)
		for _, values := range rows[start:end] {
			ib.Values(values...)
		}
		query, args := ib.Query()
		if _, err := r.exec(ctx, query, args); err != nil {
			return fmt.Errorf("批量写入 %s 失败: %w", table, err)
		}
	}
	return nil
}

// writeIn 写入 "col IN (?, ?, ...)"，ids 不能为空
func writeIn(b *entsql.Builder, column string, ids []uint) {
	b.WriteString(column).WriteString(" IN (")
	for i, id := range ids {
		if i > 0 {
			b.WriteString(", ")
		}
		b.Arg(id)
	}
	b.WriteString(")")
}

func nowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// dbTime 兼容三种驱动返回的时间格式：time.Time、文本和字节。
type dbTime struct {
	time.Time
	Valid bool
}

var timeLayouts = []string{
	sqliteTimeLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
}

func (t *dbTime) Scan(v any) error {
	switch x := v.(type) {
	case nil:
		t.Time, t.Valid = time.Time{}, false
		return nil
	case time.Time:
		t.Time, t.Valid = x.UTC(), true
		return nil
	case string:
		return t.parse(x)
	case []byte:
		return t.parse(string(x))
	}
	return fmt.Errorf("无法将 %T 解析为时间", v)
}

func (t *dbTime) parse(s string) error {
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time, t.Valid = parsed.UTC(), true
			return nil
		}
	}
	return fmt.Errorf("无法解析时间字符串: %q", s)
}

// Ptr 返回可空时间的指针形式
func (t dbTime) Ptr() *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
