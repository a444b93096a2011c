/*
 * @Description: 数据库迁移服务（建表、索引与增量字段）
 * @Author: 安知鱼
 * @Date: 2026-03-02 17:20:11
 * @LastEditTime: 2026-03-19 10:02:45
 * @LastEditors: 安知鱼
 */
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"entgo.io/ent/dialect"
)

// MigrationService 数据库迁移服务
type MigrationService struct {
	db      *sql.DB
	dialect string
}

// NewMigrationService 创建迁移服务
func NewMigrationService(db *sql.DB, dialectName string) *MigrationService {
	return &MigrationService{
		db:      db,
		dialect: dialectName,
	}
}

// RunMigrations 执行所有迁移，可重复执行
func (m *MigrationService) RunMigrations(ctx context.Context) error {
	log.Println("📋 开始执行数据库迁移...")

	trigram := false
	if m.dialect == dialect.Postgres {
		if _, err := m.db.ExecContext(ctx, `CREATE EXTENSION IF NOT EXISTS pg_trgm`); err != nil {
			log.Printf("  ⚠️ 启用 pg_trgm 扩展失败: %v", err)
		}
		// 扩展可能已由管理员预先安装
		trigram = TrigramAvailable(ctx, m.db, m.dialect)
		if !trigram {
			log.Println("  ⚠️ pg_trgm 不可用，归档搜索将退化为 LIKE 匹配")
		}
	}

	var stmts []string
	switch m.dialect {
	case dialect.Postgres:
		stmts = postgresSchema
		if trigram {
			stmts = append(stmts, postgresTrigramIndexes...)
		}
	case dialect.MySQL:
		stmts = mysqlSchema
	case dialect.SQLite:
		stmts = sqliteSchema
	default:
		return fmt.Errorf("不支持的数据库类型: %s", m.dialect)
	}

	for _, stmt := range stmts {
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("执行建表语句失败: %w\n%s", err, stmt)
		}
	}

	if err := m.migrateSnapshotVersion(ctx); err != nil {
		return fmt.Errorf("snapshot_version 字段迁移失败: %w", err)
	}

	log.Println("✅ 数据库迁移完成")
	return nil
}

// migrateSnapshotVersion 为早期创建的 archived_users 表补充快照版本列
func (m *MigrationService) migrateSnapshotVersion(ctx context.Context) error {
	exists, err := m.columnExists(ctx, "archived_users", "snapshot_version")
	if err != nil {
		return err
	}
	if exists {
		log.Println("  ✓ snapshot_version 字段已存在，跳过迁移")
		return nil
	}

	log.Println("  → 添加 snapshot_version 字段...")
	_, err = m.db.ExecContext(ctx, `ALTER TABLE archived_users ADD COLUMN snapshot_version INTEGER NOT NULL DEFAULT 1`)
	if err != nil {
		return fmt.Errorf("添加 snapshot_version 字段失败: %w", err)
	}
	return nil
}

// TrigramAvailable 检查 Postgres 是否已安装 pg_trgm，其他方言总是返回 false
func TrigramAvailable(ctx context.Context, db *sql.DB, dialectName string) bool {
	if dialectName != dialect.Postgres {
		return false
	}
	var installed bool
	err := db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM pg_extension WHERE extname = 'pg_trgm')`).Scan(&installed)
	if err != nil {
		log.Printf("  ⚠️ 查询 pg_trgm 扩展失败: %v", err)
		return false
	}
	return installed
}

// columnExists 检查列是否存在
func (m *MigrationService) columnExists(ctx context.Context, tableName, columnName string) (bool, error) {
	var query string
	switch m.dialect {
	case dialect.MySQL:
		query = `SELECT COUNT(*) FROM INFORMATION_SCHEMA.COLUMNS
			WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ? AND COLUMN_NAME = ?`
	case dialect.Postgres:
		query = `SELECT COUNT(*) FROM information_schema.columns
			WHERE table_name = $1 AND column_name = $2`
	case dialect.SQLite:
		query = `SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`
	default:
		return false, fmt.Errorf("不支持的数据库类型: %s", m.dialect)
	}

	var count int
	if err := m.db.QueryRowContext(ctx, query, tableName, columnName).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		identity_id VARCHAR(255) NOT NULL DEFAULT '',
		email VARCHAR(255) NOT NULL UNIQUE,
		first_name VARCHAR(100) NOT NULL DEFAULT '',
		last_name VARCHAR(100) NOT NULL DEFAULT '',
		role VARCHAR(20) NOT NULL DEFAULT 'user',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS posts (
		id BIGSERIAL PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		deleted_at TIMESTAMPTZ NULL
	)`,
	`CREATE TABLE IF NOT EXISTS comments (
		id BIGSERIAL PRIMARY KEY,
		text TEXT NOT NULL,
		post_id BIGINT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS tags (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(100) NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS post_tags (
		post_id BIGINT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
		tag_id BIGINT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
		PRIMARY KEY (post_id, tag_id)
	)`,
	`CREATE TABLE IF NOT EXISTS archived_posts (
		id BIGSERIAL PRIMARY KEY,
		original_id BIGINT NOT NULL UNIQUE,
		title VARCHAR(255) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		archived_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS archived_comments (
		id BIGSERIAL PRIMARY KEY,
		original_id BIGINT NOT NULL,
		text TEXT NOT NULL,
		archived_post_id BIGINT NOT NULL REFERENCES archived_posts(id) ON DELETE CASCADE,
		user_id BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS archived_post_tags (
		archived_post_id BIGINT NOT NULL REFERENCES archived_posts(id) ON DELETE CASCADE,
		tag_id BIGINT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
		PRIMARY KEY (archived_post_id, tag_id)
	)`,
	`CREATE TABLE IF NOT EXISTS archived_users (
		id BIGSERIAL PRIMARY KEY,
		original_user_id BIGINT NOT NULL UNIQUE,
		archived_at TIMESTAMPTZ NOT NULL,
		archived_by BIGINT NOT NULL,
		snapshot_version INTEGER NOT NULL DEFAULT 1,
		snapshot JSONB NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_user_id ON posts(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_comments_post_id ON comments(post_id)`,
	`CREATE INDEX IF NOT EXISTS idx_comments_user_id ON comments(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_archived_posts_user_id ON archived_posts(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_archived_posts_archived_at ON archived_posts(archived_at)`,
	`CREATE INDEX IF NOT EXISTS idx_archived_comments_archived_post_id ON archived_comments(archived_post_id)`,
	`CREATE INDEX IF NOT EXISTS idx_archived_comments_user_id ON archived_comments(user_id)`,
}

var postgresTrigramIndexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_archived_posts_title_trgm ON archived_posts USING gin (title gin_trgm_ops)`,
	`CREATE INDEX IF NOT EXISTS idx_archived_posts_description_trgm ON archived_posts USING gin (description gin_trgm_ops)`,
}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		identity_id VARCHAR(255) NOT NULL DEFAULT '',
		email VARCHAR(255) NOT NULL UNIQUE,
		first_name VARCHAR(100) NOT NULL DEFAULT '',
		last_name VARCHAR(100) NOT NULL DEFAULT '',
		role VARCHAR(20) NOT NULL DEFAULT 'user',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS posts (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		description TEXT NOT NULL,
		user_id BIGINT UNSIGNED NOT NULL,
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL,
		deleted_at DATETIME(6) NULL,
		INDEX idx_posts_user_id (user_id),
		CONSTRAINT fk_posts_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS comments (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		text TEXT NOT NULL,
		post_id BIGINT UNSIGNED NOT NULL,
		user_id BIGINT UNSIGNED NOT NULL,
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL,
		INDEX idx_comments_post_id (post_id),
		INDEX idx_comments_user_id (user_id),
		CONSTRAINT fk_comments_post FOREIGN KEY (post_id) REFERENCES posts(id) ON DELETE CASCADE,
		CONSTRAINT fk_comments_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS tags (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(100) NOT NULL UNIQUE,
		description TEXT NOT NULL,
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS post_tags (
		post_id BIGINT UNSIGNED NOT NULL,
		tag_id BIGINT UNSIGNED NOT NULL,
		PRIMARY KEY (post_id, tag_id),
		CONSTRAINT fk_post_tags_post FOREIGN KEY (post_id) REFERENCES posts(id) ON DELETE CASCADE,
		CONSTRAINT fk_post_tags_tag FOREIGN KEY (tag_id) REFERENCES tags(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS archived_posts (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		original_id BIGINT UNSIGNED NOT NULL UNIQUE,
		title VARCHAR(255) NOT NULL,
		description TEXT NOT NULL,
		user_id BIGINT UNSIGNED NOT NULL,
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL,
		archived_at DATETIME(6) NOT NULL,
		INDEX idx_archived_posts_user_id (user_id),
		INDEX idx_archived_posts_archived_at (archived_at),
		CONSTRAINT fk_archived_posts_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS archived_comments (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		original_id BIGINT UNSIGNED NOT NULL,
		text TEXT NOT NULL,
		archived_post_id BIGINT UNSIGNED NOT NULL,
		user_id BIGINT UNSIGNED NOT NULL,
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL,
		INDEX idx_archived_comments_archived_post_id (archived_post_id),
		INDEX idx_archived_comments_user_id (user_id),
		CONSTRAINT fk_archived_comments_post FOREIGN KEY (archived_post_id) REFERENCES archived_posts(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS archived_post_tags (
		archived_post_id BIGINT UNSIGNED NOT NULL,
		tag_id BIGINT UNSIGNED NOT NULL,
		PRIMARY KEY (archived_post_id, tag_id),
		CONSTRAINT fk_archived_post_tags_post FOREIGN KEY (archived_post_id) REFERENCES archived_posts(id) ON DELETE CASCADE,
		CONSTRAINT fk_archived_post_tags_tag FOREIGN KEY (tag_id) REFERENCES tags(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS archived_users (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		original_user_id BIGINT UNSIGNED NOT NULL UNIQUE,
		archived_at DATETIME(6) NOT NULL,
		archived_by BIGINT UNSIGNED NOT NULL,
		snapshot_version INT NOT NULL DEFAULT 1,
		snapshot JSON NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// SQLite 使用 AUTOINCREMENT，保证已删除行的 ID 不会被重新分配
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		identity_id TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL UNIQUE,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT 'user',
		is_active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS posts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		deleted_at DATETIME NULL
	)`,
	`CREATE TABLE IF NOT EXISTS comments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		text TEXT NOT NULL,
		post_id INTEGER NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS tags (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS post_tags (
		post_id INTEGER NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
		tag_id INTEGER NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
		PRIMARY KEY (post_id, tag_id)
	)`,
	`CREATE TABLE IF NOT EXISTS archived_posts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		original_id INTEGER NOT NULL UNIQUE,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		archived_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS archived_comments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		original_id INTEGER NOT NULL,
		text TEXT NOT NULL,
		archived_post_id INTEGER NOT NULL REFERENCES archived_posts(id) ON DELETE CASCADE,
		user_id INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS archived_post_tags (
		archived_post_id INTEGER NOT NULL REFERENCES archived_posts(id) ON DELETE CASCADE,
		tag_id INTEGER NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
		PRIMARY KEY (archived_post_id, tag_id)
	)`,
	`CREATE TABLE IF NOT EXISTS archived_users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		original_user_id INTEGER NOT NULL UNIQUE,
		archived_at DATETIME NOT NULL,
		archived_by INTEGER NOT NULL,
		snapshot_version INTEGER NOT NULL DEFAULT 1,
		snapshot TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_user_id ON posts(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_comments_post_id ON comments(post_id)`,
	`CREATE INDEX IF NOT EXISTS idx_comments_user_id ON comments(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_archived_posts_user_id ON archived_posts(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_archived_posts_archived_at ON archived_posts(archived_at)`,
	`CREATE INDEX IF NOT EXISTS idx_archived_comments_archived_post_id ON archived_comments(archived_post_id)`,
	`CREATE INDEX IF NOT EXISTS idx_archived_comments_user_id ON archived_comments(user_id)`,
}
