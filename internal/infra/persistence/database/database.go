/*
 * @Description: 数据库连接管理 (支持多种数据库)
 * @Author: 安知鱼
 * @Date: 2026-03-02 16:09:46
 * @LastEditTime: 2026-03-19 09:54:27
 * @LastEditors: 安知鱼
 */
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/anzhiyu-c/anheyu-archive/pkg/config"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// DialectOf 将配置中的数据库类型转换为 ent 方言名。
func DialectOf(dbType string) (string, error) {
	switch dbType {
	case "", "sqlite", "sqlite3":
		return dialect.SQLite, nil
	case "mysql", "mariadb":
		return dialect.MySQL, nil
	case "postgres", "postgresql":
		return dialect.Postgres, nil
	}
	return "", fmt.Errorf("不支持的数据库驱动: %s (支持: mysql/mariadb, postgres, sqlite)", dbType)
}

// SQLiteDSN 返回启用外键约束的 SQLite 连接串。
func SQLiteDSN(path string) string {
	return fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(10000)&_txlock=immediate", path)
}

// NewSQLDB 创建并返回一个标准的 *sql.DB 连接池，以及对应的 ent 方言名。
func NewSQLDB(cfg *config.Config) (*sql.DB, string, error) {
	dbType := cfg.GetString(config.KeyDBType)
	if dbType == "" {
		log.Println("提示: 配置文件中未指定 'Database.Type'，将默认使用 'sqlite'")
	}
	dialectName, err := DialectOf(dbType)
	if err != nil {
		return nil, "", err
	}

	dbUser := cfg.GetString(config.KeyDBUser)
	dbPass := cfg.GetString(config.KeyDBPassword)
	dbHost := cfg.GetString(config.KeyDBHost)
	dbPort := cfg.GetString(config.KeyDBPort)
	dbName := cfg.GetString(config.KeyDBName)

	var dsn string
	switch dialectName {
	case dialect.MySQL:
		if dbUser == "" || dbHost == "" || dbPort == "" || dbName == "" {
			return nil, "", fmt.Errorf("MySQL 连接参数不完整 (需要 User, Host, Port, Name)")
		}
		dsn = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			dbUser, dbPass, dbHost, dbPort, dbName)
	case dialect.Postgres:
		if dbUser == "" || dbHost == "" || dbPort == "" || dbName == "" {
			return nil, "", fmt.Errorf("PostgreSQL 连接参数不完整 (需要 User, Host, Port, Name)")
		}
		dsn = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			dbHost, dbPort, dbUser, dbPass, dbName)
	case dialect.SQLite:
		dataDir := "./data"
		if err := os.MkdirAll(dataDir, os.ModePerm); err != nil {
			return nil, "", fmt.Errorf("无法创建 data 目录: %w", err)
		}
		finalDbName := dbName
		if finalDbName == "" {
			finalDbName = "anheyu_archive.db"
		}
		finalPath := filepath.Join(dataDir, finalDbName)
		log.Printf("【提示】SQLite 数据库路径: %s\n", finalPath)
		dsn = SQLiteDSN(finalPath)
	}

	db, err := Open(dialectName, dsn)
	if err != nil {
		return nil, "", err
	}
	log.Printf("✅ %s 数据库连接池创建成功！\n", dialectName)
	return db, dialectName, nil
}

// Open 按方言打开连接池并 Ping。
func Open(dialectName, dsn string) (*sql.DB, error) {
	driverName := dialectName
	if dialectName == dialect.SQLite {
		driverName = "sqlite3"
	}
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("打开 sql.DB 连接失败 (驱动: %s): %w", driverName, err)
	}

	db.SetMaxIdleConns(10)
	db.SetMaxOpenConns(100)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("无法 Ping 通数据库 (驱动: %s): %w", driverName, err)
	}
	return db, nil
}

// NewDriver 包装连接池为 ent 驱动，并在启动时执行建表迁移。
func NewDriver(ctx context.Context, db *sql.DB, dialectName string, debug bool) (dialect.Driver, error) {
	log.Println("⚡ 开始数据库表结构迁移...")
	if err := NewMigrationService(db, dialectName).RunMigrations(ctx); err != nil {
		return nil, fmt.Errorf("数据库迁移失败: %w", err)
	}

	var drv dialect.Driver = entsql.OpenDB(dialectName, db)
	if debug {
		drv = dialect.Debug(drv)
		log.Println("【数据库】Debug模式已开启，将打印所有执行的SQL语句。")
	}
	log.Println("✅ 数据库驱动初始化成功！")
	return drv, nil
}
