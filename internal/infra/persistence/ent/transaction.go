/*
 * @Description:
 * @Author: 安知鱼
 * @Date: 2026-03-02 23:40:12
 * @LastEditTime: 2026-03-18 18:33:59
 * @LastEditors: 安知鱼
 */
package ent

import (
	"context"
	"fmt"

	"github.com/anzhiyu-c/anheyu-archive/pkg/domain/repository"

	"entgo.io/ent/dialect"
)

// entTransactionManager 基于 ent 驱动的事务管理器实现。
type entTransactionManager struct {
	drv  dialect.Driver
	opts []Option
}

// NewEntTransactionManager 是 entTransactionManager 的构造函数，opts 会传给事务内的仓储。
func NewEntTransactionManager(drv dialect.Driver, opts ...Option) repository.TransactionManager {
	return &entTransactionManager{drv: drv, opts: opts}
}

// NewRepositories 基于同一个连接（驱动或事务）创建一组仓储。
func NewRepositories(conn dialect.ExecQuerier, dialectName string, opts ...Option) repository.Repositories {
	return repository.Repositories{
		User:         NewUserRepo(conn, dialectName),
		Post:         NewPostRepo(conn, dialectName),
		Comment:      NewCommentRepo(conn, dialectName),
		Tag:          NewTagRepo(conn, dialectName),
		ArchivedPost: NewArchivedPostRepo(conn, dialectName, opts...),
		ArchivedUser: NewArchivedUserRepo(conn, dialectName, opts...),
	}
}

// Do 实现了 TransactionManager 接口。
// 它会开启一个事务，并将 Repositories 结构体中定义的所有仓库包裹在这个事务中。
func (tm *entTransactionManager) Do(ctx context.Context, fn func(repos repository.Repositories) error) error {
	tx, err := tm.drv.Tx(ctx)
	if err != nil {
		return fmt.Errorf("开启事务失败: %w", err)
	}

	defer func() {
		if v := recover(); v != nil {
			tx.Rollback()
			panic(v)
		}
	}()

	if err := fn(NewRepositories(tx, tm.drv.Dialect(), tm.opts...)); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			return fmt.Errorf("事务执行失败: %w, 回滚事务也失败: %v", err, rerr)
		}
		return err
	}

	// 调用方已放弃等待时不再提交
	if err := ctx.Err(); err != nil {
		tx.Rollback()
		return fmt.Errorf("事务提交前上下文已结束: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("提交事务失败: %w", err)
	}
	return nil
}
