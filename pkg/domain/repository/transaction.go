/*
 * @Description:
 * @Author: 安知鱼
 * @Date: 2026-03-02 16:43:46
 * @LastEditTime: 2026-03-18 11:55:16
 * @LastEditors: 安知鱼
 */
package repository

import "context"

// Repositories 结构体聚合了所有在单个事务中可能用到的仓储接口。
// 每次 Do 调用都会基于同一个事务创建一组新的实例，事务结束后随之丢弃。
type Repositories struct {
	User         UserRepository
	Post         PostRepository
	Comment      CommentRepository
	Tag          TagRepository
	ArchivedPost ArchivedPostRepository
	ArchivedUser ArchivedUserRepository
}

// TransactionManager 定义了事务管理器的接口。
// 它的职责是执行一个业务逻辑单元，并确保其中的所有数据库操作都在单个事务中完成。
type TransactionManager interface {
	// Do 方法接收一个函数，该函数会在一个事务中被调用。
	// 如果函数返回错误或发生 panic，事务将回滚；否则，事务将提交。
	// ctx 被取消时事务同样会回滚。
	Do(ctx context.Context, fn func(repos Repositories) error) error
}
