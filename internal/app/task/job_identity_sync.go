/*
 * @Description: 在外部身份服务中停用/启用账号
 * @Author: 安知鱼
 * @Date: 2026-03-09 17:12:30
 * @LastEditTime: 2026-03-19 11:40:02
 * @LastEditors: 安知鱼
 */
package task

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/anzhiyu-c/anheyu-archive/pkg/domain/model"
	"github.com/anzhiyu-c/anheyu-archive/pkg/service/identity"
)

const identitySyncTimeout = 30 * time.Second

// IdentitySyncJob 只执行一次，不重试。失败以 Warn 记录，绝不影响已经提交的归档/恢复。
type IdentitySyncJob struct {
	provider identity.Provider
	action   model.IdentityAction
	email    string
	logger   *slog.Logger
}

// NewIdentitySyncJob 是任务的构造函数
func NewIdentitySyncJob(provider identity.Provider, action model.IdentityAction, email string, logger *slog.Logger) *IdentitySyncJob {
	return &IdentitySyncJob{
		provider: provider,
		action:   action,
		email:    email,
		logger:   logger,
	}
}

// Run 是 Job 接口要求实现的方法
func (j *IdentitySyncJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), identitySyncTimeout)
	defer cancel()

	if err := identity.Apply(ctx, j.provider, j.action, j.email); err != nil {
		j.logger.Warn("Identity provider call failed, ignoring",
			slog.String("provider", j.provider.Name()),
			slog.String("action", string(j.action)),
			slog.String("email", j.email),
			slog.Any("error", err),
		)
		return
	}
	j.logger.Info("Identity provider call succeeded",
		slog.String("provider", j.provider.Name()),
		slog.String("action", string(j.action)),
	)
}

// Name 方法让日志包装器可以打印出更有意义的任务名
func (j *IdentitySyncJob) Name() string {
	return fmt.Sprintf("IdentitySyncJob(%s)", j.action)
}
