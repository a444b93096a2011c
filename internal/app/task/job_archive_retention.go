/*
 * @Description: 归档文章过期清理定时任务
 * @Author: 安知鱼
 * @Date: 2026-03-10 09:30:00
 */
package task

import (
	"context"
	"log/slog"
	"time"

	"github.com/anzhiyu-c/anheyu-archive/pkg/domain/repository"
)

// ArchivedPostRetentionJob 永久删除归档时间超过保留天数的归档文章
type ArchivedPostRetentionJob struct {
	repo          repository.ArchivedPostRepository
	retentionDays int
	logger        *slog.Logger
	now           func() time.Time
}

// NewArchivedPostRetentionJob 是任务的构造函数
func NewArchivedPostRetentionJob(repo repository.ArchivedPostRepository, retentionDays int, logger *slog.Logger) *ArchivedPostRetentionJob {
	return &ArchivedPostRetentionJob{
		repo:          repo,
		retentionDays: retentionDays,
		logger:        logger,
		now:           time.Now,
	}
}

// Cutoff 返回本次清理的截止时间
func (j *ArchivedPostRetentionJob) Cutoff() time.Time {
	return j.now().UTC().AddDate(0, 0, -j.retentionDays)
}

// Run 是 Job 接口要求实现的方法
func (j *ArchivedPostRetentionJob) Run() {
	if j.retentionDays <= 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	cutoff := j.Cutoff()
	deleted, err := j.repo.DeleteArchivedBefore(ctx, cutoff)
	if err != nil {
		j.logger.Error("Failed to purge expired archived posts", slog.Any("error", err))
		return
	}
	j.logger.Info("Purged expired archived posts", slog.Int("deleted", deleted), slog.Time("cutoff", cutoff))
}

// Name 方法让日志包装器可以打印出更有意义的任务名
func (j *ArchivedPostRetentionJob) Name() string {
	return "ArchivedPostRetentionJob"
}
