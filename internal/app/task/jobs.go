/*
 * @Description:
 * @Author: 安知鱼
 * @Date: 2026-03-09 16:09:46
 * @LastEditTime: 2026-03-19 10:03:36
 * @LastEditors: 安知鱼
 */
// internal/app/task/jobs.go
package task

import "context"

// Job 与 cron.Job 接口兼容。
type Job interface {
	Run()
	Name() string
}

// SnapshotExporter 把一份快照写到外部存储，返回对象键
type SnapshotExporter interface {
	Export(ctx context.Context, name string, body []byte) (string, error)
}
