/*
 * @Description: 归档用户快照导出任务
 * @Author: 安知鱼
 * @Date: 2026-03-09 18:02:11
 * @LastEditTime: 2026-03-20 18:35:40
 * @LastEditors: 安知鱼
 */
package task

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/anzhiyu-c/anheyu-archive/pkg/constant"
	"github.com/anzhiyu-c/anheyu-archive/pkg/domain/model"
	"github.com/anzhiyu-c/anheyu-archive/pkg/domain/repository"
	"github.com/anzhiyu-c/anheyu-archive/pkg/idgen"
)

// SnapshotExportJob 将一份归档用户快照写到外部存储，对象名为归档用户的公共ID。
type SnapshotExportJob struct {
	repo           repository.ArchivedUserRepository
	exporter       SnapshotExporter
	archivedUserID uint
}

// NewSnapshotExportJob 是任务的构造函数
func NewSnapshotExportJob(repo repository.ArchivedUserRepository, exporter SnapshotExporter, archivedUserID uint) *SnapshotExportJob {
	return &SnapshotExportJob{
		repo:           repo,
		exporter:       exporter,
		archivedUserID: archivedUserID,
	}
}

// Run 方法执行导出逻辑。
func (j *SnapshotExportJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	key, err := j.export(ctx)
	if err != nil {
		log.Printf("警告: 任务 '%s' 导出快照失败: %v", j.Name(), err)
		return
	}
	log.Printf("任务 '%s' 导出快照完成: %s", j.Name(), key)
}

func (j *SnapshotExportJob) export(ctx context.Context) (string, error) {
	archived, err := j.repo.FindByID(ctx, j.archivedUserID)
	if err != nil {
		if errors.Is(err, constant.ErrNotFound) {
			// 导出前已被恢复，快照已不存在
			return "", fmt.Errorf("归档用户 %d 已不存在", j.archivedUserID)
		}
		return "", err
	}

	body, err := model.EncodeUserSnapshot(archived.Snapshot)
	if err != nil {
		return "", err
	}

	publicID, err := idgen.GeneratePublicID(archived.ID, idgen.EntityTypeArchivedUser)
	if err != nil {
		return "", err
	}
	return j.exporter.Export(ctx, publicID, body)
}

// Name 方法返回任务的可读名称。
func (j *SnapshotExportJob) Name() string {
	return fmt.Sprintf("SnapshotExportJob(ArchivedUserID: %d)", j.archivedUserID)
}
