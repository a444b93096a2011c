/*
 * @Description: 本地目录快照导出
 * @Author: 安知鱼
 * @Date: 2026-03-17 15:12:40
 * @LastEditTime: 2026-03-22 09:48:13
 * @LastEditors: 安知鱼
 */
package storage

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// LocalSnapshotExporter 把快照写到 <dir>/<name>.json
type LocalSnapshotExporter struct {
	dir string
}

// NewLocalSnapshotExporter dir 为空时返回 nil，调用方据此跳过导出。
func NewLocalSnapshotExporter(dir string) (*LocalSnapshotExporter, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("无法创建快照导出目录 '%s': %w", dir, err)
	}
	log.Printf("[本地存储] 快照导出已启用 - 目录: %s", dir)
	return &LocalSnapshotExporter{dir: dir}, nil
}

// Export 先写临时文件再重命名，读者不会看到写了一半的快照
func (e *LocalSnapshotExporter) Export(ctx context.Context, name string, body []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return "", fmt.Errorf("无效的快照名称: %q", name)
	}
	finalPath := filepath.Join(e.dir, name+".json")

	tempFile, err := os.CreateTemp(e.dir, "anheyu-archive-export-*.tmp")
	if err != nil {
		return "", fmt.Errorf("无法在 '%s' 目录创建临时文件: %w", e.dir, err)
	}
	defer os.Remove(tempFile.Name())

	if _, err := tempFile.Write(body); err != nil {
		tempFile.Close()
		return "", fmt.Errorf("写入快照临时文件失败: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return "", fmt.Errorf("关闭快照临时文件失败: %w", err)
	}
	if err := os.Rename(tempFile.Name(), finalPath); err != nil {
		return "", fmt.Errorf("移动快照文件到 '%s' 失败: %w", finalPath, err)
	}
	log.Printf("[本地存储] 快照写入成功: %s", finalPath)
	return finalPath, nil
}
