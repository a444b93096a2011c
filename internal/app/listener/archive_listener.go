/*
 * @Description: 监听归档相关事件，并派发后续的后台任务。
 * @Author: 安知鱼
 * @Date: 2026-03-13 16:20:05
 * @LastEditTime: 2026-03-21 11:02:47
 * @LastEditors: 安知鱼
 */
package listener

import (
	"log"

	"github.com/anzhiyu-c/anheyu-archive/internal/pkg/event"
)

// SnapshotExportDispatcher 派发归档用户快照导出任务，由 task.Broker 实现
type SnapshotExportDispatcher interface {
	DispatchSnapshotExport(archivedUserID uint) bool
}

// ArchiveListener 订阅归档事件。
// 用户归档后把快照导出到对象存储；文章归档与用户恢复只记录审计日志。
type ArchiveListener struct {
	dispatcher SnapshotExportDispatcher
}

// NewArchiveListener 是 ArchiveListener 的构造函数，它会立即完成订阅。
func NewArchiveListener(eventBus *event.EventBus, dispatcher SnapshotExportDispatcher) *ArchiveListener {
	listener := &ArchiveListener{dispatcher: dispatcher}
	eventBus.Subscribe(event.UserArchived, listener.handleUserArchived)
	eventBus.Subscribe(event.UserRestored, listener.handleUserRestored)
	eventBus.Subscribe(event.PostArchived, listener.handlePostArchived)
	return listener
}

func (l *ArchiveListener) handleUserArchived(payload interface{}) {
	p, ok := payload.(event.UserArchivedPayload)
	if !ok {
		log.Printf("[ArchiveListener] 错误：收到的UserArchived事件负载类型不正确: %T", payload)
		return
	}
	log.Printf("[ArchiveListener] 用户 %d 已被管理员 %d 归档，归档ID %d", p.OriginalUserID, p.ArchivedBy, p.ArchivedUserID)

	if l.dispatcher == nil {
		return
	}
	if l.dispatcher.DispatchSnapshotExport(p.ArchivedUserID) {
		log.Printf("[ArchiveListener] -> 已为归档用户 %d 派发快照导出任务", p.ArchivedUserID)
	}
}

func (l *ArchiveListener) handleUserRestored(payload interface{}) {
	p, ok := payload.(event.UserRestoredPayload)
	if !ok {
		log.Printf("[ArchiveListener] 错误：收到的UserRestored事件负载类型不正确: %T", payload)
		return
	}
	log.Printf("[ArchiveListener] 归档用户 %d 已恢复为用户 %d", p.ArchivedUserID, p.RestoredUserID)
}

func (l *ArchiveListener) handlePostArchived(payload interface{}) {
	p, ok := payload.(event.PostArchivedPayload)
	if !ok {
		log.Printf("[ArchiveListener] 错误：收到的PostArchived事件负载类型不正确: %T", payload)
		return
	}
	log.Printf("[ArchiveListener] 用户 %d 归档了文章 %d，归档ID %d", p.ActorID, p.OriginalPostID, p.ArchivedPostID)
}
