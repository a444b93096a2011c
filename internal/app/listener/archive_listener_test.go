package listener

import (
	"testing"
	"time"

	"github.com/anzhiyu-c/anheyu-archive/internal/pkg/event"

	"github.com/stretchr/testify/assert"
)

type fakeDispatcher struct {
	ids chan uint
}

func (d *fakeDispatcher) DispatchSnapshotExport(id uint) bool {
	d.ids <- id
	return true
}

func TestArchiveListenerDispatchesSnapshotExport(t *testing.T) {
	bus := event.NewEventBus()
	defer bus.Shutdown()

	dispatcher := &fakeDispatcher{ids: make(chan uint, 1)}
	NewArchiveListener(bus, dispatcher)

	// 其他事件以及错误类型的负载都不会触发导出
	bus.Publish(event.PostArchived, event.PostArchivedPayload{ArchivedPostID: 1})
	bus.Publish(event.UserArchived, "not a payload")
	bus.Publish(event.UserArchived, event.UserArchivedPayload{ArchivedUserID: 42, OriginalUserID: 7})

	select {
	case id := <-dispatcher.ids:
		assert.Equal(t, uint(42), id)
	case <-time.After(2 * time.Second):
		t.Fatal("等待快照导出派发超时")
	}
}

func TestArchiveListenerWithoutDispatcher(t *testing.T) {
	l := &ArchiveListener{}
	assert.NotPanics(t, func() {
		l.handleUserArchived(event.UserArchivedPayload{ArchivedUserID: 1})
		l.handleUserRestored(event.UserRestoredPayload{ArchivedUserID: 1, RestoredUserID: 2})
	})
}
