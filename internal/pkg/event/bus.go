/*
 * @Description: 一个带固定Worker池的异步事件总线
 * @Author: 安知鱼
 * @Date: 2026-03-05 19:06:12
 * @LastEditTime: 2026-03-19 18:20:05
 * @LastEditors: 安知鱼
 */
package event

import (
	"log"
	"sync"
)

// 定义事件类型
type Topic string

const (
	// PostArchived 文章归档事件，负载为 PostArchivedPayload
	PostArchived Topic = "post:archived"
	// UserArchived 用户归档事件，负载为 UserArchivedPayload
	UserArchived Topic = "user:archived"
	// UserRestored 用户恢复事件，负载为 UserRestoredPayload
	UserRestored Topic = "user:restored"
)

// PostArchivedPayload 文章归档事件的负载
type PostArchivedPayload struct {
	ArchivedPostID uint
	OriginalPostID uint
	ActorID        uint
}

// UserArchivedPayload 用户归档事件的负载
type UserArchivedPayload struct {
	ArchivedUserID uint
	OriginalUserID uint
	ArchivedBy     uint
}

// UserRestoredPayload 用户恢复事件的负载
type UserRestoredPayload struct {
	ArchivedUserID uint
	RestoredUserID uint
}

// 事件处理器函数类型
type Handler func(payload interface{})

// Event 是在通道中传递的事件结构
type Event struct {
	Topic   Topic
	Payload interface{}
}

// EventBus 实现了基于Worker池的异步事件总线
type EventBus struct {
	mu        sync.RWMutex
	handlers  map[Topic][]Handler
	eventChan chan Event     // 带缓冲的事件通道
	wg        sync.WaitGroup // 用于优雅关闭
	closeOnce sync.Once
}

// 定义Worker池和通道的配置
const (
	DefaultWorkerCount = 4    // 默认启动4个后台Worker
	DefaultChannelSize = 1024 // 默认事件通道缓冲区大小
)

// NewEventBus 创建并启动一个新的事件总线
func NewEventBus() *EventBus {
	return newEventBus(DefaultWorkerCount, DefaultChannelSize)
}

func newEventBus(workers, size int) *EventBus {
	bus := &EventBus{
		handlers:  make(map[Topic][]Handler),
		eventChan: make(chan Event, size),
	}
	bus.startWorkers(workers)
	return bus
}

// startWorkers 启动固定数量的后台worker
func (b *EventBus) startWorkers(count int) {
	for i := 0; i < count; i++ {
		b.wg.Add(1)
		go b.worker(i + 1)
	}
}

// worker 是消费者，不断从通道中读取并处理事件
func (b *EventBus) worker(workerID int) {
	defer b.wg.Done()
	log.Printf("[EventBus] Worker %d started", workerID)

	for event := range b.eventChan {
		b.mu.RLock()
		handlers := b.handlers[event.Topic]
		b.mu.RUnlock()

		for _, handler := range handlers {
			b.safeHandle(event, handler)
		}
	}
	log.Printf("[EventBus] Worker %d stopped", workerID)
}

// safeHandle 单个 handler panic 不影响同一事件的其他 handler
func (b *EventBus) safeHandle(event Event, handler Handler) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[EventBus] ERROR: handler for topic '%s' panicked: %v", event.Topic, r)
		}
	}()
	handler(event.Payload)
}

// Subscribe 订阅一个事件
func (b *EventBus) Subscribe(topic Topic, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], handler)
}

// Publish 发布一个事件，非阻塞，通道已满时丢弃并返回 false
func (b *EventBus) Publish(topic Topic, payload interface{}) bool {
	event := Event{Topic: topic, Payload: payload}

	select {
	case b.eventChan <- event:
		return true
	default:
		log.Printf("[EventBus] WARN: Event channel is full. Dropping event for topic '%s'.", topic)
		return false
	}
}

// Shutdown 优雅地关闭事件总线
func (b *EventBus) Shutdown() {
	b.closeOnce.Do(func() {
		log.Println("[EventBus] Shutting down...")
		close(b.eventChan)
		b.wg.Wait()
		log.Println("[EventBus] All workers have stopped.")
	})
}
