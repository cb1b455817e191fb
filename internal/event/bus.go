package event

import (
	"sync"

	"github.com/google/uuid"
)

// EventType 定义事件类型
type EventType string

const (
	EventBatchStarted    EventType = "batch_started"
	EventReleaseResolved EventType = "release_resolved"
	EventBatchFinished   EventType = "batch_finished"
)

// Event 代表一个系统事件
type Event struct {
	Type    EventType
	Payload interface{}
}

// Handler 处理事件的函数签名
type Handler func(event Event)

// Bus 事件总线接口
type Bus interface {
	Subscribe(topic EventType, handler Handler) string // 返回 Subscription ID
	Unsubscribe(topic EventType, subID string)
	Publish(topic EventType, payload interface{})
}

type handlerEntry struct {
	id      string
	handler Handler
}

// InMemoryBus delivers events synchronously, in subscription order, on the
// publisher's goroutine. Handlers must not block.
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[EventType][]handlerEntry
}

func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{
		handlers: make(map[EventType][]handlerEntry),
	}
}

func (b *InMemoryBus) Subscribe(topic EventType, handler Handler) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := uuid.New().String()
	b.handlers[topic] = append(b.handlers[topic], handlerEntry{id: id, handler: handler})
	return id
}

func (b *InMemoryBus) Unsubscribe(topic EventType, subID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entries := b.handlers[topic]
	for i, e := range entries {
		if e.id == subID {
			b.handlers[topic] = append(entries[:i:i], entries[i+1:]...)
			break
		}
	}
}

func (b *InMemoryBus) Publish(topic EventType, payload interface{}) {
	b.mu.RLock()
	entries := b.handlers[topic]
	b.mu.RUnlock()

	evt := Event{Type: topic, Payload: payload}
	for _, e := range entries {
		e.handler(evt)
	}
}

// Discard drops every event. Used when nothing listens.
type Discard struct{}

func (Discard) Subscribe(EventType, Handler) string { return "" }
func (Discard) Unsubscribe(EventType, string)       {}
func (Discard) Publish(EventType, interface{})      {}
