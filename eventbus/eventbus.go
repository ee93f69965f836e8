// Package eventbus 提供單一行程內的發佈/訂閱機制
// Bus 由 main.go 明確建構並以參考傳入需要的元件，方便測試時各自建立獨立的 Bus
package eventbus

import (
	"log"
	"sync"
)

// Kind 代表事件種類
type Kind string

const (
	// MessageSent 新訊息已持久化並可推播
	MessageSent Kind = "MESSAGE_SENT"
	// RoomEntered 聊天室成員異動，訂閱者應刷新成員名單
	RoomEntered Kind = "ROOM_ENTERED"
)

// Listener 是事件的接收函數，由 Publish 同步呼叫
type Listener func(payload any)

type entry struct {
	id int
	fn Listener
}

// Bus 維護各事件種類的監聽者註冊表
type Bus struct {
	mu        sync.Mutex
	nextID    int
	listeners map[Kind][]entry
}

// New 創建並返回一個新的 Bus 實例
func New() *Bus {
	return &Bus{
		listeners: make(map[Kind][]entry),
	}
}

// Subscribe 註冊一個監聽者，返回對應的取消註冊函數
// 取消註冊函數可重複呼叫，第二次之後不做任何事
func (b *Bus) Subscribe(kind Kind, fn Listener) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.listeners[kind] = append(b.listeners[kind], entry{id: id, fn: fn})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		entries := b.listeners[kind]
		for i, e := range entries {
			if e.id == id {
				b.listeners[kind] = append(entries[:i:i], entries[i+1:]...)
				return
			}
		}
	}
}

// Publish 依註冊順序同步呼叫 kind 的所有監聽者
// 先在鎖內複製一份監聽者快照再逐一呼叫，
// 發佈途中的 Subscribe/Unsubscribe 不會影響這一輪的派送
func (b *Bus) Publish(kind Kind, payload any) {
	b.mu.Lock()
	snapshot := make([]entry, len(b.listeners[kind]))
	copy(snapshot, b.listeners[kind])
	b.mu.Unlock()

	for _, e := range snapshot {
		invoke(kind, e.fn, payload)
	}
}

// invoke 隔離單一監聽者：監聽者 panic 時記錄下來，不影響其餘監聽者
func invoke(kind Kind, fn Listener, payload any) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("eventbus: listener panic for %s: %v", kind, r)
		}
	}()
	fn(payload)
}

// ListenerCount 返回 kind 目前的監聽者數量，主要供測試與監控使用
func (b *Bus) ListenerCount(kind Kind) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners[kind])
}
