// Package checker runs task checks and announces their completion to
// subscribed listeners.
package checker

import (
	"sync"

	"github.com/harrison/courseval/internal/models"
)

// Listener observes completed checks.
type Listener interface {
	AfterCheck(task *models.Task, result models.CheckResult)
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(task *models.Task, result models.CheckResult)

// AfterCheck calls f(task, result).
func (f ListenerFunc) AfterCheck(task *models.Task, result models.CheckResult) {
	f(task, result)
}

// Bus fans check-completed events out to listeners, synchronously and in
// subscription order, on the publishing goroutine.
type Bus struct {
	mu        sync.RWMutex
	nextID    int
	listeners map[int]Listener
	order     []int
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{listeners: make(map[int]Listener)}
}

// Subscribe registers l and returns a function that removes it again.
// The returned function is idempotent.
func (b *Bus) Subscribe(l Listener) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.listeners[id] = l
	b.order = append(b.order, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.listeners, id)
			for i, v := range b.order {
				if v == id {
					b.order = append(b.order[:i], b.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Publish delivers a completed check to every current listener.
func (b *Bus) Publish(task *models.Task, result models.CheckResult) {
	b.mu.RLock()
	listeners := make([]Listener, 0, len(b.order))
	for _, id := range b.order {
		listeners = append(listeners, b.listeners[id])
	}
	b.mu.RUnlock()

	for _, l := range listeners {
		l.AfterCheck(task, result)
	}
}

// Len returns the number of subscribed listeners.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.order)
}
