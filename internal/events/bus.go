// Package events carries session revocations between store clients, so a
// sign-out in one browser ends the same refresh-token family everywhere.
package events

import (
	"context"
	"sync"
)

// SessionRevoked is published when refresh tokens stop being valid. An
// empty Family revokes every session of the user.
type SessionRevoked struct {
	UserID string `json:"user_id"`
	Family string `json:"family,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// Matches reports whether a session of userID in family is affected.
func (e SessionRevoked) Matches(userID, family string) bool {
	if e.UserID != userID {
		return false
	}
	return e.Family == "" || e.Family == family
}

type Handler func(SessionRevoked)

type Bus interface {
	Publish(ctx context.Context, event SessionRevoked) error
	Subscribe(handler Handler) (unsubscribe func())
	Close() error
}

// LocalBus delivers events in-process, synchronously, in subscription
// order. Handlers must not block.
type LocalBus struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[int]Handler
	order    []int
}

var _ Bus = (*LocalBus)(nil)

func NewLocalBus() *LocalBus {
	return &LocalBus{handlers: make(map[int]Handler)}
}

func (b *LocalBus) Publish(_ context.Context, event SessionRevoked) error {
	b.dispatch(event)
	return nil
}

func (b *LocalBus) dispatch(event SessionRevoked) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.order))
	for _, id := range b.order {
		handlers = append(handlers, b.handlers[id])
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
}

func (b *LocalBus) Subscribe(handler Handler) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = handler
	b.order = append(b.order, id)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.handlers, id)
			for i, existing := range b.order {
				if existing == id {
					b.order = append(b.order[:i], b.order[i+1:]...)
					break
				}
			}
		})
	}
}

func (b *LocalBus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers)
}

func (b *LocalBus) Close() error {
	b.mu.Lock()
	b.handlers = make(map[int]Handler)
	b.order = nil
	b.mu.Unlock()
	return nil
}
