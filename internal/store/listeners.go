package store

import (
	"sync"

	"github.com/vitaup/VitaUpBack/internal/models"
)

// SessionHolder keeps the current session of a client and fans session
// changes out to registered listeners. Listeners run outside the lock,
// in registration order.
type SessionHolder struct {
	mu        sync.Mutex
	session   *models.AuthSession
	listeners []*listenerEntry
}

type listenerEntry struct {
	fn AuthListener
}

func (h *SessionHolder) Current() *models.AuthSession {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.session.Clone()
}

// Set replaces the current session and notifies listeners with event.
func (h *SessionHolder) Set(event models.AuthEvent, session *models.AuthSession) {
	h.mu.Lock()
	h.session = session.Clone()
	listeners := h.snapshotLocked()
	h.mu.Unlock()

	notify(listeners, event, session)
}

// ClearIf drops the current session only when it still carries the given
// access token, so a stale revocation cannot sign out a newer session.
func (h *SessionHolder) ClearIf(accessToken string) bool {
	h.mu.Lock()
	if h.session == nil || h.session.AccessToken != accessToken {
		h.mu.Unlock()
		return false
	}
	h.session = nil
	listeners := h.snapshotLocked()
	h.mu.Unlock()

	notify(listeners, models.EventSignedOut, nil)
	return true
}

func (h *SessionHolder) snapshotLocked() []*listenerEntry {
	listeners := make([]*listenerEntry, len(h.listeners))
	copy(listeners, h.listeners)
	return listeners
}

func notify(listeners []*listenerEntry, event models.AuthEvent, session *models.AuthSession) {
	for _, l := range listeners {
		l.fn(event, session.Clone())
	}
}

func (h *SessionHolder) Subscribe(fn AuthListener) func() {
	entry := &listenerEntry{fn: fn}
	h.mu.Lock()
	h.listeners = append(h.listeners, entry)
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			for i, l := range h.listeners {
				if l == entry {
					h.listeners = append(h.listeners[:i], h.listeners[i+1:]...)
					return
				}
			}
		})
	}
}
