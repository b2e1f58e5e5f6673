package state

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/m3rciful/partybot/core/logger"
)

// Persister stores sessions outside the process.
type Persister[S any] interface {
	LoadSessions(ctx context.Context) (map[int64]S, error)
	SaveSession(ctx context.Context, chatID int64, s S) error
	DeleteSession(ctx context.Context, chatID int64) error
}

// Manager keeps one session per chat in memory and writes every change
// through the optional persister first.
type Manager[S any] struct {
	mu       sync.RWMutex
	sessions map[int64]S
	persist  Persister[S]
}

// NewManager constructs a Manager. A nil persister keeps sessions in memory only.
func NewManager[S any](p Persister[S]) *Manager[S] {
	return &Manager[S]{sessions: make(map[int64]S), persist: p}
}

// Restore loads persisted sessions, replacing the in-memory set.
func (m *Manager[S]) Restore(ctx context.Context) error {
	if m.persist == nil {
		return nil
	}
	loaded, err := m.persist.LoadSessions(ctx)
	if err != nil {
		return fmt.Errorf("state: restore sessions: %w", err)
	}
	m.mu.Lock()
	m.sessions = loaded
	if m.sessions == nil {
		m.sessions = make(map[int64]S)
	}
	m.mu.Unlock()
	logger.Info(ctx, "tg", "fsm.restore", slog.Int("sessions", len(loaded)))
	return nil
}

// Get returns the session of a chat if one is active.
func (m *Manager[S]) Get(chatID int64) (S, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[chatID]
	return s, ok
}

// Set stores the session of a chat.
func (m *Manager[S]) Set(ctx context.Context, chatID int64, s S) error {
	if m.persist != nil {
		if err := m.persist.SaveSession(ctx, chatID, s); err != nil {
			return fmt.Errorf("state: save session %d: %w", chatID, err)
		}
	}
	m.mu.Lock()
	m.sessions[chatID] = s
	m.mu.Unlock()
	return nil
}

// Clear ends the session of a chat.
func (m *Manager[S]) Clear(ctx context.Context, chatID int64) error {
	if m.persist != nil {
		if err := m.persist.DeleteSession(ctx, chatID); err != nil {
			return fmt.Errorf("state: delete session %d: %w", chatID, err)
		}
	}
	m.mu.Lock()
	delete(m.sessions, chatID)
	m.mu.Unlock()
	return nil
}

// Remember updates the in-memory session only. It is for callers whose
// persister failed after the change the session records already happened.
func (m *Manager[S]) Remember(chatID int64, s S) {
	m.mu.Lock()
	m.sessions[chatID] = s
	m.mu.Unlock()
}

// Forget drops the in-memory session only.
func (m *Manager[S]) Forget(chatID int64) {
	m.mu.Lock()
	delete(m.sessions, chatID)
	m.mu.Unlock()
}

// InProgress reports whether the chat has an active session.
func (m *Manager[S]) InProgress(chatID int64) bool {
	_, ok := m.Get(chatID)
	return ok
}

// Len returns the number of active sessions.
func (m *Manager[S]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
