package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tercih-asistani/app/models"
)

// SessionStore keeps per-session conversation state between turns.
type SessionStore interface {
	Get(ctx context.Context, sessionID string) (*models.ConversationState, bool, error)
	Set(ctx context.Context, state *models.ConversationState) error
	Delete(ctx context.Context, sessionID string) error
	Close() error
}

// MemorySessionStore is the default in-process store. Entries expire
// lazily on read.
type MemorySessionStore struct {
	mu     sync.RWMutex
	states map[string]*models.ConversationState
	ttl    time.Duration
	logger *zap.Logger
}

// NewMemorySessionStore creates an in-memory session store.
func NewMemorySessionStore(ttl time.Duration, logger *zap.Logger) *MemorySessionStore {
	return &MemorySessionStore{
		states: make(map[string]*models.ConversationState),
		ttl:    ttl,
		logger: logger,
	}
}

// Get returns the stored state for a session, if it exists and has not expired.
func (mss *MemorySessionStore) Get(ctx context.Context, sessionID string) (*models.ConversationState, bool, error) {
	mss.mu.RLock()
	state, ok := mss.states[sessionID]
	mss.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}

	if mss.ttl > 0 && time.Since(state.UpdatedAt) > mss.ttl {
		mss.mu.Lock()
		delete(mss.states, sessionID)
		mss.mu.Unlock()
		mss.logger.Debug("Session expired", zap.String("session_id", sessionID))
		return nil, false, nil
	}

	// Copy so callers can mutate freely before Set.
	cp := *state
	cp.History = append([]models.Turn(nil), state.History...)
	return &cp, true, nil
}

// Set stores the state, stamping UpdatedAt.
func (mss *MemorySessionStore) Set(ctx context.Context, state *models.ConversationState) error {
	state.UpdatedAt = time.Now()

	cp := *state
	cp.History = append([]models.Turn(nil), state.History...)

	mss.mu.Lock()
	mss.states[state.SessionID] = &cp
	mss.mu.Unlock()
	return nil
}

// Delete removes a session.
func (mss *MemorySessionStore) Delete(ctx context.Context, sessionID string) error {
	mss.mu.Lock()
	delete(mss.states, sessionID)
	mss.mu.Unlock()
	return nil
}

// Len reports the number of stored sessions, expired ones included.
func (mss *MemorySessionStore) Len() int {
	mss.mu.RLock()
	defer mss.mu.RUnlock()
	return len(mss.states)
}

// Close is a no-op for the in-memory store.
func (mss *MemorySessionStore) Close() error { return nil }
