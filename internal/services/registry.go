package services

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// SessionRegistry maps chat session ids to live handles. Handles live only as
// long as the process; after a restart they are absent until recreated.
type SessionRegistry interface {
	Create(ctx context.Context, seed []Turn) (ChatHandle, error)
	Get(sessionID string) (ChatHandle, bool)
	Put(sessionID string, handle ChatHandle)
	Delete(sessionID string)
	Len() int
}

type sessionRegistry struct {
	provider ChatProvider
	log      *zap.Logger

	mu      sync.RWMutex
	handles map[string]ChatHandle
}

func NewSessionRegistry(provider ChatProvider, log *zap.Logger) SessionRegistry {
	return &sessionRegistry{
		provider: provider,
		log:      log,
		handles:  make(map[string]ChatHandle),
	}
}

// Create implements SessionRegistry. It does not register the handle; callers
// Put it under the session it belongs to.
func (r *sessionRegistry) Create(ctx context.Context, seed []Turn) (ChatHandle, error) {
	handle, err := r.provider.CreateSession(ctx, seed)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat handle: %w", err)
	}
	return handle, nil
}

// Get implements SessionRegistry.
func (r *sessionRegistry) Get(sessionID string) (ChatHandle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handles[sessionID]
	return h, ok
}

// Put implements SessionRegistry. An existing handle for the session is
// replaced.
func (r *sessionRegistry) Put(sessionID string, handle ChatHandle) {
	r.mu.Lock()
	_, replaced := r.handles[sessionID]
	r.handles[sessionID] = handle
	r.mu.Unlock()

	r.log.Debug("🔗 Chat handle registered",
		zap.String("chat_id", sessionID),
		zap.Bool("replaced", replaced))
}

// Delete implements SessionRegistry.
func (r *sessionRegistry) Delete(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handles, sessionID)
}

// Len implements SessionRegistry.
func (r *sessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handles)
}
