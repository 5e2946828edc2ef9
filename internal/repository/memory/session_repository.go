package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"strategyWorkbench/domain"
)

type sessionEntry struct {
	session   domain.BinningSession
	expiresAt time.Time
}

// SessionRepository holds binning sessions in memory with a sliding TTL.
// A zero TTL keeps sessions until they are deleted.
type SessionRepository struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]sessionEntry
}

func NewSessionRepository(ttl time.Duration) *SessionRepository {
	return &SessionRepository{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]sessionEntry),
	}
}

func (r *SessionRepository) Get(ctx context.Context, id string) (domain.BinningSession, error) {
	if err := ctx.Err(); err != nil {
		return domain.BinningSession{}, fmt.Errorf("context error: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.sessions[id]
	if !ok {
		return domain.BinningSession{}, domain.ErrSessionNotFound
	}
	if r.expired(entry) {
		delete(r.sessions, id)
		return domain.BinningSession{}, domain.ErrSessionNotFound
	}

	return entry.session, nil
}

func (r *SessionRepository) Save(ctx context.Context, session domain.BinningSession) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry := sessionEntry{session: session}
	if r.ttl > 0 {
		entry.expiresAt = r.now().Add(r.ttl)
	}
	r.sessions[session.ID] = entry
	r.gcLocked()

	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.sessions[id]
	if !ok || r.expired(entry) {
		delete(r.sessions, id)
		return domain.ErrSessionNotFound
	}
	delete(r.sessions, id)

	return nil
}

func (r *SessionRepository) expired(entry sessionEntry) bool {
	return !entry.expiresAt.IsZero() && r.now().After(entry.expiresAt)
}

// gcLocked sweeps expired sessions on write.
func (r *SessionRepository) gcLocked() {
	for id, entry := range r.sessions {
		if r.expired(entry) {
			delete(r.sessions, id)
		}
	}
}
