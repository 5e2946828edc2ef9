package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"strategyWorkbench/domain"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "binning:session:"

// SessionRepository stores binning sessions as JSON snapshots. Every save
// refreshes the TTL, so idle sessions expire on their own.
type SessionRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionRepository(client *redis.Client, ttl time.Duration) *SessionRepository {
	return &SessionRepository{
		client: client,
		ttl:    ttl,
	}
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

func (r *SessionRepository) Get(ctx context.Context, id string) (domain.BinningSession, error) {
	if err := ctx.Err(); err != nil {
		return domain.BinningSession{}, fmt.Errorf("context error: %w", err)
	}

	val, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.BinningSession{}, domain.ErrSessionNotFound
		}
		return domain.BinningSession{}, fmt.Errorf("failed to get session from Redis: %w", err)
	}

	var session domain.BinningSession
	if err := json.Unmarshal(val, &session); err != nil {
		return domain.BinningSession{}, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return session, nil
}

func (r *SessionRepository) Save(ctx context.Context, session domain.BinningSession) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := r.client.Set(ctx, sessionKey(session.ID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session in Redis: %w", err)
	}

	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	n, err := r.client.Del(ctx, sessionKey(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if n == 0 {
		return domain.ErrSessionNotFound
	}

	return nil
}
