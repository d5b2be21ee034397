package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/SteveGJones/wolves-pet-store-sub001/internal/models"
)

var ErrSessionNotFound = errors.New("session not found")

const (
	sessionKeyPrefix = "session:"
	indexKeyPrefix   = "identity_sessions:"
	sweepBatch       = 100
)

// SessionRepository keeps bound sessions in Redis. Each record expires on its
// own TTL; a per-identity set indexes live session ids for revocation.
type SessionRepository struct {
	client *redis.Client
}

func NewSessionRepository(client *redis.Client) *SessionRepository {
	return &SessionRepository{client: client}
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

func indexKey(identityID string) string {
	return indexKeyPrefix + identityID
}

func (r *SessionRepository) Save(ctx context.Context, session models.Session, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("save session %s: non-positive ttl", session.ID)
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, sessionKey(session.ID), payload, ttl)
		if session.Identity != nil {
			pipe.SAdd(ctx, indexKey(session.Identity.ID), session.ID)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Touch rewrites an existing record and resets its TTL. It never recreates a
// record deleted since it was read and leaves the identity index alone.
func (r *SessionRepository) Touch(ctx context.Context, session models.Session, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("touch session %s: non-positive ttl", session.ID)
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	err = r.client.SetArgs(ctx, sessionKey(session.ID), payload, redis.SetArgs{
		Mode: "XX",
		TTL:  ttl,
	}).Err()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("touch session: %w", err)
	}
	return nil
}

func (r *SessionRepository) Get(ctx context.Context, id string) (models.Session, error) {
	data, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.Session{}, ErrSessionNotFound
		}
		return models.Session{}, fmt.Errorf("get session: %w", err)
	}

	var session models.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return models.Session{}, fmt.Errorf("unmarshal session: %w", err)
	}
	return session, nil
}

// Delete removes the record. Deleting a session that no longer exists is not
// an error.
func (r *SessionRepository) Delete(ctx context.Context, session models.Session) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, sessionKey(session.ID))
		if session.Identity != nil {
			pipe.SRem(ctx, indexKey(session.Identity.ID), session.ID)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// revokeScript deletes the indexed sessions and removes exactly those ids from
// the index in one step, so a concurrent Bind keeps its index entry.
var revokeScript = redis.NewScript(`
local ids = redis.call('SMEMBERS', KEYS[1])
local removed = 0
for _, id in ipairs(ids) do
	removed = removed + redis.call('DEL', ARGV[1] .. id)
	redis.call('SREM', KEYS[1], id)
end
return removed
`)

// RevokeByIdentity deletes every live session bound to identityID and returns
// how many records were removed.
func (r *SessionRepository) RevokeByIdentity(ctx context.Context, identityID string) (int, error) {
	removed, err := revokeScript.Run(ctx, r.client, []string{indexKey(identityID)}, sessionKeyPrefix).Int()
	if err != nil {
		return 0, fmt.Errorf("revoke identity sessions: %w", err)
	}
	return removed, nil
}

// SweepIndexes drops index entries whose session record has already expired.
// Redis deletes a set once its last member is removed.
func (r *SessionRepository) SweepIndexes(ctx context.Context) (int, error) {
	var (
		cursor uint64
		total  int
	)
	for {
		keys, next, err := r.client.Scan(ctx, cursor, indexKeyPrefix+"*", sweepBatch).Result()
		if err != nil {
			return total, fmt.Errorf("scan session indexes: %w", err)
		}

		for _, key := range keys {
			removed, err := r.sweepIndex(ctx, key)
			if err != nil {
				return total, err
			}
			total += removed
		}

		cursor = next
		if cursor == 0 {
			return total, nil
		}
	}
}

func (r *SessionRepository) sweepIndex(ctx context.Context, key string) (int, error) {
	members, err := r.client.SMembers(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("list index %s: %w", key, err)
	}

	stale := make([]any, 0)
	for _, id := range members {
		exists, err := r.client.Exists(ctx, sessionKey(id)).Result()
		if err != nil {
			return 0, fmt.Errorf("check session %s: %w", id, err)
		}
		if exists == 0 {
			stale = append(stale, id)
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}

	if err := r.client.SRem(ctx, key, stale...).Err(); err != nil {
		return 0, fmt.Errorf("prune index %s: %w", key, err)
	}
	return len(stale), nil
}
