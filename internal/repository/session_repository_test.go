package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SteveGJones/wolves-pet-store-sub001/internal/models"
)

func newSessionRepo(t *testing.T) (*SessionRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionRepository(client), mr
}

func boundSession(id string, identityID string) models.Session {
	now := time.Now().UTC().Truncate(time.Second)
	return models.Session{
		ID:         id,
		Identity:   &models.Projection{ID: identityID, Email: identityID + "@example.com"},
		CreatedAt:  now,
		LastSeenAt: now,
		ExpiresAt:  now.Add(24 * time.Hour),
	}
}

func TestSessionRepository_SaveGet(t *testing.T) {
	repo, mr := newSessionRepo(t)
	ctx := context.Background()
	session := boundSession("s1", "u1")

	require.NoError(t, repo.Save(ctx, session, time.Hour))

	got, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, session.ID, got.ID)
	assert.Equal(t, *session.Identity, *got.Identity)
	assert.True(t, session.ExpiresAt.Equal(got.ExpiresAt))

	assert.Equal(t, time.Hour, mr.TTL("session:s1"))
	members, err := mr.Members("identity_sessions:u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, members)
}

func TestSessionRepository_Get_ExpiredIsNotFound(t *testing.T) {
	repo, mr := newSessionRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, boundSession("s1", "u1"), time.Minute))
	mr.FastForward(2 * time.Minute)

	_, err := repo.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionRepository_Save_RejectsNonPositiveTTL(t *testing.T) {
	repo, _ := newSessionRepo(t)
	assert.Error(t, repo.Save(context.Background(), boundSession("s1", "u1"), 0))
}

func TestSessionRepository_Delete_Idempotent(t *testing.T) {
	repo, mr := newSessionRepo(t)
	ctx := context.Background()
	session := boundSession("s1", "u1")

	require.NoError(t, repo.Save(ctx, session, time.Hour))
	require.NoError(t, repo.Delete(ctx, session))
	require.NoError(t, repo.Delete(ctx, session))

	assert.False(t, mr.Exists("session:s1"))
	assert.False(t, mr.Exists("identity_sessions:u1"))
}

func TestSessionRepository_Delete_StoreDown(t *testing.T) {
	repo, mr := newSessionRepo(t)
	mr.Close()

	err := repo.Delete(context.Background(), boundSession("s1", "u1"))
	assert.Error(t, err)
}

func TestSessionRepository_RevokeByIdentity(t *testing.T) {
	repo, mr := newSessionRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, boundSession("s1", "u1"), time.Hour))
	require.NoError(t, repo.Save(ctx, boundSession("s2", "u1"), time.Hour))
	require.NoError(t, repo.Save(ctx, boundSession("s3", "u2"), time.Hour))

	removed, err := repo.RevokeByIdentity(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	assert.False(t, mr.Exists("session:s1"))
	assert.False(t, mr.Exists("session:s2"))
	assert.False(t, mr.Exists("identity_sessions:u1"))
	assert.True(t, mr.Exists("session:s3"))

	removed, err = repo.RevokeByIdentity(ctx, "nobody")
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestSessionRepository_RevokeByIdentity_LaterSessionsStayIndexed(t *testing.T) {
	repo, mr := newSessionRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, boundSession("s1", "u1"), time.Hour))
	_, err := repo.RevokeByIdentity(ctx, "u1")
	require.NoError(t, err)

	require.NoError(t, repo.Save(ctx, boundSession("s2", "u1"), time.Hour))
	members, err := mr.Members("identity_sessions:u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"s2"}, members)

	removed, err := repo.RevokeByIdentity(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.False(t, mr.Exists("session:s2"))
}

func TestSessionRepository_RevokeByIdentity_StoreDown(t *testing.T) {
	repo, mr := newSessionRepo(t)
	mr.Close()

	_, err := repo.RevokeByIdentity(context.Background(), "u1")
	assert.Error(t, err)
}

func TestSessionRepository_Touch(t *testing.T) {
	repo, mr := newSessionRepo(t)
	ctx := context.Background()
	session := boundSession("s1", "u1")
	require.NoError(t, repo.Save(ctx, session, time.Minute))

	session.LastSeenAt = session.LastSeenAt.Add(time.Minute)
	require.NoError(t, repo.Touch(ctx, session, time.Hour))

	assert.Equal(t, time.Hour, mr.TTL("session:s1"))
	got, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, session.LastSeenAt.Equal(got.LastSeenAt))
}

func TestSessionRepository_Touch_DoesNotRecreateDeleted(t *testing.T) {
	repo, mr := newSessionRepo(t)
	ctx := context.Background()
	session := boundSession("s1", "u1")
	require.NoError(t, repo.Save(ctx, session, time.Hour))

	read, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, session))

	err = repo.Touch(ctx, read, time.Hour)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.False(t, mr.Exists("session:s1"))
	assert.False(t, mr.Exists("identity_sessions:u1"))
}

func TestSessionRepository_SweepIndexes(t *testing.T) {
	repo, mr := newSessionRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, boundSession("short", "u1"), time.Minute))
	require.NoError(t, repo.Save(ctx, boundSession("long", "u1"), time.Hour))
	require.NoError(t, repo.Save(ctx, boundSession("gone", "u2"), time.Minute))

	mr.FastForward(2 * time.Minute)

	removed, err := repo.SweepIndexes(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	members, err := mr.Members("identity_sessions:u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"long"}, members)
	assert.False(t, mr.Exists("identity_sessions:u2"))
}
