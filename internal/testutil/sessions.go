package testutil

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/SteveGJones/wolves-pet-store-sub001/internal/repository"
)

// NewSessionRepository returns a Redis session repository backed by an
// in-process miniredis that is torn down with the test.
func NewSessionRepository(t testing.TB) (*repository.SessionRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	return SessionRepositoryFor(t, mr), mr
}

// SessionRepositoryFor opens another client on an existing miniredis, so two
// repositories can share the same session data.
func SessionRepositoryFor(t testing.TB, mr *miniredis.Miniredis) *repository.SessionRepository {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return repository.NewSessionRepository(client)
}
