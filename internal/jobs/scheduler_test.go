package jobs

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SteveGJones/wolves-pet-store-sub001/internal/models"
	"github.com/SteveGJones/wolves-pet-store-sub001/internal/testutil"
)

type countingSweeper struct {
	calls atomic.Int32
	err   error
}

func (s *countingSweeper) SweepIndexes(context.Context) (int, error) {
	s.calls.Add(1)
	return 0, s.err
}

func TestScheduler_DisabledWithoutSpec(t *testing.T) {
	sweeper := &countingSweeper{}
	s := NewScheduler("", sweeper, zerolog.New(io.Discard))

	require.NoError(t, s.Start())
	s.Stop()
	assert.Zero(t, sweeper.calls.Load())
}

func TestScheduler_RejectsBadSpec(t *testing.T) {
	s := NewScheduler("not a cron spec", &countingSweeper{}, zerolog.New(io.Discard))
	assert.Error(t, s.Start())
}

func TestScheduler_RunsSweep(t *testing.T) {
	sweeper := &countingSweeper{err: errors.New("transient")}
	s := NewScheduler("* * * * * *", sweeper, zerolog.New(io.Discard))

	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Eventually(t, func() bool { return sweeper.calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
}

func TestScheduler_SweepsExpiredIndexEntries(t *testing.T) {
	sessions, mr := testutil.NewSessionRepository(t)
	ctx := context.Background()
	identity := &models.Projection{ID: "11111111-1111-4111-8111-111111111111", Email: "a@example.com"}

	require.NoError(t, sessions.Save(ctx, models.Session{ID: "short", Identity: identity}, time.Minute))
	require.NoError(t, sessions.Save(ctx, models.Session{ID: "long", Identity: identity}, time.Hour))
	mr.FastForward(2 * time.Minute)

	s := NewScheduler("0 0 * * * *", sessions, zerolog.New(io.Discard))
	s.sweepSessionIndexes()

	members, err := mr.Members("identity_sessions:" + identity.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"long"}, members)
}
