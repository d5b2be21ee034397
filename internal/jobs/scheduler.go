package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// IndexSweeper drops per-identity session index entries whose session has
// already expired out of Redis.
type IndexSweeper interface {
	SweepIndexes(ctx context.Context) (int, error)
}

type Scheduler struct {
	cron    *cron.Cron
	spec    string
	sweeper IndexSweeper
	timeout time.Duration
	log     zerolog.Logger
}

func NewScheduler(spec string, sweeper IndexSweeper, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		spec:    spec,
		sweeper: sweeper,
		timeout: time.Minute,
		log:     log,
	}
}

// Start registers the sweep. An empty spec disables the scheduler.
func (s *Scheduler) Start() error {
	if s.sweeper == nil || s.spec == "" {
		return nil
	}

	if _, err := s.cron.AddFunc(s.spec, s.sweepSessionIndexes); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop waits up to five seconds for a running sweep to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("scheduler stop timed out")
	}
}

func (s *Scheduler) sweepSessionIndexes() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	removed, err := s.sweeper.SweepIndexes(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("session index sweep failed")
		return
	}
	s.log.Debug().Int("removed", removed).Msg("session index sweep done")
}
