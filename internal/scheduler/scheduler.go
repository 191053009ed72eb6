package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"fantasy_nhl/ingestion/internal/reconcile"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Runner performs one sync pass
type Runner interface {
	Run(ctx context.Context) (reconcile.Result, error)
}

// Scheduler triggers the league sync on a cron schedule
type Scheduler struct {
	schedule string
	runner   Runner
	cron     *cron.Cron
	stopOnce sync.Once
	stopChan chan struct{}
}

// NewScheduler creates a new scheduler instance. Ticks that fire while the previous
// run is still going are skipped.
func NewScheduler(schedule string, runner Runner) *Scheduler {
	return &Scheduler{
		schedule: schedule,
		runner:   runner,
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger{}))),
		stopChan: make(chan struct{}),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start(ctx context.Context) error {
	log.Info().Msg("Scheduler starting...")

	if _, err := s.cron.AddFunc(s.schedule, func() {
		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		default:
		}
		s.RunNow(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule league sync: %w", err)
	}

	s.cron.Start()
	log.Info().
		Str("schedule", s.schedule).
		Msg("League sync scheduled")

	return nil
}

// RunNow runs one sync and logs its outcome
func (s *Scheduler) RunNow(ctx context.Context) {
	res, err := s.runner.Run(ctx)
	switch {
	case errors.Is(err, reconcile.ErrSyncInProgress):
		log.Info().Msg("League sync already running, skipping tick")
	case err != nil:
		log.Error().Err(err).Str("status", res.Status).Msg("Scheduled league sync failed")
	default:
		log.Debug().Str("run_id", res.RunID.String()).Msg("Scheduled league sync finished")
	}
}

// Stop stops the scheduler and waits for a running sync to return
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		log.Info().Msg("Stopping scheduler...")
		close(s.stopChan)
		<-s.cron.Stop().Done()
		log.Info().Msg("Scheduler stopped")
	})
}

// cronLogger routes cron's own messages to zerolog
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
