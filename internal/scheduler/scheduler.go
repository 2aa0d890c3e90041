// Package scheduler advances the game day on a wall-clock cadence.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/PranavAsoori/gymgame/internal/models"
	"github.com/PranavAsoori/gymgame/internal/service"
)

// Lifecycle is the slice of the game service the scheduler drives.
type Lifecycle interface {
	EndDay(ctx context.Context) (*service.EndDayResult, error)
}

// Scheduler fires the daily end-day transition and announces the outcome to
// the group chat.
type Scheduler struct {
	lifecycle Lifecycle
	announce  func(*service.EndDayResult)
	schedule  string
	logger    *zap.Logger
	cron      *cron.Cron
}

// New builds a scheduler. announce is called after each successful end-day
// transition with its result.
func New(lifecycle Lifecycle, announce func(*service.EndDayResult), schedule string, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		lifecycle: lifecycle,
		announce:  announce,
		schedule:  schedule,
		cron:      cron.New(),
		logger:    logger,
	}
}

// Start registers the daily job and begins the cron loop.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.schedule, s.Run)
	if err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("scheduler started", zap.String("schedule", s.schedule))
	return nil
}

// Stop halts the cron loop. Running jobs finish.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// Run executes one day-advance check. Failures are logged, never fatal: a
// broken game document must not take the process down.
func (s *Scheduler) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	res, err := s.lifecycle.EndDay(ctx)
	if err != nil {
		if errors.Is(err, models.ErrNoActiveGame) {
			s.logger.Info("no active game, skipping day advance")
			return
		}
		s.logger.Error("day advance failed", zap.Error(err))
		return
	}

	if res.Ended {
		s.logger.Info("game ended by duration", zap.Int("day", res.Day))
	} else {
		s.logger.Info("day advanced", zap.Int("day", res.Day))
	}
	s.announce(res)
}
