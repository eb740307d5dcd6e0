// Package scheduler runs the periodic repricing pass.
package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"cardpricer/db/reprice"
	"cardpricer/internal/logging"
)

// Scheduler manages the cron tasks around the repricing job.
type Scheduler struct {
	Cron *cron.Cron
	Job  *reprice.Job
	Ctx  context.Context
}

// New creates a Scheduler.
func New(ctx context.Context, job *reprice.Job) *Scheduler {
	return &Scheduler{
		Cron: cron.New(cron.WithSeconds()),
		Job:  job,
		Ctx:  ctx,
	}
}

// Register registers the repricing task.
func (s *Scheduler) Register(repriceCron string) error {
	if _, err := s.Cron.AddFunc(repriceCron, s.repriceTask); err != nil {
		return fmt.Errorf("register reprice task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	logging.Info("scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	logging.Info("scheduler stopped")
}

// RunNow executes the repricing task immediately (manual trigger / run-on-start).
func (s *Scheduler) RunNow() {
	s.repriceTask()
}

func (s *Scheduler) repriceTask() {
	logging.Info("running repricing task")
	stats, err := s.Job.Run(s.Ctx)
	if err != nil {
		logging.Error("repricing task failed", zap.Error(err))
		return
	}
	logging.Info("repricing task finished",
		zap.Int("processed", stats.Processed),
		zap.Int("updated", stats.Updated),
	)
}
