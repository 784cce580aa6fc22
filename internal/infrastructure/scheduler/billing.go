package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/invoicer/backend/internal/infrastructure/config"
)

// Names of the billing maintenance jobs
const (
	JobOverdueSweep  = "overdue-sweep"
	JobReminders     = "payment-reminders"
	JobAdvanceExpiry = "advance-expiry"
)

// BillingJobs is the maintenance work the scheduler drives. Every method
// handles at most limit records per call.
type BillingJobs interface {
	SweepOverdue(ctx context.Context, now time.Time, limit int) (int, error)
	SendReminders(ctx context.Context, now time.Time, cooldown time.Duration, limit int) (int, error)
	ExpireAdvancePayments(ctx context.Context, now time.Time, limit int) (int, error)
}

// NewBillingScheduler registers the billing maintenance jobs on a new scheduler
func NewBillingScheduler(cfg config.SchedulerConfig, jobs BillingJobs, logger *zap.Logger, opts ...Option) (*Scheduler, error) {
	s := New(Config{JobTimeout: cfg.JobTimeout, RunOnStart: true}, logger, opts...)

	limit := cfg.BatchSize
	if limit <= 0 {
		limit = 200
	}

	registrations := []Job{
		{
			Name:     JobOverdueSweep,
			Interval: cfg.OverdueSweepInterval,
			Task: func(ctx context.Context, now time.Time) (int, error) {
				return jobs.SweepOverdue(ctx, now, limit)
			},
		},
		{
			Name:     JobReminders,
			Interval: cfg.ReminderInterval,
			Task: func(ctx context.Context, now time.Time) (int, error) {
				return jobs.SendReminders(ctx, now, cfg.ReminderCooldown, limit)
			},
		},
		{
			Name:     JobAdvanceExpiry,
			Interval: cfg.AdvanceExpiryInterval,
			Task: func(ctx context.Context, now time.Time) (int, error) {
				return jobs.ExpireAdvancePayments(ctx, now, limit)
			},
		},
	}
	for _, job := range registrations {
		if err := s.Register(job); err != nil {
			return nil, err
		}
	}
	return s, nil
}
