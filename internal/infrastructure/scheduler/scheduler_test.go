package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/invoicer/backend/internal/infrastructure/config"
)

type fakeBillingJobs struct {
	mu        sync.Mutex
	overdue   int32
	reminders int32
	advance   int32
	cooldown  time.Duration
	limit     int
	failSweep bool
}

func (f *fakeBillingJobs) SweepOverdue(_ context.Context, _ time.Time, limit int) (int, error) {
	atomic.AddInt32(&f.overdue, 1)
	f.mu.Lock()
	f.limit = limit
	f.mu.Unlock()
	if f.failSweep {
		return 0, errors.New("database unavailable")
	}
	return 3, nil
}

func (f *fakeBillingJobs) SendReminders(_ context.Context, _ time.Time, cooldown time.Duration, _ int) (int, error) {
	atomic.AddInt32(&f.reminders, 1)
	f.mu.Lock()
	f.cooldown = cooldown
	f.mu.Unlock()
	return 1, nil
}

func (f *fakeBillingJobs) ExpireAdvancePayments(_ context.Context, _ time.Time, _ int) (int, error) {
	atomic.AddInt32(&f.advance, 1)
	return 0, nil
}

func testSchedulerConfig() config.SchedulerConfig {
	return config.SchedulerConfig{
		Enabled:               true,
		OverdueSweepInterval:  20 * time.Millisecond,
		ReminderInterval:      20 * time.Millisecond,
		ReminderCooldown:      72 * time.Hour,
		AdvanceExpiryInterval: 20 * time.Millisecond,
		BatchSize:             50,
		JobTimeout:            time.Second,
	}
}

func TestRegister_Validation(t *testing.T) {
	s := New(Config{}, zap.NewNop())
	noop := func(context.Context, time.Time) (int, error) { return 0, nil }

	assert.ErrorIs(t, s.Register(Job{Name: "x", Interval: time.Second}), ErrInvalidConfig)
	assert.ErrorIs(t, s.Register(Job{Name: "x", Task: noop}), ErrInvalidConfig)
	require.NoError(t, s.Register(Job{Name: "x", Interval: time.Second, Task: noop}))
	assert.ErrorIs(t, s.Register(Job{Name: "x", Interval: time.Second, Task: noop}), ErrInvalidConfig)

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop(context.Background())
	assert.ErrorIs(t, s.Register(Job{Name: "y", Interval: time.Second, Task: noop}), ErrSchedulerRunning)
}

func TestBillingScheduler_RunsAllJobs(t *testing.T) {
	jobs := &fakeBillingJobs{}
	var hookCalls int32
	s, err := NewBillingScheduler(testSchedulerConfig(), jobs, zap.NewNop(),
		WithRunHook(func(string, int, error, time.Duration) { atomic.AddInt32(&hookCalls, 1) }))
	require.NoError(t, err)

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&jobs.overdue) >= 2 &&
			atomic.LoadInt32(&jobs.reminders) >= 2 &&
			atomic.LoadInt32(&jobs.advance) >= 2
	}, 2*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	assert.False(t, s.IsRunning())

	jobs.mu.Lock()
	assert.Equal(t, 50, jobs.limit)
	assert.Equal(t, 72*time.Hour, jobs.cooldown)
	jobs.mu.Unlock()
	assert.GreaterOrEqual(t, atomic.LoadInt32(&hookCalls), int32(6))

	states := s.States()
	require.Len(t, states, 3)
	assert.Equal(t, JobOverdueSweep, states[0].Name)
	assert.Equal(t, JobStatusSuccess, states[0].Status)
	assert.Equal(t, 3, states[0].Processed)
}

func TestRunNow_RecordsFailure(t *testing.T) {
	jobs := &fakeBillingJobs{failSweep: true}
	s, err := NewBillingScheduler(testSchedulerConfig(), jobs, zap.NewNop())
	require.NoError(t, err)

	st, err := s.RunNow(context.Background(), JobOverdueSweep)
	require.Error(t, err)
	assert.Equal(t, JobStatusFailed, st.Status)
	assert.Equal(t, "database unavailable", st.Error)
	assert.Equal(t, int64(1), st.Runs)

	_, err = s.RunNow(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrUnknownJob)
}

func TestRun_RecoversPanicAndAppliesTimeout(t *testing.T) {
	s := New(Config{JobTimeout: 20 * time.Millisecond}, zap.NewNop())
	require.NoError(t, s.Register(Job{
		Name:     "panics",
		Interval: time.Hour,
		Task:     func(context.Context, time.Time) (int, error) { panic("boom") },
	}))
	require.NoError(t, s.Register(Job{
		Name:     "slow",
		Interval: time.Hour,
		Task: func(ctx context.Context, _ time.Time) (int, error) {
			<-ctx.Done()
			return 0, ctx.Err()
		},
	}))

	st, err := s.RunNow(context.Background(), "panics")
	require.Error(t, err)
	assert.Contains(t, st.Error, "boom")

	st, err = s.RunNow(context.Background(), "slow")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, JobStatusFailed, st.Status)
}

func TestWithClock(t *testing.T) {
	fixed := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)
	var seen time.Time
	s := New(Config{}, nil, WithClock(func() time.Time { return fixed }))
	require.NoError(t, s.Register(Job{
		Name:     "clock",
		Interval: time.Hour,
		Task: func(_ context.Context, now time.Time) (int, error) {
			seen = now
			return 0, nil
		},
	}))

	st, err := s.RunNow(context.Background(), "clock")
	require.NoError(t, err)
	assert.Equal(t, fixed, seen)
	require.NotNil(t, st.StartedAt)
	assert.Equal(t, fixed, *st.StartedAt)
}
