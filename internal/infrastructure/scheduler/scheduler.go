package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// JobStatus represents the outcome of the latest run of a job
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// Task performs one pass of a periodic job and returns how many records it changed.
type Task func(ctx context.Context, now time.Time) (int, error)

// Job is a named task run on a fixed interval
type Job struct {
	Name     string
	Interval time.Duration
	Task     Task
}

// JobState is a snapshot of a job's latest run
type JobState struct {
	Name        string        `json:"name"`
	Interval    time.Duration `json:"interval"`
	Status      JobStatus     `json:"status"`
	Runs        int64         `json:"runs"`
	Processed   int           `json:"processed"`
	Error       string        `json:"error,omitempty"`
	StartedAt   *time.Time    `json:"started_at,omitempty"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
}

// RunHook observes every finished run, e.g. to export metrics.
type RunHook func(job string, processed int, err error, elapsed time.Duration)

// Config holds the scheduler's own settings
type Config struct {
	// JobTimeout bounds a single run
	JobTimeout time.Duration
	// RunOnStart runs every job once right after Start instead of waiting a full interval
	RunOnStart bool
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithClock overrides time.Now, used by tests
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// WithRunHook registers an observer of finished runs
func WithRunHook(hook RunHook) Option {
	return func(s *Scheduler) { s.hooks = append(s.hooks, hook) }
}

// Scheduler runs registered jobs periodically, one goroutine per job.
// A job never overlaps with itself: a slow run delays its next tick.
type Scheduler struct {
	config Config
	logger *zap.Logger
	now    func() time.Time
	hooks  []RunHook

	jobs   []Job
	states map[string]*JobState

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	runMu     map[string]*sync.Mutex
	isRunning bool
}

// New creates a scheduler with no jobs
func New(config Config, logger *zap.Logger, opts ...Option) *Scheduler {
	if config.JobTimeout <= 0 {
		config.JobTimeout = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Scheduler{
		config: config,
		logger: logger.Named("scheduler"),
		now:    time.Now,
		states: make(map[string]*JobState),
		runMu:  make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register adds a job. Jobs must be registered before Start.
func (s *Scheduler) Register(job Job) error {
	if job.Name == "" || job.Task == nil || job.Interval <= 0 {
		return fmt.Errorf("%w: job %q needs a task and a positive interval", ErrInvalidConfig, job.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return ErrSchedulerRunning
	}
	if _, exists := s.states[job.Name]; exists {
		return fmt.Errorf("%w: job %q registered twice", ErrInvalidConfig, job.Name)
	}
	s.jobs = append(s.jobs, job)
	s.states[job.Name] = &JobState{Name: job.Name, Interval: job.Interval, Status: JobStatusPending}
	s.runMu[job.Name] = &sync.Mutex{}
	return nil
}

// Start launches one loop per registered job
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	jobs := append([]Job(nil), s.jobs...)
	s.mu.Unlock()

	for _, job := range jobs {
		s.wg.Add(1)
		go s.loop(ctx, job)
	}

	s.logger.Info("Billing scheduler started",
		zap.Int("jobs", len(jobs)),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)
	return nil
}

// Stop cancels running jobs and waits for their loops to exit
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Billing scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Billing scheduler stop timed out")
		return ctx.Err()
	}
}

// IsRunning reports whether Start was called without a matching Stop
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// RunNow executes the named job once, synchronously, and waits for any run
// already in progress to finish first.
func (s *Scheduler) RunNow(ctx context.Context, name string) (JobState, error) {
	s.mu.Lock()
	var job *Job
	for i := range s.jobs {
		if s.jobs[i].Name == name {
			job = &s.jobs[i]
			break
		}
	}
	s.mu.Unlock()
	if job == nil {
		return JobState{}, fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	err := s.run(ctx, *job)
	return s.State(name), err
}

// State returns a snapshot of the named job
func (s *Scheduler) State(name string) JobState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.states[name]; ok {
		return *st
	}
	return JobState{}
}

// States returns snapshots of every job in registration order
func (s *Scheduler) States() []JobState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]JobState, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, *s.states[job.Name])
	}
	return out
}

func (s *Scheduler) loop(ctx context.Context, job Job) {
	defer s.wg.Done()

	s.logger.Debug("Job loop started", zap.String("job", job.Name), zap.Duration("interval", job.Interval))

	if s.config.RunOnStart {
		_ = s.run(ctx, job)
	}

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Job loop stopping", zap.String("job", job.Name))
			return
		case <-ticker.C:
			_ = s.run(ctx, job)
		}
	}
}

// run executes a single pass of job. Errors are logged and recorded; the
// next tick acts as the retry.
func (s *Scheduler) run(ctx context.Context, job Job) error {
	lock := s.runMu[job.Name]
	lock.Lock()
	defer lock.Unlock()

	started := s.now()
	s.update(job.Name, func(st *JobState) {
		st.Status = JobStatusRunning
		st.StartedAt = &started
		st.Error = ""
	})

	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	processed, err := s.execute(jobCtx, job, started)
	elapsed := time.Since(started)
	completed := s.now()

	s.update(job.Name, func(st *JobState) {
		st.Runs++
		st.Processed = processed
		st.CompletedAt = &completed
		if err != nil {
			st.Status = JobStatusFailed
			st.Error = err.Error()
		} else {
			st.Status = JobStatusSuccess
		}
	})

	for _, hook := range s.hooks {
		hook(job.Name, processed, err, elapsed)
	}

	if err != nil {
		s.logger.Error("Job failed",
			zap.String("job", job.Name),
			zap.Int("processed", processed),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return err
	}
	if processed > 0 {
		s.logger.Info("Job completed",
			zap.String("job", job.Name),
			zap.Int("processed", processed),
			zap.Duration("elapsed", elapsed),
		)
	} else {
		s.logger.Debug("Job completed with nothing to do", zap.String("job", job.Name))
	}
	return nil
}

func (s *Scheduler) execute(ctx context.Context, job Job, now time.Time) (processed int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", job.Name, r)
		}
	}()
	return job.Task(ctx, now)
}

func (s *Scheduler) update(name string, fn func(*JobState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.states[name]; ok {
		fn(st)
	}
}
