package scheduler

import "errors"

var (
	// ErrSchedulerRunning is returned when registering jobs on a started scheduler
	ErrSchedulerRunning = errors.New("scheduler is already running")

	// ErrUnknownJob is returned by RunNow for a name that was never registered
	ErrUnknownJob = errors.New("unknown job")

	// ErrInvalidConfig is returned when a job has no task or a non-positive interval
	ErrInvalidConfig = errors.New("invalid scheduler configuration")
)
