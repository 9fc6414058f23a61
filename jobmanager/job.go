package jobmanager

import (
	"fmt"
	"sync"
	"time"
)

// JobID is a unique identifier for a job
type JobID int64

// JobStatus represents the current status of a job
type JobStatus string

const (
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

// Task is the body of a job: one run of a fragment
type Task func() (string, error)

// Job is one run handed to a worker goroutine
type Job struct {
	ID        JobID
	Label     string
	StartTime time.Time

	mu      sync.RWMutex
	status  JobStatus
	output  string
	err     error
	endTime time.Time
	done    chan struct{}
}

// NewJob creates a running job
func NewJob(id JobID, label string) *Job {
	return &Job{
		ID:        id,
		Label:     label,
		StartTime: time.Now(),
		status:    StatusRunning,
		done:      make(chan struct{}),
	}
}

// Status returns the current status of the job
func (j *Job) Status() JobStatus {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.status
}

// Output returns the captured output of a completed job
func (j *Job) Output() string {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.output
}

// Err returns the failure of a failed job
func (j *Job) Err() error {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.err
}

// EndTime is zero while the job runs
func (j *Job) EndTime() time.Time {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.endTime
}

// Done is closed once the job has finished
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// finish records the outcome; a job finishes once
func (j *Job) finish(output string, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status != StatusRunning {
		return
	}
	j.output = output
	j.err = err
	j.status = StatusCompleted
	if err != nil {
		j.status = StatusFailed
	}
	j.endTime = time.Now()
	close(j.done)
}

// Duration returns the elapsed time, up to now while running
func (j *Job) Duration() time.Duration {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if j.endTime.IsZero() {
		return time.Since(j.StartTime)
	}
	return j.endTime.Sub(j.StartTime)
}

func (j *Job) String() string {
	status := j.Status()
	duration := "running"
	if status != StatusRunning {
		duration = j.Duration().String()
	}
	return fmt.Sprintf("Job[%d] %s - %s (%s)", j.ID, j.Label, status, duration)
}
