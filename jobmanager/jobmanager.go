// Package jobmanager runs each fragment on its own goroutine and reports
// completions to the supervising loop.
package jobmanager

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrShuttingDown is returned by Submit after Shutdown
var ErrShuttingDown = errors.New("job manager is shutting down")

// ErrLimitReached is returned when every worker slot is taken
var ErrLimitReached = errors.New("concurrency limit reached, cannot submit more runs")

// JobNotification reports a finished job
type JobNotification struct {
	JobID  JobID
	Label  string
	Status JobStatus
	Output string
	Error  error
}

// JobManager spawns one worker per submitted run
type JobManager struct {
	mu        sync.RWMutex
	jobs      map[JobID]*Job
	last      *Job
	nextID    JobID
	semaphore chan struct{} // nil when unbounded
	closed    bool

	notifyChan chan JobNotification
	quit       chan struct{}
	wg         sync.WaitGroup
	once       sync.Once
}

// NewJobManager creates a manager; a limit of zero or less is unbounded
func NewJobManager(concurrencyLimit int) *JobManager {
	jm := &JobManager{
		jobs:       make(map[JobID]*Job),
		nextID:     1,
		notifyChan: make(chan JobNotification, 100),
		quit:       make(chan struct{}),
	}
	if concurrencyLimit > 0 {
		jm.semaphore = make(chan struct{}, concurrencyLimit)
	}
	return jm
}

// Submit starts task on a new goroutine and returns its job
func (jm *JobManager) Submit(label string, task Task) (*Job, error) {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	if jm.closed {
		return nil, ErrShuttingDown
	}

	if jm.semaphore != nil {
		select {
		case jm.semaphore <- struct{}{}:
		default:
			return nil, ErrLimitReached
		}
	}

	job := NewJob(jm.nextID, label)
	jm.nextID++
	jm.jobs[job.ID] = job
	jm.last = job

	jm.wg.Add(1)
	go jm.executeJob(job, task)

	return job, nil
}

func (jm *JobManager) executeJob(job *Job, task Task) {
	defer jm.wg.Done()
	defer func() {
		if jm.semaphore != nil {
			<-jm.semaphore
		}
	}()

	output, err := runTask(task)
	job.finish(output, err)

	notification := JobNotification{
		JobID:  job.ID,
		Label:  job.Label,
		Status: job.Status(),
		Output: output,
		Error:  err,
	}
	select {
	case jm.notifyChan <- notification:
		return
	default:
	}
	select {
	case jm.notifyChan <- notification:
	case <-jm.quit:
	}
}

// runTask turns a panicking task into a failed job
func runTask(task Task) (output string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("run panicked: %v", r)
		}
	}()
	return task()
}

// GetJob returns a specific job
func (jm *JobManager) GetJob(id JobID) (*Job, error) {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	job, exists := jm.jobs[id]
	if !exists {
		return nil, fmt.Errorf("job with ID %d not found", id)
	}
	return job, nil
}

// Last returns the most recently submitted job, or nil
func (jm *JobManager) Last() *Job {
	jm.mu.RLock()
	defer jm.mu.RUnlock()
	return jm.last
}

// ListJobs returns the tracked jobs in submission order
func (jm *JobManager) ListJobs() []*Job {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	jobs := make([]*Job, 0, len(jm.jobs))
	for id := JobID(1); id < jm.nextID; id++ {
		if job, ok := jm.jobs[id]; ok {
			jobs = append(jobs, job)
		}
	}
	return jobs
}

// Notifications returns the completion channel. It is closed by Shutdown.
func (jm *JobManager) Notifications() <-chan JobNotification {
	return jm.notifyChan
}

// RunningCount returns the number of jobs still running
func (jm *JobManager) RunningCount() int {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	count := 0
	for _, job := range jm.jobs {
		if job.Status() == StatusRunning {
			count++
		}
	}
	return count
}

// ConcurrencyLimit returns the worker limit, zero when unbounded
func (jm *JobManager) ConcurrencyLimit() int {
	return cap(jm.semaphore)
}

// Shutdown refuses new jobs, waits for the running ones and closes the
// notification channel. Notifications that no longer fit the buffer are
// dropped.
func (jm *JobManager) Shutdown() {
	jm.once.Do(func() {
		jm.mu.Lock()
		jm.closed = true
		jm.mu.Unlock()

		close(jm.quit)
		jm.wg.Wait()
		close(jm.notifyChan)
	})
}

// CleanCompletedJobs forgets finished jobs older than olderThan. The last
// submitted job stays reachable through Last.
func (jm *JobManager) CleanCompletedJobs(olderThan time.Duration) int {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	cutoff := time.Now().Add(-olderThan)
	removed := 0
	for id, job := range jm.jobs {
		if job.Status() == StatusRunning {
			continue
		}
		if !job.EndTime().After(cutoff) {
			delete(jm.jobs, id)
			removed++
		}
	}
	return removed
}
