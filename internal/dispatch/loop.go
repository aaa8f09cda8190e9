// Package dispatch runs all state changes on a single goroutine.
//
// Slow work such as network calls runs in the background with Go; its
// outcome is handed back to the loop before it may touch shared state. Tasks
// are never canceled, and a stopped loop drops their completions.
package dispatch

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrStopped is returned when work is handed to a stopped loop
var ErrStopped = errors.New("dispatch loop is stopped")

const queueSize = 100

// JobStatus represents the current state of a job
type JobStatus int

const (
	StatusQueued JobStatus = iota
	StatusProcessing
	StatusCompleted
	StatusFailed
)

func (s JobStatus) String() string {
	switch s {
	case StatusQueued:
		return "Queued"
	case StatusProcessing:
		return "Processing"
	case StatusCompleted:
		return "Completed"
	case StatusFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Job is one user action running in the background
type Job struct {
	ID          int
	Name        string
	Status      JobStatus
	Error       error
	StartedAt   time.Time
	CompletedAt time.Time
}

// Loop owns the state-changing goroutine
type Loop struct {
	funcs chan func()

	jobs   map[int]*Job
	order  []int
	nextID int
	mu     sync.RWMutex

	// Callbacks for UI updates, they receive a snapshot of the job
	onStatusUpdate func(job Job)
	onJobComplete  func(job Job)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger *zap.Logger
}

// NewLoop creates a loop. Nothing runs until Run is called.
func NewLoop(ctx context.Context, logger *zap.Logger) *Loop {
	if logger == nil {
		logger = zap.NewNop()
	}
	loopCtx, cancel := context.WithCancel(ctx)

	return &Loop{
		funcs:  make(chan func(), queueSize),
		jobs:   make(map[int]*Job),
		nextID: 1,
		ctx:    loopCtx,
		cancel: cancel,
		logger: logger,
	}
}

// SetCallbacks sets the callback functions for UI updates. onJobComplete runs
// on the loop.
func (l *Loop) SetCallbacks(onStatusUpdate, onJobComplete func(Job)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onStatusUpdate = onStatusUpdate
	l.onJobComplete = onJobComplete
}

// Run executes queued functions in order until the loop is stopped
func (l *Loop) Run() {
	for {
		select {
		case fn := <-l.funcs:
			fn()
		case <-l.ctx.Done():
			return
		}
	}
}

// Do queues fn to run on the loop
func (l *Loop) Do(fn func()) error {
	if l.ctx.Err() != nil {
		return ErrStopped
	}
	select {
	case l.funcs <- fn:
		return nil
	case <-l.ctx.Done():
		return ErrStopped
	}
}

// Call runs fn on the loop and waits for it to finish
func (l *Loop) Call(fn func()) error {
	done := make(chan struct{})
	if err := l.Do(func() {
		defer close(done)
		fn()
	}); err != nil {
		return err
	}

	select {
	case <-done:
		return nil
	case <-l.ctx.Done():
		return ErrStopped
	}
}

// Go runs task in the background and then done on the loop with the task's
// error. The task context is not canceled when the loop stops. The returned
// job is a snapshot taken when the task was queued.
func (l *Loop) Go(name string, task func(ctx context.Context) error, done func(err error)) Job {
	l.mu.Lock()
	job := &Job{
		ID:     l.nextID,
		Name:   name,
		Status: StatusQueued,
	}
	l.nextID++
	l.jobs[job.ID] = job
	l.order = append(l.order, job.ID)
	l.mu.Unlock()

	if l.ctx.Err() != nil {
		l.finishJob(job, ErrStopped)
		return l.snapshot(job)
	}
	l.updateJobStatus(job, StatusQueued)
	queued := l.snapshot(job)

	taskCtx := context.WithoutCancel(l.ctx)
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()

		l.mu.Lock()
		job.StartedAt = time.Now()
		l.mu.Unlock()
		l.updateJobStatus(job, StatusProcessing)

		err := task(taskCtx)

		if doErr := l.Do(func() {
			l.finishJob(job, err)
			if done != nil {
				done(err)
			}
		}); doErr != nil {
			l.logger.Debug("Dropped job completion", zap.Int("job", job.ID), zap.String("name", name))
			l.finishJob(job, err)
		}
	}()

	return queued
}

// Wait blocks until all background tasks have returned
func (l *Loop) Wait() {
	l.wg.Wait()
}

// Stop stops the loop. Running tasks continue but their completions are
// dropped.
func (l *Loop) Stop() {
	l.cancel()
}

// Stopped reports whether Stop was called
func (l *Loop) Stopped() bool {
	return l.ctx.Err() != nil
}

// Done is closed when the loop stops
func (l *Loop) Done() <-chan struct{} {
	return l.ctx.Done()
}

// Jobs returns snapshots of all jobs in start order
func (l *Loop) Jobs() []Job {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]Job, 0, len(l.order))
	for _, id := range l.order {
		result = append(result, *l.jobs[id])
	}
	return result
}

// QueueStatus returns the current job statistics
func (l *Loop) QueueStatus() (queued, processing, completed, failed int) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, job := range l.jobs {
		switch job.Status {
		case StatusQueued:
			queued++
		case StatusProcessing:
			processing++
		case StatusCompleted:
			completed++
		case StatusFailed:
			failed++
		}
	}
	return
}

func (l *Loop) snapshot(job *Job) Job {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return *job
}

// updateJobStatus updates the status of a job and calls the callback
func (l *Loop) updateJobStatus(job *Job, status JobStatus) {
	l.mu.Lock()
	job.Status = status
	snapshot := *job
	callback := l.onStatusUpdate
	l.mu.Unlock()

	if callback != nil {
		callback(snapshot)
	}
}

func (l *Loop) finishJob(job *Job, err error) {
	l.mu.Lock()
	job.CompletedAt = time.Now()
	job.Error = err
	job.Status = StatusCompleted
	if err != nil {
		job.Status = StatusFailed
	}
	snapshot := *job
	callback := l.onJobComplete
	l.mu.Unlock()

	if err != nil {
		l.logger.Debug("Job failed", zap.Int("job", job.ID), zap.String("name", job.Name), zap.Error(err))
	}
	if callback != nil {
		callback(snapshot)
	}
}
