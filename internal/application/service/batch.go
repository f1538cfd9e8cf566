package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// JobStatus represents the current state of a batch job.
type JobStatus string

const (
	StatusPending   JobStatus = "pending"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
	StatusCancelled JobStatus = "cancelled"
)

// Job retention
const (
	// DefaultJobMaxDuration is the maximum time a job can run before being
	// forcefully marked as failed.
	DefaultJobMaxDuration = 2 * time.Hour

	// DefaultJobRetention is how long finished jobs stay queryable.
	DefaultJobRetention = 24 * time.Hour
)

// ErrJobNotFound is returned for unknown job IDs.
var ErrJobNotFound = errors.New("job not found")

// BatchItem is the outcome of one request in a batch.
type BatchItem struct {
	Request Request `json:"request"`
	Result  *Result `json:"result,omitempty"`
	Error   string  `json:"error,omitempty"`
}

// ReconcileBatch reconciles independent (org, period) pairs in parallel,
// bounded by workers.max_parallel. A failing item does not stop the others;
// items come back in request order.
func (s *Service) ReconcileBatch(ctx context.Context, reqs []Request) ([]BatchItem, error) {
	items := make([]BatchItem, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	if s.cfg.Workers.MaxParallel > 0 {
		g.SetLimit(s.cfg.Workers.MaxParallel)
	}

	for i, req := range reqs {
		i, req := i, req
		items[i].Request = req
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				items[i].Error = err.Error()
				return err
			}
			res, err := s.Reconcile(gctx, req)
			if err != nil {
				items[i].Error = err.Error()
				return nil
			}
			items[i].Result = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return items, err
	}
	return items, nil
}

// BatchJob represents a running or completed background batch.
type BatchJob struct {
	ID          string      `json:"id"`
	Status      JobStatus   `json:"status"`
	Requests    []Request   `json:"requests"`
	StartedAt   time.Time   `json:"started_at"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
	Items       []BatchItem `json:"items,omitempty"`
	Error       string      `json:"error,omitempty"`
	cancelFunc  context.CancelFunc
}

// StartBatch starts a batch asynchronously and returns its job ID.
// The passed context is NOT used as the parent for the background job, so
// the job outlives the HTTP request that started it. Use CancelJob to stop it.
func (s *Service) StartBatch(_ context.Context, reqs []Request) (string, error) {
	if len(reqs) == 0 {
		return "", fmt.Errorf("%w: batch is empty", ErrInvalidRequest)
	}

	jobCtx, cancel := context.WithCancel(context.Background())
	job := &BatchJob{
		ID:         uuid.NewString(),
		Status:     StatusPending,
		Requests:   reqs,
		StartedAt:  s.now(),
		cancelFunc: cancel,
	}

	s.jobsMutex.Lock()
	s.jobs[job.ID] = job
	s.jobsMutex.Unlock()

	go s.runBatchJob(jobCtx, job.ID, reqs)

	s.logger.Info("batch job started", "job_id", job.ID, "requests", len(reqs))
	return job.ID, nil
}

func (s *Service) runBatchJob(ctx context.Context, jobID string, reqs []Request) {
	s.setJobStatus(jobID, StatusRunning)

	items, err := s.ReconcileBatch(ctx, reqs)

	s.jobsMutex.Lock()
	defer s.jobsMutex.Unlock()

	job, exists := s.jobs[jobID]
	if !exists || job.Status == StatusCancelled {
		return
	}

	now := s.now()
	job.CompletedAt = &now
	job.Items = items
	if err != nil {
		job.Status = StatusFailed
		job.Error = err.Error()
		s.logger.Error("batch job failed", "job_id", jobID, "error", err)
		return
	}

	job.Status = StatusCompleted
	failed := 0
	for _, item := range items {
		if item.Error != "" {
			failed++
		}
	}
	s.logger.Info("batch job completed", "job_id", jobID, "requests", len(items), "failed", failed)
}

func (s *Service) setJobStatus(jobID string, status JobStatus) {
	s.jobsMutex.Lock()
	defer s.jobsMutex.Unlock()

	if job, exists := s.jobs[jobID]; exists && job.Status != StatusCancelled {
		job.Status = status
	}
}

// GetJob returns a snapshot of a batch job.
func (s *Service) GetJob(jobID string) (*BatchJob, error) {
	s.jobsMutex.RLock()
	defer s.jobsMutex.RUnlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}

	snapshot := *job
	snapshot.cancelFunc = nil
	return &snapshot, nil
}

// ListJobs returns snapshots of all known jobs.
func (s *Service) ListJobs() []*BatchJob {
	s.jobsMutex.RLock()
	defer s.jobsMutex.RUnlock()

	jobs := make([]*BatchJob, 0, len(s.jobs))
	for _, job := range s.jobs {
		snapshot := *job
		snapshot.cancelFunc = nil
		jobs = append(jobs, &snapshot)
	}
	return jobs
}

// CancelJob cancels a pending or running batch job.
func (s *Service) CancelJob(jobID string) error {
	s.jobsMutex.Lock()
	defer s.jobsMutex.Unlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}

	if job.Status != StatusPending && job.Status != StatusRunning {
		return fmt.Errorf("job cannot be cancelled: status=%s", job.Status)
	}

	job.cancelFunc()
	job.Status = StatusCancelled
	now := s.now()
	job.CompletedAt = &now

	s.logger.Info("batch job cancelled", "job_id", jobID)
	return nil
}

// CleanupOldJobs removes finished jobs older than maxAge and fails jobs
// running longer than maxDuration.
func (s *Service) CleanupOldJobs(maxAge, maxDuration time.Duration) int {
	s.jobsMutex.Lock()
	defer s.jobsMutex.Unlock()

	now := s.now()
	removed := 0

	for id, job := range s.jobs {
		switch job.Status {
		case StatusPending, StatusRunning:
			if now.Sub(job.StartedAt) > maxDuration {
				job.cancelFunc()
				job.Status = StatusFailed
				job.CompletedAt = &now
				job.Error = fmt.Sprintf("exceeded max duration of %v", maxDuration)
				s.logger.Warn("marked stale job as failed", "job_id", id, "started_at", job.StartedAt)
			}
		default:
			if job.CompletedAt != nil && now.Sub(*job.CompletedAt) > maxAge {
				delete(s.jobs, id)
				removed++
			}
		}
	}

	if removed > 0 {
		s.logger.Debug("cleaned up old batch jobs", "removed", removed)
	}
	return removed
}

// StartBackgroundCleanup periodically expires old and stuck jobs until
// StopBackgroundCleanup is called.
func (s *Service) StartBackgroundCleanup(checkInterval time.Duration) {
	s.cleanupStop = make(chan struct{})
	s.cleanupDone = make(chan struct{})

	go func() {
		defer close(s.cleanupDone)

		ticker := time.NewTicker(checkInterval)
		defer ticker.Stop()

		for {
			select {
			case <-s.cleanupStop:
				return
			case <-ticker.C:
				s.CleanupOldJobs(DefaultJobRetention, DefaultJobMaxDuration)
			}
		}
	}()
}

// StopBackgroundCleanup stops the cleanup goroutine and waits for it.
func (s *Service) StopBackgroundCleanup() {
	if s.cleanupStop == nil {
		return
	}

	close(s.cleanupStop)
	<-s.cleanupDone
	s.cleanupStop = nil
}
