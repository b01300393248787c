package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/physics-portal-api/pkg/jobs"
)

const jobTypeDeleteObject = "storage.delete"

type objectRemover interface {
	Delete(key string) error
	KeyFromURL(url string) (string, bool)
}

type jobEnqueuer interface {
	TryEnqueue(job jobs.Job) error
}

// CleanupService removes stored PDFs that are no longer referenced by any
// row. Removal runs on the background queue when one is attached and has room,
// and inline otherwise, so an admin request never waits on a busy queue.
type CleanupService struct {
	store   objectRemover
	queue   jobEnqueuer
	metrics *MetricsService
	logger  *zap.Logger
}

// NewCleanupService constructs the cleanup service.
func NewCleanupService(store objectRemover, metrics *MetricsService, logger *zap.Logger) *CleanupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CleanupService{store: store, metrics: metrics, logger: logger}
}

// Attach routes future removals through q.
func (s *CleanupService) Attach(q jobEnqueuer) {
	s.queue = q
}

// Discard schedules removal of the objects behind urls. URLs outside the
// public bucket and empty values are ignored.
func (s *CleanupService) Discard(urls ...string) {
	if s == nil {
		return
	}
	for _, url := range urls {
		if url == "" {
			continue
		}
		key, ok := s.store.KeyFromURL(url)
		if !ok {
			s.logger.Debug("skipping foreign file url", zap.String("url", url))
			continue
		}
		job := jobs.Job{ID: uuid.NewString(), Type: jobTypeDeleteObject, Payload: key, Enqueued: time.Now().UTC()}
		if s.queue != nil {
			err := s.queue.TryEnqueue(job)
			if err == nil {
				continue
			}
			s.logger.Warn("cleanup enqueue failed, removing inline", zap.String("key", key), zap.Error(err))
		}
		s.Finish(job, s.Handle(context.Background(), job))
	}
}

// Handle is the queue handler for removal jobs.
func (s *CleanupService) Handle(ctx context.Context, job jobs.Job) error {
	key, ok := job.Payload.(string)
	if !ok || key == "" {
		return fmt.Errorf("cleanup job %s: unexpected payload %T", job.ID, job.Payload)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.store.Delete(key)
}

// Finish records the outcome of a removal job.
func (s *CleanupService) Finish(job jobs.Job, err error) {
	s.metrics.RecordCleanup(err == nil)
	if err != nil {
		s.logger.Error("orphaned file removal failed", zap.String("job_id", job.ID), zap.Any("key", job.Payload), zap.Error(err))
		return
	}
	s.logger.Debug("orphaned file removed", zap.Any("key", job.Payload))
}
