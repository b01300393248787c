package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/physics-portal-api/internal/models"
	"github.com/noah-isme/physics-portal-api/internal/taxonomy"
	appErrors "github.com/noah-isme/physics-portal-api/pkg/errors"
)

type contentCounter interface {
	Count(ctx context.Context, kind taxonomy.Kind) (int, error)
}

type rowCounter interface {
	Count(ctx context.Context) (int, error)
}

// StatsService assembles the admin dashboard counters.
type StatsService struct {
	content  contentCounter
	bac      rowCounter
	messages rowCounter
	metrics  *MetricsService
}

// NewStatsService constructs the dashboard service.
func NewStatsService(content contentCounter, bac rowCounter, messages rowCounter, metrics *MetricsService) *StatsService {
	return &StatsService{content: content, bac: bac, messages: messages, metrics: metrics}
}

// Dashboard counts every table concurrently.
func (s *StatsService) Dashboard(ctx context.Context) (*models.DashboardStats, error) {
	stats := &models.DashboardStats{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { stats.Lessons, err = s.content.Count(gctx, taxonomy.KindLesson); return })
	g.Go(func() (err error) { stats.Exams, err = s.content.Count(gctx, taxonomy.KindExam); return })
	g.Go(func() (err error) { stats.Videos, err = s.content.Count(gctx, taxonomy.KindVideo); return })
	g.Go(func() (err error) { stats.Bac, err = s.bac.Count(gctx); return })
	g.Go(func() (err error) { stats.Messages, err = s.messages.Count(gctx); return })
	if err := g.Wait(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load dashboard stats")
	}
	stats.System = s.metrics.Snapshot()
	return stats, nil
}
