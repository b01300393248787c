package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/physics-portal-api/internal/models"
	"github.com/noah-isme/physics-portal-api/internal/taxonomy"
)

type fixedCounter struct {
	n   int
	err error
}

func (f fixedCounter) Count(ctx context.Context) (int, error) { return f.n, f.err }

func TestStatsDashboard(t *testing.T) {
	content := newMemoryContentStore()
	content.add(taxonomy.KindLesson, models.Content{ID: "l1"})
	content.add(taxonomy.KindLesson, models.Content{ID: "l2"})
	content.add(taxonomy.KindVideo, models.Content{ID: "v1"})

	metrics := NewMetricsService()
	metrics.ObserveHTTPRequest("GET", "/api/v1/levels", 200, 0)
	svc := NewStatsService(content, fixedCounter{n: 4}, fixedCounter{n: 7}, metrics)

	stats, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Lessons)
	assert.Equal(t, 0, stats.Exams)
	assert.Equal(t, 1, stats.Videos)
	assert.Equal(t, 4, stats.Bac)
	assert.Equal(t, 7, stats.Messages)
	assert.EqualValues(t, 1, stats.System.RequestsTotal)
}

func TestStatsDashboardFailure(t *testing.T) {
	svc := NewStatsService(newMemoryContentStore(), fixedCounter{}, fixedCounter{err: assert.AnError}, nil)
	_, err := svc.Dashboard(context.Background())
	assertStatus(t, err, http.StatusInternalServerError)
}
