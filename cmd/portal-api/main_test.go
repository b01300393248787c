package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/physics-portal-api/internal/handler"
)

type stubPinger struct{ err error }

func (s stubPinger) PingContext(context.Context) error { return s.err }
func (s stubPinger) Ping(context.Context) error        { return s.err }

func readyStatus(t *testing.T, checks []handler.ReadinessCheck) (int, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ready", handler.NewMetricsHandler(nil, checks...).Ready)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	return rec.Code, rec.Body.String()
}

func TestReadinessChecksCacheDisabled(t *testing.T) {
	checks := readinessChecks(stubPinger{}, false, nil, nil)
	require.Len(t, checks, 1)
	assert.Equal(t, "postgres", checks[0].Name)
}

func TestReadinessChecksRedisFailedAtStartup(t *testing.T) {
	checks := readinessChecks(stubPinger{}, true, nil, errors.New("ping redis: connection refused"))
	require.Len(t, checks, 2)
	assert.Equal(t, "redis", checks[1].Name)

	code, body := readyStatus(t, checks)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, body, "degraded")
	assert.Contains(t, body, "connection refused")
}

func TestReadinessChecksRedisConnected(t *testing.T) {
	code, body := readyStatus(t, readinessChecks(stubPinger{}, true, stubPinger{}, nil))
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `"redis":"ok"`)
}
