package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/physics-portal-api/internal/models"
	appErrors "github.com/noah-isme/physics-portal-api/pkg/errors"
)

type stubValidator struct{}

func (stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if token != "good" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return &models.JWTClaims{UserID: "u1", Email: "a@b.c"}, nil
}

type observation struct {
	method, path string
	status       int
}

type recordingObserver struct{ seen []observation }

func (r *recordingObserver) ObserveHTTPRequest(method, path string, status int, _ time.Duration) {
	r.seen = append(r.seen, observation{method, path, status})
}

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func TestJWT(t *testing.T) {
	r := newEngine()
	r.GET("/admin", JWT(stubValidator{}), func(c *gin.Context) {
		claims := c.MustGet(ContextUserKey).(*models.JWTClaims)
		c.String(http.StatusOK, claims.UserID)
	})

	cases := []struct {
		header string
		status int
	}{
		{"", http.StatusUnauthorized},
		{"Token good", http.StatusUnauthorized},
		{"Bearer ", http.StatusUnauthorized},
		{"Bearer bad", http.StatusUnauthorized},
		{"bearer good", http.StatusOK},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		r.ServeHTTP(rec, req)
		assert.Equal(t, tc.status, rec.Code, tc.header)
		if tc.status == http.StatusOK {
			assert.Equal(t, "u1", rec.Body.String())
		}
	}
}

func TestOptionalJWT(t *testing.T) {
	r := newEngine()
	r.GET("/", OptionalJWT(stubValidator{}), func(c *gin.Context) {
		_, ok := c.Get(ContextUserKey)
		if ok {
			c.String(http.StatusOK, "user")
			return
		}
		c.String(http.StatusOK, "anon")
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer bad")
	r.ServeHTTP(rec, req)
	assert.Equal(t, "anon", rec.Body.String())

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	r.ServeHTTP(rec, req)
	assert.Equal(t, "user", rec.Body.String())
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	observer := &recordingObserver{}
	r := newEngine()
	r.Use(Metrics(observer))
	r.GET("/levels/:yearId", func(c *gin.Context) { c.Status(http.StatusOK) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/levels/2as", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	require.Len(t, observer.seen, 2)
	assert.Equal(t, observation{"GET", "/levels/:yearId", http.StatusOK}, observer.seen[0])
	assert.Equal(t, observation{"GET", "unmatched", http.StatusNotFound}, observer.seen[1])
}

func TestResponseMetaAndCacheHeader(t *testing.T) {
	r := newEngine()
	r.Use(WithResponseMeta())
	r.GET("/", func(c *gin.Context) {
		SetCacheHit(c, true)
		c.JSON(http.StatusOK, ExtractMeta(c))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Contains(t, rec.Body.String(), `"cache_hit":true`)
	assert.Contains(t, rec.Body.String(), `"processing_time_ms"`)
}
