package cors

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func engine(origins ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(New(origins))
	r.GET("/levels", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func request(r *gin.Engine, method, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/levels", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAllowsConfiguredOrigins(t *testing.T) {
	r := engine("https://portal.example.org/", "*.school.dz")

	rec := request(r, http.MethodGet, "https://portal.example.org")
	assert.Equal(t, "https://portal.example.org", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Expose-Headers"), "X-Cache")

	rec = request(r, http.MethodGet, "http://physics.school.dz:5173")
	assert.Equal(t, "http://physics.school.dz:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = request(r, http.MethodGet, "https://evil.test")
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWildcardWhenUnconfigured(t *testing.T) {
	rec := request(engine(), http.MethodGet, "")
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestPreflightShortCircuits(t *testing.T) {
	rec := request(engine("https://portal.example.org"), http.MethodOptions, "https://portal.example.org")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "DELETE")
	assert.Equal(t, "600", rec.Header().Get("Access-Control-Max-Age"))
}
