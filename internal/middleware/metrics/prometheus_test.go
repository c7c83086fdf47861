package metricsmw

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/Skotchmaster/blog/internal/observability"
	"github.com/Skotchmaster/blog/internal/service"
)

func TestPrometheus_RecordsRoutePattern(t *testing.T) {
	m := observability.NewMetrics()
	e := echo.New()
	e.Use(Prometheus(m))
	e.GET("/posts/:id", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	for _, id := range []string{"1", "2", "3"} {
		e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/posts/"+id, nil))
	}

	assert.Equal(t, 3.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/posts/:id", "204")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.HTTPRequestsInFlight))
}

func TestPrometheus_UncommittedErrorStatus(t *testing.T) {
	m := observability.NewMetrics()
	e := echo.New()
	e.Use(Prometheus(m))
	e.GET("/gone", func(c echo.Context) error { return echo.NewHTTPError(http.StatusGone) })

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/gone", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/gone", "410")))
}

func TestPrometheus_ServiceErrorStatus(t *testing.T) {
	m := observability.NewMetrics()
	e := echo.New()
	e.Use(Prometheus(m))
	e.GET("/posts/:id", func(c echo.Context) error {
		return &service.Error{Kind: service.ErrNotFound, Detail: "Post not found"}
	})
	e.DELETE("/posts/:id", func(c echo.Context) error {
		return &service.Error{Kind: service.ErrForbidden, Detail: "Not authorized to delete this post"}
	})

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/posts/1", nil))
	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/posts/1", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/posts/:id", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("DELETE", "/posts/:id", "403")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/posts/:id", "500")))
}
