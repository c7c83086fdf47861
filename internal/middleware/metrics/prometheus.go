package metricsmw

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/blog/internal/observability"
	httpserver "github.com/Skotchmaster/blog/internal/transport/http"
)

// Prometheus records request count, latency and in-flight gauge. An error
// not yet rendered is counted with the status the error handler will give it.
func Prometheus(m *observability.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			m.HTTPRequestsInFlight.Inc()
			defer m.HTTPRequestsInFlight.Dec()

			start := time.Now()
			err := next(c)
			dur := time.Since(start).Seconds()

			method := c.Request().Method
			// route pattern keeps label cardinality bounded
			endpoint := c.Path()
			if endpoint == "" {
				endpoint = "unmatched"
			}
			status := c.Response().Status
			if err != nil && !c.Response().Committed {
				status = httpserver.StatusOf(err)
			}

			m.HTTPRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
			m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(dur)
			return err
		}
	}
}
