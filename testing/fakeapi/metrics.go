package fakeapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var reqDur = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "unrot_fakeapi_request_duration_seconds",
	Help:    "A histogram of latencies for requests.",
	Buckets: prometheus.DefBuckets,
}, []string{"code", "method", "path"})

var reqCnt = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "unrot_fakeapi_requests_total",
	Help: "A counter for requests to the wrapped handler.",
}, []string{"code", "method", "path"})

// MetricsMiddleware records request counts and latencies by route
func MetricsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		path := c.Path()
		if path == "/metrics" || path == "/_health" {
			return next(c)
		}

		start := time.Now()
		err := next(c)

		status := c.Response().Status
		if err != nil {
			var httpError *echo.HTTPError
			if errors.As(err, &httpError) {
				status = httpError.Code
			}
			if status == 0 || status == http.StatusOK {
				status = http.StatusInternalServerError
			}
		}

		statusStr := strconv.Itoa(status)
		method := c.Request().Method
		reqDur.WithLabelValues(statusStr, method, path).Observe(time.Since(start).Seconds())
		reqCnt.WithLabelValues(statusStr, method, path).Inc()
		return err
	}
}
