package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestDuration *prometheus.HistogramVec
	requestOnce     sync.Once
)

// Metrics returns middleware that records caesar_http_request_duration_seconds
// by method, matched route pattern, and status code.
func Metrics() func(http.Handler) http.Handler {
	requestOnce.Do(func() {
		requestDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "caesar_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		)
	})

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w}
			next.ServeHTTP(sw, r)

			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			requestDuration.
				WithLabelValues(r.Method, route, strconv.Itoa(sw.code())).
				Observe(time.Since(start).Seconds())
		})
	}
}
