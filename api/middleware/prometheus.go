package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status", "service"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "service"},
	)

	postOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "post_operations_total",
			Help: "Total number of post operations processed",
		},
		[]string{"operation", "status", "service"},
	)

	postOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "post_operation_duration_seconds",
			Help:    "Duration of post operations in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"operation", "service"},
	)

	postErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "post_operation_errors_total",
			Help: "Total number of post operation errors by kind",
		},
		[]string{"operation", "error_kind", "service"},
	)
)

func PrometheusMiddleware(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			// неизвестные маршруты не раздувают кардинальность
			path = "unmatched"
		}

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		httpRequestsTotal.WithLabelValues(c.Request.Method, path, status, serviceName).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path, serviceName).Observe(duration)
	}
}

// RecordPostOperation учитывает операцию над постом; errorKind пуст при успехе
func RecordPostOperation(operation, serviceName string, duration time.Duration, errorKind string) {
	status := "ok"
	if errorKind != "" {
		status = "error"
		postErrors.WithLabelValues(operation, errorKind, serviceName).Inc()
	}
	postOperationsTotal.WithLabelValues(operation, status, serviceName).Inc()
	postOperationDuration.WithLabelValues(operation, serviceName).Observe(duration.Seconds())
}
