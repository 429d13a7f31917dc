package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	AttemptsStarted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "quiz_attempts_started_total",
			Help: "Total number of quiz attempts started",
		},
	)

	// AttemptSubmissions is labelled by cause: manual, auto_time, auto_violation.
	AttemptSubmissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_attempt_submissions_total",
			Help: "Total number of quiz attempt submissions by cause",
		},
		[]string{"cause"},
	)

	ViolationsRecorded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_violations_recorded_total",
			Help: "Total number of integrity violations recorded by type",
		},
		[]string{"type"},
	)

	AttemptResets = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "quiz_attempt_resets_total",
			Help: "Total number of student attempt resets",
		},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(AttemptsStarted)
	prometheus.MustRegister(AttemptSubmissions)
	prometheus.MustRegister(ViolationsRecorded)
	prometheus.MustRegister(AttemptResets)
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
