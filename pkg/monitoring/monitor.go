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

	LiveAttemptsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "exam_live_attempts",
			Help: "Number of attempt runners currently held in memory",
		},
	)

	PersistQueueGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "exam_persist_queue_depth",
			Help: "Pending tasks in the attempt persistence queue",
		},
	)

	PersistFailureCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exam_persist_failures_total",
			Help: "Failed attempt persistence tasks by kind",
		},
		[]string{"kind"},
	)

	SectionExpiryCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "exam_section_expiries_total",
			Help: "Section timers that reached zero and forced a submit",
		},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(LiveAttemptsGauge)
	prometheus.MustRegister(PersistQueueGauge)
	prometheus.MustRegister(PersistFailureCounter)
	prometheus.MustRegister(SectionExpiryCounter)
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
