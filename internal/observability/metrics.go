package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatroom_http_requests_total",
			Help: "Total number of HTTP requests processed by the chatroom service.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatroom_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	messagesAppendedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chatroom_messages_appended_total",
			Help: "Total number of messages appended to chat logs.",
		},
	)
	mediaUploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatroom_media_uploads_total",
			Help: "Total number of media upload attempts.",
		},
		[]string{"status"},
	)
	amqpPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chatroom_amqp_publish_errors_total",
			Help: "Total number of AMQP publish errors.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		messagesAppendedTotal,
		mediaUploadsTotal,
		amqpPublishErrorsTotal,
	)
}

func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func IncMessageAppended() {
	messagesAppendedTotal.Inc()
}

func IncMediaUpload(status string) {
	mediaUploadsTotal.WithLabelValues(status).Inc()
}

func IncAMQPPublishError() {
	amqpPublishErrorsTotal.Inc()
}
