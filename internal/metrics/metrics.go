// Package metrics exposes Prometheus counters for the flows that matter
// operationally: HTTP traffic, delivery confirmations and escrow movement.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	VerificationScans = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "verification_scans_total",
		Help: "Verification code scans by outcome.",
	}, []string{"outcome"})

	DeliveriesConfirmed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "deliveries_confirmed_total",
		Help: "Successful delivery confirmations.",
	})

	EscrowReleased = promauto.NewCounter(prometheus.CounterOpts{
		Name: "escrow_released_total",
		Help: "Escrow entries released to artisan balances.",
	})

	EscrowReleasedAmount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "escrow_released_amount_total",
		Help: "Total amount released from escrow.",
	})

	WithdrawalsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "withdrawals_processed_total",
		Help: "Payout worker results by outcome.",
	}, []string{"outcome"})
)

// Middleware records request counts and latency per route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the scrape endpoint.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
