// Package metrics declares the Prometheus collectors exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "edupro",
		Name:      "http_requests_total",
		Help:      "HTTP requests by route pattern, method and status.",
	}, []string{"route", "method", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "edupro",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route pattern and method.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	RealtimeEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "edupro",
		Name:      "realtime_events_total",
		Help:      "Change events received from Postgres by table.",
	}, []string{"table"})

	RealtimeDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "edupro",
		Name:      "realtime_events_dropped_total",
		Help:      "Change events dropped because a subscriber was not keeping up.",
	})

	LiveFeeds = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "edupro",
		Name:      "live_feeds",
		Help:      "Open websocket feeds by kind.",
	}, []string{"kind"})

	InboxRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "edupro",
		Name:      "inbox_refreshes_total",
		Help:      "Conversation list refresh triggers by outcome.",
	}, []string{"outcome"})
)

// RegisterSubscribers exports the number of open realtime subscriptions,
// read from count at scrape time.
func RegisterSubscribers(reg prometheus.Registerer, count func() int) prometheus.GaugeFunc {
	return promauto.With(reg).NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "edupro",
		Name:      "realtime_subscriptions",
		Help:      "Open realtime hub subscriptions.",
	}, func() float64 { return float64(count()) })
}
