package main

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricsOnce sync.Once

	// Counters
	TicksTotal          prometheus.Counter
	NotificationsPosted prometheus.Counter
	DeliveryErrors      prometheus.Counter
	UpstreamErrors      prometheus.Counter

	// Gauges
	TrackedStreamersGauge prometheus.Gauge
	OnlineStreamersGauge  prometheus.Gauge
)

// InitMetrics registers metrics (idempotent).
func InitMetrics() {
	metricsOnce.Do(func() {
		TicksTotal = promauto.NewCounter(prometheus.CounterOpts{Name: "notify_ticks_total", Help: "Number of notification ticks run"})
		NotificationsPosted = promauto.NewCounter(prometheus.CounterOpts{Name: "notify_messages_posted_total", Help: "Number of notification messages posted"})
		DeliveryErrors = promauto.NewCounter(prometheus.CounterOpts{Name: "notify_delivery_errors_total", Help: "Number of failed message posts"})
		UpstreamErrors = promauto.NewCounter(prometheus.CounterOpts{Name: "notify_upstream_errors_total", Help: "Number of failed Twitch status polls"})
		TrackedStreamersGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "notify_tracked_streamers", Help: "Current number of tracked streamers"})
		OnlineStreamersGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "notify_online_streamers", Help: "Tracked streamers currently online"})
	})
}
