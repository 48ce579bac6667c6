package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "lessonsync"

// Collector holds the engine's prometheus collectors. A nil *Collector is
// valid and records nothing.
type Collector struct {
	activeSubscriptions prometheus.Gauge
	snapshots           *prometheus.CounterVec
	subscriptionErrors  prometheus.Counter
	uploads             *prometheus.CounterVec
	uploadBytes         *prometheus.CounterVec
	saves               *prometheus.CounterVec
	openSessions        prometheus.Gauge
}

func New(reg prometheus.Registerer) *Collector {
	c := &Collector{
		activeSubscriptions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_subscriptions",
			Help:      "Live subscriptions currently registered.",
		}),
		snapshots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_delivered_total",
			Help:      "Snapshots delivered to subscribers.",
		}, []string{"kind"}),
		subscriptionErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscription_errors_total",
			Help:      "Transport errors surfaced to subscribers.",
		}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Finished uploads by media kind and result.",
		}, []string{"kind", "result"}),
		uploadBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_bytes_total",
			Help:      "Bytes sent to file storage.",
		}, []string{"kind"}),
		saves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lesson_writes_total",
			Help:      "Lesson create/update/delete calls by result.",
		}, []string{"op", "result"}),
		openSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_edit_sessions",
			Help:      "Edit sessions currently open.",
		}),
	}
	reg.MustRegister(
		c.activeSubscriptions,
		c.snapshots,
		c.subscriptionErrors,
		c.uploads,
		c.uploadBytes,
		c.saves,
		c.openSessions,
	)
	return c
}

func (c *Collector) SubscriptionOpened() {
	if c == nil {
		return
	}
	c.activeSubscriptions.Inc()
}

func (c *Collector) SubscriptionClosed() {
	if c == nil {
		return
	}
	c.activeSubscriptions.Dec()
}

func (c *Collector) SnapshotDelivered(kind string) {
	if c == nil {
		return
	}
	c.snapshots.WithLabelValues(kind).Inc()
}

func (c *Collector) SubscriptionError() {
	if c == nil {
		return
	}
	c.subscriptionErrors.Inc()
}

func (c *Collector) UploadFinished(kind, result string, bytes int64) {
	if c == nil {
		return
	}
	c.uploads.WithLabelValues(kind, result).Inc()
	if bytes > 0 {
		c.uploadBytes.WithLabelValues(kind).Add(float64(bytes))
	}
}

func (c *Collector) LessonWrite(op string, err error) {
	if c == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.saves.WithLabelValues(op, result).Inc()
}

func (c *Collector) SessionOpened() {
	if c == nil {
		return
	}
	c.openSessions.Inc()
}

func (c *Collector) SessionClosed() {
	if c == nil {
		return
	}
	c.openSessions.Dec()
}
