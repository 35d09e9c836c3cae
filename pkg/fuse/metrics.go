package fuse

import (
	"github.com/oneconcern/casfs/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// M describes metrics for the fuse package
type M struct {
	Latency *prometheus.HistogramVec
	Errors  *prometheus.CounterVec
	IO      *prometheus.CounterVec
}

func newM() *M {
	return &M{
		Latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metrics.Namespace,
			Subsystem: "fuse",
			Name:      "request_duration_seconds",
			Help:      "latency of fuse requests",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"request"}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: "fuse",
			Name:      "errors_total",
			Help:      "fuse requests answered with an error, by errno",
		}, []string{"request", "errno"}),
		IO: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: "fuse",
			Name:      "io_bytes_total",
			Help:      "bytes read or written through fuse",
		}, []string{"direction"}),
	}
}

// Collectors registered for this package
func (m *M) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.Latency, m.Errors, m.IO}
}
