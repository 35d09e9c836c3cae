package casfs

import (
	"github.com/oneconcern/casfs/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// M describes metrics for the casfs core
type M struct {
	Ops     *prometheus.CounterVec
	Handles prometheus.Gauge
}

func newM() *M {
	return &M{
		Ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: "core",
			Name:      "operations_total",
			Help:      "file system operations by name and outcome",
		}, []string{"operation", "outcome"}),
		Handles: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metrics.Namespace,
			Subsystem: "core",
			Name:      "open_handles",
			Help:      "number of open file handles",
		}),
	}
}

// Collectors registered for this package
func (m *M) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.Ops, m.Handles}
}

func (m *M) record(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.Ops.WithLabelValues(operation, outcome).Inc()
}
