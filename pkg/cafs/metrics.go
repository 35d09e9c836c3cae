package cafs

import (
	"github.com/oneconcern/casfs/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// M describes metrics for the cafs package
type M struct {
	BytesWritten prometheus.Counter
	BytesRead    prometheus.Counter
	Parts        prometheus.Counter
	Manifests    prometheus.Counter
	Errors       *prometheus.CounterVec
}

func newM() *M {
	opts := func(name, help string) prometheus.CounterOpts {
		return prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: "cafs",
			Name:      name,
			Help:      help,
		}
	}
	return &M{
		BytesWritten: prometheus.NewCounter(opts("written_bytes_total", "bytes written to content-addressed storage")),
		BytesRead:    prometheus.NewCounter(opts("read_bytes_total", "bytes read from content-addressed storage")),
		Parts:        prometheus.NewCounter(opts("parts_committed_total", "number of blocks committed")),
		Manifests:    prometheus.NewCounter(opts("manifests_committed_total", "number of manifests committed for split content")),
		Errors:       prometheus.NewCounterVec(opts("errors_total", "number of failed reads and writes"), []string{"operation"}),
	}
}

// Collectors registered for this package
func (m *M) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.BytesWritten, m.BytesRead, m.Parts, m.Manifests, m.Errors}
}
