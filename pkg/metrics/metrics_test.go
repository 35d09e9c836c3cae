package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testModule struct {
	Hits prometheus.Counter
}

func (m *testModule) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.Hits}
}

func newTestModule() *testModule {
	return &testModule{
		Hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "test",
			Name:      "hits_total",
			Help:      "test counter",
		}),
	}
}

type otherModule struct{ testModule }

func TestEnsureMetrics(t *testing.T) {
	first := EnsureMetrics("test", newTestModule()).(*testModule)
	second := EnsureMetrics("test", newTestModule()).(*testModule)
	require.Same(t, first, second)

	first.Hits.Inc()
	assert.Equal(t, float64(1), testutil.ToFloat64(second.Hits))

	assert.Panics(t, func() {
		_ = EnsureMetrics("test", &otherModule{})
	})

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.True(t, strings.Contains(rec.Body.String(), "casfs_test_hits_total 1"))
}

func TestEnable(t *testing.T) {
	var e Enable
	assert.False(t, e.MetricsEnabled())
	e.EnableMetrics(true)
	assert.True(t, e.MetricsEnabled())
}
