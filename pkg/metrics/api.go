package metrics

// Enable equips any type with the capability to toggle metrics collection.
//
// Sample usage:
//
//	type myType struct{
//	  metrics.Enable
//	  m *myMetrics
//	}
//
//	func NewMyType() *myType {
//	  t := &myType{}
//	  t.m = t.EnsureMetrics("mytype", newMyMetrics()).(*myMetrics)
//	  t.EnableMetrics(true)
//	  return t
//	}
type Enable struct {
	metricsEnabled bool
}

// MetricsEnabled tells whether metrics are enabled or not
func (e Enable) MetricsEnabled() bool {
	return e.metricsEnabled
}

// EnableMetrics toggles metrics collection
func (e *Enable) EnableMetrics(enabled bool) {
	e.metricsEnabled = enabled
}

// EnsureMetrics registers a metrics module to the global registry.
//
// See EnsureMetrics.
func (e *Enable) EnsureMetrics(location string, m Module) Module {
	return EnsureMetrics(location, m)
}
