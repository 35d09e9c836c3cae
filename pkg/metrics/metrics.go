// Package metrics holds the prometheus registry shared by all casfs components.
//
// Components declare a struct of prometheus collectors and register it once
// under a location, with EnsureMetrics. Registering the same location again
// returns the first registration.
package metrics

import (
	"fmt"
	"net/http"
	"reflect"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes all metric names
const Namespace = "casfs"

// Module is a group of collectors registered together
type Module interface {
	Collectors() []prometheus.Collector
}

var (
	initOnce sync.Once
	mp       *settings
)

type settings struct {
	registry  *prometheus.Registry
	modules   map[string]Module
	exclusive sync.Mutex
}

func global() *settings {
	initOnce.Do(func() {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		mp = &settings{
			registry: reg,
			modules:  make(map[string]Module),
		}
	})
	return mp
}

func (s *settings) EnsureMetrics(location string, m Module) Module {
	s.exclusive.Lock()
	defer s.exclusive.Unlock()

	if existing, ok := s.modules[location]; ok {
		if reflect.TypeOf(existing) != reflect.TypeOf(m) {
			panic(fmt.Sprintf("trying to re-register metrics module %q with a different type", location))
		}
		return existing
	}
	s.registry.MustRegister(m.Collectors()...)
	s.modules[location] = m
	return m
}

// Registry returns the global prometheus registry
func Registry() *prometheus.Registry {
	return global().registry
}

// Handler serves the global registry in the prometheus exposition format
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry(), promhttp.HandlerOpts{})
}

// EnsureMetrics allows for lazy registration of metrics definitions.
//
// It may safely be called several times: only the first registration
// for a given location is retained.
//
// It panics when the same location is registered again with another type.
func EnsureMetrics(location string, m Module) Module {
	return global().EnsureMetrics(location, m)
}
