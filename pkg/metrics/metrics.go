// This file may be distributed under the terms of the GNU GPLv3 license.

// Package metrics exposes filter counters over a Prometheus registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the filter's Prometheus instruments. A nil Collector is
// valid and records nothing, so the engine can run without a metrics
// endpoint.
type Collector struct {
	registry *prometheus.Registry

	linesProcessed   prometheus.Counter
	linesExcluded    prometheus.Counter
	linesSynthesized prometheus.Counter
	exclusionSpans   prometheus.Counter
	mutationsDenied  prometheus.Counter
	activeRegions    prometheus.Gauge
}

// New builds a Collector backed by its own registry.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		linesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "excluderegion", Name: "lines_processed_total",
			Help: "Gcode lines read from the input stream.",
		}),
		linesExcluded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "excluderegion", Name: "lines_excluded_total",
			Help: "Gcode lines suppressed inside exclusion regions.",
		}),
		linesSynthesized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "excluderegion", Name: "lines_synthesized_total",
			Help: "Gcode lines generated by entry, exit and recovery handling.",
		}),
		exclusionSpans: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "excluderegion", Name: "exclusion_spans_total",
			Help: "Contiguous excluded spans entered.",
		}),
		mutationsDenied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "excluderegion", Name: "region_mutations_denied_total",
			Help: "Region mutations declined by validation or policy.",
		}),
		activeRegions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "excluderegion", Name: "active_regions",
			Help: "Regions currently committed to the store.",
		}),
	}
	c.registry.MustRegister(
		c.linesProcessed, c.linesExcluded, c.linesSynthesized,
		c.exclusionSpans, c.mutationsDenied, c.activeRegions,
	)
	return c
}

// Handler returns the HTTP handler serving the registry.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) LineProcessed() {
	if c != nil {
		c.linesProcessed.Inc()
	}
}

func (c *Collector) LineExcluded() {
	if c != nil {
		c.linesExcluded.Inc()
	}
}

func (c *Collector) LinesSynthesized(n int) {
	if c != nil && n > 0 {
		c.linesSynthesized.Add(float64(n))
	}
}

func (c *Collector) SpanEntered() {
	if c != nil {
		c.exclusionSpans.Inc()
	}
}

func (c *Collector) MutationDenied() {
	if c != nil {
		c.mutationsDenied.Inc()
	}
}

func (c *Collector) SetActiveRegions(n int) {
	if c != nil {
		c.activeRegions.Set(float64(n))
	}
}
