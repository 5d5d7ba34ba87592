// Package metrics instruments the preflow-push engine. Unlike a long-running
// service, this CLI never serves /metrics over HTTP: a Collector is built on
// its own prometheus.Registry, handed to the engine as a pushrelabel.Recorder
// for the duration of a single solve, then optionally dumped to a file in
// Prometheus text-exposition format.
package metrics

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
)

// Collector counts the five engine events the push-relabel implementation
// reports through pushrelabel.Recorder. It satisfies that interface directly,
// so the CLI can pass a *Collector (or a nil *Collector, whose methods are
// no-ops) straight into pushrelabel.Run.
type Collector struct {
	registry *prometheus.Registry

	Pushes              prometheus.Counter
	Relabels            prometheus.Counter
	Gaps                prometheus.Counter
	ArcScans            prometheus.Counter
	DischargeIterations prometheus.Counter
}

// NewCollector builds a Collector registered against its own private
// registry, so multiple solves within the same process (as in tests) never
// collide on prometheus's global default registry.
func NewCollector(namespace string) *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	c := &Collector{
		registry: reg,
		Pushes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pushes_total",
			Help:      "Number of saturating and non-saturating pushes performed.",
		}),
		Relabels: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relabels_total",
			Help:      "Number of relabel operations performed.",
		}),
		Gaps: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gaps_total",
			Help:      "Number of times the gap heuristic fired.",
		}),
		ArcScans: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "arc_scans_total",
			Help:      "Number of residual arcs examined while searching for an admissible arc.",
		}),
		DischargeIterations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discharge_iterations_total",
			Help:      "Number of discharge loop iterations across both solve phases.",
		}),
	}

	return c
}

// Push implements pushrelabel.Recorder.
func (c *Collector) Push() {
	if c == nil {
		return
	}
	c.Pushes.Inc()
}

// Relabel implements pushrelabel.Recorder.
func (c *Collector) Relabel() {
	if c == nil {
		return
	}
	c.Relabels.Inc()
}

// Gap implements pushrelabel.Recorder.
func (c *Collector) Gap() {
	if c == nil {
		return
	}
	c.Gaps.Inc()
}

// ArcScan implements pushrelabel.Recorder.
func (c *Collector) ArcScan() {
	if c == nil {
		return
	}
	c.ArcScans.Inc()
}

// Discharge implements pushrelabel.Recorder.
func (c *Collector) Discharge() {
	if c == nil {
		return
	}
	c.DischargeIterations.Inc()
}

// WriteTo renders the collector's metric families as Prometheus's text
// exposition format and writes them to path, creating or truncating the
// file. This is the batch-CLI substitute for an HTTP /metrics endpoint.
func (c *Collector) WriteTo(path string) error {
	families, err := c.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create metrics file: %w", err)
	}
	defer f.Close()

	enc := expfmt.NewEncoder(f, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("encode metric family %s: %w", mf.GetName(), err)
		}
	}

	return nil
}
