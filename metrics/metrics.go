// Package metrics exports kernel activity to Prometheus: an observer that
// counts kernel events, and a collector that reads gauges from kernel
// snapshots at scrape time.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tailored-agentic-units/assistant/kernel"
	"github.com/tailored-agentic-units/assistant/observability"
)

const namespace = "assistant"

// SnapshotSource supplies the state read at scrape time.
type SnapshotSource interface {
	Snapshot() kernel.Snapshot
}

// Metrics counts observability events and, once Track is called, exports
// snapshot gauges.
type Metrics struct {
	reg    prometheus.Registerer
	events *prometheus.CounterVec
}

// MustNew registers the event counter with reg and panics on a registration
// error. Pass a fresh registry in tests.
func MustNew(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	events := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "kernel",
			Name:      "events_total",
			Help:      "Kernel events by type and severity.",
		},
		[]string{"type", "level"},
	)
	reg.MustRegister(events)

	return &Metrics{reg: reg, events: events}
}

// OnEvent implements observability.Observer.
func (m *Metrics) OnEvent(_ context.Context, event observability.Event) {
	m.events.WithLabelValues(string(event.Type), event.Level.String()).Inc()
}

// Track registers a collector that snapshots source on every scrape.
func (m *Metrics) Track(source SnapshotSource) error {
	return m.reg.Register(newSnapshotCollector(source))
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

type snapshotCollector struct {
	source SnapshotSource

	load          *prometheus.Desc
	dopamine      *prometheus.Desc
	ramUsed       *prometheus.Desc
	ramCapacity   *prometheus.Desc
	ramBlocks     *prometheus.Desc
	light         *prometheus.Desc
	commands      *prometheus.Desc
	errors        *prometheus.Desc
	journal       *prometheus.Desc
	degraded      *prometheus.Desc
	queueDropped  *prometheus.Desc
	speechSpoken  *prometheus.Desc
	speechFailed  *prometheus.Desc
	uptimeSeconds *prometheus.Desc
}

func newSnapshotCollector(source SnapshotSource) *snapshotCollector {
	desc := func(subsystem, name, help string, labels ...string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystem, name), help, labels, nil)
	}

	return &snapshotCollector{
		source:        source,
		load:          desc("cpu", "load", "Simulated CPU load (0-1)."),
		dopamine:      desc("emotion", "dopamine", "Dopamine scalar (0-1) by current label.", "label"),
		ramUsed:       desc("ram", "used_megabytes", "Simulated RAM in use."),
		ramCapacity:   desc("ram", "capacity_megabytes", "Simulated RAM capacity."),
		ramBlocks:     desc("ram", "blocks", "Live RAM allocation blocks."),
		light:         desc("light", "intensity", "Room light intensity; 0 when off."),
		commands:      desc("kernel", "commands_total", "Accepted commands."),
		errors:        desc("kernel", "errors_total", "Handler and persistence failures."),
		journal:       desc("journal", "entries", "Retained journal entries."),
		degraded:      desc("journal", "degraded", "1 when the journal runs memory-only."),
		queueDropped:  desc("kernel", "queue_dropped_total", "Command lines dropped on a full queue."),
		speechSpoken:  desc("speech", "spoken_total", "Utterances spoken."),
		speechFailed:  desc("speech", "failed_total", "Utterances the backend failed to speak."),
		uptimeSeconds: desc("kernel", "uptime_seconds", "Time since boot."),
	}
}

func (c *snapshotCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		c.load, c.dopamine, c.ramUsed, c.ramCapacity, c.ramBlocks, c.light,
		c.commands, c.errors, c.journal, c.degraded, c.queueDropped,
		c.speechSpoken, c.speechFailed, c.uptimeSeconds,
	} {
		ch <- d
	}
}

func (c *snapshotCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.source.Snapshot()

	gauge := func(d *prometheus.Desc, v float64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v, labels...)
	}
	counter := func(d *prometheus.Desc, v float64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, v)
	}

	gauge(c.load, s.Registers.Load)
	gauge(c.dopamine, s.Dopamine, string(s.Emotion))
	gauge(c.ramUsed, s.RAM.UsedMB)
	gauge(c.ramCapacity, s.RAM.CapacityMB)
	gauge(c.ramBlocks, float64(len(s.RAM.Blocks)))
	light := 0.0
	if s.Light.On {
		light = float64(s.Light.Intensity)
	}
	gauge(c.light, light)
	counter(c.commands, float64(s.Registers.CommandCount))
	counter(c.errors, float64(s.Registers.ErrorCount))
	gauge(c.journal, float64(s.Journal.Entries))
	degraded := 0.0
	if s.Journal.Degraded {
		degraded = 1
	}
	gauge(c.degraded, degraded)
	counter(c.queueDropped, float64(s.QueueDropped))
	counter(c.speechSpoken, float64(s.Speech.Spoken))
	counter(c.speechFailed, float64(s.Speech.Failed))
	gauge(c.uptimeSeconds, s.Uptime.Seconds())
}
