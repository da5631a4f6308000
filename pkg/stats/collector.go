// Package stats provides in-process instrumentation for the engine: put,
// get, remove, and freeze counts, plus WAL bytes written. Metrics are
// registered against a private prometheus.Registry so a host process can
// still read them back programmatically (see Snapshot); no HTTP exporter
// is wired, since serving /metrics is network access and out of scope.
package stats

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector tracks engine-level counters. All methods are safe to call
// from a single-threaded caller; the underlying prometheus types are
// themselves safe for concurrent use if that ever changes.
type Collector struct {
	registry *prometheus.Registry

	puts     prometheus.Counter
	gets     prometheus.Counter
	removes  prometheus.Counter
	notFound prometheus.Counter
	freezes  prometheus.Counter
	walBytes prometheus.Counter
}

// New creates a Collector registered against a fresh, private registry.
func New() *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		puts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ember_engine_puts_total",
			Help: "Number of put operations accepted by the engine.",
		}),
		gets: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ember_engine_gets_total",
			Help: "Number of get operations served by the engine.",
		}),
		removes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ember_engine_removes_total",
			Help: "Number of remove operations accepted by the engine.",
		}),
		notFound: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ember_engine_not_found_total",
			Help: "Number of get/remove operations that found no key.",
		}),
		freezes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ember_memtable_freezes_total",
			Help: "Number of memtable freeze-and-flush handoffs.",
		}),
		walBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ember_wal_bytes_written_total",
			Help: "Bytes appended to the write-ahead log.",
		}),
	}

	registry.MustRegister(c.puts, c.gets, c.removes, c.notFound, c.freezes, c.walBytes)
	return c
}

// Registry exposes the private registry, for a caller that wants to wire
// its own collector or gather a snapshot through the prometheus API.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) RecordPut()      { c.puts.Inc() }
func (c *Collector) RecordGet()      { c.gets.Inc() }
func (c *Collector) RecordRemove()   { c.removes.Inc() }
func (c *Collector) RecordNotFound() { c.notFound.Inc() }
func (c *Collector) RecordFreeze()   { c.freezes.Inc() }

// RecordWALBytes adds n to the cumulative WAL-bytes-written counter.
func (c *Collector) RecordWALBytes(n int64) {
	if n > 0 {
		c.walBytes.Add(float64(n))
	}
}

// Snapshot is a point-in-time read of every counter, plus the live
// memtable gauges the caller fills in (MemtableBytes/MemtableAge are not
// prometheus counters: they reflect the current live table, not a
// cumulative total, so Collector itself has no way to produce them).
type Snapshot struct {
	Puts          float64
	Gets          float64
	Removes       float64
	NotFound      float64
	Freezes       float64
	WALBytes      float64
	MemtableBytes int64
	MemtableAge   float64
}

// GetStats gathers the registry and returns the current counter values.
func (c *Collector) GetStats() (Snapshot, error) {
	families, err := c.registry.Gather()
	if err != nil {
		return Snapshot{}, err
	}

	var snap Snapshot
	for _, family := range families {
		if len(family.Metric) == 0 {
			continue
		}
		value := family.Metric[0].GetCounter().GetValue()
		switch family.GetName() {
		case "ember_engine_puts_total":
			snap.Puts = value
		case "ember_engine_gets_total":
			snap.Gets = value
		case "ember_engine_removes_total":
			snap.Removes = value
		case "ember_engine_not_found_total":
			snap.NotFound = value
		case "ember_memtable_freezes_total":
			snap.Freezes = value
		case "ember_wal_bytes_written_total":
			snap.WALBytes = value
		}
	}
	return snap, nil
}
