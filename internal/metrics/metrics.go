// Package metrics exports driver activity as Prometheus metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/roach88/recordstore/internal/driver"
)

// Status label values.
const (
	Fail = "fail"
	Ok   = "ok"
)

// Collector records driver callbacks. It implements driver.Observer.
type Collector struct {
	lookups         *prometheus.CounterVec
	batches         *prometheus.CounterVec
	batchDuration   *prometheus.HistogramVec
	batchOperations prometheus.Counter
	batchStatements prometheus.Counter
	schemaChanges   *prometheus.CounterVec
	schemaVersion   prometheus.Gauge
}

var _ driver.Observer = (*Collector)(nil)

// NewCollector creates a Collector and registers its metrics with reg.
// A nil reg leaves the metrics unregistered.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		lookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "recordstore_lookup_total",
			Help: "Record lookups by operation and presence outcome.",
		}, []string{"operation", "outcome"}),

		batches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "recordstore_batch_total",
			Help: "Batches executed, by status.",
		}, []string{"status"}),

		batchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "recordstore_batch_duration_seconds",
			Help:    "Duration of batch transactions in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
		}, []string{"status"}),

		batchOperations: factory.NewCounter(prometheus.CounterOpts{
			Name: "recordstore_batch_operations_total",
			Help: "Operations submitted in batches.",
		}),

		batchStatements: factory.NewCounter(prometheus.CounterOpts{
			Name: "recordstore_batch_statements_total",
			Help: "Statements executed by batches, including rolled back ones.",
		}),

		schemaChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "recordstore_schema_change_total",
			Help: "Schema resets and migrations, by status.",
		}, []string{"change", "status"}),

		schemaVersion: factory.NewGauge(prometheus.GaugeOpts{
			Name: "recordstore_schema_version",
			Help: "Schema version written by the last successful reset or migration.",
		}),
	}
}

// ObserveLookup implements driver.Observer.
func (c *Collector) ObserveLookup(operation, outcome string) {
	c.lookups.WithLabelValues(operation, outcome).Inc()
}

// ObserveBatch implements driver.Observer.
func (c *Collector) ObserveBatch(operations, statements int, elapsed time.Duration, err error) {
	status := statusOf(err)
	c.batches.WithLabelValues(status).Inc()
	c.batchDuration.WithLabelValues(status).Observe(elapsed.Seconds())
	c.batchOperations.Add(float64(operations))
	c.batchStatements.Add(float64(statements))
}

// ObserveSchemaChange implements driver.Observer.
func (c *Collector) ObserveSchemaChange(change string, version int, err error) {
	c.schemaChanges.WithLabelValues(change, statusOf(err)).Inc()
	if err == nil {
		c.schemaVersion.Set(float64(version))
	}
}

func statusOf(err error) string {
	if err != nil {
		return Fail
	}
	return Ok
}
