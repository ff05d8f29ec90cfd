// Package metrics exposes Prometheus collectors for allocation and billing runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "billing"

// Metrics holds the engine's collectors. A nil *Metrics is valid and records
// nothing, so components can be used without instrumentation.
type Metrics struct {
	allocationRuns     *prometheus.CounterVec
	allocationLines    prometheus.Counter
	allocationDuration prometheus.Histogram
	rebillRuns         *prometheus.CounterVec
	billsWritten       prometheus.Counter
	droppedLines       prometheus.Counter
	rebillDuration     prometheus.Histogram
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		allocationRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "allocation_runs_total",
			Help:      "Allocation runs by result.",
		}, []string{"result"}),
		allocationLines: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "allocation_lines_written_total",
			Help:      "Allocation lines written by successful runs.",
		}),
		allocationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "allocation_duration_seconds",
			Help:      "Duration of allocation runs.",
			Buckets:   prometheus.DefBuckets,
		}),
		rebillRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rebill_runs_total",
			Help:      "Rebill runs by result.",
		}, []string{"result"}),
		billsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bills_written_total",
			Help:      "Bills upserted by rebill runs.",
		}),
		droppedLines: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rebill_dropped_lines_total",
			Help:      "Allocation lines skipped because their unit had no active billing entity.",
		}),
		rebillDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rebill_duration_seconds",
			Help:      "Duration of rebill runs.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(
		m.allocationRuns, m.allocationLines, m.allocationDuration,
		m.rebillRuns, m.billsWritten, m.droppedLines, m.rebillDuration,
	)
	return m
}

// ObserveAllocation records one allocation run.
func (m *Metrics) ObserveAllocation(start time.Time, lines int, err error) {
	if m == nil {
		return
	}
	m.allocationDuration.Observe(time.Since(start).Seconds())
	m.allocationRuns.WithLabelValues(result(err)).Inc()
	if err == nil {
		m.allocationLines.Add(float64(lines))
	}
}

// ObserveRebill records one rebill run.
func (m *Metrics) ObserveRebill(start time.Time, bills, dropped int, err error) {
	if m == nil {
		return
	}
	m.rebillDuration.Observe(time.Since(start).Seconds())
	m.rebillRuns.WithLabelValues(result(err)).Inc()
	if err == nil {
		m.billsWritten.Add(float64(bills))
		m.droppedLines.Add(float64(dropped))
	}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
