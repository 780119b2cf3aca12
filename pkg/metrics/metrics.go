// Package metrics implements process-wide Metrics (SPEC_FULL.md C9): the
// spec's exact in-memory counters, plus a Prometheus mirror so the same
// numbers are visible over /metrics. The in-memory struct, not Prometheus,
// is the source of truth the scan loop snapshots and broadcasts — the
// Prometheus view is observability-only and is never read back by the
// core, per SPEC_FULL.md §4.9.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"arbengine/pkg/types"
)

// Snapshot is a value-copy of Metrics safe to hand to a broadcaster.
type Snapshot struct {
	ScanCount          uint64
	LastScanMs         uint64
	OppsTotal          uint64
	OppsDirect         uint64
	OppsTri            uint64
	ExecAttempted      uint64
	ExecSucceeded      uint64
	ExecFailed         uint64
	SkippedValidation  uint64
	SkippedGas         uint64
	SkippedFinalCheck  uint64
	LastErrorKind      types.ErrorKind
	NetProfitUSD       float64
}

// Metrics accumulates counters over the process lifetime. Never reset
// during a run; guarded by a single mutex, the same single-writer
// discipline as the Execution Guard.
type Metrics struct {
	mu   sync.Mutex
	data Snapshot

	promScans      prometheus.Counter
	promOpps       *prometheus.CounterVec
	promExec       *prometheus.CounterVec
	promSkips      *prometheus.CounterVec
	promNetProfit  prometheus.Gauge
	promScanMs     prometheus.Gauge
}

// New constructs an empty Metrics and registers its Prometheus series
// against reg. Pass prometheus.NewRegistry() in tests to avoid polluting
// the default global registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		promScans: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arbengine_scans_total",
			Help: "Total number of completed pool scans.",
		}),
		promOpps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arbengine_opportunities_total",
			Help: "Opportunities found, by kind.",
		}, []string{"kind"}),
		promExec: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arbengine_executions_total",
			Help: "Execution pipeline outcomes.",
		}, []string{"outcome"}),
		promSkips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arbengine_execution_skips_total",
			Help: "Execution pipeline skips, by gate.",
		}, []string{"reason"}),
		promNetProfit: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "arbengine_net_profit_usd",
			Help: "Running net profit in USD across confirmed executions.",
		}),
		promScanMs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "arbengine_last_scan_duration_ms",
			Help: "Duration of the most recently completed scan, in milliseconds.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.promScans, m.promOpps, m.promExec, m.promSkips, m.promNetProfit, m.promScanMs)
	}
	return m
}

// RecordScan updates scan stats: duration, and the opportunity counts
// found during that scan.
func (m *Metrics) RecordScan(duration time.Duration, oppsTotal, oppsDirect, oppsTri int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data.ScanCount++
	m.data.LastScanMs = uint64(duration.Milliseconds())
	m.data.OppsTotal += uint64(oppsTotal)
	m.data.OppsDirect += uint64(oppsDirect)
	m.data.OppsTri += uint64(oppsTri)

	m.promScans.Inc()
	m.promScanMs.Set(float64(duration.Milliseconds()))
	m.promOpps.WithLabelValues("direct").Add(float64(oppsDirect))
	m.promOpps.WithLabelValues("triangular").Add(float64(oppsTri))
}

// RecordExecutionAttempt marks that the pipeline submitted a transaction.
func (m *Metrics) RecordExecutionAttempt() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data.ExecAttempted++
	m.promExec.WithLabelValues("attempted").Inc()
}

// RecordExecutionSkip bumps the counter for reason.
func (m *Metrics) RecordExecutionSkip(reason types.SkipReason) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch reason {
	case types.SkipValidation:
		m.data.SkippedValidation++
	case types.SkipGas:
		m.data.SkippedGas++
	case types.SkipFinalCheck:
		m.data.SkippedFinalCheck++
	}
	m.promSkips.WithLabelValues(string(reason)).Inc()
}

// RecordExecutionSuccess adds netProfitUSD to the running total.
func (m *Metrics) RecordExecutionSuccess(netProfitUSD float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data.ExecSucceeded++
	m.data.NetProfitUSD += netProfitUSD
	m.promExec.WithLabelValues("succeeded").Inc()
	m.promNetProfit.Set(m.data.NetProfitUSD)
}

// RecordExecutionFailure records kind as the last error seen.
func (m *Metrics) RecordExecutionFailure(kind types.ErrorKind) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data.ExecFailed++
	m.data.LastErrorKind = kind
	m.promExec.WithLabelValues("failed").Inc()
}

// Snapshot returns a value copy of the current counters, safe to hand off
// to a broadcaster without risk of a data race on later mutation.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data
}
