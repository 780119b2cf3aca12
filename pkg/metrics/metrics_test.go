package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"

	"arbengine/pkg/types"
)

func newTestMetrics() *Metrics {
	return New(prometheus.NewRegistry())
}

func TestMetrics_RecordScan(t *testing.T) {
	m := newTestMetrics()
	m.RecordScan(150*time.Millisecond, 5, 3, 2)

	snap := m.Snapshot()
	assert.EqualValues(t, 1, snap.ScanCount)
	assert.EqualValues(t, 150, snap.LastScanMs)
	assert.EqualValues(t, 5, snap.OppsTotal)
	assert.EqualValues(t, 3, snap.OppsDirect)
	assert.EqualValues(t, 2, snap.OppsTri)
}

func TestMetrics_ExecutionLifecycle(t *testing.T) {
	m := newTestMetrics()

	m.RecordExecutionAttempt()
	m.RecordExecutionSkip(types.SkipGas)
	m.RecordExecutionSuccess(12.5)
	m.RecordExecutionFailure(types.ErrRevert)

	snap := m.Snapshot()
	assert.EqualValues(t, 1, snap.ExecAttempted)
	assert.EqualValues(t, 1, snap.SkippedGas)
	assert.EqualValues(t, 1, snap.ExecSucceeded)
	assert.InDelta(t, 12.5, snap.NetProfitUSD, 0.0001)
	assert.EqualValues(t, 1, snap.ExecFailed)
	assert.Equal(t, types.ErrRevert, snap.LastErrorKind)
}

func TestMetrics_NeverResetsAcrossCalls(t *testing.T) {
	m := newTestMetrics()
	m.RecordScan(time.Second, 1, 1, 0)
	m.RecordScan(time.Second, 1, 1, 0)

	snap := m.Snapshot()
	assert.EqualValues(t, 2, snap.ScanCount)
	assert.EqualValues(t, 2, snap.OppsTotal)
}

func TestMetrics_SnapshotIsACopy(t *testing.T) {
	m := newTestMetrics()
	m.RecordScan(time.Second, 1, 1, 0)
	snap := m.Snapshot()

	m.RecordScan(time.Second, 1, 1, 0)
	assert.EqualValues(t, 1, snap.ScanCount, "earlier snapshot must not observe later mutations")
}
