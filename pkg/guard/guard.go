// Package guard implements the Execution Guard (SPEC_FULL.md C6): error
// classification plus a per-router failure counter with a blacklist
// window. Grounded on the teacher's StrategyConfig.CircuitBreakerWindow /
// CircuitBreakerThreshold fields (specs/001-liquidity-repositioning),
// generalized from "halt the whole strategy" to "blacklist one router".
package guard

import (
	"strings"
	"sync"
	"time"

	"arbengine/pkg/types"
)

// FailureLimit and BlacklistWindow are spec.md §3's GuardRecord
// constants: three strikes within five minutes blacklists a router.
const (
	FailureLimit    = 3
	BlacklistWindow = 300_000 * time.Millisecond
)

// Guard tracks per-router failures behind a single mutex, matching the
// spec's "single mutex" option for state the scan loop and the
// execution pipeline both touch.
type Guard struct {
	mu      sync.Mutex
	records map[string]*types.GuardRecord
	now     func() time.Time
}

// New constructs an empty Guard.
func New() *Guard {
	return &Guard{records: make(map[string]*types.GuardRecord), now: time.Now}
}

// RecordFailure increments router's failure counter and stamps the
// current time as its last failure. Keys are lowercased.
func (g *Guard) RecordFailure(router string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := strings.ToLower(router)
	rec, ok := g.records[key]
	if !ok {
		rec = &types.GuardRecord{}
		g.records[key] = rec
	}
	rec.Failures++
	rec.LastFailureMs = uint64(g.now().UnixMilli())
}

// ShouldBlockRouter returns true iff router has at least FailureLimit
// recorded failures within the last BlacklistWindow. Any other record
// (fewer than FailureLimit failures, or a last failure outside the
// window) is cleared as a side effect, so the count starts over.
func (g *Guard) ShouldBlockRouter(router string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := strings.ToLower(router)
	rec, ok := g.records[key]
	if !ok {
		return false
	}

	elapsed := time.Duration(uint64(g.now().UnixMilli())-rec.LastFailureMs) * time.Millisecond
	if rec.Failures >= FailureLimit && elapsed <= BlacklistWindow {
		return true
	}
	delete(g.records, key)
	return false
}
