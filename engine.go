// Package arbengine wires the Pool Scanner (C3), Opportunity Finder (C5),
// Execution Pipeline (C8), Metrics (C9), and Persistence (C11) into the
// Scan Loop (C10), the way the teacher's cmd/main.go wires Blackhole and
// drives RunStrategy1 over a reportChan.
package arbengine

import (
	"context"
	"fmt"
	"log"
	"math/big"
	"time"

	"arbengine/internal/db"
	"arbengine/pkg/executor"
	"arbengine/pkg/metrics"
	"arbengine/pkg/opportunity"
	"arbengine/pkg/scanner"
	"arbengine/pkg/types"
)

// Frame is one JSON-serializable broadcast event (spec.md §6): a type tag
// plus its payload.
type Frame struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// ExecutionFrame is the payload of a "execution" Frame.
type ExecutionFrame struct {
	Status string `json:"status"`
	TxHash string `json:"tx,omitempty"`
	Ts     int64  `json:"ts"`
}

// Config bundles the Scan Loop's own tunables, distinct from the
// per-component Config types each collaborator owns.
type Config struct {
	LoanAmount *big.Int
	// MinProfitUSD is the triangular-profit floor handed to the
	// Opportunity Finder, in the loan token's base units (MIN_PROFIT_USD
	// already converted through the quote table), not a dollar figure.
	MinProfitUSD    *big.Int
	FeeNum          uint64
	FeeDenom        uint64
	ScanInterval    time.Duration
	EnableExecution bool
	PersistEveryNth int
}

// PoolScanner is the narrow Scan surface the Engine depends on. Satisfied
// by *scanner.Scanner; narrowed so the loop can be tested without a live
// node.
type PoolScanner interface {
	Scan(ctx context.Context) ([]types.Pool, error)
}

// ExecutionRunner is the narrow Run surface the Engine depends on.
// Satisfied by *executor.Pipeline.
type ExecutionRunner interface {
	Run(ctx context.Context, opps []types.Opportunity) (*executor.Outcome, error)
}

// Engine composes one cycle of the scan loop: scan -> find -> record ->
// broadcast -> (optionally) execute -> persist -> sleep.
type Engine struct {
	scanner  PoolScanner
	pipeline ExecutionRunner
	metrics  *metrics.Metrics
	recorder db.Recorder
	cfg      Config
	logger   *log.Logger

	cycle uint64
}

// New constructs an Engine. recorder may be db.NoopRecorder{} when
// persistence is disabled.
func New(s PoolScanner, pipeline ExecutionRunner, m *metrics.Metrics, recorder db.Recorder, cfg Config, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	if recorder == nil {
		recorder = db.NoopRecorder{}
	}
	return &Engine{scanner: s, pipeline: pipeline, metrics: m, recorder: recorder, cfg: cfg, logger: logger}
}

// RunScanLoop runs spec.md §4.10's loop body until ctx is cancelled. A
// scan's runtime never delays the next tick past zero: if a cycle takes
// longer than ScanInterval, the next one starts immediately. Only one
// scan runs at a time, and the execution pipeline (when entered) runs to
// completion before the loop sleeps.
func (e *Engine) RunScanLoop(ctx context.Context, reportChan chan<- Frame) error {
	e.broadcast(reportChan, "welcome", map[string]string{"engine": "arbengine"})

	for {
		if ctx.Err() != nil {
			return nil
		}

		t0 := time.Now()
		pools, err := e.scanner.Scan(ctx)
		if err != nil {
			e.broadcast(reportChan, "log", fmt.Sprintf("scan failed: %v", err))
			e.logger.Printf("engine: scan failed: %v", err)
		}

		opps := opportunity.Find(pools, e.cfg.LoanAmount, e.cfg.MinProfitUSD, e.cfg.FeeNum, e.cfg.FeeDenom)
		direct, tri := countKinds(opps)
		e.metrics.RecordScan(time.Since(t0), len(opps), direct, tri)

		e.broadcast(reportChan, "opportunities", opps)
		snap := e.metrics.Snapshot()
		e.broadcast(reportChan, "metrics", snap)

		if e.cfg.EnableExecution && len(opps) > 0 {
			outcome, err := e.pipeline.Run(ctx, opps)
			if err != nil {
				e.broadcast(reportChan, "log", fmt.Sprintf("execution pipeline error: %v", err))
			} else if outcome != nil && outcome.Attempted {
				e.broadcast(reportChan, "execution", ExecutionFrame{
					Status: string(outcome.Status),
					TxHash: outcome.TxHash.Hex(),
					Ts:     time.Now().UnixMilli(),
				})
				if err := e.recorder.RecordExecution(toExecutionRecord(outcome)); err != nil {
					e.logger.Printf("engine: record execution failed: %v", err)
				}
			}
		}

		e.cycle++
		if e.cfg.PersistEveryNth > 0 && e.cycle%uint64(e.cfg.PersistEveryNth) == 0 {
			if err := e.recorder.RecordMetricsSnapshot(snap.ScanCount, snap.NetProfitUSD); err != nil {
				e.logger.Printf("engine: persist metrics snapshot failed: %v", err)
			}
		}

		sleepFor := e.cfg.ScanInterval - time.Since(t0)
		if sleepFor < 0 {
			sleepFor = 0
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(sleepFor):
		}
	}
}

// broadcast sends a Frame without blocking; a full or absent reportChan
// never slows the scan loop down, matching spec.md §6's "no backpressure
// or durability guaranteed" clause for dashboard consumers.
func (e *Engine) broadcast(reportChan chan<- Frame, typ string, data interface{}) {
	if reportChan == nil {
		return
	}
	select {
	case reportChan <- Frame{Type: typ, Data: data}:
	default:
	}
}

func countKinds(opps []types.Opportunity) (direct, tri int) {
	for _, o := range opps {
		if o.Kind == types.KindTriangular {
			tri++
		} else {
			direct++
		}
	}
	return direct, tri
}

// toExecutionRecord converts a settled Outcome into the persisted shape.
// Kind is inferred from step count since a direct plan always has exactly
// two steps (buy leg, sell leg) and a triangular plan has three or more.
func toExecutionRecord(outcome *executor.Outcome) types.ExecutionRecord {
	kind := types.KindDirect
	if len(outcome.Plan.Steps) > 2 {
		kind = types.KindTriangular
	}

	seen := make(map[string]bool)
	var tokens, venues []string
	for _, step := range outcome.Plan.Steps {
		venues = append(venues, step.Router.Hex())
		for _, tok := range step.Path {
			hex := tok.Hex()
			if !seen[hex] {
				seen[hex] = true
				tokens = append(tokens, hex)
			}
		}
	}

	return types.ExecutionRecord{
		Timestamp:    time.Now().UnixMilli(),
		Kind:         kind,
		Tokens:       tokens,
		Venues:       venues,
		LoanAmount:   outcome.Plan.LoanAmount.String(),
		NetProfitUSD: outcome.NetProfitUSD,
		GasCostUSD:   outcome.GasCostUSD,
		Status:       outcome.Status,
		TxHash:       outcome.TxHash.Hex(),
		SkipReason:   outcome.SkipReason,
	}
}
