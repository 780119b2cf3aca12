// Package types holds the shared data model (SPEC_FULL.md §3): the plain
// structs every other package passes between each other. Grounded on the
// teacher's root-level types.go (struct-per-ABI-shape, json tags throughout)
// relocated here so both the engine and its leaf packages can import it
// without a dependency cycle.
package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Venue is one configured DEX: its name and the two contracts arbengine
// talks to. Immutable once loaded from config.
type Venue struct {
	Name           string         `json:"name"`
	RouterAddress  common.Address `json:"routerAddress"`
	FactoryAddress common.Address `json:"factoryAddress"`
}

// RawPair is a pair address enumerated from a factory, before its reserves
// have been read.
type RawPair struct {
	Venue       Venue          `json:"venue"`
	PairAddress common.Address `json:"pairAddress"`
}

// PoolLeg is one physical pool: a single venue's view of a token_a/token_b
// pair. ReserveA/ReserveB are always oriented to the pool's canonical
// (token_a, token_b) ordering, not the on-chain token0/token1 ordering.
type PoolLeg struct {
	Venue        Venue          `json:"venue"`
	PairAddress  common.Address `json:"pairAddress"`
	ReserveA     *big.Int       `json:"reserveA"`
	ReserveB     *big.Int       `json:"reserveB"`
	PriceAB      *big.Rat       `json:"-"`
	LiquidityUSD float64        `json:"liquidityUsd"`
	LastUpdateTs uint32         `json:"lastUpdateTs"`
}

// Pool groups every leg quoting the same canonical token pair across every
// venue that has liquidity for it.
type Pool struct {
	TokenA common.Address `json:"tokenA"`
	TokenB common.Address `json:"tokenB"`
	Legs   []PoolLeg      `json:"legs"`
}

// Edge is one directed hop in the token graph: token_in -> token_out
// through a specific venue's pair.
type Edge struct {
	TokenIn    common.Address `json:"tokenIn"`
	TokenOut   common.Address `json:"tokenOut"`
	Venue      Venue          `json:"venue"`
	Pair       common.Address `json:"pair"`
	ReserveIn  *big.Int       `json:"reserveIn"`
	ReserveOut *big.Int       `json:"reserveOut"`
}

// Path is a walk through the token graph. A cycle is a Path whose first
// and last token coincide.
type Path struct {
	Tokens []common.Address `json:"tokens"`
	Edges  []Edge            `json:"edges"`
}

// OpportunityKind distinguishes the two shapes an Opportunity can take.
type OpportunityKind string

const (
	KindDirect      OpportunityKind = "direct"
	KindTriangular  OpportunityKind = "triangular"
)

// Opportunity is the tagged union spec.md §3 describes: a Direct
// opportunity is populated via the Direct* fields, a Triangular one via
// the Tri* fields. Kind says which half is valid.
type Opportunity struct {
	Kind OpportunityKind `json:"kind"`

	// Direct fields.
	DirectTokenA common.Address `json:"directTokenA,omitempty"`
	DirectTokenB common.Address `json:"directTokenB,omitempty"`
	BuyLeg       *PoolLeg       `json:"buyLeg,omitempty"`
	SellLeg      *PoolLeg       `json:"sellLeg,omitempty"`

	// Triangular fields.
	TriTokens  []common.Address `json:"triTokens,omitempty"`
	TriVenues  []Venue          `json:"triVenues,omitempty"`
	TriRouters []common.Address `json:"triRouters,omitempty"`

	AmountIn  *big.Int `json:"amountIn"`
	AmountOut *big.Int `json:"amountOut"`
	Profit    *big.Int `json:"profit"`
	ProfitPct *big.Rat `json:"-"`
}

// SwapAction is one hop of an ArbPlan. AmountIn of zero on any step but
// the first instructs the executor contract to spend its full
// intermediate balance.
type SwapAction struct {
	Router   common.Address   `json:"router"`
	Path     []common.Address `json:"path"`
	AmountIn *big.Int         `json:"amountIn"`
	MinOut   *big.Int         `json:"minOut"`
}

// ArbPlan is the payload submitted to the executor contract's
// executeArb method.
type ArbPlan struct {
	LoanToken   common.Address `json:"loanToken"`
	LoanAmount  *big.Int       `json:"loanAmount"`
	MinProfit   *big.Int       `json:"minProfit"`
	Beneficiary common.Address `json:"beneficiary"`
	Steps       []SwapAction   `json:"steps"`
}

// GuardRecord is the Execution Guard's per-router failure state, keyed by
// lowercased router address.
type GuardRecord struct {
	Failures      uint32 `json:"failures"`
	LastFailureMs uint64 `json:"lastFailureMs"`
}

// SkipReason names which execution gate dropped an opportunity.
type SkipReason string

const (
	SkipValidation SkipReason = "VALIDATION"
	SkipGas        SkipReason = "GAS"
	SkipFinalCheck SkipReason = "FINAL_CHECK"
)

// ErrorKind classifies a failed on-chain interaction for the Execution
// Guard and Metrics.
type ErrorKind string

const (
	ErrNoLiquidity            ErrorKind = "NO_LIQUIDITY"
	ErrRevert                 ErrorKind = "REVERT"
	ErrNonce                  ErrorKind = "NONCE_ERROR"
	ErrReplacementUnderpriced ErrorKind = "REPLACEMENT_UNDERPRICED"
	ErrRateLimit              ErrorKind = "RATE_LIMIT"
	ErrOutOfGas               ErrorKind = "OUT_OF_GAS"
	ErrUnknown                ErrorKind = "UNKNOWN"
)

// ExecutionStatus is the terminal disposition of one submitted ArbPlan.
type ExecutionStatus string

const (
	StatusSubmitted ExecutionStatus = "submitted"
	StatusConfirmed ExecutionStatus = "confirmed"
	StatusFailed    ExecutionStatus = "failed"
)

// ExecutionRecord is the persisted row for one pipeline attempt (C11
// expansion), grounded on the teacher's AssetSnapshotRecord table shape.
type ExecutionRecord struct {
	ID           uint64          `json:"id"`
	Timestamp    int64           `json:"timestamp"`
	Kind         OpportunityKind `json:"kind"`
	Tokens       []string        `json:"tokens"`
	Venues       []string        `json:"venues"`
	LoanAmount   string          `json:"loanAmount"`
	NetProfitUSD float64         `json:"netProfitUsd"`
	Status       ExecutionStatus `json:"status"`
	TxHash       string          `json:"txHash,omitempty"`
	SkipReason   SkipReason      `json:"skipReason,omitempty"`
	GasCostUSD   float64         `json:"gasCostUsd"`
}
