// Package executor implements the Execution Pipeline (SPEC_FULL.md C8):
// select -> build plan -> validate -> gas-model -> re-validate -> submit
// -> settle, exactly stages A-H of spec.md §4.8. Transaction building and
// confirmation reuse the Contract Client / TxListener pair (C12), the way
// the teacher's Blackhole.Swap/Mint/Stake methods build, send, and
// confirm transactions.
package executor

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"log"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"

	"arbengine/internal/util"
	"arbengine/pkg/guard"
	"arbengine/pkg/metrics"
	"arbengine/pkg/nonce"
	"arbengine/pkg/quote"
	"arbengine/pkg/txlistener"
	arbtypes "arbengine/pkg/types"
)

// Config bundles the pipeline's tunables, sourced from config.
type Config struct {
	LoanAmount        *big.Int
	MinProfit         *big.Int
	Beneficiary       common.Address
	MinExecSpreadPct  *big.Rat // 0.2% default
	MaxSlippageBps    int64
	DefaultGasLimit   uint64
	GasRiskMultiplier *big.Rat // 1.20 default
	MaxGasPriceGwei   int64
	GasTokenSymbol    string
	GasTokenAddress   common.Address
	MinProfitUSD      float64
	TokenSymbols      map[common.Address]string
}

// RouterCaller performs read-only getAmountsOut calls. Narrowed from
// contractclient.ContractClient so the pipeline can be tested without a
// live node.
type RouterCaller interface {
	GetAmountsOut(ctx context.Context, router common.Address, amountIn *big.Int, path []common.Address) ([]*big.Int, error)
}

// ExecutorSender estimates the executeArb transaction's gas, and signs and
// submits it.
type ExecutorSender interface {
	EstimateExecuteArb(ctx context.Context, plan arbtypes.ArbPlan) (uint64, error)
	SendExecuteArb(ctx context.Context, plan arbtypes.ArbPlan, key *ecdsa.PrivateKey, nonce uint64, gasLimit uint64, gasPrice *big.Int) (common.Hash, error)
}

// GasPriceSource supplies the network's current suggested gas price, the
// "feeData" read of spec.md §4.8 stage D. Narrowed from ethclient.Client
// so the pipeline can be tested without a live node.
type GasPriceSource interface {
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
}

// Pipeline runs one opportunity through the full validate/gas/submit
// state machine.
type Pipeline struct {
	cfg       Config
	router    RouterCaller
	executor  ExecutorSender
	gasPrices GasPriceSource
	listener  txlistener.TxListener
	guard     *guard.Guard
	nonces    *nonce.Manager
	metrics   *metrics.Metrics
	quotes    *quote.Table
	key       *ecdsa.PrivateKey
	logger    *log.Logger
}

// New constructs a Pipeline.
func New(cfg Config, router RouterCaller, exec ExecutorSender, gasPrices GasPriceSource, listener txlistener.TxListener, g *guard.Guard, nonces *nonce.Manager, m *metrics.Metrics, quotes *quote.Table, key *ecdsa.PrivateKey, logger *log.Logger) *Pipeline {
	if logger == nil {
		logger = log.Default()
	}
	return &Pipeline{cfg: cfg, router: router, executor: exec, gasPrices: gasPrices, listener: listener, guard: g, nonces: nonces, metrics: m, quotes: quotes, key: key, logger: logger}
}

// Outcome describes what happened to the selected opportunity, for the
// caller to broadcast and persist.
type Outcome struct {
	Attempted  bool
	TxHash     common.Hash
	Status     arbtypes.ExecutionStatus
	SkipReason arbtypes.SkipReason
	ErrorKind  arbtypes.ErrorKind
	NetProfitUSD float64
	GasCostUSD   float64
	Plan         arbtypes.ArbPlan
}

// Run executes stages A-H against the best (first) opportunity in opps.
func (p *Pipeline) Run(ctx context.Context, opps []arbtypes.Opportunity) (*Outcome, error) {
	// A. Select.
	if len(opps) == 0 {
		return nil, nil
	}
	best := opps[0]
	if best.ProfitPct == nil || best.ProfitPct.Cmp(p.cfg.MinExecSpreadPct) < 0 {
		return nil, nil
	}

	// B. Build plan.
	plan := BuildPlan(best, p.cfg.LoanAmount, p.cfg.MinProfit, p.cfg.Beneficiary)

	// C. Validate (pre-trade).
	validationProfitUSD, err := p.validate(ctx, &plan)
	if err != nil {
		p.metrics.RecordExecutionSkip(arbtypes.SkipValidation)
		return &Outcome{SkipReason: arbtypes.SkipValidation, Plan: plan}, nil
	}

	// D. Gas model.
	gasLimit, gasPrice, gasCostUSD, err := p.gasModel(ctx, plan)
	if err != nil || !meetsGasGate(validationProfitUSD, gasCostUSD, p.cfg.GasRiskMultiplier) {
		p.metrics.RecordExecutionSkip(arbtypes.SkipGas)
		return &Outcome{SkipReason: arbtypes.SkipGas, Plan: plan}, nil
	}

	// E. Re-validate (final).
	finalProfitUSD, err := p.validate(ctx, &arbtypes.ArbPlan{
		LoanToken: plan.LoanToken, LoanAmount: plan.LoanAmount,
		MinProfit: plan.MinProfit, Beneficiary: plan.Beneficiary,
		Steps: cloneSteps(plan.Steps),
	})
	if err != nil ||
		!meetsGasGate(finalProfitUSD, gasCostUSD, p.cfg.GasRiskMultiplier) ||
		finalProfitUSD < 0.5*validationProfitUSD {
		p.metrics.RecordExecutionSkip(arbtypes.SkipFinalCheck)
		return &Outcome{SkipReason: arbtypes.SkipFinalCheck, Plan: plan}, nil
	}

	// F. Submit.
	n, err := p.nonces.Next(ctx)
	if err != nil {
		return p.onException(plan, err), nil
	}
	p.metrics.RecordExecutionAttempt()
	txHash, err := p.executor.SendExecuteArb(ctx, plan, p.key, n, gasLimit, gasPrice)
	if err != nil {
		return p.onException(plan, err), nil
	}

	// G. Settle.
	receipt, err := p.listener.WaitForTransaction(ctx, txHash)
	if err != nil {
		return p.onException(plan, err), nil
	}
	if receipt.Status == gethtypes.ReceiptStatusSuccessful {
		gasCost, err := util.ExtractGasCost(receipt)
		actualGasCostUSD := gasCostUSD
		if err == nil {
			actualGasCostUSD = p.quotes.USDValue(gasCost, p.cfg.GasTokenSymbol, p.cfg.GasTokenAddress)
		}
		netProfitUSD := finalProfitUSD - actualGasCostUSD
		p.metrics.RecordExecutionSuccess(netProfitUSD)
		return &Outcome{
			Attempted: true, TxHash: txHash, Status: arbtypes.StatusConfirmed,
			NetProfitUSD: netProfitUSD, GasCostUSD: actualGasCostUSD, Plan: plan,
		}, nil
	}

	kind := arbtypes.ErrUnknown
	p.metrics.RecordExecutionFailure(kind)
	for _, step := range plan.Steps {
		p.guard.RecordFailure(step.Router.Hex())
	}
	return &Outcome{Attempted: true, TxHash: txHash, Status: arbtypes.StatusFailed, ErrorKind: kind, Plan: plan}, nil
}

func (p *Pipeline) onException(plan arbtypes.ArbPlan, err error) *Outcome {
	kind := guard.ClassifyCoded(err)
	p.metrics.RecordExecutionFailure(kind)
	for _, step := range plan.Steps {
		p.guard.RecordFailure(step.Router.Hex())
	}
	p.logger.Printf("executor: attempt failed (%s): %v", kind, err)
	return &Outcome{Attempted: true, Status: arbtypes.StatusFailed, ErrorKind: kind, Plan: plan}
}

// validate walks plan.steps, filling amount_in/min_out via live router
// quotes (stage C) and returns the USD profit of the resulting plan. It
// mutates plan in place, matching spec.md §4.8 stage C.
func (p *Pipeline) validate(ctx context.Context, plan *arbtypes.ArbPlan) (float64, error) {
	amount := plan.LoanAmount
	for i := range plan.Steps {
		step := &plan.Steps[i]
		if p.guard.ShouldBlockRouter(step.Router.Hex()) {
			return 0, fmt.Errorf("router %s is blacklisted", step.Router.Hex())
		}

		amounts, err := p.router.GetAmountsOut(ctx, step.Router, amount, step.Path)
		if err != nil {
			p.guard.RecordFailure(step.Router.Hex())
			return 0, fmt.Errorf("getAmountsOut on %s: %w", step.Router.Hex(), err)
		}
		expectedOut := amounts[len(amounts)-1]

		slippage := new(big.Int).Mul(expectedOut, big.NewInt(p.cfg.MaxSlippageBps))
		slippage.Div(slippage, big.NewInt(10_000))
		minOut := new(big.Int).Sub(expectedOut, slippage)

		step.AmountIn = amount
		step.MinOut = minOut
		amount = expectedOut
	}

	if amount.Cmp(plan.LoanAmount) <= 0 {
		return 0, fmt.Errorf("plan is not profitable: final %s <= loan %s", amount, plan.LoanAmount)
	}

	profit := new(big.Int).Sub(amount, plan.LoanAmount)
	loanSymbol := p.cfg.TokenSymbols[plan.LoanToken]
	profitUSD := p.quotes.USDValue(profit, loanSymbol, plan.LoanToken)
	if profitUSD < p.cfg.MinProfitUSD {
		return 0, fmt.Errorf("profit $%.4f below MIN_PROFIT_USD $%.4f", profitUSD, p.cfg.MinProfitUSD)
	}
	return profitUSD, nil
}

// gasModel implements stage D: estimate gas, derive a gas price capped
// at MaxGasPriceGwei, and compute the USD cost of the attempt.
func (p *Pipeline) gasModel(ctx context.Context, plan arbtypes.ArbPlan) (gasLimit uint64, gasPrice *big.Int, gasCostUSD float64, err error) {
	estimate, estErr := p.executor.EstimateExecuteArb(ctx, plan)
	if estErr != nil || estimate == 0 {
		gasLimit = p.cfg.DefaultGasLimit
	} else {
		gasLimit = uint64(float64(estimate) * 1.25)
	}

	suggested, feeErr := p.gasPrices.SuggestGasPrice(ctx)
	if feeErr != nil || suggested == nil {
		suggested = big.NewInt(3_000_000_000) // 3 gwei fallback
	}
	capWei := new(big.Int).Mul(big.NewInt(p.cfg.MaxGasPriceGwei), big.NewInt(1_000_000_000))
	gasPrice = suggested
	if gasPrice.Cmp(capWei) > 0 {
		gasPrice = capWei
	}

	gasCostWei := new(big.Int).Mul(big.NewInt(int64(gasLimit)), gasPrice)
	gasCostUSD = p.quotes.USDValue(gasCostWei, p.cfg.GasTokenSymbol, p.cfg.GasTokenAddress)
	return gasLimit, gasPrice, gasCostUSD, nil
}

func meetsGasGate(profitUSD, gasCostUSD float64, multiplier *big.Rat) bool {
	m, _ := multiplier.Float64()
	return profitUSD >= gasCostUSD*m
}

func cloneSteps(steps []arbtypes.SwapAction) []arbtypes.SwapAction {
	out := make([]arbtypes.SwapAction, len(steps))
	for i, s := range steps {
		out[i] = arbtypes.SwapAction{
			Router:   s.Router,
			Path:     append([]common.Address(nil), s.Path...),
			AmountIn: new(big.Int).Set(s.AmountIn),
			MinOut:   new(big.Int).Set(s.MinOut),
		}
	}
	return out
}
