package executor

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"arbengine/pkg/contractclient"
	arbtypes "arbengine/pkg/types"
)

// RouterClient adapts a ContractClient, bound to one router contract at
// call time, to the RouterCaller interface. Every router in the
// configured venue set shares the router ABI, so a single instance can
// be pointed at any router address per call.
type RouterClient struct {
	newClient func(address common.Address) contractclient.ContractClient
}

// NewRouterClient builds a RouterCaller from a constructor that binds a
// fresh ContractClient to an arbitrary router address.
func NewRouterClient(newClient func(address common.Address) contractclient.ContractClient) *RouterClient {
	return &RouterClient{newClient: newClient}
}

func (r *RouterClient) GetAmountsOut(ctx context.Context, router common.Address, amountIn *big.Int, path []common.Address) ([]*big.Int, error) {
	cc := r.newClient(router)
	values, err := cc.Call(ctx, nil, "getAmountsOut", amountIn, path)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("getAmountsOut: empty result")
	}
	amounts, ok := values[0].([]*big.Int)
	if !ok {
		return nil, fmt.Errorf("getAmountsOut: unexpected output type")
	}
	return amounts, nil
}

// ExecutorClient adapts a ContractClient bound to the deployed executor
// contract to the ExecutorSender interface. eth is used only for
// eth_estimateGas, since the narrow ContractClient interface doesn't
// expose it.
type ExecutorClient struct {
	cc   contractclient.ContractClient
	eth  *ethclient.Client
	from common.Address
}

// NewExecutorClient builds an ExecutorSender bound to one executor
// contract, sending from signer.
func NewExecutorClient(cc contractclient.ContractClient, eth *ethclient.Client, signer common.Address) *ExecutorClient {
	return &ExecutorClient{cc: cc, eth: eth, from: signer}
}

func (e *ExecutorClient) EstimateExecuteArb(ctx context.Context, plan arbtypes.ArbPlan) (uint64, error) {
	input, err := e.cc.Abi().Pack("executeArb", toPlanTuple(plan))
	if err != nil {
		return 0, err
	}
	to := e.cc.ContractAddress()
	return e.eth.EstimateGas(ctx, ethereum.CallMsg{From: e.from, To: &to, Data: input})
}

func (e *ExecutorClient) SendExecuteArb(ctx context.Context, plan arbtypes.ArbPlan, key *ecdsa.PrivateKey, nonce uint64, gasLimit uint64, gasPrice *big.Int) (common.Hash, error) {
	return e.cc.Send(ctx, &e.from, key, nonce, gasLimit, gasPrice, "executeArb", toPlanTuple(plan))
}

func toPlanTuple(plan arbtypes.ArbPlan) planTuple {
	steps := make([]stepTuple, len(plan.Steps))
	for i, s := range plan.Steps {
		steps[i] = stepTuple{Router: s.Router, Path: s.Path, AmountIn: s.AmountIn, MinOut: s.MinOut}
	}
	return planTuple{
		LoanToken:   plan.LoanToken,
		LoanAmount:  plan.LoanAmount,
		Steps:       steps,
		MinProfit:   plan.MinProfit,
		Beneficiary: plan.Beneficiary,
	}
}
