package executor

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const routerABIJSON = `[
	{"constant":true,"inputs":[{"name":"amountIn","type":"uint256"},{"name":"path","type":"address[]"}],"name":"getAmountsOut","outputs":[{"name":"amounts","type":"uint256[]"}],"type":"function"}
]`

// executorABIJSON mirrors spec.md §6's executeArb tuple ABI.
const executorABIJSON = `[
	{
		"constant": false,
		"inputs": [{
			"name": "plan",
			"type": "tuple",
			"components": [
				{"name":"loanToken","type":"address"},
				{"name":"loanAmount","type":"uint256"},
				{"name":"steps","type":"tuple[]","components":[
					{"name":"router","type":"address"},
					{"name":"path","type":"address[]"},
					{"name":"amountIn","type":"uint256"},
					{"name":"minOut","type":"uint256"}
				]},
				{"name":"minProfit","type":"uint256"},
				{"name":"beneficiary","type":"address"}
			]
		}],
		"name": "executeArb",
		"outputs": [],
		"type": "function"
	}
]`

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic("executor: invalid embedded ABI: " + err.Error())
	}
	return parsed
}

var (
	routerABI   = mustParseABI(routerABIJSON)
	executorABI = mustParseABI(executorABIJSON)
)

// planTuple mirrors the executor contract's ArbPlan tuple layout
// field-for-field, since go-ethereum's ABI packer matches a Go struct's
// exported field names (case-insensitively) against the tuple's
// components when packing a tuple argument.
type planTuple struct {
	LoanToken   common.Address
	LoanAmount  *big.Int
	Steps       []stepTuple
	MinProfit   *big.Int
	Beneficiary common.Address
}

type stepTuple struct {
	Router   common.Address
	Path     []common.Address
	AmountIn *big.Int
	MinOut   *big.Int
}
