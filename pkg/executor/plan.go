package executor

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"arbengine/pkg/types"
)

// placeholderMinOut is the stand-in min_out value stage B fills steps
// with; stage C (validate) overwrites every step's min_out with a
// slippage-adjusted figure from a live quote before the plan is ever
// submitted.
var placeholderMinOut = big.NewInt(1)

// BuildPlan dispatches on opp's kind to produce an ArbPlan (spec.md §4.8
// stage B). The first step carries loanAmount; every subsequent step
// carries amount_in = 0, instructing the executor contract to forward
// its full intermediate balance.
func BuildPlan(opp types.Opportunity, loanAmount, minProfit *big.Int, beneficiary common.Address) types.ArbPlan {
	if opp.Kind == types.KindTriangular {
		return buildTriangularPlan(opp, loanAmount, minProfit, beneficiary)
	}
	return buildDirectPlan(opp, loanAmount, minProfit, beneficiary)
}

func buildDirectPlan(opp types.Opportunity, loanAmount, minProfit *big.Int, beneficiary common.Address) types.ArbPlan {
	return types.ArbPlan{
		LoanToken:   opp.DirectTokenA,
		LoanAmount:  new(big.Int).Set(loanAmount),
		MinProfit:   new(big.Int).Set(minProfit),
		Beneficiary: beneficiary,
		Steps: []types.SwapAction{
			{
				Router:   opp.BuyLeg.Venue.RouterAddress,
				Path:     []common.Address{opp.DirectTokenA, opp.DirectTokenB},
				AmountIn: new(big.Int).Set(loanAmount),
				MinOut:   new(big.Int).Set(placeholderMinOut),
			},
			{
				Router:   opp.SellLeg.Venue.RouterAddress,
				Path:     []common.Address{opp.DirectTokenB, opp.DirectTokenA},
				AmountIn: big.NewInt(0),
				MinOut:   new(big.Int).Set(placeholderMinOut),
			},
		},
	}
}

func buildTriangularPlan(opp types.Opportunity, loanAmount, minProfit *big.Int, beneficiary common.Address) types.ArbPlan {
	steps := make([]types.SwapAction, len(opp.TriRouters))
	for i, router := range opp.TriRouters {
		amountIn := big.NewInt(0)
		if i == 0 {
			amountIn = new(big.Int).Set(loanAmount)
		}
		steps[i] = types.SwapAction{
			Router:   router,
			Path:     []common.Address{opp.TriTokens[i], opp.TriTokens[i+1]},
			AmountIn: amountIn,
			MinOut:   new(big.Int).Set(placeholderMinOut),
		}
	}
	return types.ArbPlan{
		LoanToken:   opp.TriTokens[0],
		LoanAmount:  new(big.Int).Set(loanAmount),
		MinProfit:   new(big.Int).Set(minProfit),
		Beneficiary: beneficiary,
		Steps:       steps,
	}
}
