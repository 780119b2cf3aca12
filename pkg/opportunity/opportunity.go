// Package opportunity implements the Opportunity Finder (SPEC_FULL.md C5):
// direct two-leg and triangular three-edge cycle simulation over scanned
// pools, using the Token Graph (C4) for cycle enumeration and AMM Math
// (C2) for each hop's simulated output.
package opportunity

import (
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"arbengine/pkg/amm"
	"arbengine/pkg/graph"
	"arbengine/pkg/types"
)

// Find runs both direct and triangular search over pools for the given
// loan size, returning every profitable Opportunity sorted by profit
// descending, then profit_pct descending, then path length ascending —
// exactly spec.md §4.5's ordering rule.
func Find(pools []types.Pool, loanAmount *big.Int, minProfit *big.Int, feeNum, feeDenom uint64) []types.Opportunity {
	var opps []types.Opportunity
	opps = append(opps, findDirect(pools, loanAmount, feeNum, feeDenom)...)
	opps = append(opps, findTriangular(pools, loanAmount, minProfit, feeNum, feeDenom)...)

	sort.SliceStable(opps, func(i, j int) bool {
		a, b := opps[i], opps[j]
		if cmp := a.Profit.Cmp(b.Profit); cmp != 0 {
			return cmp > 0
		}
		if cmp := a.ProfitPct.Cmp(b.ProfitPct); cmp != 0 {
			return cmp > 0
		}
		return pathLength(a) < pathLength(b)
	})
	return opps
}

func pathLength(o types.Opportunity) int {
	if o.Kind == types.KindTriangular {
		return len(o.TriTokens)
	}
	return 2
}

// findDirect considers every ordered (buyLeg, sellLeg) pair within each
// pool that has at least two legs, per spec.md §4.5.
func findDirect(pools []types.Pool, loanAmount *big.Int, feeNum, feeDenom uint64) []types.Opportunity {
	var out []types.Opportunity
	for _, pool := range pools {
		if len(pool.Legs) < 2 {
			continue
		}
		for i := range pool.Legs {
			for j := range pool.Legs {
				if i == j {
					continue
				}
				buyLeg, sellLeg := pool.Legs[i], pool.Legs[j]

				mid := amm.GetAmountOut(loanAmount, buyLeg.ReserveA, buyLeg.ReserveB, feeNum, feeDenom)
				if mid.Sign() == 0 {
					continue
				}
				out1 := amm.GetAmountOut(mid, sellLeg.ReserveB, sellLeg.ReserveA, feeNum, feeDenom)
				if out1.Cmp(loanAmount) <= 0 {
					continue
				}

				profit := new(big.Int).Sub(out1, loanAmount)
				profitPct := new(big.Rat).SetFrac(profit, loanAmount)

				buy, sell := buyLeg, sellLeg
				out = append(out, types.Opportunity{
					Kind:         types.KindDirect,
					DirectTokenA: pool.TokenA,
					DirectTokenB: pool.TokenB,
					BuyLeg:       &buy,
					SellLeg:      &sell,
					AmountIn:     new(big.Int).Set(loanAmount),
					AmountOut:    out1,
					Profit:       profit,
					ProfitPct:    profitPct,
				})
			}
		}
	}
	return out
}

// findTriangular enumerates 3-edge cycles from every token in the graph
// and simulates loanAmount through each sequentially.
func findTriangular(pools []types.Pool, loanAmount, minProfit *big.Int, feeNum, feeDenom uint64) []types.Opportunity {
	g := graph.New(pools)
	var out []types.Opportunity

	for _, start := range g.Tokens() {
		for _, cycle := range g.Cycles(start, 3) {
			amount := loanAmount
			ok := true
			for _, edge := range cycle.Edges {
				amount = amm.GetAmountOut(amount, edge.ReserveIn, edge.ReserveOut, feeNum, feeDenom)
				if amount.Sign() == 0 {
					ok = false
					break
				}
			}
			if !ok {
				continue
			}

			threshold := new(big.Int).Add(loanAmount, minProfit)
			if amount.Cmp(threshold) < 0 {
				continue
			}

			profit := new(big.Int).Sub(amount, loanAmount)
			profitPct := new(big.Rat).SetFrac(profit, loanAmount)

			out = append(out, buildTriangular(cycle, loanAmount, amount, profit, profitPct))
		}
	}
	return out
}

func buildTriangular(cycle types.Path, loanAmount, amountOut, profit *big.Int, profitPct *big.Rat) types.Opportunity {
	venues := make([]types.Venue, len(cycle.Edges))
	routers := make([]common.Address, len(cycle.Edges))
	for i, edge := range cycle.Edges {
		venues[i] = edge.Venue
		routers[i] = edge.Venue.RouterAddress
	}
	return types.Opportunity{
		Kind:       types.KindTriangular,
		TriTokens:  append([]common.Address(nil), cycle.Tokens...),
		TriVenues:  venues,
		TriRouters: routers,
		AmountIn:   new(big.Int).Set(loanAmount),
		AmountOut:  amountOut,
		Profit:     profit,
		ProfitPct:  profitPct,
	}
}
