// Package amm implements the constant-product swap math (SPEC_FULL.md C2)
// shared by the scanner, the opportunity finder, and the execution pipeline.
// All arithmetic is done in math/big so no path ever rounds through a float.
package amm

import "math/big"

// DefaultFeeNum and DefaultFeeDenom encode the standard Uniswap-V2 0.25%
// swap fee (9975/10000 of the input amount counts toward the output).
const (
	DefaultFeeNum   = 9975
	DefaultFeeDenom = 10000
)

// GetAmountOut returns the output amount a constant-product pool would give
// for amountIn against the given reserves, at the supplied fee. feeNum and
// feeDenom let callers model DEXes with non-standard fee tiers; pass
// DefaultFeeNum/DefaultFeeDenom for the canonical 0.25% pool.
//
// Returns zero if amountIn, reserveIn, or reserveOut is zero or negative —
// a dry or nonexistent pool has nothing to quote.
func GetAmountOut(amountIn, reserveIn, reserveOut *big.Int, feeNum, feeDenom uint64) *big.Int {
	if amountIn == nil || reserveIn == nil || reserveOut == nil {
		return big.NewInt(0)
	}
	if amountIn.Sign() <= 0 || reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return big.NewInt(0)
	}

	amountInWithFee := new(big.Int).Mul(amountIn, big.NewInt(0).SetUint64(feeNum))

	numerator := new(big.Int).Mul(amountInWithFee, reserveOut)

	denominator := new(big.Int).Mul(reserveIn, big.NewInt(0).SetUint64(feeDenom))
	denominator.Add(denominator, amountInWithFee)

	if denominator.Sign() == 0 {
		return big.NewInt(0)
	}

	return numerator.Div(numerator, denominator)
}

// GetAmountOutDefault is GetAmountOut at the standard 0.25% fee tier.
func GetAmountOutDefault(amountIn, reserveIn, reserveOut *big.Int) *big.Int {
	return GetAmountOut(amountIn, reserveIn, reserveOut, DefaultFeeNum, DefaultFeeDenom)
}

// PriceImpactBps returns the slippage, in basis points, between the pool's
// marginal spot price and the effective price amountIn actually executes
// at.
func PriceImpactBps(amountIn, reserveIn, reserveOut *big.Int, feeNum, feeDenom uint64) *big.Int {
	amountOut := GetAmountOut(amountIn, reserveIn, reserveOut, feeNum, feeDenom)
	if amountOut.Sign() == 0 {
		return big.NewInt(10000)
	}

	// spot price of 1 unit of amountIn expressed in reserveOut terms,
	// scaled by amountIn so it can be compared against amountOut directly.
	spotOut := new(big.Int).Mul(amountIn, reserveOut)
	spotOut.Div(spotOut, reserveIn)
	if spotOut.Sign() == 0 {
		return big.NewInt(0)
	}

	diff := new(big.Int).Sub(spotOut, amountOut)
	if diff.Sign() < 0 {
		diff.SetInt64(0)
	}

	bps := new(big.Int).Mul(diff, big.NewInt(10000))
	return bps.Div(bps, spotOut)
}
