package amm

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetAmountOut(t *testing.T) {
	t.Run("standard pool", func(t *testing.T) {
		amountIn := big.NewInt(1_000)
		reserveIn := big.NewInt(1_000_000)
		reserveOut := big.NewInt(2_000_000)

		out := GetAmountOutDefault(amountIn, reserveIn, reserveOut)

		// amountInWithFee = 1000*9975 = 9_975_000
		// numerator       = 9_975_000 * 2_000_000 = 19_950_000_000_000
		// denominator     = 1_000_000*10_000 + 9_975_000 = 10_009_975_000
		// out             = 19_950_000_000_000 / 10_009_975_000 = 1993 (floor)
		assert.Equal(t, big.NewInt(1993), out)
	})

	t.Run("zero amount in yields zero out", func(t *testing.T) {
		out := GetAmountOutDefault(big.NewInt(0), big.NewInt(1_000), big.NewInt(1_000))
		assert.Equal(t, 0, out.Sign())
	})

	t.Run("dry pool yields zero out", func(t *testing.T) {
		out := GetAmountOutDefault(big.NewInt(1_000), big.NewInt(0), big.NewInt(1_000))
		assert.Equal(t, 0, out.Sign())
	})

	t.Run("nil reserves are treated as dry", func(t *testing.T) {
		out := GetAmountOutDefault(big.NewInt(1_000), nil, big.NewInt(1_000))
		assert.Equal(t, 0, out.Sign())
	})

	t.Run("never exceeds reserveOut", func(t *testing.T) {
		reserveOut := big.NewInt(2_000_000)
		out := GetAmountOutDefault(big.NewInt(50_000_000), big.NewInt(1_000_000), reserveOut)
		assert.Equal(t, -1, out.Cmp(reserveOut))
	})

	t.Run("custom fee tier", func(t *testing.T) {
		// a 1% fee pool (feeNum/feeDenom = 9900/10000) should return less
		// than the default 0.25% fee pool for identical reserves/input.
		in := big.NewInt(10_000)
		rIn := big.NewInt(5_000_000)
		rOut := big.NewInt(5_000_000)

		standard := GetAmountOutDefault(in, rIn, rOut)
		highFee := GetAmountOut(in, rIn, rOut, 9900, 10000)

		assert.Equal(t, -1, highFee.Cmp(standard))
	})
}

func TestPriceImpactBps(t *testing.T) {
	t.Run("larger trade has more impact", func(t *testing.T) {
		rIn := big.NewInt(1_000_000)
		rOut := big.NewInt(1_000_000)

		small := PriceImpactBps(big.NewInt(1_000), rIn, rOut, DefaultFeeNum, DefaultFeeDenom)
		large := PriceImpactBps(big.NewInt(100_000), rIn, rOut, DefaultFeeNum, DefaultFeeDenom)

		assert.Equal(t, -1, small.Cmp(large))
	})

	t.Run("dry pool is maximal impact", func(t *testing.T) {
		bps := PriceImpactBps(big.NewInt(1_000), big.NewInt(0), big.NewInt(1_000), DefaultFeeNum, DefaultFeeDenom)
		assert.Equal(t, big.NewInt(10000), bps)
	})
}
