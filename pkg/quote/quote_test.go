package quote

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUSDValue(t *testing.T) {
	usdc := common.HexToAddress("0x01")
	table := New(map[string]float64{"wbnb": 580, "usdc": 1}, map[common.Address]uint8{usdc: 6})

	t.Run("18-decimal token uses default decimals", func(t *testing.T) {
		oneToken := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
		usd := New(map[string]float64{"WBNB": 580}, nil).USDValue(oneToken, "WBNB", common.Address{})
		assert.InDelta(t, 580, usd, 0.0001)
	})

	t.Run("decimal override is honored", func(t *testing.T) {
		oneUSDC := big.NewInt(1_000_000) // 6 decimals
		usd := table.USDValue(oneUSDC, "USDC", usdc)
		assert.InDelta(t, 1, usd, 0.0001)
	})

	t.Run("unpriced symbol is zero, not an error", func(t *testing.T) {
		usd := table.USDValue(big.NewInt(1_000_000), "UNKNOWN", common.Address{})
		assert.Zero(t, usd)
	})

	t.Run("zero amount is zero", func(t *testing.T) {
		usd := table.USDValue(big.NewInt(0), "WBNB", common.Address{})
		assert.Zero(t, usd)
	})

	t.Run("symbol lookup is case-insensitive", func(t *testing.T) {
		px, ok := table.Price("Wbnb")
		assert.True(t, ok)
		assert.Equal(t, 580.0, px)
	})
}

func TestUSDToTokenAmount(t *testing.T) {
	usdc := common.HexToAddress("0x01")
	table := New(map[string]float64{"wbnb": 580, "usdc": 1}, map[common.Address]uint8{usdc: 6})

	t.Run("round-trips with USDValue", func(t *testing.T) {
		amount := table.USDToTokenAmount(290, "WBNB", common.Address{})
		require.NotNil(t, amount)
		assert.InDelta(t, 290, table.USDValue(amount, "WBNB", common.Address{}), 0.0001)
	})

	t.Run("honors decimal override", func(t *testing.T) {
		amount := table.USDToTokenAmount(1, "USDC", usdc)
		require.NotNil(t, amount)
		assert.Equal(t, big.NewInt(1_000_000), amount)
	})

	t.Run("unpriced symbol returns nil", func(t *testing.T) {
		amount := table.USDToTokenAmount(1, "UNKNOWN", common.Address{})
		assert.Nil(t, amount)
	})
}
