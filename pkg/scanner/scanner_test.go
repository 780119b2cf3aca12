package scanner

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arbengine/pkg/quote"
	"arbengine/pkg/types"
)

func TestCanonicalize_OrdersLexicographically(t *testing.T) {
	low := common.HexToAddress("0x01")
	high := common.HexToAddress("0x02")
	r0, r1 := big.NewInt(100), big.NewInt(200)

	t.Run("already ordered", func(t *testing.T) {
		a, b, ra, rb := canonicalize(low, high, r0, r1)
		assert.Equal(t, low, a)
		assert.Equal(t, high, b)
		assert.Equal(t, r0, ra)
		assert.Equal(t, r1, rb)
	})

	t.Run("swapped input is reordered", func(t *testing.T) {
		a, b, ra, rb := canonicalize(high, low, r1, r0)
		assert.Equal(t, low, a)
		assert.Equal(t, high, b)
		assert.Equal(t, r0, ra)
		assert.Equal(t, r1, rb)
	})
}

func TestDecodeReserves_RoundTrip(t *testing.T) {
	packed, err := pairABI.Pack("getReserves")
	require.NoError(t, err)
	_ = packed // packing has no args; decoding exercises the outputs path below

	encodedOutputs, err := pairABI.Methods["getReserves"].Outputs.Pack(big.NewInt(1_000), big.NewInt(2_000), uint32(1_700_000_000))
	require.NoError(t, err)

	r0, r1, ts, err := decodeReserves(encodedOutputs)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1_000), r0)
	assert.Equal(t, big.NewInt(2_000), r1)
	assert.EqualValues(t, 1_700_000_000, ts)
}

func TestChunk_SplitsIntoBoundedGroups(t *testing.T) {
	var pairs []types.RawPair
	for i := 0; i < 7; i++ {
		pairs = append(pairs, types.RawPair{PairAddress: common.BigToAddress(big.NewInt(int64(i)))})
	}

	chunks := chunk(pairs, 3)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 3)
	assert.Len(t, chunks[1], 3)
	assert.Len(t, chunks[2], 1)
}

func TestScanner_EstimateLiquidityUSD(t *testing.T) {
	usdc := common.HexToAddress("0x01")
	wbnb := common.HexToAddress("0x02")
	table := quote.New(map[string]float64{"usdc": 1, "wbnb": 580}, map[common.Address]uint8{usdc: 6})

	s := New(nil, nil, nil, []TokenInfo{{Address: usdc, Symbol: "USDC"}, {Address: wbnb, Symbol: "WBNB"}}, table, nil, Settings{})

	reserveUSDC := big.NewInt(10_000_000_000) // 10,000 USDC @ 6 decimals
	reserveWBNB := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil) // 1 WBNB @ 18 decimals

	usd := s.estimateLiquidityUSD(usdc, reserveUSDC, wbnb, reserveWBNB)
	assert.InDelta(t, 10_580, usd, 0.01)
}

func TestScanner_SymbolOf_UnknownTokenIsEmpty(t *testing.T) {
	s := New(nil, nil, nil, nil, quote.New(nil, nil), nil, Settings{})
	assert.Empty(t, s.symbolOf(common.HexToAddress("0xAA")))
}
