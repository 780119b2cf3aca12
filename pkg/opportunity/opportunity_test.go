package opportunity

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arbengine/pkg/types"
)

func addr(h string) common.Address { return common.HexToAddress(h) }

func TestFind_Direct_MispricedPoolIsProfitable(t *testing.T) {
	tokenA, tokenB := addr("0x01"), addr("0x02")
	pool := types.Pool{
		TokenA: tokenA,
		TokenB: tokenB,
		Legs: []types.PoolLeg{
			{Venue: types.Venue{Name: "cheap"}, ReserveA: big.NewInt(1_000_000), ReserveB: big.NewInt(2_000_000)},
			{Venue: types.Venue{Name: "expensive"}, ReserveA: big.NewInt(1_000_000), ReserveB: big.NewInt(2_500_000)},
		},
	}

	opps := Find([]types.Pool{pool}, big.NewInt(10_000), big.NewInt(0), 9975, 10000)
	require.NotEmpty(t, opps)
	for _, o := range opps {
		assert.Equal(t, types.KindDirect, o.Kind)
		assert.Equal(t, 1, o.Profit.Sign())
	}
}

func TestFind_NoArbitrage_BalancedPoolsAreSkipped(t *testing.T) {
	tokenA, tokenB := addr("0x01"), addr("0x02")
	pool := types.Pool{
		TokenA: tokenA,
		TokenB: tokenB,
		Legs: []types.PoolLeg{
			{Venue: types.Venue{Name: "a"}, ReserveA: big.NewInt(1_000_000), ReserveB: big.NewInt(1_000_000)},
			{Venue: types.Venue{Name: "b"}, ReserveA: big.NewInt(1_000_000), ReserveB: big.NewInt(1_000_000)},
		},
	}

	opps := Find([]types.Pool{pool}, big.NewInt(10_000), big.NewInt(0), 9975, 10000)
	assert.Empty(t, opps)
}

func TestFind_Triangular_ThreeTokenCycle(t *testing.T) {
	a, b, c := addr("0x01"), addr("0x02"), addr("0x03")
	routerX := types.Venue{Name: "x", RouterAddress: addr("0xaa")}
	routerY := types.Venue{Name: "y", RouterAddress: addr("0xbb")}
	routerZ := types.Venue{Name: "z", RouterAddress: addr("0xcc")}

	pools := []types.Pool{
		{TokenA: a, TokenB: b, Legs: []types.PoolLeg{{Venue: routerX, ReserveA: big.NewInt(1_000_000), ReserveB: big.NewInt(2_000_000)}}},
		{TokenA: b, TokenB: c, Legs: []types.PoolLeg{{Venue: routerY, ReserveA: big.NewInt(1_000_000), ReserveB: big.NewInt(1_000_000)}}},
		{TokenA: a, TokenB: c, Legs: []types.PoolLeg{{Venue: routerZ, ReserveA: big.NewInt(2_200_000), ReserveB: big.NewInt(1_000_000)}}},
	}

	opps := Find(pools, big.NewInt(10_000), big.NewInt(0), 9975, 10000)
	var sawTriangular bool
	for _, o := range opps {
		if o.Kind == types.KindTriangular {
			sawTriangular = true
			assert.Len(t, o.TriTokens, 4) // start, two intermediate tokens, back to start
			assert.Equal(t, 1, o.Profit.Sign())
		}
	}
	assert.True(t, sawTriangular, "expected at least one triangular opportunity from the mispriced cycle")
}

func TestFind_OrderingIsProfitDescending(t *testing.T) {
	bigMispricing := types.Pool{
		TokenA: addr("0x01"),
		TokenB: addr("0x02"),
		Legs: []types.PoolLeg{
			{Venue: types.Venue{Name: "cheap1"}, ReserveA: big.NewInt(1_000_000), ReserveB: big.NewInt(1_000_000)},
			{Venue: types.Venue{Name: "expensive1"}, ReserveA: big.NewInt(1_000_000), ReserveB: big.NewInt(3_000_000)},
		},
	}
	smallMispricing := types.Pool{
		TokenA: addr("0x03"),
		TokenB: addr("0x04"),
		Legs: []types.PoolLeg{
			{Venue: types.Venue{Name: "cheap2"}, ReserveA: big.NewInt(1_000_000), ReserveB: big.NewInt(1_000_000)},
			{Venue: types.Venue{Name: "expensive2"}, ReserveA: big.NewInt(1_000_000), ReserveB: big.NewInt(1_050_000)},
		},
	}

	opps := Find([]types.Pool{bigMispricing, smallMispricing}, big.NewInt(10_000), big.NewInt(0), 9975, 10000)
	require.Len(t, opps, 2)
	assert.GreaterOrEqual(t, opps[0].Profit.Cmp(opps[1].Profit), 0)
}
