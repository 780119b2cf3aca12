// Package scanner implements the Pool Scanner (SPEC_FULL.md C3): factory
// enumeration, batched token0/token1/getReserves reads via C1, staleness
// filtering, canonicalization, and liquidity-USD filtering through the
// QuoteTable. Grounded on spec.md §4.3's nine-step algorithm.
package scanner

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"golang.org/x/sync/errgroup"

	"arbengine/pkg/quote"
	"arbengine/pkg/rpcbatch"
	"arbengine/pkg/types"
)

// TokenInfo pairs a token address with the symbol the QuoteTable prices
// it under. The scanner's seed token list is configured this way rather
// than discovered, since a raw address carries no pricing symbol.
type TokenInfo struct {
	Address common.Address
	Symbol  string
}

// Settings bundles the scanner's tunables, sourced from config.
type Settings struct {
	RPCBatch     int
	MinLiqUSD    float64
	StaleSeconds uint32
	FeeNum       uint64
	FeeDenom     uint64
}

// Scanner reads pool state for a configured universe of factories and
// seed tokens.
type Scanner struct {
	eth    *ethclient.Client
	rpcc   *rpc.Client
	venues []types.Venue
	tokens []TokenInfo
	quotes *quote.Table
	logger *log.Logger
	settings Settings
}

// New constructs a Scanner. eth is used for the block-timestamp read;
// rpcc is the raw RPC client the batch transport dispatches through.
func New(eth *ethclient.Client, rpcc *rpc.Client, venues []types.Venue, tokens []TokenInfo, quotes *quote.Table, logger *log.Logger, settings Settings) *Scanner {
	if logger == nil {
		logger = log.Default()
	}
	return &Scanner{eth: eth, rpcc: rpcc, venues: venues, tokens: tokens, quotes: quotes, logger: logger, settings: settings}
}

// Scan runs the full nine-step algorithm and returns the surviving,
// canonicalized, liquid, fresh Pools. Per-factory and per-pair failures
// are absorbed (logged, skipped); the cycle never aborts.
func (s *Scanner) Scan(ctx context.Context) ([]types.Pool, error) {
	rawPairs := s.enumeratePairs(ctx)
	if len(rawPairs) == 0 {
		return nil, nil
	}

	staleCutoff, err := s.staleCutoff(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch latest block timestamp: %w", err)
	}

	legsByKey := make(map[string][]types.PoolLeg)
	tokenAByKey := make(map[string]common.Address)
	tokenBByKey := make(map[string]common.Address)

	for _, batch := range chunk(rawPairs, max(1, s.settings.RPCBatch)) {
		s.scanPairBatch(ctx, batch, staleCutoff, legsByKey, tokenAByKey, tokenBByKey)
	}

	var pools []types.Pool
	for key, legs := range legsByKey {
		if len(legs) == 0 {
			continue
		}
		pools = append(pools, types.Pool{
			TokenA: tokenAByKey[key],
			TokenB: tokenBByKey[key],
			Legs:   legs,
		})
	}
	return pools, nil
}

// enumeratePairs performs step 1–2: either `allPairsLength`/`allPairs`
// enumeration per factory, or a seed-token-pair `getPair` sweep when a
// seed token list is configured.
func (s *Scanner) enumeratePairs(ctx context.Context) []types.RawPair {
	if len(s.tokens) > 1 {
		return s.enumerateBySeedPairs(ctx)
	}
	return s.enumerateByFactoryIndex(ctx)
}

func (s *Scanner) enumerateByFactoryIndex(ctx context.Context) []types.RawPair {
	var out []types.RawPair
	for _, venue := range s.venues {
		length, err := s.callAddressOrBigInt(ctx, factoryABI, venue.FactoryAddress, "allPairsLength")
		if err != nil {
			s.logger.Printf("scanner: allPairsLength failed for venue %s: %v", venue.Name, err)
			continue
		}
		n := length.Int64()
		calls := make([]rpcbatch.Call, 0, n)
		for i := int64(0); i < n; i++ {
			data, err := factoryABI.Pack("allPairs", big.NewInt(i))
			if err != nil {
				continue
			}
			calls = append(calls, rpcbatch.Call{To: venue.FactoryAddress, Data: data})
		}
		results := rpcbatch.BatchCall(ctx, s.rpcc, calls)
		for _, r := range results {
			if r == nil {
				continue
			}
			values, err := factoryABI.Unpack("allPairs", *r)
			if err != nil || len(values) == 0 {
				continue
			}
			addr, ok := values[0].(common.Address)
			if !ok || addr == (common.Address{}) {
				continue
			}
			out = append(out, types.RawPair{Venue: venue, PairAddress: addr})
		}
	}
	return out
}

func (s *Scanner) enumerateBySeedPairs(ctx context.Context) []types.RawPair {
	var out []types.RawPair
	for _, venue := range s.venues {
		var calls []rpcbatch.Call
		for i := 0; i < len(s.tokens); i++ {
			for j := i + 1; j < len(s.tokens); j++ {
				data, err := factoryABI.Pack("getPair", s.tokens[i].Address, s.tokens[j].Address)
				if err != nil {
					continue
				}
				calls = append(calls, rpcbatch.Call{To: venue.FactoryAddress, Data: data})
			}
		}
		results := rpcbatch.BatchCall(ctx, s.rpcc, calls)
		for _, r := range results {
			if r == nil {
				continue
			}
			values, err := factoryABI.Unpack("getPair", *r)
			if err != nil || len(values) == 0 {
				continue
			}
			addr, ok := values[0].(common.Address)
			if !ok || addr == (common.Address{}) {
				continue
			}
			out = append(out, types.RawPair{Venue: venue, PairAddress: addr})
		}
	}
	return out
}

// scanPairBatch performs steps 3–9 for one chunk of pairs: build the
// three parallel request sets, decode, canonicalize, filter for
// staleness and liquidity, and group into legsByKey.
func (s *Scanner) scanPairBatch(ctx context.Context, pairs []types.RawPair, staleCutoff uint32, legsByKey map[string][]types.PoolLeg, tokenAByKey, tokenBByKey map[string]common.Address) {
	token0Calls := make([]rpcbatch.Call, len(pairs))
	token1Calls := make([]rpcbatch.Call, len(pairs))
	reservesCalls := make([]rpcbatch.Call, len(pairs))
	for i, p := range pairs {
		d0, _ := pairABI.Pack("token0")
		d1, _ := pairABI.Pack("token1")
		dr, _ := pairABI.Pack("getReserves")
		token0Calls[i] = rpcbatch.Call{To: p.PairAddress, Data: d0}
		token1Calls[i] = rpcbatch.Call{To: p.PairAddress, Data: d1}
		reservesCalls[i] = rpcbatch.Call{To: p.PairAddress, Data: dr}
	}

	// The three request sets (token0/token1/getReserves) are independent,
	// so they're dispatched concurrently rather than back-to-back,
	// bounded by RPC_BATCH the same as the chunking above.
	var token0Results, token1Results, reservesResults []*hexutil.Bytes
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, s.settings.RPCBatch))
	g.Go(func() error {
		token0Results = rpcbatch.BatchCall(gctx, s.rpcc, token0Calls)
		return nil
	})
	g.Go(func() error {
		token1Results = rpcbatch.BatchCall(gctx, s.rpcc, token1Calls)
		return nil
	})
	g.Go(func() error {
		reservesResults = rpcbatch.BatchCall(gctx, s.rpcc, reservesCalls)
		return nil
	})
	_ = g.Wait() // BatchCall never returns an error; absorbed per-call failures surface as nil slots

	for i, p := range pairs {
		if token0Results[i] == nil || token1Results[i] == nil || reservesResults[i] == nil {
			continue
		}

		token0, err := decodeAddress(pairABI, "token0", *token0Results[i])
		if err != nil {
			continue
		}
		token1, err := decodeAddress(pairABI, "token1", *token1Results[i])
		if err != nil {
			continue
		}
		r0, r1, ts, err := decodeReserves(*reservesResults[i])
		if err != nil {
			continue
		}
		if ts == 0 || ts < staleCutoff {
			continue
		}
		if r0.Sign() <= 0 || r1.Sign() <= 0 {
			continue
		}

		tokenA, tokenB, reserveA, reserveB := canonicalize(token0, token1, r0, r1)
		key := strings.ToLower(tokenA.Hex()) + "_" + strings.ToLower(tokenB.Hex())

		liquidityUSD := s.estimateLiquidityUSD(tokenA, reserveA, tokenB, reserveB)
		if liquidityUSD < s.settings.MinLiqUSD {
			continue
		}

		priceAB := new(big.Rat).SetFrac(reserveB, reserveA)

		legsByKey[key] = append(legsByKey[key], types.PoolLeg{
			Venue:        p.Venue,
			PairAddress:  p.PairAddress,
			ReserveA:     reserveA,
			ReserveB:     reserveB,
			PriceAB:      priceAB,
			LiquidityUSD: liquidityUSD,
			LastUpdateTs: ts,
		})
		tokenAByKey[key] = tokenA
		tokenBByKey[key] = tokenB
	}
}

func (s *Scanner) estimateLiquidityUSD(tokenA common.Address, reserveA *big.Int, tokenB common.Address, reserveB *big.Int) float64 {
	symbolA, symbolB := s.symbolOf(tokenA), s.symbolOf(tokenB)
	return s.quotes.USDValue(reserveA, symbolA, tokenA) + s.quotes.USDValue(reserveB, symbolB, tokenB)
}

func (s *Scanner) symbolOf(token common.Address) string {
	for _, t := range s.tokens {
		if t.Address == token {
			return t.Symbol
		}
	}
	return ""
}

func (s *Scanner) staleCutoff(ctx context.Context) (uint32, error) {
	header, err := s.eth.HeaderByNumber(ctx, nil)
	if err != nil {
		return 0, err
	}
	latest := header.Time
	if latest < uint64(s.settings.StaleSeconds) {
		return 0, nil
	}
	return uint32(latest - uint64(s.settings.StaleSeconds)), nil
}

func (s *Scanner) callAddressOrBigInt(ctx context.Context, contractABI abi.ABI, to common.Address, method string) (*big.Int, error) {
	data, err := contractABI.Pack(method)
	if err != nil {
		return nil, err
	}
	calls := []rpcbatch.Call{{To: to, Data: data}}
	results := rpcbatch.BatchCall(ctx, s.rpcc, calls)
	if results[0] == nil {
		return nil, fmt.Errorf("call %s: no result", method)
	}
	values, err := contractABI.Unpack(method, *results[0])
	if err != nil || len(values) == 0 {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	n, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unpack %s: unexpected type", method)
	}
	return n, nil
}

func decodeAddress(contractABI abi.ABI, method string, raw []byte) (common.Address, error) {
	values, err := contractABI.Unpack(method, raw)
	if err != nil || len(values) == 0 {
		return common.Address{}, fmt.Errorf("unpack %s: %w", method, err)
	}
	addr, ok := values[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("unpack %s: unexpected type", method)
	}
	return addr, nil
}

func decodeReserves(raw []byte) (r0, r1 *big.Int, ts uint32, err error) {
	values, err := pairABI.Unpack("getReserves", raw)
	if err != nil || len(values) < 3 {
		return nil, nil, 0, fmt.Errorf("unpack getReserves: %w", err)
	}
	reserve0, ok := values[0].(*big.Int)
	if !ok {
		return nil, nil, 0, fmt.Errorf("unpack getReserves: reserve0 type")
	}
	reserve1, ok := values[1].(*big.Int)
	if !ok {
		return nil, nil, 0, fmt.Errorf("unpack getReserves: reserve1 type")
	}
	blockTs, ok := values[2].(uint32)
	if !ok {
		return nil, nil, 0, fmt.Errorf("unpack getReserves: blockTimestampLast type")
	}
	return reserve0, reserve1, blockTs, nil
}

// canonicalize orients (token0, token1, r0, r1) so the lexicographically
// smaller address comes first, per spec.md §4.3 step 6.
func canonicalize(token0, token1 common.Address, r0, r1 *big.Int) (tokenA, tokenB common.Address, reserveA, reserveB *big.Int) {
	if bytes.Compare(token0.Bytes(), token1.Bytes()) <= 0 {
		return token0, token1, r0, r1
	}
	return token1, token0, r1, r0
}

func chunk(pairs []types.RawPair, size int) [][]types.RawPair {
	var out [][]types.RawPair
	for i := 0; i < len(pairs); i += size {
		end := i + size
		if end > len(pairs) {
			end = len(pairs)
		}
		out = append(out, pairs[i:end])
	}
	return out
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
