// Package quote implements the static USD QuoteTable (SPEC_FULL.md §3
// expansion): the "oracle collaborator" spec.md's Open Questions section
// says to treat as configuration only. Every USD-denominated comparison in
// the scanner and the execution pipeline goes through this table.
package quote

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

const defaultDecimals = 18

// Table is a static symbol->USD price map with optional per-token decimal
// overrides, loaded once from config at startup.
type Table struct {
	prices           map[string]float64
	decimalOverrides map[common.Address]uint8
}

// New builds a Table from a symbol->price map (e.g. parsed from the
// USD_PRICE_MAP config key) and an address->decimals override map.
func New(prices map[string]float64, decimalOverrides map[common.Address]uint8) *Table {
	normalized := make(map[string]float64, len(prices))
	for sym, px := range prices {
		normalized[strings.ToUpper(sym)] = px
	}
	if decimalOverrides == nil {
		decimalOverrides = make(map[common.Address]uint8)
	}
	return &Table{prices: normalized, decimalOverrides: decimalOverrides}
}

// Price returns the configured USD price for symbol, and whether it was
// found. An unknown symbol prices as 0, which safely excludes it from any
// liquidity-USD sum rather than guessing.
func (t *Table) Price(symbol string) (float64, bool) {
	px, ok := t.prices[strings.ToUpper(symbol)]
	return px, ok
}

// Decimals returns the ERC-20 decimals to assume for token, defaulting to
// 18 unless an override was configured.
func (t *Table) Decimals(token common.Address) uint8 {
	if d, ok := t.decimalOverrides[token]; ok {
		return d
	}
	return defaultDecimals
}

// USDValue converts a raw base-unit token amount to a USD float, using
// symbol's configured price and token's decimals. Returns 0 if the symbol
// is unpriced.
func (t *Table) USDValue(amount *big.Int, symbol string, token common.Address) float64 {
	if amount == nil || amount.Sign() == 0 {
		return 0
	}
	px, ok := t.Price(symbol)
	if !ok {
		return 0
	}

	amountF := new(big.Float).SetInt(amount)
	divisor := new(big.Float).SetInt(pow10(t.Decimals(token)))
	units := new(big.Float).Quo(amountF, divisor)

	usd, _ := new(big.Float).Mul(units, big.NewFloat(px)).Float64()
	return usd
}

// USDToTokenAmount converts a USD amount into token's base units, using
// symbol's configured price and token's decimals — the inverse of
// USDValue. Returns nil if symbol is unpriced, so a caller converting a
// config-level USD floor can fail loudly instead of silently treating
// the floor as zero.
func (t *Table) USDToTokenAmount(usd float64, symbol string, token common.Address) *big.Int {
	px, ok := t.Price(symbol)
	if !ok || px <= 0 {
		return nil
	}

	units := new(big.Float).Quo(big.NewFloat(usd), big.NewFloat(px))
	multiplier := new(big.Float).SetInt(pow10(t.Decimals(token)))
	amountF := new(big.Float).Mul(units, multiplier)

	amount, _ := amountF.Int(nil)
	return amount
}

func pow10(n uint8) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}
