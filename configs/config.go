// Package configs loads arbengine's YAML configuration file, following
// the teacher's configs/config.go pattern (gopkg.in/yaml.v3 unmarshal into
// a plain struct, plus conversion helpers that turn the raw YAML shape
// into the strongly-typed values each component actually wants).
package configs

import (
	"fmt"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"

	"arbengine/pkg/executor"
	"arbengine/pkg/quote"
	"arbengine/pkg/scanner"
	"arbengine/pkg/types"
)

// Config mirrors spec.md §6's configuration table.
type Config struct {
	RPCURL            string             `yaml:"rpc_url"`
	PrivateKey        string             `yaml:"private_key"`
	ArbContract       string             `yaml:"arb_contract"`
	Beneficiary       string             `yaml:"beneficiary"`
	EnableExecution   bool               `yaml:"enable_execution"`
	ScanIntervalMs    int                `yaml:"scan_interval_ms"`
	RPCBatch          int                `yaml:"rpc_batch"`
	MinLiqUSD         float64            `yaml:"min_liq_usd"`
	StaleSeconds      uint32             `yaml:"stale_seconds"`
	MaxSlippageBps    int64              `yaml:"max_slippage_bps"`
	MinProfitUSD      float64            `yaml:"min_profit_usd"`
	MinExecSpreadPct  float64            `yaml:"min_exec_spread_pct"`
	LoanAmount        string             `yaml:"loan_amount"`
	GasRiskMultiplier float64            `yaml:"gas_risk_multiplier"`
	DefaultGasLimit   uint64             `yaml:"default_gas_limit"`
	MaxGasPriceGwei   int64              `yaml:"max_gas_price_gwei"`
	GasTokenSymbol    string             `yaml:"gas_token_symbol"`
	GasTokenAddress   string             `yaml:"gas_token_address"`
	LoanTokenSymbol   string             `yaml:"loan_token_symbol"`
	LoanTokenAddress  string             `yaml:"loan_token_address"`
	USDPriceMap       map[string]float64 `yaml:"usd_price_map"`
	Venues            []VenueYAML        `yaml:"venues"`
	Tokens            []TokenYAML        `yaml:"tokens"`

	// (expansion) ambient infra, unused by the core decision logic.
	DBDSN           string `yaml:"db_dsn"`
	MetricsAddr     string `yaml:"metrics_addr"`
	PersistEveryNth int    `yaml:"persist_every_nth"`
}

// VenueYAML is one configured DEX: its router and factory addresses.
type VenueYAML struct {
	Name           string `yaml:"name"`
	RouterAddress  string `yaml:"router_address"`
	FactoryAddress string `yaml:"factory_address"`
}

// TokenYAML is one seed token the scanner's getPair sweep pairs up.
type TokenYAML struct {
	Address string `yaml:"address"`
	Symbol  string `yaml:"symbol"`
}

// LoadConfig reads and parses a YAML config file into a Config struct.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}
	config.applyDefaults()
	return &config, nil
}

// applyDefaults fills in spec.md §6's documented defaults for any key the
// YAML file left zero-valued.
func (c *Config) applyDefaults() {
	if c.ScanIntervalMs == 0 {
		c.ScanIntervalMs = 6000
	}
	if c.RPCBatch == 0 {
		c.RPCBatch = 50
	}
	if c.MinLiqUSD == 0 {
		c.MinLiqUSD = 20000
	}
	if c.StaleSeconds == 0 {
		c.StaleSeconds = 600
	}
	if c.MaxSlippageBps == 0 {
		c.MaxSlippageBps = 50
	}
	if c.MinProfitUSD == 0 {
		c.MinProfitUSD = 1
	}
	if c.MinExecSpreadPct == 0 {
		c.MinExecSpreadPct = 0.2
	}
	if c.GasRiskMultiplier == 0 {
		c.GasRiskMultiplier = 1.20
	}
	if c.DefaultGasLimit == 0 {
		c.DefaultGasLimit = 450000
	}
	if c.MaxGasPriceGwei == 0 {
		c.MaxGasPriceGwei = 8
	}
	if c.PersistEveryNth == 0 {
		c.PersistEveryNth = 10
	}
}

// Validate checks the fields required when execution is enabled,
// returning the error that maps to exit code 2 (spec.md §6).
func (c *Config) Validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("RPC_URL is required")
	}
	if !c.EnableExecution {
		return nil
	}
	if c.PrivateKey == "" && os.Getenv("PRIVATE_KEY") == "" && os.Getenv("ENC_PK") == "" {
		return fmt.Errorf("PRIVATE_KEY (or ENC_PK with KEY) is required when execution is enabled")
	}
	if c.ArbContract == "" {
		return fmt.Errorf("ARB_CONTRACT is required when execution is enabled")
	}
	if c.Beneficiary == "" {
		return fmt.Errorf("BENEFICIARY is required when execution is enabled")
	}
	if c.LoanTokenSymbol == "" {
		return fmt.Errorf("LOAN_TOKEN_SYMBOL is required when execution is enabled")
	}
	if c.LoanTokenAddress == "" {
		return fmt.Errorf("LOAN_TOKEN_ADDRESS is required when execution is enabled")
	}
	return nil
}

// ToScannerSettings converts the YAML config into the scanner's tunables.
func (c *Config) ToScannerSettings() scanner.Settings {
	return scanner.Settings{
		RPCBatch:     c.RPCBatch,
		MinLiqUSD:    c.MinLiqUSD,
		StaleSeconds: c.StaleSeconds,
		FeeNum:       9975,
		FeeDenom:     10000,
	}
}

// ToExecutorConfig converts the YAML config into the pipeline's tunables.
// quotes prices MIN_PROFIT_USD into the loan token's base units — a dollar
// floor cannot be compared against a raw token amount without a price.
func (c *Config) ToExecutorConfig(quotes *quote.Table) (executor.Config, error) {
	loan, ok := new(big.Int).SetString(c.LoanAmount, 10)
	if !ok {
		return executor.Config{}, fmt.Errorf("invalid loan_amount %q", c.LoanAmount)
	}

	loanTokenAddr := common.HexToAddress(c.LoanTokenAddress)
	minProfit := quotes.USDToTokenAmount(c.MinProfitUSD, c.LoanTokenSymbol, loanTokenAddr)
	if minProfit == nil {
		return executor.Config{}, fmt.Errorf("cannot convert min_profit_usd to token units: no USD price configured for loan token symbol %q", c.LoanTokenSymbol)
	}

	spreadPct := new(big.Rat).SetFloat64(c.MinExecSpreadPct / 100)
	if spreadPct == nil {
		spreadPct = big.NewRat(0, 1)
	}
	riskMultiplier := new(big.Rat).SetFloat64(c.GasRiskMultiplier)
	if riskMultiplier == nil {
		riskMultiplier = big.NewRat(120, 100)
	}

	tokenSymbols := make(map[common.Address]string, len(c.Tokens)+1)
	for _, t := range c.Tokens {
		tokenSymbols[common.HexToAddress(t.Address)] = t.Symbol
	}
	tokenSymbols[loanTokenAddr] = c.LoanTokenSymbol

	return executor.Config{
		LoanAmount:        loan,
		MinProfit:         minProfit,
		Beneficiary:       common.HexToAddress(c.Beneficiary),
		MinExecSpreadPct:  spreadPct,
		MaxSlippageBps:    c.MaxSlippageBps,
		DefaultGasLimit:   c.DefaultGasLimit,
		GasRiskMultiplier: riskMultiplier,
		MaxGasPriceGwei:   c.MaxGasPriceGwei,
		GasTokenSymbol:    c.GasTokenSymbol,
		GasTokenAddress:   common.HexToAddress(c.GasTokenAddress),
		MinProfitUSD:      c.MinProfitUSD,
		TokenSymbols:      tokenSymbols,
	}, nil
}

// ToTokenInfos converts the YAML seed token list into scanner.TokenInfo.
func (c *Config) ToTokenInfos() []scanner.TokenInfo {
	out := make([]scanner.TokenInfo, len(c.Tokens))
	for i, t := range c.Tokens {
		out[i] = scanner.TokenInfo{Address: common.HexToAddress(t.Address), Symbol: t.Symbol}
	}
	return out
}

// ToVenues converts the YAML venue list into types.Venue.
func (c *Config) ToVenues() []types.Venue {
	out := make([]types.Venue, len(c.Venues))
	for i, v := range c.Venues {
		out[i] = types.Venue{
			Name:           v.Name,
			RouterAddress:  common.HexToAddress(v.RouterAddress),
			FactoryAddress: common.HexToAddress(v.FactoryAddress),
		}
	}
	return out
}
