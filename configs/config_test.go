package configs

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arbengine/pkg/quote"
)

func baseTestConfig() *Config {
	c := &Config{
		RPCURL:           "http://localhost:8545",
		PrivateKey:       "deadbeef",
		ArbContract:      "0xaa",
		Beneficiary:      "0xbb",
		EnableExecution:  true,
		LoanAmount:       "100000000000000000000", // 100e18
		MinProfitUSD:     5,
		GasTokenSymbol:   "WBNB",
		GasTokenAddress:  "0x01",
		LoanTokenSymbol:  "USDC",
		LoanTokenAddress: "0x02",
	}
	c.applyDefaults()
	return c
}

func TestToExecutorConfig_ConvertsMinProfitUSDThroughQuoteTable(t *testing.T) {
	c := baseTestConfig()
	usdc := common.HexToAddress("0x02")
	quotes := quote.New(map[string]float64{"WBNB": 300, "USDC": 1}, map[common.Address]uint8{usdc: 6})

	execConf, err := c.ToExecutorConfig(quotes)
	require.NoError(t, err)

	// $5 at $1/USDC, 6 decimals -> 5_000_000 base units, not a vacuous "5".
	assert.Equal(t, big.NewInt(5_000_000), execConf.MinProfit)
	assert.Equal(t, "USDC", execConf.TokenSymbols[usdc])
}

func TestToExecutorConfig_UnpricedLoanTokenSymbolErrors(t *testing.T) {
	c := baseTestConfig()
	c.LoanTokenSymbol = "UNKNOWN"
	quotes := quote.New(map[string]float64{"WBNB": 300}, nil)

	_, err := c.ToExecutorConfig(quotes)
	assert.Error(t, err)
}

func TestToExecutorConfig_InvalidLoanAmount(t *testing.T) {
	c := baseTestConfig()
	c.LoanAmount = "not-a-number"
	quotes := quote.New(map[string]float64{"WBNB": 300, "USDC": 1}, nil)

	_, err := c.ToExecutorConfig(quotes)
	assert.Error(t, err)
}

func TestValidate_RequiresLoanTokenFieldsWhenExecutionEnabled(t *testing.T) {
	c := baseTestConfig()
	c.LoanTokenSymbol = ""

	err := c.Validate()
	assert.Error(t, err)
}

func TestValidate_ExecutionDisabledSkipsLoanTokenChecks(t *testing.T) {
	c := baseTestConfig()
	c.EnableExecution = false
	c.LoanTokenSymbol = ""
	c.LoanTokenAddress = ""

	assert.NoError(t, c.Validate())
}
