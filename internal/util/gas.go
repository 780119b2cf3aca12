package util

import (
	"fmt"
	"math/big"

	gethtypes "github.com/ethereum/go-ethereum/core/types"
)

// ExtractGasCost computes gasUsed * effectiveGasPrice in wei from a
// confirmed transaction receipt, the way the teacher's staking flows total
// up TransactionRecord.GasCost for every step of a multi-transaction
// operation.
func ExtractGasCost(receipt *gethtypes.Receipt) (*big.Int, error) {
	if receipt == nil {
		return nil, fmt.Errorf("nil receipt")
	}
	if receipt.EffectiveGasPrice == nil {
		return nil, fmt.Errorf("receipt missing effective gas price")
	}
	gasUsed := new(big.Int).SetUint64(receipt.GasUsed)
	return new(big.Int).Mul(gasUsed, receipt.EffectiveGasPrice), nil
}
