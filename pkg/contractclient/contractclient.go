// Package contractclient is the ABI-bound call/send boundary every other
// package in arbengine talks through to reach the chain (component C12 of
// SPEC_FULL.md). It wraps a single ethclient.Client + contract address +
// ABI triple, mirroring the teacher's pkg/contractclient.ContractClient.
package contractclient

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// ContractClient is the narrow interface every component (scanner, finder,
// executor) uses to read and write one on-chain contract.
type ContractClient interface {
	ContractAddress() common.Address
	Abi() abi.ABI

	// Call performs a read-only eth_call against the contract, decoding the
	// outputs of method into Go values in ABI-declared order.
	Call(ctx context.Context, from *common.Address, method string, args ...interface{}) ([]interface{}, error)

	// Send signs and broadcasts a transaction invoking method with a
	// caller-supplied nonce and gas price (the Nonce Manager and the
	// Execution Pipeline's gas model own those decisions; this layer never
	// picks them itself).
	Send(ctx context.Context, from *common.Address, key *ecdsa.PrivateKey, nonce uint64, gasLimit uint64, gasPrice *big.Int, method string, args ...interface{}) (common.Hash, error)

	// TransactionData fetches the calldata of a mined transaction by hash.
	TransactionData(ctx context.Context, hash common.Hash) ([]byte, error)

	// DecodeTransaction decodes raw calldata (4-byte selector + packed
	// args) against this client's ABI.
	DecodeTransaction(data []byte) (*DecodedCall, error)
}

// DecodedCall is the result of matching calldata against an ABI method.
type DecodedCall struct {
	MethodName string                 `json:"methodName"`
	Parameters map[string]interface{} `json:"parameters"`
}

type client struct {
	eth     *ethclient.Client
	address common.Address
	abi     abi.ABI
	chainID *big.Int
}

// New constructs a ContractClient bound to one deployed contract. The
// chain ID is fetched lazily from the node on the first Send.
func New(eth *ethclient.Client, address common.Address, contractABI abi.ABI) ContractClient {
	return &client{eth: eth, address: address, abi: contractABI}
}

func (c *client) ContractAddress() common.Address { return c.address }
func (c *client) Abi() abi.ABI                     { return c.abi }

func (c *client) Call(ctx context.Context, from *common.Address, method string, args ...interface{}) ([]interface{}, error) {
	input, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := callMsg(from, c.address, input)
	out, err := c.eth.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := c.abi.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return values, nil
}

func (c *client) Send(ctx context.Context, from *common.Address, key *ecdsa.PrivateKey, nonce uint64, gasLimit uint64, gasPrice *big.Int, method string, args ...interface{}) (common.Hash, error) {
	input, err := c.abi.Pack(method, args...)
	if err != nil {
		return common.Hash{}, fmt.Errorf("pack %s: %w", method, err)
	}

	if c.chainID == nil {
		id, err := c.eth.ChainID(ctx)
		if err != nil {
			return common.Hash{}, fmt.Errorf("fetch chain id: %w", err)
		}
		c.chainID = id
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &c.address,
		Value:    big.NewInt(0),
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     input,
	})

	signer := types.LatestSignerForChainID(c.chainID)
	signedTx, err := types.SignTx(tx, signer, key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("sign %s: %w", method, err)
	}

	if err := c.eth.SendTransaction(ctx, signedTx); err != nil {
		return common.Hash{}, fmt.Errorf("broadcast %s: %w", method, err)
	}
	return signedTx.Hash(), nil
}

func (c *client) TransactionData(ctx context.Context, hash common.Hash) ([]byte, error) {
	tx, _, err := c.eth.TransactionByHash(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("fetch tx %s: %w", hash.Hex(), err)
	}
	return tx.Data(), nil
}

func (c *client) DecodeTransaction(data []byte) (*DecodedCall, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("calldata too short: %d bytes", len(data))
	}
	method, err := c.abi.MethodById(data[:4])
	if err != nil {
		return nil, fmt.Errorf("lookup method by selector: %w", err)
	}
	values := make(map[string]interface{})
	if err := method.Inputs.UnpackIntoMap(values, data[4:]); err != nil {
		return nil, fmt.Errorf("unpack %s args: %w", method.Name, err)
	}
	return &DecodedCall{MethodName: method.Name, Parameters: values}, nil
}

// AddressFromKey is a small convenience wrapper used by the entrypoint and
// tests to derive the signer address from a decrypted private key.
func AddressFromKey(key *ecdsa.PrivateKey) common.Address {
	return crypto.PubkeyToAddress(key.PublicKey)
}
