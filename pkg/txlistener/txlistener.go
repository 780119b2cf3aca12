// Package txlistener polls for transaction receipts, the suspension point
// spec.md §5 calls out as "tx.wait()". Grounded on the teacher's
// pkg/txlistener.TxListener (constructed with functional options in
// cmd/main.go and blackhole_test.go).
package txlistener

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// TxListener waits for a submitted transaction to be mined.
type TxListener interface {
	WaitForTransaction(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

type listener struct {
	client       *ethclient.Client
	pollInterval time.Duration
	timeout      time.Duration
}

// Option configures a listener.
type Option func(*listener)

// WithPollInterval sets how often the receipt is polled for. Default 3s.
func WithPollInterval(d time.Duration) Option {
	return func(l *listener) { l.pollInterval = d }
}

// WithTimeout bounds how long WaitForTransaction will poll before giving
// up. Default 5 minutes.
func WithTimeout(d time.Duration) Option {
	return func(l *listener) { l.timeout = d }
}

// NewTxListener builds a TxListener polling through client.
func NewTxListener(client *ethclient.Client, opts ...Option) TxListener {
	l := &listener{
		client:       client,
		pollInterval: 3 * time.Second,
		timeout:      5 * time.Minute,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// WaitForTransaction blocks until hash is mined, the listener's timeout
// elapses, or ctx is cancelled — whichever comes first. Spec.md §5 allows
// this call to hang indefinitely from the scan loop's point of view; the
// timeout here is this package's own safety net so a wedged RPC provider
// cannot hang a process forever.
func (l *listener) WaitForTransaction(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	ticker := time.NewTicker(l.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := l.client.TransactionReceipt(ctx, hash)
		switch {
		case err == nil:
			return receipt, nil
		case errors.Is(err, ethereum.NotFound):
			// not yet mined, keep polling
		default:
			return nil, fmt.Errorf("fetch receipt %s: %w", hash.Hex(), err)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("timed out waiting for receipt %s: %w", hash.Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}
