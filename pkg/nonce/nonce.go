// Package nonce implements the Nonce Manager (SPEC_FULL.md C7): one
// signer's monotonic nonce, reconciled against the network's pending
// transaction count on every call. Grounded on go-ethereum's
// ethclient.Client.PendingNonceAt, the same network primitive the
// teacher's transaction-sending methods rely on implicitly.
package nonce

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// PendingNonceSource is the subset of ethclient.Client the Manager needs;
// narrowed to keep this package testable without a live node.
type PendingNonceSource interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
}

// Manager owns the nonce sequence for exactly one signer address. It is
// not safe to share across multiple signers. Next holds an internal mutex,
// so concurrent calls from several goroutines are serialized.
type Manager struct {
	mu      sync.Mutex
	client  PendingNonceSource
	signer  common.Address
	cached  uint64
	started bool
}

// New constructs a Manager for signer. The first call to Next will seed
// the cached nonce from the network.
func New(client PendingNonceSource, signer common.Address) *Manager {
	return &Manager{client: client, signer: signer}
}

// Next returns the next nonce to use, reconciling against the network's
// pending count each time: cached = max(cached, network), return cached,
// then cached += 1. This guarantees a monotonic non-decreasing sequence
// even if an external actor has also sent transactions from this signer.
func (m *Manager) Next(ctx context.Context) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	network, err := m.client.PendingNonceAt(ctx, m.signer)
	if err != nil {
		return 0, fmt.Errorf("fetch pending nonce for %s: %w", m.signer.Hex(), err)
	}

	if !m.started || network > m.cached {
		m.cached = network
		m.started = true
	}

	next := m.cached
	m.cached++
	return next, nil
}
