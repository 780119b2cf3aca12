package guard

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arbengine/pkg/types"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		code int
		msg  string
		want types.ErrorKind
	}{
		{"no liquidity", 0, "execution reverted: insufficient liquidity", types.ErrNoLiquidity},
		{"generic revert", 0, "execution reverted", types.ErrRevert},
		{"nonce too low", 0, "nonce too low", types.ErrNonce},
		{"underpriced", 0, "replacement transaction underpriced", types.ErrReplacementUnderpriced},
		{"rate limit by message", 0, "you have been rate limited", types.ErrRateLimit},
		{"rate limit by code -32005", -32005, "backend error", types.ErrRateLimit},
		{"rate limit by code -32000", -32000, "backend error", types.ErrRateLimit},
		{"out of gas", 0, "intrinsic gas too low", types.ErrOutOfGas},
		{"unknown", 0, "something else entirely", types.ErrUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.code, tc.msg))
		})
	}
}

func TestGuard_BlacklistLifecycle(t *testing.T) {
	g := New()
	clock := time.Unix(1_700_000_000, 0)
	g.now = func() time.Time { return clock }

	router := "0xABCDEF0000000000000000000000000000000000"

	t.Run("not blocked before the failure limit", func(t *testing.T) {
		g.RecordFailure(router)
		g.RecordFailure(router)
		assert.False(t, g.ShouldBlockRouter(router))
	})

	t.Run("blocked once failures reach the limit", func(t *testing.T) {
		// the below-limit check above cleared the record, so the count restarts
		for i := 0; i < FailureLimit; i++ {
			g.RecordFailure(router)
		}
		assert.True(t, g.ShouldBlockRouter(router))
	})

	t.Run("auto-clears once the window elapses", func(t *testing.T) {
		clock = clock.Add(BlacklistWindow + time.Second)
		assert.False(t, g.ShouldBlockRouter(router))
		// clearing deletes the record, so an immediate second check also reports clear
		assert.False(t, g.ShouldBlockRouter(router))
	})

	t.Run("router keys are case-insensitive", func(t *testing.T) {
		clock = time.Unix(1_700_000_000, 0)
		for i := 0; i < FailureLimit; i++ {
			g.RecordFailure(strings.ToUpper(router))
		}
		require.True(t, g.ShouldBlockRouter(strings.ToLower(router)))
	})
}
