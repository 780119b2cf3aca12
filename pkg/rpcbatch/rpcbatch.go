// Package rpcbatch implements the Batch RPC contract (SPEC_FULL.md C1):
// a slice of {to, data} eth_call requests in, a same-length slice of
// optional results out, with jittered retry on rate-limited providers.
// Grounded on github.com/ethereum/go-ethereum/rpc's BatchCallContext, the
// provider-native batch framing spec.md explicitly allows.
package rpcbatch

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"golang.org/x/time/rate"
)

// requestLimiter throttles outbound eth_call batch dispatch across the
// whole process, so a scan stays under a typical public-RPC provider's
// rate-limit threshold proactively rather than only reacting to -32005
// after the fact.
var requestLimiter = rate.NewLimiter(rate.Limit(40), 40)

// MaxRetries and BaseDelay are the spec's batch retry constants: up to 5
// attempts per batch, backing off BaseDelay × attempt × (1 + rand[0,1)).
const (
	MaxRetries = 5
	BaseDelay  = 150 * time.Millisecond
)

// Call is one outbound eth_call request: the target contract and its
// packed calldata.
type Call struct {
	To   common.Address
	Data []byte
}

// BatchCall performs batch_call: it resolves every call in calls against
// the chain "latest" state, via one or more eth_call JSON-RPC batches.
// The returned slice always has len(calls) entries; a nil entry marks a
// call that failed even after retries — the caller's scan proceeds with
// the remaining results rather than aborting.
func BatchCall(ctx context.Context, client *rpc.Client, calls []Call) []*hexutil.Bytes {
	results := make([]*hexutil.Bytes, len(calls))
	if len(calls) == 0 {
		return results
	}

	batch := make([]rpc.BatchElem, len(calls))
	for i, c := range calls {
		out := new(hexutil.Bytes)
		batch[i] = rpc.BatchElem{
			Method: "eth_call",
			Args: []interface{}{
				map[string]interface{}{
					"to":   c.To,
					"data": hexutil.Bytes(c.Data),
				},
				"latest",
			},
			Result: out,
		}
	}

	for attempt := 1; attempt <= MaxRetries; attempt++ {
		if err := requestLimiter.Wait(ctx); err != nil {
			return results
		}
		err := client.BatchCallContext(ctx, batch)
		if err == nil && !anyRateLimited(batch) {
			break
		}
		if err != nil && !isRateLimit(err) && !anyRateLimited(batch) {
			// non-rate-limit failure aborts the whole batch; slots stay nil
			return results
		}
		if attempt == MaxRetries {
			break
		}
		sleepJittered(ctx, attempt)
	}

	for i, elem := range batch {
		if elem.Error != nil {
			continue
		}
		if b, ok := elem.Result.(*hexutil.Bytes); ok && b != nil {
			results[i] = b
		}
	}
	return results
}

func anyRateLimited(batch []rpc.BatchElem) bool {
	for _, elem := range batch {
		if elem.Error != nil && isRateLimit(elem.Error) {
			return true
		}
	}
	return false
}

func isRateLimit(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "rate limit") {
		return true
	}
	if ec, ok := err.(interface{ ErrorCode() int }); ok {
		code := ec.ErrorCode()
		return code == -32005 || code == -32000
	}
	return strings.Contains(msg, "-32005") || strings.Contains(msg, "-32000")
}

func sleepJittered(ctx context.Context, attempt int) {
	jitter := 1 + rand.Float64()
	delay := time.Duration(float64(BaseDelay) * float64(attempt) * jitter)
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
