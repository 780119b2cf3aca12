package guard

import (
	"strconv"
	"strings"

	"arbengine/pkg/types"
)

// Classify maps an error message (and, when available, a JSON-RPC error
// code) to one of the ErrorKinds from spec.md §4.6. Matching is case
// insensitive substring matching on the message; code -32005/-32000
// force RATE_LIMIT regardless of message text.
func Classify(code int, message string) types.ErrorKind {
	msg := strings.ToLower(message)

	if code == -32005 || code == -32000 || strings.Contains(msg, "rate limit") {
		return types.ErrRateLimit
	}
	switch {
	case strings.Contains(msg, "insufficient liquidity"):
		return types.ErrNoLiquidity
	case strings.Contains(msg, "execution reverted"):
		return types.ErrRevert
	case strings.Contains(msg, "nonce"):
		return types.ErrNonce
	case strings.Contains(msg, "underpriced"):
		return types.ErrReplacementUnderpriced
	case strings.Contains(msg, "intrinsic gas"):
		return types.ErrOutOfGas
	default:
		return types.ErrUnknown
	}
}

// ClassifyError is a convenience wrapper for plain Go errors that don't
// carry a distinct JSON-RPC code.
func ClassifyError(err error) types.ErrorKind {
	if err == nil {
		return types.ErrUnknown
	}
	return Classify(0, err.Error())
}

// ClassifyCoded extracts a JSON-RPC error code from err when the
// underlying client exposes one (go-ethereum's rpc.Error interface),
// falling back to message-only classification otherwise.
func ClassifyCoded(err error) types.ErrorKind {
	if err == nil {
		return types.ErrUnknown
	}
	if ec, ok := err.(interface{ ErrorCode() int }); ok {
		return Classify(ec.ErrorCode(), err.Error())
	}
	// some providers embed the code as a bracketed numeral in the message
	msg := err.Error()
	if idx := strings.Index(msg, "-320"); idx >= 0 {
		end := idx + 1
		for end < len(msg) && (msg[end] >= '0' && msg[end] <= '9') {
			end++
		}
		if code, convErr := strconv.Atoi(msg[idx:end]); convErr == nil {
			return Classify(code, msg)
		}
	}
	return Classify(0, msg)
}
