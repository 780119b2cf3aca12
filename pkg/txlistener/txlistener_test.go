package txlistener

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/stretchr/testify/require"
)

type rpcRequest struct {
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method"`
}

// TestWaitForTransaction_PollsUntilMined spins up a fake JSON-RPC server
// that reports the receipt missing on the first poll and present on the
// second, the way a freshly broadcast transaction behaves.
func TestWaitForTransaction_PollsUntilMined(t *testing.T) {
	var calls int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		w.Header().Set("Content-Type", "application/json")
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			w.Write([]byte(`{"jsonrpc":"2.0","id":` + string(req.ID) + `,"result":null}`))
			return
		}
		w.Write([]byte(`{"jsonrpc":"2.0","id":` + string(req.ID) + `,"result":{
			"transactionHash":"0x` + "00000000000000000000000000000000000000000000000000000000000000aa" + `",
			"blockHash":"0x` + "00000000000000000000000000000000000000000000000000000000000000bb" + `",
			"blockNumber":"0x1",
			"cumulativeGasUsed":"0x5208",
			"gasUsed":"0x5208",
			"contractAddress":null,
			"logs":[],
			"logsBloom":"0x` + strings.Repeat("0", 512) + `",
			"status":"0x1"
		}}`))
	}))
	defer srv.Close()

	client, err := ethclient.Dial(srv.URL)
	require.NoError(t, err)

	l := NewTxListener(client, WithPollInterval(5*time.Millisecond), WithTimeout(time.Second))

	receipt, err := l.WaitForTransaction(context.Background(), common.HexToHash("0xaa"))
	require.NoError(t, err)
	require.NotNil(t, receipt)
	require.EqualValues(t, 1, receipt.Status)
	require.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(2))
}
