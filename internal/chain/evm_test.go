package chain

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

// rpcMock creates a test HTTP server that serves a fixed JSON-RPC response
// per method. Pass method→result pairs; any unknown method returns an RPC error.
func rpcMock(t *testing.T, responses map[string]interface{}) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string `json:"method"`
			ID     int    `json:"id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if result, ok := responses[req.Method]; ok {
			json.NewEncoder(w).Encode(map[string]interface{}{ //nolint:errcheck
				"jsonrpc": "2.0",
				"id":      req.ID,
				"result":  result,
			})
		} else {
			json.NewEncoder(w).Encode(map[string]interface{}{ //nolint:errcheck
				"jsonrpc": "2.0",
				"id":      req.ID,
				"error":   map[string]interface{}{"code": -32601, "message": "method not found"},
			})
		}
	}))
}

// rpcErrorServer creates a test HTTP server that always returns a JSON-RPC error.
func rpcErrorServer(t *testing.T, code int, msg string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct{ ID int `json:"id"` }
		json.NewDecoder(r.Body).Decode(&req) //nolint:errcheck
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{ //nolint:errcheck
			"jsonrpc": "2.0",
			"id":      req.ID,
			"error":   map[string]interface{}{"code": code, "message": msg},
		})
	}))
}

// rpcBadJSON creates a server that returns malformed JSON.
func rpcBadJSON(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{not valid json`)) //nolint:errcheck
	}))
}

var ctx = context.Background()

// ---------------------------------------------------------------------------
// conversions
// ---------------------------------------------------------------------------

func TestWeiToETH(t *testing.T) {
	assert.Equal(t, "0.000000000000000000", weiToETH(big.NewInt(0)))
	assert.Equal(t, "1.000000000000000000", weiToETH(new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)))
	assert.Equal(t, "0.010000000000000000", WeiToETH(big.NewInt(10_000_000_000_000_000)))
}

func TestParseBigHex(t *testing.T) {
	n, ok := parseBigHex("0x1a")
	require.True(t, ok)
	assert.Equal(t, int64(26), n.Int64())

	n, ok = parseBigHex("FF")
	require.True(t, ok)
	assert.Equal(t, int64(255), n.Int64())

	_, ok = parseBigHex("0x")
	assert.False(t, ok)
	_, ok = parseBigHex("zz")
	assert.False(t, ok)
}

func TestWeiToGwei(t *testing.T) {
	assert.Equal(t, 1.5, WeiToGwei(big.NewInt(1_500_000_000)))
	assert.Zero(t, WeiToGwei(nil))
}

// ---------------------------------------------------------------------------
// EVMClient calls
// ---------------------------------------------------------------------------

func TestGetBalanceSuccess(t *testing.T) {
	srv := rpcMock(t, map[string]interface{}{"eth_getBalance": "0xde0b6b3a7640000"})
	defer srv.Close()

	bal, err := NewEVMClient(srv.URL).GetBalance(ctx, "0xabc")
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000000", bal.Wei.String())
	assert.Equal(t, "1.000000000000000000", bal.ETH)
}

func TestGetBalanceRPCError(t *testing.T) {
	srv := rpcErrorServer(t, -32000, "header not found")
	defer srv.Close()

	_, err := NewEVMClient(srv.URL).GetBalance(ctx, "0xabc")
	var rpcErr *RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, -32000, rpcErr.Code)
	assert.Contains(t, err.Error(), "header not found")
}

func TestGetBalanceConnectionRefused(t *testing.T) {
	_, err := NewEVMClient("http://127.0.0.1:19991").GetBalance(ctx, "0xabc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RPC request failed")
}

func TestGetBalanceInvalidJSON(t *testing.T) {
	srv := rpcBadJSON(t)
	defer srv.Close()

	_, err := NewEVMClient(srv.URL).GetBalance(ctx, "0xabc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing response")
}

func TestScalarCalls(t *testing.T) {
	srv := rpcMock(t, map[string]interface{}{
		"eth_blockNumber":         "0x10",
		"eth_chainId":             "0xaa36a7",
		"eth_gasPrice":            "0x3b9aca00",
		"eth_getTransactionCount": "0x5",
		"eth_estimateGas":         "0x5208",
	})
	defer srv.Close()
	c := NewEVMClient(srv.URL)

	bn, err := c.GetBlockNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(16), bn)

	id, err := c.ChainID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(11155111), id)

	gp, err := c.GasPrice(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1_000_000_000), gp.Int64())

	nonce, err := c.GetNonce(ctx, "0xabc")
	require.NoError(t, err)
	assert.Equal(t, uint64(5), nonce)

	pending, err := c.GetPendingNonce(ctx, "0xabc")
	require.NoError(t, err)
	assert.Equal(t, uint64(5), pending)

	gas, err := c.EstimateGas(ctx, "0xabc", "0xdef", "0x", big.NewInt(1))
	require.NoError(t, err)
	assert.Equal(t, uint64(21000), gas)
}

func TestEstimateGasSendsValue(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Params []json.RawMessage `json:"params"`
		}
		json.NewDecoder(r.Body).Decode(&req) //nolint:errcheck
		json.Unmarshal(req.Params[0], &got)  //nolint:errcheck
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":"0x100"}`)) //nolint:errcheck
	}))
	defer srv.Close()

	_, err := NewEVMClient(srv.URL).EstimateGas(ctx, "0xfrom", "0xto", "0x1234", big.NewInt(10_000_000_000_000_000))
	require.NoError(t, err)
	assert.Equal(t, "0xfrom", got["from"])
	assert.Equal(t, "0xto", got["to"])
	assert.Equal(t, "0x1234", got["data"])
	assert.Equal(t, "0x2386f26fc10000", got["value"])
}

func TestCallContractSuccess(t *testing.T) {
	srv := rpcMock(t, map[string]interface{}{"eth_call": "0x" + "00000000000000000000000000000000000000000000000000000000000000ff"})
	defer srv.Close()

	out, err := NewEVMClient(srv.URL).CallContract(ctx, "0xcontract", "0x12345678")
	require.NoError(t, err)
	assert.Len(t, out, 66)
}

func TestSendRawTransaction(t *testing.T) {
	srv := rpcMock(t, map[string]interface{}{"eth_sendRawTransaction": "0xhash"})
	defer srv.Close()

	hash, err := NewEVMClient(srv.URL).SendRawTransaction(ctx, "0xf86c")
	require.NoError(t, err)
	assert.Equal(t, "0xhash", hash)
}

func TestSimulateCallRevert(t *testing.T) {
	srv := rpcErrorServer(t, 3, "execution reverted: Insufficient payment")
	defer srv.Close()

	ok, reason, err := NewEVMClient(srv.URL).SimulateCall(ctx, "0xa", "0xb", "0x", nil)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "execution reverted: Insufficient payment", reason)
}

func TestSimulateCallNetworkError(t *testing.T) {
	srv := rpcErrorServer(t, -32603, "internal error")
	defer srv.Close()

	_, _, err := NewEVMClient(srv.URL).SimulateCall(ctx, "0xa", "0xb", "0x", nil)
	assert.Error(t, err)
}

// ---------------------------------------------------------------------------
// receipts
// ---------------------------------------------------------------------------

func TestGetTransactionReceiptPending(t *testing.T) {
	srv := rpcMock(t, map[string]interface{}{"eth_getTransactionReceipt": nil})
	defer srv.Close()

	r, err := NewEVMClient(srv.URL).GetTransactionReceipt(ctx, "0xhash")
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestGetTransactionReceiptMined(t *testing.T) {
	srv := rpcMock(t, map[string]interface{}{"eth_getTransactionReceipt": map[string]interface{}{
		"status":      "0x1",
		"blockNumber": "0x64",
		"gasUsed":     "0x1e240",
		"logs": []map[string]interface{}{
			{"address": "0xc", "topics": []string{"0xddf2"}, "data": "0x"},
		},
	}})
	defer srv.Close()

	r, err := NewEVMClient(srv.URL).GetTransactionReceipt(ctx, "0xhash")
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, uint64(1), r.Status)
	assert.Equal(t, uint64(100), r.BlockNumber)
	assert.Equal(t, uint64(123456), r.GasUsed)
	require.Len(t, r.Logs, 1)
	assert.Equal(t, "0xc", r.Logs[0].Address)
}

// receiptAfter serves a pending receipt for the first n polls, then a mined
// one with the given status.
func receiptAfter(t *testing.T, n int32, status string) *httptest.Server {
	t.Helper()
	var polls atomic.Int32
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if polls.Add(1) <= n {
			w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":null}`)) //nolint:errcheck
			return
		}
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"status":"` + status + `","blockNumber":"0x2","gasUsed":"0x1"}}`)) //nolint:errcheck
	}))
}

func TestWaitForReceiptPolls(t *testing.T) {
	srv := receiptAfter(t, 2, "0x1")
	defer srv.Close()

	c := NewEVMClient(srv.URL)
	c.PollInterval = 5 * time.Millisecond
	r, err := c.WaitForReceipt(ctx, "0xhash", time.Second)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), r.BlockNumber)
}

func TestWaitForReceiptReverted(t *testing.T) {
	srv := receiptAfter(t, 0, "0x0")
	defer srv.Close()

	r, err := NewEVMClient(srv.URL).WaitForReceipt(ctx, "0xhash", time.Second)
	assert.ErrorIs(t, err, ErrReverted)
	require.NotNil(t, r)
	assert.Zero(t, r.Status)
}

func TestWaitForReceiptTimeout(t *testing.T) {
	srv := receiptAfter(t, 1000, "0x1")
	defer srv.Close()

	c := NewEVMClient(srv.URL)
	c.PollInterval = 5 * time.Millisecond
	_, err := c.WaitForReceipt(ctx, "0xhash", 30*time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not mined within")
}

func TestWaitForReceiptCanceled(t *testing.T) {
	srv := receiptAfter(t, 1000, "0x1")
	defer srv.Close()

	c := NewEVMClient(srv.URL)
	c.PollInterval = 5 * time.Millisecond
	cctx, cancel := context.WithCancel(ctx)
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := c.WaitForReceipt(cctx, "0xhash", time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
}

// ---------------------------------------------------------------------------
// Ping / fees
// ---------------------------------------------------------------------------

func TestPing(t *testing.T) {
	srv := rpcMock(t, map[string]interface{}{"eth_blockNumber": "0x1312d00"})
	defer srv.Close()

	latency, block, err := NewEVMClient(srv.URL).Ping(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(20_000_000), block)
	assert.Greater(t, latency, time.Duration(0))
}

func TestSuggestFeesEIP1559(t *testing.T) {
	srv := rpcMock(t, map[string]interface{}{
		"eth_gasPrice":         "0x77359400", // 2 gwei
		"eth_getBlockByNumber": map[string]interface{}{"baseFeePerGas": "0x3b9aca00"}, // 1 gwei
	})
	defer srv.Close()

	fees, err := NewEVMClient(srv.URL).SuggestFees(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1_000_000_000), fees.BaseFee.Int64())
	assert.Equal(t, int64(1_000_000_000), fees.GasTipCap.Int64())
	assert.Equal(t, int64(3_000_000_000), fees.GasFeeCap.Int64())
}

func TestSuggestFeesLegacy(t *testing.T) {
	srv := rpcMock(t, map[string]interface{}{
		"eth_gasPrice":         "0x3b9aca00",
		"eth_getBlockByNumber": map[string]interface{}{"number": "0x1"},
	})
	defer srv.Close()

	fees, err := NewEVMClient(srv.URL).SuggestFees(ctx)
	require.NoError(t, err)
	assert.Nil(t, fees.BaseFee)
	assert.Equal(t, fees.GasTipCap, fees.GasFeeCap)
}
