package rpc_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Mohsinsiddi/nftmint/internal/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// node serves eth_blockNumber and eth_chainId after delay.
func node(t *testing.T, block, chainID string, delay time.Duration) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string `json:"method"`
			ID     int    `json:"id"`
		}
		json.NewDecoder(r.Body).Decode(&req) //nolint:errcheck
		time.Sleep(delay)

		resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}
		switch req.Method {
		case "eth_blockNumber":
			resp["result"] = block
		case "eth_chainId":
			resp["result"] = chainID
		default:
			resp["error"] = map[string]interface{}{"code": -32601, "message": "method not found"}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp) //nolint:errcheck
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func deadURL(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	return url
}

func TestProbeHealthy(t *testing.T) {
	url := node(t, "0x64", "0x2105", 0)
	ep := rpc.Probe(context.Background(), url, 8453)

	assert.True(t, ep.Checked)
	assert.True(t, ep.Healthy)
	require.NoError(t, ep.Err)
	assert.Equal(t, uint64(100), ep.BlockNumber)
	assert.Equal(t, int64(8453), ep.ChainID)
	assert.Positive(t, ep.Latency)
}

func TestProbeWrongChain(t *testing.T) {
	url := node(t, "0x64", "0x1", 0)
	ep := rpc.Probe(context.Background(), url, 8453)

	assert.False(t, ep.Healthy)
	assert.ErrorIs(t, ep.Err, rpc.ErrWrongChain)

	ep = rpc.Probe(context.Background(), url, 0)
	assert.True(t, ep.Healthy, "chain id is not checked when none is expected")
}

func TestProbeUnreachable(t *testing.T) {
	ep := rpc.Probe(context.Background(), deadURL(t), 1)
	assert.True(t, ep.Checked)
	assert.False(t, ep.Healthy)
	assert.Error(t, ep.Err)
}

func TestBenchmarkPreservesOrder(t *testing.T) {
	urls := []string{
		node(t, "0x10", "0x1", 20*time.Millisecond),
		deadURL(t),
		node(t, "0x11", "0x1", 0),
	}
	results := rpc.Benchmark(context.Background(), urls, 1)

	require.Len(t, results, 3)
	for i, u := range urls {
		assert.Equal(t, u, results[i].URL)
	}
	assert.True(t, results[0].Healthy)
	assert.False(t, results[1].Healthy)
	assert.True(t, results[2].Healthy)
}

func TestSelect(t *testing.T) {
	slow := node(t, "0x64", "0x1", 80*time.Millisecond)
	fast := node(t, "0x64", "0x1", 0)
	wrong := node(t, "0x64", "0x89", 0)

	got, err := rpc.Select(context.Background(), []string{slow, wrong, fast}, rpc.AlgorithmFastest, 1)
	require.NoError(t, err)
	assert.Equal(t, fast, got)

	got, err = rpc.Select(context.Background(), []string{wrong, slow}, rpc.AlgorithmFailover, 1)
	require.NoError(t, err)
	assert.Equal(t, slow, got)

	_, err = rpc.Select(context.Background(), []string{wrong, deadURL(t)}, rpc.AlgorithmFastest, 1)
	assert.ErrorIs(t, err, rpc.ErrNoHealthyRPC)
}

func TestSelectShortcuts(t *testing.T) {
	got, err := rpc.Select(context.Background(), []string{"https://only.rpc.example.com"}, rpc.AlgorithmFastest, 1)
	require.NoError(t, err)
	assert.Equal(t, "https://only.rpc.example.com", got, "single URL is not probed")

	_, err = rpc.Select(context.Background(), nil, rpc.AlgorithmFastest, 1)
	assert.ErrorIs(t, err, rpc.ErrNoHealthyRPC)
}

func TestCandidates(t *testing.T) {
	got := rpc.Candidates(
		[]string{"https://mine.rpc", "https://public.rpc"},
		[]string{"https://public.rpc", "", "https://other.rpc"},
	)
	assert.Equal(t, []string{"https://mine.rpc", "https://public.rpc", "https://other.rpc"}, got)
	assert.Empty(t, rpc.Candidates(nil, nil))
}
