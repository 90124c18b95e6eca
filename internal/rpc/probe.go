package rpc

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Mohsinsiddi/nftmint/internal/chain"
)

// ProbeTimeout bounds a single endpoint probe.
var ProbeTimeout = 5 * time.Second

// Probe measures one endpoint. When wantChainID is non-zero an endpoint
// reporting another chain id is marked unhealthy with ErrWrongChain.
func Probe(ctx context.Context, url string, wantChainID int64) Endpoint {
	ctx, cancel := context.WithTimeout(ctx, ProbeTimeout)
	defer cancel()

	c := chain.NewEVMClient(url)
	ep := Endpoint{URL: url, Checked: true}

	latency, block, err := c.Ping(ctx)
	ep.Latency = latency
	if err != nil {
		ep.Err = err
		return ep
	}
	ep.BlockNumber = block

	if wantChainID != 0 {
		id, err := c.ChainID(ctx)
		if err != nil {
			ep.Err = err
			return ep
		}
		ep.ChainID = id
		if id != wantChainID {
			got := fmt.Sprint(id)
			if c, err := chain.NewRegistry().GetByChainID(id); err == nil {
				got += " (" + c.Name + ")"
			}
			ep.Err = fmt.Errorf("%w: got %s, want %d", ErrWrongChain, got, wantChainID)
			return ep
		}
	}

	ep.Healthy = true
	return ep
}

// Benchmark probes all urls in parallel. Results keep the order of urls.
func Benchmark(ctx context.Context, urls []string, wantChainID int64) []Endpoint {
	results := make([]Endpoint, len(urls))
	var wg sync.WaitGroup

	for i, url := range urls {
		wg.Add(1)
		go func(idx int, u string) {
			defer wg.Done()
			results[idx] = Probe(ctx, u, wantChainID)
		}(i, url)
	}

	wg.Wait()
	return results
}

// Select returns the endpoint to use. A single URL is returned without
// probing; otherwise every URL is benchmarked and the picker decides.
func Select(ctx context.Context, urls []string, algo Algorithm, wantChainID int64) (string, error) {
	switch len(urls) {
	case 0:
		return "", ErrNoHealthyRPC
	case 1:
		return urls[0], nil
	}

	winner, err := NewPicker(algo).Pick(Benchmark(ctx, urls, wantChainID))
	if err != nil {
		return "", err
	}
	return winner.URL, nil
}

// Candidates merges user-configured URLs ahead of the registry defaults,
// dropping duplicates.
func Candidates(custom, defaults []string) []string {
	seen := make(map[string]bool, len(custom)+len(defaults))
	out := make([]string, 0, len(custom)+len(defaults))
	for _, list := range [][]string{custom, defaults} {
		for _, u := range list {
			if u == "" || seen[u] {
				continue
			}
			seen[u] = true
			out = append(out, u)
		}
	}
	return out
}
