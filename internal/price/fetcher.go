// Package price quotes native currencies in fiat so mint totals can be
// shown with an approximate value.
package price

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.coingecko.com/api/v3"

// Fetcher retrieves native token prices from CoinGecko.
type Fetcher struct {
	client   *http.Client
	baseURL  string
	currency string
}

// NewFetcher creates a fetcher quoting in currency ("usd" when empty).
func NewFetcher(currency string) *Fetcher {
	if currency == "" {
		currency = "usd"
	}
	return &Fetcher{
		client:   &http.Client{Timeout: 10 * time.Second},
		baseURL:  defaultBaseURL,
		currency: strings.ToLower(currency),
	}
}

// WithBaseURL points the fetcher at another CoinGecko-compatible API.
func (f *Fetcher) WithBaseURL(u string) *Fetcher {
	f.baseURL = strings.TrimRight(u, "/")
	return f
}

// Currency returns the quote currency.
func (f *Fetcher) Currency() string { return f.currency }

// coinGeckoIDs maps chain names to the CoinGecko id of their gas token.
var coinGeckoIDs = map[string]string{
	"ethereum":  "ethereum",
	"base":      "ethereum",
	"arbitrum":  "ethereum",
	"optimism":  "ethereum",
	"linea":     "ethereum",
	"scroll":    "ethereum",
	"zksync":    "ethereum",
	"blast":     "ethereum",
	"zora":      "ethereum",
	"polygon":   "matic-network",
	"bnb":       "binancecoin",
	"avalanche": "avalanche-2",
	"fantom":    "fantom",
	"celo":      "celo",
	"gnosis":    "xdai",
	"mantle":    "mantle",
}

// GetPrice returns the price of chainName's native token.
func (f *Fetcher) GetPrice(ctx context.Context, chainName string) (float64, error) {
	id, ok := coinGeckoIDs[strings.ToLower(chainName)]
	if !ok {
		return 0, fmt.Errorf("no price source for chain %s", chainName)
	}

	url := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=%s", f.baseURL, id, f.currency)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetching price: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("reading price response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("price API returned %d", resp.StatusCode)
	}

	// {"ethereum":{"usd":1234.56}}
	var raw map[string]map[string]float64
	if err := json.Unmarshal(body, &raw); err != nil {
		return 0, fmt.Errorf("parsing price response: %w", err)
	}
	p, ok := raw[id][f.currency]
	if !ok {
		return 0, fmt.Errorf("price not available for %s in %s", id, f.currency)
	}
	return p, nil
}

var weiPerEther = new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))

// Value converts a wei amount to fiat at rate per whole token.
func Value(wei *big.Int, rate float64) float64 {
	if wei == nil {
		return 0
	}
	eth := new(big.Float).Quo(new(big.Float).SetInt(wei), weiPerEther)
	v, _ := new(big.Float).Mul(eth, big.NewFloat(rate)).Float64()
	return v
}

// Format renders a fiat amount, e.g. "≈ 31.20 USD".
func Format(v float64, currency string) string {
	return fmt.Sprintf("≈ %.2f %s", v, strings.ToUpper(currency))
}
