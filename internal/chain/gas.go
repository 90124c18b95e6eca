package chain

import (
	"context"
	"encoding/json"
	"math/big"
)

// FeeSuggestion holds EIP-1559 fee parameters for a new transaction.
type FeeSuggestion struct {
	BaseFee   *big.Int // nil on legacy chains
	GasTipCap *big.Int
	GasFeeCap *big.Int
}

// SuggestFees derives fee caps from eth_gasPrice and the latest block's base
// fee. The fee cap is twice the base fee plus the tip, so the transaction
// stays valid across a few full blocks. Chains without a base fee get
// tip = fee cap = gas price.
func (c *EVMClient) SuggestFees(ctx context.Context) (*FeeSuggestion, error) {
	gp, err := c.GasPrice(ctx)
	if err != nil {
		return nil, err
	}

	fees := &FeeSuggestion{GasTipCap: gp, GasFeeCap: gp}
	if bf := c.baseFee(ctx); bf != nil {
		tip := new(big.Int).Sub(gp, bf)
		if tip.Sign() <= 0 {
			tip = big.NewInt(1)
		}
		fees.BaseFee = bf
		fees.GasTipCap = tip
		fees.GasFeeCap = new(big.Int).Add(new(big.Int).Mul(bf, big.NewInt(2)), tip)
	}
	return fees, nil
}

func (c *EVMClient) baseFee(ctx context.Context) *big.Int {
	result, err := c.callCtx(ctx, "eth_getBlockByNumber", "latest", false)
	if err != nil || result == nil {
		return nil
	}
	raw, _ := json.Marshal(result)
	var rb struct {
		BaseFeePerGas string `json:"baseFeePerGas"`
	}
	if json.Unmarshal(raw, &rb) != nil || rb.BaseFeePerGas == "" {
		return nil
	}
	bf, ok := parseBigHex(rb.BaseFeePerGas)
	if !ok {
		return nil
	}
	return bf
}

// WeiToGwei converts a Wei value to Gwei as float64.
func WeiToGwei(wei *big.Int) float64 {
	if wei == nil {
		return 0
	}
	f, _ := new(big.Float).Quo(
		new(big.Float).SetInt(wei),
		new(big.Float).SetFloat64(1e9),
	).Float64()
	return f
}
