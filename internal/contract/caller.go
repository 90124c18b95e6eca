package contract

import (
	"context"
	"fmt"

	"github.com/Mohsinsiddi/nftmint/internal/chain"
)

// Caller calls read-only (view/pure) contract functions.
type Caller struct {
	client *chain.EVMClient
	abi    []ABIEntry
}

// NewCaller creates a Caller from already-parsed ABI entries.
func NewCaller(client *chain.EVMClient, abi []ABIEntry) *Caller {
	return &Caller{client: client, abi: abi}
}

// Call calls a read function on a contract and returns decoded results as strings.
func (c *Caller) Call(ctx context.Context, contractAddr, funcName string, args ...string) ([]string, error) {
	fn, err := FindFunction(c.abi, funcName)
	if err != nil {
		return nil, err
	}
	if !fn.IsReadFunction() {
		return nil, fmt.Errorf("function %q is not a read function (stateMutability: %s)", funcName, fn.StateMutability)
	}

	calldata, err := encodeCall(fn, args)
	if err != nil {
		return nil, fmt.Errorf("encoding call: %w", err)
	}

	result, err := c.client.CallContract(ctx, contractAddr, calldata)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", funcName, err)
	}

	decoded, err := decodeResult(fn, result)
	if err != nil {
		return nil, fmt.Errorf("decoding %s result: %w", funcName, err)
	}
	return decoded, nil
}
