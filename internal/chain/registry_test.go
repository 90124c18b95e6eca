package chain_test

import (
	"testing"

	"github.com/Mohsinsiddi/nftmint/internal/chain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryGetByName(t *testing.T) {
	registry := chain.NewRegistry()

	tests := []struct {
		name    string
		chainID int64
	}{
		{"ethereum", 1},
		{"base", 8453},
		{"polygon", 137},
		{"arbitrum", 42161},
		{"optimism", 10},
		{"bnb", 56},
		{"avalanche", 43114},
		{"linea", 59144},
		{"zora", 7777777},
		{"localhost", 31337},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := registry.GetByName(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.name, c.Name)
			assert.Equal(t, tt.chainID, c.ChainID)
		})
	}
	assert.Len(t, registry.Names(), len(tests))
}

func TestRegistryGetByNameCaseInsensitive(t *testing.T) {
	c, err := chain.NewRegistry().GetByName("Base")
	require.NoError(t, err)
	assert.Equal(t, "base", c.Name)
}

func TestRegistryGetUnknownChain(t *testing.T) {
	registry := chain.NewRegistry()
	_, err := registry.GetByName("unknownchain")
	assert.ErrorIs(t, err, chain.ErrChainNotFound)
}

func TestAllChainsHaveRPCAndCurrency(t *testing.T) {
	registry := chain.NewRegistry()
	for _, c := range registry.All() {
		t.Run(c.Name, func(t *testing.T) {
			assert.NotEmpty(t, c.MainnetRPCs, "chain %s has no mainnet RPCs", c.Name)
			assert.NotEmpty(t, c.TestnetRPCs, "chain %s has no testnet RPCs", c.Name)
			assert.NotEmpty(t, c.NativeCurrency)
			assert.NotZero(t, c.TestnetChainID)
		})
	}
}

func TestGetByChainID(t *testing.T) {
	registry := chain.NewRegistry()

	c, err := registry.GetByChainID(8453)
	require.NoError(t, err)
	assert.Equal(t, "base", c.Name)

	c, err = registry.GetByChainID(11155111)
	require.NoError(t, err)
	assert.Equal(t, "ethereum", c.Name)

	_, err = registry.GetByChainID(99999999)
	assert.ErrorIs(t, err, chain.ErrChainNotFound)
}

func TestChainByMode(t *testing.T) {
	eth, err := chain.NewRegistry().GetByName("ethereum")
	require.NoError(t, err)

	assert.Equal(t, eth.MainnetRPCs, eth.RPCs("mainnet"))
	assert.Equal(t, eth.TestnetRPCs, eth.RPCs("testnet"))
	assert.Equal(t, int64(1), eth.ID("mainnet"))
	assert.Equal(t, int64(11155111), eth.ID("testnet"))
	assert.Equal(t, "Ethereum Sepolia", eth.NetworkName("testnet"))
	assert.Equal(t, "Ethereum", eth.NetworkName("mainnet"))
	assert.Equal(t, "https://sepolia.etherscan.io/tx/0xabc", eth.TxURL("testnet", "0xabc"))
}

func TestTxURLWithoutExplorer(t *testing.T) {
	local, err := chain.NewRegistry().GetByName("localhost")
	require.NoError(t, err)
	assert.Empty(t, local.TxURL("mainnet", "0xabc"))
}
