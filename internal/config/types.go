package config

import (
	"fmt"
	"math/big"
	"strings"
	"time"
)

// Config holds all nftmint configuration.
type Config struct {
	DefaultNetwork string              `json:"default_network"`
	DefaultWallet  string              `json:"default_wallet"`
	NetworkMode    string              `json:"network_mode"`  // "mainnet" | "testnet"
	RPCAlgorithm   string              `json:"rpc_algorithm"` // "fastest" | "round-robin" | "failover"
	CustomRPCs     map[string][]string `json:"custom_rpcs"`

	// Minting.
	ContractAddress string `json:"contract_address"`
	MintPrice       string `json:"mint_price"` // ETH per token, e.g. "0.01"
	MaxMintPerRun   int    `json:"max_mint_per_run"`
	ABIPath         string `json:"abi_path,omitempty"` // optional Hardhat/Foundry artifact

	// Pinning and metadata.
	PinningURL    string `json:"pinning_url"`
	GatewayURL    string `json:"gateway_url"`
	ManifestPath  string `json:"manifest_path"`
	UploadTimeout int    `json:"upload_timeout"` // seconds

	LogLevel     string `json:"log_level"`
	FiatCurrency string `json:"fiat_currency"` // "off" hides fiat estimates

	// Credentials are never persisted; they come from the environment.
	PinataAPIKey    string `json:"-"`
	PinataSecretKey string `json:"-"`

	// internal: config dir path used for Save()
	configDir string
}

// UploadTimeoutDuration returns the pinning HTTP timeout.
func (c *Config) UploadTimeoutDuration() time.Duration {
	if c.UploadTimeout <= 0 {
		return DefaultUploadTimeout
	}
	return time.Duration(c.UploadTimeout) * time.Second
}

var weiPerEther = new(big.Rat).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))

// MintPriceWei converts the configured ETH price to wei. The conversion is
// exact; prices with more than 18 decimals are rejected.
func (c *Config) MintPriceWei() (*big.Int, error) {
	return ParseETH(c.MintPrice)
}

// ParseETH converts a decimal ETH amount such as "0.01" to wei.
func ParseETH(s string) (*big.Int, error) {
	r, ok := new(big.Rat).SetString(strings.TrimSpace(s))
	if !ok {
		return nil, fmt.Errorf("invalid ETH amount %q", s)
	}
	if r.Sign() < 0 {
		return nil, fmt.Errorf("ETH amount %q is negative", s)
	}
	r.Mul(r, weiPerEther)
	if !r.IsInt() {
		return nil, fmt.Errorf("ETH amount %q has more than 18 decimals", s)
	}
	return new(big.Int).Set(r.Num()), nil
}
