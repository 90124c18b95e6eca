package config

import "time"

// Gas limits used as EstimateGas fallbacks when the node cannot simulate the tx.
const (
	GasLimitMintNFT = uint64(250_000) // mintNFT(string) with a ~60 byte URI
)

// Timeouts.
const (
	RPCSelectTimeout     = 10 * time.Second // BestEVM benchmark / RPC selection
	TxConfirmTimeout     = 3 * time.Minute  // per-mint confirmation wait
	DefaultUploadTimeout = 2 * time.Minute  // one pinning request
)

// Environment variables.
const (
	EnvConfigDir    = "NFTMINT_CONFIG_DIR"
	EnvPinataKey    = "PINATA_API_KEY"
	EnvPinataSecret = "PINATA_SECRET_API_KEY"
)
