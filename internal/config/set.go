package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// setters maps user-facing keys to field assignments for `config set`.
var setters = map[string]func(c *Config, v string) error{
	"default_network":  func(c *Config, v string) error { c.DefaultNetwork = strings.ToLower(v); return nil },
	"default_wallet":   func(c *Config, v string) error { c.DefaultWallet = v; return nil },
	"abi_path":         func(c *Config, v string) error { c.ABIPath = v; return nil },
	"pinning_url":      func(c *Config, v string) error { c.PinningURL = strings.TrimRight(v, "/"); return nil },
	"gateway_url":      func(c *Config, v string) error { c.GatewayURL = strings.TrimRight(v, "/"); return nil },
	"manifest_path":    func(c *Config, v string) error { c.ManifestPath = v; return nil },
	"contract_address": func(c *Config, v string) error {
		if !common.IsHexAddress(v) {
			return fmt.Errorf("contract_address %q is not a hex address", v)
		}
		c.ContractAddress = common.HexToAddress(v).Hex()
		return nil
	},
	"mint_price": func(c *Config, v string) error {
		if _, err := ParseETH(v); err != nil {
			return err
		}
		c.MintPrice = strings.TrimSpace(v)
		return nil
	},
	"network_mode": func(c *Config, v string) error {
		if v != "mainnet" && v != "testnet" {
			return fmt.Errorf("network_mode must be mainnet or testnet, got %q", v)
		}
		c.NetworkMode = v
		return nil
	},
	"rpc_algorithm": func(c *Config, v string) error {
		switch v {
		case "fastest", "round-robin", "failover":
			c.RPCAlgorithm = v
			return nil
		}
		return fmt.Errorf("unknown rpc_algorithm %q (fastest|round-robin|failover)", v)
	},
	"log_level": func(c *Config, v string) error {
		switch v {
		case "debug", "info", "warn", "error":
			c.LogLevel = v
			return nil
		}
		return fmt.Errorf("unknown log_level %q", v)
	},
	"fiat_currency": func(c *Config, v string) error {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			return fmt.Errorf("fiat_currency must be a currency code such as usd, or off")
		}
		c.FiatCurrency = v
		return nil
	},
	"max_mint_per_run": func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return fmt.Errorf("max_mint_per_run must be a positive integer, got %q", v)
		}
		c.MaxMintPerRun = n
		return nil
	},
	"upload_timeout": func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return fmt.Errorf("upload_timeout must be a positive number of seconds, got %q", v)
		}
		c.UploadTimeout = n
		return nil
	},
}

// Set assigns a config value by key.
func (c *Config) Set(key, value string) error {
	fn, ok := setters[key]
	if !ok {
		return fmt.Errorf("unknown config key %q (valid: %s)", key, strings.Join(Keys(), ", "))
	}
	return fn(c, value)
}

// Keys returns the settable config keys, sorted.
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
