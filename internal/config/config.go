package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/joho/godotenv"
)

const (
	defaultNetwork      = "ethereum"
	defaultMode         = "testnet"
	defaultAlgorithm    = "fastest"
	defaultMintPrice    = "0.01"
	defaultMaxMint      = 10
	defaultPinningURL   = "https://api.pinata.cloud"
	defaultGatewayURL   = "https://gateway.pinata.cloud"
	defaultManifestPath = "metadataURIs.json"
	defaultLogLevel     = "info"
	defaultFiat         = "usd"

	configFile  = "config.json"
	walletsFile = "wallets.json"
	ledgerFile  = "ledger.db"
	logFile     = "nftmint.log"
	envFile     = ".env"
)

// ErrMissingCredentials is returned when the pinning API keys are not set.
var ErrMissingCredentials = errors.New("pinning credentials not set")

// Load reads config from dir (or creates defaults). dir defaults to ~/.nftmint.
// Pinning credentials are read from the environment after loading .env files
// from the working directory and from dir. Variables already set in the
// process environment win.
func Load(dir string) (*Config, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("could not determine home dir: %w", err)
		}
		dir = filepath.Join(home, ".nftmint")
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("could not create config dir: %w", err)
	}

	cfg := defaults(dir)

	data, err := os.ReadFile(filepath.Join(dir, configFile))
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("reading config: %w", err)
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	cfg.configDir = dir
	if cfg.CustomRPCs == nil {
		cfg.CustomRPCs = make(map[string][]string)
	}

	loadEnvFiles(envFile, filepath.Join(dir, envFile))
	cfg.PinataAPIKey = os.Getenv(EnvPinataKey)
	cfg.PinataSecretKey = os.Getenv(EnvPinataSecret)

	return cfg, nil
}

// Save writes the config to disk.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.configDir, 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.configDir, configFile), data, 0o600)
}

// PinataCredentials returns the API key pair or ErrMissingCredentials.
func (c *Config) PinataCredentials() (key, secret string, err error) {
	if c.PinataAPIKey == "" || c.PinataSecretKey == "" {
		return "", "", fmt.Errorf("%w: export %s and %s or put them in %s",
			ErrMissingCredentials, EnvPinataKey, EnvPinataSecret, envFile)
	}
	return c.PinataAPIKey, c.PinataSecretKey, nil
}

// AddRPC adds a custom RPC URL for a chain.
func (c *Config) AddRPC(chain, url string) error {
	if c.CustomRPCs == nil {
		c.CustomRPCs = make(map[string][]string)
	}
	if slices.Contains(c.CustomRPCs[chain], url) {
		return fmt.Errorf("RPC %s already exists for chain %s", url, chain)
	}
	c.CustomRPCs[chain] = append(c.CustomRPCs[chain], url)
	return nil
}

// RemoveRPC removes a custom RPC URL for a chain.
func (c *Config) RemoveRPC(chain, url string) error {
	rpcs := c.CustomRPCs[chain]
	idx := slices.Index(rpcs, url)
	if idx == -1 {
		return fmt.Errorf("RPC %s not found for chain %s", url, chain)
	}
	c.CustomRPCs[chain] = slices.Delete(rpcs, idx, idx+1)
	return nil
}

// GetRPCs returns custom RPCs for a chain.
func (c *Config) GetRPCs(chain string) []string {
	return c.CustomRPCs[chain]
}

// Dir returns the config directory.
func (c *Config) Dir() string {
	return c.configDir
}

// ResolvePath resolves p against the config directory when it is relative.
func (c *Config) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.configDir, p)
}

// WalletsPath returns the path of wallets.json.
func (c *Config) WalletsPath() string {
	return filepath.Join(c.configDir, walletsFile)
}

// LedgerPath returns the path of the local mint ledger database.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.configDir, ledgerFile)
}

// LogPath returns the path of the rotating log file.
func (c *Config) LogPath() string {
	return filepath.Join(c.configDir, "logs", logFile)
}

// --- helpers ---

func defaults(dir string) *Config {
	return &Config{
		DefaultNetwork: defaultNetwork,
		NetworkMode:    defaultMode,
		RPCAlgorithm:   defaultAlgorithm,
		CustomRPCs:     make(map[string][]string),
		MintPrice:      defaultMintPrice,
		MaxMintPerRun:  defaultMaxMint,
		PinningURL:     defaultPinningURL,
		GatewayURL:     defaultGatewayURL,
		ManifestPath:   defaultManifestPath,
		UploadTimeout:  int(DefaultUploadTimeout.Seconds()),
		LogLevel:       defaultLogLevel,
		FiatCurrency:   defaultFiat,
		configDir:      dir,
	}
}

// loadEnvFiles loads each existing file; godotenv.Load never overrides
// variables that are already set.
func loadEnvFiles(paths ...string) {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		_ = godotenv.Load(p)
	}
}
