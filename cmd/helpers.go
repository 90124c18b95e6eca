package cmd

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"path/filepath"
	"strings"
	"time"

	"github.com/Mohsinsiddi/nftmint/internal/chain"
	"github.com/Mohsinsiddi/nftmint/internal/config"
	"github.com/Mohsinsiddi/nftmint/internal/contract"
	"github.com/Mohsinsiddi/nftmint/internal/ledger"
	"github.com/Mohsinsiddi/nftmint/internal/metadata"
	"github.com/Mohsinsiddi/nftmint/internal/mint"
	"github.com/Mohsinsiddi/nftmint/internal/pinning"
	"github.com/Mohsinsiddi/nftmint/internal/price"
	"github.com/Mohsinsiddi/nftmint/internal/rpc"
	"github.com/Mohsinsiddi/nftmint/internal/ui"
	"github.com/Mohsinsiddi/nftmint/internal/wallet"
	"go.uber.org/zap"
)

const fiatTimeout = 3 * time.Second

func newWalletManager() *wallet.Manager {
	return wallet.NewManager(
		wallet.WithStore(wallet.NewJSONStore(cfg.WalletsPath())),
		wallet.WithKeystore(wallet.DefaultKeystore(filepath.Join(cfg.Dir(), "keys"))),
	)
}

func walletTypeLabel(t string) string {
	if t == wallet.TypeSigning {
		return "signing"
	}
	return "watch-only"
}

// resolveChain returns the chain named by --network or the configured default.
func resolveChain() (*chain.Chain, error) {
	name := networkFlag
	if name == "" {
		name = cfg.DefaultNetwork
	}
	reg := chain.NewRegistry()
	c, err := reg.GetByName(name)
	if err != nil {
		return nil, fmt.Errorf("unknown network %q (supported: %s)", name, strings.Join(reg.Names(), ", "))
	}
	return c, nil
}

// pickRPC benchmarks the chain's endpoints, custom ones first, and returns
// the one the configured algorithm selects. Endpoints reporting another
// chain id are never returned.
func pickRPC(c *chain.Chain) (string, error) {
	urls := rpc.Candidates(cfg.GetRPCs(c.Name), c.RPCs(cfg.NetworkMode))
	if len(urls) == 0 {
		return "", fmt.Errorf("no RPCs configured for %s (%s): add one with `nftmint config add-rpc %s <url>`", c.Name, cfg.NetworkMode, c.Name)
	}
	algo, err := rpc.ParseAlgorithm(cfg.RPCAlgorithm)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.RPCSelectTimeout)
	defer cancel()

	url, err := rpc.Select(ctx, urls, algo, c.ID(cfg.NetworkMode))
	if err != nil {
		return "", fmt.Errorf("selecting RPC for %s: %w", c.NetworkName(cfg.NetworkMode), err)
	}
	log.Debug("rpc selected", zap.String("chain", c.Name), zap.String("url", url), zap.String("algorithm", string(algo)))
	return url, nil
}

// newUploader builds a Pinata-backed uploader from the environment
// credentials and the configured endpoint and timeout.
func newUploader() (*pinning.Uploader, error) {
	key, secret, err := cfg.PinataCredentials()
	if err != nil {
		return nil, err
	}
	client, err := pinning.NewClient(key, secret,
		pinning.WithBaseURL(cfg.PinningURL),
		pinning.WithTimeout(cfg.UploadTimeoutDuration()),
		pinning.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}
	return pinning.NewUploader(client, log), nil
}

func newGateway() *pinning.Gateway {
	return pinning.NewGateway(cfg.GatewayURL)
}

func manifestPath() string {
	return cfg.ResolvePath(cfg.ManifestPath)
}

func loadManifest() (*metadata.Manifest, error) {
	m, err := metadata.LoadManifest(manifestPath())
	if err != nil {
		return nil, fmt.Errorf("loading manifest: %w", err)
	}
	return m, nil
}

// loadABI returns the artifact ABI when abi_path is set, else the built-in one.
func loadABI() ([]contract.ABIEntry, error) {
	if cfg.ABIPath == "" {
		return contract.GetBuiltinABI(contract.NFTMintID), nil
	}
	return contract.LoadFromArtifact(cfg.ResolvePath(cfg.ABIPath))
}

// session is a bound contract on a selected endpoint.
type session struct {
	chain  *chain.Chain
	client *chain.EVMClient
	nft    *contract.NFTMint
	wallet *wallet.Wallet // nil for read-only sessions
}

func (s *session) network() string {
	return s.chain.NetworkName(cfg.NetworkMode)
}

// openSession selects an RPC and binds the configured contract. With
// signing set, the resolved wallet must hold a key and writes are enabled.
func openSession(signing bool) (*session, error) {
	c, err := resolveChain()
	if err != nil {
		return nil, err
	}
	abi, err := loadABI()
	if err != nil {
		return nil, err
	}
	url, err := pickRPC(c)
	if err != nil {
		return nil, err
	}
	client := chain.NewEVMClient(url)

	nft, err := contract.NewNFTMint(client, cfg.ContractAddress, abi)
	if err != nil {
		return nil, err
	}
	nft.ConfirmTimeout = config.TxConfirmTimeout

	s := &session{chain: c, client: client, nft: nft}
	if !signing {
		return s, nil
	}

	mgr := newWalletManager()
	w, err := mgr.Resolve(walletFlag)
	if err != nil {
		return nil, err
	}
	signer, err := mgr.Signer(w)
	if err != nil {
		if errors.Is(err, wallet.ErrWatchOnly) {
			return nil, fmt.Errorf("%w: add a key with `nftmint wallet add %s --key <hex>`", err, w.Name)
		}
		return nil, err
	}
	chainID := big.NewInt(c.ID(cfg.NetworkMode))
	nft.WithSender(contract.NewSender(client, abi, signer, chainID))
	s.wallet = w
	return s, nil
}

// newOrchestrator wires the session contract, manifest and price together.
// A nil ledger disables recording.
func newOrchestrator(s *session, m *metadata.Manifest, l *ledger.Ledger, extra ...mint.Option) (*mint.Orchestrator, error) {
	price, err := cfg.MintPriceWei()
	if err != nil {
		return nil, fmt.Errorf("mint_price: %w", err)
	}
	opts := []mint.Option{
		mint.WithMaxPerRun(cfg.MaxMintPerRun),
		mint.WithLogger(log),
	}
	if l != nil {
		opts = append(opts, mint.WithRecorder(l, s.network(), s.nft.Address()))
	}
	opts = append(opts, extra...)
	return mint.New(s.nft, s.nft, m, price, opts...), nil
}

// fiatValue returns an approximate fiat value of wei on chainName, or ""
// when disabled or the price API is unavailable.
func fiatValue(ctx context.Context, chainName string, wei *big.Int) string {
	if cfg.FiatCurrency == "" || cfg.FiatCurrency == "off" {
		return ""
	}
	ctx, cancel := context.WithTimeout(ctx, fiatTimeout)
	defer cancel()

	f := price.NewFetcher(cfg.FiatCurrency)
	rate, err := f.GetPrice(ctx, chainName)
	if err != nil {
		log.Debug("fiat price unavailable", zap.String("chain", chainName), zap.Error(err))
		return ""
	}
	return " " + ui.Meta(price.Format(price.Value(wei, rate), f.Currency()))
}

func openLedger() (*ledger.Ledger, error) {
	l, err := ledger.Open(cfg.LedgerPath())
	if err != nil {
		return nil, fmt.Errorf("opening mint ledger: %w", err)
	}
	return l, nil
}
