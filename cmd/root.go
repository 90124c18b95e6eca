package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Mohsinsiddi/nftmint/internal/config"
	"github.com/Mohsinsiddi/nftmint/internal/logging"
	"github.com/Mohsinsiddi/nftmint/internal/ui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Version is the current release. Overridable via build ldflags:
//
//	go build -ldflags "-X github.com/Mohsinsiddi/nftmint/cmd.Version=1.2.3" .
var Version = "0.3.0"

var (
	cfgDir      string
	cfg         *config.Config
	log         *zap.Logger = zap.NewNop()
	verbose     bool
	networkFlag string
	walletFlag  string
	testnet     bool
	mainnet     bool
)

// rootCmd is the top-level command.
var rootCmd = &cobra.Command{
	Use:   "nftmint",
	Short: "Pin NFT assets to IPFS and mint them on an EVM chain",
	Long: `nftmint uploads images and ERC-721 metadata to IPFS through Pinata and
mints them on a payable NFT contract, one token per metadata URI.

  nftmint upload batch --dir ./photo --from 1 --to 10
  nftmint status
  nftmint mint --amount 3

Pinata credentials are read from PINATA_API_KEY and PINATA_SECRET_API_KEY,
also loaded from a .env file in the working or config directory.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		var err error
		cfg, err = config.Load(cfgDir)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if testnet {
			cfg.NetworkMode = "testnet"
		}
		if mainnet {
			cfg.NetworkMode = "mainnet"
		}

		log, err = logging.New(logging.Options{
			Level:   cfg.LogLevel,
			Verbose: verbose,
			File:    cfg.LogPath(),
		})
		if err != nil {
			return fmt.Errorf("initialising logger: %w", err)
		}
		log.Debug("command started", zap.String("command", cmd.CommandPath()), zap.String("config_dir", cfg.Dir()))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = log.Sync()
	},
}

// Execute runs the root command. Interrupts cancel the command context, so
// uploads and mint runs stop between items.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, ui.Err(err.Error()))
		log.Error("command failed", zap.Error(err))
		_ = log.Sync()
		stop()
		os.Exit(1)
	}
}

func init() {
	// NFTMINT_CONFIG_DIR overrides the default; --config overrides both.
	if envDir := os.Getenv(config.EnvConfigDir); envDir != "" {
		cfgDir = envDir
	}

	rootCmd.PersistentFlags().StringVar(&cfgDir, "config", cfgDir, "config directory (default: ~/.nftmint)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging on stderr")
	rootCmd.PersistentFlags().StringVarP(&networkFlag, "network", "n", "", "chain to use (default: config default_network)")
	rootCmd.PersistentFlags().StringVarP(&walletFlag, "wallet", "w", "", "wallet name (default: config default wallet)")
	rootCmd.PersistentFlags().BoolVar(&testnet, "testnet", false, "use the chain's testnet")
	rootCmd.PersistentFlags().BoolVar(&mainnet, "mainnet", false, "use the chain's mainnet")
	rootCmd.MarkFlagsMutuallyExclusive("testnet", "mainnet")

	rootCmd.AddCommand(
		initCmd,
		configCmd,
		walletCmd,
		uploadCmd,
		statusCmd,
		previewCmd,
		mintCmd,
		historyCmd,
		rpcCmd,
	)
}
