package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/nftmint/internal/chain"
	"github.com/Mohsinsiddi/nftmint/internal/config"
	"github.com/Mohsinsiddi/nftmint/internal/ui"
	"github.com/spf13/cobra"
)

var (
	initContract string
	initPrice    string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the config file",
	Long: `Create ~/.nftmint/config.json with defaults, optionally setting the
contract, mint price and default network (--network) in one go.

  nftmint init --network base --contract 0x... --price 0.01`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(ui.Banner(Version))

		if networkFlag != "" {
			if _, err := chain.NewRegistry().GetByName(networkFlag); err != nil {
				return fmt.Errorf("unknown network %q", networkFlag)
			}
			if err := cfg.Set("default_network", networkFlag); err != nil {
				return err
			}
		}
		if initContract != "" {
			if err := cfg.Set("contract_address", initContract); err != nil {
				return err
			}
		}
		if initPrice != "" {
			if err := cfg.Set("mint_price", initPrice); err != nil {
				return err
			}
		}

		if err := cfg.Save(); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}

		fmt.Println(ui.Success("Config written to " + cfg.Dir()))
		fmt.Println(ui.KeyValueBlock("Settings", [][2]string{
			{"Network", ui.ChainName(cfg.DefaultNetwork) + " " + ui.Meta("("+cfg.NetworkMode+")")},
			{"Contract", orDash(cfg.ContractAddress)},
			{"Mint price", cfg.MintPrice + " ETH"},
			{"Manifest", manifestPath()},
		}))

		if _, _, err := cfg.PinataCredentials(); err != nil {
			fmt.Println(ui.Warn(fmt.Sprintf("Pinata keys not found: set %s and %s (a .env file works).", config.EnvPinataKey, config.EnvPinataSecret)))
		}
		if cfg.ContractAddress == "" {
			fmt.Println(ui.Hint("Set the contract: nftmint config set contract_address 0x..."))
		}
		fmt.Println(ui.Hint("Add a minting wallet: nftmint wallet add minter --key <private-key>"))
		return nil
	},
}

func orDash(s string) string {
	if s == "" {
		return ui.Meta("-")
	}
	return s
}

func init() {
	initCmd.Flags().StringVar(&initContract, "contract", "", "NFT contract address")
	initCmd.Flags().StringVar(&initPrice, "price", "", "mint price in ETH per token")
}
