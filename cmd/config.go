package cmd

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/Mohsinsiddi/nftmint/internal/config"
	"github.com/Mohsinsiddi/nftmint/internal/ui"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configShowCmd = &cobra.Command{
	Use:     "show",
	Aliases: []string{"list"},
	Short:   "Show current configuration",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pairs := [][2]string{
			{"default_network", cfg.DefaultNetwork},
			{"network_mode", cfg.NetworkMode},
			{"rpc_algorithm", cfg.RPCAlgorithm},
			{"default_wallet", orDash(cfg.DefaultWallet)},
			{"contract_address", orDash(cfg.ContractAddress)},
			{"mint_price", cfg.MintPrice},
			{"max_mint_per_run", strconv.Itoa(cfg.MaxMintPerRun)},
			{"abi_path", orDash(cfg.ABIPath)},
			{"pinning_url", cfg.PinningURL},
			{"gateway_url", cfg.GatewayURL},
			{"manifest_path", cfg.ManifestPath},
			{"upload_timeout", cfg.UploadTimeoutDuration().String()},
			{"log_level", cfg.LogLevel},
			{"fiat_currency", cfg.FiatCurrency},
		}
		for _, name := range slices.Sorted(maps.Keys(cfg.CustomRPCs)) {
			if urls := cfg.CustomRPCs[name]; len(urls) > 0 {
				pairs = append(pairs, [2]string{"rpc." + name, strings.Join(urls, ", ")})
			}
		}

		creds := ui.StyleSuccess.Render("set")
		if _, _, err := cfg.PinataCredentials(); err != nil {
			creds = ui.StyleWarning.Render("missing")
		}
		pairs = append(pairs, [2]string{"pinata keys", creds})

		fmt.Println(ui.KeyValueBlock("Current Configuration", pairs))
		fmt.Println(ui.Meta("Config directory: " + cfg.Dir()))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value",
	Long:  "Set a config value. Valid keys: " + strings.Join(config.Keys(), ", "),
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("%s set to %s", args[0], ui.Val(args[1]))))
		return nil
	},
}

var configAddRPCCmd = &cobra.Command{
	Use:   "add-rpc <chain> <url>",
	Short: "Add a custom RPC for a chain",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		chainName, url := strings.ToLower(args[0]), args[1]
		if err := cfg.AddRPC(chainName, url); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("RPC added for %s: %s", chainName, url)))
		fmt.Println(ui.Hint("Custom RPCs are tried before the built-in ones."))
		return nil
	},
}

var configRemoveRPCCmd = &cobra.Command{
	Use:   "remove-rpc <chain> <url>",
	Short: "Remove a custom RPC",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		chainName, url := strings.ToLower(args[0]), args[1]
		if err := cfg.RemoveRPC(chainName, url); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("RPC removed from %s: %s", chainName, url)))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configSetCmd, configAddRPCCmd, configRemoveRPCCmd)
}
