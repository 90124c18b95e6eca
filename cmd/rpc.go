package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/Mohsinsiddi/nftmint/internal/config"
	"github.com/Mohsinsiddi/nftmint/internal/rpc"
	"github.com/Mohsinsiddi/nftmint/internal/ui"
	"github.com/spf13/cobra"
)

var rpcCmd = &cobra.Command{
	Use:   "rpc",
	Short: "Inspect and benchmark RPC endpoints",
}

var rpcListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the RPC endpoints of the network",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := resolveChain()
		if err != nil {
			return err
		}

		fmt.Println(ui.StyleTitle.Render(fmt.Sprintf("RPCs for %s (chain id %d)", c.NetworkName(cfg.NetworkMode), c.ID(cfg.NetworkMode))))

		if custom := cfg.GetRPCs(c.Name); len(custom) > 0 {
			fmt.Println(ui.StyleHeader.Render("Custom RPCs:"))
			for _, r := range custom {
				fmt.Printf("  %s\n", r)
			}
		}
		fmt.Println(ui.StyleHeader.Render("Built-in RPCs:"))
		for _, r := range c.RPCs(cfg.NetworkMode) {
			fmt.Printf("  %s\n", r)
		}
		fmt.Println(ui.Meta("selection: " + cfg.RPCAlgorithm))
		return nil
	},
}

var rpcBenchCmd = &cobra.Command{
	Use:     "bench",
	Aliases: []string{"benchmark"},
	Short:   "Probe every endpoint and show which one would be used",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := resolveChain()
		if err != nil {
			return err
		}
		urls := rpc.Candidates(cfg.GetRPCs(c.Name), c.RPCs(cfg.NetworkMode))
		if len(urls) == 0 {
			return fmt.Errorf("no RPCs configured for %s", c.NetworkName(cfg.NetworkMode))
		}
		algo, err := rpc.ParseAlgorithm(cfg.RPCAlgorithm)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), config.RPCSelectTimeout)
		defer cancel()

		spin := ui.NewSpinner(fmt.Sprintf("Benchmarking %d %s RPCs...", len(urls), c.DisplayName))
		spin.Start()
		results := rpc.Benchmark(ctx, urls, c.ID(cfg.NetworkMode))
		spin.Stop()

		winner, pickErr := rpc.NewPicker(algo).Pick(results)

		t := ui.NewTable([]ui.Column{
			{Title: "RPC URL", Width: 44},
			{Title: "Latency", Width: 10, Right: true},
			{Title: "Block #", Width: 12, Right: true},
			{Title: "Status", Width: 14},
		})
		for i, r := range results {
			latency := fmt.Sprintf("%dms", r.Latency.Milliseconds())
			block := fmt.Sprintf("%d", r.BlockNumber)
			status := ui.StyleSuccess.Render("healthy")

			switch {
			case errors.Is(r.Err, rpc.ErrWrongChain):
				status = ui.StyleError.Render("wrong chain")
			case r.Err != nil || !r.Healthy:
				latency, block = "-", "-"
				status = ui.StyleError.Render("down")
			}
			if winner != nil && r.URL == winner.URL {
				status += ui.StyleWarning.Render(" ★")
				t.SelIdx = i
			}
			t.AddRow(ui.Row{r.URL, latency, block, status})
		}
		fmt.Println(t.Render())

		if pickErr != nil {
			return pickErr
		}
		fmt.Println(ui.Success(fmt.Sprintf("%s picks %s", algo, winner.URL)))
		return nil
	},
}

func init() {
	rpcCmd.AddCommand(rpcListCmd, rpcBenchCmd)
}
