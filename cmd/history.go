package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/nftmint/internal/ledger"
	"github.com/Mohsinsiddi/nftmint/internal/ui"
	"github.com/spf13/cobra"
)

var (
	historyAll    bool
	historyRun    string
	historyStatus string
	historyLimit  int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded mint transactions",
	Long: `List mints recorded in the local ledger, newest first. By default only
the configured network and contract are shown.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := ledger.Filter{RunID: historyRun, Status: historyStatus, Limit: historyLimit}
		c, err := resolveChain()
		if err != nil {
			return err
		}
		if !historyAll {
			f.Network = c.NetworkName(cfg.NetworkMode)
			f.Contract = cfg.ContractAddress
		}

		l, err := openLedger()
		if err != nil {
			return err
		}
		defer l.Close()

		recs, err := l.List(cmd.Context(), f)
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			fmt.Println(ui.Info("No mints recorded yet."))
			return nil
		}

		t := ui.NewTable([]ui.Column{
			{Title: "Time", Width: 19},
			{Title: "Token", Width: 7, Right: true},
			{Title: "Status", Width: 10},
			{Title: "Network", Width: 16},
			{Title: "Tx", Width: 14},
			{Title: "URI", Width: 30},
		})
		for _, r := range recs {
			t.AddRow(ui.Row{
				ui.Meta(r.CreatedAt.Local().Format("2006-01-02 15:04:05")),
				fmt.Sprintf("#%d", r.TokenID),
				statusLabel(r.Status),
				ui.ChainName(r.Network),
				ui.Addr(ui.TruncateAddr(r.TxHash)),
				ui.URI(ui.TruncateURI(r.URI)),
			})
		}
		fmt.Println(t.Render())
		fmt.Println(ui.Meta(fmt.Sprintf("%d record(s) in %s", len(recs), cfg.LedgerPath())))

		for _, r := range recs {
			if r.Status != ledger.StatusConfirmed && r.Error != "" {
				fmt.Println(ui.Warn(fmt.Sprintf("#%d %s", r.TokenID, r.Error)))
			}
		}
		return nil
	},
}

func statusLabel(s string) string {
	switch s {
	case ledger.StatusConfirmed:
		return ui.StyleSuccess.Render(s)
	case ledger.StatusReverted:
		return ui.StyleError.Render(s)
	default:
		return ui.StyleWarning.Render(s)
	}
}

func init() {
	historyCmd.Flags().BoolVar(&historyAll, "all", false, "show every network and contract")
	historyCmd.Flags().StringVar(&historyRun, "run", "", "only this run id")
	historyCmd.Flags().StringVar(&historyStatus, "status", "", "only this status (confirmed|reverted|failed)")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum rows")
}
