package cmd

import (
	"errors"
	"fmt"

	"github.com/Mohsinsiddi/nftmint/internal/chain"
	"github.com/Mohsinsiddi/nftmint/internal/ledger"
	"github.com/Mohsinsiddi/nftmint/internal/mint"
	"github.com/Mohsinsiddi/nftmint/internal/ui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	mintAmount int
	mintYes    bool
	mintDryRun bool
)

var mintCmd = &cobra.Command{
	Use:   "mint",
	Short: "Mint the next tokens from the manifest",
	Long: `Mint the next tokens in counter order. Each mint calls mintNFT with the
manifest URI for that token id and pays the configured price. Mints are sent
one at a time and each waits for its receipt; the first failure stops the run.

Without --amount an interactive picker offers 1 up to the number of
uploaded tokens left (capped by max_mint_per_run).

  nftmint mint
  nftmint mint --amount 3 --yes`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		s, err := openSession(true)
		if err != nil {
			return err
		}
		m, err := loadManifest()
		if err != nil {
			return err
		}

		var l *ledger.Ledger
		if !mintDryRun {
			if l, err = openLedger(); err != nil {
				fmt.Println(ui.Warn(err.Error() + ": mints will not be recorded"))
			} else {
				defer l.Close()
			}
		}

		spin := ui.NewSpinner("Reading contract...")
		orch, err := newOrchestrator(s, m, l, mint.WithProgress(func(mt mint.Minted, done, total int) {
			spin.Update(fmt.Sprintf("[%d/%d] token #%d confirmed in block %d", done, total, mt.TokenID, mt.Receipt.BlockNumber))
		}))
		if err != nil {
			return err
		}

		st, err := orch.Status(ctx)
		if err != nil {
			return err
		}
		if st.Offer() == 0 {
			return fmt.Errorf("%w: no manifest entry for token #%d (run `nftmint upload batch` first)", mint.ErrNotEnoughSupply, st.NextTokenID)
		}

		amount := mintAmount
		if amount == 0 {
			amount, err = ui.PickAmount(ui.AmountInfo{
				NextTokenID: st.NextTokenID,
				PriceETH:    chain.WeiToETH(st.Price),
				Symbol:      s.chain.NativeCurrency,
			}, st.Offer())
			if errors.Is(err, ui.ErrCancelled) {
				fmt.Println(ui.Meta("Cancelled."))
				return nil
			}
			if err != nil {
				return err
			}
		}

		plan, err := orch.Plan(ctx, amount)
		if err != nil {
			return err
		}

		first, last := plan.Items[0], plan.Items[len(plan.Items)-1]
		tokens := fmt.Sprintf("#%d", first.TokenID)
		if len(plan.Items) > 1 {
			tokens = fmt.Sprintf("#%d to #%d (%d tokens)", first.TokenID, last.TokenID, len(plan.Items))
		}
		pairs := [][2]string{
			{"Network", ui.ChainName(s.network())},
			{"Contract", ui.Addr(s.nft.Address())},
			{"Wallet", s.wallet.Name + " " + ui.Addr(ui.TruncateAddr(s.wallet.Address))},
			{"Tokens", ui.Val(tokens)},
			{"First URI", ui.URI(first.URI)},
			{"Price", chain.WeiToETH(plan.Value) + " " + s.chain.NativeCurrency + " each"},
			{"Total", ui.Val(chain.WeiToETH(plan.Total())+" "+s.chain.NativeCurrency) + ui.Meta(" + gas") + fiatValue(ctx, s.chain.Name, plan.Total())},
		}
		if bal, err := s.client.GetBalance(ctx, s.wallet.Address); err == nil {
			pairs = append(pairs, [2]string{"Balance", bal.ETH + " " + s.chain.NativeCurrency})
			if bal.Wei.Cmp(plan.Total()) < 0 {
				fmt.Println(ui.Warn("Balance is below the total mint price."))
			}
		}
		fmt.Println(ui.KeyValueBlock("Mint preview", pairs))

		if err := s.nft.SimulateMint(ctx, first.URI, plan.Value); err != nil {
			return fmt.Errorf("simulating first mint: %w", err)
		}
		if mintDryRun {
			fmt.Println(ui.Success("Simulation passed. Nothing was sent (--dry-run)."))
			return nil
		}

		if !mintYes && !ui.ConfirmDanger(fmt.Sprintf("Send %d mint transaction(s)?", len(plan.Items))) {
			fmt.Println(ui.Meta("Cancelled."))
			return nil
		}

		spin.Update(fmt.Sprintf("Minting token #%d...", first.TokenID))
		spin.Start()
		res, err := orch.Execute(ctx, plan)
		spin.Stop()

		if res != nil && len(res.Minted) > 0 {
			printMinted(s, res)
		}

		var te *mint.TokenError
		if errors.As(err, &te) {
			log.Error("mint run stopped", zap.Uint64("token_id", te.TokenID), zap.Error(te.Err))
			fmt.Println(ui.Warn(fmt.Sprintf("Stopped at token #%d. %d of %d minted.", te.TokenID, len(res.Minted), len(plan.Items))))
			if te.TxHash != "" {
				fmt.Println(ui.Meta("failed tx: " + txLink(s, te.TxHash)))
			}
			fmt.Println(ui.Hint("Check with `nftmint status`, then run mint again to continue from the counter."))
			return te.Err
		}
		if err != nil {
			return err
		}

		fmt.Println(ui.Success(fmt.Sprintf("Minted %d token(s).", len(res.Minted))))
		return nil
	},
}

func printMinted(s *session, res *mint.Result) {
	t := ui.NewTable([]ui.Column{
		{Title: "Token", Width: 7, Right: true},
		{Title: "Block", Width: 10, Right: true},
		{Title: "Gas", Width: 9, Right: true},
		{Title: "Transaction", Width: 70},
	})
	for _, mt := range res.Minted {
		t.AddRow(ui.Row{
			fmt.Sprintf("#%d", mt.TokenID),
			fmt.Sprintf("%d", mt.Receipt.BlockNumber),
			fmt.Sprintf("%d", mt.Receipt.GasUsed),
			ui.Addr(txLink(s, mt.Receipt.Hash)),
		})
	}
	fmt.Println(t.Render())
	fmt.Println(ui.Meta("run " + res.RunID))
}

func txLink(s *session, hash string) string {
	if link := s.chain.TxURL(cfg.NetworkMode, hash); link != "" {
		return link
	}
	return hash
}

func init() {
	mintCmd.Flags().IntVarP(&mintAmount, "amount", "a", 0, "number of tokens to mint (default: pick interactively)")
	mintCmd.Flags().BoolVarP(&mintYes, "yes", "y", false, "skip the confirmation prompt")
	mintCmd.Flags().BoolVar(&mintDryRun, "dry-run", false, "simulate the first mint and stop")
}
