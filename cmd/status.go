package cmd

import (
	"fmt"
	"strconv"

	"github.com/Mohsinsiddi/nftmint/internal/chain"
	"github.com/Mohsinsiddi/nftmint/internal/ui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the token counter, next token and what is left to mint",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		s, err := openSession(false)
		if err != nil {
			return err
		}
		m, err := loadManifest()
		if err != nil {
			return err
		}
		orch, err := newOrchestrator(s, m, nil)
		if err != nil {
			return err
		}

		spin := ui.NewSpinner("Reading contract...")
		spin.Start()
		st, err := orch.Status(ctx)
		spin.Stop()
		if err != nil {
			return err
		}

		title := ui.Addr(s.nft.Address())
		if name, err := s.nft.Name(ctx); err == nil && name != "" {
			title = name
			if sym, err := s.nft.Symbol(ctx); err == nil && sym != "" {
				title += " (" + sym + ")"
			}
		}

		next := ui.Meta("not in manifest")
		if st.NextURI != "" {
			next = ui.URI(st.NextURI)
		}

		pairs := [][2]string{
			{"Network", ui.ChainName(s.network())},
			{"RPC", ui.Meta(s.client.URL())},
			{"Contract", ui.Addr(s.nft.Address())},
			{"Minted", ui.Val(strconv.FormatUint(st.Counter, 10))},
			{"Next token", fmt.Sprintf("#%d", st.NextTokenID)},
			{"Next URI", next},
			{"Remaining", fmt.Sprintf("%d in manifest (%d entries total)", st.Remaining, m.Len())},
			{"Per run", fmt.Sprintf("up to %d", st.Offer())},
			{"Price", chain.WeiToETH(st.Price) + " " + s.chain.NativeCurrency + fiatValue(ctx, s.chain.Name, st.Price)},
		}

		mgr := newWalletManager()
		if w, err := mgr.Resolve(walletFlag); err == nil {
			bal, err := s.client.GetBalance(ctx, w.Address)
			if err != nil {
				log.Warn("balance lookup failed", zap.String("address", w.Address), zap.Error(err))
			} else {
				pairs = append(pairs,
					[2]string{"Wallet", w.Name + " " + ui.Addr(ui.TruncateAddr(w.Address))},
					[2]string{"Balance", bal.ETH + " " + s.chain.NativeCurrency},
				)
			}
		}

		fmt.Println(ui.KeyValueBlock(title, pairs))

		switch {
		case st.Remaining == 0 && m.Len() == 0:
			fmt.Println(ui.Hint("Manifest is empty. Upload images with: nftmint upload batch --dir ./photo"))
		case st.Remaining == 0:
			fmt.Println(ui.Warn(fmt.Sprintf("No manifest entry for token #%d. Upload more or check first-token-id.", st.NextTokenID)))
		default:
			fmt.Println(ui.Hint("Mint with: nftmint mint"))
		}
		return nil
	},
}
