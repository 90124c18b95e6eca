package cmd

import (
	"fmt"
	"strconv"

	"github.com/Mohsinsiddi/nftmint/internal/ui"
	"github.com/spf13/cobra"
)

var previewCmd = &cobra.Command{
	Use:   "preview [token-id]",
	Short: "Show the metadata of a token",
	Long: `Fetch a token's metadata from the IPFS gateway. Minted tokens are read
through tokenURI; unminted ones come from the manifest. Without an argument
the next token to mint is shown.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		s, err := openSession(false)
		if err != nil {
			return err
		}
		counter, err := s.nft.CurrentTokenID(ctx)
		if err != nil {
			return err
		}

		id := counter
		if len(args) > 0 {
			if id, err = strconv.ParseUint(args[0], 10, 64); err != nil {
				return fmt.Errorf("invalid token id %q", args[0])
			}
		}

		var uri, source string
		if id < counter {
			if uri, err = s.nft.TokenURI(ctx, id); err != nil {
				return err
			}
			source = "minted"
		} else {
			m, err := loadManifest()
			if err != nil {
				return err
			}
			if uri, err = m.Get(id); err != nil {
				return fmt.Errorf("token #%d is not minted and has no manifest entry", id)
			}
			source = "manifest"
		}

		spin := ui.NewSpinner("Fetching metadata...")
		spin.Start()
		rec, err := newGateway().FetchMetadata(ctx, uri)
		spin.Stop()
		if err != nil {
			return err
		}

		fmt.Println(ui.Info(fmt.Sprintf("Token #%d (%s)", id, source)))
		fmt.Println(recordBlock(uri, rec))
		if img, err := newGateway().ImageURL(rec); err == nil {
			fmt.Println(ui.Meta("image: " + img))
		}

		if source == "minted" {
			showMintTx(cmd, s, id)
		}
		return nil
	},
}

// showMintTx prints the ledger's transaction for a minted token. Tokens
// minted elsewhere have no ledger row and print nothing.
func showMintTx(cmd *cobra.Command, s *session, id uint64) {
	l, err := openLedger()
	if err != nil {
		return
	}
	defer l.Close()

	rec, err := l.Token(cmd.Context(), s.network(), s.nft.Address(), id)
	if err != nil {
		return
	}
	link := s.chain.TxURL(cfg.NetworkMode, rec.TxHash)
	if link == "" {
		link = rec.TxHash
	}
	fmt.Println(ui.Meta("minted in " + link))
}
