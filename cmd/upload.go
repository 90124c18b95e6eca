package cmd

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/Mohsinsiddi/nftmint/internal/metadata"
	"github.com/Mohsinsiddi/nftmint/internal/pinning"
	"github.com/Mohsinsiddi/nftmint/internal/ui"
	"github.com/spf13/cobra"
)

var (
	uploadName        string
	uploadDescription string
	uploadAttrs       []string
	uploadTokenID     int64

	batchDir          string
	batchPattern      string
	batchFrom         int
	batchTo           int
	batchFirstTokenID uint64
	batchTemplate     string
	batchJS           string

	verifyImage string
)

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Pin images and metadata to IPFS",
}

var uploadFileCmd = &cobra.Command{
	Use:   "file <path>",
	Short: "Pin a single file and print its CID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		up, err := newUploader()
		if err != nil {
			return err
		}

		spin := ui.NewSpinner("Pinning " + filepath.Base(args[0]) + "...")
		spin.Start()
		cid, err := up.UploadFile(cmd.Context(), args[0])
		spin.Stop()
		if err != nil {
			return err
		}

		fmt.Println(ui.Success("File pinned"))
		fmt.Println(ui.KeyValueBlock("", [][2]string{
			{"CID", ui.Val(cid)},
			{"URI", ui.URI(metadata.URI(cid))},
			{"Gateway", gatewayLink(metadata.URI(cid))},
		}))
		return nil
	},
}

var uploadMetadataCmd = &cobra.Command{
	Use:   "metadata <file.json>",
	Short: "Pin a metadata JSON record",
	Long: `Pin an ERC-721 metadata record. The record must have a name; image is
expected to already be an ipfs:// or https:// URI.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := metadata.LoadRecord(args[0])
		if err != nil {
			return err
		}
		up, err := newUploader()
		if err != nil {
			return err
		}

		spin := ui.NewSpinner("Pinning metadata...")
		spin.Start()
		uri, err := up.UploadMetadata(cmd.Context(), *rec)
		spin.Stop()
		if err != nil {
			return err
		}

		fmt.Println(ui.Success("Metadata pinned: " + ui.URI(uri)))
		return recordUpload(uri)
	},
}

var uploadNFTCmd = &cobra.Command{
	Use:   "nft <image>",
	Short: "Pin an image, then its metadata pointing at it",
	Long: `Pin an image, then pin a metadata record whose image field is the
image's ipfs:// URI. Prints the metadata URI to pass to mintNFT.

  nftmint upload nft ./photo/1.png --name "My Cool NFT 1" \
    --description "..." --attr Background=Blue --attr Eyes=Green`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec := metadata.Record{Name: uploadName, Description: uploadDescription}
		for _, a := range uploadAttrs {
			attr, err := metadata.ParseAttribute(a)
			if err != nil {
				return err
			}
			rec.Attributes = append(rec.Attributes, attr)
		}
		if err := rec.Validate(); err != nil {
			return err
		}

		up, err := newUploader()
		if err != nil {
			return err
		}

		spin := ui.NewSpinner("Pinning " + filepath.Base(args[0]) + " and metadata...")
		spin.Start()
		uri, err := up.UploadNFT(cmd.Context(), args[0], rec)
		spin.Stop()
		if err != nil {
			return err
		}

		fmt.Println(ui.Success("NFT uploaded"))
		fmt.Println(ui.KeyValueBlock("", [][2]string{
			{"Name", ui.Val(rec.Name)},
			{"Metadata", ui.URI(uri)},
			{"Gateway", gatewayLink(uri)},
		}))
		return recordUpload(uri)
	},
}

var uploadBatchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Pin a numbered directory of images and build the manifest",
	Long: `Pin images named by --pattern for every index in [--from, --to], one at
a time. Each metadata URI is stored in the manifest under its token id and
the manifest is saved after every success, so a failed batch can simply be
re-run: tokens already in the manifest are skipped.

  nftmint upload batch --dir ./photo --from 1 --to 10
  nftmint upload batch --dir ./art --pattern "fox-%03d.jpg" --from 0 --to 99 \
    --template fox.json --js metadataURIs.js`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tpl := metadata.DefaultTemplate()
		if batchTemplate != "" {
			var err error
			if tpl, err = metadata.LoadTemplate(batchTemplate); err != nil {
				return err
			}
		}

		spec := pinning.BatchSpec{
			Dir:          batchDir,
			Pattern:      batchPattern,
			From:         batchFrom,
			To:           batchTo,
			FirstTokenID: batchFirstTokenID,
			Template:     tpl,
		}
		if err := spec.Validate(); err != nil {
			return err
		}

		m, err := loadManifest()
		if err != nil {
			return err
		}
		up, err := newUploader()
		if err != nil {
			return err
		}

		total := spec.To - spec.From + 1
		fmt.Println(ui.Info(fmt.Sprintf("Uploading %d image(s) from %s as tokens #%d to #%d",
			total, spec.Dir, spec.TokenID(spec.From), spec.TokenID(spec.To))))

		spin := ui.NewSpinner("Starting batch...")
		spin.Start()
		res, err := up.RunBatch(cmd.Context(), spec, m, func(item pinning.BatchItem, done, total int) {
			state := "uploaded"
			if item.Skipped {
				state = "already in manifest"
			}
			spin.Update(fmt.Sprintf("[%d/%d] token #%d %s", done, total, item.TokenID, state))
		})
		spin.Stop()

		if res != nil && len(res.Items) > 0 {
			printBatch(res)
		}

		var be *pinning.BatchError
		if errors.As(err, &be) {
			fmt.Println(ui.Warn(fmt.Sprintf("Stopped at %s (token #%d). Earlier uploads are saved.",
				filepath.Base(spec.Path(be.Index)), be.TokenID)))
			fmt.Println(ui.Hint("Fix the problem and re-run the same command to resume."))
			return be.Err
		}
		if err != nil {
			return err
		}

		fmt.Println(ui.Success(fmt.Sprintf("Batch done: %d uploaded, %d skipped. Manifest: %s",
			res.Uploaded, res.Skipped, m.Path())))

		if batchJS != "" {
			if err := m.ExportJS(batchJS); err != nil {
				return fmt.Errorf("exporting %s: %w", batchJS, err)
			}
			fmt.Println(ui.Success("Wrote " + batchJS))
		}
		fmt.Println(ui.Hint("Check what is mintable with: nftmint status"))
		return nil
	},
}

var uploadVerifyCmd = &cobra.Command{
	Use:   "verify <metadata-uri>",
	Short: "Fetch metadata from the gateway and check its image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		gw := newGateway()

		spin := ui.NewSpinner("Fetching metadata...")
		spin.Start()
		var (
			rec *metadata.Record
			err error
		)
		if verifyImage != "" {
			rec, err = gw.VerifyImage(cmd.Context(), args[0], verifyImage)
		} else {
			rec, err = gw.FetchMetadata(cmd.Context(), args[0])
		}
		spin.Stop()

		if rec != nil {
			fmt.Println(recordBlock(args[0], rec))
		}
		if err != nil {
			return err
		}
		if verifyImage != "" {
			fmt.Println(ui.Success("Image matches " + ui.URI(verifyImage)))
		}
		return nil
	},
}

// recordUpload stores uri in the manifest when --token-id was given.
func recordUpload(uri string) error {
	if uploadTokenID < 0 {
		return nil
	}
	m, err := loadManifest()
	if err != nil {
		return err
	}
	id := uint64(uploadTokenID)
	if prev, err := m.Get(id); err == nil && prev != uri {
		fmt.Println(ui.Warn(fmt.Sprintf("Replacing manifest entry for token #%d (%s)", id, ui.TruncateURI(prev))))
	}
	m.Set(id, uri)
	if err := m.Save(); err != nil {
		return fmt.Errorf("saving manifest: %w", err)
	}
	fmt.Println(ui.Success(fmt.Sprintf("Manifest entry #%d saved to %s", id, m.Path())))
	return nil
}

func printBatch(res *pinning.BatchResult) {
	t := ui.NewTable([]ui.Column{
		{Title: "Token", Width: 7, Right: true},
		{Title: "File", Width: 20},
		{Title: "Metadata URI", Width: 60},
		{Title: "", Width: 10},
	})
	for _, it := range res.Items {
		state := ui.StyleSuccess.Render("pinned")
		if it.Skipped {
			state = ui.Meta("skipped")
		}
		t.AddRow(ui.Row{
			fmt.Sprintf("#%d", it.TokenID),
			filepath.Base(it.Path),
			ui.URI(it.URI),
			state,
		})
	}
	fmt.Println(t.Render())
	fmt.Println(ui.Meta("run " + res.RunID))
}

func recordBlock(uri string, r *metadata.Record) string {
	pairs := [][2]string{
		{"Name", ui.Val(r.Name)},
		{"Description", r.Description},
		{"Image", ui.URI(r.Image)},
	}
	for _, a := range r.Attributes {
		pairs = append(pairs, [2]string{a.TraitType, fmt.Sprint(a.Value)})
	}
	return ui.KeyValueBlock(ui.TruncateURI(uri), pairs)
}

func gatewayLink(uri string) string {
	u, err := newGateway().URL(uri)
	if err != nil {
		return ui.Meta("-")
	}
	return ui.Meta(u)
}

func init() {
	for _, c := range []*cobra.Command{uploadMetadataCmd, uploadNFTCmd} {
		c.Flags().Int64Var(&uploadTokenID, "token-id", -1, "also store the metadata URI in the manifest under this token id")
	}

	uploadNFTCmd.Flags().StringVar(&uploadName, "name", "", "NFT name (required)")
	uploadNFTCmd.Flags().StringVar(&uploadDescription, "description", "", "NFT description")
	uploadNFTCmd.Flags().StringArrayVar(&uploadAttrs, "attr", nil, "attribute as trait=value, repeatable")
	_ = uploadNFTCmd.MarkFlagRequired("name")

	uploadBatchCmd.Flags().StringVar(&batchDir, "dir", "./photo", "directory containing the images")
	uploadBatchCmd.Flags().StringVar(&batchPattern, "pattern", "%d.png", "file name pattern, formatted with the index")
	uploadBatchCmd.Flags().IntVar(&batchFrom, "from", 1, "first index")
	uploadBatchCmd.Flags().IntVar(&batchTo, "to", 10, "last index")
	uploadBatchCmd.Flags().Uint64Var(&batchFirstTokenID, "first-token-id", 0, "token id of the first index")
	uploadBatchCmd.Flags().StringVar(&batchTemplate, "template", "", "JSON template for name, description and attributes; %d expands to the index")
	uploadBatchCmd.Flags().StringVar(&batchJS, "js", "", "also write a CommonJS list of metadata URIs to this path")

	uploadVerifyCmd.Flags().StringVar(&verifyImage, "image", "", "expected image URI")

	uploadCmd.AddCommand(uploadFileCmd, uploadMetadataCmd, uploadNFTCmd, uploadBatchCmd, uploadVerifyCmd)
}
