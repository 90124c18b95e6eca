package pinning

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Mohsinsiddi/nftmint/internal/metadata"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BatchSpec describes a batch of images to upload. File names are produced
// by formatting Pattern with each index in [From, To]; the index maps to
// token id FirstTokenID + (index - From).
type BatchSpec struct {
	Dir          string
	Pattern      string // e.g. "%d.png"
	From, To     int
	FirstTokenID uint64
	Template     metadata.Template
}

// Validate checks the index range and pattern. The pattern must hold
// exactly one integer verb such as %d or %03d; %% stands for a literal %.
func (s BatchSpec) Validate() error {
	if s.Pattern == "" {
		return fmt.Errorf("batch: file pattern is empty")
	}
	n, err := countIndexVerbs(s.Pattern)
	if err != nil {
		return fmt.Errorf("batch: file pattern %q: %w", s.Pattern, err)
	}
	if n != 1 {
		return fmt.Errorf("batch: file pattern %q must contain exactly one %%d verb, found %d", s.Pattern, n)
	}
	if s.From > s.To {
		return fmt.Errorf("batch: from (%d) is after to (%d)", s.From, s.To)
	}
	return nil
}

// Path returns the image path for index i.
func (s BatchSpec) Path(i int) string {
	return filepath.Join(s.Dir, fmt.Sprintf(s.Pattern, i))
}

// countIndexVerbs counts the %d verbs in pattern, allowing flags and a width
// (%03d). Any other verb is an error.
func countIndexVerbs(pattern string) (int, error) {
	n := 0
	for i := 0; i < len(pattern); i++ {
		if pattern[i] != '%' {
			continue
		}
		i++
		if i < len(pattern) && pattern[i] == '%' {
			continue
		}
		for i < len(pattern) && strings.IndexByte("+-# 0123456789", pattern[i]) >= 0 {
			i++
		}
		if i >= len(pattern) {
			return 0, fmt.Errorf("unterminated verb")
		}
		if pattern[i] != 'd' {
			return 0, fmt.Errorf("unsupported verb %%%c", pattern[i])
		}
		n++
	}
	return n, nil
}

// TokenID returns the token id for index i.
func (s BatchSpec) TokenID(i int) uint64 {
	return s.FirstTokenID + uint64(i-s.From)
}

// BatchItem reports the outcome for one index.
type BatchItem struct {
	Index   int
	TokenID uint64
	Path    string
	URI     string
	Skipped bool // already present in the manifest
}

// BatchResult summarizes a batch run.
type BatchResult struct {
	RunID    string
	Items    []BatchItem
	Uploaded int
	Skipped  int
}

// BatchError identifies the item that stopped a batch.
type BatchError struct {
	Index   int
	TokenID uint64
	Err     error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch stopped at index %d (token %d): %v", e.Index, e.TokenID, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

// Progress is called after every item, including skipped ones.
type Progress func(item BatchItem, done, total int)

// RunBatch uploads every image in spec sequentially and records each
// metadata URI in m under its token id, saving the manifest after every
// success. Tokens already in the manifest are skipped so a failed batch can
// be re-run. The first failure stops the batch.
func (u *Uploader) RunBatch(ctx context.Context, spec BatchSpec, m *metadata.Manifest, progress Progress) (*BatchResult, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	if m.RunID == "" {
		m.RunID = uuid.NewString()
	}
	res := &BatchResult{RunID: m.RunID}
	total := spec.To - spec.From + 1
	log := u.log.With(zap.String("run_id", res.RunID))
	log.Info("batch started", zap.Int("items", total), zap.String("dir", spec.Dir))

	for i := spec.From; i <= spec.To; i++ {
		if err := ctx.Err(); err != nil {
			return res, &BatchError{Index: i, TokenID: spec.TokenID(i), Err: err}
		}

		item := BatchItem{Index: i, TokenID: spec.TokenID(i), Path: spec.Path(i)}

		if existing, err := m.Get(item.TokenID); err == nil {
			item.URI = existing
			item.Skipped = true
			res.Skipped++
			res.Items = append(res.Items, item)
			log.Debug("token already uploaded", zap.Uint64("token_id", item.TokenID))
			if progress != nil {
				progress(item, len(res.Items), total)
			}
			continue
		}

		uri, err := u.UploadNFT(ctx, item.Path, spec.Template.Render(i))
		if err != nil {
			log.Error("batch item failed", zap.Int("index", i), zap.Uint64("token_id", item.TokenID), zap.Error(err))
			return res, &BatchError{Index: i, TokenID: item.TokenID, Err: err}
		}

		item.URI = uri
		m.Set(item.TokenID, uri)
		if err := m.Save(); err != nil {
			return res, fmt.Errorf("saving manifest after token %d: %w", item.TokenID, err)
		}

		res.Uploaded++
		res.Items = append(res.Items, item)
		if progress != nil {
			progress(item, len(res.Items), total)
		}
	}

	log.Info("batch finished", zap.Int("uploaded", res.Uploaded), zap.Int("skipped", res.Skipped))
	return res, nil
}
