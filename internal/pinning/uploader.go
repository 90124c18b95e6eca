package pinning

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Mohsinsiddi/nftmint/internal/logging"
	"github.com/Mohsinsiddi/nftmint/internal/metadata"
	"go.uber.org/zap"
)

// Pinner is the subset of Client the Uploader needs.
type Pinner interface {
	PinFile(ctx context.Context, path string) (string, error)
	PinJSON(ctx context.Context, v any, name string) (string, error)
}

// Uploader pins NFT assets and their metadata.
type Uploader struct {
	pinner Pinner
	log    *zap.Logger
}

// NewUploader creates an Uploader. log may be nil.
func NewUploader(p Pinner, log *zap.Logger) *Uploader {
	return &Uploader{pinner: p, log: logging.OrNop(log)}
}

// UploadFile pins a local file and returns its CID.
func (u *Uploader) UploadFile(ctx context.Context, path string) (string, error) {
	cid, err := u.pinner.PinFile(ctx, path)
	if err != nil {
		u.log.Error("upload file failed", zap.String("path", path), zap.Error(err))
		return "", fmt.Errorf("uploading %s: %w", path, err)
	}
	return cid, nil
}

// UploadMetadata pins a metadata record and returns its ipfs:// URI.
func (u *Uploader) UploadMetadata(ctx context.Context, r metadata.Record) (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}
	cid, err := u.pinner.PinJSON(ctx, r, pinName(r.Name))
	if err != nil {
		u.log.Error("upload metadata failed", zap.String("name", r.Name), zap.Error(err))
		return "", fmt.Errorf("uploading metadata %q: %w", r.Name, err)
	}
	return metadata.URI(cid), nil
}

// UploadNFT pins the image at path, points a copy of r at it and pins that
// copy. Metadata is only pinned after the image succeeded, so a failure
// never leaves a record referencing a missing asset. r is not modified.
func (u *Uploader) UploadNFT(ctx context.Context, path string, r metadata.Record) (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}
	fileCID, err := u.UploadFile(ctx, path)
	if err != nil {
		return "", err
	}
	uri, err := u.UploadMetadata(ctx, r.WithImage(metadata.URI(fileCID)))
	if err != nil {
		return "", err
	}
	u.log.Info("nft uploaded",
		zap.String("path", path),
		zap.String("image_cid", fileCID),
		zap.String("metadata_uri", uri),
	)
	return uri, nil
}

func pinName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return filepath.Base(name) + ".json"
}
