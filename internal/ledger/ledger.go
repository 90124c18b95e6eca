// Package ledger keeps a local sqlite record of submitted mint transactions.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Mint outcomes.
const (
	StatusConfirmed = "confirmed"
	StatusReverted  = "reverted"
	StatusFailed    = "failed"
)

// ErrNotFound is returned when no record matches a lookup.
var ErrNotFound = errors.New("mint record not found")

// MintRecord is one submitted (or attempted) mint.
type MintRecord struct {
	ID          uint   `gorm:"primaryKey"`
	RunID       string `gorm:"index;type:varchar(36)"`
	Network     string `gorm:"index:idx_token"`
	Contract    string `gorm:"index:idx_token"`
	TokenID     uint64 `gorm:"index:idx_token"`
	URI         string
	TxHash      string `gorm:"index"`
	BlockNumber uint64
	GasUsed     uint64
	Status      string
	Error       string
	CreatedAt   time.Time
}

// Ledger is a handle on the sqlite database.
type Ledger struct {
	db *gorm.DB
}

// Open opens (creating if needed) the ledger database at path and migrates
// the schema.
func Open(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating ledger dir: %w", err)
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening ledger %s: %w", path, err)
	}
	if err := db.AutoMigrate(&MintRecord{}); err != nil {
		if sqlDB, derr := db.DB(); derr == nil {
			sqlDB.Close()
		}
		return nil, fmt.Errorf("migrating ledger: %w", err)
	}
	return &Ledger{db: db}, nil
}

// Close releases the underlying connection pool.
func (l *Ledger) Close() error {
	sqlDB, err := l.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Record stores r. CreatedAt is set when zero.
func (l *Ledger) Record(ctx context.Context, r *MintRecord) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	if err := l.db.WithContext(ctx).Create(r).Error; err != nil {
		return fmt.Errorf("recording mint of token %d: %w", r.TokenID, err)
	}
	return nil
}

// Filter narrows List. Zero fields match everything.
type Filter struct {
	Network  string
	Contract string
	RunID    string
	Status   string
	Limit    int
}

// List returns matching records, newest first.
func (l *Ledger) List(ctx context.Context, f Filter) ([]MintRecord, error) {
	q := l.db.WithContext(ctx).Model(&MintRecord{})
	if f.Network != "" {
		q = q.Where("network = ?", f.Network)
	}
	if f.Contract != "" {
		q = q.Where("contract = ?", f.Contract)
	}
	if f.RunID != "" {
		q = q.Where("run_id = ?", f.RunID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var out []MintRecord
	if err := q.Order("created_at desc, id desc").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("listing mints: %w", err)
	}
	return out, nil
}

// Token returns the latest confirmed mint of tokenID on a contract.
func (l *Ledger) Token(ctx context.Context, network, contract string, tokenID uint64) (*MintRecord, error) {
	var r MintRecord
	err := l.db.WithContext(ctx).
		Where("network = ? AND contract = ? AND token_id = ? AND status = ?", network, contract, tokenID, StatusConfirmed).
		Order("id desc").
		First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: token %d", ErrNotFound, tokenID)
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}
