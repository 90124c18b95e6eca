// Package mint plans and submits sequential paid mints against the on-chain
// token counter and the metadata manifest.
package mint

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync/atomic"

	"github.com/Mohsinsiddi/nftmint/internal/chain"
	"github.com/Mohsinsiddi/nftmint/internal/contract"
	"github.com/Mohsinsiddi/nftmint/internal/ledger"
	"github.com/Mohsinsiddi/nftmint/internal/logging"
	"github.com/Mohsinsiddi/nftmint/internal/metadata"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultMaxPerRun caps how many tokens one run may mint.
const DefaultMaxPerRun = 10

var (
	ErrNotEnoughSupply = errors.New("not enough uploaded metadata for the requested amount")
	ErrInvalidAmount   = errors.New("invalid mint amount")
	ErrMintInFlight    = errors.New("a mint is already in progress")
	ErrCounterMoved    = errors.New("token counter changed since the plan was made")
)

// CounterReader reads the contract's next-token counter.
type CounterReader interface {
	CurrentTokenID(ctx context.Context) (uint64, error)
}

// Minter submits one paid mint and waits for its receipt.
type Minter interface {
	Mint(ctx context.Context, uri string, value *big.Int) (*chain.TxReceipt, error)
}

// Recorder stores mint outcomes.
type Recorder interface {
	Record(ctx context.Context, r *ledger.MintRecord) error
}

// Orchestrator mints tokens one at a time, in counter order, using the
// manifest URI for each token id.
type Orchestrator struct {
	counter   CounterReader
	minter    Minter
	manifest  *metadata.Manifest
	price     *big.Int
	maxPerRun int

	recorder Recorder
	network  string
	contract string
	progress Progress
	log      *zap.Logger

	inFlight atomic.Bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithMaxPerRun overrides DefaultMaxPerRun. Values below 1 are ignored.
func WithMaxPerRun(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxPerRun = n
		}
	}
}

// WithRecorder records every outcome. network and contract label the rows.
func WithRecorder(r Recorder, network, contract string) Option {
	return func(o *Orchestrator) {
		o.recorder = r
		o.network = network
		o.contract = contract
	}
}

// Progress is called after each confirmed mint of a run.
type Progress func(m Minted, done, total int)

// WithProgress sets a callback invoked after every confirmed mint.
func WithProgress(fn Progress) Option {
	return func(o *Orchestrator) { o.progress = fn }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) { o.log = logging.OrNop(l) }
}

// New creates an Orchestrator. price is the fixed value paid per mint.
func New(counter CounterReader, minter Minter, manifest *metadata.Manifest, price *big.Int, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		counter:   counter,
		minter:    minter,
		manifest:  manifest,
		price:     new(big.Int),
		maxPerRun: DefaultMaxPerRun,
		log:       zap.NewNop(),
	}
	if price != nil {
		o.price.Set(price)
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Price returns a copy of the per-mint price.
func (o *Orchestrator) Price() *big.Int { return new(big.Int).Set(o.price) }

// MaxPerRun returns the per-run cap.
func (o *Orchestrator) MaxPerRun() int { return o.maxPerRun }

// Busy reports whether a run is being submitted.
func (o *Orchestrator) Busy() bool { return o.inFlight.Load() }

// Status is a snapshot of what can be minted next.
type Status struct {
	Counter     uint64
	NextTokenID uint64
	NextURI     string // empty when the manifest has no entry for NextTokenID
	Remaining   int    // consecutive manifest entries from NextTokenID
	MaxPerRun   int
	Price       *big.Int
}

// Offer is the largest amount a single run may mint right now.
func (s *Status) Offer() int {
	return min(s.Remaining, s.MaxPerRun)
}

// Status reads the counter and matches it against the manifest.
func (o *Orchestrator) Status(ctx context.Context) (*Status, error) {
	counter, err := o.counter.CurrentTokenID(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading token counter: %w", err)
	}
	st := &Status{
		Counter:     counter,
		NextTokenID: counter,
		Remaining:   o.manifest.Available(counter),
		MaxPerRun:   o.maxPerRun,
		Price:       o.Price(),
	}
	if uri, err := o.manifest.Get(counter); err == nil {
		st.NextURI = uri
	}
	return st, nil
}

// Item is one token to mint.
type Item struct {
	TokenID uint64
	URI     string
}

// Plan is a checked list of mints. It is only valid while the counter still
// equals Counter.
type Plan struct {
	Counter uint64
	Items   []Item
	Value   *big.Int // paid per mint
}

// Total is the value paid across the whole plan.
func (p *Plan) Total() *big.Int {
	return new(big.Int).Mul(p.Value, big.NewInt(int64(len(p.Items))))
}

// Plan builds the list of the next amount tokens. Nothing is submitted.
func (o *Orchestrator) Plan(ctx context.Context, amount int) (*Plan, error) {
	if amount < 1 || amount > o.maxPerRun {
		return nil, fmt.Errorf("%w: %d (allowed 1..%d)", ErrInvalidAmount, amount, o.maxPerRun)
	}
	st, err := o.Status(ctx)
	if err != nil {
		return nil, err
	}
	if amount > st.Remaining {
		return nil, fmt.Errorf("%w: requested %d, %d available from token %d", ErrNotEnoughSupply, amount, st.Remaining, st.Counter)
	}

	p := &Plan{Counter: st.Counter, Value: o.Price(), Items: make([]Item, 0, amount)}
	for i := 0; i < amount; i++ {
		id := st.Counter + uint64(i)
		uri, err := o.manifest.Get(id)
		if err != nil {
			return nil, err
		}
		p.Items = append(p.Items, Item{TokenID: id, URI: uri})
	}
	return p, nil
}

// Minted is a confirmed mint.
type Minted struct {
	Item
	Receipt *chain.TxReceipt
}

// Result summarises a run.
type Result struct {
	RunID  string
	Minted []Minted
}

// TokenError reports the mint that stopped a run.
type TokenError struct {
	TokenID uint64
	URI     string
	TxHash  string // empty when nothing was broadcast
	Err     error
}

func (e *TokenError) Error() string {
	if e.TxHash != "" {
		return fmt.Sprintf("minting token %d (tx %s): %v", e.TokenID, e.TxHash, e.Err)
	}
	return fmt.Sprintf("minting token %d: %v", e.TokenID, e.Err)
}

func (e *TokenError) Unwrap() error { return e.Err }

// Execute submits the plan one mint at a time, waiting for each receipt
// before sending the next. The counter must equal each item's token id
// before it is sent, and a receipt that reports a different minted id stops
// the run with ErrCounterMoved. The first failure stops the run; the result
// holds everything minted before it. Only one Execute runs at a time.
func (o *Orchestrator) Execute(ctx context.Context, p *Plan) (*Result, error) {
	if !o.inFlight.CompareAndSwap(false, true) {
		return nil, ErrMintInFlight
	}
	defer o.inFlight.Store(false)

	res := &Result{RunID: uuid.NewString()}
	log := o.log.With(zap.String("run_id", res.RunID))

	log.Info("mint run started", zap.Int("amount", len(p.Items)), zap.Uint64("first_token", p.Counter), zap.String("value_wei", o.price.String()))

	for _, item := range p.Items {
		if err := ctx.Err(); err != nil {
			return res, &TokenError{TokenID: item.TokenID, URI: item.URI, Err: err}
		}

		// Each URI is only valid for its planned id, so the counter is
		// checked again before every mint.
		counter, err := o.counter.CurrentTokenID(ctx)
		if err != nil {
			return res, &TokenError{TokenID: item.TokenID, URI: item.URI, Err: fmt.Errorf("reading token counter: %w", err)}
		}
		if counter != item.TokenID {
			log.Error("token counter moved", zap.Uint64("token_id", item.TokenID), zap.Uint64("counter", counter))
			return res, &TokenError{TokenID: item.TokenID, URI: item.URI, Err: fmt.Errorf("%w: expected %d, now %d", ErrCounterMoved, item.TokenID, counter)}
		}

		receipt, err := o.minter.Mint(ctx, item.URI, o.Price())
		if err != nil {
			o.record(ctx, res.RunID, item, receipt, err)
			te := &TokenError{TokenID: item.TokenID, URI: item.URI, Err: err}
			if receipt != nil {
				te.TxHash = receipt.Hash
			}
			log.Error("mint failed", zap.Uint64("token_id", item.TokenID), zap.String("tx", te.TxHash), zap.Error(err))
			return res, te
		}

		if got, ok := contract.MintedTokenID(receipt); ok && got != item.TokenID {
			// Another mint landed first; ours took the next id.
			planned := item.TokenID
			item.TokenID = got
			o.record(ctx, res.RunID, item, receipt, nil)
			res.Minted = append(res.Minted, Minted{Item: item, Receipt: receipt})
			log.Error("token minted under another id", zap.Uint64("planned", planned), zap.Uint64("token_id", got), zap.String("tx", receipt.Hash))
			return res, &TokenError{TokenID: planned, URI: item.URI, TxHash: receipt.Hash, Err: fmt.Errorf("%w: minted as token %d", ErrCounterMoved, got)}
		}
		o.record(ctx, res.RunID, item, receipt, nil)

		log.Info("token minted", zap.Uint64("token_id", item.TokenID), zap.String("tx", receipt.Hash), zap.Uint64("block", receipt.BlockNumber))
		res.Minted = append(res.Minted, Minted{Item: item, Receipt: receipt})
		if o.progress != nil {
			o.progress(res.Minted[len(res.Minted)-1], len(res.Minted), len(p.Items))
		}
	}

	log.Info("mint run finished", zap.Int("minted", len(res.Minted)))
	return res, nil
}

// Mint plans and executes amount mints.
func (o *Orchestrator) Mint(ctx context.Context, amount int) (*Result, error) {
	p, err := o.Plan(ctx, amount)
	if err != nil {
		return nil, err
	}
	return o.Execute(ctx, p)
}

func (o *Orchestrator) record(ctx context.Context, runID string, item Item, receipt *chain.TxReceipt, mintErr error) {
	if o.recorder == nil {
		return
	}
	rec := &ledger.MintRecord{
		RunID:    runID,
		Network:  o.network,
		Contract: o.contract,
		TokenID:  item.TokenID,
		URI:      item.URI,
		Status:   ledger.StatusConfirmed,
	}
	if receipt != nil {
		rec.TxHash = receipt.Hash
		rec.BlockNumber = receipt.BlockNumber
		rec.GasUsed = receipt.GasUsed
	}
	switch {
	case errors.Is(mintErr, chain.ErrReverted):
		rec.Status = ledger.StatusReverted
		rec.Error = mintErr.Error()
	case mintErr != nil:
		rec.Status = ledger.StatusFailed
		rec.Error = mintErr.Error()
	}
	// Ledger writes are best-effort.
	if err := o.recorder.Record(context.WithoutCancel(ctx), rec); err != nil {
		o.log.Warn("recording mint failed", zap.Uint64("token_id", item.TokenID), zap.Error(err))
	}
}
