package contract

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/Mohsinsiddi/nftmint/internal/chain"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

// Errors returned before anything is broadcast.
var (
	ErrNotPayable  = errors.New("function is not payable")
	ErrWouldRevert = errors.New("transaction would fail")
)

// TxSigner signs transactions for one account.
type TxSigner interface {
	Address() string
	SignTx(tx *types.Transaction, chainID *big.Int) ([]byte, error)
}

// Sender sends write transactions to contracts.
type Sender struct {
	client  *chain.EVMClient
	abi     []ABIEntry
	signer  TxSigner
	chainID *big.Int
	// GasFallback is used when the node cannot estimate gas for a reason
	// other than a revert.
	GasFallback uint64
}

// NewSender creates a Sender.
func NewSender(client *chain.EVMClient, abi []ABIEntry, signer TxSigner, chainID *big.Int) *Sender {
	return &Sender{
		client:      client,
		abi:         abi,
		signer:      signer,
		chainID:     chainID,
		GasFallback: 250_000,
	}
}

// Send calls a write function with value attached and broadcasts the
// transaction. Returns the transaction hash.
func (s *Sender) Send(ctx context.Context, contractAddr string, value *big.Int, funcName string, args ...string) (string, error) {
	fn, calldata, err := s.prepare(contractAddr, value, funcName, args)
	if err != nil {
		return "", err
	}
	from := s.signer.Address()

	gas, err := s.client.EstimateGas(ctx, from, contractAddr, calldata, value)
	if err != nil {
		var rpcErr *chain.RPCError
		if errors.As(err, &rpcErr) {
			return "", fmt.Errorf("%w: %s: %s", ErrWouldRevert, fn.Name, rpcErr.Message)
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		gas = s.GasFallback
	}

	fees, err := s.client.SuggestFees(ctx)
	if err != nil {
		return "", fmt.Errorf("getting gas price: %w", err)
	}

	nonce, err := s.client.GetPendingNonce(ctx, from)
	if err != nil {
		return "", fmt.Errorf("getting nonce: %w", err)
	}

	toAddr := common.HexToAddress(contractAddr)
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   s.chainID,
		Nonce:     nonce,
		GasTipCap: fees.GasTipCap,
		GasFeeCap: fees.GasFeeCap,
		Gas:       gas,
		To:        &toAddr,
		Value:     valueOrZero(value),
		Data:      common.FromHex(calldata),
	})

	raw, err := s.signer.SignTx(tx, s.chainID)
	if err != nil {
		return "", fmt.Errorf("signing transaction: %w", err)
	}

	hash, err := s.client.SendRawTransaction(ctx, hexutil.Encode(raw))
	if err != nil {
		return "", fmt.Errorf("broadcasting transaction: %w", err)
	}
	return hash, nil
}

// Simulate runs the call through eth_call from the signer's address and
// reports a revert as ErrWouldRevert.
func (s *Sender) Simulate(ctx context.Context, contractAddr string, value *big.Int, funcName string, args ...string) error {
	fn, calldata, err := s.prepare(contractAddr, value, funcName, args)
	if err != nil {
		return err
	}
	ok, reason, err := s.client.SimulateCall(ctx, s.signer.Address(), contractAddr, calldata, value)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s: %s", ErrWouldRevert, fn.Name, reason)
	}
	return nil
}

func (s *Sender) prepare(contractAddr string, value *big.Int, funcName string, args []string) (*ABIEntry, string, error) {
	if !common.IsHexAddress(contractAddr) {
		return nil, "", fmt.Errorf("invalid contract address %q", contractAddr)
	}
	fn, err := FindFunction(s.abi, funcName)
	if err != nil {
		return nil, "", err
	}
	if !fn.IsWriteFunction() {
		return nil, "", fmt.Errorf("function %q is not a write function", funcName)
	}
	if value != nil && value.Sign() > 0 && !fn.IsPayable() {
		return nil, "", fmt.Errorf("%w: %s", ErrNotPayable, funcName)
	}

	calldata, err := encodeCall(fn, args)
	if err != nil {
		return nil, "", fmt.Errorf("encoding call: %w", err)
	}
	return fn, calldata, nil
}

func valueOrZero(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
