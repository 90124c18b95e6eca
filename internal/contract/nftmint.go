package contract

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/Mohsinsiddi/nftmint/internal/chain"
)

// ErrReadOnly is returned when a write is attempted without a Sender.
var ErrReadOnly = errors.New("contract binding has no signer")

// transferTopic is keccak256("Transfer(address,address,uint256)").
const transferTopic = "0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"

// NFTMint is a typed binding for the minting contract.
type NFTMint struct {
	address string
	client  *chain.EVMClient
	caller  *Caller
	sender  *Sender
	// ConfirmTimeout bounds the wait for each mint receipt.
	ConfirmTimeout time.Duration
}

// NewNFTMint binds address with abi, which must declare currentTokenId and
// mintNFT. A nil abi selects the built-in NFTMint ABI.
func NewNFTMint(client *chain.EVMClient, address string, abi []ABIEntry) (*NFTMint, error) {
	if address == "" {
		return nil, errors.New("contract address is not configured (nftmint config set contract_address 0x...)")
	}
	if abi == nil {
		abi = GetBuiltinABI(NFTMintID)
	}
	if err := Compatible(NFTMintID, abi); err != nil {
		return nil, err
	}
	return &NFTMint{
		address:        address,
		client:         client,
		caller:         NewCaller(client, abi),
		ConfirmTimeout: 3 * time.Minute,
	}, nil
}

// WithSender enables writes.
func (n *NFTMint) WithSender(s *Sender) *NFTMint {
	n.sender = s
	return n
}

// Address returns the contract address.
func (n *NFTMint) Address() string { return n.address }

// CurrentTokenID reads the on-chain token counter.
func (n *NFTMint) CurrentTokenID(ctx context.Context) (uint64, error) {
	out, err := n.caller.Call(ctx, n.address, "currentTokenId")
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseUint(out[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("token counter %s does not fit in uint64", out[0])
	}
	return id, nil
}

// TokenURI returns the metadata URI of a minted token.
func (n *NFTMint) TokenURI(ctx context.Context, id uint64) (string, error) {
	return n.readString(ctx, "tokenURI", strconv.FormatUint(id, 10))
}

// Name returns the collection name.
func (n *NFTMint) Name(ctx context.Context) (string, error) {
	return n.readString(ctx, "name")
}

// Symbol returns the collection symbol.
func (n *NFTMint) Symbol(ctx context.Context) (string, error) {
	return n.readString(ctx, "symbol")
}

func (n *NFTMint) readString(ctx context.Context, fn string, args ...string) (string, error) {
	out, err := n.caller.Call(ctx, n.address, fn, args...)
	if err != nil {
		return "", err
	}
	return out[0], nil
}

// Mint submits mintNFT(uri) paying value and waits for the receipt.
func (n *NFTMint) Mint(ctx context.Context, uri string, value *big.Int) (*chain.TxReceipt, error) {
	if n.sender == nil {
		return nil, ErrReadOnly
	}
	hash, err := n.sender.Send(ctx, n.address, value, "mintNFT", uri)
	if err != nil {
		return nil, err
	}
	receipt, err := n.client.WaitForReceipt(ctx, hash, n.ConfirmTimeout)
	if err != nil {
		if receipt == nil {
			receipt = &chain.TxReceipt{Hash: hash}
		}
		return receipt, err
	}
	return receipt, nil
}

// SimulateMint dry-runs mintNFT(uri) without broadcasting.
func (n *NFTMint) SimulateMint(ctx context.Context, uri string, value *big.Int) error {
	if n.sender == nil {
		return ErrReadOnly
	}
	return n.sender.Simulate(ctx, n.address, value, "mintNFT", uri)
}

// MintedTokenID extracts the token id from the Transfer event a mint emits
// (from = zero address). ok is false when the receipt has no such log.
func MintedTokenID(r *chain.TxReceipt) (id uint64, ok bool) {
	if r == nil {
		return 0, false
	}
	for _, l := range r.Logs {
		if len(l.Topics) != 4 || !strings.EqualFold(l.Topics[0], transferTopic) {
			continue
		}
		from, _ := new(big.Int).SetString(strings.TrimPrefix(l.Topics[1], "0x"), 16)
		if from == nil || from.Sign() != 0 {
			continue
		}
		tok, good := new(big.Int).SetString(strings.TrimPrefix(l.Topics[3], "0x"), 16)
		if !good || !tok.IsUint64() {
			continue
		}
		return tok.Uint64(), true
	}
	return 0, false
}
