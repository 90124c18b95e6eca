package wallet

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Well-known Hardhat/Anvil test account #0. Never fund on mainnet.
const (
	testPrivKeyHex = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testSignerAddr = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

func dynamicTx(value *big.Int, chainID *big.Int) *types.Transaction {
	to := common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	return types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     0,
		GasTipCap: big.NewInt(1e9),
		GasFeeCap: big.NewInt(2e9),
		Gas:       250_000,
		To:        &to,
		Value:     value,
		Data:      []byte{0x01, 0x02},
	})
}

func TestSignerAddress(t *testing.T) {
	w := &Wallet{Name: "w", Address: testSignerAddr, Type: TypeSigning}
	assert.Equal(t, testSignerAddr, NewSigner(w, NewInMemoryKeystore()).Address())
}

func TestSignTxWatchOnlyError(t *testing.T) {
	w := &Wallet{Name: "watcher", Address: testSignerAddr, Type: TypeWatchOnly}
	_, err := NewSigner(w, NewInMemoryKeystore()).SignTx(dynamicTx(big.NewInt(0), big.NewInt(1)), big.NewInt(1))
	assert.ErrorIs(t, err, ErrWatchOnly)
}

func TestSignTxKeyNotFound(t *testing.T) {
	w := &Wallet{Name: "missing", Address: testSignerAddr, Type: TypeSigning, KeyRef: "nftmint.missing"}
	_, err := NewSigner(w, NewInMemoryKeystore()).SignTx(dynamicTx(big.NewInt(0), big.NewInt(1)), big.NewInt(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retrieving key")
}

func TestSignTxRecoversSender(t *testing.T) {
	ks := NewInMemoryKeystore()
	ref, err := ks.Store("minter", testPrivKeyHex)
	require.NoError(t, err)
	s := NewSigner(&Wallet{Name: "minter", Address: testSignerAddr, Type: TypeSigning, KeyRef: ref}, ks)

	chainID := big.NewInt(31337)
	value := big.NewInt(10_000_000_000_000_000)
	raw, err := s.SignTx(dynamicTx(value, chainID), chainID)
	require.NoError(t, err)

	var tx types.Transaction
	require.NoError(t, tx.UnmarshalBinary(raw))
	from, err := types.Sender(types.NewLondonSigner(chainID), &tx)
	require.NoError(t, err)
	assert.Equal(t, testSignerAddr, from.Hex())
	assert.Equal(t, value, tx.Value())
}

func TestSignTxDifferentChainIDs(t *testing.T) {
	ks := NewInMemoryKeystore()
	ref, _ := ks.Store("w", testPrivKeyHex)
	s := NewSigner(&Wallet{Name: "w", Address: testSignerAddr, Type: TypeSigning, KeyRef: ref}, ks)

	rawMainnet, err := s.SignTx(dynamicTx(big.NewInt(0), big.NewInt(1)), big.NewInt(1))
	require.NoError(t, err)
	rawBase, err := s.SignTx(dynamicTx(big.NewInt(0), big.NewInt(8453)), big.NewInt(8453))
	require.NoError(t, err)

	assert.NotEqual(t, rawMainnet, rawBase, "same tx signed on different chains must differ")
}

func TestSignTxKeyMismatch(t *testing.T) {
	ks := NewInMemoryKeystore()
	ref, err := ks.Store("minter", testPrivKeyHex)
	require.NoError(t, err)
	w := &Wallet{Name: "minter", Address: "0x70997970C51812dc3A010C7d01b50e0d17dc79C8", Type: TypeSigning, KeyRef: ref}

	_, err = NewSigner(w, ks).SignTx(dynamicTx(big.NewInt(0), big.NewInt(1)), big.NewInt(1))
	assert.ErrorIs(t, err, ErrKeyMismatch)
	assert.Contains(t, err.Error(), testSignerAddr)
}
