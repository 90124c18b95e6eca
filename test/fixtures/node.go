package fixtures

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Anvil's first dev account.
const (
	MinterKey     = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	MinterAddress = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	Contract      = "0x5FbDB2315678afecb367f032d93F642f64180aa3"
	ChainID       = 31337
)

var (
	selCurrentTokenID = selector("currentTokenId()")
	selTokenURI       = selector("tokenURI(uint256)")
	selName           = selector("name()")
	selSymbol         = selector("symbol()")
	selMintNFT        = selector("mintNFT(string)")
	transferTopic     = "0x" + hex.EncodeToString(crypto.Keccak256([]byte("Transfer(address,address,uint256)")))
)

// Node is a JSON-RPC node hosting one NFTMint contract. Mint transactions
// are mined on receipt: the counter advances and a Transfer log is emitted.
type Node struct {
	*httptest.Server

	mu       sync.Mutex
	Counter  uint64
	Price    *big.Int // minimum value; mints paying less revert
	uris     map[uint64]string
	sent     []*types.Transaction
	receipts map[string]map[string]any
	block    uint64
}

// NewNode starts a node whose counter starts at counter.
func NewNode(t *testing.T, counter uint64, price *big.Int) *Node {
	t.Helper()
	n := &Node{
		Counter:  counter,
		Price:    price,
		uris:     map[uint64]string{},
		receipts: map[string]map[string]any{},
		block:    100,
	}
	n.Server = httptest.NewServer(http.HandlerFunc(n.serve))
	t.Cleanup(n.Close)
	return n
}

// Sent returns the transactions received so far.
func (n *Node) Sent() []*types.Transaction {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]*types.Transaction(nil), n.sent...)
}

// TokenURI returns the URI stored for a minted token.
func (n *Node) TokenURI(id uint64) (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	uri, ok := n.uris[id]
	return uri, ok
}

// CurrentCounter returns the counter under lock.
func (n *Node) CurrentCounter() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.Counter
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (n *Node) serve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Method string            `json:"method"`
		Params []json.RawMessage `json:"params"`
		ID     int               `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	result, rpcErr := n.handle(req.Method, req.Params)
	resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
	if rpcErr != nil {
		resp["error"] = rpcErr
	} else {
		resp["result"] = result
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp) //nolint:errcheck
}

func (n *Node) handle(method string, params []json.RawMessage) (any, *rpcError) {
	n.mu.Lock()
	defer n.mu.Unlock()

	switch method {
	case "eth_chainId":
		return fmt.Sprintf("0x%x", ChainID), nil
	case "eth_blockNumber":
		return fmt.Sprintf("0x%x", n.block), nil
	case "eth_getBalance":
		return "0x8ac7230489e80000", nil // 10 ETH
	case "eth_call":
		var call map[string]string
		json.Unmarshal(params[0], &call) //nolint:errcheck
		return n.call(call["data"], call["value"])
	case "eth_estimateGas":
		return "0x1d4c0", nil
	case "eth_gasPrice":
		return "0x3b9aca00", nil
	case "eth_maxPriorityFeePerGas":
		return "0x3b9aca00", nil
	case "eth_getBlockByNumber":
		return map[string]string{"number": fmt.Sprintf("0x%x", n.block), "baseFeePerGas": "0x3b9aca00"}, nil
	case "eth_getTransactionCount":
		return fmt.Sprintf("0x%x", len(n.sent)), nil
	case "eth_sendRawTransaction":
		var rawHex string
		json.Unmarshal(params[0], &rawHex) //nolint:errcheck
		var tx types.Transaction
		if err := tx.UnmarshalBinary(common.FromHex(rawHex)); err != nil {
			return nil, &rpcError{Code: -32602, Message: err.Error()}
		}
		return n.mine(&tx), nil
	case "eth_getTransactionReceipt":
		var hash string
		json.Unmarshal(params[0], &hash) //nolint:errcheck
		if r, ok := n.receipts[hash]; ok {
			return r, nil
		}
		return nil, nil
	}
	return nil, &rpcError{Code: -32601, Message: "method not found"}
}

func (n *Node) call(data, value string) (any, *rpcError) {
	switch {
	case strings.HasPrefix(data, selCurrentTokenID):
		return "0x" + word(n.Counter), nil
	case strings.HasPrefix(data, selName):
		return encodeString("Fixture Collection"), nil
	case strings.HasPrefix(data, selSymbol):
		return encodeString("FIX"), nil
	case strings.HasPrefix(data, selTokenURI):
		id, _ := new(big.Int).SetString(data[10:], 16)
		uri, ok := n.uris[id.Uint64()]
		if !ok {
			return nil, &rpcError{Code: 3, Message: "execution reverted: nonexistent token"}
		}
		return encodeString(uri), nil
	case strings.HasPrefix(data, selMintNFT):
		v, _ := new(big.Int).SetString(strings.TrimPrefix(value, "0x"), 16)
		if n.Price != nil && (v == nil || v.Cmp(n.Price) < 0) {
			return nil, &rpcError{Code: 3, Message: "execution reverted: insufficient payment"}
		}
		return "0x" + word(n.Counter), nil
	}
	return nil, &rpcError{Code: -32000, Message: "unknown selector"}
}

func (n *Node) mine(tx *types.Transaction) string {
	n.sent = append(n.sent, tx)
	n.block++
	hash := tx.Hash().Hex()

	if n.Price != nil && tx.Value().Cmp(n.Price) < 0 {
		n.receipts[hash] = map[string]any{"status": "0x0", "blockNumber": fmt.Sprintf("0x%x", n.block), "gasUsed": "0x5208", "logs": []any{}}
		return hash
	}

	id := n.Counter
	n.Counter++
	n.uris[id] = decodeMintURI(tx.Data())
	n.receipts[hash] = map[string]any{
		"status":      "0x1",
		"blockNumber": fmt.Sprintf("0x%x", n.block),
		"gasUsed":     "0x1d4c0",
		"logs": []any{map[string]any{
			"address": Contract,
			"topics":  []string{transferTopic, "0x" + word(0), "0x" + strings.Repeat("0", 24) + strings.ToLower(MinterAddress[2:]), "0x" + word(id)},
			"data":    "0x",
		}},
	}
	return hash
}

func selector(sig string) string {
	return "0x" + hex.EncodeToString(crypto.Keccak256([]byte(sig))[:4])
}

func word(n uint64) string { return fmt.Sprintf("%064x", n) }

func encodeString(s string) string {
	padded := make([]byte, (len(s)+31)/32*32)
	copy(padded, s)
	return "0x" + word(32) + word(uint64(len(s))) + hex.EncodeToString(padded)
}

// DecodeMintURI extracts the string argument of mintNFT calldata.
func DecodeMintURI(data []byte) string { return decodeMintURI(data) }

func decodeMintURI(data []byte) string {
	body := data[4:]
	length := new(big.Int).SetBytes(body[32:64]).Uint64()
	return string(body[64 : 64+length])
}
