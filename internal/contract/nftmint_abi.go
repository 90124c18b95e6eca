package contract

// NFTMint is the ERC-721 minting contract used by nftmint: a public payable
// mint that assigns the next token id from an on-chain counter.
//
// Function selectors:
//
//	name()              → 0x06fdde03
//	symbol()            → 0x95d89b41
//	currentTokenId()    → 0x009a9b7b
//	tokenURI(uint256)   → 0xc87b56dd
//	mintNFT(string)     → 0xfb37e883
//	ownerOf(uint256)    → 0x6352211e
//	balanceOf(address)  → 0x70a08231
const NFTMintID = "nftmint"

func init() {
	RegisterBuiltin(BuiltinKind{
		ID:       NFTMintID,
		Name:     "NFTMint",
		ABI:      nftMintABI,
		Requires: []string{"currentTokenId", "mintNFT"},
	})
}

var nftMintABI = []ABIEntry{
	{
		Name: "name", Type: "function",
		Outputs:         []ABIParam{{Type: "string"}},
		StateMutability: "view",
	},
	{
		Name: "symbol", Type: "function",
		Outputs:         []ABIParam{{Type: "string"}},
		StateMutability: "view",
	},
	{
		Name: "currentTokenId", Type: "function",
		Outputs:         []ABIParam{{Type: "uint256"}},
		StateMutability: "view",
	},
	{
		Name: "tokenURI", Type: "function",
		Inputs:          []ABIParam{{Name: "tokenId", Type: "uint256"}},
		Outputs:         []ABIParam{{Type: "string"}},
		StateMutability: "view",
	},
	{
		Name: "ownerOf", Type: "function",
		Inputs:          []ABIParam{{Name: "tokenId", Type: "uint256"}},
		Outputs:         []ABIParam{{Type: "address"}},
		StateMutability: "view",
	},
	{
		Name: "balanceOf", Type: "function",
		Inputs:          []ABIParam{{Name: "owner", Type: "address"}},
		Outputs:         []ABIParam{{Type: "uint256"}},
		StateMutability: "view",
	},
	{
		Name: "mintNFT", Type: "function",
		Inputs:          []ABIParam{{Name: "tokenURI", Type: "string"}},
		Outputs:         []ABIParam{{Type: "uint256"}},
		StateMutability: "payable",
	},
	{
		Name: "Transfer", Type: "event",
		Inputs: []ABIParam{
			{Name: "from", Type: "address", Indexed: true},
			{Name: "to", Type: "address", Indexed: true},
			{Name: "tokenId", Type: "uint256", Indexed: true},
		},
	},
}
