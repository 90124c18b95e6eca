package contract_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Mohsinsiddi/nftmint/internal/contract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinNFTMint(t *testing.T) {
	b, ok := contract.GetBuiltin(contract.NFTMintID)
	require.True(t, ok)
	assert.NotEmpty(t, b.Name)

	mint, err := contract.FindFunction(b.ABI, "mintNFT")
	require.NoError(t, err)
	assert.True(t, mint.IsPayable())
	assert.True(t, mint.IsWriteFunction())
	assert.Equal(t, "mintNFT(string)", mint.Signature())

	counter, err := contract.FindFunction(b.ABI, "currentTokenId")
	require.NoError(t, err)
	assert.True(t, counter.IsReadFunction())

	assert.NoError(t, contract.Compatible(contract.NFTMintID, b.ABI))
}

func TestCompatible(t *testing.T) {
	onlyCounter := []contract.ABIEntry{
		{Name: "currentTokenId", Type: "function", Outputs: []contract.ABIParam{{Type: "uint256"}}, StateMutability: "view"},
	}
	err := contract.Compatible(contract.NFTMintID, onlyCounter)
	assert.ErrorIs(t, err, contract.ErrFunctionNotFound)
	assert.Contains(t, err.Error(), "mintNFT")

	assert.Error(t, contract.Compatible("erc1155", onlyCounter))
}

func TestGetBuiltinNotFound(t *testing.T) {
	_, ok := contract.GetBuiltin("nonexistent")
	assert.False(t, ok)
	assert.Nil(t, contract.GetBuiltinABI("nonexistent"))
}

func TestRequireFunctions(t *testing.T) {
	abi := contract.GetBuiltinABI(contract.NFTMintID)
	assert.NoError(t, contract.RequireFunctions(abi, "currentTokenId", "mintNFT"))

	err := contract.RequireFunctions(abi, "mintNFT", "safeMint", "burn")
	assert.ErrorIs(t, err, contract.ErrFunctionNotFound)
	assert.Contains(t, err.Error(), "safeMint, burn")
}

const artifactABI = `[
  {"type":"function","name":"currentTokenId","inputs":[],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"},
  {"type":"function","name":"mintNFT","inputs":[{"name":"tokenURI","type":"string"}],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"payable"}
]`

func TestLoadFromArtifact(t *testing.T) {
	dir := t.TempDir()

	hardhat := filepath.Join(dir, "MyNFT.json")
	require.NoError(t, os.WriteFile(hardhat, []byte(`{"contractName":"MyNFT","abi":`+artifactABI+`,"bytecode":"0x6080"}`), 0o644))
	abi, err := contract.LoadFromArtifact(hardhat)
	require.NoError(t, err)
	assert.Len(t, abi, 2)

	raw := filepath.Join(dir, "abi.json")
	require.NoError(t, os.WriteFile(raw, []byte(artifactABI), 0o644))
	abi, err = contract.LoadFromArtifact(raw)
	require.NoError(t, err)
	assert.NoError(t, contract.RequireFunctions(abi, "currentTokenId", "mintNFT"))
}

func TestLoadFromArtifactErrors(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
		return p
	}

	_, err := contract.LoadFromArtifact(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	_, err = contract.LoadFromArtifact(write("empty.json", "  "))
	assert.ErrorContains(t, err, "empty")

	_, err = contract.LoadFromArtifact(write("obj.json", `{"contractName":"X"}`))
	assert.ErrorContains(t, err, "not an ABI array")

	_, err = contract.LoadFromArtifact(write("events.json", `[{"type":"event","name":"Transfer"}]`))
	assert.ErrorContains(t, err, "no functions")
}
