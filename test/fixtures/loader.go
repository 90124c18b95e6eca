// Package fixtures holds test data and in-process fakes of the pinning
// service and an NFTMint node, shared by the integration and e2e tests.
package fixtures

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

// fixturesDir returns the absolute path to the fixtures directory.
func fixturesDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Dir(file)
}

// ArtifactPath returns the path of the NFTMint Hardhat artifact.
func ArtifactPath(t *testing.T) string {
	t.Helper()
	path := filepath.Join(fixturesDir(), "abis", "NFTMint.json")
	_, err := os.Stat(path)
	require.NoError(t, err, "missing fixture artifact")
	return path
}

// PhotoDir returns a directory holding 1.png, 2.png and 3.png.
func PhotoDir(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(fixturesDir(), "photo")
	_, err := os.Stat(filepath.Join(dir, "1.png"))
	require.NoError(t, err, "missing fixture images")
	return dir
}

// LoadImage returns the bytes of a fixture image.
func LoadImage(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(fixturesDir(), "photo", name))
	require.NoError(t, err, "failed to load fixture image: %s", name)
	return data
}
