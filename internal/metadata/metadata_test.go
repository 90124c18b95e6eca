package metadata

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testCIDv0 = "QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG"
	testCIDv1 = "bafybeigdyrzt5sfp7udm7hu76uh7y26nf3efuylqabf3oclgtqy55fbzdi"
)

// ---------------------------------------------------------------------------
// Record
// ---------------------------------------------------------------------------

func TestRecordJSONShape(t *testing.T) {
	r := Record{
		Name:        "My Cool NFT 1",
		Description: "desc",
		Image:       "ipfs://" + testCIDv0,
		Attributes:  []Attribute{{TraitType: "Background", Value: "Blue"}},
	}
	data, err := json.Marshal(r)
	require.NoError(t, err)

	s := string(data)
	assert.Contains(t, s, `"name":"My Cool NFT 1"`)
	assert.Contains(t, s, `"image":"ipfs://`+testCIDv0+`"`)
	assert.Contains(t, s, `"trait_type":"Background"`)
}

func TestWithImageDoesNotMutateOriginal(t *testing.T) {
	orig := Record{Name: "n", Image: "old", Attributes: []Attribute{{TraitType: "Eyes", Value: "Green"}}}
	updated := orig.WithImage("ipfs://new")

	assert.Equal(t, "old", orig.Image)
	assert.Equal(t, "ipfs://new", updated.Image)

	updated.Attributes[0].Value = "Red"
	assert.Equal(t, "Green", orig.Attributes[0].Value)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Record{Name: "ok"}.Validate())
	assert.ErrorIs(t, Record{Name: "  "}.Validate(), ErrInvalidRecord)
	assert.ErrorIs(t, Record{Name: "x", Attributes: []Attribute{{Value: 1}}}.Validate(), ErrInvalidRecord)
}

func TestParseAttribute(t *testing.T) {
	a, err := ParseAttribute("Background=Blue")
	require.NoError(t, err)
	assert.Equal(t, Attribute{TraitType: "Background", Value: "Blue"}, a)

	a, err = ParseAttribute(" Level = 7 ")
	require.NoError(t, err)
	assert.Equal(t, "Level", a.TraitType)
	assert.Equal(t, float64(7), a.Value)

	_, err = ParseAttribute("novalue")
	assert.Error(t, err)
	_, err = ParseAttribute("=x")
	assert.Error(t, err)
}

func TestLoadRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"name":"A","description":"B","attributes":[{"trait_type":"Eyes","value":"Green"}]}`), 0o644))

	r, err := LoadRecord(path)
	require.NoError(t, err)
	assert.Equal(t, "A", r.Name)
	require.Len(t, r.Attributes, 1)

	_, err = LoadRecord(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

// ---------------------------------------------------------------------------
// URIs
// ---------------------------------------------------------------------------

func TestParseCID(t *testing.T) {
	_, err := ParseCID(testCIDv0)
	assert.NoError(t, err)
	_, err = ParseCID(testCIDv1)
	assert.NoError(t, err)
	_, err = ParseCID("not-a-cid")
	assert.ErrorIs(t, err, ErrInvalidCID)
}

func TestCIDFromURI(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"ipfs://" + testCIDv0, testCIDv0, false},
		{testCIDv1, testCIDv1, false},
		{"ipfs://ipfs/" + testCIDv1, testCIDv1, false},
		{"ipfs://" + testCIDv1 + "/1.json", testCIDv1 + "/1.json", false},
		{"ipfs://garbage", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := CIDFromURI(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGatewayURL(t *testing.T) {
	got, err := GatewayURL("https://gateway.pinata.cloud/", "ipfs://"+testCIDv0)
	require.NoError(t, err)
	assert.Equal(t, "https://gateway.pinata.cloud/ipfs/"+testCIDv0, got)

	got, err = GatewayURL("https://tomato.mypinata.cloud/ipfs", "ipfs://"+testCIDv0)
	require.NoError(t, err)
	assert.Equal(t, "https://tomato.mypinata.cloud/ipfs/"+testCIDv0, got)

	got, err = GatewayURL("https://gw", "https://example.com/a.png")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a.png", got)

	_, err = GatewayURL("https://gw", "ipfs://nope")
	assert.Error(t, err)
}

func TestURI(t *testing.T) {
	assert.Equal(t, "ipfs://"+testCIDv0, URI(testCIDv0))
}

// ---------------------------------------------------------------------------
// Manifest
// ---------------------------------------------------------------------------

func TestManifestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metadataURIs.json")
	m := NewManifest(path)
	m.RunID = "run-1"
	m.Set(0, "ipfs://a")
	m.Set(1, "ipfs://b")
	require.NoError(t, m.Save())

	loaded, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Len())
	assert.Equal(t, "run-1", loaded.RunID)
	assert.False(t, loaded.Updated.IsZero())

	uri, err := loaded.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "ipfs://b", uri)

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}
}

func TestManifestMissingFileIsEmpty(t *testing.T) {
	m, err := LoadManifest(filepath.Join(t.TempDir(), "none.json"))
	require.NoError(t, err)
	assert.Equal(t, 0, m.Len())
}

func TestManifestLegacyList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.json")
	require.NoError(t, os.WriteFile(path, []byte(`["ipfs://a","ipfs://b","ipfs://c"]`), 0o644))

	m, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 1, 2}, m.IDs())

	uri, err := m.Get(2)
	require.NoError(t, err)
	assert.Equal(t, "ipfs://c", uri)
}

func TestManifestRejectsBadKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":1,"tokens":{"one":"ipfs://a"}}`), 0o644))

	_, err := LoadManifest(path)
	assert.Error(t, err)
}

func TestManifestRejectsNewerVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "future.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":9,"tokens":{}}`), 0o644))

	_, err := LoadManifest(path)
	assert.Error(t, err)
}

func TestManifestGetMissing(t *testing.T) {
	m := NewManifest("")
	_, err := m.Get(3)
	assert.ErrorIs(t, err, ErrTokenNotFound)
	assert.False(t, m.Has(3))
}

func TestManifestAvailable(t *testing.T) {
	m := NewManifest("")
	for i := uint64(0); i < 10; i++ {
		m.Set(i, "ipfs://x")
	}

	assert.Equal(t, 10, m.Available(0))
	assert.Equal(t, 7, m.Available(3))
	assert.Equal(t, 0, m.Available(10))
	assert.Equal(t, 0, m.Available(42))

	// A gap stops the count.
	m.Set(12, "ipfs://y")
	assert.Equal(t, 0, m.Available(11))
	assert.Equal(t, 1, m.Available(12))
}

func TestManifestListDense(t *testing.T) {
	m := NewManifest("")
	m.Set(1, "ipfs://b")
	m.Set(0, "ipfs://a")

	list, err := m.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"ipfs://a", "ipfs://b"}, list)

	m.Set(5, "ipfs://f")
	_, err = m.List()
	assert.Error(t, err)
}

func TestManifestExportJS(t *testing.T) {
	dir := t.TempDir()
	m := NewManifest(filepath.Join(dir, "m.json"))
	m.Set(0, "ipfs://a")
	m.Set(1, "ipfs://b")

	out := filepath.Join(dir, "metadataURIs.js")
	require.NoError(t, m.ExportJS(out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	s := string(data)
	assert.True(t, strings.HasPrefix(s, "const ipfsMetadataURIs = ["))
	assert.Contains(t, s, `"ipfs://b"`)
	assert.Contains(t, s, "module.exports = ipfsMetadataURIs;")

	if runtime.GOOS != "windows" {
		info, err := os.Stat(out)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}
}

// ---------------------------------------------------------------------------
// Template
// ---------------------------------------------------------------------------

func TestDefaultTemplateRender(t *testing.T) {
	r := DefaultTemplate().Render(3)
	assert.Equal(t, "My Cool NFT 3", r.Name)
	assert.Equal(t, "This is an amazing piece of digital art for NFT 3", r.Description)
	assert.Empty(t, r.Image)
	require.Len(t, r.Attributes, 2)
	assert.Equal(t, "Background", r.Attributes[0].TraitType)
}

func TestTemplateWithoutVerb(t *testing.T) {
	r := Template{Name: "Static"}.Render(9)
	assert.Equal(t, "Static", r.Name)
	assert.Nil(t, r.Attributes)
}

func TestTemplateKeepsLiteralPercent(t *testing.T) {
	tests := []struct {
		name   string
		format string
		want   string
	}{
		{"literal percent", "100% Cool #%d", "100% Cool #7"},
		{"repeated verb", "Edition %d of %d", "Edition 7 of 7"},
		{"other verbs", "%s and %v stay", "%s and %v stay"},
		{"trailing percent", "Rare %", "Rare %"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Template{Name: tt.format, Description: tt.format}.Render(7)
			assert.Equal(t, tt.want, r.Name)
			assert.Equal(t, tt.want, r.Description)
		})
	}
}

func TestLoadTemplate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "template.json")
	body := `{"name":"Fox #%d","description":"A fox","attributes":[{"trait_type":"Fur","value":"Red"}]}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	tpl, err := LoadTemplate(path)
	require.NoError(t, err)
	r := tpl.Render(12)
	assert.Equal(t, "Fox #12", r.Name)
	assert.Equal(t, "A fox", r.Description)
	require.Len(t, r.Attributes, 1)
	assert.Equal(t, "Red", r.Attributes[0].Value)
}

func TestLoadTemplateErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadTemplate(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o600))
	_, err = LoadTemplate(bad)
	assert.Error(t, err)

	noName := filepath.Join(dir, "noname.json")
	require.NoError(t, os.WriteFile(noName, []byte(`{"description":"x"}`), 0o600))
	_, err = LoadTemplate(noName)
	assert.Error(t, err)
}
