package metadata

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"
)

// ErrTokenNotFound is returned when a token id has no URI in the manifest.
var ErrTokenNotFound = errors.New("token id not in manifest")

const manifestVersion = 1

// Manifest maps token ids to metadata URIs. The legacy flat list, where the
// array index was the token id, is still accepted by LoadManifest.
type Manifest struct {
	mu      sync.RWMutex
	path    string
	RunID   string
	Updated time.Time
	tokens  map[uint64]string
}

type manifestFile struct {
	Version int               `json:"version"`
	RunID   string            `json:"run_id,omitempty"`
	Updated time.Time         `json:"updated"`
	Tokens  map[string]string `json:"tokens"`
}

// NewManifest returns an empty manifest backed by path.
func NewManifest(path string) *Manifest {
	return &Manifest{path: path, tokens: make(map[uint64]string)}
}

// LoadManifest reads a manifest from path. A missing file yields an empty
// manifest. Both the keyed object form and a legacy JSON array of URIs
// (index = token id) are accepted.
func LoadManifest(path string) (*Manifest, error) {
	m := NewManifest(path)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return m, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []string
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("parsing manifest list: %w", err)
		}
		for i, uri := range list {
			m.tokens[uint64(i)] = uri
		}
		return m, nil
	}

	var f manifestFile
	if err := json.Unmarshal(trimmed, &f); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	if f.Version > manifestVersion {
		return nil, fmt.Errorf("manifest version %d is newer than supported %d", f.Version, manifestVersion)
	}
	for k, uri := range f.Tokens {
		id, err := strconv.ParseUint(k, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("manifest key %q is not a token id", k)
		}
		m.tokens[id] = uri
	}
	m.RunID = f.RunID
	m.Updated = f.Updated
	return m, nil
}

// Save writes the manifest atomically (temp file + rename).
func (m *Manifest) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Updated = time.Now().UTC()
	f := manifestFile{
		Version: manifestVersion,
		RunID:   m.RunID,
		Updated: m.Updated,
		Tokens:  make(map[string]string, len(m.tokens)),
	}
	for id, uri := range m.tokens {
		f.Tokens[strconv.FormatUint(id, 10)] = uri
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}

	if dir := filepath.Dir(m.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, m.path)
}

// Path returns the backing file path.
func (m *Manifest) Path() string { return m.path }

// Set records the URI for a token id.
func (m *Manifest) Set(id uint64, uri string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[id] = uri
}

// Get returns the URI for a token id.
func (m *Manifest) Get(id uint64) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	uri, ok := m.tokens[id]
	if !ok {
		return "", fmt.Errorf("%w: %d", ErrTokenNotFound, id)
	}
	return uri, nil
}

// Has reports whether id has a URI.
func (m *Manifest) Has(id uint64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.tokens[id]
	return ok
}

// Len returns the number of entries.
func (m *Manifest) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tokens)
}

// IDs returns all token ids in ascending order.
func (m *Manifest) IDs() []uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]uint64, 0, len(m.tokens))
	for id := range m.tokens {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Available counts consecutive entries starting at from. Minting stops at
// the first gap, so this is the number of tokens that can be minted next.
func (m *Manifest) Available(from uint64) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for id := from; ; id++ {
		if _, ok := m.tokens[id]; !ok {
			return n
		}
		n++
	}
}

// List returns the URIs of ids 0..n-1 as a flat list, the legacy layout.
// It fails if the ids are not dense from zero.
func (m *Manifest) List() ([]string, error) {
	ids := m.IDs()
	out := make([]string, len(ids))
	for i, id := range ids {
		if id != uint64(i) {
			return nil, fmt.Errorf("manifest is not dense: token %d missing", i)
		}
		out[i], _ = m.Get(id)
	}
	return out, nil
}

// ExportJS writes the legacy CommonJS module consumed by the web front-end:
//
//	const ipfsMetadataURIs = [...];
//	module.exports = ipfsMetadataURIs;
func (m *Manifest) ExportJS(path string) error {
	list, err := m.List()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return err
	}
	content := fmt.Sprintf("const ipfsMetadataURIs = %s;\n\nmodule.exports = ipfsMetadataURIs;\n", data)
	return os.WriteFile(path, []byte(content), 0o600)
}
