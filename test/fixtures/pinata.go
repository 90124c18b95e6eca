package fixtures

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/ipfs/go-cid"
)

// Pinata credentials accepted by the fake.
const (
	PinataKey    = "fixture-key"
	PinataSecret = "fixture-secret"
)

// Pinata is an in-memory pinning service that also serves /ipfs/<cid> like
// a gateway, so the same URL works as pinning_url and gateway_url.
type Pinata struct {
	*httptest.Server

	mu      sync.Mutex
	content map[string][]byte
	// FailFileAfter makes pinFileToIPFS fail once this many files were
	// pinned. Zero never fails.
	FailFileAfter int
	files         int
	jsons         int
}

// NewPinata starts a fake pinning service.
func NewPinata(t *testing.T) *Pinata {
	t.Helper()
	p := &Pinata{content: map[string][]byte{}}
	mux := http.NewServeMux()
	mux.HandleFunc("/pinning/pinFileToIPFS", p.pinFile)
	mux.HandleFunc("/pinning/pinJSONToIPFS", p.pinJSON)
	mux.HandleFunc("/ipfs/", p.get)
	p.Server = httptest.NewServer(mux)
	t.Cleanup(p.Close)
	return p
}

// Calls returns how many files and JSON documents were pinned.
func (p *Pinata) Calls() (files, jsons int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.files, p.jsons
}

// Content returns a pinned document by CID.
func (p *Pinata) Content(id string) ([]byte, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	data, ok := p.content[id]
	return data, ok
}

func (p *Pinata) authorized(w http.ResponseWriter, r *http.Request) bool {
	if r.Header.Get("pinata_api_key") != PinataKey || r.Header.Get("pinata_secret_api_key") != PinataSecret {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":{"reason":"INVALID_API_KEYS","details":"Invalid API key provided"}}`) //nolint:errcheck
		return false
	}
	return true
}

func (p *Pinata) pinFile(w http.ResponseWriter, r *http.Request) {
	if !p.authorized(w, r) {
		return
	}
	p.mu.Lock()
	fail := p.FailFileAfter > 0 && p.files >= p.FailFileAfter
	p.mu.Unlock()
	if fail {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"error":"storage unavailable"}`) //nolint:errcheck
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()
	data, _ := io.ReadAll(file)

	p.mu.Lock()
	p.files++
	p.mu.Unlock()
	p.respond(w, data)
}

func (p *Pinata) pinJSON(w http.ResponseWriter, r *http.Request) {
	if !p.authorized(w, r) {
		return
	}
	var body struct {
		Content json.RawMessage `json:"pinataContent"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.Content) == 0 {
		http.Error(w, "bad body", http.StatusBadRequest)
		return
	}

	p.mu.Lock()
	p.jsons++
	p.mu.Unlock()
	p.respond(w, body.Content)
}

func (p *Pinata) respond(w http.ResponseWriter, data []byte) {
	id := CIDFor(data)
	p.mu.Lock()
	p.content[id] = data
	p.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
		"IpfsHash":  id,
		"PinSize":   len(data),
		"Timestamp": "2024-01-01T00:00:00Z",
	})
}

func (p *Pinata) get(w http.ResponseWriter, r *http.Request) {
	data, ok := p.Content(strings.TrimPrefix(r.URL.Path, "/ipfs/"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Write(data) //nolint:errcheck
}

// CIDFor returns the CIDv1 (raw, sha2-256) of data.
func CIDFor(data []byte) string {
	c, err := cid.Prefix{Version: 1, Codec: cid.Raw, MhType: 0x12, MhLength: -1}.Sum(data)
	if err != nil {
		panic(err)
	}
	return c.String()
}
