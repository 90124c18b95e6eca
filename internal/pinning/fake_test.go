package pinning

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/stretchr/testify/require"
)

const (
	testKey    = "key-123"
	testSecret = "secret-456"
)

// fakePinata is an in-memory pinning service that also serves /ipfs/<cid>
// like a gateway, so uploads can be read back.
type fakePinata struct {
	*httptest.Server

	mu        sync.Mutex
	content   map[string][]byte
	names     map[string]string
	fileCalls int
	jsonCalls int
	failFile  int // status to return from pinFileToIPFS, 0 = succeed
	failJSON  int
	badCID    bool
	lastFile  string // multipart filename
}

func newFakePinata(t *testing.T) *fakePinata {
	t.Helper()
	f := &fakePinata{content: map[string][]byte{}, names: map[string]string{}}
	mux := http.NewServeMux()
	mux.HandleFunc("/pinning/pinFileToIPFS", f.pinFile)
	mux.HandleFunc("/pinning/pinJSONToIPFS", f.pinJSON)
	mux.HandleFunc("/ipfs/", f.get)
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func (f *fakePinata) client(t *testing.T) *Client {
	t.Helper()
	c, err := NewClient(testKey, testSecret, WithBaseURL(f.URL))
	require.NoError(t, err)
	return c
}

func (f *fakePinata) authorized(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	if r.Header.Get("pinata_api_key") != testKey || r.Header.Get("pinata_secret_api_key") != testSecret {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":{"reason":"INVALID_API_KEYS","details":"Invalid API key provided"}}`) //nolint:errcheck
		return false
	}
	return true
}

func (f *fakePinata) pinFile(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.fileCalls++
	fail := f.failFile
	f.mu.Unlock()

	if !f.authorized(w, r) {
		return
	}
	if fail != 0 {
		w.WriteHeader(fail)
		io.WriteString(w, `{"error":"upload rejected"}`) //nolint:errcheck
		return
	}
	file, hdr, err := r.FormFile("file")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()
	data, _ := io.ReadAll(file)

	f.mu.Lock()
	f.lastFile = hdr.Filename
	f.mu.Unlock()
	f.respond(w, data, hdr.Filename)
}

func (f *fakePinata) pinJSON(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.jsonCalls++
	fail := f.failJSON
	f.mu.Unlock()

	if !f.authorized(w, r) {
		return
	}
	if fail != 0 {
		w.WriteHeader(fail)
		io.WriteString(w, `{"error":"upload rejected"}`) //nolint:errcheck
		return
	}
	var body struct {
		Content  json.RawMessage   `json:"pinataContent"`
		Metadata map[string]string `json:"pinataMetadata"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.Content) == 0 {
		http.Error(w, "bad body", http.StatusBadRequest)
		return
	}
	f.respond(w, body.Content, body.Metadata["name"])
}

func (f *fakePinata) respond(w http.ResponseWriter, data []byte, name string) {
	id := "not-a-cid"
	if !f.badCID {
		id = testCIDFor(data)
	}
	f.mu.Lock()
	f.content[id] = data
	f.names[id] = name
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(PinResponse{IpfsHash: id, PinSize: int64(len(data)), Timestamp: "2024-01-01T00:00:00Z"}) //nolint:errcheck
}

func (f *fakePinata) get(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/ipfs/")
	f.mu.Lock()
	data, ok := f.content[id]
	f.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Write(data) //nolint:errcheck
}

func (f *fakePinata) calls() (file, js int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fileCalls, f.jsonCalls
}

// testCIDFor returns the CIDv1 (raw, sha2-256) of data.
func testCIDFor(data []byte) string {
	c, err := cid.Prefix{Version: 1, Codec: cid.Raw, MhType: 0x12, MhLength: -1}.Sum(data)
	if err != nil {
		panic(err)
	}
	return c.String()
}
