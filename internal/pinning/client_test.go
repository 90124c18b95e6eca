package pinning

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestNewClientRequiresCredentials(t *testing.T) {
	_, err := NewClient("", "secret")
	assert.ErrorIs(t, err, ErrMissingCredentials)

	_, err = NewClient("key", "")
	assert.ErrorIs(t, err, ErrMissingCredentials)
}

func TestPinFile(t *testing.T) {
	f := newFakePinata(t)
	path := writeFile(t, t.TempDir(), "1.png", "png-bytes")

	id, err := f.client(t).PinFile(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, testCIDFor([]byte("png-bytes")), id)
	assert.Equal(t, "1.png", f.lastFile)
	file, js := f.calls()
	assert.Equal(t, 1, file)
	assert.Equal(t, 0, js)
}

func TestPinFileMissingPath(t *testing.T) {
	f := newFakePinata(t)

	_, err := f.client(t).PinFile(context.Background(), filepath.Join(t.TempDir(), "nope.png"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	file, _ := f.calls()
	assert.Zero(t, file, "no request for a file that cannot be read")
}

func TestPinJSON(t *testing.T) {
	f := newFakePinata(t)

	doc := map[string]string{"name": "Token"}
	id, err := f.client(t).PinJSON(context.Background(), doc, "Token.json")
	require.NoError(t, err)

	assert.Equal(t, testCIDFor([]byte(`{"name":"Token"}`)), id)
	assert.Equal(t, "Token.json", f.names[id])
}

func TestPinUnauthorized(t *testing.T) {
	f := newFakePinata(t)
	c, err := NewClient("wrong", "creds", WithBaseURL(f.URL))
	require.NoError(t, err)

	_, err = c.PinJSON(context.Background(), map[string]int{"a": 1}, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "INVALID_API_KEYS Invalid API key provided", apiErr.Message)
}

func TestPinServerError(t *testing.T) {
	f := newFakePinata(t)
	f.failFile = http.StatusInternalServerError
	path := writeFile(t, t.TempDir(), "a.png", "x")

	_, err := f.client(t).PinFile(context.Background(), path)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "upload rejected", apiErr.Message)
	assert.NotErrorIs(t, err, ErrUnauthorized)
}

func TestPinRejectsInvalidCID(t *testing.T) {
	f := newFakePinata(t)
	f.badCID = true

	_, err := f.client(t).PinJSON(context.Background(), map[string]int{"a": 1}, "")
	assert.ErrorIs(t, err, ErrInvalidCID)
}

func TestPinBadResponseJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{not json`)) //nolint:errcheck
	}))
	defer srv.Close()

	c, err := NewClient(testKey, testSecret, WithBaseURL(srv.URL))
	require.NoError(t, err)
	_, err = c.PinJSON(context.Background(), 1, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing response")
}

func TestPinContextCanceled(t *testing.T) {
	f := newFakePinata(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.client(t).PinJSON(ctx, 1, "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPinTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c, err := NewClient(testKey, testSecret, WithBaseURL(srv.URL), WithTimeout(50*time.Millisecond))
	require.NoError(t, err)

	start := time.Now()
	_, err = c.PinJSON(context.Background(), 1, "")
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"string error", `{"error":"bad"}`, "bad"},
		{"object error", `{"error":{"reason":"R","details":"D"}}`, "R D"},
		{"message field", `{"message":"m"}`, "m"},
		{"plain text", "gateway timeout", "gateway timeout"},
		{"empty", "", "empty response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errorMessage([]byte(tt.raw)))
		})
	}
}
