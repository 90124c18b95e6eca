package pinning

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Mohsinsiddi/nftmint/internal/metadata"
)

// DefaultGatewayURL is Pinata's public gateway.
const DefaultGatewayURL = "https://gateway.pinata.cloud"

// Gateway reads pinned content back over an HTTP IPFS gateway.
type Gateway struct {
	base   string
	client *http.Client
}

// NewGateway creates a Gateway for the given base URL.
func NewGateway(base string) *Gateway {
	if base == "" {
		base = DefaultGatewayURL
	}
	return &Gateway{
		base:   strings.TrimRight(base, "/"),
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// URL converts an ipfs:// URI to a gateway URL.
func (g *Gateway) URL(uri string) (string, error) {
	return metadata.GatewayURL(g.base, uri)
}

// ImageURL returns the gateway URL of r's image.
func (g *Gateway) ImageURL(r *metadata.Record) (string, error) {
	if r == nil || r.Image == "" {
		return "", fmt.Errorf("%w: image is empty", metadata.ErrInvalidRecord)
	}
	return g.URL(r.Image)
}

// FetchMetadata downloads and decodes the metadata record at uri.
func (g *Gateway) FetchMetadata(ctx context.Context, uri string) (*metadata.Record, error) {
	url, err := g.URL(uri)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: gateway returned %d", url, resp.StatusCode)
	}

	var r metadata.Record
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("parsing metadata at %s: %w", url, err)
	}
	return &r, nil
}

// VerifyImage fetches the metadata at uri and checks that its image points
// at imageURI.
func (g *Gateway) VerifyImage(ctx context.Context, uri, imageURI string) (*metadata.Record, error) {
	r, err := g.FetchMetadata(ctx, uri)
	if err != nil {
		return nil, err
	}
	if r.Image != imageURI {
		return r, fmt.Errorf("metadata %s references image %q, want %q", uri, r.Image, imageURI)
	}
	return r, nil
}
