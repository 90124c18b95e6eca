package pinning

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Mohsinsiddi/nftmint/internal/logging"
	"github.com/Mohsinsiddi/nftmint/internal/metadata"
	"go.uber.org/zap"
)

// DefaultBaseURL is the Pinata API root.
const DefaultBaseURL = "https://api.pinata.cloud"

const (
	pinFilePath = "/pinning/pinFileToIPFS"
	pinJSONPath = "/pinning/pinJSONToIPFS"
)

// Errors.
var (
	ErrMissingCredentials = errors.New("pinning API key and secret are required")
	ErrUnauthorized       = errors.New("pinning service rejected the credentials")

	// ErrInvalidCID is returned when the service answers with an identifier
	// that is not a valid CID.
	ErrInvalidCID = metadata.ErrInvalidCID
)

// APIError is a non-2xx response from the pinning service.
type APIError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: pinning service returned %d: %s", e.Op, e.StatusCode, e.Message)
}

// Unwrap lets errors.Is match ErrUnauthorized on 401/403.
func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden {
		return ErrUnauthorized
	}
	return nil
}

// PinResponse is the body Pinata returns for both pin endpoints.
type PinResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

// Client talks to a Pinata-compatible pinning API. Each Pin* call issues
// exactly one HTTP request and never retries.
type Client struct {
	baseURL string
	key     string
	secret  string
	http    *http.Client
	log     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another API root (tests, self-hosted).
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = logging.OrNop(l) }
}

// NewClient creates a Client. Both credentials are required.
func NewClient(key, secret string, opts ...Option) (*Client, error) {
	if key == "" || secret == "" {
		return nil, ErrMissingCredentials
	}
	c := &Client{
		baseURL: DefaultBaseURL,
		key:     key,
		secret:  secret,
		http:    &http.Client{Timeout: 2 * time.Minute},
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// PinFile uploads the file at path and returns its CID.
func (c *Client) PinFile(ctx context.Context, path string) (string, error) {
	const op = "pin file"

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%s %s: %w", op, path, err)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("%s: reading %s: %w", op, path, err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	cid, err := c.do(ctx, op, pinFilePath, mw.FormDataContentType(), &body)
	if err != nil {
		return "", err
	}
	c.log.Info("file pinned", zap.String("path", path), zap.String("cid", cid))
	return cid, nil
}

// PinJSON uploads v as a JSON document and returns its CID. name labels the
// pin in the Pinata dashboard and may be empty.
func (c *Client) PinJSON(ctx context.Context, v any, name string) (string, error) {
	const op = "pin json"

	payload := map[string]any{"pinataContent": v}
	if name != "" {
		payload["pinataMetadata"] = map[string]string{"name": name}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%s: encoding: %w", op, err)
	}

	cid, err := c.do(ctx, op, pinJSONPath, "application/json", bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	c.log.Info("json pinned", zap.String("name", name), zap.String("cid", cid))
	return cid, nil
}

func (c *Client) do(ctx context.Context, op, path, contentType string, body io.Reader) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("pinata_api_key", c.key)
	req.Header.Set("pinata_secret_api_key", c.secret)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("pinning request failed", zap.String("op", op), zap.Error(err))
		return "", fmt.Errorf("%s: request failed: %w", op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%s: reading response: %w", op, err)
	}
	c.log.Debug("pinning response",
		zap.String("op", op),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &APIError{Op: op, StatusCode: resp.StatusCode, Message: errorMessage(raw)}
	}

	var pr PinResponse
	if err := json.Unmarshal(raw, &pr); err != nil {
		return "", fmt.Errorf("%s: parsing response: %w", op, err)
	}
	if _, err := metadata.ParseCID(pr.IpfsHash); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return pr.IpfsHash, nil
}

// errorMessage pulls a readable message out of a Pinata error body, which
// is either {"error": "..."} or {"error": {"reason": "...", "details": "..."}}.
func errorMessage(raw []byte) string {
	var body struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		var s string
		if json.Unmarshal(body.Error, &s) == nil && s != "" {
			return s
		}
		var obj struct {
			Reason  string `json:"reason"`
			Details string `json:"details"`
		}
		if json.Unmarshal(body.Error, &obj) == nil && (obj.Reason != "" || obj.Details != "") {
			return strings.TrimSpace(obj.Reason + " " + obj.Details)
		}
		if body.Message != "" {
			return body.Message
		}
	}
	msg := strings.TrimSpace(string(raw))
	if len(msg) > 200 {
		msg = msg[:200] + "…"
	}
	if msg == "" {
		msg = "empty response"
	}
	return msg
}
