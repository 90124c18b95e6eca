package metadata

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ipfs/go-cid"
)

// Scheme is the URI scheme for content-addressed references.
const Scheme = "ipfs://"

// ErrInvalidCID is returned for identifiers that do not parse as a CID.
var ErrInvalidCID = errors.New("invalid content identifier")

// ParseCID validates s as an IPFS CID (v0 or v1).
func ParseCID(s string) (cid.Cid, error) {
	c, err := cid.Decode(strings.TrimSpace(s))
	if err != nil {
		return cid.Undef, fmt.Errorf("%w %q: %v", ErrInvalidCID, s, err)
	}
	return c, nil
}

// URI returns the ipfs:// URI for a CID string.
func URI(id string) string {
	return Scheme + id
}

// CIDFromURI extracts and validates the CID from an ipfs:// URI. A bare CID
// and an ipfs://ipfs/<cid> form are accepted too. A trailing path is kept.
func CIDFromURI(uri string) (string, error) {
	s := strings.TrimPrefix(strings.TrimSpace(uri), Scheme)
	s = strings.TrimPrefix(s, "ipfs/")
	root, rest, _ := strings.Cut(s, "/")
	if _, err := ParseCID(root); err != nil {
		return "", err
	}
	if rest != "" {
		return root + "/" + rest, nil
	}
	return root, nil
}

// GatewayURL rewrites an ipfs:// URI to an HTTP gateway URL. Non-IPFS URLs are
// returned unchanged.
func GatewayURL(gateway, uri string) (string, error) {
	if strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://") {
		return uri, nil
	}
	path, err := CIDFromURI(uri)
	if err != nil {
		return "", err
	}
	gateway = strings.TrimRight(gateway, "/")
	gateway = strings.TrimSuffix(gateway, "/ipfs")
	return gateway + "/ipfs/" + path, nil
}
