package metadata

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrInvalidRecord is returned when a metadata record fails validation.
var ErrInvalidRecord = errors.New("invalid metadata record")

// Attribute is one ERC-721 metadata trait.
type Attribute struct {
	TraitType string `json:"trait_type"`
	Value     any    `json:"value"`
}

// Record is an ERC-721 metadata document.
type Record struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Image       string      `json:"image"`
	Attributes  []Attribute `json:"attributes"`
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	out := r
	if r.Attributes != nil {
		out.Attributes = make([]Attribute, len(r.Attributes))
		copy(out.Attributes, r.Attributes)
	}
	return out
}

// WithImage returns a copy of r whose image points at uri.
func (r Record) WithImage(uri string) Record {
	out := r.Clone()
	out.Image = uri
	return out
}

// Validate checks the fields a marketplace needs to render the token.
// The image is not checked: uploads fill it in.
func (r Record) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidRecord)
	}
	for i, a := range r.Attributes {
		if strings.TrimSpace(a.TraitType) == "" {
			return fmt.Errorf("%w: attribute %d has no trait_type", ErrInvalidRecord, i)
		}
	}
	return nil
}

// ParseAttribute parses "trait=value". Numeric values stay numbers.
func ParseAttribute(s string) (Attribute, error) {
	k, v, ok := strings.Cut(s, "=")
	if !ok || strings.TrimSpace(k) == "" {
		return Attribute{}, fmt.Errorf("attribute %q must look like trait=value", s)
	}
	k, v = strings.TrimSpace(k), strings.TrimSpace(v)

	var num json.Number
	if err := json.Unmarshal([]byte(v), &num); err == nil {
		if f, err := num.Float64(); err == nil {
			return Attribute{TraitType: k, Value: f}, nil
		}
	}
	return Attribute{TraitType: k, Value: v}, nil
}

// LoadRecord reads a metadata record from a JSON file.
func LoadRecord(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &r, nil
}
