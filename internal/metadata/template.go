package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Template produces one metadata record per batch index. Every %d in Name
// and Description is replaced by the index; any other text, including a
// lone %, is kept as written.
type Template struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Attributes  []Attribute `json:"attributes"`
}

// DefaultTemplate is used when a batch is run without --template.
func DefaultTemplate() Template {
	return Template{
		Name:        "My Cool NFT %d",
		Description: "This is an amazing piece of digital art for NFT %d",
		Attributes: []Attribute{
			{TraitType: "Background", Value: "Blue"},
			{TraitType: "Eyes", Value: "Green"},
		},
	}
}

// Render builds the record for index i. The image is left empty.
func (t Template) Render(i int) Record {
	r := Record{
		Name:        expand(t.Name, i),
		Description: expand(t.Description, i),
	}
	if len(t.Attributes) > 0 {
		r.Attributes = make([]Attribute, len(t.Attributes))
		copy(r.Attributes, t.Attributes)
	}
	return r
}

// LoadTemplate reads a template from a JSON file with the same shape as a
// metadata record, minus the image.
func LoadTemplate(path string) (Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Template{}, fmt.Errorf("reading template: %w", err)
	}
	var t Template
	if err := json.Unmarshal(data, &t); err != nil {
		return Template{}, fmt.Errorf("parsing template %s: %w", path, err)
	}
	if strings.TrimSpace(t.Name) == "" {
		return Template{}, fmt.Errorf("template %s: name is required", path)
	}
	return t, nil
}

func expand(format string, i int) string {
	return strings.ReplaceAll(format, "%d", strconv.Itoa(i))
}
