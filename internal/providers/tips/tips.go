package tips

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/goccy/go-yaml"
)

//go:embed tips.yaml
var defaultTips []byte

// Tip is a single coding tip
type Tip struct {
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
}

// Catalog is an immutable, ordered list of tips
type Catalog struct {
	tips []Tip
}

// Load parses a YAML list of tips. Every entry needs a title and a
// description.
func Load(data []byte) (*Catalog, error) {
	var tips []Tip
	if err := yaml.Unmarshal(data, &tips); err != nil {
		return nil, fmt.Errorf("parse tips: %w", err)
	}
	if len(tips) == 0 {
		return nil, errors.New("no tips defined")
	}
	for i, tip := range tips {
		if tip.Title == "" || tip.Description == "" {
			return nil, fmt.Errorf("tip %d: title and description are required", i)
		}
	}
	return &Catalog{tips: tips}, nil
}

// Default returns the built-in catalog
func Default() *Catalog {
	c, err := Load(defaultTips)
	if err != nil {
		panic(fmt.Sprintf("embedded tips: %v", err))
	}
	return c
}

// All returns a copy of the tips in display order
func (c *Catalog) All() []Tip {
	out := make([]Tip, len(c.tips))
	copy(out, c.tips)
	return out
}

// Len returns the number of tips
func (c *Catalog) Len() int {
	return len(c.tips)
}
