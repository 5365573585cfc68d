// Package cohort holds the ordered list of cohort labels events can target.
package cohort

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed cohorts.yaml
var defaultCatalogYAML []byte

// ErrEmptyCatalog is returned when a catalog file lists no cohorts.
var ErrEmptyCatalog = errors.New("cohort: catalog is empty")

type catalogFile struct {
	Cohorts []string `yaml:"cohorts"`
}

// Catalog is an immutable, rank-ordered set of cohort labels.
type Catalog struct {
	labels []string
	index  map[string]int
}

// New builds a catalog from labels in rank order. Duplicates are rejected.
func New(labels []string) (*Catalog, error) {
	if len(labels) == 0 {
		return nil, ErrEmptyCatalog
	}
	c := &Catalog{
		labels: make([]string, 0, len(labels)),
		index:  make(map[string]int, len(labels)),
	}
	for _, raw := range labels {
		label := strings.TrimSpace(raw)
		if label == "" {
			return nil, fmt.Errorf("cohort: blank label at position %d", len(c.labels))
		}
		if _, dup := c.index[label]; dup {
			return nil, fmt.Errorf("cohort: duplicate label %q", label)
		}
		c.index[label] = len(c.labels)
		c.labels = append(c.labels, label)
	}
	return c, nil
}

// Load decodes a YAML catalog document.
func Load(r io.Reader) (*Catalog, error) {
	var doc catalogFile
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyCatalog
		}
		return nil, fmt.Errorf("cohort: decode catalog: %w", err)
	}
	return New(doc.Cohorts)
}

// LoadFile reads a catalog from path. An empty path yields the built-in catalog.
func LoadFile(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cohort: open catalog: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Default returns the built-in catalog.
func Default() *Catalog {
	var doc catalogFile
	if err := yaml.Unmarshal(defaultCatalogYAML, &doc); err != nil {
		panic(fmt.Sprintf("cohort: embedded catalog: %v", err))
	}
	c, err := New(doc.Cohorts)
	if err != nil {
		panic(fmt.Sprintf("cohort: embedded catalog: %v", err))
	}
	return c
}

// Labels returns a copy of the labels in rank order.
func (c *Catalog) Labels() []string {
	out := make([]string, len(c.labels))
	copy(out, c.labels)
	return out
}

// Len returns the number of cohorts.
func (c *Catalog) Len() int { return len(c.labels) }

// IndexOf returns the rank of label, or -1 when unknown.
func (c *Catalog) IndexOf(label string) int {
	if i, ok := c.index[label]; ok {
		return i
	}
	return -1
}

// Contains reports whether label is in the catalog.
func (c *Catalog) Contains(label string) bool {
	_, ok := c.index[label]
	return ok
}

// Neighbors returns label together with the cohorts directly below and above it.
// Unknown labels yield nil.
func (c *Catalog) Neighbors(label string) []string {
	i := c.IndexOf(label)
	if i < 0 {
		return nil
	}
	lo, hi := i-1, i+1
	if lo < 0 {
		lo = 0
	}
	if hi >= len(c.labels) {
		hi = len(c.labels) - 1
	}
	out := make([]string, 0, hi-lo+1)
	out = append(out, c.labels[lo:hi+1]...)
	return out
}

// Ordered returns the selected labels in rank order. Unknown labels are dropped.
func (c *Catalog) Ordered(selected map[string]bool) []string {
	out := make([]string, 0, len(selected))
	for _, label := range c.labels {
		if selected[label] {
			out = append(out, label)
		}
	}
	return out
}
