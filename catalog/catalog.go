// Package catalog holds the deduplicated drug list and answers name and
// substance searches over it.
package catalog

import (
	"strings"

	"github.com/giygas/automedication-api/drugparser/entities"
)

// Catalog is an immutable snapshot of the brand-level drugs.
// It is safe for concurrent use; rebuilding produces a new Catalog.
type Catalog struct {
	drugs []entities.Drug
	byID  map[string]int
	// lower-cased search haystacks, parallel to drugs
	names      []string
	substances [][]string
}

// New creates a catalog from drugs. The slice is copied.
func New(drugs []entities.Drug) *Catalog {
	c := &Catalog{
		drugs:      make([]entities.Drug, len(drugs)),
		byID:       make(map[string]int, len(drugs)),
		names:      make([]string, len(drugs)),
		substances: make([][]string, len(drugs)),
	}

	copy(c.drugs, drugs)

	for i, d := range c.drugs {
		if _, exists := c.byID[d.ID]; !exists {
			c.byID[d.ID] = i
		}
		c.names[i] = strings.ToLower(d.Name)
		subs := make([]string, len(d.Substances))
		for j, s := range d.Substances {
			subs[j] = strings.ToLower(s.Name)
		}
		c.substances[i] = subs
	}

	return c
}

// Empty returns a catalog without drugs
func Empty() *Catalog {
	return New(nil)
}

// Len returns the number of drugs
func (c *Catalog) Len() int {
	return len(c.drugs)
}

// Drugs returns a copy of the drugs in catalog order
func (c *Catalog) Drugs() []entities.Drug {
	out := make([]entities.Drug, len(c.drugs))
	copy(out, c.drugs)
	return out
}

// Get returns the drug with the given CIS
func (c *Catalog) Get(id string) (entities.Drug, bool) {
	i, ok := c.byID[id]
	if !ok {
		return entities.Drug{}, false
	}
	return c.drugs[i], true
}

// Search returns every drug whose name or one of whose substance names
// contains query, ignoring case, in catalog order. The query is expected to
// be validated by the caller; an empty query matches nothing.
func (c *Catalog) Search(query string) []entities.Drug {
	results := []entities.Drug{}

	needle := strings.ToLower(query)
	if strings.TrimSpace(needle) == "" {
		return results
	}

	for i := range c.drugs {
		if c.matches(i, needle) {
			results = append(results, c.drugs[i])
		}
	}

	return results
}

func (c *Catalog) matches(i int, needle string) bool {
	if strings.Contains(c.names[i], needle) {
		return true
	}
	for _, s := range c.substances[i] {
		if strings.Contains(s, needle) {
			return true
		}
	}
	return false
}

// AnnotationFunc returns the therapeutic class and risk tags of a substance
type AnnotationFunc func(code string) (class string, tags []string, ok bool)

// Annotate returns a new catalog whose substances carry the class and tags
// returned by lookup. c is left untouched.
func (c *Catalog) Annotate(lookup AnnotationFunc) *Catalog {
	drugs := make([]entities.Drug, len(c.drugs))
	for i, d := range c.drugs {
		subs := make([]entities.Substance, len(d.Substances))
		for j, s := range d.Substances {
			if class, tags, ok := lookup(s.Code); ok {
				s.Class = class
				s.Tags = append([]string(nil), tags...)
			}
			subs[j] = s
		}
		d.Substances = subs
		drugs[i] = d
	}
	return New(drugs)
}
