/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: catalog.go
Description: Variable catalog for the type-inference scanner. Tracks every
variable name seen in a statistics dump together with its inferred kind on the
type lattice, the set of sub-entries observed for it, and the derived bucket
bounds for distributions. Catalogs from separate files merge by entry union
and lattice maximum.
*/

package scanner

import (
	"sort"
	"strconv"

	"github.com/kleascm/statscope/pkg/grammar"
)

// distributionSummaryWords are the summary entries that only a
// distribution- or histogram-backed statistic emits. Seeing one of them
// promotes the owning variable past Vector.
var distributionSummaryWords = map[string]bool{
	"samples": true,
	"mean":    true,
	"stdev":   true,
	"gmean":   true,
}

// Variable describes one statistic discovered by a scan pass
// Kind only ever moves upward on the lattice; Entries accumulates every
// distinct sub-entry observed for the name within the pass.
type Variable struct {
	Name      string
	Kind      grammar.Kind
	Entries   map[string]struct{}
	MinBucket *int
	MaxBucket *int

	// Instances is the number of concrete variables collapsed into this
	// one by pattern aggregation; zero for a concrete variable.
	Instances int
}

// newVariable creates a variable with an empty entry set
func newVariable(name string, kind grammar.Kind) *Variable {
	return &Variable{
		Name:    name,
		Kind:    kind,
		Entries: make(map[string]struct{}),
	}
}

// SortedEntries returns the entry set as a sorted slice
func (v *Variable) SortedEntries() []string {
	entries := make([]string, 0, len(v.Entries))
	for e := range v.Entries {
		entries = append(entries, e)
	}
	sort.Strings(entries)
	return entries
}

// mergeFrom folds another observation of the same name into this variable
func (v *Variable) mergeFrom(other *Variable) {
	v.Kind = v.Kind.LatticeMax(other.Kind)
	for e := range other.Entries {
		v.Entries[e] = struct{}{}
	}
	if other.Instances > v.Instances {
		v.Instances = other.Instances
	}
}

// deriveBucketBounds computes MinBucket/MaxBucket from the signed-integer
// subset of the entry set. Non-numeric entries (overflows, underflows,
// bucket names) are ignored; both fields stay nil when no integer exists.
func (v *Variable) deriveBucketBounds() {
	v.MinBucket = nil
	v.MaxBucket = nil
	for e := range v.Entries {
		n, err := strconv.Atoi(e)
		if err != nil {
			continue
		}
		if v.MinBucket == nil || n < *v.MinBucket {
			bucket := n
			v.MinBucket = &bucket
		}
		if v.MaxBucket == nil || n > *v.MaxBucket {
			bucket := n
			v.MaxBucket = &bucket
		}
	}
}

// Catalog maps variable names to their inferred descriptions
// One catalog is owned exclusively by one scan pass until merged.
type Catalog struct {
	vars map[string]*Variable
}

// NewCatalog creates an empty catalog
func NewCatalog() *Catalog {
	return &Catalog{vars: make(map[string]*Variable)}
}

// Len returns the number of variables in the catalog
func (c *Catalog) Len() int {
	return len(c.vars)
}

// Get returns the variable for a name, or nil if unknown
func (c *Catalog) Get(name string) *Variable {
	return c.vars[name]
}

// Names returns all variable names in sorted order
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.vars))
	for name := range c.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// put inserts a variable, replacing any previous entry for the name
func (c *Catalog) put(v *Variable) {
	c.vars[v.Name] = v
}

// Observe folds one classified line into the catalog
// Implements the lattice update and the summary promotion rule: a
// summary-tagged name is at least a Vector, and the diagnostic summary
// words (samples/mean/stdev/gmean) promote it to Distribution.
func (c *Catalog) Observe(cls grammar.Classification) {
	v, seen := c.vars[cls.Name]

	switch cls.Kind {
	case grammar.KindSummary:
		if !seen {
			v = newVariable(cls.Name, grammar.KindVector)
			c.vars[cls.Name] = v
		} else if v.Kind == grammar.KindScalar {
			v.Kind = grammar.KindVector
		}
		if distributionSummaryWords[cls.Entry] {
			v.Kind = v.Kind.LatticeMax(grammar.KindDistribution)
		}
	case grammar.KindConfiguration:
		if !seen {
			v = newVariable(cls.Name, grammar.KindConfiguration)
			c.vars[cls.Name] = v
		}
		// A name already on the lattice keeps its richer kind.
	default:
		if !seen {
			v = newVariable(cls.Name, cls.Kind)
			c.vars[cls.Name] = v
		} else {
			v.Kind = v.Kind.LatticeMax(cls.Kind)
		}
	}

	if cls.Entry != "" {
		v.Entries[cls.Entry] = struct{}{}
	}
}

// Merge folds another catalog into this one
// Entries union and kinds take the lattice maximum, so merging many
// per-file catalogs yields the same result regardless of order.
func (c *Catalog) Merge(other *Catalog) {
	for name, ov := range other.vars {
		if v, ok := c.vars[name]; ok {
			v.mergeFrom(ov)
		} else {
			merged := newVariable(name, ov.Kind)
			merged.mergeFrom(ov)
			c.vars[name] = merged
		}
	}
}

// Finalize derives bucket bounds for every distribution variable
// Called once after a scan pass (and again after merging) so the bounds
// always reflect the full entry set.
func (c *Catalog) Finalize() {
	for _, v := range c.vars {
		if v.Kind == grammar.KindDistribution {
			v.deriveBucketBounds()
		}
	}
}

// Record is one catalog entry in the external scan output contract
type Record struct {
	Name      string   `json:"name" yaml:"name"`
	Type      string   `json:"type" yaml:"type"`
	Entries   []string `json:"entries,omitempty" yaml:"entries,omitempty"`
	Minimum   *int     `json:"minimum,omitempty" yaml:"minimum,omitempty"`
	Maximum   *int     `json:"maximum,omitempty" yaml:"maximum,omitempty"`
	Instances int      `json:"instances,omitempty" yaml:"instances,omitempty"`
}

// CatalogFromRecords rebuilds a catalog from its external record form
// Used when a previously written scan output is loaded to resolve pattern
// specs in a later parse request.
func CatalogFromRecords(records []Record) (*Catalog, error) {
	c := NewCatalog()
	for _, r := range records {
		kind, err := grammar.ParseKind(r.Type)
		if err != nil {
			return nil, err
		}
		v := newVariable(r.Name, kind)
		for _, e := range r.Entries {
			v.Entries[e] = struct{}{}
		}
		v.MinBucket = r.Minimum
		v.MaxBucket = r.Maximum
		v.Instances = r.Instances
		c.put(v)
	}
	return c, nil
}

// Records returns the catalog as a deterministic, name-sorted record list
// Ordering is stable so downstream diffs are reproducible.
func (c *Catalog) Records() []Record {
	records := make([]Record, 0, len(c.vars))
	for _, name := range c.Names() {
		v := c.vars[name]
		records = append(records, Record{
			Name:      v.Name,
			Type:      v.Kind.String(),
			Entries:   v.SortedEntries(),
			Minimum:   v.MinBucket,
			Maximum:   v.MaxBucket,
			Instances: v.Instances,
		})
	}
	return records
}
