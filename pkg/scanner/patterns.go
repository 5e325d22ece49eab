/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: patterns.go
Description: Pattern aggregation for merged variable catalogs. Collapses
variable names that differ only in embedded digit runs (per-core, per-bank,
per-run indices) into one digit-wildcard template, keeping the instance count
and requiring every matched instance to agree on its kind. Disagreements are
surfaced as data-quality diagnostics, never silently resolved.
*/

package scanner

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// digitWildcard replaces each maximal digit run in a pattern template
const digitWildcard = `\d+`

var digitRunRe = regexp.MustCompile(`[0-9]+`)

// KindConflict reports a pattern group whose instances disagree on kind
// The group is left uncollapsed in the aggregated catalog.
type KindConflict struct {
	Pattern   string            `json:"pattern"`
	Instances map[string]string `json:"instances"` // instance name -> kind
}

// String renders the conflict for diagnostics output
func (k KindConflict) String() string {
	parts := make([]string, 0, len(k.Instances))
	for _, name := range sortedKeys(k.Instances) {
		parts = append(parts, fmt.Sprintf("%s=%s", name, k.Instances[name]))
	}
	return fmt.Sprintf("pattern %s has conflicting kinds: %s", k.Pattern, strings.Join(parts, ", "))
}

// PatternTemplate returns the digit-wildcard template for a variable name
// Names without digit runs map to themselves; an already-templated name is
// unchanged because the wildcard contains no digit characters, which makes
// aggregation idempotent.
func PatternTemplate(name string) string {
	return digitRunRe.ReplaceAllString(name, digitWildcard)
}

// IsPattern reports whether a variable spec name is a wildcard template
// rather than a concrete instance name
func IsPattern(name string) bool {
	return strings.Contains(name, digitWildcard) || strings.ContainsAny(name, "*?[](){}|^$")
}

// Aggregate collapses per-instance variables into pattern variables
// Returns a new catalog plus any kind conflicts found. Groups of one keep
// their concrete name; aggregating an already-aggregated catalog is a
// no-op because templates group only with themselves.
func Aggregate(c *Catalog) (*Catalog, []KindConflict) {
	groups := make(map[string][]*Variable)
	for _, name := range c.Names() {
		v := c.Get(name)
		tmpl := PatternTemplate(name)
		groups[tmpl] = append(groups[tmpl], v)
	}

	aggregated := NewCatalog()
	var conflicts []KindConflict
	for tmpl, members := range groups {
		if len(members) == 1 {
			aggregated.put(members[0])
			continue
		}

		if conflict, bad := groupConflict(tmpl, members); bad {
			conflicts = append(conflicts, conflict)
			for _, v := range members {
				aggregated.put(v)
			}
			continue
		}

		pattern := newVariable(tmpl, members[0].Kind)
		for _, v := range members {
			pattern.mergeFrom(v)
		}
		pattern.Instances = len(members)
		aggregated.put(pattern)
	}

	aggregated.Finalize()
	sort.Slice(conflicts, func(i, j int) bool { return conflicts[i].Pattern < conflicts[j].Pattern })
	return aggregated, conflicts
}

// groupConflict checks whether a pattern group agrees on its kind
func groupConflict(tmpl string, members []*Variable) (KindConflict, bool) {
	kind := members[0].Kind
	for _, v := range members[1:] {
		if v.Kind != kind {
			conflict := KindConflict{Pattern: tmpl, Instances: make(map[string]string, len(members))}
			for _, m := range members {
				conflict.Instances[m.Name] = m.Kind.String()
			}
			return conflict, true
		}
	}
	return KindConflict{}, false
}

// Expand resolves a pattern name against a catalog of concrete instances
// Returns the variables whose names fully match the pattern, sorted by
// name. The catalog is the only source of truth for expansion; a pattern
// matching nothing expands to an empty slice, not an error.
func Expand(c *Catalog, pattern string) ([]*Variable, error) {
	re, err := regexp.Compile("^" + pattern + "$")
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	var matched []*Variable
	for _, name := range c.Names() {
		if re.MatchString(name) {
			matched = append(matched, c.Get(name))
		}
	}
	return matched, nil
}

// sortedKeys returns map keys in sorted order for stable diagnostics
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
