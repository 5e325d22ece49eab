/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: patterns_test.go
Description: Tests for pattern aggregation. Covers digit-run templating,
idempotent aggregation, kind-conflict diagnostics, and expanding pattern
specs back into concrete instances.
*/

package scanner

import (
	"testing"

	"github.com/kleascm/statscope/pkg/grammar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPatternTemplate tests digit-run replacement
func TestPatternTemplate(t *testing.T) {
	assert.Equal(t, `system.cpu\d+.ipc`, PatternTemplate("system.cpu0.ipc"))
	assert.Equal(t, `bank\d+.row\d+`, PatternTemplate("bank12.row340"))
	assert.Equal(t, "sim_ticks", PatternTemplate("sim_ticks"))

	// The wildcard contains no digit characters, so templating a template
	// changes nothing
	tmpl := PatternTemplate("system.cpu7.ipc")
	assert.Equal(t, tmpl, PatternTemplate(tmpl))
}

// TestIsPattern tests pattern detection for variable specs
func TestIsPattern(t *testing.T) {
	assert.True(t, IsPattern(`system.cpu\d+.ipc`))
	assert.True(t, IsPattern(`system.cpu[0-3].ipc`))
	assert.True(t, IsPattern(`system\.cpu.*`))
	assert.False(t, IsPattern("system.cpu0.ipc"))
	assert.False(t, IsPattern("sim_ticks"))
}

// TestAggregateCollapse tests collapsing per-instance variables
func TestAggregateCollapse(t *testing.T) {
	c := NewCatalog()
	observe(c, grammar.KindScalar, "system.cpu0.ipc", "")
	observe(c, grammar.KindScalar, "system.cpu1.ipc", "")
	observe(c, grammar.KindScalar, "system.cpu2.ipc", "")
	observe(c, grammar.KindVector, "system.cpu0.misses", "read")
	observe(c, grammar.KindVector, "system.cpu1.misses", "write")
	observe(c, grammar.KindScalar, "sim_ticks", "")

	aggregated, conflicts := Aggregate(c)
	assert.Empty(t, conflicts)
	assert.Equal(t, 3, aggregated.Len())

	ipc := aggregated.Get(`system.cpu\d+.ipc`)
	require.NotNil(t, ipc)
	assert.Equal(t, grammar.KindScalar, ipc.Kind)
	assert.Equal(t, 3, ipc.Instances)

	// Entry sets union across the collapsed instances
	misses := aggregated.Get(`system.cpu\d+.misses`)
	require.NotNil(t, misses)
	assert.Equal(t, []string{"read", "write"}, misses.SortedEntries())
	assert.Equal(t, 2, misses.Instances)

	// Singleton groups keep their concrete name and zero instance count
	ticks := aggregated.Get("sim_ticks")
	require.NotNil(t, ticks)
	assert.Equal(t, 0, ticks.Instances)
}

// TestAggregateIdempotent tests that aggregating twice is a no-op
func TestAggregateIdempotent(t *testing.T) {
	c := NewCatalog()
	observe(c, grammar.KindScalar, "system.cpu0.ipc", "")
	observe(c, grammar.KindScalar, "system.cpu1.ipc", "")

	once, conflicts := Aggregate(c)
	require.Empty(t, conflicts)
	twice, conflicts := Aggregate(once)
	require.Empty(t, conflicts)

	assert.Equal(t, once.Names(), twice.Names())
	assert.Equal(t, once.Get(`system.cpu\d+.ipc`).Instances, twice.Get(`system.cpu\d+.ipc`).Instances)
}

// TestAggregateKindConflict tests the conflict diagnostic
// Instances that disagree on kind stay uncollapsed and the disagreement is
// reported with every member's kind.
func TestAggregateKindConflict(t *testing.T) {
	c := NewCatalog()
	observe(c, grammar.KindScalar, "system.cpu0.stat", "")
	observe(c, grammar.KindVector, "system.cpu1.stat", "x")

	aggregated, conflicts := Aggregate(c)
	require.Len(t, conflicts, 1)
	assert.Equal(t, `system.cpu\d+.stat`, conflicts[0].Pattern)
	assert.Equal(t, "Scalar", conflicts[0].Instances["system.cpu0.stat"])
	assert.Equal(t, "Vector", conflicts[0].Instances["system.cpu1.stat"])
	assert.Contains(t, conflicts[0].String(), "conflicting kinds")

	// The group stays uncollapsed
	assert.NotNil(t, aggregated.Get("system.cpu0.stat"))
	assert.NotNil(t, aggregated.Get("system.cpu1.stat"))
	assert.Nil(t, aggregated.Get(`system.cpu\d+.stat`))
}

// TestExpand tests resolving patterns back into concrete instances
func TestExpand(t *testing.T) {
	c := NewCatalog()
	observe(c, grammar.KindScalar, "system.cpu0.ipc", "")
	observe(c, grammar.KindScalar, "system.cpu1.ipc", "")
	observe(c, grammar.KindScalar, "system.cpu10.ipc_alt", "")

	matched, err := Expand(c, `system.cpu\d+.ipc`)
	require.NoError(t, err)
	require.Len(t, matched, 2)
	assert.Equal(t, "system.cpu0.ipc", matched[0].Name)
	assert.Equal(t, "system.cpu1.ipc", matched[1].Name)

	// A pattern matching nothing is an empty result, not an error
	matched, err = Expand(c, `board\d+.temp`)
	require.NoError(t, err)
	assert.Empty(t, matched)

	_, err = Expand(c, `[broken`)
	assert.Error(t, err)
}
