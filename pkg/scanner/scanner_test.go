/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: scanner_test.go
Description: Tests for the type-inference scanner. Covers a full dump pass over
a realistic statistics sample, configuration hints, and the line ceiling.
*/

package scanner

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kleascm/statscope/pkg/grammar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDump = `---------- Begin Simulation Statistics ----------
sim_ticks 12345 # Number of ticks simulated
system.cpu0.ipc 1.5
system.cpu0.ipc::samples 10
system.cpu1.ipc 1.4
cache_size=64kB
system.cpu0.dcache.misses::read 100
system.cpu0.dcache.misses::write 40
system.cpu0.latency::0 55 10 12.50% 80.00%
system.cpu0.latency::4 20 5 6.25% 86.25%
system.cpu0.latency::overflows 3 1 0.75% 100.00%
system.cpu0.op_class::0-63 512 128 25.00% 50.00%
---------- End Simulation Statistics ----------
`

// TestScanReaderSample tests a full pass over a realistic dump
func TestScanReaderSample(t *testing.T) {
	s := NewScanner(grammar.NewClassifier())
	catalog, err := s.ScanReader(strings.NewReader(sampleDump))
	require.NoError(t, err)

	assert.Equal(t, grammar.KindScalar, catalog.Get("sim_ticks").Kind)

	// The samples summary promotes the scalar ipc to Distribution
	assert.Equal(t, grammar.KindDistribution, catalog.Get("system.cpu0.ipc").Kind)
	assert.Equal(t, grammar.KindScalar, catalog.Get("system.cpu1.ipc").Kind)

	assert.Equal(t, grammar.KindConfiguration, catalog.Get("cache_size").Kind)

	misses := catalog.Get("system.cpu0.dcache.misses")
	require.NotNil(t, misses)
	assert.Equal(t, grammar.KindVector, misses.Kind)
	assert.Equal(t, []string{"read", "write"}, misses.SortedEntries())

	latency := catalog.Get("system.cpu0.latency")
	require.NotNil(t, latency)
	assert.Equal(t, grammar.KindDistribution, latency.Kind)
	require.NotNil(t, latency.MinBucket)
	assert.Equal(t, 0, *latency.MinBucket)
	assert.Equal(t, 4, *latency.MaxBucket)

	assert.Equal(t, grammar.KindHistogram, catalog.Get("system.cpu0.op_class").Kind)

	// Divider lines contribute nothing
	assert.Nil(t, catalog.Get("Begin"))
}

// TestScanConfigHints tests scalar reclassification through hints
func TestScanConfigHints(t *testing.T) {
	input := "clock_period 500\nsim_ticks 12345\n"

	plain := NewScanner(grammar.NewClassifier())
	catalog, err := plain.ScanReader(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, grammar.KindScalar, catalog.Get("clock_period").Kind)

	hinted := NewScanner(grammar.NewClassifier(), WithConfigHints([]string{"clock_period"}))
	catalog, err = hinted.ScanReader(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, grammar.KindConfiguration, catalog.Get("clock_period").Kind)
	assert.Equal(t, grammar.KindScalar, catalog.Get("sim_ticks").Kind)
}

// TestScanLineLimit tests the line ceiling
// The truncated catalog is still returned alongside ErrLineLimit.
func TestScanLineLimit(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 100; i++ {
		b.WriteString("stat_a 1\n")
	}
	b.WriteString("stat_late 2\n")

	s := NewScanner(grammar.NewClassifier(), WithMaxLines(10))
	catalog, err := s.ScanReader(strings.NewReader(b.String()))
	require.ErrorIs(t, err, ErrLineLimit)
	require.NotNil(t, catalog)
	assert.NotNil(t, catalog.Get("stat_a"))
	assert.Nil(t, catalog.Get("stat_late"))
}

// TestScanFile tests scanning from disk
func TestScanFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stats.txt")
	require.NoError(t, os.WriteFile(path, []byte(sampleDump), 0644))

	s := NewScanner(grammar.NewClassifier())
	catalog, err := s.ScanFile(path)
	require.NoError(t, err)
	assert.True(t, catalog.Len() > 0)

	_, err = s.ScanFile(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}
