/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: formatter_test.go
Description: Tests for the extraction record formatter. Covers the record
contract, filter matching against bare and entry-qualified names, and filter
compile failures.
*/

package grammar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFormatRecord tests the "<kind>/<name>[::<entry>]/<value>" contract
func TestFormatRecord(t *testing.T) {
	record := FormatRecord(Classification{Kind: KindScalar, Name: "sim_ticks", Value: "12345"})
	assert.Equal(t, "Scalar/sim_ticks/12345", record)

	record = FormatRecord(Classification{Kind: KindVector, Name: "system.cpu0.misses", Entry: "read", Value: "100"})
	assert.Equal(t, "Vector/system.cpu0.misses::read/100", record)

	record = FormatRecord(Classification{Kind: KindConfiguration, Name: "cache_size", Value: "64kB"})
	assert.Equal(t, "Configuration/cache_size/64kB", record)
}

// TestFormatLineFiltering tests extraction with name filters
func TestFormatLineFiltering(t *testing.T) {
	c := NewClassifier()
	f, err := NewLineFormatter(c, []string{`^system\.cpu0\.ipc$`})
	require.NoError(t, err)

	record, ok := f.FormatLine("system.cpu0.ipc 1.5")
	require.True(t, ok)
	assert.Equal(t, "Scalar/system.cpu0.ipc/1.5", record)

	// A bare-name filter also passes every entry of the variable
	record, ok = f.FormatLine("system.cpu0.ipc::samples 10")
	require.True(t, ok)
	assert.Equal(t, "Summary/system.cpu0.ipc::samples/10", record)

	_, ok = f.FormatLine("system.cpu1.ipc 1.5")
	assert.False(t, ok)

	_, ok = f.FormatLine("not a statistics line at all!")
	assert.False(t, ok)
}

// TestFormatLineEntryFilter tests filters pinned to specific entries
func TestFormatLineEntryFilter(t *testing.T) {
	c := NewClassifier()
	f, err := NewLineFormatter(c, []string{`^system\.cpu0\.misses::(?:read|write)$`})
	require.NoError(t, err)

	record, ok := f.FormatLine("system.cpu0.misses::read 100")
	require.True(t, ok)
	assert.Equal(t, "Vector/system.cpu0.misses::read/100", record)

	_, ok = f.FormatLine("system.cpu0.misses::prefetch 7")
	assert.False(t, ok)

	// The bare scalar form carries no entry, so an entry-pinned filter skips it
	_, ok = f.FormatLine("system.cpu0.misses 107")
	assert.False(t, ok)
}

// TestFormatLineNoFilters tests that an empty filter set extracts nothing
func TestFormatLineNoFilters(t *testing.T) {
	c := NewClassifier()
	f, err := NewLineFormatter(c, nil)
	require.NoError(t, err)

	_, ok := f.FormatLine("sim_ticks 12345")
	assert.False(t, ok)
}

// TestNewLineFormatterBadFilter tests filter compile failures
func TestNewLineFormatterBadFilter(t *testing.T) {
	c := NewClassifier()
	_, err := NewLineFormatter(c, []string{`valid.*`, `[unclosed`})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[unclosed")
}
