/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: classifier_test.go
Description: Tests for the statistics line grammar. Covers the six line kinds,
dispatch precedence between syntactically overlapping kinds, comment stripping,
and the lines the grammar must refuse to classify.
*/

package grammar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestClassifyScalar tests plain name/value lines
func TestClassifyScalar(t *testing.T) {
	c := NewClassifier()

	cls, ok := c.Classify("sim_ticks 12345")
	require.True(t, ok)
	assert.Equal(t, KindScalar, cls.Kind)
	assert.Equal(t, "sim_ticks", cls.Name)
	assert.Empty(t, cls.Entry)
	assert.Equal(t, "12345", cls.Value)

	cls, ok = c.Classify("system.cpu0.ipc 1.5")
	require.True(t, ok)
	assert.Equal(t, KindScalar, cls.Kind)
	assert.Equal(t, "system.cpu0.ipc", cls.Name)
	assert.Equal(t, "1.5", cls.Value)

	// Scientific notation and signs are part of the scalar value grammar
	cls, ok = c.Classify("system.mem.bw -3.2e+07")
	require.True(t, ok)
	assert.Equal(t, KindScalar, cls.Kind)
	assert.Equal(t, "-3.2e+07", cls.Value)
}

// TestClassifyConfiguration tests key=value lines
func TestClassifyConfiguration(t *testing.T) {
	c := NewClassifier()

	cls, ok := c.Classify("cache_size=64kB")
	require.True(t, ok)
	assert.Equal(t, KindConfiguration, cls.Kind)
	assert.Equal(t, "cache_size", cls.Name)
	assert.Equal(t, "64kB", cls.Value)

	// Spaces around '=' and spaces inside the value are both legal
	cls, ok = c.Classify("kernel = /path/to/vmlinux extra")
	require.True(t, ok)
	assert.Equal(t, KindConfiguration, cls.Kind)
	assert.Equal(t, "kernel", cls.Name)
	assert.Equal(t, "/path/to/vmlinux extra", cls.Value)
}

// TestClassifyVector tests entry-qualified single-value lines
func TestClassifyVector(t *testing.T) {
	c := NewClassifier()

	cls, ok := c.Classify("system.cpu0.dcache.misses::read 100")
	require.True(t, ok)
	assert.Equal(t, KindVector, cls.Kind)
	assert.Equal(t, "system.cpu0.dcache.misses", cls.Name)
	assert.Equal(t, "read", cls.Entry)
	assert.Equal(t, "100", cls.Value)

	// Numeric entries without percentage columns stay vector rows
	cls, ok = c.Classify("system.cpu0.dcache.misses::0 42")
	require.True(t, ok)
	assert.Equal(t, KindVector, cls.Kind)
	assert.Equal(t, "0", cls.Entry)
	assert.Equal(t, "42", cls.Value)
}

// TestClassifyDistribution tests bucket rows carrying percentage columns
func TestClassifyDistribution(t *testing.T) {
	c := NewClassifier()

	cls, ok := c.Classify("system.cpu0.latency::12 55 10 12.50% 80.00%")
	require.True(t, ok)
	assert.Equal(t, KindDistribution, cls.Kind)
	assert.Equal(t, "system.cpu0.latency", cls.Name)
	assert.Equal(t, "12", cls.Entry)
	assert.Equal(t, "55 10 12.50% 80.00%", cls.Value)

	// Overflow and underflow rows belong to the same kind as bucket rows
	cls, ok = c.Classify("system.cpu0.latency::overflows 3 1 0.75% 100.00%")
	require.True(t, ok)
	assert.Equal(t, KindDistribution, cls.Kind)
	assert.Equal(t, "overflows", cls.Entry)
}

// TestClassifyHistogram tests range-bucket rows
func TestClassifyHistogram(t *testing.T) {
	c := NewClassifier()

	cls, ok := c.Classify("system.cpu0.op_class::0-63 512 128 25.00% 50.00%")
	require.True(t, ok)
	assert.Equal(t, KindHistogram, cls.Kind)
	assert.Equal(t, "system.cpu0.op_class", cls.Name)
	assert.Equal(t, "0-63", cls.Entry)
	assert.Equal(t, "512 128 25.00% 50.00%", cls.Value)

	// Negative range bounds
	cls, ok = c.Classify("system.cpu0.offsets::-8--1 7 2 1.00% 3.00%")
	require.True(t, ok)
	assert.Equal(t, KindHistogram, cls.Kind)
	assert.Equal(t, "-8--1", cls.Entry)
}

// TestClassifySummary tests reserved summary-word entries
func TestClassifySummary(t *testing.T) {
	c := NewClassifier()

	for _, word := range []string{"samples", "mean", "gmean", "stdev", "total"} {
		cls, ok := c.Classify("system.cpu0.ipc::" + word + " 10")
		require.True(t, ok, "word %s should classify", word)
		assert.Equal(t, KindSummary, cls.Kind, "word %s", word)
		assert.Equal(t, word, cls.Entry)
		assert.Equal(t, "10", cls.Value)
	}

	// A trailing second number is allowed and kept in the value
	cls, ok := c.Classify("system.cpu0.ipc::mean 1.5 2.5")
	require.True(t, ok)
	assert.Equal(t, KindSummary, cls.Kind)
	assert.Equal(t, "1.5 2.5", cls.Value)
}

// TestSummaryBeatsVector verifies dispatch precedence for reserved entries
// Summary lines are syntactically valid vector rows; the reserved words must
// win so a vector named entry can never shadow a summary.
func TestSummaryBeatsVector(t *testing.T) {
	c := NewClassifier()

	cls, ok := c.Classify("system.cpu0.ipc::samples 10")
	require.True(t, ok)
	assert.Equal(t, KindSummary, cls.Kind)
	assert.NotEqual(t, KindVector, cls.Kind)
}

// TestCommentStripping tests '#' comments and the Unspecified marker
func TestCommentStripping(t *testing.T) {
	c := NewClassifier()

	cls, ok := c.Classify("sim_ticks 12345 # Number of ticks simulated")
	require.True(t, ok)
	assert.Equal(t, KindScalar, cls.Kind)
	assert.Equal(t, "12345", cls.Value)

	cls, ok = c.Classify("sim_seconds 0.5 (Unspecified)")
	require.True(t, ok)
	assert.Equal(t, KindScalar, cls.Kind)
	assert.Equal(t, "0.5", cls.Value)

	// A line that is nothing but a comment classifies as nothing
	_, ok = c.Classify("# begin of dump")
	assert.False(t, ok)
}

// TestClassifyRejections tests lines outside the grammar
func TestClassifyRejections(t *testing.T) {
	c := NewClassifier()

	rejected := []string{
		"",
		"   ",
		"---------- Begin Simulation Statistics ----------",
		"warn: something odd happened",
		"sim_ticks",            // name with no value
		"sim_ticks 1 2 3 oops", // trailing junk no kind accepts
	}
	for _, line := range rejected {
		_, ok := c.Classify(line)
		assert.False(t, ok, "line %q should not classify", line)
	}
}

// TestKindLattice tests the Scalar < Vector < Distribution < Histogram order
func TestKindLattice(t *testing.T) {
	assert.True(t, KindScalar.OnLattice())
	assert.True(t, KindHistogram.OnLattice())
	assert.False(t, KindSummary.OnLattice())
	assert.False(t, KindConfiguration.OnLattice())

	assert.Equal(t, KindVector, KindScalar.LatticeMax(KindVector))
	assert.Equal(t, KindVector, KindVector.LatticeMax(KindScalar))
	assert.Equal(t, KindHistogram, KindDistribution.LatticeMax(KindHistogram))
	assert.Equal(t, KindHistogram, KindHistogram.LatticeMax(KindHistogram))

	// Non-lattice kinds never move the result off the receiver
	assert.Equal(t, KindSummary, KindSummary.LatticeMax(KindHistogram))
	assert.Equal(t, KindVector, KindVector.LatticeMax(KindConfiguration))
}

// TestKindStrings tests the round trip between kinds and their names
func TestKindStrings(t *testing.T) {
	for _, k := range []Kind{KindScalar, KindVector, KindDistribution, KindHistogram, KindSummary, KindConfiguration} {
		parsed, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}

	_, err := ParseKind("Tensor")
	assert.Error(t, err)
}
