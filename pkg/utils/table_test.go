/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: table_test.go
Description: Tests for consolidating per-file record artifacts into the CSV
table: column union, row ordering, and empty cells for absent variables.
*/

package utils

import (
	"encoding/csv"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConsolidateRecords tests the full consolidation pass
func TestConsolidateRecords(t *testing.T) {
	dir := t.TempDir()

	artifactA, err := WriteRecordsArtifact(dir, "run_a.txt", []string{
		"Scalar/sim_ticks/100",
		"Scalar/system.cpu0.ipc/1.5",
	})
	require.NoError(t, err)
	artifactB, err := WriteRecordsArtifact(dir, "run_b.txt", []string{
		"Scalar/sim_ticks/200",
		"Vector/system.cpu0.misses::read/42",
	})
	require.NoError(t, err)

	path, err := ConsolidateRecords(dir, map[string]string{
		"run_a.txt": artifactA,
		"run_b.txt": artifactB,
	})
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	// Header: source column plus the sorted union of record keys
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"source", "sim_ticks", "system.cpu0.ipc", "system.cpu0.misses::read"}, rows[0])

	// Rows are source sorted; absent variables show as empty cells
	assert.Equal(t, []string{"run_a.txt", "100", "1.5", ""}, rows[1])
	assert.Equal(t, []string{"run_b.txt", "200", "", "42"}, rows[2])
}

// TestConsolidateRecordsEmpty tests consolidation with no sources
func TestConsolidateRecordsEmpty(t *testing.T) {
	dir := t.TempDir()
	path, err := ConsolidateRecords(dir, map[string]string{})
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"source"}, rows[0])
}

// TestConsolidateRecordsBadArtifact tests the missing-artifact error path
func TestConsolidateRecordsBadArtifact(t *testing.T) {
	dir := t.TempDir()
	_, err := ConsolidateRecords(dir, map[string]string{"x.txt": dir + "/gone.records"})
	assert.Error(t, err)
}
