/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: table.go
Description: Consolidation of per-file extraction artifacts into one tabular
output. Produces a CSV with one row per source file and one column per
extracted variable (entry-qualified for compound kinds); variables absent
from a source file yield empty cells.
*/

package utils

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// consolidatedName is the consolidated table file under the output directory
const consolidatedName = "consolidated.csv"

// ConsolidateRecords merges per-file record artifacts into one CSV table
// sources maps each source file path to its records artifact. Row identity
// is the source file path; columns are the sorted union of every record's
// name[::entry] key. Returns the written table path.
func ConsolidateRecords(outputDir string, sources map[string]string) (string, error) {
	rows := make(map[string]map[string]string, len(sources))
	columnSet := make(map[string]struct{})

	for sourceFile, artifact := range sources {
		records, err := ReadRecordsArtifact(artifact)
		if err != nil {
			return "", err
		}
		values := make(map[string]string, len(records))
		for _, record := range records {
			key, value, ok := SplitRecord(record)
			if !ok {
				continue
			}
			values[key] = value
			columnSet[key] = struct{}{}
		}
		rows[sourceFile] = values
	}

	columns := make([]string, 0, len(columnSet))
	for c := range columnSet {
		columns = append(columns, c)
	}
	sort.Strings(columns)

	sourceFiles := make([]string, 0, len(rows))
	for s := range rows {
		sourceFiles = append(sourceFiles, s)
	}
	sort.Strings(sourceFiles)

	path := filepath.Join(outputDir, consolidatedName)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create consolidated table: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := append([]string{"source"}, columns...)
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("failed to write table header: %w", err)
	}
	for _, sourceFile := range sourceFiles {
		row := make([]string, 0, len(header))
		row = append(row, sourceFile)
		for _, column := range columns {
			row = append(row, rows[sourceFile][column]) // empty cell when absent
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("failed to write table row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to flush consolidated table: %w", err)
	}
	return path, nil
}
