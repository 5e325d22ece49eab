/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: records.go
Description: Per-file extraction record artifacts. Each parse task writes its
extracted records (one "<kind>/<name>[::<entry>]/<value>" line per record) to
a file-scoped intermediate artifact; the consolidation step reads them back.
*/

package utils

import (
	"bufio"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"
)

// recordsExtension marks intermediate extraction artifacts
const recordsExtension = ".records"

// artifactName derives a collision-free artifact name for one source file
// Distinct sources may share a base name (run1/stats.txt, run2/stats.txt)
// and their tasks write concurrently, so the name carries a digest of the
// full cleaned source path alongside the base name.
func artifactName(sourceFile string) string {
	h := fnv.New64a()
	h.Write([]byte(filepath.Clean(sourceFile)))
	return fmt.Sprintf("%s.%016x%s", filepath.Base(sourceFile), h.Sum64(), recordsExtension)
}

// WriteRecordsArtifact writes one file's extraction records to outputDir
// The artifact name is unique per source path; record order is the source
// file's line order. Writing the same source again overwrites its artifact.
func WriteRecordsArtifact(outputDir, sourceFile string, records []string) (string, error) {
	path := filepath.Join(outputDir, artifactName(sourceFile))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create records artifact: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, record := range records {
		if _, err := w.WriteString(record + "\n"); err != nil {
			return "", fmt.Errorf("failed to write records artifact: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush records artifact: %w", err)
	}
	return path, nil
}

// ReadRecordsArtifact reads one records artifact back into memory
func ReadRecordsArtifact(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open records artifact: %w", err)
	}
	defer f.Close()

	var records []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			records = append(records, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read records artifact: %w", err)
	}
	return records, nil
}

// SplitRecord decomposes one extraction record into its column key and value
// The record shape is "<kind>/<name>[::<entry>]/<value>"; the column key is
// the name with its optional entry suffix. Malformed records return ok=false.
func SplitRecord(record string) (key, value string, ok bool) {
	first := strings.Index(record, "/")
	if first < 0 {
		return "", "", false
	}
	rest := record[first+1:]
	second := strings.Index(rest, "/")
	if second < 0 {
		return "", "", false
	}
	return rest[:second], rest[second+1:], true
}
