/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: artifact_writer.go
Description: Utility for writing run artifacts to an output directory.
Handles timestamped, type-specific subdirectory naming. Ensures directories
exist and writes JSON files for easy analysis.
*/

package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// WriteRunArtifact writes a run artifact under baseDir with timestamp and type
func WriteRunArtifact(baseDir string, runType string, payload interface{}) (string, error) {
	// Ensure artifact directory and subdirectory exist
	artifactDir := filepath.Join(baseDir, runType)
	if err := os.MkdirAll(artifactDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create artifact directory: %w", err)
	}

	// Generate filename: 2024-06-11_01-30-00_batch.json
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	filename := fmt.Sprintf("%s_%s.json", timestamp, runType)
	filePath := filepath.Join(artifactDir, filename)

	// Marshal payload to JSON
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal artifact: %w", err)
	}

	// Write to file
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write artifact file: %w", err)
	}

	return filePath, nil
}
