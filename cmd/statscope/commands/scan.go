/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: scan.go
Description: Scan command implementation for Statscope. Runs the concurrent
scan batch over all matching statistics dumps, merges and aggregates the
per-file catalogs, and writes the catalog document in JSON or YAML form.
*/

package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/kleascm/statscope/pkg/core"
	"github.com/kleascm/statscope/pkg/scanner"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// CatalogDocument is the on-disk form of a finished scan
// Variables holds the pattern-aggregated view; Instances preserves the
// concrete per-instance catalog so later parse requests can expand
// pattern specs against it.
type CatalogDocument struct {
	Variables []scanner.Record       `json:"variables" yaml:"variables"`
	Instances []scanner.Record       `json:"instances" yaml:"instances"`
	Conflicts []scanner.KindConflict `json:"conflicts,omitempty" yaml:"conflicts,omitempty"`
}

// RunScan executes the scan batch
func RunScan(cmd *cobra.Command, args []string) error {
	fmt.Println("🔍 Statscope - Scanning Statistics Dumps")
	fmt.Println("========================================")
	fmt.Println()

	// Load configuration first
	if err := LoadConfig(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Setup logging
	logger, err := SetupLogging()
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer logger.Close()

	config := createEngineConfig()
	path := viper.GetString("path")
	pattern := viper.GetString("pattern")
	limit := viper.GetInt("limit")
	outputDir := viper.GetString("output_dir")

	// Perform dry run if requested
	if viper.GetBool("dry_run") {
		return performDryRun(config, path, pattern, limit, outputDir)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	// Create orchestration engine
	engine := core.NewOrchestrator(config, logger.GetLogger())
	defer engine.Shutdown()
	reporter := core.NewLoggerReporter(logger.GetLogger())
	reporter.SetEventLogger(logger)
	engine.AddReporter(reporter)
	engine.AddReporter(core.NewArtifactReporter(outputDir, logger.GetLogger()))

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\n🛑 Received shutdown signal, stopping batch...")
		engine.Interrupt()
	}()

	// Submit and finalize the scan batch
	handles, err := engine.SubmitScan(path, pattern, limit)
	if err != nil {
		return fmt.Errorf("failed to submit scan batch: %w", err)
	}
	if len(handles) == 0 {
		return fmt.Errorf("no files matched pattern %q under %s", pattern, path)
	}

	report := engine.FinalizeScan(handles)
	reportFailures(logger.GetLogger(), report.Failures)

	// Write the catalog document
	doc := &CatalogDocument{
		Variables: report.Catalog.Records(),
		Instances: report.Instances.Records(),
		Conflicts: report.Conflicts,
	}
	catalogPath, err := writeCatalogDocument(outputDir, viper.GetString("catalog_format"), doc)
	if err != nil {
		return err
	}

	// Print final statistics
	stats := engine.Stats()
	fmt.Println()
	fmt.Printf("✨ Scan complete: %d/%d files, %d variables (%d patterns), %d conflicts\n",
		report.Completed, len(handles), report.Instances.Len(), report.Catalog.Len(), len(report.Conflicts))
	fmt.Printf("   Failures: %d, Timeouts: %d\n", stats.Failures, stats.Timeouts)
	fmt.Printf("   Catalog written to %s\n", catalogPath)
	return nil
}

// writeCatalogDocument serializes the catalog in the requested format
func writeCatalogDocument(outputDir, format string, doc *CatalogDocument) (string, error) {
	var (
		data []byte
		name string
		err  error
	)
	switch format {
	case "yaml":
		name = "catalog.yaml"
		data, err = yaml.Marshal(doc)
	default:
		name = "catalog.json"
		data, err = json.MarshalIndent(doc, "", "  ")
	}
	if err != nil {
		return "", fmt.Errorf("failed to marshal catalog: %w", err)
	}

	path := filepath.Join(outputDir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write catalog: %w", err)
	}
	return path, nil
}

// performDryRun validates the configuration without touching any file
func performDryRun(config *core.Config, path, pattern string, limit int, outputDir string) error {
	fmt.Println("🧪 Dry run - resolved configuration:")
	fmt.Printf("   Path:        %s\n", path)
	fmt.Printf("   Pattern:     %s\n", pattern)
	fmt.Printf("   Limit:       %d\n", limit)
	fmt.Printf("   Workers:     %d\n", config.Workers)
	fmt.Printf("   Timeout:     %s\n", config.TaskTimeout)
	fmt.Printf("   Scheduler:   %s\n", config.Scheduler)
	fmt.Printf("   Output:      %s\n", outputDir)
	fmt.Printf("   Hints:       %d configuration keys\n", len(config.ConfigHints))
	fmt.Println("\n✅ Configuration valid")
	return nil
}
