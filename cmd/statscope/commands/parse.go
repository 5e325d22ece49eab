/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: parse.go
Description: Parse command implementation for Statscope. Expands variable
specs against a scanned catalog, runs the persistent worker batch over the
matching dumps, and consolidates the extracted records into a single table.
*/

package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/kleascm/statscope/pkg/core"
	"github.com/kleascm/statscope/pkg/scanner"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// RunParse executes the extraction batch
func RunParse(cmd *cobra.Command, args []string) error {
	fmt.Println("📊 Statscope - Extracting Variables")
	fmt.Println("===================================")
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

	specs, err := parseVariableSpecs(viper.GetStringSlice("variables"))
	if err != nil {
		return err
	}
	if len(specs) == 0 {
		return fmt.Errorf("no variables requested: pass at least one --var")
	}

	// A catalog is only required when a spec is a pattern, but loading it
	// eagerly keeps the failure close to the flag that caused it.
	catalog, err := loadCatalog(viper.GetString("catalog_path"))
	if err != nil {
		return err
	}

	config := createEngineConfig()
	path := viper.GetString("path")
	pattern := viper.GetString("pattern")
	outputDir := viper.GetString("output_dir")

	// Create orchestration engine
	engine := core.NewOrchestrator(config, logger.GetLogger())
	defer engine.Shutdown()
	reporter := core.NewLoggerReporter(logger.GetLogger())
	reporter.SetEventLogger(logger)
	engine.AddReporter(reporter)

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\n🛑 Received shutdown signal, stopping batch...")
		engine.Interrupt()
	}()

	// Submit and finalize the extraction batch
	handles, err := engine.SubmitParse(path, pattern, specs, outputDir, catalog)
	if err != nil {
		return fmt.Errorf("failed to submit parse batch: %w", err)
	}
	if len(handles) == 0 {
		return fmt.Errorf("no files matched pattern %q under %s", pattern, path)
	}

	report, err := engine.FinalizeParsing(outputDir, handles)
	if err != nil {
		return err
	}
	reportFailures(logger.GetLogger(), report.Failures)

	stats := engine.Stats()
	fmt.Println()
	fmt.Printf("✨ Extraction complete: %d/%d files, %d records\n",
		report.Completed, len(handles), report.Records)
	fmt.Printf("   Failures: %d, Timeouts: %d, Worker restarts: %d\n",
		stats.Failures, stats.Timeouts, stats.WorkerRestarts)
	fmt.Printf("   Table written to %s\n", report.TablePath)
	return nil
}

// parseVariableSpecs converts --var flag values into variable specs
// Accepted forms are "name" for every entry of a variable and
// "name=entry1,entry2" for a subset of its entries.
func parseVariableSpecs(raw []string) ([]core.VariableSpec, error) {
	specs := make([]core.VariableSpec, 0, len(raw))
	for _, v := range raw {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}

		name, entryList, hasEntries := strings.Cut(v, "=")
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("invalid variable spec %q: empty name", v)
		}

		spec := core.VariableSpec{Name: name}
		if hasEntries {
			for _, entry := range strings.Split(entryList, ",") {
				entry = strings.TrimSpace(entry)
				if entry != "" {
					spec.Entries = append(spec.Entries, entry)
				}
			}
			if len(spec.Entries) == 0 {
				return nil, fmt.Errorf("invalid variable spec %q: no entries after '='", v)
			}
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// loadCatalog reads a scan output document and rebuilds the instance catalog
// Returns nil when no catalog path was given, which is fine as long as
// every requested variable is a concrete name.
func loadCatalog(path string) (*scanner.Catalog, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}

	var doc CatalogDocument
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &doc)
	default:
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode catalog %s: %w", path, err)
	}

	catalog, err := scanner.CatalogFromRecords(doc.Instances)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog %s: %w", path, err)
	}
	return catalog, nil
}
