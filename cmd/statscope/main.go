/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: main.go
Description: Main command-line interface for Statscope. Provides command-line
options and configuration management for scanning simulator statistics dumps,
extracting variable tables, and running the persistent worker protocol.
*/

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/kleascm/statscope/cmd/statscope/commands"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Configuration
	configFile string
	logLevel   string
	jsonLogs   bool

	// Logging configuration
	logDir      string
	logFormat   string
	logMaxFiles int
	logMaxSize  int64

	// Batch configuration
	inputPath   string
	filePattern string
	fileLimit   int
	workers     int
	taskTimeout time.Duration
	outputDir   string
	schedName   string

	// Scan configuration
	configHints   []string
	catalogFormat string
	dryRun        bool

	// Parse configuration
	variableSpecs []string
	catalogPath   string
	workerBinary  string

	// Worker configuration
	requestCeiling int
	maxLines       int
)

func main() {
	// Create root command
	rootCmd := &cobra.Command{
		Use:   "statscope",
		Short: "Statscope - Typed catalogs and tables from simulator statistics dumps",
		Long: `Statscope ingests large, line-oriented simulator statistics dumps and turns
them into a typed, queryable variable catalog plus extracted numeric tables.
Scans and extractions run concurrently across many files through a bounded
pool of warm worker sessions, tolerating individual file failures.`,
		Version: "1.0.0",
	}

	// Add persistent flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Logging level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "Use JSON log format")

	// Add logging-specific flags
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "./logs", "Log output directory")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "custom", "Log format (text, json, custom)")
	rootCmd.PersistentFlags().IntVar(&logMaxFiles, "log-max-files", 10, "Maximum number of log files to keep")
	rootCmd.PersistentFlags().Int64Var(&logMaxSize, "log-max-size", 100*1024*1024, "Maximum log file size in bytes")

	// Bind flags to viper
	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("json_logs", rootCmd.PersistentFlags().Lookup("json-logs"))
	viper.BindPFlag("log_dir", rootCmd.PersistentFlags().Lookup("log-dir"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("log_max_files", rootCmd.PersistentFlags().Lookup("log-max-files"))
	viper.BindPFlag("log_max_size", rootCmd.PersistentFlags().Lookup("log-max-size"))

	// Add scan command
	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan statistics dumps and build the variable catalog",
		Long: `Scan every statistics dump matching the file pattern, infer each variable's
kind on the type lattice, merge the per-file catalogs, and aggregate
per-instance variables into digit-wildcard patterns.`,
		RunE: commands.RunScan,
	}

	scanCmd.Flags().StringVar(&inputPath, "path", ".", "Directory containing statistics dumps")
	scanCmd.Flags().StringVar(&filePattern, "pattern", "*.txt", "File glob pattern to scan")
	scanCmd.Flags().IntVar(&fileLimit, "limit", -1, "Maximum number of files to scan (negative = unbounded)")
	scanCmd.Flags().IntVar(&workers, "workers", 0, "Maximum concurrent tasks (0 = auto-detect)")
	scanCmd.Flags().DurationVar(&taskTimeout, "task-timeout", 5*time.Minute, "Per-file task timeout")
	scanCmd.Flags().StringVar(&outputDir, "output", "./statscope_output", "Directory for catalog output")
	scanCmd.Flags().StringVar(&schedName, "scheduler", "priority", "Task scheduler (priority, fifo)")
	scanCmd.Flags().StringSliceVar(&configHints, "config-hints", []string{}, "Variable names known to be configuration keys")
	scanCmd.Flags().StringVar(&catalogFormat, "format", "json", "Catalog output format (json, yaml)")
	scanCmd.Flags().IntVar(&maxLines, "max-lines", 0, "Line cap per file (0 = protocol default)")
	scanCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate configuration and exit without scanning")

	// Bind at dispatch time: scan and parse share several keys, so only the
	// executed command's flags may own them.
	scanCmd.PreRun = func(cmd *cobra.Command, args []string) {
		viper.BindPFlag("path", cmd.Flags().Lookup("path"))
		viper.BindPFlag("pattern", cmd.Flags().Lookup("pattern"))
		viper.BindPFlag("limit", cmd.Flags().Lookup("limit"))
		viper.BindPFlag("workers", cmd.Flags().Lookup("workers"))
		viper.BindPFlag("task_timeout", cmd.Flags().Lookup("task-timeout"))
		viper.BindPFlag("output_dir", cmd.Flags().Lookup("output"))
		viper.BindPFlag("scheduler", cmd.Flags().Lookup("scheduler"))
		viper.BindPFlag("config_hints", cmd.Flags().Lookup("config-hints"))
		viper.BindPFlag("catalog_format", cmd.Flags().Lookup("format"))
		viper.BindPFlag("max_lines", cmd.Flags().Lookup("max-lines"))
		viper.BindPFlag("dry_run", cmd.Flags().Lookup("dry-run"))
	}

	// Add parse command
	parseCmd := &cobra.Command{
		Use:   "parse",
		Short: "Extract variable values from statistics dumps into a table",
		Long: `Extract the requested variables from every statistics dump matching the
file pattern and consolidate the per-file records into one tabular output,
one row per source file. Pattern-style variable names are expanded against
a previously scanned catalog.`,
		RunE: commands.RunParse,
	}

	parseCmd.Flags().StringVar(&inputPath, "path", ".", "Directory containing statistics dumps")
	parseCmd.Flags().StringVar(&filePattern, "pattern", "*.txt", "File glob pattern to parse")
	parseCmd.Flags().StringSliceVar(&variableSpecs, "var", []string{}, "Variable to extract: 'name' or 'name=entry1,entry2' (repeatable)")
	parseCmd.Flags().StringVar(&catalogPath, "catalog", "", "Scan output file for pattern expansion")
	parseCmd.Flags().StringVar(&outputDir, "output", "./statscope_output", "Directory for extraction artifacts and the table")
	parseCmd.Flags().IntVar(&workers, "workers", 0, "Worker pool size (0 = auto-detect)")
	parseCmd.Flags().DurationVar(&taskTimeout, "task-timeout", 5*time.Minute, "Per-file task timeout")
	parseCmd.Flags().StringVar(&schedName, "scheduler", "priority", "Task scheduler (priority, fifo)")
	parseCmd.Flags().StringVar(&workerBinary, "worker-binary", "", "Worker executable for process isolation (empty = in-process sessions)")
	parseCmd.Flags().IntVar(&requestCeiling, "request-ceiling", 0, "Requests before a worker session retires (0 = protocol default)")
	parseCmd.Flags().IntVar(&maxLines, "max-lines", 0, "Line cap per request (0 = protocol default)")

	parseCmd.PreRun = func(cmd *cobra.Command, args []string) {
		viper.BindPFlag("path", cmd.Flags().Lookup("path"))
		viper.BindPFlag("pattern", cmd.Flags().Lookup("pattern"))
		viper.BindPFlag("variables", cmd.Flags().Lookup("var"))
		viper.BindPFlag("catalog_path", cmd.Flags().Lookup("catalog"))
		viper.BindPFlag("output_dir", cmd.Flags().Lookup("output"))
		viper.BindPFlag("workers", cmd.Flags().Lookup("workers"))
		viper.BindPFlag("task_timeout", cmd.Flags().Lookup("task-timeout"))
		viper.BindPFlag("scheduler", cmd.Flags().Lookup("scheduler"))
		viper.BindPFlag("worker_binary", cmd.Flags().Lookup("worker-binary"))
		viper.BindPFlag("request_ceiling", cmd.Flags().Lookup("request-ceiling"))
		viper.BindPFlag("max_lines", cmd.Flags().Lookup("max-lines"))
	}

	// Add worker command
	workerCmd := &cobra.Command{
		Use:   "worker",
		Short: "Run one persistent worker session on stdin/stdout",
		Long: `Run the worker side of the Statscope protocol on standard input and output.
The session keeps one compiled grammar warm, serves PARSE/PING/STATS/SHUTDOWN
requests, and retires after its request ceiling.`,
		RunE: commands.RunWorker,
	}

	workerCmd.Flags().IntVar(&requestCeiling, "request-ceiling", 0, "Requests before the session retires (0 = protocol default)")
	workerCmd.Flags().IntVar(&maxLines, "max-lines", 0, "Line cap per request (0 = protocol default)")

	workerCmd.PreRun = func(cmd *cobra.Command, args []string) {
		viper.BindPFlag("request_ceiling", cmd.Flags().Lookup("request-ceiling"))
		viper.BindPFlag("max_lines", cmd.Flags().Lookup("max-lines"))
	}

	// Add commands to root
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(workerCmd)

	// Execute root command
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
