/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: utils.go
Description: Shared utilities for the Statscope commands. Provides common
configuration loading, logging setup, and engine configuration assembly used
across all command implementations.
*/

package commands

import (
	"fmt"

	"github.com/kleascm/statscope/pkg/core"
	"github.com/kleascm/statscope/pkg/logging"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// LoadConfig loads configuration from files and environment
func LoadConfig() error {
	// Set config file if specified
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Set environment variable prefix
	viper.SetEnvPrefix("STATSCOPE")
	viper.AutomaticEnv()

	return nil
}

// SetupLogging creates the Statscope logger from the loaded configuration
func SetupLogging() (*logging.Logger, error) {
	format := logging.LogFormat(viper.GetString("log_format"))
	if viper.GetBool("json_logs") {
		format = logging.LogFormatJSON
	}

	config := &logging.LoggerConfig{
		Level:     logging.LogLevel(viper.GetString("log_level")),
		Format:    format,
		OutputDir: viper.GetString("log_dir"),
		MaxFiles:  viper.GetInt("log_max_files"),
		MaxSize:   viper.GetInt64("log_max_size"),
		Timestamp: true,
		Colors:    true,
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid logging configuration: %w", err)
	}

	logger, err := logging.NewLogger(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}

// createEngineConfig assembles the orchestrator configuration from viper
func createEngineConfig() *core.Config {
	return &core.Config{
		Workers:        viper.GetInt("workers"),
		TaskTimeout:    viper.GetDuration("task_timeout"),
		RequestCeiling: viper.GetInt("request_ceiling"),
		MaxLines:       viper.GetInt("max_lines"),
		WorkerBinary:   viper.GetString("worker_binary"),
		ConfigHints:    viper.GetStringSlice("config_hints"),
		Scheduler:      viper.GetString("scheduler"),
		LogLevel:       viper.GetString("log_level"),
		JSONLogs:       viper.GetBool("json_logs"),
	}
}

// reportFailures prints partial-failure diagnostics for a finished batch
func reportFailures(logger *logrus.Logger, failures []*core.BatchResult) {
	for _, f := range failures {
		logger.WithFields(logrus.Fields{
			"file":   f.File,
			"status": f.Status.String(),
			"reason": f.Reason,
		}).Warn("Task excluded from results")
	}
}
