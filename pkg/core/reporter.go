/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: reporter.go
Description: Reporter interface and implementations for Statscope batch
telemetry. Supports logging and JSON artifact output for completed tasks and
finished batches.
*/

package core

import (
	"sync"
	"time"

	"github.com/kleascm/statscope/pkg/utils"
	"github.com/sirupsen/logrus"
)

// Reporter defines the interface for batch telemetry hooks.
// Allows the orchestrator to notify listeners of task and batch events.
type Reporter interface {
	// OnTaskCompleted is called after a task resolves, whatever its outcome.
	OnTaskCompleted(result *BatchResult)
	// OnBatchFinished is called when a batch finalize step completes.
	OnBatchFinished(stats EngineStats)
}

// TaskEventLogger receives per-task engine events.
// Satisfied by the logging package's engine helpers; register one on a
// LoggerReporter to route task outcomes through the structured log file.
type TaskEventLogger interface {
	LogScan(file string, variables int, duration time.Duration, fields map[string]interface{})
	LogParse(file string, records int, duration time.Duration, fields map[string]interface{})
	LogTaskFailure(file string, reason string, fields map[string]interface{})
}

// LoggerReporter logs task and batch events using the standard logger.
type LoggerReporter struct {
	logger *logrus.Logger
	events TaskEventLogger
}

// NewLoggerReporter creates a new LoggerReporter.
func NewLoggerReporter(logger *logrus.Logger) *LoggerReporter {
	return &LoggerReporter{logger: logger}
}

// SetEventLogger routes per-task outcomes through an engine event logger.
func (r *LoggerReporter) SetEventLogger(events TaskEventLogger) {
	r.events = events
}

// OnTaskCompleted logs one task outcome.
func (r *LoggerReporter) OnTaskCompleted(result *BatchResult) {
	if r.events != nil {
		switch result.Status {
		case TaskSuccess:
			if result.Catalog != nil {
				r.events.LogScan(result.File, result.Catalog.Len(), result.Duration, nil)
			} else {
				r.events.LogParse(result.File, result.Records, result.Duration, nil)
			}
		default:
			r.events.LogTaskFailure(result.File, result.Reason, nil)
		}
		return
	}

	fields := logrus.Fields{"file": result.File, "duration": result.Duration}
	switch result.Status {
	case TaskFailure:
		fields["reason"] = result.Reason
		r.logger.WithFields(fields).Warn("Task failed")
	case TaskTimeout:
		r.logger.WithFields(fields).Warn("Task timed out")
	default:
		fields["records"] = result.Records
		r.logger.WithFields(fields).Debug("Task completed")
	}
}

// OnBatchFinished logs the batch counters.
func (r *LoggerReporter) OnBatchFinished(stats EngineStats) {
	r.logger.WithFields(logrus.Fields{
		"scanned":  stats.FilesScanned,
		"parsed":   stats.FilesParsed,
		"records":  stats.RecordsExtracted,
		"failures": stats.Failures,
		"timeouts": stats.Timeouts,
	}).Info("Batch finished")
}

// ArtifactReporter writes a JSON run summary when a batch finishes.
type ArtifactReporter struct {
	outputDir string
	logger    *logrus.Logger

	mu      sync.Mutex
	results []*BatchResult
}

// NewArtifactReporter creates a new ArtifactReporter.
func NewArtifactReporter(outputDir string, logger *logrus.Logger) *ArtifactReporter {
	return &ArtifactReporter{outputDir: outputDir, logger: logger}
}

// OnTaskCompleted records one task outcome for the run summary.
func (r *ArtifactReporter) OnTaskCompleted(result *BatchResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
}

// OnBatchFinished writes the accumulated run summary to the output directory.
func (r *ArtifactReporter) OnBatchFinished(stats EngineStats) {
	r.mu.Lock()
	results := r.results
	r.results = nil
	r.mu.Unlock()

	summary := map[string]interface{}{
		"stats":   stats,
		"results": results,
	}
	path, err := utils.WriteRunArtifact(r.outputDir, "batch", summary)
	if err != nil {
		r.logger.WithFields(logrus.Fields{"error": err}).Error("Failed to write batch summary artifact")
		return
	}
	r.logger.WithFields(logrus.Fields{"path": path}).Info("Batch summary written")
}
