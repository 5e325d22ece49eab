/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: types.go
Description: Core types for the Statscope orchestration engine. Defines batch
tasks and their discriminated results, asynchronous task handles, variable
specs for parse requests, engine configuration, and the atomic statistics
counters shared across a batch run.
*/

package core

import (
	"sync/atomic"
	"time"

	"github.com/kleascm/statscope/pkg/scanner"
)

// TaskKind distinguishes scan tasks from parse (extraction) tasks
type TaskKind int

const (
	TaskScan TaskKind = iota
	TaskParse
)

// TaskStatus is the discriminant of a BatchResult
type TaskStatus int

const (
	TaskSuccess TaskStatus = iota
	TaskFailure
	TaskTimeout
)

// String returns the status name for logs and diagnostics
func (s TaskStatus) String() string {
	switch s {
	case TaskSuccess:
		return "success"
	case TaskFailure:
		return "failure"
	case TaskTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// BatchTask is one unit of work: scan or extract a single statistics file
type BatchTask struct {
	ID       string   `json:"id"`       // Unique task identifier
	Kind     TaskKind `json:"kind"`     // Scan or parse
	File     string   `json:"file"`     // Source statistics file
	Priority int      `json:"priority"` // Scheduling priority (larger files first)
	Filters  []string `json:"filters"`  // Extraction filters (parse tasks only)
	Output   string   `json:"output"`   // Artifact directory (parse tasks only)
}

// BatchResult is the discriminated outcome of one batch task
// Exactly one payload is meaningful, selected by Status: a successful scan
// carries Catalog, a successful parse carries the record count and artifact
// path, failures and timeouts carry Reason.
type BatchResult struct {
	TaskID   string        `json:"task_id"`
	File     string        `json:"file"`
	Status   TaskStatus    `json:"status"`
	Reason   string        `json:"reason,omitempty"`
	Duration time.Duration `json:"duration"`

	Catalog  *scanner.Catalog `json:"-"`
	Records  int              `json:"records,omitempty"`
	Artifact string           `json:"artifact,omitempty"`
}

// TaskHandle is the caller's asynchronous view of one submitted task
// Await blocks only the caller; the underlying task keeps running even
// when Await gives up, so a timed-out result never implies a dead worker.
type TaskHandle struct {
	Task   *BatchTask
	done   chan struct{}
	result *BatchResult
}

// newTaskHandle creates an unresolved handle for a task
func newTaskHandle(task *BatchTask) *TaskHandle {
	return &TaskHandle{Task: task, done: make(chan struct{})}
}

// resolve records the task outcome and releases all waiters
func (h *TaskHandle) resolve(result *BatchResult) {
	h.result = result
	close(h.done)
}

// Await blocks until the task completes or the timeout elapses
// A non-positive timeout waits indefinitely. On timeout the returned
// result has TaskTimeout status; the task itself is not cancelled.
func (h *TaskHandle) Await(timeout time.Duration) *BatchResult {
	if timeout <= 0 {
		<-h.done
		return h.result
	}
	select {
	case <-h.done:
		return h.result
	case <-time.After(timeout):
		return &BatchResult{
			TaskID: h.Task.ID,
			File:   h.Task.File,
			Status: TaskTimeout,
			Reason: "task did not complete within " + timeout.String(),
		}
	}
}

// VariableSpec names one variable to extract in a parse request
// Name may be a concrete instance name or a digit-wildcard pattern; a
// pattern spec requires a scanned catalog to expand against. An explicit
// entry list narrows extraction to those sub-entries.
type VariableSpec struct {
	Name    string   `json:"name"`
	Kind    string   `json:"kind,omitempty"`
	Entries []string `json:"entries,omitempty"`
}

// Config contains all configuration parameters for the orchestration engine
// Populated from command-line flags and configuration files.
type Config struct {
	// Pool configuration
	Workers     int           `json:"workers"`      // Maximum concurrent tasks
	TaskTimeout time.Duration `json:"task_timeout"` // Per-task await timeout

	// Worker session limits
	RequestCeiling int `json:"request_ceiling"` // Requests before a session retires
	MaxLines       int `json:"max_lines"`       // Line cap per request

	// Worker process configuration
	WorkerBinary string `json:"worker_binary"` // Worker executable; empty = in-process sessions

	// Scan configuration
	ConfigHints []string `json:"config_hints"` // Names known to be configuration keys
	Scheduler   string   `json:"scheduler"`    // "priority" (default) or "fifo"

	// Logging configuration
	LogLevel string `json:"log_level"`
	LogFile  string `json:"log_file"`
	JSONLogs bool   `json:"json_logs"`
}

// EngineStats tracks overall batch statistics
// Uses atomic operations for thread-safe updates from task goroutines.
type EngineStats struct {
	FilesScanned     int64     `json:"files_scanned"`
	FilesParsed      int64     `json:"files_parsed"`
	RecordsExtracted int64     `json:"records_extracted"`
	Failures         int64     `json:"failures"`
	Timeouts         int64     `json:"timeouts"`
	WorkerRestarts   int64     `json:"worker_restarts"`
	StartTime        time.Time `json:"start_time"`
}

// IncrementScanned atomically increments the scanned-file counter
func (s *EngineStats) IncrementScanned() {
	atomic.AddInt64(&s.FilesScanned, 1)
}

// IncrementParsed atomically increments the parsed-file counter
func (s *EngineStats) IncrementParsed() {
	atomic.AddInt64(&s.FilesParsed, 1)
}

// AddRecords atomically adds to the extracted-record counter
func (s *EngineStats) AddRecords(n int64) {
	atomic.AddInt64(&s.RecordsExtracted, n)
}

// IncrementFailures atomically increments the failure counter
func (s *EngineStats) IncrementFailures() {
	atomic.AddInt64(&s.Failures, 1)
}

// IncrementTimeouts atomically increments the timeout counter
func (s *EngineStats) IncrementTimeouts() {
	atomic.AddInt64(&s.Timeouts, 1)
}

// IncrementRestarts atomically increments the worker-restart counter
func (s *EngineStats) IncrementRestarts() {
	atomic.AddInt64(&s.WorkerRestarts, 1)
}

// Snapshot returns a consistent copy of the counters
func (s *EngineStats) Snapshot() EngineStats {
	return EngineStats{
		FilesScanned:     atomic.LoadInt64(&s.FilesScanned),
		FilesParsed:      atomic.LoadInt64(&s.FilesParsed),
		RecordsExtracted: atomic.LoadInt64(&s.RecordsExtracted),
		Failures:         atomic.LoadInt64(&s.Failures),
		Timeouts:         atomic.LoadInt64(&s.Timeouts),
		WorkerRestarts:   atomic.LoadInt64(&s.WorkerRestarts),
		StartTime:        s.StartTime,
	}
}
