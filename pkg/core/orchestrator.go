/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: orchestrator.go
Description: Concurrent scan/parse orchestration for the Statscope engine.
Fans a batch of statistics files out to a bounded pool, fans results back in
with partial-failure aggregation, resolves pattern variables against a scanned
catalog before dispatch, and consolidates extraction artifacts into one
tabular output.
*/

package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kleascm/statscope/pkg/grammar"
	"github.com/kleascm/statscope/pkg/scanner"
	"github.com/kleascm/statscope/pkg/utils"
	"github.com/kleascm/statscope/pkg/worker"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

// Orchestrator runs classification and extraction across many files
// The pool has a fixed maximum concurrency; tasks are independent and a
// per-task failure or timeout never aborts sibling tasks.
type Orchestrator struct {
	config *Config
	logger *logrus.Logger
	stats  *EngineStats

	scanner   *scanner.Scanner
	sem       *semaphore.Weighted
	reporters []Reporter

	// Worker pool for parse tasks, created on first use
	pool   *WorkerPool
	poolMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// ScanReport is the outcome of finalizing a scan batch
// Catalog holds the pattern-aggregated view; Instances keeps the concrete
// merged catalog, which is the source of truth for expanding pattern specs
// in later parse requests.
type ScanReport struct {
	Catalog   *scanner.Catalog       // Aggregated catalog of all completed scans
	Instances *scanner.Catalog       // Concrete per-instance catalog before aggregation
	Conflicts []scanner.KindConflict // Pattern groups with disagreeing kinds
	Failures  []*BatchResult         // Tasks excluded from the merge
	Completed int                    // Number of catalogs merged
}

// ParseReport is the outcome of finalizing a parse batch
type ParseReport struct {
	TablePath string         // Consolidated tabular output
	Failures  []*BatchResult // Tasks excluded from the table
	Completed int            // Number of source files in the table
	Records   int64          // Total extracted records
}

// NewOrchestrator creates an orchestration engine
// Zero-value config fields fall back to sane defaults: one worker per CPU,
// the protocol's request ceiling, and the protocol's line cap.
func NewOrchestrator(config *Config, logger *logrus.Logger) *Orchestrator {
	if config.Workers <= 0 {
		config.Workers = runtime.NumCPU()
	}
	if config.RequestCeiling <= 0 {
		config.RequestCeiling = worker.DefaultRequestCeiling
	}
	if config.MaxLines <= 0 {
		config.MaxLines = worker.DefaultMaxLines
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		config: config,
		logger: logger,
		stats:  &EngineStats{StartTime: time.Now()},
		scanner: scanner.NewScanner(grammar.NewClassifier(),
			scanner.WithConfigHints(config.ConfigHints),
			scanner.WithMaxLines(config.MaxLines)),
		sem:    semaphore.NewWeighted(int64(config.Workers)),
		ctx:    ctx,
		cancel: cancel,
	}
}

// AddReporter registers a telemetry reporter
func (o *Orchestrator) AddReporter(r Reporter) {
	o.reporters = append(o.reporters, r)
}

// Stats returns a snapshot of the engine counters
func (o *Orchestrator) Stats() EngineStats {
	return o.stats.Snapshot()
}

// Interrupt stops dispatching pending tasks without waiting
// In-flight tasks finish and resolve normally; pending tasks resolve as
// failures. Safe to call from a signal handler goroutine.
func (o *Orchestrator) Interrupt() {
	o.cancel()
}

// Shutdown stops dispatching, waits for in-flight tasks, and closes the pool
func (o *Orchestrator) Shutdown() {
	o.cancel()
	o.wg.Wait()
	o.poolMu.Lock()
	defer o.poolMu.Unlock()
	if o.pool != nil {
		o.pool.Close()
		o.pool = nil
	}
}

// SubmitScan submits one scan task per file matching filePattern under path
// Enumeration is capped at limit (negative means unbounded). Returns one
// handle per file immediately; Await on the handles for results.
func (o *Orchestrator) SubmitScan(path, filePattern string, limit int) ([]*TaskHandle, error) {
	files, err := o.enumerateFiles(path, filePattern, limit)
	if err != nil {
		return nil, err
	}

	tasks := make([]*BatchTask, 0, len(files))
	for _, file := range files {
		tasks = append(tasks, &BatchTask{
			ID:       uuid.New().String(),
			Kind:     TaskScan,
			File:     file,
			Priority: filePriority(file),
		})
	}
	o.logger.WithFields(logrus.Fields{"files": len(tasks), "path": path, "pattern": filePattern}).Info("Scan batch submitted")
	return o.submit(tasks, o.runScan), nil
}

// FinalizeScan waits on every handle, merges the completed catalogs, and
// applies pattern aggregation
// Failed and timed-out tasks are excluded from the merge but reported in
// the returned ScanReport, never silently swallowed.
func (o *Orchestrator) FinalizeScan(handles []*TaskHandle) *ScanReport {
	report := &ScanReport{}
	merged := scanner.NewCatalog()

	for _, h := range handles {
		result := h.Await(o.config.TaskTimeout)
		switch result.Status {
		case TaskSuccess:
			merged.Merge(result.Catalog)
			report.Completed++
		case TaskTimeout:
			o.stats.IncrementTimeouts()
			report.Failures = append(report.Failures, result)
		default:
			report.Failures = append(report.Failures, result)
		}
	}

	merged.Finalize()
	report.Instances = merged
	report.Catalog, report.Conflicts = scanner.Aggregate(merged)

	for _, conflict := range report.Conflicts {
		o.logger.WithFields(logrus.Fields{"pattern": conflict.Pattern}).Warn(conflict.String())
	}
	o.notifyBatchFinished()
	return report
}

// SubmitParse submits one extraction task per file matching filePattern
// Pattern-style variable specs are expanded against the scanned catalog
// into concrete filters before dispatch; each task writes its records to a
// per-file artifact under outputDir.
func (o *Orchestrator) SubmitParse(path, filePattern string, specs []VariableSpec, outputDir string, catalog *scanner.Catalog) ([]*TaskHandle, error) {
	filters, err := o.ExpandSpecs(specs, catalog)
	if err != nil {
		return nil, err
	}
	if len(filters) == 0 {
		return nil, fmt.Errorf("no variable specs resolved to extraction filters")
	}

	files, err := o.enumerateFiles(path, filePattern, -1)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := o.ensurePool(); err != nil {
		return nil, err
	}

	tasks := make([]*BatchTask, 0, len(files))
	for _, file := range files {
		tasks = append(tasks, &BatchTask{
			ID:       uuid.New().String(),
			Kind:     TaskParse,
			File:     file,
			Priority: filePriority(file),
			Filters:  filters,
			Output:   outputDir,
		})
	}
	o.logger.WithFields(logrus.Fields{"files": len(tasks), "filters": len(filters)}).Info("Parse batch submitted")
	return o.submit(tasks, o.runParse), nil
}

// FinalizeParsing waits on every handle and consolidates the per-file
// artifacts into one row-per-source-file table
// A variable absent from a given source file yields an empty cell.
func (o *Orchestrator) FinalizeParsing(outputDir string, handles []*TaskHandle) (*ParseReport, error) {
	report := &ParseReport{}
	sources := make(map[string]string)

	for _, h := range handles {
		result := h.Await(o.config.TaskTimeout)
		switch result.Status {
		case TaskSuccess:
			sources[result.File] = result.Artifact
			report.Completed++
			report.Records += int64(result.Records)
		case TaskTimeout:
			o.stats.IncrementTimeouts()
			report.Failures = append(report.Failures, result)
		default:
			report.Failures = append(report.Failures, result)
		}
	}

	o.notifyBatchFinished()
	if report.Completed == 0 {
		return report, fmt.Errorf("no parse task completed successfully")
	}

	tablePath, err := utils.ConsolidateRecords(outputDir, sources)
	if err != nil {
		return report, fmt.Errorf("failed to consolidate extraction artifacts: %w", err)
	}
	report.TablePath = tablePath
	return report, nil
}

// ExpandSpecs turns variable specs into the worker filter list
// Concrete names become exact-match filters; pattern names expand against
// the scanned catalog, which is the only source of truth for the concrete
// instances behind a pattern.
func (o *Orchestrator) ExpandSpecs(specs []VariableSpec, catalog *scanner.Catalog) ([]string, error) {
	var filters []string
	for _, spec := range specs {
		if !scanner.IsPattern(spec.Name) {
			filters = append(filters, specFilter(spec.Name, spec.Entries))
			continue
		}
		if catalog == nil {
			return nil, fmt.Errorf("pattern spec %q requires a scanned catalog to expand", spec.Name)
		}
		instances, err := scanner.Expand(catalog, spec.Name)
		if err != nil {
			return nil, err
		}
		if len(instances) == 0 {
			o.logger.WithFields(logrus.Fields{"pattern": spec.Name}).Warn("Pattern spec matched no catalog variable")
		}
		for _, v := range instances {
			entries := spec.Entries
			if len(entries) == 0 {
				entries = nil // bare-name filter covers every entry of the instance
			}
			filters = append(filters, specFilter(v.Name, entries))
		}
	}
	return filters, nil
}

// submit registers handles for a task batch and starts its dispatcher
// The dispatcher drains a per-batch scheduler in priority order, admitting
// tasks through the shared concurrency semaphore; the call itself never
// blocks on task execution.
func (o *Orchestrator) submit(tasks []*BatchTask, run func(*BatchTask) *BatchResult) []*TaskHandle {
	handles := make([]*TaskHandle, len(tasks))
	byID := make(map[string]*TaskHandle, len(tasks))
	sched := NewScheduler(o.config.Scheduler)
	for i, task := range tasks {
		handles[i] = newTaskHandle(task)
		byID[task.ID] = handles[i]
		sched.Push(task)
	}

	go func() {
		for {
			task := sched.Next()
			if task == nil {
				return
			}
			handle := byID[task.ID]
			if err := o.sem.Acquire(o.ctx, 1); err != nil {
				handle.resolve(&BatchResult{
					TaskID: task.ID,
					File:   task.File,
					Status: TaskFailure,
					Reason: "orchestrator shut down before dispatch",
				})
				continue
			}
			o.wg.Add(1)
			go func(task *BatchTask, handle *TaskHandle) {
				defer o.wg.Done()
				defer o.sem.Release(1)

				start := time.Now()
				result := run(task)
				result.Duration = time.Since(start)

				for _, r := range o.reporters {
					r.OnTaskCompleted(result)
				}
				handle.resolve(result)
			}(task, handle)
		}
	}()

	return handles
}

// runScan scans one statistics file into a catalog
// A line-limit stop still yields the truncated catalog; the reason field
// records the truncation so the caller can judge the result.
func (o *Orchestrator) runScan(task *BatchTask) *BatchResult {
	result := &BatchResult{TaskID: task.ID, File: task.File}

	catalog, err := o.scanner.ScanFile(task.File)
	if err != nil {
		if errors.Is(err, scanner.ErrLineLimit) {
			o.stats.IncrementScanned()
			result.Status = TaskSuccess
			result.Reason = err.Error()
			result.Catalog = catalog
			return result
		}
		o.stats.IncrementFailures()
		result.Status = TaskFailure
		result.Reason = err.Error()
		return result
	}

	o.stats.IncrementScanned()
	result.Status = TaskSuccess
	result.Catalog = catalog
	return result
}

// runParse extracts records from one file through a pooled worker session
// The session is the task's exclusive for the request's duration. A session
// that retired at its ceiling is replaced by the pool and the request is
// retried once on a fresh member.
func (o *Orchestrator) runParse(task *BatchTask) *BatchResult {
	result := &BatchResult{TaskID: task.ID, File: task.File}

	var records []string
	var parseErr error
	for attempt := 0; attempt < 2; attempt++ {
		client, err := o.pool.Acquire(o.ctx)
		if err != nil {
			o.stats.IncrementFailures()
			result.Status = TaskFailure
			result.Reason = fmt.Sprintf("failed to acquire worker: %v", err)
			return result
		}

		records, parseErr = o.parseWithTimeout(client, task)
		if errors.Is(parseErr, worker.ErrRestartNeeded) {
			// Release replaces the retired member; retry on a fresh one.
			o.stats.IncrementRestarts()
			o.pool.Release(client)
			continue
		}
		if !errors.Is(parseErr, errParseTimedOut) {
			o.pool.Release(client)
		}
		break
	}

	switch {
	case errors.Is(parseErr, errParseTimedOut):
		// Counted once by the finalize pass alongside Await-level timeouts.
		result.Status = TaskTimeout
		result.Reason = parseErr.Error()
	case parseErr != nil:
		o.stats.IncrementFailures()
		result.Status = TaskFailure
		result.Reason = parseErr.Error()
	default:
		artifact, err := utils.WriteRecordsArtifact(task.Output, task.File, records)
		if err != nil {
			o.stats.IncrementFailures()
			result.Status = TaskFailure
			result.Reason = err.Error()
			return result
		}
		o.stats.IncrementParsed()
		o.stats.AddRecords(int64(len(records)))
		result.Status = TaskSuccess
		result.Records = len(records)
		result.Artifact = artifact
	}
	return result
}

// errParseTimedOut marks a parse request the orchestrator stopped waiting on
var errParseTimedOut = errors.New("parse request timed out")

// parseWithTimeout runs one Parse call, bounding how long the task waits
// A timed-out worker may still be consuming resources; it is only returned
// to the pool after a PING/PONG liveness check and discarded otherwise. A
// member that never drains its request is discarded after a second grace
// period so a wedged worker costs one replacement, not a pool slot.
func (o *Orchestrator) parseWithTimeout(client *worker.Client, task *BatchTask) ([]string, error) {
	type outcome struct {
		records []string
		err     error
	}
	done := make(chan outcome, 1)
	go func() {
		records, err := client.Parse(task.File, task.Filters)
		done <- outcome{records, err}
	}()

	if o.config.TaskTimeout <= 0 {
		out := <-done
		return out.records, out.err
	}

	select {
	case out := <-done:
		return out.records, out.err
	case <-time.After(o.config.TaskTimeout):
		go func() {
			select {
			case <-done:
				if client.Ping() == nil {
					o.pool.Release(client)
				} else {
					o.pool.Discard(client, "failed liveness check after timeout")
				}
			case <-time.After(o.config.TaskTimeout):
				// Discard aborts the transport, which unblocks the stuck
				// reader and kills a subprocess worker.
				o.pool.Discard(client, "request never drained after timeout")
			}
		}()
		return nil, fmt.Errorf("%w after %s", errParseTimedOut, o.config.TaskTimeout)
	}
}

// ensurePool lazily warms the worker pool for parse batches
// With a worker binary configured the members are isolated subprocesses;
// otherwise each member is an in-process session over pipes.
func (o *Orchestrator) ensurePool() error {
	o.poolMu.Lock()
	defer o.poolMu.Unlock()
	if o.pool != nil {
		return nil
	}

	factory := func() (*worker.Client, error) {
		if o.config.WorkerBinary != "" {
			return worker.NewProcessClient(o.logger, o.config.WorkerBinary, "worker")
		}
		session := worker.NewSession(o.logger,
			worker.WithRequestCeiling(o.config.RequestCeiling),
			worker.WithLineLimit(o.config.MaxLines))
		return worker.NewPipeClient(o.logger, session)
	}

	pool, err := NewWorkerPool(o.config.Workers, factory, o.logger)
	if err != nil {
		return err
	}
	o.pool = pool
	return nil
}

// enumerateFiles lists files matching filePattern under path
// Results are sorted for deterministic batch composition and capped at
// limit; a negative limit means unbounded.
func (o *Orchestrator) enumerateFiles(path, filePattern string, limit int) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(path, filePattern))
	if err != nil {
		return nil, fmt.Errorf("invalid file pattern %q: %w", filePattern, err)
	}
	sort.Strings(matches)
	if limit >= 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// notifyBatchFinished pushes the counter snapshot to every reporter
func (o *Orchestrator) notifyBatchFinished() {
	snapshot := o.stats.Snapshot()
	for _, r := range o.reporters {
		r.OnBatchFinished(snapshot)
	}
}

// filePriority orders tasks by source file size so long files start early
func filePriority(file string) int {
	info, err := os.Stat(file)
	if err != nil {
		return 0
	}
	return int(info.Size())
}

// specFilter builds the worker filter expression for one concrete variable
// Without an entry list the filter matches the bare name (which covers
// every entry of the instance); with one it matches only the listed
// entry-qualified forms.
func specFilter(name string, entries []string) string {
	quoted := regexp.QuoteMeta(name)
	if len(entries) == 0 {
		return "^" + quoted + "$"
	}
	alts := make([]string, 0, len(entries))
	for _, e := range entries {
		alts = append(alts, regexp.QuoteMeta(e))
	}
	return "^" + quoted + "::(?:" + strings.Join(alts, "|") + ")$"
}
