/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: scanner.go
Description: Type-inference scanner for simulator statistics dumps. Consumes a
whole file line by line through the classification grammar and produces one
variable catalog per file. Supports an optional configuration hint set that
reclassifies scalar-shaped lines whose names are known configuration keys, and
a line ceiling that stops runaway inputs cleanly.
*/

package scanner

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/kleascm/statscope/pkg/grammar"
)

// ErrLineLimit is returned when a scan stops at the configured line ceiling
// The catalog built up to that point is still returned; callers decide
// whether a truncated result is usable.
var ErrLineLimit = errors.New("line limit exceeded")

// Scanner builds variable catalogs from statistics dumps
// A scanner is read-only after construction and safe for concurrent use;
// each scan pass owns its catalog exclusively.
type Scanner struct {
	classifier  *grammar.Classifier
	configHints map[string]bool
	maxLines    int
}

// Option configures a Scanner
type Option func(*Scanner)

// WithConfigHints supplies variable names known to be configuration keys
// A scalar-shaped line whose name is hinted is recorded as Configuration,
// resolving the ambiguity of configuration values emitted without '='.
func WithConfigHints(names []string) Option {
	return func(s *Scanner) {
		for _, n := range names {
			s.configHints[n] = true
		}
	}
}

// WithMaxLines caps the number of lines read per scan pass
// Zero or negative means unbounded.
func WithMaxLines(n int) Option {
	return func(s *Scanner) {
		s.maxLines = n
	}
}

// NewScanner creates a scanner around the given classifier
func NewScanner(classifier *grammar.Classifier, opts ...Option) *Scanner {
	s := &Scanner{
		classifier:  classifier,
		configHints: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScanFile scans one statistics dump and returns its variable catalog
func (s *Scanner) ScanFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open statistics file: %w", err)
	}
	defer f.Close()

	catalog, err := s.ScanReader(f)
	if err != nil {
		return catalog, fmt.Errorf("scan of %s: %w", path, err)
	}
	return catalog, nil
}

// ScanReader scans a line stream and returns its variable catalog
// The pass is a single synchronous top-to-bottom loop; unrecognized lines
// are skipped silently per the grammar contract.
func (s *Scanner) ScanReader(r io.Reader) (*Catalog, error) {
	catalog := NewCatalog()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lines := 0
	for scanner.Scan() {
		lines++
		if s.maxLines > 0 && lines > s.maxLines {
			catalog.Finalize()
			return catalog, ErrLineLimit
		}
		cls, ok := s.classifier.Classify(scanner.Text())
		if !ok {
			continue
		}
		if cls.Kind == grammar.KindScalar && s.configHints[cls.Name] {
			cls.Kind = grammar.KindConfiguration
		}
		catalog.Observe(cls)
	}
	if err := scanner.Err(); err != nil {
		return catalog, fmt.Errorf("failed to read statistics stream: %w", err)
	}

	catalog.Finalize()
	return catalog, nil
}
