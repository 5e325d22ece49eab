/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: session.go
Description: Persistent worker session for the Statscope classification engine.
Keeps one compiled grammar warm and serves PARSE/PING/STATS/SHUTDOWN requests
over a newline-delimited command channel. Per-request failures (missing file,
bad filter, line ceiling) are reported without killing the session; only the
request ceiling and SHUTDOWN end it.
*/

package worker

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kleascm/statscope/pkg/grammar"
	"github.com/sirupsen/logrus"
)

// Session is one warm, request-serving instance of the classification engine
// Lifecycle: Starting -> Ready (emits READY) -> request loop -> Retiring
// (emits RESTART_NEEDED once the ceiling is hit) -> Stopped.
type Session struct {
	classifier     *grammar.Classifier
	logger         *logrus.Logger
	requestCeiling int
	maxLines       int
	requests       int
}

// SessionOption configures a Session
type SessionOption func(*Session)

// WithRequestCeiling overrides the retirement ceiling
// Non-positive values keep the protocol default.
func WithRequestCeiling(n int) SessionOption {
	return func(s *Session) {
		if n > 0 {
			s.requestCeiling = n
		}
	}
}

// WithLineLimit overrides the per-request line ceiling
// Non-positive values keep the protocol default.
func WithLineLimit(n int) SessionOption {
	return func(s *Session) {
		if n > 0 {
			s.maxLines = n
		}
	}
}

// NewSession creates a worker session with a freshly compiled grammar
func NewSession(logger *logrus.Logger, opts ...SessionOption) *Session {
	s := &Session{
		classifier:     grammar.NewClassifier(),
		logger:         logger,
		requestCeiling: DefaultRequestCeiling,
		maxLines:       DefaultMaxLines,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Requests returns the number of PARSE requests served so far
func (s *Session) Requests() int {
	return s.requests
}

// Run serves the command loop until shutdown or retirement
// Emits READY once the session can accept requests. Every failure inside a
// request is local to that request; the loop stays responsive afterwards.
func (s *Session) Run(r io.Reader, w io.Writer) error {
	out := bufio.NewWriter(w)
	if err := s.respond(out, RespReady); err != nil {
		return err
	}

	in := bufio.NewScanner(r)
	in.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for in.Scan() {
		line := strings.TrimSpace(in.Text())
		if line == "" {
			continue
		}

		switch {
		case line == CmdPing:
			if err := s.respond(out, RespPong); err != nil {
				return err
			}
		case line == CmdStats:
			if err := s.respond(out, RequestsLine(s.requests), RespEndStats); err != nil {
				return err
			}
		case line == CmdShutdown:
			s.logger.WithFields(logrus.Fields{"requests": s.requests}).Info("Worker session shutting down")
			return s.respond(out, RespGoodbye)
		case strings.HasPrefix(line, CmdParse+" "):
			if s.requests >= s.requestCeiling {
				s.logger.WithFields(logrus.Fields{"requests": s.requests}).Warn("Request ceiling reached, retiring session")
				return s.respond(out, RespRestartNeeded)
			}
			s.requests++
			if err := s.handleParse(out, line); err != nil {
				return err
			}
		default:
			if err := s.respond(out, ErrorLine(fmt.Sprintf("unknown command: %s", line))); err != nil {
				return err
			}
		}
	}
	if err := in.Err(); err != nil {
		return fmt.Errorf("command channel read failed: %w", err)
	}
	// Peer closed the channel without SHUTDOWN; treat as a clean stop.
	return nil
}

// handleParse serves one PARSE request
// Validation failures (bad request shape, uncompilable filter, unreadable
// file) become an ERROR line followed by the END_PARSE sentinel; the
// session stays Ready either way.
func (s *Session) handleParse(out *bufio.Writer, line string) error {
	file, filters, err := ParseRequestLine(line)
	if err != nil {
		return s.respond(out, ErrorLine(err.Error()), RespEndParse)
	}

	formatter, err := grammar.NewLineFormatter(s.classifier, filters)
	if err != nil {
		return s.respond(out, ErrorLine(err.Error()), RespEndParse)
	}

	f, err := os.Open(file)
	if err != nil {
		return s.respond(out, ErrorLine(fmt.Sprintf("cannot open %s: %v", file, err)), RespEndParse)
	}
	defer f.Close()

	in := bufio.NewScanner(f)
	in.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lines := 0
	records := 0
	for in.Scan() {
		lines++
		if lines > s.maxLines {
			// Truncated result: records emitted so far stand, the error
			// line tells the caller the file was cut short.
			return s.respond(out, ErrorLine(fmt.Sprintf("line limit exceeded after %d lines", s.maxLines)), RespEndParse)
		}
		record, ok := formatter.FormatLine(in.Text())
		if !ok {
			continue
		}
		records++
		if err := s.writeLine(out, record); err != nil {
			return err
		}
	}
	if err := in.Err(); err != nil {
		return s.respond(out, ErrorLine(fmt.Sprintf("read failed for %s: %v", file, err)), RespEndParse)
	}

	s.logger.WithFields(logrus.Fields{
		"file":    file,
		"records": records,
		"request": s.requests,
	}).Debug("Parse request served")
	return s.respond(out, RespEndParse)
}

// respond writes one or more response lines and flushes the channel
func (s *Session) respond(out *bufio.Writer, lines ...string) error {
	for _, line := range lines {
		if err := s.writeLine(out, line); err != nil {
			return err
		}
	}
	if err := out.Flush(); err != nil {
		return fmt.Errorf("command channel write failed: %w", err)
	}
	return nil
}

// writeLine writes one newline-terminated response line
func (s *Session) writeLine(out *bufio.Writer, line string) error {
	if _, err := out.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("command channel write failed: %w", err)
	}
	return nil
}
