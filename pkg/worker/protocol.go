/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: protocol.go
Description: Wire protocol vocabulary for the persistent statistics worker.
Defines the newline-delimited command and response lines exchanged between the
orchestrator and a worker session, plus request-line parsing. Fields inside a
PARSE request are pipe-delimited so file paths and filter expressions may
contain spaces.
*/

package worker

import (
	"fmt"
	"strings"
)

// Commands accepted by a worker session
const (
	CmdParse    = "PARSE"
	CmdPing     = "PING"
	CmdStats    = "STATS"
	CmdShutdown = "SHUTDOWN"
)

// Response and sentinel lines emitted by a worker session
const (
	RespReady         = "READY"
	RespPong          = "PONG"
	RespGoodbye       = "GOODBYE"
	RespRestartNeeded = "RESTART_NEEDED"
	RespEndParse      = "END_PARSE"
	RespEndStats      = "END_STATS"

	errorPrefix    = "ERROR "
	requestsPrefix = "REQUESTS "
)

// FilterDelimiter separates the file path and filter expressions in a
// PARSE request line
const FilterDelimiter = "||"

// Safety limits for a long-lived worker session
const (
	// DefaultRequestCeiling bounds how many PARSE requests one session
	// serves before signaling retirement, capping memory growth in a
	// warm classification engine.
	DefaultRequestCeiling = 1000

	// DefaultMaxLines bounds how many lines one request may read,
	// guarding against runaway input files.
	DefaultMaxLines = 10_000_000
)

// ParseRequestLine splits a PARSE request into its file path and filters
// The expected shape is "PARSE <file>||<filter-1>||<filter-2>..."; the
// delimiter tolerates surrounding spaces.
func ParseRequestLine(line string) (string, []string, error) {
	rest := strings.TrimSpace(strings.TrimPrefix(line, CmdParse))
	if rest == "" {
		return "", nil, fmt.Errorf("%s request is missing a file path", CmdParse)
	}
	fields := strings.Split(rest, FilterDelimiter)
	file := strings.TrimSpace(fields[0])
	if file == "" {
		return "", nil, fmt.Errorf("%s request is missing a file path", CmdParse)
	}
	var filters []string
	for _, f := range fields[1:] {
		if f = strings.TrimSpace(f); f != "" {
			filters = append(filters, f)
		}
	}
	return file, filters, nil
}

// FormatRequestLine renders a PARSE request line for a file and filter set
func FormatRequestLine(file string, filters []string) string {
	parts := append([]string{file}, filters...)
	return CmdParse + " " + strings.Join(parts, FilterDelimiter)
}

// ErrorLine renders an ERROR response line
func ErrorLine(reason string) string {
	// Keep the reason on one line so the protocol framing survives.
	return errorPrefix + strings.ReplaceAll(reason, "\n", " ")
}

// IsErrorLine reports whether a response line is an ERROR line, returning
// the reason when it is
func IsErrorLine(line string) (string, bool) {
	if strings.HasPrefix(line, errorPrefix) {
		return strings.TrimPrefix(line, errorPrefix), true
	}
	return "", false
}

// RequestsLine renders the STATS response carrying the request count
func RequestsLine(n int) string {
	return fmt.Sprintf("%s%d", requestsPrefix, n)
}

// ParseRequestsLine extracts the request count from a REQUESTS line
func ParseRequestsLine(line string) (int, bool) {
	if !strings.HasPrefix(line, requestsPrefix) {
		return 0, false
	}
	var n int
	if _, err := fmt.Sscanf(strings.TrimPrefix(line, requestsPrefix), "%d", &n); err != nil {
		return 0, false
	}
	return n, true
}
