/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: classifier.go
Description: Regular-expression line grammar for simulator statistics dumps.
Classifies each raw line into one of six kinds (Scalar, Vector, Distribution,
Histogram, Summary, Configuration) and extracts the variable name, optional
sub-entry, and raw value. Dispatch order is significant: several kinds are
syntactic supersets of each other and must be tried from most to least specific.
*/

package grammar

import (
	"regexp"
	"strings"
)

// Grammar primitives shared by the dispatch patterns
const (
	identPattern   = `[A-Za-z0-9_.]+`
	floatPattern   = `[-+]?[0-9]+(?:\.[0-9]+)?(?:[eE][-+]?[0-9]+)?`
	intPattern     = `[-+]?[0-9]+`
	complexPattern = intPattern + `\s+` + floatPattern + `%\s+` + floatPattern + `%`
	rangePattern   = `-?[0-9]+--?[0-9]+`
)

// summaryWords are the reserved sub-entry names that mark a running-summary
// line. The vector rule must exclude them or every summary line would
// misclassify as a vector bucket.
var summaryWords = map[string]bool{
	"samples": true,
	"mean":    true,
	"gmean":   true,
	"stdev":   true,
	"total":   true,
}

// Classification is the result of classifying one statistics line
// Entry is empty for kinds without a sub-entry (Scalar, Configuration).
type Classification struct {
	Kind  Kind   `json:"kind"`
	Name  string `json:"name"`
	Entry string `json:"entry,omitempty"`
	Value string `json:"value"`
}

// Classifier implements the statistics line grammar
// All patterns are compiled once at construction; a Classifier is
// read-only after construction and safe for concurrent use.
type Classifier struct {
	configRe       *regexp.Regexp
	scalarRe       *regexp.Regexp
	histogramRe    *regexp.Regexp
	distributionRe *regexp.Regexp
	summaryRe      *regexp.Regexp
	vectorRe       *regexp.Regexp
	unspecifiedRe  *regexp.Regexp
}

// NewClassifier creates a classifier with all grammar patterns compiled
func NewClassifier() *Classifier {
	return &Classifier{
		configRe: regexp.MustCompile(`^(` + identPattern + `)\s*=\s*(.+)$`),
		scalarRe: regexp.MustCompile(`^(` + identPattern + `)\s+(` + floatPattern + `)$`),
		histogramRe: regexp.MustCompile(
			`^(` + identPattern + `)::(` + rangePattern + `)\s+` + floatPattern + `\s+` + complexPattern + `$`),
		distributionRe: regexp.MustCompile(
			`^(` + identPattern + `)::(-?[0-9]+|overflows|underflows)\s+` + floatPattern + `\s+` + complexPattern + `$`),
		summaryRe: regexp.MustCompile(
			`^(` + identPattern + `)::(samples|mean|gmean|stdev|total)\s+` + floatPattern + `(?:\s+` + floatPattern + `)?$`),
		vectorRe: regexp.MustCompile(
			`^(` + identPattern + `)::(` + identPattern + `)\s+` + floatPattern + `(?:\s+(?:` + complexPattern + `|` + floatPattern + `))?$`),
		unspecifiedRe: regexp.MustCompile(`\s*\(Unspecified\)\s*$`),
	}
}

// Classify assigns a kind to one raw line and extracts name, entry, and value
// Returns false for blank lines, dividers, and anything the grammar does not
// recognize; unmatched lines are expected telemetry noise, never an error.
func (c *Classifier) Classify(raw string) (Classification, bool) {
	line := c.stripComment(raw)
	if line == "" {
		return Classification{}, false
	}

	// Dispatch order matters: configuration and scalar have no entry marker,
	// then compound kinds from most specific (histogram range rows) down to
	// the catch-all vector shape.
	if m := c.configRe.FindStringSubmatch(line); m != nil {
		return Classification{Kind: KindConfiguration, Name: m[1], Value: extractValue(line, true)}, true
	}
	if m := c.scalarRe.FindStringSubmatch(line); m != nil {
		return Classification{Kind: KindScalar, Name: m[1], Value: extractValue(line, false)}, true
	}
	if m := c.histogramRe.FindStringSubmatch(line); m != nil {
		return Classification{Kind: KindHistogram, Name: m[1], Entry: m[2], Value: extractValue(line, false)}, true
	}
	if m := c.distributionRe.FindStringSubmatch(line); m != nil {
		return Classification{Kind: KindDistribution, Name: m[1], Entry: m[2], Value: extractValue(line, false)}, true
	}
	if m := c.summaryRe.FindStringSubmatch(line); m != nil {
		return Classification{Kind: KindSummary, Name: m[1], Entry: m[2], Value: extractValue(line, false)}, true
	}
	if m := c.vectorRe.FindStringSubmatch(line); m != nil {
		if !summaryWords[m[2]] {
			return Classification{Kind: KindVector, Name: m[1], Entry: m[2], Value: extractValue(line, false)}, true
		}
	}

	return Classification{}, false
}

// stripComment removes a trailing "#..." comment or "(Unspecified)" marker
// and trims surrounding whitespace
func (c *Classifier) stripComment(raw string) string {
	line := raw
	if idx := strings.Index(line, "#"); idx >= 0 {
		line = line[:idx]
	}
	line = c.unspecifiedRe.ReplaceAllString(line, "")
	return strings.TrimSpace(line)
}

// extractValue returns the raw value portion of a comment-stripped line.
// Configuration lines split on the first '='; every other kind splits on the
// first run of whitespace. The value is the full trimmed remainder, so
// distribution and histogram rows keep their percentage columns intact.
func extractValue(line string, configuration bool) string {
	if configuration {
		if idx := strings.Index(line, "="); idx >= 0 {
			return strings.TrimSpace(line[idx+1:])
		}
		return ""
	}
	if idx := strings.IndexAny(line, " \t"); idx >= 0 {
		return strings.TrimSpace(line[idx+1:])
	}
	return ""
}
