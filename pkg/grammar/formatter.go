/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: formatter.go
Description: Line formatter for extraction mode. Turns classified lines into the
fixed textual record contract "<kind>/<name>[::<entry>]/<value>" and applies the
caller-supplied name filters. Filters are held per formatter instance rather
than in process-global state so concurrent sessions can carry different filter
sets.
*/

package grammar

import (
	"fmt"
	"regexp"
)

// LineFormatter emits one extraction record per matching, filter-passing line
type LineFormatter struct {
	classifier *Classifier
	filters    []*regexp.Regexp
}

// NewLineFormatter creates a formatter with the given filter expressions
// Each filter must compile as a regular expression; a compile failure is
// reported to the caller instead of being deferred to match time.
func NewLineFormatter(classifier *Classifier, filters []string) (*LineFormatter, error) {
	compiled := make([]*regexp.Regexp, 0, len(filters))
	for _, f := range filters {
		re, err := regexp.Compile(f)
		if err != nil {
			return nil, fmt.Errorf("invalid filter %q: %w", f, err)
		}
		compiled = append(compiled, re)
	}
	return &LineFormatter{classifier: classifier, filters: compiled}, nil
}

// FormatLine classifies one raw line and renders its extraction record
// Returns false when the line does not classify or no filter matches it.
func (f *LineFormatter) FormatLine(raw string) (string, bool) {
	cls, ok := f.classifier.Classify(raw)
	if !ok {
		return "", false
	}
	if !f.matches(cls) {
		return "", false
	}
	return FormatRecord(cls), true
}

// matches reports whether any filter accepts the classified line
// A filter passes when it matches either the bare name or the
// entry-qualified "name::entry" form.
func (f *LineFormatter) matches(cls Classification) bool {
	if len(f.filters) == 0 {
		return false
	}
	qualified := cls.Name
	if cls.Entry != "" {
		qualified = cls.Name + "::" + cls.Entry
	}
	for _, re := range f.filters {
		if re.MatchString(cls.Name) || re.MatchString(qualified) {
			return true
		}
	}
	return false
}

// FormatRecord renders one classification in the extraction record contract
// "<kind>/<name><entry-suffix>/<value>" where the entry suffix is empty or
// "::<entry>". The record is returned without a trailing newline.
func FormatRecord(cls Classification) string {
	suffix := ""
	if cls.Entry != "" {
		suffix = "::" + cls.Entry
	}
	return fmt.Sprintf("%s/%s%s/%s", cls.Kind, cls.Name, suffix, cls.Value)
}
