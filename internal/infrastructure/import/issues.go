package csvimport

import (
	"fmt"
	"maps"
	"slices"
)

// IssueCode classifies a cell that could not be interpreted
type IssueCode string

const (
	IssueInvalidTimestamp IssueCode = "ERR_IMPORT_INVALID_TIMESTAMP"
	IssueInvalidNumber    IssueCode = "ERR_IMPORT_INVALID_NUMBER"
	IssueOutOfRange       IssueCode = "ERR_IMPORT_INVALID_RANGE"
)

// DefaultIssueSamples is the number of issues kept verbatim by default
const DefaultIssueSamples = 100

// Issue is a cell treated as absent
type Issue struct {
	Line    int       `json:"line"`
	Column  string    `json:"column"`
	Code    IssueCode `json:"code"`
	Message string    `json:"message"`
	Value   string    `json:"value,omitempty"`
}

func (i Issue) Error() string {
	return fmt.Sprintf("line %d, column %s: %s (%q)", i.Line, i.Column, i.Message, i.Value)
}

// IssueLog counts every issue and keeps the first few as samples
type IssueLog struct {
	samples  []Issue
	limit    int
	total    int
	byColumn map[string]int
}

// NewIssueLog keeps up to limit samples, DefaultIssueSamples when limit <= 0
func NewIssueLog(limit int) *IssueLog {
	if limit <= 0 {
		limit = DefaultIssueSamples
	}
	return &IssueLog{limit: limit, byColumn: make(map[string]int)}
}

// Record counts issue and keeps it while under the sample limit
func (l *IssueLog) Record(issue Issue) {
	l.total++
	l.byColumn[issue.Column]++
	if len(l.samples) < l.limit {
		l.samples = append(l.samples, issue)
	}
}

func (l *IssueLog) InvalidTimestamp(line int, column, value string) {
	l.Record(Issue{Line: line, Column: column, Code: IssueInvalidTimestamp, Message: "unparsable timestamp", Value: value})
}

func (l *IssueLog) InvalidNumber(line int, column, value string) {
	l.Record(Issue{Line: line, Column: column, Code: IssueInvalidNumber, Message: "unparsable number", Value: value})
}

func (l *IssueLog) OutOfRange(line int, column string, lo, hi int, value string) {
	l.Record(Issue{
		Line:    line,
		Column:  column,
		Code:    IssueOutOfRange,
		Message: fmt.Sprintf("value must be between %d and %d", lo, hi),
		Value:   value,
	})
}

// Samples returns the retained issues in the order recorded
func (l *IssueLog) Samples() []Issue { return slices.Clone(l.samples) }

// Total counts every recorded issue, retained or not
func (l *IssueLog) Total() int { return l.total }

// Truncated reports whether samples were dropped
func (l *IssueLog) Truncated() bool { return l.total > len(l.samples) }

// ByColumn returns a copy of the per-column counts
func (l *IssueLog) ByColumn() map[string]int { return maps.Clone(l.byColumn) }
