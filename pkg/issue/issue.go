// Package issue defines diagnostics aligned with FHIR OperationOutcome.
package issue

import (
	"fmt"
	"strings"
)

// Severity represents the severity of an issue.
type Severity string

// Severity constants aligned with FHIR IssueSeverity.
const (
	SeverityFatal       Severity = "fatal"
	SeverityError       Severity = "error"
	SeverityWarning     Severity = "warning"
	SeverityInformation Severity = "information"
)

// IsFatal reports whether the severity makes an instance invalid.
func (s Severity) IsFatal() bool {
	return s == SeverityError || s == SeverityFatal
}

// Code represents the type of issue (IssueType).
type Code string

// Code constants aligned with FHIR IssueType.
const (
	CodeInvalid      Code = "invalid"
	CodeStructure    Code = "structure"
	CodeRequired     Code = "required"
	CodeValue        Code = "value"
	CodeInvariant    Code = "invariant"
	CodeProcessing   Code = "processing"
	CodeNotSupported Code = "not-supported"
	CodeBusinessRule Code = "business-rule"
	CodeException    Code = "exception"
	CodeTooLong      Code = "too-long"
)

// Issue represents a single diagnostic.
type Issue struct {
	// Severity indicates the severity level (error, warning, etc.)
	Severity Severity

	// Code indicates the type of issue
	Code Code

	// Diagnostics is the human-readable description of the issue
	Diagnostics string

	// Expression contains path expressions pointing to the issue location
	Expression []string

	// Source identifies what produced the issue (e.g. "build", a constraint id)
	Source string

	// ConstraintKey is the constraint id for invariant violations (e.g. "dom-6")
	ConstraintKey string
}

// String returns a human-readable representation of the issue.
func (i Issue) String() string {
	var b strings.Builder
	b.WriteString(string(i.Severity))
	b.WriteString(": ")
	if i.ConstraintKey != "" {
		b.WriteString(i.ConstraintKey)
		b.WriteString(": ")
	}
	b.WriteString(i.Diagnostics)
	if len(i.Expression) > 0 {
		b.WriteString(" at ")
		b.WriteString(i.Expression[0])
	}
	return b.String()
}

// defaultIssueCapacity is the pre-allocated capacity for Issues slice.
const defaultIssueCapacity = 8

// Result holds the collection of issues.
type Result struct {
	Issues []Issue
}

// NewResult creates a new empty Result with pre-allocated capacity.
func NewResult() *Result {
	return &Result{
		Issues: make([]Issue, 0, defaultIssueCapacity),
	}
}

// AddIssue adds an issue to the result.
func (r *Result) AddIssue(issue Issue) {
	r.Issues = append(r.Issues, issue)
}

// AddError adds an error-level issue.
func (r *Result) AddError(code Code, diagnostics string, expression ...string) {
	r.add(SeverityError, code, diagnostics, expression)
}

// AddWarning adds a warning-level issue.
func (r *Result) AddWarning(code Code, diagnostics string, expression ...string) {
	r.add(SeverityWarning, code, diagnostics, expression)
}

// AddInfo adds an information-level issue.
func (r *Result) AddInfo(code Code, diagnostics string, expression ...string) {
	r.add(SeverityInformation, code, diagnostics, expression)
}

// Addf adds an issue with a formatted diagnostic message.
func (r *Result) Addf(severity Severity, code Code, expression, format string, args ...any) {
	var expr []string
	if expression != "" {
		expr = []string{expression}
	}
	r.add(severity, code, fmt.Sprintf(format, args...), expr)
}

func (r *Result) add(severity Severity, code Code, diagnostics string, expression []string) {
	r.Issues = append(r.Issues, Issue{
		Severity:    severity,
		Code:        code,
		Diagnostics: diagnostics,
		Expression:  expression,
	})
}

// HasErrors returns true if there are any error-level issues.
func (r *Result) HasErrors() bool {
	for _, issue := range r.Issues {
		if issue.Severity.IsFatal() {
			return true
		}
	}
	return false
}

// Valid is the inverse of HasErrors.
func (r *Result) Valid() bool {
	return !r.HasErrors()
}

// ErrorCount returns the number of error-level issues.
func (r *Result) ErrorCount() int {
	count := 0
	for _, issue := range r.Issues {
		if issue.Severity.IsFatal() {
			count++
		}
	}
	return count
}

// WarningCount returns the number of warning-level issues.
func (r *Result) WarningCount() int {
	count := 0
	for _, issue := range r.Issues {
		if issue.Severity == SeverityWarning {
			count++
		}
	}
	return count
}

// Merge combines another result into this one.
func (r *Result) Merge(other *Result) {
	if other == nil {
		return
	}
	r.Issues = append(r.Issues, other.Issues...)
}

// Filter returns a new Result with only issues matching the given severity.
func (r *Result) Filter(severity Severity) *Result {
	filtered := NewResult()
	for _, issue := range r.Issues {
		if issue.Severity == severity {
			filtered.Issues = append(filtered.Issues, issue)
		}
	}
	return filtered
}

// Escalate returns a copy of r with every warning raised to an error.
func (r *Result) Escalate() *Result {
	out := &Result{Issues: make([]Issue, len(r.Issues))}
	copy(out.Issues, r.Issues)
	for i := range out.Issues {
		if out.Issues[i].Severity == SeverityWarning {
			out.Issues[i].Severity = SeverityError
		}
	}
	return out
}
