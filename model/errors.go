package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofhir/model/pkg/issue"
)

// Structural failures detected by Build.
var (
	ErrMissingRequiredField       = errors.New("missing required field")
	ErrInvalidChoiceType          = errors.New("invalid choice type")
	ErrEmptyRequiredList          = errors.New("empty required list")
	ErrDegenerateValuelessElement = errors.New("element has neither value nor children")

	ErrInvalidFieldType     = errors.New("invalid field type")
	ErrNullElement          = errors.New("null element in list")
	ErrUnknownField         = errors.New("unknown field")
	ErrCardinality          = errors.New("cardinality violated")
	ErrFixedField           = errors.New("field is fixed by the builder")
	ErrInvalidValue         = errors.New("invalid primitive value")
	ErrInvalidReferenceType = errors.New("invalid reference type")
	ErrProhibitedField      = errors.New("prohibited field")
)

// FieldError is a structural failure of one field. It unwraps to one of the
// sentinel errors above.
type FieldError struct {
	// Kind is the sentinel describing the failure.
	Kind error
	// Path is the qualified field path ("ServiceRequest.subject").
	Path string
	// Field is the last path segment ("subject").
	Field string
	// Detail is a human-readable description.
	Detail string
}

func newFieldError(kind error, path, format string, args ...any) *FieldError {
	return &FieldError{
		Kind:   kind,
		Path:   path,
		Field:  lastSegment(path),
		Detail: fmt.Sprintf(format, args...),
	}
}

// asFieldError returns the *FieldError in err's chain, or wraps err as an
// invalid value at path.
func asFieldError(err error, path string) *FieldError {
	var fe *FieldError
	if errors.As(err, &fe) {
		return fe
	}
	return &FieldError{Kind: ErrInvalidValue, Path: path, Field: lastSegment(path), Detail: err.Error()}
}

// Error implements error.
func (e *FieldError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %s", e.Path, e.Kind, e.Detail)
}

// Unwrap returns the sentinel.
func (e *FieldError) Unwrap() error { return e.Kind }

// BuildError reports every structural failure of one Build call.
type BuildError struct {
	// Type is the name of the type being built.
	Type   string
	Errors []*FieldError
}

// Error implements error.
func (e *BuildError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "build " + e.Type + ": failed"
	case 1:
		return "build " + e.Type + ": " + e.Errors[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "build %s: %d errors: ", e.Type, len(e.Errors))
	for i, fe := range e.Errors {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(fe.Error())
	}
	return b.String()
}

// Unwrap returns the field errors so errors.Is and errors.As see each of
// them.
func (e *BuildError) Unwrap() []error {
	out := make([]error, len(e.Errors))
	for i, fe := range e.Errors {
		out[i] = fe
	}
	return out
}

// First returns the first recorded failure, or nil.
func (e *BuildError) First() *FieldError {
	if len(e.Errors) == 0 {
		return nil
	}
	return e.Errors[0]
}

// Result renders the failures as OperationOutcome issues.
func (e *BuildError) Result() *issue.Result {
	r := issue.NewResult()
	for _, fe := range e.Errors {
		is := issue.Issue{
			Severity:    issue.SeverityError,
			Code:        issueCode(fe.Kind),
			Diagnostics: fe.Detail,
			Expression:  []string{fe.Path},
			Source:      "build",
		}
		if is.Diagnostics == "" {
			is.Diagnostics = fe.Kind.Error()
		}
		if errors.Is(fe.Kind, ErrDegenerateValuelessElement) {
			is.ConstraintKey = "ele-1"
		}
		r.AddIssue(is)
	}
	return r
}

func issueCode(kind error) issue.Code {
	switch kind {
	case ErrMissingRequiredField, ErrEmptyRequiredList:
		return issue.CodeRequired
	case ErrInvalidValue, ErrInvalidReferenceType:
		return issue.CodeValue
	case ErrDegenerateValuelessElement:
		return issue.CodeInvariant
	default:
		return issue.CodeStructure
	}
}
