// Package constraint declares the business-rule invariants attached to FHIR
// types. Declarations are passive data; evaluation belongs to an external
// expression engine (see package validator).
package constraint

import (
	"fmt"
	"strings"

	"github.com/gofhir/fhirpath"
	"github.com/gofhir/fhirpath/funcs"
)

func init() {
	// trace() appears in some base invariants (dom-3) and must stay silent.
	funcs.SetTraceLogger(funcs.NullTraceLogger{})
}

// Level is the declared severity of a constraint.
type Level int

// Constraint levels.
const (
	// Rule violations make an instance invalid.
	Rule Level = iota
	// Warning violations are advisory and never fatal.
	Warning
)

// String returns the FHIR ConstraintSeverity code.
func (l Level) String() string {
	if l == Warning {
		return "warning"
	}
	return "error"
}

// ParseLevel maps a ConstraintSeverity code ("error", "warning") to a Level.
// Anything other than "warning" is a Rule.
func ParseLevel(s string) Level {
	if strings.EqualFold(s, "warning") {
		return Warning
	}
	return Rule
}

// Constraint is a named invariant declared on a type.
type Constraint struct {
	// ID is the constraint key (e.g. "ras-2").
	ID string

	// Level is Rule or Warning.
	Level Level

	// Location is the path the expression is evaluated against, relative to
	// the declaring type ("RiskAssessment.prediction"). Empty or equal to the
	// type name means the node itself.
	Location string

	// Description is the human-readable statement of the rule.
	Description string

	// Expression is the boolean FHIRPath expression.
	Expression string

	// Source is the canonical URL of the declaring StructureDefinition.
	Source string

	// Modifier marks invariants declared on modifier elements.
	Modifier bool
}

// String returns "id: description".
func (c Constraint) String() string {
	return c.ID + ": " + c.Description
}

// Fatal reports whether a violation of c makes an instance invalid.
func (c Constraint) Fatal() bool {
	return c.Level == Rule
}

// RelativeLocation returns Location with the owning type prefix stripped
// ("RiskAssessment.prediction" on RiskAssessment yields "prediction"). It
// returns "" when the constraint applies to the node itself.
func (c Constraint) RelativeLocation(typeName string) string {
	loc := c.Location
	if loc == "" || loc == typeName {
		return ""
	}
	if rest, ok := strings.CutPrefix(loc, typeName+"."); ok {
		return rest
	}
	return loc
}

// Check reports whether c is well formed: it must carry an id and an
// expression that compiles as FHIRPath.
func Check(c Constraint) error {
	if c.ID == "" {
		return fmt.Errorf("constraint without id: %q", c.Expression)
	}
	if strings.TrimSpace(c.Expression) == "" {
		return fmt.Errorf("constraint %s: empty expression", c.ID)
	}
	if _, err := fhirpath.Compile(c.Expression); err != nil {
		return fmt.Errorf("constraint %s: %w", c.ID, err)
	}
	return nil
}

// Violation is a business-rule failure detected by an evaluator.
// Violations never abort construction.
type Violation struct {
	ID          string
	Level       Level
	Path        string
	Description string
}

// Error implements error.
func (v *Violation) Error() string {
	msg := fmt.Sprintf("constraint %s (%s) failed", v.ID, v.Level)
	if v.Path != "" {
		msg += " at " + v.Path
	}
	if v.Description != "" {
		msg += ": " + v.Description
	}
	return msg
}

// Fatal reports whether the violation is of a Rule constraint.
func (v *Violation) Fatal() bool {
	return v.Level == Rule
}
