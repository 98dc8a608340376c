package model

import (
	"regexp"
	"slices"
	"strings"

	"github.com/gofhir/model/schema"
)

// The functions in this file are the pure structural checks Build runs
// over staged state. Each returns nil or a *FieldError naming path.

// RequireNonNull fails with ErrMissingRequiredField when v is nil.
func RequireNonNull(v *Element, path string) error {
	if v == nil {
		return newFieldError(ErrMissingRequiredField, path, "Missing required element: '%s'", lastSegment(path))
	}
	return nil
}

// RequireNonEmpty fails with ErrEmptyRequiredList when vs has no elements.
func RequireNonEmpty(vs []*Element, path string) error {
	if len(vs) == 0 {
		return newFieldError(ErrEmptyRequiredList, path, "Missing required element: '%s'", lastSegment(path))
	}
	return nil
}

// CheckList fails with ErrNullElement on a nil entry and with
// ErrInvalidFieldType on an entry whose type is not one of types.
func CheckList(vs []*Element, path string, types ...string) error {
	for _, v := range vs {
		if v == nil {
			return newFieldError(ErrNullElement, path, "Repeating element: '%s' does not permit null elements", lastSegment(path))
		}
		if len(types) > 0 && !v.typ.IsAny(types) {
			return newFieldError(ErrInvalidFieldType, path, "Invalid type: %s for repeating element: '%s' must be: %s",
				v.typ.Name(), lastSegment(path), strings.Join(types, ", "))
		}
	}
	return nil
}

// CheckSingle fails with ErrInvalidFieldType when v is non-nil and its type
// is not typ.
func CheckSingle(v *Element, path, typ string) error {
	if v != nil && !v.typ.IsA(typ) {
		return newFieldError(ErrInvalidFieldType, path, "Invalid type: %s for element: '%s' must be: %s",
			v.typ.Name(), lastSegment(path), typ)
	}
	return nil
}

// ChoiceElement returns v unchanged when it is nil or its type is one of
// types, and fails with ErrInvalidChoiceType otherwise.
func ChoiceElement(v *Element, path string, types ...string) (*Element, error) {
	if v == nil || v.typ.IsAny(types) {
		return v, nil
	}
	return nil, newFieldError(ErrInvalidChoiceType, path, "Invalid type: %s for choice element: '%s' must be one of: [%s]",
		v.typ.Name(), lastSegment(path), strings.Join(types, ", "))
}

// RequireChoiceElement is ChoiceElement that also rejects nil.
func RequireChoiceElement(v *Element, path string, types ...string) (*Element, error) {
	if err := RequireNonNull(v, path); err != nil {
		return nil, err
	}
	return ChoiceElement(v, path, types...)
}

// ValueOrChildren is implemented by elements and builders.
type ValueOrChildren interface {
	HasValue() bool
	HasChildren() bool
}

// RequireValueOrChildren fails with ErrDegenerateValuelessElement when e has
// neither a value nor any populated field.
func RequireValueOrChildren(e ValueOrChildren, path string) error {
	if !e.HasValue() && !e.HasChildren() {
		return newFieldError(ErrDegenerateValuelessElement, path, "ele-1: All FHIR elements must have a @value or children")
	}
	return nil
}

// Prohibited fails with ErrProhibitedField when vs is not empty.
func Prohibited(vs []*Element, path string) error {
	if len(vs) > 0 {
		return newFieldError(ErrProhibitedField, path, "Element: '%s' is prohibited.", lastSegment(path))
	}
	return nil
}

var (
	// literal relative or absolute RESTful reference; group 4 is the type
	referencePattern    = regexp.MustCompile(`^((http|https)://([A-Za-z0-9\-\\.:%$]*/)+)?([A-Z][A-Za-z]+)/[A-Za-z0-9\-.]{1,64}(/_history/[A-Za-z0-9\-.]{1,64})?$`)
	resourceNamePattern = regexp.MustCompile(`^[A-Z][A-Za-z]+$`)
)

// CheckReferenceType checks a Reference element against the resource types
// its field may target. Local ("#id") and scheme-qualified references
// (urn:uuid:...) are not checked. Conditional references ("Patient?x=y")
// take their type from the text before '?'. An explicit Reference.type must
// be allowed and must agree with the literal reference.
func CheckReferenceType(ref *Element, path string, targets ...string) error {
	if ref == nil || ref.typ.Name() != "Reference" || len(targets) == 0 || slices.Contains(targets, schema.ResourceName) {
		return nil
	}
	field := lastSegment(path)
	allowed := "[" + strings.Join(targets, ", ") + "]"

	var resourceType string
	if v := ref.Primitive("reference"); v != nil {
		lit := v.String()
		if !strings.HasPrefix(lit, "#") && !hasScheme(lit) {
			if i := strings.IndexByte(lit, '?'); i >= 0 {
				resourceType = lit[:i]
			} else if m := referencePattern.FindStringSubmatch(lit); m != nil {
				resourceType = m[4]
			}
			if resourceType == "" {
				return newFieldError(ErrInvalidReferenceType, path,
					"Invalid reference value or resource type not found in reference value: '%s' for element: '%s'", lit, field)
			}
			if !resourceNamePattern.MatchString(resourceType) {
				return newFieldError(ErrInvalidReferenceType, path,
					"Resource type found in reference value: '%s' for element: '%s' must be a valid resource type name", lit, field)
			}
			if !slices.Contains(targets, resourceType) {
				return newFieldError(ErrInvalidReferenceType, path,
					"Resource type found in reference value: '%s' for element: '%s' must be one of: %s", lit, field, allowed)
			}
		}
	}

	if v := ref.Primitive("type"); v != nil {
		typ := v.String()
		if !resourceNamePattern.MatchString(typ) {
			return newFieldError(ErrInvalidReferenceType, path,
				"Resource type found in Reference.type: '%s' for element: '%s' must be a valid resource type name", typ, field)
		}
		if !slices.Contains(targets, typ) {
			return newFieldError(ErrInvalidReferenceType, path,
				"Resource type found in Reference.type: '%s' for element: '%s' must be one of: %s", typ, field, allowed)
		}
		if resourceType != "" && resourceType != typ {
			return newFieldError(ErrInvalidReferenceType, path,
				"Resource type found in reference value: '%s' for element: '%s' does not match Reference.type: %s",
				ref.Primitive("reference"), field, typ)
		}
	}
	return nil
}

func hasScheme(s string) bool {
	i := strings.IndexByte(s, ':')
	return i > 0 && len(s) > i+1
}

func lastSegment(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[i+1:]
	}
	return path
}
