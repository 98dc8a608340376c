// Package schema declares the closed set of FHIR node shapes as data.
//
// A Type lists its fields (name, cardinality, allowed types, choice flag) in
// traversal order, together with the constraints that apply to it. The
// Element, BackboneElement, Resource and DomainResource base field sets are
// composed into each Type by its Kind, so one generic builder and one
// traversal serve every shape.
package schema

import (
	"errors"
	"fmt"
	"slices"

	"github.com/gofhir/model/constraint"
)

// Kind is the structural category of a type.
type Kind int

// Type kinds.
const (
	KindPrimitive Kind = iota
	KindDataType
	KindBackbone
	KindResource
	KindDomainResource
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindPrimitive:
		return "primitive"
	case KindDataType:
		return "datatype"
	case KindBackbone:
		return "backbone"
	case KindResource:
		return "resource"
	case KindDomainResource:
		return "domain-resource"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// IsResource reports whether the kind is addressable.
func (k Kind) IsResource() bool {
	return k == KindResource || k == KindDomainResource
}

// ValueKind is the scalar representation of a primitive type.
type ValueKind int

// Value kinds.
const (
	ValueNone ValueKind = iota
	ValueString
	ValueBoolean
	ValueInteger
	ValueDecimal
)

// String returns the value kind name.
func (v ValueKind) String() string {
	switch v {
	case ValueString:
		return "string"
	case ValueBoolean:
		return "boolean"
	case ValueInteger:
		return "integer"
	case ValueDecimal:
		return "decimal"
	default:
		return "none"
	}
}

// Abstract base type names. A field declared with one of these accepts any
// type of the matching kind.
const (
	ElementName         = "Element"
	BackboneElementName = "BackboneElement"
	ResourceName        = "Resource"
	DomainResourceName  = "DomainResource"
)

// Type is an immutable shape declaration. Create it with New or Define.
type Type struct {
	name     string
	kind     Kind
	base     *Type
	value    ValueKind
	abstract bool
	url      string

	fields      []Field
	constraints []constraint.Constraint
	index       map[string]int
}

// Name returns the type name ("ServiceRequest", "string").
func (t *Type) Name() string { return t.name }

// Kind returns the structural kind.
func (t *Type) Kind() Kind { return t.kind }

// Base returns the type this one derives from, or nil.
func (t *Type) Base() *Type { return t.base }

// Root returns the type t ultimately derives from, or t itself when it has
// no base. Profiles of Quantity resolve to Quantity.
func (t *Type) Root() *Type {
	for t.base != nil {
		t = t.base
	}
	return t
}

// Value returns the scalar kind of a primitive type.
func (t *Type) Value() ValueKind { return t.value }

// Abstract reports whether instances of the type may be built directly.
func (t *Type) Abstract() bool { return t.abstract }

// URL returns the canonical URL of the declaring StructureDefinition.
func (t *Type) URL() string { return t.url }

// IsResource reports whether the type is a Resource or DomainResource.
func (t *Type) IsResource() bool { return t.kind.IsResource() }

// IsPrimitive reports whether the type is a primitive wrapper.
func (t *Type) IsPrimitive() bool { return t.kind == KindPrimitive }

// String returns the type name.
func (t *Type) String() string { return t.name }

// NumFields returns the number of declared fields, base fields included.
func (t *Type) NumFields() int { return len(t.fields) }

// FieldAt returns a copy of the i-th field in traversal order.
func (t *Type) FieldAt(i int) Field { return t.fields[i].clone() }

// Fields returns a copy of the declared fields in traversal order.
func (t *Type) Fields() []Field {
	out := make([]Field, len(t.fields))
	for i, f := range t.fields {
		out[i] = f.clone()
	}
	return out
}

// Field returns the field with the given name.
func (t *Type) Field(name string) (Field, bool) {
	i, ok := t.index[name]
	if !ok {
		return Field{}, false
	}
	return t.fields[i].clone(), true
}

// FieldIndex returns the position of the named field.
func (t *Type) FieldIndex(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// Constraints returns a copy of the declared constraints, base constraints
// first.
func (t *Type) Constraints() []constraint.Constraint {
	return slices.Clone(t.constraints)
}

// IsA reports whether a value of type t satisfies a declaration of type
// name: t is that type, derives from it, or name is an abstract base whose
// kind t belongs to.
func (t *Type) IsA(name string) bool {
	for cur := t; cur != nil; cur = cur.base {
		if cur.name == name {
			return true
		}
	}
	switch name {
	case ResourceName:
		return t.kind.IsResource()
	case DomainResourceName:
		return t.kind == KindDomainResource
	case ElementName:
		return !t.kind.IsResource()
	case BackboneElementName:
		return t.kind == KindBackbone
	}
	return false
}

// IsAny reports whether t satisfies any of names.
func (t *Type) IsAny(names []string) bool {
	for _, n := range names {
		if t.IsA(n) {
			return true
		}
	}
	return false
}

// IsAbstractName reports whether name is one of the abstract base names.
func IsAbstractName(name string) bool {
	switch name {
	case ElementName, BackboneElementName, ResourceName, DomainResourceName:
		return true
	}
	return false
}

// Option configures a type declaration.
type Option func(*decl)

type decl struct {
	fields      []Field
	constraints []constraint.Constraint
	value       ValueKind
	abstract    bool
	base        *Type
	url         string
}

// WithFields adds fields after the base fields, in the given order.
func WithFields(fields ...Field) Option {
	return func(d *decl) { d.fields = append(d.fields, fields...) }
}

// WithConstraints attaches constraints to the type.
func WithConstraints(cs ...constraint.Constraint) Option {
	return func(d *decl) { d.constraints = append(d.constraints, cs...) }
}

// WithValue sets the scalar kind of a primitive type.
func WithValue(v ValueKind) Option {
	return func(d *decl) { d.value = v }
}

// WithURL sets the canonical URL of the declaration.
func WithURL(url string) Option {
	return func(d *decl) { d.url = url }
}

// AsAbstract marks the type abstract.
func AsAbstract() Option {
	return func(d *decl) { d.abstract = true }
}

// DerivedFrom declares a profile of base: the type shares base's fields,
// value kind and constraints, and adds its own constraints. Additional
// fields are not allowed.
func DerivedFrom(base *Type) Option {
	return func(d *decl) { d.base = base }
}

// Declaration errors.
var (
	ErrEmptyName      = errors.New("type name is empty")
	ErrDuplicateField = errors.New("duplicate field")
	ErrInvalidField   = errors.New("invalid field declaration")
)

// New builds a type declaration of the given kind. The kind's base field
// set and base constraints are composed in front of the declared ones.
func New(kind Kind, name string, opts ...Option) (*Type, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	var d decl
	for _, opt := range opts {
		opt(&d)
	}

	t := &Type{
		name:     name,
		kind:     kind,
		value:    d.value,
		abstract: d.abstract,
		url:      d.url,
		base:     d.base,
	}

	if d.base != nil {
		if d.base.kind != kind {
			return nil, fmt.Errorf("%s: %w: kind %s differs from base %s", name, ErrInvalidField, kind, d.base.name)
		}
		if len(d.fields) > 0 {
			return nil, fmt.Errorf("%s: %w: derived types cannot add fields", name, ErrInvalidField)
		}
		t.fields = d.base.Fields()
		t.constraints = slices.Clone(d.base.constraints)
		if t.value == ValueNone {
			t.value = d.base.value
		}
	} else {
		t.fields = baseFields(kind)
		for _, f := range d.fields {
			t.fields = append(t.fields, f.clone())
		}
		t.constraints = baseConstraints(kind)
	}
	if kind == KindPrimitive && t.value == ValueNone && !t.abstract {
		t.value = ValueString
	}
	t.constraints = append(t.constraints, d.constraints...)

	t.index = make(map[string]int, len(t.fields))
	for i, f := range t.fields {
		if err := checkField(f); err != nil {
			return nil, fmt.Errorf("%s.%s: %w", name, f.Name, err)
		}
		if _, dup := t.index[f.Name]; dup {
			return nil, fmt.Errorf("%s: %w: %s", name, ErrDuplicateField, f.Name)
		}
		t.index[f.Name] = i
	}
	return t, nil
}

// Define is like New but panics on an invalid declaration. It is intended
// for statically declared shapes.
func Define(kind Kind, name string, opts ...Option) *Type {
	t, err := New(kind, name, opts...)
	if err != nil {
		panic("schema: " + err.Error())
	}
	return t
}

func checkField(f Field) error {
	switch {
	case f.Name == "":
		return fmt.Errorf("%w: empty name", ErrInvalidField)
	case len(f.Types) == 0:
		return fmt.Errorf("%w: no types", ErrInvalidField)
	case !f.Choice && len(f.Types) != 1:
		return fmt.Errorf("%w: plain field with %d types", ErrInvalidField, len(f.Types))
	case f.Choice && f.Repeated():
		return fmt.Errorf("%w: repeated choice field", ErrInvalidField)
	case f.Min < 0 || (f.Max != Unbounded && f.Max < f.Min):
		return fmt.Errorf("%w: cardinality %s", ErrInvalidField, f.Cardinality())
	}
	return nil
}
