package model

import (
	"sync/atomic"

	"github.com/gofhir/model/schema"
)

// Element is an immutable node of a FHIR tree: a resource, a data type, a
// backbone element or a primitive wrapper. Its shape is given by a
// *schema.Type; field values are stored positionally in the type's field
// order. Elements are created by a Builder and are safe for concurrent
// reads.
type Element struct {
	typ    *schema.Type
	id     string
	value  Value
	fields [][]*Element

	// memoized structural hash, 0 until computed
	hash atomic.Uint64
}

// Type returns the element's shape.
func (e *Element) Type() *schema.Type { return e.typ }

// TypeName returns the name of the element's type.
func (e *Element) TypeName() string { return e.typ.Name() }

// ID returns the element id (or the logical id of a resource).
func (e *Element) ID() string { return e.id }

// Value returns the primitive value, or nil.
func (e *Element) Value() Value { return e.value }

// HasValue reports whether the element carries a primitive value.
func (e *Element) HasValue() bool { return e.value != nil }

// HasChildren reports whether any field, extensions included, is populated.
func (e *Element) HasChildren() bool {
	for _, vals := range e.fields {
		if len(vals) > 0 {
			return true
		}
	}
	return false
}

// IsResource reports whether the element is a resource.
func (e *Element) IsResource() bool { return e.typ.IsResource() }

// Has reports whether the named field is populated.
func (e *Element) Has(field string) bool {
	return e.Len(field) > 0
}

// Len returns the number of values in the named field.
func (e *Element) Len(field string) int {
	i, ok := e.typ.FieldIndex(field)
	if !ok {
		return 0
	}
	return len(e.fields[i])
}

// Get returns the value of a singular field, or the first value of a
// repeated field. It returns nil when the field is empty or unknown.
func (e *Element) Get(field string) *Element {
	i, ok := e.typ.FieldIndex(field)
	if !ok || len(e.fields[i]) == 0 {
		return nil
	}
	return e.fields[i][0]
}

// List returns a copy of the values of the named field. The result is
// never nil.
func (e *Element) List(field string) []*Element {
	i, ok := e.typ.FieldIndex(field)
	if !ok {
		return []*Element{}
	}
	out := make([]*Element, len(e.fields[i]))
	copy(out, e.fields[i])
	return out
}

// Primitive returns the value of a primitive-typed singular field, or nil.
func (e *Element) Primitive(field string) Value {
	if c := e.Get(field); c != nil {
		return c.value
	}
	return nil
}

// ToBuilder returns a builder seeded with a snapshot of e.
func (e *Element) ToBuilder() *Builder {
	return From(e)
}

// Accept walks e with v. It is equivalent to Walk(v, e).
func (e *Element) Accept(v Visitor) {
	Walk(v, e)
}

// String returns "Type" or "Type/id" for resources with an id.
func (e *Element) String() string {
	if e.IsResource() && e.id != "" {
		return e.typ.Name() + "/" + e.id
	}
	if e.value != nil {
		return e.typ.Name() + "(" + e.value.String() + ")"
	}
	return e.typ.Name()
}
