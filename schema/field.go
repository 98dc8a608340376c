package schema

import (
	"slices"
	"strconv"
	"strings"
)

// Unbounded is the Max of a field that may repeat without limit ("*").
const Unbounded = -1

// Field describes one declared field of a type. Fields are identified by
// name; their position in the owning type's field list is the traversal
// order.
type Field struct {
	// Name is the field name without a choice suffix ("quantity", not
	// "quantity[x]").
	Name string

	// Min is the minimum cardinality (0 or 1 for almost every field).
	Min int

	// Max is the maximum cardinality: 0 (prohibited), 1, n or Unbounded.
	Max int

	// Choice marks a polymorphic field whose value type must be one of Types.
	Choice bool

	// Types lists the allowed type names. Plain fields have exactly one.
	Types []string

	// Targets lists the resource types a Reference field may point to.
	// Empty means any resource.
	Targets []string

	// Modifier marks fields that change the meaning of their element.
	Modifier bool

	// Summary marks fields that are part of the summary view.
	Summary bool
}

// Optional declares a singular optional field of type typ.
func Optional(name, typ string) Field {
	return Field{Name: name, Max: 1, Types: []string{typ}}
}

// Required declares a singular field that must be present.
func Required(name, typ string) Field {
	return Field{Name: name, Min: 1, Max: 1, Types: []string{typ}}
}

// List declares a repeated optional field.
func List(name, typ string) Field {
	return Field{Name: name, Max: Unbounded, Types: []string{typ}}
}

// RequiredList declares a repeated field that must hold at least one value.
func RequiredList(name, typ string) Field {
	return Field{Name: name, Min: 1, Max: Unbounded, Types: []string{typ}}
}

// OptionalChoice declares a singular optional choice field.
func OptionalChoice(name string, types ...string) Field {
	return Field{Name: name, Max: 1, Choice: true, Types: slices.Clone(types)}
}

// RequiredChoice declares a singular choice field that must be present.
func RequiredChoice(name string, types ...string) Field {
	return Field{Name: name, Min: 1, Max: 1, Choice: true, Types: slices.Clone(types)}
}

// RefersTo restricts a Reference field to the given resource types.
func (f Field) RefersTo(targets ...string) Field {
	f.Targets = append([]string(nil), targets...)
	return f
}

// AsModifier marks the field as a modifier.
func (f Field) AsModifier() Field {
	f.Modifier = true
	return f
}

// InSummary marks the field as part of the summary view.
func (f Field) InSummary() Field {
	f.Summary = true
	return f
}

// Prohibit sets the maximum cardinality to zero.
func (f Field) Prohibit() Field {
	f.Min, f.Max = 0, 0
	return f
}

// clone returns f with its own Types and Targets slices.
func (f Field) clone() Field {
	f.Types = slices.Clone(f.Types)
	f.Targets = slices.Clone(f.Targets)
	return f
}

// Repeated reports whether the field holds an ordered sequence.
func (f Field) Repeated() bool {
	return f.Max != 1 && f.Max != 0
}

// Required reports whether the field must be populated.
func (f Field) Required() bool {
	return f.Min > 0
}

// Prohibited reports whether the field must not be populated.
func (f Field) Prohibited() bool {
	return f.Max == 0
}

// Type returns the single declared type of a plain field, or "" for a
// choice field.
func (f Field) Type() string {
	if f.Choice || len(f.Types) != 1 {
		return ""
	}
	return f.Types[0]
}

// Cardinality returns "min..max" as written in StructureDefinitions.
func (f Field) Cardinality() string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(f.Min))
	b.WriteString("..")
	if f.Max == Unbounded {
		b.WriteByte('*')
	} else {
		b.WriteString(strconv.Itoa(f.Max))
	}
	return b.String()
}

// ChoiceName returns the serialized name of a choice field for a concrete
// type: "value" and "dateTime" give "valueDateTime".
func ChoiceName(field, typeName string) string {
	if typeName == "" {
		return field
	}
	return field + strings.ToUpper(typeName[:1]) + typeName[1:]
}
