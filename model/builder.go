package model

import (
	"fmt"
	"slices"

	fhirmodel "github.com/gofhir/model"
	"github.com/gofhir/model/pool"
	"github.com/gofhir/model/schema"
)

// Arg seeds a required field at builder construction. Seeded fields are
// fixed for the lifetime of the builder.
type Arg struct {
	field  string
	values []*Element
	list   bool
}

// Seed seeds a singular field.
func Seed(field string, v *Element) Arg {
	return Arg{field: field, values: []*Element{v}}
}

// SeedList seeds a repeated field.
func SeedList(field string, vs []*Element) Arg {
	return Arg{field: field, values: slices.Clone(vs), list: true}
}

// Builder stages the fields of one element. It is not safe for concurrent
// use. Misuse (unknown fields, Set on a repeated field, writes to a seeded
// field) is recorded and reported by Build.
type Builder struct {
	typ    *schema.Type
	id     string
	value  Value
	fields [][]*Element
	fixed  []bool
	misuse []*FieldError
	opts   *fhirmodel.Options
}

// NewBuilder returns a builder for t with the given required fields seeded.
func NewBuilder(t *schema.Type, seeds ...Arg) *Builder {
	b := &Builder{
		typ:    t,
		fields: make([][]*Element, t.NumFields()),
		fixed:  make([]bool, t.NumFields()),
	}
	if t.Abstract() {
		b.fail(ErrInvalidFieldType, t.Name(), "type %s is abstract", t.Name())
	}
	for _, s := range seeds {
		i, ok := b.index(s.field)
		if !ok {
			continue
		}
		f := t.FieldAt(i)
		if f.Repeated() != s.list {
			b.fail(ErrCardinality, b.path(s.field), "seed %s with %s", f.Cardinality(), seedKind(s.list))
			continue
		}
		if s.list {
			b.fields[i] = slices.Clone(s.values)
		} else {
			b.fields[i] = singular(s.values[0])
		}
		b.fixed[i] = true
	}
	return b
}

// From returns a builder seeded with a snapshot of e. No field is fixed.
func From(e *Element) *Builder {
	b := &Builder{
		typ:    e.typ,
		id:     e.id,
		value:  e.value,
		fields: make([][]*Element, len(e.fields)),
		fixed:  make([]bool, len(e.fields)),
	}
	for i, vals := range e.fields {
		if len(vals) > 0 {
			b.fields[i] = slices.Clone(vals)
		}
	}
	return b
}

func seedKind(list bool) string {
	if list {
		return "a list"
	}
	return "a single value"
}

func singular(v *Element) []*Element {
	if v == nil {
		return nil
	}
	return []*Element{v}
}

func (b *Builder) fail(kind error, path, format string, args ...any) {
	b.misuse = append(b.misuse, newFieldError(kind, path, format, args...))
}

func (b *Builder) path(field string) string {
	return pool.Join(b.typ.Name(), field)
}

func (b *Builder) index(field string) (int, bool) {
	i, ok := b.typ.FieldIndex(field)
	if !ok {
		b.fail(ErrUnknownField, b.path(field), "%s has no field '%s'", b.typ.Name(), field)
	}
	return i, ok
}

// writable resolves field for a write and records misuse.
func (b *Builder) writable(field string, repeated bool) (int, bool) {
	i, ok := b.index(field)
	if !ok {
		return 0, false
	}
	f := b.typ.FieldAt(i)
	if f.Repeated() != repeated {
		op := "Set"
		if repeated {
			op = "Append/Replace"
		}
		b.fail(ErrCardinality, b.path(field), "%s on field with cardinality %s", op, f.Cardinality())
		return 0, false
	}
	if b.fixed[i] {
		b.fail(ErrFixedField, b.path(field), "field '%s' was seeded at construction", field)
		return 0, false
	}
	return i, true
}

// Type returns the type being built.
func (b *Builder) Type() *schema.Type { return b.typ }

// ID sets the element id, or the logical id of a resource.
func (b *Builder) ID(id string) *Builder {
	b.id = id
	return b
}

// Value sets the scalar of a primitive element. Nil clears it.
func (b *Builder) Value(v Value) *Builder {
	if !b.typ.IsPrimitive() && v != nil {
		b.fail(ErrInvalidValue, b.typ.Name(), "%s is not a primitive type", b.typ.Name())
		return b
	}
	b.value = v
	return b
}

// Set overwrites a singular field. Nil clears it. Last write wins.
func (b *Builder) Set(field string, v *Element) *Builder {
	if i, ok := b.writable(field, false); ok {
		b.fields[i] = singular(v)
	}
	return b
}

// Append adds values to the end of a repeated field, preserving order.
func (b *Builder) Append(field string, vs ...*Element) *Builder {
	if i, ok := b.writable(field, true); ok {
		b.fields[i] = append(b.fields[i], vs...)
	}
	return b
}

// Replace discards the contents of a repeated field and installs vs.
func (b *Builder) Replace(field string, vs []*Element) *Builder {
	if i, ok := b.writable(field, true); ok {
		b.fields[i] = slices.Clone(vs)
	}
	return b
}

// Options overrides the process-wide construction options for this builder.
func (b *Builder) Options(opts ...fhirmodel.Option) *Builder {
	base := b.opts
	if base == nil {
		base = fhirmodel.Defaults()
	}
	b.opts = base.Apply(opts...)
	return b
}

// HasValue reports whether a value is staged.
func (b *Builder) HasValue() bool { return b.value != nil }

// HasChildren reports whether any field is staged.
func (b *Builder) HasChildren() bool {
	for _, vals := range b.fields {
		if len(vals) > 0 {
			return true
		}
	}
	return false
}

// Build validates the staged state and returns an immutable element, or a
// *BuildError listing every failure in field order. The builder may be
// reused afterwards; later writes do not affect the built element.
func (b *Builder) Build() (*Element, error) {
	opts := b.opts
	if opts == nil {
		opts = fhirmodel.Defaults()
	}

	errs := slices.Clone(b.misuse)
	add := func(path string, err error) {
		if err != nil {
			errs = append(errs, asFieldError(err, path))
		}
	}

	name := b.typ.Name()
	if b.id != "" {
		if b.typ.IsResource() {
			add(b.path("id"), CheckID(b.id, b.path("id")))
		} else if err := checkString(b.id, opts); err != nil {
			add(b.path("id"), newFieldError(ErrInvalidValue, b.path("id"), "%v", err))
		}
	}

	for i, vals := range b.fields {
		f := b.typ.FieldAt(i)
		add(b.path(f.Name), b.checkField(f, vals, opts))
	}

	if b.typ.IsPrimitive() {
		add(name, CheckValue(b.typ, b.value, name, opts))
	}
	if !b.typ.IsResource() {
		add(name, RequireValueOrChildren(b, name))
	}

	if len(errs) > 0 {
		if opts.MaxErrors > 0 && len(errs) > opts.MaxErrors {
			errs = errs[:opts.MaxErrors]
		}
		return nil, &BuildError{Type: name, Errors: errs}
	}

	e := &Element{
		typ:    b.typ,
		id:     b.id,
		value:  b.value,
		fields: make([][]*Element, len(b.fields)),
	}
	for i, vals := range b.fields {
		if len(vals) > 0 {
			e.fields[i] = slices.Clip(slices.Clone(vals))
		}
	}
	return e, nil
}

func (b *Builder) checkField(f schema.Field, vals []*Element, opts *fhirmodel.Options) error {
	path := b.path(f.Name)

	if f.Prohibited() {
		return Prohibited(vals, path)
	}
	if f.Repeated() {
		if f.Required() {
			if err := RequireNonEmpty(vals, path); err != nil {
				return err
			}
		}
		if err := CheckList(vals, path, f.Types...); err != nil {
			return err
		}
		if n := len(vals); n > 0 && (n < f.Min || (f.Max != schema.Unbounded && n > f.Max)) {
			return newFieldError(ErrCardinality, path, "%d values for cardinality %s", n, f.Cardinality())
		}
	} else {
		var v *Element
		if len(vals) > 0 {
			v = vals[0]
		}
		var err error
		switch {
		case f.Choice && f.Required():
			_, err = RequireChoiceElement(v, path, f.Types...)
		case f.Choice:
			_, err = ChoiceElement(v, path, f.Types...)
		case f.Required():
			err = firstError(RequireNonNull(v, path), CheckSingle(v, path, f.Type()))
		default:
			err = CheckSingle(v, path, f.Type())
		}
		if err != nil {
			return err
		}
	}

	if opts.CheckReferenceTypes && len(f.Targets) > 0 {
		for i, v := range vals {
			p := path
			if f.Repeated() {
				p = pool.Index(path, i)
			}
			if err := CheckReferenceType(v, p, f.Targets...); err != nil {
				return err
			}
		}
	}
	return nil
}

// MustBuild is like Build but panics on failure.
func (b *Builder) MustBuild() *Element {
	e, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("model: %v", err))
	}
	return e
}
