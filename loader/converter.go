package loader

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofhir/fhir/r4"

	"github.com/gofhir/model/constraint"
	"github.com/gofhir/model/pkg/logger"
	"github.com/gofhir/model/schema"
)

// Conversion errors.
var (
	ErrNilDefinition   = errors.New("structure definition is nil")
	ErrNoElements      = errors.New("structure definition has no elements")
	ErrUnsupportedKind = errors.New("unsupported structure definition kind")
)

const (
	fhirBase         = "http://hl7.org/fhir/StructureDefinition/"
	systemTypePrefix = "http://hl7.org/fhirpath/System."
)

// plainResources derive from Resource rather than DomainResource.
var plainResources = map[string]bool{
	"Binary":     true,
	"Bundle":     true,
	"Parameters": true,
}

// R4Converter converts R4 StructureDefinitions to schema types.
type R4Converter struct {
	log *logger.Logger
}

// NewR4Converter creates a new R4 converter.
func NewR4Converter() *R4Converter {
	return &R4Converter{log: logger.Default().Named("loader")}
}

// ConvertStructureDefinition returns the type declared by the root path of
// sd. Nested backbone types are not returned; use Convert to get them.
func (c *R4Converter) ConvertStructureDefinition(sd *r4.StructureDefinition) (*schema.Type, error) {
	types, err := c.Convert(sd)
	if err != nil {
		return nil, err
	}
	return types[len(types)-1], nil
}

// Convert returns the backbone types declared by sd followed by its root
// type.
func (c *R4Converter) Convert(sd *r4.StructureDefinition) ([]*schema.Type, error) {
	if sd == nil {
		return nil, ErrNilDefinition
	}
	elements := elementsOf(sd)
	if len(elements) == 0 {
		return nil, fmt.Errorf("%s: %w", derefString(sd.Url), ErrNoElements)
	}
	kind, err := c.convertKind(sd)
	if err != nil {
		return nil, err
	}

	conv := &conversion{
		url:      derefString(sd.Url),
		children: make(map[string][]*r4.ElementDefinition),
		names:    make(map[string]string),
		seen:     make(map[string]bool),
	}
	for i := 1; i < len(elements); i++ {
		ed := &elements[i]
		if ed.SliceName != nil || ed.Path == nil {
			continue
		}
		path := *ed.Path
		dot := strings.LastIndexByte(path, '.')
		if dot < 0 {
			continue
		}
		conv.children[path[:dot]] = append(conv.children[path[:dot]], ed)
	}

	root := &elements[0]
	name := typeName(sd)
	var opts []schema.Option
	if derefBool(sd.Abstract) {
		opts = append(opts, schema.AsAbstract())
	}
	if kind == schema.KindPrimitive {
		opts = append(opts, schema.WithValue(valueKind(derefString(sd.Type))))
	}
	opts = append(opts, schema.WithConstraints(conv.constraints(root, "", schema.Define(kind, name+"Base"))...))

	t, err := conv.build(kind, name, derefString(root.Path), opts...)
	if err != nil {
		return nil, err
	}
	conv.types = append(conv.types, t)
	c.log.Debug("converted %s into %d types", conv.url, len(conv.types))
	return conv.types, nil
}

// conversion holds the state of a single StructureDefinition conversion.
type conversion struct {
	url      string
	children map[string][]*r4.ElementDefinition
	names    map[string]string // element path to declared type name
	seen     map[string]bool   // constraint keys already declared
	types    []*schema.Type
}

// build declares the type for the element group at path. Nested groups are
// declared first and appended to c.types.
func (c *conversion) build(kind schema.Kind, name, path string, opts ...schema.Option) (*schema.Type, error) {
	c.names[path] = name
	base := schema.Define(kind, name+"Base")

	var fields []schema.Field
	var cons []constraint.Constraint
	for _, ed := range c.children[path] {
		childPath := *ed.Path
		fname := childPath[len(path)+1:]
		if strings.Contains(fname, ".") {
			continue
		}
		if _, inherited := base.Field(fname); inherited || fname == "id" || (kind == schema.KindPrimitive && fname == "value") {
			continue
		}

		f := schema.Field{
			Name:     strings.TrimSuffix(fname, "[x]"),
			Min:      int(derefUint(ed.Min)),
			Modifier: derefBool(ed.IsModifier),
			Summary:  derefBool(ed.IsSummary),
		}
		f.Choice = f.Name != fname
		maxCard, err := convertMax(derefString(ed.Max))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", childPath, err)
		}
		f.Max = maxCard

		switch {
		case ed.ContentReference != nil:
			target := c.names[strings.TrimPrefix(*ed.ContentReference, "#")]
			if target == "" {
				return nil, fmt.Errorf("%s: unresolved content reference %s", childPath, *ed.ContentReference)
			}
			f.Types = []string{target}
		case isNested(ed):
			nested := name + capitalize(f.Name)
			bt, err := c.build(schema.KindBackbone, nested, childPath)
			if err != nil {
				return nil, err
			}
			c.types = append(c.types, bt)
			f.Types = []string{nested}
		default:
			f.Types, f.Targets = convertTypes(ed.Type)
		}

		fields = append(fields, f)
		cons = append(cons, c.constraints(ed, name+"."+f.Name, base)...)
	}

	decl := append([]schema.Option{schema.WithFields(fields...), schema.WithURL(c.url)}, opts...)
	decl = append(decl, schema.WithConstraints(cons...))
	return schema.New(kind, name, decl...)
}

// constraints converts the invariants of ed. Keys the base declaration
// already carries (ele-1, dom-*) and keys seen earlier are skipped.
func (c *conversion) constraints(ed *r4.ElementDefinition, location string, base *schema.Type) []constraint.Constraint {
	var out []constraint.Constraint
	for i := range ed.Constraint {
		ec := &ed.Constraint[i]
		key := derefString(ec.Key)
		if key == "" || key == schema.EleOne.ID || c.seen[key] || declares(base, key) {
			continue
		}
		c.seen[key] = true
		level := constraint.Rule
		if ec.Severity != nil && *ec.Severity != r4.ConstraintSeverityError {
			level = constraint.Warning
		}
		source := derefString(ec.Source)
		if source == "" {
			source = c.url
		}
		out = append(out, constraint.Constraint{
			ID:          key,
			Level:       level,
			Location:    location,
			Description: derefString(ec.Human),
			Expression:  derefString(ec.Expression),
			Source:      source,
			Modifier:    derefBool(ed.IsModifier),
		})
	}
	return out
}

func declares(t *schema.Type, key string) bool {
	for _, c := range t.Constraints() {
		if c.ID == key {
			return true
		}
	}
	return false
}

// elementsOf prefers the snapshot and falls back to the differential.
func elementsOf(sd *r4.StructureDefinition) []r4.ElementDefinition {
	if sd.Snapshot != nil && len(sd.Snapshot.Element) > 0 {
		return sd.Snapshot.Element
	}
	if sd.Differential != nil {
		return sd.Differential.Element
	}
	return nil
}

func (c *R4Converter) convertKind(sd *r4.StructureDefinition) (schema.Kind, error) {
	if sd.Kind == nil {
		return 0, fmt.Errorf("%s: %w: missing kind", derefString(sd.Url), ErrUnsupportedKind)
	}
	switch string(*sd.Kind) {
	case "primitive-type":
		return schema.KindPrimitive, nil
	case "complex-type":
		return schema.KindDataType, nil
	case "resource":
		if plainResources[derefString(sd.Type)] || lastSegment(derefString(sd.BaseDefinition)) == schema.ResourceName {
			return schema.KindResource, nil
		}
		return schema.KindDomainResource, nil
	}
	return 0, fmt.Errorf("%s: %w: %s", derefString(sd.Url), ErrUnsupportedKind, *sd.Kind)
}

// typeName is the declared type for base definitions and the profile name
// otherwise, so profiles do not collide with the type they constrain.
func typeName(sd *r4.StructureDefinition) string {
	t := derefString(sd.Type)
	if t != "" && derefString(sd.Url) == fhirBase+t {
		return t
	}
	if n := derefString(sd.Name); n != "" {
		return n
	}
	return t
}

func valueKind(primitive string) schema.ValueKind {
	switch primitive {
	case "boolean":
		return schema.ValueBoolean
	case "integer", "positiveInt", "unsignedInt", "integer64":
		return schema.ValueInteger
	case "decimal":
		return schema.ValueDecimal
	}
	return schema.ValueString
}

// isNested reports whether ed opens an inline element group.
func isNested(ed *r4.ElementDefinition) bool {
	if len(ed.Type) != 1 {
		return false
	}
	switch derefString(ed.Type[0].Code) {
	case schema.BackboneElementName, schema.ElementName:
		return true
	}
	return false
}

// convertTypes returns the type codes of an element and the resource names
// of its Reference target profiles.
func convertTypes(types []r4.ElementDefinitionType) (codes, targets []string) {
	for i := range types {
		code := derefString(types[i].Code)
		if rest, ok := strings.CutPrefix(code, systemTypePrefix); ok {
			code = systemType(rest)
		}
		if code == "" {
			continue
		}
		codes = append(codes, code)
		if code == "Reference" {
			for _, p := range types[i].TargetProfile {
				targets = append(targets, lastSegment(p))
			}
		}
	}
	return codes, targets
}

// systemType maps a FHIRPath system type to the FHIR primitive that
// carries it.
func systemType(name string) string {
	switch name {
	case "String":
		return "string"
	case "Boolean":
		return "boolean"
	case "Integer":
		return "integer"
	case "Decimal":
		return "decimal"
	case "Date":
		return "date"
	case "DateTime":
		return "dateTime"
	case "Time":
		return "time"
	}
	return "string"
}

func convertMax(s string) (int, error) {
	switch s {
	case "":
		return 1, nil
	case "*":
		return schema.Unbounded, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid max cardinality %q", s)
	}
	return n, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func lastSegment(url string) string {
	if i := strings.LastIndexByte(url, '/'); i >= 0 {
		return url[i+1:]
	}
	return url
}

// Generic helpers

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefBool(b *bool) bool {
	if b == nil {
		return false
	}
	return *b
}

func derefUint(n *uint32) uint32 {
	if n == nil {
		return 0
	}
	return *n
}
