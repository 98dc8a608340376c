package schema

import (
	"errors"
	"testing"

	"github.com/gofhir/model/constraint"
	"github.com/gofhir/model/pkg/logger"
)

func init() {
	logger.Disable()
}

func TestField_Constructors(t *testing.T) {
	tests := []struct {
		name         string
		f            Field
		wantRequired bool
		wantRepeated bool
		wantCard     string
	}{
		{"optional", Optional("text", "string"), false, false, "0..1"},
		{"required", Required("subject", "Reference"), true, false, "1..1"},
		{"list", List("note", "Annotation"), false, true, "0..*"},
		{"required list", RequiredList("coding", "Coding"), true, true, "1..*"},
		{"choice", OptionalChoice("quantity", "Quantity", "Ratio", "Range"), false, false, "0..1"},
		{"required choice", RequiredChoice("value", "string", "boolean"), true, false, "1..1"},
		{"prohibited", Optional("x", "string").Prohibit(), false, false, "0..0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.f.Required() != tt.wantRequired {
				t.Errorf("Required() = %v; want %v", tt.f.Required(), tt.wantRequired)
			}
			if tt.f.Repeated() != tt.wantRepeated {
				t.Errorf("Repeated() = %v; want %v", tt.f.Repeated(), tt.wantRepeated)
			}
			if got := tt.f.Cardinality(); got != tt.wantCard {
				t.Errorf("Cardinality() = %q; want %q", got, tt.wantCard)
			}
		})
	}
}

func TestChoiceName(t *testing.T) {
	tests := []struct {
		field, typ, want string
	}{
		{"value", "dateTime", "valueDateTime"},
		{"quantity", "Ratio", "quantityRatio"},
		{"value", "", "value"},
	}
	for _, tt := range tests {
		if got := ChoiceName(tt.field, tt.typ); got != tt.want {
			t.Errorf("ChoiceName(%q, %q) = %q; want %q", tt.field, tt.typ, got, tt.want)
		}
	}
}

func TestNew_ComposesBaseFields(t *testing.T) {
	tests := []struct {
		kind       Kind
		wantFields []string
		wantCons   []string
	}{
		{KindPrimitive, []string{"extension"}, []string{"ele-1"}},
		{KindDataType, []string{"extension", "own"}, []string{"ele-1"}},
		{KindBackbone, []string{"extension", "modifierExtension", "own"}, []string{"ele-1"}},
		{KindResource, []string{"meta", "implicitRules", "language", "own"}, nil},
		{KindDomainResource, []string{"meta", "implicitRules", "language", "text", "contained", "extension", "modifierExtension", "own"},
			[]string{"dom-2", "dom-3", "dom-4", "dom-5", "dom-6"}},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			var opts []Option
			if tt.kind != KindPrimitive {
				opts = append(opts, WithFields(Optional("own", "string")))
			}
			typ, err := New(tt.kind, "T", opts...)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if typ.NumFields() != len(tt.wantFields) {
				t.Fatalf("NumFields() = %d; want %d", typ.NumFields(), len(tt.wantFields))
			}
			for i, name := range tt.wantFields {
				if got := typ.FieldAt(i).Name; got != name {
					t.Errorf("FieldAt(%d) = %q; want %q", i, got, name)
				}
				if idx, ok := typ.FieldIndex(name); !ok || idx != i {
					t.Errorf("FieldIndex(%q) = %d, %v", name, idx, ok)
				}
			}
			cons := typ.Constraints()
			if len(cons) != len(tt.wantCons) {
				t.Fatalf("Constraints() = %d; want %d", len(cons), len(tt.wantCons))
			}
			for i, id := range tt.wantCons {
				if cons[i].ID != id {
					t.Errorf("Constraints()[%d] = %q; want %q", i, cons[i].ID, id)
				}
			}
		})
	}
}

func TestNew_Errors(t *testing.T) {
	quantity := Define(KindDataType, "Quantity", WithFields(Optional("value", "decimal")))

	tests := []struct {
		name    string
		kind    Kind
		typ     string
		opts    []Option
		wantErr error
	}{
		{"empty name", KindDataType, "", nil, ErrEmptyName},
		{"duplicate field", KindDataType, "T", []Option{WithFields(Optional("extension", "Extension"))}, ErrDuplicateField},
		{"no types", KindDataType, "T", []Option{WithFields(Field{Name: "x", Max: 1})}, ErrInvalidField},
		{"plain multi type", KindDataType, "T", []Option{WithFields(Field{Name: "x", Max: 1, Types: []string{"a", "b"}})}, ErrInvalidField},
		{"repeated choice", KindDataType, "T", []Option{WithFields(Field{Name: "x", Max: Unbounded, Choice: true, Types: []string{"a"}})}, ErrInvalidField},
		{"derived adds fields", KindDataType, "T", []Option{DerivedFrom(quantity), WithFields(Optional("y", "string"))}, ErrInvalidField},
		{"derived kind mismatch", KindBackbone, "T", []Option{DerivedFrom(quantity)}, ErrInvalidField},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.kind, tt.typ, tt.opts...)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("New() error = %v; want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDefine_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Define() should panic on an invalid declaration")
		}
	}()
	Define(KindDataType, "")
}

func TestType_IsA(t *testing.T) {
	quantity := Define(KindDataType, "Quantity", WithFields(Optional("value", "decimal")))
	simple := Define(KindDataType, "SimpleQuantity", DerivedFrom(quantity),
		WithConstraints(constraint.Constraint{ID: "sqty-1", Expression: "comparator.empty()"}))
	patient := Define(KindDomainResource, "Patient")
	binary := Define(KindResource, "Binary")
	prediction := Define(KindBackbone, "RiskAssessmentPrediction")

	tests := []struct {
		name string
		typ  *Type
		of   string
		want bool
	}{
		{"self", quantity, "Quantity", true},
		{"derived", simple, "Quantity", true},
		{"base is not derived", quantity, "SimpleQuantity", false},
		{"element", quantity, ElementName, true},
		{"resource not element", patient, ElementName, false},
		{"domain resource", patient, DomainResourceName, true},
		{"resource", binary, ResourceName, true},
		{"plain resource not domain", binary, DomainResourceName, false},
		{"backbone", prediction, BackboneElementName, true},
		{"datatype not backbone", quantity, BackboneElementName, false},
		{"unrelated", quantity, "Ratio", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.typ.IsA(tt.of); got != tt.want {
				t.Errorf("%s.IsA(%q) = %v; want %v", tt.typ, tt.of, got, tt.want)
			}
		})
	}

	if simple.NumFields() != quantity.NumFields() {
		t.Errorf("derived type should share base fields")
	}
	if got := simple.Constraints(); len(got) != 2 || got[1].ID != "sqty-1" {
		t.Errorf("derived constraints = %v", got)
	}
}

func TestType_Immutable(t *testing.T) {
	typ := Define(KindDataType, "T", WithFields(Optional("a", "string")))
	fields := typ.Fields()
	fields[0].Name = "changed"
	cons := typ.Constraints()
	cons[0].ID = "changed"

	if typ.FieldAt(0).Name != "extension" {
		t.Error("Fields() must return a copy")
	}
	if typ.Constraints()[0].ID != "ele-1" {
		t.Error("Constraints() must return a copy")
	}
}

func TestType_ChoiceTypesNotShared(t *testing.T) {
	allowed := []string{"Quantity", "Ratio"}
	typ := Define(KindDataType, "T",
		WithFields(OptionalChoice("value", allowed...), Optional("subject", "Reference").RefersTo("Patient")))
	allowed[0] = "string"

	f, _ := typ.Field("value")
	if f.Types[0] != "Quantity" {
		t.Fatalf("declared types changed with the caller's slice: %v", f.Types)
	}

	f.Types[1] = "boolean"
	typ.FieldAt(1).Types[0] = "boolean"
	typ.Fields()[1].Types[0] = "boolean"
	ref, _ := typ.Field("subject")
	ref.Targets[0] = "Group"

	got, _ := typ.Field("value")
	if got.Types[0] != "Quantity" || got.Types[1] != "Ratio" {
		t.Errorf("value types = %v; want [Quantity Ratio]", got.Types)
	}
	if ref, _ := typ.Field("subject"); ref.Targets[0] != "Patient" {
		t.Errorf("subject targets = %v; want [Patient]", ref.Targets)
	}

	derived := Define(KindDataType, "U", DerivedFrom(typ))
	df, _ := derived.Field("value")
	df.Types[0] = "string"
	if got, _ := typ.Field("value"); got.Types[0] != "Quantity" {
		t.Errorf("derived type shares field types with its base: %v", got.Types)
	}
}

func TestType_Root(t *testing.T) {
	quantity := Define(KindDataType, "Quantity", WithFields(Optional("value", "decimal")))
	simple := Define(KindDataType, "SimpleQuantity", DerivedFrom(quantity))
	narrowed := Define(KindDataType, "MgQuantity", DerivedFrom(simple))

	for _, typ := range []*Type{quantity, simple, narrowed} {
		if got := typ.Root(); got != quantity {
			t.Errorf("%s.Root() = %s; want Quantity", typ, got)
		}
	}
}

func TestPrimitiveDefaultsToString(t *testing.T) {
	typ := Define(KindPrimitive, "code")
	if typ.Value() != ValueString {
		t.Errorf("Value() = %v; want string", typ.Value())
	}
	b := Define(KindPrimitive, "boolean", WithValue(ValueBoolean))
	if b.Value() != ValueBoolean {
		t.Errorf("Value() = %v; want boolean", b.Value())
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	str := Define(KindPrimitive, "string")
	ext := Define(KindDataType, "Extension", WithFields(Required("url", "string")))
	note := Define(KindDataType, "Note", WithFields(Optional("text", "string")))

	if err := r.Register(str, ext, note); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := r.Register(Define(KindPrimitive, "string")); !errors.Is(err, ErrDuplicateType) {
		t.Errorf("Register() duplicate error = %v; want ErrDuplicateType", err)
	}
	if r.Len() != 3 {
		t.Errorf("Len() = %d; want 3", r.Len())
	}

	got, ok := r.Lookup("Note")
	if !ok || got != note {
		t.Errorf("Lookup(Note) = %v, %v", got, ok)
	}
	if _, ok := r.Lookup("Missing"); ok {
		t.Error("Lookup(Missing) should fail")
	}

	types := r.Types()
	if len(types) != 3 || types[0] != str || types[2] != note {
		t.Errorf("Types() order = %v", types)
	}

	cons, ok := r.Constraints("Note")
	if !ok || len(cons) != 1 || cons[0].ID != "ele-1" {
		t.Errorf("Constraints(Note) = %v, %v", cons, ok)
	}

	if err := r.Resolve(); err != nil {
		t.Errorf("Resolve() error = %v", err)
	}
}

func TestRegistry_ResolveReportsMissingTypes(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(Define(KindDataType, "Holder", WithFields(
		Optional("a", "Missing"),
		List("contained", ResourceName),
	)))

	err := r.Resolve()
	if !errors.Is(err, ErrUnresolvedType) {
		t.Fatalf("Resolve() error = %v; want ErrUnresolvedType", err)
	}
}

func TestRegistry_KeepsNonCompilingConstraints(t *testing.T) {
	r := NewRegistry()
	typ := Define(KindDataType, "Odd", WithConstraints(constraint.Constraint{ID: "odd-1", Expression: "where("}))
	if err := r.Register(typ); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	cons, _ := r.Constraints("Odd")
	if len(cons) != 2 {
		t.Errorf("Constraints() = %d; want 2", len(cons))
	}
}
