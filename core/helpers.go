package core

import (
	"github.com/google/uuid"

	"github.com/gofhir/model/model"
	"github.com/gofhir/model/schema"
)

// The helpers below build small elements and panic on invalid input. They
// are meant for literals in code and tests; use model.NewBuilder to handle
// errors.

func prim(t *schema.Type, v model.Value) *model.Element {
	return model.NewBuilder(t).Value(v).MustBuild()
}

// String returns a string primitive.
func String(s string) *model.Element { return prim(StringType, model.StringValue(s)) }

// Code returns a code primitive.
func Code(s string) *model.Element { return prim(CodeType, model.StringValue(s)) }

// URI returns a uri primitive.
func URI(s string) *model.Element { return prim(URIType, model.StringValue(s)) }

// DateTime returns a dateTime primitive.
func DateTime(s string) *model.Element { return prim(DateTimeType, model.StringValue(s)) }

// Markdown returns a markdown primitive.
func Markdown(s string) *model.Element { return prim(MarkdownType, model.StringValue(s)) }

// Boolean returns a boolean primitive.
func Boolean(b bool) *model.Element { return prim(BooleanType, model.BoolValue(b)) }

// Integer returns an integer primitive.
func Integer(n int64) *model.Element { return prim(IntegerType, model.IntValue(n)) }

// Decimal returns a decimal primitive from its lexical form.
func Decimal(s string) *model.Element {
	d, err := model.ParseDecimal(s)
	if err != nil {
		panic("core: decimal " + s + ": " + err.Error())
	}
	return prim(DecimalType, d)
}

// NewUUID returns a uuid primitive holding a fresh random urn:uuid.
func NewUUID() *model.Element {
	return prim(UUIDType, model.StringValue("urn:uuid:"+uuid.NewString()))
}

// Ref returns a Reference with the given literal reference.
func Ref(reference string) *model.Element {
	return model.NewBuilder(Reference).Set("reference", String(reference)).MustBuild()
}

// Concept returns a CodeableConcept with a single coding.
func Concept(system, code, display string) *model.Element {
	c := model.NewBuilder(Coding).Set("system", URI(system)).Set("code", Code(code))
	if display != "" {
		c.Set("display", String(display))
	}
	return model.NewBuilder(CodeableConcept).Append("coding", c.MustBuild()).MustBuild()
}

// Qty returns a Quantity with a value and a UCUM unit code.
func Qty(value, unit string) *model.Element {
	return quantity(Quantity, value, unit)
}

// SimpleQty is like Qty for SimpleQuantity, the type of Range bounds.
func SimpleQty(value, unit string) *model.Element {
	return quantity(SimpleQuantity, value, unit)
}

func quantity(t *schema.Type, value, unit string) *model.Element {
	return model.NewBuilder(t).
		Set("value", Decimal(value)).
		Set("unit", String(unit)).
		Set("system", URI(UCUM)).
		Set("code", Code(unit)).
		MustBuild()
}

// Note returns an Annotation with markdown text.
func Note(text string) *model.Element {
	return model.NewBuilder(Annotation, model.Seed("text", Markdown(text))).MustBuild()
}

// UCUM is the code system of units of measure.
const UCUM = "http://unitsofmeasure.org"
