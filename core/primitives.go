package core

import "github.com/gofhir/model/schema"

const fhirBase = "http://hl7.org/fhir/StructureDefinition/"

func primitive(name string, v schema.ValueKind) *schema.Type {
	return schema.Define(schema.KindPrimitive, name, schema.WithValue(v), schema.WithURL(fhirBase+name))
}

// Primitive types.
var (
	BooleanType      = primitive("boolean", schema.ValueBoolean)
	IntegerType      = primitive("integer", schema.ValueInteger)
	PositiveIntType  = primitive("positiveInt", schema.ValueInteger)
	UnsignedIntType  = primitive("unsignedInt", schema.ValueInteger)
	DecimalType      = primitive("decimal", schema.ValueDecimal)
	StringType       = primitive("string", schema.ValueString)
	CodeType         = primitive("code", schema.ValueString)
	IDType           = primitive("id", schema.ValueString)
	URIType          = primitive("uri", schema.ValueString)
	URLType          = primitive("url", schema.ValueString)
	CanonicalType    = primitive("canonical", schema.ValueString)
	MarkdownType     = primitive("markdown", schema.ValueString)
	OIDType          = primitive("oid", schema.ValueString)
	UUIDType         = primitive("uuid", schema.ValueString)
	Base64BinaryType = primitive("base64Binary", schema.ValueString)
	DateType         = primitive("date", schema.ValueString)
	DateTimeType     = primitive("dateTime", schema.ValueString)
	InstantType      = primitive("instant", schema.ValueString)
	TimeType         = primitive("time", schema.ValueString)
	XHTMLType        = primitive("xhtml", schema.ValueString)
)

var primitives = []*schema.Type{
	BooleanType, IntegerType, PositiveIntType, UnsignedIntType, DecimalType,
	StringType, CodeType, IDType, URIType, URLType, CanonicalType, MarkdownType,
	OIDType, UUIDType, Base64BinaryType, DateType, DateTimeType, InstantType,
	TimeType, XHTMLType,
}
