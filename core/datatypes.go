package core

import (
	"github.com/gofhir/model/constraint"
	"github.com/gofhir/model/schema"
)

func rule(id, location, description, expression, typ string) constraint.Constraint {
	return constraint.Constraint{
		ID:          id,
		Level:       constraint.Rule,
		Location:    location,
		Description: description,
		Expression:  expression,
		Source:      fhirBase + typ,
	}
}

func dataType(name string, opts ...schema.Option) *schema.Type {
	return schema.Define(schema.KindDataType, name, append(opts, schema.WithURL(fhirBase+name))...)
}

// extensionValueTypes are the value[x] types of Extension this package
// declares.
var extensionValueTypes = []string{
	"base64Binary", "boolean", "canonical", "code", "date", "dateTime", "decimal",
	"id", "instant", "integer", "markdown", "oid", "positiveInt", "string", "time",
	"unsignedInt", "uri", "url", "uuid",
	"Annotation", "CodeableConcept", "Coding", "Identifier", "Period", "Quantity",
	"Range", "Ratio", "Reference", "Meta",
}

// Data types.
var (
	Extension = dataType("Extension",
		schema.WithFields(
			schema.Required("url", "uri"),
			schema.OptionalChoice("value", extensionValueTypes...),
		),
		schema.WithConstraints(
			rule("ext-1", "Extension", "Must have either extensions or value[x], not both",
				"extension.exists() != value.exists()", "Extension"),
		),
	)

	Coding = dataType("Coding",
		schema.WithFields(
			schema.Optional("system", "uri").InSummary(),
			schema.Optional("version", "string").InSummary(),
			schema.Optional("code", "code").InSummary(),
			schema.Optional("display", "string").InSummary(),
			schema.Optional("userSelected", "boolean").InSummary(),
		),
	)

	CodeableConcept = dataType("CodeableConcept",
		schema.WithFields(
			schema.List("coding", "Coding").InSummary(),
			schema.Optional("text", "string").InSummary(),
		),
	)

	Quantity = dataType("Quantity",
		schema.WithFields(
			schema.Optional("value", "decimal").InSummary(),
			schema.Optional("comparator", "code").AsModifier().InSummary(),
			schema.Optional("unit", "string").InSummary(),
			schema.Optional("system", "uri").InSummary(),
			schema.Optional("code", "code").InSummary(),
		),
		schema.WithConstraints(
			rule("qty-3", "Quantity", "If a code for the unit is present, the system SHALL also be present",
				"code.empty() or system.exists()", "Quantity"),
		),
	)

	SimpleQuantity = schema.Define(schema.KindDataType, "SimpleQuantity",
		schema.DerivedFrom(Quantity),
		schema.WithURL(fhirBase+"SimpleQuantity"),
		schema.WithConstraints(
			rule("sqty-1", "SimpleQuantity", "The comparator is not used on a SimpleQuantity",
				"comparator.empty()", "SimpleQuantity"),
		),
	)

	Range = dataType("Range",
		schema.WithFields(
			schema.Optional("low", "SimpleQuantity").InSummary(),
			schema.Optional("high", "SimpleQuantity").InSummary(),
		),
		schema.WithConstraints(
			rule("rng-2", "Range", "If present, low SHALL have a lower value than high",
				"low.empty() or high.empty() or (low <= high)", "Range"),
		),
	)

	Ratio = dataType("Ratio",
		schema.WithFields(
			schema.Optional("numerator", "Quantity").InSummary(),
			schema.Optional("denominator", "Quantity").InSummary(),
		),
		schema.WithConstraints(
			rule("rat-1", "Ratio", "Numerator and denominator SHALL both be present, or both are absent. If both are absent, there SHALL be some extension present",
				"(numerator.empty() xor denominator.exists()) and (numerator.exists() or extension.exists())", "Ratio"),
		),
	)

	Period = dataType("Period",
		schema.WithFields(
			schema.Optional("start", "dateTime").InSummary(),
			schema.Optional("end", "dateTime").InSummary(),
		),
		schema.WithConstraints(
			rule("per-1", "Period", "If present, start SHALL have a lower value than end",
				"start.hasValue().not() or end.hasValue().not() or (start <= end)", "Period"),
		),
	)

	Reference = dataType("Reference",
		schema.WithFields(
			schema.Optional("reference", "string").InSummary(),
			schema.Optional("type", "uri").InSummary(),
			schema.Optional("identifier", "Identifier").InSummary(),
			schema.Optional("display", "string").InSummary(),
		),
	)

	Identifier = dataType("Identifier",
		schema.WithFields(
			schema.Optional("use", "code").AsModifier().InSummary(),
			schema.Optional("type", "CodeableConcept").InSummary(),
			schema.Optional("system", "uri").InSummary(),
			schema.Optional("value", "string").InSummary(),
			schema.Optional("period", "Period").InSummary(),
			schema.Optional("assigner", "Reference").RefersTo("Organization").InSummary(),
		),
	)

	Annotation = dataType("Annotation",
		schema.WithFields(
			schema.OptionalChoice("author", "Reference", "string").
				RefersTo("Practitioner", "Patient", "RelatedPerson", "Organization").InSummary(),
			schema.Optional("time", "dateTime").InSummary(),
			schema.Required("text", "markdown").InSummary(),
		),
	)

	Narrative = dataType("Narrative",
		schema.WithFields(
			schema.Required("status", "code"),
			schema.Required("div", "xhtml"),
		),
	)

	Meta = dataType("Meta",
		schema.WithFields(
			schema.Optional("versionId", "id").InSummary(),
			schema.Optional("lastUpdated", "instant").InSummary(),
			schema.Optional("source", "uri").InSummary(),
			schema.List("profile", "canonical").InSummary(),
			schema.List("security", "Coding").InSummary(),
			schema.List("tag", "Coding").InSummary(),
		),
	)
)

var dataTypes = []*schema.Type{
	Extension, Coding, CodeableConcept, Quantity, SimpleQuantity, Range, Ratio,
	Period, Reference, Identifier, Annotation, Narrative, Meta,
}
