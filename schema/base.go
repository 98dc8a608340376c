package schema

import "github.com/gofhir/model/constraint"

const (
	elementURL        = "http://hl7.org/fhir/StructureDefinition/Element"
	domainResourceURL = "http://hl7.org/fhir/StructureDefinition/DomainResource"
)

// baseFields returns the fields every type of the kind inherits, in FHIR
// order. The element id and resource id are node attributes, not fields.
func baseFields(kind Kind) []Field {
	switch kind {
	case KindPrimitive, KindDataType:
		return []Field{
			List("extension", "Extension"),
		}
	case KindBackbone:
		return []Field{
			List("extension", "Extension"),
			List("modifierExtension", "Extension").AsModifier().InSummary(),
		}
	case KindResource:
		return resourceFields()
	case KindDomainResource:
		return append(resourceFields(),
			Optional("text", "Narrative"),
			List("contained", ResourceName),
			List("extension", "Extension"),
			List("modifierExtension", "Extension").AsModifier(),
		)
	}
	return nil
}

func resourceFields() []Field {
	return []Field{
		Optional("meta", "Meta").InSummary(),
		Optional("implicitRules", "uri").AsModifier().InSummary(),
		Optional("language", "code"),
	}
}

// EleOne is the value-or-children invariant declared on every element.
var EleOne = constraint.Constraint{
	ID:          "ele-1",
	Level:       constraint.Rule,
	Description: "All FHIR elements must have a @value or children",
	Expression:  "hasValue() or (children().count() > id.count())",
	Source:      elementURL,
}

// domainResourceConstraints are declared on every DomainResource.
var domainResourceConstraints = []constraint.Constraint{
	{
		ID:          "dom-2",
		Level:       constraint.Rule,
		Description: "If the resource is contained in another resource, it SHALL NOT contain nested Resources",
		Expression:  "contained.contained.empty()",
		Source:      domainResourceURL,
	},
	{
		ID:          "dom-3",
		Level:       constraint.Rule,
		Description: "If the resource is contained in another resource, it SHALL be referred to from elsewhere in the resource or SHALL refer to the containing resource",
		Expression:  "contained.where((('#'+id in (%resource.descendants().reference | %resource.descendants().as(canonical) | %resource.descendants().as(uri) | %resource.descendants().as(url))) or descendants().where(reference = '#').exists() or descendants().where(as(canonical) = '#').exists() or descendants().where(as(uri) = '#').exists()).not()).trace('unmatched', id).empty()",
		Source:      domainResourceURL,
	},
	{
		ID:          "dom-4",
		Level:       constraint.Rule,
		Description: "If a resource is contained in another resource, it SHALL NOT have a meta.versionId or a meta.lastUpdated",
		Expression:  "contained.meta.versionId.empty() and contained.meta.lastUpdated.empty()",
		Source:      domainResourceURL,
	},
	{
		ID:          "dom-5",
		Level:       constraint.Rule,
		Description: "If a resource is contained in another resource, it SHALL NOT have a security label",
		Expression:  "contained.meta.security.empty()",
		Source:      domainResourceURL,
	},
	{
		ID:          "dom-6",
		Level:       constraint.Warning,
		Description: "A resource should have narrative for robust management",
		Expression:  "text.`div`.exists()",
		Source:      domainResourceURL,
	},
}

func baseConstraints(kind Kind) []constraint.Constraint {
	switch kind {
	case KindPrimitive, KindDataType, KindBackbone:
		return []constraint.Constraint{EleOne}
	case KindDomainResource:
		out := make([]constraint.Constraint, len(domainResourceConstraints))
		copy(out, domainResourceConstraints)
		return out
	}
	return nil
}
