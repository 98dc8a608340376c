package core

import "github.com/gofhir/model/schema"

// Backbone elements.
var (
	RiskAssessmentPrediction = schema.Define(schema.KindBackbone, "RiskAssessmentPrediction",
		schema.WithFields(
			schema.Optional("outcome", "CodeableConcept"),
			schema.OptionalChoice("probability", "decimal", "Range"),
			schema.Optional("qualitativeRisk", "CodeableConcept"),
			schema.Optional("relativeRisk", "decimal"),
			schema.OptionalChoice("when", "Period", "Range"),
			schema.Optional("rationale", "string"),
		),
	)
)

// Resources.
var (
	Binary = schema.Define(schema.KindResource, "Binary",
		schema.WithURL(fhirBase+"Binary"),
		schema.WithFields(
			schema.Required("contentType", "code").InSummary(),
			schema.Optional("securityContext", "Reference").RefersTo(schema.ResourceName).InSummary(),
			schema.Optional("data", "base64Binary"),
		),
	)

	Patient = schema.Define(schema.KindDomainResource, "Patient",
		schema.WithURL(fhirBase+"Patient"),
		schema.WithFields(
			schema.List("identifier", "Identifier").InSummary(),
			schema.Optional("active", "boolean").AsModifier().InSummary(),
			schema.Optional("gender", "code").InSummary(),
			schema.Optional("birthDate", "date").InSummary(),
			schema.OptionalChoice("deceased", "boolean", "dateTime").AsModifier().InSummary(),
			schema.List("generalPractitioner", "Reference").RefersTo("Organization", "Practitioner", "PractitionerRole"),
			schema.Optional("managingOrganization", "Reference").RefersTo("Organization").InSummary(),
		),
	)

	ServiceRequest = schema.Define(schema.KindDomainResource, "ServiceRequest",
		schema.WithURL(fhirBase+"ServiceRequest"),
		schema.WithFields(
			schema.List("identifier", "Identifier").InSummary(),
			schema.List("instantiatesCanonical", "canonical").InSummary(),
			schema.List("basedOn", "Reference").RefersTo("CarePlan", "ServiceRequest", "MedicationRequest").InSummary(),
			schema.Required("status", "code").AsModifier().InSummary(),
			schema.Required("intent", "code").AsModifier().InSummary(),
			schema.List("category", "CodeableConcept").InSummary(),
			schema.Optional("priority", "code").InSummary(),
			schema.Optional("doNotPerform", "boolean").AsModifier().InSummary(),
			schema.Optional("code", "CodeableConcept").InSummary(),
			schema.List("orderDetail", "CodeableConcept").InSummary(),
			schema.OptionalChoice("quantity", "Quantity", "Ratio", "Range").InSummary(),
			schema.Required("subject", "Reference").RefersTo("Patient", "Group", "Location", "Device").InSummary(),
			schema.Optional("encounter", "Reference").RefersTo("Encounter").InSummary(),
			schema.OptionalChoice("occurrence", "dateTime", "Period").InSummary(),
			schema.Optional("authoredOn", "dateTime").InSummary(),
			schema.Optional("requester", "Reference").
				RefersTo("Practitioner", "PractitionerRole", "Organization", "Patient", "RelatedPerson", "Device").InSummary(),
			schema.List("reasonCode", "CodeableConcept").InSummary(),
			schema.List("note", "Annotation"),
			schema.Optional("patientInstruction", "string"),
		),
		schema.WithConstraints(
			rule("prr-1", "ServiceRequest", "orderDetail SHALL only be present if code is present",
				"orderDetail.empty() or code.exists()", "ServiceRequest"),
		),
	)

	RiskAssessment = schema.Define(schema.KindDomainResource, "RiskAssessment",
		schema.WithURL(fhirBase+"RiskAssessment"),
		schema.WithFields(
			schema.List("identifier", "Identifier").InSummary(),
			schema.Optional("basedOn", "Reference").RefersTo(schema.ResourceName),
			schema.Optional("parent", "Reference").RefersTo(schema.ResourceName),
			schema.Required("status", "code").AsModifier().InSummary(),
			schema.Optional("method", "CodeableConcept").InSummary(),
			schema.Optional("code", "CodeableConcept").InSummary(),
			schema.Required("subject", "Reference").RefersTo("Patient", "Group").InSummary(),
			schema.Optional("encounter", "Reference").RefersTo("Encounter").InSummary(),
			schema.OptionalChoice("occurrence", "dateTime", "Period").InSummary(),
			schema.Optional("condition", "Reference").RefersTo("Condition").InSummary(),
			schema.Optional("performer", "Reference").RefersTo("Practitioner", "PractitionerRole", "Device").InSummary(),
			schema.List("reasonCode", "CodeableConcept"),
			schema.List("basis", "Reference").RefersTo(schema.ResourceName),
			schema.List("prediction", "RiskAssessmentPrediction"),
			schema.Optional("mitigation", "string"),
			schema.List("note", "Annotation"),
		),
		schema.WithConstraints(
			rule("ras-1", "RiskAssessment.prediction", "low and high must be percentages, if present",
				"probability is Range implies (probability.low.empty() or ((probability.low.code = '%') and (probability.low.system = %ucum))) and (probability.high.empty() or ((probability.high.code = '%') and (probability.high.system = %ucum)))",
				"RiskAssessment"),
			rule("ras-2", "RiskAssessment.prediction", "Must be <= 100",
				"probability is decimal implies (probability as decimal) <= 100", "RiskAssessment"),
		),
	)
)

var backbones = []*schema.Type{RiskAssessmentPrediction}

var resources = []*schema.Type{Binary, Patient, ServiceRequest, RiskAssessment}
