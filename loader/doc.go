// Package loader turns FHIR StructureDefinitions into schema declarations.
//
// A StructureDefinition snapshot is flattened into one schema.Type for the
// root path plus one backbone type per nested element group, named after
// the owning type and field ("RiskAssessment" + "prediction" gives
// "RiskAssessmentPrediction"). Element constraints become declarations on
// the owning type with their location set to the element path.
//
//	types, err := loader.LoadFile("StructureDefinition-RiskAssessment.json")
//	if err != nil {
//		return err
//	}
//	reg := schema.NewRegistry()
//	for _, t := range types {
//		reg.MustRegister(t)
//	}
package loader
