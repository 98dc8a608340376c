// Package fhirmodel is the structural core of a generated FHIR model.
//
// Every FHIR resource and data type is an immutable tree of elements. The
// shapes of those trees (field names, order, cardinality and choice types)
// are declared as data, so one builder, one traversal and one set of
// structural checks serve every type.
//
// # Quick Start
//
//	import (
//	    "github.com/gofhir/model/core"
//	    "github.com/gofhir/model/model"
//	)
//
//	req, err := model.NewBuilder(core.ServiceRequest,
//	    model.Seed("status", core.Code("active")),
//	    model.Seed("intent", core.Code("order")),
//	    model.Seed("subject", core.Ref("Patient/123")),
//	).
//	    Set("quantity", ratio).
//	    Append("note", note1, note2).
//	    Build()
//	if err != nil {
//	    var be *model.BuildError
//	    if errors.As(err, &be) {
//	        fmt.Println(be.First().Path)
//	    }
//	}
//
// # Packages
//
//   - schema: type and field descriptors, the closed registry of shapes
//   - model: elements, builders, structural validation and the visitor protocol
//   - constraint: declared business-rule invariants
//   - core: the declared R4 shapes
//   - loader: converts StructureDefinitions into schema types
//   - validator: evaluates declared constraints through a pluggable engine
//
// # Options
//
// Construction checks and constraint evaluation are configured with
// functional options. Process-wide defaults can be replaced with SetDefaults:
//
//	fhirmodel.SetDefaults(
//	    fhirmodel.WithReferenceTypeCheck(false),
//	    fhirmodel.WithWorkerCount(4),
//	)
package fhirmodel
