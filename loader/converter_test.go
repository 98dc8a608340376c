package loader

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofhir/fhir/r4"

	"github.com/gofhir/model/core"
	"github.com/gofhir/model/model"
	"github.com/gofhir/model/pkg/logger"
	"github.com/gofhir/model/schema"
)

func init() {
	logger.Disable()
}

func ptr[T any](v T) *T { return &v }

const riskAssessmentJSON = `{
  "resourceType": "StructureDefinition",
  "url": "http://hl7.org/fhir/StructureDefinition/RiskAssessment",
  "name": "RiskAssessment",
  "kind": "resource",
  "abstract": false,
  "type": "RiskAssessment",
  "baseDefinition": "http://hl7.org/fhir/StructureDefinition/DomainResource",
  "snapshot": {
    "element": [
      {
        "id": "RiskAssessment",
        "path": "RiskAssessment",
        "min": 0,
        "max": "*",
        "constraint": [
          {
            "key": "dom-2",
            "severity": "error",
            "human": "If the resource is contained in another resource, it SHALL NOT contain nested Resources",
            "expression": "contained.contained.empty()",
            "source": "http://hl7.org/fhir/StructureDefinition/DomainResource"
          }
        ]
      },
      {"id": "RiskAssessment.id", "path": "RiskAssessment.id", "min": 0, "max": "1", "type": [{"code": "http://hl7.org/fhirpath/System.String"}]},
      {"id": "RiskAssessment.meta", "path": "RiskAssessment.meta", "min": 0, "max": "1", "type": [{"code": "Meta"}]},
      {"id": "RiskAssessment.text", "path": "RiskAssessment.text", "min": 0, "max": "1", "type": [{"code": "Narrative"}]},
      {"id": "RiskAssessment.extension", "path": "RiskAssessment.extension", "min": 0, "max": "*", "type": [{"code": "Extension"}]},
      {
        "id": "RiskAssessment.status",
        "path": "RiskAssessment.status",
        "min": 1,
        "max": "1",
        "type": [{"code": "code"}],
        "isModifier": true,
        "isSummary": true
      },
      {
        "id": "RiskAssessment.subject",
        "path": "RiskAssessment.subject",
        "min": 1,
        "max": "1",
        "type": [{
          "code": "Reference",
          "targetProfile": [
            "http://hl7.org/fhir/StructureDefinition/Patient",
            "http://hl7.org/fhir/StructureDefinition/Group"
          ]
        }]
      },
      {
        "id": "RiskAssessment.prediction",
        "path": "RiskAssessment.prediction",
        "min": 0,
        "max": "*",
        "type": [{"code": "BackboneElement"}],
        "constraint": [
          {
            "key": "ele-1",
            "severity": "error",
            "human": "All FHIR elements must have a @value or children",
            "expression": "hasValue() or (children().count() > id.count())",
            "source": "http://hl7.org/fhir/StructureDefinition/Element"
          },
          {
            "key": "ras-2",
            "severity": "error",
            "human": "Must be <= 100",
            "expression": "probability is decimal implies (probability as decimal) <= 100"
          }
        ]
      },
      {"id": "RiskAssessment.prediction.id", "path": "RiskAssessment.prediction.id", "min": 0, "max": "1", "type": [{"code": "http://hl7.org/fhirpath/System.String"}]},
      {"id": "RiskAssessment.prediction.extension", "path": "RiskAssessment.prediction.extension", "min": 0, "max": "*", "type": [{"code": "Extension"}]},
      {"id": "RiskAssessment.prediction.outcome", "path": "RiskAssessment.prediction.outcome", "min": 0, "max": "1", "type": [{"code": "CodeableConcept"}]},
      {
        "id": "RiskAssessment.prediction.probability[x]",
        "path": "RiskAssessment.prediction.probability[x]",
        "min": 0,
        "max": "1",
        "type": [{"code": "decimal"}, {"code": "Range"}]
      },
      {"id": "RiskAssessment.note", "path": "RiskAssessment.note", "min": 0, "max": "*", "type": [{"code": "Annotation"}]}
    ]
  }
}`

func TestLoadJSON_RiskAssessment(t *testing.T) {
	types, err := LoadJSON([]byte(riskAssessmentJSON))
	if err != nil {
		t.Fatalf("LoadJSON() error = %v", err)
	}
	if len(types) != 2 {
		t.Fatalf("got %d types; want 2", len(types))
	}
	pred, ra := types[0], types[1]

	if ra.Name() != "RiskAssessment" || ra.Kind() != schema.KindDomainResource {
		t.Errorf("root = %s %s", ra.Kind(), ra.Name())
	}
	if ra.URL() != "http://hl7.org/fhir/StructureDefinition/RiskAssessment" {
		t.Errorf("URL() = %q", ra.URL())
	}

	status, ok := ra.Field("status")
	if !ok || !status.Required() || !status.Modifier || !status.Summary {
		t.Errorf("status = %+v", status)
	}
	subject, _ := ra.Field("subject")
	if strings.Join(subject.Targets, ",") != "Patient,Group" {
		t.Errorf("subject targets = %v", subject.Targets)
	}
	prediction, _ := ra.Field("prediction")
	if prediction.Type() != "RiskAssessmentPrediction" || !prediction.Repeated() {
		t.Errorf("prediction = %+v", prediction)
	}
	note, _ := ra.Field("note")
	if note.Type() != "Annotation" || note.Max != schema.Unbounded {
		t.Errorf("note = %+v", note)
	}

	// base fields are composed once
	count := 0
	for _, f := range ra.Fields() {
		if f.Name == "extension" || f.Name == "text" {
			count++
		}
	}
	if count != 2 {
		t.Errorf("base fields duplicated: %d", count)
	}

	if pred.Kind() != schema.KindBackbone || pred.Name() != "RiskAssessmentPrediction" {
		t.Errorf("backbone = %s %s", pred.Kind(), pred.Name())
	}
	if pred.NumFields() != 4 {
		t.Errorf("backbone fields = %d; want 4", pred.NumFields())
	}
	prob, ok := pred.Field("probability")
	if !ok || !prob.Choice || strings.Join(prob.Types, ",") != "decimal,Range" {
		t.Errorf("probability = %+v", prob)
	}
}

func TestLoadJSON_Constraints(t *testing.T) {
	types, err := LoadJSON([]byte(riskAssessmentJSON))
	if err != nil {
		t.Fatalf("LoadJSON() error = %v", err)
	}
	ra := types[1]

	ids := map[string]int{}
	var ras2 string
	for _, c := range ra.Constraints() {
		ids[c.ID]++
		if c.ID == "ras-2" {
			ras2 = c.Location
			if c.Source != ra.URL() {
				t.Errorf("ras-2 source = %q", c.Source)
			}
		}
	}
	if ids["dom-2"] != 1 {
		t.Errorf("dom-2 declared %d times", ids["dom-2"])
	}
	if ids["ele-1"] != 0 {
		t.Error("ele-1 should not be declared on a domain resource")
	}
	if ras2 != "RiskAssessment.prediction" {
		t.Errorf("ras-2 location = %q", ras2)
	}

	pred := types[0]
	ele := 0
	for _, c := range pred.Constraints() {
		if c.ID == "ele-1" {
			ele++
		}
	}
	if ele != 1 {
		t.Errorf("backbone ele-1 declared %d times", ele)
	}
}

func TestLoadJSON_BuildInstances(t *testing.T) {
	types, err := LoadJSON([]byte(riskAssessmentJSON))
	if err != nil {
		t.Fatalf("LoadJSON() error = %v", err)
	}

	reg := schema.NewRegistry()
	for _, ct := range core.Types() {
		if ct.Name() != "RiskAssessment" && ct.Name() != "RiskAssessmentPrediction" {
			reg.MustRegister(ct)
		}
	}
	reg.MustRegister(types...)
	if err := reg.Resolve(); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	pred := model.NewBuilder(types[0]).Set("probability", core.Decimal("0.2")).MustBuild()
	_, err = model.NewBuilder(types[1]).
		Set("status", core.Code("final")).
		Set("subject", core.Ref("Patient/1")).
		Append("prediction", pred).
		Build()
	if err != nil {
		t.Errorf("Build() error = %v", err)
	}

	_, err = model.NewBuilder(types[1]).Set("status", core.Code("final")).Build()
	if !errors.Is(err, model.ErrMissingRequiredField) {
		t.Errorf("Build() error = %v; want ErrMissingRequiredField", err)
	}
}

func TestR4Converter_Kinds(t *testing.T) {
	converter := NewR4Converter()

	tests := []struct {
		name     string
		sd       *r4.StructureDefinition
		wantName string
		wantKind schema.Kind
		value    schema.ValueKind
	}{
		{
			name: "primitive",
			sd: &r4.StructureDefinition{
				Url:  ptr(fhirBase + "positiveInt"),
				Name: ptr("positiveInt"),
				Type: ptr("positiveInt"),
				Kind: ptr(r4.StructureDefinitionKind("primitive-type")),
				Snapshot: &r4.StructureDefinitionSnapshot{Element: []r4.ElementDefinition{
					{Path: ptr("positiveInt")},
					{Path: ptr("positiveInt.id"), Max: ptr("1"), Type: []r4.ElementDefinitionType{{Code: ptr(systemTypePrefix + "String")}}},
					{Path: ptr("positiveInt.extension"), Max: ptr("*"), Type: []r4.ElementDefinitionType{{Code: ptr("Extension")}}},
					{Path: ptr("positiveInt.value"), Max: ptr("1"), Type: []r4.ElementDefinitionType{{Code: ptr(systemTypePrefix + "Integer")}}},
				}},
			},
			wantName: "positiveInt",
			wantKind: schema.KindPrimitive,
			value:    schema.ValueInteger,
		},
		{
			name: "resource without narrative",
			sd: &r4.StructureDefinition{
				Url:            ptr(fhirBase + "Parameters"),
				Type:           ptr("Parameters"),
				Kind:           ptr(r4.StructureDefinitionKindResource),
				BaseDefinition: ptr(fhirBase + "Resource"),
				Snapshot:       &r4.StructureDefinitionSnapshot{Element: []r4.ElementDefinition{{Path: ptr("Parameters")}}},
			},
			wantName: "Parameters",
			wantKind: schema.KindResource,
		},
		{
			name: "profile",
			sd: &r4.StructureDefinition{
				Url:            ptr("http://example.org/StructureDefinition/TestPatient"),
				Name:           ptr("TestPatient"),
				Type:           ptr("Patient"),
				Kind:           ptr(r4.StructureDefinitionKindResource),
				BaseDefinition: ptr(fhirBase + "Patient"),
				Differential: &r4.StructureDefinitionDifferential{Element: []r4.ElementDefinition{
					{Path: ptr("Patient")},
					{Path: ptr("Patient.active"), Min: ptr(uint32(1)), Max: ptr("1"), Type: []r4.ElementDefinitionType{{Code: ptr("boolean")}}},
				}},
			},
			wantName: "TestPatient",
			wantKind: schema.KindDomainResource,
		},
		{
			name: "complex type",
			sd: &r4.StructureDefinition{
				Url:      ptr(fhirBase + "Money"),
				Type:     ptr("Money"),
				Kind:     ptr(r4.StructureDefinitionKind("complex-type")),
				Abstract: ptr(false),
				Snapshot: &r4.StructureDefinitionSnapshot{Element: []r4.ElementDefinition{
					{Path: ptr("Money")},
					{Path: ptr("Money.value"), Max: ptr("1"), Type: []r4.ElementDefinitionType{{Code: ptr("decimal")}}},
					{Path: ptr("Money.currency"), Max: ptr("1"), Type: []r4.ElementDefinitionType{{Code: ptr("code")}}},
				}},
			},
			wantName: "Money",
			wantKind: schema.KindDataType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			typ, err := converter.ConvertStructureDefinition(tt.sd)
			if err != nil {
				t.Fatalf("ConvertStructureDefinition() error = %v", err)
			}
			if typ.Name() != tt.wantName || typ.Kind() != tt.wantKind {
				t.Errorf("got %s %s; want %s %s", typ.Kind(), typ.Name(), tt.wantKind, tt.wantName)
			}
			if tt.wantKind == schema.KindPrimitive {
				if typ.Value() != tt.value {
					t.Errorf("Value() = %s; want %s", typ.Value(), tt.value)
				}
				if typ.NumFields() != 1 {
					t.Errorf("primitive fields = %v", typ.Fields())
				}
			}
		})
	}
}

func TestR4Converter_ContentReference(t *testing.T) {
	sd := &r4.StructureDefinition{
		Url:            ptr(fhirBase + "Questionnaire"),
		Type:           ptr("Questionnaire"),
		Kind:           ptr(r4.StructureDefinitionKindResource),
		BaseDefinition: ptr(fhirBase + "DomainResource"),
		Snapshot: &r4.StructureDefinitionSnapshot{Element: []r4.ElementDefinition{
			{Path: ptr("Questionnaire")},
			{Path: ptr("Questionnaire.item"), Max: ptr("*"), Type: []r4.ElementDefinitionType{{Code: ptr("BackboneElement")}}},
			{Path: ptr("Questionnaire.item.linkId"), Min: ptr(uint32(1)), Max: ptr("1"), Type: []r4.ElementDefinitionType{{Code: ptr("string")}}},
			{Path: ptr("Questionnaire.item.item"), Max: ptr("*"), ContentReference: ptr("#Questionnaire.item")},
		}},
	}

	types, err := NewR4Converter().Convert(sd)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	item := types[0]
	if item.Name() != "QuestionnaireItem" {
		t.Fatalf("backbone = %s", item.Name())
	}
	nested, ok := item.Field("item")
	if !ok || nested.Type() != "QuestionnaireItem" || !nested.Repeated() {
		t.Errorf("item.item = %+v", nested)
	}
}

func TestR4Converter_Errors(t *testing.T) {
	converter := NewR4Converter()

	tests := []struct {
		name string
		sd   *r4.StructureDefinition
		want error
	}{
		{"nil", nil, ErrNilDefinition},
		{"no elements", &r4.StructureDefinition{Url: ptr("x"), Kind: ptr(r4.StructureDefinitionKindResource)}, ErrNoElements},
		{
			"logical model",
			&r4.StructureDefinition{
				Kind:     ptr(r4.StructureDefinitionKind("logical")),
				Snapshot: &r4.StructureDefinitionSnapshot{Element: []r4.ElementDefinition{{Path: ptr("X")}}},
			},
			ErrUnsupportedKind,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := converter.Convert(tt.sd)
			if !errors.Is(err, tt.want) {
				t.Errorf("Convert() error = %v; want %v", err, tt.want)
			}
		})
	}

	t.Run("bad max", func(t *testing.T) {
		sd := &r4.StructureDefinition{
			Type: ptr("Money"),
			Kind: ptr(r4.StructureDefinitionKind("complex-type")),
			Snapshot: &r4.StructureDefinitionSnapshot{Element: []r4.ElementDefinition{
				{Path: ptr("Money")},
				{Path: ptr("Money.value"), Max: ptr("many"), Type: []r4.ElementDefinitionType{{Code: ptr("decimal")}}},
			}},
		}
		if _, err := converter.Convert(sd); err == nil {
			t.Error("expected error for invalid max")
		}
	})
}

func TestLoadJSON_Formats(t *testing.T) {
	bundle := `{"resourceType": "Bundle", "entry": [
		{"resource": ` + riskAssessmentJSON + `},
		{"resource": {"resourceType": "Patient", "id": "p1"}},
		{}
	]}`

	tests := []struct {
		name    string
		data    string
		want    int
		wantErr bool
	}{
		{"single", riskAssessmentJSON, 2, false},
		{"bundle", bundle, 2, false},
		{"other resource", `{"resourceType": "Patient"}`, 0, true},
		{"invalid", `{`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			types, err := LoadJSON([]byte(tt.data))
			if (err != nil) != tt.wantErr {
				t.Fatalf("LoadJSON() error = %v; wantErr %v", err, tt.wantErr)
			}
			if len(types) != tt.want {
				t.Errorf("got %d types; want %d", len(types), tt.want)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "StructureDefinition-RiskAssessment.json")
	if err := os.WriteFile(path, []byte(riskAssessmentJSON), 0o600); err != nil {
		t.Fatal(err)
	}

	types, err := LoadFile(path)
	if err != nil || len(types) != 2 {
		t.Fatalf("LoadFile() = %d types, %v", len(types), err)
	}

	types, err = LoadDirectory(dir)
	if err != nil || len(types) != 2 {
		t.Errorf("LoadDirectory() = %d types, %v", len(types), err)
	}

	if _, err := LoadFile(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
