package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseFlags(t *testing.T) {
	config := parseFlags([]string{"-sd", "a.json, b.json", "-output", "JSON", "-constraints", "Patient"})
	if len(config.Definitions) != 2 || config.Definitions[1] != "b.json" {
		t.Errorf("Definitions = %v", config.Definitions)
	}
	if config.Output != OutputJSON || !config.Constraints {
		t.Errorf("config = %+v", config)
	}
	if len(config.Types) != 1 || config.Types[0] != "Patient" {
		t.Errorf("Types = %v", config.Types)
	}
}

func TestRun(t *testing.T) {
	tests := []struct {
		name   string
		config *Config
		code   int
		want   []string
	}{
		{"list", &Config{Output: OutputText}, 0, []string{"ServiceRequest", "SimpleQuantity"}},
		{
			"describe",
			&Config{Output: OutputText, Constraints: true, Types: []string{"ServiceRequest"}},
			0,
			[]string{"== ServiceRequest", "quantity[x]", "Quantity | Ratio | Range", "prr-1"},
		},
		{
			"derived",
			&Config{Output: OutputText, Types: []string{"SimpleQuantity"}},
			0,
			[]string{"Base: Quantity"},
		},
		{"unknown", &Config{Output: OutputText, Types: []string{"Nope"}}, 1, nil},
		{"check", &Config{Check: true, Types: []string{"RiskAssessment"}}, -1, []string{"constraints,"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := run(tt.config, &stdout, &stderr)
			if tt.code >= 0 && code != tt.code {
				t.Errorf("run() = %d; want %d (stderr %s)", code, tt.code, stderr.String())
			}
			for _, w := range tt.want {
				if !strings.Contains(stdout.String(), w) {
					t.Errorf("output missing %q:\n%s", w, stdout.String())
				}
			}
		})
	}
}

func TestRun_JSON(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(&Config{Output: OutputJSON, Types: []string{"RiskAssessment"}}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("run() = %d: %s", code, stderr.String())
	}

	var out []TypeOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(out) != 1 || out[0].Name != "RiskAssessment" {
		t.Fatalf("output = %+v", out)
	}
	var ras2 bool
	for _, c := range out[0].Constraints {
		if c.ID == "ras-2" && c.Location == "RiskAssessment.prediction" {
			ras2 = true
		}
	}
	if !ras2 {
		t.Errorf("ras-2 missing: %+v", out[0].Constraints)
	}
}

func TestRun_Definitions(t *testing.T) {
	sd := `{
		"resourceType": "StructureDefinition",
		"url": "http://hl7.org/fhir/StructureDefinition/Money",
		"name": "Money",
		"kind": "complex-type",
		"type": "Money",
		"snapshot": {"element": [
			{"path": "Money"},
			{"path": "Money.value", "min": 0, "max": "1", "type": [{"code": "decimal"}]},
			{"path": "Money.currency", "min": 0, "max": "1", "type": [{"code": "code"}]}
		]}
	}`
	path := filepath.Join(t.TempDir(), "StructureDefinition-Money.json")
	if err := os.WriteFile(path, []byte(sd), 0o600); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	code := run(&Config{Output: OutputText, Definitions: []string{path}, Types: []string{"Money"}}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("run() = %d: %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "currency") {
		t.Errorf("output = %s", stdout.String())
	}

	code = run(&Config{Definitions: []string{filepath.Join(t.TempDir(), "missing.json")}}, &stdout, &stderr)
	if code != 1 {
		t.Errorf("run() with missing file = %d; want 1", code)
	}
}
