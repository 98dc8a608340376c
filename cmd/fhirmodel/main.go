// Package main implements the fhirmodel CLI tool. It describes the declared
// types and constraints, optionally extended with StructureDefinitions.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	fhirmodel "github.com/gofhir/model"
	"github.com/gofhir/model/constraint"
	"github.com/gofhir/model/core"
	"github.com/gofhir/model/loader"
	"github.com/gofhir/model/pkg/logger"
	"github.com/gofhir/model/schema"
)

const (
	version = "0.1.0"
	usage   = `fhirmodel - FHIR structural model inspector

Usage:
  fhirmodel [options] [type]...

Examples:
  fhirmodel                          (list declared types)
  fhirmodel ServiceRequest           (describe a type)
  fhirmodel -constraints RiskAssessment
  fhirmodel -sd StructureDefinition-Observation.json Observation
  fhirmodel -check -sd profiles.json
  fhirmodel -output json Quantity

Options:
`
)

// OutputFormat specifies the output format.
type OutputFormat string

// Output format constants.
const (
	OutputText OutputFormat = "text"
	OutputJSON OutputFormat = "json"
)

// Config holds CLI configuration
type Config struct {
	Definitions []string
	Output      OutputFormat
	Constraints bool
	Check       bool
	Verbose     bool
	ShowVersion bool
	Types       []string
}

// TypeOutput represents a type in JSON output
type TypeOutput struct {
	Name        string             `json:"name"`
	Kind        string             `json:"kind"`
	Base        string             `json:"base,omitempty"`
	URL         string             `json:"url,omitempty"`
	Abstract    bool               `json:"abstract,omitempty"`
	Value       string             `json:"value,omitempty"`
	Fields      []FieldOutput      `json:"fields,omitempty"`
	Constraints []ConstraintOutput `json:"constraints,omitempty"`
}

// FieldOutput represents a field in JSON output
type FieldOutput struct {
	Name        string   `json:"name"`
	Cardinality string   `json:"cardinality"`
	Types       []string `json:"types"`
	Targets     []string `json:"targets,omitempty"`
	Choice      bool     `json:"choice,omitempty"`
	Modifier    bool     `json:"modifier,omitempty"`
	Summary     bool     `json:"summary,omitempty"`
}

// ConstraintOutput represents a constraint in JSON output
type ConstraintOutput struct {
	ID          string `json:"id"`
	Level       string `json:"level"`
	Location    string `json:"location,omitempty"`
	Description string `json:"description"`
	Expression  string `json:"expression"`
}

func main() {
	config := parseFlags(os.Args[1:])

	if config.ShowVersion {
		fmt.Printf("fhirmodel v%s (FHIR %s)\n", version, fhirmodel.ModelVersion.Release())
		os.Exit(0)
	}

	os.Exit(run(config, os.Stdout, os.Stderr))
}

func parseFlags(args []string) *Config {
	config := &Config{Output: OutputText}
	fs := flag.NewFlagSet("fhirmodel", flag.ExitOnError)

	var definitions, output string
	fs.StringVar(&definitions, "sd", "", "StructureDefinition JSON file(s) or directories to load (comma-separated)")
	fs.StringVar(&output, "output", "text", "Output format: text, json")
	fs.BoolVar(&config.Constraints, "constraints", false, "Show constraints")
	fs.BoolVar(&config.Check, "check", false, "Compile every constraint expression and report failures")
	fs.BoolVar(&config.Verbose, "verbose", false, "Log loading details")
	fs.BoolVar(&config.ShowVersion, "v", false, "Show version")

	fs.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		fs.PrintDefaults()
	}

	_ = fs.Parse(args)

	if definitions != "" {
		for _, d := range strings.Split(definitions, ",") {
			config.Definitions = append(config.Definitions, strings.TrimSpace(d))
		}
	}
	if strings.EqualFold(output, "json") {
		config.Output = OutputJSON
	}
	config.Types = fs.Args()
	return config
}

func run(config *Config, stdout, stderr io.Writer) int {
	if config.Verbose {
		logger.SetOutput(stderr)
		logger.SetLevel(logger.LevelDebug)
	} else {
		logger.SetLevel(logger.LevelError)
	}

	reg, err := buildRegistry(config.Definitions)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if err := reg.Resolve(); err != nil {
		fmt.Fprintf(stderr, "Warning: unresolved field types:\n%v\n", err)
	}

	types := reg.Types()
	if len(config.Types) > 0 {
		types = make([]*schema.Type, 0, len(config.Types))
		for _, name := range config.Types {
			t, ok := reg.Lookup(name)
			if !ok {
				fmt.Fprintf(stderr, "Error: unknown type %q\n", name)
				return 1
			}
			types = append(types, t)
		}
	}

	if config.Check {
		return check(types, stdout)
	}

	switch {
	case config.Output == OutputJSON:
		outputs := make([]TypeOutput, 0, len(types))
		for _, t := range types {
			outputs = append(outputs, describe(t, config.Constraints || len(config.Types) > 0))
		}
		data, _ := json.MarshalIndent(outputs, "", "  ")
		fmt.Fprintln(stdout, string(data))
	case len(config.Types) == 0:
		for _, t := range types {
			fmt.Fprintf(stdout, "%-16s %s\n", t.Kind(), t.Name())
		}
	default:
		for _, t := range types {
			printType(stdout, t, config.Constraints)
		}
	}
	return 0
}

// buildRegistry registers the loaded definitions and every core type they
// do not redeclare.
func buildRegistry(paths []string) (*schema.Registry, error) {
	var loaded []*schema.Type
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		var ts []*schema.Type
		if info.IsDir() {
			ts, err = loader.LoadDirectory(p)
		} else {
			ts, err = loader.LoadFile(p)
		}
		if err != nil {
			return nil, err
		}
		loaded = append(loaded, ts...)
	}

	names := make(map[string]bool, len(loaded))
	for _, t := range loaded {
		names[t.Name()] = true
	}
	reg := schema.NewRegistry()
	for _, t := range core.Types() {
		if !names[t.Name()] {
			if err := reg.Register(t); err != nil {
				return nil, err
			}
		}
	}
	if err := reg.Register(loaded...); err != nil {
		return nil, err
	}
	return reg, nil
}

func check(types []*schema.Type, w io.Writer) int {
	failed := 0
	total := 0
	for _, t := range types {
		for _, c := range t.Constraints() {
			total++
			if err := constraint.Check(c); err != nil {
				failed++
				fmt.Fprintf(w, "FAIL %s %v\n", t.Name(), err)
			}
		}
	}
	fmt.Fprintf(w, "%d constraints, %d failed\n", total, failed)
	if failed > 0 {
		return 1
	}
	return 0
}

func describe(t *schema.Type, withConstraints bool) TypeOutput {
	out := TypeOutput{
		Name:     t.Name(),
		Kind:     t.Kind().String(),
		URL:      t.URL(),
		Abstract: t.Abstract(),
	}
	if t.Base() != nil {
		out.Base = t.Base().Name()
	}
	if t.IsPrimitive() {
		out.Value = t.Value().String()
	}
	for _, f := range t.Fields() {
		out.Fields = append(out.Fields, FieldOutput{
			Name:        f.Name,
			Cardinality: f.Cardinality(),
			Types:       f.Types,
			Targets:     f.Targets,
			Choice:      f.Choice,
			Modifier:    f.Modifier,
			Summary:     f.Summary,
		})
	}
	if withConstraints {
		for _, c := range t.Constraints() {
			out.Constraints = append(out.Constraints, ConstraintOutput{
				ID:          c.ID,
				Level:       c.Level.String(),
				Location:    c.Location,
				Description: c.Description,
				Expression:  c.Expression,
			})
		}
	}
	return out
}

func printType(w io.Writer, t *schema.Type, withConstraints bool) {
	fmt.Fprintf(w, "== %s (%s) ==\n", t.Name(), t.Kind())
	if t.Base() != nil {
		fmt.Fprintf(w, "Base: %s\n", t.Base().Name())
	}
	if t.URL() != "" {
		fmt.Fprintf(w, "URL: %s\n", t.URL())
	}
	for _, f := range t.Fields() {
		name := f.Name
		if f.Choice {
			name += "[x]"
		}
		flags := ""
		if f.Modifier {
			flags += " ?!"
		}
		if f.Summary {
			flags += " Σ"
		}
		types := strings.Join(f.Types, " | ")
		if len(f.Targets) > 0 {
			types += "(" + strings.Join(f.Targets, " | ") + ")"
		}
		fmt.Fprintf(w, "  %-24s %-6s %s%s\n", name, f.Cardinality(), types, flags)
	}
	if withConstraints {
		cons := t.Constraints()
		if len(cons) > 0 {
			fmt.Fprintln(w, "\nConstraints:")
		}
		for _, c := range cons {
			loc := ""
			if c.Location != "" && c.Location != t.Name() {
				loc = " @ " + c.Location
			}
			fmt.Fprintf(w, "  %-7s [%s] %s%s\n", c.ID, c.Level, c.Description, loc)
		}
	}
	fmt.Fprintln(w)
}
