package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofhir/fhir/r4"

	"github.com/gofhir/model/schema"
)

// LoadFile reads a StructureDefinition or a Bundle of them from a JSON file
// and converts every definition it holds.
func LoadFile(path string) ([]*schema.Type, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	types, err := LoadJSON(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return types, nil
}

// LoadJSON converts a StructureDefinition or a Bundle of them. Bundle
// entries that are not StructureDefinitions are ignored.
func LoadJSON(data []byte) ([]*schema.Type, error) {
	var head struct {
		ResourceType string `json:"resourceType"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	switch head.ResourceType {
	case "Bundle":
		return loadBundle(data)
	case "StructureDefinition":
		var sd r4.StructureDefinition
		if err := json.Unmarshal(data, &sd); err != nil {
			return nil, fmt.Errorf("failed to parse StructureDefinition: %w", err)
		}
		return NewR4Converter().Convert(&sd)
	default:
		return nil, fmt.Errorf("unsupported resourceType: %q", head.ResourceType)
	}
}

func loadBundle(data []byte) ([]*schema.Type, error) {
	var bundle struct {
		Entry []struct {
			Resource json.RawMessage `json:"resource"`
		} `json:"entry"`
	}
	if err := json.Unmarshal(data, &bundle); err != nil {
		return nil, fmt.Errorf("failed to parse Bundle: %w", err)
	}

	conv := NewR4Converter()
	var types []*schema.Type
	for i, entry := range bundle.Entry {
		if entry.Resource == nil {
			continue
		}
		var head struct {
			ResourceType string `json:"resourceType"`
		}
		if err := json.Unmarshal(entry.Resource, &head); err != nil || head.ResourceType != "StructureDefinition" {
			continue
		}
		var sd r4.StructureDefinition
		if err := json.Unmarshal(entry.Resource, &sd); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		ts, err := conv.Convert(&sd)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		types = append(types, ts...)
	}
	return types, nil
}

// LoadDirectory loads every StructureDefinition-*.json file in dir.
func LoadDirectory(dir string) ([]*schema.Type, error) {
	files, err := filepath.Glob(filepath.Join(dir, "StructureDefinition-*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to glob directory: %w", err)
	}
	var types []*schema.Type
	for _, file := range files {
		ts, err := LoadFile(file)
		if err != nil {
			return nil, err
		}
		types = append(types, ts...)
	}
	return types, nil
}
