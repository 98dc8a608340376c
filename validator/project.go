package validator

import (
	"encoding/json"

	"github.com/gofhir/model/model"
	"github.com/gofhir/model/schema"
)

// project renders a non-primitive node as the JSON object shape FHIRPath
// navigates: choice values under name+Type, primitive ids and extensions
// under "_name". Profiled types are named by the type they derive from.
func project(e *model.Element) map[string]any {
	obj := make(map[string]any)
	if e.IsResource() {
		obj["resourceType"] = e.Type().Root().Name()
	}
	if e.ID() != "" {
		obj["id"] = e.ID()
	}

	t := e.Type()
	for i := 0; i < t.NumFields(); i++ {
		f := t.FieldAt(i)
		vals := e.List(f.Name)
		if len(vals) == 0 {
			continue
		}

		if !f.Repeated() {
			name := f.Name
			if f.Choice {
				name = schema.ChoiceName(f.Name, vals[0].Type().Root().Name())
			}
			v, ext := projectValue(vals[0])
			if v != nil {
				obj[name] = v
			}
			if ext != nil {
				obj["_"+name] = ext
			}
			continue
		}

		arr := make([]any, len(vals))
		exts := make([]any, len(vals))
		hasExt := false
		for j, c := range vals {
			v, ext := projectValue(c)
			arr[j] = v
			if ext != nil {
				exts[j] = ext
				hasExt = true
			}
		}
		obj[f.Name] = arr
		if hasExt {
			obj["_"+f.Name] = exts
		}
	}
	return obj
}

func projectValue(e *model.Element) (any, map[string]any) {
	if !e.Type().IsPrimitive() {
		return project(e), nil
	}
	var v any
	if e.HasValue() {
		v = scalar(e.Value())
	}
	if e.ID() != "" || e.HasChildren() {
		return v, project(e)
	}
	return v, nil
}

func scalar(v model.Value) any {
	switch v := v.(type) {
	case model.StringValue:
		return string(v)
	case model.BoolValue:
		return bool(v)
	case model.IntValue:
		return int64(v)
	case model.DecimalValue:
		return json.Number(v.String())
	}
	return v.String()
}
