package validator

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gofhir/fhirpath"

	fhirmodel "github.com/gofhir/model"
	"github.com/gofhir/model/cache"
	"github.com/gofhir/model/model"
)

// Evaluator evaluates a boolean constraint expression against a node.
type Evaluator interface {
	Evaluate(ctx context.Context, expression string, node *model.Element) (bool, error)
}

// EvaluatorFunc adapts a function to Evaluator.
type EvaluatorFunc func(ctx context.Context, expression string, node *model.Element) (bool, error)

// Evaluate calls f.
func (f EvaluatorFunc) Evaluate(ctx context.Context, expression string, node *model.Element) (bool, error) {
	return f(ctx, expression, node)
}

// FHIRPathEvaluator evaluates FHIRPath expressions. Compiled expressions are
// kept in an LRU cache shared by all goroutines.
type FHIRPathEvaluator struct {
	exprs   *cache.Cache[string, *fhirpath.Expression]
	metrics *fhirmodel.Metrics
}

// NewFHIRPathEvaluator creates an evaluator caching up to size compiled
// expressions. metrics may be nil.
func NewFHIRPathEvaluator(size int, metrics *fhirmodel.Metrics) *FHIRPathEvaluator {
	return &FHIRPathEvaluator{
		exprs:   cache.New[string, *fhirpath.Expression](size),
		metrics: metrics,
	}
}

// Evaluate implements Evaluator. An empty result means the constraint does
// not apply and passes.
func (e *FHIRPathEvaluator) Evaluate(ctx context.Context, expression string, node *model.Element) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	expr, hit, err := e.exprs.Load(expression, fhirpath.Compile)
	if e.metrics != nil {
		if hit {
			e.metrics.RecordCacheHit()
		} else {
			e.metrics.RecordCacheMiss()
		}
	}
	if err != nil {
		return false, fmt.Errorf("compile %q: %w", expression, err)
	}

	data, err := json.Marshal(project(node))
	if err != nil {
		return false, fmt.Errorf("project %s: %w", node.TypeName(), err)
	}
	result, err := expr.Evaluate(data)
	if err != nil {
		return false, fmt.Errorf("evaluate %q: %w", expression, err)
	}
	return passed(result), nil
}

// Stats returns the expression cache statistics.
func (e *FHIRPathEvaluator) Stats() cache.Stats {
	return e.exprs.Stats()
}

func passed(result fhirpath.Collection) bool {
	if result.Empty() {
		return true
	}
	b, err := result.ToBoolean()
	if err != nil {
		// Non-boolean, non-empty collections are truthy.
		return true
	}
	return b
}

// wellKnown constraints are checked on the element tree directly.
var wellKnown = map[string]func(*model.Element) bool{
	"ele-1": func(e *model.Element) bool {
		return e.HasValue() || e.HasChildren()
	},
	"ext-1": func(e *model.Element) bool {
		return e.Has("extension") != e.Has("value")
	},
}
