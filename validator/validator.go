// Package validator evaluates the constraints declared on schema types
// against built instances.
//
// Construction already guarantees structure; the validator checks the
// business rules (FHIR invariants) through a pluggable Evaluator. The
// default evaluator runs FHIRPath:
//
//	v := validator.New(nil)
//	result := v.Validate(ctx, instance)
//	for _, iss := range result.Issues {
//		fmt.Println(iss)
//	}
//
// Rule failures are errors, Warning failures are warnings, and expressions
// that cannot be evaluated are reported as processing warnings.
package validator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	fhirmodel "github.com/gofhir/model"
	"github.com/gofhir/model/constraint"
	"github.com/gofhir/model/model"
	"github.com/gofhir/model/pkg/issue"
	"github.com/gofhir/model/pkg/logger"
	"github.com/gofhir/model/pool"
)

// Validator evaluates declared constraints. It is safe for concurrent use
// when its Evaluator is.
type Validator struct {
	eval    Evaluator
	opts    *fhirmodel.Options
	metrics *fhirmodel.Metrics
	log     *logger.Logger
}

// New creates a validator. A nil evaluator selects a FHIRPathEvaluator
// sized by Options.ExpressionCacheSize.
func New(eval Evaluator, opts ...fhirmodel.Option) *Validator {
	v := &Validator{
		opts:    fhirmodel.Defaults().Apply(opts...),
		metrics: fhirmodel.NewMetrics(),
		log:     logger.Default().Named("validator"),
	}
	if eval == nil {
		eval = NewFHIRPathEvaluator(v.opts.ExpressionCacheSize, v.metrics)
	}
	v.eval = eval
	return v
}

// Metrics returns the validator's metrics.
func (v *Validator) Metrics() *fhirmodel.Metrics {
	return v.metrics
}

// Validate evaluates every constraint declared on the types of inst and its
// descendants.
func (v *Validator) Validate(ctx context.Context, inst *model.Element) *issue.Result {
	start := time.Now()
	result := issue.NewResult()
	if inst == nil {
		result.AddError(issue.CodeRequired, "instance is nil")
		return result
	}

	model.WalkPaths(inst, func(path string, node *model.Element) bool {
		if ctx.Err() != nil || v.full(result) {
			return false
		}
		primitive := node.Type().IsPrimitive()
		for _, c := range node.Type().Constraints() {
			if _, native := wellKnown[c.ID]; primitive && !native {
				continue
			}
			v.check(ctx, c, path, node, result)
		}
		return true
	})

	if err := ctx.Err(); err != nil {
		result.AddError(issue.CodeProcessing, fmt.Sprintf("validation cancelled: %v", err), inst.TypeName())
	}
	if !v.opts.IncludeWarnings {
		kept := issue.NewResult()
		for _, iss := range result.Issues {
			if iss.Severity != issue.SeverityWarning {
				kept.AddIssue(iss)
			}
		}
		result = kept
	}
	if v.opts.StrictMode {
		result = result.Escalate()
	}

	v.metrics.RecordInstance(time.Since(start), result.Valid())
	return result
}

// ValidateAll validates instances concurrently, at most WorkerCount at a
// time. Results are in input order. The error is the context error if ctx
// ends first.
func (v *Validator) ValidateAll(ctx context.Context, insts []*model.Element) ([]*issue.Result, error) {
	results := make([]*issue.Result, len(insts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, v.opts.WorkerCount))
	for i, inst := range insts {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = v.Validate(gctx, inst)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func (v *Validator) full(result *issue.Result) bool {
	return v.opts.MaxErrors > 0 && result.ErrorCount() >= v.opts.MaxErrors
}

// check evaluates c on every node its location selects below node.
func (v *Validator) check(ctx context.Context, c constraint.Constraint, path string, node *model.Element, result *issue.Result) {
	for _, t := range locate(path, node, c.RelativeLocation(node.TypeName())) {
		if v.full(result) {
			return
		}
		start := time.Now()
		ok, err := v.evaluate(ctx, c, t.node)
		if err != nil {
			v.metrics.RecordEvalError()
			v.log.Debug("%s at %s: %v", c.ID, t.path, err)
			result.AddIssue(issue.Issue{
				Severity:      issue.SeverityWarning,
				Code:          issue.CodeProcessing,
				Diagnostics:   fmt.Sprintf("error evaluating constraint %s: %v", c.ID, err),
				Expression:    []string{t.path},
				Source:        c.Source,
				ConstraintKey: c.ID,
			})
			continue
		}
		v.metrics.RecordConstraint(c.ID, time.Since(start), ok)
		if ok {
			continue
		}

		viol := &constraint.Violation{ID: c.ID, Level: c.Level, Path: t.path, Description: c.Description}
		v.metrics.RecordViolation(viol.Fatal())
		severity := issue.SeverityError
		if !viol.Fatal() {
			severity = issue.SeverityWarning
		}
		result.AddIssue(issue.Issue{
			Severity:      severity,
			Code:          issue.CodeInvariant,
			Diagnostics:   viol.Error(),
			Expression:    []string{t.path},
			Source:        c.Source,
			ConstraintKey: c.ID,
		})
	}
}

func (v *Validator) evaluate(ctx context.Context, c constraint.Constraint, node *model.Element) (bool, error) {
	if fn, ok := wellKnown[c.ID]; ok {
		return fn(node), nil
	}
	return v.eval.Evaluate(ctx, c.Expression, node)
}

type target struct {
	path string
	node *model.Element
}

// locate resolves a dotted field location relative to node. Each value of
// a repeated field is a separate target with an indexed path.
func locate(path string, node *model.Element, rel string) []target {
	targets := []target{{path, node}}
	if rel == "" {
		return targets
	}
	for _, name := range strings.Split(rel, ".") {
		var next []target
		for _, t := range targets {
			f, ok := t.node.Type().Field(name)
			if !ok {
				continue
			}
			for i, c := range t.node.List(name) {
				p := pool.Join(t.path, name)
				if f.Repeated() {
					p = pool.Index(p, i)
				}
				next = append(next, target{p, c})
			}
		}
		targets = next
	}
	return targets
}
