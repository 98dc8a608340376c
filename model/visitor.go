package model

import "slices"

// Step identifies how a node was reached from its parent.
type Step struct {
	// Name is the field name, or the type name for the root.
	Name string
	// Index is the zero-based position in a repeated field, or -1.
	Index int
	// Choice marks a value of a polymorphic field.
	Choice bool
}

// Indexed reports whether the node is an entry of a repeated field.
func (s Step) Indexed() bool { return s.Index >= 0 }

// Visitor receives the events of a depth-first walk.
//
// For every node the walk calls PreVisit; if it returns false the node and
// its subtree are skipped entirely. Otherwise it calls VisitStart, then
// Visit; if Visit returns true the fields are walked in declaration order.
// VisitEnd and PostVisit always follow once PreVisit returned true.
type Visitor interface {
	PreVisit(e *Element) bool
	VisitStart(s Step, e *Element)
	Visit(s Step, e *Element) bool
	VisitEnd(s Step, e *Element)
	PostVisit(e *Element)
}

// ListVisitor is implemented by visitors that want to see non-empty
// repeated fields as a whole, before and after their entries are walked.
type ListVisitor interface {
	VisitListStart(name string, list []*Element)
	VisitListEnd(name string, list []*Element)
}

// BaseVisitor visits every node and does nothing. Embed it to implement only
// the callbacks you need.
type BaseVisitor struct{}

// PreVisit returns true.
func (BaseVisitor) PreVisit(*Element) bool { return true }

// VisitStart does nothing.
func (BaseVisitor) VisitStart(Step, *Element) {}

// Visit returns true.
func (BaseVisitor) Visit(Step, *Element) bool { return true }

// VisitEnd does nothing.
func (BaseVisitor) VisitEnd(Step, *Element) {}

// PostVisit does nothing.
func (BaseVisitor) PostVisit(*Element) {}

// Walk traverses e depth-first. The root is reported with its type name and
// index -1. A nil e is not visited.
func Walk(v Visitor, e *Element) {
	if e == nil {
		return
	}
	lv, _ := v.(ListVisitor)
	walk(v, lv, Step{Name: e.typ.Name(), Index: -1}, e)
}

func walk(v Visitor, lv ListVisitor, s Step, e *Element) {
	if !v.PreVisit(e) {
		return
	}
	v.VisitStart(s, e)
	if v.Visit(s, e) {
		for i, vals := range e.fields {
			if len(vals) == 0 {
				continue
			}
			f := e.typ.FieldAt(i)
			if !f.Repeated() {
				walk(v, lv, Step{Name: f.Name, Index: -1, Choice: f.Choice}, vals[0])
				continue
			}
			if lv != nil {
				lv.VisitListStart(f.Name, slices.Clone(vals))
			}
			for j, c := range vals {
				walk(v, lv, Step{Name: f.Name, Index: j, Choice: f.Choice}, c)
			}
			if lv != nil {
				lv.VisitListEnd(f.Name, slices.Clone(vals))
			}
		}
	}
	v.VisitEnd(s, e)
	v.PostVisit(e)
}
