package model

import (
	"strings"

	"github.com/gofhir/model/pool"
)

// WalkPaths calls fn for every node of e with its path, for example
// "RiskAssessment.prediction[0].probability". Returning false from fn skips
// the node's children.
func WalkPaths(e *Element, fn func(path string, e *Element) bool) {
	pb := pool.AcquirePathBuilder()
	defer pb.Release()
	Walk(&pathVisitor{pb: pb, fn: fn}, e)
}

type pathVisitor struct {
	BaseVisitor
	pb *pool.PathBuilder
	fn func(string, *Element) bool
}

func (p *pathVisitor) VisitStart(s Step, _ *Element) {
	p.pb.Push(s.Name, s.Index)
}

func (p *pathVisitor) Visit(_ Step, e *Element) bool {
	return p.fn(p.pb.String(), e)
}

func (p *pathVisitor) VisitEnd(Step, *Element) {
	p.pb.Pop()
}

// Find returns the node at a path produced by WalkPaths, or nil.
func Find(e *Element, path string) *Element {
	var found *Element
	WalkPaths(e, func(p string, n *Element) bool {
		if found != nil {
			return false
		}
		if p == path {
			found = n
			return false
		}
		return strings.HasPrefix(path, p) && len(path) > len(p) && (path[len(p)] == '.' || path[len(p)] == '[')
	})
	return found
}
