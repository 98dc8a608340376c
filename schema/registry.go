package schema

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/gofhir/model/constraint"
	"github.com/gofhir/model/pkg/logger"
)

// Registry errors.
var (
	ErrDuplicateType  = errors.New("type already registered")
	ErrUnresolvedType = errors.New("unresolved type")
)

// Registry is the closed set of declared types. It is safe for concurrent
// use; declarations are immutable once registered.
type Registry struct {
	mu    sync.RWMutex
	types map[string]*Type
	order []*Type
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[string]*Type)}
}

// Register adds types to the registry. Names must be unique. Constraints
// whose expressions do not compile are logged and kept: the expression
// grammar belongs to the evaluator.
func (r *Registry) Register(types ...*Type) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range types {
		if t == nil {
			return fmt.Errorf("register: %w", ErrEmptyName)
		}
		if _, dup := r.types[t.name]; dup {
			return fmt.Errorf("register %s: %w", t.name, ErrDuplicateType)
		}
	}

	log := logger.Default().Named("schema")
	for _, t := range types {
		r.types[t.name] = t
		r.order = append(r.order, t)
		for _, c := range t.constraints {
			if err := constraint.Check(c); err != nil {
				log.Warn("%s: %v", t.name, err)
			}
		}
		log.Debug("registered %s %s (%d fields, %d constraints)", t.kind, t.name, len(t.fields), len(t.constraints))
	}
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(types ...*Type) {
	if err := r.Register(types...); err != nil {
		panic("schema: " + err.Error())
	}
}

// Lookup returns the type with the given name.
func (r *Registry) Lookup(name string) (*Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[name]
	return t, ok
}

// Types returns the registered types in registration order.
func (r *Registry) Types() []*Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// Len returns the number of registered types.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Constraints returns the constraints declared on the named type.
func (r *Registry) Constraints(name string) ([]constraint.Constraint, bool) {
	t, ok := r.Lookup(name)
	if !ok {
		return nil, false
	}
	return t.Constraints(), true
}

// Resolve verifies that every type named by a registered field is either
// registered or an abstract base name. Reference targets are not checked.
// It returns all failures joined.
func (r *Registry) Resolve() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var errs []error
	for _, t := range r.order {
		for _, f := range t.fields {
			for _, name := range f.Types {
				if IsAbstractName(name) {
					continue
				}
				if _, ok := r.types[name]; !ok {
					errs = append(errs, fmt.Errorf("%s.%s: %w: %s", t.name, f.Name, ErrUnresolvedType, name))
				}
			}
		}
	}
	return errors.Join(errs...)
}
