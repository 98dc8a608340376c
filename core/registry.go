// Package core declares the FHIR R4 shapes the model ships with: the
// primitive types, the common data types, and a small set of resources.
package core

import (
	"sync"

	"github.com/gofhir/model/schema"
)

var (
	registryOnce sync.Once
	registry     *schema.Registry
)

// Registry returns the registry of every type declared in this package.
func Registry() *schema.Registry {
	registryOnce.Do(func() {
		r := schema.NewRegistry()
		r.MustRegister(primitives...)
		r.MustRegister(dataTypes...)
		r.MustRegister(backbones...)
		r.MustRegister(resources...)
		if err := r.Resolve(); err != nil {
			panic("core: " + err.Error())
		}
		registry = r
	})
	return registry
}

// Types returns every declared type in registration order.
func Types() []*schema.Type {
	return Registry().Types()
}
