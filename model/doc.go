// Package model implements the immutable FHIR element tree.
//
// An Element's shape is a *schema.Type. Elements are created only through a
// Builder, whose Build method runs every structural check (required fields,
// closed choice types, cardinality, primitive lexical rules and the
// value-or-children rule) and either returns an immutable element or a
// *BuildError naming each offending field path.
//
// Traversal is generic: Walk drives a Visitor over any element using its
// type's field list. Hashing, equality, deep copy and path-qualified walks
// are all built on Walk.
package model
