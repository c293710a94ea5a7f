package codec

import (
	"fmt"
	"reflect"
	"sync"
)

// TypeNameHandling controls when "$type" metadata is written.
type TypeNameHandling int

const (
	// TypeNamesNone never writes type metadata.
	TypeNamesNone TypeNameHandling = iota
	// TypeNamesAuto writes type metadata when a value's dynamic type differs
	// from its declared type, i.e. when it is stored behind an interface.
	TypeNamesAuto
	// TypeNamesAll writes type metadata for every named type.
	TypeNamesAll
)

// CycleHandling controls what happens when a value refers back to one of
// its ancestors.
type CycleHandling int

const (
	// CycleSerialize writes the back-reference as {"$ref": id}.
	// Requires PreserveReferences.
	CycleSerialize CycleHandling = iota
	// CycleError fails the encode.
	CycleError
	// CycleIgnore omits the back-reference.
	CycleIgnore
)

// Policy describes codec behavior. It is fixed when a Codec is created.
type Policy struct {
	// PreserveReferences tags pointer targets and maps with "$id" and writes
	// later occurrences of the same instance as {"$ref": id}.
	PreserveReferences bool
	// TypeNames selects when "$type" metadata is written.
	TypeNames TypeNameHandling
	// Cycles selects how back-references are handled.
	Cycles CycleHandling
}

// DefaultPolicy preserves references, tags polymorphic values and
// serializes cycles.
func DefaultPolicy() Policy {
	return Policy{
		PreserveReferences: true,
		TypeNames:          TypeNamesAuto,
		Cycles:             CycleSerialize,
	}
}

// Validate checks that the policy is consistent.
func (p Policy) Validate() error {
	if p.Cycles == CycleSerialize && !p.PreserveReferences {
		return fmt.Errorf("codec: serializing cycles requires PreserveReferences")
	}
	if p.TypeNames < TypeNamesNone || p.TypeNames > TypeNamesAll {
		return fmt.Errorf("codec: unknown type name handling %d", p.TypeNames)
	}
	if p.Cycles < CycleSerialize || p.Cycles > CycleIgnore {
		return fmt.Errorf("codec: unknown cycle handling %d", p.Cycles)
	}
	return nil
}

// registry maps "$type" names to Go types in both directions.
type registry struct {
	mu     sync.RWMutex
	byName map[string]reflect.Type
	byType map[reflect.Type]string
}

func newRegistry() *registry {
	return &registry{
		byName: make(map[string]reflect.Type),
		byType: make(map[reflect.Type]string),
	}
}

func (r *registry) add(name string, t reflect.Type) error {
	if name == "" {
		return fmt.Errorf("codec: empty type name")
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byName[name]; ok && existing != t {
		return fmt.Errorf("codec: type name %q already registered for %s", name, existing)
	}
	r.byName[name] = t
	r.byType[t] = name
	return nil
}

func (r *registry) lookup(name string) (reflect.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byName[name]
	return t, ok
}

// registered returns the name bound to t, if any.
func (r *registry) registered(t reflect.Type) (string, bool) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.byType[t]
	return name, ok
}

// nameOf returns the registered name of t (or of the type t points to),
// falling back to the qualified Go type name.
func (r *registry) nameOf(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	r.mu.RLock()
	name, ok := r.byType[t]
	r.mu.RUnlock()
	if ok {
		return name
	}
	return t.String()
}
