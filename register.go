package halloc

import (
	"fmt"
	"reflect"
	"sync"
)

// Allocatable bounds the value types the arena will store: fixed-size
// values with no ownership of unregistered resources. Go cannot close an
// interface over an externally extensible set of types, so the bound itself
// is open and eligibility is enforced by registration: a type may be stored
// iff it was registered with Register, or is a slice or map whose element
// (and key) types are eligible.
//
// Fixed-width integers, floats, bool and string are pre-registered.
type Allocatable interface{ any }

var (
	registryMu sync.RWMutex
	registry   = make(map[reflect.Type]struct{})
)

func init() {
	for _, v := range []any{
		int8(0), int16(0), int32(0), int64(0),
		uint8(0), uint16(0), uint32(0), uint64(0),
		float32(0), float64(0),
		false, "",
	} {
		registry[reflect.TypeOf(v)] = struct{}{}
	}
}

// Register marks T as eligible for arena storage. Call it before any
// allocation of T, typically from an init function; the registered set is
// expected to be fixed before the arena is used. Registering a type twice
// is harmless.
func Register[T any]() {
	t := reflect.TypeFor[T]()
	registryMu.Lock()
	registry[t] = struct{}{}
	registryMu.Unlock()
}

// Registered reports whether values of type T may be stored in an arena.
func Registered[T any]() bool {
	return eligible(reflect.TypeFor[T]())
}

func eligible(t reflect.Type) bool {
	registryMu.RLock()
	_, ok := registry[t]
	registryMu.RUnlock()
	if ok {
		return true
	}
	switch t.Kind() {
	case reflect.Slice:
		return eligible(t.Elem())
	case reflect.Map:
		return eligible(t.Key()) && eligible(t.Elem())
	}
	return false
}

// mustAllocatable panics if T is not eligible. The allocation surface calls
// it on every typed entry point.
func mustAllocatable[T any]() {
	if !Registered[T]() {
		panic(fmt.Sprintf("halloc: %v is not registered as Allocatable", reflect.TypeFor[T]()))
	}
}
