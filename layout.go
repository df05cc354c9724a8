package halloc

import (
	"reflect"
	"unsafe"
)

// Layout describes the storage requirements of a value: its size and
// alignment in bytes. It is the accounting unit of the Heap ledger.
//
// For types that carry pointers (string, slices, maps, pointer fields) the
// layout also records the runtime type, so the ledger can back their
// records with storage the garbage collector scans.
type Layout struct {
	Size  uintptr
	Align uintptr

	typ reflect.Type // non-nil iff values of the type carry pointers
}

// LayoutOf returns the Layout for values of type T.
func LayoutOf[T any]() Layout {
	var zero T
	l := Layout{
		Size:  unsafe.Sizeof(zero),
		Align: unsafe.Alignof(zero),
	}
	if t := reflect.TypeFor[T](); hasPointers(t) {
		l.typ = t
	}
	return l
}

// castLayout returns the layout used when transcoding a record from layout
// from to layout to. A pointer-carrying destination keeps its exact layout
// (typed storage must match the type); otherwise the record is sized to the
// larger of the two layouts, aligned for the destination.
func castLayout(from, to Layout) Layout {
	if to.typ != nil {
		return to
	}
	size := from.Size
	if to.Size > size {
		size = to.Size
	}
	return Layout{Size: size, Align: to.Align}
}

// alignUp rounds off up to the next multiple of align.
// align must be a power of two.
func alignUp(off, align uintptr) uintptr {
	mask := align - 1
	return (off + mask) &^ mask
}

// hasPointers reports whether values of type t contain pointers the garbage
// collector must be able to see.
func hasPointers(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map,
		reflect.Pointer, reflect.Slice, reflect.String, reflect.UnsafePointer:
		return true
	case reflect.Array:
		return t.Len() > 0 && hasPointers(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if hasPointers(t.Field(i).Type) {
				return true
			}
		}
		return false
	default:
		return false
	}
}
