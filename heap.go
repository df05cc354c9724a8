package halloc

import (
	"fmt"
	"reflect"
	"unsafe"
)

// allocation is one ledger record: a live address, the layout it was
// reserved with, and the backing storage that keeps it reachable. Records
// of pointer-free types are backed by a raw byte buffer; records of
// pointer-carrying types are backed by typed storage (val) so the garbage
// collector traces the data their value points at.
type allocation struct {
	ptr    unsafe.Pointer
	layout Layout
	buf    []byte        // raw backing, pointer-free layouts
	val    reflect.Value // typed backing, pointer-carrying layouts
	leaked bool          // already counted as leaked by a failed destructor
}

// Heap is the allocation table: a flat, ordered ledger of currently live
// raw allocations. Every record is backed by its own independent storage,
// so an address handed out by Alloc never moves for the lifetime of its
// record.
//
// Heap is not goroutine-safe and never runs destructors; Memory serializes
// access to it and the Mutator owns value teardown.
type Heap struct {
	allocs []allocation
}

// NewHeap creates a Heap whose ledger is pre-sized for hint records.
// The hint is bookkeeping only, never a capacity limit.
func NewHeap(hint int) *Heap {
	if hint < 0 {
		hint = 0
	}
	return &Heap{allocs: make([]allocation, 0, hint)}
}

// Alloc reserves raw storage for layout, records (address, layout) in the
// ledger and returns the address.
//
// The contents of the storage are unspecified; use AllocZeroed when the
// bytes may be observed before a value is written. An unsatisfiable request
// aborts the process through the runtime's out-of-memory handling - there
// is no recoverable failure at this layer.
func (h *Heap) Alloc(layout Layout) unsafe.Pointer {
	if h.allocs == nil {
		panic("halloc: heap used after release")
	}

	// Pointer-carrying layouts get typed storage: the collector has to scan
	// the stored value, and a raw byte buffer would hide its pointers.
	if layout.typ != nil {
		v := reflect.New(layout.typ)
		ptr := v.UnsafePointer()
		h.allocs = append(h.allocs, allocation{ptr: ptr, layout: layout, val: v})
		return ptr
	}

	align := layout.Align
	if align == 0 {
		align = 1
	}

	// Over-allocate by align-1 so the base can be rounded up to a properly
	// aligned address inside the buffer.
	n := layout.Size + align - 1
	if n == 0 {
		n = 1
	}
	buf := make([]byte, n)

	base := unsafe.Pointer(&buf[0])
	ptr := unsafe.Add(base, alignUp(uintptr(base), align)-uintptr(base))

	h.allocs = append(h.allocs, allocation{ptr: ptr, layout: layout, buf: buf})
	return ptr
}

// AllocZeroed is Alloc with the returned storage guaranteed to be
// zero-filled.
func (h *Heap) AllocZeroed(layout Layout) unsafe.Pointer {
	ptr := h.Alloc(layout)
	// Typed storage is born zeroed; raw buffers are cleared explicitly.
	if layout.typ == nil && layout.Size > 0 {
		clear(unsafe.Slice((*byte)(ptr), layout.Size))
	}
	return ptr
}

// Dealloc releases the storage behind ptr and removes its record from the
// ledger. The record's own descriptor governs the release; layout is the
// caller's view of the storage and may differ after an unchecked cast.
//
// The caller must guarantee the value at ptr has already been destroyed:
// the ledger has no type information beyond the descriptor and never runs
// destructors. Passing an address the ledger does not track panics.
func (h *Heap) Dealloc(ptr unsafe.Pointer, layout Layout) {
	for i, a := range h.allocs {
		if a.ptr == ptr {
			if a.val.IsValid() {
				a.val.Elem().SetZero()
			} else if a.layout.Size > 0 {
				clear(unsafe.Slice((*byte)(a.ptr), a.layout.Size))
			}
			h.allocs = append(h.allocs[:i], h.allocs[i+1:]...)
			return
		}
	}
	panic(fmt.Sprintf("halloc: dealloc of untracked address %p", ptr))
}

// Bytes returns a copy of the live bytes of every tracked allocation,
// concatenated in ledger order. Diagnostic only; if only the byte count is
// needed, use Size.
func (h *Heap) Bytes() []byte {
	out := make([]byte, 0, h.Size())
	for _, a := range h.allocs {
		if a.layout.Size == 0 {
			continue
		}
		out = append(out, unsafe.Slice((*byte)(a.ptr), a.layout.Size)...)
	}
	return out
}

// Size returns the total number of bytes tracked by the ledger. Not to be
// confused with Count, which returns the number of records.
func (h *Heap) Size() int {
	total := 0
	for _, a := range h.allocs {
		total += int(a.layout.Size)
	}
	return total
}

// Count returns the number of records in the ledger.
func (h *Heap) Count() int {
	return len(h.allocs)
}

// markLeaked flags the record for ptr as already counted leaked, so the
// arena does not count it a second time when it closes.
func (h *Heap) markLeaked(ptr unsafe.Pointer) {
	for i := range h.allocs {
		if h.allocs[i].ptr == ptr {
			h.allocs[i].leaked = true
			return
		}
	}
}

// unleakedCount returns the number of records not flagged by markLeaked.
func (h *Heap) unleakedCount() int {
	n := 0
	for _, a := range h.allocs {
		if !a.leaked {
			n++
		}
	}
	return n
}

// release drops every record and makes the Heap unusable.
func (h *Heap) release() {
	for _, a := range h.allocs {
		if a.val.IsValid() {
			a.val.Elem().SetZero()
		} else {
			clear(a.buf)
		}
	}
	h.allocs = nil
}

// released reports whether the Heap has been released.
func (h *Heap) released() bool {
	return h.allocs == nil
}
