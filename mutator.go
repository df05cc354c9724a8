package halloc

import (
	"io"
	"sync/atomic"
	"unsafe"
)

// cell is the state shared by every clone in one handle family: the address
// all clones point at and the count of live clones.
type cell struct {
	ptr  unsafe.Pointer
	refs atomic.Int64
}

// Mutator is a reference-counted, typed handle to exactly one Heap record.
// Clones share the record; the storage lives until the last clone is freed.
//
// A Mutator accesses the value's bytes without taking the arena lock: the
// lock protects the allocation ledger, never the allocated bytes.
// Goroutines sharing clones of one handle must coordinate externally, and a
// single Mutator value must not be used from two goroutines at once.
type Mutator[T Allocatable] struct {
	cell  *cell
	mem   *Memory
	freed bool
}

// newMutator wraps ptr in a live handle with a fresh reference count.
// The pointer must be a live ledger address owned by mem.
func newMutator[T Allocatable](ptr unsafe.Pointer, mem *Memory) *Mutator[T] {
	c := &cell{ptr: ptr}
	c.refs.Store(1)
	return &Mutator[T]{cell: c, mem: mem}
}

// Get returns a copy of the value the handle points at.
func (m *Mutator[T]) Get() T {
	m.mustLive("Get")
	return *(*T)(m.cell.ptr)
}

// GetMut returns a pointer to the stored value for in-place mutation. It
// fails with ErrMutatorShared unless the receiver is the only live clone:
// handing out a mutable pointer to shared storage would alias.
func (m *Mutator[T]) GetMut() (*T, error) {
	if m.freed {
		return nil, ErrMutatorFreed
	}
	if m.cell.refs.Load() != 1 {
		return nil, ErrMutatorShared
	}
	return (*T)(m.cell.ptr), nil
}

// Write replaces the stored value. Unlike GetMut it is permitted on shared
// handles; coordinating concurrent writers is the caller's concern.
func (m *Mutator[T]) Write(value T) {
	m.mustLive("Write")
	*(*T)(m.cell.ptr) = value
}

// Clone returns a new live handle to the same record and increments the
// shared reference count.
func (m *Mutator[T]) Clone() *Mutator[T] {
	m.mustLive("Clone")
	m.cell.refs.Add(1)
	return &Mutator[T]{cell: m.cell, mem: m.mem}
}

// RefCount returns the number of live handles sharing this record,
// including the receiver. Always >= 1; a freed handle is not a reference
// and panics here.
func (m *Mutator[T]) RefCount() int {
	m.mustLive("RefCount")
	return int(m.cell.refs.Load())
}

// CanDealloc reports whether freeing the receiver would release the record,
// i.e. whether it is the sole remaining handle. Panics on a freed handle.
func (m *Mutator[T]) CanDealloc() bool {
	m.mustLive("CanDealloc")
	return m.cell.refs.Load() < 2
}

// Free releases this handle. It is idempotent: freeing a freed handle does
// nothing and reports false.
//
// While other clones are live the record is kept and Free reports false -
// reclamation is deferred to whichever clone is freed last. When the
// receiver is the last handle, the stored value is destroyed exactly once,
// the record is removed from the ledger, and Free reports true.
//
// A destructor failure is logged and the record leaked rather than
// propagated: the free path must not fail destructively.
func (m *Mutator[T]) Free() bool {
	if m.freed {
		return false
	}
	m.freed = true
	if m.cell.refs.Add(-1) > 0 {
		return false
	}
	return m.mem.release(m.cell.ptr, LayoutOf[T](), destroy[T])
}

func (m *Mutator[T]) mustLive(op string) {
	if m.freed {
		panic("halloc: " + op + " on freed mutator")
	}
}

// destroy runs the destructor of the T stored at ptr, if it has one: a *T
// implementing io.Closer is closed. A Close error is reported back for
// logging; a Close panic propagates to the caller's recover.
func destroy[T Allocatable](ptr unsafe.Pointer) error {
	v := (*T)(ptr)
	if c, ok := any(v).(io.Closer); ok {
		return c.Close()
	}
	if c, ok := any(*v).(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Cast transcodes a handle to type U by moving the stored bytes into a
// fresh record. The new record is sized to the larger of the two types and
// aligned for U (exactly U's layout when U carries pointers); the old bytes
// are reinterpreted as U and copied over, and the old handle is freed,
// running T's destructor. The source handle is consumed. Clones of the
// source keep the old record alive until they are freed themselves.
//
// This is only well defined when T and U are structurally compatible (same
// field layout and representation). Nothing checks that, statically or at
// runtime; it is the caller's contract. For a cast with no guarantees at
// all, see CastUnchecked.
func Cast[U, T Allocatable](m *Mutator[T]) *Mutator[U] {
	mustAllocatable[U]()
	m.mustLive("Cast")

	from := LayoutOf[T]()
	to := LayoutOf[U]()
	mem := m.mem

	// Reserve the destination inside one critical section, then release the
	// lock before tearing the source down: Free re-acquires it, and holding
	// it across the teardown would deadlock.
	mem.mu.Lock()
	ptr := func() unsafe.Pointer {
		defer mem.mu.Unlock()
		return mem.heap.AllocZeroed(castLayout(from, to))
	}()
	mem.allocs.Add(1)

	// Reinterpret the old storage as U. Bytes past the end of the old value
	// are not carried over; the destination was zero-filled on allocation.
	n := from.Size
	if to.Size < n {
		n = to.Size
	}
	if n > 0 {
		copy(unsafe.Slice((*byte)(ptr), n), unsafe.Slice((*byte)(m.cell.ptr), n))
	}

	m.Free()

	return newMutator[U](ptr, mem)
}

// CastUnchecked retags a handle as type U without moving memory: the old
// value's destructor does not run, U's alignment is ignored, and bytes
// beyond U's size are left in place. The source handle is consumed and
// responsibility for the record passes to the returned handle, which starts
// a fresh family on the same address.
//
// Clones of the source still point at the record and can free it out from
// under the result. There are no safety guarantees here; this is a last
// resort, prefer Cast.
func CastUnchecked[U, T Allocatable](m *Mutator[T]) *Mutator[U] {
	mustAllocatable[U]()
	m.mustLive("CastUnchecked")

	m.freed = true
	m.cell.refs.Add(-1)

	return newMutator[U](m.cell.ptr, m.mem)
}
