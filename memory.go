package halloc

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"unsafe"
)

// Memory is the arena facade: it owns one Heap behind a mutex and is the
// sole public entry point for turning a value into a handle and for
// querying aggregate ledger state. No operation blocks for longer than one
// short critical section.
type Memory struct {
	mu   sync.Mutex
	heap *Heap

	logger *slog.Logger

	allocs atomic.Int64
	frees  atomic.Int64
	leaked atomic.Int64
}

// New constructs an arena with an empty ledger.
func New(opts ...Option) *Memory {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Memory{
		heap:   NewHeap(o.sizeHint),
		logger: o.logger,
	}
}

// Alloc moves value into arena storage and returns a live handle to it.
// The storage is zero-filled before the value is written, so uninitialized
// bytes are never observable.
//
// Alloc panics if T is not registered as Allocatable or the arena has been
// closed. It aborts the process if the allocation itself cannot be
// satisfied; out of memory is not a recoverable condition here.
func Alloc[T Allocatable](m *Memory, value T) *Mutator[T] {
	mustAllocatable[T]()
	layout := LayoutOf[T]()

	m.mu.Lock()
	ptr := func() unsafe.Pointer {
		defer m.mu.Unlock()
		return m.heap.AllocZeroed(layout)
	}()
	m.allocs.Add(1)

	*(*T)(ptr) = value
	return newMutator[T](ptr, m)
}

// Dealloc frees the handle through the arena. It is a convenience alias for
// Mutator.Free and reports whether the backing record was released.
func Dealloc[T Allocatable](m *Memory, mut *Mutator[T]) bool {
	return mut.Free()
}

// KeepAlive returns ptr and keeps the arena reachable across the call.
// Use it to pin the backing storage while a raw pointer obtained from a
// handle is still in use in unsafe code.
func KeepAlive[T any](m *Memory, ptr *T) *T {
	runtime.KeepAlive(m)
	return ptr
}

// Bytes returns a copy of the live bytes of every tracked allocation, in
// ledger order.
func (m *Memory) Bytes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.heap.Bytes()
}

// Size returns the total number of bytes currently tracked by the ledger.
func (m *Memory) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.heap.Size()
}

// Count returns the number of records currently tracked by the ledger.
func (m *Memory) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.heap.Count()
}

// Close releases every live record and makes the arena unusable. Records
// still referenced by outstanding handles are reclaimed without running
// their destructors and reported as leaks. Closing twice is harmless;
// freeing a handle after Close is a logged no-op.
func (m *Memory) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.heap.released() {
		return
	}
	if n := m.heap.Count(); n > 0 {
		m.logger.Warn("closing arena with live allocations",
			"records", n,
			"bytes", m.heap.Size(),
		)
		// Records abandoned by a failed destructor were counted already.
		m.leaked.Add(int64(m.heap.unleakedCount()))
	}
	m.heap.release()
}

// release is the free path shared by every handle: it runs the value's
// destructor and removes the record, all inside the ledger's critical
// section. A destructor panic is recovered, logged, and leaks the record;
// teardown never propagates a failure.
func (m *Memory) release(ptr unsafe.Pointer, layout Layout, dtor func(unsafe.Pointer) error) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.heap.released() {
		m.logger.Debug("free after close ignored", "addr", fmt.Sprintf("%p", ptr))
		return false
	}

	destroyed := true
	func() {
		defer func() {
			if r := recover(); r != nil {
				m.logger.Error("destructor panicked, leaking allocation",
					"addr", fmt.Sprintf("%p", ptr),
					"panic", r,
				)
				m.leaked.Add(1)
				m.heap.markLeaked(ptr)
				destroyed = false
			}
		}()
		if err := dtor(ptr); err != nil {
			m.logger.Warn("destructor returned error",
				"addr", fmt.Sprintf("%p", ptr),
				"error", err,
			)
		}
	}()
	if !destroyed {
		return false
	}

	m.heap.Dealloc(ptr, layout)
	m.frees.Add(1)
	return true
}
