// Package halloc implements a safe-handle layer over manual heap allocation.
//
// # Overview
//
// halloc lets a program move typed values into arena-owned storage, share
// reference-counted handles to a single allocation, mutate or replace the
// pointed-to value, and deterministically reclaim the storage when the last
// handle is freed. This is useful for:
//
//   - Values whose lifetime does not follow normal scoping
//   - Sharing one allocation between several owners without copying
//   - Deterministic, count-driven reclamation instead of GC timing
//   - Byte-level introspection of everything a program has allocated
//
// # Basic Usage
//
//	mem := halloc.New()          // or halloc.New(halloc.WithSizeHint(64))
//	defer mem.Close()            // Clean up when done
//
//	// Move a value into the arena and get a handle back
//	h := halloc.Alloc(mem, int64(42))
//
//	v := h.Get()                 // read: 42
//	h.Write(7)                   // replace the stored value
//	clone := h.Clone()           // second handle to the same storage
//
//	clone.Free()                 // deferred: h is still live
//	h.Free()                     // last handle: storage reclaimed
//
// # Architecture
//
// Three layers, leaves first. Heap is the allocation table: a flat ledger of
// live records, each backed by its own never-relocated storage. Mutator is
// the reference-counted typed handle with read/write/clone/cast/free
// operations. Memory is the facade that owns one Heap behind a mutex and is
// the only way to allocate.
//
// # Thread Safety
//
// A Memory may be shared freely between goroutines: every ledger operation
// runs in one short critical section. Handle access (Get, GetMut, Write)
// deliberately bypasses that lock - the lock protects the allocation ledger,
// never the allocated bytes. Goroutines sharing clones of one handle must
// coordinate externally.
//
// # Storable Types
//
// Only registered types may be stored. Fixed-width integers, floats, bool
// and string are registered out of the box; slices and maps are eligible
// whenever their element (and key) types are. Application types opt in with
// Register:
//
//	halloc.Register[Point]()
//
// # Important Notes
//
//   - Records of pointer-carrying types (string, slices, maps, pointer
//     fields) are backed by typed storage, so the data a stored value
//     references stays reachable for the record's lifetime. Pointer-free
//     types use raw byte buffers; smuggling a pointer into one as an
//     integer is not traced.
//   - Every handle must be freed (or the Memory closed); there is no
//     implicit drop in Go.
//   - A stored value whose pointer type implements io.Closer is closed
//     exactly once, when the last handle to its record is freed.
//
// # Metrics and Monitoring
//
// Memory exposes aggregate state directly and as a snapshot:
//
//	metrics := mem.Metrics()
//	fmt.Printf("%s\n", metrics)
//
// A prometheus.Collector over the same numbers is available via
// NewCollector.
package halloc
