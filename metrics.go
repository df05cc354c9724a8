package halloc

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// MemoryMetrics is a point-in-time snapshot of arena statistics.
type MemoryMetrics struct {
	LiveBytes   int   // bytes currently tracked by the ledger
	LiveRecords int   // records currently tracked by the ledger
	TotalAllocs int64 // allocations performed over the arena's lifetime
	TotalFrees  int64 // records released through the free path
	Leaked      int64 // records abandoned by Close or a destructor failure
}

// String renders the snapshot as a single human-readable line.
func (s MemoryMetrics) String() string {
	return fmt.Sprintf("%s live in %d records; allocs=%d frees=%d leaked=%d",
		humanize.IBytes(uint64(s.LiveBytes)), s.LiveRecords,
		s.TotalAllocs, s.TotalFrees, s.Leaked)
}

// Metrics returns a snapshot of arena statistics. The ledger lock is held
// only while the live numbers are read.
func (m *Memory) Metrics() MemoryMetrics {
	m.mu.Lock()
	live := m.heap.Size()
	records := m.heap.Count()
	m.mu.Unlock()

	return MemoryMetrics{
		LiveBytes:   live,
		LiveRecords: records,
		TotalAllocs: m.allocs.Load(),
		TotalFrees:  m.frees.Load(),
		Leaked:      m.leaked.Load(),
	}
}
