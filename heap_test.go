package halloc

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func TestNewHeap(t *testing.T) {
	tests := []struct {
		name string
		hint int
		want int
	}{
		{"default-style hint", 8, 8},
		{"zero hint", 0, 0},
		{"negative hint", -1, 0},
		{"large hint", 1024, 1024},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHeap(tt.hint)
			require.NotNil(t, h.allocs)
			require.Equal(t, tt.want, cap(h.allocs))
			require.Equal(t, 0, h.Count())
			require.Equal(t, 0, h.Size())
		})
	}
}

func TestHeapAllocRecordsLedger(t *testing.T) {
	h := NewHeap(2)

	p1 := h.Alloc(LayoutOf[int64]())
	require.NotNil(t, p1)
	require.Equal(t, 1, h.Count())
	require.Equal(t, 8, h.Size())

	p2 := h.Alloc(LayoutOf[int32]())
	require.NotNil(t, p2)
	require.Equal(t, 2, h.Count())
	require.Equal(t, 12, h.Size())
}

func TestHeapAllocAlignment(t *testing.T) {
	h := NewHeap(4)

	for _, layout := range []Layout{
		LayoutOf[int8](),
		LayoutOf[int16](),
		LayoutOf[int32](),
		LayoutOf[int64](),
		LayoutOf[float64](),
	} {
		ptr := h.Alloc(layout)
		require.Zero(t, uintptr(ptr)%layout.Align,
			"address %p not aligned to %d", ptr, layout.Align)
	}
}

func TestHeapAllocZeroSize(t *testing.T) {
	h := NewHeap(1)

	ptr := h.Alloc(Layout{Size: 0, Align: 1})
	require.NotNil(t, ptr)
	require.Equal(t, 1, h.Count())
	require.Equal(t, 0, h.Size())
	require.Empty(t, h.Bytes())

	h.Dealloc(ptr, Layout{Size: 0, Align: 1})
	require.Equal(t, 0, h.Count())
}

func TestHeapAllocZeroed(t *testing.T) {
	h := NewHeap(1)

	layout := LayoutOf[int64]()
	ptr := h.AllocZeroed(layout)

	for i, b := range unsafe.Slice((*byte)(ptr), layout.Size) {
		require.Zero(t, b, "byte %d not zeroed", i)
	}
}

func TestHeapTypedRecords(t *testing.T) {
	h := NewHeap(2)

	// Pointer-free layouts carry no runtime type; pointer-carrying ones do.
	require.Nil(t, LayoutOf[int64]().typ)
	require.NotNil(t, LayoutOf[string]().typ)
	require.NotNil(t, LayoutOf[[]int64]().typ)
	require.NotNil(t, LayoutOf[map[string]bool]().typ)

	layout := LayoutOf[string]()
	ptr := h.AllocZeroed(layout)
	require.Zero(t, uintptr(ptr)%layout.Align)
	require.Equal(t, int(layout.Size), h.Size())

	*(*string)(ptr) = "hello"
	require.Equal(t, "hello", *(*string)(ptr))

	h.Dealloc(ptr, layout)
	require.Equal(t, 0, h.Count())
}

func TestHeapDealloc(t *testing.T) {
	h := NewHeap(2)

	layout := LayoutOf[int64]()
	p1 := h.Alloc(layout)
	p2 := h.Alloc(layout)

	h.Dealloc(p1, layout)
	require.Equal(t, 1, h.Count())
	require.Equal(t, 8, h.Size())

	h.Dealloc(p2, layout)
	require.Equal(t, 0, h.Count())
	require.Equal(t, 0, h.Size())
}

func TestHeapDeallocUntracked(t *testing.T) {
	h := NewHeap(1)

	var x int64
	require.Panics(t, func() {
		h.Dealloc(unsafe.Pointer(&x), LayoutOf[int64]())
	})
}

func TestHeapBytesOrder(t *testing.T) {
	h := NewHeap(3)

	layout := LayoutOf[uint8]()
	for _, v := range []uint8{0xAA, 0xBB, 0xCC} {
		ptr := h.Alloc(layout)
		*(*uint8)(ptr) = v
	}

	require.Equal(t, []byte{0xAA, 0xBB, 0xCC}, h.Bytes())
}

func TestHeapRelease(t *testing.T) {
	h := NewHeap(1)
	h.Alloc(LayoutOf[int64]())

	h.release()
	require.True(t, h.released())
	require.Equal(t, 0, h.Count())

	require.Panics(t, func() {
		h.Alloc(LayoutOf[int64]())
	})
}
