package halloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsSnapshot(t *testing.T) {
	mem := New()
	defer mem.Close()

	h64 := Alloc(mem, int64(1))
	hb := Alloc(mem, true)
	require.True(t, hb.Free())

	s := mem.Metrics()
	assert.Equal(t, 8, s.LiveBytes)
	assert.Equal(t, 1, s.LiveRecords)
	assert.Equal(t, int64(2), s.TotalAllocs)
	assert.Equal(t, int64(1), s.TotalFrees)
	assert.Equal(t, int64(0), s.Leaked)

	h64.Free()
	s = mem.Metrics()
	assert.Equal(t, 0, s.LiveBytes)
	assert.Equal(t, 0, s.LiveRecords)
	assert.Equal(t, int64(2), s.TotalFrees)
}

func TestMetricsString(t *testing.T) {
	mem := New()
	defer mem.Close()

	h := Alloc(mem, int64(42))
	require.Equal(t,
		"8 B live in 1 records; allocs=1 frees=0 leaked=0",
		mem.Metrics().String())

	h.Free()
	require.Equal(t,
		"0 B live in 0 records; allocs=1 frees=1 leaked=0",
		mem.Metrics().String())
}

func TestLeakedRecordCountedOnce(t *testing.T) {
	mem := New()

	h := Alloc(mem, explosive{armed: true})
	require.False(t, h.Free())
	require.Equal(t, int64(1), mem.Metrics().Leaked)

	_ = Alloc(mem, int64(9)) // a second, ordinary leak swept by Close

	mem.Close()
	s := mem.Metrics()
	require.Equal(t, int64(2), s.Leaked,
		"a record abandoned by its destructor must not be recounted at Close")
}

func TestMetricsCountsCastAllocations(t *testing.T) {
	mem := New()
	defer mem.Close()

	a := Alloc(mem, pointA{X: 1, Y: 2})
	b := Cast[pointB](a)

	s := mem.Metrics()
	assert.Equal(t, int64(2), s.TotalAllocs, "cast reserves a new record")
	assert.Equal(t, int64(1), s.TotalFrees, "cast frees the old record")

	b.Free()
}
