package handles

import (
	"runtime"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/memkit/mem/alloc"
	"github.com/joshuapare/memkit/mem/ptr"
)

var order []string

type intBox struct{ v int64 }

func (b *intBox) Destroy() { order = append(order, "int") }

type floatBox struct{ v float64 }

func (b *floatBox) Destroy() { order = append(order, "float") }

type tagged struct{ id int }

func (b *tagged) Destroy() { order = append(order, "tagged") }

func newFixed(t *testing.T) *alloc.FixedBlock[*alloc.CountTracking] {
	t.Helper()
	fb, err := alloc.NewFixedBlock(&alloc.CountTracking{}, 64)
	require.NoError(t, err)
	t.Cleanup(func() { _ = fb.Close() })
	return fb
}

func newHandles(t *testing.T, opts ...Option) *Allocator {
	t.Helper()
	h, err := New(opts...)
	require.NoError(t, err)
	return h
}

// TestReset_MixedHandles packs shared and strong handles of different payload
// types into one buffer and checks that Reset destroys each payload once, in
// insertion order.
func TestReset_MixedHandles(t *testing.T) {
	order = nil
	fb := newFixed(t)
	h := newHandles(t)

	want := make([]string, 0, 6)
	for i := range 3 {
		sp, err := Shared(h, fb, intBox{v: int64(i)})
		require.NoError(t, err)
		require.Equal(t, int64(i), sp.Get().v)
		want = append(want, "int")

		st, err := Strong(h, fb, floatBox{v: float64(i) / 2})
		require.NoError(t, err)
		require.Equal(t, float64(i)/2, st.Get().v)
		want = append(want, "float")
	}
	require.Equal(t, 6, h.Len())
	require.Empty(t, order)
	require.Equal(t, int64(6), fb.Tracker().AllocationDifference())

	h.Reset()
	assert.Equal(t, want, order)
	assert.Zero(t, h.Len())
	assert.Zero(t, fb.Tracker().AllocationDifference(), "every control block returned")

	h.Reset()
	assert.Len(t, order, 6, "second reset releases nothing")
}

func TestReset_WeakSlots(t *testing.T) {
	order = nil
	fb := newFixed(t)
	h := newHandles(t)

	st, err := Strong(h, fb, tagged{id: 1})
	require.NoError(t, err)
	wk, err := Weak(h, st)
	require.NoError(t, err)
	require.Equal(t, uint(1), st.WeakCount())
	require.Equal(t, 1, wk.Get().id)

	h.Reset()
	assert.Equal(t, []string{"tagged"}, order)
	assert.Zero(t, fb.Tracker().AllocationDifference(), "block freed once the weak slot is released")
}

func TestReset_SkipsReleasedSlots(t *testing.T) {
	order = nil
	fb := newFixed(t)
	h := newHandles(t)

	a, err := Shared(h, fb, intBox{v: 1})
	require.NoError(t, err)
	_, err = Shared(h, fb, floatBox{v: 2})
	require.NoError(t, err)

	a.Release()
	require.Equal(t, []string{"int"}, order)

	h.Reset()
	assert.Equal(t, []string{"int", "float"}, order)
	assert.Zero(t, fb.Tracker().AllocationDifference())
}

func TestAdopt(t *testing.T) {
	order = nil
	fb := newFixed(t)
	h := newHandles(t)

	sp, err := ptr.MakeShared(fb, intBox{v: 5})
	require.NoError(t, err)
	extra := sp.Clone()

	slot := h.Adopt(sp.Handle())
	require.NotNil(t, slot)
	assert.True(t, sp.IsNil(), "adopted handle moved into the slot")
	assert.Equal(t, ptr.KindShared, slot.Kind())

	h.Reset()
	assert.Empty(t, order, "clone outside the buffer keeps the payload")
	extra.Release()
	assert.Equal(t, []string{"int"}, order)
}

func TestChunksAndCap(t *testing.T) {
	fb := newFixed(t)
	h := newHandles(t, WithChunkSlots(4), WithMaxSlots(6))

	for i := range 6 {
		_, err := Shared(h, fb, intBox{v: int64(i)})
		require.NoError(t, err)
	}
	assert.Equal(t, 8, h.Cap())

	_, err := Shared(h, fb, intBox{})
	require.ErrorIs(t, err, ErrFull)
	_, err = Strong(h, fb, floatBox{})
	require.ErrorIs(t, err, ErrFull)
	assert.Equal(t, int64(6), fb.Tracker().AllocationDifference(), "rejected handles released their blocks")

	h.Reset()
	assert.Equal(t, 8, h.Cap(), "chunks kept across reset")

	h.Close()
	assert.Zero(t, h.Cap())
	assert.Zero(t, fb.Tracker().AllocationDifference())
}

func TestConstructionErrorsPropagate(t *testing.T) {
	h := newHandles(t)
	_, err := Shared[int](h, nil, 1)
	require.ErrorIs(t, err, ptr.ErrNilAllocator)
	assert.Zero(t, h.Len())
}

func TestOptions(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"zero chunk slots", WithChunkSlots(0)},
		{"negative chunk slots", WithChunkSlots(-1)},
		{"zero max slots", WithMaxSlots(0)},
		{"negative max slots", WithMaxSlots(-3)},
		{"nil logger", WithLogger(nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := New(tt.opt)
			require.ErrorIs(t, err, ErrBadOption)
			assert.Nil(t, h)
		})
	}
}

func TestWeak_NilStrong(t *testing.T) {
	h := newHandles(t)

	var empty ptr.StrongPtr[tagged]
	wk, err := Weak(h, &empty)
	require.ErrorIs(t, err, ErrNilHandle)
	assert.Nil(t, wk)

	wk, err = Weak[tagged](h, nil)
	require.ErrorIs(t, err, ErrNilHandle)
	assert.Nil(t, wk)
	assert.Zero(t, h.Len(), "no slot used")
}

type heapPayload struct {
	name string
	data []int
}

func TestHeapHandlesSurviveGC(t *testing.T) {
	h := newHandles(t)
	for i := range 100 {
		_, err := Shared(h, alloc.Heap, heapPayload{name: "p", data: []int{i}})
		require.NoError(t, err)
	}
	runtime.GC()

	first := h.chunks[0][0]
	sp := (*ptr.SharedPtr[heapPayload])(unsafe.Pointer(&first))
	require.Equal(t, "p", sp.Get().name)
	require.Equal(t, []int{0}, sp.Get().data)

	h.Close()
}
