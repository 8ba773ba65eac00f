package alloc

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counted struct {
	id    int
	calls *int
}

func (c *counted) Destroy() { *c.calls++ }

type plain struct {
	X, Y float64
	Tag  [4]byte
}

type destroyLog struct {
	id int64
}

var destroyed []int64

func (d *destroyLog) Destroy() { destroyed = append(destroyed, d.id) }

func TestPointerFree(t *testing.T) {
	assert.True(t, PointerFree[int]())
	assert.True(t, PointerFree[plain]())
	assert.True(t, PointerFree[[0]*int]())
	assert.True(t, PointerFree[struct{}]())

	assert.False(t, PointerFree[*int]())
	assert.False(t, PointerFree[string]())
	assert.False(t, PointerFree[[]byte]())
	assert.False(t, PointerFree[counted]())
	assert.False(t, PointerFree[map[int]int]())
	assert.False(t, PointerFree[[2]any]())
}

func TestNewDelete_Heap(t *testing.T) {
	calls := 0
	p := New(Allocator(Heap), counted{id: 7, calls: &calls})
	require.NotNil(t, p)
	assert.Equal(t, 7, p.id)

	Delete(Allocator(Heap), p)
	assert.Equal(t, 1, calls)
	assert.Nil(t, p.calls, "payload zeroed after destroy")
}

func TestNewDelete_FixedBlock(t *testing.T) {
	fb := newFixed(t, &CountTracking{}, unsafe.Sizeof(destroyLog{}))
	destroyed = nil

	p := New(Allocator(fb), destroyLog{id: 11})
	require.NotNil(t, p)
	require.True(t, fb.Owns(unsafe.Pointer(p)))
	require.Equal(t, int64(1), fb.Tracker().AllocationDifference())

	Delete(Allocator(fb), p)
	assert.Equal(t, []int64{11}, destroyed)
	assert.Zero(t, fb.Tracker().AllocationDifference())

	calls := 0
	assert.Nil(t, New(Allocator(fb), counted{calls: &calls}), "pointerful payloads stay on the Go heap")
	assert.Nil(t, New[int](nil, 1))
	assert.NotPanics(t, func() { Delete[int](fb, nil) })
}

func TestNew_Exhaustion(t *testing.T) {
	fb := newFixed(t, &NoTracking{}, 8, WithPages(1))
	for range blocksPerPage(8) {
		require.NotNil(t, New(Allocator(fb), int64(1)))
	}
	assert.Nil(t, New(Allocator(fb), int64(1)))
	assert.Nil(t, New(Allocator(fb), plain{}), "too large for the block")
}

func TestHeapAllocator(t *testing.T) {
	base := Heap.Live()
	p := Heap.Allocate(3)
	require.NotNil(t, p)
	assert.Zero(t, uintptr(p)%8)
	assert.Equal(t, base+1, Heap.Live())

	*(*uint64)(p) = 99
	Heap.Deallocate(p)
	Heap.Deallocate(nil)
	assert.Equal(t, base, Heap.Live())
}

func TestHeapAllocator_ZeroValue(t *testing.T) {
	var h HeapAllocator
	assert.Zero(t, h.Live())
	h.Deallocate(unsafe.Pointer(&h))

	var p unsafe.Pointer
	require.NotPanics(t, func() { p = h.Allocate(8) })
	require.NotNil(t, p)
	assert.Equal(t, 1, h.Live())

	h.Deallocate(p)
	assert.Zero(t, h.Live())
}

func TestRegistry(t *testing.T) {
	assert.Equal(t, HeapID, Register(Heap))
	assert.Equal(t, Allocator(Heap), Lookup(HeapID))

	a := newArena(t)
	b := newArena(t)
	ida := Register(a)
	idb := Register(b)
	assert.NotEqual(t, HeapID, ida)
	assert.NotEqual(t, ida, idb)
	assert.Equal(t, ida, Register(a), "registration is idempotent")

	Unregister(a)
	assert.Nil(t, Lookup(ida))
	assert.Equal(t, Allocator(b), Lookup(idb))
	assert.NotEqual(t, ida, Register(a), "ids are never reused")

	id, ok := IDOf(b)
	assert.True(t, ok)
	assert.Equal(t, idb, id)
	Unregister(b)
	_, ok = IDOf(b)
	assert.False(t, ok)

	Unregister(Heap)
	assert.Equal(t, Allocator(Heap), Lookup(HeapID))
	id, ok = IDOf(Heap)
	assert.True(t, ok)
	assert.Equal(t, HeapID, id)
}
