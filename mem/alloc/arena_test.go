package alloc

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newArena(t testing.TB, opts ...Option) *Arena {
	t.Helper()
	a, err := NewArena(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestArena_BumpAndAlign(t *testing.T) {
	a := newArena(t)

	p1, err := a.Alloc(3, 1)
	require.NoError(t, err)
	p2, err := a.Alloc(8, 8)
	require.NoError(t, err)
	assert.Equal(t, uintptr(p1)+8, uintptr(p2), "second block aligned up to 8")
	assert.Zero(t, uintptr(p2)%8)

	p3, err := a.Alloc(1, 64)
	require.NoError(t, err)
	assert.Zero(t, uintptr(p3)%64)
	assert.Equal(t, int(uintptr(p3)-uintptr(p1))+1, a.Len())

	_, err = a.Alloc(8, 3)
	require.ErrorIs(t, err, ErrBadAlign)
}

func TestArena_GrowsAndExhausts(t *testing.T) {
	ps := int(pageSize())
	a := newArena(t, WithPages(2))
	require.Equal(t, 1, a.Stats().CommittedPages)
	require.Equal(t, 2*ps, a.Cap())

	_, err := a.Alloc(uintptr(ps), 8)
	require.NoError(t, err)
	require.Equal(t, 1, a.Stats().CommittedPages)

	p, err := a.Alloc(8, 8)
	require.NoError(t, err)
	require.Equal(t, 2, a.Stats().CommittedPages)
	*(*uint64)(p) = 1

	_, err = a.Alloc(uintptr(ps), 8)
	require.ErrorIs(t, err, ErrNoSpace)
	require.Nil(t, a.Allocate(uintptr(ps)))
}

func TestArena_Reset(t *testing.T) {
	ps := pageSize()
	a := newArena(t, WithPages(8), WithGranularity(2))
	require.Equal(t, 2, a.Stats().CommittedPages)

	_, err := a.Alloc(5*ps, 8)
	require.NoError(t, err)
	require.Equal(t, 6, a.Stats().CommittedPages)

	a.Reset(false)
	assert.Zero(t, a.Len())
	assert.Equal(t, 6, a.Stats().CommittedPages, "pages kept without releasePages")

	_, err = a.Alloc(ps, 8)
	require.NoError(t, err)

	a.Reset(true)
	assert.Equal(t, 2, a.Stats().CommittedPages, "everything past the first chunk decommitted")
	assert.Equal(t, int(5*ps), a.Peak(), "peak survives reset")

	p, err := a.Alloc(16, 8)
	require.NoError(t, err)
	require.Equal(t, a.r.base, p)
}

func TestArena_AsAllocator(t *testing.T) {
	a := newArena(t)

	type pair struct{ A, B int64 }
	p := New(Allocator(a), pair{A: 1, B: 2})
	require.NotNil(t, p)
	assert.Equal(t, int64(3), p.A+p.B)

	before := a.Len()
	Delete(Allocator(a), p)
	assert.Equal(t, before, a.Len(), "arena blocks are not freed individually")

	require.NoError(t, a.Close())
	_, err := a.Alloc(8, 8)
	require.ErrorIs(t, err, ErrClosed)
	require.Zero(t, a.Cap())
}

func TestArena_ZeroSize(t *testing.T) {
	a := newArena(t)
	p := a.Allocate(0)
	q := a.Allocate(0)
	require.NotNil(t, p)
	require.NotEqual(t, p, q, "zero-size requests still get distinct addresses")
	require.Equal(t, unsafe.Add(p, 8), q)
}
