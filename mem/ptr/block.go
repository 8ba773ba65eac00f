package ptr

import (
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"unsafe"

	"github.com/joshuapare/memkit/internal/logger"
	"github.com/joshuapare/memkit/mem/alloc"
)

type blockKind uint32

const (
	kindShared blockKind = iota + 1
	kindDual
)

// header is the pointer-free prefix of every control block. For single-count
// blocks strong is the reference count.
type header struct {
	kind   blockKind
	alloc  alloc.ID
	ops    uint32
	strong uint
}

type dualHeader struct {
	header
	weak uint
}

type sharedBlock[T any] struct {
	header
	val T
}

type dualBlock[T any] struct {
	dualHeader
	val T
}

// payloadOps destroys the payload of a control block whose type is only known
// by its ops index.
type payloadOps struct {
	name          string
	destroyShared func(cb unsafe.Pointer)
	destroyDual   func(cb unsafe.Pointer)
}

var opsTable = struct {
	sync.RWMutex
	byType map[reflect.Type]uint32
	ops    []*payloadOps
}{
	byType: map[reflect.Type]uint32{},
}

// opsIndex returns the ops index for T, registering it on first use.
func opsIndex[T any]() uint32 {
	t := reflect.TypeFor[T]()

	opsTable.RLock()
	id, ok := opsTable.byType[t]
	opsTable.RUnlock()
	if ok {
		return id
	}

	opsTable.Lock()
	defer opsTable.Unlock()
	if id, ok := opsTable.byType[t]; ok {
		return id
	}
	id = uint32(len(opsTable.ops))
	opsTable.ops = append(opsTable.ops, &payloadOps{
		name: t.String(),
		destroyShared: func(cb unsafe.Pointer) {
			destroyValue(&(*sharedBlock[T])(cb).val)
		},
		destroyDual: func(cb unsafe.Pointer) {
			destroyValue(&(*dualBlock[T])(cb).val)
		},
	})
	opsTable.byType[t] = id
	return id
}

func opsAt(id uint32) *payloadOps {
	opsTable.RLock()
	defer opsTable.RUnlock()
	return opsTable.ops[id]
}

func destroyValue[T any](v *T) {
	alloc.Destroy(v)
	var zero T
	*v = zero
}

// newBlock obtains zeroed memory for a control block of type B holding a T.
// Heap blocks are typed Go objects; every other allocator gets raw memory and
// therefore only pointer-free payloads.
func newBlock[B, T any](a alloc.Allocator) (unsafe.Pointer, alloc.ID, error) {
	if a == nil {
		return nil, 0, ErrNilAllocator
	}
	if a == alloc.Allocator(alloc.Heap) {
		return unsafe.Pointer(new(B)), alloc.HeapID, nil
	}
	if !alloc.PointerFree[T]() {
		return nil, 0, fmt.Errorf("%w: %s", ErrPointerPayload, reflect.TypeFor[T]())
	}
	var zero B
	p := a.Allocate(unsafe.Sizeof(zero))
	if p == nil {
		return nil, 0, fmt.Errorf("%w: %d bytes for %s", ErrAllocation, unsafe.Sizeof(zero), reflect.TypeFor[T]())
	}
	*(*B)(p) = zero
	// Registered only once it has handed out a block, so a closed
	// allocator never comes back into the registry.
	return p, alloc.Register(a), nil
}

// freeBlock returns a control block to the allocator recorded in its header.
func freeBlock(cb unsafe.Pointer) {
	h := (*header)(cb)
	if h.alloc == alloc.HeapID {
		return
	}
	a := alloc.Lookup(h.alloc)
	if a == nil {
		logger.L().Warn("ptr: allocator closed before control block release, leaking block",
			slog.Uint64("allocator", uint64(h.alloc)),
			slog.String("payload", opsAt(h.ops).name))
		return
	}
	a.Deallocate(cb)
}

func releaseShared(cb unsafe.Pointer) {
	h := (*header)(cb)
	h.strong--
	if h.strong > 0 {
		return
	}
	opsAt(h.ops).destroyShared(cb)
	freeBlock(cb)
}

func releaseStrong(cb unsafe.Pointer) {
	d := (*dualHeader)(cb)
	d.strong--
	if d.strong > 0 {
		return
	}
	// The block stays allocated while Destroy runs, even if the payload
	// drops the last weak handle to itself.
	d.weak++
	opsAt(d.ops).destroyDual(cb)
	d.weak--
	if d.weak == 0 {
		freeBlock(cb)
	}
}

func releaseWeak(cb unsafe.Pointer) {
	d := (*dualHeader)(cb)
	d.weak--
	if d.weak == 0 && d.strong == 0 {
		freeBlock(cb)
	}
}
