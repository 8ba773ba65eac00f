package alloc

import (
	"log/slog"
	"reflect"
	"sync"
	"unsafe"

	"github.com/joshuapare/memkit/internal/logger"
)

// Allocator is the contract every memkit allocator satisfies.
//
// Implementations:
//   - *FixedBlock: same-size blocks with free-list reuse
//   - *Arena: bump allocation, Deallocate is a no-op
//   - Heap: the Go heap
//
// Implementations must be comparable (pointer types) so they can be
// registered by identity.
type Allocator interface {
	// Allocate returns size bytes aligned to a machine word, or nil on failure.
	Allocate(size uintptr) unsafe.Pointer

	// Deallocate returns a block obtained from Allocate. A nil pointer is ignored.
	Deallocate(p unsafe.Pointer)
}

// Destroyer is implemented by payloads that need cleanup before their memory
// is returned. Destroy runs exactly once per constructed value.
type Destroyer interface {
	Destroy()
}

const wordSize = unsafe.Sizeof(uintptr(0))

// New allocates a T from a and copies v into it. It returns nil when the
// allocator is exhausted or when T holds Go pointers and a is not Heap.
func New[T any](a Allocator, v T) *T {
	if a == nil {
		return nil
	}
	if a == Allocator(Heap) {
		p := new(T)
		*p = v
		return p
	}
	if !PointerFree[T]() {
		logger.L().Debug("alloc: refusing pointerful type off-heap", slog.String("type", reflect.TypeFor[T]().String()))
		return nil
	}
	size := unsafe.Sizeof(v)
	if size == 0 {
		size = 1
	}
	p := (*T)(a.Allocate(size))
	if p == nil {
		return nil
	}
	*p = v
	return p
}

// Delete runs the payload's Destroy method, if any, and returns its memory to a.
func Delete[T any](a Allocator, p *T) {
	if p == nil || a == nil {
		return
	}
	Destroy(p)
	var zero T
	*p = zero
	if a == Allocator(Heap) {
		return
	}
	a.Deallocate(unsafe.Pointer(p))
}

// Destroy calls p.Destroy when *T implements Destroyer.
func Destroy[T any](p *T) {
	if d, ok := any(p).(Destroyer); ok {
		d.Destroy()
	}
}

var pointerFree sync.Map // reflect.Type -> bool

// PointerFree reports whether values of type T contain no Go pointers and may
// therefore live in memory the garbage collector does not scan.
func PointerFree[T any]() bool {
	t := reflect.TypeFor[T]()
	if v, ok := pointerFree.Load(t); ok {
		return v.(bool)
	}
	free := typePointerFree(t)
	pointerFree.Store(t, free)
	return free
}

func typePointerFree(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	case reflect.Array:
		return t.Len() == 0 || typePointerFree(t.Elem())
	case reflect.Struct:
		for i := range t.NumField() {
			if !typePointerFree(t.Field(i).Type) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// SetLogger installs the default logger used by allocators constructed
// without WithLogger. A nil logger discards.
func SetLogger(l *slog.Logger) {
	logger.Set(l)
}
