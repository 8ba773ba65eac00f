// Package ptr provides reference-counted ownership handles over memkit
// allocators.
//
// SharedPtr keeps a single count. StrongPtr and WeakPtr share a dual-count
// control block: the payload is destroyed when the last strong handle goes
// away, and the block itself is returned to its allocator once the last weak
// handle is gone as well.
//
// Handles are two machine words whatever the payload type: a control block
// pointer and a cached payload pointer. They all share the non-generic Handle
// layout, so a buffer of Handles can be torn down without knowing what each
// one points to (see mem/handles).
//
// Go values are copied without hooks, so ownership operations are explicit:
//
//	sp, err := ptr.MakeShared(fb, Vec3{1, 2, 3})
//	if err != nil {
//	    return err
//	}
//	defer sp.Release()
//
//	other := sp.Clone() // refcount 2
//	moved := other.Move() // refcount 2, other is now nil
//	moved.Release()       // refcount 1
//
// Payloads implementing alloc.Destroyer have Destroy called exactly once.
//
// Counts are plain integers. Handles that share a control block must be used
// from one goroutine at a time.
package ptr
