// Package alloc provides fixed-block and arena allocators over reserved
// virtual memory, plus the allocator contract the rest of memkit consumes.
//
// # Overview
//
// Every allocator in this package owns one reservation obtained from
// internal/vmem. The reservation never grows; pages inside it are committed
// in granularity-sized chunks as the bump cursor advances and decommitted
// again when the cursor rewinds far enough.
//
// # Allocator Interface
//
// The contract consumed by containers and by the ownership pointers in
// mem/ptr is deliberately small:
//
//   - Allocate(size): returns size bytes, or nil on failure
//   - Deallocate(p): returns a block; nil is ignored
//
// New and Delete layer typed construction and destruction on top of it.
//
// # Implementations
//
// FixedBlock: same-size blocks with intrusive free-list reuse
//
//   - O(1) allocation and deallocation
//   - LIFO frees rewind the bump cursor instead of growing the free list
//   - Trailing chunks are decommitted with one chunk of hysteresis
//   - Diagnostics chosen at compile time through the Tracker parameter
//
// Arena: variable-size bump allocation without per-block deallocation
//
//   - Reset rewinds everything at once, optionally returning pages
//
// Heap: the Go heap, for payloads that hold Go pointers
//
// # Tracking Policies
//
//	NoTracking          no bookkeeping
//	CountTracking       allocation difference, used to assert no leaks at Close
//	DoubleFreeTracking  one header word per slot counting deallocations
//
// # Usage Example
//
//	fb, err := alloc.NewFixedBlock(&alloc.CountTracking{}, 64, alloc.WithPages(4))
//	if err != nil {
//	    return err
//	}
//	defer fb.Close()
//
//	p, err := fb.Alloc()
//	if err != nil {
//	    return err
//	}
//	*(*uint64)(p) = 42
//	err = fb.Free(p)
//
// # Go Pointers
//
// Memory handed out by FixedBlock and Arena is not scanned by the Go garbage
// collector. Values stored there must not contain Go pointers; New refuses
// such types for every allocator except Heap. Free-list links are stored as
// region offsets for the same reason.
//
// # Thread Safety
//
// Allocator instances are not thread-safe. Callers must serialize access
// externally. Only the process-wide registry and Heap are synchronized.
package alloc
