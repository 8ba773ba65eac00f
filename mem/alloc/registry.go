package alloc

import "sync"

// ID identifies a registered allocator. Control blocks that live in off-heap
// memory store an ID instead of a Go pointer to their allocator.
type ID uint32

// HeapID is the ID of Heap. It is always registered.
const HeapID ID = 0

var registry = struct {
	sync.RWMutex
	ids  map[Allocator]ID
	byID map[ID]Allocator
	next ID
}{
	ids:  map[Allocator]ID{},
	byID: map[ID]Allocator{},
	next: HeapID + 1,
}

// Register returns the ID of a, assigning a new one on first use.
// IDs are never reused.
func Register(a Allocator) ID {
	if a == Allocator(Heap) {
		return HeapID
	}
	registry.RLock()
	id, ok := registry.ids[a]
	registry.RUnlock()
	if ok {
		return id
	}

	registry.Lock()
	defer registry.Unlock()
	if id, ok := registry.ids[a]; ok {
		return id
	}
	id = registry.next
	registry.next++
	registry.ids[a] = id
	registry.byID[id] = a
	return id
}

// IDOf returns the ID of a without registering it.
func IDOf(a Allocator) (ID, bool) {
	if a == Allocator(Heap) {
		return HeapID, true
	}
	registry.RLock()
	defer registry.RUnlock()
	id, ok := registry.ids[a]
	return id, ok
}

// Lookup returns the allocator registered under id, or nil if it was
// unregistered or never existed.
func Lookup(id ID) Allocator {
	if id == HeapID {
		return Heap
	}
	registry.RLock()
	defer registry.RUnlock()
	return registry.byID[id]
}

// Unregister forgets a. Blocks still tagged with its ID can no longer be
// returned to it.
func Unregister(a Allocator) {
	if a == Allocator(Heap) {
		return
	}
	registry.Lock()
	defer registry.Unlock()
	if id, ok := registry.ids[a]; ok {
		delete(registry.ids, a)
		delete(registry.byID, id)
	}
}
