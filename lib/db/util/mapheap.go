// Package util
//
// This file provides a min-heap combined with a hash map.
//
// The heap orders entries by priority, the map gives O(1) access by key. Both views
// are kept consistent by every operation:
//
//   - O(log n) for Push, PopMin, AddItem (update) and RemoveByKey
//   - O(1) for Contains, GetByKey and PeekMin
//
// The storage engines use it as a reorder buffer: chunks that arrive out of order are
// parked under their sequence number and released strictly in ascending order, see
// engines/birch.
//
// The heap is not thread-safe. Callers have to apply external synchronization.
//
// Example usage:
//
//	pending := NewMapHeap()
//
//	pending.AddItem(7, 7)
//	pending.AddItem(5, 5)
//
//	// release everything that is next in line
//	for {
//	    key, _, ok := pending.PeekMin()
//	    if !ok || key != next {
//	        break
//	    }
//	    pending.PopMin()
//	    next++
//	}
package util

import (
	"container/heap"
	"strconv"
)

// entry is a heap element with a uint64 key for identification and a uint64 priority
type entry struct {
	Key      uint64
	Priority uint64
	index    int // position in the heap slice, maintained by the heap.Interface methods
}

func (e *entry) String() string {
	return "{Key: " + strconv.FormatUint(e.Key, 10) + ", Priority: " + strconv.FormatUint(e.Priority, 10) + "}"
}

// MapHeap is a min-heap by priority that also supports key-based access
type MapHeap struct {
	entries []*entry
	byKey   map[uint64]*entry
}

// NewMapHeap creates a new empty heap. It does not need heap.Init.
func NewMapHeap() *MapHeap {
	return &MapHeap{
		entries: make([]*entry, 0),
		byKey:   make(map[uint64]*entry),
	}
}

// --------------------------------------------------------------------------
// heap.Interface
// --------------------------------------------------------------------------

func (h *MapHeap) Len() int { return len(h.entries) }

func (h *MapHeap) Less(i, j int) bool {
	return h.entries[i].Priority < h.entries[j].Priority
}

func (h *MapHeap) Swap(i, j int) {
	h.entries[i], h.entries[j] = h.entries[j], h.entries[i]
	h.entries[i].index = i
	h.entries[j].index = j
}

// Push must only be called by container/heap, use AddItem instead
func (h *MapHeap) Push(x any) {
	e := x.(*entry)
	e.index = len(h.entries)
	h.entries = append(h.entries, e)
	h.byKey[e.Key] = e
}

// Pop must only be called by container/heap, use PopMin instead
func (h *MapHeap) Pop() any {
	old := h.entries
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	h.entries = old[:n-1]
	delete(h.byKey, e.Key)
	return e
}

// --------------------------------------------------------------------------
// Public Methods
// --------------------------------------------------------------------------

// AddItem adds a new entry or updates the priority of an existing one
func (h *MapHeap) AddItem(key, priority uint64) {
	if e, exists := h.byKey[key]; exists {
		e.Priority = priority
		heap.Fix(h, e.index)
		return
	}
	heap.Push(h, &entry{Key: key, Priority: priority})
}

// PeekMin returns the entry with the lowest priority without removing it
func (h *MapHeap) PeekMin() (key, priority uint64, ok bool) {
	if len(h.entries) == 0 {
		return 0, 0, false
	}
	e := h.entries[0]
	return e.Key, e.Priority, true
}

// PopMin removes and returns the entry with the lowest priority
func (h *MapHeap) PopMin() (key, priority uint64, ok bool) {
	if len(h.entries) == 0 {
		return 0, 0, false
	}
	e := heap.Pop(h).(*entry)
	return e.Key, e.Priority, true
}

// RemoveByKey removes an entry by its key and returns its priority
func (h *MapHeap) RemoveByKey(key uint64) (uint64, bool) {
	e, exists := h.byKey[key]
	if !exists {
		return 0, false
	}
	heap.Remove(h, e.index)
	return e.Priority, true
}

// Contains checks if a key is in the heap
func (h *MapHeap) Contains(key uint64) bool {
	_, exists := h.byKey[key]
	return exists
}

// GetByKey returns the priority stored for key
func (h *MapHeap) GetByKey(key uint64) (uint64, bool) {
	e, exists := h.byKey[key]
	if !exists {
		return 0, false
	}
	return e.Priority, true
}
