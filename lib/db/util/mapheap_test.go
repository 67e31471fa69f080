package util

import (
	"math/rand"
	"sort"
	"testing"
)

// TestNewMapHeap tests the creation of a new MapHeap
func TestNewMapHeap(t *testing.T) {
	mh := NewMapHeap()

	if mh == nil {
		t.Fatal("NewMapHeap() returned nil")
	}

	if mh.Len() != 0 {
		t.Errorf("New heap should be empty, but has length %d", mh.Len())
	}

	if len(mh.byKey) != 0 {
		t.Errorf("New heap's map should be empty, but has %d entries", len(mh.byKey))
	}
}

// TestAddItem tests adding entries to the heap
func TestAddItem(t *testing.T) {
	mh := NewMapHeap()

	mh.AddItem(1, 100)
	mh.AddItem(2, 200)
	mh.AddItem(3, 50)

	if mh.Len() != 3 {
		t.Errorf("Heap should have 3 entries, but has %d", mh.Len())
	}

	for _, key := range []uint64{1, 2, 3} {
		if !mh.Contains(key) {
			t.Errorf("Heap should contain key %d", key)
		}
	}

	key, priority, ok := mh.PeekMin()
	if !ok {
		t.Fatal("PeekMin() should return an entry")
	}
	if key != 3 || priority != 50 {
		t.Errorf("Expected min entry to be (3,50), got (%d,%d)", key, priority)
	}
	if mh.Len() != 3 {
		t.Errorf("PeekMin must not remove entries, heap has %d", mh.Len())
	}
}

// TestUpdateItem tests updating existing entries
func TestUpdateItem(t *testing.T) {
	mh := NewMapHeap()

	mh.AddItem(1, 100)
	mh.AddItem(2, 200)
	mh.AddItem(1, 300)

	priority, exists := mh.GetByKey(1)
	if !exists {
		t.Fatal("Entry with key 1 should exist")
	}
	if priority != 300 {
		t.Errorf("Entry with key 1 should have priority 300, got %d", priority)
	}
	if mh.Len() != 2 {
		t.Errorf("Update must not add an entry, heap has %d", mh.Len())
	}

	key, _, _ := mh.PeekMin()
	if key != 2 {
		t.Errorf("Min entry should now be key 2, got %d", key)
	}

	mh.AddItem(2, 50)

	key, priority, _ = mh.PeekMin()
	if key != 2 || priority != 50 {
		t.Errorf("Min entry should now be (2,50), got (%d,%d)", key, priority)
	}
}

// TestRemoveByKey tests removing entries by key
func TestRemoveByKey(t *testing.T) {
	mh := NewMapHeap()

	mh.AddItem(1, 100)
	mh.AddItem(2, 200)
	mh.AddItem(3, 300)

	priority, exists := mh.RemoveByKey(2)
	if !exists {
		t.Fatal("RemoveByKey should return true for existing key")
	}
	if priority != 200 {
		t.Errorf("RemoveByKey should return priority 200, got %d", priority)
	}
	if mh.Len() != 2 {
		t.Errorf("Heap should have 2 entries after removal, has %d", mh.Len())
	}
	if mh.Contains(2) {
		t.Error("Heap should not contain key 2 after removal")
	}

	if _, exists = mh.RemoveByKey(99); exists {
		t.Error("RemoveByKey should return false for non-existent key")
	}
}

// TestPopOrder tests if entries are popped in ascending priority order
func TestPopOrder(t *testing.T) {
	mh := NewMapHeap()

	entries := []struct {
		key      uint64
		priority uint64
	}{
		{5, 50},
		{3, 30},
		{1, 10},
		{4, 40},
		{2, 20},
	}

	for _, e := range entries {
		mh.AddItem(e.key, e.priority)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].priority < entries[j].priority
	})

	for i, expected := range entries {
		key, priority, ok := mh.PopMin()
		if !ok {
			t.Fatalf("Heap empty after %d entries, expected %d entries", i, len(entries))
		}
		if key != expected.key || priority != expected.priority {
			t.Errorf("Pop %d: expected (%d,%d), got (%d,%d)",
				i, expected.key, expected.priority, key, priority)
		}
		if mh.Contains(key) {
			t.Errorf("Pop %d: key %d still in map after PopMin", i, key)
		}
	}

	if mh.Len() != 0 {
		t.Errorf("Heap should be empty after popping all entries, has %d", mh.Len())
	}
}

// TestEmptyHeap tests PeekMin and PopMin on an empty heap
func TestEmptyHeap(t *testing.T) {
	mh := NewMapHeap()

	if _, _, ok := mh.PeekMin(); ok {
		t.Error("PeekMin on empty heap should return ok=false")
	}
	if _, _, ok := mh.PopMin(); ok {
		t.Error("PopMin on empty heap should return ok=false")
	}
}

// TestGetByKey tests retrieving priorities by key
func TestGetByKey(t *testing.T) {
	mh := NewMapHeap()

	mh.AddItem(1, 100)
	mh.AddItem(2, 200)

	priority, exists := mh.GetByKey(1)
	if !exists {
		t.Fatal("GetByKey should find existing key")
	}
	if priority != 100 {
		t.Errorf("GetByKey returned incorrect priority: expected 100, got %d", priority)
	}

	if _, exists = mh.GetByKey(99); exists {
		t.Error("GetByKey should return exists=false for non-existent key")
	}
}

// TestReorderBuffer feeds sequence numbers in random order and releases them the way
// the commit gate of the storage engine does: only the next expected number leaves the heap
func TestReorderBuffer(t *testing.T) {
	const n = 1000

	seqs := make([]uint64, n)
	for i := range seqs {
		seqs[i] = uint64(i)
	}
	rng := rand.New(rand.NewSource(42))
	rng.Shuffle(n, func(i, j int) { seqs[i], seqs[j] = seqs[j], seqs[i] })

	mh := NewMapHeap()
	var next uint64
	released := make([]uint64, 0, n)

	for _, seq := range seqs {
		mh.AddItem(seq, seq)
		for {
			key, _, ok := mh.PeekMin()
			if !ok || key != next {
				break
			}
			mh.PopMin()
			released = append(released, key)
			next++
		}
	}

	if len(released) != n {
		t.Fatalf("Expected %d released entries, got %d", n, len(released))
	}
	for i, seq := range released {
		if seq != uint64(i) {
			t.Fatalf("Release %d: expected sequence %d, got %d", i, i, seq)
		}
	}
	if mh.Len() != 0 {
		t.Errorf("Heap should be empty, has %d entries", mh.Len())
	}
}
