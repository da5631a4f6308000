package memtable

import (
	"errors"
	"fmt"
	"testing"

	"github.com/emberdb/ember/pkg/skiplist"
)

func TestMemTableBasicOperations(t *testing.T) {
	mt := New(10, nil)

	if err := mt.Put([]byte("key1"), []byte("value1")); err != nil {
		t.Fatalf("put: %v", err)
	}

	value, err := mt.Get([]byte("key1"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(value) != "value1" {
		t.Errorf("expected value1, got %s", value)
	}

	if _, err := mt.Get([]byte("nonexistent")); !errors.Is(err, skiplist.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if err := mt.Remove([]byte("key1")); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := mt.Get([]byte("key1")); !errors.Is(err, skiplist.ErrNotFound) {
		t.Errorf("expected ErrNotFound after remove, got %v", err)
	}
}

func TestMemTableRejectsDuplicate(t *testing.T) {
	mt := New(10, nil)
	if err := mt.Put([]byte("k"), []byte("v1")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := mt.Put([]byte("k"), []byte("v2")); !errors.Is(err, skiplist.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	got, err := mt.Get([]byte("k"))
	if err != nil || string(got) != "v1" {
		t.Fatalf("expected original value v1 preserved, got %q, %v", got, err)
	}
}

// TestScenarioF_FreezeOnBoundaryInsert mirrors spec.md §8 Scenario F.
func TestScenarioF_FreezeOnBoundaryInsert(t *testing.T) {
	var snapshot *skiplist.SkipList
	flushCalls := 0

	mt := New(2, func(s *skiplist.SkipList) {
		flushCalls++
		snapshot = s
	})

	if err := mt.Put([]byte("a"), []byte("1")); err != nil {
		t.Fatalf("put a: %v", err)
	}
	if err := mt.Put([]byte("b"), []byte("2")); err != nil {
		t.Fatalf("put b: %v", err)
	}

	if err := mt.Put([]byte("c"), []byte("3")); err != nil {
		t.Fatalf("put c (triggering freeze): %v", err)
	}

	if flushCalls != 1 {
		t.Fatalf("expected exactly one flush call, got %d", flushCalls)
	}
	if mt.Size() != 0 {
		t.Fatalf("expected live memtable to be empty after freeze, got size %d", mt.Size())
	}

	if snapshot == nil {
		t.Fatalf("expected a snapshot to be captured")
	}
	if snapshot.Count() != 2 {
		t.Fatalf("expected snapshot to hold exactly 2 entries, got %d", snapshot.Count())
	}

	entries := snapshot.All()
	if len(entries) != 2 || string(entries[0].Key) != "a" || string(entries[1].Key) != "b" {
		t.Fatalf("expected snapshot entries [a,b] in sorted order, got %+v", entries)
	}

	// c is the conformant-default open-question resolution: it is NOT
	// retained anywhere after the triggering freeze.
	if _, err := mt.Get([]byte("c")); !errors.Is(err, skiplist.ErrNotFound) {
		t.Fatalf("expected c to be absent from the live memtable, got %v", err)
	}
	if _, err := snapshot.Find([]byte("c")); !errors.Is(err, skiplist.ErrNotFound) {
		t.Fatalf("expected c to be absent from the frozen snapshot, got %v", err)
	}
}

func TestMemTableFreezeAllowsContinuedUse(t *testing.T) {
	mt := New(1, nil)
	if err := mt.Put([]byte("x"), []byte("1")); err != nil {
		t.Fatalf("put: %v", err)
	}
	// Triggers a freeze against the noop flush collaborator.
	if err := mt.Put([]byte("y"), []byte("2")); err != nil {
		t.Fatalf("put (boundary): %v", err)
	}
	if mt.Size() != 0 {
		t.Fatalf("expected empty table after freeze, got %d", mt.Size())
	}

	// The fresh table accepts new inserts normally.
	if err := mt.Put([]byte("z"), []byte("3")); err != nil {
		t.Fatalf("put after freeze: %v", err)
	}
	if mt.Size() != 1 {
		t.Fatalf("expected size 1, got %d", mt.Size())
	}
}

func TestApproximateSizeTracksInsertedBytesAndResetsOnFreeze(t *testing.T) {
	mt := New(2, nil)

	if mt.ApproximateSize() != 0 {
		t.Fatalf("expected 0 for an empty table, got %d", mt.ApproximateSize())
	}

	if err := mt.Put([]byte("ab"), []byte("xyz")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if got, want := mt.ApproximateSize(), int64(len("ab")+len("xyz")); got != want {
		t.Fatalf("approximate size = %d, want %d", got, want)
	}

	if err := mt.Put([]byte("cd"), []byte("w")); err != nil {
		t.Fatalf("put: %v", err)
	}
	// Boundary insert freezes the table; the live table's byte count
	// resets even though the triggering insert is discarded.
	if err := mt.Put([]byte("ef"), []byte("q")); err != nil {
		t.Fatalf("put (triggering freeze): %v", err)
	}
	if got := mt.ApproximateSize(); got != 0 {
		t.Fatalf("expected approximate size to reset to 0 after freeze, got %d", got)
	}
}

func TestCreatedAtResetsOnFreeze(t *testing.T) {
	mt := New(1, nil)
	first := mt.CreatedAt()

	if err := mt.Put([]byte("a"), []byte("1")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := mt.Put([]byte("b"), []byte("2")); err != nil {
		t.Fatalf("put (triggering freeze): %v", err)
	}

	if mt.CreatedAt().Before(first) {
		t.Fatalf("expected creation time to move forward after freeze")
	}
	if mt.Age() < 0 {
		t.Fatalf("expected non-negative age, got %v", mt.Age())
	}
}

func TestMemTableManyInsertsTriggerMultipleFreezes(t *testing.T) {
	freezes := 0
	mt := New(5, func(s *skiplist.SkipList) { freezes++ })

	for i := 0; i < 23; i++ {
		key := []byte(fmt.Sprintf("k%03d", i))
		_ = mt.Put(key, []byte("v"))
	}

	// Capacity 5: the 6th, 12th and 18th puts each freeze a full table.
	if freezes != 3 {
		t.Fatalf("expected 3 freezes, got %d", freezes)
	}
}
