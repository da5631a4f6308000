// Package memtable implements the capacity-bounded wrapper over the
// skip list that absorbs writes before they would reach long-term
// storage. When the wrapper fills, it freezes the live skip list into a
// snapshot and hands it to a collaborator for flushing, rather than ever
// growing past its configured limit.
package memtable

import (
	"sync"
	"time"

	"github.com/emberdb/ember/pkg/skiplist"
)

// FlushFunc is the collaborator that consumes a frozen snapshot. The
// caller must not touch snapshot after handing it to FlushFunc until the
// call returns; this spec treats the on-disk sorted-table writer as
// out of scope, so the default FlushFunc (see NoopFlush) just drops it.
type FlushFunc func(snapshot *skiplist.SkipList)

// NoopFlush is a FlushFunc that consumes and drops the snapshot. It
// satisfies the collaborator contract without writing anything to disk.
func NoopFlush(*skiplist.SkipList) {}

// MemTable is a thin, size-bounded wrapper over a skiplist.SkipList.
type MemTable struct {
	mu           sync.Mutex
	list         *skiplist.SkipList
	maxSize      int
	flush        FlushFunc
	approxBytes  int64
	creationTime time.Time
}

// New creates an empty MemTable bounded at maxSize entries. flush is
// called with the frozen snapshot whenever a boundary insert triggers a
// freeze; pass NoopFlush if no on-disk writer is wired up.
func New(maxSize int, flush FlushFunc) *MemTable {
	if flush == nil {
		flush = NoopFlush
	}
	return &MemTable{
		list:         skiplist.New(),
		maxSize:      maxSize,
		flush:        flush,
		creationTime: time.Now(),
	}
}

// Put inserts key/value. If the table is already at capacity, it freezes
// the current skip list, installs a fresh empty one, hands the frozen
// snapshot to the flush collaborator, and returns WITHOUT inserting the
// triggering pair (spec.md §4.5; the conformant default per the open
// question on freeze semantics).
//
// If the table is below capacity and key is a duplicate, the underlying
// skiplist.ErrAlreadyExists is returned unchanged.
func (m *MemTable) Put(key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.list.Count() >= m.maxSize {
		frozen := m.list
		m.list = skiplist.New()
		m.approxBytes = 0
		m.creationTime = time.Now()
		m.flush(frozen)
		return nil
	}

	if err := m.list.Insert(key, value); err != nil {
		return err
	}
	m.approxBytes += int64(len(key) + len(value))
	return nil
}

// Get returns the value stored for key, or skiplist.ErrNotFound.
func (m *MemTable) Get(key []byte) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.list.Find(key)
}

// Remove deletes key, or returns skiplist.ErrNotFound.
func (m *MemTable) Remove(key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.list.Remove(key)
}

// Size returns the number of live entries in the table.
func (m *MemTable) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.list.Count()
}

// ApproximateSize returns the approximate size in bytes of the keys and
// values inserted into the table since the last freeze. It is a
// diagnostic only: the freeze boundary in Put is an entry count, not
// this byte total.
func (m *MemTable) ApproximateSize() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.approxBytes
}

// CreatedAt returns when the live table was created, reset on every
// freeze.
func (m *MemTable) CreatedAt() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creationTime
}

// Age returns how long the live table has existed, in seconds.
func (m *MemTable) Age() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return time.Since(m.creationTime).Seconds()
}
