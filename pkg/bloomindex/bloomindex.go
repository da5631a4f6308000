// Package bloomindex provides a standalone Bloom-filter membership index.
// It is a collaborator only: nothing in pkg/engine imports this package.
// A future on-disk sorted-table format would consult it before a disk
// seek, the way FlashLog's sst writer embeds one per segment; until that
// writer exists, this index has no caller inside the engine.
package bloomindex

import (
	"errors"

	"github.com/bits-and-blooms/bloom/v3"
)

// ErrInvalidSize is returned when the requested bit array size is not a
// multiple of 64 — the filter is backed by a word-addressed bitset.
var ErrInvalidSize = errors.New("bloomindex: size must be a multiple of 64")

// Index is a fixed-size Bloom filter over byte-string keys.
type Index struct {
	filter *bloom.BloomFilter
}

// New creates an Index with m bits and k hash functions. m must be a
// multiple of 64.
func New(m, k uint) (*Index, error) {
	if m == 0 || m%64 != 0 {
		return nil, ErrInvalidSize
	}
	if k == 0 {
		k = 4
	}
	return &Index{filter: bloom.New(m, k)}, nil
}

// NewWithEstimates sizes a filter for n expected elements at the given
// false-positive rate, per bloom.NewWithEstimates. The multiple-of-64
// check that New applies is not made here, so this constructor cannot
// fail, and Cap may report a size that is not a multiple of 64.
func NewWithEstimates(n uint, falsePositiveRate float64) *Index {
	return &Index{filter: bloom.NewWithEstimates(n, falsePositiveRate)}
}

// Add records key as present.
func (idx *Index) Add(key []byte) {
	idx.filter.Add(key)
}

// Test reports whether key might be present. A false return is definite;
// a true return may be a false positive.
func (idx *Index) Test(key []byte) bool {
	return idx.filter.Test(key)
}

// Cap returns the size of the underlying bit array.
func (idx *Index) Cap() uint {
	return idx.filter.Cap()
}

// K returns the number of hash functions in use.
func (idx *Index) K() uint {
	return idx.filter.K()
}
