// Copyright © 2023-2024 Wei Shen <shenwei356@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

// Package bucket provides the in-memory shards of k-mer indexes,
// a lock-free slot-range allocator for concurrent writers,
// and the binary files the shards are persisted to.
package bucket

import (
	"math"
	"sync/atomic"

	"github.com/pkg/errors"
)

// Empty marks unused slots. It sorts after all real entries.
const Empty uint64 = math.MaxUint64

// DefaultContingentSize is the number of slots granted at a time.
var DefaultContingentSize = 1024

// ErrCapacityExceeded means a bucket is full, the capacity was underestimated.
var ErrCapacityExceeded = errors.New("bucket: capacity exceeded, please re-estimate bucket sizes or use more memory")

// Bucket is a fixed-capacity array of entries of one bucket name.
//
// Writers obtain disjoint ranges of slots ("contingents") with Grant
// and fill them without further synchronization. Two grants never
// overlap, as each one is derived from a distinct value of an atomic counter.
// Slots that are never written keep the value Empty.
type Bucket struct {
	Name int

	Entries []uint64
	IDs     []uint32 // optional, moved in lock-step with Entries

	contingent int
	granted    int64 // number of contingents granted
	sorted     int   // number of valid entries after sorting
}

// New creates a bucket with a given capacity.
// If withIDs is true, a parallel id array of the same size is created.
func New(name int, capacity int, contingentSize int, withIDs bool) *Bucket {
	if contingentSize <= 0 {
		contingentSize = DefaultContingentSize
	}
	b := &Bucket{
		Name:       name,
		Entries:    make([]uint64, capacity),
		contingent: contingentSize,
	}
	if withIDs {
		b.IDs = make([]uint32, capacity)
	}
	b.Reset()
	return b
}

// Reset marks all slots as unused, the memory is kept.
func (b *Bucket) Reset() {
	for i := range b.Entries {
		b.Entries[i] = Empty
	}
	atomic.StoreInt64(&b.granted, 0)
	b.sorted = 0
}

// Capacity returns the number of slots.
func (b *Bucket) Capacity() int { return len(b.Entries) }

// ContingentSize returns the number of slots of a grant.
func (b *Bucket) ContingentSize() int { return b.contingent }

// Grant hands out the slot range [start, end).
// The last grant of a bucket may be shorter than the contingent size.
func (b *Bucket) Grant() (start, end int, err error) {
	n := atomic.AddInt64(&b.granted, 1) - 1
	start = int(n) * b.contingent
	if start >= len(b.Entries) {
		return 0, 0, errors.Wrapf(ErrCapacityExceeded, "bucket %d (%d slots)", b.Name, len(b.Entries))
	}
	end = start + b.contingent
	if end > len(b.Entries) {
		end = len(b.Entries)
	}
	return start, end, nil
}

// Used returns the size of the prefix covering all granted slots.
// It includes unused tails of contingents.
func (b *Bucket) Used() int {
	n := int(atomic.LoadInt64(&b.granted)) * b.contingent
	if n > len(b.Entries) {
		return len(b.Entries)
	}
	return n
}

// Filled returns the granted prefix to be sorted.
func (b *Bucket) Filled() ([]uint64, []uint32) {
	n := b.Used()
	if b.IDs == nil {
		return b.Entries[:n], nil
	}
	return b.Entries[:n], b.IDs[:n]
}

// SetSorted records the number of valid entries after sorting,
// i.e., the position of the first Empty slot.
func (b *Bucket) SetSorted() int {
	entries, _ := b.Filled()
	lo, hi := 0, len(entries)
	for lo < hi {
		m := int(uint(lo+hi) >> 1)
		if entries[m] != Empty {
			lo = m + 1
		} else {
			hi = m
		}
	}
	b.sorted = lo
	return lo
}

// Sorted returns the valid entries after sorting.
func (b *Bucket) Sorted() ([]uint64, []uint32) {
	if b.IDs == nil {
		return b.Entries[:b.sorted], nil
	}
	return b.Entries[:b.sorted], b.IDs[:b.sorted]
}

// Writer fills a bucket through contingents. Each goroutine needs its own Writer.
type Writer struct {
	b        *Bucket
	pos, end int
}

// NewWriter creates a Writer of a bucket.
func NewWriter(b *Bucket) *Writer {
	return &Writer{b: b}
}

// Add writes one entry and its id. The id is ignored if the bucket has no id array.
func (w *Writer) Add(entry uint64, id uint32) error {
	if w.pos == w.end {
		var err error
		w.pos, w.end, err = w.b.Grant()
		if err != nil {
			return err
		}
	}
	w.b.Entries[w.pos] = entry
	if w.b.IDs != nil {
		w.b.IDs[w.pos] = id
	}
	w.pos++
	return nil
}
