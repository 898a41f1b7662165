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

// Package sorting sorts bucket entries in place with a parallel
// most-significant-bit-first binary radix sort.
package sorting

import (
	"runtime"
	"sync"
)

// DefaultThreshold is the length of ranges below which no goroutine is forked.
var DefaultThreshold = 10000

// DefaultInsertionThreshold is the length of ranges sorted with insertion sort.
var DefaultInsertionThreshold = 16

// Sorter sorts uint64 slices, optionally with a parallel id slice
// kept in lock-step.
type Sorter struct {
	// Threads is the maximum number of goroutines, including the calling one.
	Threads int
	// Threshold is the minimum length of a range to be handed to another goroutine.
	Threshold int
	// InsertionThreshold is the maximum length of a range sorted by insertion sort.
	// 0 disables insertion sort, partitioning then goes down to single elements.
	InsertionThreshold int
}

// NewSorter creates a Sorter with default thresholds.
func NewSorter(threads int) *Sorter {
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	return &Sorter{
		Threads:            threads,
		Threshold:          DefaultThreshold,
		InsertionThreshold: DefaultInsertionThreshold,
	}
}

type job struct {
	s      *Sorter
	tokens chan struct{}
	wg     sync.WaitGroup
}

// Sort sorts a in ascending order. If ids is not nil, it must have
// the same length as a, and ids[i] moves with a[i].
func (s *Sorter) Sort(a []uint64, ids []uint32) {
	if ids != nil && len(ids) != len(a) {
		panic("sorting: entries and ids have different lengths")
	}
	if len(a) < 2 {
		return
	}
	j := &job{s: s}
	if s.Threads > 1 {
		j.tokens = make(chan struct{}, s.Threads-1)
	}
	j.sort(a, ids, 63)
	j.wg.Wait()
}

// sort partitions a by the bit, then recurses on both parts with the next bit.
// The right part goes to another goroutine if it is big enough and a token is free,
// the left part is processed in the loop.
func (j *job) sort(a []uint64, ids []uint32, bit int) {
	var i, k int
	var m uint64
	for len(a) > 1 && bit >= 0 {
		if len(a) <= j.s.InsertionThreshold {
			insertionSort(a, ids)
			return
		}

		m = 1 << uint(bit)
		i, k = 0, len(a)-1
		for i <= k {
			if a[i]&m == 0 {
				i++
			} else if a[k]&m != 0 {
				k--
			} else {
				a[i], a[k] = a[k], a[i]
				if ids != nil {
					ids[i], ids[k] = ids[k], ids[i]
				}
				i++
				k--
			}
		}

		bit--
		left, right := a[:i], a[i:]
		var leftIDs, rightIDs []uint32
		if ids != nil {
			leftIDs, rightIDs = ids[:i], ids[i:]
		}

		if len(right) > 1 {
			if !j.fork(right, rightIDs, bit) {
				j.sort(right, rightIDs, bit)
			}
		}
		a, ids = left, leftIDs
	}
}

func (j *job) fork(a []uint64, ids []uint32, bit int) bool {
	if j.tokens == nil || len(a) < j.s.Threshold {
		return false
	}
	select {
	case j.tokens <- struct{}{}:
	default:
		return false
	}
	j.wg.Add(1)
	go func() {
		j.sort(a, ids, bit)
		<-j.tokens
		j.wg.Done()
	}()
	return true
}

func insertionSort(a []uint64, ids []uint32) {
	var v uint64
	var id uint32
	var k int
	for i := 1; i < len(a); i++ {
		v = a[i]
		if ids != nil {
			id = ids[i]
		}
		k = i - 1
		for k >= 0 && a[k] > v {
			a[k+1] = a[k]
			if ids != nil {
				ids[k+1] = ids[k]
			}
			k--
		}
		a[k+1] = v
		if ids != nil {
			ids[k+1] = id
		}
	}
}

// IsSorted checks if a is in ascending order.
func IsSorted(a []uint64) bool {
	for i := 1; i < len(a); i++ {
		if a[i-1] > a[i] {
			return false
		}
	}
	return true
}
