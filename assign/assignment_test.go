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

package assign

import (
	"path/filepath"
	"sync"
	"testing"
)

func TestAssignmentAdd(t *testing.T) {
	a := NewAssignment([]string{"r0", "r1", "r2"})

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				if err := a.Add(uint32(i%3), uint32(10+i%2)); err != nil {
					t.Error(err)
					return
				}
			}
		}(w)
	}
	wg.Wait()
	a.SortHits()

	// 1000 hits of a worker: r0 gets 334, r1 333, r2 333, split by parity of i
	expected := [][]Hit{
		{{10, 8 * 167}, {11, 8 * 167}},
		{{10, 8 * 166}, {11, 8 * 167}},
		{{10, 8 * 167}, {11, 8 * 166}},
	}
	for r, hs := range expected {
		if len(a.Hits[r]) != len(hs) {
			t.Errorf("read %d, expected: %v, result: %v", r, hs, a.Hits[r])
			continue
		}
		for j, h := range hs {
			if a.Hits[r][j] != h {
				t.Errorf("read %d, expected: %v, result: %v", r, hs, a.Hits[r])
				break
			}
		}
	}

	if err := a.Add(3, 10); err == nil {
		t.Errorf("a read out of range should not be accepted")
	}
}

func TestAssignmentWeights(t *testing.T) {
	a := NewAssignment([]string{"r0"})
	a.Hits[0] = []Hit{{10, 6}, {20, 3}}

	ws := a.Weights(0, nil, nil)
	if len(ws) != 2 || ws[0].TaxID != 10 || ws[0].Weight != 6 || ws[1].Weight != 3 {
		t.Errorf("unexpected raw weights: %v", ws)
	}

	kmers := map[uint32]float64{10: 3, 20: 0}
	ws = a.Weights(0, func(id uint32) float64 { return kmers[id] }, ws)
	if len(ws) != 2 || ws[0].Weight != 2 || ws[1].Weight != 3 {
		t.Errorf("unexpected normalized weights: %v", ws)
	}
}

func TestRawAssignments(t *testing.T) {
	a := NewAssignment([]string{"r0 desc\twith tab", "r1", ""})
	a.Hits[0] = []Hit{{10, 6}, {20, 3}}
	a.Hits[2] = []Hit{{4294967294, 1}}

	file := filepath.Join(t.TempDir(), FileRawAssignments)
	if err := a.WriteRaw(file); err != nil {
		t.Error(err)
		return
	}
	b, err := ReadRawAssignments(file)
	if err != nil {
		t.Error(err)
		return
	}
	if b.Len() != a.Len() {
		t.Errorf("reads, expected: %d, result: %d", a.Len(), b.Len())
		return
	}
	for i := range a.Headers {
		if a.Headers[i] != b.Headers[i] {
			t.Errorf("header %d, expected: %q, result: %q", i, a.Headers[i], b.Headers[i])
		}
		if len(a.Hits[i]) != len(b.Hits[i]) {
			t.Errorf("hits of read %d, expected: %v, result: %v", i, a.Hits[i], b.Hits[i])
			continue
		}
		for j := range a.Hits[i] {
			if a.Hits[i][j] != b.Hits[i][j] {
				t.Errorf("hits of read %d, expected: %v, result: %v", i, a.Hits[i], b.Hits[i])
				break
			}
		}
	}
}

func TestDistinct(t *testing.T) {
	ids := distinct([]uint32{5, 0, 3, 5, 0, 9, 3})
	expected := []uint32{0, 3, 5, 9}
	if len(ids) != len(expected) {
		t.Errorf("expected: %v, result: %v", expected, ids)
		return
	}
	for i := range ids {
		if ids[i] != expected[i] {
			t.Errorf("expected: %v, result: %v", expected, ids)
			break
		}
	}
}
