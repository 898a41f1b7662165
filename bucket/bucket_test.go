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

package bucket

import (
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
)

func TestGrants(t *testing.T) {
	C := 16
	threads := 8
	perThread := 1000
	b := New(7, threads*perThread+C*threads, C, true)

	var wg sync.WaitGroup
	errs := make(chan error, threads)
	for i := 0; i < threads; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w := NewWriter(b)
			for j := 0; j < perThread; j++ {
				if err := w.Add(uint64(i*perThread+j), uint32(i)); err != nil {
					errs <- err
					return
				}
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
		return
	}

	// every entry exactly once
	seen := make([]bool, threads*perThread)
	entries, ids := b.Filled()
	var n int
	for i, e := range entries {
		if e == Empty {
			continue
		}
		if seen[e] {
			t.Errorf("entry %d was written twice", e)
			return
		}
		seen[e] = true
		if ids[i] != uint32(int(e)/perThread) {
			t.Errorf("entry %d has a wrong id: %d", e, ids[i])
		}
		n++
	}
	if n != threads*perThread {
		t.Errorf("expected %d entries, result: %d", threads*perThread, n)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i] < entries[j] })
	if b.SetSorted() != threads*perThread {
		t.Errorf("SetSorted returns %d", b.SetSorted())
	}
}

func TestCapacityExceeded(t *testing.T) {
	b := New(0, 10, 4, false)
	w := NewWriter(b)
	var err error
	for i := 0; i < 10; i++ {
		if err = w.Add(uint64(i), 0); err != nil {
			t.Errorf("unexpected error at entry %d: %s", i, err)
			return
		}
	}
	if err = w.Add(10, 0); !errors.Is(err, ErrCapacityExceeded) {
		t.Errorf("expected ErrCapacityExceeded, result: %v", err)
	}

	b.Reset()
	if b.Used() != 0 || b.Entries[0] != Empty {
		t.Errorf("bucket is not reset")
	}
}

func TestStore(t *testing.T) {
	s := NewStore(4, 8, 100, 8, false)
	if !s.Contains(4) || !s.Contains(7) || s.Contains(8) || s.Contains(3) {
		t.Errorf("unexpected range")
	}
	ws := s.NewWriters()
	for i := 0; i < 20; i++ {
		if err := ws.Add(4+i%4, uint64(100-i), 0); err != nil {
			t.Error(err)
			return
		}
	}
	for _, b := range s.Buckets {
		entries, _ := b.Filled()
		sort.Slice(entries, func(i, j int) bool { return entries[i] < entries[j] })
		if b.SetSorted() != 5 {
			t.Errorf("bucket %d: expected 5 entries, result: %d", b.Name, b.SetSorted())
		}
	}
	if s.Entries() != 20 {
		t.Errorf("expected 20 entries, result: %d", s.Entries())
	}
	if s.Bucket(6).Name != 6 {
		t.Errorf("unexpected bucket: %d", s.Bucket(6).Name)
	}
}

func TestFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	r := rand.New(rand.NewSource(1))
	entries := make([]uint64, 10000)
	for i := range entries {
		entries[i] = r.Uint64()
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i] < entries[j] })
	entries[1] = entries[0] // duplicates

	for _, enc := range []Encoding{Raw, Delta} {
		file := FileName(dir, int(enc))
		n, err := Write(file, entries, enc)
		if err != nil {
			t.Error(err)
			return
		}
		if enc == Raw && n != 4+8*len(entries) {
			t.Errorf("unexpected file size: %d", n)
		}

		entries2, err := Read(file, enc)
		if err != nil {
			t.Error(err)
			return
		}
		if len(entries2) != len(entries) {
			t.Errorf("%s: expected %d entries, result: %d", enc, len(entries), len(entries2))
			return
		}
		for i, e := range entries {
			if entries2[i] != e {
				t.Errorf("%s: entry %d, expected: %d, result: %d", enc, i, e, entries2[i])
				return
			}
		}
	}

	if !Exists(dir, 0) || Exists(dir, 2) {
		t.Errorf("unexpected existence of bucket files")
	}

	// empty buckets
	file := filepath.Join(dir, "empty.bin")
	if _, err := Write(file, nil, Raw); err != nil {
		t.Error(err)
		return
	}
	if entries2, err := Read(file, Raw); err != nil || len(entries2) != 0 {
		t.Errorf("unexpected result of empty bucket: %v, %v", entries2, err)
	}
}

func TestBrokenFile(t *testing.T) {
	dir := t.TempDir()
	file := FileName(dir, 1)
	if _, err := Write(file, []uint64{1, 2, 3}, Raw); err != nil {
		t.Error(err)
		return
	}
	data, err := os.ReadFile(file)
	if err != nil {
		t.Error(err)
		return
	}
	if err = os.WriteFile(file, data[:len(data)-3], 0644); err != nil {
		t.Error(err)
		return
	}
	if _, err = Read(file, Raw); !errors.Is(err, ErrBrokenFile) {
		t.Errorf("expected ErrBrokenFile, result: %v", err)
	}

	if _, err = Write(file, []uint64{3, 2}, Delta); err == nil {
		t.Errorf("unsorted entries should not be delta-encoded")
	}

	if _, err = ParseEncoding("zip"); !errors.Is(err, ErrInvalidEncoding) {
		t.Errorf("expected ErrInvalidEncoding, result: %v", err)
	}
}
