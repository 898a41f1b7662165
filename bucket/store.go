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

// Store holds the buckets of one build cycle,
// i.e., the bucket names in the range [Start, End).
type Store struct {
	Start, End int
	Buckets    []*Bucket
}

// NewStore creates buckets of the same capacity for a range of bucket names.
func NewStore(start, end int, capacity int, contingentSize int, withIDs bool) *Store {
	s := &Store{Start: start, End: end, Buckets: make([]*Bucket, end-start)}
	for i := range s.Buckets {
		s.Buckets[i] = New(start+i, capacity, contingentSize, withIDs)
	}
	return s
}

// Contains tells whether the bucket name belongs to the store.
func (s *Store) Contains(name int) bool {
	return name >= s.Start && name < s.End
}

// Bucket returns the bucket of a name in the range.
func (s *Store) Bucket(name int) *Bucket {
	return s.Buckets[name-s.Start]
}

// Writers holds one Writer per bucket of a store, for a single goroutine.
type Writers struct {
	s       *Store
	writers []*Writer
}

// NewWriters creates Writers for a goroutine.
func (s *Store) NewWriters() *Writers {
	ws := &Writers{s: s, writers: make([]*Writer, len(s.Buckets))}
	for i, b := range s.Buckets {
		ws.writers[i] = NewWriter(b)
	}
	return ws
}

// Add writes an entry into the bucket of the given name, which must be in the range.
func (ws *Writers) Add(name int, entry uint64, id uint32) error {
	return ws.writers[name-ws.s.Start].Add(entry, id)
}

// Entries returns the number of valid entries of all buckets after sorting.
func (s *Store) Entries() int64 {
	var n int64
	for _, b := range s.Buckets {
		n += int64(b.sorted)
	}
	return n
}

// Reset reuses the buckets for another range of bucket names,
// which must not be larger than the current one.
func (s *Store) Reset(start, end int) {
	s.Start, s.End = start, end
	s.Buckets = s.Buckets[:end-start]
	for i, b := range s.Buckets {
		b.Name = start + i
		b.Reset()
	}
}
