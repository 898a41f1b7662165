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

package diamer

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

func TestDefaultLayout(t *testing.T) {
	l, err := NewLayout(11, MustParseMask(DefaultMask), DefaultBitsForIDs, 0)
	if err != nil {
		t.Error(err)
		return
	}
	if l.KmerBits != 52 || l.BucketBits != 10 || l.NumBuckets != 1024 {
		t.Errorf("unexpected layout: %s", l)
	}
	if l.MaxID() != 1<<22-2 {
		t.Errorf("unexpected max id: %d", l.MaxID())
	}
	if l.CheckID(1<<22-2) != nil {
		t.Errorf("%d should be a valid id", 1<<22-2)
	}
	if err = l.CheckID(1<<22 - 1); !errors.Is(err, ErrIDOverflow) {
		t.Errorf("expected ErrIDOverflow, result: %v", err)
	}

	max, _ := Pow(11, 15)
	if e := l.Entry(max-1, l.MaxID()); e == math.MaxUint64 {
		t.Errorf("an entry equals the sentinel of empty slots")
	}
}

func TestLayoutPacking(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	l, err := NewLayout(11, MustParseMask("1111011111111111"), 20, 0)
	if err != nil {
		t.Error(err)
		return
	}
	max, _ := Pow(11, 15)
	var kmer, entry uint64
	var id uint32
	var bucket int
	for i := 0; i < 1000; i++ {
		kmer = uint64(r.Int63n(int64(max)))
		id = uint32(r.Int63n(int64(l.MaxID()) + 1))
		bucket = l.Bucket(kmer)
		if bucket >= l.NumBuckets {
			t.Errorf("bucket %d out of range", bucket)
		}

		entry = l.Entry(kmer, id)
		if entry != l.Pack(l.Remainder(kmer), id) {
			t.Errorf("Entry and Pack differ")
		}
		if l.EntryID(entry) != id {
			t.Errorf("expected id: %d, result: %d", id, l.EntryID(entry))
		}
		if l.Kmer(bucket, l.EntryRemainder(entry)) != kmer {
			t.Errorf("expected k-mer: %d, result: %d", kmer, l.Kmer(bucket, l.EntryRemainder(entry)))
		}
	}
}

func TestLayoutOrder(t *testing.T) {
	// entries of one bucket sort by k-mer first
	l, _ := NewLayout(11, MustParseMask(DefaultMask), DefaultBitsForIDs, 0)
	a := l.Entry(5<<10|3, 100)
	b := l.Entry(6<<10|3, 1)
	if !(a < b) {
		t.Errorf("entries should be ordered by k-mers")
	}
}

func TestLayoutErrors(t *testing.T) {
	mask := MustParseMask(DefaultMask)
	if _, err := NewLayout(11, mask, DefaultBitsForIDs, 9); !errors.Is(err, ErrLayoutOverflow) {
		t.Errorf("expected ErrLayoutOverflow, result: %v", err)
	}
	if _, err := NewLayout(11, mask, 0, 0); err != ErrInvalidBitsForIDs {
		t.Errorf("expected ErrInvalidBitsForIDs, result: %v", err)
	}
	if _, err := NewLayout(11, mask, DefaultBitsForIDs, 25); err == nil {
		t.Errorf("bucket bits > %d should be invalid", MaxBucketBits)
	}

	l, err := NewLayout(11, mask, 30, 0)
	if err != nil {
		t.Error(err)
		return
	}
	if l.BucketBits != 18 {
		t.Errorf("expected 18 bucket bits, result: %d", l.BucketBits)
	}

	// small k-mer spaces have at most KmerBits bucket bits
	l, err = NewLayout(4, MustParseMask("1111"), DefaultBitsForIDs, 0)
	if err != nil {
		t.Error(err)
		return
	}
	if l.BucketBits != 8 {
		t.Errorf("expected 8 bucket bits, result: %d", l.BucketBits)
	}
}
