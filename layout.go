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
	"fmt"
	"math/bits"

	"github.com/pkg/errors"
)

// DefaultBitsForIDs is the number of lower bits of an index entry for storing ids.
const DefaultBitsForIDs = 22

// MinBucketBits is the smallest number of bucket-name bits chosen automatically.
const MinBucketBits = 10

// MaxBucketBits is the largest number of bucket-name bits.
const MaxBucketBits = 24

// ErrLayoutOverflow means the k-mer remainder and the id do not fit in 64 bits.
var ErrLayoutOverflow = errors.New("diamer: k-mer remainder and id do not fit in 64 bits")

// ErrInvalidBitsForIDs means the number of bits for ids is out of range.
var ErrInvalidBitsForIDs = errors.New("diamer: invalid number of bits for ids, valid range is [1, 32]")

// ErrIDOverflow means an id is too big for the number of bits reserved for ids.
var ErrIDOverflow = errors.New("diamer: id overflows the bits reserved for ids")

// Layout describes how a k-mer code is split into a bucket name and
// a bucket-local remainder, and how remainders and ids are packed
// into 64-bit index entries:
//
//	bucket name: the lowest BucketBits bits of the k-mer code
//	entry:       remainder << BitsForIDs | id
type Layout struct {
	Base   int
	Mask   Mask
	Weight int

	KmerBits   int // bits for the largest k-mer code
	BitsForIDs int
	BucketBits int
	NumBuckets int

	bucketMask uint64
	idMask     uint64
}

// NewLayout creates a Layout. If bucketBits is 0, the smallest number
// (but not less than MinBucketBits) that makes the remainder fit is chosen.
func NewLayout(base int, mask Mask, bitsForIDs int, bucketBits int) (*Layout, error) {
	if base < 2 || base > 64 {
		return nil, ErrInvalidBase
	}
	if len(mask) == 0 {
		return nil, ErrInvalidMask
	}
	if bitsForIDs < 1 || bitsForIDs > 32 {
		return nil, ErrInvalidBitsForIDs
	}
	weight := mask.Weight()
	n, ok := Pow(uint64(base), weight)
	if !ok {
		return nil, ErrKmerOverflow
	}
	kmerBits := bits.Len64(n - 1)

	overflow := kmerBits - (64 - bitsForIDs)
	if bucketBits == 0 {
		bucketBits = overflow
		if bucketBits < MinBucketBits {
			bucketBits = MinBucketBits
		}
		if bucketBits > kmerBits {
			bucketBits = kmerBits
		}
	}
	if bucketBits < overflow {
		return nil, errors.Wrapf(ErrLayoutOverflow,
			"%d bits for k-mers, %d bits for ids, at least %d bits for bucket names are needed",
			kmerBits, bitsForIDs, overflow)
	}
	if bucketBits > MaxBucketBits || bucketBits > kmerBits || bucketBits < 1 {
		return nil, fmt.Errorf("diamer: invalid number of bits for bucket names: %d, valid range is [%d, %d]",
			bucketBits, max(overflow, 1), min(MaxBucketBits, kmerBits))
	}

	return &Layout{
		Base:       base,
		Mask:       mask,
		Weight:     weight,
		KmerBits:   kmerBits,
		BitsForIDs: bitsForIDs,
		BucketBits: bucketBits,
		NumBuckets: 1 << bucketBits,
		bucketMask: 1<<bucketBits - 1,
		idMask:     1<<bitsForIDs - 1,
	}, nil
}

// MaxID returns the largest id allowed. The all-one id is reserved,
// so that no entry equals the sentinel of empty slots.
func (l *Layout) MaxID() uint32 {
	return uint32(l.idMask - 1)
}

// CheckID returns ErrIDOverflow if the id is too big.
func (l *Layout) CheckID(id uint32) error {
	if uint64(id) > l.idMask-1 {
		return errors.Wrapf(ErrIDOverflow, "id %d > %d (%d bits)", id, l.idMask-1, l.BitsForIDs)
	}
	return nil
}

// Bucket returns the bucket name of a k-mer code.
func (l *Layout) Bucket(kmer uint64) int {
	return int(kmer & l.bucketMask)
}

// Remainder returns the part of a k-mer code stored in its bucket.
func (l *Layout) Remainder(kmer uint64) uint64 {
	return kmer >> l.BucketBits
}

// Kmer restores the k-mer code from a bucket name and a remainder.
func (l *Layout) Kmer(bucket int, remainder uint64) uint64 {
	return remainder<<l.BucketBits | uint64(bucket)
}

// Pack packs a remainder and an id into an entry.
func (l *Layout) Pack(remainder uint64, id uint32) uint64 {
	return remainder<<l.BitsForIDs | uint64(id)
}

// Entry packs a k-mer code and an id into an entry.
func (l *Layout) Entry(kmer uint64, id uint32) uint64 {
	return (kmer>>l.BucketBits)<<l.BitsForIDs | uint64(id)
}

// EntryRemainder returns the k-mer remainder of an entry.
func (l *Layout) EntryRemainder(entry uint64) uint64 {
	return entry >> l.BitsForIDs
}

// EntryID returns the id of an entry.
func (l *Layout) EntryID(entry uint64) uint32 {
	return uint32(entry & l.idMask)
}

func (l *Layout) String() string {
	return fmt.Sprintf("base: %d, mask: %s (k=%d, s=%d), k-mer bits: %d, id bits: %d, bucket bits: %d (%d buckets)",
		l.Base, l.Mask, len(l.Mask), len(l.Mask)-l.Weight, l.KmerBits, l.BitsForIDs, l.BucketBits, l.NumBuckets)
}
