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

package index

import (
	"io"
	"math"

	diamer "github.com/husonlab/diamer1-sub000"
	"github.com/husonlab/diamer1-sub000/alphabet"
	"github.com/twotwotwo/sorts/sortutil"
)

// Estimate is the result of sampling the input.
type Estimate struct {
	Records         int   // all records
	Residues        int64 // all residues or bases
	SampledRecords  int
	SampledResidues int64

	Frequencies []float64 // symbol likelihoods of the sample

	BucketSizes     []int64 // estimated entries of each bucket
	MaxBucketSize   int64
	Capacity        int // slots of each bucket array
	BucketsPerCycle int
	Cycles          int
}

// EstimateSymbolFrequencies returns the likelihoods of symbols
// in the first n sequences of the input.
func EstimateSymbolFrequencies(opt *Options, sup Supplier, n int) ([]float64, error) {
	c, err := newConfig(opt)
	if err != nil {
		return nil, err
	}
	_, counter, err := sample(c, sup, n)
	if err != nil {
		return nil, err
	}
	return counter.Frequencies(), nil
}

// sample reads the first n sequences and returns their symbol fragments.
func sample(c *config, sup Supplier, n int) ([][][]byte, *alphabet.Counter, error) {
	if err := sup.Reset(); err != nil {
		return nil, nil, err
	}
	counter := alphabet.NewCounter(c.layout.Base)
	frags := make([][][]byte, 0, n)
	var r *Record
	var err error
	for i := 0; i < n; i++ {
		r, err = sup.Next()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, nil, err
		}
		f, err := c.fragments(r.Seq, nil)
		if err != nil {
			return nil, nil, err
		}
		for _, s := range f {
			counter.Add(s)
		}
		frags = append(frags, f)
	}
	return frags, counter, nil
}

// EstimateBucketSizes samples the first SampleSize sequences, counts
// their k-mers per bucket, and scales the counts to the whole input.
// The capacity of bucket arrays and the number of buckets per cycle
// are derived from the largest bucket and the memory limit.
// The result only depends on the input and the options.
// withIDs tells whether taxids are stored beside the entries.
func EstimateBucketSizes(opt *Options, sup Supplier, withIDs bool) (*Estimate, error) {
	c, err := newConfig(opt)
	if err != nil {
		return nil, err
	}
	return estimate(c, sup, withIDs)
}

func estimate(c *config, sup Supplier, withIDs bool) (*Estimate, error) {
	opt := c.opt
	frags, counter, err := sample(c, sup, opt.SampleSize)
	if err != nil {
		return nil, err
	}
	est := &Estimate{
		Frequencies:    counter.Frequencies(),
		SampledRecords: len(frags),
		Records:        len(frags),
	}

	// k-mers of the sample
	ex, err := c.extractor(est.Frequencies)
	if err != nil {
		return nil, err
	}
	layout := c.layout
	counts := make([]int64, layout.NumBuckets)
	kmers := make([]uint64, 0, 1024)
	var kmer uint64
	for i, f := range frags {
		for _, s := range f {
			kmers = ex.Extract(s, kmers[:0])
			for _, kmer = range kmers {
				counts[layout.Bucket(kmer)]++
			}
		}
		frags[i] = nil
	}

	// residues of the sample and the rest
	if err = sup.Reset(); err != nil {
		return nil, err
	}
	var r *Record
	var i int
	for {
		r, err = sup.Next()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		if i < est.SampledRecords {
			est.SampledResidues += int64(len(r.Seq))
		} else {
			est.Records++
		}
		est.Residues += int64(len(r.Seq))
		i++
	}

	scale := 1.0
	if est.SampledResidues > 0 {
		scale = float64(est.Residues) / float64(est.SampledResidues)
	}
	est.BucketSizes = make([]int64, len(counts))
	for b, n := range counts {
		est.BucketSizes[b] = int64(math.Ceil(float64(n) * scale))
		if est.BucketSizes[b] > est.MaxBucketSize {
			est.MaxBucketSize = est.BucketSizes[b]
		}
	}

	// 10 percent extra, plus the unused tails of the contingents of all workers
	est.Capacity = int(math.Ceil(float64(est.MaxBucketSize)*1.1)) + opt.ContingentSize*opt.NumCPUs

	slotBytes := int64(8)
	if withIDs {
		slotBytes += 4
	}
	est.BucketsPerCycle = opt.BucketsPerCycle
	if est.BucketsPerCycle == 0 {
		est.BucketsPerCycle = bucketsPerCycle(layout.NumBuckets, opt.MaxMemory, int64(est.Capacity)*slotBytes)
	}
	if est.BucketsPerCycle > layout.NumBuckets {
		est.BucketsPerCycle = layout.NumBuckets
	}
	est.Cycles = ceilDiv(layout.NumBuckets, est.BucketsPerCycle)

	return est, nil
}

// bucketsPerCycle returns the number of buckets fitting in the memory,
// rounded down so that the cycles are of even sizes.
func bucketsPerCycle(buckets int, maxMem int64, bucketBytes int64) int {
	n := 1
	if bucketBytes > 0 {
		n = int(maxMem / bucketBytes)
	}
	if n < 1 {
		return 1
	}
	if n >= buckets {
		return buckets
	}
	return ceilDiv(buckets, ceilDiv(buckets, n))
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

// Quantiles returns the 50th, 90th, 99th percentiles and the maximum of bucket sizes.
func (est *Estimate) Quantiles() [4]int64 {
	var q [4]int64
	if len(est.BucketSizes) == 0 {
		return q
	}
	sizes := make([]uint64, len(est.BucketSizes))
	for i, n := range est.BucketSizes {
		sizes[i] = uint64(n)
	}
	sortutil.Uint64s(sizes)
	n := len(sizes)
	q[0] = int64(sizes[(n-1)*50/100])
	q[1] = int64(sizes[(n-1)*90/100])
	q[2] = int64(sizes[(n-1)*99/100])
	q[3] = int64(sizes[n-1])
	return q
}

// CycleRange returns the bucket names [start, end) of a cycle.
func (est *Estimate) CycleRange(cycle int, layout *diamer.Layout) (int, int) {
	start := cycle * est.BucketsPerCycle
	end := start + est.BucketsPerCycle
	if end > layout.NumBuckets {
		end = layout.NumBuckets
	}
	return start, end
}
