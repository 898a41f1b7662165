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
	"math/rand"
	"testing"
)

func randProteins(n int) []*Record {
	r := rand.New(rand.NewSource(1))
	aa := []byte("ACDEFGHIKLMNPQRSTVWY")
	records := make([]*Record, n)
	for i := range records {
		s := make([]byte, 50+r.Intn(200))
		for j := range s {
			s[j] = aa[r.Intn(len(aa))]
		}
		records[i] = &Record{Header: []byte("1"), Seq: s}
	}
	return records
}

func TestEstimateIdempotent(t *testing.T) {
	opt := DefaultDBOptions()
	opt.NumCPUs = 4
	opt.Mask = "11111"
	opt.SampleSize = 20
	opt.MaxMemory = 1 << 20
	sup := NewSliceSupplier(randProteins(100))

	est1, err := EstimateBucketSizes(opt, sup, true)
	if err != nil {
		t.Error(err)
		return
	}
	est2, err := EstimateBucketSizes(opt, sup, true)
	if err != nil {
		t.Error(err)
		return
	}

	if est1.Records != 100 || est1.SampledRecords != 20 {
		t.Errorf("records, expected: 100 (20 sampled), result: %d (%d sampled)", est1.Records, est1.SampledRecords)
	}
	if est1.BucketsPerCycle != est2.BucketsPerCycle || est1.Capacity != est2.Capacity || est1.Cycles != est2.Cycles {
		t.Errorf("different estimates: %d/%d/%d vs %d/%d/%d",
			est1.BucketsPerCycle, est1.Capacity, est1.Cycles, est2.BucketsPerCycle, est2.Capacity, est2.Cycles)
	}
	for i := range est1.BucketSizes {
		if est1.BucketSizes[i] != est2.BucketSizes[i] {
			t.Errorf("bucket %d: %d vs %d", i, est1.BucketSizes[i], est2.BucketSizes[i])
			break
		}
	}
	for i, f := range est1.Frequencies {
		if f != est2.Frequencies[i] {
			t.Errorf("frequency of symbol %d: %f vs %f", i, f, est2.Frequencies[i])
		}
	}

	// the capacity covers the largest bucket and the contingents of all workers
	if est1.Capacity < int(est1.MaxBucketSize)+opt.ContingentSize*opt.NumCPUs {
		t.Errorf("capacity %d is too small for buckets of %d entries", est1.Capacity, est1.MaxBucketSize)
	}
	q := est1.Quantiles()
	if q[3] != est1.MaxBucketSize || q[0] > q[1] || q[1] > q[2] || q[2] > q[3] {
		t.Errorf("unexpected quantiles: %v", q)
	}

	if est1.Cycles*est1.BucketsPerCycle < len(est1.BucketSizes) {
		t.Errorf("%d cycles of %d buckets can not cover %d buckets", est1.Cycles, est1.BucketsPerCycle, len(est1.BucketSizes))
	}
}

func TestEstimateSymbolFrequencies(t *testing.T) {
	opt := DefaultDBOptions()
	records := []*Record{
		{Seq: []byte("DDDD")}, // one symbol of base11
		{Seq: []byte("WWWW")},
	}
	freqs, err := EstimateSymbolFrequencies(opt, NewSliceSupplier(records), 1)
	if err != nil {
		t.Error(err)
		return
	}
	if len(freqs) != 11 {
		t.Errorf("number of symbols, expected: 11, result: %d", len(freqs))
		return
	}
	// (4 + 1) / (4 + 11) for D, 1 / 15 for others
	if freqs[0] != 5.0/15 {
		t.Errorf("frequency of D, expected: %f, result: %f", 5.0/15, freqs[0])
	}
	if freqs[10] != 1.0/15 {
		t.Errorf("frequency of W, expected: %f, result: %f", 1.0/15, freqs[10])
	}
}

func TestBucketsPerCycle(t *testing.T) {
	type Case struct {
		buckets     int
		maxMem      int64
		bucketBytes int64
		expected    int
	}
	tests := []Case{
		{1024, 1 << 30, 1 << 10, 1024}, // all in one cycle
		{1024, 100, 1000, 1},           // at least one bucket
		{1024, 300, 1, 256},            // 4 even cycles, not 300+300+300+124
		{1024, 512, 1, 512},
		{1000, 300, 1, 250},
	}
	for _, test := range tests {
		n := bucketsPerCycle(test.buckets, test.maxMem, test.bucketBytes)
		if n != test.expected {
			t.Errorf("bucketsPerCycle(%d, %d, %d), expected: %d, result: %d",
				test.buckets, test.maxMem, test.bucketBytes, test.expected, n)
		}
	}
}
