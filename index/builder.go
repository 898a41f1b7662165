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

// Package index builds bucketed k-mer indexes of protein databases
// and of sequencing reads.
//
// The bucket names are processed in cycles. In each cycle, all sequences
// are read again, every worker extracts k-mers and writes the ones
// belonging to the buckets of the cycle into shared arrays, then the
// buckets are sorted and written to files.
package index

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/grailbio/base/errors"
	diamer "github.com/husonlab/diamer1-sub000"
	"github.com/husonlab/diamer1-sub000/bucket"
	"github.com/husonlab/diamer1-sub000/sorting"
	pkgerrors "github.com/pkg/errors"
)

// ErrProducerStalled means the workers received no sequences for too long.
var ErrProducerStalled = pkgerrors.New("index: the sequence reader stalled")

// Stats counts records and k-mers of a cycle.
type Stats struct {
	Records int64 // records read
	Unknown int64 // records without a usable id
	Short   int64 // records too short for a single k-mer
	Kmers   int64 // k-mers of the buckets of the cycle
}

// Merge adds the counts of another Stats.
func (s *Stats) Merge(o *Stats) {
	s.Records += o.Records
	s.Unknown += o.Unknown
	s.Short += o.Short
	s.Kmers += o.Kmers
}

// batch is a chunk of records sent from the reader to the workers.
type batch struct {
	seqs [][]byte
	ids  []uint32
}

// builder runs the cycles of an index.
type builder struct {
	c       *config
	sup     Supplier
	kind    string
	withIDs bool // entries are remainders with taxids beside them

	// id returns the id of a record, false for skipping it.
	id func(r *Record, ordinal int) (uint32, bool, error)

	// headers of reads, written in the first cycle
	headers *headerWriter

	// write collapses (optional) and writes a sorted bucket,
	// it returns the number of entries written.
	write func(b *bucket.Bucket, file string) (int, error)

	est *Estimate
}

// run estimates bucket sizes, runs all cycles, and writes the summary files.
func (b *builder) run(ctx context.Context) (*Report, error) {
	opt := b.c.opt
	layout := b.c.layout
	timeStart := time.Now()

	if err := os.MkdirAll(opt.OutDir, 0755); err != nil {
		return nil, pkgerrors.Wrap(err, opt.OutDir)
	}

	log.Infof("layout: %s", layout)
	est, err := estimate(b.c, b.sup, b.withIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "estimating bucket sizes")
	}
	b.est = est
	q := est.Quantiles()
	log.Infof("estimated from %d of %d sequences: bucket sizes (median/90%%/99%%/max): %d/%d/%d/%d",
		est.SampledRecords, est.Records, q[0], q[1], q[2], q[3])
	log.Infof("capacity of buckets: %d, buckets per cycle: %d, cycles: %d",
		est.Capacity, est.BucketsPerCycle, est.Cycles)

	if !b.withIDs && est.Records > 0 && uint64(est.Records-1) > uint64(layout.MaxID()) {
		return nil, pkgerrors.Wrapf(diamer.ErrIDOverflow, "%d reads, at most %d reads can be indexed with %d bits",
			est.Records, uint64(layout.MaxID())+1, layout.BitsForIDs)
	}
	if b.headers != nil {
		if err = b.headers.begin(est.Records); err != nil {
			return nil, err
		}
	}

	report := &Report{
		Kind:            b.kind,
		OutDir:          opt.OutDir,
		Layout:          layout.String(),
		Filter:          b.c.filter.String(),
		BucketsPerCycle: est.BucketsPerCycle,
		Cycles:          est.Cycles,
		Capacity:        est.Capacity,
		BucketSizes:     make([]int64, layout.NumBuckets),
	}
	if f, ok := b.sup.(interface{ Files() []string }); ok {
		report.Input = f.Files()
	}

	var store *bucket.Store
	var stats *Stats
	var n int64
	for cycle := 0; cycle < est.Cycles; cycle++ {
		start, end := est.CycleRange(cycle, layout)
		if store == nil {
			store = bucket.NewStore(start, end, est.Capacity, opt.ContingentSize, b.withIDs)
		} else {
			store.Reset(start, end)
		}

		log.Infof("cycle %d/%d: buckets [%d, %d)", cycle+1, est.Cycles, start, end)

		stats, err = b.fill(ctx, store, cycle)
		if err != nil {
			return nil, err
		}
		if cycle == 0 {
			report.Records = stats.Records
			report.Unknown = stats.Unknown
			report.Short = stats.Short
			if b.headers != nil {
				if err = b.headers.close(); err != nil {
					return nil, err
				}
			}
		}
		report.Kmers += stats.Kmers

		b.sort(store)

		n, err = b.writeStore(ctx, store, report.BucketSizes)
		if err != nil {
			return nil, err
		}
		report.Entries += n

		log.Infof("  %d k-mers, %d entries written", stats.Kmers, n)
	}
	report.Elapsed = time.Since(timeStart)

	info := diamer.NewIndexInfo(b.kind, b.c.alphabet.String(), layout, b.c.filter)
	info.BucketEncoding = b.c.encoding.String()
	info.BucketsPerCycle = est.BucketsPerCycle
	info.Cycles = est.Cycles
	info.Records = int(report.Records)
	info.Skipped = int(report.Unknown + report.Short)
	info.Kmers = report.Kmers
	info.Entries = report.Entries
	if err = diamer.WriteIndexInfo(infoFile(opt.OutDir), info); err != nil {
		return nil, err
	}
	if err = report.Write(reportFile(opt.OutDir)); err != nil {
		return nil, err
	}
	return report, nil
}

// fill reads all records, and writes the k-mers belonging to the store.
func (b *builder) fill(ctx context.Context, store *bucket.Store, cycle int) (*Stats, error) {
	opt := b.c.opt
	cctx, cancel := context.WithCancel(ctx)
	defer cancel()

	e := errors.Once{}
	fail := func(err error) {
		e.Set(err)
		cancel()
	}

	bar := NewBytesProgress(opt.ProgressBar, "read bytes: ", b.sup.Size())

	ch := make(chan *batch, opt.QueueSize)
	readerStats := &Stats{}
	doneReading := make(chan struct{})

	// reader
	go func() {
		defer close(doneReading)
		defer close(ch)

		if err := b.sup.Reset(); err != nil {
			fail(err)
			return
		}
		bt := &batch{}
		send := func() bool {
			bar.SetCurrent(b.sup.BytesRead())
			select {
			case ch <- bt:
				bt = &batch{}
				return true
			case <-cctx.Done():
				return false
			}
		}

		var r *Record
		var err error
		var id uint32
		var ok bool
		for ordinal := 0; ; ordinal++ {
			r, err = b.sup.Next()
			if err != nil {
				if err == io.EOF {
					break
				}
				fail(err)
				return
			}
			readerStats.Records++

			if cycle == 0 && b.headers != nil {
				if err = b.headers.write(ordinal, r.Header); err != nil {
					fail(err)
					return
				}
			}

			id, ok, err = b.id(r, ordinal)
			if err != nil {
				fail(err)
				return
			}
			if !ok {
				readerStats.Unknown++
				continue
			}

			bt.seqs = append(bt.seqs, append([]byte(nil), r.Seq...))
			bt.ids = append(bt.ids, id)
			if len(bt.seqs) == opt.BatchSize && !send() {
				return
			}
		}
		if len(bt.seqs) > 0 && !send() {
			return
		}
		bar.Done()
	}()

	// workers
	threads := opt.NumCPUs
	stats := make([]*Stats, threads)
	var wg sync.WaitGroup
	for w := 0; w < threads; w++ {
		stats[w] = &Stats{}
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			if err := b.work(cctx, w, ch, store, stats[w]); err != nil {
				fail(err)
			}
		}(w)
	}
	wg.Wait()
	cancel()
	if e.Err() == nil && ctx.Err() == nil {
		<-doneReading
	} else {
		// the reader might be stuck in the supplier for good, and is left behind.
		select {
		case <-doneReading:
		case <-time.After(opt.PollTimeout):
		}
	}
	bar.Wait()

	if err := e.Err(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	st := readerStats
	for _, s := range stats {
		st.Merge(s)
	}
	return st, nil
}

// work consumes batches until the reader is done.
func (b *builder) work(ctx context.Context, w int, ch chan *batch, store *bucket.Store, st *Stats) error {
	opt := b.c.opt
	layout := b.c.layout
	k := b.c.mask.K()

	ex, err := b.c.extractor(b.est.Frequencies)
	if err != nil {
		return err
	}
	writers := store.NewWriters()

	var frags [][]byte
	kmers := make([]uint64, 0, 1024)
	var kmer uint64
	var name int
	var entry uint64
	var long bool

	timer := time.NewTimer(opt.PollTimeout)
	defer timer.Stop()
	var stalls int

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
			stalls++
			if opt.WarnStalls > 0 && stalls%opt.WarnStalls == 0 {
				log.Warningf("worker %d: no sequences received in the last %s", w, time.Duration(stalls)*opt.PollTimeout)
			}
			if stalls >= opt.MaxStalls {
				return pkgerrors.Wrapf(ErrProducerStalled, "no sequences received in %s", time.Duration(stalls)*opt.PollTimeout)
			}
			timer.Reset(opt.PollTimeout)
		case bt, ok := <-ch:
			if !ok {
				return nil
			}
			stalls = 0

			for i, s := range bt.seqs {
				frags, err = b.c.fragments(s, frags[:0])
				if err != nil {
					return err
				}
				long = false
				for _, f := range frags {
					if len(f) < k {
						continue
					}
					long = true
					kmers = ex.Extract(f, kmers[:0])
					for _, kmer = range kmers {
						name = layout.Bucket(kmer)
						if !store.Contains(name) {
							continue
						}
						if b.withIDs {
							entry = layout.Remainder(kmer)
						} else {
							entry = layout.Entry(kmer, bt.ids[i])
						}
						if err = writers.Add(name, entry, bt.ids[i]); err != nil {
							return err
						}
						st.Kmers++
					}
				}
				if !long {
					st.Short++
				}
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(opt.PollTimeout)
		}
	}
}

// sort sorts all buckets of the store, several at a time.
func (b *builder) sort(store *bucket.Store) {
	opt := b.c.opt
	threads := opt.NumCPUs
	n := len(store.Buckets)

	// threads inside one bucket
	perBucket := threads / n
	if perBucket < 1 {
		perBucket = 1
	}
	sorter := sorting.NewSorter(perBucket)
	sorter.Threshold = opt.SortThreshold

	bar := NewProgress(opt.ProgressBar, "sorted buckets: ", n)

	var wg sync.WaitGroup
	tokens := make(chan int, threads)
	for _, bk := range store.Buckets {
		wg.Add(1)
		tokens <- 1
		go func(bk *bucket.Bucket) {
			entries, ids := bk.Filled()
			sorter.Sort(entries, ids)
			bk.SetSorted()

			bar.Add(1)
			wg.Done()
			<-tokens
		}(bk)
	}
	wg.Wait()
	bar.Wait()
}

// writeStore writes all buckets of the store to files, and records
// the numbers of entries in sizes.
func (b *builder) writeStore(ctx context.Context, store *bucket.Store, sizes []int64) (int64, error) {
	opt := b.c.opt
	bar := NewProgress(opt.ProgressBar, "written buckets: ", len(store.Buckets))

	e := errors.Once{}
	var wg sync.WaitGroup
	tokens := make(chan int, opt.NumCPUs)
	for _, bk := range store.Buckets {
		if ctx.Err() != nil || e.Err() != nil {
			break
		}
		wg.Add(1)
		tokens <- 1
		go func(bk *bucket.Bucket) {
			defer func() {
				bar.Add(1)
				wg.Done()
				<-tokens
			}()
			n, err := b.write(bk, bucket.FileName(opt.OutDir, bk.Name))
			if err != nil {
				e.Set(err)
				return
			}
			sizes[bk.Name] = int64(n)
		}(bk)
	}
	wg.Wait()
	bar.Wait()

	if err := e.Err(); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var n int64
	for _, bk := range store.Buckets {
		n += sizes[bk.Name]
	}
	return n, nil
}
