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

// Package assign matches a read index against a database index and
// assigns every read to a taxon.
//
// Buckets of the same name are merge-joined in parallel, filling a hit table
// of (taxid, count) pairs per read. Each read is then classified by walking
// the weighted subtree of its hits with one or more algorithms.
package assign

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/grailbio/base/traverse"
	diamer "github.com/husonlab/diamer1-sub000"
	"github.com/husonlab/diamer1-sub000/bucket"
	"github.com/husonlab/diamer1-sub000/index"
	"github.com/husonlab/diamer1-sub000/tree"
	"github.com/pkg/errors"
	"github.com/shenwei356/go-logging"
)

var log = logging.MustGetLogger("diamer")

// Output files.
const (
	FileRawAssignments     = "raw_assignments.tsv"
	FilePerReadAssignments = "per_read_assignments.tsv"
	FilePerRankStatistics  = "per_rank_statistics.tsv"
	FileTree               = "tree.tsv"
)

// ErrIndexMismatch means the two directories are not a database index and a read index.
var ErrIndexMismatch = errors.New("assign: a database index and a read index are needed")

// Result holds the hit table and the taxa assigned by every algorithm.
type Result struct {
	Tree       *tree.Tree
	Assignment *Assignment

	Columns []string   // names of algorithms, and of normalized variants
	Taxa    [][]uint32 // assigned taxa, one column per algorithm, indexed by read ordinals

	Buckets int   // bucket names
	Missing int   // buckets missing from either index
	Hits    int64 // matched entries

	Elapsed time.Duration
}

// Run assigns the reads of readsDir with the database index in dbDir,
// and writes the outputs into opt.OutDir.
func Run(ctx context.Context, opt *Options, dbDir, readsDir string) (*Result, error) {
	timeStart := time.Now()
	if err := CheckOptions(opt); err != nil {
		return nil, err
	}
	algs, err := ParseAlgorithms(opt.Algorithms)
	if err != nil {
		return nil, err
	}

	// -------------------------------------------------------------------
	// two indexes

	dbInfo, err := diamer.ReadIndexInfo(filepath.Join(dbDir, diamer.FileInfo))
	if err != nil {
		return nil, errors.Wrap(err, "reading database index")
	}
	readsInfo, err := diamer.ReadIndexInfo(filepath.Join(readsDir, diamer.FileInfo))
	if err != nil {
		return nil, errors.Wrap(err, "reading read index")
	}
	if dbInfo.Kind != diamer.KindDatabase {
		return nil, errors.Wrapf(ErrIndexMismatch, "%s is a %s index", dbDir, dbInfo.Kind)
	}
	if readsInfo.Kind != diamer.KindReads {
		return nil, errors.Wrapf(ErrIndexMismatch, "%s is a %s index", readsDir, readsInfo.Kind)
	}
	if err = dbInfo.CompatibleWith(readsInfo); err != nil {
		return nil, err
	}
	dbEnc, err := bucket.ParseEncoding(dbInfo.BucketEncoding)
	if err != nil {
		return nil, errors.Wrap(err, dbDir)
	}
	readsEnc, err := bucket.ParseEncoding(readsInfo.BucketEncoding)
	if err != nil {
		return nil, errors.Wrap(err, readsDir)
	}

	t, err := tree.ReadTSV(filepath.Join(dbDir, index.FileTree))
	if err != nil {
		return nil, errors.Wrap(err, "reading taxonomy of the database index")
	}
	headers, err := index.ReadHeaders(filepath.Join(readsDir, index.FileHeaders))
	if err != nil {
		return nil, errors.Wrap(err, "reading read headers")
	}
	if len(headers) != readsInfo.Records {
		return nil, errors.Errorf("%d reads in the read index, but %d headers", readsInfo.Records, len(headers))
	}
	log.Infof("%d taxa, %d reads", t.Len(), len(headers))

	if err = os.MkdirAll(opt.OutDir, 0755); err != nil {
		return nil, err
	}

	// -------------------------------------------------------------------
	// merge-join

	res := &Result{
		Tree:       t,
		Assignment: NewAssignment(headers),
		Buckets:    dbInfo.Buckets,
	}
	if err = res.join(ctx, opt, dbDir, readsDir, dbInfo.BitsForIDs, dbEnc, readsEnc); err != nil {
		return nil, err
	}
	if res.Missing > 0 {
		log.Warningf("%d of %d buckets missing from either index, skipped", res.Missing, res.Buckets)
	}
	log.Infof("%d k-mer matches found", res.Hits)

	res.Assignment.SortHits()
	file := filepath.Join(opt.OutDir, FileRawAssignments)
	if err = res.Assignment.WriteRaw(file); err != nil {
		return nil, err
	}
	log.Infof("raw assignments saved to %s", file)

	// -------------------------------------------------------------------
	// classification

	if err = res.classify(ctx, opt, algs); err != nil {
		return nil, err
	}

	file = filepath.Join(opt.OutDir, FilePerReadAssignments)
	if err = res.WritePerRead(file); err != nil {
		return nil, err
	}
	log.Infof("per-read assignments saved to %s", file)

	ranks := tree.StandardRanks
	if !opt.StandardRanks {
		ranks = Ranks(t)
	}
	stats := res.RankStatistics(ranks)
	file = filepath.Join(opt.OutDir, FilePerRankStatistics)
	if err = stats.Write(file); err != nil {
		return nil, err
	}
	log.Infof("per-rank statistics saved to %s", file)

	file = filepath.Join(opt.OutDir, FileTree)
	if err = t.WriteTSV(file, nil, nil); err != nil {
		return nil, err
	}
	log.Infof("taxonomy with read counts saved to %s", file)

	res.Elapsed = time.Since(timeStart)
	log.Infof("elapsed time: %s", res.Elapsed)
	return res, nil
}

// join merge-joins every pair of buckets, each worker taking every threads-th bucket name.
func (res *Result) join(ctx context.Context, opt *Options, dbDir, readsDir string, bits int,
	dbEnc, readsEnc bucket.Encoding) error {
	n := res.Buckets
	threads := opt.NumCPUs
	if threads > n {
		threads = n
	}
	missing := make([]int, threads)
	hits := make([]int64, threads)
	a := res.Assignment

	bar := index.NewProgress(opt.ProgressBar, "joined buckets: ", n)
	err := traverse.Each(threads, func(w int) error {
		for name := w; name < n; name += threads {
			if err := ctx.Err(); err != nil {
				return err
			}
			if !bucket.Exists(dbDir, name) || !bucket.Exists(readsDir, name) {
				missing[w]++
				bar.Add(1)
				continue
			}
			h, err := joinFiles(bucket.FileName(dbDir, name), bucket.FileName(readsDir, name),
				dbEnc, readsEnc, bits, a.Add)
			if err != nil {
				return err
			}
			hits[w] += h
			bar.Add(1)
		}
		return nil
	})
	bar.Wait()
	if err != nil {
		return err
	}

	for w := 0; w < threads; w++ {
		res.Missing += missing[w]
		res.Hits += hits[w]
	}
	return nil
}

func joinFiles(dbFile, readsFile string, dbEnc, readsEnc bucket.Encoding, bits int,
	hit func(read, taxid uint32) error) (int64, error) {
	db, err := bucket.NewReader(dbFile, dbEnc)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	reads, err := bucket.NewReader(readsFile, readsEnc)
	if err != nil {
		return 0, err
	}
	defer reads.Close()

	n, err := Join(db, reads, bits, bits, hit)
	if err != nil {
		return n, errors.Wrapf(err, "joining %s and %s", dbFile, readsFile)
	}
	return n, nil
}

type column struct {
	alg  Algorithm
	norm bool
	name string
	prop int
}

// classify assigns every read with every algorithm, and counts the
// assigned reads of each taxon in the tree properties
// "reads assigned (<name>)" and "reads assigned (<name>) accumulated".
func (res *Result) classify(ctx context.Context, opt *Options, algs []Algorithm) error {
	t := res.Tree
	a := res.Assignment

	var norm func(uint32) float64
	if opt.Normalize {
		col, err := t.IntProperty(tree.PropKmersInDatabase)
		if err != nil {
			return errors.Wrap(err, "normalizing hit counts")
		}
		norm = func(id uint32) float64 { return float64(t.Int(col, id)) }
	}

	cols := make([]column, 0, 2*len(algs))
	for _, alg := range algs {
		cols = append(cols, column{alg: alg, name: alg.Name()})
		if opt.Normalize {
			cols = append(cols, column{alg: alg, norm: true, name: alg.Name() + " norm"})
		}
	}
	res.Columns = make([]string, len(cols))
	res.Taxa = make([][]uint32, len(cols))
	for c := range cols {
		cols[c].prop = t.AddIntProperty(readsAssignedLabel(cols[c].name), 0)
		res.Columns[c] = cols[c].name
		res.Taxa[c] = make([]uint32, a.Len())
	}

	n := a.Len()
	threads := opt.NumCPUs
	if threads > n {
		threads = n
	}
	if threads < 1 {
		threads = 1
	}
	bar := index.NewProgress(opt.ProgressBar, "classified reads: ", n)
	err := traverse.Each(threads, func(w int) error {
		var raw, normed []tree.Weight
		var weights []tree.Weight
		var id uint32
		for i := w; i < n; i += threads {
			if i&1023 == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			raw = a.Weights(i, nil, raw)
			if norm != nil {
				normed = a.Weights(i, norm, normed)
			}
			for c, col := range cols {
				weights = raw
				if col.norm {
					weights = normed
				}
				id = Classify(t, col.alg, weights)
				res.Taxa[c][i] = id
				if id != Unassigned {
					if err := t.AddInt(col.prop, id, 1); err != nil {
						return err
					}
				}
			}
			bar.Add(1)
		}
		return nil
	})
	bar.Wait()
	if err != nil {
		return err
	}

	for _, col := range cols {
		label := readsAssignedLabel(col.name)
		if _, err = t.AccumulateInt(label, label+" accumulated"); err != nil {
			return err
		}
	}
	return nil
}

func readsAssignedLabel(name string) string {
	return "reads assigned (" + name + ")"
}
