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
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/grailbio/base/traverse"
	diamer "github.com/husonlab/diamer1-sub000"
	"github.com/husonlab/diamer1-sub000/bucket"
	"github.com/husonlab/diamer1-sub000/index"
	"github.com/husonlab/diamer1-sub000/tree"
	"github.com/pkg/errors"
	"github.com/shenwei356/xopen"
)

// Outputs of AnalyzeDB.
const (
	FileKmersPerRank    = "kmers_per_rank.tsv"
	SuffixKmerHistogram = "_kmer_histogram.tsv"
)

// HistogramBins is the number of bins of k-mer histograms.
const HistogramBins = 1000

// NoRank collects taxa without a (standard) rank.
const NoRank = "no rank"

// DBStats counts the entries of a database index by the rank of their taxa.
type DBStats struct {
	Ranks []string // the last one is NoRank

	Entries    []int64   // entries in bucket files
	Kmers      []int64   // k-mers of taxa recorded in the tree
	Histograms [][]int64 // [rank][bin] of k-mer values
	BinWidth   uint64

	Buckets int
	Missing int

	Elapsed time.Duration
}

// AnalyzeDB scans all buckets of a database index and writes the numbers
// of k-mers per rank and a histogram of k-mer values of every rank into
// opt.OutDir. With opt.StandardRanks, taxa of other ranks are counted
// at their nearest ancestor of a standard rank.
func AnalyzeDB(ctx context.Context, opt *Options, dbDir string) (*DBStats, error) {
	timeStart := time.Now()
	if opt.NumCPUs < 1 {
		return nil, fmt.Errorf("invalid number of CPUs: %d, should be >= 1", opt.NumCPUs)
	}
	if opt.OutDir == "" {
		return nil, fmt.Errorf("output directory needed")
	}

	info, err := diamer.ReadIndexInfo(filepath.Join(dbDir, diamer.FileInfo))
	if err != nil {
		return nil, errors.Wrap(err, "reading database index")
	}
	if info.Kind != diamer.KindDatabase {
		return nil, errors.Wrapf(ErrIndexMismatch, "%s is a %s index", dbDir, info.Kind)
	}
	enc, err := bucket.ParseEncoding(info.BucketEncoding)
	if err != nil {
		return nil, errors.Wrap(err, dbDir)
	}
	layout, err := info.Layout()
	if err != nil {
		return nil, errors.Wrap(err, dbDir)
	}
	t, err := tree.ReadTSV(filepath.Join(dbDir, index.FileTree))
	if err != nil {
		return nil, errors.Wrap(err, "reading taxonomy of the database index")
	}

	ranks := tree.StandardRanks
	if !opt.StandardRanks {
		ranks = Ranks(t)
	}
	st := &DBStats{
		Ranks:   append(append(make([]string, 0, len(ranks)+1), ranks...), NoRank),
		Buckets: info.Buckets,
	}
	rankOf := rankIndexes(t, st.Ranks, opt.StandardRanks)
	none := int16(len(st.Ranks) - 1)

	maxKmer := uint64(math.MaxUint64)
	if n, ok := diamer.Pow(uint64(layout.Base), layout.Weight); ok {
		maxKmer = n - 1
	}
	st.BinWidth = maxKmer/HistogramBins + 1

	// k-mers recorded in the tree
	st.Kmers = make([]int64, len(st.Ranks))
	if col, err := t.IntProperty(tree.PropKmersInDatabase); err == nil {
		t.Walk(func(id uint32) bool {
			st.Kmers[rankOf[id]] += t.Int(col, id)
			return true
		})
	} else {
		log.Warningf("%s: %s", dbDir, err)
	}

	// -------------------------------------------------------------------
	// entries in buckets

	n := info.Buckets
	threads := opt.NumCPUs
	if threads > n {
		threads = n
	}
	entries := make([][]int64, threads)
	hists := make([][][]int64, threads)
	missing := make([]int, threads)
	for w := range entries {
		entries[w] = make([]int64, len(st.Ranks))
		hists[w] = make([][]int64, len(st.Ranks))
		for r := range hists[w] {
			hists[w][r] = make([]int64, HistogramBins)
		}
	}

	bar := index.NewProgress(opt.ProgressBar, "scanned buckets: ", n)
	err = traverse.Each(threads, func(w int) error {
		for name := w; name < n; name += threads {
			if err := ctx.Err(); err != nil {
				return err
			}
			if !bucket.Exists(dbDir, name) {
				missing[w]++
				bar.Add(1)
				continue
			}
			r, err := bucket.NewReader(bucket.FileName(dbDir, name), enc)
			if err != nil {
				return err
			}
			for i := r.Len(); i > 0; i-- {
				e, err := r.Next()
				if err != nil {
					r.Close()
					return err
				}
				rank := none
				if id := layout.EntryID(e); int(id) < len(rankOf) {
					rank = rankOf[id]
				}
				entries[w][rank]++
				hists[w][rank][layout.Kmer(name, layout.EntryRemainder(e))/st.BinWidth]++
			}
			r.Close()
			bar.Add(1)
		}
		return nil
	})
	bar.Wait()
	if err != nil {
		return nil, err
	}

	st.Entries = entries[0]
	st.Histograms = hists[0]
	st.Missing = missing[0]
	for w := 1; w < threads; w++ {
		st.Missing += missing[w]
		for r := range st.Ranks {
			st.Entries[r] += entries[w][r]
			for b, c := range hists[w][r] {
				st.Histograms[r][b] += c
			}
		}
	}
	if st.Missing > 0 {
		log.Warningf("%d of %d buckets missing, skipped", st.Missing, st.Buckets)
	}

	// -------------------------------------------------------------------
	// outputs

	if err = os.MkdirAll(opt.OutDir, 0755); err != nil {
		return nil, err
	}
	file := filepath.Join(opt.OutDir, FileKmersPerRank)
	if err = st.WriteKmersPerRank(file); err != nil {
		return nil, err
	}
	log.Infof("k-mers per rank saved to %s", file)

	var files int
	for r, rank := range st.Ranks {
		if st.Entries[r] == 0 {
			continue
		}
		if err = st.WriteHistogram(filepath.Join(opt.OutDir, HistogramFile(rank)), r); err != nil {
			return nil, err
		}
		files++
	}
	log.Infof("%d k-mer histograms saved to %s", files, opt.OutDir)

	st.Elapsed = time.Since(timeStart)
	log.Infof("elapsed time: %s", st.Elapsed)
	return st, nil
}

// rankIndexes maps taxids to indexes of ranks, the last of which is NoRank.
// Taxa of other ranks get the rank of their parent if inherit is true,
// otherwise NoRank.
func rankIndexes(t *tree.Tree, ranks []string, inherit bool) []int16 {
	none := int16(len(ranks) - 1)
	idx := make(map[string]int16, len(ranks))
	for i, rank := range ranks[:none] {
		idx[rank] = int16(i)
	}

	rankOf := make([]int16, int(t.MaxID())+1)
	for i := range rankOf {
		rankOf[i] = none
	}
	t.Walk(func(id uint32) bool {
		if i, ok := idx[t.Rank(id)]; ok {
			rankOf[id] = i
		} else if p, ok := t.Parent(id); ok && inherit {
			rankOf[id] = rankOf[p] // parents come first in BFS order
		}
		return true
	})
	return rankOf
}

// HistogramFile returns the name of the histogram file of a rank.
func HistogramFile(rank string) string {
	return strings.ReplaceAll(rank, " ", "_") + SuffixKmerHistogram
}

// WriteKmersPerRank writes the numbers of entries and k-mers of every rank.
func (st *DBStats) WriteKmersPerRank(file string) (err error) {
	outfh, err := xopen.Wopen(file)
	if err != nil {
		return errors.Wrap(err, file)
	}
	defer func() {
		if err2 := outfh.Close(); err == nil {
			err = errors.Wrap(err2, file)
		}
	}()

	outfh.WriteString("rank\tentries\tkmers\n")
	for r, rank := range st.Ranks {
		fmt.Fprintf(outfh, "%s\t%d\t%d\n", rank, st.Entries[r], st.Kmers[r])
	}
	return nil
}

// WriteHistogram writes the histogram of k-mer values of the r-th rank,
// with the smallest k-mer of each bin.
func (st *DBStats) WriteHistogram(file string, r int) (err error) {
	outfh, err := xopen.Wopen(file)
	if err != nil {
		return errors.Wrap(err, file)
	}
	defer func() {
		if err2 := outfh.Close(); err == nil {
			err = errors.Wrap(err2, file)
		}
	}()

	outfh.WriteString("kmer from\tcount\n")
	for b, c := range st.Histograms[r] {
		fmt.Fprintf(outfh, "%d\t%d\n", uint64(b)*st.BinWidth, c)
	}
	return nil
}
