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
	"os"
	"path/filepath"
	"testing"

	diamer "github.com/husonlab/diamer1-sub000"
	"github.com/husonlab/diamer1-sub000/bucket"
	"github.com/husonlab/diamer1-sub000/tree"
	"github.com/pkg/errors"
)

func TestAnalyzeDB(t *testing.T) {
	dbDir, readsDir := buildIndexes(t)

	opt := DefaultOptions()
	opt.NumCPUs = 3
	opt.OutDir = filepath.Join(t.TempDir(), "analysis")

	st, err := AnalyzeDB(context.Background(), opt, dbDir)
	if err != nil {
		t.Error(err)
		return
	}
	if len(st.Ranks) != len(tree.StandardRanks)+1 || st.Ranks[len(st.Ranks)-1] != NoRank {
		t.Errorf("unexpected ranks: %v", st.Ranks)
		return
	}

	// all entries of all buckets
	info, err := diamer.ReadIndexInfo(filepath.Join(dbDir, diamer.FileInfo))
	if err != nil {
		t.Error(err)
		return
	}
	var total int64
	for name := 0; name < info.Buckets; name++ {
		entries, err := bucket.Read(bucket.FileName(dbDir, name), bucket.Raw)
		if err != nil {
			t.Error(err)
			return
		}
		total += int64(len(entries))
	}

	var sum int64
	for r, rank := range st.Ranks {
		sum += st.Entries[r]
		if st.Entries[r] != st.Kmers[r] {
			t.Errorf("%s: %d entries, but %d k-mers in the tree", rank, st.Entries[r], st.Kmers[r])
		}
		var h int64
		for _, c := range st.Histograms[r] {
			h += c
		}
		if h != st.Entries[r] {
			t.Errorf("%s: %d entries, but %d in the histogram", rank, st.Entries[r], h)
		}
	}
	if sum != total || st.Missing != 0 {
		t.Errorf("entries, expected: %d, result: %d, %d buckets missing", total, sum, st.Missing)
	}

	// species has the unique k-mers, superkingdom the shared ones
	for _, r := range []int{0, 7} {
		if st.Entries[r] == 0 {
			t.Errorf("no entries of %s", st.Ranks[r])
		}
	}
	if st.Entries[1] != 0 {
		t.Errorf("unexpected entries of kingdom: %d", st.Entries[1])
	}

	for _, file := range []string{FileKmersPerRank, HistogramFile("species"), HistogramFile("superkingdom")} {
		if _, err = os.Stat(filepath.Join(opt.OutDir, file)); err != nil {
			t.Error(err)
		}
	}
	if _, err = os.Stat(filepath.Join(opt.OutDir, HistogramFile("kingdom"))); err == nil {
		t.Errorf("histogram of a rank without entries written")
	}

	// a read index is not a database index
	_, err = AnalyzeDB(context.Background(), opt, readsDir)
	if errors.Cause(err) != ErrIndexMismatch {
		t.Errorf("expected error: %v, result: %v", ErrIndexMismatch, err)
	}

	// missing buckets are skipped
	if err = os.Remove(bucket.FileName(dbDir, 3)); err != nil {
		t.Error(err)
		return
	}
	st, err = AnalyzeDB(context.Background(), opt, dbDir)
	if err != nil {
		t.Error(err)
		return
	}
	if st.Missing != 1 {
		t.Errorf("missing buckets, expected: 1, result: %d", st.Missing)
	}
}

// newRanksTree builds a taxonomy with ranks out of the standard ones:
//
//	1 root, no rank
//	└── 2 Bacteria, superkingdom
//	    └── 5 clade
//	        └── 10 A, species
//	            └── 11 A1, strain
func newRanksTree(t *testing.T) *tree.Tree {
	tr := tree.New()
	nodes := []struct {
		id, parent uint32
		rank, name string
	}{
		{1, 1, "no rank", "root"},
		{2, 1, "superkingdom", "Bacteria"},
		{5, 2, "clade", "C"},
		{10, 5, "species", "A"},
		{11, 10, "strain", "A1"},
	}
	for _, n := range nodes {
		if err := tr.AddNode(n.id, n.parent, n.rank, n.name); err != nil {
			t.Fatal(err)
		}
	}
	if err := tr.Finish(); err != nil {
		t.Fatal(err)
	}
	return tr
}

func TestRankIndexes(t *testing.T) {
	tr := newRanksTree(t)

	ranks := append(append([]string{}, tree.StandardRanks...), NoRank)
	rankOf := rankIndexes(tr, ranks, true)
	for id, rank := range map[uint32]string{1: NoRank, 2: "superkingdom", 5: "superkingdom", 10: "species", 11: "species"} {
		if ranks[rankOf[id]] != rank {
			t.Errorf("standard ranks, taxon %d, expected: %s, result: %s", id, rank, ranks[rankOf[id]])
		}
	}

	ranks = append(Ranks(tr), NoRank)
	if len(ranks) != 5 {
		t.Errorf("unexpected ranks: %v", ranks)
		return
	}
	rankOf = rankIndexes(tr, ranks, false)
	for id, rank := range map[uint32]string{1: NoRank, 2: "superkingdom", 5: "clade", 10: "species", 11: "strain"} {
		if ranks[rankOf[id]] != rank {
			t.Errorf("all ranks, taxon %d, expected: %s, result: %s", id, rank, ranks[rankOf[id]])
		}
	}
	if HistogramFile(NoRank) != "no_rank_kmer_histogram.tsv" {
		t.Errorf("unexpected file name: %s", HistogramFile(NoRank))
	}
}
