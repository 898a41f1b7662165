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
	"context"
	"path/filepath"
	"strings"
	"testing"

	diamer "github.com/husonlab/diamer1-sub000"
	"github.com/husonlab/diamer1-sub000/alphabet"
	"github.com/husonlab/diamer1-sub000/bucket"
	"github.com/husonlab/diamer1-sub000/tree"
	"github.com/pkg/errors"
)

// newTestTree builds a small taxonomy:
//
//	1
//	├── 3
//	│   └── 5
//	└── 4
func newTestTree(t *testing.T) *tree.Tree {
	tr := tree.New()
	nodes := [][2]uint32{{1, 1}, {3, 1}, {4, 1}, {5, 3}}
	for _, n := range nodes {
		if err := tr.AddNode(n[0], n[1], "no rank", ""); err != nil {
			t.Fatal(err)
		}
	}
	if err := tr.Finish(); err != nil {
		t.Fatal(err)
	}
	return tr
}

func testOptions(t *testing.T, seqType string) *Options {
	opt := DefaultDBOptions()
	opt.SeqType = seqType
	opt.OutDir = t.TempDir()
	opt.NumCPUs = 2
	opt.Mask = "1111"
	opt.Filter = "none"
	opt.BucketsPerCycle = 256
	opt.ContingentSize = 8
	opt.BatchSize = 3
	opt.QueueSize = 2
	opt.SortThreshold = 4
	return opt
}

func TestCollapse(t *testing.T) {
	tr := newTestTree(t)
	tr2 := newTestTree(t)
	layout, err := diamer.NewLayout(11, diamer.MustParseMask("1111"), 22, 0)
	if err != nil {
		t.Error(err)
		return
	}

	// duplicated k-mers of taxa 3 and 4 collapse to one entry of taxon 1
	col := tr.AddIntProperty(tree.PropKmersInDatabase, 0)
	rems := []uint64{5, 5, 7}
	ids := []uint32{3, 4, 3}
	entries, err := Collapse(layout, tr, col, rems, ids)
	if err != nil {
		t.Error(err)
		return
	}
	expected := []uint64{layout.Pack(5, 1), layout.Pack(7, 3)}
	if len(entries) != len(expected) {
		t.Errorf("number of entries, expected: %d, result: %d", len(expected), len(entries))
		return
	}
	for i, e := range entries {
		if e != expected[i] {
			t.Errorf("entry %d, expected: %d, result: %d", i, expected[i], e)
		}
	}
	for id, n := range map[uint32]int64{1: 1, 3: 1, 4: 0, 5: 0} {
		if v := tr.Int(col, id); v != n {
			t.Errorf("k-mers of taxon %d, expected: %d, result: %d", id, n, v)
		}
	}

	// a taxon and its ancestor
	col = tr2.AddIntProperty(tree.PropKmersInDatabase, 0)
	entries, err = Collapse(layout, tr2, col, []uint64{9, 9, 9}, []uint32{5, 3, 5})
	if err != nil {
		t.Error(err)
		return
	}
	if len(entries) != 1 || layout.EntryID(entries[0]) != 3 || layout.EntryRemainder(entries[0]) != 9 {
		t.Errorf("unexpected entries: %v", entries)
	}
	if v := tr2.Int(col, 3); v != 1 {
		t.Errorf("k-mers of taxon 3, expected: 1, result: %d", v)
	}
}

func TestIndexDB(t *testing.T) {
	tr := newTestTree(t)
	opt := testOptions(t, SeqTypeProtein)

	protein := []byte("MKVLAAGIVGLLLAQPSRWHCYFDENT")
	records := []*Record{
		{Header: []byte("3 protein a"), Seq: protein},
		{Header: []byte("4 protein b"), Seq: protein},
		{Header: []byte("999 unknown taxon"), Seq: protein},
		{Header: []byte("no taxid"), Seq: protein},
		{Header: []byte("5 too short"), Seq: []byte("MK")},
	}

	report, err := IndexDB(context.Background(), opt, NewSliceSupplier(records), tr)
	if err != nil {
		t.Error(err)
		return
	}
	if report.Records != 5 || report.Unknown != 2 || report.Short != 1 {
		t.Errorf("unexpected counts: records %d, unknown %d, short %d", report.Records, report.Unknown, report.Short)
	}

	// expected k-mers
	ex, err := diamer.NewExtractor(11, diamer.MustParseMask("1111"), diamer.Filter{Kind: diamer.FilterNone}, nil)
	if err != nil {
		t.Error(err)
		return
	}
	expected := make(map[uint64]bool)
	for _, f := range alphabet.Base11.EncodeProtein(protein, nil) {
		for _, code := range ex.Extract(f, nil) {
			expected[code] = true
		}
	}
	if report.Kmers != int64(2*(len(protein)-3)) {
		t.Errorf("k-mers, expected: %d, result: %d", 2*(len(protein)-3), report.Kmers)
	}
	if report.Entries != int64(len(expected)) {
		t.Errorf("entries, expected: %d, result: %d", len(expected), report.Entries)
	}

	info, err := diamer.ReadIndexInfo(filepath.Join(opt.OutDir, diamer.FileInfo))
	if err != nil {
		t.Error(err)
		return
	}
	layout, err := info.Layout()
	if err != nil {
		t.Error(err)
		return
	}

	// all entries carry the lowest common ancestor of taxa 3 and 4
	found := make(map[uint64]bool)
	for name := 0; name < layout.NumBuckets; name++ {
		entries, err := bucket.Read(bucket.FileName(opt.OutDir, name), bucket.Raw)
		if err != nil {
			t.Error(err)
			return
		}
		for _, e := range entries {
			kmer := layout.Kmer(name, layout.EntryRemainder(e))
			if !expected[kmer] {
				t.Errorf("unexpected k-mer: %d", kmer)
			}
			if found[kmer] {
				t.Errorf("duplicated k-mer: %d", kmer)
			}
			found[kmer] = true
			if id := layout.EntryID(e); id != 1 {
				t.Errorf("taxon of k-mer %d, expected: 1, result: %d", kmer, id)
			}
		}
	}
	if len(found) != len(expected) {
		t.Errorf("k-mers found, expected: %d, result: %d", len(expected), len(found))
	}

	// the tree file keeps the counts
	tr2, err := tree.ReadTSV(filepath.Join(opt.OutDir, FileTree))
	if err != nil {
		t.Error(err)
		return
	}
	col, err := tr2.IntProperty(tree.PropKmersInDatabase)
	if err != nil {
		t.Error(err)
		return
	}
	if v := tr2.Int(col, 1); v != int64(len(expected)) {
		t.Errorf("k-mers of taxon 1, expected: %d, result: %d", len(expected), v)
	}
}

func TestIndexDBIDOverflow(t *testing.T) {
	tr := tree.New()
	tr.AddNode(1, 1, "no rank", "")
	tr.AddNode(1<<10, 1, "species", "")
	if err := tr.Finish(); err != nil {
		t.Error(err)
		return
	}
	opt := testOptions(t, SeqTypeProtein)
	opt.BitsForIDs = 10

	_, err := IndexDB(context.Background(), opt, NewSliceSupplier(nil), tr)
	if err == nil {
		t.Errorf("taxid overflow expected")
	}
}

func TestIndexDBCapacityExceeded(t *testing.T) {
	tr := newTestTree(t)
	opt := testOptions(t, SeqTypeProtein)
	opt.SampleSize = 1

	// bucket sizes are estimated from the first record only,
	// while all k-mers of the second one go to the same bucket.
	records := []*Record{
		{Header: []byte("3 short"), Seq: []byte("MKVLAG")},
		{Header: []byte("4 repeat"), Seq: []byte(strings.Repeat("K", 3000))},
	}
	_, err := IndexDB(context.Background(), opt, NewSliceSupplier(records), tr)
	if errors.Cause(err) != bucket.ErrCapacityExceeded {
		t.Errorf("expected error: %v, result: %v", bucket.ErrCapacityExceeded, err)
	}
}
