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
	"fmt"

	"github.com/husonlab/diamer1-sub000/tree"
	"github.com/pkg/errors"
	"github.com/shenwei356/xopen"
)

// WritePerRead writes the assigned taxa of every read, one column per algorithm.
func (res *Result) WritePerRead(file string) (err error) {
	outfh, err := xopen.Wopen(file)
	if err != nil {
		return errors.Wrap(err, file)
	}
	defer func() {
		if err2 := outfh.Close(); err == nil {
			err = errors.Wrap(err2, file)
		}
	}()

	outfh.WriteString("read")
	for _, name := range res.Columns {
		outfh.WriteByte('\t')
		outfh.WriteString(name)
	}
	outfh.WriteByte('\n')

	for i, header := range res.Assignment.Headers {
		outfh.WriteString(header)
		for c := range res.Columns {
			fmt.Fprintf(outfh, "\t%d", res.Taxa[c][i])
		}
		outfh.WriteByte('\n')
	}
	return nil
}

// Ranks returns the ranks present in the tree, in BFS order of
// their first appearance. Empty ranks and "no rank" are left out.
func Ranks(t *tree.Tree) []string {
	seen := make(map[string]struct{})
	ranks := make([]string, 0, 32)
	var rank string
	var ok bool
	t.Walk(func(id uint32) bool {
		rank = t.Rank(id)
		if rank == "" || rank == "no rank" {
			return true
		}
		if _, ok = seen[rank]; !ok {
			seen[rank] = struct{}{}
			ranks = append(ranks, rank)
		}
		return true
	})
	return ranks
}

// RankStats counts, for every algorithm, the reads assigned to a taxon
// of each rank or below it.
type RankStats struct {
	Columns []string
	Ranks   []string

	Counts     [][]int64 // [column][rank]
	Assigned   []int64
	Unassigned []int64
	Taxa       []int // distinct taxa assigned
}

// RankStatistics computes the per-rank statistics of the given ranks.
func (res *Result) RankStatistics(ranks []string) *RankStats {
	t := res.Tree
	rankIdx := make(map[string]int, len(ranks))
	for i, r := range ranks {
		rankIdx[r] = i
	}

	s := &RankStats{
		Columns:    res.Columns,
		Ranks:      ranks,
		Counts:     make([][]int64, len(res.Columns)),
		Assigned:   make([]int64, len(res.Columns)),
		Unassigned: make([]int64, len(res.Columns)),
		Taxa:       make([]int, len(res.Columns)),
	}

	// a rank appearing twice on a path is counted once per read
	stamps := make([]int, len(ranks))
	var ri int
	var ok bool
	for c, taxa := range res.Taxa {
		counts := make([]int64, len(ranks))
		for i := range stamps {
			stamps[i] = -1
		}
		for i, id := range taxa {
			if id == Unassigned {
				s.Unassigned[c]++
				continue
			}
			s.Assigned[c]++
			for _, p := range t.Path(id) {
				if ri, ok = rankIdx[t.Rank(p)]; ok && stamps[ri] != i {
					stamps[ri] = i
					counts[ri]++
				}
			}
		}
		s.Counts[c] = counts

		ids := make([]uint32, len(taxa))
		copy(ids, taxa)
		ids = distinct(ids)
		s.Taxa[c] = len(ids)
		if len(ids) > 0 && ids[0] == Unassigned {
			s.Taxa[c]--
		}
	}
	return s
}

// Write writes the statistics as a table, one column per algorithm.
func (s *RankStats) Write(file string) (err error) {
	outfh, err := xopen.Wopen(file)
	if err != nil {
		return errors.Wrap(err, file)
	}
	defer func() {
		if err2 := outfh.Close(); err == nil {
			err = errors.Wrap(err2, file)
		}
	}()

	outfh.WriteString("rank")
	for _, name := range s.Columns {
		outfh.WriteByte('\t')
		outfh.WriteString(name)
	}
	outfh.WriteByte('\n')

	row := func(name string, value func(c int) int64) {
		outfh.WriteString(name)
		for c := range s.Columns {
			fmt.Fprintf(outfh, "\t%d", value(c))
		}
		outfh.WriteByte('\n')
	}
	for r, rank := range s.Ranks {
		row(rank, func(c int) int64 { return s.Counts[c][r] })
	}
	row("assigned", func(c int) int64 { return s.Assigned[c] })
	row("unassigned", func(c int) int64 { return s.Unassigned[c] })
	row("taxa", func(c int) int64 { return int64(s.Taxa[c]) })
	return nil
}
