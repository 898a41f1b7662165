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
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/cznic/sortutil"
	"github.com/husonlab/diamer1-sub000/tree"
	"github.com/pkg/errors"
	"github.com/shenwei356/xopen"
	"github.com/twotwotwo/sorts"
)

const nLocks = 1024

// Hit is the number of k-mers a read shares with a taxon.
type Hit struct {
	TaxID uint32
	Count uint32
}

type hits []Hit

func (h hits) Len() int           { return len(h) }
func (h hits) Less(i, j int) bool { return h[i].TaxID < h[j].TaxID }
func (h hits) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

// Assignment is the hit table of reads, indexed by read ordinals.
// Hits of a read are added under a lock shared by every nLocks-th read.
type Assignment struct {
	Headers []string
	Hits    [][]Hit

	locks [nLocks]sync.Mutex
}

// NewAssignment creates an empty hit table of reads.
func NewAssignment(headers []string) *Assignment {
	return &Assignment{
		Headers: headers,
		Hits:    make([][]Hit, len(headers)),
	}
}

// Len returns the number of reads.
func (a *Assignment) Len() int { return len(a.Headers) }

// Add records one hit of a read. It is safe for concurrent use.
func (a *Assignment) Add(read uint32, taxid uint32) error {
	if int(read) >= len(a.Hits) {
		return errors.Errorf("assign: read %d out of range, %d reads in total", read, len(a.Hits))
	}
	l := &a.locks[read%nLocks]
	l.Lock()
	h := a.Hits[read]
	for i := range h {
		if h[i].TaxID == taxid {
			h[i].Count++
			l.Unlock()
			return nil
		}
	}
	a.Hits[read] = append(h, Hit{TaxID: taxid, Count: 1})
	l.Unlock()
	return nil
}

// SortHits orders the hits of every read by taxid.
func (a *Assignment) SortHits() {
	for _, h := range a.Hits {
		if len(h) > 1 {
			sorts.Quicksort(hits(h))
		}
	}
}

// Weights converts the hits of a read to weights. If norm is not nil,
// counts are divided by norm(taxid) when it is positive.
func (a *Assignment) Weights(read int, norm func(uint32) float64, dst []tree.Weight) []tree.Weight {
	dst = dst[:0]
	var w, d float64
	for _, h := range a.Hits[read] {
		w = float64(h.Count)
		if norm != nil {
			if d = norm(h.TaxID); d > 0 {
				w /= d
			}
		}
		dst = append(dst, tree.Weight{TaxID: h.TaxID, Weight: w})
	}
	return dst
}

// WriteRaw writes the hit table:
//
//	number of reads
//	header \t taxid:count taxid:count ...
func (a *Assignment) WriteRaw(file string) (err error) {
	outfh, err := xopen.Wopen(file)
	if err != nil {
		return errors.Wrap(err, file)
	}
	defer func() {
		if err2 := outfh.Close(); err == nil {
			err = errors.Wrap(err2, file)
		}
	}()

	fmt.Fprintf(outfh, "%d\n", len(a.Headers))
	for i, header := range a.Headers {
		outfh.WriteString(header)
		outfh.WriteByte('\t')
		for j, h := range a.Hits[i] {
			if j > 0 {
				outfh.WriteByte(' ')
			}
			fmt.Fprintf(outfh, "%d:%d", h.TaxID, h.Count)
		}
		outfh.WriteByte('\n')
	}
	return nil
}

// ReadRawAssignments reads a hit table written by WriteRaw.
func ReadRawAssignments(file string) (*Assignment, error) {
	fh, err := xopen.Ropen(file)
	if err != nil {
		return nil, errors.Wrap(err, file)
	}
	defer fh.Close()

	scanner := bufio.NewScanner(fh)
	scanner.Buffer(make([]byte, 0, 1<<16), 1<<30)
	if !scanner.Scan() {
		if err = scanner.Err(); err != nil {
			return nil, errors.Wrap(err, file)
		}
		return nil, errors.Wrapf(io.ErrUnexpectedEOF, "%s: empty file", file)
	}
	n, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
	if err != nil || n < 0 {
		return nil, errors.Errorf("%s: invalid number of reads: %s", file, scanner.Text())
	}

	a := &Assignment{
		Headers: make([]string, 0, n),
		Hits:    make([][]Hit, 0, n),
	}
	var line string
	var i, j int
	var v uint64
	for scanner.Scan() {
		line = scanner.Text()
		i = strings.LastIndexByte(line, '\t')
		if i < 0 {
			return nil, errors.Errorf("%s: invalid line: %s", file, line)
		}
		var h []Hit
		for _, item := range strings.Fields(line[i+1:]) {
			j = strings.IndexByte(item, ':')
			if j < 0 {
				return nil, errors.Errorf("%s: invalid hit: %s", file, item)
			}
			var hit Hit
			if v, err = strconv.ParseUint(item[:j], 10, 32); err != nil {
				return nil, errors.Errorf("%s: invalid taxid: %s", file, item)
			}
			hit.TaxID = uint32(v)
			if v, err = strconv.ParseUint(item[j+1:], 10, 32); err != nil {
				return nil, errors.Errorf("%s: invalid count: %s", file, item)
			}
			hit.Count = uint32(v)
			h = append(h, hit)
		}
		a.Headers = append(a.Headers, line[:i])
		a.Hits = append(a.Hits, h)
	}
	if err = scanner.Err(); err != nil {
		return nil, errors.Wrap(err, file)
	}
	if len(a.Headers) != n {
		return nil, errors.Errorf("%s: %d reads expected, %d found", file, n, len(a.Headers))
	}
	return a, nil
}

// distinct returns the sorted distinct values.
func distinct(ids []uint32) []uint32 {
	s := sortutil.Uint32Slice(ids)
	s.Sort()
	return ids[:sortutil.Dedupe(s)]
}
