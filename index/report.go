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
	"fmt"
	"path/filepath"
	"strings"
	"time"

	diamer "github.com/husonlab/diamer1-sub000"
	"github.com/pkg/errors"
	"github.com/shenwei356/xopen"
)

// Files in an index directory.
const (
	FileReport  = "report.txt"
	FileHeaders = "header_index.txt"
	FileTree    = "tree.tsv"
)

func infoFile(dir string) string   { return filepath.Join(dir, diamer.FileInfo) }
func reportFile(dir string) string { return filepath.Join(dir, FileReport) }

// Report summarizes an index run.
type Report struct {
	Kind   string
	Input  []string
	OutDir string

	Layout          string
	Filter          string
	BucketsPerCycle int
	Cycles          int
	Capacity        int

	Records int64 // processed records
	Unknown int64 // skipped, without a known taxid
	Short   int64 // skipped, shorter than k
	Kmers   int64 // extracted k-mers
	Entries int64 // entries written, after collapsing for databases

	BucketSizes []int64 // entries of each bucket file

	Elapsed time.Duration
}

// Write writes the report as plain text.
func (r *Report) Write(file string) (err error) {
	outfh, err := xopen.Wopen(file)
	if err != nil {
		return errors.Wrap(err, file)
	}
	defer func() {
		if err2 := outfh.Close(); err == nil {
			err = errors.Wrap(err2, file)
		}
	}()

	fmt.Fprintf(outfh, "kind: %s\n", r.Kind)
	if len(r.Input) > 0 {
		fmt.Fprintf(outfh, "input file: %s\n", strings.Join(r.Input, ", "))
	}
	fmt.Fprintf(outfh, "output directory: %s\n", r.OutDir)
	fmt.Fprintf(outfh, "layout: %s\n", r.Layout)
	fmt.Fprintf(outfh, "filter: %s\n", r.Filter)
	fmt.Fprintf(outfh, "bucket capacity: %d\n", r.Capacity)
	fmt.Fprintf(outfh, "buckets per cycle: %d\n", r.BucketsPerCycle)
	fmt.Fprintf(outfh, "cycles: %d\n", r.Cycles)
	fmt.Fprintf(outfh, "processed records: %d\n", r.Records)
	if r.Kind == diamer.KindDatabase {
		fmt.Fprintf(outfh, "skipped records (unknown taxid): %d\n", r.Unknown)
	}
	fmt.Fprintf(outfh, "skipped records (length < k): %d\n", r.Short)
	fmt.Fprintf(outfh, "total k-mers: %d\n", r.Kmers)
	fmt.Fprintf(outfh, "total entries: %d\n", r.Entries)
	fmt.Fprintf(outfh, "time elapsed: %s\n", r.Elapsed)
	fmt.Fprintf(outfh, "bucket sizes:\n")
	for name, n := range r.BucketSizes {
		fmt.Fprintf(outfh, "%d\t%d\n", name, n)
	}
	return nil
}
