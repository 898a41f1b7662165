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

package main

import (
	"fmt"
	"time"

	"github.com/husonlab/diamer1-sub000/index"
	"github.com/shenwei356/bio/seq"
	"github.com/spf13/cobra"
)

var indexReadsCmd = &cobra.Command{
	Use:   "index-reads",
	Short: "Build the index of DNA reads",
	Long: `Build the index of DNA reads

Reads are translated in six frames and encoded with the same alphabet and
mask as the database. Entries store read ordinals instead of taxids.

Input:
  DNA reads in (gzipped) FASTA/Q format. Stdin is not supported, as the input
  is read once per cycle.

Output:
  <out-dir>/
    info.toml            summary of the index
    report.txt           statistics of the run
    header_index.txt     read ordinals and headers
    <bucket>.bin         sorted bucket files

`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)
		seq.ValidateSeq = false

		timeStart := time.Now()

		if len(args) == 0 {
			checkError(fmt.Errorf("no input files given"))
		}

		iopt := index.DefaultReadsOptions()
		iopt.TaxIDRegexp = ""
		getBuildOptions(cmd, opt, iopt)

		sup := openInput(cmd, opt, args)
		defer sup.Close()

		ctx, cancel := signalContext()
		defer cancel()

		report, err := index.IndexReads(ctx, iopt, sup)
		checkError(err)

		if opt.Verbose {
			logReport(report, time.Since(timeStart))
		}
	},
}

func init() {
	RootCmd.AddCommand(indexReadsCmd)

	addBuildFlags(indexReadsCmd, index.DefaultReadsOptions())
}
