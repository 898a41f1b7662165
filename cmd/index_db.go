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
	"github.com/husonlab/diamer1-sub000/tree"
	"github.com/pkg/errors"
	"github.com/shenwei356/bio/seq"
	"github.com/spf13/cobra"
)

var indexDBCmd = &cobra.Command{
	Use:   "index-db",
	Short: "Build the index of a protein database",
	Long: `Build the index of a protein database

Input:
  1. Protein sequences in (gzipped) FASTA format, headers should contain taxids,
     which are captured by --taxid-regexp. Stdin is not supported, as the input
     is read once per cycle.
  2. NCBI taxonomy dump files nodes.dmp and names.dmp.

Output:
  <out-dir>/
    info.toml            summary of the index
    report.txt           statistics of the run
    tree.tsv             taxonomy with the number of k-mers of each taxon
    <bucket>.bin         sorted bucket files

K-mers shared by several taxa are assigned to their lowest common ancestor.

`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)
		seq.ValidateSeq = false

		timeStart := time.Now()

		if len(args) == 0 {
			checkError(fmt.Errorf("no input files given"))
		}
		nodesFile := getFlagString(cmd, "nodes")
		namesFile := getFlagString(cmd, "names")
		if nodesFile == "" {
			checkError(fmt.Errorf("flag --nodes needed"))
		}

		iopt := index.DefaultDBOptions()
		iopt.TaxIDRegexp = getFlagString(cmd, "taxid-regexp")
		getBuildOptions(cmd, opt, iopt)

		// ---------------------------------------------------------------

		if opt.Verbose {
			log.Infof("loading taxonomy from %s", nodesFile)
		}
		t, err := tree.LoadNCBI(nodesFile, namesFile)
		checkError(errors.Wrap(err, "loading taxonomy"))
		if opt.Verbose {
			log.Infof("%d taxa loaded", t.Len())
		}

		sup := openInput(cmd, opt, args)
		defer sup.Close()

		ctx, cancel := signalContext()
		defer cancel()

		report, err := index.IndexDB(ctx, iopt, sup, t)
		checkError(err)

		if opt.Verbose {
			logReport(report, time.Since(timeStart))
		}
	},
}

func init() {
	RootCmd.AddCommand(indexDBCmd)

	def := index.DefaultDBOptions()
	addBuildFlags(indexDBCmd, def)

	indexDBCmd.Flags().StringP("nodes", "", "",
		formatFlagUsage(`NCBI taxonomy file nodes.dmp, plain or gzipped.`))
	indexDBCmd.Flags().StringP("names", "", "",
		formatFlagUsage(`NCBI taxonomy file names.dmp, plain or gzipped. Optional.`))
	indexDBCmd.Flags().StringP("taxid-regexp", "", def.TaxIDRegexp,
		formatFlagUsage(`Regular expression capturing taxids in sequence headers.`))
}
