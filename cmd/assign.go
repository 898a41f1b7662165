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
	"strings"

	"github.com/husonlab/diamer1-sub000/assign"
	"github.com/spf13/cobra"
)

var assignCmd = &cobra.Command{
	Use:   "assign",
	Short: "Assign reads to taxa",
	Long: `Assign reads to taxa

Buckets of a database index and a read index are merge-joined to find
shared k-mers of every read. Reads are then assigned by walking the
taxonomy from the root into the dominant branch:

  OVO:r  one vs one, descend while highest * r > second highest
  OVA:r  one vs all, descend while highest > r * sum of all children

With --normalize, every algorithm also runs on hit counts divided by
the number of database k-mers of taxa.

Output:
  <out-dir>/
    raw_assignments.tsv        hits of every read, taxid:count
    per_read_assignments.tsv   assigned taxa, one column per algorithm
    per_rank_statistics.tsv    reads assigned at each rank or below
    tree.tsv                   taxonomy with the number of assigned reads

`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)

		dbDir := getFlagString(cmd, "db-dir")
		readsDir := getFlagString(cmd, "reads-dir")
		if dbDir == "" || readsDir == "" {
			checkError(fmt.Errorf("flags -d/--db-dir and -r/--reads-dir needed"))
		}

		aopt := &assign.Options{
			NumCPUs:       opt.NumCPUs,
			ProgressBar:   opt.ProgressBar,
			OutDir:        getFlagString(cmd, "out-dir"),
			Algorithms:    strings.Join(getFlagStringSlice(cmd, "algorithms"), ","),
			Normalize:     getFlagBool(cmd, "normalize"),
			StandardRanks: !getFlagBool(cmd, "all-ranks"),
		}
		checkError(assign.CheckOptions(aopt))
		makeOutDir(aopt.OutDir, getFlagBool(cmd, "force"))

		ctx, cancel := signalContext()
		defer cancel()

		res, err := assign.Run(ctx, aopt, dbDir, readsDir)
		checkError(err)

		if opt.Verbose {
			for c, name := range res.Columns {
				var n int
				for _, id := range res.Taxa[c] {
					if id != assign.Unassigned {
						n++
					}
				}
				log.Infof("%s: %d of %d reads assigned", name, n, len(res.Taxa[c]))
			}
		}
	},
}

func init() {
	RootCmd.AddCommand(assignCmd)

	assignCmd.Flags().StringP("db-dir", "d", "",
		formatFlagUsage(`Database index directory created by "diamer index-db".`))
	assignCmd.Flags().StringP("reads-dir", "r", "",
		formatFlagUsage(`Read index directory created by "diamer index-reads".`))
	assignCmd.Flags().StringP("out-dir", "o", "",
		formatFlagUsage(`Output directory.`))
	assignCmd.Flags().BoolP("force", "", false,
		formatFlagUsage(`Overwrite the output directory.`))
	assignCmd.Flags().StringSliceP("algorithms", "A", strings.Split(assign.DefaultAlgorithms, ","),
		formatFlagUsage(`Algorithms with ratios, e.g., OVO:1.0,OVA:0.5.`))
	assignCmd.Flags().BoolP("normalize", "n", false,
		formatFlagUsage(`Also run every algorithm on hit counts normalized by the number of database k-mers of taxa.`))
	assignCmd.Flags().BoolP("all-ranks", "", false,
		formatFlagUsage(`Report all ranks in per-rank statistics, not only the standard ones.`))
}
