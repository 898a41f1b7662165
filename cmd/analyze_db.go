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

	"github.com/husonlab/diamer1-sub000/assign"
	"github.com/spf13/cobra"
)

var analyzeDBCmd = &cobra.Command{
	Use:   "analyze-db",
	Short: "Count k-mers of a database index per rank",
	Long: `Count k-mers of a database index per rank

All buckets of a database index are scanned, and every k-mer is counted
at the rank of its taxon. By default, taxa of other ranks are counted at
their nearest ancestor of a standard rank (superkingdom, kingdom, phylum,
class, order, family, genus, species), and taxa above all of them at
"no rank".

Output:
  <out-dir>/
    kmers_per_rank.tsv             entries in buckets and k-mers in the tree, per rank
    <rank>_kmer_histogram.tsv      k-mer values of a rank, in 1000 bins

`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)

		dbDir := getFlagString(cmd, "db-dir")
		if dbDir == "" {
			checkError(fmt.Errorf("flag -d/--db-dir needed"))
		}

		aopt := &assign.Options{
			NumCPUs:       opt.NumCPUs,
			ProgressBar:   opt.ProgressBar,
			OutDir:        getFlagString(cmd, "out-dir"),
			StandardRanks: !getFlagBool(cmd, "all-ranks"),
		}
		makeOutDir(aopt.OutDir, getFlagBool(cmd, "force"))

		ctx, cancel := signalContext()
		defer cancel()

		st, err := assign.AnalyzeDB(ctx, aopt, dbDir)
		checkError(err)

		if opt.Verbose {
			for r, rank := range st.Ranks {
				if st.Entries[r] > 0 {
					log.Infof("%s: %d k-mers", rank, st.Entries[r])
				}
			}
		}
	},
}

func init() {
	RootCmd.AddCommand(analyzeDBCmd)

	analyzeDBCmd.Flags().StringP("db-dir", "d", "",
		formatFlagUsage(`Database index directory created by "diamer index-db".`))
	analyzeDBCmd.Flags().StringP("out-dir", "o", "",
		formatFlagUsage(`Output directory.`))
	analyzeDBCmd.Flags().BoolP("force", "", false,
		formatFlagUsage(`Overwrite the output directory.`))
	analyzeDBCmd.Flags().BoolP("all-ranks", "", false,
		formatFlagUsage(`Count k-mers at every rank present in the taxonomy, not only the standard ones.`))
}
