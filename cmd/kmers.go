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

	diamer "github.com/husonlab/diamer1-sub000"
	"github.com/husonlab/diamer1-sub000/alphabet"
	"github.com/husonlab/diamer1-sub000/index"
	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/xopen"
	"github.com/spf13/cobra"
)

var kmersCmd = &cobra.Command{
	Use:   "kmers",
	Short: "Print k-mers of sequences",
	Long: `Print k-mers of sequences

K-mers are extracted in the same way as the indexers do. It helps to
inspect alphabets, masks and filters.

Output columns:
  1. header
  2. bucket name
  3. k-mer code
  4. residues of the k-mer, the first residue of the group of each symbol
  5. symbols of the k-mer, one digit per symbol

`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)
		seq.ValidateSeq = false

		if len(args) == 0 {
			checkError(fmt.Errorf("no input files given"))
		}

		seqType := getFlagString(cmd, "seq-type")
		var iopt *index.Options
		switch seqType {
		case index.SeqTypeProtein:
			iopt = index.DefaultDBOptions()
		case index.SeqTypeDNA:
			iopt = index.DefaultReadsOptions()
		default:
			checkError(fmt.Errorf("invalid value of flag -t/--seq-type: %s, available: %s, %s",
				seqType, index.SeqTypeProtein, index.SeqTypeDNA))
		}
		getIndexOptions(cmd, opt, iopt)
		checkError(index.CheckOptions(iopt))
		alpha, err := alphabet.Get(iopt.Alphabet)
		checkError(err)

		outFile := getFlagString(cmd, "out-file")
		outfh, err := xopen.Wopen(outFile)
		checkError(err)
		defer outfh.Close()

		sup, err := index.NewFastxSupplier(args)
		checkError(err)
		defer sup.Close()

		var n int
		err = index.Kmers(iopt, sup, func(r *index.Record, layout *diamer.Layout, codes []uint64) error {
			for _, code := range codes {
				fmt.Fprintf(outfh, "%s\t%d\t%d\t%s\t%s\n", r.Header, layout.Bucket(code), code,
					alpha.DecodeKmer(code, layout.Weight),
					diamer.KmerString(code, layout.Base, layout.Weight))
			}
			n += len(codes)
			return nil
		})
		checkError(err)

		if opt.Verbose {
			log.Infof("%d k-mers printed", n)
		}
	},
}

func init() {
	RootCmd.AddCommand(kmersCmd)

	addIndexFlags(kmersCmd, index.DefaultDBOptions())

	kmersCmd.Flags().StringP("seq-type", "t", index.SeqTypeProtein,
		formatFlagUsage(fmt.Sprintf(`Sequence type: %s or %s. DNA sequences are translated in six frames.`,
			index.SeqTypeProtein, index.SeqTypeDNA)))
	kmersCmd.Flags().StringP("out-file", "o", "-",
		formatFlagUsage(`Out file ("-" for stdout).`))
}
