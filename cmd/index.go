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

	"github.com/husonlab/diamer1-sub000/alphabet"
	"github.com/husonlab/diamer1-sub000/index"
	"github.com/spf13/cobra"
)

// addIndexFlags adds flags shared by index-db, index-reads and kmers.
func addIndexFlags(cmd *cobra.Command, def *index.Options) {
	cmd.Flags().StringP("alphabet", "a", def.Alphabet,
		formatFlagUsage(fmt.Sprintf(`Reduced amino acid alphabet: %s, %s, or groups of residues like "[DEKNQR][AST][ILV]...".`,
			alphabet.NameBase11, alphabet.NameBase11Uniform)))
	cmd.Flags().StringP("mask", "m", def.Mask,
		formatFlagUsage(`Spaced seed, 1 for used positions and 0 for ignored ones, e.g., 1110110111.`))
	cmd.Flags().StringP("filter", "f", def.Filter,
		formatFlagUsage(`K-mer filter: none, c:N (complexity > N), p:X (probability < X), `+
			`cm:W (complexity maximizers of windows of W), pm:W (probability minimizers of windows of W).`))
	cmd.Flags().IntP("bits-for-ids", "", def.BitsForIDs,
		formatFlagUsage(`Number of lower bits of an index entry for taxids or read ordinals. `+
			`It should be the same for databases and reads.`))
	cmd.Flags().IntP("bucket-bits", "", def.BucketBits,
		formatFlagUsage(`Number of lower bits of k-mers for bucket names. 0 for the smallest number `+
			`(but not less than 10) that makes the rest of a k-mer fit.`))
	cmd.Flags().IntP("sample-size", "", def.SampleSize,
		formatFlagUsage(`Number of sequences sampled for estimating symbol frequencies and bucket sizes.`))
}

// addBuildFlags adds flags of index-db and index-reads.
func addBuildFlags(cmd *cobra.Command, def *index.Options) {
	addIndexFlags(cmd, def)

	cmd.Flags().StringP("out-dir", "o", "",
		formatFlagUsage(`Output directory.`))
	cmd.Flags().BoolP("force", "", false,
		formatFlagUsage(`Overwrite the output directory.`))

	cmd.Flags().IntP("buckets-per-cycle", "", def.BucketsPerCycle,
		formatFlagUsage(`Number of buckets processed in one cycle. 0 for estimating it from --max-memory.`))
	cmd.Flags().IntP("max-memory", "", int(def.MaxMemory>>20),
		formatFlagUsage(`Maximum memory (MB) of bucket arrays in one cycle.`))
	cmd.Flags().IntP("contingent-size", "", def.ContingentSize,
		formatFlagUsage(`Number of bucket slots granted to a worker at a time.`))
	cmd.Flags().IntP("queue-size", "", def.QueueSize,
		formatFlagUsage(`Number of batches buffered between the sequence reader and the workers.`))
	cmd.Flags().IntP("batch-size", "", def.BatchSize,
		formatFlagUsage(`Number of sequences in a batch.`))
	cmd.Flags().IntP("max-stalls", "", def.MaxStalls,
		formatFlagUsage(fmt.Sprintf(`Give up if the workers receive no sequences for this number of %s periods.`,
			def.PollTimeout)))
	cmd.Flags().IntP("sort-threshold", "", def.SortThreshold,
		formatFlagUsage(`Ranges smaller than this are sorted by a single goroutine.`))
	cmd.Flags().StringP("bucket-encoding", "", def.BucketEncoding,
		formatFlagUsage(`Encoding of bucket files: raw (big-endian integers) or delta (varint deltas).`))
	cmd.Flags().BoolP("keep-in-memory", "", false,
		formatFlagUsage(`Read the input once and keep all sequences in memory, instead of parsing the files in every cycle.`))
}

// openInput creates a supplier of the input files, loaded into memory
// with --keep-in-memory.
func openInput(cmd *cobra.Command, opt *Options, files []string) index.Supplier {
	sup, err := index.NewFastxSupplier(files)
	checkError(err)
	if opt.Verbose {
		log.Infof("%d input file(s) given, %d bytes in total", len(sup.Files()), sup.Size())
	}
	if !getFlagBool(cmd, "keep-in-memory") {
		return sup
	}
	defer sup.Close()

	mem, err := index.LoadRecords(sup)
	checkError(err)
	if opt.Verbose {
		log.Infof("input loaded into memory, %d bytes of sequences and headers", mem.Size())
	}
	return mem
}

// getIndexOptions reads the flags added by addIndexFlags.
func getIndexOptions(cmd *cobra.Command, opt *Options, iopt *index.Options) {
	iopt.NumCPUs = opt.NumCPUs
	iopt.ProgressBar = opt.ProgressBar

	iopt.Alphabet = getFlagString(cmd, "alphabet")
	iopt.Mask = getFlagString(cmd, "mask")
	iopt.Filter = getFlagString(cmd, "filter")
	iopt.BitsForIDs = getFlagPositiveInt(cmd, "bits-for-ids")
	iopt.BucketBits = getFlagNonNegativeInt(cmd, "bucket-bits")
	iopt.SampleSize = getFlagPositiveInt(cmd, "sample-size")
}

// getBuildOptions reads the flags added by addBuildFlags.
func getBuildOptions(cmd *cobra.Command, opt *Options, iopt *index.Options) {
	getIndexOptions(cmd, opt, iopt)

	iopt.OutDir = getFlagString(cmd, "out-dir")
	iopt.BucketsPerCycle = getFlagNonNegativeInt(cmd, "buckets-per-cycle")
	iopt.MaxMemory = int64(getFlagPositiveInt(cmd, "max-memory")) << 20
	iopt.ContingentSize = getFlagPositiveInt(cmd, "contingent-size")
	iopt.QueueSize = getFlagPositiveInt(cmd, "queue-size")
	iopt.BatchSize = getFlagPositiveInt(cmd, "batch-size")
	iopt.MaxStalls = getFlagPositiveInt(cmd, "max-stalls")
	iopt.SortThreshold = getFlagPositiveInt(cmd, "sort-threshold")
	iopt.BucketEncoding = getFlagString(cmd, "bucket-encoding")

	checkError(index.CheckOptions(iopt))
	makeOutDir(iopt.OutDir, getFlagBool(cmd, "force"))
}

// logReport prints the summary of an index.
func logReport(r *index.Report, elapsed time.Duration) {
	log.Infof("%d sequences processed: %d without taxid, %d too short", r.Records, r.Unknown, r.Short)
	log.Infof("%d k-mers extracted, %d entries written in %d cycles", r.Kmers, r.Entries, r.Cycles)
	log.Infof("index saved to %s in %s", r.OutDir, elapsed)
}
