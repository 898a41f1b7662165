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
	"regexp"
	"runtime"
	"time"

	diamer "github.com/husonlab/diamer1-sub000"
	"github.com/husonlab/diamer1-sub000/alphabet"
	"github.com/husonlab/diamer1-sub000/bucket"
	"github.com/pkg/errors"
)

// Sequence types of the input.
const (
	SeqTypeProtein = "protein"
	SeqTypeDNA     = "dna"
)

// DefaultTaxIDRegexp extracts the taxid from a database header like "123 some protein".
const DefaultTaxIDRegexp = `^(\d+)`

// Options contains the options of building a database or read index.
type Options struct {
	// general
	NumCPUs     int
	ProgressBar bool // show progress bars
	OutDir      string

	// k-mer encoding
	Alphabet   string // base11, base11-uniform, or groups like [DEKNQR][AST]...
	Mask       string // spaced seed, e.g., 1111011
	BitsForIDs int    // lower bits of an entry for ids
	BucketBits int    // 0 for choosing automatically
	Filter     string // none, c:N, p:X, cm:W, pm:W
	SeqType    string // protein or dna

	// memory
	BucketsPerCycle int   // 0 for estimating from MaxMemory
	MaxMemory       int64 // bytes for bucket arrays of one cycle
	SampleSize      int   // sequences sampled by the estimator
	ContingentSize  int   // slots granted to a worker at a time

	// pipeline
	QueueSize   int           // batches between the reader and the workers
	BatchSize   int           // sequences in a batch
	PollTimeout time.Duration // waiting time of an idle worker
	MaxStalls   int           // consecutive timeouts before giving up
	WarnStalls  int           // log a warning every WarnStalls timeouts

	// sorting and writing
	SortThreshold  int    // smaller ranges are sorted by one goroutine
	BucketEncoding string // raw or delta

	// database only
	TaxIDRegexp string
}

// DefaultDBOptions returns the default options of indexing protein databases.
func DefaultDBOptions() *Options {
	opt := defaultOptions()
	opt.SeqType = SeqTypeProtein
	return opt
}

// DefaultReadsOptions returns the default options of indexing DNA reads.
func DefaultReadsOptions() *Options {
	opt := defaultOptions()
	opt.SeqType = SeqTypeDNA
	return opt
}

func defaultOptions() *Options {
	return &Options{
		NumCPUs: runtime.NumCPU(),

		Alphabet:   alphabet.NameBase11,
		Mask:       diamer.DefaultMask,
		BitsForIDs: diamer.DefaultBitsForIDs,
		Filter:     diamer.DefaultFilter.String(),

		MaxMemory:      4 << 30,
		SampleSize:     10000,
		ContingentSize: bucket.DefaultContingentSize,

		QueueSize:   64,
		BatchSize:   1000,
		PollTimeout: 100 * time.Millisecond,
		MaxStalls:   30000,
		WarnStalls:  500,

		SortThreshold:  10000,
		BucketEncoding: bucket.Raw.String(),

		TaxIDRegexp: DefaultTaxIDRegexp,
	}
}

// CheckOptions checks some important options.
func CheckOptions(opt *Options) error {
	_, err := newConfig(opt)
	return err
}

// config holds the parsed options.
type config struct {
	opt *Options

	alphabet *alphabet.Alphabet
	mask     diamer.Mask
	layout   *diamer.Layout
	filter   diamer.Filter
	encoding bucket.Encoding
	reTaxID  *regexp.Regexp
}

func newConfig(opt *Options) (*config, error) {
	if opt.NumCPUs < 1 {
		return nil, fmt.Errorf("invalid number of CPUs: %d, should be >= 1", opt.NumCPUs)
	}
	if opt.SeqType != SeqTypeProtein && opt.SeqType != SeqTypeDNA {
		return nil, fmt.Errorf("invalid sequence type: %s, available: %s, %s", opt.SeqType, SeqTypeProtein, SeqTypeDNA)
	}
	if opt.BucketsPerCycle < 0 {
		return nil, fmt.Errorf("invalid buckets per cycle: %d, should be >= 0", opt.BucketsPerCycle)
	}
	if opt.BucketsPerCycle == 0 && opt.MaxMemory <= 0 {
		return nil, fmt.Errorf("invalid max memory: %d, should be > 0", opt.MaxMemory)
	}
	if opt.SampleSize < 1 {
		return nil, fmt.Errorf("invalid sample size: %d, should be >= 1", opt.SampleSize)
	}
	if opt.ContingentSize < 1 {
		return nil, fmt.Errorf("invalid contingent size: %d, should be >= 1", opt.ContingentSize)
	}
	if opt.QueueSize < 1 {
		return nil, fmt.Errorf("invalid queue size: %d, should be >= 1", opt.QueueSize)
	}
	if opt.BatchSize < 1 {
		return nil, fmt.Errorf("invalid batch size: %d, should be >= 1", opt.BatchSize)
	}
	if opt.PollTimeout <= 0 {
		return nil, fmt.Errorf("invalid poll timeout: %s, should be > 0", opt.PollTimeout)
	}
	if opt.MaxStalls < 1 {
		return nil, fmt.Errorf("invalid max stalls: %d, should be >= 1", opt.MaxStalls)
	}
	if opt.SortThreshold < 1 {
		return nil, fmt.Errorf("invalid sort threshold: %d, should be >= 1", opt.SortThreshold)
	}

	c := &config{opt: opt}
	var err error

	if c.alphabet, err = alphabet.Get(opt.Alphabet); err != nil {
		return nil, err
	}
	if c.mask, err = diamer.ParseMask(opt.Mask); err != nil {
		return nil, errors.Wrap(err, opt.Mask)
	}
	if c.layout, err = diamer.NewLayout(c.alphabet.Base(), c.mask, opt.BitsForIDs, opt.BucketBits); err != nil {
		return nil, err
	}
	if c.filter, err = diamer.ParseFilter(opt.Filter); err != nil {
		return nil, err
	}
	if err = c.filter.Check(c.mask); err != nil {
		return nil, err
	}
	if c.encoding, err = bucket.ParseEncoding(opt.BucketEncoding); err != nil {
		return nil, err
	}
	if opt.TaxIDRegexp != "" {
		if c.reTaxID, err = regexp.Compile(opt.TaxIDRegexp); err != nil {
			return nil, errors.Wrap(err, "taxid regular expression")
		}
		if c.reTaxID.NumSubexp() < 1 {
			return nil, fmt.Errorf("the taxid regular expression should contain a capture group: %s", opt.TaxIDRegexp)
		}
	}
	return c, nil
}

// fragments converts a sequence to symbol fragments.
func (c *config) fragments(s []byte, dst [][]byte) ([][]byte, error) {
	if c.opt.SeqType == SeqTypeDNA {
		return c.alphabet.TranslateDNA(s, dst)
	}
	return c.alphabet.EncodeProtein(s, dst), nil
}

// extractor creates a k-mer extractor for one goroutine.
func (c *config) extractor(probs []float64) (diamer.Extractor, error) {
	return diamer.NewExtractor(c.layout.Base, c.mask, c.filter, probs)
}
