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
	"runtime"
)

// Options contains the options of assigning reads.
type Options struct {
	NumCPUs     int
	ProgressBar bool // show progress bars
	OutDir      string

	Algorithms string // e.g., OVO:1.0,OVA:0.5

	// Normalize adds a second column for every algorithm, in which hit counts
	// are divided by the number of database k-mers of the taxon.
	Normalize bool

	// StandardRanks limits per-rank statistics to the standard ranks,
	// otherwise every rank present in the tree is reported.
	StandardRanks bool
}

// DefaultOptions returns the default options.
func DefaultOptions() *Options {
	return &Options{
		NumCPUs:       runtime.NumCPU(),
		Algorithms:    DefaultAlgorithms,
		StandardRanks: true,
	}
}

// CheckOptions checks some important options.
func CheckOptions(opt *Options) error {
	if opt.NumCPUs < 1 {
		return fmt.Errorf("invalid number of CPUs: %d, should be >= 1", opt.NumCPUs)
	}
	if opt.OutDir == "" {
		return fmt.Errorf("output directory needed")
	}
	_, err := ParseAlgorithms(opt.Algorithms)
	return err
}
