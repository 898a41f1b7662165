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
	"io"

	diamer "github.com/husonlab/diamer1-sub000"
)

// Kmers extracts the k-mer codes of every record in the same way as
// the indexer, and calls fn with them. Symbol frequencies are sampled
// first if the filter needs them.
func Kmers(opt *Options, sup Supplier, fn func(r *Record, layout *diamer.Layout, codes []uint64) error) error {
	c, err := newConfig(opt)
	if err != nil {
		return err
	}

	var probs []float64
	if c.filter.NeedProbabilities() {
		_, counter, err := sample(c, sup, opt.SampleSize)
		if err != nil {
			return err
		}
		probs = counter.Frequencies()
	}
	ex, err := c.extractor(probs)
	if err != nil {
		return err
	}

	if err = sup.Reset(); err != nil {
		return err
	}
	var r *Record
	var frags [][]byte
	var codes []uint64
	for {
		r, err = sup.Next()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if frags, err = c.fragments(r.Seq, frags[:0]); err != nil {
			return err
		}
		codes = codes[:0]
		for _, f := range frags {
			codes = ex.Extract(f, codes)
		}
		if err = fn(r, c.layout, codes); err != nil {
			return err
		}
	}
}
