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

package alphabet

// Counter counts symbols for estimating their likelihoods.
// It is not safe for concurrent use, merge per-goroutine counters instead.
type Counter struct {
	counts []uint64
	total  uint64
}

// NewCounter creates a Counter for an alphabet of the given base.
func NewCounter(base int) *Counter {
	return &Counter{counts: make([]uint64, base)}
}

// Add counts the valid symbols of a sequence.
func (c *Counter) Add(symbols []byte) {
	for _, s := range symbols {
		if int(s) < len(c.counts) {
			c.counts[s]++
			c.total++
		}
	}
}

// Total returns the number of counted symbols.
func (c *Counter) Total() uint64 { return c.total }

// Count returns the count of a symbol.
func (c *Counter) Count(s byte) uint64 { return c.counts[s] }

// Frequencies returns the relative frequency of each symbol.
// A pseudo count of one is added, so no symbol has a likelihood of zero.
func (c *Counter) Frequencies() []float64 {
	freqs := make([]float64, len(c.counts))
	total := float64(c.total + uint64(len(c.counts)))
	for i, n := range c.counts {
		freqs[i] = float64(n+1) / total
	}
	return freqs
}
