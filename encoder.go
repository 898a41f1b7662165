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

package diamer

import (
	"errors"
	"math/bits"
)

// ErrInvalidBase means the base of the alphabet is out of range.
var ErrInvalidBase = errors.New("diamer: invalid base, valid range is [2, 64]")

// ErrKmerOverflow means base^(k-s) does not fit in 64 bits.
var ErrKmerOverflow = errors.New("diamer: k-mer codes overflow 64 bits, try a smaller base or mask weight")

// ErrProbabilities means the symbol likelihood table does not match the base.
var ErrProbabilities = errors.New("diamer: number of symbol likelihoods should equal to the base")

// Encoder maintains a sliding window of k symbols and the mixed-radix code
// of the symbols at the masked positions, the leftmost masked position being
// the most significant.
//
// An Encoder is not safe for concurrent use, every goroutine needs its own.
type Encoder struct {
	base   uint64
	mask   Mask
	k      int
	weight int

	// table[p][c] = c * base^(number of masked positions after p),
	// all zeros for spaces.
	table [][]uint64
	top   uint64 // base^(weight-1), for contiguous masks only

	contiguous bool

	window []byte // ring buffer, window[head] is the leftmost symbol
	head   int

	code uint64

	probs []float64 // likelihood of each symbol, optional
	seen  []bool    // for counting distinct symbols
}

// NewEncoder creates an Encoder for a given base and mask.
// probs is the likelihood of each symbol, only needed by Probability().
func NewEncoder(base int, mask Mask, probs []float64) (*Encoder, error) {
	if base < 2 || base > 64 {
		return nil, ErrInvalidBase
	}
	if len(mask) == 0 || !mask[0] || !mask[len(mask)-1] {
		return nil, ErrInvalidMask
	}
	if probs != nil && len(probs) != base {
		return nil, ErrProbabilities
	}
	weight := mask.Weight()
	if _, ok := Pow(uint64(base), weight); !ok {
		return nil, ErrKmerOverflow
	}

	k := len(mask)
	enc := &Encoder{
		base:       uint64(base),
		mask:       mask,
		k:          k,
		weight:     weight,
		contiguous: mask.Contiguous(),
		window:     make([]byte, k),
		probs:      probs,
		seen:       make([]bool, base),
	}
	enc.top, _ = Pow(uint64(base), weight-1)

	enc.table = make([][]uint64, k)
	rank := weight
	for p := 0; p < k; p++ {
		row := make([]uint64, base)
		if mask[p] {
			rank--
			power, _ := Pow(uint64(base), rank)
			for c := range row {
				row[c] = uint64(c) * power
			}
		}
		enc.table[p] = row
	}

	return enc, nil
}

// K returns the window width.
func (enc *Encoder) K() int { return enc.k }

// Base returns the base of the alphabet.
func (enc *Encoder) Base() int { return int(enc.base) }

// Mask returns the mask.
func (enc *Encoder) Mask() Mask { return enc.mask }

// Weight returns the number of encoded positions.
func (enc *Encoder) Weight() int { return enc.weight }

// Reset zeroes the window.
func (enc *Encoder) Reset() {
	for i := range enc.window {
		enc.window[i] = 0
	}
	enc.head = 0
	enc.code = 0
}

// AddBack shifts the window to the left, puts the symbol on the rightmost
// (least significant) position and returns the new code.
func (enc *Encoder) AddBack(c byte) uint64 {
	if enc.contiguous {
		// drop the leftmost symbol
		enc.code = (enc.code-uint64(enc.window[enc.head])*enc.top)*enc.base + uint64(c)
		enc.window[enc.head] = c
		enc.head++
		if enc.head == enc.k {
			enc.head = 0
		}
		return enc.code
	}

	enc.window[enc.head] = c
	enc.head++
	if enc.head == enc.k {
		enc.head = 0
	}
	enc.code = enc.sum()
	return enc.code
}

// AddFront shifts the window to the right, puts the symbol on the leftmost
// (most significant) position and returns the new code.
// It is the mirror of AddBack, for walking a sequence backwards.
func (enc *Encoder) AddFront(c byte) uint64 {
	enc.head--
	if enc.head < 0 {
		enc.head = enc.k - 1
	}
	// enc.window[enc.head] holds the rightmost symbol now, which is dropped.
	if enc.contiguous {
		enc.code = enc.code/enc.base + uint64(c)*enc.top
		enc.window[enc.head] = c
		return enc.code
	}

	enc.window[enc.head] = c
	enc.code = enc.sum()
	return enc.code
}

func (enc *Encoder) sum() uint64 {
	var code uint64
	i := enc.head
	for p := 0; p < enc.k; p++ {
		code += enc.table[p][enc.window[i]]
		i++
		if i == enc.k {
			i = 0
		}
	}
	return code
}

// Code returns the current code.
func (enc *Encoder) Code() uint64 { return enc.code }

// Encode computes the code of a k-long symbol slice directly.
func (enc *Encoder) Encode(s []byte) uint64 {
	var code uint64
	for p := 0; p < enc.k && p < len(s); p++ {
		code += enc.table[p][s[p]]
	}
	return code
}

// Probability returns the product of the likelihoods of symbols
// on the masked positions. It returns 1 if no likelihoods are given.
func (enc *Encoder) Probability() float64 {
	if enc.probs == nil {
		return 1
	}
	p := 1.0
	i := enc.head
	for j := 0; j < enc.k; j++ {
		if enc.mask[j] {
			p *= enc.probs[enc.window[i]]
		}
		i++
		if i == enc.k {
			i = 0
		}
	}
	return p
}

// Complexity returns the number of distinct symbols on the masked positions.
func (enc *Encoder) Complexity() int {
	for c := range enc.seen {
		enc.seen[c] = false
	}
	var n int
	i := enc.head
	for j := 0; j < enc.k; j++ {
		if enc.mask[j] && !enc.seen[enc.window[i]] {
			enc.seen[enc.window[i]] = true
			n++
		}
		i++
		if i == enc.k {
			i = 0
		}
	}
	return n
}

// Pow returns base^e, and false if it overflows uint64.
func Pow(base uint64, e int) (uint64, bool) {
	var r uint64 = 1
	var hi uint64
	for i := 0; i < e; i++ {
		hi, r = bits.Mul64(r, base)
		if hi != 0 {
			return 0, false
		}
	}
	return r, true
}
