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
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrInvalidFilter means the k-mer filter policy can not be parsed or is out of range.
var ErrInvalidFilter = errors.New("diamer: invalid k-mer filter")

// FilterKind is the policy of choosing k-mers from a sequence.
type FilterKind uint8

const (
	// FilterNone keeps k-mers of all windows.
	FilterNone FilterKind = iota
	// FilterComplexity keeps k-mers with complexity > threshold.
	FilterComplexity
	// FilterProbability keeps k-mers with probability < threshold.
	FilterProbability
	// FilterComplexityMaximizer keeps the most complex k-mer of each window.
	FilterComplexityMaximizer
	// FilterProbabilityMinimizer keeps the least probable k-mer of each window.
	FilterProbabilityMinimizer
)

// Filter describes how k-mers are chosen.
type Filter struct {
	Kind      FilterKind
	Threshold float64 // for FilterComplexity and FilterProbability
	Window    int     // for minimizers, window size in symbols
}

// DefaultFilter keeps k-mers with more than 3 distinct symbols.
var DefaultFilter = Filter{Kind: FilterComplexity, Threshold: 3}

// ParseFilter parses filters like "none", "c:3", "p:1e-12", "cm:20", "pm:20".
func ParseFilter(s string) (Filter, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "none" {
		return Filter{Kind: FilterNone}, nil
	}
	i := strings.IndexByte(s, ':')
	if i < 0 {
		return Filter{}, errors.Wrap(ErrInvalidFilter, s)
	}
	name, value := s[:i], s[i+1:]

	var f Filter
	var err error
	switch name {
	case "c", "p":
		if name == "c" {
			f.Kind = FilterComplexity
		} else {
			f.Kind = FilterProbability
		}
		f.Threshold, err = strconv.ParseFloat(value, 64)
		if err != nil {
			return Filter{}, errors.Wrap(ErrInvalidFilter, s)
		}
	case "cm", "pm":
		if name == "cm" {
			f.Kind = FilterComplexityMaximizer
		} else {
			f.Kind = FilterProbabilityMinimizer
		}
		f.Window, err = strconv.Atoi(value)
		if err != nil {
			return Filter{}, errors.Wrap(ErrInvalidFilter, s)
		}
	default:
		return Filter{}, errors.Wrap(ErrInvalidFilter, s)
	}
	return f, nil
}

func (f Filter) String() string {
	switch f.Kind {
	case FilterComplexity:
		return fmt.Sprintf("c:%s", strconv.FormatFloat(f.Threshold, 'g', -1, 64))
	case FilterProbability:
		return fmt.Sprintf("p:%s", strconv.FormatFloat(f.Threshold, 'g', -1, 64))
	case FilterComplexityMaximizer:
		return fmt.Sprintf("cm:%d", f.Window)
	case FilterProbabilityMinimizer:
		return fmt.Sprintf("pm:%d", f.Window)
	default:
		return "none"
	}
}

// NeedProbabilities tells whether symbol likelihoods are needed.
func (f Filter) NeedProbabilities() bool {
	return f.Kind == FilterProbability || f.Kind == FilterProbabilityMinimizer
}

// Check validates the filter against a mask.
func (f Filter) Check(mask Mask) error {
	switch f.Kind {
	case FilterComplexity:
		if f.Threshold < 0 || f.Threshold >= float64(mask.Weight()) {
			return errors.Wrapf(ErrInvalidFilter, "complexity threshold should be in range of [0, %d)", mask.Weight())
		}
	case FilterProbability:
		if f.Threshold < 0 || f.Threshold > 1 {
			return errors.Wrap(ErrInvalidFilter, "probability threshold should be in range of [0, 1]")
		}
	case FilterComplexityMaximizer, FilterProbabilityMinimizer:
		if f.Window <= mask.K() {
			return errors.Wrapf(ErrInvalidFilter, "window size should be > %d", mask.K())
		}
	}
	return nil
}

// Extractor extracts k-mer codes from a sequence of symbols.
// Implementations own an Encoder and are not safe for concurrent use.
type Extractor interface {
	// Extract appends k-mer codes of s to dst and returns the extended slice.
	// s must only contain symbols in [0, base).
	// Sequences shorter than the window yield nothing.
	Extract(s []byte, dst []uint64) []uint64

	// Encoder returns the underlying encoder.
	Encoder() *Encoder
}

// NewExtractor creates an Extractor following the filter policy.
func NewExtractor(base int, mask Mask, filter Filter, probs []float64) (Extractor, error) {
	if err := filter.Check(mask); err != nil {
		return nil, err
	}
	if !filter.NeedProbabilities() {
		probs = nil
	} else if probs == nil {
		return nil, errors.Wrap(ErrProbabilities, "probability-based filters need symbol likelihoods")
	}

	enc, err := NewEncoder(base, mask, probs)
	if err != nil {
		return nil, err
	}

	switch filter.Kind {
	case FilterComplexity:
		threshold := int(math.Floor(filter.Threshold))
		return &filterExtractor{enc: enc, keep: func(e *Encoder) bool {
			return e.Complexity() > threshold
		}}, nil
	case FilterProbability:
		threshold := filter.Threshold
		return &filterExtractor{enc: enc, keep: func(e *Encoder) bool {
			return e.Probability() < threshold
		}}, nil
	case FilterComplexityMaximizer:
		return newWindowExtractor(enc, filter.Window, func(e *Encoder) float64 {
			return -float64(e.Complexity())
		}), nil
	case FilterProbabilityMinimizer:
		return newWindowExtractor(enc, filter.Window, func(e *Encoder) float64 {
			return e.Probability()
		}), nil
	default:
		return &filterExtractor{enc: enc}, nil
	}
}

// filterExtractor keeps k-mers of all windows passing the filter.
type filterExtractor struct {
	enc  *Encoder
	keep func(*Encoder) bool // nil for keeping all
}

func (x *filterExtractor) Encoder() *Encoder { return x.enc }

func (x *filterExtractor) Extract(s []byte, dst []uint64) []uint64 {
	k := x.enc.k
	if len(s) < k {
		return dst
	}
	x.enc.Reset()
	for _, c := range s[:k-1] {
		x.enc.AddBack(c)
	}
	var code uint64
	for _, c := range s[k-1:] {
		code = x.enc.AddBack(c)
		if x.keep == nil || x.keep(x.enc) {
			dst = append(dst, code)
		}
	}
	return dst
}

// windowExtractor picks the k-mer with the lowest score in each window of w symbols.
// When the current best k-mer slides out of the window, the window is rescanned
// and the last k-mer with the lowest score wins.
// Consecutive identical picks are reported once.
type windowExtractor struct {
	enc   *Encoder
	w     int
	score func(*Encoder) float64

	// ring buffers of the k-mers in the window
	codes  []uint64
	scores []float64
}

func newWindowExtractor(enc *Encoder, w int, score func(*Encoder) float64) *windowExtractor {
	n := w - enc.k + 1
	return &windowExtractor{
		enc:    enc,
		w:      w,
		score:  score,
		codes:  make([]uint64, n),
		scores: make([]float64, n),
	}
}

func (x *windowExtractor) Encoder() *Encoder { return x.enc }

func (x *windowExtractor) Extract(s []byte, dst []uint64) []uint64 {
	k := x.enc.k
	if len(s) < x.w {
		return dst
	}
	n := len(x.codes) // k-mers per window

	x.enc.Reset()
	for _, c := range s[:k-1] {
		x.enc.AddBack(c)
	}

	// the first n-1 k-mers
	var j int // next slot in the ring
	for _, c := range s[k-1 : x.w-1] {
		x.codes[j] = x.enc.AddBack(c)
		x.scores[j] = x.score(x.enc)
		j++
	}

	best := -1 // ring slot of the current pick
	var bestScore float64
	var age int // how many k-mers were added after the pick
	var code uint64
	var score float64
	var last uint64
	var found bool
	for _, c := range s[x.w-1:] {
		code = x.enc.AddBack(c)
		score = x.score(x.enc)
		x.codes[j] = code
		x.scores[j] = score

		if best >= 0 {
			age++
		}
		if best >= 0 && score < bestScore {
			best, bestScore, age = j, score, 0
		} else if best < 0 || age >= n {
			// the pick slid out, rescan from the oldest one
			best = x.rescan(j)
			bestScore = x.scores[best]
			age = x.distance(best, j)
		}

		j++
		if j == n {
			j = 0
		}

		if !found || x.codes[best] != last {
			last = x.codes[best]
			dst = append(dst, last)
			found = true
		}
	}
	return dst
}

// rescan returns the slot of the last k-mer with the lowest score,
// newest is the slot of the newest k-mer.
func (x *windowExtractor) rescan(newest int) int {
	n := len(x.codes)
	i := newest + 1 // the oldest
	if i == n {
		i = 0
	}
	best := i
	bestScore := math.Inf(1)
	for m := 0; m < n; m++ {
		if x.scores[i] <= bestScore {
			best, bestScore = i, x.scores[i]
		}
		i++
		if i == n {
			i = 0
		}
	}
	return best
}

// distance returns the number of k-mers added after slot i up to slot newest.
func (x *windowExtractor) distance(i, newest int) int {
	d := newest - i
	if d < 0 {
		d += len(x.codes)
	}
	return d
}
